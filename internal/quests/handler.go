package quests

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/castquest/castquest/internal/platform/httpx"
	"github.com/castquest/castquest/internal/rbac"
	"github.com/castquest/castquest/internal/shared"
)

// Handler wires quest HTTP endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacMW, validator: validator.New()}
}

// MountRoutes registers quest routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermQuestsRead, shared.PermQuestsWrite))
		r.Get("/", h.handleList)
		r.Get("/{id}", h.handleGet)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermQuestsWrite))
		r.Post("/", h.handleCreate)
		r.Post("/{id}/activate", h.handleActivate)
		r.Post("/{id}/complete", h.handleComplete)
	})
}

type questPayload struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Reward      string     `json:"reward"`
	ExpiresAt   *time.Time `json:"expiresAt"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	status := Status(r.URL.Query().Get("status"))
	quests, err := h.service.List(r.Context(), status, limit, offset)
	if err != nil {
		h.logger.Error("list quests", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quests": quests})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be numeric")
		return
	}
	quest, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quest": quest})
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload questPayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be JSON")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	quest, err := h.service.Create(r.Context(), Quest{
		Title:       payload.Title,
		Description: payload.Description,
		Reward:      payload.Reward,
		ExpiresAt:   payload.ExpiresAt,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"quest": quest})
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Activate)
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, h.service.Complete)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id int64) (Quest, error)) {
	id, err := parseID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "id must be numeric")
		return
	}
	quest, err := fn(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quest": quest})
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
