package frames

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/castquest/castquest/internal/platform/httpx"
	"github.com/castquest/castquest/internal/rbac"
	"github.com/castquest/castquest/internal/shared"
)

// Handler wires frame HTTP endpoints.
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

// MountRoutes registers frame routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermFramesRead, shared.PermFramesWrite))
		r.Get("/", h.handleList)
		r.Get("/templates", h.handleListTemplates)
		r.Get("/{slug}", h.handleGet)
		r.Get("/{slug}/render", h.handleRender)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermFramesWrite))
		r.Post("/", h.handleCreate)
		r.Post("/templates", h.handleCreateTemplate)
		r.Put("/{slug}", h.handleUpdate)
		r.Delete("/{slug}", h.handleDelete)
	})
}

type framePayload struct {
	Slug       string            `json:"slug" validate:"required"`
	Title      string            `json:"title"`
	ImageURL   string            `json:"imageUrl"`
	PostURL    string            `json:"postUrl"`
	Buttons    []string          `json:"buttons" validate:"max=4"`
	TemplateID *int64            `json:"templateId"`
	Overrides  map[string]string `json:"overrides"`
}

type templatePayload struct {
	Name     string            `json:"name" validate:"required"`
	Defaults map[string]string `json:"defaults"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	frames, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error("list frames", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"frames": frames})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	frame, err := h.service.Get(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"frame": frame})
}

func (h *Handler) handleRender(w http.ResponseWriter, r *http.Request) {
	rendered, err := h.service.Render(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rendered)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeFrame(w, r, "")
	if !ok {
		return
	}
	frame, err := h.service.Create(r.Context(), payload)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"frame": frame})
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decodeFrame(w, r, chi.URLParam(r, "slug"))
	if !ok {
		return
	}
	frame, err := h.service.Update(r.Context(), payload)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"frame": frame})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "slug")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.service.Templates(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"templates": templates})
}

func (h *Handler) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var payload templatePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be JSON")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tmpl, err := h.service.CreateTemplate(r.Context(), FrameTemplate{Name: payload.Name, Defaults: payload.Defaults})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"template": tmpl})
}

func (h *Handler) decodeFrame(w http.ResponseWriter, r *http.Request, slug string) (Frame, bool) {
	var payload framePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be JSON")
		return Frame{}, false
	}
	if slug != "" {
		payload.Slug = slug
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return Frame{}, false
	}
	return Frame{
		Slug:       payload.Slug,
		Title:      payload.Title,
		ImageURL:   payload.ImageURL,
		PostURL:    payload.PostURL,
		Buttons:    payload.Buttons,
		TemplateID: payload.TemplateID,
		Overrides:  payload.Overrides,
	}, true
}
