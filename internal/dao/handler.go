package dao

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/castquest/castquest/internal/platform/httpx"
	"github.com/castquest/castquest/internal/rbac"
	"github.com/castquest/castquest/internal/shared"
)

// Handler exposes the governance submission endpoints.
type Handler struct {
	logger    *slog.Logger
	client    *Client
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, client *Client, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, client: client, rbac: rbacMW, validator: validator.New()}
}

// MountRoutes registers governance routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(shared.PermDAOSubmit))
	r.Post("/proposals", h.handlePropose)
	r.Post("/proposals/{id}/votes", h.handleVote)
	r.Post("/proposals/{id}/execute", h.handleExecute)
}

type proposePayload struct {
	Proposer    string `json:"proposer" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type votePayload struct {
	Voter   string `json:"voter" validate:"required"`
	Support int    `json:"support" validate:"gte=0,lte=2"`
}

func (h *Handler) handlePropose(w http.ResponseWriter, r *http.Request) {
	var payload proposePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be JSON")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	proposalID, err := h.client.Propose(r.Context(), payload.Proposer, payload.Description)
	if err != nil {
		h.logger.Error("propose", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Governance Node Error", err.Error())
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]string{"proposalId": proposalID})
}

func (h *Handler) handleVote(w http.ResponseWriter, r *http.Request) {
	var payload votePayload
	if err := httpx.DecodeJSON(r, &payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", "request body must be JSON")
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	txHash, err := h.client.CastVote(r.Context(), payload.Voter, chi.URLParam(r, "id"), payload.Support)
	if err != nil {
		h.logger.Error("cast vote", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Governance Node Error", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"txHash": txHash})
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	txHash, err := h.client.Execute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.logger.Error("execute proposal", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadGateway, "Governance Node Error", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"txHash": txHash})
}
