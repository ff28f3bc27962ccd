package rbac

import (
	"encoding/json"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/castquest/castquest/internal/platform/httpx"
	"github.com/castquest/castquest/internal/shared"
)

// Handler exposes the access-control administration API.
type Handler struct {
	logger    *slog.Logger
	registry  *Registry
	validator *validator.Validate
	audit     *shared.AuditLogger
	rbac      Middleware
}

// NewHandler builds a Handler instance. The audit logger may be nil.
func NewHandler(logger *slog.Logger, registry *Registry, audit *shared.AuditLogger, rbac Middleware) *Handler {
	return &Handler{
		logger:    logger,
		registry:  registry,
		validator: validator.New(),
		audit:     audit,
		rbac:      rbac,
	}
}

// MountRoutes registers the permissions routes. All verbs require the
// system.admin permission.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermSystemAdmin))
		r.Get("/", h.get)
		r.Post("/", h.create)
		r.Put("/", h.update)
		r.Delete("/", h.deleteRole)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

type userPermissionsResponse struct {
	UserID      string   `json:"userId"`
	Permissions []string `json:"permissions"`
	User        *User    `json:"user,omitempty"`
}

type registryOverviewResponse struct {
	Roles           []Role `json:"roles"`
	Users           []User `json:"users"`
	PredefinedRoles []Role `json:"predefinedRoles"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		httpx.JSON(w, http.StatusOK, registryOverviewResponse{
			Roles:           h.registry.GetRoles(),
			Users:           h.registry.GetUsers(),
			PredefinedRoles: h.registry.PredefinedRoles(),
		})
		return
	}

	resp := userPermissionsResponse{
		UserID:      userID,
		Permissions: h.registry.GetUserPermissions(userID),
	}
	if user, ok := h.registry.GetUser(userID); ok {
		resp.User = &user
	}
	httpx.JSON(w, http.StatusOK, resp)
}

type createRequest struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type createRolePayload struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type createUserPayload struct {
	Email             string   `json:"email" validate:"required,email"`
	Name              string   `json:"name"`
	Roles             []string `json:"roles"`
	CustomPermissions []string `json:"customPermissions"`
	Active            *bool    `json:"active"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	switch req.Type {
	case "role":
		var payload createRolePayload
		if err := json.Unmarshal(req.Data, &payload); err != nil {
			httpx.JSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid role data"})
			return
		}
		if err := h.validator.Struct(payload); err != nil {
			httpx.JSON(w, http.StatusBadRequest, errorResponse{Error: "Role name is required"})
			return
		}
		role := h.registry.CreateRole(CreateRoleInput{
			Name:        payload.Name,
			Description: payload.Description,
			Permissions: payload.Permissions,
		})
		h.record(r, "role.create", "role", role.ID, map[string]any{"name": role.Name})
		httpx.JSON(w, http.StatusCreated, map[string]Role{"role": role})
	case "user":
		var payload createUserPayload
		if err := json.Unmarshal(req.Data, &payload); err != nil {
			httpx.JSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid user data"})
			return
		}
		if err := h.validator.Struct(payload); err != nil {
			httpx.JSON(w, http.StatusBadRequest, errorResponse{Error: "A valid email is required"})
			return
		}
		active := true
		if payload.Active != nil {
			active = *payload.Active
		}
		user := h.registry.CreateUser(CreateUserInput{
			Email:             payload.Email,
			Name:              payload.Name,
			Roles:             payload.Roles,
			CustomPermissions: payload.CustomPermissions,
			Active:            active,
		})
		h.record(r, "user.create", "user", user.ID, map[string]any{"email": user.Email})
		httpx.JSON(w, http.StatusCreated, map[string]User{"user": user})
	default:
		httpx.JSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid type"})
	}
}

type updateRequest struct {
	Type   string          `json:"type"`
	ID     string          `json:"id"`
	Action string          `json:"action"`
	Value  json.RawMessage `json:"value"`
}

type roleUpdatePayload struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Permissions []string `json:"permissions"`
}

type userResponse struct {
	User *User `json:"user,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return
	}

	switch req.Type {
	case "user":
		var value string
		if len(req.Value) > 0 {
			if err := json.Unmarshal(req.Value, &value); err != nil {
				httpx.JSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid value"})
				return
			}
		}
		switch req.Action {
		case "addRole":
			h.registry.AddRoleToUser(req.ID, value)
		case "removeRole":
			h.registry.RemoveRoleFromUser(req.ID, value)
		case "addPermission":
			h.registry.AddPermissionToUser(req.ID, value)
		case "removePermission":
			h.registry.RemovePermissionFromUser(req.ID, value)
		default:
			httpx.JSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid type"})
			return
		}
		h.record(r, "user."+req.Action, "user", req.ID, map[string]any{"value": value})
		resp := userResponse{}
		if user, ok := h.registry.GetUser(req.ID); ok {
			resp.User = &user
		}
		httpx.JSON(w, http.StatusOK, resp)
	case "role":
		var payload roleUpdatePayload
		if len(req.Value) > 0 {
			if err := json.Unmarshal(req.Value, &payload); err != nil {
				httpx.JSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid value"})
				return
			}
		}
		role, ok := h.registry.UpdateRole(req.ID, RoleUpdate{
			Name:        payload.Name,
			Description: payload.Description,
			Permissions: payload.Permissions,
		})
		if !ok {
			httpx.JSON(w, http.StatusNotFound, errorResponse{Error: "Role not found"})
			return
		}
		h.record(r, "role.update", "role", role.ID, nil)
		httpx.JSON(w, http.StatusOK, map[string]Role{"role": role})
	default:
		httpx.JSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid type"})
	}
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	roleID := r.URL.Query().Get("roleId")
	if roleID == "" {
		httpx.JSON(w, http.StatusBadRequest, errorResponse{Error: "roleId is required"})
		return
	}
	deleted := h.registry.DeleteRole(roleID)
	if deleted {
		h.record(r, "role.delete", "role", roleID, nil)
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": deleted})
}

func (h *Handler) record(r *http.Request, action, entity, entityID string, meta map[string]any) {
	if h.audit == nil {
		return
	}
	actor := ""
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		actor = sess.User()
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
	}); err != nil && h.logger != nil {
		h.logger.Warn("audit record", slog.Any("error", err))
	}
}
