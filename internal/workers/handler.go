package workers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/castquest/castquest/internal/platform/httpx"
	"github.com/castquest/castquest/internal/rbac"
	"github.com/castquest/castquest/internal/shared"
)

// Inspector is the slice of asynq.Inspector the handler needs.
type Inspector interface {
	Queues() ([]string, error)
	GetQueueInfo(qname string) (*asynq.QueueInfo, error)
	PauseQueue(qname string) error
	UnpauseQueue(qname string) error
}

// QueueStatus summarises one queue for operators.
type QueueStatus struct {
	Queue     string `json:"queue"`
	Paused    bool   `json:"paused"`
	Size      int    `json:"size"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
}

// Handler exposes queue observability and control endpoints.
type Handler struct {
	logger    *slog.Logger
	inspector Inspector
	rbac      rbac.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, inspector Inspector, rbacMW rbac.Middleware) *Handler {
	return &Handler{logger: logger, inspector: inspector, rbac: rbacMW}
}

// MountRoutes registers worker routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Use(h.rbac.RequireAny(shared.PermWorkersControl))
	r.Get("/queues", h.handleQueues)
	r.Get("/queues/{name}", h.handleQueue)
	r.Post("/queues/{name}/pause", h.handlePause)
	r.Post("/queues/{name}/resume", h.handleResume)
}

func (h *Handler) handleQueues(w http.ResponseWriter, r *http.Request) {
	names, err := h.inspector.Queues()
	if err != nil {
		h.logger.Error("list queues", slog.Any("error", err))
		httpx.Problem(w, http.StatusServiceUnavailable, "Queue Unavailable", "")
		return
	}
	statuses := []QueueStatus{}
	for _, name := range names {
		info, err := h.inspector.GetQueueInfo(name)
		if err != nil {
			h.logger.Warn("queue info", slog.String("queue", name), slog.Any("error", err))
			continue
		}
		statuses = append(statuses, toStatus(info))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"queues": statuses})
}

func (h *Handler) handleQueue(w http.ResponseWriter, r *http.Request) {
	info, err := h.inspector.GetQueueInfo(chi.URLParam(r, "name"))
	if err != nil {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "unknown queue")
		return
	}
	httpx.JSON(w, http.StatusOK, toStatus(info))
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.inspector.PauseQueue(name); err != nil {
		h.logger.Error("pause queue", slog.String("queue", name), slog.Any("error", err))
		httpx.Problem(w, http.StatusConflict, "Pause Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.inspector.UnpauseQueue(name); err != nil {
		h.logger.Error("resume queue", slog.String("queue", name), slog.Any("error", err))
		httpx.Problem(w, http.StatusConflict, "Resume Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func toStatus(info *asynq.QueueInfo) QueueStatus {
	if info == nil {
		return QueueStatus{}
	}
	return QueueStatus{
		Queue:     info.Queue,
		Paused:    info.Paused,
		Size:      info.Size,
		Pending:   info.Pending,
		Active:    info.Active,
		Scheduled: info.Scheduled,
		Retry:     info.Retry,
		Archived:  info.Archived,
	}
}
