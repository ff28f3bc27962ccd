package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/castquest/castquest/internal/auth"
	"github.com/castquest/castquest/internal/dao"
	"github.com/castquest/castquest/internal/frames"
	"github.com/castquest/castquest/internal/media"
	"github.com/castquest/castquest/internal/mints"
	"github.com/castquest/castquest/internal/observability"
	"github.com/castquest/castquest/internal/quests"
	"github.com/castquest/castquest/internal/rbac"
	"github.com/castquest/castquest/internal/shared"
	"github.com/castquest/castquest/internal/workers"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler        *auth.Handler
	FramesHandler      *frames.Handler
	QuestsHandler      *quests.Handler
	MintsHandler       *mints.Handler
	MediaHandler       *media.Handler
	WorkersHandler     *workers.Handler
	DAOHandler         *dao.Handler
	PermissionsHandler *rbac.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with CastQuest defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		if params.FramesHandler != nil {
			r.Route("/frames", params.FramesHandler.MountRoutes)
		}
		if params.QuestsHandler != nil {
			r.Route("/quests", params.QuestsHandler.MountRoutes)
		}
		if params.MintsHandler != nil {
			r.Route("/mints", params.MintsHandler.MountRoutes)
		}
		if params.MediaHandler != nil {
			r.Route("/media", params.MediaHandler.MountRoutes)
		}
		if params.WorkersHandler != nil {
			r.Route("/workers", params.WorkersHandler.MountRoutes)
		}
		if params.DAOHandler != nil {
			r.Route("/dao", params.DAOHandler.MountRoutes)
		}
		r.Route("/permissions", params.PermissionsHandler.MountRoutes)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
