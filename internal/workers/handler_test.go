package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/castquest/castquest/internal/rbac"
	"github.com/castquest/castquest/internal/shared"
	"github.com/castquest/castquest/internal/workers"
)

type stubInspector struct {
	queues map[string]*asynq.QueueInfo
	failed bool
}

func (s *stubInspector) Queues() ([]string, error) {
	if s.failed {
		return nil, errors.New("redis down")
	}
	names := []string{}
	for name := range s.queues {
		names = append(names, name)
	}
	return names, nil
}

func (s *stubInspector) GetQueueInfo(qname string) (*asynq.QueueInfo, error) {
	if info, ok := s.queues[qname]; ok {
		return info, nil
	}
	return nil, errors.New("queue does not exist")
}

func (s *stubInspector) PauseQueue(qname string) error {
	info, ok := s.queues[qname]
	if !ok {
		return errors.New("queue does not exist")
	}
	if info.Paused {
		return errors.New("already paused")
	}
	info.Paused = true
	return nil
}

func (s *stubInspector) UnpauseQueue(qname string) error {
	info, ok := s.queues[qname]
	if !ok {
		return errors.New("queue does not exist")
	}
	info.Paused = false
	return nil
}

type workerFixture struct {
	router    chi.Router
	sessions  *shared.SessionManager
	inspector *stubInspector
	adminID   string
	viewerID  string
}

func newWorkerFixture(t *testing.T) *workerFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)

	registry := rbac.NewRegistry()
	admin := registry.CreateUser(rbac.CreateUserInput{
		Email:  "op@castquest.xyz",
		Roles:  []string{rbac.RoleOperator},
		Active: true,
	})
	viewer := registry.CreateUser(rbac.CreateUserInput{
		Email:  "viewer@castquest.xyz",
		Roles:  []string{rbac.RoleViewer},
		Active: true,
	})

	inspector := &stubInspector{queues: map[string]*asynq.QueueInfo{
		"default": {Queue: "default", Size: 3, Pending: 2, Active: 1},
	}}
	handler := workers.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), inspector, rbac.Middleware{Registry: registry})
	router := chi.NewRouter()
	router.Route("/api/workers", handler.MountRoutes)

	return &workerFixture{router: router, sessions: sessions, inspector: inspector, adminID: admin.ID, viewerID: viewer.ID}
}

func (f *workerFixture) do(t *testing.T, method, target, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	if userID != "" {
		sess, err := f.sessions.Load(context.Background(), req)
		require.NoError(t, err)
		sess.SetUser(userID)
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	res := httptest.NewRecorder()
	f.router.ServeHTTP(res, req)
	return res
}

func TestQueueEndpointsRequireControlPermission(t *testing.T) {
	f := newWorkerFixture(t)

	res := f.do(t, http.MethodGet, "/api/workers/queues", "")
	require.Equal(t, http.StatusForbidden, res.Code)

	res = f.do(t, http.MethodGet, "/api/workers/queues", f.viewerID)
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestListQueues(t *testing.T) {
	f := newWorkerFixture(t)

	res := f.do(t, http.MethodGet, "/api/workers/queues", f.adminID)
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Queues []workers.QueueStatus `json:"queues"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Len(t, body.Queues, 1)
	require.Equal(t, "default", body.Queues[0].Queue)
	require.Equal(t, 2, body.Queues[0].Pending)
}

func TestPauseAndResumeQueue(t *testing.T) {
	f := newWorkerFixture(t)

	res := f.do(t, http.MethodPost, "/api/workers/queues/default/pause", f.adminID)
	require.Equal(t, http.StatusOK, res.Code)
	require.True(t, f.inspector.queues["default"].Paused)

	// Pausing twice surfaces the inspector error.
	res = f.do(t, http.MethodPost, "/api/workers/queues/default/pause", f.adminID)
	require.Equal(t, http.StatusConflict, res.Code)

	res = f.do(t, http.MethodPost, "/api/workers/queues/default/resume", f.adminID)
	require.Equal(t, http.StatusOK, res.Code)
	require.False(t, f.inspector.queues["default"].Paused)
}

func TestUnknownQueue(t *testing.T) {
	f := newWorkerFixture(t)

	res := f.do(t, http.MethodGet, "/api/workers/queues/ghost", f.adminID)
	require.Equal(t, http.StatusNotFound, res.Code)
}
