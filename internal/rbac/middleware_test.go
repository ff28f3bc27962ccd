package rbac_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/castquest/castquest/internal/rbac"
	"github.com/castquest/castquest/internal/shared"
)

func requestWithUser(t *testing.T, userID string) *http.Request {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	if userID != "" {
		sess.SetUser(userID)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestRequireAllMiddleware(t *testing.T) {
	registry := rbac.NewRegistry()
	operator := registry.CreateUser(rbac.CreateUserInput{
		Email:  "op@castquest.xyz",
		Roles:  []string{rbac.RoleOperator},
		Active: true,
	})

	mw := rbac.Middleware{Registry: registry}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	res := httptest.NewRecorder()
	mw.RequireAll(shared.PermFramesRead, shared.PermWorkersControl)(next).ServeHTTP(res, requestWithUser(t, operator.ID))
	require.Equal(t, http.StatusNoContent, res.Code)

	res = httptest.NewRecorder()
	mw.RequireAll(shared.PermFramesRead, shared.PermSystemAdmin)(next).ServeHTTP(res, requestWithUser(t, operator.ID))
	require.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireAnyWithoutRequirementsPassesThrough(t *testing.T) {
	mw := rbac.Middleware{Registry: rbac.NewRegistry()}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// No session at all; an empty requirement list must not consult it.
	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	mw.RequireAny()(next).ServeHTTP(res, req)
	require.Equal(t, http.StatusNoContent, res.Code)
}

func TestRequireAnyWithoutSession(t *testing.T) {
	mw := rbac.Middleware{Registry: rbac.NewRegistry()}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	mw.RequireAny(shared.PermFramesRead)(next).ServeHTTP(res, req)
	require.Equal(t, http.StatusForbidden, res.Code)
}
