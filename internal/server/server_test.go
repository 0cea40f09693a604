package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"strider/internal/config"
	"strider/internal/database"
	"strider/internal/inference"
	"strider/internal/middleware"
	"strider/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testEnv struct {
	t         *testing.T
	srv       *Server
	app       *fiber.App
	captioner *inference.StubGenerator
}

func testConfig(flags string) *config.Config {
	return &config.Config{
		Port:                  "0",
		Env:                   "test",
		DBDriver:              "sqlite",
		SessionSecret:         "test-session-secret-that-is-long-enough",
		SessionTTLHours:       1,
		CaptionProvider:       "stub",
		CaptionTimeoutSeconds: 5,
		FeatureFlags:          flags,
	}
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()

	db := testutil.NewDB(t, database.PersistentModels()...)
	_, rdb := testutil.NewRedis(t)
	stub := &inference.StubGenerator{Caption: "a photo"}

	srv := NewServerWithDeps(cfg, db, rdb,
		WithCaptioner(stub),
		WithPasswordHashCost(bcrypt.MinCost),
	)
	return &testEnv{t: t, srv: srv, app: srv.App(), captioner: stub}
}

// do sends a request with an optional JSON body and session token and decodes the JSON answer.
func (e *testEnv) do(method, path, token string, body any) (int, map[string]any) {
	e.t.Helper()
	status, raw := e.raw(method, path, token, body)

	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(e.t, json.Unmarshal(raw, &out))
	}
	return status, out
}

func (e *testEnv) list(path, token string) []map[string]any {
	e.t.Helper()
	status, raw := e.raw(http.MethodGet, path, token, nil)
	require.Equal(e.t, http.StatusOK, status, string(raw))

	var out []map[string]any
	require.NoError(e.t, json.Unmarshal(raw, &out))
	return out
}

func (e *testEnv) raw(method, path, token string, body any) (int, []byte) {
	e.t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, raw
}

func (e *testEnv) register(username, password string) {
	e.t.Helper()
	status, body := e.do(http.MethodPost, "/api/users", "", fiber.Map{"username": username, "password": password})
	require.Equal(e.t, http.StatusCreated, status, body)
}

func (e *testEnv) login(username, password string) string {
	e.t.Helper()
	status, body := e.do(http.MethodPost, "/api/login", "", fiber.Map{"username": username, "password": password})
	require.Equal(e.t, http.StatusOK, status, body)
	token, _ := body["token"].(string)
	require.NotEmpty(e.t, token)
	return token
}

func (e *testEnv) signup(username string) string {
	e.t.Helper()
	e.register(username, "pw1")
	return e.login(username, "pw1")
}

func (e *testEnv) createPost(token string, body fiber.Map) string {
	e.t.Helper()
	status, resp := e.do(http.MethodPost, "/api/posts", token, body)
	require.Equal(e.t, http.StatusCreated, status, resp)
	post := resp["post"].(map[string]any)
	return post["_id"].(string)
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t, testConfig(""))

	status, body := env.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "up", body["status"])

	status, body = env.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadinessCheckFailsWithoutRedis(t *testing.T) {
	cfg := testConfig("")
	db := testutil.NewDB(t, database.PersistentModels()...)
	mr, rdb := testutil.NewRedis(t)
	srv := NewServerWithDeps(cfg, db, rdb, WithCaptioner(&inference.StubGenerator{Caption: "x"}))
	env := &testEnv{t: t, srv: srv, app: srv.App()}

	mr.Close()

	status, body := env.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unhealthy", body["checks"].(map[string]any)["redis"])
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, testConfig(""))

	status, _ := env.do(http.MethodGet, "/api/session", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	token := env.signup("alice")

	status, body := env.do(http.MethodGet, "/api/session", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, body, "password")

	// Registering while logged in is refused.
	status, body = env.do(http.MethodPost, "/api/users", token, fiber.Map{"username": "carol", "password": "pw1"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "NOT_ALLOWED", body["code"])

	status, _ = env.do(http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = env.do(http.MethodGet, "/api/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(http.MethodPost, "/api/logout", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestBearerTokenIsAccepted(t *testing.T) {
	env := newTestEnv(t, testConfig(""))
	token := env.signup("alice")

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t, testConfig(""))
	env.register("alice", "pw1")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "alice", "nope"},
		{"unknown user", "mallory", "pw1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := env.do(http.MethodPost, "/api/login", "", fiber.Map{"username": tt.username, "password": tt.password})
			assert.Equal(t, http.StatusForbidden, status)
		})
	}

	status, _ := env.do(http.MethodPost, "/api/login", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginReplacesPreviousSession(t *testing.T) {
	env := newTestEnv(t, testConfig(""))
	env.register("alice", "pw1")
	first := env.login("alice", "pw1")

	status, body := env.do(http.MethodPost, "/api/login", first, fiber.Map{"username": "alice", "password": "pw1"})
	require.Equal(t, http.StatusOK, status)
	second := body["token"].(string)

	status, _ = env.do(http.MethodGet, "/api/session", first, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.do(http.MethodGet, "/api/session", second, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestUserRegistrationConflicts(t *testing.T) {
	env := newTestEnv(t, testConfig(""))
	env.register("alice", "pw1")

	status, body := env.do(http.MethodPost, "/api/users", "", fiber.Map{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ALREADY_EXISTS", body["code"])

	status, _ = env.do(http.MethodPost, "/api/users", "", fiber.Map{"username": "a", "password": "pw1"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUserProfileUpdates(t *testing.T) {
	env := newTestEnv(t, testConfig(""))
	token := env.signup("alice")
	env.register("bob", "pw1")

	status, _ := env.do(http.MethodPatch, "/api/users/username", token, fiber.Map{"username": "bob"})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = env.do(http.MethodPatch, "/api/users/username", token, fiber.Map{"username": "alicia"})
	require.Equal(t, http.StatusOK, status)

	status, body := env.do(http.MethodGet, "/api/users/alicia", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alicia", body["username"])

	status, _ = env.do(http.MethodGet, "/api/users/alice", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(http.MethodPatch, "/api/users/password", token, fiber.Map{"currentPassword": "wrong", "newPassword": "pw2"})
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = env.do(http.MethodPatch, "/api/users/password", token, fiber.Map{"currentPassword": "pw1", "newPassword": "pw2"})
	require.Equal(t, http.StatusOK, status)
	env.login("alicia", "pw2")

	status, _ = env.do(http.MethodPatch, "/api/users/step", token, fiber.Map{"stepSize": "0.75m"})
	require.Equal(t, http.StatusOK, status)
	_, body = env.do(http.MethodGet, "/api/session", token, nil)
	assert.Equal(t, "0.75m", body["stepSize"])

	users := env.list("/api/users", "")
	assert.Len(t, users, 2)
}

func TestDeleteUserKeepsContent(t *testing.T) {
	env := newTestEnv(t, testConfig(""))
	token := env.signup("alice")
	postID := env.createPost(token, fiber.Map{"content": "hello"})

	status, _ := env.do(http.MethodDelete, "/api/users", token, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = env.do(http.MethodGet, "/api/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := env.do(http.MethodGet, "/api/posts/single/"+postID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "DELETED_USER", body["author"])

	// The name is free again.
	env.register("alice", "pw1")
}

func TestDescribeRoutes(t *testing.T) {
	routes := DescribeRoutes(testConfig(""))
	require.Len(t, routes, 29)

	byKey := make(map[string]AuthPolicy, len(routes))
	for _, r := range routes {
		byKey[r.Method+" "+r.Path] = r.Auth
	}
	assert.Equal(t, Public, byKey["POST /api/login"])
	assert.Equal(t, LoggedOut, byKey["POST /api/users"])
	assert.Equal(t, Session, byKey["DELETE /api/posts/:id"])
	assert.Equal(t, Session, byKey["POST /api/autocaptions"])

	public := DescribeRoutes(testConfig("public_captions=on"))
	for _, r := range public {
		if r.Path == "/api/autocaptions" && r.Method == fiber.MethodPost {
			assert.Equal(t, Public, r.Auth)
		}
	}
}

func TestErrorHandlerHidesUnknownErrors(t *testing.T) {
	env := newTestEnv(t, testConfig(""))
	env.app = fiber.New(fiber.Config{ErrorHandler: env.srv.errorHandler})
	env.app.Get("/boom", func(*fiber.Ctx) error { return errors.New("secret detail") })

	status, body := env.do(http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.NotContains(t, body["error"], "secret")
}

func TestDeletedAccountSessionsAreRefused(t *testing.T) {
	env := newTestEnv(t, testConfig(""))
	alice := env.signup("alice")
	env.signup("bob")
	other := env.login("alice", "pw1")

	status, _ := env.do(http.MethodDelete, "/api/users", alice, nil)
	require.Equal(t, http.StatusOK, status)

	status, body := env.do(http.MethodPost, "/api/posts", other, fiber.Map{"content": "ghost"})
	assert.Equal(t, http.StatusUnauthorized, status, body)
	assert.Equal(t, "UNAUTHENTICATED", body["code"])
	assert.Empty(t, env.list("/api/posts", ""))

	// The stale session was ended by the refused request.
	_, err := env.srv.sessions.GetUser(t.Context(), other)
	assert.Error(t, err)

	status, _ = env.do(http.MethodPost, "/api/friend/requests/bob", other, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.do(http.MethodGet, "/api/session", other, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestDeleteUserFailureKeepsSession(t *testing.T) {
	env := newTestEnv(t, testConfig(""))
	token := env.signup("alice")

	err := env.srv.db.Callback().Delete().Before("gorm:delete").Register("fail_user_delete", func(tx *gorm.DB) {
		if tx.Statement.Table == "users" {
			_ = tx.AddError(errors.New("disk full"))
		}
	})
	require.NoError(t, err)

	status, _ := env.do(http.MethodDelete, "/api/users", token, nil)
	assert.Equal(t, http.StatusInternalServerError, status)

	status, body := env.do(http.MethodGet, "/api/session", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alice", body["username"])
}

// failingDel makes every Redis DEL fail and lets other commands through.
type failingDel struct{}

func (failingDel) DialHook(next redis.DialHook) redis.DialHook { return next }

func (failingDel) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "del" {
			return errors.New("redis unavailable")
		}
		return next(ctx, cmd)
	}
}

func (failingDel) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestLoginFailsWhenPreviousSessionCannotEnd(t *testing.T) {
	env := newTestEnv(t, testConfig(""))
	first := env.signup("alice")
	env.srv.redis.AddHook(failingDel{})

	status, body := env.do(http.MethodPost, "/api/login", first, fiber.Map{"username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.NotContains(t, body, "token")

	// A dead token is not an obstacle.
	status, body = env.do(http.MethodPost, "/api/login", "not-a-session", fiber.Map{"username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusOK, status, body)
}

func TestSwaggerDocListsEveryRoute(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	pathParam := regexp.MustCompile(`:(\w+)`)
	documented := 0
	for _, ops := range doc.Paths {
		documented += len(ops)
	}
	routes := DescribeRoutes(testConfig(""))
	assert.Equal(t, len(routes), documented)
	for _, r := range routes {
		path := pathParam.ReplaceAllString(strings.TrimPrefix(r.Path, "/api"), "{$1}")
		assert.Contains(t, doc.Paths[path], strings.ToLower(r.Method), "%s %s", r.Method, path)
	}
}
