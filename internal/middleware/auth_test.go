package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"strider/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions map[string]uuid.UUID

func (f fakeSessions) GetUser(_ context.Context, token string) (uuid.UUID, error) {
	if uid, ok := f[token]; ok {
		return uid, nil
	}
	return uuid.Nil, models.NewUnauthenticatedError("Must be logged in")
}

func (f fakeSessions) IsLoggedOut(ctx context.Context, token string) error {
	if _, err := f.GetUser(ctx, token); err == nil {
		return models.NewNotAllowedError("Must be logged out")
	}
	return nil
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, models.HTTPStatus(err), err)
		},
	})
}

func TestRequireSession(t *testing.T) {
	alice := uuid.New()
	sessions := fakeSessions{"good": alice}

	app := newApp()
	app.Get("/me", RequireSession(sessions), func(c *fiber.Ctx) error {
		uid, err := CurrentUser(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"userID": uid, "token": CurrentToken(c)})
	})

	tests := []struct {
		name           string
		cookie         string
		authHeader     string
		expectedStatus int
	}{
		{name: "cookie", cookie: "good", expectedStatus: http.StatusOK},
		{name: "bearer", authHeader: "Bearer good", expectedStatus: http.StatusOK},
		{name: "lowercase scheme", authHeader: "bearer good", expectedStatus: http.StatusOK},
		{name: "no credentials", expectedStatus: http.StatusUnauthorized},
		{name: "basic auth", authHeader: "Basic dXNlcjpwYXNz", expectedStatus: http.StatusUnauthorized},
		{name: "unknown token", cookie: "stale", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookie, Value: tt.cookie})
			}
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]string
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, alice.String(), body["userID"])
				assert.Equal(t, "good", body["token"])
			}
		})
	}
}

func TestRequireLoggedOut(t *testing.T) {
	sessions := fakeSessions{"good": uuid.New()}

	app := newApp()
	app.Post("/login", RequireLoggedOut(sessions), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// a stale cookie counts as logged out
	req = httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "stale"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest(http.MethodPost, "/login", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "good"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCurrentUser_WithoutSession(t *testing.T) {
	app := newApp()
	app.Get("/", func(c *fiber.Ctx) error {
		_, err := CurrentUser(c)
		return err
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
