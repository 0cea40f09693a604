package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"strider/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextHandler_AddsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "production")

	uid := uuid.New()
	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	ctx = context.WithValue(ctx, UserIDKey, uid)
	ctx = context.WithValue(ctx, TraceIDKey, "trace-1")

	logger.With("component", "test").InfoContext(ctx, "hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, uid.String(), entry["user_id"])
	assert.Equal(t, "trace-1", entry["trace_id"])
	assert.Equal(t, "test", entry["component"])
}

func TestStructuredLogger_LogsMappedStatus(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger
	Logger = NewLogger(&buf, "production")
	t.Cleanup(func() { Logger = prev })

	app := newApp()
	app.Use(requestid.New(), ContextMiddleware(), StructuredLogger())
	app.Get("/missing", func(*fiber.Ctx) error {
		return models.NewNotFoundError("Post", "x")
	})
	app.Get("/boom", func(*fiber.Ctx) error {
		return models.NewInternalError(errors.New("db down"))
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var rejected, failed map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rejected))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failed))

	assert.Equal(t, "WARN", rejected["level"])
	assert.EqualValues(t, 404, rejected["status"])
	assert.NotEmpty(t, rejected["request_id"])
	assert.Equal(t, "ERROR", failed["level"])
	assert.EqualValues(t, 500, failed["status"])
}
