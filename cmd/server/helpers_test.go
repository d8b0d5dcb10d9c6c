package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/platform/database"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

func testConfig(dbURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:                   0,
			LogLevel:               "error",
			ShutdownTimeoutSeconds: 5,
		},
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			URL:          dbURL,
			MaxOpenConns: 1,
		},
		Auth: config.AuthConfig{
			JWTSecret:            testSecret,
			TokenLifetimeMinutes: 60,
		},
		Events: config.EventsConfig{
			Exchange:                "tasks.events",
			BreakerFailureThreshold: 5,
			BreakerTimeoutSeconds:   30,
			QueueSize:               16,
			WorkerCount:             1,
		},
		RateLimit: config.RateLimitConfig{
			Requests:      100,
			WindowSeconds: 60,
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// newTestApp wires a full application over a migrated in-memory SQLite
// database.
func newTestApp(t *testing.T) *application {
	t.Helper()

	ctx := context.Background()
	cfg := testConfig("file::memory:")

	db, dialect, err := database.Open(ctx, cfg.Database)
	require.NoError(t, err)

	m, err := database.NewMigrator(db, dialect, discardLogger())
	require.NoError(t, err)
	require.NoError(t, m.Up(ctx))

	app, err := newApplication(ctx, cfg, discardLogger(), db, dialect)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)

	return app
}

func (app *application) tokenFor(t *testing.T, personID string) string {
	t.Helper()
	token, err := app.jwtService.GenerateToken(context.Background(), personID)
	require.NoError(t, err)
	return token
}

type apiResponse struct {
	Status int
	Body   map[string]any
}

func (r apiResponse) task(t *testing.T) map[string]any {
	t.Helper()
	task, ok := r.Body["task"].(map[string]any)
	require.True(t, ok, "response has no task: %v", r.Body)
	return task
}

func call(t *testing.T, h http.Handler, method, path, token, body string) apiResponse {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), "body: %s", w.Body.String())
	return apiResponse{Status: w.Code, Body: decoded}
}
