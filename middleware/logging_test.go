package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/staticserve/middleware"
)

// newLoggedHandler wraps a fixed-status handler with the logging
// middleware and returns the captured log output.
func newLoggedHandler(status int, cfg middleware.LoggingConfig) (http.Handler, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg.Logger = slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	handler := middleware.LoggingWithConfig(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte("payload"))
	}))
	return handler, buf
}

func TestLoggingRecordsCompletedRequests(t *testing.T) {
	t.Parallel()

	handler, buf := newLoggedHandler(http.StatusOK, middleware.LoggingConfig{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.css", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "payload", rec.Body.String())

	line := buf.String()
	assert.Contains(t, line, "level=INFO")
	assert.Contains(t, line, "request completed")
	assert.Contains(t, line, "method=GET")
	assert.Contains(t, line, "path=/static/app.css")
	assert.Contains(t, line, "status_code=200")
	assert.Contains(t, line, "bytes_out=7")
	assert.Contains(t, line, "component=http")
}

func TestLoggingEscalatesLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		level  string
	}{
		{"client_error_warns", http.StatusNotFound, "level=WARN"},
		{"server_error_errors", http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler, buf := newLoggedHandler(tt.status, middleware.LoggingConfig{})
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			assert.Contains(t, buf.String(), tt.level)
		})
	}
}

func TestLoggingSkip(t *testing.T) {
	t.Parallel()

	handler, buf := newLoggedHandler(http.StatusOK, middleware.LoggingConfig{
		Skip: func(r *http.Request) bool { return r.URL.Path == "/health" },
	})

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Zero(t, buf.Len(), "skipped requests produce no log output")

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/app", nil))
	assert.NotZero(t, buf.Len())
}

func TestLoggingDefaultStatusIsOK(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := slog.New(slog.NewTextHandler(buf, nil))
	handler := middleware.LoggingWithConfig(middleware.LoggingConfig{Logger: log})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("implicit 200"))
		}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Contains(t, buf.String(), "status_code=200")
}
