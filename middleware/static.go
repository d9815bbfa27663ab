package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/staticserve/core/logger"
	"github.com/dmitrymomot/staticserve/core/registry"
)

// blockSize is the buffer used by the fallback copy loop when the
// ResponseWriter does not support io.ReaderFrom.
const blockSize = 64 * 1024

// StaticConfig configures the static file middleware.
type StaticConfig struct {
	// Registry resolves request paths to assets. Required.
	Registry *registry.Registry

	// Logger receives resolution failures and streaming diagnostics
	// (default: slog.Default()). It must be safe for concurrent use,
	// which slog loggers are.
	Logger *slog.Logger
}

// Static returns middleware that serves files known to the registry and
// passes every other request to the wrapped handler unchanged.
func Static(reg *registry.Registry) func(http.Handler) http.Handler {
	return StaticWithConfig(StaticConfig{Registry: reg})
}

// StaticWithConfig returns the static file middleware with custom
// configuration. Matched requests are answered entirely by the asset
// engine: conditional 304s, 206 ranges, negotiated encodings, 405 for
// non-GET/HEAD methods. HEAD responses carry full headers and no body.
func StaticWithConfig(cfg StaticConfig) func(http.Handler) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, err := cfg.Registry.Lookup(r.URL.Path)
			if err != nil {
				log.ErrorContext(r.Context(), "static file lookup failed",
					logger.Component("static"),
					slog.String("path", r.URL.Path),
					logger.Error(err),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if a == nil {
				next.ServeHTTP(w, r)
				return
			}

			resp, err := a.GetResponse(r.Method, r.Header)
			if err != nil {
				log.ErrorContext(r.Context(), "static file response failed",
					logger.Component("static"),
					slog.String("path", r.URL.Path),
					logger.Error(err),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if resp.Body != nil {
				defer resp.Body.Close()
			}

			header := w.Header()
			for _, item := range resp.Headers.Items() {
				header.Add(item.Name, item.Value)
			}
			w.WriteHeader(resp.StatusCode)

			if resp.Body == nil || r.Method == http.MethodHead {
				return
			}

			start := time.Now()
			if err := sendBody(w, resp.Body); err != nil {
				// Almost always the peer going away mid-stream; the
				// deferred Close above still releases the file handle.
				log.DebugContext(r.Context(), "static file stream interrupted",
					logger.Component("static"),
					slog.String("path", r.URL.Path),
					logger.Duration(time.Since(start)),
					logger.Error(err),
				)
			}
		})
	}
}

// sendBody streams the body to the client, preferring the writer's own
// io.ReaderFrom path (which net/http backs with sendfile where the OS
// supports it) and falling back to a fixed-block copy loop.
func sendBody(w http.ResponseWriter, body io.Reader) error {
	if rf, ok := w.(io.ReaderFrom); ok {
		_, err := rf.ReadFrom(body)
		return err
	}
	_, err := io.CopyBuffer(w, body, make([]byte, blockSize))
	return err
}
