// Package middleware adapts the static asset engine to net/http.
//
// The Static middleware intercepts requests whose path the registry
// knows about and serves them with correct caching semantics; every
// other request passes through to the wrapped handler untouched, so it
// can sit in front of any existing net/http application:
//
//	reg := registry.New(registry.Config{MaxAge: time.Minute, ETag: true})
//	if err := reg.AddFiles("./public", "/static"); err != nil {
//		log.Fatal(err)
//	}
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/", appHandler)
//
//	srv := &http.Server{
//		Addr:    ":8080",
//		Handler: middleware.Static(reg)(mux),
//	}
//
// Response bodies are streamed through the ResponseWriter's sendfile
// path when available and are closed on every exit, including early
// client disconnects.
//
// The Logging middleware records completed requests through slog with
// method, path, status, byte count, and elapsed time; client and server
// errors escalate the log level automatically.
package middleware
