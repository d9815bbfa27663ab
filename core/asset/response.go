package asset

import "io"

// Response is the framework-agnostic result of resolving one request
// against an Asset: a status code, an ordered header list, and an
// optional open byte source. The body is nil for HEAD requests, 304s
// and 405s; when non-nil the caller owns it and must close it on every
// exit path.
type Response struct {
	StatusCode int
	Headers    Headers
	Body       io.ReadCloser
}

// HeaderGetter exposes request header lookup to the engine without
// tying it to a particular request type. http.Header satisfies it.
type HeaderGetter interface {
	Get(name string) string
}
