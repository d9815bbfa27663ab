// Package asset implements the per-request resolution engine for
// immutable static files: conditional GET evaluation (ETag and
// If-Modified-Since), byte-range responses, and transparent selection
// among precompressed variants based on the client's Accept-Encoding.
//
// The central type is Asset, built once per file from a VariantSet (the
// identity file plus any .gz/.br siblings found on disk) and a set of
// base headers:
//
//	variants, err := asset.ScanVariants("/srv/app.js", map[string]string{
//		"gzip": "/srv/app.js.gz",
//		"br":   "/srv/app.js.br",
//	}, nil)
//	if err != nil {
//		return err
//	}
//
//	a, err := asset.Build(variants, asset.Headers{}, asset.BuildConfig{
//		ETag:    true,
//		Charset: "utf-8",
//	})
//
// At request time the Asset produces a framework-agnostic Response:
//
//	resp, err := a.GetResponse(r.Method, r.Header)
//
// GetResponse never blocks on anything but bounded filesystem I/O and
// touches no shared mutable state, so a single Asset serves any number
// of concurrent requests.
//
// # Variant selection
//
// Alternatives are kept sorted ascending by file size with a matcher
// per content coding; the identity variant matches unconditionally.
// Scanning that list and taking the first acceptable entry yields
// "prefer brotli, else gzip, else identity" purely from the size
// invariant (precompressed siblings are only ever written when smaller
// than the original), with no encoding names special-cased.
//
// # Range requests
//
// Malformed or unsatisfiable Range headers are not errors: the engine
// falls back to the ordinary 200 response, as RFC 7233 permits. A range
// end past EOF is clamped to the last byte of the file.
package asset
