// Package compress produces precompressed siblings of static assets:
// given a file tree, it writes "<name>.gz" and "<name>.br" files next
// to every original worth compressing, for the serving engine to pick
// up through content negotiation.
//
//	c := compress.New(compress.Config{Gzip: true, Brotli: true}, nil)
//	written, err := c.CompressRoot("./public")
//
// A sibling is written only when it is at most 95% of the original's
// size, so the serving engine can rely on encoded variants always being
// smaller than identity. Gzip output embeds no timestamp, making runs
// over unchanged input byte-for-byte idempotent, and every sibling
// carries the original's modification time so both derive the same
// Last-Modified validator.
//
// Compression is a deliberately simple, sequential offline step (see
// cmd/precompress); nothing here runs in the request path.
package compress
