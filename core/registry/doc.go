// Package registry maps URLs to static file assets.
//
// A Registry has two lifecycle modes. The default eager mode walks each
// mounted root once at startup, builds an Asset per file (resolving
// precompressed siblings from the same walk), and serves lookups from
// an immutable map — concurrent reads are safe by construction, with no
// locking. Later mounts overwrite earlier ones on URL collisions.
//
//	reg := registry.New(registry.Config{
//		MaxAge:          time.Minute,
//		AllowAllOrigins: true,
//		Charset:         "utf-8",
//		ETag:            true,
//	})
//	if err := reg.AddFiles("./public", "/static"); err != nil {
//		log.Fatal(err)
//	}
//
// Autorefresh mode skips the walk and re-resolves every lookup against
// the filesystem, so file changes are picked up immediately. Lookups
// reject URLs that cannot name a file (empty, trailing slash, or not in
// normalized form) and try mounts newest-first, so a mount added later
// overlays an earlier one. This mode trades repeated I/O and Asset
// rebuilding for convenience and is meant for development only.
//
// Cache lifetimes are policy-injected: the IsImmutable oracle decides
// which assets get an effectively unbounded lifetime (content-hashed
// filenames, typically); everything else gets MaxAge.
package registry
