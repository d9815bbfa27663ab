package registry

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrymomot/staticserve/core/asset"
)

// Forever is the cache lifetime applied to immutable assets. Ten years
// is what nginx sets with "expires max", so we follow its lead.
const Forever = 10 * 365 * 24 * time.Hour

// DefaultEncodings maps content-coding tokens to the filename suffixes
// of their precompressed siblings.
var DefaultEncodings = map[string]string{
	"gzip": ".gz",
	"br":   ".br",
}

// Config enumerates every recognized serving option with its default.
// Scalar fields carry env tags so the struct can be filled by
// config.Load; the function-valued hooks are injection points set in
// code.
type Config struct {
	// Autorefresh re-resolves files from disk on every request instead
	// of building an immutable map up front. Development only: it does
	// filesystem I/O and Asset construction inside the request path.
	Autorefresh bool `env:"STATIC_AUTOREFRESH" envDefault:"false"`

	// MaxAge is the Cache-Control lifetime for ordinary assets. A
	// negative value disables the Cache-Control header entirely.
	MaxAge time.Duration `env:"STATIC_MAX_AGE" envDefault:"60s"`

	// AllowAllOrigins sets "Access-Control-Allow-Origin: *" on every
	// asset. Safe for public static files, and keeps webfonts working
	// when assets are served from a CDN domain.
	AllowAllOrigins bool `env:"STATIC_ALLOW_ALL_ORIGINS" envDefault:"true"`

	// Charset is appended to text-like content types. Empty disables
	// the charset parameter.
	Charset string `env:"STATIC_CHARSET" envDefault:"utf-8"`

	// ETag enables strong content-hash entity tags, computed once per
	// asset at build time.
	ETag bool `env:"STATIC_ETAG" envDefault:"true"`

	// MediaTypes overrides the platform mime database per extension
	// (lowercase, with leading dot).
	MediaTypes map[string]string

	// Encodings maps content-coding tokens to precompressed sibling
	// suffixes. Nil means DefaultEncodings.
	Encodings map[string]string

	// IsImmutable is the immutability oracle: assets it approves get
	// the Forever cache lifetime instead of MaxAge. Nil means no asset
	// is immutable.
	IsImmutable func(path, url string) bool

	// AddHeaders runs after all standard headers are set, as a
	// last-chance hook for header customization.
	AddHeaders func(h *asset.Headers, path, url string)
}

// mount pairs a root directory with the URL prefix it is served under.
type mount struct {
	root   string
	prefix string
}

// Registry maps URLs to Assets. In the default eager mode AddFiles
// walks each root once and Lookup is a read of an immutable map, safe
// for concurrent use without locking. In autorefresh mode mounts are
// kept newest-first and every Lookup resolves against the filesystem.
type Registry struct {
	cfg    Config
	files  map[string]*asset.Asset
	mounts []mount
}

// New creates a Registry with the given configuration. A nil Encodings
// map falls back to DefaultEncodings.
func New(cfg Config) *Registry {
	if cfg.Encodings == nil {
		cfg.Encodings = DefaultEncodings
	}
	return &Registry{
		cfg:   cfg,
		files: make(map[string]*asset.Asset),
	}
}

// AddFiles mounts root under the given URL prefix. In eager mode the
// tree is walked immediately (following symlinks) and an Asset is built
// for every file found, later mounts overwriting earlier ones on URL
// collisions. In autorefresh mode the mount is only recorded; mounts
// added later take precedence at lookup time, letting an application
// overlay files on top of an earlier mount.
//
// AddFiles must not be called concurrently with Lookup: mounts are
// registered during startup, before serving begins.
func (r *Registry) AddFiles(root, prefix string) error {
	prefix = formatPrefix(prefix)
	if r.cfg.Autorefresh {
		r.mounts = append([]mount{{root: root, prefix: prefix}}, r.mounts...)
		return nil
	}
	return r.scanRoot(root, prefix)
}

// Lookup resolves a URL to its Asset, or nil when the URL maps to no
// known file. Only errors that indicate a real problem (a non-regular
// node, an unreadable file) are returned; plain misses are (nil, nil).
func (r *Registry) Lookup(url string) (*asset.Asset, error) {
	if !r.cfg.Autorefresh {
		return r.files[url], nil
	}
	return r.findFile(url)
}

// scanRoot walks root once, caching every stat result so that Asset
// construction resolves both identity files and their precompressed
// siblings from the walk instead of issuing extra syscalls.
func (r *Registry) scanRoot(root, prefix string) error {
	statCache := make(map[string]fs.FileInfo)
	var paths []string
	err := walkFiles(root, func(path string, info fs.FileInfo) {
		statCache[path] = info
		paths = append(paths, path)
	})
	if err != nil {
		return err
	}

	stat := cachedStat(statCache)
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		url := prefix + filepath.ToSlash(rel)
		a, err := r.buildAsset(p, url, stat)
		if err != nil {
			return err
		}
		r.files[url] = a
	}
	return nil
}

// findFile is the autorefresh lookup: URL hygiene first, then each
// mount in registration-reverse order until one resolves to a real
// file. Misses move on to the next mount; any other error propagates.
func (r *Registry) findFile(url string) (*asset.Asset, error) {
	// URLs that are empty or end in a slash can only ever name
	// directories.
	if url == "" || strings.HasSuffix(url, "/") {
		return nil, nil
	}
	// Mitigate path traversal: a URL whose normalized form differs from
	// its literal form (e.g. one containing ".." segments) never
	// resolves to a file.
	if path.Clean(url) != url {
		return nil, nil
	}
	for _, m := range r.mounts {
		if !strings.HasPrefix(url, m.prefix) {
			continue
		}
		p := filepath.Join(m.root, filepath.FromSlash(url[len(m.prefix):]))
		a, err := r.buildAsset(p, url, nil)
		if err != nil {
			if asset.IsMissing(err) {
				continue
			}
			return nil, err
		}
		return a, nil
	}
	return nil, nil
}

// buildAsset assembles the base headers from configuration and hands
// off to the asset package.
func (r *Registry) buildAsset(p, url string, stat asset.StatFunc) (*asset.Asset, error) {
	variants, err := asset.ScanVariants(p, r.encodingPaths(p), stat)
	if err != nil {
		return nil, err
	}

	var headers asset.Headers
	maxAge := r.cfg.MaxAge
	if r.cfg.IsImmutable != nil && r.cfg.IsImmutable(p, url) {
		maxAge = Forever
	}
	if maxAge >= 0 {
		headers.Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int64(maxAge.Seconds())))
	}
	if r.cfg.AllowAllOrigins {
		headers.Set("Access-Control-Allow-Origin", "*")
	}

	cfg := asset.BuildConfig{
		ETag:       r.cfg.ETag,
		Charset:    r.cfg.Charset,
		MediaTypes: r.cfg.MediaTypes,
	}
	if r.cfg.AddHeaders != nil {
		cfg.Customize = func(h *asset.Headers) {
			r.cfg.AddHeaders(h, p, url)
		}
	}
	return asset.Build(variants, headers, cfg)
}

// encodingPaths maps each configured content coding to the sibling path
// that would hold it for the given identity file.
func (r *Registry) encodingPaths(p string) map[string]string {
	paths := make(map[string]string, len(r.cfg.Encodings))
	for token, suffix := range r.cfg.Encodings {
		paths[token] = p + suffix
	}
	return paths
}

// cachedStat adapts the walk's stat results into a StatFunc. A cache
// miss reads as a missing file, which is exactly what a sibling lookup
// for a never-compressed asset should see.
func cachedStat(cache map[string]fs.FileInfo) asset.StatFunc {
	return func(path string) (fs.FileInfo, error) {
		info, ok := cache[path]
		if !ok {
			return nil, fs.ErrNotExist
		}
		return info, nil
	}
}

// walkFiles visits every non-directory node under root, following
// symlinks. Non-regular nodes are reported too: they fail Asset
// construction later, which is deliberate — a socket or device in a
// static root is a configuration error, not something to skip quietly.
func walkFiles(root string, fn func(path string, info fs.FileInfo)) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		p := filepath.Join(root, entry.Name())
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if err := walkFiles(p, fn); err != nil {
				return err
			}
			continue
		}
		fn(p, info)
	}
	return nil
}

// formatPrefix normalizes a URL prefix to have exactly one leading and
// one trailing slash; empty input maps to "/".
func formatPrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return "/"
	}
	return "/" + prefix + "/"
}
