package registry_test

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/staticserve/core/asset"
	"github.com/dmitrymomot/staticserve/core/registry"
)

// writeTree creates the given files (relative path → content) under a
// fresh temp dir and returns its path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

// bodyOf fetches an asset's full response body.
func bodyOf(t *testing.T, a *asset.Asset) string {
	t.Helper()
	resp, err := a.GetResponse(http.MethodGet, http.Header{})
	require.NoError(t, err)
	require.NotNil(t, resp.Body)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestEagerRegistry(t *testing.T) {
	t.Parallel()

	t.Run("walk_builds_url_map", func(t *testing.T) {
		t.Parallel()

		root := writeTree(t, map[string]string{
			"index.html":  "<html/>",
			"css/app.css": "body{}",
		})
		reg := registry.New(registry.Config{MaxAge: time.Minute})
		require.NoError(t, reg.AddFiles(root, "/static"))

		a, err := reg.Lookup("/static/index.html")
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, "<html/>", bodyOf(t, a))

		a, err = reg.Lookup("/static/css/app.css")
		require.NoError(t, err)
		require.NotNil(t, a)

		a, err = reg.Lookup("/static/missing.css")
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("empty_prefix_mounts_at_root", func(t *testing.T) {
		t.Parallel()

		root := writeTree(t, map[string]string{"robots.txt": "User-agent: *"})
		reg := registry.New(registry.Config{})
		require.NoError(t, reg.AddFiles(root, ""))

		a, err := reg.Lookup("/robots.txt")
		require.NoError(t, err)
		require.NotNil(t, a)
	})

	t.Run("siblings_resolved_from_walk", func(t *testing.T) {
		t.Parallel()

		root := writeTree(t, map[string]string{
			"app.js":    "console.log('0123456789')",
			"app.js.gz": "gz-bytes",
		})
		reg := registry.New(registry.Config{})
		require.NoError(t, reg.AddFiles(root, "/"))

		a, err := reg.Lookup("/app.js")
		require.NoError(t, err)
		require.NotNil(t, a)

		headers := http.Header{}
		headers.Set("Accept-Encoding", "gzip")
		resp, err := a.GetResponse(http.MethodGet, headers)
		require.NoError(t, err)
		defer resp.Body.Close()
		encoding, _ := resp.Headers.Get("Content-Encoding")
		assert.Equal(t, "gzip", encoding)

		// The sibling is also indexed as a URL of its own.
		gz, err := reg.Lookup("/app.js.gz")
		require.NoError(t, err)
		assert.NotNil(t, gz)
	})

	t.Run("later_mount_overwrites_same_url", func(t *testing.T) {
		t.Parallel()

		first := writeTree(t, map[string]string{"app.css": "first"})
		second := writeTree(t, map[string]string{"app.css": "second"})
		reg := registry.New(registry.Config{})
		require.NoError(t, reg.AddFiles(first, "/assets"))
		require.NoError(t, reg.AddFiles(second, "/assets"))

		a, err := reg.Lookup("/assets/app.css")
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, "second", bodyOf(t, a))
	})

	t.Run("missing_root_fails", func(t *testing.T) {
		t.Parallel()

		reg := registry.New(registry.Config{})
		assert.Error(t, reg.AddFiles(filepath.Join(t.TempDir(), "nope"), "/"))
	})
}

func TestAutorefreshRegistry(t *testing.T) {
	t.Parallel()

	newAutorefresh := func(t *testing.T, files map[string]string) (*registry.Registry, string) {
		t.Helper()
		root := writeTree(t, files)
		reg := registry.New(registry.Config{Autorefresh: true})
		require.NoError(t, reg.AddFiles(root, "/"))
		return reg, root
	}

	t.Run("resolves_per_request", func(t *testing.T) {
		t.Parallel()

		reg, root := newAutorefresh(t, map[string]string{"a.txt": "hello"})

		a, err := reg.Lookup("/a.txt")
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, "hello", bodyOf(t, a))

		// A file created after mounting is picked up without a rebuild.
		require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("later"), 0o644))
		b, err := reg.Lookup("/b.txt")
		require.NoError(t, err)
		require.NotNil(t, b)
		assert.Equal(t, "later", bodyOf(t, b))
	})

	t.Run("later_mount_wins", func(t *testing.T) {
		t.Parallel()

		base := writeTree(t, map[string]string{"app.css": "base"})
		overlay := writeTree(t, map[string]string{"app.css": "overlay"})
		reg := registry.New(registry.Config{Autorefresh: true})
		require.NoError(t, reg.AddFiles(base, "/"))
		require.NoError(t, reg.AddFiles(overlay, "/"))

		a, err := reg.Lookup("/app.css")
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, "overlay", bodyOf(t, a))
	})

	t.Run("falls_through_missing_mounts", func(t *testing.T) {
		t.Parallel()

		base := writeTree(t, map[string]string{"only-in-base.txt": "base"})
		overlay := writeTree(t, map[string]string{"other.txt": "overlay"})
		reg := registry.New(registry.Config{Autorefresh: true})
		require.NoError(t, reg.AddFiles(base, "/"))
		require.NoError(t, reg.AddFiles(overlay, "/"))

		a, err := reg.Lookup("/only-in-base.txt")
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, "base", bodyOf(t, a))
	})

	t.Run("rejects_non_file_urls", func(t *testing.T) {
		t.Parallel()

		reg, _ := newAutorefresh(t, map[string]string{"a.txt": "hello"})

		for _, url := range []string{"", "/", "/dir/"} {
			a, err := reg.Lookup(url)
			require.NoError(t, err)
			assert.Nil(t, a, "url %q cannot name a file", url)
		}
	})

	t.Run("rejects_traversal", func(t *testing.T) {
		t.Parallel()

		root := writeTree(t, map[string]string{"public/a.txt": "pub"})
		reg := registry.New(registry.Config{Autorefresh: true})
		require.NoError(t, reg.AddFiles(filepath.Join(root, "public"), "/"))

		for _, url := range []string{
			"/../a.txt",
			"/sub/../a.txt",
			"/./a.txt",
			"//a.txt",
		} {
			a, err := reg.Lookup(url)
			require.NoError(t, err)
			assert.Nil(t, a, "non-normalized url %q must never resolve", url)
		}
	})

	t.Run("directory_is_a_miss", func(t *testing.T) {
		t.Parallel()

		reg, _ := newAutorefresh(t, map[string]string{"dir/inner.txt": "x"})

		a, err := reg.Lookup("/dir")
		require.NoError(t, err)
		assert.Nil(t, a)
	})
}

func TestRegistryHeadersPolicy(t *testing.T) {
	t.Parallel()

	headerOf := func(t *testing.T, reg *registry.Registry, url, name string) (string, bool) {
		t.Helper()
		a, err := reg.Lookup(url)
		require.NoError(t, err)
		require.NotNil(t, a)
		resp, err := a.GetResponse(http.MethodHead, http.Header{})
		require.NoError(t, err)
		return resp.Headers.Get(name)
	}

	t.Run("default_max_age", func(t *testing.T) {
		t.Parallel()

		root := writeTree(t, map[string]string{"a.css": "x"})
		reg := registry.New(registry.Config{MaxAge: time.Minute})
		require.NoError(t, reg.AddFiles(root, "/"))

		value, ok := headerOf(t, reg, "/a.css", "Cache-Control")
		require.True(t, ok)
		assert.Equal(t, "public, max-age=60", value)
	})

	t.Run("negative_max_age_disables_cache_control", func(t *testing.T) {
		t.Parallel()

		root := writeTree(t, map[string]string{"a.css": "x"})
		reg := registry.New(registry.Config{MaxAge: -1})
		require.NoError(t, reg.AddFiles(root, "/"))

		_, ok := headerOf(t, reg, "/a.css", "Cache-Control")
		assert.False(t, ok)
	})

	t.Run("immutable_oracle_forces_forever", func(t *testing.T) {
		t.Parallel()

		root := writeTree(t, map[string]string{
			"app.deadbeef01.js": "hashed",
			"app.js":            "plain",
		})
		reg := registry.New(registry.Config{
			MaxAge: time.Minute,
			IsImmutable: func(path, url string) bool {
				return strings.Contains(url, ".deadbeef01.")
			},
		})
		require.NoError(t, reg.AddFiles(root, "/"))

		value, ok := headerOf(t, reg, "/app.deadbeef01.js", "Cache-Control")
		require.True(t, ok)
		assert.Equal(t, "public, max-age=315360000", value, "ten years, following nginx's 'expires max'")

		value, _ = headerOf(t, reg, "/app.js", "Cache-Control")
		assert.Equal(t, "public, max-age=60", value)
	})

	t.Run("cors_header", func(t *testing.T) {
		t.Parallel()

		root := writeTree(t, map[string]string{"font.woff2": "x"})
		reg := registry.New(registry.Config{AllowAllOrigins: true})
		require.NoError(t, reg.AddFiles(root, "/"))

		value, ok := headerOf(t, reg, "/font.woff2", "Access-Control-Allow-Origin")
		require.True(t, ok)
		assert.Equal(t, "*", value)
	})

	t.Run("add_headers_hook", func(t *testing.T) {
		t.Parallel()

		root := writeTree(t, map[string]string{"a.css": "x"})
		reg := registry.New(registry.Config{
			AddHeaders: func(h *asset.Headers, path, url string) {
				assert.Equal(t, "/a.css", url)
				assert.True(t, strings.HasSuffix(path, "a.css"))
				h.Set("X-Policy", "custom")
			},
		})
		require.NoError(t, reg.AddFiles(root, "/"))

		value, ok := headerOf(t, reg, "/a.css", "X-Policy")
		require.True(t, ok)
		assert.Equal(t, "custom", value)
	})

	t.Run("etag_enabled", func(t *testing.T) {
		t.Parallel()

		root := writeTree(t, map[string]string{"a.css": "x"})
		reg := registry.New(registry.Config{ETag: true})
		require.NoError(t, reg.AddFiles(root, "/"))

		value, ok := headerOf(t, reg, "/a.css", "ETag")
		require.True(t, ok)
		assert.NotEmpty(t, value)
	})
}
