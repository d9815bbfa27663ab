package asset

import (
	"cmp"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/blake3"
)

// notModifiedHeaderNames is the header subset allowed on a 304 Not
// Modified response per RFC 7232 section 4.1. Everything else, notably
// Content-Type and Content-Length, must be absent.
var notModifiedHeaderNames = [...]string{
	"Cache-Control", "Content-Location", "Date", "ETag", "Expires", "Vary",
}

// BuildConfig controls how an Asset derives its headers.
type BuildConfig struct {
	// ETag enables computing a strong content-hash ETag from the
	// identity file. This reads the whole file once at build time.
	ETag bool

	// Charset is appended as a media type parameter for text-like and
	// JavaScript content types. Empty means no charset parameter.
	Charset string

	// MediaTypes maps lowercase file extensions (with leading dot) to
	// content types, taking precedence over the platform mime database.
	MediaTypes map[string]string

	// Customize, if set, runs after all standard headers are in place
	// and before the 304 response and the alternative list are derived.
	// It is the last chance to override any header.
	Customize func(*Headers)
}

// alternative is one selectable byte stream of an Asset: the file to
// open, its size, the full header set to send, and the content-coding
// token the client must accept for it to be chosen. An empty encoding
// marks the identity stream, which matches any request.
type alternative struct {
	encoding string
	path     string
	size     int64
	headers  Headers
}

// Asset holds everything needed to answer requests for one URL: the
// merged header set split per variant, the cache validators, and a
// precomputed 304 response. An Asset is immutable after Build and safe
// for concurrent use.
type Asset struct {
	lastModified time.Time
	etag         string
	notModified  Response
	alternatives []alternative
}

// Build constructs an Asset from a variant set and caller-supplied base
// headers. Missing standard headers are derived: Last-Modified from the
// identity file's mtime, Content-Type from the filename extension, and
// (when cfg.ETag is set) an ETag from the identity file's contents.
// Vary: Accept-Encoding is forced whenever encoded variants exist.
func Build(variants VariantSet, headers Headers, cfg BuildConfig) (*Asset, error) {
	identity := variants.Identity().Entry

	merged := headers.Clone()
	if variants.Len() > 1 {
		merged.Set("Vary", "Accept-Encoding")
	}
	if !merged.Contains("Last-Modified") {
		merged.Set("Last-Modified", identity.ModTime.UTC().Format(http.TimeFormat))
	}
	if !merged.Contains("Content-Type") {
		merged.Set("Content-Type", contentTypeFor(identity.Path, cfg.Charset, cfg.MediaTypes))
	}
	if cfg.ETag && !merged.Contains("ETag") {
		etag, err := contentETag(identity.Path)
		if err != nil {
			return nil, fmt.Errorf("compute etag for %s: %w", identity.Path, err)
		}
		merged.Set("ETag", etag)
	}
	if cfg.Customize != nil {
		cfg.Customize(&merged)
	}

	lastModifiedValue, _ := merged.Get("Last-Modified")
	lastModified, err := http.ParseTime(lastModifiedValue)
	if err != nil {
		return nil, fmt.Errorf("invalid Last-Modified value %q: %w", lastModifiedValue, err)
	}
	etag, _ := merged.Get("ETag")

	return &Asset{
		lastModified: lastModified,
		etag:         etag,
		notModified:  notModifiedResponse(merged),
		alternatives: buildAlternatives(merged, variants),
	}, nil
}

// GetResponse resolves one request against the Asset. The flow is:
// method check, conditional evaluation (ETag before If-Modified-Since),
// encoding negotiation, then an optional Range. The body is opened for
// GET only; HEAD responses carry the full headers with a nil body.
// Filesystem errors (e.g. permission denied on open) propagate.
func (a *Asset) GetResponse(method string, reqHeaders HeaderGetter) (Response, error) {
	if method != http.MethodGet && method != http.MethodHead {
		return Response{
			StatusCode: http.StatusMethodNotAllowed,
			Headers:    NewHeaders(Header{Name: "Allow", Value: "GET, HEAD"}),
		}, nil
	}
	if a.isNotModified(reqHeaders) {
		return a.notModified, nil
	}
	alt := a.negotiate(reqHeaders.Get("Accept-Encoding"))

	var file *os.File
	if method == http.MethodGet {
		f, err := os.Open(alt.path)
		if err != nil {
			return Response{}, err
		}
		file = f
	}

	if rangeHeader := reqHeaders.Get("Range"); rangeHeader != "" {
		resp, err := rangeResponse(rangeHeader, alt.headers, file)
		if err != nil && file != nil {
			file.Close()
		}
		return resp, err
	}

	resp := Response{StatusCode: http.StatusOK, Headers: alt.headers}
	if file != nil {
		resp.Body = file
	}
	return resp, nil
}

// LastModified returns the asset's validator timestamp (GMT, second
// resolution).
func (a *Asset) LastModified() time.Time {
	return a.lastModified
}

// ETag returns the asset's entity tag, or the empty string when none
// was configured.
func (a *Asset) ETag() string {
	return a.etag
}

// isNotModified evaluates the request's cache validators. An exact
// If-None-Match match short-circuits independent of Last-Modified;
// otherwise If-Modified-Since at or after the asset's Last-Modified
// yields a 304. Unparseable dates are ignored.
func (a *Asset) isNotModified(reqHeaders HeaderGetter) bool {
	if a.etag != "" && reqHeaders.Get("If-None-Match") == a.etag {
		return true
	}
	since := reqHeaders.Get("If-Modified-Since")
	if since == "" {
		return false
	}
	t, err := http.ParseTime(since)
	if err != nil {
		return false
	}
	return !t.Before(a.lastModified)
}

// negotiate picks the first alternative acceptable to the client. The
// list is sorted ascending by size, so among acceptable variants the
// most compressed one wins without special-casing encoding names. The
// identity variant accepts anything and is never smaller than an
// encoded one, making it the universal fallback.
func (a *Asset) negotiate(acceptEncoding string) alternative {
	for _, alt := range a.alternatives {
		if alt.encoding == "" || acceptsEncoding(acceptEncoding, alt.encoding) {
			return alt
		}
	}
	return a.alternatives[len(a.alternatives)-1]
}

// acceptsEncoding reports whether the comma-separated Accept-Encoding
// value names the given content coding. Quality parameters are ignored;
// the comparison is an exact, case-insensitive token match.
func acceptsEncoding(header, encoding string) bool {
	for part := range strings.SplitSeq(header, ",") {
		name, _, _ := strings.Cut(part, ";")
		if strings.EqualFold(strings.TrimSpace(name), encoding) {
			return true
		}
	}
	return false
}

// buildAlternatives clones the merged header set per variant, fixing up
// Content-Length and Content-Encoding, and sorts ascending by file size.
func buildAlternatives(merged Headers, variants VariantSet) []alternative {
	sorted := slices.Clone(variants.All())
	slices.SortStableFunc(sorted, func(a, b Variant) int {
		return cmp.Compare(a.Entry.Size, b.Entry.Size)
	})

	alternatives := make([]alternative, 0, len(sorted))
	for _, v := range sorted {
		headers := merged.Clone()
		headers.Set("Content-Length", strconv.FormatInt(v.Entry.Size, 10))
		if v.Encoding != "" {
			headers.Set("Content-Encoding", v.Encoding)
		}
		alternatives = append(alternatives, alternative{
			encoding: v.Encoding,
			path:     v.Entry.Path,
			size:     v.Entry.Size,
			headers:  headers,
		})
	}
	return alternatives
}

// notModifiedResponse precomputes the 304 response, copying only the
// allowed header subset from the merged set.
func notModifiedResponse(merged Headers) Response {
	var subset Headers
	for _, name := range notModifiedHeaderNames {
		for _, item := range merged.Items() {
			if strings.EqualFold(item.Name, name) {
				subset.Add(item.Name, item.Value)
			}
		}
	}
	return Response{StatusCode: http.StatusNotModified, Headers: subset}
}

// contentETag computes a strong entity tag from the file's full
// contents: a quoted lowercase-hex BLAKE3 digest.
func contentETag(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return `"` + hex.EncodeToString(hasher.Sum(nil)) + `"`, nil
}
