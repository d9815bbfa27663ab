package asset

import (
	"mime"
	"path/filepath"
	"strings"
)

// contentTypeFor derives a Content-Type value from the file extension.
// A custom table (extension with leading dot, lowercase) takes
// precedence over the platform mime database; unknown extensions fall
// back to application/octet-stream. For text-like and JavaScript types
// the configured charset is appended as a media type parameter.
func contentTypeFor(path, charset string, custom map[string]string) string {
	ext := strings.ToLower(filepath.Ext(path))
	mediaType := custom[ext]
	if mediaType == "" {
		mediaType = mime.TypeByExtension(ext)
	}
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	base, params, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return mediaType
	}
	if charset != "" && isTextLike(base) {
		params["charset"] = charset
		return mime.FormatMediaType(base, params)
	}
	return mediaType
}

// isTextLike reports whether a media type should carry a charset
// parameter.
func isTextLike(mediaType string) bool {
	return strings.HasPrefix(mediaType, "text/") ||
		mediaType == "application/javascript"
}
