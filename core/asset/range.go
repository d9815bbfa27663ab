package asset

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// errInvalidRange marks a Range header the engine cannot honor. It
// never escapes this package: per RFC 7233 an unsatisfiable or
// malformed Range may simply be ignored, so the caller degrades to the
// ordinary full-body 200 response.
var errInvalidRange = errors.New("invalid byte range")

// rangeResponse resolves a Range header against the chosen variant's
// headers and open file (nil for HEAD). The total size is taken from
// the Content-Length header, parsed as an integer; engine-built headers
// always carry one, so a missing or malformed value is an internal
// error and propagates. On success the stream is positioned at the
// range start and a 206 with Content-Range is returned; on any parse or
// validation failure the untouched 200 response is returned instead.
func rangeResponse(rangeHeader string, base Headers, file *os.File) (Response, error) {
	lengthValue, ok := base.Get("Content-Length")
	if !ok {
		return Response{}, errors.New("range request against headers without Content-Length")
	}
	size, err := strconv.ParseInt(lengthValue, 10, 64)
	if err != nil {
		return Response{}, fmt.Errorf("invalid Content-Length value %q: %w", lengthValue, err)
	}

	full := Response{StatusCode: http.StatusOK, Headers: base}
	if file != nil {
		full.Body = file
	}

	start, end, err := byteRange(rangeHeader, size)
	if err != nil {
		return full, nil
	}

	if file != nil && start != 0 {
		if _, err := file.Seek(start, io.SeekStart); err != nil {
			return Response{}, err
		}
	}

	length := end - start + 1
	headers := base.Clone()
	headers.Del("Content-Length")
	headers.Add("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	headers.Add("Content-Length", strconv.FormatInt(length, 10))

	resp := Response{StatusCode: http.StatusPartialContent, Headers: headers}
	if file != nil {
		// The stream itself is bounded to the window: unlike WSGI
		// servers, net/http does not cut the body off at the declared
		// Content-Length.
		resp.Body = &rangeBody{Reader: io.LimitReader(file, length), file: file}
	}
	return resp, nil
}

// rangeBody is an open file restricted to the requested byte window.
type rangeBody struct {
	io.Reader
	file *os.File
}

func (b *rangeBody) Close() error {
	return b.file.Close()
}

// byteRange parses and validates a Range header against the variant
// size. A negative start (suffix range) is rebased onto the file end; a
// missing end means end-of-file; an end past EOF is clamped down to the
// last byte. Inverted and empty ranges are rejected.
func byteRange(header string, size int64) (start, end int64, err error) {
	start, end, hasEnd, err := parseByteRange(header)
	if err != nil {
		return 0, 0, err
	}
	if start < 0 {
		start = max(start+size, 0)
	}
	if hasEnd {
		end = min(end, size-1)
	} else {
		end = size - 1
	}
	if start >= end {
		return 0, 0, errInvalidRange
	}
	return start, end, nil
}

// parseByteRange splits a "bytes=<start>-<end>" header into its parts.
// An empty start field yields a negative start (suffix length); hasEnd
// reports whether an explicit end was given. Anything else — wrong
// unit, missing dash, non-numeric fields, multiple ranges — fails.
func parseByteRange(header string) (start, end int64, hasEnd bool, err error) {
	unit, spec, ok := strings.Cut(strings.TrimSpace(header), "=")
	if !ok || unit != "bytes" {
		return 0, 0, false, errInvalidRange
	}
	startField, endField, ok := strings.Cut(strings.TrimSpace(spec), "-")
	if !ok {
		return 0, 0, false, errInvalidRange
	}
	if startField == "" {
		suffix, perr := strconv.ParseInt(endField, 10, 64)
		if perr != nil {
			return 0, 0, false, errInvalidRange
		}
		return -suffix, 0, false, nil
	}
	if start, err = strconv.ParseInt(startField, 10, 64); err != nil {
		return 0, 0, false, errInvalidRange
	}
	if endField == "" {
		return start, 0, false, nil
	}
	if end, err = strconv.ParseInt(endField, 10, 64); err != nil {
		return 0, 0, false, errInvalidRange
	}
	return start, end, true, nil
}
