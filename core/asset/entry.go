package asset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"time"
)

var (
	// ErrMissingFile is returned when a path does not exist (or its name
	// is too long for the filesystem to resolve).
	ErrMissingFile = errors.New("file does not exist")

	// ErrIsDirectory is returned when a path resolves to a directory.
	// Directories are never served; for routing purposes this counts as
	// a miss, see IsMissing.
	ErrIsDirectory = errors.New("path is a directory")

	// ErrNotRegularFile is returned when a path resolves to a node that
	// is neither a regular file nor a directory (socket, device, fifo).
	// Serving such a node is undefined, so this is a hard error and is
	// never folded into a routing miss.
	ErrNotRegularFile = errors.New("not a regular file")
)

// IsMissing reports whether err represents a routing-level miss: the
// path either does not exist or is a directory. Callers use it to fall
// through to the next mount or to the wrapped application instead of
// failing the request.
func IsMissing(err error) bool {
	return errors.Is(err, ErrMissingFile) || errors.Is(err, ErrIsDirectory)
}

// StatFunc resolves a path to file metadata. It exists so the registry
// can substitute a lookup table built from a single directory walk for
// live os.Stat calls when constructing many assets at once.
type StatFunc func(path string) (fs.FileInfo, error)

// Entry is a validated stat snapshot of one regular file on disk.
// It is only ever constructed through Stat and never mutated.
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Stat builds an Entry for path using the given stat function (nil means
// os.Stat). It fails with ErrMissingFile, ErrIsDirectory or
// ErrNotRegularFile when the path does not name a regular file; any
// other stat error is returned as-is.
func Stat(path string, stat StatFunc) (Entry, error) {
	if stat == nil {
		stat = os.Stat
	}
	info, err := stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENAMETOOLONG) {
			return Entry{}, fmt.Errorf("%w: %s", ErrMissingFile, path)
		}
		return Entry{}, err
	}
	mode := info.Mode()
	switch {
	case mode.IsRegular():
	case mode.IsDir():
		return Entry{}, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	default:
		return Entry{}, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}
	return Entry{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}
