package compress

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"

	"github.com/dmitrymomot/staticserve/core/logger"
)

// DefaultSkipExtensions lists file extensions not worth compressing:
// formats that are already compressed internally. The slice is a
// constant default; New copies it, so instances never share mutable
// state.
var DefaultSkipExtensions = []string{
	// Images
	"jpg", "jpeg", "png", "gif", "webp",
	// Compressed archives
	"zip", "gz", "tgz", "bz2", "tbz", "xz", "br",
	// Flash
	"swf", "flv",
	// Fonts
	"woff", "woff2",
}

// minSavings is the largest compressed/original size ratio still worth
// keeping a sibling for.
const minSavings = 0.95

// Config enumerates the precompression options. Nil SkipExtensions
// means DefaultSkipExtensions.
type Config struct {
	// SkipExtensions are file extensions (without dot, case-insensitive)
	// excluded from compression.
	SkipExtensions []string `env:"COMPRESS_SKIP_EXTENSIONS"`

	// Gzip enables writing ".gz" siblings.
	Gzip bool `env:"COMPRESS_GZIP" envDefault:"true"`

	// Brotli enables writing ".br" siblings.
	Brotli bool `env:"COMPRESS_BROTLI" envDefault:"true"`
}

// Compressor writes precompressed siblings next to original files. It
// is an offline tool: the serving engine only ever reads the siblings
// it produces, and never requires them.
type Compressor struct {
	skip   map[string]struct{}
	gzip   bool
	brotli bool
	log    *slog.Logger
}

// New creates a Compressor. A nil logger means slog.Default(); pass a
// discard logger for quiet operation.
func New(cfg Config, log *slog.Logger) *Compressor {
	if log == nil {
		log = slog.Default()
	}
	extensions := cfg.SkipExtensions
	if extensions == nil {
		extensions = slices.Clone(DefaultSkipExtensions)
	}
	skip := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		skip[strings.ToLower(ext)] = struct{}{}
	}
	return &Compressor{
		skip:   skip,
		gzip:   cfg.Gzip,
		brotli: cfg.Brotli,
		log:    log,
	}
}

// ShouldCompress reports whether a filename is eligible for
// compression, i.e. its extension is not on the skip list.
func (c *Compressor) ShouldCompress(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return true
	}
	_, skip := c.skip[ext]
	return !skip
}

// CompressFile writes the enabled precompressed siblings for path and
// returns the files it wrote. A sibling is only kept when it saves at
// least 5% over the original; when brotli (tried first, as the stronger
// coder) fails that bar, gzip is not attempted either since it cannot
// do better. Each sibling gets the original's modification time so the
// serving engine derives identical validators for both.
func (c *Compressor) CompressFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var written []string
	if c.brotli {
		compressed, err := compressBrotli(data)
		if err != nil {
			return nil, err
		}
		if !c.isEffective("brotli", path, len(data), len(compressed)) {
			return written, nil
		}
		name, err := writeSibling(path, ".br", compressed, info)
		if err != nil {
			return nil, err
		}
		written = append(written, name)
	}
	if c.gzip {
		compressed, err := compressGzip(data)
		if err != nil {
			return nil, err
		}
		if c.isEffective("gzip", path, len(data), len(compressed)) {
			name, err := writeSibling(path, ".gz", compressed, info)
			if err != nil {
				return nil, err
			}
			written = append(written, name)
		}
	}
	return written, nil
}

// CompressRoot walks root and compresses every eligible file, returning
// all siblings written.
func (c *Compressor) CompressRoot(root string) ([]string, error) {
	var written []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !c.ShouldCompress(d.Name()) {
			return nil
		}
		names, err := c.CompressFile(path)
		if err != nil {
			return err
		}
		written = append(written, names...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}

// isEffective applies the 95% rule and logs the outcome. Empty files
// are never worth a sibling.
func (c *Compressor) isEffective(encoding, path string, origSize, compressedSize int) bool {
	effective := origSize > 0 && float64(compressedSize)/float64(origSize) <= minSavings
	if effective {
		c.log.Info("compressed",
			logger.Component("compress"),
			slog.String("encoding", encoding),
			slog.String("path", path),
			slog.Int("original_size", origSize),
			slog.Int("compressed_size", compressedSize),
		)
	} else {
		c.log.Info("skipped, compression not effective",
			logger.Component("compress"),
			slog.String("encoding", encoding),
			slog.String("path", path),
		)
	}
	return effective
}

// compressGzip compresses data at the best level. The gzip header is
// left with a zero modification time and no name, so the output is
// fully determined by the input bytes and repeated runs over unchanged
// files are idempotent.
func compressGzip(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := gw.Write(data); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// compressBrotli compresses data at the best quality level.
func compressBrotli(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	bw := brotli.NewWriterLevel(&buf, brotli.BestCompression)
	if _, err := bw.Write(data); err != nil {
		return nil, err
	}
	if err := bw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeSibling writes the compressed bytes next to the original and
// copies the original's modification time onto the sibling.
func writeSibling(path, suffix string, data []byte, info os.FileInfo) (string, error) {
	name := path + suffix
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Chtimes(name, info.ModTime(), info.ModTime()); err != nil {
		return "", err
	}
	return name, nil
}
