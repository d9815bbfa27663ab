// Command precompress searches a directory tree for files not matching
// an extension exclude-list and writes compressed versions with ".gz"
// and ".br" suffixes, as long as compression actually shrinks them.
// The serving engine picks the siblings up through content negotiation.
//
// Usage:
//
//	precompress [flags] <root> [extensions to skip...]
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/dmitrymomot/staticserve/core/compress"
	"github.com/dmitrymomot/staticserve/core/logger"
)

func main() {
	quiet := pflag.BoolP("quiet", "q", false, "don't produce log output")
	noGzip := pflag.Bool("no-gzip", false, "don't produce gzip '.gz' files")
	noBrotli := pflag.Bool("no-brotli", false, "don't produce brotli '.br' files")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <root> [extensions to skip...]\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	args := pflag.Args()
	if len(args) < 1 {
		pflag.Usage()
		os.Exit(2)
	}
	root := args[0]

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if *quiet {
		log = slog.New(slog.DiscardHandler)
	}

	cfg := compress.Config{
		Gzip:   !*noGzip,
		Brotli: !*noBrotli,
	}
	if extensions := args[1:]; len(extensions) > 0 {
		cfg.SkipExtensions = extensions
	}

	written, err := compress.New(cfg, log).CompressRoot(root)
	if err != nil {
		log.Error("precompression failed", logger.Component("precompress"), logger.Error(err))
		os.Exit(1)
	}
	log.Info("done", logger.Component("precompress"), logger.Count("files_written", len(written)))
}
