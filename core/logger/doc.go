// Package logger provides structured logging attribute helpers built on
// Go's standard slog package. The helpers give consistent keys across
// the codebase and are nil-safe: passing a nil error yields an empty
// attribute that slog drops silently.
//
//	log.Info("compressed",
//		logger.Component("compress"),
//		logger.Count("files", n),
//	)
//
//	log.Error("static file lookup failed",
//		logger.Component("static"),
//		logger.Error(err),
//	)
package logger
