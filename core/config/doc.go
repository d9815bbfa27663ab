// Package config provides type-safe environment variable loading with
// caching using Go generics. Each configuration type is loaded once and
// cached for subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct
// fields.
//
// Basic usage:
//
//	import "github.com/dmitrymomot/staticserve/core/config"
//
//	var cfg registry.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
//	// Or panic on failure (useful for startup)
//	config.MustLoad(&cfg)
//
// # Caching Behavior
//
// Each configuration type is loaded only once per application lifetime;
// repeated Load calls for the same type return the cached value.
// Different types are cached independently, so serving options and
// compressor options can each be loaded where they are needed:
//
//	var serveCfg registry.Config
//	config.MustLoad(&serveCfg)
//
//	var compressCfg compress.Config
//	config.MustLoad(&compressCfg)
package config
