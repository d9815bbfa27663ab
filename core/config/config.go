package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	// cache maps a configuration struct type to its loaded value.
	cache sync.Map

	// dotenvOnce guards the one-time .env load. A missing .env file is
	// not an error; the environment simply stays as-is.
	dotenvOnce sync.Once
)

// Load fills cfg from environment variables according to its env tags.
// The first call for a given type parses the environment; subsequent
// calls return the cached value. A .env file in the working directory
// is loaded once, before the first parse.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return fmt.Errorf("config: nil target")
	}
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	key := reflect.TypeOf(*cfg)
	if cached, ok := cache.Load(key); ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", key, err)
	}

	// Under concurrent first loads the earliest stored value wins, so
	// every caller observes the same configuration.
	cached, _ := cache.LoadOrStore(key, *cfg)
	*cfg = cached.(T)
	return nil
}

// MustLoad is Load that panics on failure. Intended for application
// startup where a bad environment should abort immediately.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
