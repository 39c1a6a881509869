package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNilConfig is returned when Load receives a nil pointer.
var ErrNilConfig = errors.New("config: target must be a non-nil pointer to a struct")

var (
	cache      sync.Map // reflect.Type -> loaded struct value
	dotenvOnce sync.Once
)

// Load populates cfg from environment variables. The first call for a given
// type parses the environment; later calls for the same type return the
// cached value, so every component sees identical configuration.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}

	typ := reflect.TypeOf(*cfg)
	if typ.Kind() != reflect.Struct {
		return fmt.Errorf("config: %s is not a struct", typ)
	}

	if cached, ok := cache.Load(typ); ok {
		*cfg = cached.(T)
		return nil
	}

	dotenvOnce.Do(func() {
		// A missing .env file is not an error; deployed environments set
		// variables directly.
		_ = godotenv.Load()
	})

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", typ, err)
	}

	// LoadOrStore keeps the winner consistent when two goroutines race the
	// first load of the same type.
	actual, _ := cache.LoadOrStore(typ, *cfg)
	*cfg = actual.(T)
	return nil
}

// MustLoad is like Load but panics on failure. Intended for application
// startup where a bad environment should abort immediately.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
