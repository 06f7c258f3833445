package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cacheMu sync.RWMutex
	cache   = make(map[string]any)

	dotenvOnce sync.Once
)

// Load populates v from environment variables. The first call for a given
// type parses the environment; subsequent calls return the cached value so
// every consumer of a config type observes the same snapshot.
//
// A .env file in the working directory is loaded once per process before the
// first parse; a missing file is not an error.
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	key := typeKey[T]()

	cacheMu.RLock()
	cached, ok := cache[key]
	cacheMu.RUnlock()
	if ok {
		*v = cached.(T)
		return nil
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	cacheMu.Lock()
	defer cacheMu.Unlock()
	// Another goroutine may have parsed the same type concurrently; keep the
	// first stored value so all callers agree.
	if cached, ok := cache[key]; ok {
		*v = cached.(T)
		return nil
	}
	cache[key] = *v
	return nil
}

// MustLoad is Load that panics on failure.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: failed to load %s: %v", typeKey[T](), err))
	}
}

func typeKey[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return fmt.Sprintf("%T", *new(T))
	}
	return t.String()
}
