// Package config loads typed configuration structs from environment
// variables, with optional .env file support for local development.
//
// Each configuration type is parsed once per process and cached; repeated
// Load calls for the same type return the cached value. Struct fields are
// declared with `env` tags:
//
//	type TransportConfig struct {
//		BaseURL        string        `env:"API_BASE_URL,required"`
//		RequestTimeout time.Duration `env:"API_REQUEST_TIMEOUT" envDefault:"15s"`
//	}
//
//	var cfg TransportConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
//
// MustLoad panics on failure and suits configuration the process cannot
// start without.
package config
