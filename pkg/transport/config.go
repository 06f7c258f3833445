package transport

import "time"

// Config carries the transport settings loadable via pkg/config.
type Config struct {
	BaseURL        string        `env:"STOREFRONT_API_URL,required"`                     // Root URL of the storefront REST API, e.g. "https://api.shop.example".
	RequestTimeout time.Duration `env:"STOREFRONT_REQUEST_TIMEOUT" envDefault:"15s"`     // Per-attempt timeout; elapsing counts as a network failure.
	RefreshPath    string        `env:"STOREFRONT_REFRESH_PATH" envDefault:"/auth/refresh"` // Token refresh endpoint, relative to BaseURL.
}
