package cart

import "log/slog"

// Option configures a Manager at construction time.
type Option func(*Manager)

// WithStore sets the guest cart persistence backend. Default is an
// in-memory store.
func WithStore(store Store) Option {
	return func(m *Manager) {
		if store != nil {
			m.store = store
		}
	}
}

// WithLogger attaches a structured logger. Nil loggers are ignored.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}
