// Package logger builds configured log/slog loggers for the SDK and its
// consumers.
//
// Two output formats are supported: JSON for production log aggregation and
// text for development. Static attributes can be attached to every record,
// which is how components tag their logs with a component name.
//
//	log := logger.New(
//		logger.WithFormat(logger.FormatText),
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithAttr(slog.String("component", "cart")),
//	)
package logger
