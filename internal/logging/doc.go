// Package logging constructs the slog loggers used throughout the service.
// Console output is used on interactive terminals, JSON otherwise.
package logging
