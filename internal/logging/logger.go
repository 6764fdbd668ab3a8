// Package logging is the structured logger shared by the server and its
// storage, service and transport layers.
//
// Two backends sit behind one interface. log/slog is the default because it
// ships with the toolchain. zerolog is there for deployments that want its
// allocation-free encoder; set log_backend (GOPHAUTH_LOG_BACKEND) to
// "zerolog" to pick it. Either way records are JSON lines with the same
// time, level and message keys, so switching backends does not break log
// shipping rules.
package logging

import "context"

// Logger takes a message plus alternating keys and values:
//
//	log.Info(ctx, "user registered", "username", name, "roles", roles)
//
// ctx is handed to the backend so handlers that read request-scoped values
// can see them.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With binds args to every record the returned logger writes.
	With(args ...any) Logger
}
