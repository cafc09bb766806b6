// Package transport provides the net/http middleware chain and error
// writing helpers shared by the pinegate HTTP server.
//
// # Middleware
//
// Middleware wraps an http.Handler with cross-cutting concerns. Built-in
// middleware provides panic recovery, request ID assignment (X-Request-ID,
// generated with google/uuid when absent), and structured request logging
// via log/slog. Authentication lives in pkg/auth and is composed into the
// same chain by the server.
//
// # Errors
//
// Every failure is written as the api.ErrorResponse JSON envelope with a
// status derived from the api.ErrorType.
package transport
