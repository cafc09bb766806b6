// Package api defines the wire types of the pinegate HTTP surface.
//
// It holds the structured error envelope returned on every failed request
// and the small JSON bodies produced by the authenticated endpoints. The
// package performs no I/O.
//
// Core types:
//   - [APIError]: Structured error with type, param, and message
//   - [ErrorResponse]: Top-level {"error": ...} envelope
//   - [DataResponse], [UserResponse]: Bodies of the /api/data endpoints
package api
