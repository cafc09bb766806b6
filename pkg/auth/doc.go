// Package auth provides request authentication for pinegate.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// missing or invalid, or the credential store failed), or Abstain (can't
// handle). A configurable default decides when all authenticators abstain.
//
// The gate is HTTP middleware, keeping verification decoupled from the
// handlers it protects. On success the resolved identity is stored in the
// request context and read back with [IdentityFromContext]. Credential
// rejections (401) and credential store failures (503) stay distinguishable
// to callers and operators; the rejection body never says which part of the
// check failed.
package auth
