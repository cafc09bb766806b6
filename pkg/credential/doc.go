// Package credential defines the read-only contract between the credential
// verifier and the relational store holding provisioned API keys.
//
// Store adapters (memory, postgres, sqlite) implement [Store]. Each call to
// ListCredentials returns a fresh snapshot; nothing is cached, so a record
// removed from the backing store is gone from the very next fetch.
package credential
