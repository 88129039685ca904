// Package common defines shared constants and sentinel errors used across
// the mediator, agent and technician layers. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Security errors. Credential verification and TLS handshake failures
	// are kept distinct so logs can tell them apart, but both are fatal to
	// the attempting connection and are never retried by this code.
	ErrUnauthorized = errors.New("unauthorized")
	ErrHandshake    = errors.New("tls handshake failed")

	// Framing errors, fatal to the owning transport session.
	ErrFrameTooLarge = errors.New("frame exceeds maximum length")
	ErrBadFrame      = errors.New("malformed frame")

	// ErrIdle reports a receive that hit its deadline before any bytes
	// arrived. The session is still usable; the caller decides whether
	// idle means dead.
	ErrIdle = errors.New("connection idle")

	// Session brokering errors, recoverable by the caller.
	ErrSessionBusy     = errors.New("session busy")
	ErrSessionNotFound = errors.New("session not found")
)
