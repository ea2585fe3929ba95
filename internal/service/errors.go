package service

import "errors"

var (
	// ErrRelayUnreachable covers transport failures and non-2xx responses
	// from the relay webhook. The relay call is a single attempt, so the
	// draft is kept for a manual retry.
	ErrRelayUnreachable = errors.New("relay endpoint unreachable")

	// ErrPersistenceWrite means the relay already accepted the payload but
	// the local user_uploads insert failed. The record is parked in the
	// outbox for reconciliation.
	ErrPersistenceWrite = errors.New("upload record write failed")

	// ErrFetch covers history/telemetry read failures. Callers degrade to
	// an empty state instead of surfacing it.
	ErrFetch = errors.New("upload history fetch failed")

	// ErrSubmitInFlight rejects a second submission while one is running.
	ErrSubmitInFlight = errors.New("submission already in flight")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrTOTPRequired       = errors.New("totp code required")
)
