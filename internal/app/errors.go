package app

import "errors"

// Every entry point fails as a whole with one of these; nothing is
// mutated on any error path and nothing is retried internally.
var (
	ErrPaused              = errors.New("entry points are paused")
	ErrInvalidStep         = errors.New("operation not allowed in current step")
	ErrInvalidChoice       = errors.New("choice outside the valid set")
	ErrInvalidPlayer       = errors.New("caller is not the authorized participant")
	ErrHashMismatch        = errors.New("reveal does not reproduce the stored commitment")
	ErrEmptySecret         = errors.New("secret must not be empty")
	ErrEmptySessionKey     = errors.New("session key must not be empty")
	ErrEmptyCommitment     = errors.New("commitment must not be empty")
	ErrInsufficientBalance = errors.New("stored balance cannot cover the debit")
	ErrGameNotExpired      = errors.New("forfeit window has not elapsed")
	ErrTransferFailed      = errors.New("outbound transfer failed")
	ErrInvalidAmount       = errors.New("amount must be positive")
)
