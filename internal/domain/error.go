package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")

	// Credits
	ErrInsufficientCredits = errors.New("Insufficient credits")

	// Payments
	ErrBadSignature   = errors.New("invalid webhook signature")
	ErrInvalidPayload = errors.New("invalid event payload")

	// Jobs
	ErrJobNotClaimable = errors.New("job is not claimable")
	ErrJobTerminal     = errors.New("job already in terminal state")
)
