package storage

import "errors"

// Sentinel errors shared by all store implementations. Services translate
// these into the API error taxonomy.
var (
	// ErrNotFound reports a missing record.
	ErrNotFound = errors.New("record not found")

	// ErrConflict reports a duplicate unique field or a status-transition
	// guard failure.
	ErrConflict = errors.New("conflicting record state")

	// ErrInsufficientBalance reports a debit that would drive a balance
	// negative.
	ErrInsufficientBalance = errors.New("insufficient balance")
)
