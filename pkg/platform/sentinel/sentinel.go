package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: a unique key is already taken
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrInsufficient: a balance cannot cover a debit or transfer
// - ErrNegativeTotal: a committed total would drop below zero
// - ErrOverflow: a balance or total would exceed the largest storable amount
// - ErrUnavailable: service or resource temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrInvalidState  = errors.New("invalid state")
	ErrInsufficient  = errors.New("insufficient balance")
	ErrNegativeTotal = errors.New("negative committed total")
	ErrOverflow      = errors.New("amount overflow")
	ErrUnavailable   = errors.New("unavailable")
)
