package storage

import "errors"

// ErrWalletNotFound is returned when no durable wallet exists for a user.
var ErrWalletNotFound = errors.New("wallet not found")

// ErrWalletExists is returned when creating a wallet for a user who already has one.
var ErrWalletExists = errors.New("wallet already exists")

// ErrAlertNotFound is returned when no alert matches the given id or filter.
var ErrAlertNotFound = errors.New("alert not found")

// ErrAlertConflict is returned when an alert update loses a race with a
// concurrent update, such as two staff members acting on the same alert.
var ErrAlertConflict = errors.New("alert modified concurrently")
