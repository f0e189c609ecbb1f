package wallet

import "errors"

// ErrInvalidAmount is returned when a mutation amount is zero or negative.
var ErrInvalidAmount = errors.New("invalid amount")

// ErrInsufficientFunds is returned when a debit exceeds the current balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrWalletBusy is returned when the per-wallet exclusive section cannot be
// acquired within the configured timeout.
var ErrWalletBusy = errors.New("wallet busy")

// ErrWalletNotFound is returned when neither the cache nor the durable
// store has a wallet for the user.
var ErrWalletNotFound = errors.New("wallet not found")

// ErrWalletExists is returned when bootstrapping a wallet that already exists.
var ErrWalletExists = errors.New("wallet already exists")
