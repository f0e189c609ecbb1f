package storage

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/models"
)

// LedgerStore defines the interface for the append-only transaction log.
type LedgerStore interface {
	// AppendTransactions writes a batch of ledger entries. The write is
	// idempotent keyed by transaction id, so a retried batch never produces
	// duplicate entries.
	AppendTransactions(ctx context.Context, txs []models.Transaction) error

	// ListTransactionsByWallet retrieves a wallet's transactions, newest
	// first.
	ListTransactionsByWallet(ctx context.Context, walletID string, limit, offset int32) ([]models.Transaction, error)

	// SumTransactionAmounts totals the signed amounts of all completed
	// transactions for a wallet and currency. Used by the reconciliation
	// audit.
	SumTransactionAmounts(ctx context.Context, walletID string, currency models.Currency) (decimal.Decimal, error)
}

// SpinLogStore defines the interface for the durable spin log.
type SpinLogStore interface {
	// AppendSpinRecords writes a batch of spin records, idempotent keyed by
	// spin id.
	AppendSpinRecords(ctx context.Context, records []models.SpinRecord) error
}
