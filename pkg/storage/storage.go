package storage

import (
	"context"

	"github.com/spinworks/wallet-core/pkg/models"
)

// Storage defines the root interface for the entire durable layer.
// It composes all available storage operations. Components should depend on
// the more granular interfaces (WalletStore, BatchWriter, etc.) instead of
// this one.
type Storage interface {
	WalletStore
	LedgerStore
	SpinLogStore
	AlertStore
}

// BatchWriter is the narrow slice of the durable layer used by the
// transaction batcher. Every operation must tolerate at-least-once
// application.
type BatchWriter interface {
	AppendTransactions(ctx context.Context, txs []models.Transaction) error
	AppendSpinRecords(ctx context.Context, records []models.SpinRecord) error
	PersistWalletBatch(ctx context.Context, deltas []models.WalletDelta) error
}
