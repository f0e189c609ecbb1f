package storage

import (
	"context"

	"github.com/spinworks/wallet-core/pkg/models"
)

// WalletStore defines the interface for durable wallet state.
type WalletStore interface {
	// LoadWallet retrieves a user's wallet by their user ID.
	LoadWallet(ctx context.Context, userID string) (*models.Wallet, error)

	// CreateWallet creates a new wallet record for a user.
	CreateWallet(ctx context.Context, wallet *models.Wallet) error

	// PersistWalletBatch writes a batch of wallet images. Re-applying a batch
	// must be idempotent: images older than the durable copy are skipped.
	PersistWalletBatch(ctx context.Context, deltas []models.WalletDelta) error

	// ListWallets retrieves all wallets. Used by the reconciliation audit.
	ListWallets(ctx context.Context) ([]models.Wallet, error)
}
