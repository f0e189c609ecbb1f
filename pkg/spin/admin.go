package spin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/models"
)

// AdminAdjustBalance applies a signed staff correction to a wallet. The
// adjustment bypasses the fraud path and is flushed synchronously: when
// this returns nil the durable store already reflects the new balance.
func (p *Processor) AdminAdjustBalance(ctx context.Context, userID string, currency models.Currency, amount decimal.Decimal, reason, adminID string) (*Result, error) {
	if !currency.Valid() {
		return nil, ErrInvalidCurrency
	}

	sess, err := p.balances.Session(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	now := p.now()
	before := sess.Balance(currency)
	after, err := sess.Adjust(currency, amount)
	if err != nil {
		return nil, err
	}

	tx := models.Transaction{
		ID:            uuid.New().String(),
		WalletID:      userID,
		Sequence:      sess.NextSequence(),
		Kind:          models.KindAdminAdjustment,
		Currency:      currency,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Status:        models.StatusCompleted,
		Metadata:      models.TransactionMetadata{AdminID: adminID, Reason: reason},
		CreatedAt:     now,
	}
	p.enqueue(tx)
	p.batcher.MarkDirty(sess.Snapshot())

	if err := p.batcher.ForceFlush(ctx); err != nil {
		return nil, fmt.Errorf("adjustment applied but not yet durable: %w", err)
	}

	p.logger.Info("admin balance adjustment",
		slog.String("user_id", userID),
		slog.String("admin_id", adminID),
		slog.String("currency", string(currency)),
		slog.String("amount", amount.String()))

	return &Result{Balance: after, TransactionID: tx.ID}, nil
}

// Bootstrap creates a wallet and seeds the configured starting balances,
// each seed recorded as a bonus transaction. The result is flushed
// synchronously.
func (p *Processor) Bootstrap(ctx context.Context, userID string) (*models.Wallet, error) {
	w, err := p.balances.Bootstrap(ctx, userID)
	if err != nil {
		return nil, err
	}

	sess, err := p.balances.Session(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	now := p.now()
	for _, currency := range models.Currencies {
		seed := p.balances.StartingBalance(currency)
		if seed.Sign() <= 0 {
			continue
		}
		after, err := sess.Adjust(currency, seed)
		if err != nil {
			return nil, fmt.Errorf("failed to seed %s balance: %w", currency, err)
		}
		p.enqueue(models.Transaction{
			ID:            uuid.New().String(),
			WalletID:      userID,
			Sequence:      sess.NextSequence(),
			Kind:          models.KindBonus,
			Currency:      currency,
			Amount:        seed,
			BalanceBefore: after.Sub(seed),
			BalanceAfter:  after,
			Reference:     "signup_bonus",
			Status:        models.StatusCompleted,
			CreatedAt:     now,
		})
	}
	p.batcher.MarkDirty(sess.Snapshot())

	if err := p.batcher.ForceFlush(ctx); err != nil {
		return nil, fmt.Errorf("wallet created but seed not yet durable: %w", err)
	}
	return w, nil
}

// GetBalance returns the authoritative in-memory balance.
func (p *Processor) GetBalance(ctx context.Context, userID string, currency models.Currency) (decimal.Decimal, error) {
	if !currency.Valid() {
		return decimal.Zero, ErrInvalidCurrency
	}
	return p.balances.GetBalance(ctx, userID, currency)
}

// GetTransactionHistory reads a wallet's ledger entries from durable
// storage, newest first. Entries still in the batch window may not appear
// until the next flush.
func (p *Processor) GetTransactionHistory(ctx context.Context, userID string, limit, offset int32) ([]models.Transaction, error) {
	return p.ledgerRead.ListTransactionsByWallet(ctx, userID, limit, offset)
}
