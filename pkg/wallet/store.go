package wallet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/spinworks/wallet-core/pkg/storage"
)

// Config holds the balance store's tunables.
type Config struct {
	// LockTimeout bounds how long a caller may wait on a wallet's exclusive
	// section before failing with ErrWalletBusy.
	LockTimeout time.Duration

	// StartingBalances seeds newly bootstrapped wallets per currency.
	StartingBalances map[models.Currency]decimal.Decimal
}

// Store is the authoritative per-user balance cache. All mutations happen
// under a per-wallet exclusive section; the in-memory value is the source
// of truth for subsequent reads until the batcher flushes it. Reads never
// block on durable I/O once a wallet is cached.
type Store struct {
	cfg     Config
	durable storage.WalletStore
	locks   *lockSet
	logger  *slog.Logger

	mu      sync.Mutex
	wallets map[string]*models.Wallet

	now func() time.Time
}

// New creates a balance store backed by the given durable wallet store.
func New(durable storage.WalletStore, cfg Config, logger *slog.Logger) *Store {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = 2 * time.Second
	}
	return &Store{
		cfg:     cfg,
		durable: durable,
		locks:   newLockSet(),
		logger:  logger,
		wallets: make(map[string]*models.Wallet),
		now:     time.Now,
	}
}

// Session opens the wallet's exclusive section and returns a handle for
// applying one or more mutations atomically with respect to other callers.
// The caller must Close the session.
func (s *Store) Session(ctx context.Context, userID string) (*Session, error) {
	release, err := s.locks.acquire(ctx, userID, s.cfg.LockTimeout)
	if err != nil {
		return nil, err
	}

	w, err := s.wallet(ctx, userID)
	if err != nil {
		release()
		return nil, err
	}

	return &Session{store: s, wallet: w, release: release}, nil
}

// wallet returns the cached wallet, loading it from durable storage on a
// miss. Callers must hold the wallet's exclusive section.
func (s *Store) wallet(ctx context.Context, userID string) (*models.Wallet, error) {
	s.mu.Lock()
	w, ok := s.wallets[userID]
	s.mu.Unlock()
	if ok {
		return w, nil
	}

	w, err := s.durable.LoadWallet(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to load wallet for user %s: %w", userID, err)
	}

	s.mu.Lock()
	s.wallets[userID] = w
	s.mu.Unlock()
	return w, nil
}

// Bootstrap creates a zero-balance wallet for the user, written through to
// durable storage immediately. Seeding of starting balances is the caller's
// responsibility so the corresponding bonus transactions hit the ledger.
func (s *Store) Bootstrap(ctx context.Context, userID string) (*models.Wallet, error) {
	release, err := s.locks.acquire(ctx, userID, s.cfg.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := s.wallet(ctx, userID); err == nil {
		return nil, ErrWalletExists
	} else if !errors.Is(err, ErrWalletNotFound) {
		return nil, err
	}

	w := models.NewWallet(userID, s.now())
	if err := s.durable.CreateWallet(ctx, w); err != nil {
		if errors.Is(err, storage.ErrWalletExists) {
			return nil, ErrWalletExists
		}
		return nil, fmt.Errorf("failed to create wallet for user %s: %w", userID, err)
	}

	s.mu.Lock()
	s.wallets[userID] = w
	s.mu.Unlock()
	return w, nil
}

// StartingBalance returns the configured seed amount for a currency.
func (s *Store) StartingBalance(c models.Currency) decimal.Decimal {
	if amt, ok := s.cfg.StartingBalances[c]; ok {
		return amt
	}
	return decimal.Zero
}

// GetBalance returns the current balance for a user and currency.
func (s *Store) GetBalance(ctx context.Context, userID string, c models.Currency) (decimal.Decimal, error) {
	sess, err := s.Session(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	defer sess.Close()
	return sess.Balance(c), nil
}

// TryDebit removes amount from the user's balance in a single exclusive
// section. Most callers settle a whole spin through a Session instead.
func (s *Store) TryDebit(ctx context.Context, userID string, c models.Currency, amount decimal.Decimal) (decimal.Decimal, error) {
	sess, err := s.Session(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	defer sess.Close()
	return sess.TryDebit(c, amount)
}

// Credit adds amount to the user's balance in a single exclusive section.
func (s *Store) Credit(ctx context.Context, userID string, c models.Currency, amount decimal.Decimal) (decimal.Decimal, error) {
	sess, err := s.Session(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	defer sess.Close()
	return sess.Credit(c, amount)
}

// Session is a handle on a wallet's exclusive section. Mutations through
// the session cannot interleave with any other caller for the same user,
// which is what keeps a spin's debit and credit adjacent in the ledger.
type Session struct {
	store   *Store
	wallet  *models.Wallet
	release func()
}

// UserID returns the owning user's id.
func (sess *Session) UserID() string {
	return sess.wallet.UserID
}

// Balance returns the current balance for the currency.
func (sess *Session) Balance(c models.Currency) decimal.Decimal {
	return sess.wallet.Balance(c).Amount
}

// TryDebit removes amount from the balance. It fails with ErrInvalidAmount
// for non-positive amounts and ErrInsufficientFunds when amount exceeds the
// current balance, leaving the wallet untouched in both cases.
func (sess *Session) TryDebit(c models.Currency, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	now := sess.store.now()
	w := sess.wallet
	w.MaybeResetDaily(now)

	b := w.Balance(c)
	if amount.GreaterThan(b.Amount) {
		return b.Amount, ErrInsufficientFunds
	}
	b.Amount = b.Amount.Sub(amount)
	b.DailySpent = b.DailySpent.Add(amount)
	w.Version++
	w.UpdatedAt = now
	return b.Amount, nil
}

// Credit adds amount to the balance and counts it toward the daily won
// counter.
func (sess *Session) Credit(c models.Currency, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() <= 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	now := sess.store.now()
	w := sess.wallet
	w.MaybeResetDaily(now)

	b := w.Balance(c)
	b.Amount = b.Amount.Add(amount)
	b.DailyWon = b.DailyWon.Add(amount)
	w.Version++
	w.UpdatedAt = now
	return b.Amount, nil
}

// Adjust applies a signed non-gameplay amount (deposit, bonus, admin
// adjustment) without touching the daily gameplay counters. A negative
// adjustment may not drive the balance below zero.
func (sess *Session) Adjust(c models.Currency, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Sign() == 0 {
		return decimal.Zero, ErrInvalidAmount
	}
	now := sess.store.now()
	w := sess.wallet
	w.MaybeResetDaily(now)

	b := w.Balance(c)
	next := b.Amount.Add(amount)
	if next.IsNegative() {
		return b.Amount, ErrInsufficientFunds
	}
	b.Amount = next
	w.Version++
	w.UpdatedAt = now
	return b.Amount, nil
}

// NextSequence assigns the next per-wallet transaction sequence number.
func (sess *Session) NextSequence() int64 {
	return sess.wallet.NextSequence()
}

// Snapshot returns the wallet's current durable image for the batcher.
func (sess *Session) Snapshot() models.WalletDelta {
	return sess.wallet.Delta()
}

// Close leaves the exclusive section. Safe to call more than once.
func (sess *Session) Close() {
	sess.release()
}
