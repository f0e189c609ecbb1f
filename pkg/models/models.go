package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Currency identifies one of the two platform currencies.
type Currency string

const (
	// GoldCoins is the non-redeemable, entertainment-only currency.
	GoldCoins Currency = "GC"
	// SweepsCoins is the redeemable currency.
	SweepsCoins Currency = "SC"
)

// Currencies lists every supported currency, in a fixed order.
var Currencies = []Currency{GoldCoins, SweepsCoins}

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	return c == GoldCoins || c == SweepsCoins
}

// TransactionKind defines the possible kinds of a ledger transaction.
type TransactionKind string

const (
	KindBet             TransactionKind = "bet"
	KindWin             TransactionKind = "win"
	KindDeposit         TransactionKind = "deposit"
	KindWithdrawal      TransactionKind = "withdrawal"
	KindBonus           TransactionKind = "bonus"
	KindAdminAdjustment TransactionKind = "admin_adjustment"
)

// TransactionStatus defines the possible states of a ledger transaction.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Balance holds the funds and daily counters for a single currency.
type Balance struct {
	Amount     decimal.Decimal `json:"amount"`
	DailySpent decimal.Decimal `json:"daily_spent"`
	DailyWon   decimal.Decimal `json:"daily_won"`
}

// Wallet represents the internal domain model for a user's wallet.
// The in-memory copy held by the balance store is authoritative; the
// durable copy trails it by at most one flush interval.
type Wallet struct {
	UserID       string                `json:"user_id"`
	Balances     map[Currency]*Balance `json:"balances"`
	DailyResetAt time.Time             `json:"daily_reset_at"`
	Version      int64                 `json:"version"`
	Sequence     int64                 `json:"sequence"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// NewWallet creates a wallet with zero balances in every currency.
func NewWallet(userID string, now time.Time) *Wallet {
	balances := make(map[Currency]*Balance, len(Currencies))
	for _, c := range Currencies {
		balances[c] = &Balance{}
	}
	return &Wallet{
		UserID:       userID,
		Balances:     balances,
		DailyResetAt: startOfDay(now),
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Balance returns the balance bucket for the given currency, creating an
// empty one if the wallet predates the currency.
func (w *Wallet) Balance(c Currency) *Balance {
	b, ok := w.Balances[c]
	if !ok {
		b = &Balance{}
		w.Balances[c] = b
	}
	return b
}

// MaybeResetDaily zeroes the daily counters when now falls on a later day
// than the last reset. Counters are reset lazily on the next mutation
// rather than by a scheduled job.
func (w *Wallet) MaybeResetDaily(now time.Time) {
	day := startOfDay(now)
	if !day.After(w.DailyResetAt) {
		return
	}
	for _, b := range w.Balances {
		b.DailySpent = decimal.Zero
		b.DailyWon = decimal.Zero
	}
	w.DailyResetAt = day
}

// NextSequence assigns and returns the next per-wallet transaction sequence
// number. Callers must hold the wallet's exclusive section.
func (w *Wallet) NextSequence() int64 {
	w.Sequence++
	return w.Sequence
}

// Delta captures the wallet's current durable image. The batcher persists
// images rather than increments so that re-applying a batch is idempotent.
func (w *Wallet) Delta() WalletDelta {
	balances := make(map[Currency]*Balance, len(w.Balances))
	for c, b := range w.Balances {
		copied := *b
		balances[c] = &copied
	}
	return WalletDelta{
		UserID:       w.UserID,
		Balances:     balances,
		DailyResetAt: w.DailyResetAt,
		Version:      w.Version,
		Sequence:     w.Sequence,
		UpdatedAt:    w.UpdatedAt,
	}
}

// WalletDelta is the post-mutation image of a wallet queued for a batched
// durable write.
type WalletDelta struct {
	UserID       string                `json:"user_id"`
	Balances     map[Currency]*Balance `json:"balances"`
	DailyResetAt time.Time             `json:"daily_reset_at"`
	Version      int64                 `json:"version"`
	Sequence     int64                 `json:"sequence"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TransactionMetadata carries audit context for a ledger transaction.
type TransactionMetadata struct {
	GameID  string `json:"game_id,omitempty"`
	Device  string `json:"device,omitempty"`
	AdminID string `json:"admin_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Transaction is a single immutable ledger entry. Every balance mutation
// produces exactly one.
type Transaction struct {
	ID            string              `json:"id"`
	WalletID      string              `json:"wallet_id"`
	Sequence      int64               `json:"sequence"`
	Kind          TransactionKind     `json:"kind"`
	Currency      Currency            `json:"currency"`
	Amount        decimal.Decimal     `json:"amount"`
	BalanceBefore decimal.Decimal     `json:"balance_before"`
	BalanceAfter  decimal.Decimal     `json:"balance_after"`
	Reference     string              `json:"reference_id,omitempty"`
	Status        TransactionStatus   `json:"status"`
	Metadata      TransactionMetadata `json:"metadata,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// CheckInvariant verifies balance_after = balance_before + amount, and that
// a debit never drives the balance negative.
func (t *Transaction) CheckInvariant() error {
	if !t.BalanceAfter.Equal(t.BalanceBefore.Add(t.Amount)) {
		return errors.New("transaction balance mismatch")
	}
	if t.Amount.IsNegative() && t.BalanceAfter.IsNegative() {
		return errors.New("debit produced a negative balance")
	}
	return nil
}

// SpinRecord captures one settled spin. It feeds both the durable spin log
// and fraud evaluation.
type SpinRecord struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	GameID         string          `json:"game_id"`
	SessionID      string          `json:"session_id"`
	Currency       Currency        `json:"currency"`
	BetAmount      decimal.Decimal `json:"bet_amount"`
	WinAmount      decimal.Decimal `json:"win_amount"`
	BalanceBefore  decimal.Decimal `json:"balance_before"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	Outcome        json.RawMessage `json:"outcome,omitempty"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	BonusTriggered bool            `json:"bonus_triggered"`
	IsJackpot      bool            `json:"is_jackpot"`
	CreatedAt      time.Time       `json:"created_at"`
}

// NetWin returns the spin's net effect on the balance.
func (s *SpinRecord) NetWin() decimal.Decimal {
	return s.WinAmount.Sub(s.BetAmount)
}

// Severity grades a fraud finding or admin alert.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// FraudFinding is the result of one rule firing for one user. It exists to
// produce an AdminAlert and is not persisted on its own.
type FraudFinding struct {
	UserID    string    `json:"user_id"`
	Rule      string    `json:"rule"`
	Severity  Severity  `json:"severity"`
	Detail    string    `json:"detail"`
	Evidence  []string  `json:"evidence"`
	CreatedAt time.Time `json:"created_at"`
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
