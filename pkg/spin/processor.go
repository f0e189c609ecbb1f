// Package spin orchestrates settlements: it is the single choke point that
// applies a spin's bet and optional win to a wallet, records the ledger
// entries, and hands the completed spin to fraud evaluation.
package spin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/ledger"
	"github.com/spinworks/wallet-core/pkg/metrics"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/spinworks/wallet-core/pkg/storage"
	"github.com/spinworks/wallet-core/pkg/wallet"
	"github.com/spinworks/wallet-core/pkg/worker"
)

// ErrInvalidBet is returned when the bet amount is zero or negative.
var ErrInvalidBet = errors.New("invalid bet amount")

// ErrInvalidWin is returned when the win amount is negative.
var ErrInvalidWin = errors.New("invalid win amount")

// ErrInvalidCurrency is returned for an unsupported currency.
var ErrInvalidCurrency = errors.New("invalid currency")

// Evaluator inspects a settled spin against the user's recent history.
type Evaluator interface {
	Evaluate(userID string, spin models.SpinRecord) []models.FraudFinding
}

// AlertRaiser turns a finding into an admin alert.
type AlertRaiser interface {
	Raise(ctx context.Context, finding models.FraudFinding) (string, error)
}

// Config holds the processor's tunables.
type Config struct {
	// RecordFailedBets writes a failed bet transaction when a settlement is
	// refused for insufficient funds, for audit. Off by default.
	RecordFailedBets bool

	// IdempotencyCacheSize bounds the recently-settled session cache.
	IdempotencyCacheSize int
}

// SettleRequest carries one already-determined game outcome into
// settlement. The outcome payload is opaque to this core.
type SettleRequest struct {
	UserID         string
	GameID         string
	SessionID      string
	Device         string
	Currency       models.Currency
	BetAmount      decimal.Decimal
	WinAmount      decimal.Decimal
	Outcome        json.RawMessage
	Multiplier     decimal.Decimal
	BonusTriggered bool
	IsJackpot      bool
}

// Result is the settled outcome returned to the caller. The balance here is
// authoritative the instant Settle returns.
type Result struct {
	Balance       decimal.Decimal `json:"balance"`
	TransactionID string          `json:"transaction_id"`
	SpinID        string          `json:"spin_id"`
}

// Processor settles spins against the balance store and ledger.
type Processor struct {
	cfg        Config
	balances   *wallet.Store
	batcher    *ledger.Batcher
	ledgerRead storage.LedgerStore
	detector   Evaluator
	raiser     AlertRaiser
	pool       *worker.Pool
	recent     *lru.Cache[string, Result]
	logger     *slog.Logger

	now func() time.Time
}

// New creates a processor.
func New(balances *wallet.Store, batcher *ledger.Batcher, ledgerRead storage.LedgerStore, detector Evaluator, raiser AlertRaiser, pool *worker.Pool, cfg Config, logger *slog.Logger) *Processor {
	if cfg.IdempotencyCacheSize <= 0 {
		cfg.IdempotencyCacheSize = 4096
	}
	recent, _ := lru.New[string, Result](cfg.IdempotencyCacheSize)
	return &Processor{
		cfg:        cfg,
		balances:   balances,
		batcher:    batcher,
		ledgerRead: ledgerRead,
		detector:   detector,
		raiser:     raiser,
		pool:       pool,
		recent:     recent,
		logger:     logger,
		now:        time.Now,
	}
}

// Settle applies one bet and optional win to the user's wallet as a single
// logical operation and returns the settled balance. The bet always
// precedes any win in the ledger, and a repeated call with an
// already-settled session id returns the recorded result without touching
// the balance again.
func (p *Processor) Settle(ctx context.Context, req SettleRequest) (*Result, error) {
	start := time.Now()
	defer func() { metrics.SettlementDuration.Observe(time.Since(start).Seconds()) }()

	// 1. Validate before touching any state.
	if !req.Currency.Valid() {
		metrics.SettlementsTotal.WithLabelValues("invalid_bet").Inc()
		return nil, ErrInvalidCurrency
	}
	if req.BetAmount.Sign() <= 0 {
		metrics.SettlementsTotal.WithLabelValues("invalid_bet").Inc()
		return nil, ErrInvalidBet
	}
	if req.WinAmount.Sign() < 0 {
		metrics.SettlementsTotal.WithLabelValues("invalid_bet").Inc()
		return nil, ErrInvalidWin
	}

	// 2. A retried settlement for a settled session replays the recorded
	// result instead of double-settling.
	if req.SessionID != "" {
		if prior, ok := p.recent.Get(req.SessionID); ok {
			metrics.SettlementsTotal.WithLabelValues("replayed").Inc()
			return &prior, nil
		}
	}

	// 3. Enter the wallet's exclusive section for the whole debit/credit
	// pair. A timeout surfaces as wallet.ErrWalletBusy.
	sess, err := p.balances.Session(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletBusy) {
			metrics.SettlementsTotal.WithLabelValues("busy").Inc()
		}
		return nil, err
	}
	defer sess.Close()

	// Re-check after acquiring the section: two concurrent retries for the
	// same session both miss the first check, serialize here, and only the
	// first one settles. The winner records its result before releasing.
	if req.SessionID != "" {
		if prior, ok := p.recent.Get(req.SessionID); ok {
			metrics.SettlementsTotal.WithLabelValues("replayed").Inc()
			return &prior, nil
		}
	}

	now := p.now()
	balanceBefore := sess.Balance(req.Currency)

	// 4. Debit the bet. Insufficient funds aborts the whole settlement with
	// no completed ledger entries.
	afterBet, err := sess.TryDebit(req.Currency, req.BetAmount)
	if err != nil {
		if errors.Is(err, wallet.ErrInsufficientFunds) {
			metrics.SettlementsTotal.WithLabelValues("insufficient_funds").Inc()
			if p.cfg.RecordFailedBets {
				p.recordFailedBet(sess, req, balanceBefore, now)
			}
		}
		return nil, err
	}

	betTx := models.Transaction{
		ID:            uuid.New().String(),
		WalletID:      req.UserID,
		Sequence:      sess.NextSequence(),
		Kind:          models.KindBet,
		Currency:      req.Currency,
		Amount:        req.BetAmount.Neg(),
		BalanceBefore: balanceBefore,
		BalanceAfter:  afterBet,
		Reference:     req.SessionID,
		Status:        models.StatusCompleted,
		Metadata:      models.TransactionMetadata{GameID: req.GameID, Device: req.Device},
		CreatedAt:     now,
	}

	// 5. Credit the win, chained from the post-debit balance.
	finalBalance := afterBet
	settledTxID := betTx.ID
	var winTx *models.Transaction
	if req.WinAmount.Sign() > 0 {
		afterWin, err := sess.Credit(req.Currency, req.WinAmount)
		if err != nil {
			return nil, fmt.Errorf("failed to credit win: %w", err)
		}
		winTx = &models.Transaction{
			ID:            uuid.New().String(),
			WalletID:      req.UserID,
			Sequence:      sess.NextSequence(),
			Kind:          models.KindWin,
			Currency:      req.Currency,
			Amount:        req.WinAmount,
			BalanceBefore: afterBet,
			BalanceAfter:  afterWin,
			Reference:     req.SessionID,
			Status:        models.StatusCompleted,
			Metadata:      models.TransactionMetadata{GameID: req.GameID, Device: req.Device},
			CreatedAt:     now,
		}
		finalBalance = afterWin
		settledTxID = winTx.ID
	}

	record := models.SpinRecord{
		ID:             uuid.New().String(),
		UserID:         req.UserID,
		GameID:         req.GameID,
		SessionID:      req.SessionID,
		Currency:       req.Currency,
		BetAmount:      req.BetAmount,
		WinAmount:      req.WinAmount,
		BalanceBefore:  balanceBefore,
		BalanceAfter:   finalBalance,
		Outcome:        req.Outcome,
		Multiplier:     req.Multiplier,
		BonusTriggered: req.BonusTriggered,
		IsJackpot:      req.IsJackpot,
		CreatedAt:      now,
	}

	// 6. Queue the durable writes while still inside the exclusive section
	// so queue order matches application order for this wallet.
	p.enqueue(betTx)
	if winTx != nil {
		p.enqueue(*winTx)
	}
	if err := p.batcher.AppendSpin(record); err != nil {
		p.logger.Error("failed to queue spin record", slog.String("spin_id", record.ID), slog.String("error", err.Error()))
	}
	p.batcher.MarkDirty(sess.Snapshot())

	result := Result{Balance: finalBalance, TransactionID: settledTxID, SpinID: record.ID}
	if req.SessionID != "" {
		p.recent.Add(req.SessionID, result)
	}

	// 7. Hand the spin to fraud evaluation off the critical path.
	p.submitForEvaluation(record)

	metrics.SettlementsTotal.WithLabelValues("settled").Inc()
	return &result, nil
}

// enqueue pushes a ledger entry, logging rather than failing the settlement
// when the queue is saturated: the balance is already applied and the
// player-visible result is authoritative.
func (p *Processor) enqueue(tx models.Transaction) {
	if err := p.batcher.Append(tx); err != nil {
		p.logger.Error("failed to queue ledger entry",
			slog.String("transaction_id", tx.ID),
			slog.String("wallet_id", tx.WalletID),
			slog.String("error", err.Error()))
	}
}

// recordFailedBet writes a failed bet entry for audit. The wallet is
// untouched, so the amount is zero, before and after are equal, and the
// entry never counts toward reconciliation. The attempted stake survives in
// the metadata reason.
func (p *Processor) recordFailedBet(sess *wallet.Session, req SettleRequest, balance decimal.Decimal, now time.Time) {
	p.enqueue(models.Transaction{
		ID:            uuid.New().String(),
		WalletID:      req.UserID,
		Sequence:      sess.NextSequence(),
		Kind:          models.KindBet,
		Currency:      req.Currency,
		Amount:        decimal.Zero,
		BalanceBefore: balance,
		BalanceAfter:  balance,
		Reference:     req.SessionID,
		Status:        models.StatusFailed,
		Metadata: models.TransactionMetadata{
			GameID: req.GameID,
			Device: req.Device,
			Reason: fmt.Sprintf("insufficient funds for stake %s", req.BetAmount),
		},
		CreatedAt: now,
	})
}

func (p *Processor) submitForEvaluation(record models.SpinRecord) {
	job := &evaluateJob{
		detector: p.detector,
		raiser:   p.raiser,
		record:   record,
		logger:   p.logger,
	}
	if !p.pool.TryEnqueue(job) {
		p.logger.Warn("fraud evaluation dropped, worker queue full",
			slog.String("user_id", record.UserID),
			slog.String("spin_id", record.ID))
	}
}

// evaluateJob runs fraud evaluation and alert raising on the worker pool.
type evaluateJob struct {
	detector Evaluator
	raiser   AlertRaiser
	record   models.SpinRecord
	logger   *slog.Logger
}

// Process evaluates the spin and raises an alert per finding. A failed
// raise for one finding does not stop the others.
func (j *evaluateJob) Process(ctx context.Context) error {
	findings := j.detector.Evaluate(j.record.UserID, j.record)
	for _, finding := range findings {
		if _, err := j.raiser.Raise(ctx, finding); err != nil {
			j.logger.Error("failed to raise alert for finding",
				slog.String("user_id", finding.UserID),
				slog.String("rule", finding.Rule),
				slog.String("error", err.Error()))
		}
	}
	return nil
}
