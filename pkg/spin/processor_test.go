package spin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/fraud"
	"github.com/spinworks/wallet-core/pkg/ledger"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/spinworks/wallet-core/pkg/storage"
	"github.com/spinworks/wallet-core/pkg/storage/mocks"
	"github.com/spinworks/wallet-core/pkg/wallet"
	"github.com/spinworks/wallet-core/pkg/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memWriter collects everything the batcher flushes.
type memWriter struct {
	mu     sync.Mutex
	txs    []models.Transaction
	spins  []models.SpinRecord
	deltas []models.WalletDelta
}

func (m *memWriter) AppendTransactions(ctx context.Context, txs []models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txs = append(m.txs, txs...)
	return nil
}

func (m *memWriter) AppendSpinRecords(ctx context.Context, records []models.SpinRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spins = append(m.spins, records...)
	return nil
}

func (m *memWriter) PersistWalletBatch(ctx context.Context, deltas []models.WalletDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deltas = append(m.deltas, deltas...)
	return nil
}

// captureRaiser records findings instead of creating alerts.
type captureRaiser struct {
	mu       sync.Mutex
	findings []models.FraudFinding
}

func (r *captureRaiser) Raise(ctx context.Context, finding models.FraudFinding) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findings = append(r.findings, finding)
	return "alert-1", nil
}

func (r *captureRaiser) rules() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rules []string
	for _, f := range r.findings {
		rules = append(rules, f.Rule)
	}
	return rules
}

type fixture struct {
	processor *Processor
	writer    *memWriter
	raiser    *captureRaiser
	pool      *worker.Pool
}

// newFixture builds a processor around a wallet holding 1000 GC.
func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	mockStorage := new(mocks.Storage)
	w := models.NewWallet("user-1", time.Now())
	w.Balance(models.GoldCoins).Amount = decimal.NewFromInt(1000)
	mockStorage.On("LoadWallet", mock.Anything, "user-1").Return(w, nil).Maybe()

	writer := &memWriter{}
	raiser := &captureRaiser{}

	balances := wallet.New(mockStorage, wallet.Config{
		LockTimeout: time.Second,
		StartingBalances: map[models.Currency]decimal.Decimal{
			models.GoldCoins: decimal.NewFromInt(1000),
		},
	}, logger)
	batcher := ledger.New(writer, ledger.Config{FlushInterval: time.Hour}, logger)
	pool := worker.NewPool(1, 32, logger)
	pool.Start()
	t.Cleanup(pool.Stop)

	processor := New(balances, batcher, mockStorage, fraud.NewDetector(fraud.DefaultConfig()), raiser, pool, cfg, logger)
	return &fixture{processor: processor, writer: writer, raiser: raiser, pool: pool}
}

func (f *fixture) flushedTxs(t *testing.T) []models.Transaction {
	t.Helper()
	require.NoError(t, f.processor.batcher.ForceFlush(context.Background()))
	f.writer.mu.Lock()
	defer f.writer.mu.Unlock()
	return append([]models.Transaction(nil), f.writer.txs...)
}

func TestSettle(t *testing.T) {
	ctx := context.Background()

	t.Run("losing spin debits the bet", func(t *testing.T) {
		f := newFixture(t, Config{})

		result, err := f.processor.Settle(ctx, SettleRequest{
			UserID:    "user-1",
			GameID:    "game-1",
			SessionID: "spin-session-1",
			Currency:  models.GoldCoins,
			BetAmount: decimal.NewFromInt(200),
		})
		require.NoError(t, err)
		assert.True(t, result.Balance.Equal(decimal.NewFromInt(800)))

		txs := f.flushedTxs(t)
		require.Len(t, txs, 1)
		assert.Equal(t, models.KindBet, txs[0].Kind)
		assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(-200)))
		assert.NoError(t, txs[0].CheckInvariant())
	})

	t.Run("winning spin records bet then win", func(t *testing.T) {
		f := newFixture(t, Config{})

		first, err := f.processor.Settle(ctx, SettleRequest{
			UserID: "user-1", SessionID: "s-1",
			Currency: models.GoldCoins, BetAmount: decimal.NewFromInt(200),
		})
		require.NoError(t, err)
		require.True(t, first.Balance.Equal(decimal.NewFromInt(800)))

		second, err := f.processor.Settle(ctx, SettleRequest{
			UserID: "user-1", SessionID: "s-2",
			Currency:  models.GoldCoins,
			BetAmount: decimal.NewFromInt(100),
			WinAmount: decimal.NewFromInt(5000),
		})
		require.NoError(t, err)
		assert.True(t, second.Balance.Equal(decimal.NewFromInt(5700)))

		txs := f.flushedTxs(t)
		require.Len(t, txs, 3)

		bet, win := txs[1], txs[2]
		assert.Equal(t, models.KindBet, bet.Kind)
		assert.Equal(t, models.KindWin, win.Kind)
		assert.Less(t, bet.Sequence, win.Sequence, "bet precedes win for the same spin")
		assert.True(t, bet.BalanceBefore.Equal(decimal.NewFromInt(800)))
		assert.True(t, bet.BalanceAfter.Equal(decimal.NewFromInt(700)))
		assert.True(t, win.BalanceBefore.Equal(decimal.NewFromInt(700)), "win chains from the post-debit balance")
		assert.True(t, win.BalanceAfter.Equal(decimal.NewFromInt(5700)))
		assert.Equal(t, win.ID, second.TransactionID)
		for _, tx := range txs {
			assert.NoError(t, tx.CheckInvariant())
		}
	})

	t.Run("insufficient funds settles nothing", func(t *testing.T) {
		f := newFixture(t, Config{})

		_, err := f.processor.Settle(ctx, SettleRequest{
			UserID: "user-1", Currency: models.GoldCoins,
			BetAmount: decimal.NewFromInt(1001),
			WinAmount: decimal.NewFromInt(50),
		})
		assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

		assert.Empty(t, f.flushedTxs(t), "a refused bet may not forfeit its win or write entries")

		balance, err := f.processor.GetBalance(ctx, "user-1", models.GoldCoins)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(1000)))
	})

	t.Run("invalid input is rejected up front", func(t *testing.T) {
		f := newFixture(t, Config{})

		_, err := f.processor.Settle(ctx, SettleRequest{
			UserID: "user-1", Currency: models.GoldCoins,
			BetAmount: decimal.Zero, WinAmount: decimal.NewFromInt(10),
		})
		assert.ErrorIs(t, err, ErrInvalidBet)

		_, err = f.processor.Settle(ctx, SettleRequest{
			UserID: "user-1", Currency: "USD",
			BetAmount: decimal.NewFromInt(10),
		})
		assert.ErrorIs(t, err, ErrInvalidCurrency)

		_, err = f.processor.Settle(ctx, SettleRequest{
			UserID: "user-1", Currency: models.GoldCoins,
			BetAmount: decimal.NewFromInt(10),
			WinAmount: decimal.NewFromInt(-5),
		})
		assert.ErrorIs(t, err, ErrInvalidWin)

		balance, err := f.processor.GetBalance(ctx, "user-1", models.GoldCoins)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(1000)), "rejected requests leave the balance untouched")
	})

	t.Run("replayed session id returns the recorded result", func(t *testing.T) {
		f := newFixture(t, Config{})

		req := SettleRequest{
			UserID: "user-1", SessionID: "dup-1",
			Currency:  models.GoldCoins,
			BetAmount: decimal.NewFromInt(100),
			WinAmount: decimal.NewFromInt(300),
		}
		first, err := f.processor.Settle(ctx, req)
		require.NoError(t, err)

		second, err := f.processor.Settle(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, *first, *second)

		assert.Len(t, f.flushedTxs(t), 2, "the replay must not produce new ledger entries")
	})

	t.Run("concurrent retries settle once", func(t *testing.T) {
		f := newFixture(t, Config{})

		// Hold the wallet so every retry misses the cache and queues on the
		// exclusive section before any of them has settled.
		hold, err := f.processor.balances.Session(ctx, "user-1")
		require.NoError(t, err)

		req := SettleRequest{
			UserID: "user-1", SessionID: "dup-session",
			Currency:  models.GoldCoins,
			BetAmount: decimal.NewFromInt(100),
		}

		const retries = 4
		results := make([]*Result, retries)
		errs := make([]error, retries)
		var wg sync.WaitGroup
		for i := 0; i < retries; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = f.processor.Settle(ctx, req)
			}(i)
		}
		time.Sleep(50 * time.Millisecond)
		hold.Close()
		wg.Wait()

		for i := 0; i < retries; i++ {
			require.NoError(t, errs[i])
			assert.True(t, results[i].Balance.Equal(decimal.NewFromInt(900)))
			assert.Equal(t, results[0].TransactionID, results[i].TransactionID)
		}

		require.Len(t, f.flushedTxs(t), 1, "one retry settles, the rest replay its result")

		balance, err := f.processor.GetBalance(ctx, "user-1", models.GoldCoins)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(900)), "the bet is debited exactly once")
	})

	t.Run("concurrent settlements serialize against the balance", func(t *testing.T) {
		f := newFixture(t, Config{})

		// 1000 GC funds exactly three 300 GC bets.
		const n = 6
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = f.processor.Settle(ctx, SettleRequest{
					UserID:    "user-1",
					SessionID: fmt.Sprintf("race-%d", i),
					Currency:  models.GoldCoins,
					BetAmount: decimal.NewFromInt(300),
				})
			}(i)
		}
		wg.Wait()

		settled, refused := 0, 0
		for _, err := range errs {
			switch {
			case err == nil:
				settled++
			case errors.Is(err, wallet.ErrInsufficientFunds):
				refused++
			default:
				t.Fatalf("unexpected settlement error: %v", err)
			}
		}
		assert.Equal(t, 3, settled)
		assert.Equal(t, 3, refused)

		balance, err := f.processor.GetBalance(ctx, "user-1", models.GoldCoins)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(100)), "final balance matches applying the three affordable bets sequentially")

		require.Len(t, f.flushedTxs(t), 3, "refused settlements write no completed entries")
	})

	t.Run("failed bet audit entry balances", func(t *testing.T) {
		f := newFixture(t, Config{RecordFailedBets: true})

		_, err := f.processor.Settle(ctx, SettleRequest{
			UserID: "user-1", SessionID: "s-broke",
			Currency:  models.GoldCoins,
			BetAmount: decimal.NewFromInt(5000),
		})
		assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)

		txs := f.flushedTxs(t)
		require.Len(t, txs, 1)
		failed := txs[0]
		assert.Equal(t, models.StatusFailed, failed.Status)
		assert.True(t, failed.Amount.IsZero(), "the wallet was untouched, so the audit entry moves nothing")
		assert.True(t, failed.BalanceBefore.Equal(failed.BalanceAfter))
		assert.NoError(t, failed.CheckInvariant())
		assert.Contains(t, failed.Metadata.Reason, "5000")
	})

	t.Run("extreme win raises a critical finding", func(t *testing.T) {
		f := newFixture(t, Config{})

		_, err := f.processor.Settle(ctx, SettleRequest{
			UserID: "user-1", SessionID: "s-x",
			Currency:  models.GoldCoins,
			BetAmount: decimal.NewFromInt(1),
			WinAmount: decimal.NewFromInt(2000),
		})
		require.NoError(t, err)

		assert.Eventually(t, func() bool {
			for _, rule := range f.raiser.rules() {
				if rule == fraud.RuleExtremeRatio {
					return true
				}
			}
			return false
		}, 2*time.Second, 10*time.Millisecond, "win of 2000x the bet must fire the extreme ratio rule")

		f.raiser.mu.Lock()
		defer f.raiser.mu.Unlock()
		for _, finding := range f.raiser.findings {
			if finding.Rule == fraud.RuleExtremeRatio {
				assert.Equal(t, models.SeverityCritical, finding.Severity)
			}
		}
	})
}

func TestAdminAdjustBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Config{})

	result, err := f.processor.AdminAdjustBalance(ctx, "user-1", models.GoldCoins, decimal.NewFromInt(-250), "chargeback", "admin-9")
	require.NoError(t, err)
	assert.True(t, result.Balance.Equal(decimal.NewFromInt(750)))

	// ForceFlush inside the adjustment means the entry is already durable.
	f.writer.mu.Lock()
	defer f.writer.mu.Unlock()
	require.Len(t, f.writer.txs, 1)
	adj := f.writer.txs[0]
	assert.Equal(t, models.KindAdminAdjustment, adj.Kind)
	assert.Equal(t, "admin-9", adj.Metadata.AdminID)
	assert.Equal(t, "chargeback", adj.Metadata.Reason)
	require.Len(t, f.writer.deltas, 1)
}

func TestBootstrapSeedsThroughLedger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	mockStorage := new(mocks.Storage)
	mockStorage.On("LoadWallet", mock.Anything, "user-new").Return(nil, storage.ErrWalletNotFound).Once()
	mockStorage.On("CreateWallet", mock.Anything, mock.Anything).Return(nil).Once()

	writer := &memWriter{}
	balances := wallet.New(mockStorage, wallet.Config{
		StartingBalances: map[models.Currency]decimal.Decimal{
			models.GoldCoins: decimal.NewFromInt(1000),
		},
	}, logger)
	batcher := ledger.New(writer, ledger.Config{FlushInterval: time.Hour}, logger)
	pool := worker.NewPool(1, 8, logger)
	pool.Start()
	t.Cleanup(pool.Stop)

	p := New(balances, batcher, mockStorage, fraud.NewDetector(fraud.DefaultConfig()), &captureRaiser{}, pool, Config{}, logger)

	_, err := p.Bootstrap(ctx, "user-new")
	require.NoError(t, err)

	balance, err := p.GetBalance(ctx, "user-new", models.GoldCoins)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(1000)))

	writer.mu.Lock()
	defer writer.mu.Unlock()
	require.Len(t, writer.txs, 1, "each seeded currency gets one bonus entry")
	seed := writer.txs[0]
	assert.Equal(t, models.KindBonus, seed.Kind)
	assert.Equal(t, "signup_bonus", seed.Reference)
	assert.True(t, seed.BalanceBefore.IsZero())
	assert.True(t, seed.BalanceAfter.Equal(decimal.NewFromInt(1000)))
	assert.NoError(t, seed.CheckInvariant())
	mockStorage.AssertExpectations(t)
}
