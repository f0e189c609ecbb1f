package wallet

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/spinworks/wallet-core/pkg/storage"
	"github.com/spinworks/wallet-core/pkg/storage/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func seededStore(t *testing.T, userID string, gc int64) (*Store, *mocks.Storage) {
	t.Helper()
	mockStorage := new(mocks.Storage)
	w := models.NewWallet(userID, time.Now())
	w.Balance(models.GoldCoins).Amount = decimal.NewFromInt(gc)
	mockStorage.On("LoadWallet", mock.Anything, userID).Return(w, nil).Once()

	s := New(mockStorage, Config{LockTimeout: time.Second}, discardLogger())
	return s, mockStorage
}

func TestSessionDebitCredit(t *testing.T) {
	ctx := context.Background()

	t.Run("debit then credit under one session", func(t *testing.T) {
		s, mockStorage := seededStore(t, "user-1", 1000)

		sess, err := s.Session(ctx, "user-1")
		require.NoError(t, err)
		defer sess.Close()

		after, err := sess.TryDebit(models.GoldCoins, decimal.NewFromInt(200))
		require.NoError(t, err)
		assert.True(t, after.Equal(decimal.NewFromInt(800)))

		after, err = sess.Credit(models.GoldCoins, decimal.NewFromInt(5000))
		require.NoError(t, err)
		assert.True(t, after.Equal(decimal.NewFromInt(5800)))

		assert.True(t, sess.wallet.Balance(models.GoldCoins).DailySpent.Equal(decimal.NewFromInt(200)))
		assert.True(t, sess.wallet.Balance(models.GoldCoins).DailyWon.Equal(decimal.NewFromInt(5000)))
		mockStorage.AssertExpectations(t)
	})

	t.Run("insufficient funds leaves the wallet untouched", func(t *testing.T) {
		s, _ := seededStore(t, "user-1", 100)

		sess, err := s.Session(ctx, "user-1")
		require.NoError(t, err)
		defer sess.Close()

		balance, err := sess.TryDebit(models.GoldCoins, decimal.NewFromInt(101))
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.True(t, balance.Equal(decimal.NewFromInt(100)))
		assert.True(t, sess.wallet.Balance(models.GoldCoins).DailySpent.IsZero())
	})

	t.Run("non-positive amounts are rejected", func(t *testing.T) {
		s, _ := seededStore(t, "user-1", 100)

		sess, err := s.Session(ctx, "user-1")
		require.NoError(t, err)
		defer sess.Close()

		_, err = sess.TryDebit(models.GoldCoins, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = sess.Credit(models.GoldCoins, decimal.NewFromInt(-5))
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("currencies are independent", func(t *testing.T) {
		s, _ := seededStore(t, "user-1", 1000)

		sess, err := s.Session(ctx, "user-1")
		require.NoError(t, err)
		defer sess.Close()

		_, err = sess.TryDebit(models.SweepsCoins, decimal.NewFromInt(1))
		assert.ErrorIs(t, err, ErrInsufficientFunds,
			"a GC balance must not cover an SC debit")
	})
}

func TestSessionAdjust(t *testing.T) {
	ctx := context.Background()
	s, _ := seededStore(t, "user-1", 100)

	sess, err := s.Session(ctx, "user-1")
	require.NoError(t, err)
	defer sess.Close()

	t.Run("negative adjustment floors at zero", func(t *testing.T) {
		_, err := sess.Adjust(models.GoldCoins, decimal.NewFromInt(-200))
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("adjustment skips daily counters", func(t *testing.T) {
		after, err := sess.Adjust(models.GoldCoins, decimal.NewFromInt(50))
		require.NoError(t, err)
		assert.True(t, after.Equal(decimal.NewFromInt(150)))
		assert.True(t, sess.wallet.Balance(models.GoldCoins).DailySpent.IsZero())
		assert.True(t, sess.wallet.Balance(models.GoldCoins).DailyWon.IsZero())
	})
}

func TestSessionLockTimeout(t *testing.T) {
	ctx := context.Background()
	mockStorage := new(mocks.Storage)
	w := models.NewWallet("user-1", time.Now())
	mockStorage.On("LoadWallet", mock.Anything, "user-1").Return(w, nil).Once()

	s := New(mockStorage, Config{LockTimeout: 50 * time.Millisecond}, discardLogger())

	held, err := s.Session(ctx, "user-1")
	require.NoError(t, err)

	_, err = s.Session(ctx, "user-1")
	assert.ErrorIs(t, err, ErrWalletBusy)

	held.Close()

	sess, err := s.Session(ctx, "user-1")
	require.NoError(t, err)
	sess.Close()
}

func TestSessionUnknownWallet(t *testing.T) {
	mockStorage := new(mocks.Storage)
	mockStorage.On("LoadWallet", mock.Anything, "ghost").Return(nil, storage.ErrWalletNotFound)

	s := New(mockStorage, Config{}, discardLogger())
	_, err := s.Session(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrWalletNotFound)
}

func TestBootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("creates and writes through", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("LoadWallet", mock.Anything, "user-n").Return(nil, storage.ErrWalletNotFound).Once()
		mockStorage.On("CreateWallet", mock.Anything, mock.Anything).Return(nil).Once()

		s := New(mockStorage, Config{}, discardLogger())
		w, err := s.Bootstrap(ctx, "user-n")
		require.NoError(t, err)
		assert.Equal(t, "user-n", w.UserID)
		assert.True(t, w.Balance(models.GoldCoins).Amount.IsZero(),
			"seeding happens through the ledger, not at creation")
		mockStorage.AssertExpectations(t)
	})

	t.Run("second bootstrap conflicts", func(t *testing.T) {
		mockStorage := new(mocks.Storage)
		mockStorage.On("LoadWallet", mock.Anything, "user-n").Return(nil, storage.ErrWalletNotFound).Once()
		mockStorage.On("CreateWallet", mock.Anything, mock.Anything).Return(nil).Once()

		s := New(mockStorage, Config{}, discardLogger())
		_, err := s.Bootstrap(ctx, "user-n")
		require.NoError(t, err)

		_, err = s.Bootstrap(ctx, "user-n")
		assert.ErrorIs(t, err, ErrWalletExists)
	})
}

func TestConcurrentDebitsSerialize(t *testing.T) {
	ctx := context.Background()
	const workers = 50

	s, _ := seededStore(t, "user-1", workers)

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess, err := s.Session(ctx, "user-1")
			if err != nil {
				errs <- err
				return
			}
			defer sess.Close()
			if _, err := sess.TryDebit(models.GoldCoins, decimal.NewFromInt(1)); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.False(t, errors.Is(err, ErrInsufficientFunds),
			"every debit had funds available, none may be lost or doubled")
		require.NoError(t, err)
	}

	balance, err := s.GetBalance(ctx, "user-1", models.GoldCoins)
	require.NoError(t, err)
	assert.True(t, balance.IsZero(), "expected exactly %d applied debits, remainder %s", workers, balance)
}
