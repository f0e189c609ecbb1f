package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/spinworks/wallet-core/pkg/storage"
	"github.com/spinworks/wallet-core/pkg/storage/dynamodb/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testWallet(userID string) *models.Wallet {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &models.Wallet{
		UserID: userID,
		Balances: map[models.Currency]*models.Balance{
			models.GoldCoins:   {Amount: decimal.NewFromInt(1000), DailySpent: decimal.Zero, DailyWon: decimal.Zero},
			models.SweepsCoins: {Amount: decimal.Zero, DailySpent: decimal.Zero, DailyWon: decimal.Zero},
		},
		DailyResetAt: now,
		Version:      1,
		Sequence:     0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreateWallet(t *testing.T) {
	wallet := testWallet("test-user")

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(&dynamodb.PutItemOutput{}, nil)

		store := New(mockClient, "wallets", "transactions", "spin_logs", "alerts")
		err := store.CreateWallet(context.Background(), wallet)

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Conflict", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{})

		store := New(mockClient, "wallets", "transactions", "spin_logs", "alerts")
		err := store.CreateWallet(context.Background(), wallet)

		assert.ErrorIs(t, err, storage.ErrWalletExists)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("PutItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, "wallets", "transactions", "spin_logs", "alerts")
		err := store.CreateWallet(context.Background(), wallet)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create wallet in DynamoDB")
		mockClient.AssertExpectations(t)
	})
}

func TestLoadWallet(t *testing.T) {
	wallet := testWallet("test-user")

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		record := toWalletRecord(wallet.UserID, wallet.Balances, wallet.DailyResetAt, wallet.Version, wallet.Sequence, wallet.CreatedAt, wallet.UpdatedAt)
		walletAV, err := attributevalue.MarshalMap(record)
		require.NoError(t, err)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: walletAV}, nil)

		store := New(mockClient, "wallets", "transactions", "spin_logs", "alerts")
		loaded, err := store.LoadWallet(context.Background(), "test-user")

		require.NoError(t, err)
		assert.Equal(t, "test-user", loaded.UserID)
		assert.True(t, loaded.Balance(models.GoldCoins).Amount.Equal(decimal.NewFromInt(1000)))
		assert.True(t, loaded.Balance(models.SweepsCoins).Amount.IsZero())
		assert.Equal(t, int64(1), loaded.Version)
		mockClient.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{Item: nil}, nil)

		store := New(mockClient, "wallets", "transactions", "spin_logs", "alerts")
		_, err := store.LoadWallet(context.Background(), "test-user")

		assert.ErrorIs(t, err, storage.ErrWalletNotFound)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, "wallets", "transactions", "spin_logs", "alerts")
		_, err := store.LoadWallet(context.Background(), "test-user")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get wallet from DynamoDB")
		mockClient.AssertExpectations(t)
	})
}

func TestPersistWalletBatch(t *testing.T) {
	delta := func(userID string, version int64) models.WalletDelta {
		w := testWallet(userID)
		return models.WalletDelta{
			UserID:       w.UserID,
			Balances:     w.Balances,
			DailyResetAt: w.DailyResetAt,
			Version:      version,
			Sequence:     2,
			UpdatedAt:    w.UpdatedAt,
		}
	}

	t.Run("Success", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(&dynamodb.UpdateItemOutput{}, nil).Twice()

		store := New(mockClient, "wallets", "transactions", "spin_logs", "alerts")
		err := store.PersistWalletBatch(context.Background(), []models.WalletDelta{
			delta("user-1", 2),
			delta("user-2", 3),
		})

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Stale Image Skipped", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		// The first image is already superseded by a newer durable copy;
		// the second one must still be written.
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, &types.ConditionalCheckFailedException{}).Once()
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(&dynamodb.UpdateItemOutput{}, nil).Once()

		store := New(mockClient, "wallets", "transactions", "spin_logs", "alerts")
		err := store.PersistWalletBatch(context.Background(), []models.WalletDelta{
			delta("user-1", 1),
			delta("user-2", 5),
		})

		assert.NoError(t, err)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, "wallets", "transactions", "spin_logs", "alerts")
		err := store.PersistWalletBatch(context.Background(), []models.WalletDelta{delta("user-1", 2)})

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to persist wallet image for user user-1")
		mockClient.AssertExpectations(t)
	})
}

func TestListWallets(t *testing.T) {
	t.Run("Success With Pagination", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		page := func(userID string) []map[string]types.AttributeValue {
			w := testWallet(userID)
			record := toWalletRecord(w.UserID, w.Balances, w.DailyResetAt, w.Version, w.Sequence, w.CreatedAt, w.UpdatedAt)
			av, err := attributevalue.MarshalMap(record)
			require.NoError(t, err)
			return []map[string]types.AttributeValue{av}
		}
		lastKey := map[string]types.AttributeValue{"user_id": &types.AttributeValueMemberS{Value: "user-1"}}
		mockClient.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{Items: page("user-1"), LastEvaluatedKey: lastKey}, nil).Once()
		mockClient.On("Scan", mock.Anything, mock.Anything).Return(&dynamodb.ScanOutput{Items: page("user-2")}, nil).Once()

		store := New(mockClient, "wallets", "transactions", "spin_logs", "alerts")
		wallets, err := store.ListWallets(context.Background())

		require.NoError(t, err)
		require.Len(t, wallets, 2)
		assert.Equal(t, "user-1", wallets[0].UserID)
		assert.Equal(t, "user-2", wallets[1].UserID)
		mockClient.AssertExpectations(t)
	})

	t.Run("Storage Error", func(t *testing.T) {
		mockClient := new(mocks.DynamoDBAPI)
		mockClient.On("Scan", mock.Anything, mock.Anything).Return(nil, errors.New("some other storage error"))

		store := New(mockClient, "wallets", "transactions", "spin_logs", "alerts")
		_, err := store.ListWallets(context.Background())

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to scan wallets table")
		mockClient.AssertExpectations(t)
	})
}
