package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/spinworks/wallet-core/pkg/storage"
)

// CreateWallet creates a new wallet record in DynamoDB.
func (s *Store) CreateWallet(ctx context.Context, wallet *models.Wallet) error {
	record := toWalletRecord(wallet.UserID, wallet.Balances, wallet.DailyResetAt, wallet.Version, wallet.Sequence, wallet.CreatedAt, wallet.UpdatedAt)
	walletAV, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.WalletsTableName),
		Item:                walletAV,
		ConditionExpression: aws.String("attribute_not_exists(user_id)"), // Prevent overwriting existing wallets.
	}

	_, err = s.Client.PutItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrWalletExists
		}
		return fmt.Errorf("failed to create wallet in DynamoDB: %w", err)
	}

	return nil
}

// LoadWallet retrieves a user's wallet from DynamoDB by their user ID.
func (s *Store) LoadWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal wallet user ID: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.WalletsTableName),
		Key:       key,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, storage.ErrWalletNotFound
	}

	var record walletRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}

	return record.toDomain()
}

// PersistWalletBatch writes a batch of wallet images. Each write is
// conditional on the image being at least as new as the durable copy, so
// re-applying a batch after a partial failure is safe: already-applied
// images are skipped, never regressed.
func (s *Store) PersistWalletBatch(ctx context.Context, deltas []models.WalletDelta) error {
	for _, delta := range deltas {
		record := toWalletRecord(delta.UserID, delta.Balances, delta.DailyResetAt, delta.Version, delta.Sequence, delta.UpdatedAt, delta.UpdatedAt)
		walletAV, err := attributevalue.MarshalMap(record)
		if err != nil {
			return fmt.Errorf("failed to marshal wallet image for user %s: %w", delta.UserID, err)
		}
		// Preserve the original created_at on updates.
		delete(walletAV, "created_at")

		input := &dynamodb.UpdateItemInput{
			TableName: aws.String(s.WalletsTableName),
			Key: map[string]types.AttributeValue{
				"user_id": &types.AttributeValueMemberS{Value: delta.UserID},
			},
			UpdateExpression: aws.String("SET gold_coins = :gc, sweeps_coins = :sc, " +
				"daily_spent_gc = :dsgc, daily_won_gc = :dwgc, daily_spent_sc = :dssc, daily_won_sc = :dwsc, " +
				"daily_reset_at = :reset, version = :version, seq = :sequence, updated_at = :updated"),
			ConditionExpression: aws.String("attribute_not_exists(user_id) OR version <= :version"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":gc":       walletAV["gold_coins"],
				":sc":       walletAV["sweeps_coins"],
				":dsgc":     walletAV["daily_spent_gc"],
				":dwgc":     walletAV["daily_won_gc"],
				":dssc":     walletAV["daily_spent_sc"],
				":dwsc":     walletAV["daily_won_sc"],
				":reset":    walletAV["daily_reset_at"],
				":version":  walletAV["version"],
				":sequence": walletAV["seq"],
				":updated":  walletAV["updated_at"],
			},
		}

		_, err = s.Client.UpdateItem(ctx, input)
		if err != nil {
			var condCheckFailed *types.ConditionalCheckFailedException
			if errors.As(err, &condCheckFailed) {
				// The durable copy is already newer; skip this image.
				continue
			}
			return fmt.Errorf("failed to persist wallet image for user %s: %w", delta.UserID, err)
		}
	}

	return nil
}

// ListWallets retrieves all wallets from DynamoDB.
func (s *Store) ListWallets(ctx context.Context) ([]models.Wallet, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.WalletsTableName),
	}

	var wallets []models.Wallet
	for {
		result, err := s.Client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wallets table: %w", err)
		}

		var records []walletRecord
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal wallets: %w", err)
		}
		for _, record := range records {
			w, err := record.toDomain()
			if err != nil {
				return nil, err
			}
			wallets = append(wallets, *w)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return wallets, nil
}
