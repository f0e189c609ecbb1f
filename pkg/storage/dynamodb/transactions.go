package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/models"
)

// walletTransactionsGSI indexes transactions by wallet_id with created_at
// as the sort key.
const walletTransactionsGSI = "wallet_id-created_at-index"

// AppendTransactions writes a batch of ledger entries to DynamoDB. Each
// write is conditional on the transaction id not existing, so re-applying
// a batch after a partial failure never duplicates entries.
func (s *Store) AppendTransactions(ctx context.Context, txs []models.Transaction) error {
	for _, tx := range txs {
		record := toTransactionRecord(tx)
		txAV, err := attributevalue.MarshalMap(record)
		if err != nil {
			return fmt.Errorf("failed to marshal transaction %s: %w", tx.ID, err)
		}

		input := &dynamodb.PutItemInput{
			TableName:           aws.String(s.TransactionsTableName),
			Item:                txAV,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		}

		_, err = s.Client.PutItem(ctx, input)
		if err != nil {
			var condCheckFailed *types.ConditionalCheckFailedException
			if errors.As(err, &condCheckFailed) {
				// Already written by an earlier attempt; skip it.
				continue
			}
			return fmt.Errorf("failed to append transaction %s: %w", tx.ID, err)
		}
	}

	return nil
}

// ListTransactionsByWallet retrieves a wallet's transactions, newest first.
func (s *Store) ListTransactionsByWallet(ctx context.Context, walletID string, limit, offset int32) ([]models.Transaction, error) {
	if limit <= 0 {
		return nil, nil
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.TransactionsTableName),
		IndexName:              aws.String(walletTransactionsGSI),
		KeyConditionExpression: aws.String("wallet_id = :wallet_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":wallet_id": &types.AttributeValueMemberS{Value: walletID},
		},
		ScanIndexForward: aws.Bool(false), // Newest first.
	}

	var (
		txs     []models.Transaction
		skipped int32
	)
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query transactions for wallet %s: %w", walletID, err)
		}

		var records []transactionRecord
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
		}

		for _, record := range records {
			if skipped < offset {
				skipped++
				continue
			}
			tx, err := record.toDomain()
			if err != nil {
				return nil, err
			}
			txs = append(txs, tx)
			if int32(len(txs)) >= limit {
				return txs, nil
			}
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return txs, nil
}

// SumTransactionAmounts totals the signed amounts of all completed
// transactions for a wallet and currency.
func (s *Store) SumTransactionAmounts(ctx context.Context, walletID string, currency models.Currency) (decimal.Decimal, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.TransactionsTableName),
		IndexName:              aws.String(walletTransactionsGSI),
		KeyConditionExpression: aws.String("wallet_id = :wallet_id"),
		FilterExpression:       aws.String("#status = :status AND currency = :currency"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":wallet_id": &types.AttributeValueMemberS{Value: walletID},
			":status":    &types.AttributeValueMemberS{Value: string(models.StatusCompleted)},
			":currency":  &types.AttributeValueMemberS{Value: string(currency)},
		},
	}

	total := decimal.Zero
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to query transactions for wallet %s: %w", walletID, err)
		}

		var records []transactionRecord
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &records); err != nil {
			return decimal.Zero, fmt.Errorf("failed to unmarshal transactions: %w", err)
		}

		for _, record := range records {
			amount, err := parseDecimal(record.Amount)
			if err != nil {
				return decimal.Zero, fmt.Errorf("failed to parse amount for transaction %s: %w", record.ID, err)
			}
			total = total.Add(amount)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return total, nil
}
