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
)

// AppendSpinRecords writes a batch of spin records to DynamoDB. Writes are
// conditional on the spin id not existing so a retried batch is a no-op.
func (s *Store) AppendSpinRecords(ctx context.Context, records []models.SpinRecord) error {
	for _, rec := range records {
		record := toSpinLogRecord(rec)
		spinAV, err := attributevalue.MarshalMap(record)
		if err != nil {
			return fmt.Errorf("failed to marshal spin record %s: %w", rec.ID, err)
		}

		input := &dynamodb.PutItemInput{
			TableName:           aws.String(s.SpinLogsTableName),
			Item:                spinAV,
			ConditionExpression: aws.String("attribute_not_exists(id)"),
		}

		_, err = s.Client.PutItem(ctx, input)
		if err != nil {
			var condCheckFailed *types.ConditionalCheckFailedException
			if errors.As(err, &condCheckFailed) {
				continue
			}
			return fmt.Errorf("failed to append spin record %s: %w", rec.ID, err)
		}
	}

	return nil
}
