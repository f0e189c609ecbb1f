package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/spinworks/wallet-core/pkg/storage"
)

const (
	// alertUserGSI indexes alerts by related_user_id with created_at as the
	// sort key.
	alertUserGSI = "related_user_id-created_at-index"

	// alertStatusGSI indexes alerts by status with created_at as the sort
	// key.
	alertStatusGSI = "status-created_at-index"

	// evidenceWriteAttempts bounds the optimistic retry loop when two
	// evidence appends race on the same alert.
	evidenceWriteAttempts = 3
)

// CreateAlert writes a new alert record to DynamoDB.
func (s *Store) CreateAlert(ctx context.Context, alert *models.AdminAlert) error {
	record, err := toAlertRecord(alert)
	if err != nil {
		return err
	}
	alertAV, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(s.AlertsTableName),
		Item:                alertAV,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	}

	if _, err := s.Client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("failed to create alert in DynamoDB: %w", err)
	}

	return nil
}

// GetAlert retrieves an alert from DynamoDB by its ID.
func (s *Store) GetAlert(ctx context.Context, alertID string) (*models.AdminAlert, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"id": alertID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal alert ID: %w", err)
	}

	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.AlertsTableName),
		Key:       key,
	}

	result, err := s.Client.GetItem(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert from DynamoDB: %w", err)
	}

	if result.Item == nil {
		return nil, storage.ErrAlertNotFound
	}

	var record alertRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert: %w", err)
	}

	return record.toDomain()
}

// FindPendingAlert retrieves the most recent pending alert for a user and
// rule. Returns ErrAlertNotFound when the user has no open alert for the
// rule.
func (s *Store) FindPendingAlert(ctx context.Context, userID, rule string) (*models.AdminAlert, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.AlertsTableName),
		IndexName:              aws.String(alertUserGSI),
		KeyConditionExpression: aws.String("related_user_id = :user_id"),
		FilterExpression:       aws.String("#status = :status AND #rule = :rule"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
			"#rule":   "rule",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": &types.AttributeValueMemberS{Value: userID},
			":status":  &types.AttributeValueMemberS{Value: string(models.AlertPending)},
			":rule":    &types.AttributeValueMemberS{Value: rule},
		},
		ScanIndexForward: aws.Bool(false), // Newest first.
	}

	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query alerts for user %s: %w", userID, err)
		}

		if len(result.Items) > 0 {
			var record alertRecord
			if err := attributevalue.UnmarshalMap(result.Items[0], &record); err != nil {
				return nil, fmt.Errorf("failed to unmarshal alert: %w", err)
			}
			return record.toDomain()
		}

		if result.LastEvaluatedKey == nil {
			return nil, storage.ErrAlertNotFound
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// AppendAlertEvidence attaches another finding to an existing alert. The
// write is conditional on updated_at being unchanged since the read, with
// a short retry loop for concurrent appends.
func (s *Store) AppendAlertEvidence(ctx context.Context, alertID string, evidence models.AlertEvidence) error {
	for attempt := 0; attempt < evidenceWriteAttempts; attempt++ {
		// 1. Load the current alert and its evidence list.
		alert, err := s.GetAlert(ctx, alertID)
		if err != nil {
			return err
		}

		// 2. Append the new entry and re-serialize.
		updated := append(alert.Evidence, evidence)
		evidenceJSON, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("failed to marshal alert evidence: %w", err)
		}
		now := time.Now().UTC()

		// 3. Write back, conditional on no concurrent update.
		input := &dynamodb.UpdateItemInput{
			TableName: aws.String(s.AlertsTableName),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: alertID},
			},
			UpdateExpression:    aws.String("SET evidence = :evidence, updated_at = :updated"),
			ConditionExpression: aws.String("updated_at = :expected"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":evidence": &types.AttributeValueMemberS{Value: string(evidenceJSON)},
				":updated":  &types.AttributeValueMemberS{Value: now.Format(time.RFC3339Nano)},
				":expected": &types.AttributeValueMemberS{Value: alert.UpdatedAt.Format(time.RFC3339Nano)},
			},
		}

		_, err = s.Client.UpdateItem(ctx, input)
		if err != nil {
			var condCheckFailed *types.ConditionalCheckFailedException
			if errors.As(err, &condCheckFailed) {
				continue
			}
			return fmt.Errorf("failed to append evidence to alert %s: %w", alertID, err)
		}

		return nil
	}

	return storage.ErrAlertConflict
}

// UpdateAlertStatus moves an alert from one status to another. The write is
// conditional on the current status so two staff members acting on the same
// alert cannot both win.
func (s *Store) UpdateAlertStatus(ctx context.Context, alertID string, from, to models.AlertStatus) error {
	input := &dynamodb.UpdateItemInput{
		TableName: aws.String(s.AlertsTableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: alertID},
		},
		UpdateExpression:    aws.String("SET #status = :to, updated_at = :updated"),
		ConditionExpression: aws.String("attribute_exists(id) AND #status = :from"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":to":      &types.AttributeValueMemberS{Value: string(to)},
			":from":    &types.AttributeValueMemberS{Value: string(from)},
			":updated": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)},
		},
	}

	_, err := s.Client.UpdateItem(ctx, input)
	if err != nil {
		var condCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckFailed) {
			return storage.ErrAlertConflict
		}
		return fmt.Errorf("failed to update status of alert %s: %w", alertID, err)
	}

	return nil
}

// ListAlerts retrieves alerts in a given status, newest first.
func (s *Store) ListAlerts(ctx context.Context, status models.AlertStatus, limit, offset int32) ([]models.AdminAlert, error) {
	if limit <= 0 {
		return nil, nil
	}

	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.AlertsTableName),
		IndexName:              aws.String(alertStatusGSI),
		KeyConditionExpression: aws.String("#status = :status"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status": &types.AttributeValueMemberS{Value: string(status)},
		},
		ScanIndexForward: aws.Bool(false), // Newest first.
	}

	var (
		alerts  []models.AdminAlert
		skipped int32
	)
	for {
		result, err := s.Client.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to query alerts by status: %w", err)
		}

		var records []alertRecord
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal alerts: %w", err)
		}

		for _, record := range records {
			if skipped < offset {
				skipped++
				continue
			}
			alert, err := record.toDomain()
			if err != nil {
				return nil, err
			}
			alerts = append(alerts, *alert)
			if int32(len(alerts)) >= limit {
				return alerts, nil
			}
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	return alerts, nil
}
