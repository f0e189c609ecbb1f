package dynamodb

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spinworks/wallet-core/pkg/storage"
)

// DynamoDBAPI is the slice of the DynamoDB client the store depends on.
// Narrowing the dependency keeps the store mockable in tests.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Store implements the Storage interface using AWS DynamoDB.
type Store struct {
	Client                DynamoDBAPI
	WalletsTableName      string
	TransactionsTableName string
	SpinLogsTableName     string
	AlertsTableName       string
}

// New creates a new Store.
func New(client DynamoDBAPI, walletsTable, transactionsTable, spinLogsTable, alertsTable string) *Store {
	return &Store{
		Client:                client,
		WalletsTableName:      walletsTable,
		TransactionsTableName: transactionsTable,
		SpinLogsTableName:     spinLogsTable,
		AlertsTableName:       alertsTable,
	}
}

// Make sure we conform to the interface
var _ storage.Storage = (*Store)(nil)
