package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/spinworks/wallet-core/pkg/alerts"
	"github.com/spinworks/wallet-core/pkg/config"
	"github.com/spinworks/wallet-core/pkg/directory"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/spinworks/wallet-core/pkg/notify"
	"github.com/spinworks/wallet-core/pkg/storage"
	dydbstore "github.com/spinworks/wallet-core/pkg/storage/dynamodb"
)

var (
	store      storage.Storage
	dispatcher *alerts.Dispatcher
)

func init() {
	// Load environment variables for local testing.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(awsCfg)
	store = dydbstore.New(dbClient, cfg.WalletsTable, cfg.TransactionsTable, cfg.SpinLogsTable, cfg.AlertsTable)

	sqsClient := sqs.NewFromConfig(awsCfg)
	sink := notify.NewSQSSink(sqsClient, cfg.SQSQueueURL)
	dir := &directory.Static{AdminIDs: cfg.AdminUserIDs}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	dispatcher = alerts.New(store, sink, dir, alerts.Config{
		NotifyRetries: cfg.NotifyRetries,
		NotifyBackoff: cfg.NotifyBackoff,
	}, logger)
}

// HandleRequest is triggered by an EventBridge Schedule. It audits every
// wallet against the sum of its completed ledger entries and raises a
// critical alert for any drift.
func HandleRequest(ctx context.Context) error {
	log.Println("Starting ledger reconciliation audit...")

	wallets, err := store.ListWallets(ctx)
	if err != nil {
		log.Printf("ERROR: failed to list wallets: %v", err)
		return err
	}

	drifted := 0
	cutoff := time.Now().UTC().Add(-time.Minute)
	for _, w := range wallets {
		// A wallet written moments ago may still have ledger entries in the
		// batch window; skip it until the next run.
		if w.UpdatedAt.After(cutoff) {
			continue
		}
		for _, currency := range models.Currencies {
			ledgerTotal, err := store.SumTransactionAmounts(ctx, w.UserID, currency)
			if err != nil {
				log.Printf("ERROR: failed to sum transactions for wallet %s (%s): %v", w.UserID, currency, err)
				// Continue to the next wallet, don't let one failure stop the whole audit.
				continue
			}

			balance := w.Balance(currency).Amount
			if balance.Equal(ledgerTotal) {
				continue
			}

			drifted++
			log.Printf("DRIFT: wallet %s %s balance %s does not match ledger total %s",
				w.UserID, currency, balance.String(), ledgerTotal.String())

			finding := models.FraudFinding{
				UserID:   w.UserID,
				Rule:     "ledger_drift",
				Severity: models.SeverityCritical,
				Detail: fmt.Sprintf("wallet %s %s balance %s does not match ledger total %s",
					w.UserID, currency, balance.String(), ledgerTotal.String()),
				CreatedAt: time.Now().UTC(),
			}
			if _, err := dispatcher.Raise(ctx, finding); err != nil {
				log.Printf("ERROR: failed to raise drift alert for wallet %s: %v", w.UserID, err)
			}
		}
	}

	log.Printf("Reconciliation audit finished: %d wallets checked, %d drifts found.", len(wallets), drifted)
	return nil
}

func main() {
	lambda.Start(HandleRequest)
}
