package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/spinworks/wallet-core/pkg/alerts"
	"github.com/spinworks/wallet-core/pkg/config"
	"github.com/spinworks/wallet-core/pkg/directory"
	"github.com/spinworks/wallet-core/pkg/fraud"
	"github.com/spinworks/wallet-core/pkg/handlers"
	"github.com/spinworks/wallet-core/pkg/ledger"
	"github.com/spinworks/wallet-core/pkg/notify"
	"github.com/spinworks/wallet-core/pkg/spin"
	dydbstore "github.com/spinworks/wallet-core/pkg/storage/dynamodb"
	"github.com/spinworks/wallet-core/pkg/wallet"
	"github.com/spinworks/wallet-core/pkg/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// AWS Session
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	dbClient := dynamodb.NewFromConfig(awsCfg)
	store := dydbstore.New(dbClient, cfg.WalletsTable, cfg.TransactionsTable, cfg.SpinLogsTable, cfg.AlertsTable)

	// SQS client and the notification sink built on it.
	if cfg.SQSQueueURL == "" {
		log.Fatal("SQS_QUEUE_URL environment variable not set")
	}
	sqsClient := sqs.NewFromConfig(awsCfg)
	sink := notify.NewSQSSink(sqsClient, cfg.SQSQueueURL)

	// Admin roster, display names cached.
	dir := directory.NewCached(&directory.Static{AdminIDs: cfg.AdminUserIDs}, 1024, 10*time.Minute)

	// Core pipeline: balances, batcher, fraud workers, alert dispatch.
	balances := wallet.New(store, wallet.Config{
		LockTimeout:      cfg.LockTimeout,
		StartingBalances: cfg.StartingBalances,
	}, logger)

	batcher := ledger.New(store, ledger.Config{
		FlushInterval: cfg.FlushInterval,
		BatchSize:     cfg.BatchSize,
		QueueCapacity: cfg.QueueCapacity,
	}, logger)
	batcher.Start()

	pool := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize, logger)
	pool.Start()

	detector := fraud.NewDetector(cfg.Fraud)
	dispatcher := alerts.New(store, sink, dir, alerts.Config{
		NotifyRetries: cfg.NotifyRetries,
		NotifyBackoff: cfg.NotifyBackoff,
	}, logger)

	processor := spin.New(balances, batcher, store, detector, dispatcher, pool, spin.Config{
		RecordFailedBets:     cfg.RecordFailedBets,
		IdempotencyCacheSize: cfg.IdempotencyCacheSize,
	}, logger)

	router := handlers.NewRouter(processor, dispatcher, store, logger)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("starting server", slog.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Shut down in dependency order: stop accepting requests, drain the
	// fraud workers, then flush the ledger queue.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.String("error", err.Error()))
	}
	pool.Stop()
	if err := batcher.Stop(shutdownCtx); err != nil {
		logger.Error("final ledger flush failed", slog.String("error", err.Error()))
	}
}
