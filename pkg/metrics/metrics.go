// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Settlement metrics
var (
	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_settlements_total",
			Help: "Settlement attempts by result (settled, insufficient_funds, invalid_bet, busy, replayed).",
		},
		[]string{"result"},
	)

	SettlementDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wallet_settlement_duration_seconds",
			Help:    "Time spent inside Settle, including the wallet exclusive section.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Batcher metrics
var (
	LedgerQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "wallet_ledger_queue_depth",
			Help: "Ledger entries buffered and awaiting a durable flush.",
		},
	)

	BatchFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_batch_flushes_total",
			Help: "Durable flush attempts by result (ok, error).",
		},
		[]string{"result"},
	)

	BatchEntriesRequeued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_batch_entries_requeued_total",
			Help: "Ledger entries returned to the head of the queue after a failed flush.",
		},
	)
)

// Security metrics
var (
	FraudFindingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_fraud_findings_total",
			Help: "Fraud findings emitted, by rule and severity.",
		},
		[]string{"rule", "severity"},
	)

	AlertsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_admin_alerts_created_total",
			Help: "Admin alerts created from fraud findings.",
		},
	)

	NotificationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_notification_failures_total",
			Help: "Admin notification deliveries that exhausted their retries.",
		},
	)
)
