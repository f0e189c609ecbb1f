// Package alerts turns fraud findings into reviewable admin alerts and fans
// notifications out to the active staff roster.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spinworks/wallet-core/pkg/directory"
	"github.com/spinworks/wallet-core/pkg/metrics"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/spinworks/wallet-core/pkg/notify"
	"github.com/spinworks/wallet-core/pkg/storage"
)

// Config holds the dispatcher's delivery tunables.
type Config struct {
	// NotifyRetries is how many times a single admin delivery is retried
	// before it is counted as failed. Failures never block other admins.
	NotifyRetries int

	// NotifyBackoff is the pause between retries for one admin.
	NotifyBackoff time.Duration
}

// Dispatcher creates admin alerts from findings and notifies every active
// admin, at-least-once per admin.
type Dispatcher struct {
	cfg    Config
	store  storage.AlertStore
	sink   notify.Sink
	dir    directory.Directory
	logger *slog.Logger

	now func() time.Time
}

// New creates a dispatcher.
func New(store storage.AlertStore, sink notify.Sink, dir directory.Directory, cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.NotifyRetries <= 0 {
		cfg.NotifyRetries = 3
	}
	if cfg.NotifyBackoff <= 0 {
		cfg.NotifyBackoff = 200 * time.Millisecond
	}
	return &Dispatcher{
		cfg:    cfg,
		store:  store,
		sink:   sink,
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// Raise converts a finding into an admin alert. When a pending alert for
// the same user and rule already exists, the finding is appended to its
// evidence instead of creating a duplicate; no re-notification happens in
// that case.
func (d *Dispatcher) Raise(ctx context.Context, finding models.FraudFinding) (string, error) {
	ev := models.AlertEvidence{
		Detail:    finding.Detail,
		SpinIDs:   finding.Evidence,
		CreatedAt: finding.CreatedAt,
	}

	existing, err := d.store.FindPendingAlert(ctx, finding.UserID, finding.Rule)
	if err == nil {
		if err := d.store.AppendAlertEvidence(ctx, existing.ID, ev); err != nil {
			return "", fmt.Errorf("failed to append alert evidence: %w", err)
		}
		return existing.ID, nil
	}
	if !errors.Is(err, storage.ErrAlertNotFound) {
		return "", fmt.Errorf("failed to look up pending alert: %w", err)
	}

	now := d.now()
	alert := &models.AdminAlert{
		ID:            uuid.New().String(),
		Type:          finding.Rule,
		Title:         fmt.Sprintf("Suspicious activity: %s", finding.Rule),
		Description:   finding.Detail,
		Severity:      finding.Severity,
		Status:        models.AlertPending,
		RelatedUserID: finding.UserID,
		Rule:          finding.Rule,
		Evidence:      []models.AlertEvidence{ev},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := d.store.CreateAlert(ctx, alert); err != nil {
		return "", fmt.Errorf("failed to create alert: %w", err)
	}
	metrics.AlertsCreatedTotal.Inc()

	d.fanOut(ctx, alert)
	return alert.ID, nil
}

// fanOut notifies every active admin. Each admin's delivery is retried
// independently; one failing admin never prevents the rest from being
// notified.
func (d *Dispatcher) fanOut(ctx context.Context, alert *models.AdminAlert) {
	admins, err := d.dir.ListActiveAdmins(ctx)
	if err != nil {
		d.logger.Error("failed to list active admins for alert fan-out",
			slog.String("alert_id", alert.ID),
			slog.String("error", err.Error()))
		return
	}

	for _, adminID := range admins {
		n := notify.Notification{
			AdminUserID: adminID,
			AlertID:     alert.ID,
			Title:       alert.Title,
			Description: alert.Description,
			Severity:    alert.Severity,
			CreatedAt:   alert.CreatedAt,
		}
		if err := d.notifyWithRetry(ctx, n); err != nil {
			metrics.NotificationFailuresTotal.Inc()
			d.logger.Error("failed to notify admin after retries",
				slog.String("alert_id", alert.ID),
				slog.String("admin_id", adminID),
				slog.String("error", err.Error()))
		}
	}
}

func (d *Dispatcher) notifyWithRetry(ctx context.Context, n notify.Notification) error {
	var err error
	for attempt := 0; attempt < d.cfg.NotifyRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(d.cfg.NotifyBackoff)
		}
		if err = d.sink.Notify(ctx, n); err == nil {
			return nil
		}
	}
	return err
}

// UpdateStatus applies a staff-driven status transition, enforcing the
// review state machine. The core itself never calls this; alerts only ever
// enter the system as pending.
func (d *Dispatcher) UpdateStatus(ctx context.Context, alertID string, next models.AlertStatus) error {
	alert, err := d.store.GetAlert(ctx, alertID)
	if err != nil {
		return err
	}
	from := alert.Status
	if err := alert.Transition(next, d.now()); err != nil {
		return err
	}
	return d.store.UpdateAlertStatus(ctx, alertID, from, next)
}
