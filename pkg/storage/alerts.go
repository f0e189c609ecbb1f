package storage

import (
	"context"

	"github.com/spinworks/wallet-core/pkg/models"
)

// AlertStore defines the interface for admin alert persistence.
type AlertStore interface {
	// CreateAlert writes a new alert. Alerts are always created in pending.
	CreateAlert(ctx context.Context, alert *models.AdminAlert) error

	// GetAlert retrieves an alert by its ID.
	GetAlert(ctx context.Context, alertID string) (*models.AdminAlert, error)

	// FindPendingAlert retrieves the pending alert for a user and rule, if
	// one exists. Returns ErrAlertNotFound otherwise.
	FindPendingAlert(ctx context.Context, userID, rule string) (*models.AdminAlert, error)

	// AppendAlertEvidence attaches another finding to an existing alert.
	AppendAlertEvidence(ctx context.Context, alertID string, evidence models.AlertEvidence) error

	// UpdateAlertStatus moves an alert from one status to another. The write
	// is conditional on the current status so concurrent staff actions
	// cannot race past the state machine.
	UpdateAlertStatus(ctx context.Context, alertID string, from, to models.AlertStatus) error

	// ListAlerts retrieves alerts in a given status, newest first.
	ListAlerts(ctx context.Context, status models.AlertStatus, limit, offset int32) ([]models.AdminAlert, error)
}
