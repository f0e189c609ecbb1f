// Package notify defines the narrow interface through which admin alerts
// leave the core. The actual delivery transport (push, email) lives behind
// the queue this package writes to.
package notify

import (
	"context"
	"time"

	"github.com/spinworks/wallet-core/pkg/models"
)

// Notification is one admin-bound alert delivery.
type Notification struct {
	AdminUserID string          `json:"admin_user_id"`
	AlertID     string          `json:"alert_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Severity    models.Severity `json:"severity"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Sink delivers a notification to a single admin. Delivery is at-least-once;
// a failure for one admin never affects delivery to the others.
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}
