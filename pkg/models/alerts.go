package models

import (
	"errors"
	"fmt"
	"time"
)

// AlertStatus defines the review states of an admin alert.
type AlertStatus string

const (
	AlertPending    AlertStatus = "pending"
	AlertInProgress AlertStatus = "in_progress"
	AlertResolved   AlertStatus = "resolved"
	AlertDismissed  AlertStatus = "dismissed"
)

// ErrInvalidTransition is returned when an alert status change is not
// permitted by the review state machine.
var ErrInvalidTransition = errors.New("invalid alert status transition")

// Valid reports whether s is a known alert status.
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertPending, AlertInProgress, AlertResolved, AlertDismissed:
		return true
	}
	return false
}

// CanTransitionTo reports whether the review state machine permits moving
// from s to next. The core only ever creates alerts in pending; every other
// transition is driven by staff action.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	switch s {
	case AlertPending:
		return next == AlertInProgress || next == AlertDismissed
	case AlertInProgress:
		return next == AlertResolved
	}
	return false
}

// AlertEvidence is one fraud finding attached to an alert. Repeated findings
// for the same pending alert accumulate here instead of producing duplicate
// alerts.
type AlertEvidence struct {
	Detail    string    `json:"detail"`
	SpinIDs   []string  `json:"spin_ids"`
	CreatedAt time.Time `json:"created_at"`
}

// AdminAlert is a reviewable security alert derived from fraud findings.
type AdminAlert struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Severity      Severity        `json:"severity"`
	Status        AlertStatus     `json:"status"`
	RelatedUserID string          `json:"related_user_id"`
	Rule          string          `json:"rule"`
	Evidence      []AlertEvidence `json:"evidence"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Transition moves the alert to the next status, enforcing the state
// machine.
func (a *AdminAlert) Transition(next AlertStatus, now time.Time) error {
	if !a.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, next)
	}
	a.Status = next
	a.UpdatedAt = now
	return nil
}
