package alerts

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/spinworks/wallet-core/pkg/alerts"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/spinworks/wallet-core/pkg/storage"
)

// AlertsHandler holds the dependencies for alert review handlers.
type AlertsHandler struct {
	Dispatcher *alerts.Dispatcher
	Store      storage.AlertStore
}

// NewAlertsHandler creates a new AlertsHandler.
func NewAlertsHandler(dispatcher *alerts.Dispatcher, store storage.AlertStore) *AlertsHandler {
	return &AlertsHandler{Dispatcher: dispatcher, Store: store}
}

// ListAlerts handles the logic for listing alerts in a review status,
// newest first. Defaults to pending.
func (h *AlertsHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	status := models.AlertStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.AlertPending
	}
	if !status.Valid() {
		http.Error(w, "Unknown alert status", http.StatusBadRequest)
		return
	}

	limit := queryInt32(r, "limit", 50)
	offset := queryInt32(r, "offset", 0)

	list, err := h.Store.ListAlerts(r.Context(), status, limit, offset)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve alerts: %v", err), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []models.AdminAlert{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(list); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// GetAlert handles the logic for retrieving a single alert.
func (h *AlertsHandler) GetAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertId")

	alert, err := h.Store.GetAlert(r.Context(), alertID)
	if err != nil {
		if errors.Is(err, storage.ErrAlertNotFound) {
			http.Error(w, "Alert not found", http.StatusNotFound)
		} else {
			http.Error(w, fmt.Sprintf("Failed to retrieve alert: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(alert); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

type updateStatusRequest struct {
	Status models.AlertStatus `json:"status"`
}

// UpdateStatus handles the logic for a staff-driven alert transition.
func (h *AlertsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "alertId")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.Dispatcher.UpdateStatus(r.Context(), alertID, req.Status); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlertNotFound):
			http.Error(w, "Alert not found", http.StatusNotFound)
		case errors.Is(err, models.ErrInvalidTransition):
			http.Error(w, fmt.Sprintf("Invalid transition: %v", err), http.StatusConflict)
		case errors.Is(err, storage.ErrAlertConflict):
			http.Error(w, "Alert was modified concurrently", http.StatusConflict)
		default:
			http.Error(w, fmt.Sprintf("Failed to update alert: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func queryInt32(r *http.Request, key string, fallback int32) int32 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || v < 0 {
		return fallback
	}
	return int32(v)
}
