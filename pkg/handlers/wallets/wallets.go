package wallets

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/spinworks/wallet-core/pkg/spin"
	"github.com/spinworks/wallet-core/pkg/wallet"
)

// WalletsHandler holds the dependencies for wallet-related handlers.
type WalletsHandler struct {
	Processor *spin.Processor
}

// NewWalletsHandler creates a new WalletsHandler.
func NewWalletsHandler(processor *spin.Processor) *WalletsHandler {
	return &WalletsHandler{Processor: processor}
}

type createWalletRequest struct {
	UserID string `json:"user_id"`
}

// CreateWallet handles the logic for creating a new wallet with its
// starting balances.
func (h *WalletsHandler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	created, err := h.Processor.Bootstrap(r.Context(), req.UserID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletExists) {
			http.Error(w, "Wallet for this user already exists", http.StatusConflict)
		} else {
			http.Error(w, fmt.Sprintf("Failed to create wallet: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(created); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

type balanceResponse struct {
	UserID   string          `json:"user_id"`
	Currency models.Currency `json:"currency"`
	Balance  decimal.Decimal `json:"balance"`
}

// GetBalance handles the logic for reading a user's balance in one currency.
func (h *WalletsHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	currency := models.Currency(chi.URLParam(r, "currency"))

	balance, err := h.Processor.GetBalance(r.Context(), userID, currency)
	if err != nil {
		switch {
		case errors.Is(err, spin.ErrInvalidCurrency):
			http.Error(w, "Unsupported currency", http.StatusBadRequest)
		case errors.Is(err, wallet.ErrWalletNotFound):
			http.Error(w, "Wallet not found", http.StatusNotFound)
		case errors.Is(err, wallet.ErrWalletBusy):
			http.Error(w, "Wallet busy, try again", http.StatusServiceUnavailable)
		default:
			http.Error(w, fmt.Sprintf("Failed to retrieve balance: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(balanceResponse{UserID: userID, Currency: currency, Balance: balance}); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

// ListTransactions handles the logic for reading a wallet's ledger history,
// newest first.
func (h *WalletsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	limit := queryInt32(r, "limit", 50)
	offset := queryInt32(r, "offset", 0)

	txs, err := h.Processor.GetTransactionHistory(r.Context(), userID, limit, offset)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to retrieve transactions: %v", err), http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(txs); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}

type adjustRequest struct {
	Currency models.Currency `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
	Reason   string          `json:"reason"`
	AdminID  string          `json:"admin_id"`
}

// AdjustBalance handles the logic for a staff balance correction.
func (h *WalletsHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	var req adjustRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.AdminID == "" || req.Reason == "" {
		http.Error(w, "admin_id and reason are required", http.StatusBadRequest)
		return
	}

	result, err := h.Processor.AdminAdjustBalance(r.Context(), userID, req.Currency, req.Amount, req.Reason, req.AdminID)
	if err != nil {
		switch {
		case errors.Is(err, spin.ErrInvalidCurrency), errors.Is(err, wallet.ErrInvalidAmount):
			http.Error(w, "Invalid adjustment", http.StatusBadRequest)
		case errors.Is(err, wallet.ErrInsufficientFunds):
			http.Error(w, "Adjustment would drive the balance negative", http.StatusUnprocessableEntity)
		case errors.Is(err, wallet.ErrWalletNotFound):
			http.Error(w, "Wallet not found", http.StatusNotFound)
		case errors.Is(err, wallet.ErrWalletBusy):
			http.Error(w, "Wallet busy, try again", http.StatusServiceUnavailable)
		default:
			http.Error(w, fmt.Sprintf("Failed to adjust balance: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
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
