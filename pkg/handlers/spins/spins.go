package spins

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/spinworks/wallet-core/pkg/spin"
	"github.com/spinworks/wallet-core/pkg/wallet"
)

// SpinsHandler holds the dependencies for settlement handlers.
type SpinsHandler struct {
	Processor *spin.Processor
}

// NewSpinsHandler creates a new SpinsHandler.
func NewSpinsHandler(processor *spin.Processor) *SpinsHandler {
	return &SpinsHandler{Processor: processor}
}

type settleRequest struct {
	UserID         string          `json:"user_id"`
	GameID         string          `json:"game_id"`
	SessionID      string          `json:"session_id"`
	Device         string          `json:"device"`
	Currency       models.Currency `json:"currency"`
	BetAmount      decimal.Decimal `json:"bet_amount"`
	WinAmount      decimal.Decimal `json:"win_amount"`
	Outcome        json.RawMessage `json:"outcome,omitempty"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	BonusTriggered bool            `json:"bonus_triggered"`
	IsJackpot      bool            `json:"is_jackpot"`
}

// Settle handles the logic for settling one spin: debit the bet, credit
// any win, and return the authoritative balance.
func (h *SpinsHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	result, err := h.Processor.Settle(r.Context(), spin.SettleRequest{
		UserID:         req.UserID,
		GameID:         req.GameID,
		SessionID:      req.SessionID,
		Device:         req.Device,
		Currency:       req.Currency,
		BetAmount:      req.BetAmount,
		WinAmount:      req.WinAmount,
		Outcome:        req.Outcome,
		Multiplier:     req.Multiplier,
		BonusTriggered: req.BonusTriggered,
		IsJackpot:      req.IsJackpot,
	})
	if err != nil {
		switch {
		case errors.Is(err, spin.ErrInvalidBet), errors.Is(err, spin.ErrInvalidWin), errors.Is(err, spin.ErrInvalidCurrency):
			http.Error(w, fmt.Sprintf("Invalid settlement: %v", err), http.StatusBadRequest)
		case errors.Is(err, wallet.ErrInsufficientFunds):
			http.Error(w, "Insufficient funds", http.StatusUnprocessableEntity)
		case errors.Is(err, wallet.ErrWalletNotFound):
			http.Error(w, "Wallet not found", http.StatusNotFound)
		case errors.Is(err, wallet.ErrWalletBusy):
			http.Error(w, "Wallet busy, try again", http.StatusServiceUnavailable)
		default:
			http.Error(w, fmt.Sprintf("Failed to settle spin: %v", err), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		http.Error(w, fmt.Sprintf("Failed to write response: %v", err), http.StatusInternalServerError)
	}
}
