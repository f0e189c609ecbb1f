package dynamodb

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/models"
)

// The record types below are the DynamoDB images of the domain models.
// Money travels as strings so decimal amounts round-trip exactly.

type walletRecord struct {
	UserID       string    `dynamodbav:"user_id"`
	GoldCoins    string    `dynamodbav:"gold_coins"`
	SweepsCoins  string    `dynamodbav:"sweeps_coins"`
	DailySpentGC string    `dynamodbav:"daily_spent_gc"`
	DailyWonGC   string    `dynamodbav:"daily_won_gc"`
	DailySpentSC string    `dynamodbav:"daily_spent_sc"`
	DailyWonSC   string    `dynamodbav:"daily_won_sc"`
	DailyResetAt time.Time `dynamodbav:"daily_reset_at"`
	Version      int64     `dynamodbav:"version"`
	Sequence     int64     `dynamodbav:"seq"`
	CreatedAt    time.Time `dynamodbav:"created_at"`
	UpdatedAt    time.Time `dynamodbav:"updated_at"`
}

func toWalletRecord(userID string, balances map[models.Currency]*models.Balance, dailyResetAt time.Time, version, sequence int64, createdAt, updatedAt time.Time) walletRecord {
	gc := balanceOrZero(balances, models.GoldCoins)
	sc := balanceOrZero(balances, models.SweepsCoins)
	return walletRecord{
		UserID:       userID,
		GoldCoins:    gc.Amount.String(),
		SweepsCoins:  sc.Amount.String(),
		DailySpentGC: gc.DailySpent.String(),
		DailyWonGC:   gc.DailyWon.String(),
		DailySpentSC: sc.DailySpent.String(),
		DailyWonSC:   sc.DailyWon.String(),
		DailyResetAt: dailyResetAt,
		Version:      version,
		Sequence:     sequence,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}
}

func balanceOrZero(balances map[models.Currency]*models.Balance, c models.Currency) models.Balance {
	if b, ok := balances[c]; ok && b != nil {
		return *b
	}
	return models.Balance{Amount: decimal.Zero, DailySpent: decimal.Zero, DailyWon: decimal.Zero}
}

func (r walletRecord) toDomain() (*models.Wallet, error) {
	gcAmount, err := parseAmounts(r.GoldCoins, r.DailySpentGC, r.DailyWonGC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GC balance for wallet %s: %w", r.UserID, err)
	}
	scAmount, err := parseAmounts(r.SweepsCoins, r.DailySpentSC, r.DailyWonSC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SC balance for wallet %s: %w", r.UserID, err)
	}
	return &models.Wallet{
		UserID: r.UserID,
		Balances: map[models.Currency]*models.Balance{
			models.GoldCoins:   gcAmount,
			models.SweepsCoins: scAmount,
		},
		DailyResetAt: r.DailyResetAt,
		Version:      r.Version,
		Sequence:     r.Sequence,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}

func parseAmounts(amount, spent, won string) (*models.Balance, error) {
	a, err := parseDecimal(amount)
	if err != nil {
		return nil, err
	}
	s, err := parseDecimal(spent)
	if err != nil {
		return nil, err
	}
	w, err := parseDecimal(won)
	if err != nil {
		return nil, err
	}
	return &models.Balance{Amount: a, DailySpent: s, DailyWon: w}, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

type transactionRecord struct {
	ID            string    `dynamodbav:"id"`
	WalletID      string    `dynamodbav:"wallet_id"`
	Sequence      int64     `dynamodbav:"seq"`
	Kind          string    `dynamodbav:"type"`
	Currency      string    `dynamodbav:"currency"`
	Amount        string    `dynamodbav:"amount"`
	BalanceBefore string    `dynamodbav:"balance_before"`
	BalanceAfter  string    `dynamodbav:"balance_after"`
	Reference     string    `dynamodbav:"reference_id,omitempty"`
	Status        string    `dynamodbav:"status"`
	GameID        string    `dynamodbav:"game_id,omitempty"`
	Device        string    `dynamodbav:"device,omitempty"`
	AdminID       string    `dynamodbav:"admin_id,omitempty"`
	Reason        string    `dynamodbav:"reason,omitempty"`
	CreatedAt     time.Time `dynamodbav:"created_at"`
}

func toTransactionRecord(tx models.Transaction) transactionRecord {
	return transactionRecord{
		ID:            tx.ID,
		WalletID:      tx.WalletID,
		Sequence:      tx.Sequence,
		Kind:          string(tx.Kind),
		Currency:      string(tx.Currency),
		Amount:        tx.Amount.String(),
		BalanceBefore: tx.BalanceBefore.String(),
		BalanceAfter:  tx.BalanceAfter.String(),
		Reference:     tx.Reference,
		Status:        string(tx.Status),
		GameID:        tx.Metadata.GameID,
		Device:        tx.Metadata.Device,
		AdminID:       tx.Metadata.AdminID,
		Reason:        tx.Metadata.Reason,
		CreatedAt:     tx.CreatedAt,
	}
}

func (r transactionRecord) toDomain() (models.Transaction, error) {
	amount, err := parseDecimal(r.Amount)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to parse amount for transaction %s: %w", r.ID, err)
	}
	before, err := parseDecimal(r.BalanceBefore)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to parse balance_before for transaction %s: %w", r.ID, err)
	}
	after, err := parseDecimal(r.BalanceAfter)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("failed to parse balance_after for transaction %s: %w", r.ID, err)
	}
	return models.Transaction{
		ID:            r.ID,
		WalletID:      r.WalletID,
		Sequence:      r.Sequence,
		Kind:          models.TransactionKind(r.Kind),
		Currency:      models.Currency(r.Currency),
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Reference:     r.Reference,
		Status:        models.TransactionStatus(r.Status),
		Metadata: models.TransactionMetadata{
			GameID:  r.GameID,
			Device:  r.Device,
			AdminID: r.AdminID,
			Reason:  r.Reason,
		},
		CreatedAt: r.CreatedAt,
	}, nil
}

type spinLogRecord struct {
	ID             string    `dynamodbav:"id"`
	UserID         string    `dynamodbav:"user_id"`
	GameID         string    `dynamodbav:"game_id"`
	SessionID      string    `dynamodbav:"session_id"`
	Currency       string    `dynamodbav:"currency"`
	BetAmount      string    `dynamodbav:"bet_amount"`
	WinAmount      string    `dynamodbav:"win_amount"`
	BalanceBefore  string    `dynamodbav:"balance_before"`
	BalanceAfter   string    `dynamodbav:"balance_after"`
	Outcome        string    `dynamodbav:"outcome,omitempty"`
	Multiplier     string    `dynamodbav:"multiplier"`
	BonusTriggered bool      `dynamodbav:"bonus_triggered"`
	IsJackpot      bool      `dynamodbav:"is_jackpot"`
	CreatedAt      time.Time `dynamodbav:"created_at"`
}

func toSpinLogRecord(rec models.SpinRecord) spinLogRecord {
	return spinLogRecord{
		ID:             rec.ID,
		UserID:         rec.UserID,
		GameID:         rec.GameID,
		SessionID:      rec.SessionID,
		Currency:       string(rec.Currency),
		BetAmount:      rec.BetAmount.String(),
		WinAmount:      rec.WinAmount.String(),
		BalanceBefore:  rec.BalanceBefore.String(),
		BalanceAfter:   rec.BalanceAfter.String(),
		Outcome:        string(rec.Outcome),
		Multiplier:     rec.Multiplier.String(),
		BonusTriggered: rec.BonusTriggered,
		IsJackpot:      rec.IsJackpot,
		CreatedAt:      rec.CreatedAt,
	}
}

type alertRecord struct {
	ID            string    `dynamodbav:"id"`
	Type          string    `dynamodbav:"type"`
	Title         string    `dynamodbav:"title"`
	Description   string    `dynamodbav:"description"`
	Severity      string    `dynamodbav:"severity"`
	Status        string    `dynamodbav:"status"`
	RelatedUserID string    `dynamodbav:"related_user_id"`
	Rule          string    `dynamodbav:"rule"`
	Evidence      string    `dynamodbav:"evidence"`
	CreatedAt     time.Time `dynamodbav:"created_at"`
	UpdatedAt     time.Time `dynamodbav:"updated_at"`
}

func toAlertRecord(alert *models.AdminAlert) (alertRecord, error) {
	evidence, err := json.Marshal(alert.Evidence)
	if err != nil {
		return alertRecord{}, fmt.Errorf("failed to marshal alert evidence: %w", err)
	}
	return alertRecord{
		ID:            alert.ID,
		Type:          alert.Type,
		Title:         alert.Title,
		Description:   alert.Description,
		Severity:      string(alert.Severity),
		Status:        string(alert.Status),
		RelatedUserID: alert.RelatedUserID,
		Rule:          alert.Rule,
		Evidence:      string(evidence),
		CreatedAt:     alert.CreatedAt,
		UpdatedAt:     alert.UpdatedAt,
	}, nil
}

func (r alertRecord) toDomain() (*models.AdminAlert, error) {
	var evidence []models.AlertEvidence
	if r.Evidence != "" {
		if err := json.Unmarshal([]byte(r.Evidence), &evidence); err != nil {
			return nil, fmt.Errorf("failed to unmarshal evidence for alert %s: %w", r.ID, err)
		}
	}
	return &models.AdminAlert{
		ID:            r.ID,
		Type:          r.Type,
		Title:         r.Title,
		Description:   r.Description,
		Severity:      models.Severity(r.Severity),
		Status:        models.AlertStatus(r.Status),
		RelatedUserID: r.RelatedUserID,
		Rule:          r.Rule,
		Evidence:      evidence,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}, nil
}
