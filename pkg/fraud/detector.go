// Package fraud inspects recent spin history per user against a rule set
// and emits findings. Evaluation runs off the settlement's critical path.
package fraud

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/metrics"
	"github.com/spinworks/wallet-core/pkg/models"
)

// Rule names, also used as alert types and dedupe keys.
const (
	RuleHighMultiplier = "high_multiplier"
	RuleExtremeRatio   = "extreme_ratio"
	RuleJackpot        = "jackpot"
	RuleRapidFire      = "rapid_fire"
	RuleWinRateAnomaly = "win_rate_anomaly"
	RuleErraticStake   = "erratic_stake"
)

// Config externalizes every rule threshold so operators can tune without a
// redeploy.
type Config struct {
	// HighMultiplierThreshold fires when win/bet exceeds it.
	HighMultiplierThreshold decimal.Decimal

	// ExtremeRatioThreshold fires critical when win > bet * threshold.
	ExtremeRatioThreshold decimal.Decimal

	// RapidFireCount spins within RapidFireWindow fire the rapid-fire rule.
	RapidFireCount  int
	RapidFireWindow time.Duration

	// WinRateThreshold is the net-positive fraction of the last
	// WinRateWindow spins above which the win-rate rule fires. The rule
	// stays quiet until a full window has been observed.
	WinRateWindow    int
	WinRateThreshold float64

	// ErraticStakeFactor fires when a bet deviates from the rolling average
	// bet by more than this factor, in either direction.
	ErraticStakeFactor decimal.Decimal

	// ErraticStakeMinSpins is the minimum history before the stake rule is
	// considered, so a player's first bets don't trip it.
	ErraticStakeMinSpins int

	// HistoryDepth bounds the per-user spin window kept in memory.
	HistoryDepth int

	// CooldownWindow suppresses repeat findings per (user, rule) to avoid
	// alert storms.
	CooldownWindow time.Duration

	// EvidenceSpins caps how many recent spin ids a finding carries.
	EvidenceSpins int
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		HighMultiplierThreshold: decimal.NewFromInt(100),
		ExtremeRatioThreshold:   decimal.NewFromInt(1000),
		RapidFireCount:          10,
		RapidFireWindow:         60 * time.Second,
		WinRateWindow:           50,
		WinRateThreshold:        0.7,
		ErraticStakeFactor:      decimal.NewFromInt(10),
		ErraticStakeMinSpins:    5,
		HistoryDepth:            50,
		CooldownWindow:          5 * time.Minute,
		EvidenceSpins:           10,
	}
}

// Detector holds per-user spin windows and evaluates the rule set. All rule
// decisions derive from spin-record timestamps, never the wall clock, so a
// fixed spin sequence always yields the same findings.
type Detector struct {
	cfg Config

	mu        sync.Mutex
	history   map[string][]models.SpinRecord
	lastFired map[string]time.Time // "userID|rule" -> spin timestamp
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(cfg Config) *Detector {
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = 50
	}
	if cfg.EvidenceSpins <= 0 {
		cfg.EvidenceSpins = 10
	}
	return &Detector{
		cfg:       cfg,
		history:   make(map[string][]models.SpinRecord),
		lastFired: make(map[string]time.Time),
	}
}

// Evaluate appends the spin to the user's window and runs every rule.
// Multiple rules may fire for one spin; each produces an independent
// finding. Findings inside a rule's cool-down window are suppressed.
func (d *Detector) Evaluate(userID string, spin models.SpinRecord) []models.FraudFinding {
	d.mu.Lock()
	defer d.mu.Unlock()

	window := append(d.history[userID], spin)
	if len(window) > d.cfg.HistoryDepth {
		window = window[len(window)-d.cfg.HistoryDepth:]
	}
	d.history[userID] = window

	var findings []models.FraudFinding
	for _, rule := range []func(models.SpinRecord, []models.SpinRecord) *models.FraudFinding{
		d.highMultiplier,
		d.extremeRatio,
		d.jackpot,
		d.rapidFire,
		d.winRateAnomaly,
		d.erraticStake,
	} {
		f := rule(spin, window)
		if f == nil {
			continue
		}
		if d.inCooldown(userID, f.Rule, spin.CreatedAt) {
			continue
		}
		d.lastFired[userID+"|"+f.Rule] = spin.CreatedAt
		f.UserID = userID
		f.CreatedAt = spin.CreatedAt
		f.Evidence = evidence(window, d.cfg.EvidenceSpins)
		metrics.FraudFindingsTotal.WithLabelValues(f.Rule, string(f.Severity)).Inc()
		findings = append(findings, *f)
	}
	return findings
}

func (d *Detector) inCooldown(userID, rule string, at time.Time) bool {
	last, ok := d.lastFired[userID+"|"+rule]
	return ok && at.Sub(last) < d.cfg.CooldownWindow
}

func (d *Detector) highMultiplier(spin models.SpinRecord, _ []models.SpinRecord) *models.FraudFinding {
	if spin.BetAmount.Sign() <= 0 || spin.WinAmount.Sign() <= 0 {
		return nil
	}
	ratio := spin.WinAmount.Div(spin.BetAmount)
	if ratio.LessThanOrEqual(d.cfg.HighMultiplierThreshold) {
		return nil
	}
	return &models.FraudFinding{
		Rule:     RuleHighMultiplier,
		Severity: models.SeverityHigh,
		Detail:   fmt.Sprintf("win/bet ratio %s exceeds %s on spin %s", ratio.StringFixed(2), d.cfg.HighMultiplierThreshold, spin.ID),
	}
}

func (d *Detector) extremeRatio(spin models.SpinRecord, _ []models.SpinRecord) *models.FraudFinding {
	if spin.BetAmount.Sign() <= 0 {
		return nil
	}
	if spin.WinAmount.LessThanOrEqual(spin.BetAmount.Mul(d.cfg.ExtremeRatioThreshold)) {
		return nil
	}
	return &models.FraudFinding{
		Rule:     RuleExtremeRatio,
		Severity: models.SeverityCritical,
		Detail:   fmt.Sprintf("win %s exceeds bet %s by more than %sx on spin %s", spin.WinAmount, spin.BetAmount, d.cfg.ExtremeRatioThreshold, spin.ID),
	}
}

// jackpot is always surfaced for review; a jackpot is not necessarily
// abusive.
func (d *Detector) jackpot(spin models.SpinRecord, _ []models.SpinRecord) *models.FraudFinding {
	if !spin.IsJackpot {
		return nil
	}
	return &models.FraudFinding{
		Rule:     RuleJackpot,
		Severity: models.SeverityMedium,
		Detail:   fmt.Sprintf("jackpot flagged on spin %s (win %s)", spin.ID, spin.WinAmount),
	}
}

func (d *Detector) rapidFire(spin models.SpinRecord, window []models.SpinRecord) *models.FraudFinding {
	cutoff := spin.CreatedAt.Add(-d.cfg.RapidFireWindow)
	count := 0
	for _, s := range window {
		if !s.CreatedAt.Before(cutoff) {
			count++
		}
	}
	if count < d.cfg.RapidFireCount {
		return nil
	}
	return &models.FraudFinding{
		Rule:     RuleRapidFire,
		Severity: models.SeverityHigh,
		Detail:   fmt.Sprintf("%d spins within %s", count, d.cfg.RapidFireWindow),
	}
}

func (d *Detector) winRateAnomaly(_ models.SpinRecord, window []models.SpinRecord) *models.FraudFinding {
	if len(window) < d.cfg.WinRateWindow {
		return nil
	}
	recent := window[len(window)-d.cfg.WinRateWindow:]
	positive := 0
	for _, s := range recent {
		if s.NetWin().Sign() > 0 {
			positive++
		}
	}
	rate := float64(positive) / float64(len(recent))
	if rate <= d.cfg.WinRateThreshold {
		return nil
	}
	return &models.FraudFinding{
		Rule:     RuleWinRateAnomaly,
		Severity: models.SeverityHigh,
		Detail:   fmt.Sprintf("%.0f%% of last %d spins were net-positive", rate*100, len(recent)),
	}
}

func (d *Detector) erraticStake(spin models.SpinRecord, window []models.SpinRecord) *models.FraudFinding {
	// Average excludes the spin under evaluation.
	prior := window[:len(window)-1]
	if len(prior) < d.cfg.ErraticStakeMinSpins {
		return nil
	}
	sum := decimal.Zero
	for _, s := range prior {
		sum = sum.Add(s.BetAmount)
	}
	avg := sum.Div(decimal.NewFromInt(int64(len(prior))))
	if avg.Sign() <= 0 || spin.BetAmount.Sign() <= 0 {
		return nil
	}
	high := avg.Mul(d.cfg.ErraticStakeFactor)
	low := avg.Div(d.cfg.ErraticStakeFactor)
	if spin.BetAmount.LessThanOrEqual(high) && spin.BetAmount.GreaterThanOrEqual(low) {
		return nil
	}
	return &models.FraudFinding{
		Rule:     RuleErraticStake,
		Severity: models.SeverityMedium,
		Detail:   fmt.Sprintf("bet %s deviates from rolling average %s by more than %sx", spin.BetAmount, avg.StringFixed(2), d.cfg.ErraticStakeFactor),
	}
}

func evidence(window []models.SpinRecord, max int) []string {
	start := 0
	if len(window) > max {
		start = len(window) - max
	}
	ids := make([]string, 0, len(window)-start)
	for _, s := range window[start:] {
		ids = append(ids, s.ID)
	}
	return ids
}
