package fraud

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spinworks/wallet-core/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func spinAt(id string, bet, win int64, at time.Time) models.SpinRecord {
	return models.SpinRecord{
		ID:        id,
		UserID:    "user-1",
		BetAmount: decimal.NewFromInt(bet),
		WinAmount: decimal.NewFromInt(win),
		CreatedAt: at,
	}
}

func rulesOf(findings []models.FraudFinding) []string {
	var rules []string
	for _, f := range findings {
		rules = append(rules, f.Rule)
	}
	return rules
}

func TestHighMultiplier(t *testing.T) {
	d := NewDetector(DefaultConfig())

	t.Run("at threshold stays quiet", func(t *testing.T) {
		findings := d.Evaluate("user-1", spinAt("s-1", 10, 1000, base))
		assert.NotContains(t, rulesOf(findings), RuleHighMultiplier)
	})

	t.Run("above threshold fires high", func(t *testing.T) {
		findings := d.Evaluate("user-2", spinAt("s-2", 10, 1001, base))
		require.Contains(t, rulesOf(findings), RuleHighMultiplier)
		for _, f := range findings {
			if f.Rule == RuleHighMultiplier {
				assert.Equal(t, models.SeverityHigh, f.Severity)
				assert.Equal(t, "user-2", f.UserID)
				assert.NotEmpty(t, f.Evidence)
			}
		}
	})

	t.Run("losing spin never fires", func(t *testing.T) {
		findings := d.Evaluate("user-3", spinAt("s-3", 10, 0, base))
		assert.Empty(t, findings)
	})
}

func TestExtremeRatio(t *testing.T) {
	d := NewDetector(DefaultConfig())

	findings := d.Evaluate("user-1", spinAt("s-1", 1, 2000, base))
	require.Contains(t, rulesOf(findings), RuleExtremeRatio)
	for _, f := range findings {
		if f.Rule == RuleExtremeRatio {
			assert.Equal(t, models.SeverityCritical, f.Severity)
		}
	}

	quiet := d.Evaluate("user-2", spinAt("s-2", 2, 2000, base))
	assert.NotContains(t, rulesOf(quiet), RuleExtremeRatio)
}

func TestJackpotAlwaysSurfaces(t *testing.T) {
	d := NewDetector(DefaultConfig())

	rec := spinAt("s-1", 100, 50, base)
	rec.IsJackpot = true
	findings := d.Evaluate("user-1", rec)
	require.Contains(t, rulesOf(findings), RuleJackpot)
	for _, f := range findings {
		if f.Rule == RuleJackpot {
			assert.Equal(t, models.SeverityMedium, f.Severity)
		}
	}
}

func TestRapidFire(t *testing.T) {
	d := NewDetector(DefaultConfig())

	// Nine spins, 5s apart, stay under the threshold.
	var findings []models.FraudFinding
	for i := 0; i < 10; i++ {
		findings = d.Evaluate("user-1", spinAt(fmt.Sprintf("s-%d", i), 10, 0, base.Add(time.Duration(i)*5*time.Second)))
		if i < 9 {
			require.NotContains(t, rulesOf(findings), RuleRapidFire)
		}
	}
	// The tenth spin puts ten inside a 45s span.
	assert.Contains(t, rulesOf(findings), RuleRapidFire)
}

func TestRapidFireUsesSpinTimestampsNotWallClock(t *testing.T) {
	// Two detectors fed the same sequence must agree regardless of when
	// evaluation happens.
	seq := make([]models.SpinRecord, 10)
	for i := range seq {
		seq[i] = spinAt(fmt.Sprintf("s-%d", i), 10, 0, base.Add(time.Duration(i)*time.Second))
	}

	run := func() []string {
		d := NewDetector(DefaultConfig())
		var last []models.FraudFinding
		for _, s := range seq {
			last = d.Evaluate("user-1", s)
		}
		return rulesOf(last)
	}

	first := run()
	time.Sleep(50 * time.Millisecond)
	second := run()
	assert.Equal(t, first, second)
	assert.Contains(t, first, RuleRapidFire)
}

func TestWinRateAnomaly(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WinRateWindow = 10
	cfg.RapidFireCount = 1000 // keep other rules quiet
	d := NewDetector(cfg)

	t.Run("quiet until a full window", func(t *testing.T) {
		for i := 0; i < 9; i++ {
			findings := d.Evaluate("user-1", spinAt(fmt.Sprintf("s-%d", i), 10, 20, base.Add(time.Duration(i)*time.Hour)))
			assert.NotContains(t, rulesOf(findings), RuleWinRateAnomaly,
				"spin %d: window not yet full", i)
		}
	})

	t.Run("fires once the window is full of net wins", func(t *testing.T) {
		findings := d.Evaluate("user-1", spinAt("s-9", 10, 20, base.Add(9*time.Hour)))
		assert.Contains(t, rulesOf(findings), RuleWinRateAnomaly)
	})
}

func TestErraticStake(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RapidFireCount = 1000
	d := NewDetector(cfg)

	// Build up a rolling average around 10.
	for i := 0; i < 5; i++ {
		d.Evaluate("user-1", spinAt(fmt.Sprintf("s-%d", i), 10, 0, base.Add(time.Duration(i)*time.Hour)))
	}

	t.Run("bet within factor stays quiet", func(t *testing.T) {
		findings := d.Evaluate("user-1", spinAt("s-ok", 100, 0, base.Add(6*time.Hour)))
		assert.NotContains(t, rulesOf(findings), RuleErraticStake)
	})

	t.Run("bet far above average fires", func(t *testing.T) {
		findings := d.Evaluate("user-1", spinAt("s-big", 500, 0, base.Add(7*time.Hour)))
		assert.Contains(t, rulesOf(findings), RuleErraticStake)
	})
}

func TestCooldownSuppressesRepeats(t *testing.T) {
	d := NewDetector(DefaultConfig())

	first := d.Evaluate("user-1", spinAt("s-1", 1, 500, base))
	require.Contains(t, rulesOf(first), RuleHighMultiplier)

	// Within the cool-down window the same rule stays quiet.
	during := d.Evaluate("user-1", spinAt("s-2", 1, 500, base.Add(time.Minute)))
	assert.NotContains(t, rulesOf(during), RuleHighMultiplier)

	// After the window it may fire again.
	after := d.Evaluate("user-1", spinAt("s-3", 1, 500, base.Add(6*time.Minute)))
	assert.Contains(t, rulesOf(after), RuleHighMultiplier)
}

func TestCooldownIsPerUser(t *testing.T) {
	d := NewDetector(DefaultConfig())

	first := d.Evaluate("user-1", spinAt("s-1", 1, 500, base))
	require.Contains(t, rulesOf(first), RuleHighMultiplier)

	other := d.Evaluate("user-2", spinAt("s-2", 1, 500, base.Add(time.Second)))
	assert.Contains(t, rulesOf(other), RuleHighMultiplier)
}

func TestHistoryDepthBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryDepth = 5
	cfg.RapidFireCount = 1000
	d := NewDetector(cfg)

	for i := 0; i < 50; i++ {
		d.Evaluate("user-1", spinAt(fmt.Sprintf("s-%d", i), 10, 0, base.Add(time.Duration(i)*time.Hour)))
	}
	assert.Len(t, d.history["user-1"], 5)
}
