package services

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"clinic-partner-system/models"
)

// TierThresholds: lifetime referrals required before tier-up.
// Bronze [0,25) → Silver [25,50) → Gold [50,100) → Platinum [100,∞).
// Overridable via TIER_THRESHOLDS (e.g. "25,50,100"); must stay strictly
// increasing and positive. Configured once at startup, read-only after.
var tierLadder = []struct {
	Tier models.Tier
	Min  int64
}{
	{models.TierBronze, 0},
	{models.TierSilver, 25},
	{models.TierGold, 50},
	{models.TierPlatinum, 100},
}

// ConfigureTierThresholds replaces the Silver/Gold/Platinum thresholds.
func ConfigureTierThresholds(silver, gold, platinum int64) error {
	if silver <= 0 || gold <= silver || platinum <= gold {
		return fmt.Errorf("tier thresholds must be strictly increasing and positive: %d, %d, %d", silver, gold, platinum)
	}
	tierLadder[1].Min = silver
	tierLadder[2].Min = gold
	tierLadder[3].Min = platinum
	return nil
}

// LoadTierThresholdsFromEnv applies TIER_THRESHOLDS if set ("25,50,100").
func LoadTierThresholdsFromEnv() error {
	raw := os.Getenv("TIER_THRESHOLDS")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return fmt.Errorf("TIER_THRESHOLDS must be three comma-separated counts, got %q", raw)
	}
	vals := make([]int64, 3)
	for i, p := range parts {
		v, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return fmt.Errorf("TIER_THRESHOLDS entry %q: %w", p, err)
		}
		vals[i] = v
	}
	if err := ConfigureTierThresholds(vals[0], vals[1], vals[2]); err != nil {
		return err
	}
	log.Printf("[Tier] thresholds configured: Silver=%d Gold=%d Platinum=%d", vals[0], vals[1], vals[2])
	return nil
}

// ClassifyTier maps a lifetime referral count to its tier.
func ClassifyTier(totalReferrals int64) models.Tier {
	for i := len(tierLadder) - 1; i >= 0; i-- {
		if totalReferrals >= tierLadder[i].Min {
			return tierLadder[i].Tier
		}
	}
	return models.TierBronze
}

// TierProgress describes where a partner sits on the ladder.
type TierProgress struct {
	Tier            models.Tier  `json:"tier"`
	NextTier        *models.Tier `json:"next_tier,omitempty"`
	ProgressPercent int64        `json:"progress_percent"`
	ReferralsToNext int64        `json:"referrals_to_next_tier"`
}

// ProgressFor computes tier, percent progress toward the next tier and the
// referrals still needed. Platinum has no next tier: progress 100, 0 to go.
func ProgressFor(totalReferrals int64) TierProgress {
	for i := len(tierLadder) - 1; i >= 0; i-- {
		if totalReferrals < tierLadder[i].Min {
			continue
		}
		if i == len(tierLadder)-1 {
			return TierProgress{Tier: tierLadder[i].Tier, ProgressPercent: 100}
		}
		next := tierLadder[i+1]
		pct := 100 * totalReferrals / next.Min
		if pct > 100 {
			pct = 100
		}
		toNext := next.Min - totalReferrals
		if toNext < 0 {
			toNext = 0
		}
		return TierProgress{
			Tier:            tierLadder[i].Tier,
			NextTier:        &next.Tier,
			ProgressPercent: pct,
			ReferralsToNext: toNext,
		}
	}
	return TierProgress{Tier: models.TierBronze}
}
