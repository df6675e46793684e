package services

import (
	"testing"

	"clinic-partner-system/models"
)

func TestClassifyTier_DefaultThresholds(t *testing.T) {
	cases := []struct {
		referrals int64
		want      models.Tier
	}{
		{0, models.TierBronze},
		{24, models.TierBronze},
		{25, models.TierSilver},
		{49, models.TierSilver},
		{50, models.TierGold},
		{99, models.TierGold},
		{100, models.TierPlatinum},
		{100000, models.TierPlatinum},
	}
	for _, tc := range cases {
		if got := ClassifyTier(tc.referrals); got != tc.want {
			t.Fatalf("ClassifyTier(%d) = %s, want %s", tc.referrals, got, tc.want)
		}
	}
}

func TestProgressFor_EdgeOfSilver(t *testing.T) {
	// 24 referrals: one more to Silver
	prog := ProgressFor(24)
	if prog.Tier != models.TierBronze {
		t.Fatalf("tier = %s, want BRONZE", prog.Tier)
	}
	if prog.ReferralsToNext != 1 {
		t.Fatalf("referrals to next = %d, want 1", prog.ReferralsToNext)
	}
	if prog.NextTier == nil || *prog.NextTier != models.TierSilver {
		t.Fatalf("next tier = %v, want SILVER", prog.NextTier)
	}
	if prog.ProgressPercent != 96 { // 100*24/25
		t.Fatalf("progress = %d, want 96", prog.ProgressPercent)
	}

	// One more referral crosses into Silver, 25 to Gold
	prog = ProgressFor(25)
	if prog.Tier != models.TierSilver {
		t.Fatalf("tier = %s, want SILVER", prog.Tier)
	}
	if prog.ReferralsToNext != 25 {
		t.Fatalf("referrals to next = %d, want 25", prog.ReferralsToNext)
	}
}

func TestProgressFor_PlatinumIsTerminal(t *testing.T) {
	prog := ProgressFor(250)
	if prog.Tier != models.TierPlatinum {
		t.Fatalf("tier = %s, want PLATINUM", prog.Tier)
	}
	if prog.ProgressPercent != 100 || prog.ReferralsToNext != 0 {
		t.Fatalf("platinum progress = %d/%d, want 100/0", prog.ProgressPercent, prog.ReferralsToNext)
	}
	if prog.NextTier != nil {
		t.Fatalf("platinum has no next tier, got %v", *prog.NextTier)
	}
}

func TestConfigureTierThresholds(t *testing.T) {
	defer func() {
		if err := ConfigureTierThresholds(25, 50, 100); err != nil {
			t.Fatalf("restore defaults: %v", err)
		}
	}()

	if err := ConfigureTierThresholds(10, 20, 30); err != nil {
		t.Fatalf("valid thresholds rejected: %v", err)
	}
	if got := ClassifyTier(10); got != models.TierSilver {
		t.Fatalf("after reconfigure ClassifyTier(10) = %s, want SILVER", got)
	}

	for _, tc := range [][3]int64{
		{0, 20, 30},   // non-positive
		{10, 10, 30},  // not increasing
		{10, 20, 20},  // not increasing
		{30, 20, 10},  // reversed
	} {
		if err := ConfigureTierThresholds(tc[0], tc[1], tc[2]); err == nil {
			t.Fatalf("thresholds %v accepted, want error", tc)
		}
	}
}
