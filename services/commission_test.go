package services

import (
	"errors"
	"testing"

	"clinic-partner-system/models"
)

func TestComputeCommission_PercentRule(t *testing.T) {
	rule := models.CommissionRule{Type: models.CommissionPercent, PercentRate: 15}

	got, err := ComputeCommission(rule, 50000)
	if err != nil {
		t.Fatalf("ComputeCommission error: %v", err)
	}
	if got != 7500 {
		t.Fatalf("15%% of 50000 = %d, want 7500", got)
	}
}

func TestComputeCommission_RoundsHalfUp(t *testing.T) {
	cases := []struct {
		rate, base, want int64
	}{
		{15, 333, 50},  // 49.95 → 50
		{5, 10, 1},     // 0.50 → 1
		{5, 9, 0},      // 0.45 → 0
		{33, 100, 33},  // exact
		{100, 999, 999},
		{15, 0, 0},
	}
	for _, tc := range cases {
		rule := models.CommissionRule{Type: models.CommissionPercent, PercentRate: tc.rate}
		got, err := ComputeCommission(rule, tc.base)
		if err != nil {
			t.Fatalf("rate %d base %d: %v", tc.rate, tc.base, err)
		}
		if got != tc.want {
			t.Fatalf("rate %d base %d = %d, want %d", tc.rate, tc.base, got, tc.want)
		}
	}
}

func TestComputeCommission_FixedRuleIgnoresSaleSize(t *testing.T) {
	rule := models.CommissionRule{Type: models.CommissionFixed, FixedAmount: 5000}

	for _, base := range []int64{0, 1, 999999} {
		got, err := ComputeCommission(rule, base)
		if err != nil {
			t.Fatalf("base %d: %v", base, err)
		}
		if got != 5000 {
			t.Fatalf("fixed commission for base %d = %d, want 5000", base, got)
		}
	}
}

func TestComputeCommission_InvalidRules(t *testing.T) {
	cases := []models.CommissionRule{
		{Type: models.CommissionPercent},                    // no rate
		{Type: models.CommissionPercent, PercentRate: 101},  // out of range
		{Type: models.CommissionPercent, PercentRate: -5},   // negative
		{Type: models.CommissionFixed},                      // no amount
		{Type: models.CommissionFixed, FixedAmount: -100},   // negative
		{Type: "STAIRSTEP"},                                 // unknown type
	}
	for _, rule := range cases {
		if _, err := ComputeCommission(rule, 1000); !errors.Is(err, ErrInvalidRule) {
			t.Fatalf("rule %+v: got %v, want ErrInvalidRule", rule, err)
		}
	}
}
