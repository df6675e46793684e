package services

import "clinic-partner-system/models"

// ComputeCommission derives the commission (minor currency units) a single
// event is worth under the given rule. PERCENT rules round half-up on the
// minor unit in pure integer math so results are reproducible; FIXED rules
// pay the configured amount regardless of sale size, even for baseValue 0.
// Pure function, no side effects.
func ComputeCommission(rule models.CommissionRule, baseValue int64) (int64, error) {
	switch rule.Type {
	case models.CommissionPercent:
		if rule.PercentRate <= 0 || rule.PercentRate > 100 {
			return 0, ErrInvalidRule
		}
		return (baseValue*rule.PercentRate + 50) / 100, nil
	case models.CommissionFixed:
		if rule.FixedAmount <= 0 {
			return 0, ErrInvalidRule
		}
		return rule.FixedAmount, nil
	default:
		return 0, ErrInvalidRule
	}
}

// ValidateRule checks a rule without applying it to a sale.
func ValidateRule(rule models.CommissionRule) error {
	_, err := ComputeCommission(rule, 0)
	return err
}
