package services

import (
	"context"
	"errors"
	"time"

	"clinic-partner-system/models"

	"gorm.io/gorm"
)

const (
	balanceRetryAttempts = 3
	balanceRetryBackoff  = 25 * time.Millisecond
)

// casPartner persists the partner's counter/balance fields guarded by the
// version column. Zero rows affected means another transaction moved the
// aggregate first — reported as ErrConcurrencyConflict so the caller's
// whole transaction can be retried against fresh state.
func casPartner(tx *gorm.DB, p *models.Partner) error {
	res := tx.Model(&models.Partner{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"total_earnings":   p.TotalEarnings,
			"pending_earnings": p.PendingEarnings,
			"paid_earnings":    p.PaidEarnings,
			"total_referrals":  p.TotalReferrals,
			"active_referrals": p.ActiveReferrals,
			"coupons_linked":   p.CouponsLinked,
			"tier":             p.Tier,
			"last_payout_at":   p.LastPayoutAt,
			"version":          p.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrencyConflict
	}
	p.Version++
	return nil
}

// withBalanceRetry runs fn, retrying with backoff when it loses the
// optimistic race on the partner row. Any other outcome returns immediately.
func withBalanceRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < balanceRetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(balanceRetryBackoff * time.Duration(attempt)):
			}
		}
		err = fn()
		if !errors.Is(err, ErrConcurrencyConflict) {
			return err
		}
	}
	return err
}
