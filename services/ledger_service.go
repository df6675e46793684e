package services

import (
	"context"
	"errors"
	"fmt"

	"clinic-partner-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LedgerService struct {
	DB *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{DB: db}
}

// Record appends a referral or bonus to the ledger and moves the partner
// aggregate in the same transaction: counters, pending/total earnings, tier
// recompute and coupon running totals all commit together or not at all.
// The partner's current rule is captured onto the entry — later rule changes
// never recalculate history.
func (s *LedgerService) Record(ctx context.Context, partnerID string, eventType models.EventType, baseValue int64, couponCode string) (*models.ReferralEvent, error) {
	if eventType != models.EventReferral && eventType != models.EventBonus {
		return nil, fmt.Errorf("ledger entries of type %s cannot be recorded directly", eventType)
	}
	if baseValue < 0 {
		return nil, fmt.Errorf("base value must be >= 0, got %d", baseValue)
	}

	var out *models.ReferralEvent
	err := withBalanceRetry(ctx, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var p models.Partner
			if err := tx.First(&p, "id = ?", partnerID).Error; err != nil {
				return err
			}
			if p.Status == models.PartnerStatusInactive {
				return ErrPartnerInactive
			}

			commission, err := ComputeCommission(p.Rule(), baseValue)
			if err != nil {
				return err
			}

			if couponCode != "" {
				var link models.CouponLink
				if err := tx.First(&link, "code = ?", couponCode).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return ErrCouponNotLinked
					}
					return err
				}
				if link.PartnerID != p.ID {
					return ErrCouponNotLinked
				}
				// Redemptions count REFERRAL conversions only; bonuses
				// attributed to a coupon do not move its totals.
				if eventType == models.EventReferral {
					if err := tx.Model(&models.CouponLink{}).
						Where("id = ?", link.ID).
						Updates(map[string]interface{}{
							"redemptions": gorm.Expr("redemptions + 1"),
							"revenue":     gorm.Expr("revenue + ?", baseValue),
						}).Error; err != nil {
						return err
					}
				}
			}

			ev := &models.ReferralEvent{
				ID:              uuid.NewString(),
				PartnerID:       p.ID,
				Type:            eventType,
				Status:          models.EventPending,
				CouponCode:      couponCode,
				BaseValue:       baseValue,
				CommissionValue: commission,
				RuleType:        p.CommissionType,
				RulePercentRate: p.PercentRate,
				RuleFixedAmount: p.FixedAmount,
			}
			if err := tx.Create(ev).Error; err != nil {
				return err
			}

			p.TotalReferrals++
			if eventType == models.EventReferral {
				p.ActiveReferrals++
			}
			p.PendingEarnings += commission
			p.TotalEarnings += commission
			p.Tier = ClassifyTier(p.TotalReferrals)

			if err := casPartner(tx, &p); err != nil {
				return err
			}

			out = ev
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// History returns a partner's ledger entries, newest first, paginated.
func (s *LedgerService) History(ctx context.Context, partnerID string, page, size int) ([]models.ReferralEvent, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.ReferralEvent{}).
		Where("partner_id = ?", partnerID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []models.ReferralEvent
	err := s.DB.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&events).Error
	return events, total, err
}

// Export returns the partner's full ledger in chronological order, for
// statement generation. No pagination: statements must cover every entry.
func (s *LedgerService) Export(ctx context.Context, partnerID string) ([]models.ReferralEvent, error) {
	var events []models.ReferralEvent
	err := s.DB.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}
