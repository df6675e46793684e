package services

import (
	"context"
	"fmt"

	"clinic-partner-system/models"

	"gorm.io/gorm"
)

type EarningsService struct {
	DB *gorm.DB
}

func NewEarningsService(db *gorm.DB) *EarningsService {
	return &EarningsService{DB: db}
}

// EarningsSummary — minor currency units, total == pending + paid.
type EarningsSummary struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Paid    int64 `json:"paid"`
}

// CouponStats folds REFERRAL conversions attributed to a coupon code.
type CouponStats struct {
	Code        string `json:"code"`
	PartnerID   string `json:"partner_id"`
	Redemptions int64  `json:"redemptions"`
	Revenue     int64  `json:"revenue"`
}

// Summarize computes a partner's earnings as a live fold over the ledger.
// The denormalized partner columns must always agree with this fold; the
// reconciliation sweep asserts it.
func (s *EarningsService) Summarize(ctx context.Context, partnerID string) (*EarningsSummary, error) {
	var p models.Partner
	if err := s.DB.WithContext(ctx).Select("id").First(&p, "id = ?", partnerID).Error; err != nil {
		return nil, err
	}
	return s.foldPartner(ctx, partnerID)
}

func (s *EarningsService) foldPartner(ctx context.Context, partnerID string) (*EarningsSummary, error) {
	earning := []models.EventType{models.EventReferral, models.EventBonus}

	var pending, paid int64
	if err := s.DB.WithContext(ctx).Model(&models.ReferralEvent{}).
		Where("partner_id = ? AND type IN ? AND status = ?", partnerID, earning, models.EventPending).
		Select("COALESCE(SUM(commission_value), 0)").
		Scan(&pending).Error; err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(&models.ReferralEvent{}).
		Where("partner_id = ? AND type IN ? AND status = ?", partnerID, earning, models.EventPaid).
		Select("COALESCE(SUM(commission_value), 0)").
		Scan(&paid).Error; err != nil {
		return nil, err
	}

	return &EarningsSummary{Total: pending + paid, Pending: pending, Paid: paid}, nil
}

// SummarizeCoupon folds redemption count and attributed revenue for a code.
func (s *EarningsService) SummarizeCoupon(ctx context.Context, code string) (*CouponStats, error) {
	var link models.CouponLink
	if err := s.DB.WithContext(ctx).First(&link, "code = ?", code).Error; err != nil {
		return nil, err
	}
	stats, err := s.foldCoupon(ctx, code)
	if err != nil {
		return nil, err
	}
	stats.PartnerID = link.PartnerID
	return stats, nil
}

func (s *EarningsService) foldCoupon(ctx context.Context, code string) (*CouponStats, error) {
	var redemptions int64
	if err := s.DB.WithContext(ctx).Model(&models.ReferralEvent{}).
		Where("coupon_code = ? AND type = ?", code, models.EventReferral).
		Count(&redemptions).Error; err != nil {
		return nil, err
	}
	var revenue int64
	if err := s.DB.WithContext(ctx).Model(&models.ReferralEvent{}).
		Where("coupon_code = ? AND type = ?", code, models.EventReferral).
		Select("COALESCE(SUM(base_value), 0)").
		Scan(&revenue).Error; err != nil {
		return nil, err
	}
	return &CouponStats{Code: code, Redemptions: redemptions, Revenue: revenue}, nil
}

// Drift reports a maintained aggregate disagreeing with its ledger fold.
type Drift struct {
	Kind     string `json:"kind"` // "partner" or "coupon"
	ID       string `json:"id"`
	Field    string `json:"field"`
	Stored   string `json:"stored"`
	Computed string `json:"computed"`
}

// Reconcile compares every partner's and coupon's maintained totals against
// the ledger fold. Returns the drifting entries; an empty slice means the
// incremental aggregates have not diverged.
func (s *EarningsService) Reconcile(ctx context.Context) ([]Drift, error) {
	var drifts []Drift

	var partners []models.Partner
	if err := s.DB.WithContext(ctx).Find(&partners).Error; err != nil {
		return nil, err
	}
	for _, p := range partners {
		sum, err := s.foldPartner(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		if sum.Pending != p.PendingEarnings {
			drifts = append(drifts, Drift{Kind: "partner", ID: p.ID, Field: "pending_earnings", Stored: fmt.Sprint(p.PendingEarnings), Computed: fmt.Sprint(sum.Pending)})
		}
		if sum.Paid != p.PaidEarnings {
			drifts = append(drifts, Drift{Kind: "partner", ID: p.ID, Field: "paid_earnings", Stored: fmt.Sprint(p.PaidEarnings), Computed: fmt.Sprint(sum.Paid)})
		}
		if sum.Total != p.TotalEarnings {
			drifts = append(drifts, Drift{Kind: "partner", ID: p.ID, Field: "total_earnings", Stored: fmt.Sprint(p.TotalEarnings), Computed: fmt.Sprint(sum.Total)})
		}
		if want := ClassifyTier(p.TotalReferrals); p.Tier != want {
			drifts = append(drifts, Drift{Kind: "partner", ID: p.ID, Field: "tier", Stored: string(p.Tier), Computed: string(want)})
		}
	}

	var links []models.CouponLink
	if err := s.DB.WithContext(ctx).Find(&links).Error; err != nil {
		return nil, err
	}
	for _, l := range links {
		stats, err := s.foldCoupon(ctx, l.Code)
		if err != nil {
			return nil, err
		}
		if stats.Redemptions != l.Redemptions {
			drifts = append(drifts, Drift{Kind: "coupon", ID: l.Code, Field: "redemptions", Stored: fmt.Sprint(l.Redemptions), Computed: fmt.Sprint(stats.Redemptions)})
		}
		if stats.Revenue != l.Revenue {
			drifts = append(drifts, Drift{Kind: "coupon", ID: l.Code, Field: "revenue", Stored: fmt.Sprint(l.Revenue), Computed: fmt.Sprint(stats.Revenue)})
		}
	}

	return drifts, nil
}
