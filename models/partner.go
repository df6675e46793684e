package models

import (
	"time"

	"gorm.io/gorm"
)

// PartnerType classifies the referral source
type PartnerType string

const (
	PartnerTypeIndividual PartnerType = "INDIVIDUAL"
	PartnerTypeClinic     PartnerType = "CLINIC"
	PartnerTypeInfluencer PartnerType = "INFLUENCER"
	PartnerTypeCompany    PartnerType = "COMPANY"
)

// PartnerStatus is the lifecycle state of a partner
type PartnerStatus string

const (
	PartnerStatusActive   PartnerStatus = "ACTIVE"
	PartnerStatusPending  PartnerStatus = "PENDING"
	PartnerStatusInactive PartnerStatus = "INACTIVE"
)

// CommissionType selects how commission is derived from a sale
type CommissionType string

const (
	CommissionPercent CommissionType = "PERCENT"
	CommissionFixed   CommissionType = "FIXED"
)

// Tier is derived from TotalReferrals — never accepted from input
type Tier string

const (
	TierBronze   Tier = "BRONZE"
	TierSilver   Tier = "SILVER"
	TierGold     Tier = "GOLD"
	TierPlatinum Tier = "PLATINUM"
)

// Partner is the aggregate root for commission tracking (denormalized for performance).
// All monetary fields are integer minor currency units (cents).
type Partner struct {
	ID      string        `gorm:"primaryKey;type:uuid" json:"id"`
	Name    string        `gorm:"not null" json:"name"`
	Email   string        `gorm:"uniqueIndex;not null" json:"email"`
	Phone   string        `json:"phone"`
	Company string        `json:"company,omitempty"`
	Type    PartnerType   `gorm:"not null" json:"type"`
	Status  PartnerStatus `gorm:"not null;default:'PENDING';index" json:"status"`

	// Commission rule (captured onto each ledger entry at write time)
	CommissionType CommissionType `gorm:"not null" json:"commission_type"`
	PercentRate    int64          `json:"percent_rate" gorm:"default:0"` // 0–100, PERCENT rules
	FixedAmount    int64          `json:"fixed_amount" gorm:"default:0"` // minor units, FIXED rules

	// Earnings snapshot — invariant: TotalEarnings == PendingEarnings + PaidEarnings
	TotalEarnings   int64 `json:"total_earnings" gorm:"default:0"`
	PendingEarnings int64 `json:"pending_earnings" gorm:"default:0"`
	PaidEarnings    int64 `json:"paid_earnings" gorm:"default:0"`

	// Referral counters
	TotalReferrals  int64 `json:"total_referrals" gorm:"default:0"`
	ActiveReferrals int64 `json:"active_referrals" gorm:"default:0"`
	CouponsLinked   int64 `json:"coupons_linked" gorm:"default:0"`

	// Recomputed from TotalReferrals on every counter write
	Tier Tier `gorm:"not null;default:'BRONZE'" json:"tier"`

	// Optimistic lock — balance updates compare-and-swap on this
	Version int64 `gorm:"not null;default:0" json:"-"`

	LastPayoutAt *time.Time `json:"last_payout_at,omitempty"`

	Timestamps
}

// Rule extracts the partner's current commission rule
func (p *Partner) Rule() CommissionRule {
	return CommissionRule{
		Type:        p.CommissionType,
		PercentRate: p.PercentRate,
		FixedAmount: p.FixedAmount,
	}
}

// CommissionRule is the value-object form of a partner's rule
type CommissionRule struct {
	Type        CommissionType `json:"type"`
	PercentRate int64          `json:"percent_rate"`
	FixedAmount int64          `json:"fixed_amount"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
