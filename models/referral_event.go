package models

import "time"

// EventType distinguishes ledger entry kinds
type EventType string

const (
	EventReferral EventType = "REFERRAL"
	EventBonus    EventType = "BONUS"
	EventPayout   EventType = "PAYOUT" // written only by the payout processor
)

// EventStatus — the only permitted mutation is PENDING → PAID during a payout
type EventStatus string

const (
	EventPending EventStatus = "PENDING"
	EventPaid    EventStatus = "PAID"
)

// ReferralEvent is an append-only ledger fact. Once written it is never
// mutated except for the status transition settled by a payout.
type ReferralEvent struct {
	ID        string      `gorm:"primaryKey;type:uuid" json:"id"`
	PartnerID string      `gorm:"index;not null" json:"partner_id"`
	Type      EventType   `gorm:"not null;index" json:"type"`
	Status    EventStatus `gorm:"not null;default:'PENDING';index" json:"status"`

	CouponCode string `gorm:"index" json:"coupon_code,omitempty"`

	// Minor currency units. BaseValue may be 0 for non-sale bonuses;
	// CommissionValue is negative only on PAYOUT debits.
	BaseValue       int64 `json:"base_value" gorm:"default:0"`
	CommissionValue int64 `json:"commission_value" gorm:"default:0"`

	// Rule snapshot at event creation — historical entries are never
	// recalculated when the partner's rule changes.
	RuleType        CommissionType `json:"rule_type,omitempty"`
	RulePercentRate int64          `json:"rule_percent_rate,omitempty"`
	RuleFixedAmount int64          `json:"rule_fixed_amount,omitempty"`

	PayoutID *string `gorm:"index" json:"payout_id,omitempty"` // set when settled

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
