package models

import "time"

// CouponLink associates a coupon code with exactly one partner at a time.
// Unlinking deletes the row outright so the code can be reassigned; the
// attribution history stays in the ledger entries that reference the code.
// Redemptions and Revenue are running totals maintained transactionally by
// ledger writes; the reconciliation sweep asserts they match the ledger fold.
type CouponLink struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	PartnerID string `gorm:"index;not null" json:"partner_id"`
	Code      string `gorm:"uniqueIndex;not null" json:"code"`

	Redemptions int64 `json:"redemptions" gorm:"default:0"`
	Revenue     int64 `json:"revenue" gorm:"default:0"` // minor units

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
