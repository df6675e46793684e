package models

import "time"

// PayoutStatus — COMPLETED is set asynchronously once the settlement
// service confirms the transfer; internal balances commit before that.
type PayoutStatus string

const (
	PayoutPending   PayoutStatus = "PENDING"
	PayoutCompleted PayoutStatus = "COMPLETED"
)

// Payout is an immutable settlement record. Creating one is the only
// operation that flips PENDING ledger entries to PAID and zeroes the
// partner's pending balance.
type Payout struct {
	ID        string       `gorm:"primaryKey;type:uuid" json:"id"`
	PartnerID string       `gorm:"index;not null" json:"partner_id"`
	Amount    int64        `gorm:"not null" json:"amount"` // minor units
	Method    string       `gorm:"not null" json:"method"` // e.g. PIX, TED
	Reference string       `gorm:"not null" json:"reference"`
	Status    PayoutStatus `gorm:"not null;default:'PENDING';index" json:"status"`

	SettledAt *time.Time `json:"settled_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// PayoutRequest backs batch-payout idempotency: one row per idempotency key,
// holding a fingerprint of the request parameters and the serialized outcome
// report. A replay with the same fingerprint returns the stored report.
type PayoutRequest struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	IdempotencyKey string    `gorm:"uniqueIndex;not null" json:"idempotency_key"`
	Fingerprint    string    `gorm:"not null" json:"fingerprint"`
	Report         string    `gorm:"type:text;not null" json:"report"` // JSON outcome list
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
}
