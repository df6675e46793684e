package services

import "errors"

// Closed error taxonomy for the commission engine. Handlers and batch
// callers match these with errors.Is — never by string.
var (
	// ErrInvalidRule — PERCENT rule without a usable rate, or FIXED rule
	// without an amount.
	ErrInvalidRule = errors.New("invalid commission rule")

	// ErrPartnerInactive — inactive partners cannot accrue new referrals.
	ErrPartnerInactive = errors.New("partner is inactive")

	// ErrNoPendingEarnings — payout attempted with a zero pending balance.
	// Reported as a no-op, not a fatal failure.
	ErrNoPendingEarnings = errors.New("partner has no pending earnings")

	// ErrConcurrencyConflict — optimistic-lock failure on the partner row.
	// Retried a bounded number of times before surfacing.
	ErrConcurrencyConflict = errors.New("concurrent update on partner balance")

	// ErrDuplicatePayoutRequest — idempotency key reused with different
	// parameters. A replay with matching parameters is NOT an error.
	ErrDuplicatePayoutRequest = errors.New("idempotency key reused with different parameters")

	// ErrCouponTaken — coupon codes belong to exactly one partner at a time.
	ErrCouponTaken = errors.New("coupon code already linked to a partner")

	// ErrCouponNotLinked — referral referenced a coupon the partner does not own.
	ErrCouponNotLinked = errors.New("coupon code not linked to this partner")
)
