package services

import (
	"context"
	"errors"
	"testing"

	"clinic-partner-system/models"
)

func TestCasPartner_StaleVersionConflicts(t *testing.T) {
	db := newTestDB(t)
	p := seedPartner(t, db, "ugo")

	stale := reloadPartner(t, db, p.ID)

	// Another writer moves the aggregate first
	if err := db.Model(&models.Partner{}).Where("id = ?", p.ID).Update("version", stale.Version+1).Error; err != nil {
		t.Fatalf("bump version: %v", err)
	}

	stale.PendingEarnings = 12345
	if err := casPartner(db, stale); !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("got %v, want ErrConcurrencyConflict", err)
	}

	// The losing write must not have landed
	if got := reloadPartner(t, db, p.ID); got.PendingEarnings != 0 {
		t.Fatalf("stale write landed: pending = %d", got.PendingEarnings)
	}
}

func TestCasPartner_AdvancesVersion(t *testing.T) {
	db := newTestDB(t)
	p := seedPartner(t, db, "vera")

	fresh := reloadPartner(t, db, p.ID)
	fresh.PendingEarnings = 500
	fresh.TotalEarnings = 500
	if err := casPartner(db, fresh); err != nil {
		t.Fatalf("casPartner error: %v", err)
	}

	got := reloadPartner(t, db, p.ID)
	if got.Version != fresh.Version || got.PendingEarnings != 500 {
		t.Fatalf("after CAS version/pending = %d/%d, want %d/500", got.Version, got.PendingEarnings, fresh.Version)
	}
}

func TestWithBalanceRetry_RetriesConflictsOnly(t *testing.T) {
	calls := 0
	err := withBalanceRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return ErrConcurrencyConflict
		}
		return nil
	})
	if err != nil {
		t.Fatalf("got %v after retries, want nil", err)
	}
	if calls != 3 {
		t.Fatalf("fn called %d times, want 3", calls)
	}

	calls = 0
	err = withBalanceRetry(context.Background(), func() error {
		calls++
		return ErrConcurrencyConflict
	})
	if !errors.Is(err, ErrConcurrencyConflict) {
		t.Fatalf("got %v, want ErrConcurrencyConflict after exhausting retries", err)
	}
	if calls != balanceRetryAttempts {
		t.Fatalf("fn called %d times, want %d", calls, balanceRetryAttempts)
	}

	calls = 0
	other := errors.New("not a conflict")
	if err := withBalanceRetry(context.Background(), func() error {
		calls++
		return other
	}); !errors.Is(err, other) || calls != 1 {
		t.Fatalf("non-conflict error retried: err=%v calls=%d", err, calls)
	}
}

func TestWithBalanceRetry_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withBalanceRetry(ctx, func() error {
		calls++
		return ErrConcurrencyConflict
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("fn called %d times after cancel, want 1", calls)
	}
}
