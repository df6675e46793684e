package services

import (
	"context"
	"testing"

	"clinic-partner-system/models"
)

func TestSummarize_MatchesMaintainedColumns(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	payouts := NewPayoutService(db)
	earnings := NewEarningsService(db)
	p := seedPartner(t, db, "rita")
	ctx := context.Background()

	for _, base := range []int64{10000, 30000} {
		if _, err := ledger.Record(ctx, p.ID, models.EventReferral, base, ""); err != nil {
			t.Fatalf("referral: %v", err)
		}
	}
	if _, err := payouts.ProcessPayout(ctx, p.ID, "PIX", "PIX-R1"); err != nil {
		t.Fatalf("payout: %v", err)
	}
	if _, err := ledger.Record(ctx, p.ID, models.EventBonus, 20000, ""); err != nil {
		t.Fatalf("bonus: %v", err)
	}

	sum, err := earnings.Summarize(ctx, p.ID)
	if err != nil {
		t.Fatalf("Summarize error: %v", err)
	}
	// 15% of 10000+30000 = 6000 paid; 15% of 20000 = 3000 pending
	if sum.Paid != 6000 || sum.Pending != 3000 || sum.Total != 9000 {
		t.Fatalf("fold = %+v, want total 9000 / pending 3000 / paid 6000", sum)
	}

	got := reloadPartner(t, db, p.ID)
	if sum.Total != got.TotalEarnings || sum.Pending != got.PendingEarnings || sum.Paid != got.PaidEarnings {
		t.Fatalf("fold %+v disagrees with maintained columns %d/%d/%d",
			sum, got.TotalEarnings, got.PendingEarnings, got.PaidEarnings)
	}
}

func TestSummarizeCoupon(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	partners := NewPartnerService(db)
	earnings := NewEarningsService(db)
	p := seedPartner(t, db, "sofia")
	ctx := context.Background()

	link, err := partners.LinkCoupon(ctx, p.ID, "SOFIA20")
	if err != nil {
		t.Fatalf("LinkCoupon: %v", err)
	}
	for _, base := range []int64{12000, 8000} {
		if _, err := ledger.Record(ctx, p.ID, models.EventReferral, base, link.Code); err != nil {
			t.Fatalf("referral: %v", err)
		}
	}
	// Uncouponed referral must not count toward the code
	if _, err := ledger.Record(ctx, p.ID, models.EventReferral, 99000, ""); err != nil {
		t.Fatalf("referral: %v", err)
	}

	stats, err := earnings.SummarizeCoupon(ctx, link.Code)
	if err != nil {
		t.Fatalf("SummarizeCoupon error: %v", err)
	}
	if stats.Redemptions != 2 || stats.Revenue != 20000 {
		t.Fatalf("coupon stats = %d/%d, want 2/20000", stats.Redemptions, stats.Revenue)
	}
	if stats.PartnerID != p.ID {
		t.Fatalf("coupon owner = %s, want %s", stats.PartnerID, p.ID)
	}
}

func TestReconcile_CleanAndDrifted(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	partners := NewPartnerService(db)
	earnings := NewEarningsService(db)
	p := seedPartner(t, db, "tiago")
	ctx := context.Background()

	link, err := partners.LinkCoupon(ctx, p.ID, "")
	if err != nil {
		t.Fatalf("LinkCoupon: %v", err)
	}
	if link.Code == "" {
		t.Fatal("generated coupon code is empty")
	}
	if _, err := ledger.Record(ctx, p.ID, models.EventReferral, 40000, link.Code); err != nil {
		t.Fatalf("referral: %v", err)
	}

	drifts, err := earnings.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	if len(drifts) != 0 {
		t.Fatalf("clean state reported drift: %+v", drifts)
	}

	// Corrupt the maintained balance behind the ledger's back
	if err := db.Model(&models.Partner{}).Where("id = ?", p.ID).Update("pending_earnings", 1).Error; err != nil {
		t.Fatalf("inject drift: %v", err)
	}
	drifts, err = earnings.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile error: %v", err)
	}
	found := false
	for _, d := range drifts {
		if d.Kind == "partner" && d.ID == p.ID && d.Field == "pending_earnings" {
			found = true
		}
	}
	if !found {
		t.Fatalf("injected pending_earnings drift not reported: %+v", drifts)
	}
}
