// services/scheduler.go
package services

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartReconciliationScheduler runs the aggregate-vs-ledger sweep on a
// fixed interval (RECONCILE_INTERVAL_MIN, default 10). The maintained
// partner/coupon totals must never drift from the ledger fold; any drift
// found here is a bug upstream and gets logged loudly.
func (s *EarningsService) StartReconciliationScheduler() {
	interval := 10
	if raw := os.Getenv("RECONCILE_INTERVAL_MIN"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			interval = n
		}
	}

	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(time.Duration(interval)*time.Minute),
		gocron.NewTask(func() {
			drifts, err := s.Reconcile(context.Background())
			if err != nil {
				log.Printf("[Reconcile] sweep failed: %v", err)
				return
			}
			if len(drifts) == 0 {
				log.Println("[Reconcile] aggregates match ledger fold")
				return
			}
			for _, d := range drifts {
				log.Printf("❌ [Reconcile] %s %s drifted on %s: stored=%s computed=%s",
					d.Kind, d.ID, d.Field, d.Stored, d.Computed)
			}
		}),
	)
}
