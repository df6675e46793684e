package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"clinic-partner-system/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PayoutService struct {
	DB *gorm.DB
	// Workers bounds batch concurrency (PAYOUT_BATCH_WORKERS, default 4)
	Workers int
}

func NewPayoutService(db *gorm.DB) *PayoutService {
	workers := 4
	if raw := os.Getenv("PAYOUT_BATCH_WORKERS"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			workers = n
		}
	}
	return &PayoutService{DB: db, Workers: workers}
}

// ProcessPayout settles everything currently pending for a partner. One
// transaction covers: payout record, PAYOUT debit entry, PENDING→PAID flips
// and the balance reset — a timed-out request commits none of it.
func (s *PayoutService) ProcessPayout(ctx context.Context, partnerID, method, reference string) (*models.Payout, error) {
	return s.payout(ctx, partnerID, method, reference, nil, nil)
}

// payout optionally bounds settlement to entries created inside
// [periodStart, periodEnd]; nil bounds settle the full pending balance.
// Entries landing outside the bounds stay pending for the next run — a
// referral racing a payout is included entirely or excluded entirely.
func (s *PayoutService) payout(ctx context.Context, partnerID, method, reference string, periodStart, periodEnd *time.Time) (*models.Payout, error) {
	var out *models.Payout
	err := withBalanceRetry(ctx, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var p models.Partner
			if err := tx.First(&p, "id = ?", partnerID).Error; err != nil {
				return err
			}

			earning := []models.EventType{models.EventReferral, models.EventBonus}
			scope := tx.Model(&models.ReferralEvent{}).
				Where("partner_id = ? AND type IN ? AND status = ?", p.ID, earning, models.EventPending)
			if periodStart != nil {
				scope = scope.Where("created_at >= ?", *periodStart)
			}
			if periodEnd != nil {
				scope = scope.Where("created_at < ?", *periodEnd)
			}
			// reusable condition set — Scan and Updates below each start clean
			scope = scope.Session(&gorm.Session{})

			var amount int64
			if err := scope.
				Select("COALESCE(SUM(commission_value), 0)").
				Scan(&amount).Error; err != nil {
				return err
			}
			if amount == 0 {
				return ErrNoPendingEarnings
			}

			payout := &models.Payout{
				ID:        uuid.NewString(),
				PartnerID: p.ID,
				Amount:    amount,
				Method:    method,
				Reference: reference,
				Status:    models.PayoutPending,
			}
			if err := tx.Create(payout).Error; err != nil {
				return err
			}

			if err := scope.Updates(map[string]interface{}{
				"status":    models.EventPaid,
				"payout_id": payout.ID,
			}).Error; err != nil {
				return err
			}

			// Debit entry keeps the ledger self-describing; already settled,
			// so it never feeds pending folds.
			debit := &models.ReferralEvent{
				ID:              uuid.NewString(),
				PartnerID:       p.ID,
				Type:            models.EventPayout,
				Status:          models.EventPaid,
				CommissionValue: -amount,
				PayoutID:        &payout.ID,
			}
			if err := tx.Create(debit).Error; err != nil {
				return err
			}

			now := time.Now()
			p.PendingEarnings -= amount
			p.PaidEarnings += amount
			p.LastPayoutAt = &now
			if err := casPartner(tx, &p); err != nil {
				return err
			}

			out = payout
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BatchOutcome is one partner's result inside a batch report. Partial
// failure is a first-class outcome — a failed partner never aborts the rest.
type BatchOutcome struct {
	PartnerID string         `json:"partner_id"`
	Succeeded bool           `json:"succeeded"`
	Payout    *models.Payout `json:"payout,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// BatchReport is the full per-partner outcome list of a batch run.
type BatchReport struct {
	IdempotencyKey string         `json:"idempotency_key"`
	Replayed       bool           `json:"replayed"`
	Succeeded      int            `json:"succeeded"`
	Failed         int            `json:"failed"`
	Outcomes       []BatchOutcome `json:"outcomes"`
}

// ProcessBatch pays out each partner independently over a bounded worker
// pool. The idempotency key pins the request: a replay with the same
// parameters returns the stored report without touching balances; the same
// key with different parameters is rejected.
func (s *PayoutService) ProcessBatch(ctx context.Context, idempotencyKey string, partnerIDs []string, method string, periodStart, periodEnd time.Time) (*BatchReport, error) {
	if idempotencyKey == "" {
		return nil, fmt.Errorf("idempotency key is required for batch payouts")
	}
	if len(partnerIDs) == 0 {
		return nil, fmt.Errorf("batch payout requires at least one partner")
	}

	fingerprint := batchFingerprint(partnerIDs, method, periodStart, periodEnd)

	var prev models.PayoutRequest
	err := s.DB.WithContext(ctx).First(&prev, "idempotency_key = ?", idempotencyKey).Error
	if err == nil {
		if prev.Fingerprint != fingerprint {
			return nil, ErrDuplicatePayoutRequest
		}
		return replayReport(idempotencyKey, prev.Report)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// zero bounds mean an un-bounded run (settle everything pending)
	var start, end *time.Time
	if !periodStart.IsZero() {
		start = &periodStart
	}
	if !periodEnd.IsZero() {
		end = &periodEnd
	}

	outcomes := make([]BatchOutcome, len(partnerIDs))
	sem := make(chan struct{}, s.Workers)
	var wg sync.WaitGroup
	for i, id := range partnerIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			reference := fmt.Sprintf("BATCH-%s-%d", idempotencyKey, i+1)
			payout, err := s.payout(ctx, id, method, reference, start, end)
			if err != nil {
				outcomes[i] = BatchOutcome{PartnerID: id, Error: err.Error()}
				return
			}
			outcomes[i] = BatchOutcome{PartnerID: id, Succeeded: true, Payout: payout}
		}(i, id)
	}
	wg.Wait()

	raw, err := json.Marshal(outcomes)
	if err != nil {
		return nil, err
	}
	req := &models.PayoutRequest{
		ID:             uuid.NewString(),
		IdempotencyKey: idempotencyKey,
		Fingerprint:    fingerprint,
		Report:         string(raw),
	}
	if err := s.DB.WithContext(ctx).Create(req).Error; err != nil {
		// Lost a race against a concurrent identical request — its stored
		// report is the authoritative one.
		var winner models.PayoutRequest
		if ferr := s.DB.WithContext(ctx).First(&winner, "idempotency_key = ?", idempotencyKey).Error; ferr == nil {
			if winner.Fingerprint != fingerprint {
				return nil, ErrDuplicatePayoutRequest
			}
			return replayReport(idempotencyKey, winner.Report)
		}
		return nil, err
	}

	report := buildReport(idempotencyKey, outcomes, false)
	log.Printf("[Payout] batch %s: %d succeeded, %d failed", idempotencyKey, report.Succeeded, report.Failed)
	return report, nil
}

func buildReport(key string, outcomes []BatchOutcome, replayed bool) *BatchReport {
	report := &BatchReport{IdempotencyKey: key, Replayed: replayed, Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Succeeded {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	return report
}

func replayReport(key, raw string) (*BatchReport, error) {
	var outcomes []BatchOutcome
	if err := json.Unmarshal([]byte(raw), &outcomes); err != nil {
		return nil, fmt.Errorf("corrupt stored batch report for key %s: %w", key, err)
	}
	return buildReport(key, outcomes, true), nil
}

// batchFingerprint hashes the request parameters so a reused idempotency key
// can be told apart from a genuine replay. Partner order is irrelevant.
func batchFingerprint(partnerIDs []string, method string, periodStart, periodEnd time.Time) string {
	ids := make([]string, len(partnerIDs))
	copy(ids, partnerIDs)
	sort.Strings(ids)
	payload := fmt.Sprintf("%s|%s|%d|%d", strings.Join(ids, ","), method, periodStart.Unix(), periodEnd.Unix())
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
