package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"clinic-partner-system/models"
	"clinic-partner-system/utils"

	"gorm.io/gorm"
)

// SettlementSyncClient polls the payment provider for confirmed transfers.
// Payouts commit internally before the money moves; this worker closes the
// loop by flipping them to COMPLETED once the provider confirms.
type SettlementSyncClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
	DB         *gorm.DB
}

func NewSettlementSyncClient(db *gorm.DB) *SettlementSyncClient {
	baseURL := os.Getenv("SETTLEMENT_SERVICE_URL")
	if baseURL == "" {
		log.Fatal("SETTLEMENT_SERVICE_URL environment variable is required")
	}
	token := os.Getenv("PARTNER_SERVICE_TOKEN")
	if token == "" {
		log.Fatal("PARTNER_SERVICE_TOKEN environment variable is required for settlement sync")
	}

	return &SettlementSyncClient{
		BaseURL:    baseURL,
		Token:      token,
		DB:         db,
		HTTPClient: utils.HTTPClient,
	}
}

// SettlementConfirmation is the provider's view of one finished transfer.
type SettlementConfirmation struct {
	Reference string    `json:"reference"`
	SettledAt time.Time `json:"settled_at"`
}

func (c *SettlementSyncClient) GetConfirmedSettlements(ctx context.Context, since time.Time) ([]SettlementConfirmation, error) {
	since = since.UTC()

	u, err := url.Parse(fmt.Sprintf("%s/api/v1/public/settlements", c.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}

	q := u.Query()
	q.Set("since", since.Format(time.RFC3339))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call settlement service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("settlement service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Settlements []SettlementConfirmation `json:"settlements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode settlement service response: %w", err)
	}

	return response.Settlements, nil
}

// markCompleted flips a pending payout matched by provider reference.
func (c *SettlementSyncClient) markCompleted(conf SettlementConfirmation) error {
	settledAt := conf.SettledAt
	if settledAt.IsZero() {
		settledAt = time.Now().UTC()
	}
	res := c.DB.Model(&models.Payout{}).
		Where("reference = ? AND status = ?", conf.Reference, models.PayoutPending).
		Updates(map[string]interface{}{
			"status":     models.PayoutCompleted,
			"settled_at": settledAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// already completed or unknown reference — safe to skip
		return nil
	}
	log.Printf("✅ [SETTLEMENT] payout %s confirmed", conf.Reference)
	return nil
}

// PollSettlements runs until ctx is cancelled.
func PollSettlements(ctx context.Context, client *SettlementSyncClient, pollInterval time.Duration) {
	log.Println("Starting settlement polling...")
	lastSyncTime := time.Now().UTC().Add(-24 * time.Hour)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Settlement polling stopped.")
			return
		case <-ticker.C:
			syncStart := time.Now().UTC()
			confirmations, err := client.GetConfirmedSettlements(ctx, lastSyncTime)
			if err != nil {
				log.Printf("[SETTLEMENT] poll failed: %v", err)
				continue
			}
			for _, conf := range confirmations {
				if err := client.markCompleted(conf); err != nil {
					log.Printf("[SETTLEMENT] failed to mark %s completed: %v", conf.Reference, err)
				}
			}
			lastSyncTime = syncStart
		}
	}
}
