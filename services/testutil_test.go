package services

import (
	"path/filepath"
	"testing"

	"clinic-partner-system/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory database with the full schema.
// Single connection so every session sees the same memory DB.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return openTestDB(t, ":memory:", 1)
}

// newFileTestDB opens a file-backed database whose writers genuinely
// interleave: several connections, immediate transactions so each writer
// takes the write lock at BEGIN, and a busy timeout so contenders queue
// instead of failing.
func newFileTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "engine.db") + "?_txlock=immediate&_busy_timeout=10000"
	return openTestDB(t, dsn, 8)
}

func openTestDB(t *testing.T, dsn string, maxConns int) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(maxConns)

	if err := db.AutoMigrate(
		&models.Partner{},
		&models.ReferralEvent{},
		&models.CouponLink{},
		&models.Payout{},
		&models.PayoutRequest{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type partnerOpt func(*models.Partner)

func withFixedRule(amount int64) partnerOpt {
	return func(p *models.Partner) {
		p.CommissionType = models.CommissionFixed
		p.PercentRate = 0
		p.FixedAmount = amount
	}
}

func withStatus(status models.PartnerStatus) partnerOpt {
	return func(p *models.Partner) { p.Status = status }
}

// seedPartner creates an ACTIVE partner on a 15% rule unless overridden.
func seedPartner(t *testing.T, db *gorm.DB, name string, opts ...partnerOpt) *models.Partner {
	t.Helper()
	p := &models.Partner{
		ID:             uuid.NewString(),
		Name:           name,
		Email:          name + "@clinic.example",
		Type:           models.PartnerTypeIndividual,
		Status:         models.PartnerStatusActive,
		CommissionType: models.CommissionPercent,
		PercentRate:    15,
		Tier:           models.TierBronze,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed partner %s: %v", name, err)
	}
	return p
}

func reloadPartner(t *testing.T, db *gorm.DB, id string) *models.Partner {
	t.Helper()
	var p models.Partner
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("reload partner %s: %v", id, err)
	}
	return &p
}
