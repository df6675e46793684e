package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"clinic-partner-system/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type PartnerService struct {
	DB *gorm.DB
}

func NewPartnerService(db *gorm.DB) *PartnerService {
	return &PartnerService{DB: db}
}

// CreatePartnerInput — tier is never accepted from input, it is derived.
type CreatePartnerInput struct {
	Name    string                `json:"name"`
	Email   string                `json:"email"`
	Phone   string                `json:"phone"`
	Company string                `json:"company"`
	Type    models.PartnerType    `json:"type"`
	Status  models.PartnerStatus  `json:"status"`
	Rule    models.CommissionRule `json:"rule"`
}

func (s *PartnerService) CreatePartner(ctx context.Context, in CreatePartnerInput) (*models.Partner, error) {
	if in.Name == "" || in.Email == "" {
		return nil, fmt.Errorf("partner name and email are required")
	}
	switch in.Type {
	case models.PartnerTypeIndividual, models.PartnerTypeClinic, models.PartnerTypeInfluencer, models.PartnerTypeCompany:
	default:
		return nil, fmt.Errorf("unknown partner type %q", in.Type)
	}
	if in.Status == "" {
		in.Status = models.PartnerStatusPending
	}
	if err := validStatus(in.Status); err != nil {
		return nil, err
	}
	if err := ValidateRule(in.Rule); err != nil {
		return nil, err
	}

	p := &models.Partner{
		ID:             uuid.NewString(),
		Name:           in.Name,
		Email:          in.Email,
		Phone:          in.Phone,
		Company:        in.Company,
		Type:           in.Type,
		Status:         in.Status,
		CommissionType: in.Rule.Type,
		PercentRate:    in.Rule.PercentRate,
		FixedAmount:    in.Rule.FixedAmount,
		Tier:           ClassifyTier(0),
	}
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PartnerService) GetPartner(ctx context.Context, id string) (*models.Partner, error) {
	var p models.Partner
	if err := s.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPartners filters by status/type, newest first, paginated.
func (s *PartnerService) ListPartners(ctx context.Context, status models.PartnerStatus, ptype models.PartnerType, page, size int) ([]models.Partner, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	q := s.DB.WithContext(ctx).Model(&models.Partner{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if ptype != "" {
		q = q.Where("type = ?", ptype)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var partners []models.Partner
	err := q.Order("created_at DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&partners).Error
	return partners, total, err
}

// UpdateRule swaps the partner's commission rule. Existing ledger entries
// keep the rule they were written under; only future events use the new one.
func (s *PartnerService) UpdateRule(ctx context.Context, id string, rule models.CommissionRule) (*models.Partner, error) {
	if err := ValidateRule(rule); err != nil {
		return nil, err
	}
	var p models.Partner
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&p).Updates(map[string]interface{}{
			"commission_type": rule.Type,
			"percent_rate":    rule.PercentRate,
			"fixed_amount":    rule.FixedAmount,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PartnerService) UpdateStatus(ctx context.Context, id string, status models.PartnerStatus) (*models.Partner, error) {
	if err := validStatus(status); err != nil {
		return nil, err
	}
	var p models.Partner
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&p).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LinkCoupon attaches a coupon code to a partner. An empty code gets one
// generated from the partner's name. Codes have exactly one owner at a time.
func (s *PartnerService) LinkCoupon(ctx context.Context, partnerID, code string) (*models.CouponLink, error) {
	var link *models.CouponLink
	err := withBalanceRetry(ctx, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var p models.Partner
			if err := tx.First(&p, "id = ?", partnerID).Error; err != nil {
				return err
			}

			c := code
			if c == "" {
				c = generateCouponCode(p.Name)
			} else {
				c = strings.ToUpper(strings.TrimSpace(c))
			}

			var existing models.CouponLink
			err := tx.First(&existing, "code = ?", c).Error
			if err == nil {
				return ErrCouponTaken
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			link = &models.CouponLink{
				ID:        uuid.NewString(),
				PartnerID: p.ID,
				Code:      c,
			}
			if err := tx.Create(link).Error; err != nil {
				// lost a race against a concurrent link of the same code —
				// the unique index is the real arbiter
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrCouponTaken
				}
				return err
			}

			p.CouponsLinked++
			return casPartner(tx, &p)
		})
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

// UnlinkCoupon frees the code for reassignment. Ledger entries referencing
// it keep their attribution.
func (s *PartnerService) UnlinkCoupon(ctx context.Context, partnerID, code string) error {
	return withBalanceRetry(ctx, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var p models.Partner
			if err := tx.First(&p, "id = ?", partnerID).Error; err != nil {
				return err
			}

			var link models.CouponLink
			if err := tx.First(&link, "code = ? AND partner_id = ?", strings.ToUpper(strings.TrimSpace(code)), partnerID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCouponNotLinked
				}
				return err
			}
			if err := tx.Delete(&link).Error; err != nil {
				return err
			}

			p.CouponsLinked--
			return casPartner(tx, &p)
		})
	})
}

func (s *PartnerService) ListCoupons(ctx context.Context, partnerID string) ([]models.CouponLink, error) {
	var links []models.CouponLink
	err := s.DB.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("created_at ASC").
		Find(&links).Error
	return links, err
}

func validStatus(status models.PartnerStatus) error {
	switch status {
	case models.PartnerStatusActive, models.PartnerStatusPending, models.PartnerStatusInactive:
		return nil
	default:
		return fmt.Errorf("unknown partner status %q", status)
	}
}

// generateCouponCode builds e.g. "DRA-ANA-SILVA-3F2A" from the partner name.
func generateCouponCode(name string) string {
	base := strings.ToUpper(slug.Make(name))
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}
