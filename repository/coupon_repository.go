package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/shopswift/storefront/models"
	"gorm.io/gorm"
)

// ErrCouponExhausted is returned when a redemption would exceed the usage limit.
var ErrCouponExhausted = errors.New("coupon usage limit reached")

// CouponRepository defines the interface for coupon data access.
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	// Redeem consumes one use of the coupon. The increment is conditional on
	// the usage limit so concurrent checkouts cannot over-redeem.
	Redeem(ctx context.Context, code string) error
	Deactivate(ctx context.Context, code string) error
	FindAll(ctx context.Context, page, limit int) ([]models.Coupon, int64, error)
}

// GormCouponRepository implements CouponRepository using GORM.
type GormCouponRepository struct {
	db *gorm.DB
}

// NewGormCouponRepository creates a new GormCouponRepository.
func NewGormCouponRepository(db *gorm.DB) CouponRepository {
	return &GormCouponRepository{db: db}
}

// Create inserts a new coupon into the database.
func (r *GormCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	return r.db.WithContext(ctx).Create(coupon).Error
}

// FindByCode retrieves a coupon by its code. Codes are stored upper-case,
// so the lookup upper-cases the input first.
func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&coupon).Error
	if err != nil {
		return nil, err
	}
	return &coupon, nil
}

// Redeem atomically increments used_count, but only while the usage limit
// is not exhausted. Returns ErrCouponExhausted when no row qualifies.
func (r *GormCouponRepository) Redeem(ctx context.Context, code string) error {
	return r.redeemTx(r.db.WithContext(ctx), code)
}

func (r *GormCouponRepository) redeemTx(tx *gorm.DB, code string) error {
	result := tx.
		Model(&models.Coupon{}).
		Where("code = ? AND active = ? AND (usage_limit = 0 OR used_count < usage_limit)",
			strings.ToUpper(code), true).
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCouponExhausted
	}
	return nil
}

// Deactivate sets active = false on a coupon.
func (r *GormCouponRepository) Deactivate(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("code = ?", strings.ToUpper(code)).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindAll retrieves paginated coupons, newest first.
func (r *GormCouponRepository) FindAll(ctx context.Context, page, limit int) ([]models.Coupon, int64, error) {
	var coupons []models.Coupon
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Coupon{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&coupons).Error; err != nil {
		return nil, 0, err
	}

	return coupons, total, nil
}
