package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopswift/storefront/models"
	"github.com/shopswift/storefront/repository"
	"go.uber.org/zap"
)

// ServiceError represents a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// CouponService defines the interface for coupon business logic.
//
// Validate is read-only and idempotent; a coupon use is only consumed at
// order confirmation via the repository's Redeem inside the checkout
// transaction.
type CouponService interface {
	CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError)
	Validate(ctx context.Context, req *models.ValidateCouponRequest) (*models.ValidateCouponResponse, *ServiceError)
	GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError)
	DeactivateCoupon(ctx context.Context, code string) *ServiceError
	ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError)
}

type couponServiceImpl struct {
	repo   repository.CouponRepository
	now    func() time.Time
	logger *zap.Logger
}

// NewCouponService creates a new CouponService.
func NewCouponService(repo repository.CouponRepository, logger *zap.Logger) CouponService {
	return &couponServiceImpl{
		repo:   repo,
		now:    time.Now,
		logger: logger,
	}
}

// CreateCoupon creates a new coupon.
func (s *couponServiceImpl) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError) {
	if req.ExpiresAt.Before(s.now()) {
		return nil, &ServiceError{StatusCode: 400, Message: "Expiry date must be in the future"}
	}
	if req.Type == models.CouponTypePercentage && req.Value > 100 {
		return nil, &ServiceError{StatusCode: 400, Message: "Percentage discount cannot exceed 100"}
	}

	startsAt := req.StartsAt
	if startsAt.IsZero() {
		startsAt = s.now()
	}
	if !req.ExpiresAt.After(startsAt) {
		return nil, &ServiceError{StatusCode: 400, Message: "Expiry date must be after start date"}
	}

	coupon := &models.Coupon{
		Code:                 strings.ToUpper(req.Code),
		Type:                 req.Type,
		Value:                req.Value,
		MinOrderValue:        req.MinOrderValue,
		MaxDiscount:          req.MaxDiscount,
		UsageLimit:           req.UsageLimit,
		StartsAt:             startsAt,
		ExpiresAt:            req.ExpiresAt,
		Active:               true,
		ApplicableCategories: req.ApplicableCategories,
		ApplicableProducts:   req.ApplicableProducts,
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return nil, &ServiceError{StatusCode: 409, Message: "Coupon code already exists"}
		}
		s.logger.Error("Failed to create coupon", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create coupon"}
	}

	s.logger.Info("Coupon created", zap.String("code", coupon.Code), zap.String("type", string(coupon.Type)))
	return coupon, nil
}

// Validate checks a coupon against an order total and the order's category
// and product ids, and computes the discount. It never consumes a use.
func (s *couponServiceImpl) Validate(ctx context.Context, req *models.ValidateCouponRequest) (*models.ValidateCouponResponse, *ServiceError) {
	reject := func(msg string) (*models.ValidateCouponResponse, *ServiceError) {
		return &models.ValidateCouponResponse{Valid: false, Code: strings.ToUpper(req.Code), Message: msg}, nil
	}

	coupon, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil {
		return reject("Coupon not found")
	}
	if !coupon.Active {
		return reject("Coupon is not active")
	}

	now := s.now()
	if now.Before(coupon.StartsAt) {
		return reject("Coupon is not yet active")
	}
	if now.After(coupon.ExpiresAt) {
		return reject("Coupon has expired")
	}
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return reject("Coupon usage limit reached")
	}
	if req.OrderTotal < coupon.MinOrderValue {
		return reject(fmt.Sprintf("Minimum order value of %.2f required", coupon.MinOrderValue))
	}
	if len(coupon.ApplicableCategories) > 0 && !coupon.ApplicableCategories.ContainsAny(req.CategoryIDs) {
		return reject("Coupon does not apply to these categories")
	}
	if len(coupon.ApplicableProducts) > 0 && !coupon.ApplicableProducts.ContainsAny(req.ProductIDs) {
		return reject("Coupon does not apply to these products")
	}

	discount := CouponDiscount(coupon, req.OrderTotal)

	return &models.ValidateCouponResponse{
		Valid:          true,
		Code:           coupon.Code,
		Type:           coupon.Type,
		DiscountAmount: discount,
		Message:        "Coupon is valid",
	}, nil
}

// CouponDiscount computes the discount a coupon yields on an order total.
// Percentage discounts are clamped to MaxDiscount when set; fixed discounts
// never exceed the order total.
func CouponDiscount(coupon *models.Coupon, orderTotal float64) float64 {
	var discount float64
	switch coupon.Type {
	case models.CouponTypePercentage:
		discount = orderTotal * coupon.Value / 100
		if coupon.MaxDiscount > 0 && discount > coupon.MaxDiscount {
			discount = coupon.MaxDiscount
		}
	case models.CouponTypeFixed:
		discount = coupon.Value
	}
	if discount > orderTotal {
		discount = orderTotal
	}
	if discount < 0 {
		discount = 0
	}
	return discount
}

// GetCoupon retrieves a coupon by code.
func (s *couponServiceImpl) GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Coupon not found"}
	}
	return coupon, nil
}

// DeactivateCoupon deactivates a coupon by code.
func (s *couponServiceImpl) DeactivateCoupon(ctx context.Context, code string) *ServiceError {
	if err := s.repo.Deactivate(ctx, code); err != nil {
		if err.Error() == "record not found" {
			return &ServiceError{StatusCode: 404, Message: "Coupon not found"}
		}
		s.logger.Error("Failed to deactivate coupon", zap.String("code", code), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to deactivate coupon"}
	}

	s.logger.Info("Coupon deactivated", zap.String("code", code))
	return nil
}

// ListCoupons returns paginated coupons.
func (s *couponServiceImpl) ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError) {
	coupons, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list coupons", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list coupons"}
	}
	return coupons, total, nil
}
