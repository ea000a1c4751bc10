package services_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/shopswift/storefront/models"
	"github.com/shopswift/storefront/repository"
	"github.com/shopswift/storefront/services"
)

// --- Mock Repository ---

type mockCouponRepo struct {
	coupons map[string]*models.Coupon
}

func newMockCouponRepo() *mockCouponRepo {
	return &mockCouponRepo{coupons: make(map[string]*models.Coupon)}
}

func (m *mockCouponRepo) Create(_ context.Context, c *models.Coupon) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.coupons[c.Code] = c
	return nil
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*models.Coupon, error) {
	c, ok := m.coupons[strings.ToUpper(code)]
	if !ok {
		return nil, &mockNotFoundError{}
	}
	return c, nil
}

func (m *mockCouponRepo) Redeem(_ context.Context, code string) error {
	c, ok := m.coupons[strings.ToUpper(code)]
	if !ok {
		return &mockNotFoundError{}
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return repository.ErrCouponExhausted
	}
	c.UsedCount++
	return nil
}

func (m *mockCouponRepo) Deactivate(_ context.Context, code string) error {
	c, ok := m.coupons[strings.ToUpper(code)]
	if !ok {
		return &mockNotFoundError{}
	}
	c.Active = false
	return nil
}

func (m *mockCouponRepo) FindAll(_ context.Context, _, _ int) ([]models.Coupon, int64, error) {
	var result []models.Coupon
	for _, c := range m.coupons {
		result = append(result, *c)
	}
	return result, int64(len(result)), nil
}

type mockNotFoundError struct{}

func (e *mockNotFoundError) Error() string { return "record not found" }

// --- Helpers ---

func newTestCouponService(repo repository.CouponRepository) services.CouponService {
	return services.NewCouponService(repo, zap.NewNop())
}

func activeCoupon(code string, couponType models.CouponType, value float64) *models.Coupon {
	return &models.Coupon{
		ID:        uuid.New(),
		Code:      code,
		Type:      couponType,
		Value:     value,
		StartsAt:  time.Now().Add(-time.Hour),
		ExpiresAt: time.Now().Add(24 * time.Hour),
		Active:    true,
	}
}

// --- Tests ---

func TestCouponService_CreateCoupon_Success(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	coupon, svcErr := svc.CreateCoupon(context.Background(), &models.CreateCouponRequest{
		Code:       "save10",
		Type:       models.CouponTypePercentage,
		Value:      10,
		ExpiresAt:  time.Now().Add(24 * time.Hour),
		UsageLimit: 100,
	})

	assert.Nil(t, svcErr)
	assert.NotNil(t, coupon)
	assert.Equal(t, "SAVE10", coupon.Code, "code is uppercased")
	assert.True(t, coupon.Active)
}

func TestCouponService_CreateCoupon_ExpiredDate(t *testing.T) {
	svc := newTestCouponService(newMockCouponRepo())

	_, svcErr := svc.CreateCoupon(context.Background(), &models.CreateCouponRequest{
		Code:      "OLD",
		Type:      models.CouponTypeFixed,
		Value:     5,
		ExpiresAt: time.Now().Add(-time.Hour),
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestCouponService_CreateCoupon_PercentageOver100(t *testing.T) {
	svc := newTestCouponService(newMockCouponRepo())

	_, svcErr := svc.CreateCoupon(context.Background(), &models.CreateCouponRequest{
		Code:      "TOOMUCH",
		Type:      models.CouponTypePercentage,
		Value:     150,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestCouponService_Validate_Percentage(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	_ = repo.Create(context.Background(), activeCoupon("TENOFF", models.CouponTypePercentage, 10))

	resp, svcErr := svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:       "TENOFF",
		OrderTotal: 100,
	})

	assert.Nil(t, svcErr)
	assert.True(t, resp.Valid)
	assert.Equal(t, 10.0, resp.DiscountAmount)
}

func TestCouponService_Validate_PercentageCappedAtMaxDiscount(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	coupon := activeCoupon("SAVE20", models.CouponTypePercentage, 20)
	coupon.MaxDiscount = 150
	_ = repo.Create(context.Background(), coupon)

	resp, svcErr := svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:       "SAVE20",
		OrderTotal: 1000,
	})

	assert.Nil(t, svcErr)
	assert.True(t, resp.Valid)
	assert.Equal(t, 150.0, resp.DiscountAmount, "20% of 1000 capped at max discount")
}

func TestCouponService_Validate_FixedCappedAtOrderTotal(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	_ = repo.Create(context.Background(), activeCoupon("BIGSAVE", models.CouponTypeFixed, 200))

	resp, svcErr := svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:       "BIGSAVE",
		OrderTotal: 50,
	})

	assert.Nil(t, svcErr)
	assert.True(t, resp.Valid)
	assert.Equal(t, 50.0, resp.DiscountAmount, "fixed discount capped at order total")
}

func TestCouponService_Validate_NotFound(t *testing.T) {
	svc := newTestCouponService(newMockCouponRepo())

	resp, svcErr := svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:       "NOPE",
		OrderTotal: 100,
	})

	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "not found")
}

func TestCouponService_Validate_Inactive(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	coupon := activeCoupon("GONE", models.CouponTypeFixed, 10)
	coupon.Active = false
	_ = repo.Create(context.Background(), coupon)

	resp, svcErr := svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:       "GONE",
		OrderTotal: 100,
	})

	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "not active")
}

func TestCouponService_Validate_NotYetStarted(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	coupon := activeCoupon("SOON", models.CouponTypeFixed, 10)
	coupon.StartsAt = time.Now().Add(time.Hour)
	_ = repo.Create(context.Background(), coupon)

	resp, svcErr := svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:       "SOON",
		OrderTotal: 100,
	})

	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "not yet active")
}

func TestCouponService_Validate_Expired(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	coupon := activeCoupon("LATE", models.CouponTypeFixed, 10)
	coupon.StartsAt = time.Now().Add(-48 * time.Hour)
	coupon.ExpiresAt = time.Now().Add(-time.Hour)
	_ = repo.Create(context.Background(), coupon)

	resp, svcErr := svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:       "LATE",
		OrderTotal: 100,
	})

	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "expired")
}

func TestCouponService_Validate_UsageLimitBoundary(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	coupon := activeCoupon("LIMITED", models.CouponTypePercentage, 5)
	coupon.UsageLimit = 10
	coupon.UsedCount = 9
	_ = repo.Create(context.Background(), coupon)

	// One use left: still valid.
	resp, svcErr := svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:       "LIMITED",
		OrderTotal: 100,
	})
	assert.Nil(t, svcErr)
	assert.True(t, resp.Valid)

	// The last use is consumed: rejected.
	coupon.UsedCount = 10
	resp, svcErr = svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:       "LIMITED",
		OrderTotal: 100,
	})
	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "usage limit")
}

func TestCouponService_Validate_MinOrderNotMet(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	coupon := activeCoupon("MINVAL", models.CouponTypePercentage, 10)
	coupon.MinOrderValue = 100
	_ = repo.Create(context.Background(), coupon)

	resp, svcErr := svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:       "MINVAL",
		OrderTotal: 50,
	})

	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "Minimum order value")
}

func TestCouponService_Validate_CategoryRestriction(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	electronics := uuid.New()
	books := uuid.New()

	coupon := activeCoupon("TECH", models.CouponTypePercentage, 10)
	coupon.ApplicableCategories = models.UUIDList{electronics}
	_ = repo.Create(context.Background(), coupon)

	// Cart with a matching category passes.
	resp, svcErr := svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:        "TECH",
		OrderTotal:  100,
		CategoryIDs: []uuid.UUID{books, electronics},
	})
	assert.Nil(t, svcErr)
	assert.True(t, resp.Valid)

	// Cart with no matching category is rejected.
	resp, svcErr = svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:        "TECH",
		OrderTotal:  100,
		CategoryIDs: []uuid.UUID{books},
	})
	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "categories")
}

func TestCouponService_Validate_ProductRestriction(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	target := uuid.New()

	coupon := activeCoupon("ONLYONE", models.CouponTypeFixed, 25)
	coupon.ApplicableProducts = models.UUIDList{target}
	_ = repo.Create(context.Background(), coupon)

	resp, svcErr := svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:       "ONLYONE",
		OrderTotal: 100,
		ProductIDs: []uuid.UUID{uuid.New()},
	})
	assert.Nil(t, svcErr)
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Message, "products")
}

func TestCouponService_Validate_CaseInsensitiveCode(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	_ = repo.Create(context.Background(), activeCoupon("WELCOME", models.CouponTypeFixed, 15))

	resp, svcErr := svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:       "welcome",
		OrderTotal: 100,
	})

	assert.Nil(t, svcErr)
	assert.True(t, resp.Valid)
	assert.Equal(t, "WELCOME", resp.Code)
}

func TestCouponService_Validate_DoesNotConsumeUse(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	coupon := activeCoupon("KEEP", models.CouponTypeFixed, 10)
	coupon.UsageLimit = 5
	_ = repo.Create(context.Background(), coupon)

	for i := 0; i < 3; i++ {
		resp, svcErr := svc.Validate(context.Background(), &models.ValidateCouponRequest{
			Code:       "KEEP",
			OrderTotal: 100,
		})
		assert.Nil(t, svcErr)
		assert.True(t, resp.Valid)
	}

	assert.Equal(t, 0, coupon.UsedCount, "validation never redeems")
}

func TestCouponService_Deactivate(t *testing.T) {
	repo := newMockCouponRepo()
	svc := newTestCouponService(repo)

	_ = repo.Create(context.Background(), activeCoupon("BYE", models.CouponTypeFixed, 10))

	svcErr := svc.DeactivateCoupon(context.Background(), "BYE")
	assert.Nil(t, svcErr)

	resp, _ := svc.Validate(context.Background(), &models.ValidateCouponRequest{
		Code:       "BYE",
		OrderTotal: 100,
	})
	assert.False(t, resp.Valid)
}
