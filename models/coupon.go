package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CouponType represents the type of discount a coupon provides.
type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

// Coupon represents a promotional coupon stored in Postgres.
type Coupon struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code          string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"code"`
	Type          CouponType     `gorm:"type:varchar(20);not null" json:"type"`
	Value         float64        `gorm:"not null" json:"value"`                     // discount amount or percentage
	MinOrderValue float64        `gorm:"not null;default:0" json:"min_order_value"` // minimum order total to apply
	MaxDiscount   float64        `gorm:"not null;default:0" json:"max_discount"`    // caps percentage discounts; 0 = uncapped
	UsageLimit    int            `gorm:"not null;default:0" json:"usage_limit"`     // 0 = unlimited
	UsedCount     int            `gorm:"not null;default:0" json:"used_count"`
	StartsAt      time.Time      `gorm:"not null" json:"starts_at"`
	ExpiresAt     time.Time      `gorm:"not null" json:"expires_at"`
	Active        bool           `gorm:"not null;default:true" json:"active"`
	// Empty lists mean the coupon applies to everything.
	ApplicableCategories UUIDList  `gorm:"type:jsonb" json:"applicable_categories"`
	ApplicableProducts   UUIDList  `gorm:"type:jsonb" json:"applicable_products"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt            gorm.DeletedAt `gorm:"index" json:"-"`
}

// CreateCouponRequest is the payload for creating a new coupon.
type CreateCouponRequest struct {
	Code                 string      `json:"code" binding:"required,min=3,max=64"`
	Type                 CouponType  `json:"type" binding:"required,oneof=percentage fixed"`
	Value                float64     `json:"value" binding:"required,gt=0"`
	MinOrderValue        float64     `json:"min_order_value" binding:"gte=0"`
	MaxDiscount          float64     `json:"max_discount" binding:"gte=0"`
	UsageLimit           int         `json:"usage_limit" binding:"gte=0"`
	StartsAt             time.Time   `json:"starts_at"`
	ExpiresAt            time.Time   `json:"expires_at" binding:"required"`
	ApplicableCategories []uuid.UUID `json:"applicable_categories"`
	ApplicableProducts   []uuid.UUID `json:"applicable_products"`
}

// ValidateCouponRequest is the payload for validating a coupon against an order total.
type ValidateCouponRequest struct {
	Code        string      `json:"code" binding:"required"`
	OrderTotal  float64     `json:"order_total" binding:"required,gt=0"`
	CategoryIDs []uuid.UUID `json:"category_ids"`
	ProductIDs  []uuid.UUID `json:"product_ids"`
}

// ValidateCouponResponse is the response after validating a coupon.
type ValidateCouponResponse struct {
	Valid          bool       `json:"valid"`
	Code           string     `json:"code"`
	Type           CouponType `json:"type,omitempty"`
	DiscountAmount float64    `json:"discount_amount"`
	Message        string     `json:"message,omitempty"`
}
