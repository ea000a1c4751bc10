package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductStatus represents the publication state of a product.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusDraft    ProductStatus = "draft"
)

// Product represents a catalog product stored in Postgres.
type Product struct {
	ID            uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CategoryID    uuid.UUID          `gorm:"type:uuid;not null;index" json:"category_id"`
	Name          string             `gorm:"type:varchar(255);not null" json:"name"`
	Slug          string             `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Description   string             `gorm:"type:text" json:"description"`
	Price         float64            `gorm:"not null" json:"price"`
	ComparePrice  float64            `gorm:"not null;default:0" json:"compare_price"` // original price before markdown; 0 = none
	CostPrice     float64            `gorm:"not null;default:0" json:"cost_price"`
	Quantity      int                `gorm:"not null;default:0" json:"quantity"`
	TrackQuantity bool               `gorm:"not null;default:true" json:"track_quantity"`
	Status        ProductStatus      `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Featured      bool               `gorm:"not null;default:false" json:"featured"`
	Attributes    []ProductAttribute `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"attributes,omitempty"`
	CreatedAt     time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt     `gorm:"index" json:"-"`
}

// ProductAttribute is a product variant (size/color) with its own stock and price delta.
type ProductAttribute struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"product_id"`
	Name            string         `gorm:"type:varchar(100);not null" json:"name"`  // e.g. "size", "color"
	Value           string         `gorm:"type:varchar(100);not null" json:"value"` // e.g. "XL", "red"
	Quantity        int            `gorm:"not null;default:0" json:"quantity"`
	AdditionalPrice float64        `gorm:"not null;default:0" json:"additional_price"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// InStock reports whether the product can be ordered. Products that do not
// track quantity are treated as unlimited stock.
func (p *Product) InStock() bool {
	if !p.TrackQuantity {
		return true
	}
	return p.Quantity > 0
}

// Available returns the orderable quantity for the product, ignoring variants.
// Returns -1 when stock is not tracked (unlimited).
func (p *Product) Available() int {
	if !p.TrackQuantity {
		return -1
	}
	return p.Quantity
}

// DiscountPercent returns the markdown percentage derived from ComparePrice,
// or 0 when the product is not marked down.
func (p *Product) DiscountPercent() float64 {
	if p.ComparePrice <= 0 || p.ComparePrice <= p.Price {
		return 0
	}
	return (p.ComparePrice - p.Price) / p.ComparePrice * 100
}

// Attribute returns the variant with the given id, or nil.
func (p *Product) Attribute(id uuid.UUID) *ProductAttribute {
	for i := range p.Attributes {
		if p.Attributes[i].ID == id {
			return &p.Attributes[i]
		}
	}
	return nil
}

// EffectivePrice returns the unit price with the variant delta applied.
func (p *Product) EffectivePrice(attr *ProductAttribute) float64 {
	if attr == nil {
		return p.Price
	}
	return p.Price + attr.AdditionalPrice
}

// CreateProductRequest is the admin payload for creating a product.
type CreateProductRequest struct {
	CategoryID    uuid.UUID     `json:"category_id" binding:"required"`
	Name          string        `json:"name" binding:"required,min=2,max=255"`
	Slug          string        `json:"slug" binding:"required,min=2,max=255"`
	Description   string        `json:"description"`
	Price         float64       `json:"price" binding:"required,gt=0"`
	ComparePrice  float64       `json:"compare_price" binding:"gte=0"`
	CostPrice     float64       `json:"cost_price" binding:"gte=0"`
	Quantity      int           `json:"quantity" binding:"gte=0"`
	TrackQuantity *bool         `json:"track_quantity"`
	Status        ProductStatus `json:"status" binding:"omitempty,oneof=active inactive draft"`
	Featured      bool          `json:"featured"`
}

// UpdateProductRequest is the admin payload for updating a product.
type UpdateProductRequest struct {
	CategoryID    *uuid.UUID     `json:"category_id"`
	Name          *string        `json:"name" binding:"omitempty,min=2,max=255"`
	Description   *string        `json:"description"`
	Price         *float64       `json:"price" binding:"omitempty,gt=0"`
	ComparePrice  *float64       `json:"compare_price" binding:"omitempty,gte=0"`
	CostPrice     *float64       `json:"cost_price" binding:"omitempty,gte=0"`
	Quantity      *int           `json:"quantity" binding:"omitempty,gte=0"`
	TrackQuantity *bool          `json:"track_quantity"`
	Status        *ProductStatus `json:"status" binding:"omitempty,oneof=active inactive draft"`
	Featured      *bool          `json:"featured"`
}

// CreateAttributeRequest is the admin payload for adding a variant to a product.
type CreateAttributeRequest struct {
	Name            string  `json:"name" binding:"required,min=1,max=100"`
	Value           string  `json:"value" binding:"required,min=1,max=100"`
	Quantity        int     `json:"quantity" binding:"gte=0"`
	AdditionalPrice float64 `json:"additional_price" binding:"gte=0"`
}
