package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is a single product (+ optional variant) and quantity in a cart.
type CartItem struct {
	ProductID   uuid.UUID  `json:"product_id"`
	AttributeID *uuid.UUID `json:"attribute_id,omitempty"`
	Quantity    int        `json:"quantity"`
}

// Cart is the per-user cart stored in Redis.
type Cart struct {
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartLine is a cart item joined with live product data for display.
type CartLine struct {
	ProductID      uuid.UUID  `json:"product_id"`
	AttributeID    *uuid.UUID `json:"attribute_id,omitempty"`
	ProductName    string     `json:"product_name"`
	AttributeLabel string     `json:"attribute_label,omitempty"`
	UnitPrice      float64    `json:"unit_price"`
	Quantity       int        `json:"quantity"`
	LineTotal      float64    `json:"line_total"`
	CategoryID     uuid.UUID  `json:"category_id"`
}

// CartView is the aggregated cart returned to the client.
type CartView struct {
	UserID   string     `json:"user_id"`
	Lines    []CartLine `json:"items"`
	Subtotal float64    `json:"subtotal"`
	Tax      float64    `json:"tax"`
	Shipping float64    `json:"shipping"`
	Total    float64    `json:"total"`
}

// AddCartItemRequest is the payload for adding an item to the cart.
type AddCartItemRequest struct {
	ProductID   uuid.UUID  `json:"product_id" binding:"required"`
	AttributeID *uuid.UUID `json:"attribute_id"`
	Quantity    int        `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest is the payload for changing an item's quantity.
// Quantity 0 removes the item.
type UpdateCartItemRequest struct {
	ProductID   uuid.UUID  `json:"product_id" binding:"required"`
	AttributeID *uuid.UUID `json:"attribute_id"`
	Quantity    int        `json:"quantity" binding:"gte=0"`
}
