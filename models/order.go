package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus represents the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// PaymentStatus represents the payment state of an order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// PaymentMethod is how the customer pays for an order.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
)

// HistoryKind tags entries in an order's status history.
type HistoryKind string

const (
	HistoryKindStatus HistoryKind = "status"
	HistoryKindNote   HistoryKind = "note"
)

// HistoryEntry is a single event in an order's append-only history:
// either a status change or a free-text note.
type HistoryEntry struct {
	Kind      HistoryKind `json:"kind"`
	Status    OrderStatus `json:"status,omitempty"`
	Note      string      `json:"note,omitempty"`
	UserID    string      `json:"user_id"`
	CreatedAt time.Time   `json:"created_at"`
}

// StatusHistory is an ordered append-only log stored as a JSONB column.
type StatusHistory []HistoryEntry

// Value implements driver.Valuer.
func (h StatusHistory) Value() (driver.Value, error) {
	if h == nil {
		h = StatusHistory{}
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner.
func (h *StatusHistory) Scan(value interface{}) error {
	if value == nil {
		*h = StatusHistory{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("unsupported type for StatusHistory")
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, h)
}

// Address is a shipping or billing address snapshot embedded in an order.
type Address struct {
	Name       string `json:"name" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
	Street     string `json:"street" binding:"required"`
	City       string `json:"city" binding:"required"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
}

// Order is an immutable money snapshot with mutable fulfilment state.
// The money fields are fixed at checkout; only OrderStatus, PaymentStatus
// and the history log change afterwards.
type Order struct {
	ID            uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber   string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	UserID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	Subtotal      float64       `gorm:"not null" json:"subtotal"`
	Discount      float64       `gorm:"not null;default:0" json:"discount"`
	Tax           float64       `gorm:"not null;default:0" json:"tax"`
	Shipping      float64       `gorm:"not null;default:0" json:"shipping"`
	Total         float64       `gorm:"not null" json:"total"`
	CouponCode    string        `gorm:"type:varchar(64)" json:"coupon_code,omitempty"`
	OrderStatus   OrderStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"order_status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	PaymentMethod PaymentMethod `gorm:"type:varchar(20);not null" json:"payment_method"`
	TransactionID string        `gorm:"type:varchar(128)" json:"transaction_id,omitempty"`
	ShippingName       string `gorm:"type:varchar(255)" json:"-"`
	ShippingPhone      string `gorm:"type:varchar(32)" json:"-"`
	ShippingStreet     string `gorm:"type:varchar(255)" json:"-"`
	ShippingCity       string `gorm:"type:varchar(100)" json:"-"`
	ShippingPostalCode string `gorm:"type:varchar(20)" json:"-"`
	ShippingCountry    string `gorm:"type:varchar(100)" json:"-"`
	BillingName        string `gorm:"type:varchar(255)" json:"-"`
	BillingPhone       string `gorm:"type:varchar(32)" json:"-"`
	BillingStreet      string `gorm:"type:varchar(255)" json:"-"`
	BillingCity        string `gorm:"type:varchar(100)" json:"-"`
	BillingPostalCode  string `gorm:"type:varchar(20)" json:"-"`
	BillingCountry     string `gorm:"type:varchar(100)" json:"-"`
	Notes         string        `gorm:"type:text" json:"notes,omitempty"`
	StatusHistory StatusHistory `gorm:"type:jsonb" json:"status_history"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
	OrderItems    []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"order_items,omitempty"`
}

// ShippingAddress reassembles the shipping address snapshot.
func (o *Order) ShippingAddress() Address {
	return Address{
		Name:       o.ShippingName,
		Phone:      o.ShippingPhone,
		Street:     o.ShippingStreet,
		City:       o.ShippingCity,
		PostalCode: o.ShippingPostalCode,
		Country:    o.ShippingCountry,
	}
}

// BillingAddress reassembles the billing address snapshot.
func (o *Order) BillingAddress() Address {
	return Address{
		Name:       o.BillingName,
		Phone:      o.BillingPhone,
		Street:     o.BillingStreet,
		City:       o.BillingCity,
		PostalCode: o.BillingPostalCode,
		Country:    o.BillingCountry,
	}
}

// SetShippingAddress stores the shipping address snapshot fields.
func (o *Order) SetShippingAddress(a Address) {
	o.ShippingName = a.Name
	o.ShippingPhone = a.Phone
	o.ShippingStreet = a.Street
	o.ShippingCity = a.City
	o.ShippingPostalCode = a.PostalCode
	o.ShippingCountry = a.Country
}

// SetBillingAddress stores the billing address snapshot fields.
func (o *Order) SetBillingAddress(a Address) {
	o.BillingName = a.Name
	o.BillingPhone = a.Phone
	o.BillingStreet = a.Street
	o.BillingCity = a.City
	o.BillingPostalCode = a.PostalCode
	o.BillingCountry = a.Country
}

// OrderItem is an immutable line snapshot. Name and price are copied from
// the product at checkout so later catalog edits do not rewrite history.
type OrderItem struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"order_id"`
	ProductID      uuid.UUID  `gorm:"type:uuid;not null" json:"product_id"`
	AttributeID    *uuid.UUID `gorm:"type:uuid" json:"attribute_id,omitempty"`
	ProductName    string     `gorm:"type:varchar(255);not null" json:"product_name"`
	AttributeLabel string     `gorm:"type:varchar(200)" json:"attribute_label,omitempty"`
	UnitPrice      float64    `gorm:"not null" json:"unit_price"`
	Quantity       int        `gorm:"not null" json:"quantity"`
	LineTotal      float64    `gorm:"not null" json:"line_total"`
}

// OrderSequence allocates human-readable order numbers scoped by year.
type OrderSequence struct {
	Year      int `gorm:"primaryKey"`
	LastValue int `gorm:"not null;default:0"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	ShippingAddress Address       `json:"shipping_address" binding:"required"`
	BillingAddress  Address       `json:"billing_address" binding:"required"`
	PaymentMethod   PaymentMethod `json:"payment_method" binding:"required,oneof=cod online"`
	CouponCode      string        `json:"coupon_code"`
	Notes           string        `json:"notes"`
}

// UpdateOrderStatusRequest is the admin payload for a status transition.
type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
}

// AddOrderNoteRequest is the admin payload for attaching a note.
type AddOrderNoteRequest struct {
	Note string `json:"note" binding:"required,min=1,max=2000"`
}
