package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopswift/storefront/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientStock is returned when an order asks for more units than
// are available for a tracked product or variant.
var ErrInsufficientStock = errors.New("insufficient stock")

// StockAdjustment is a single inventory movement applied during checkout
// or cancellation. AttributeID nil means the product-level counter.
type StockAdjustment struct {
	ProductID   uuid.UUID
	AttributeID *uuid.UUID
	Quantity    int
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	// Place persists the order and its items, applies stock decrements with
	// floor checks and redeems the coupon, all in one transaction. Any
	// failure rolls the whole order back.
	Place(ctx context.Context, order *models.Order, decrements []StockAdjustment, couponCode string) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	// Mutate locks the order row, applies fn and saves the result. fn may
	// return stock adjustments to restore (e.g. on cancellation) which are
	// applied in the same transaction. Returning an error rolls back.
	Mutate(ctx context.Context, id uuid.UUID, fn func(o *models.Order) ([]StockAdjustment, error)) (*models.Order, error)
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	coupons *GormCouponRepository
}

// NewGormOrderRepository creates a new GormOrderRepository.
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db, coupons: &GormCouponRepository{db: db}}
}

// Place runs the checkout transaction: order number allocation, conditional
// stock decrements, coupon redemption and the order insert.
func (r *GormOrderRepository) Place(ctx context.Context, order *models.Order, decrements []StockAdjustment, couponCode string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextOrderNumber(tx, time.Now().Year())
		if err != nil {
			return err
		}
		order.OrderNumber = number

		for _, d := range decrements {
			if err := applyStockDecrement(tx, d); err != nil {
				return err
			}
		}

		if couponCode != "" {
			if err := r.coupons.redeemTx(tx, couponCode); err != nil {
				return err
			}
		}

		return tx.Create(order).Error
	})
}

// nextOrderNumber increments the per-year sequence under a row lock and
// formats a human-readable order number like ORD-2026-000042.
func nextOrderNumber(tx *gorm.DB, year int) (string, error) {
	seq := models.OrderSequence{Year: year}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
		return "", err
	}
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&seq, "year = ?", year).Error; err != nil {
		return "", err
	}
	seq.LastValue++
	if err := tx.Save(&seq).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%d-%06d", year, seq.LastValue), nil
}

// applyStockDecrement decrements a product or variant counter, guarded so
// the quantity can never go below zero under concurrent checkouts.
func applyStockDecrement(tx *gorm.DB, d StockAdjustment) error {
	var result *gorm.DB
	if d.AttributeID != nil {
		result = tx.Model(&models.ProductAttribute{}).
			Where("id = ? AND product_id = ? AND quantity >= ?", *d.AttributeID, d.ProductID, d.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", d.Quantity))
	} else {
		result = tx.Model(&models.Product{}).
			Where("id = ? AND quantity >= ?", d.ProductID, d.Quantity).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", d.Quantity))
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// applyStockIncrement restores inventory, e.g. when an order is cancelled.
func applyStockIncrement(tx *gorm.DB, d StockAdjustment) error {
	if d.AttributeID != nil {
		return tx.Model(&models.ProductAttribute{}).
			Where("id = ? AND product_id = ?", *d.AttributeID, d.ProductID).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", d.Quantity)).Error
	}
	return tx.Model(&models.Product{}).
		Where("id = ?", d.ProductID).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", d.Quantity)).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByIDAndUserID(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("OrderItems").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("OrderItems").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *GormOrderRepository) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("OrderItems").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// Mutate serializes state changes per order: admin transitions and payment
// callbacks race, so every mutation takes a row lock and saves the status
// field and history log together.
func (r *GormOrderRepository) Mutate(ctx context.Context, id uuid.UUID, fn func(o *models.Order) ([]StockAdjustment, error)) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The row lock serializes concurrent mutations; items are loaded
		// alongside so fn can derive restock amounts from the snapshot.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("OrderItems").
			First(&order, "id = ?", id).Error; err != nil {
			return err
		}

		restock, err := fn(&order)
		if err != nil {
			return err
		}
		for _, d := range restock {
			if err := applyStockIncrement(tx, d); err != nil {
				return err
			}
		}

		return tx.Omit("OrderItems").Save(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
