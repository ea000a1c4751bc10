package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopswift/storefront/models"
	"github.com/shopswift/storefront/repository"
	"go.uber.org/zap"
)

// CartService defines the interface for cart business logic.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*models.CartView, *ServiceError)
	AddItem(ctx context.Context, userID string, req *models.AddCartItemRequest) (*models.CartView, *ServiceError)
	UpdateItem(ctx context.Context, userID string, req *models.UpdateCartItemRequest) (*models.CartView, *ServiceError)
	RemoveItem(ctx context.Context, userID string, productID uuid.UUID, attributeID *uuid.UUID) (*models.CartView, *ServiceError)
	Clear(ctx context.Context, userID string) *ServiceError
	// Lines resolves the raw cart against live catalog data; used by both
	// GetCart and the order service at checkout.
	Lines(ctx context.Context, userID string) ([]models.CartLine, *ServiceError)
}

type cartServiceImpl struct {
	carts    *repository.CartRepository
	products repository.ProductRepository
	taxRate  float64
	shipping ShippingPolicy
	logger   *zap.Logger
}

// NewCartService creates a new CartService.
func NewCartService(carts *repository.CartRepository, products repository.ProductRepository, taxRate float64, shipping ShippingPolicy, logger *zap.Logger) CartService {
	return &cartServiceImpl{
		carts:    carts,
		products: products,
		taxRate:  taxRate,
		shipping: shipping,
		logger:   logger,
	}
}

// GetCart returns the aggregated cart with live prices and computed totals.
func (s *cartServiceImpl) GetCart(ctx context.Context, userID string) (*models.CartView, *ServiceError) {
	lines, svcErr := s.Lines(ctx, userID)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.view(userID, lines), nil
}

func (s *cartServiceImpl) view(userID string, lines []models.CartLine) *models.CartView {
	pricing := make([]PricingLine, 0, len(lines))
	for _, l := range lines {
		pricing = append(pricing, PricingLine{UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	totals := ComputeTotals(pricing, 0, s.taxRate, s.shipping)

	return &models.CartView{
		UserID:   userID,
		Lines:    lines,
		Subtotal: totals.Subtotal,
		Tax:      totals.Tax,
		Shipping: totals.Shipping,
		Total:    totals.Total,
	}
}

// Lines joins the stored cart items with live product data. Items whose
// product or variant has disappeared from the catalog are skipped.
func (s *cartServiceImpl) Lines(ctx context.Context, userID string) ([]models.CartLine, *ServiceError) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
	}
	if cart == nil || len(cart.Items) == 0 {
		return []models.CartLine{}, nil
	}

	ids := make([]uuid.UUID, 0, len(cart.Items))
	for _, item := range cart.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load cart products", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
	}
	byID := make(map[uuid.UUID]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines := make([]models.CartLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, ok := byID[item.ProductID]
		if !ok || product.Status != models.ProductStatusActive {
			continue
		}

		var attr *models.ProductAttribute
		var label string
		if item.AttributeID != nil {
			attr = product.Attribute(*item.AttributeID)
			if attr == nil {
				continue
			}
			label = fmt.Sprintf("%s: %s", attr.Name, attr.Value)
		}

		unit := product.EffectivePrice(attr)
		lines = append(lines, models.CartLine{
			ProductID:      item.ProductID,
			AttributeID:    item.AttributeID,
			ProductName:    product.Name,
			AttributeLabel: label,
			UnitPrice:      unit,
			Quantity:       item.Quantity,
			LineTotal:      unit * float64(item.Quantity),
			CategoryID:     product.CategoryID,
		})
	}
	return lines, nil
}

// AddItem adds a product (+ optional variant) to the cart, merging with an
// existing line for the same product and variant.
func (s *cartServiceImpl) AddItem(ctx context.Context, userID string, req *models.AddCartItemRequest) (*models.CartView, *ServiceError) {
	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
	}
	if product.Status != models.ProductStatusActive {
		return nil, &ServiceError{StatusCode: 400, Message: "Product is not available"}
	}

	var attr *models.ProductAttribute
	if req.AttributeID != nil {
		attr = product.Attribute(*req.AttributeID)
		if attr == nil {
			return nil, &ServiceError{StatusCode: 400, Message: "Product variant not found"}
		}
	}

	cart, repoErr := s.carts.GetCart(ctx, userID)
	if repoErr != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(repoErr))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
	}
	if cart == nil {
		cart = &models.Cart{UserID: userID}
	}

	merged := false
	for i := range cart.Items {
		if sameCartLine(cart.Items[i], req.ProductID, req.AttributeID) {
			cart.Items[i].Quantity += req.Quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID:   req.ProductID,
			AttributeID: req.AttributeID,
			Quantity:    req.Quantity,
		})
	}

	if svcErr := s.checkStock(product, attr, cartQuantity(cart, req.ProductID, req.AttributeID)); svcErr != nil {
		return nil, svcErr
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to save cart"}
	}

	return s.GetCart(ctx, userID)
}

// UpdateItem sets a line's quantity; zero removes the line.
func (s *cartServiceImpl) UpdateItem(ctx context.Context, userID string, req *models.UpdateCartItemRequest) (*models.CartView, *ServiceError) {
	if req.Quantity == 0 {
		return s.RemoveItem(ctx, userID, req.ProductID, req.AttributeID)
	}

	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
	}
	if cart == nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Cart is empty"}
	}

	found := false
	for i := range cart.Items {
		if sameCartLine(cart.Items[i], req.ProductID, req.AttributeID) {
			cart.Items[i].Quantity = req.Quantity
			found = true
			break
		}
	}
	if !found {
		return nil, &ServiceError{StatusCode: 404, Message: "Item not in cart"}
	}

	product, repoErr := s.products.FindByID(ctx, req.ProductID)
	if repoErr != nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
	}
	var attr *models.ProductAttribute
	if req.AttributeID != nil {
		attr = product.Attribute(*req.AttributeID)
	}
	if svcErr := s.checkStock(product, attr, req.Quantity); svcErr != nil {
		return nil, svcErr
	}

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to save cart"}
	}

	return s.GetCart(ctx, userID)
}

// RemoveItem removes a line from the cart.
func (s *cartServiceImpl) RemoveItem(ctx context.Context, userID string, productID uuid.UUID, attributeID *uuid.UUID) (*models.CartView, *ServiceError) {
	cart, err := s.carts.GetCart(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to load cart"}
	}
	if cart == nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Cart is empty"}
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if !sameCartLine(item, productID, attributeID) {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	if err := s.carts.SaveCart(ctx, cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to save cart"}
	}

	return s.GetCart(ctx, userID)
}

// Clear drops the user's cart entirely.
func (s *cartServiceImpl) Clear(ctx context.Context, userID string) *ServiceError {
	if err := s.carts.DeleteCart(ctx, userID); err != nil {
		s.logger.Error("Failed to clear cart", zap.String("user_id", userID), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to clear cart"}
	}
	return nil
}

func (s *cartServiceImpl) checkStock(product *models.Product, attr *models.ProductAttribute, wanted int) *ServiceError {
	if !product.TrackQuantity {
		return nil
	}
	available := product.Quantity
	if attr != nil {
		available = attr.Quantity
	}
	if wanted > available {
		return &ServiceError{StatusCode: 400, Message: fmt.Sprintf("Only %d in stock", available)}
	}
	return nil
}

func sameCartLine(item models.CartItem, productID uuid.UUID, attributeID *uuid.UUID) bool {
	if item.ProductID != productID {
		return false
	}
	if (item.AttributeID == nil) != (attributeID == nil) {
		return false
	}
	if item.AttributeID == nil {
		return true
	}
	return *item.AttributeID == *attributeID
}

func cartQuantity(cart *models.Cart, productID uuid.UUID, attributeID *uuid.UUID) int {
	for _, item := range cart.Items {
		if sameCartLine(item, productID, attributeID) {
			return item.Quantity
		}
	}
	return 0
}
