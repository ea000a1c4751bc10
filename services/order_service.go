package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopswift/storefront/kafka"
	"github.com/shopswift/storefront/models"
	"github.com/shopswift/storefront/payments"
	"github.com/shopswift/storefront/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// allowedTransitions is the strict order state machine: one forward step at
// a time, and cancellation from any non-terminal state.
var allowedTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCancelled:  {},
}

func transitionAllowed(from, to models.OrderStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OrderListResponse is a paginated order listing.
type OrderListResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

// MetaData carries pagination info for list responses.
type MetaData struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasMore    bool  `json:"has_more"`
}

// CheckoutResult is the outcome of order creation. RedirectURL is set only
// for online payments.
type CheckoutResult struct {
	Order       *models.Order `json:"order"`
	RedirectURL string        `json:"redirect_url,omitempty"`
}

// OrderService owns the order lifecycle: checkout, status transitions,
// notes and payment callbacks.
type OrderService struct {
	orders   repository.OrderRepository
	products repository.ProductRepository
	users    repository.UserRepository
	coupons  CouponService
	carts    CartService
	gateway  payments.Provider
	producer kafka.ProducerAPI
	taxRate  float64
	shipping ShippingPolicy
	currency string
	logger   *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	coupons CouponService,
	carts CartService,
	gateway payments.Provider,
	producer kafka.ProducerAPI,
	taxRate float64,
	shipping ShippingPolicy,
	currency string,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		products: products,
		users:    users,
		coupons:  coupons,
		carts:    carts,
		gateway:  gateway,
		producer: producer,
		taxRate:  taxRate,
		shipping: shipping,
		currency: currency,
		logger:   logger,
	}
}

// CreateOrder turns the user's cart into an immutable order snapshot.
// The coupon is re-validated server-side; a stale client-side discount is
// never trusted. Stock decrements, coupon redemption and the order insert
// happen in one transaction, so insufficient stock aborts everything.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, req *models.CreateOrderRequest) (*CheckoutResult, *ServiceError) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, &ServiceError{StatusCode: 400, Message: "Invalid user ID format"}
	}

	lines, svcErr := s.carts.Lines(ctx, userID)
	if svcErr != nil {
		return nil, svcErr
	}
	if len(lines) == 0 {
		return nil, &ServiceError{StatusCode: 400, Message: "Cart is empty"}
	}

	pricing := make([]PricingLine, 0, len(lines))
	categoryIDs := make([]uuid.UUID, 0, len(lines))
	productIDs := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		pricing = append(pricing, PricingLine{UnitPrice: l.UnitPrice, Quantity: l.Quantity})
		categoryIDs = append(categoryIDs, l.CategoryID)
		productIDs = append(productIDs, l.ProductID)
	}

	var subtotal float64
	for _, l := range lines {
		subtotal += l.LineTotal
	}

	var discount float64
	couponCode := ""
	if req.CouponCode != "" {
		resp, svcErr := s.coupons.Validate(ctx, &models.ValidateCouponRequest{
			Code:        req.CouponCode,
			OrderTotal:  subtotal,
			CategoryIDs: categoryIDs,
			ProductIDs:  productIDs,
		})
		if svcErr != nil {
			return nil, svcErr
		}
		if !resp.Valid {
			return nil, &ServiceError{StatusCode: 400, Message: resp.Message}
		}
		discount = resp.DiscountAmount
		couponCode = resp.Code
	}

	totals := ComputeTotals(pricing, discount, s.taxRate, s.shipping)

	now := time.Now()
	order := &models.Order{
		UserID:        userUUID,
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		Tax:           totals.Tax,
		Shipping:      totals.Shipping,
		Total:         totals.Total,
		CouponCode:    couponCode,
		OrderStatus:   models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		StatusHistory: models.StatusHistory{{
			Kind:      models.HistoryKindStatus,
			Status:    models.OrderStatusPending,
			UserID:    userID,
			CreatedAt: now,
		}},
	}
	order.SetShippingAddress(req.ShippingAddress)
	order.SetBillingAddress(req.BillingAddress)

	for _, l := range lines {
		order.OrderItems = append(order.OrderItems, models.OrderItem{
			ProductID:      l.ProductID,
			AttributeID:    l.AttributeID,
			ProductName:    l.ProductName,
			AttributeLabel: l.AttributeLabel,
			UnitPrice:      l.UnitPrice,
			Quantity:       l.Quantity,
			LineTotal:      l.LineTotal,
		})
	}

	decrements, svcErr := s.stockAdjustments(ctx, order.OrderItems)
	if svcErr != nil {
		return nil, svcErr
	}

	if err := s.orders.Place(ctx, order, decrements, couponCode); err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientStock):
			return nil, &ServiceError{StatusCode: 400, Message: "One or more items are out of stock"}
		case errors.Is(err, repository.ErrCouponExhausted):
			return nil, &ServiceError{StatusCode: 400, Message: "Coupon usage limit reached"}
		default:
			s.logger.Error("Failed to place order", zap.String("user_id", userID), zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to place order"}
		}
	}

	s.publishEvent(ctx, models.OrderEvent{
		Event:       models.EventOrderCreated,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      userID,
		Status:      string(order.OrderStatus),
		Total:       order.Total,
		Timestamp:   now,
	})

	result := &CheckoutResult{Order: order}

	if req.PaymentMethod == models.PaymentMethodCOD {
		// Cash on delivery: nothing left to collect online.
		if svcErr := s.carts.Clear(ctx, userID); svcErr != nil {
			s.logger.Warn("Failed to clear cart after COD order",
				zap.String("order_id", order.ID.String()))
		}
		return result, nil
	}

	// Online payment: the order exists first; the cart survives until the
	// gateway confirms success.
	session, err := s.gateway.InitiatePayment(ctx, payments.PaymentRequest{
		OrderID:  order.ID.String(),
		Amount:   order.Total,
		Currency: s.currency,
		Customer: s.customerInfo(ctx, userUUID, req.ShippingAddress),
	})
	if err != nil {
		s.logger.Error("Payment initiation failed",
			zap.String("order_id", order.ID.String()), zap.Error(err))
		s.markPaymentFailed(ctx, order.ID, "Payment initiation failed")
		return nil, &ServiceError{StatusCode: 502, Message: "Failed to initiate payment"}
	}

	result.RedirectURL = session.RedirectURL
	return result, nil
}

func (s *OrderService) customerInfo(ctx context.Context, userID uuid.UUID, fallback models.Address) payments.Customer {
	customer := payments.Customer{Name: fallback.Name, Phone: fallback.Phone}
	if user, err := s.users.FindByID(ctx, userID); err == nil {
		customer.Name = user.Name
		customer.Email = user.Email
	}
	return customer
}

// stockAdjustments maps order items to inventory decrements, skipping
// products that do not track quantity.
func (s *OrderService) stockAdjustments(ctx context.Context, items []models.OrderItem) ([]repository.StockAdjustment, *ServiceError) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load products for stock check", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to place order"}
	}
	tracked := make(map[uuid.UUID]bool, len(products))
	for _, p := range products {
		tracked[p.ID] = p.TrackQuantity
	}

	var adjustments []repository.StockAdjustment
	for _, it := range items {
		if !tracked[it.ProductID] {
			continue
		}
		adjustments = append(adjustments, repository.StockAdjustment{
			ProductID:   it.ProductID,
			AttributeID: it.AttributeID,
			Quantity:    it.Quantity,
		})
	}
	return adjustments, nil
}

// UpdateStatus performs a status transition. The history append and the
// status overwrite are applied together under a row lock, and only
// transitions allowed by the state machine go through. Cancelling a
// tracked order returns its units to stock.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, actorID string, newStatus models.OrderStatus) (*models.Order, *ServiceError) {
	var rejected *ServiceError
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) ([]repository.StockAdjustment, error) {
		if o.OrderStatus == newStatus {
			rejected = &ServiceError{StatusCode: 400, Message: "Order is already " + string(newStatus)}
			return nil, rejected
		}
		if !transitionAllowed(o.OrderStatus, newStatus) {
			rejected = &ServiceError{
				StatusCode: 400,
				Message:    "Cannot change status from " + string(o.OrderStatus) + " to " + string(newStatus),
			}
			return nil, rejected
		}

		o.OrderStatus = newStatus
		o.StatusHistory = append(o.StatusHistory, models.HistoryEntry{
			Kind:      models.HistoryKindStatus,
			Status:    newStatus,
			UserID:    actorID,
			CreatedAt: time.Now(),
		})

		if newStatus == models.OrderStatusCancelled {
			return s.restockFor(ctx, o.OrderItems), nil
		}
		return nil, nil
	})
	if err != nil {
		if rejected != nil {
			return nil, rejected
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to update order status",
			zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update order status"}
	}

	s.publishEvent(ctx, models.OrderEvent{
		Event:       models.EventOrderStatusUpdated,
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
		Status:      string(order.OrderStatus),
		Timestamp:   time.Now(),
	})

	return order, nil
}

func (s *OrderService) restockFor(ctx context.Context, items []models.OrderItem) []repository.StockAdjustment {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		// Restocking is best-effort bookkeeping; the cancellation itself
		// must not fail because the catalog read did.
		s.logger.Error("Failed to load products for restock", zap.Error(err))
		return nil
	}
	tracked := make(map[uuid.UUID]bool, len(products))
	for _, p := range products {
		tracked[p.ID] = p.TrackQuantity
	}

	var adjustments []repository.StockAdjustment
	for _, it := range items {
		if !tracked[it.ProductID] {
			continue
		}
		adjustments = append(adjustments, repository.StockAdjustment{
			ProductID:   it.ProductID,
			AttributeID: it.AttributeID,
			Quantity:    it.Quantity,
		})
	}
	return adjustments
}

// AddNote appends a free-text note to the order history without touching
// the order status.
func (s *OrderService) AddNote(ctx context.Context, orderID uuid.UUID, actorID, note string) (*models.Order, *ServiceError) {
	order, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) ([]repository.StockAdjustment, error) {
		o.StatusHistory = append(o.StatusHistory, models.HistoryEntry{
			Kind:      models.HistoryKindNote,
			Note:      note,
			UserID:    actorID,
			CreatedAt: time.Now(),
		})
		return nil, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to add order note",
			zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to add note"}
	}
	return order, nil
}

// HandlePaymentCallback applies a gateway callback. Success marks the order
// paid and clears the cart; a duplicate success for an already-paid order is
// a no-op. Failure marks only the payment; the order survives for retry.
// Cancellation changes nothing.
func (s *OrderService) HandlePaymentCallback(ctx context.Context, cb payments.Callback) (*models.Order, *ServiceError) {
	orderID, err := uuid.Parse(cb.OrderID)
	if err != nil {
		return nil, &ServiceError{StatusCode: 400, Message: "Invalid order ID format"}
	}

	if cb.Status == payments.CallbackStatusCancelled {
		order, err := s.orders.FindByID(ctx, orderID)
		if err != nil {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		return order, nil
	}

	alreadyPaid := false
	order, mutErr := s.orders.Mutate(ctx, orderID, func(o *models.Order) ([]repository.StockAdjustment, error) {
		if o.PaymentStatus == models.PaymentStatusPaid {
			alreadyPaid = true
			return nil, nil
		}

		switch cb.Status {
		case payments.CallbackStatusSuccess:
			o.PaymentStatus = models.PaymentStatusPaid
			o.TransactionID = cb.TransactionID
			o.StatusHistory = append(o.StatusHistory, models.HistoryEntry{
				Kind:      models.HistoryKindNote,
				Note:      "Payment confirmed by gateway",
				UserID:    "gateway",
				CreatedAt: time.Now(),
			})
		case payments.CallbackStatusFailed:
			o.PaymentStatus = models.PaymentStatusFailed
			o.StatusHistory = append(o.StatusHistory, models.HistoryEntry{
				Kind:      models.HistoryKindNote,
				Note:      "Payment failed at gateway",
				UserID:    "gateway",
				CreatedAt: time.Now(),
			})
		}
		return nil, nil
	})
	if mutErr != nil {
		if errors.Is(mutErr, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to apply payment callback",
			zap.String("order_id", cb.OrderID), zap.Error(mutErr))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to process payment callback"}
	}

	if alreadyPaid {
		// Duplicate success callbacks must not clear carts or publish again.
		return order, nil
	}

	switch cb.Status {
	case payments.CallbackStatusSuccess:
		if svcErr := s.carts.Clear(ctx, order.UserID.String()); svcErr != nil {
			s.logger.Warn("Failed to clear cart after payment",
				zap.String("order_id", order.ID.String()))
		}
		s.publishEvent(ctx, models.OrderEvent{
			Event:       models.EventPaymentSucceeded,
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID.String(),
			Total:       order.Total,
			Timestamp:   time.Now(),
		})
	case payments.CallbackStatusFailed:
		s.publishEvent(ctx, models.OrderEvent{
			Event:       models.EventPaymentFailed,
			OrderID:     order.ID.String(),
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID.String(),
			Timestamp:   time.Now(),
		})
	}

	return order, nil
}

func (s *OrderService) markPaymentFailed(ctx context.Context, orderID uuid.UUID, reason string) {
	_, err := s.orders.Mutate(ctx, orderID, func(o *models.Order) ([]repository.StockAdjustment, error) {
		o.PaymentStatus = models.PaymentStatusFailed
		o.StatusHistory = append(o.StatusHistory, models.HistoryEntry{
			Kind:      models.HistoryKindNote,
			Note:      reason,
			UserID:    "system",
			CreatedAt: time.Now(),
		})
		return nil, nil
	})
	if err != nil {
		s.logger.Error("Failed to mark payment failed",
			zap.String("order_id", orderID.String()), zap.Error(err))
	}
}

// GetUserOrders retrieves paginated orders for a specific user.
func (s *OrderService) GetUserOrders(ctx context.Context, userID string, page, limit int) (*OrderListResponse, *ServiceError) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, &ServiceError{StatusCode: 400, Message: "Invalid user ID format"}
	}

	orders, total, err := s.orders.FindByUserID(ctx, userUUID, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.String("user_id", userID), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}

	return &OrderListResponse{
		Orders: orders,
		Meta:   buildMeta(page, limit, total),
	}, nil
}

// GetAllOrders retrieves paginated orders for all users (admin only).
func (s *OrderService) GetAllOrders(ctx context.Context, page, limit int) (*OrderListResponse, *ServiceError) {
	orders, total, err := s.orders.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch all orders", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch orders"}
	}

	return &OrderListResponse{
		Orders: orders,
		Meta:   buildMeta(page, limit, total),
	}, nil
}

// GetOrderByID retrieves a specific order scoped to its owner.
func (s *OrderService) GetOrderByID(ctx context.Context, userID string, orderID uuid.UUID) (*models.Order, *ServiceError) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, &ServiceError{StatusCode: 400, Message: "Invalid user ID format"}
	}

	order, err := s.orders.FindByIDAndUserID(ctx, orderID, userUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ServiceError{StatusCode: 404, Message: "Order not found"}
		}
		s.logger.Error("Failed to fetch order",
			zap.String("order_id", orderID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch order"}
	}

	return order, nil
}

// publishEvent emits an order event; delivery is best-effort and never
// fails the request.
func (s *OrderService) publishEvent(ctx context.Context, event models.OrderEvent) {
	if s.producer == nil {
		return
	}
	if err := s.producer.PublishOrderEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish order event",
			zap.String("event", event.Event),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
	}
}

func buildMeta(page, limit int, total int64) MetaData {
	return MetaData{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: calculateTotalPages(total, limit),
		HasMore:    total > int64(page*limit),
	}
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
