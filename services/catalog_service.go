package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopswift/storefront/models"
	"github.com/shopswift/storefront/repository"
	"go.uber.org/zap"
)

// ProductView is a product with its computed catalog accessors.
type ProductView struct {
	models.Product
	InStock         bool    `json:"in_stock"`
	DiscountPercent float64 `json:"discount_percent"`
	AverageRating   float64 `json:"average_rating"`
	ReviewCount     int64   `json:"review_count"`
}

// ListProductsQuery narrows public product listings.
type ListProductsQuery struct {
	CategoryID *uuid.UUID // includes the category's whole subtree
	Featured   *bool
	Search     string
	Page       int
	Limit      int
}

// CatalogService defines the interface for catalog business logic.
type CatalogService interface {
	ListProducts(ctx context.Context, q ListProductsQuery) ([]ProductView, int64, *ServiceError)
	GetProduct(ctx context.Context, slug string) (*ProductView, *ServiceError)
	CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, *ServiceError)
	UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, *ServiceError)
	AddAttribute(ctx context.Context, productID uuid.UUID, req *models.CreateAttributeRequest) (*models.ProductAttribute, *ServiceError)
	RemoveAttribute(ctx context.Context, productID, attrID uuid.UUID) *ServiceError
	CategoryTree(ctx context.Context) ([]*models.CategoryNode, *ServiceError)
	CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, *ServiceError)
	UpdateCategory(ctx context.Context, id uuid.UUID, req *models.UpdateCategoryRequest) (*models.Category, *ServiceError)
	AddReview(ctx context.Context, productID, userID uuid.UUID, req *models.CreateReviewRequest) (*models.Review, *ServiceError)
	ListReviews(ctx context.Context, productID uuid.UUID, page, limit int) ([]models.Review, int64, *ServiceError)
}

type catalogServiceImpl struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	logger     *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository, logger *zap.Logger) CatalogService {
	return &catalogServiceImpl{
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

// ListProducts returns active products with computed accessors. Category
// filtering covers the whole subtree rooted at the requested category.
func (s *catalogServiceImpl) ListProducts(ctx context.Context, q ListProductsQuery) ([]ProductView, int64, *ServiceError) {
	filter := repository.ProductFilter{
		Status:   models.ProductStatusActive,
		Featured: q.Featured,
		Search:   q.Search,
	}

	if q.CategoryID != nil {
		subtree, svcErr := s.subtreeIDs(ctx, *q.CategoryID)
		if svcErr != nil {
			return nil, 0, svcErr
		}
		filter.CategoryIDs = subtree
	}

	products, total, err := s.products.FindAll(ctx, filter, q.Page, q.Limit)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list products"}
	}

	views := make([]ProductView, 0, len(products))
	for i := range products {
		view, err := s.buildView(ctx, &products[i])
		if err != nil {
			s.logger.Error("Failed to compute product rating",
				zap.String("product_id", products[i].ID.String()), zap.Error(err))
			return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list products"}
		}
		views = append(views, *view)
	}

	return views, total, nil
}

// GetProduct returns a single product by slug with computed accessors.
func (s *catalogServiceImpl) GetProduct(ctx context.Context, slug string) (*ProductView, *ServiceError) {
	product, err := s.products.FindBySlug(ctx, slug)
	if err != nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
	}
	if product.Status != models.ProductStatusActive {
		return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
	}

	view, err := s.buildView(ctx, product)
	if err != nil {
		s.logger.Error("Failed to compute product rating", zap.String("slug", slug), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to fetch product"}
	}
	return view, nil
}

func (s *catalogServiceImpl) buildView(ctx context.Context, p *models.Product) (*ProductView, error) {
	avg, count, err := s.products.AverageRating(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &ProductView{
		Product:         *p,
		InStock:         p.InStock(),
		DiscountPercent: p.DiscountPercent(),
		AverageRating:   avg,
		ReviewCount:     count,
	}, nil
}

// CreateProduct creates a new product (admin).
func (s *catalogServiceImpl) CreateProduct(ctx context.Context, req *models.CreateProductRequest) (*models.Product, *ServiceError) {
	if _, err := s.categories.FindByID(ctx, req.CategoryID); err != nil {
		return nil, &ServiceError{StatusCode: 400, Message: "Category does not exist"}
	}

	trackQuantity := true
	if req.TrackQuantity != nil {
		trackQuantity = *req.TrackQuantity
	}
	status := req.Status
	if status == "" {
		status = models.ProductStatusDraft
	}

	product := &models.Product{
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Slug:          strings.ToLower(req.Slug),
		Description:   req.Description,
		Price:         req.Price,
		ComparePrice:  req.ComparePrice,
		CostPrice:     req.CostPrice,
		Quantity:      req.Quantity,
		TrackQuantity: trackQuantity,
		Status:        status,
		Featured:      req.Featured,
	}

	if err := s.products.Create(ctx, product); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return nil, &ServiceError{StatusCode: 409, Message: "Product slug already exists"}
		}
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create product"}
	}

	s.logger.Info("Product created", zap.String("slug", product.Slug))
	return product, nil
}

// UpdateProduct applies a partial update to a product (admin).
func (s *catalogServiceImpl) UpdateProduct(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, *ServiceError) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
	}

	if req.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *req.CategoryID); err != nil {
			return nil, &ServiceError{StatusCode: 400, Message: "Category does not exist"}
		}
		product.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.ComparePrice != nil {
		product.ComparePrice = *req.ComparePrice
	}
	if req.CostPrice != nil {
		product.CostPrice = *req.CostPrice
	}
	if req.Quantity != nil {
		product.Quantity = *req.Quantity
	}
	if req.TrackQuantity != nil {
		product.TrackQuantity = *req.TrackQuantity
	}
	if req.Status != nil {
		product.Status = *req.Status
	}
	if req.Featured != nil {
		product.Featured = *req.Featured
	}

	if err := s.products.Update(ctx, product); err != nil {
		s.logger.Error("Failed to update product", zap.String("product_id", id.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update product"}
	}

	return product, nil
}

// AddAttribute adds a variant to a product (admin).
func (s *catalogServiceImpl) AddAttribute(ctx context.Context, productID uuid.UUID, req *models.CreateAttributeRequest) (*models.ProductAttribute, *ServiceError) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
	}

	attr := &models.ProductAttribute{
		ProductID:       productID,
		Name:            req.Name,
		Value:           req.Value,
		Quantity:        req.Quantity,
		AdditionalPrice: req.AdditionalPrice,
	}

	if err := s.products.CreateAttribute(ctx, attr); err != nil {
		s.logger.Error("Failed to create attribute", zap.String("product_id", productID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create attribute"}
	}

	return attr, nil
}

// RemoveAttribute deletes a variant from a product (admin).
func (s *catalogServiceImpl) RemoveAttribute(ctx context.Context, productID, attrID uuid.UUID) *ServiceError {
	if err := s.products.DeleteAttribute(ctx, productID, attrID); err != nil {
		if err.Error() == "record not found" {
			return &ServiceError{StatusCode: 404, Message: "Attribute not found"}
		}
		s.logger.Error("Failed to delete attribute", zap.String("product_id", productID.String()), zap.Error(err))
		return &ServiceError{StatusCode: 500, Message: "Failed to delete attribute"}
	}
	return nil
}

// CategoryTree returns all categories assembled into a parent/child tree.
func (s *catalogServiceImpl) CategoryTree(ctx context.Context) ([]*models.CategoryNode, *ServiceError) {
	categories, err := s.categories.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to list categories"}
	}
	return BuildCategoryTree(categories), nil
}

// BuildCategoryTree assembles flat categories into roots with children.
// Nodes whose parent is missing are treated as roots.
func BuildCategoryTree(categories []models.Category) []*models.CategoryNode {
	nodes := make(map[uuid.UUID]*models.CategoryNode, len(categories))
	for i := range categories {
		nodes[categories[i].ID] = &models.CategoryNode{Category: categories[i]}
	}

	var roots []*models.CategoryNode
	for _, node := range nodes {
		if node.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*node.ParentID]
		if !ok {
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}
	return roots
}

// CreateCategory creates a new category (admin).
func (s *catalogServiceImpl) CreateCategory(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, *ServiceError) {
	if req.ParentID != nil {
		if _, err := s.categories.FindByID(ctx, *req.ParentID); err != nil {
			return nil, &ServiceError{StatusCode: 400, Message: "Parent category does not exist"}
		}
	}

	category := &models.Category{
		ParentID: req.ParentID,
		Name:     req.Name,
		Slug:     strings.ToLower(req.Slug),
		Active:   true,
	}

	if err := s.categories.Create(ctx, category); err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return nil, &ServiceError{StatusCode: 409, Message: "Category slug already exists"}
		}
		s.logger.Error("Failed to create category", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create category"}
	}

	return category, nil
}

// UpdateCategory applies a partial update to a category (admin). Moving a
// category under one of its own descendants is rejected: the ancestor walk
// keeps the tree acyclic since the schema cannot.
func (s *catalogServiceImpl) UpdateCategory(ctx context.Context, id uuid.UUID, req *models.UpdateCategoryRequest) (*models.Category, *ServiceError) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Category not found"}
	}

	if req.ClearParent {
		category.ParentID = nil
	} else if req.ParentID != nil {
		all, err := s.categories.FindAll(ctx)
		if err != nil {
			s.logger.Error("Failed to list categories", zap.Error(err))
			return nil, &ServiceError{StatusCode: 500, Message: "Failed to update category"}
		}
		if svcErr := validateCategoryParent(all, id, *req.ParentID); svcErr != nil {
			return nil, svcErr
		}
		category.ParentID = req.ParentID
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Active != nil {
		category.Active = *req.Active
	}

	if err := s.categories.Update(ctx, category); err != nil {
		s.logger.Error("Failed to update category", zap.String("category_id", id.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to update category"}
	}

	return category, nil
}

// validateCategoryParent walks from the proposed parent up to the root and
// rejects the move when the walk passes through the category itself.
func validateCategoryParent(all []models.Category, id, parentID uuid.UUID) *ServiceError {
	if parentID == id {
		return &ServiceError{StatusCode: 400, Message: "Category cannot be its own parent"}
	}

	parents := make(map[uuid.UUID]*uuid.UUID, len(all))
	exists := make(map[uuid.UUID]bool, len(all))
	for i := range all {
		parents[all[i].ID] = all[i].ParentID
		exists[all[i].ID] = true
	}
	if !exists[parentID] {
		return &ServiceError{StatusCode: 400, Message: "Parent category does not exist"}
	}

	cursor := parentID
	for steps := 0; steps <= len(all); steps++ {
		next, ok := parents[cursor]
		if !ok || next == nil {
			return nil
		}
		if *next == id {
			return &ServiceError{StatusCode: 400, Message: "Category cannot be moved under its own descendant"}
		}
		cursor = *next
	}
	// The walk exceeded the category count: the stored tree already has a
	// cycle, refuse to extend it.
	return &ServiceError{StatusCode: 400, Message: "Category tree is inconsistent"}
}

// subtreeIDs returns the category id and all of its descendants.
func (s *catalogServiceImpl) subtreeIDs(ctx context.Context, rootID uuid.UUID) ([]uuid.UUID, *ServiceError) {
	all, err := s.categories.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list categories", zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to list products"}
	}

	children := make(map[uuid.UUID][]uuid.UUID, len(all))
	for i := range all {
		if all[i].ParentID != nil {
			children[*all[i].ParentID] = append(children[*all[i].ParentID], all[i].ID)
		}
	}

	ids := []uuid.UUID{rootID}
	for i := 0; i < len(ids); i++ {
		ids = append(ids, children[ids[i]]...)
	}
	return ids, nil
}

// AddReview records a customer review; reviews await moderation before
// they count toward the average rating.
func (s *catalogServiceImpl) AddReview(ctx context.Context, productID, userID uuid.UUID, req *models.CreateReviewRequest) (*models.Review, *ServiceError) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, &ServiceError{StatusCode: 404, Message: "Product not found"}
	}

	review := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	if err := s.products.CreateReview(ctx, review); err != nil {
		s.logger.Error("Failed to create review", zap.String("product_id", productID.String()), zap.Error(err))
		return nil, &ServiceError{StatusCode: 500, Message: "Failed to create review"}
	}

	return review, nil
}

// ListReviews returns approved reviews for a product.
func (s *catalogServiceImpl) ListReviews(ctx context.Context, productID uuid.UUID, page, limit int) ([]models.Review, int64, *ServiceError) {
	reviews, total, err := s.products.FindReviews(ctx, productID, page, limit)
	if err != nil {
		s.logger.Error("Failed to list reviews", zap.String("product_id", productID.String()), zap.Error(err))
		return nil, 0, &ServiceError{StatusCode: 500, Message: "Failed to list reviews"}
	}
	return reviews, total, nil
}
