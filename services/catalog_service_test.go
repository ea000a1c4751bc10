package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shopswift/storefront/models"
	"github.com/shopswift/storefront/services"
)

// --- Mock Category Repository ---

type mockCategoryRepo struct {
	categories map[uuid.UUID]*models.Category
}

func newMockCategoryRepo() *mockCategoryRepo {
	return &mockCategoryRepo{categories: make(map[uuid.UUID]*models.Category)}
}

func (m *mockCategoryRepo) add(parentID *uuid.UUID, name string) *models.Category {
	c := &models.Category{ID: uuid.New(), ParentID: parentID, Name: name, Slug: name, Active: true}
	m.categories[c.ID] = c
	return c
}

func (m *mockCategoryRepo) Create(_ context.Context, c *models.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) Update(_ context.Context, c *models.Category) error {
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (m *mockCategoryRepo) FindAll(_ context.Context) ([]models.Category, error) {
	var result []models.Category
	for _, c := range m.categories {
		result = append(result, *c)
	}
	return result, nil
}

func newTestCatalogService(products *mockProductRepo, categories *mockCategoryRepo) services.CatalogService {
	return services.NewCatalogService(products, categories, zap.NewNop())
}

// --- Category tree tests ---

func TestCatalogService_CategoryTree(t *testing.T) {
	categories := newMockCategoryRepo()
	svc := newTestCatalogService(newMockProductRepo(), categories)

	root := categories.add(nil, "electronics")
	child := categories.add(&root.ID, "phones")
	categories.add(&child.ID, "accessories")
	categories.add(nil, "books")

	tree, svcErr := svc.CategoryTree(context.Background())

	assert.Nil(t, svcErr)
	assert.Len(t, tree, 2, "two roots")

	var electronics *models.CategoryNode
	for _, n := range tree {
		if n.ID == root.ID {
			electronics = n
		}
	}
	assert.NotNil(t, electronics)
	assert.Len(t, electronics.Children, 1)
	assert.Equal(t, child.ID, electronics.Children[0].ID)
	assert.Len(t, electronics.Children[0].Children, 1)
}

func TestCatalogService_CategoryTree_OrphanBecomesRoot(t *testing.T) {
	missing := uuid.New()
	tree := services.BuildCategoryTree([]models.Category{
		{ID: uuid.New(), ParentID: &missing, Name: "stranded"},
	})

	assert.Len(t, tree, 1, "a node whose parent is missing surfaces as a root")
}

func TestCatalogService_UpdateCategory_RejectsOwnParent(t *testing.T) {
	categories := newMockCategoryRepo()
	svc := newTestCatalogService(newMockProductRepo(), categories)

	c := categories.add(nil, "clothing")

	_, svcErr := svc.UpdateCategory(context.Background(), c.ID, &models.UpdateCategoryRequest{ParentID: &c.ID})

	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestCatalogService_UpdateCategory_RejectsDescendantParent(t *testing.T) {
	categories := newMockCategoryRepo()
	svc := newTestCatalogService(newMockProductRepo(), categories)

	root := categories.add(nil, "clothing")
	mid := categories.add(&root.ID, "shirts")
	leaf := categories.add(&mid.ID, "t-shirts")

	// Moving the root under its own grandchild would form a cycle.
	_, svcErr := svc.UpdateCategory(context.Background(), root.ID, &models.UpdateCategoryRequest{ParentID: &leaf.ID})

	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
	assert.Nil(t, categories.categories[root.ID].ParentID, "rejected move leaves the tree untouched")
}

func TestCatalogService_UpdateCategory_ValidMove(t *testing.T) {
	categories := newMockCategoryRepo()
	svc := newTestCatalogService(newMockProductRepo(), categories)

	a := categories.add(nil, "home")
	b := categories.add(nil, "kitchen")

	updated, svcErr := svc.UpdateCategory(context.Background(), b.ID, &models.UpdateCategoryRequest{ParentID: &a.ID})

	assert.Nil(t, svcErr)
	assert.Equal(t, a.ID, *updated.ParentID)
}

func TestCatalogService_UpdateCategory_ClearParent(t *testing.T) {
	categories := newMockCategoryRepo()
	svc := newTestCatalogService(newMockProductRepo(), categories)

	root := categories.add(nil, "home")
	child := categories.add(&root.ID, "garden")

	updated, svcErr := svc.UpdateCategory(context.Background(), child.ID, &models.UpdateCategoryRequest{ClearParent: true})

	assert.Nil(t, svcErr)
	assert.Nil(t, updated.ParentID)
}

// --- Product tests ---

func TestCatalogService_CreateProduct_UnknownCategory(t *testing.T) {
	svc := newTestCatalogService(newMockProductRepo(), newMockCategoryRepo())

	_, svcErr := svc.CreateProduct(context.Background(), &models.CreateProductRequest{
		CategoryID: uuid.New(),
		Name:       "Widget",
		Slug:       "widget",
		Price:      10,
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestCatalogService_CreateProduct_DefaultsToDraft(t *testing.T) {
	categories := newMockCategoryRepo()
	svc := newTestCatalogService(newMockProductRepo(), categories)

	c := categories.add(nil, "gadgets")

	product, svcErr := svc.CreateProduct(context.Background(), &models.CreateProductRequest{
		CategoryID: c.ID,
		Name:       "Widget",
		Slug:       "WIDGET",
		Price:      10,
	})

	assert.Nil(t, svcErr)
	assert.Equal(t, models.ProductStatusDraft, product.Status, "new products are hidden until published")
	assert.Equal(t, "widget", product.Slug, "slug is lowercased")
	assert.True(t, product.TrackQuantity, "stock tracking defaults on")
}

func TestCatalogService_GetProduct_HidesInactive(t *testing.T) {
	products := newMockProductRepo()
	svc := newTestCatalogService(products, newMockCategoryRepo())

	products.add(&models.Product{
		CategoryID: uuid.New(),
		Name:       "Old Thing",
		Slug:       "old-thing",
		Price:      10,
		Status:     models.ProductStatusInactive,
	})

	_, svcErr := svc.GetProduct(context.Background(), "old-thing")

	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode, "inactive products are invisible to the public catalog")
}

func TestCatalogService_GetProduct_ComputedFields(t *testing.T) {
	products := newMockProductRepo()
	svc := newTestCatalogService(products, newMockCategoryRepo())

	products.add(&models.Product{
		CategoryID:    uuid.New(),
		Name:          "Marked Down",
		Slug:          "marked-down",
		Price:         75,
		ComparePrice:  100,
		Quantity:      5,
		TrackQuantity: true,
		Status:        models.ProductStatusActive,
	})

	view, svcErr := svc.GetProduct(context.Background(), "marked-down")

	assert.Nil(t, svcErr)
	assert.True(t, view.InStock)
	assert.Equal(t, 25.0, view.DiscountPercent)
}

func TestCatalogService_AddReview_UnknownProduct(t *testing.T) {
	svc := newTestCatalogService(newMockProductRepo(), newMockCategoryRepo())

	_, svcErr := svc.AddReview(context.Background(), uuid.New(), uuid.New(), &models.CreateReviewRequest{
		Rating:  5,
		Comment: "great",
	})

	assert.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
}
