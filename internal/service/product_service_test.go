package service

import (
	"context"
	"testing"

	"retailpos/internal/dto"
	"retailpos/internal/model"
	"retailpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubCategoryRepo struct {
	categories map[uuid.UUID]*model.Category
}

var _ repository.CategoryRepository = (*stubCategoryRepo)(nil)

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{categories: make(map[uuid.UUID]*model.Category)}
}

func (r *stubCategoryRepo) Create(ctx context.Context, c *model.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.categories[c.ID] = c
	return nil
}

func (r *stubCategoryRepo) List(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	for _, c := range r.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (r *stubCategoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	c, ok := r.categories[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubCategoryRepo) FindByName(ctx context.Context, name string) (*model.Category, error) {
	for _, c := range r.categories {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCategoryRepo) Update(ctx context.Context, c *model.Category) error {
	r.categories[c.ID] = c
	return nil
}

func (r *stubCategoryRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	if c, ok := r.categories[id]; ok {
		c.Active = false
	}
	return nil
}

type productFixture struct {
	svc      ProductService
	prodRepo *stubProductRepo
	catRepo  *stubCategoryRepo
	movRepo  *stubMovementRepo
	category *model.Category
	product  *model.Product
}

func buildProductFixture(t *testing.T) *productFixture {
	t.Helper()

	prodRepo := newStubProductRepo()
	catRepo := newStubCategoryRepo()
	movRepo := &stubMovementRepo{}

	category := &model.Category{Name: "Beverages", Active: true}
	require.NoError(t, catRepo.Create(context.Background(), category))

	product := prodRepo.add(&model.Product{
		Barcode:    "7791234500017",
		Name:       "Mineral Water 1.5L",
		CategoryID: category.ID,
		SalePrice:  decimal.NewFromFloat(2.50),
		Stock:      10,
		MinStock:   5,
		Unit:       "unit",
		Active:     true,
	})

	return &productFixture{
		svc:      NewProductService(prodRepo, catRepo, movRepo, nil),
		prodRepo: prodRepo,
		catRepo:  catRepo,
		movRepo:  movRepo,
		category: category,
		product:  product,
	}
}

func TestProductCreate(t *testing.T) {
	f := buildProductFixture(t)

	resp, err := f.svc.Create(context.Background(), dto.CreateProductRequest{
		Barcode:    "7791234500099",
		Name:       "Sparkling Water 2L",
		CategoryID: f.category.ID.String(),
		BranchID:   uuid.NewString(),
		CostPrice:  decimal.NewFromFloat(1.10),
		SalePrice:  decimal.NewFromFloat(3.20),
		Stock:      24,
	})
	require.NoError(t, err)

	assert.True(t, resp.Active)
	assert.Equal(t, "unit", resp.Unit)
	assert.Equal(t, 24, resp.Stock)
}

func TestProductCreateUnknownCategory(t *testing.T) {
	f := buildProductFixture(t)

	_, err := f.svc.Create(context.Background(), dto.CreateProductRequest{
		Barcode:    "7791234500099",
		Name:       "Sparkling Water 2L",
		CategoryID: uuid.NewString(),
		BranchID:   uuid.NewString(),
		CostPrice:  decimal.NewFromFloat(1.10),
		SalePrice:  decimal.NewFromFloat(3.20),
	})

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "category", nfErr.Entity)
}

func TestProductUpdatePartial(t *testing.T) {
	f := buildProductFixture(t)
	newPrice := decimal.NewFromFloat(2.90)

	resp, err := f.svc.Update(context.Background(), f.product.ID, dto.UpdateProductRequest{
		SalePrice: &newPrice,
	})
	require.NoError(t, err)

	assert.True(t, resp.SalePrice.Equal(newPrice))
	// Untouched fields keep their values.
	assert.Equal(t, "Mineral Water 1.5L", resp.Name)
	assert.Equal(t, 10, resp.Stock)
}

func TestAdjustStockRecordsMovement(t *testing.T) {
	f := buildProductFixture(t)
	actor := uuid.New()

	err := f.svc.AdjustStock(context.Background(), f.product.ID, actor, dto.AdjustStockRequest{
		Delta: -4,
		Note:  "breakage during restock",
	})
	require.NoError(t, err)

	assert.Equal(t, 6, f.product.Stock)
	require.Len(t, f.movRepo.movements, 1)
	mov := f.movRepo.movements[0]
	assert.Equal(t, "manual_adjust", mov.Type)
	assert.Equal(t, -4, mov.Quantity)
	assert.Equal(t, 10, mov.StockBefore)
	assert.Equal(t, 6, mov.StockAfter)
	require.NotNil(t, mov.ReferenceID)
	assert.Equal(t, actor, *mov.ReferenceID)
}

func TestAdjustStockBelowZeroRejected(t *testing.T) {
	f := buildProductFixture(t)

	err := f.svc.AdjustStock(context.Background(), f.product.ID, uuid.New(), dto.AdjustStockRequest{
		Delta: -11,
		Note:  "stocktake correction",
	})

	var brErr *BusinessRuleError
	require.ErrorAs(t, err, &brErr)
	assert.Equal(t, -11, brErr.Requested)
	assert.Equal(t, 10, brErr.MaxAllowed)
	assert.Equal(t, 10, f.product.Stock)
	assert.Empty(t, f.movRepo.movements)
}

func TestDeactivateUnknownProduct(t *testing.T) {
	f := buildProductFixture(t)

	err := f.svc.Deactivate(context.Background(), uuid.New())

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}
