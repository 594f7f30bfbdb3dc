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

type stubBranchRepo struct {
	branches map[uuid.UUID]*model.Branch
}

var _ repository.BranchRepository = (*stubBranchRepo)(nil)

func newStubBranchRepo() *stubBranchRepo {
	return &stubBranchRepo{branches: make(map[uuid.UUID]*model.Branch)}
}

func (r *stubBranchRepo) Create(ctx context.Context, b *model.Branch) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	r.branches[b.ID] = b
	return nil
}

func (r *stubBranchRepo) List(ctx context.Context) ([]model.Branch, error) {
	var out []model.Branch
	for _, b := range r.branches {
		out = append(out, *b)
	}
	return out, nil
}

func (r *stubBranchRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	b, ok := r.branches[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (r *stubBranchRepo) FindByCode(ctx context.Context, code string) (*model.Branch, error) {
	for _, b := range r.branches {
		if b.Code == code {
			return b, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubBranchRepo) Update(ctx context.Context, b *model.Branch) error {
	r.branches[b.ID] = b
	return nil
}

func (r *stubBranchRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	if b, ok := r.branches[id]; ok {
		b.Active = false
	}
	return nil
}

type stubClientRepo struct {
	clients map[uuid.UUID]*model.Client
}

var _ repository.ClientRepository = (*stubClientRepo)(nil)

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{clients: make(map[uuid.UUID]*model.Client)}
}

func (r *stubClientRepo) Create(ctx context.Context, c *model.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clients[c.ID] = c
	return nil
}

func (r *stubClientRepo) List(ctx context.Context, filter dto.ClientFilter) ([]model.Client, int64, error) {
	var out []model.Client
	for _, c := range r.clients {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (r *stubClientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *stubClientRepo) FindByDocument(ctx context.Context, document string) (*model.Client, error) {
	for _, c := range r.clients {
		if c.Document == document {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubClientRepo) Update(ctx context.Context, c *model.Client) error {
	r.clients[c.ID] = c
	return nil
}

func (r *stubClientRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	if c, ok := r.clients[id]; ok {
		c.Active = false
	}
	return nil
}

// ─── Fixture ─────────────────────────────────────────────────────────────────

type saleFixture struct {
	svc      SaleService
	saleRepo *stubSaleRepo
	prodRepo *stubProductRepo
	movRepo  *stubMovementRepo
	branch   *model.Branch
	seller   uuid.UUID
	product  *model.Product
}

func buildSaleFixture(t *testing.T) *saleFixture {
	t.Helper()

	saleRepo := newStubSaleRepo()
	prodRepo := newStubProductRepo()
	branchRepo := newStubBranchRepo()
	clientRepo := newStubClientRepo()
	movRepo := &stubMovementRepo{}

	branch := &model.Branch{Code: "BR-01", Name: "Downtown", Active: true}
	require.NoError(t, branchRepo.Create(context.Background(), branch))

	product := prodRepo.add(&model.Product{
		Barcode:   "7791234500017",
		Name:      "Mineral Water 1.5L",
		SalePrice: decimal.NewFromFloat(100.50),
		Stock:     10,
		Active:    true,
	})

	return &saleFixture{
		svc:      NewSaleService(saleRepo, prodRepo, branchRepo, clientRepo, movRepo, nil),
		saleRepo: saleRepo,
		prodRepo: prodRepo,
		movRepo:  movRepo,
		branch:   branch,
		seller:   uuid.New(),
		product:  product,
	}
}

func (f *saleFixture) register(t *testing.T, req dto.RegisterSaleRequest) *dto.SaleResponse {
	t.Helper()
	resp, err := f.svc.RegisterSale(context.Background(), f.seller, req)
	require.NoError(t, err)
	return resp
}

// ─── RegisterSale ────────────────────────────────────────────────────────────

func TestRegisterSaleHappyPath(t *testing.T) {
	f := buildSaleFixture(t)

	resp := f.register(t, dto.RegisterSaleRequest{
		BranchID:   f.branch.ID.String(),
		Items:      []dto.SaleItemRequest{{ProductID: f.product.ID.String(), Quantity: 2}},
		AmountPaid: decimal.NewFromFloat(250),
	})

	assert.Equal(t, "S-000001", resp.Code)
	assert.Equal(t, model.SaleStatusCompleted, resp.Status)
	assert.True(t, resp.Net.Equal(decimal.NewFromFloat(201.00)), "net = %s", resp.Net)
	assert.True(t, resp.Tax.Equal(decimal.NewFromFloat(38.19)), "tax = %s", resp.Tax)
	assert.True(t, resp.Total.Equal(decimal.NewFromFloat(239.19)), "total = %s", resp.Total)
	assert.True(t, resp.Change.Equal(decimal.NewFromFloat(10.81)), "change = %s", resp.Change)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Mineral Water 1.5L", resp.Items[0].Product)
	assert.True(t, resp.Items[0].Subtotal.Equal(decimal.NewFromFloat(201.00)))

	// Stock decremented and a movement recorded.
	assert.Equal(t, 8, f.product.Stock)
	require.Len(t, f.movRepo.movements, 1)
	mov := f.movRepo.movements[0]
	assert.Equal(t, "sale", mov.Type)
	assert.Equal(t, -2, mov.Quantity)
	assert.Equal(t, 10, mov.StockBefore)
	assert.Equal(t, 8, mov.StockAfter)
}

func TestRegisterSaleSequentialCodes(t *testing.T) {
	f := buildSaleFixture(t)
	req := dto.RegisterSaleRequest{
		BranchID:   f.branch.ID.String(),
		Items:      []dto.SaleItemRequest{{ProductID: f.product.ID.String(), Quantity: 1}},
		AmountPaid: decimal.NewFromFloat(1000),
	}

	first := f.register(t, req)
	second := f.register(t, req)

	assert.Equal(t, "S-000001", first.Code)
	assert.Equal(t, "S-000002", second.Code)
}

func TestRegisterSaleInsufficientStock(t *testing.T) {
	f := buildSaleFixture(t)

	_, err := f.svc.RegisterSale(context.Background(), f.seller, dto.RegisterSaleRequest{
		BranchID:   f.branch.ID.String(),
		Items:      []dto.SaleItemRequest{{ProductID: f.product.ID.String(), Quantity: 11}},
		AmountPaid: decimal.NewFromFloat(5000),
	})

	var brErr *BusinessRuleError
	require.ErrorAs(t, err, &brErr)
	assert.Equal(t, f.product.ID, brErr.ProductID)
	assert.Equal(t, 11, brErr.Requested)
	assert.Equal(t, 10, brErr.MaxAllowed)
	assert.Equal(t, 10, f.product.Stock)
	assert.Empty(t, f.saleRepo.sales)
}

func TestRegisterSaleInactiveProduct(t *testing.T) {
	f := buildSaleFixture(t)
	f.product.Active = false

	_, err := f.svc.RegisterSale(context.Background(), f.seller, dto.RegisterSaleRequest{
		BranchID:   f.branch.ID.String(),
		Items:      []dto.SaleItemRequest{{ProductID: f.product.ID.String(), Quantity: 1}},
		AmountPaid: decimal.NewFromFloat(500),
	})

	var brErr *BusinessRuleError
	require.ErrorAs(t, err, &brErr)
}

func TestRegisterSaleUnderpaymentRejected(t *testing.T) {
	f := buildSaleFixture(t)

	// Total of one unit is 100.50 * 1.19 = 119.60 (rounded).
	_, err := f.svc.RegisterSale(context.Background(), f.seller, dto.RegisterSaleRequest{
		BranchID:   f.branch.ID.String(),
		Items:      []dto.SaleItemRequest{{ProductID: f.product.ID.String(), Quantity: 1}},
		AmountPaid: decimal.NewFromFloat(100),
	})

	var brErr *BusinessRuleError
	require.ErrorAs(t, err, &brErr)
	assert.Equal(t, 10, f.product.Stock)
}

func TestRegisterSaleUnknownBranch(t *testing.T) {
	f := buildSaleFixture(t)

	_, err := f.svc.RegisterSale(context.Background(), f.seller, dto.RegisterSaleRequest{
		BranchID:   uuid.NewString(),
		Items:      []dto.SaleItemRequest{{ProductID: f.product.ID.String(), Quantity: 1}},
		AmountPaid: decimal.NewFromFloat(500),
	})

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "branch", nfErr.Entity)
}

func TestRegisterSaleUnknownClient(t *testing.T) {
	f := buildSaleFixture(t)
	clientID := uuid.NewString()

	_, err := f.svc.RegisterSale(context.Background(), f.seller, dto.RegisterSaleRequest{
		BranchID:   f.branch.ID.String(),
		ClientID:   &clientID,
		Items:      []dto.SaleItemRequest{{ProductID: f.product.ID.String(), Quantity: 1}},
		AmountPaid: decimal.NewFromFloat(500),
	})

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "client", nfErr.Entity)
}

// ─── GetSale ─────────────────────────────────────────────────────────────────

func TestGetSaleNotFound(t *testing.T) {
	f := buildSaleFixture(t)

	_, err := f.svc.GetSale(context.Background(), uuid.New())

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "sale", nfErr.Entity)
}

func TestGetSaleRoundTrip(t *testing.T) {
	f := buildSaleFixture(t)

	created := f.register(t, dto.RegisterSaleRequest{
		BranchID:   f.branch.ID.String(),
		Items:      []dto.SaleItemRequest{{ProductID: f.product.ID.String(), Quantity: 2}},
		AmountPaid: decimal.NewFromFloat(250),
	})

	got, err := f.svc.GetSale(context.Background(), uuid.MustParse(created.ID))
	require.NoError(t, err)
	assert.Equal(t, created.Code, got.Code)
	assert.True(t, got.Total.Equal(decimal.NewFromFloat(239.19)))
}
