package service

import (
	"context"
	"fmt"
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

// ─── In-memory stubs ─────────────────────────────────────────────────────────
// The repositories are replaced with map-backed stubs. DB() returns nil so
// runTx executes the transaction body directly.

type stubSaleRepo struct {
	sales    map[uuid.UUID]*model.Sale
	codeSeq  int64
	saveErr  error
}

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

func (r *stubSaleRepo) Create(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	for i := range s.Items {
		if s.Items[i].ID == uuid.Nil {
			s.Items[i].ID = uuid.New()
		}
		s.Items[i].SaleID = s.ID
	}
	cp := *s
	r.sales[s.ID] = &cp
	return nil
}

func (r *stubSaleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSaleRepo) FindByIDForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSaleRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	s, ok := r.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Status = status
	return nil
}

func (r *stubSaleRepo) NextSaleCode(ctx context.Context, tx *gorm.DB) (string, error) {
	r.codeSeq++
	return fmt.Sprintf("S-%06d", r.codeSeq), nil
}

func (r *stubSaleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range r.sales {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

type stubReturnRepo struct {
	bySale map[uuid.UUID][]model.SaleReturn
}

var _ repository.SaleReturnRepository = (*stubReturnRepo)(nil)

func newStubReturnRepo() *stubReturnRepo {
	return &stubReturnRepo{bySale: make(map[uuid.UUID][]model.SaleReturn)}
}

func (r *stubReturnRepo) CreateTx(tx *gorm.DB, ret *model.SaleReturn) error {
	ret.ID = uuid.New()
	for i := range ret.Items {
		ret.Items[i].ID = uuid.New()
		ret.Items[i].SaleReturnID = ret.ID
	}
	cp := *ret
	cp.Items = append([]model.SaleReturnItem(nil), ret.Items...)
	r.bySale[ret.SaleID] = append(r.bySale[ret.SaleID], cp)
	return nil
}

func (r *stubReturnRepo) FindBySaleTx(tx *gorm.DB, saleID uuid.UUID) ([]model.SaleReturn, error) {
	return r.bySale[saleID], nil
}

func (r *stubReturnRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SaleReturn, error) {
	for _, returns := range r.bySale {
		for i := range returns {
			if returns[i].ID == id {
				return &returns[i], nil
			}
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubReturnRepo) ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.SaleReturn, error) {
	return r.bySale[saleID], nil
}

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

func (r *stubProductRepo) add(p *model.Product) *model.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return p
}

func (r *stubProductRepo) Create(ctx context.Context, p *model.Product) error {
	r.add(p)
	return nil
}

func (r *stubProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// Return a snapshot, like the real repository scanning a fresh row.
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	for _, p := range r.products {
		if p.Barcode == barcode && p.Active {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) List(ctx context.Context, filter dto.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(ctx context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if p, ok := r.products[id]; ok {
		p.Active = false
	}
	return nil
}

func (r *stubProductRepo) Reactivate(ctx context.Context, id uuid.UUID) error {
	if p, ok := r.products[id]; ok {
		p.Active = true
	}
	return nil
}

func (r *stubProductRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) UpdateStockTx(tx *gorm.DB, id uuid.UUID, delta int) error {
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Stock += delta
	return nil
}

func (r *stubProductRepo) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	return r.UpdateStockTx(nil, id, delta)
}

type stubMovementRepo struct {
	movements []model.StockMovement
}

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

func (r *stubMovementRepo) Create(ctx context.Context, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) CreateTx(tx *gorm.DB, m *model.StockMovement) error {
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) List(ctx context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	return r.movements, int64(len(r.movements)), nil
}

// ─── Fixture ─────────────────────────────────────────────────────────────────

type returnFixture struct {
	svc       ReturnService
	saleRepo  *stubSaleRepo
	retRepo   *stubReturnRepo
	prodRepo  *stubProductRepo
	movRepo   *stubMovementRepo
	sale      *model.Sale
	productA  *model.Product
	productB  *model.Product
}

// buildReturnFixture seeds a completed sale of 5×A and 2×B. Product stock
// reflects the state after the sale (A: 10, B: 4).
func buildReturnFixture(t *testing.T) *returnFixture {
	t.Helper()

	saleRepo := newStubSaleRepo()
	retRepo := newStubReturnRepo()
	prodRepo := newStubProductRepo()
	movRepo := &stubMovementRepo{}

	productA := prodRepo.add(&model.Product{
		Barcode:   "7791234500017",
		Name:      "Mineral Water 1.5L",
		SalePrice: decimal.NewFromFloat(2.50),
		Stock:     10,
		Active:    true,
	})
	productB := prodRepo.add(&model.Product{
		Barcode:   "7791234500024",
		Name:      "Ground Coffee 500g",
		SalePrice: decimal.NewFromFloat(9.90),
		Stock:     4,
		Active:    true,
	})

	sale := &model.Sale{
		ID:       uuid.New(),
		Code:     "S-000042",
		BranchID: uuid.New(),
		SellerID: uuid.New(),
		Status:   model.SaleStatusCompleted,
		Items: []model.SaleItem{
			{ID: uuid.New(), ProductID: productA.ID, Quantity: 5, UnitPrice: productA.SalePrice},
			{ID: uuid.New(), ProductID: productB.ID, Quantity: 2, UnitPrice: productB.SalePrice},
		},
	}
	for i := range sale.Items {
		sale.Items[i].SaleID = sale.ID
	}
	saleRepo.sales[sale.ID] = sale

	return &returnFixture{
		svc:      NewReturnService(saleRepo, retRepo, prodRepo, movRepo, nil),
		saleRepo: saleRepo,
		retRepo:  retRepo,
		prodRepo: prodRepo,
		movRepo:  movRepo,
		sale:     sale,
		productA: productA,
		productB: productB,
	}
}

func returnReq(lines ...dto.ReturnItemRequest) dto.RecordReturnRequest {
	return dto.RecordReturnRequest{Items: lines}
}

// ─── RecordReturn ────────────────────────────────────────────────────────────

func TestRecordReturnPartialRestoresStock(t *testing.T) {
	f := buildReturnFixture(t)

	resp, err := f.svc.RecordReturn(context.Background(), f.sale.ID, nil,
		returnReq(dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 3}))
	require.NoError(t, err)

	assert.Equal(t, f.sale.ID.String(), resp.SaleID)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.Items[0].Quantity)
	assert.Equal(t, "Mineral Water 1.5L", resp.Items[0].Product)
	assert.Equal(t, model.SaleStatusCompleted, resp.SaleStatus)

	assert.Equal(t, 13, f.productA.Stock)
	assert.Equal(t, model.SaleStatusCompleted, f.sale.Status)

	require.Len(t, f.movRepo.movements, 1)
	mov := f.movRepo.movements[0]
	assert.Equal(t, "return", mov.Type)
	assert.Equal(t, 3, mov.Quantity)
	assert.Equal(t, 10, mov.StockBefore)
	assert.Equal(t, 13, mov.StockAfter)
	require.NotNil(t, mov.ReferenceID)
	assert.Equal(t, resp.ID, mov.ReferenceID.String())
}

func TestRecordReturnFullReturnCancelsSale(t *testing.T) {
	f := buildReturnFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordReturn(ctx, f.sale.ID, nil, returnReq(
		dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 3},
	))
	require.NoError(t, err)
	assert.Equal(t, model.SaleStatusCompleted, f.sale.Status)

	resp, err := f.svc.RecordReturn(ctx, f.sale.ID, nil, returnReq(
		dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 2},
		dto.ReturnItemRequest{ProductID: f.productB.ID.String(), Quantity: 2},
	))
	require.NoError(t, err)

	assert.Equal(t, model.SaleStatusCancelled, resp.SaleStatus)
	assert.Equal(t, model.SaleStatusCancelled, f.sale.Status)
	assert.Equal(t, 15, f.productA.Stock)
	assert.Equal(t, 6, f.productB.Stock)
}

func TestRecordReturnOverReturnRejected(t *testing.T) {
	f := buildReturnFixture(t)

	_, err := f.svc.RecordReturn(context.Background(), f.sale.ID, nil,
		returnReq(dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 6}))

	var brErr *BusinessRuleError
	require.ErrorAs(t, err, &brErr)
	assert.Equal(t, f.productA.ID, brErr.ProductID)
	assert.Equal(t, 6, brErr.Requested)
	assert.Equal(t, 5, brErr.MaxAllowed)

	assert.Empty(t, f.retRepo.bySale[f.sale.ID])
	assert.Equal(t, 10, f.productA.Stock)
	assert.Empty(t, f.movRepo.movements)
}

func TestRecordReturnCumulativeCapAcrossReturns(t *testing.T) {
	f := buildReturnFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordReturn(ctx, f.sale.ID, nil,
		returnReq(dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 3}))
	require.NoError(t, err)

	// 3 of 5 already returned — only 2 remain returnable.
	_, err = f.svc.RecordReturn(ctx, f.sale.ID, nil,
		returnReq(dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 3}))

	var brErr *BusinessRuleError
	require.ErrorAs(t, err, &brErr)
	assert.Equal(t, 2, brErr.MaxAllowed)
	assert.Equal(t, 13, f.productA.Stock)
	assert.Len(t, f.retRepo.bySale[f.sale.ID], 1)
}

func TestRecordReturnDuplicateProductWithinRequest(t *testing.T) {
	f := buildReturnFixture(t)
	ctx := context.Background()

	// Two lines for the same product count against the same cap.
	_, err := f.svc.RecordReturn(ctx, f.sale.ID, nil, returnReq(
		dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 3},
		dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 3},
	))
	var brErr *BusinessRuleError
	require.ErrorAs(t, err, &brErr)
	assert.Equal(t, 2, brErr.MaxAllowed)
	assert.Equal(t, 10, f.productA.Stock)

	// Within the cap the duplicate lines are both accepted.
	resp, err := f.svc.RecordReturn(ctx, f.sale.ID, nil, returnReq(
		dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 2},
		dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 3},
	))
	require.NoError(t, err)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 15, f.productA.Stock)
}

func TestRecordReturnProductNotInSale(t *testing.T) {
	f := buildReturnFixture(t)

	stray := f.prodRepo.add(&model.Product{
		Barcode:   "7791234500031",
		Name:      "Olive Oil 1L",
		SalePrice: decimal.NewFromFloat(15.00),
		Stock:     7,
		Active:    true,
	})

	_, err := f.svc.RecordReturn(context.Background(), f.sale.ID, nil,
		returnReq(dto.ReturnItemRequest{ProductID: stray.ID.String(), Quantity: 1}))

	var brErr *BusinessRuleError
	require.ErrorAs(t, err, &brErr)
	assert.Equal(t, stray.ID, brErr.ProductID)
	assert.Equal(t, 7, stray.Stock)
	assert.Empty(t, f.retRepo.bySale[f.sale.ID])
}

func TestRecordReturnRejectsPendingAndCancelledSales(t *testing.T) {
	for _, status := range []string{model.SaleStatusPending, model.SaleStatusCancelled} {
		t.Run(status, func(t *testing.T) {
			f := buildReturnFixture(t)
			f.sale.Status = status

			_, err := f.svc.RecordReturn(context.Background(), f.sale.ID, nil,
				returnReq(dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 1}))

			var brErr *BusinessRuleError
			require.ErrorAs(t, err, &brErr)
			assert.Equal(t, 10, f.productA.Stock)
		})
	}
}

func TestRecordReturnAtomicityOnMixedRequest(t *testing.T) {
	f := buildReturnFixture(t)

	// First line is valid, second over-returns — nothing may be persisted.
	_, err := f.svc.RecordReturn(context.Background(), f.sale.ID, nil, returnReq(
		dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 2},
		dto.ReturnItemRequest{ProductID: f.productB.ID.String(), Quantity: 3},
	))

	var brErr *BusinessRuleError
	require.ErrorAs(t, err, &brErr)
	assert.Equal(t, f.productB.ID, brErr.ProductID)

	assert.Equal(t, 10, f.productA.Stock)
	assert.Equal(t, 4, f.productB.Stock)
	assert.Empty(t, f.retRepo.bySale[f.sale.ID])
	assert.Empty(t, f.movRepo.movements)
}

func TestRecordReturnIsNotIdempotent(t *testing.T) {
	f := buildReturnFixture(t)
	ctx := context.Background()
	req := returnReq(dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 2})

	_, err := f.svc.RecordReturn(ctx, f.sale.ID, nil, req)
	require.NoError(t, err)
	_, err = f.svc.RecordReturn(ctx, f.sale.ID, nil, req)
	require.NoError(t, err)

	// Resubmitting created a second, independent return.
	assert.Len(t, f.retRepo.bySale[f.sale.ID], 2)
	assert.Equal(t, 14, f.productA.Stock)
}

func TestRecordReturnRecordsActor(t *testing.T) {
	f := buildReturnFixture(t)
	actor := uuid.New()

	resp, err := f.svc.RecordReturn(context.Background(), f.sale.ID, &actor,
		returnReq(dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 1}))
	require.NoError(t, err)

	require.NotNil(t, resp.CreatedBy)
	assert.Equal(t, actor.String(), *resp.CreatedBy)
}

func TestRecordReturnValidation(t *testing.T) {
	f := buildReturnFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  dto.RecordReturnRequest
	}{
		{"empty items", dto.RecordReturnRequest{}},
		{"malformed product id", returnReq(dto.ReturnItemRequest{ProductID: "not-a-uuid", Quantity: 1})},
		{"zero quantity", returnReq(dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 0})},
		{"negative quantity", returnReq(dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: -2})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.RecordReturn(ctx, f.sale.ID, nil, tc.req)
			var veErr *ValidationError
			assert.ErrorAs(t, err, &veErr)
		})
	}
	assert.Equal(t, 10, f.productA.Stock)
	assert.Empty(t, f.retRepo.bySale[f.sale.ID])
}

func TestRecordReturnSaleNotFound(t *testing.T) {
	f := buildReturnFixture(t)

	_, err := f.svc.RecordReturn(context.Background(), uuid.New(), nil,
		returnReq(dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 1}))

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "sale", nfErr.Entity)
}

func TestRecordReturnUnknownProduct(t *testing.T) {
	f := buildReturnFixture(t)

	_, err := f.svc.RecordReturn(context.Background(), f.sale.ID, nil,
		returnReq(dto.ReturnItemRequest{ProductID: uuid.NewString(), Quantity: 1}))

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "product", nfErr.Entity)
}

// ─── ListBySale ──────────────────────────────────────────────────────────────

func TestListBySale(t *testing.T) {
	f := buildReturnFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordReturn(ctx, f.sale.ID, nil,
		returnReq(dto.ReturnItemRequest{ProductID: f.productA.ID.String(), Quantity: 3}))
	require.NoError(t, err)
	_, err = f.svc.RecordReturn(ctx, f.sale.ID, nil,
		returnReq(dto.ReturnItemRequest{ProductID: f.productB.ID.String(), Quantity: 1}))
	require.NoError(t, err)

	returns, err := f.svc.ListBySale(ctx, f.sale.ID)
	require.NoError(t, err)
	require.Len(t, returns, 2)
	assert.Equal(t, 3, returns[0].Items[0].Quantity)
	assert.Equal(t, 1, returns[1].Items[0].Quantity)
}

func TestListBySaleUnknownSale(t *testing.T) {
	f := buildReturnFixture(t)

	_, err := f.svc.ListBySale(context.Background(), uuid.New())

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}
