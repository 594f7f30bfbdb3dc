package service

import (
	"context"
	"errors"
	"fmt"

	"retailpos/internal/dto"
	"retailpos/internal/model"
	"retailpos/internal/repository"
	"retailpos/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// taxRate is applied to the net amount of every sale.
var taxRate = decimal.NewFromFloat(0.19)

type SaleService interface {
	RegisterSale(ctx context.Context, sellerID uuid.UUID, req dto.RegisterSaleRequest) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo         repository.SaleRepository
	productRepo  repository.ProductRepository
	branchRepo   repository.BranchRepository
	clientRepo   repository.ClientRepository
	movementRepo repository.StockMovementRepository
	dispatcher   *worker.Dispatcher
}

func NewSaleService(
	repo repository.SaleRepository,
	productRepo repository.ProductRepository,
	branchRepo repository.BranchRepository,
	clientRepo repository.ClientRepository,
	movementRepo repository.StockMovementRepository,
	dispatcher *worker.Dispatcher,
) SaleService {
	return &saleService{
		repo:         repo,
		productRepo:  productRepo,
		branchRepo:   branchRepo,
		clientRepo:   clientRepo,
		movementRepo: movementRepo,
		dispatcher:   dispatcher,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// ── RegisterSale ──────────────────────────────────────────────────────────────
// Full ACID transaction:
//   1. Resolve branch, client and products; reject inactive or out-of-stock items
//   2. Compute net, tax, total and change with decimal arithmetic
//   3. BEGIN TX: nextval sale code, create sale+items, decrement stock,
//      record stock movements
//   4. COMMIT
//   5. (async) dispatch receipt job when a client email was supplied

func (s *saleService) RegisterSale(ctx context.Context, sellerID uuid.UUID, req dto.RegisterSaleRequest) (*dto.SaleResponse, error) {
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, newValidationError("invalid branch_id: %v", err)
	}
	if _, err := s.branchRepo.FindByID(ctx, branchID); err != nil {
		return nil, &NotFoundError{Entity: "branch", ID: branchID}
	}

	var clientID *uuid.UUID
	if req.ClientID != nil {
		cid, err := uuid.Parse(*req.ClientID)
		if err != nil {
			return nil, newValidationError("invalid client_id: %v", err)
		}
		if _, err := s.clientRepo.FindByID(ctx, cid); err != nil {
			return nil, &NotFoundError{Entity: "client", ID: cid}
		}
		clientID = &cid
	}

	// Resolve products and calculate totals (pre-flight, outside TX)
	type resolvedItem struct {
		productID uuid.UUID
		name      string
		price     decimal.Decimal
		quantity  int
		subtotal  decimal.Decimal
	}

	var resolved []resolvedItem
	net := decimal.Zero

	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, newValidationError("invalid product_id: %v", err)
		}
		p, err := s.productRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, &NotFoundError{Entity: "product", ID: pid}
		}
		if !p.Active {
			return nil, &BusinessRuleError{Msg: fmt.Sprintf("product %q is inactive and cannot be sold", p.Name), ProductID: pid}
		}
		if p.Stock < item.Quantity {
			return nil, &BusinessRuleError{
				Msg:        fmt.Sprintf("insufficient stock for product %q: requested %d, available %d", p.Name, item.Quantity, p.Stock),
				ProductID:  pid,
				Requested:  item.Quantity,
				MaxAllowed: p.Stock,
			}
		}
		lineSubtotal := p.SalePrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		net = net.Add(lineSubtotal)
		resolved = append(resolved, resolvedItem{
			productID: pid,
			name:      p.Name,
			price:     p.SalePrice,
			quantity:  item.Quantity,
			subtotal:  lineSubtotal,
		})
	}

	tax := net.Mul(taxRate).Round(2)
	total := net.Add(tax)

	if req.AmountPaid.LessThan(total) {
		return nil, &BusinessRuleError{Msg: "amount paid is less than the sale total"}
	}
	change := req.AmountPaid.Sub(total)

	// ACID transaction
	var sale model.Sale
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		code, err := s.repo.NextSaleCode(ctx, tx)
		if err != nil {
			return err
		}

		sale = model.Sale{
			Code:       code,
			BranchID:   branchID,
			SellerID:   sellerID,
			ClientID:   clientID,
			Net:        net,
			Tax:        tax,
			Total:      total,
			AmountPaid: req.AmountPaid,
			Change:     change,
			Status:     model.SaleStatusCompleted,
		}

		for _, r := range resolved {
			sale.Items = append(sale.Items, model.SaleItem{
				ProductID: r.productID,
				Quantity:  r.quantity,
				UnitPrice: r.price,
				Subtotal:  r.subtotal,
			})
		}

		if err := s.repo.Create(ctx, tx, &sale); err != nil {
			return err
		}

		// Decrement stock and record a movement per line
		for _, r := range resolved {
			prodBefore, err := s.productRepo.FindByIDTx(tx, r.productID)
			stockBefore := 0
			if err == nil && prodBefore != nil {
				stockBefore = prodBefore.Stock
			}

			if err := s.productRepo.UpdateStockTx(tx, r.productID, -r.quantity); err != nil {
				return fmt.Errorf("decrementing stock of %s: %w", r.name, err)
			}

			saleRef := sale.ID
			mov := &model.StockMovement{
				ProductID:   r.productID,
				Type:        "sale",
				Quantity:    -r.quantity,
				StockBefore: stockBefore,
				StockAfter:  stockBefore - r.quantity,
				Note:        fmt.Sprintf("Sale %s", code),
				ReferenceID: &saleRef,
			}
			if err := s.movementRepo.CreateTx(tx, mov); err != nil {
				return err
			}
		}

		return nil
	})
	if txErr != nil {
		return nil, translateTxError(txErr)
	}

	// Async receipt job (best-effort — fire & forget)
	if s.dispatcher != nil && req.ClientEmail != nil && *req.ClientEmail != "" {
		_ = s.dispatcher.EnqueueReceipt(ctx, worker.ReceiptJobPayload{
			SaleID:      sale.ID.String(),
			ClientEmail: *req.ClientEmail,
		})
	}

	resp := saleToResponse(&sale)
	for i, r := range resolved {
		resp.Items[i].Product = r.name
	}
	return resp, nil
}

func (s *saleService) GetSale(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "sale", ID: id}
		}
		return nil, err
	}
	return saleToResponse(sale), nil
}

// ListSales returns a paginated list of sales, filtered by date, status
// and branch. Default filter: today's completed sales.
func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	if filter.Status == "" {
		filter.Status = model.SaleStatusCompleted
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for _, v := range sales {
		items = append(items, *saleToResponse(&v))
	}
	return &dto.SaleListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func saleToResponse(v *model.Sale) *dto.SaleResponse {
	items := make([]dto.SaleItemResponse, 0, len(v.Items))
	for _, item := range v.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, dto.SaleItemResponse{
			ProductID: item.ProductID.String(),
			Product:   name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	var clientID *string
	if v.ClientID != nil {
		s := v.ClientID.String()
		clientID = &s
	}
	return &dto.SaleResponse{
		ID:         v.ID.String(),
		Code:       v.Code,
		BranchID:   v.BranchID.String(),
		SellerID:   v.SellerID.String(),
		ClientID:   clientID,
		Items:      items,
		Net:        v.Net,
		Tax:        v.Tax,
		Total:      v.Total,
		AmountPaid: v.AmountPaid,
		Change:     v.Change,
		Status:     v.Status,
		CreatedAt:  v.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
