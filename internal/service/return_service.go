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
	"gorm.io/gorm"
)

// ReturnService validates and records returns of previously sold line
// items, restores inventory, and recomputes the parent sale's status.
type ReturnService interface {
	// RecordReturn processes a return against a sale as a single atomic
	// transaction: either every requested line is accepted, stock is
	// restored, and the sale status recomputed — or nothing is persisted.
	//
	// actorID identifies the user performing the return; nil is permitted
	// for system-initiated returns.
	//
	// The operation is intentionally NOT idempotent: submitting the same
	// request twice creates two independent returns and doubles the stock
	// increment. Callers must not resubmit blindly.
	RecordReturn(ctx context.Context, saleID uuid.UUID, actorID *uuid.UUID, req dto.RecordReturnRequest) (*dto.ReturnResponse, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]dto.ReturnResponse, error)
}

type returnService struct {
	saleRepo     repository.SaleRepository
	returnRepo   repository.SaleReturnRepository
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	dispatcher   *worker.Dispatcher
}

func NewReturnService(
	saleRepo repository.SaleRepository,
	returnRepo repository.SaleReturnRepository,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	dispatcher *worker.Dispatcher,
) ReturnService {
	return &returnService{
		saleRepo:     saleRepo,
		returnRepo:   returnRepo,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		dispatcher:   dispatcher,
	}
}

// returnedQuantities sums the returned quantity per product across the
// given returns. Pure function over loaded entities so the invariant
// arithmetic is testable without a database.
func returnedQuantities(returns []model.SaleReturn) map[uuid.UUID]int {
	totals := make(map[uuid.UUID]int)
	for _, ret := range returns {
		for _, item := range ret.Items {
			totals[item.ProductID] += item.Quantity
		}
	}
	return totals
}

// isFullyReturned reports whether every line item's cumulative returned
// quantity has reached its quantity sold.
func isFullyReturned(items []model.SaleItem, returned map[uuid.UUID]int) bool {
	for _, item := range items {
		if returned[item.ProductID] < item.Quantity {
			return false
		}
	}
	return len(items) > 0
}

func (s *returnService) RecordReturn(ctx context.Context, saleID uuid.UUID, actorID *uuid.UUID, req dto.RecordReturnRequest) (*dto.ReturnResponse, error) {
	// Input validation before any persistence work. The HTTP layer runs
	// the same checks via validator tags; revalidating here keeps the
	// service safe for non-HTTP callers (jobs, CLI).
	if len(req.Items) == 0 {
		return nil, newValidationError("items must not be empty")
	}
	type requestedItem struct {
		productID uuid.UUID
		quantity  int
	}
	requested := make([]requestedItem, 0, len(req.Items))
	for i, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, newValidationError("items[%d]: invalid product_id: %v", i, err)
		}
		if item.Quantity < 1 {
			return nil, newValidationError("items[%d]: quantity must be a positive integer", i)
		}
		requested = append(requested, requestedItem{productID: pid, quantity: item.Quantity})
	}

	var (
		ret        model.SaleReturn
		saleStatus string
		names      = make(map[uuid.UUID]string, len(requested))
	)

	txErr := runTx(ctx, s.saleRepo.DB(), func(tx *gorm.DB) error {
		// Lock the sale row for the duration of the transaction. Two
		// concurrent returns against the same sale serialize here, so
		// both cannot read the same cumulative total and jointly approve
		// quantities that exceed what remains returnable.
		sale, err := s.saleRepo.FindByIDForUpdateTx(tx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "sale", ID: saleID}
			}
			return err
		}

		// Returns only make sense against a completed sale. A cancelled
		// sale is already fully returned; a pending sale never shipped
		// its items.
		if sale.Status != model.SaleStatusCompleted {
			return &BusinessRuleError{
				Msg: fmt.Sprintf("returns are only allowed against completed sales (sale %s is %s)", sale.Code, sale.Status),
			}
		}

		soldByProduct := make(map[uuid.UUID]int, len(sale.Items))
		for _, item := range sale.Items {
			soldByProduct[item.ProductID] = item.Quantity
		}

		// Cumulative quantities already returned by prior returns of this
		// sale. The map is also advanced per accepted line below, so a
		// request listing the same product twice cannot overshoot either.
		prior, err := s.returnRepo.FindBySaleTx(tx, saleID)
		if err != nil {
			return err
		}
		returned := returnedQuantities(prior)

		ret = model.SaleReturn{
			SaleID:    saleID,
			Reason:    req.Reason,
			CreatedBy: actorID,
		}
		stockBefore := make(map[uuid.UUID]int, len(requested))

		for _, r := range requested {
			product, err := s.productRepo.FindByIDTx(tx, r.productID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &NotFoundError{Entity: "product", ID: r.productID}
				}
				return err
			}
			names[r.productID] = product.Name
			if _, ok := stockBefore[r.productID]; !ok {
				stockBefore[r.productID] = product.Stock
			}

			sold, ok := soldByProduct[r.productID]
			if !ok {
				return &BusinessRuleError{
					Msg:       fmt.Sprintf("product %q is not part of this sale", product.Name),
					ProductID: r.productID,
					Requested: r.quantity,
				}
			}

			maxReturnable := sold - returned[r.productID]
			if r.quantity > maxReturnable {
				return &BusinessRuleError{
					Msg: fmt.Sprintf("requested return quantity %d for product %q exceeds remaining returnable quantity %d",
						r.quantity, product.Name, maxReturnable),
					ProductID:  r.productID,
					Requested:  r.quantity,
					MaxAllowed: maxReturnable,
				}
			}

			ret.Items = append(ret.Items, model.SaleReturnItem{
				ProductID: r.productID,
				Quantity:  r.quantity,
			})
			returned[r.productID] += r.quantity
		}

		// Every line validated; persist the return with its items in one
		// insert, then apply the inventory effects.
		if err := s.returnRepo.CreateTx(tx, &ret); err != nil {
			return err
		}

		for _, item := range ret.Items {
			if err := s.productRepo.UpdateStockTx(tx, item.ProductID, item.Quantity); err != nil {
				return fmt.Errorf("restoring stock of %s: %w", names[item.ProductID], err)
			}

			before := stockBefore[item.ProductID]
			stockBefore[item.ProductID] = before + item.Quantity
			retRef := ret.ID
			mov := &model.StockMovement{
				ProductID:   item.ProductID,
				Type:        "return",
				Quantity:    item.Quantity,
				StockBefore: before,
				StockAfter:  before + item.Quantity,
				Note:        fmt.Sprintf("Return on sale %s", sale.Code),
				ReferenceID: &retRef,
			}
			if err := s.movementRepo.CreateTx(tx, mov); err != nil {
				return err
			}
		}

		// Recompute lifecycle: the sale is cancelled once every line item
		// has been fully returned. The transition is one-way.
		saleStatus = sale.Status
		if isFullyReturned(sale.Items, returned) {
			if err := s.saleRepo.UpdateStatusTx(tx, saleID, model.SaleStatusCancelled); err != nil {
				return err
			}
			saleStatus = model.SaleStatusCancelled
		}

		return nil
	})
	if txErr != nil {
		return nil, translateTxError(txErr)
	}

	// Async return receipt (best-effort)
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueReceipt(ctx, worker.ReceiptJobPayload{
			SaleID:   saleID.String(),
			ReturnID: ret.ID.String(),
		})
	}

	return returnToResponse(&ret, names, saleStatus), nil
}

func (s *returnService) ListBySale(ctx context.Context, saleID uuid.UUID) ([]dto.ReturnResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "sale", ID: saleID}
		}
		return nil, err
	}

	returns, err := s.returnRepo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}

	resp := make([]dto.ReturnResponse, 0, len(returns))
	for i := range returns {
		ret := &returns[i]
		names := make(map[uuid.UUID]string, len(ret.Items))
		for _, item := range ret.Items {
			if item.Product != nil {
				names[item.ProductID] = item.Product.Name
			}
		}
		resp = append(resp, *returnToResponse(ret, names, sale.Status))
	}
	return resp, nil
}

func returnToResponse(ret *model.SaleReturn, names map[uuid.UUID]string, saleStatus string) *dto.ReturnResponse {
	items := make([]dto.ReturnItemResponse, 0, len(ret.Items))
	for _, item := range ret.Items {
		items = append(items, dto.ReturnItemResponse{
			ProductID: item.ProductID.String(),
			Product:   names[item.ProductID],
			Quantity:  item.Quantity,
		})
	}
	var createdBy *string
	if ret.CreatedBy != nil {
		s := ret.CreatedBy.String()
		createdBy = &s
	}
	return &dto.ReturnResponse{
		ID:         ret.ID.String(),
		SaleID:     ret.SaleID.String(),
		Reason:     ret.Reason,
		CreatedBy:  createdBy,
		Items:      items,
		SaleStatus: saleStatus,
		CreatedAt:  ret.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
