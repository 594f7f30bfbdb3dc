package service

import (
	"context"
	"errors"
	"fmt"

	"retailpos/internal/dto"
	"retailpos/internal/model"
	"retailpos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ProductService defines the business logic contract for products.
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error
	// AdjustStock applies a manual stock correction and records the movement.
	AdjustStock(ctx context.Context, id uuid.UUID, actorID uuid.UUID, req dto.AdjustStockRequest) error
	// LowStock returns active products whose stock is at or below their minimum.
	LowStock(ctx context.Context) ([]dto.ProductResponse, error)
}

type productService struct {
	repo         repository.ProductRepository
	categoryRepo repository.CategoryRepository
	movementRepo repository.StockMovementRepository
	rdb          *redis.Client
}

func NewProductService(
	repo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	movementRepo repository.StockMovementRepository,
	rdb *redis.Client,
) ProductService {
	return &productService{repo: repo, categoryRepo: categoryRepo, movementRepo: movementRepo, rdb: rdb}
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID.String(),
		Barcode:     p.Barcode,
		Name:        p.Name,
		Description: p.Description,
		CategoryID:  p.CategoryID.String(),
		BranchID:    p.BranchID.String(),
		CostPrice:   p.CostPrice,
		SalePrice:   p.SalePrice,
		Stock:       p.Stock,
		MinStock:    p.MinStock,
		Unit:        p.Unit,
		Active:      p.Active,
	}
}

// invalidatePriceCache drops the cached price entry after a product change.
// Best effort: a stale entry expires on its own TTL anyway.
func (s *productService) invalidatePriceCache(barcode string) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(context.Background(), "price:"+barcode).Err()
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, newValidationError("invalid category_id: %v", err)
	}
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		return nil, &NotFoundError{Entity: "category", ID: categoryID}
	}
	branchID, err := uuid.Parse(req.BranchID)
	if err != nil {
		return nil, newValidationError("invalid branch_id: %v", err)
	}

	unit := req.Unit
	if unit == "" {
		unit = "unit"
	}
	p := &model.Product{
		Barcode:     req.Barcode,
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  categoryID,
		BranchID:    branchID,
		CostPrice:   req.CostPrice,
		SalePrice:   req.SalePrice,
		Stock:       req.Stock,
		MinStock:    req.MinStock,
		Unit:        unit,
		Active:      true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "product", ID: id}
		}
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		data = append(data, *productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "product", ID: id}
		}
		return nil, err
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.CategoryID != nil {
		cid, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return nil, newValidationError("invalid category_id: %v", err)
		}
		if _, err := s.categoryRepo.FindByID(ctx, cid); err != nil {
			return nil, &NotFoundError{Entity: "category", ID: cid}
		}
		p.CategoryID = cid
	}
	if req.CostPrice != nil {
		p.CostPrice = *req.CostPrice
	}
	if req.SalePrice != nil {
		p.SalePrice = *req.SalePrice
	}
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}
	if req.Unit != nil {
		p.Unit = *req.Unit
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidatePriceCache(p.Barcode)
	return productToResponse(p), nil
}

func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "product", ID: id}
		}
		return err
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.invalidatePriceCache(p.Barcode)
	return nil
}

func (s *productService) Reactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Reactivate(ctx, id)
}

func (s *productService) AdjustStock(ctx context.Context, id uuid.UUID, actorID uuid.UUID, req dto.AdjustStockRequest) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "product", ID: id}
		}
		return err
	}
	if p.Stock+req.Delta < 0 {
		return &BusinessRuleError{
			Msg:        fmt.Sprintf("adjustment would drive stock of %q below zero", p.Name),
			ProductID:  id,
			Requested:  req.Delta,
			MaxAllowed: p.Stock,
		}
	}

	if err := s.repo.AdjustStock(ctx, id, req.Delta); err != nil {
		return err
	}
	actor := actorID
	return s.movementRepo.Create(ctx, &model.StockMovement{
		ProductID:   id,
		Type:        "manual_adjust",
		Quantity:    req.Delta,
		StockBefore: p.Stock,
		StockAfter:  p.Stock + req.Delta,
		Note:        req.Note,
		ReferenceID: &actor,
	})
}

func (s *productService) LowStock(ctx context.Context) ([]dto.ProductResponse, error) {
	var products []model.Product
	err := s.repo.DB().WithContext(ctx).
		Where("active = true AND stock <= min_stock").
		Order("stock ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	resp := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		resp = append(resp, *productToResponse(&products[i]))
	}
	return resp, nil
}
