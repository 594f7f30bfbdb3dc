package repository

import (
	"context"

	"retailpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleReturnRepository interface {
	// CreateTx persists a return together with its items in the caller's
	// transaction. Items must already be attached to the return.
	CreateTx(tx *gorm.DB, ret *model.SaleReturn) error
	// FindBySaleTx loads all existing returns of a sale, items included,
	// inside the caller's transaction. The caller is expected to hold the
	// sale row lock, so the snapshot cannot be invalidated by a concurrent
	// return before commit.
	FindBySaleTx(tx *gorm.DB, saleID uuid.UUID) ([]model.SaleReturn, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.SaleReturn, error)
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.SaleReturn, error)
}

type saleReturnRepo struct{ db *gorm.DB }

func NewSaleReturnRepository(db *gorm.DB) SaleReturnRepository {
	return &saleReturnRepo{db: db}
}

func (r *saleReturnRepo) CreateTx(tx *gorm.DB, ret *model.SaleReturn) error {
	return tx.Create(ret).Error
}

func (r *saleReturnRepo) FindBySaleTx(tx *gorm.DB, saleID uuid.UUID) ([]model.SaleReturn, error) {
	var returns []model.SaleReturn
	err := tx.Preload("Items").
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&returns).Error
	return returns, err
}

func (r *saleReturnRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.SaleReturn, error) {
	var ret model.SaleReturn
	err := r.db.WithContext(ctx).Preload("Items.Product").First(&ret, id).Error
	return &ret, err
}

func (r *saleReturnRepo) ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.SaleReturn, error) {
	var returns []model.SaleReturn
	err := r.db.WithContext(ctx).Preload("Items.Product").
		Where("sale_id = ?", saleID).
		Order("created_at ASC").
		Find(&returns).Error
	return returns, err
}
