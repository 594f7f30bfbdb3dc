package repository

import (
	"context"

	"retailpos/internal/dto"
	"retailpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientRepository defines CRUD operations for Client.
type ClientRepository interface {
	Create(ctx context.Context, c *model.Client) error
	List(ctx context.Context, filter dto.ClientFilter) ([]model.Client, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error)
	FindByDocument(ctx context.Context, document string) (*model.Client, error)
	Update(ctx context.Context, c *model.Client) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type clientRepo struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) ClientRepository { return &clientRepo{db: db} }

func (r *clientRepo) Create(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clientRepo) List(ctx context.Context, filter dto.ClientFilter) ([]model.Client, int64, error) {
	var clients []model.Client
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Client{}).Where("active = true")
	if filter.Document != "" {
		q = q.Where("document = ?", filter.Document)
	}
	if filter.Name != "" {
		q = q.Where("name ILIKE ?", "%"+filter.Name+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("name ASC").Limit(filter.Limit).Offset(offset).Find(&clients).Error
	return clients, total, err
}

func (r *clientRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepo) FindByDocument(ctx context.Context, document string) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).Where("document = ?", document).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepo) Update(ctx context.Context, c *model.Client) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clientRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Client{}).Where("id = ?", id).Update("active", false).Error
}
