package service

import (
	"context"
	"errors"

	"retailpos/internal/dto"
	"retailpos/internal/model"
	"retailpos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BranchService defines business operations for store branches.
type BranchService interface {
	Create(ctx context.Context, req dto.CreateBranchRequest) (dto.BranchResponse, error)
	List(ctx context.Context) ([]dto.BranchResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateBranchRequest) (dto.BranchResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type branchService struct {
	repo repository.BranchRepository
}

func NewBranchService(repo repository.BranchRepository) BranchService {
	return &branchService{repo: repo}
}

func mapBranch(b model.Branch) dto.BranchResponse {
	return dto.BranchResponse{
		ID:      b.ID,
		Code:    b.Code,
		Name:    b.Name,
		Address: b.Address,
		Phone:   b.Phone,
		Active:  b.Active,
	}
}

func (s *branchService) Create(ctx context.Context, req dto.CreateBranchRequest) (dto.BranchResponse, error) {
	existing, err := s.repo.FindByCode(ctx, req.Code)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.BranchResponse{}, err
	}
	if existing != nil {
		return dto.BranchResponse{}, &BusinessRuleError{Msg: "a branch with that code already exists"}
	}

	b := &model.Branch{
		Code:    req.Code,
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Active:  true,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return dto.BranchResponse{}, err
	}
	return mapBranch(*b), nil
}

func (s *branchService) List(ctx context.Context) ([]dto.BranchResponse, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.BranchResponse, 0, len(list))
	for _, b := range list {
		result = append(result, mapBranch(b))
	}
	return result, nil
}

func (s *branchService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateBranchRequest) (dto.BranchResponse, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BranchResponse{}, &NotFoundError{Entity: "branch", ID: id}
		}
		return dto.BranchResponse{}, err
	}

	if req.Name != nil {
		b.Name = *req.Name
	}
	if req.Address != nil {
		b.Address = req.Address
	}
	if req.Phone != nil {
		b.Phone = req.Phone
	}
	if req.Active != nil {
		b.Active = *req.Active
	}

	if err := s.repo.Update(ctx, b); err != nil {
		return dto.BranchResponse{}, err
	}
	return mapBranch(*b), nil
}

func (s *branchService) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "branch", ID: id}
		}
		return err
	}
	return s.repo.Deactivate(ctx, id)
}
