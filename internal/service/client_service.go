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

// ClientService defines business operations for registered customers.
type ClientService interface {
	Create(ctx context.Context, req dto.CreateClientRequest) (dto.ClientResponse, error)
	List(ctx context.Context, filter dto.ClientFilter) (*dto.ClientListResponse, error)
	Get(ctx context.Context, id uuid.UUID) (dto.ClientResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateClientRequest) (dto.ClientResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type clientService struct {
	repo repository.ClientRepository
}

func NewClientService(repo repository.ClientRepository) ClientService {
	return &clientService{repo: repo}
}

func mapClient(c model.Client) dto.ClientResponse {
	return dto.ClientResponse{
		ID:       c.ID,
		Document: c.Document,
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Address:  c.Address,
		Active:   c.Active,
	}
}

func (s *clientService) Create(ctx context.Context, req dto.CreateClientRequest) (dto.ClientResponse, error) {
	existing, err := s.repo.FindByDocument(ctx, req.Document)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ClientResponse{}, err
	}
	if existing != nil {
		return dto.ClientResponse{}, &BusinessRuleError{Msg: "a client with that document already exists"}
	}

	c := &model.Client{
		Document: req.Document,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Active:   true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return dto.ClientResponse{}, err
	}
	return mapClient(*c), nil
}

func (s *clientService) List(ctx context.Context, filter dto.ClientFilter) (*dto.ClientListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	clients, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ClientResponse, 0, len(clients))
	for _, c := range clients {
		data = append(data, mapClient(c))
	}
	return &dto.ClientListResponse{
		Data:  data,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *clientService) Get(ctx context.Context, id uuid.UUID) (dto.ClientResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClientResponse{}, &NotFoundError{Entity: "client", ID: id}
		}
		return dto.ClientResponse{}, err
	}
	return mapClient(*c), nil
}

func (s *clientService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateClientRequest) (dto.ClientResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClientResponse{}, &NotFoundError{Entity: "client", ID: id}
		}
		return dto.ClientResponse{}, err
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.Phone != nil {
		c.Phone = req.Phone
	}
	if req.Address != nil {
		c.Address = req.Address
	}
	if req.Active != nil {
		c.Active = *req.Active
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return dto.ClientResponse{}, err
	}
	return mapClient(*c), nil
}

func (s *clientService) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "client", ID: id}
		}
		return err
	}
	return s.repo.Deactivate(ctx, id)
}
