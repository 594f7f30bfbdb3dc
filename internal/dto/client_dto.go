package dto

import "github.com/google/uuid"

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreateClientRequest struct {
	Document string  `json:"document" validate:"required,min=5,max=20"`
	Name     string  `json:"name"     validate:"required,min=2,max=120"`
	Email    *string `json:"email"    validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Address  *string `json:"address"`
}

type UpdateClientRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=2,max=120"`
	Email   *string `json:"email"   validate:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Active  *bool   `json:"active"`
}

type ClientFilter struct {
	Document string `form:"document"`
	Name     string `form:"name"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type ClientResponse struct {
	ID       uuid.UUID `json:"id"`
	Document string    `json:"document"`
	Name     string    `json:"name"`
	Email    *string   `json:"email,omitempty"`
	Phone    *string   `json:"phone,omitempty"`
	Address  *string   `json:"address,omitempty"`
	Active   bool      `json:"active"`
}

type ClientListResponse struct {
	Data  []ClientResponse `json:"data"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}
