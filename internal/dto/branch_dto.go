package dto

import "github.com/google/uuid"

// ── Request DTOs ──────────────────────────────────────────────────────────────

type CreateBranchRequest struct {
	Code    string  `json:"code"    validate:"required,min=2,max=20"`
	Name    string  `json:"name"    validate:"required,min=2,max=100"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

type UpdateBranchRequest struct {
	Name    *string `json:"name"    validate:"omitempty,min=2,max=100"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
	Active  *bool   `json:"active"`
}

// ── Response DTOs ─────────────────────────────────────────────────────────────

type BranchResponse struct {
	ID      uuid.UUID `json:"id"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Address *string   `json:"address,omitempty"`
	Phone   *string   `json:"phone,omitempty"`
	Active  bool      `json:"active"`
}
