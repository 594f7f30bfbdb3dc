package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// SaleFilter is bound from the query string of GET /v1/sales.
type SaleFilter struct {
	Date     string `form:"date"`                      // YYYY-MM-DD; empty = today
	Status   string `form:"status,default=completed"`  // pending | completed | cancelled | all
	BranchID string `form:"branch_id"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type RegisterSaleRequest struct {
	BranchID   string            `json:"branch_id"   validate:"required,uuid"`
	ClientID   *string           `json:"client_id"   validate:"omitempty,uuid"`
	Items      []SaleItemRequest `json:"items"       validate:"required,min=1,dive"`
	AmountPaid decimal.Decimal   `json:"amount_paid" validate:"required"`
	// ClientEmail: optional — when present, the receipt worker mails the PDF.
	ClientEmail *string `json:"client_email" validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ProductID string          `json:"product_id"`
	Product   string          `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type SaleResponse struct {
	ID         string             `json:"id"`
	Code       string             `json:"code"`
	BranchID   string             `json:"branch_id"`
	SellerID   string             `json:"seller_id"`
	ClientID   *string            `json:"client_id"`
	Items      []SaleItemResponse `json:"items"`
	Net        decimal.Decimal    `json:"net"`
	Tax        decimal.Decimal    `json:"tax"`
	Total      decimal.Decimal    `json:"total"`
	AmountPaid decimal.Decimal    `json:"amount_paid"`
	Change     decimal.Decimal    `json:"change"`
	Status     string             `json:"status"`
	CreatedAt  string             `json:"created_at"`
}
