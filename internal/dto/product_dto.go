package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Barcode     string          `json:"barcode"     validate:"required,min=8,max=18"`
	Name        string          `json:"name"        validate:"required,min=2,max=120"`
	Description *string         `json:"description"`
	CategoryID  string          `json:"category_id" validate:"required,uuid"`
	BranchID    string          `json:"branch_id"   validate:"required,uuid"`
	CostPrice   decimal.Decimal `json:"cost_price"  validate:"required"`
	SalePrice   decimal.Decimal `json:"sale_price"  validate:"required"`
	Stock       int             `json:"stock"       validate:"min=0"`
	MinStock    int             `json:"min_stock"   validate:"min=0"`
	Unit        string          `json:"unit"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=2,max=120"`
	Description *string          `json:"description"`
	CategoryID  *string          `json:"category_id" validate:"omitempty,uuid"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	MinStock    *int             `json:"min_stock"   validate:"omitempty,min=0"`
	Unit        *string          `json:"unit"`
}

type AdjustStockRequest struct {
	Delta int    `json:"delta" validate:"required"`
	Note  string `json:"note"  validate:"required,min=3"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	Barcode    string `form:"barcode"`
	Name       string `form:"name"`
	CategoryID string `form:"category_id"`
	BranchID   string `form:"branch_id"`
	Active     string `form:"active"` // "false" | "all" | default active only
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID          string          `json:"id"`
	Barcode     string          `json:"barcode"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	CategoryID  string          `json:"category_id"`
	BranchID    string          `json:"branch_id"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"min_stock"`
	Unit        string          `json:"unit"`
	Active      bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// PriceCheckResponse is returned by the public barcode price endpoint (no auth).
type PriceCheckResponse struct {
	Name           string          `json:"name"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	StockAvailable int             `json:"stock_available"`
}
