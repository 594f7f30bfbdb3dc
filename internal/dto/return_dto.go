package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ReturnItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

// RecordReturnRequest is the body of POST /v1/sales/{id}/returns.
// Items are processed in the order supplied; the whole request succeeds
// or fails as a unit.
type RecordReturnRequest struct {
	Items  []ReturnItemRequest `json:"items"  validate:"required,min=1,dive"`
	Reason *string             `json:"reason" validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReturnItemResponse struct {
	ProductID string `json:"product_id"`
	Product   string `json:"product"`
	Quantity  int    `json:"quantity"`
}

type ReturnResponse struct {
	ID        string               `json:"id"`
	SaleID    string               `json:"sale_id"`
	Reason    *string              `json:"reason,omitempty"`
	CreatedBy *string              `json:"created_by,omitempty"`
	Items     []ReturnItemResponse `json:"items"`
	// SaleStatus reflects the parent sale's status after the return was
	// applied — "cancelled" once every unit sold has been returned.
	SaleStatus string `json:"sale_status"`
	CreatedAt  string `json:"created_at"`
}
