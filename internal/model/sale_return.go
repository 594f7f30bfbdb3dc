package model

import (
	"time"

	"github.com/google/uuid"
)

// SaleReturn records a customer giving back previously purchased products
// from a specific sale. A sale may accumulate many partial returns over
// time. Rows are created atomically with their items and never mutated.
type SaleReturn struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID uuid.UUID `gorm:"type:uuid;not null;index"`
	Reason *string
	// CreatedBy is nil for system-initiated returns
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time

	Items []SaleReturnItem `gorm:"foreignKey:SaleReturnID"`
	Sale  *Sale            `gorm:"foreignKey:SaleID"`
}

// SaleReturnItem is one product-quantity line within a return.
// The sum of Quantity across all returns of a sale never exceeds the
// quantity sold on the matching SaleItem; the return service enforces
// this under a row lock on the parent sale.
type SaleReturnItem struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleReturnID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Quantity     int       `gorm:"not null"`
	CreatedAt    time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
