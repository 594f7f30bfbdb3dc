package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale status values. The only transition this system performs after
// creation is "completed" → "cancelled", triggered when every unit across
// all line items has been returned.
const (
	SaleStatusPending   = "pending"
	SaleStatusCompleted = "completed"
	SaleStatusCancelled = "cancelled"
)

// Sale records products sold to a client at a branch.
// Stock is decremented atomically at creation.
type Sale struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code     string    `gorm:"uniqueIndex;not null"`
	BranchID uuid.UUID `gorm:"type:uuid;not null;index"`
	SellerID uuid.UUID `gorm:"type:uuid;not null"`
	ClientID *uuid.UUID `gorm:"type:uuid;index"`
	Net      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Tax      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	AmountPaid decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Change     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Status     string          `gorm:"type:varchar(20);not null;default:'completed'"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Items  []SaleItem `gorm:"foreignKey:SaleID"`
	Branch *Branch    `gorm:"foreignKey:BranchID"`
	Seller *User      `gorm:"foreignKey:SellerID"`
	Client *Client    `gorm:"foreignKey:ClientID"`
}

// SaleItem is one product-quantity-price line within a sale.
// Quantity is fixed at sale creation and is the upper bound for all
// cumulative returns against it. Rows are never mutated.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
