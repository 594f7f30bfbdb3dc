package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable item held in stock at a branch.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Barcode     string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	CategoryID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	BranchID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SalePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Stock is mutated by sales (decrement) and returns (increment).
	// All writes go through atomic UPDATE ... SET stock = stock + ? expressions.
	Stock    int    `gorm:"not null;default:0"`
	MinStock int    `gorm:"not null;default:5"`
	Unit     string `gorm:"not null;default:'unit'"`
	Active   bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
	Branch   *Branch   `gorm:"foreignKey:BranchID"`
}
