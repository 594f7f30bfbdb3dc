package model

import (
	"time"

	"github.com/google/uuid"
)

// StockMovement records every stock change on a product.
// Created automatically on sale, return, and manual adjustment.
type StockMovement struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Type        string    `gorm:"not null"` // "sale" | "return" | "manual_adjust"
	Quantity    int       `gorm:"not null"` // positive = in, negative = out
	StockBefore int       `gorm:"not null"`
	StockAfter  int       `gorm:"not null"`
	Note        string
	ReferenceID *uuid.UUID `gorm:"type:uuid"` // sale_id or sale_return_id if applicable
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
