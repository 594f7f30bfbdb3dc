package model

import (
	"time"

	"github.com/google/uuid"
)

// Branch is a physical store location. Products, users and sales all
// reference the branch they belong to.
type Branch struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code    string    `gorm:"uniqueIndex;not null"`
	Name    string    `gorm:"not null"`
	Address *string
	Phone   *string
	Active  bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides GORM's default pluralization.
func (Branch) TableName() string { return "branches" }
