package model

import (
	"time"

	"github.com/google/uuid"
)

// Client is a registered customer. Sales may reference a client for
// receipt mailing and purchase history; walk-in sales carry no client.
type Client struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Document string    `gorm:"uniqueIndex;not null"`
	Name     string    `gorm:"not null"`
	Email    *string
	Phone    *string
	Address  *string
	Active   bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
