package model

import (
	"time"

	"github.com/google/uuid"
)

// Role values, from least to most privileged.
const (
	RoleCashier    = "cashier"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// User stores system users with role-based access.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	Email        *string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"type:varchar(20);not null"`
	// BranchID restricts a cashier to a specific branch; nil = all branches
	BranchID *uuid.UUID `gorm:"type:uuid;index"`
	Active   bool       `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Branch *Branch `gorm:"foreignKey:BranchID"`
}
