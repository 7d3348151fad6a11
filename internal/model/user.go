package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Email          string    `gorm:"uniqueIndex;not null"`
	HashedPassword string    `gorm:"not null"`
	Name           string    `gorm:"not null"`
	Role           string    `gorm:"not null;default:'viewer';check:role IN ('admin', 'dispatcher', 'viewer')"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

// User roles, matched against the access policy.
const (
	RoleAdmin      = "admin"      // manages directories and users
	RoleDispatcher = "dispatcher" // schedules assignments
	RoleViewer     = "viewer"     // read only
)

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDispatcher, RoleViewer:
		return true
	}
	return false
}
