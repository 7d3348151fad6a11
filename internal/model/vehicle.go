package model

import (
	"github.com/google/uuid"
)

type Vehicle struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name     string    `gorm:"not null"`
	Plate    string    `gorm:"uniqueIndex"`
	Capacity int       `gorm:"not null;default:0"`
	Active   bool      `gorm:"not null;default:true"`
}
