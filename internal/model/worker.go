package model

import (
	"github.com/google/uuid"
)

// Worker is a crew member. Foremen are workers with IsForeman set; they own grid rows.
type Worker struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Name      string    `gorm:"not null"`
	Phone     string
	IsForeman bool `gorm:"not null;default:false;index"`
	Position  int  `gorm:"not null;default:0"`
	Active    bool `gorm:"not null;default:true"`
}
