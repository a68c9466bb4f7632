package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ingredient is one pantry entry. Name is the matching key against recipe
// ingredient lists and is compared case-sensitively.
type Ingredient struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"last_updated"`
	Name      string    `gorm:"size:80;not null;uniqueIndex" json:"name" validate:"required,max=80"`
	Quantity  *float64  `json:"quantity" validate:"omitempty,gte=0"`
	Unit      *string   `gorm:"size:50" json:"unit" validate:"omitempty,max=50"`
}

// BeforeCreate assigns an ID when the caller did not.
func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
