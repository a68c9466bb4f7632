package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONBStringArray is a custom type for handling string arrays in JSONB
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface. A column that does not hold a
// JSON string array is reported as an error rather than read as empty.
func (a *JSONBStringArray) Scan(value interface{}) error {
	if value == nil {
		*a = JSONBStringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for string array", value)
	}

	if err := json.Unmarshal(bytes, a); err != nil {
		return fmt.Errorf("failed to decode string array: %w", err)
	}
	return nil
}

// Recipe is a stored recipe. Ingredients hold ingredient names in the order
// they were submitted.
type Recipe struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Name            string           `gorm:"size:100;not null;uniqueIndex" json:"name" validate:"required,max=100"`
	Ingredients     JSONBStringArray `gorm:"type:jsonb;not null" json:"ingredients" validate:"required,min=1,dive,required"`
	Instructions    string           `gorm:"type:text;not null" json:"instructions"`
	CuisineType     *string          `gorm:"size:50" json:"cuisine_type,omitempty" validate:"omitempty,max=50"`
	Taste           *string          `gorm:"size:50" json:"taste,omitempty" validate:"omitempty,max=50"`
	PreparationTime *int             `json:"preparation_time,omitempty" validate:"omitempty,gte=0"`
}

// BeforeCreate assigns an ID when the caller did not.
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
