package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/pantrychef/backend/internal/apperr"
	"github.com/pageza/pantrychef/backend/internal/logging"
	"github.com/pageza/pantrychef/backend/internal/model"
	"github.com/pageza/pantrychef/backend/internal/validation"
)

// CreateIngredientRequest adds one pantry entry.
type CreateIngredientRequest struct {
	Name     string   `json:"name" validate:"required,max=80"`
	Quantity *float64 `json:"quantity" validate:"omitempty,gte=0"`
	Unit     *string  `json:"unit" validate:"omitempty,max=50"`
}

// UpdateIngredientRequest changes only the fields that are set.
type UpdateIngredientRequest struct {
	Name     *string  `json:"name" validate:"omitempty,max=80"`
	Quantity *float64 `json:"quantity" validate:"omitempty,gte=0"`
	Unit     *string  `json:"unit" validate:"omitempty,max=50"`
}

// IngredientService manages the pantry.
type IngredientService struct {
	db *gorm.DB
}

// NewIngredientService creates a new IngredientService instance
func NewIngredientService(db *gorm.DB) *IngredientService {
	return &IngredientService{db: db}
}

// CreateIngredient adds a pantry entry. Names are unique.
func (s *IngredientService) CreateIngredient(ctx context.Context, req *CreateIngredientRequest) (*model.Ingredient, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	ingredient := &model.Ingredient{
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     trimmed(req.Unit),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, &model.Ingredient{}, "ingredient", ingredient.Name, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Create(ingredient).Error; err != nil {
			return classifyWriteError("ingredient", ingredient.Name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("ingredient", ingredient.Name).Msg("ingredient added")
	return ingredient, nil
}

// UpdateIngredient applies a partial update.
func (s *IngredientService) UpdateIngredient(ctx context.Context, id uuid.UUID, req *UpdateIngredientRequest) (*model.Ingredient, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		req.Name = &name
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	var ingredient model.Ingredient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&ingredient, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("ingredient", id)
			}
			return fmt.Errorf("failed to load ingredient: %w", err)
		}

		if req.Name != nil && *req.Name != ingredient.Name {
			if err := ensureNameFree(tx, &model.Ingredient{}, "ingredient", *req.Name, id); err != nil {
				return err
			}
			ingredient.Name = *req.Name
		}
		if req.Quantity != nil {
			ingredient.Quantity = req.Quantity
		}
		if req.Unit != nil {
			ingredient.Unit = trimmed(req.Unit)
		}

		if err := tx.Save(&ingredient).Error; err != nil {
			return classifyWriteError("ingredient", ingredient.Name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().Str("ingredient", ingredient.Name).Msg("ingredient updated")
	return &ingredient, nil
}

// ListIngredients returns the pantry ordered by name.
func (s *IngredientService) ListIngredients(ctx context.Context) ([]*model.Ingredient, error) {
	var ingredients []model.Ingredient
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&ingredients).Error; err != nil {
		return nil, apperr.Internal("failed to list ingredients", err)
	}
	result := make([]*model.Ingredient, len(ingredients))
	for i := range ingredients {
		result[i] = &ingredients[i]
	}
	return result, nil
}

// ensureNameFree fails with a validation error when another row of the
// same table already uses name.
func ensureNameFree(tx *gorm.DB, table interface{}, entity, name string, self uuid.UUID) error {
	var count int64
	q := tx.Model(table).Where("name = ?", name)
	if self != uuid.Nil {
		q = q.Where("id <> ?", self)
	}
	if err := q.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check %s name: %w", entity, err)
	}
	if count > 0 {
		return apperr.Validation("%s %q already exists", entity, name)
	}
	return nil
}

// classifyWriteError maps a unique-index violation that slipped past
// ensureNameFree (a concurrent insert) to a validation error.
func classifyWriteError(entity, name string, err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Validation("%s %q already exists", entity, name)
	}
	return fmt.Errorf("failed to save %s: %w", entity, err)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
