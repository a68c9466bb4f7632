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
	"github.com/pageza/pantrychef/backend/internal/matching"
	"github.com/pageza/pantrychef/backend/internal/model"
	"github.com/pageza/pantrychef/backend/internal/validation"
)

// CreateRecipeRequest adds a recipe to the corpus.
type CreateRecipeRequest struct {
	Name            string   `json:"name" validate:"required,max=100"`
	Ingredients     []string `json:"ingredients" validate:"required,min=1,dive,required,max=80"`
	Instructions    string   `json:"instructions"`
	CuisineType     *string  `json:"cuisine_type" validate:"omitempty,max=50"`
	Taste           *string  `json:"taste" validate:"omitempty,max=50"`
	PreparationTime *int     `json:"preparation_time" validate:"omitempty,gte=0"`
}

// UpdateRecipeRequest changes only the fields that are set.
type UpdateRecipeRequest struct {
	Name            *string  `json:"name" validate:"omitempty,max=100"`
	Ingredients     []string `json:"ingredients" validate:"omitempty,min=1,dive,required,max=80"`
	Instructions    *string  `json:"instructions"`
	CuisineType     *string  `json:"cuisine_type" validate:"omitempty,max=50"`
	Taste           *string  `json:"taste" validate:"omitempty,max=50"`
	PreparationTime *int     `json:"preparation_time" validate:"omitempty,gte=0"`
}

// RecipeService handles recipe operations
type RecipeService struct {
	db          *gorm.DB
	history     HistoryLog
	invalidator EmbeddingInvalidator
}

// NewRecipeService creates a new RecipeService instance. history and
// invalidator may be nil.
func NewRecipeService(db *gorm.DB, history HistoryLog, invalidator EmbeddingInvalidator) *RecipeService {
	return &RecipeService{
		db:          db,
		history:     history,
		invalidator: invalidator,
	}
}

// CreateRecipe stores a recipe and appends it to the history log. If the
// append fails the recipe is not stored.
func (s *RecipeService) CreateRecipe(ctx context.Context, req *CreateRecipeRequest) (*model.Recipe, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Ingredients = trimAll(req.Ingredients)
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	recipe := &model.Recipe{
		Name:            req.Name,
		Ingredients:     model.JSONBStringArray(req.Ingredients),
		Instructions:    strings.TrimSpace(req.Instructions),
		CuisineType:     trimmed(req.CuisineType),
		Taste:           trimmed(req.Taste),
		PreparationTime: req.PreparationTime,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureNameFree(tx, &model.Recipe{}, "recipe", recipe.Name, uuid.Nil); err != nil {
			return err
		}
		if err := tx.Create(recipe).Error; err != nil {
			return classifyWriteError("recipe", recipe.Name, err)
		}
		if s.history != nil {
			if err := s.history.Append(ctx, recipe); err != nil {
				return apperr.Internal("failed to record recipe history", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("recipe_id", recipe.ID.String()).
		Str("recipe", recipe.Name).
		Int("ingredients", len(recipe.Ingredients)).
		Msg("recipe added")
	return recipe, nil
}

// GetRecipe retrieves a recipe by ID
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("recipe", id)
		}
		return nil, apperr.Internal("failed to load recipe", err)
	}
	return &recipe, nil
}

// UpdateRecipe applies a partial update. The cached embedding of the old
// recipe text is dropped so stale vectors do not linger.
func (s *RecipeService) UpdateRecipe(ctx context.Context, id uuid.UUID, req *UpdateRecipeRequest) (*model.Recipe, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, apperr.Validation("name must not be empty")
		}
		req.Name = &name
	}
	if req.Ingredients != nil {
		req.Ingredients = trimAll(req.Ingredients)
		if len(req.Ingredients) == 0 {
			return nil, apperr.Validation("ingredients must contain at least 1 item(s)")
		}
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	var (
		recipe  model.Recipe
		oldText string
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("recipe", id)
			}
			return fmt.Errorf("failed to load recipe: %w", err)
		}
		oldText = matching.CanonicalText(recipe)

		if req.Name != nil && *req.Name != recipe.Name {
			if err := ensureNameFree(tx, &model.Recipe{}, "recipe", *req.Name, id); err != nil {
				return err
			}
			recipe.Name = *req.Name
		}
		if req.Ingredients != nil {
			recipe.Ingredients = model.JSONBStringArray(req.Ingredients)
		}
		if req.Instructions != nil {
			recipe.Instructions = strings.TrimSpace(*req.Instructions)
		}
		if req.CuisineType != nil {
			recipe.CuisineType = trimmed(req.CuisineType)
		}
		if req.Taste != nil {
			recipe.Taste = trimmed(req.Taste)
		}
		if req.PreparationTime != nil {
			recipe.PreparationTime = req.PreparationTime
		}

		if err := tx.Save(&recipe).Error; err != nil {
			return classifyWriteError("recipe", recipe.Name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil && matching.CanonicalText(recipe) != oldText {
		if err := s.invalidator.Forget(ctx, oldText); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("recipe_id", id.String()).Msg("failed to drop cached embedding")
		}
	}

	logging.Ctx(ctx).Info().Str("recipe_id", id.String()).Msg("recipe updated")
	return &recipe, nil
}

// ListRecipes returns every recipe in insertion order.
func (s *RecipeService) ListRecipes(ctx context.Context) ([]*model.Recipe, error) {
	var recipes []model.Recipe
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&recipes).Error; err != nil {
		return nil, apperr.Internal("failed to list recipes", err)
	}
	result := make([]*model.Recipe, len(recipes))
	for i := range recipes {
		result[i] = &recipes[i]
	}
	return result, nil
}

// trimAll trims each entry and drops the ones left empty.
func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if v := strings.TrimSpace(it); v != "" {
			out = append(out, v)
		}
	}
	return out
}
