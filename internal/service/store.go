package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/pantrychef/backend/internal/model"
)

// Store reads the recipe corpus and pantry for the matching engine.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store instance
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FetchRecipes returns every recipe in insertion order. The order is stable
// across calls, which keeps ranking ties deterministic.
func (s *Store) FetchRecipes(ctx context.Context) ([]model.Recipe, error) {
	var recipes []model.Recipe
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch recipes: %w", err)
	}
	return recipes, nil
}

// FetchIngredients returns the current pantry.
func (s *Store) FetchIngredients(ctx context.Context) ([]model.Ingredient, error) {
	var ingredients []model.Ingredient
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch ingredients: %w", err)
	}
	return ingredients, nil
}
