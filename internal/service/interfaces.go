package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/pageza/pantrychef/backend/internal/matching"
	"github.com/pageza/pantrychef/backend/internal/model"
)

// IIngredientService defines the interface for pantry operations
type IIngredientService interface {
	CreateIngredient(ctx context.Context, req *CreateIngredientRequest) (*model.Ingredient, error)
	UpdateIngredient(ctx context.Context, id uuid.UUID, req *UpdateIngredientRequest) (*model.Ingredient, error)
	ListIngredients(ctx context.Context) ([]*model.Ingredient, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, req *CreateRecipeRequest) (*model.Recipe, error)
	GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error)
	UpdateRecipe(ctx context.Context, id uuid.UUID, req *UpdateRecipeRequest) (*model.Recipe, error)
	ListRecipes(ctx context.Context) ([]*model.Recipe, error)
}

// IChatService answers free-text cooking requests.
type IChatService interface {
	Chat(ctx context.Context, message string, k int) (*ChatResponse, error)
}

// Recommender builds ranked shortlists; *matching.Engine implements it.
type Recommender interface {
	Recommend(ctx context.Context, query string, k int) (*matching.Recommendation, error)
}

// TextGenerator produces a reply for a rendered prompt.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HistoryLog records every newly added recipe outside the database.
type HistoryLog interface {
	Append(ctx context.Context, recipe *model.Recipe) error
}

// EmbeddingInvalidator drops a cached embedding for text that no longer
// describes any recipe.
type EmbeddingInvalidator interface {
	Forget(ctx context.Context, text string) error
}
