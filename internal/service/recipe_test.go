package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantrychef/backend/internal/apperr"
	"github.com/pageza/pantrychef/backend/internal/matching"
	"github.com/pageza/pantrychef/backend/internal/model"
	"github.com/pageza/pantrychef/backend/internal/testhelpers"
)

func pastaRequest() *CreateRecipeRequest {
	return &CreateRecipeRequest{
		Name:            "Pasta",
		Ingredients:     []string{"pasta", " tomato "},
		Instructions:    "Boil pasta, add tomato.",
		CuisineType:     ptr("Italian"),
		PreparationTime: ptr(15),
	}
}

func TestCreateRecipe(t *testing.T) {
	history := &testhelpers.MemoryHistoryLog{}
	svc := NewRecipeService(testhelpers.SetupSQLite(t), history, nil)

	recipe, err := svc.CreateRecipe(context.Background(), pastaRequest())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, recipe.ID)
	assert.Equal(t, model.JSONBStringArray{"pasta", "tomato"}, recipe.Ingredients)
	assert.Equal(t, "Italian", *recipe.CuisineType)
	assert.Nil(t, recipe.Taste)
	assert.Equal(t, []string{"Pasta"}, history.Names())

	got, err := svc.GetRecipe(context.Background(), recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipe.Name, got.Name)
	assert.Equal(t, 15, *got.PreparationTime)
}

func TestCreateRecipeValidation(t *testing.T) {
	history := &testhelpers.MemoryHistoryLog{}
	svc := NewRecipeService(testhelpers.SetupSQLite(t), history, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *CreateRecipeRequest
		want string
	}{
		{"empty name", &CreateRecipeRequest{Name: "  ", Ingredients: []string{"x"}}, "name is required"},
		{"no ingredients", &CreateRecipeRequest{Name: "Air"}, "ingredients"},
		{"blank ingredients", &CreateRecipeRequest{Name: "Air", Ingredients: []string{" ", ""}}, "ingredients"},
		{"negative prep", &CreateRecipeRequest{Name: "Air", Ingredients: []string{"x"}, PreparationTime: ptr(-5)}, "preparation_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateRecipe(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Empty(t, history.Names())
}

func TestCreateRecipeDuplicateName(t *testing.T) {
	svc := NewRecipeService(testhelpers.SetupSQLite(t), nil, nil)
	ctx := context.Background()

	_, err := svc.CreateRecipe(ctx, pastaRequest())
	require.NoError(t, err)
	_, err = svc.CreateRecipe(ctx, pastaRequest())
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateRecipeRollsBackWhenHistoryFails(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	history := &testhelpers.MemoryHistoryLog{Err: errors.New("disk full")}
	svc := NewRecipeService(db, history, nil)

	_, err := svc.CreateRecipe(context.Background(), pastaRequest())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInternal))

	var count int64
	require.NoError(t, db.Model(&model.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetRecipeNotFound(t *testing.T) {
	svc := NewRecipeService(testhelpers.SetupSQLite(t), nil, nil)
	_, err := svc.GetRecipe(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateRecipeInvalidatesEmbedding(t *testing.T) {
	invalidator := new(testhelpers.MockInvalidator)
	svc := NewRecipeService(testhelpers.SetupSQLite(t), nil, invalidator)
	ctx := context.Background()

	recipe, err := svc.CreateRecipe(ctx, pastaRequest())
	require.NoError(t, err)
	oldText := matching.CanonicalText(*recipe)
	invalidator.On("Forget", mock.Anything, oldText).Return(nil).Once()

	updated, err := svc.UpdateRecipe(ctx, recipe.ID, &UpdateRecipeRequest{Ingredients: []string{"pasta", "tomato", "basil"}})
	require.NoError(t, err)

	assert.Equal(t, model.JSONBStringArray{"pasta", "tomato", "basil"}, updated.Ingredients)
	assert.Equal(t, "Pasta", updated.Name)
	assert.Equal(t, "Italian", *updated.CuisineType)
	invalidator.AssertExpectations(t)
}

func TestUpdateRecipeKeepsCacheWhenTextUnchanged(t *testing.T) {
	invalidator := new(testhelpers.MockInvalidator)
	svc := NewRecipeService(testhelpers.SetupSQLite(t), nil, invalidator)
	ctx := context.Background()

	recipe, err := svc.CreateRecipe(ctx, pastaRequest())
	require.NoError(t, err)

	updated, err := svc.UpdateRecipe(ctx, recipe.ID, &UpdateRecipeRequest{Taste: ptr("savory")})
	require.NoError(t, err)
	assert.Equal(t, "savory", *updated.Taste)
	invalidator.AssertNotCalled(t, "Forget", mock.Anything, mock.Anything)
}

func TestUpdateRecipeForgetFailureIsNotFatal(t *testing.T) {
	invalidator := new(testhelpers.MockInvalidator)
	invalidator.On("Forget", mock.Anything, mock.Anything).Return(errors.New("redis down"))
	svc := NewRecipeService(testhelpers.SetupSQLite(t), nil, invalidator)
	ctx := context.Background()

	recipe, err := svc.CreateRecipe(ctx, pastaRequest())
	require.NoError(t, err)

	_, err = svc.UpdateRecipe(ctx, recipe.ID, &UpdateRecipeRequest{Instructions: ptr("Boil longer.")})
	assert.NoError(t, err)
}

func TestUpdateRecipeErrors(t *testing.T) {
	svc := NewRecipeService(testhelpers.SetupSQLite(t), nil, nil)
	ctx := context.Background()

	_, err := svc.UpdateRecipe(ctx, uuid.New(), &UpdateRecipeRequest{Name: ptr("x")})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	recipe, err := svc.CreateRecipe(ctx, pastaRequest())
	require.NoError(t, err)

	_, err = svc.UpdateRecipe(ctx, recipe.ID, &UpdateRecipeRequest{Ingredients: []string{" "}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.UpdateRecipe(ctx, recipe.ID, &UpdateRecipeRequest{Name: ptr("")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestListRecipesInsertionOrder(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	testhelpers.SeedRecipe(t, db, "Salad", []string{"lettuce"}, "")
	testhelpers.SeedRecipe(t, db, "Pasta", []string{"pasta"}, "")
	testhelpers.SeedRecipe(t, db, "Soup", []string{"water"}, "")

	list, err := NewRecipeService(db, nil, nil).ListRecipes(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Salad", list[0].Name)
	assert.Equal(t, "Pasta", list[1].Name)
	assert.Equal(t, "Soup", list[2].Name)
}

func TestStoreFeedsEngine(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	testhelpers.SeedRecipe(t, db, "Pasta", []string{"pasta", "tomato"}, "Boil pasta, add tomato.")
	testhelpers.SeedRecipe(t, db, "Salad", []string{"lettuce", "tomato"}, "Chop lettuce and tomato.")
	testhelpers.SeedPantry(t, db, map[string]float64{"pasta": 2, "tomato": 0})

	store := NewStore(db)
	recipes, err := store.FetchRecipes(context.Background())
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Pasta", recipes[0].Name)

	ingredients, err := store.FetchIngredients(context.Background())
	require.NoError(t, err)
	assert.Equal(t, matching.Pantry{"pasta": 2, "tomato": 0}, matching.NewPantry(ingredients))
}
