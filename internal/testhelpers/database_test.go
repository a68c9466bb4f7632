package testhelpers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/pantrychef/backend/internal/model"
)

func TestSetupSQLiteIsolated(t *testing.T) {
	t.Run("first", func(t *testing.T) {
		db := SetupSQLite(t)
		SeedPantry(t, db, map[string]float64{"pasta": 2, "salt": -1})

		var ingredients []model.Ingredient
		require.NoError(t, db.Order("name").Find(&ingredients).Error)
		require.Len(t, ingredients, 2)
		assert.Equal(t, 2.0, *ingredients[0].Quantity)
		assert.Nil(t, ingredients[1].Quantity)
	})
	t.Run("second", func(t *testing.T) {
		db := SetupSQLite(t)
		var count int64
		require.NoError(t, db.Model(&model.Ingredient{}).Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestSeedRecipeOrder(t *testing.T) {
	db := SetupSQLite(t)
	a := SeedRecipe(t, db, "A", []string{"x"}, "")
	b := SeedRecipe(t, db, "B", []string{"y"}, "")
	assert.True(t, a.CreatedAt.Before(b.CreatedAt))
}

func TestPostgresMigrations(t *testing.T) {
	db := SetupTestDatabase(t)

	r := SeedRecipe(t, db, "Pasta", []string{"pasta", "tomato"}, "Boil.")
	var got model.Recipe
	require.NoError(t, db.First(&got, "id = ?", r.ID).Error)
	assert.Equal(t, model.JSONBStringArray{"pasta", "tomato"}, got.Ingredients)

	err := db.Create(&model.Recipe{Name: "Pasta", Ingredients: model.JSONBStringArray{"x"}}).Error
	assert.Error(t, err, "recipe names are unique")
}
