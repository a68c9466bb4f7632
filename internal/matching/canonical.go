package matching

import (
	"fmt"
	"strings"

	"github.com/pageza/pantrychef/backend/internal/model"
)

// CanonicalText is the text a recipe is embedded from. It depends only on
// name, ingredients and instructions, so unchanged recipes always map to the
// same embedding cache key.
func CanonicalText(r model.Recipe) string {
	return fmt.Sprintf("Recipe Name: %s\nIngredients: %s\nInstructions: %s",
		strings.TrimSpace(r.Name),
		strings.Join(r.Ingredients, ", "),
		strings.TrimSpace(r.Instructions),
	)
}
