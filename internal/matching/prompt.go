package matching

import (
	"fmt"
	"strconv"
	"strings"
)

// RenderPrompt builds the text-generation prompt for a shortlist. It is a
// pure function of its arguments; the pantry is listed in name order so the
// same inputs always give the same prompt.
func RenderPrompt(shortlist []Candidate, pantry Pantry, query string) string {
	var b strings.Builder

	b.WriteString("You are a friendly kitchen assistant. Recommend what to cook using only the recipes listed below.\n")
	b.WriteString("Prefer recipes that can be cooked now. For any other recipe, say which ingredients are missing.\n")
	b.WriteString("Do not invent recipes that are not listed.\n\n")

	fmt.Fprintf(&b, "User request: %s\n\n", strings.TrimSpace(query))

	b.WriteString("Pantry:\n")
	if len(pantry) == 0 {
		b.WriteString("- (empty)\n")
	}
	for _, name := range pantry.Names() {
		fmt.Fprintf(&b, "- %s: %s\n", name, strconv.FormatFloat(pantry[name], 'f', -1, 64))
	}

	b.WriteString("\nMatching recipes (best match first):\n")
	if len(shortlist) == 0 {
		b.WriteString("(no stored recipes)\n")
	}
	for i, c := range shortlist {
		r := c.Recipe
		fmt.Fprintf(&b, "%d. %s (similarity %.3f)\n", i+1, r.Name, c.Score)
		if c.Feasible {
			b.WriteString("   Can cook now: yes\n")
		} else {
			fmt.Fprintf(&b, "   Can cook now: no (missing: %s)\n", strings.Join(c.Missing, ", "))
		}
		fmt.Fprintf(&b, "   Ingredients: %s\n", strings.Join(r.Ingredients, ", "))
		if r.CuisineType != nil && *r.CuisineType != "" {
			fmt.Fprintf(&b, "   Cuisine: %s\n", *r.CuisineType)
		}
		if r.Taste != nil && *r.Taste != "" {
			fmt.Fprintf(&b, "   Taste: %s\n", *r.Taste)
		}
		if r.PreparationTime != nil {
			fmt.Fprintf(&b, "   Preparation time: %d minutes\n", *r.PreparationTime)
		}
		fmt.Fprintf(&b, "   Instructions: %s\n", strings.TrimSpace(r.Instructions))
	}

	b.WriteString("\nReply in a few sentences.")
	return b.String()
}
