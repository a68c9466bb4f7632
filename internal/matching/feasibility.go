// Package matching ranks stored recipes against a free-text request and
// annotates each with whether the pantry can currently support it.
package matching

import (
	"sort"

	"github.com/pageza/pantrychef/backend/internal/model"
)

// DefaultMinQuantity is the smallest quantity that counts as "available".
// Units are not reconciled: 1 gram and 1 cup both satisfy it.
const DefaultMinQuantity = 1.0

// Pantry maps ingredient name to available quantity. It is built fresh per
// request and never written back.
type Pantry map[string]float64

// NewPantry snapshots ingredients. A nil quantity is recorded as 0 so the
// name is known but unusable. Duplicate names are summed.
func NewPantry(ingredients []model.Ingredient) Pantry {
	p := make(Pantry, len(ingredients))
	for _, ing := range ingredients {
		qty := 0.0
		if ing.Quantity != nil {
			qty = *ing.Quantity
		}
		p[ing.Name] += qty
	}
	return p
}

// Names returns the pantry's ingredient names in sorted order.
func (p Pantry) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Missing lists the required names that are absent or below minQuantity,
// in the order they were required.
func (p Pantry) Missing(required []string, minQuantity float64) []string {
	var missing []string
	for _, name := range required {
		if qty, ok := p[name]; !ok || qty < minQuantity {
			missing = append(missing, name)
		}
	}
	return missing
}

// IsFeasible reports whether every required ingredient is in the pantry with
// at least DefaultMinQuantity.
func IsFeasible(required []string, pantry Pantry) bool {
	return IsFeasibleWithThreshold(required, pantry, DefaultMinQuantity)
}

// IsFeasibleWithThreshold is IsFeasible with an explicit minimum quantity.
func IsFeasibleWithThreshold(required []string, pantry Pantry, minQuantity float64) bool {
	for _, name := range required {
		qty, ok := pantry[name]
		if !ok || qty < minQuantity {
			return false
		}
	}
	return true
}
