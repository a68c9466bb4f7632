package matching

import (
	"math"
	"sort"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pageza/pantrychef/backend/internal/model"
)

// SimilarityFunc scores a candidate vector against the query vector. Whether
// this is cosine or dot product is decided by the embedding provider.
type SimilarityFunc func(query, candidate pgvector.Vector) float64

// Item is a recipe paired with its embedding.
type Item struct {
	Recipe model.Recipe
	Vector pgvector.Vector
}

// Scored is a recipe with its similarity to the query.
type Scored struct {
	Recipe model.Recipe
	Score  float64
}

// Rank scores every item and orders them by descending score. Equal scores
// keep their input order. Nothing is dropped; truncation is the caller's job.
func Rank(query pgvector.Vector, items []Item, similarity SimilarityFunc) []Scored {
	scored := make([]Scored, len(items))
	for i, it := range items {
		s := similarity(query, it.Vector)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = -math.MaxFloat64
		}
		scored[i] = Scored{Recipe: it.Recipe, Score: s}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}
