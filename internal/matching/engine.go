package matching

import (
	"context"
	"fmt"
	"strings"
	"time"

	pgvector "github.com/pgvector/pgvector-go"
	"golang.org/x/sync/errgroup"

	"github.com/pageza/pantrychef/backend/internal/apperr"
	"github.com/pageza/pantrychef/backend/internal/embedding"
	"github.com/pageza/pantrychef/backend/internal/logging"
	"github.com/pageza/pantrychef/backend/internal/metrics"
	"github.com/pageza/pantrychef/backend/internal/model"
)

// DefaultTopK is the shortlist length when none is configured.
const DefaultTopK = 3

// Corpus reads the current recipes and pantry. Recipes must come back in a
// stable order; ties in ranking resolve by that order.
type Corpus interface {
	FetchRecipes(ctx context.Context) ([]model.Recipe, error)
	FetchIngredients(ctx context.Context) ([]model.Ingredient, error)
}

// Candidate is one shortlist entry.
type Candidate struct {
	Recipe   model.Recipe `json:"recipe"`
	Score    float64      `json:"score"`
	Feasible bool         `json:"feasible"`
	Missing  []string     `json:"missing,omitempty"`
}

// Recommendation is the result of one Recommend call.
type Recommendation struct {
	Query     string      `json:"query"`
	Shortlist []Candidate `json:"shortlist"`
	Pantry    Pantry      `json:"pantry"`
}

// Options tune the engine.
type Options struct {
	// Workers bounds concurrent recipe embedding calls. <= 0 means 8.
	Workers int
	// MinQuantity is the feasibility threshold. <= 0 means DefaultMinQuantity.
	MinQuantity float64
}

// Engine builds recipe shortlists. It holds no per-request state and is safe
// for concurrent use.
type Engine struct {
	corpus   Corpus
	embedder embedding.Provider
	opts     Options
}

// NewEngine wires the engine to its collaborators.
func NewEngine(corpus Corpus, embedder embedding.Provider, opts Options) *Engine {
	if opts.Workers <= 0 {
		opts.Workers = 8
	}
	if opts.MinQuantity <= 0 {
		opts.MinQuantity = DefaultMinQuantity
	}
	return &Engine{corpus: corpus, embedder: embedder, opts: opts}
}

// Recommend returns up to k recipes ranked by similarity to query, each
// flagged with feasibility against a pantry snapshot taken for this call.
// Either the full shortlist is returned or an error; never a partial result.
func (e *Engine) Recommend(ctx context.Context, query string, k int) (rec *Recommendation, err error) {
	start := time.Now()
	defer func() {
		metrics.RecommendDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			kind := apperr.KindOf(err).String()
			if apperr.IsCancelled(err) {
				kind = "cancelled"
			}
			metrics.RecommendErrors.WithLabelValues(kind).Inc()
		}
	}()

	if strings.TrimSpace(query) == "" {
		return nil, apperr.Validation("query must not be empty")
	}
	if k <= 0 {
		return nil, apperr.Validation("k must be positive, got %d", k)
	}

	recipes, pantry, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	metrics.RecommendCorpusSize.Observe(float64(len(recipes)))

	rec = &Recommendation{Query: query, Shortlist: []Candidate{}, Pantry: pantry}
	if len(recipes) == 0 {
		return rec, nil
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, e.embedError(ctx, err)
	}

	items, err := e.embedRecipes(ctx, recipes)
	if err != nil {
		return nil, err
	}

	ranked := Rank(queryVec, items, e.embedder.Similarity)
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("recommendation cancelled: %w", err)
	}

	for _, s := range ranked {
		missing := pantry.Missing(s.Recipe.Ingredients, e.opts.MinQuantity)
		rec.Shortlist = append(rec.Shortlist, Candidate{
			Recipe:   s.Recipe,
			Score:    s.Score,
			Feasible: len(missing) == 0,
			Missing:  missing,
		})
	}

	logging.Ctx(ctx).Debug().
		Int("corpus", len(recipes)).
		Int("shortlist", len(rec.Shortlist)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendation built")
	return rec, nil
}

// snapshot reads recipes and ingredients concurrently.
func (e *Engine) snapshot(ctx context.Context) ([]model.Recipe, Pantry, error) {
	var (
		recipes     []model.Recipe
		ingredients []model.Ingredient
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recipes, err = e.corpus.FetchRecipes(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch recipes: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ingredients, err = e.corpus.FetchIngredients(gctx)
		if err != nil {
			return fmt.Errorf("failed to fetch ingredients: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, fmt.Errorf("recommendation cancelled: %w", ctxErr)
		}
		if apperr.KindOf(err) != apperr.KindInternal {
			return nil, nil, err
		}
		return nil, nil, apperr.Internal("failed to read corpus", err)
	}
	return recipes, NewPantry(ingredients), nil
}

// embedRecipes embeds every recipe with bounded parallelism. Each vector is
// written to its recipe's slot so completion order cannot affect ranking.
func (e *Engine) embedRecipes(ctx context.Context, recipes []model.Recipe) ([]Item, error) {
	vectors := make([]pgvector.Vector, len(recipes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := range recipes {
		i := i
		g.Go(func() error {
			vec, err := e.embedder.Embed(gctx, CanonicalText(recipes[i]))
			if err != nil {
				return fmt.Errorf("recipe %q: %w", recipes[i].Name, err)
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, e.embedError(ctx, err)
	}

	items := make([]Item, len(recipes))
	for i := range recipes {
		items[i] = Item{Recipe: recipes[i], Vector: vectors[i]}
	}
	return items, nil
}

func (e *Engine) embedError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("recommendation cancelled: %w", ctxErr)
	}
	return apperr.Provider("embedding", err)
}
