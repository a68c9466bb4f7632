package embedding

import (
	"context"

	pgvector "github.com/pgvector/pgvector-go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/pageza/pantrychef/backend/internal/resilience"
)

// BreakerProvider stops calling a failing remote provider for a while so
// requests fail fast instead of queueing on timeouts.
type BreakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker[pgvector.Vector]
}

// WithBreaker wraps p in a circuit breaker.
func WithBreaker(p Provider, cfg resilience.BreakerConfig) *BreakerProvider {
	return &BreakerProvider{inner: p, cb: resilience.NewBreaker[pgvector.Vector](cfg)}
}

func (b *BreakerProvider) Name() string { return b.inner.Name() }

func (b *BreakerProvider) Similarity(x, y pgvector.Vector) float64 {
	return b.inner.Similarity(x, y)
}

func (b *BreakerProvider) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	return b.cb.Execute(func() (pgvector.Vector, error) {
		return b.inner.Embed(ctx, text)
	})
}
