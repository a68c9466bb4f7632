// Package embedding turns text into vectors and compares them.
//
// Providers are plain values injected where needed; nothing in this package
// keeps process-wide client state. The similarity metric is a configuration
// point of each provider rather than a fixed assumption of callers.
package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"

	pgvector "github.com/pgvector/pgvector-go"
)

// Provider embeds text and scores pairs of vectors. Embed must be
// deterministic for identical text within one deployment.
type Provider interface {
	Embed(ctx context.Context, text string) (pgvector.Vector, error)
	Similarity(a, b pgvector.Vector) float64
	// Name identifies the model; it is part of cache keys.
	Name() string
}

// Metric selects the pairwise similarity function.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot"
)

// ParseMetric accepts "cosine" (default for "") or "dot".
func ParseMetric(s string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(s))) {
	case "", MetricCosine:
		return MetricCosine, nil
	case MetricDot:
		return MetricDot, nil
	default:
		return "", fmt.Errorf("unknown similarity metric %q", s)
	}
}

// Score applies the metric to a and b. Vectors of different length are
// compared over their common prefix.
func (m Metric) Score(a, b pgvector.Vector) float64 {
	if m == MetricDot {
		return Dot(a.Slice(), b.Slice())
	}
	return Cosine(a.Slice(), b.Slice())
}

// Dot returns the inner product of a and b.
func Dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// Cosine returns the cosine similarity of a and b, 0 when either is a zero
// vector.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func normalize(v []float32) {
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}
