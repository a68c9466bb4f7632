package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	pgvector "github.com/pgvector/pgvector-go"
)

// DefaultDimensions matches the output size of common sentence-embedding
// models so vectors stay interchangeable in storage.
const DefaultDimensions = 384

var tokenPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`)

// HashingProvider is a local, dependency-free embedder. Each token is hashed
// into one of Dimensions buckets and the counts are L2-normalized, so texts
// sharing words score higher. Useful offline and in tests.
type HashingProvider struct {
	dimensions int
	metric     Metric
	stopwords  map[string]struct{}
}

// NewHashingProvider returns a hashing embedder. dimensions <= 0 selects
// DefaultDimensions.
func NewHashingProvider(dimensions int, metric Metric) *HashingProvider {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	if metric == "" {
		metric = MetricCosine
	}
	return &HashingProvider{
		dimensions: dimensions,
		metric:     metric,
		stopwords:  defaultStopwords(),
	}
}

func (p *HashingProvider) Name() string {
	return fmt.Sprintf("hashing-%d", p.dimensions)
}

func (p *HashingProvider) Dimensions() int { return p.dimensions }

// Embed never fails except on a cancelled context.
func (p *HashingProvider) Embed(ctx context.Context, text string) (pgvector.Vector, error) {
	if err := ctx.Err(); err != nil {
		return pgvector.Vector{}, err
	}

	vec := make([]float32, p.dimensions)
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := p.stopwords[tok]; stop {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		vec[h.Sum32()%uint32(p.dimensions)]++
	}
	normalize(vec)
	return pgvector.NewVector(vec), nil
}

func (p *HashingProvider) Similarity(a, b pgvector.Vector) float64 {
	return p.metric.Score(a, b)
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "for", "to", "of", "in", "on", "at", "by",
		"with", "as", "is", "are", "was", "were", "be", "it", "this", "that", "from", "into", "about",
		"so", "can", "will", "just", "i", "me", "my", "we", "you", "what", "some", "recipe", "name",
		"ingredients", "instructions",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
