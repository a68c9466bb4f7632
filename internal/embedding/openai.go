package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pageza/pantrychef/backend/internal/metrics"
)

// DefaultAPIURL is the OpenAI-compatible embeddings endpoint.
const DefaultAPIURL = "https://api.openai.com/v1/embeddings"

// HTTPConfig configures an OpenAI-compatible embeddings endpoint.
type HTTPConfig struct {
	APIURL     string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
	Metric     Metric
}

// HTTPProvider calls a remote /v1/embeddings endpoint.
type HTTPProvider struct {
	apiURL     string
	apiKey     string
	model      string
	dimensions int
	metric     Metric
	httpClient *http.Client
}

// NewHTTPProvider validates cfg and returns a provider.
func NewHTTPProvider(cfg HTTPConfig) (*HTTPProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("EMBEDDING_API_KEY is required for the openai embedding provider")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("EMBEDDING_MODEL is required for the openai embedding provider")
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Metric == "" {
		cfg.Metric = MetricCosine
	}
	return &HTTPProvider{
		apiURL:     cfg.APIURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		metric:     cfg.Metric,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type embeddingRequest struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Name includes the requested dimensions when set; the same model truncated
// to a different size yields incompatible vectors.
func (p *HTTPProvider) Name() string {
	if p.dimensions > 0 {
		return fmt.Sprintf("%s-%d", p.model, p.dimensions)
	}
	return p.model
}

func (p *HTTPProvider) Similarity(a, b pgvector.Vector) float64 {
	return p.metric.Score(a, b)
}

// Embed sends one text to the endpoint.
func (p *HTTPProvider) Embed(ctx context.Context, text string) (vec pgvector.Vector, err error) {
	start := time.Now()
	defer func() { metrics.RecordProviderCall("embedding", time.Since(start), err) }()

	payload, err := json.Marshal(embeddingRequest{Model: p.model, Input: text, Dimensions: p.dimensions})
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payload))
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pgvector.Vector{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return pgvector.Vector{}, fmt.Errorf("embedding request failed with status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return pgvector.Vector{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return pgvector.Vector{}, fmt.Errorf("embedding error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("embedding response missing data")
	}
	return pgvector.NewVector(parsed.Data[0].Embedding), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
