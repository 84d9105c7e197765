// Package ollama provides a similarity.Scorer backed by a local Ollama server.
//
// Ollama (https://ollama.com) hosts local embedding models such as
// nomic-embed-text, mxbai-embed-large and all-minilm. Both texts are embedded
// in a single /api/embed request and graded by cosine similarity, mapped from
// [-1, 1] into [0, 1].
//
// Example usage:
//
//	s, err := ollama.New("", "nomic-embed-text") // http://localhost:11434
//	if err != nil {
//	    log.Fatal(err)
//	}
//	score, err := s.Score(ctx, "plants make food from light", "photosynthesis")
//
// Only standard library packages are used — no additional dependencies are
// required beyond Go's net/http and encoding/json.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/RaghavAtRuntime/local-llm-tutor/pkg/provider/similarity"
)

// DefaultBaseURL is the default base URL for a locally running Ollama instance.
const DefaultBaseURL = "http://localhost:11434"

// Compile-time interface assertion.
var _ similarity.Scorer = (*Scorer)(nil)

// Scorer implements similarity.Scorer using embeddings from a local Ollama
// server. Safe for concurrent use.
type Scorer struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// config holds optional configuration collected from functional options.
type config struct {
	timeout time.Duration
}

// Option is a functional option for Scorer.
type Option func(*config)

// WithTimeout sets a per-request HTTP timeout on the underlying HTTP client.
// A zero or negative value means no timeout (the default).
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// New constructs a new Ollama Scorer.
//
// baseURL is the base URL of the Ollama server; if empty, DefaultBaseURL is
// used. A trailing slash is stripped automatically.
//
// model is the Ollama embedding model name (e.g., "nomic-embed-text"). It must
// not be empty.
func New(baseURL string, model string, opts ...Option) (*Scorer, error) {
	if model == "" {
		return nil, fmt.Errorf("ollama similarity: model must not be empty")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	cfg := &config{}
	for _, o := range opts {
		o(cfg)
	}

	httpClient := &http.Client{}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	return &Scorer{
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
	}, nil
}

// embedRequest is the JSON request body sent to Ollama's /api/embed endpoint.
type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embedResponse is the JSON response body returned by Ollama's /api/embed endpoint.
type embedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float32 `json:"embeddings"`
}

// Score implements similarity.Scorer. Both texts are embedded in one request
// and compared by cosine similarity, shifted into [0, 1].
//
// Texts that are equal after case folding and whitespace normalisation score
// 1.0 without touching the network. Returns an error if the HTTP request
// fails, the server returns a non-200 status, the response cannot be decoded,
// or ctx is cancelled.
func (s *Scorer) Score(ctx context.Context, a, b string) (float64, error) {
	na, nb := normalize(a), normalize(b)
	if na == nb {
		return 1.0, nil
	}
	if na == "" || nb == "" {
		return 0.0, nil
	}

	vecs, err := s.callEmbed(ctx, []string{na, nb})
	if err != nil {
		return 0, fmt.Errorf("ollama similarity: %w", err)
	}
	if len(vecs) != 2 {
		return 0, fmt.Errorf("ollama similarity: expected 2 embeddings, got %d", len(vecs))
	}

	cos, err := cosine(vecs[0], vecs[1])
	if err != nil {
		return 0, fmt.Errorf("ollama similarity: %w", err)
	}
	// Map cosine from [-1, 1] into [0, 1].
	return min(max((cos+1)/2, 0), 1), nil
}

// callEmbed sends a POST /api/embed request to the Ollama server and returns
// the raw embedding vectors. It respects context cancellation via
// http.NewRequestWithContext.
func (s *Scorer) callEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{
		Model: s.model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embeddings in response")
	}
	return result.Embeddings, nil
}

// cosine returns the cosine similarity of two equal-length vectors.
func cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("zero-magnitude embedding")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// normalize lowers case and collapses runs of whitespace to single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
