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

	"repoindex/internal/domain"
)

const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "nomic-embed-text:latest"
	defaultTimeout       = 120 * time.Second
	maxErrorBody         = 200
)

// OllamaEmbedder calls the Ollama /api/embeddings endpoint, one text per request.
type OllamaEmbedder struct {
	model   string
	baseURL string
	client  *http.Client
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

func NewOllamaEmbedder(baseURL, model string, timeout time.Duration) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &OllamaEmbedder{
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Embed returns the embedding for text. Every failure is reported as a
// *domain.EmbeddingServiceError; there is no retry.
func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	jsonData, err := json.Marshal(embeddingRequest{
		Model:  e.model,
		Prompt: text,
	})
	if err != nil {
		return nil, &domain.EmbeddingServiceError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, &domain.EmbeddingServiceError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &domain.EmbeddingServiceError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.EmbeddingServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.EmbeddingServiceError{StatusCode: resp.StatusCode, Body: preview(body)}
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, &domain.EmbeddingServiceError{Err: fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err)}
	}
	if len(embResp.Embedding) == 0 {
		return nil, &domain.EmbeddingServiceError{Err: fmt.Errorf("response has no embedding (body: %s)", preview(body))}
	}

	return embResp.Embedding, nil
}

func (e *OllamaEmbedder) ModelName() string {
	return e.model
}

func preview(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	return s
}
