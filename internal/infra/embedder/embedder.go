package infra_embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/reeltrack/core/internal/config"
	"github.com/reeltrack/core/internal/model"
)

var (
	ErrNoAPIKey     = errors.New("embedder api key not configured")
	ErrBadStatus    = errors.New("embedder returned non-200 status")
	ErrEmptyPayload = errors.New("embedder returned no embeddings")
)

// Embedder calls an OpenAI-compatible /embeddings endpoint.
type Embedder struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func New(cfg config.Embedder) *Embedder {
	return &Embedder{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed returns the embedding of a single input text.
func (e *Embedder) Embed(ctx context.Context, text string) (model.Embedding, error) {
	if e.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build embedding request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call embedder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, ErrEmptyPayload
	}

	return model.Embedding(parsed.Data[0].Embedding), nil
}
