// Package embedding calls OpenAI-compatible embedding endpoints.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
)

// DefaultTimeout bounds one embedding request.
const DefaultTimeout = 15 * time.Second

// Client calls a POST /embeddings endpoint. It implements embed.Embedder.
type Client struct {
	// BaseURL is the full endpoint URL, e.g. https://api.openai.com/v1/embeddings.
	BaseURL string
	APIKey  string
	// ModelName is sent as "model" and recorded in built indexes.
	ModelName string
	// Dimensions, when positive, asks the server to shorten vectors.
	Dimensions int

	HTTPClient *http.Client
}

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.ModelName }

// Embed returns one vector per text, in input order.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if c.BaseURL == "" || c.ModelName == "" {
		return nil, errors.New("embedding: base URL and model required")
	}
	if len(texts) == 0 {
		return nil, nil
	}
	payload, err := c.send(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(payload.Data) != len(texts) {
		return nil, errors.Newf("embedding: got %d vectors for %d texts", len(payload.Data), len(texts))
	}

	sort.SliceStable(payload.Data, func(i, j int) bool {
		return payload.Data[i].Index < payload.Data[j].Index
	})
	out := make([][]float32, len(texts))
	for i, d := range payload.Data {
		if len(d.Embedding) == 0 {
			return nil, errors.Newf("embedding: empty vector at index %d", i)
		}
		out[i] = d.Embedding
	}
	return out, nil
}

func (c *Client) send(ctx context.Context, texts []string) (*embeddingResponse, error) {
	reqBody, err := json.Marshal(embeddingRequest{Model: c.ModelName, Input: texts, Dimensions: c.Dimensions})
	if err != nil {
		return nil, errors.Wrap(err, "embedding: encode request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "embedding: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "embedding: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, errors.Wrap(err, "embedding: read response")
	}
	var payload embeddingResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, errors.Newf("embedding: status %d", resp.StatusCode)
		}
		return nil, errors.Wrap(err, "embedding: decode response")
	}
	if payload.Error != nil {
		return nil, errors.Newf("embedding error: %s", payload.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("embedding: status %d", resp.StatusCode)
	}
	return &payload, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultTimeout}
}
