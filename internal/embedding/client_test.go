package embedding

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTrip func(*http.Request) *http.Response

func (rt roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req), nil
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestEmbedSuccess(t *testing.T) {
	client := &Client{
		BaseURL:   "https://api.test/v1/embeddings",
		APIKey:    "secret",
		ModelName: "text-embedding-test",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(req *http.Request) *http.Response {
				assert.Equal(t, "Bearer secret", req.Header.Get("Authorization"))
				var body embeddingRequest
				require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
				assert.Equal(t, "text-embedding-test", body.Model)
				assert.Equal(t, []string{"save status", "नमस्ते"}, body.Input)
				// Out of order on purpose; the client sorts by index.
				return respond(200, `{"data":[
					{"index":1,"embedding":[0,1]},
					{"index":0,"embedding":[1,0]}
				]}`)
			}),
		},
	}

	out, err := client.Embed(context.Background(), []string{"save status", "नमस्ते"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0}, {0, 1}}, out)
	assert.Equal(t, "text-embedding-test", client.Model())
}

func TestEmbedAPIError(t *testing.T) {
	client := &Client{
		BaseURL:   "https://api.test/v1/embeddings",
		ModelName: "m",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(*http.Request) *http.Response {
				return respond(400, `{"error":{"message":"bad input"}}`)
			}),
		},
	}
	_, err := client.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad input")
}

func TestEmbedStatusWithoutBody(t *testing.T) {
	client := &Client{
		BaseURL:   "https://api.test/v1/embeddings",
		ModelName: "m",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(*http.Request) *http.Response {
				return respond(502, `<html>bad gateway</html>`)
			}),
		},
	}
	_, err := client.Embed(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestEmbedCountMismatch(t *testing.T) {
	client := &Client{
		BaseURL:   "https://api.test/v1/embeddings",
		ModelName: "m",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(*http.Request) *http.Response {
				return respond(200, `{"data":[{"index":0,"embedding":[1]}]}`)
			}),
		},
	}
	_, err := client.Embed(context.Background(), []string{"a", "b"})
	assert.Error(t, err)
}

func TestEmbedRequiresConfig(t *testing.T) {
	_, err := (&Client{}).Embed(context.Background(), []string{"a"})
	assert.Error(t, err)
}

func TestEmbedEmptyInput(t *testing.T) {
	client := &Client{
		BaseURL:   "https://api.test/v1/embeddings",
		ModelName: "m",
		HTTPClient: &http.Client{
			Transport: roundTrip(func(*http.Request) *http.Response {
				t.Fatal("no request expected")
				return nil
			}),
		},
	}
	out, err := client.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}
