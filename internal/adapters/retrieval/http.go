// Package retrieval provides the HTTP retrieval-service adapter.
// Clean Architecture: Adapter implementing ports.Retriever and ports.RetrievalAdmin.
// The external service owns indexing and similarity search; this package only talks to it.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
	"github.com/0xcro3dile/ragchat-go/internal/domain/ports"
)

const DefaultServiceURL = "http://localhost:8000"

var tracer = otel.Tracer("ragchat.adapters.retrieval")

// HTTPRetriever implements ports.Retriever against POST {url}/retrieve.
// Deadlines come from the caller's context; the client itself has no timeout.
type HTTPRetriever struct {
	serviceURL string
	client     *http.Client
}

// NewHTTPRetriever creates a retriever for the service at serviceURL.
// A nil client uses http.DefaultClient.
func NewHTTPRetriever(serviceURL string, client *http.Client) *HTTPRetriever {
	if serviceURL == "" {
		serviceURL = DefaultServiceURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPRetriever{
		serviceURL: strings.TrimRight(serviceURL, "/"),
		client:     client,
	}
}

// retrieveRequest is the retrieval service request format.
type retrieveRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// ErrMalformedResponse marks a 200 answer that does not carry a usable chunk list.
var ErrMalformedResponse = errors.New("malformed retrieval response")

// retrieveResponse is the retrieval service response format.
// chunk_id and any other extra fields are ignored. Pointers tell an absent or
// null field apart from an empty list.
type retrieveResponse struct {
	Chunks *[]*entities.RetrievedChunk `json:"chunks"`
	Error  string                      `json:"error,omitempty"`
}

// toChunks rejects a missing or null chunk list, null elements and service-reported errors.
func (r retrieveResponse) toChunks() ([]entities.RetrievedChunk, error) {
	if r.Error != "" {
		return nil, fmt.Errorf("decoding response: %w: service error: %s", ErrMalformedResponse, r.Error)
	}
	if r.Chunks == nil {
		return nil, fmt.Errorf("decoding response: %w: missing chunks", ErrMalformedResponse)
	}
	chunks := make([]entities.RetrievedChunk, 0, len(*r.Chunks))
	for i, c := range *r.Chunks {
		if c == nil {
			return nil, fmt.Errorf("decoding response: %w: null chunk at index %d", ErrMalformedResponse, i)
		}
		chunks = append(chunks, *c)
	}
	return chunks, nil
}

// Retrieve fetches at most topK ranked chunks for query.
func (r *HTTPRetriever) Retrieve(ctx context.Context, query string, topK int) ([]entities.RetrievedChunk, error) {
	ctx, span := tracer.Start(ctx, "HTTPRetriever.Retrieve")
	defer span.End()
	span.SetAttributes(
		attribute.String("retrieval.url", r.serviceURL),
		attribute.Int("retrieval.top_k", topK),
	)

	jsonData, err := json.Marshal(retrieveRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var result retrieveResponse
	if err := r.do(ctx, http.MethodPost, "/retrieve", jsonData, &result); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrieval failed")
		return nil, err
	}

	chunks, err := result.toChunks()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed response")
		return nil, err
	}
	span.SetAttributes(attribute.Int("retrieval.chunks", len(chunks)))
	return chunks, nil
}

// Health queries GET {url}/health.
func (r *HTTPRetriever) Health(ctx context.Context) (ports.BackendHealth, error) {
	ctx, span := tracer.Start(ctx, "HTTPRetriever.Health")
	defer span.End()

	var health ports.BackendHealth
	if err := r.do(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "health check failed")
		return ports.BackendHealth{}, err
	}
	return health, nil
}

// Reindex asks the service to rebuild its index via POST {url}/reindex.
func (r *HTTPRetriever) Reindex(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "HTTPRetriever.Reindex")
	defer span.End()

	if err := r.do(ctx, http.MethodPost, "/reindex", nil, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reindex failed")
		return err
	}
	return nil
}

// do sends one request and decodes a 200 JSON body into out, when out is non-nil.
func (r *HTTPRetriever) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.serviceURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling retrieval service: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: truncate(string(respBody), 256)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// StatusError is returned when the service answers with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("retrieval service returned status %d", e.Code)
	}
	return fmt.Sprintf("retrieval service returned status %d: %s", e.Code, e.Body)
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
