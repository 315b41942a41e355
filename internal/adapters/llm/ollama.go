// Package llm provides the LLM completion adapters.
// Clean Architecture: Adapters implementing ports.Completer.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
)

const (
	DefaultOllamaURL = "http://localhost:11434"
	DefaultModel     = "llama3.1"
)

// maxLineSize bounds a single NDJSON line; long generations can exceed bufio's 64KB default.
const maxLineSize = 4 * 1024 * 1024

var tracer = otel.Tracer("ragchat.adapters.llm")

// OllamaCompleter implements ports.Completer using Ollama's /api/generate.
type OllamaCompleter struct {
	baseURL string
	model   string
	format  PromptFormat
	client  *http.Client
}

// NewOllamaCompleter creates a new Ollama completer.
// A nil client uses http.DefaultClient; deadlines come from the caller's context.
func NewOllamaCompleter(baseURL, model string, format PromptFormat, client *http.Client) *OllamaCompleter {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultModel
	}
	if format == "" {
		format = FormatLlama3
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OllamaCompleter{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		format:  format,
		client:  client,
	}
}

// ollamaGenerateRequest is the Ollama generate API request.
type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// ollamaGenerateResponse is one NDJSON line of the Ollama generate API response.
type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Complete renders the prompt pair, posts it and reassembles the body.
func (a *OllamaCompleter) Complete(ctx context.Context, prompt entities.PromptPair) (string, error) {
	ctx, span := tracer.Start(ctx, "OllamaCompleter.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", a.model),
		attribute.String("llm.prompt_format", string(a.format)),
	)

	text, err := a.generate(ctx, a.format.Render(prompt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ollama generate failed")
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.response_len", len(text)))
	return text, nil
}

func (a *OllamaCompleter) generate(ctx context.Context, rendered string) (string, error) {
	jsonData, err := json.Marshal(ollamaGenerateRequest{
		Model:  a.model,
		Prompt: rendered,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/generate", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}

	text, err := ReassembleFragments(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return text, nil
}

// ReassembleFragments concatenates the "response" field of every NDJSON line
// in arrival order and trims the result. Blank and malformed lines are skipped.
// Ollama may split the answer over several lines even with streaming off.
func ReassembleFragments(r io.Reader) (string, error) {
	var sb strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk ollamaGenerateResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue // Skip malformed lines
		}
		sb.WriteString(chunk.Response)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return strings.TrimSpace(sb.String()), nil
}
