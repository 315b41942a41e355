// Package ports defines interfaces for external dependencies.
// Clean Architecture: These are the boundaries - usecases depend on these abstractions,
// not concrete implementations. Adapters implement these interfaces.
package ports

import (
	"context"
	"time"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
)

// Retriever fetches ranked context chunks from the retrieval backend.
type Retriever interface {
	// Retrieve returns at most topK chunks for query, best first.
	// An empty slice with a nil error is a valid answer.
	Retrieve(ctx context.Context, query string, topK int) ([]entities.RetrievedChunk, error)
}

// RetrievalAdmin exposes the maintenance endpoints of the retrieval backend.
type RetrievalAdmin interface {
	// Health reports whether the backend answers and has an index loaded.
	Health(ctx context.Context) (BackendHealth, error)

	// Reindex asks the backend to rebuild its index.
	Reindex(ctx context.Context) error
}

// BackendHealth is the retrieval backend's self-reported state.
type BackendHealth struct {
	Status  string `json:"status"`
	Service string `json:"service,omitempty"`
	Indexed bool   `json:"indexed"`
}

// Completer generates text from an instruction pair.
// Single Responsibility: only LLM inference; fallback policy lives in usecases.
type Completer interface {
	// Complete returns the full generated text. An empty string with a nil
	// error means the backend answered but produced nothing.
	Complete(ctx context.Context, prompt entities.PromptPair) (string, error)
}

// OutcomeRecorder receives one observation per chat request.
type OutcomeRecorder interface {
	RecordChat(outcome entities.Outcome, duration time.Duration)
	RecordRetrieval(chunks int, duration time.Duration, err error)
	RecordCompletion(status entities.CompletionStatus, duration time.Duration)
}

// FileWatcher monitors a single file for changes.
type FileWatcher interface {
	// Watch starts monitoring path and emits an event per change.
	Watch(ctx context.Context, path string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
