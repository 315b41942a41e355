package usecases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
	"github.com/0xcro3dile/ragchat-go/internal/domain/ports"
)

const (
	DefaultTopK             = 5
	DefaultRetrievalTimeout = 30 * time.Second
)

// RetrievalFailure classifies why a retrieval call did not produce chunks.
type RetrievalFailure string

const (
	RetrievalTimeout  RetrievalFailure = "timeout"
	RetrievalCanceled RetrievalFailure = "canceled"
	RetrievalBackend  RetrievalFailure = "backend"
)

// RetrievalError is the explicit failure signal of the retrieval coordinator.
type RetrievalError struct {
	Kind RetrievalFailure
	Err  error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval %s: %v", e.Kind, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// IsRetrievalError reports whether err carries a RetrievalError.
func IsRetrievalError(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}

// RetrievalCoordinator calls the retrieval backend once per question under a
// bounded timeout. No retry is performed here.
type RetrievalCoordinator struct {
	retriever ports.Retriever
	topK      int
	timeout   time.Duration
}

// NewRetrievalCoordinator applies defaults for non-positive topK and timeout.
func NewRetrievalCoordinator(retriever ports.Retriever, topK int, timeout time.Duration) *RetrievalCoordinator {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if timeout <= 0 {
		timeout = DefaultRetrievalTimeout
	}
	return &RetrievalCoordinator{
		retriever: retriever,
		topK:      topK,
		timeout:   timeout,
	}
}

// TopK returns the configured result-count limit.
func (rc *RetrievalCoordinator) TopK() int { return rc.topK }

// Retrieve returns a well-formed, possibly empty, chunk slice or a *RetrievalError.
func (rc *RetrievalCoordinator) Retrieve(ctx context.Context, question string) ([]entities.RetrievedChunk, error) {
	ctx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()

	chunks, err := rc.retriever.Retrieve(ctx, question, rc.topK)
	if err != nil {
		return nil, &RetrievalError{Kind: classifyRetrieval(ctx, err), Err: err}
	}
	if chunks == nil {
		chunks = []entities.RetrievedChunk{}
	}
	return chunks, nil
}

func classifyRetrieval(ctx context.Context, err error) RetrievalFailure {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return RetrievalTimeout
	case errors.Is(err, context.Canceled):
		return RetrievalCanceled
	default:
		return RetrievalBackend
	}
}
