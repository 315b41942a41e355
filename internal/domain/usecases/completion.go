package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
	"github.com/0xcro3dile/ragchat-go/internal/domain/ports"
)

const DefaultCompletionTimeout = 120 * time.Second

const (
	DefaultCompletionFailureMessage = "Je m'excuse, je rencontre des difficultés techniques. Veuillez réessayer dans un moment."
	DefaultCompletionEmptyMessage   = "Désolé, je n'ai pas pu générer de réponse."
)

// CompletionMessages are the degraded-service texts substituted on failure.
type CompletionMessages struct {
	Failure string
	Empty   string
}

// CompletionInvoker calls the LLM backend and never surfaces an error:
// failures and empty generations become fixed messages, flagged in the status.
type CompletionInvoker struct {
	completer ports.Completer
	timeout   time.Duration
	messages  CompletionMessages
}

// NewCompletionInvoker applies defaults for a non-positive timeout and blank messages.
func NewCompletionInvoker(completer ports.Completer, timeout time.Duration, messages CompletionMessages) *CompletionInvoker {
	if timeout <= 0 {
		timeout = DefaultCompletionTimeout
	}
	if messages.Failure == "" {
		messages.Failure = DefaultCompletionFailureMessage
	}
	if messages.Empty == "" {
		messages.Empty = DefaultCompletionEmptyMessage
	}
	return &CompletionInvoker{
		completer: completer,
		timeout:   timeout,
		messages:  messages,
	}
}

// Invoke returns the trimmed generation, or a substituted message.
func (ci *CompletionInvoker) Invoke(ctx context.Context, prompt entities.PromptPair) entities.Completion {
	ctx, cancel := context.WithTimeout(ctx, ci.timeout)
	defer cancel()

	text, err := ci.completer.Complete(ctx, prompt)
	if err != nil {
		return entities.Completion{Text: ci.messages.Failure, Status: entities.CompletionFailed, Cause: err}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return entities.Completion{Text: ci.messages.Empty, Status: entities.CompletionEmpty}
	}
	return entities.Completion{Text: text, Status: entities.CompletionOK}
}
