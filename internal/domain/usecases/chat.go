// Package usecases - chat.go runs the single-pass RAG pipeline:
// crisis filter, retrieval, context assembly, prompt, completion, response.
package usecases

import (
	"context"
	"log/slog"
	"time"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
	"github.com/0xcro3dile/ragchat-go/internal/domain/ports"
)

// DefaultRetrievalFailureMessage is the apology returned when retrieval fails.
const DefaultRetrievalFailureMessage = "Désolé, une erreur s'est produite. Veuillez réessayer."

// Settings is the immutable policy a ChatUseCase is built from.
type Settings struct {
	TopK              int
	RetrievalTimeout  time.Duration
	CompletionTimeout time.Duration

	CrisisKeywords []string
	CrisisMessage  string
	CrisisSource   string

	Templates PromptTemplates

	RetrievalFailureMessage string
	Completion              CompletionMessages
}

// DefaultSettings returns the built-in policy.
func DefaultSettings() Settings {
	return Settings{
		TopK:                    DefaultTopK,
		RetrievalTimeout:        DefaultRetrievalTimeout,
		CompletionTimeout:       DefaultCompletionTimeout,
		CrisisKeywords:          DefaultCrisisKeywords,
		CrisisMessage:           DefaultCrisisMessage,
		CrisisSource:            DefaultCrisisSource,
		Templates:               DefaultPromptTemplates(),
		RetrievalFailureMessage: DefaultRetrievalFailureMessage,
		Completion: CompletionMessages{
			Failure: DefaultCompletionFailureMessage,
			Empty:   DefaultCompletionEmptyMessage,
		},
	}
}

// ChatUseCase orchestrates one chat request.
// No per-request state is kept on the struct; it is safe for concurrent use.
type ChatUseCase struct {
	crisis    *CrisisFilter
	retrieval *RetrievalCoordinator
	prompts   *PromptBuilder
	invoker   *CompletionInvoker
	recorder  ports.OutcomeRecorder
	logger    *slog.Logger

	crisisMessage    string
	crisisSource     string
	retrievalFailMsg string
}

// NewChatUseCase creates a ChatUseCase with injected dependencies.
// recorder and logger may be nil.
func NewChatUseCase(
	retriever ports.Retriever,
	completer ports.Completer,
	settings Settings,
	recorder ports.OutcomeRecorder,
	logger *slog.Logger,
) *ChatUseCase {
	if settings.CrisisKeywords == nil {
		settings.CrisisKeywords = DefaultCrisisKeywords
	}
	if settings.CrisisMessage == "" {
		settings.CrisisMessage = DefaultCrisisMessage
	}
	if settings.CrisisSource == "" {
		settings.CrisisSource = DefaultCrisisSource
	}
	if settings.RetrievalFailureMessage == "" {
		settings.RetrievalFailureMessage = DefaultRetrievalFailureMessage
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatUseCase{
		crisis:           NewCrisisFilter(settings.CrisisKeywords),
		retrieval:        NewRetrievalCoordinator(retriever, settings.TopK, settings.RetrievalTimeout),
		prompts:          NewPromptBuilder(settings.Templates),
		invoker:          NewCompletionInvoker(completer, settings.CompletionTimeout, settings.Completion),
		recorder:         recorder,
		logger:           logger,
		crisisMessage:    settings.CrisisMessage,
		crisisSource:     settings.CrisisSource,
		retrievalFailMsg: settings.RetrievalFailureMessage,
	}
}

// Chat always returns a well-formed response, possibly carrying a degraded
// message, together with the branch that produced it.
func (uc *ChatUseCase) Chat(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, entities.Outcome) {
	start := time.Now()
	resp, outcome := uc.run(ctx, req.Question)
	uc.recorder.RecordChat(outcome, time.Since(start))
	return resp, outcome
}

func (uc *ChatUseCase) run(ctx context.Context, question string) (*entities.ChatResponse, entities.Outcome) {
	// 1. Crisis short-circuit: no retrieval, no LLM call
	if uc.crisis.Matches(question) {
		uc.logger.WarnContext(ctx, "crisis keywords detected, returning safety message",
			"question_len", len(question))
		return entities.NewChatResponse(uc.crisisMessage, entities.SourceList{uc.crisisSource}), entities.OutcomeCrisis
	}

	// 2. Retrieve context
	retrievalStart := time.Now()
	chunks, err := uc.retrieval.Retrieve(ctx, question)
	uc.recorder.RecordRetrieval(len(chunks), time.Since(retrievalStart), err)
	if err != nil {
		uc.logger.ErrorContext(ctx, "retrieval failed, returning apology", "error", err)
		return entities.NewChatResponse(uc.retrievalFailMsg, nil), entities.OutcomeRetrievalFailed
	}
	uc.logger.DebugContext(ctx, "retrieved chunks", "count", len(chunks))

	// 3. Assemble context and sources
	block, sources := AssembleContext(chunks, uc.prompts.ExcerptLabel())

	// 4. Build prompt
	prompt := uc.prompts.Build(block, question)

	// 5. Invoke completion
	completionStart := time.Now()
	completion := uc.invoker.Invoke(ctx, prompt)
	uc.recorder.RecordCompletion(completion.Status, time.Since(completionStart))

	// 6. Package response; sources survive a degraded completion
	return entities.NewChatResponse(completion.Text, sources), uc.completionOutcome(ctx, completion)
}

func (uc *ChatUseCase) completionOutcome(ctx context.Context, c entities.Completion) entities.Outcome {
	switch c.Status {
	case entities.CompletionFailed:
		uc.logger.ErrorContext(ctx, "completion failed, returning degraded message", "error", c.Cause)
		return entities.OutcomeCompletionFailed
	case entities.CompletionEmpty:
		uc.logger.WarnContext(ctx, "completion returned empty text")
		return entities.OutcomeCompletionEmpty
	default:
		return entities.OutcomeAnswered
	}
}

// TopK returns the result-count limit sent to the retrieval backend.
func (uc *ChatUseCase) TopK() int { return uc.retrieval.TopK() }

type nopRecorder struct{}

func (nopRecorder) RecordChat(entities.Outcome, time.Duration) {}
func (nopRecorder) RecordRetrieval(int, time.Duration, error) {}
func (nopRecorder) RecordCompletion(entities.CompletionStatus, time.Duration) {}
