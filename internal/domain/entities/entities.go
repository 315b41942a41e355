// Package entities contains core business entities.
// These are the enterprise business rules - pure domain objects with no external dependencies.
package entities

// ChatRequest is a single user question entering the pipeline.
type ChatRequest struct {
	Question string `json:"question" binding:"required,notblank"`
}

// RetrievedChunk is a ranked unit of reference text returned by the retrieval backend.
// Rank is implicit: the position in the returned slice.
type RetrievedChunk struct {
	Text   string  `json:"text"`
	Source *string `json:"source"`
}

// SourceName returns the chunk provenance, or "" when the backend sent none.
func (c RetrievedChunk) SourceName() string {
	if c.Source == nil {
		return ""
	}
	return *c.Source
}

// HasSource reports whether the chunk carries a non-null source.
func (c RetrievedChunk) HasSource() bool {
	return c.Source != nil
}

// ContextBlock is the labeled concatenation of chunk texts fed to the prompt.
type ContextBlock string

// SourceList is an ordered set of source identifiers, first-seen order.
type SourceList []string

// PromptPair is the instruction pair sent to the LLM backend.
type PromptPair struct {
	SystemInstruction string
	UserMessage       string
}

// CompletionStatus tells how a completion call ended.
type CompletionStatus string

const (
	CompletionOK     CompletionStatus = "ok"
	CompletionFailed CompletionStatus = "failed"
	CompletionEmpty  CompletionStatus = "empty"
)

// Completion is the invoker result. Text always holds something
// presentable to the user, including the fallback message on degradation.
// Cause is the backend error behind a failed status, kept for logging.
type Completion struct {
	Text   string
	Status CompletionStatus
	Cause  error
}

// Degraded reports whether Text is a substituted message.
func (c Completion) Degraded() bool {
	return c.Status != CompletionOK
}

// Outcome names the pipeline branch that produced a ChatResponse.
type Outcome string

const (
	OutcomeAnswered         Outcome = "answered"
	OutcomeCrisis           Outcome = "crisis"
	OutcomeRetrievalFailed  Outcome = "retrieval_failed"
	OutcomeCompletionFailed Outcome = "completion_failed"
	OutcomeCompletionEmpty  Outcome = "completion_empty"
)

// ChatResponse is the only externally visible output of the pipeline.
type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// NewChatResponse builds a response; a nil source list is normalised to empty
// so it serialises as [] rather than null.
func NewChatResponse(answer string, sources SourceList) *ChatResponse {
	out := make([]string, len(sources))
	copy(out, sources)
	return &ChatResponse{Answer: answer, Sources: out}
}
