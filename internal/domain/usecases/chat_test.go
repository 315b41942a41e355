package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
)

// mockRetriever implements ports.Retriever for testing
type mockRetriever struct {
	mu       sync.Mutex
	chunks   []entities.RetrievedChunk
	err      error
	block    bool
	calls    int
	lastQ    string
	lastTopK int
}

func (m *mockRetriever) Retrieve(ctx context.Context, query string, topK int) ([]entities.RetrievedChunk, error) {
	m.mu.Lock()
	m.calls++
	m.lastQ = query
	m.lastTopK = topK
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.chunks, m.err
}

func (m *mockRetriever) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockCompleter implements ports.Completer for testing
type mockCompleter struct {
	mu         sync.Mutex
	response   string
	err        error
	block      bool
	calls      int
	lastPrompt entities.PromptPair
}

func (m *mockCompleter) Complete(ctx context.Context, prompt entities.PromptPair) (string, error) {
	m.mu.Lock()
	m.calls++
	m.lastPrompt = prompt
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.response, m.err
}

func (m *mockCompleter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockRecorder implements ports.OutcomeRecorder for testing
type mockRecorder struct {
	mu          sync.Mutex
	outcomes    []entities.Outcome
	retrievals  []error
	completions []entities.CompletionStatus
}

func (m *mockRecorder) RecordChat(outcome entities.Outcome, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, outcome)
}

func (m *mockRecorder) RecordRetrieval(_ int, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrievals = append(m.retrievals, err)
}

func (m *mockRecorder) RecordCompletion(status entities.CompletionStatus, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completions = append(m.completions, status)
}

func src(s string) *string { return &s }

func newTestUseCase(r *mockRetriever, c *mockCompleter, rec *mockRecorder) *ChatUseCase {
	settings := DefaultSettings()
	settings.RetrievalTimeout = 200 * time.Millisecond
	settings.CompletionTimeout = 200 * time.Millisecond
	if rec == nil {
		return NewChatUseCase(r, c, settings, nil, nil)
	}
	return NewChatUseCase(r, c, settings, rec, nil)
}

func TestChatUseCase_CrisisShortCircuit(t *testing.T) {
	r := &mockRetriever{}
	c := &mockCompleter{response: "should not be used"}
	rec := &mockRecorder{}
	uc := newTestUseCase(r, c, rec)

	resp, outcome := uc.Chat(context.Background(), &entities.ChatRequest{Question: "je veux mourir"})

	assert.Equal(t, entities.OutcomeCrisis, outcome)
	assert.Equal(t, DefaultCrisisMessage, resp.Answer)
	assert.Equal(t, []string{"CRISIS_DETECTION"}, resp.Sources)
	assert.Zero(t, r.callCount(), "retrieval must not be called")
	assert.Zero(t, c.callCount(), "completion must not be called")
	assert.Equal(t, []entities.Outcome{entities.OutcomeCrisis}, rec.outcomes)
	assert.Empty(t, rec.retrievals)
}

func TestChatUseCase_CrisisAnyCase(t *testing.T) {
	for _, q := range []string{"JE VEUX MOURIR", "Parfois j'ai Envie De Mourir.", "penser au SUICIDE"} {
		t.Run(q, func(t *testing.T) {
			r := &mockRetriever{}
			c := &mockCompleter{}
			uc := newTestUseCase(r, c, nil)

			resp, outcome := uc.Chat(context.Background(), &entities.ChatRequest{Question: q})

			assert.Equal(t, entities.OutcomeCrisis, outcome)
			assert.Equal(t, []string{DefaultCrisisSource}, resp.Sources)
			assert.Zero(t, r.callCount())
			assert.Zero(t, c.callCount())
		})
	}
}

func TestChatUseCase_AnswersWithSources(t *testing.T) {
	r := &mockRetriever{chunks: []entities.RetrievedChunk{
		{Text: "La respiration lente aide.", Source: src("doc1")},
		{Text: "Marcher réduit le stress.", Source: src("doc2")},
	}}
	c := &mockCompleter{response: "Respirez profondément..."}
	rec := &mockRecorder{}
	uc := newTestUseCase(r, c, rec)

	resp, outcome := uc.Chat(context.Background(), &entities.ChatRequest{Question: "Comment gérer le stress?"})

	assert.Equal(t, entities.OutcomeAnswered, outcome)
	assert.Equal(t, "Respirez profondément...", resp.Answer)
	assert.Equal(t, []string{"doc1", "doc2"}, resp.Sources)

	assert.Equal(t, 1, r.callCount())
	assert.Equal(t, "Comment gérer le stress?", r.lastQ)
	assert.Equal(t, DefaultTopK, r.lastTopK)

	assert.Equal(t, DefaultSystemInstruction, c.lastPrompt.SystemInstruction)
	assert.Contains(t, c.lastPrompt.UserMessage, "--- Excerpt 1 ---\nLa respiration lente aide.")
	assert.Contains(t, c.lastPrompt.UserMessage, "--- Excerpt 2 ---\nMarcher réduit le stress.")
	assert.Contains(t, c.lastPrompt.UserMessage, "Comment gérer le stress?")

	assert.Equal(t, []entities.CompletionStatus{entities.CompletionOK}, rec.completions)
	assert.Equal(t, []error{nil}, rec.retrievals)
}

func TestChatUseCase_EmptyRetrievalStillCompletes(t *testing.T) {
	r := &mockRetriever{chunks: nil}
	c := &mockCompleter{response: "Je suis là pour vous."}
	uc := newTestUseCase(r, c, nil)

	resp, outcome := uc.Chat(context.Background(), &entities.ChatRequest{Question: "bonjour"})

	assert.Equal(t, entities.OutcomeAnswered, outcome)
	assert.Equal(t, "Je suis là pour vous.", resp.Answer)
	assert.NotNil(t, resp.Sources)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, 1, c.callCount())
	assert.Contains(t, c.lastPrompt.UserMessage, DefaultContextPreamble+"\n\n\n\n"+DefaultQuestionLabel+" bonjour")
}

func TestChatUseCase_RetrievalTimeoutReturnsApology(t *testing.T) {
	r := &mockRetriever{block: true}
	c := &mockCompleter{response: "unused"}
	rec := &mockRecorder{}
	uc := newTestUseCase(r, c, rec)

	resp, outcome := uc.Chat(context.Background(), &entities.ChatRequest{Question: "je suis anxieux"})

	assert.Equal(t, entities.OutcomeRetrievalFailed, outcome)
	assert.Equal(t, DefaultRetrievalFailureMessage, resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.Zero(t, c.callCount())

	require.Len(t, rec.retrievals, 1)
	var re *RetrievalError
	require.True(t, errors.As(rec.retrievals[0], &re))
	assert.Equal(t, RetrievalTimeout, re.Kind)
}

func TestChatUseCase_RetrievalErrorReturnsApology(t *testing.T) {
	r := &mockRetriever{err: errors.New("connection refused")}
	c := &mockCompleter{}
	uc := newTestUseCase(r, c, nil)

	resp, outcome := uc.Chat(context.Background(), &entities.ChatRequest{Question: "insomnie"})

	assert.Equal(t, entities.OutcomeRetrievalFailed, outcome)
	assert.Equal(t, entities.NewChatResponse(DefaultRetrievalFailureMessage, nil), resp)
	assert.Zero(t, c.callCount())
}

func TestChatUseCase_CompletionFailureKeepsSources(t *testing.T) {
	r := &mockRetriever{chunks: []entities.RetrievedChunk{
		{Text: "A", Source: src("x")},
		{Text: "B", Source: src("x")},
		{Text: "C", Source: src("y")},
	}}
	c := &mockCompleter{err: errors.New("ollama down")}
	uc := newTestUseCase(r, c, nil)

	resp, outcome := uc.Chat(context.Background(), &entities.ChatRequest{Question: "fatigue"})

	assert.Equal(t, entities.OutcomeCompletionFailed, outcome)
	assert.Equal(t, DefaultCompletionFailureMessage, resp.Answer)
	assert.Equal(t, []string{"x", "y"}, resp.Sources)
}

func TestChatUseCase_CompletionTimeoutKeepsSources(t *testing.T) {
	r := &mockRetriever{chunks: []entities.RetrievedChunk{{Text: "A", Source: src("guide.pdf")}}}
	c := &mockCompleter{block: true}
	uc := newTestUseCase(r, c, nil)

	resp, outcome := uc.Chat(context.Background(), &entities.ChatRequest{Question: "tristesse"})

	assert.Equal(t, entities.OutcomeCompletionFailed, outcome)
	assert.Equal(t, DefaultCompletionFailureMessage, resp.Answer)
	assert.Equal(t, []string{"guide.pdf"}, resp.Sources)
}

func TestChatUseCase_EmptyCompletion(t *testing.T) {
	r := &mockRetriever{chunks: []entities.RetrievedChunk{{Text: "A", Source: src("doc1")}}}
	c := &mockCompleter{response: "   \n"}
	uc := newTestUseCase(r, c, nil)

	resp, outcome := uc.Chat(context.Background(), &entities.ChatRequest{Question: "colère"})

	assert.Equal(t, entities.OutcomeCompletionEmpty, outcome)
	assert.Equal(t, DefaultCompletionEmptyMessage, resp.Answer)
	assert.Equal(t, []string{"doc1"}, resp.Sources)
}

func TestChatUseCase_CustomSettings(t *testing.T) {
	r := &mockRetriever{}
	c := &mockCompleter{response: "ok"}
	settings := Settings{
		TopK:           3,
		CrisisKeywords: []string{"hopeless"},
		CrisisMessage:  "call 988",
		CrisisSource:   "SAFETY",
	}
	uc := NewChatUseCase(r, c, settings, nil, nil)

	resp, outcome := uc.Chat(context.Background(), &entities.ChatRequest{Question: "I feel Hopeless"})
	assert.Equal(t, entities.OutcomeCrisis, outcome)
	assert.Equal(t, "call 988", resp.Answer)
	assert.Equal(t, []string{"SAFETY"}, resp.Sources)

	_, outcome = uc.Chat(context.Background(), &entities.ChatRequest{Question: "je veux mourir"})
	assert.Equal(t, entities.OutcomeAnswered, outcome, "configured list replaces the default")
	assert.Equal(t, 3, r.lastTopK)
	assert.Equal(t, 3, uc.TopK())
}

func TestChatUseCase_ConcurrentRequestsAreIndependent(t *testing.T) {
	r := &mockRetriever{chunks: []entities.RetrievedChunk{{Text: "A", Source: src("doc1")}}}
	c := &mockCompleter{response: "réponse"}
	uc := newTestUseCase(r, c, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, outcome := uc.Chat(context.Background(), &entities.ChatRequest{Question: "stress"})
			assert.Equal(t, entities.OutcomeAnswered, outcome)
			assert.Equal(t, []string{"doc1"}, resp.Sources)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, r.callCount())
	assert.Equal(t, 20, c.callCount())
}
