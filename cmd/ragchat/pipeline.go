package main

import (
	"fmt"
	"log/slog"

	"github.com/0xcro3dile/ragchat-go/internal/adapters/llm"
	"github.com/0xcro3dile/ragchat-go/internal/adapters/retrieval"
	"github.com/0xcro3dile/ragchat-go/internal/config"
	"github.com/0xcro3dile/ragchat-go/internal/domain/ports"
	"github.com/0xcro3dile/ragchat-go/internal/domain/usecases"
	ragchathttp "github.com/0xcro3dile/ragchat-go/internal/infrastructure/http"
)

// pipeline is one immutable wiring of adapters and usecase built from a Config.
type pipeline struct {
	chat      *usecases.ChatUseCase
	retriever *retrieval.HTTPRetriever
}

func (p *pipeline) backend() *ragchathttp.Backend {
	return &ragchathttp.Backend{Chat: p.chat, Admin: p.retriever}
}

func buildPipeline(c *config.Config, recorder ports.OutcomeRecorder, log *slog.Logger) (*pipeline, error) {
	completer, err := newCompleter(c.LLM)
	if err != nil {
		return nil, err
	}
	retriever := retrieval.NewHTTPRetriever(c.Retrieval.URL, nil)

	return &pipeline{
		chat:      usecases.NewChatUseCase(retriever, completer, c.PipelineSettings(), recorder, log),
		retriever: retriever,
	}, nil
}

func newCompleter(c config.LLMConfig) (ports.Completer, error) {
	switch c.Backend {
	case config.BackendOllama:
		format, err := llm.ParsePromptFormat(c.PromptFormat)
		if err != nil {
			return nil, err
		}
		return llm.NewOllamaCompleter(c.URL, c.Model, format, nil), nil
	case config.BackendOpenAI:
		return llm.NewOpenAICompleter(c.URL, c.APIKey, c.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm backend %q", c.Backend)
	}
}
