package usecases

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
)

func TestAssembleContext_DedupAndOrder(t *testing.T) {
	chunks := []entities.RetrievedChunk{
		{Text: "A", Source: src("x")},
		{Text: "B", Source: src("x")},
		{Text: "C", Source: src("y")},
	}

	block, sources := AssembleContext(chunks, "")

	assert.Equal(t, entities.SourceList{"x", "y"}, sources)
	assert.Equal(t,
		entities.ContextBlock("--- Excerpt 1 ---\nA\n\n--- Excerpt 2 ---\nB\n\n--- Excerpt 3 ---\nC\n\n"),
		block)
}

func TestAssembleContext_Idempotent(t *testing.T) {
	chunks := []entities.RetrievedChunk{
		{Text: "first", Source: src("b")},
		{Text: "second", Source: src("a")},
	}

	block1, sources1 := AssembleContext(chunks, "Extrait")
	block2, sources2 := AssembleContext(chunks, "Extrait")

	assert.Equal(t, block1, block2)
	assert.Equal(t, sources1, sources2)
	assert.Equal(t, entities.SourceList{"b", "a"}, sources1)
	assert.True(t, strings.HasPrefix(string(block1), "--- Extrait 1 ---\nfirst"))
}

func TestAssembleContext_MissingFields(t *testing.T) {
	chunks := []entities.RetrievedChunk{
		{Text: "", Source: nil},
		{Text: "has source", Source: src("doc")},
		{Text: "no source"},
	}

	block, sources := AssembleContext(chunks, "")

	assert.Equal(t, entities.SourceList{"doc"}, sources)
	assert.Equal(t, 3, strings.Count(string(block), "--- Excerpt "))
	assert.Contains(t, string(block), "--- Excerpt 1 ---\n\n\n--- Excerpt 2 ---")
}

func TestAssembleContext_Empty(t *testing.T) {
	block, sources := AssembleContext(nil, "")

	assert.Equal(t, entities.ContextBlock(""), block)
	assert.NotNil(t, sources)
	assert.Empty(t, sources)
}
