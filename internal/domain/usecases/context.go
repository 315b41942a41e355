package usecases

import (
	"fmt"
	"strings"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
)

// DefaultExcerptLabel heads each chunk section of the context block.
const DefaultExcerptLabel = "Excerpt"

// AssembleContext turns ranked chunks into a labeled context block and the
// deduplicated source list. Pure: same input, same output.
func AssembleContext(chunks []entities.RetrievedChunk, label string) (entities.ContextBlock, entities.SourceList) {
	return buildContextBlock(chunks, label), extractSources(chunks)
}

// buildContextBlock emits "--- <label> i ---" (1-indexed), the text and a blank line per chunk.
func buildContextBlock(chunks []entities.RetrievedChunk, label string) entities.ContextBlock {
	if label == "" {
		label = DefaultExcerptLabel
	}
	var sb strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&sb, "--- %s %d ---\n", label, i+1)
		sb.WriteString(c.Text)
		sb.WriteString("\n\n")
	}
	return entities.ContextBlock(sb.String())
}

// extractSources keeps the first occurrence of each non-null source.
func extractSources(chunks []entities.RetrievedChunk) entities.SourceList {
	seen := make(map[string]struct{}, len(chunks))
	sources := entities.SourceList{}
	for _, c := range chunks {
		if !c.HasSource() {
			continue
		}
		s := c.SourceName()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		sources = append(sources, s)
	}
	return sources
}
