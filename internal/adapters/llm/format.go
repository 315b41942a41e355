package llm

import (
	"fmt"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
)

// PromptFormat selects how a PromptPair is rendered for a raw-prompt backend.
type PromptFormat string

const (
	// FormatLlama3 wraps the pair in the Llama 3 chat template tokens.
	FormatLlama3 PromptFormat = "llama3"
	// FormatPlain joins system and user text with a blank line.
	FormatPlain PromptFormat = "plain"
)

const llama3Template = "<|begin_of_text|><|start_header_id|>system<|end_header_id|>\n\n%s<|eot_id|>" +
	"<|start_header_id|>user<|end_header_id|>\n\n%s<|eot_id|>" +
	"<|start_header_id|>assistant<|end_header_id|>\n"

// ParsePromptFormat validates a configured format name.
func ParsePromptFormat(s string) (PromptFormat, error) {
	switch PromptFormat(s) {
	case "", FormatLlama3:
		return FormatLlama3, nil
	case FormatPlain:
		return FormatPlain, nil
	default:
		return "", fmt.Errorf("unknown prompt format %q", s)
	}
}

// Render produces the single prompt string sent to the backend.
func (f PromptFormat) Render(p entities.PromptPair) string {
	if f == FormatPlain {
		return p.SystemInstruction + "\n\n" + p.UserMessage
	}
	return fmt.Sprintf(llama3Template, p.SystemInstruction, p.UserMessage)
}
