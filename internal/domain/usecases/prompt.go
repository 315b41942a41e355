package usecases

import (
	"strings"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
)

// DefaultSystemInstruction is the therapeutic persona directive.
const DefaultSystemInstruction = `Tu es un thérapeute bienveillant et empathique. Réponds en français de manière concise et structurée.
Structure ta réponse en 4 phrases maximum :
1. Une phrase d'empathie pour reconnaître les émotions exprimées
2. Deux actions concrètes et réalisables immédiatement
3. Une recommandation utile pour aller plus loin

Si la situation contient un risque pour la personne, conseille immédiatement d'appeler les secours ou une ligne d'écoute.
Reste toujours bienveillant, sans jugement, et orienté vers des solutions pratiques.
`

const (
	DefaultContextPreamble    = "Contexte issu de documents thérapeutiques :"
	DefaultQuestionLabel      = "Question de l'utilisateur :"
	DefaultClosingInstruction = "Réponds en te basant sur le contexte fourni et ton expertise thérapeutique."
)

// PromptTemplates holds the fixed texts merged into every prompt.
type PromptTemplates struct {
	SystemInstruction  string
	ContextPreamble    string
	QuestionLabel      string
	ClosingInstruction string
	ExcerptLabel       string
}

// DefaultPromptTemplates returns the built-in French templates.
func DefaultPromptTemplates() PromptTemplates {
	return PromptTemplates{
		SystemInstruction:  DefaultSystemInstruction,
		ContextPreamble:    DefaultContextPreamble,
		QuestionLabel:      DefaultQuestionLabel,
		ClosingInstruction: DefaultClosingInstruction,
		ExcerptLabel:       DefaultExcerptLabel,
	}
}

// withDefaults fills blank fields from DefaultPromptTemplates.
func (t PromptTemplates) withDefaults() PromptTemplates {
	d := DefaultPromptTemplates()
	if t.SystemInstruction == "" {
		t.SystemInstruction = d.SystemInstruction
	}
	if t.ContextPreamble == "" {
		t.ContextPreamble = d.ContextPreamble
	}
	if t.QuestionLabel == "" {
		t.QuestionLabel = d.QuestionLabel
	}
	if t.ClosingInstruction == "" {
		t.ClosingInstruction = d.ClosingInstruction
	}
	if t.ExcerptLabel == "" {
		t.ExcerptLabel = d.ExcerptLabel
	}
	return t
}

// PromptBuilder composes the PromptPair. Pure string composition: an empty
// context block still yields a well-formed prompt.
type PromptBuilder struct {
	templates PromptTemplates
}

// NewPromptBuilder creates a builder; blank template fields use the defaults.
func NewPromptBuilder(templates PromptTemplates) *PromptBuilder {
	return &PromptBuilder{templates: templates.withDefaults()}
}

// ExcerptLabel is the label used by the context assembler.
func (b *PromptBuilder) ExcerptLabel() string { return b.templates.ExcerptLabel }

// Build merges the system instruction with the context block and question.
func (b *PromptBuilder) Build(block entities.ContextBlock, question string) entities.PromptPair {
	var sb strings.Builder
	sb.WriteString(b.templates.ContextPreamble)
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimSpace(string(block)))
	sb.WriteString("\n\n")
	sb.WriteString(b.templates.QuestionLabel)
	sb.WriteString(" ")
	sb.WriteString(question)
	sb.WriteString("\n\n")
	sb.WriteString(b.templates.ClosingInstruction)

	return entities.PromptPair{
		SystemInstruction: b.templates.SystemInstruction,
		UserMessage:       sb.String(),
	}
}
