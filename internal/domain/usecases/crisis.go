// Package usecases contains application business rules.
// Clean Architecture: Usecases orchestrate entities and depend on port interfaces.
// They contain NO framework code, NO external dependencies - just pure business logic.
package usecases

import "strings"

// DefaultCrisisKeywords is the self-harm indicator list used when none is configured.
var DefaultCrisisKeywords = []string{
	"suicide", "suicider", "me tuer", "me faire du mal",
	"je veux mourir", "envie de mourir", "mettre fin",
	"en finir", "me suicider",
}

const (
	// DefaultCrisisMessage points the user to emergency resources.
	DefaultCrisisMessage = "⚠️ Si vous êtes en danger ou envisagez de vous faire du mal, " +
		"contactez immédiatement les services d'urgence (15 en France, 112 en Europe) " +
		"ou une ligne d'écoute comme SOS Amitié (09 72 39 40 50). " +
		"Votre vie est précieuse et il existe des personnes prêtes à vous aider."

	// DefaultCrisisSource tags crisis responses so callers can tell them apart.
	DefaultCrisisSource = "CRISIS_DETECTION"
)

// CrisisFilter flags questions containing a self-harm indicator phrase.
// Matching is a plain substring test on the lower-cased input: no
// tokenization, no stemming. Overmatching is accepted.
type CrisisFilter struct {
	keywords []string
}

// NewCrisisFilter lower-cases and keeps the non-blank keywords.
// A blank keyword would match every input, so it is dropped.
func NewCrisisFilter(keywords []string) *CrisisFilter {
	kept := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kept = append(kept, k)
		}
	}
	return &CrisisFilter{keywords: kept}
}

// Matches reports whether text contains any keyword. Empty text never matches.
func (f *CrisisFilter) Matches(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, k := range f.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// Keywords returns a copy of the normalised keyword list.
func (f *CrisisFilter) Keywords() []string {
	out := make([]string, len(f.keywords))
	copy(out, f.keywords)
	return out
}
