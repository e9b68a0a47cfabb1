// Package oracle wraps the external text classifier that supplies the two
// semantic judgments this tool cannot make itself: "is this concept already
// in the corpus?" and "summarize this concept from context". Callers treat
// its answers as untrusted text; grounding them is their job.
package oracle

import (
	"context"

	"github.com/gweinger/zettelkasten/internal/apperr"
)

// Decision is the structured answer to a duplicate check.
type Decision struct {
	IsDuplicate   bool   `json:"is_duplicate"`
	MatchingTitle string `json:"matching_title"`
}

// Classifier is the interface the resolver and stub filler consume.
type Classifier interface {
	// ClassifyDuplicate judges whether a candidate concept already exists
	// in the corpus, given the human-readable concept index.
	ClassifyDuplicate(ctx context.Context, name, description, corpusIndex string) (Decision, error)

	// Summarize produces a short description of a topic from the supplied
	// context text.
	Summarize(ctx context.Context, topic, contextText string) (string, error)
}

// Disabled is the no-oracle mode: every call reports unavailability.
type Disabled struct{}

func (Disabled) ClassifyDuplicate(context.Context, string, string, string) (Decision, error) {
	return Decision{}, apperr.ErrOracleUnavailable
}

func (Disabled) Summarize(context.Context, string, string) (string, error) {
	return "", apperr.ErrOracleUnavailable
}
