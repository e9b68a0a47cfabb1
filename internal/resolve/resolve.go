// Package resolve decides whether an incoming concept is new or a
// duplicate of an existing note. The semantic judgment comes from the
// classifier oracle; the resolver's own job is grounding that judgment
// against the filesystem and failing open when anything goes wrong.
// Creating a near-duplicate note is recoverable; silently burying new
// content inside the wrong note is not.
package resolve

import (
	"context"
	"log/slog"

	"github.com/gweinger/zettelkasten/internal/oracle"
	"github.com/gweinger/zettelkasten/internal/scan"
)

// Decision is the outcome for one candidate concept.
type Decision struct {
	IsNew bool

	// MatchedTitle and TargetPath are set only when IsNew is false.
	// TargetPath is the vault-relative path of the existing note.
	MatchedTitle string
	TargetPath   string
}

// Resolver runs duplicate checks for candidate concepts.
type Resolver struct {
	classifier oracle.Classifier
	scanner    *scan.Scanner
	log        *slog.Logger
}

func New(classifier oracle.Classifier, scanner *scan.Scanner, log *slog.Logger) *Resolver {
	return &Resolver{classifier: classifier, scanner: scanner, log: log}
}

// Resolve classifies one candidate against the corpus index. It never
// returns an error: oracle failures, unparseable answers, and title
// claims that do not ground to a real file all degrade to "new".
func (r *Resolver) Resolve(ctx context.Context, name, description, corpusIndex string) Decision {
	d, err := r.classifier.ClassifyDuplicate(ctx, name, description, corpusIndex)
	if err != nil {
		r.log.Warn("duplicate check failed, treating concept as new",
			slog.String("concept", name),
			slog.String("error", err.Error()))
		return Decision{IsNew: true}
	}
	if !d.IsDuplicate || d.MatchingTitle == "" {
		r.log.Debug("concept classified as new", slog.String("concept", name))
		return Decision{IsNew: true}
	}

	// The claimed title is untrusted text; it must resolve to a real
	// note before we commit to merging into it.
	ix, err := r.scanner.TitleIndex()
	if err != nil {
		r.log.Warn("corpus scan failed, treating concept as new",
			slog.String("concept", name),
			slog.String("error", err.Error()))
		return Decision{IsNew: true}
	}
	entry, ok := ix.Resolve(d.MatchingTitle)
	if !ok {
		r.log.Warn("claimed match does not exist on disk, treating concept as new",
			slog.String("concept", name),
			slog.String("claimed_title", d.MatchingTitle))
		return Decision{IsNew: true}
	}

	r.log.Info("concept resolved to existing note",
		slog.String("concept", name),
		slog.String("matched_title", entry.Title),
		slog.String("target", entry.Path))
	return Decision{MatchedTitle: entry.Title, TargetPath: entry.Path}
}
