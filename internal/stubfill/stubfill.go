// Package stubfill turns empty stub notes into real ones. Context comes
// from the notes that link to the stub; the prose itself comes from the
// classifier oracle. A fill either fully succeeds or leaves the file
// untouched, so a flaky oracle can never write a garbled note.
package stubfill

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gweinger/zettelkasten/internal/apperr"
	"github.com/gweinger/zettelkasten/internal/note"
	"github.com/gweinger/zettelkasten/internal/oracle"
	"github.com/gweinger/zettelkasten/internal/scan"
	"github.com/gweinger/zettelkasten/internal/vault"
)

const (
	maxContextNotes = 3
	maxExcerptChars = 500
)

// Filler fills stub notes in place.
type Filler struct {
	vault      vault.Provider
	scanner    *scan.Scanner
	classifier oracle.Classifier
	log        *slog.Logger
	now        func() time.Time
}

func New(v vault.Provider, s *scan.Scanner, c oracle.Classifier, log *slog.Logger) *Filler {
	return &Filler{vault: v, scanner: s, classifier: c, log: log, now: time.Now}
}

// Fill generates content for one stub and writes it back. Any failure
// (scan, oracle, write) aborts the whole fill for this stub.
func (f *Filler) Fill(ctx context.Context, stub scan.Stub) error {
	backlinks, err := f.scanner.Backlinks(stub.Title)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrStubFill, stub.Title, err)
	}

	summary, err := f.classifier.Summarize(ctx, stub.Title, f.contextText(backlinks))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrStubFill, stub.Title, err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fmt.Errorf("%w: %s: empty summary", apperr.ErrStubFill, stub.Title)
	}

	data, err := f.vault.Read(stub.Path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrStubFill, stub.Title, err)
	}

	n := note.Parse(data)
	if n.RawFrontmatter == "" {
		// Byte-empty file: build frontmatter from scratch.
		n.Meta = note.Meta{
			Title:   stub.Title,
			Created: f.now(),
			Tags:    []string{"concept", "permanent-note", "orphan-stub"},
		}
	}
	n.Description = strings.Split(summary, "\n")
	for _, bl := range backlinks {
		n.Related = append(n.Related, fmt.Sprintf("- [[%s|%s]]", bl.Path, bl.Title))
	}

	if err := f.vault.Write(stub.Path, n.Render()); err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrStubFill, stub.Title, err)
	}
	f.log.Info("stub filled",
		slog.String("path", stub.Path),
		slog.Int("backlinks", len(backlinks)))
	return nil
}

// FillAll fills every stub in the corpus. Individual failures are logged
// and skipped; the count of successful fills is returned along with the
// number of failures.
func (f *Filler) FillAll(ctx context.Context) (filled, failed int, err error) {
	stubs, err := f.scanner.FindStubs()
	if err != nil {
		return 0, 0, err
	}
	for _, stub := range stubs {
		if err := f.Fill(ctx, stub); err != nil {
			f.log.Warn("stub fill failed, skipping",
				slog.String("path", stub.Path),
				slog.String("error", err.Error()))
			failed++
			continue
		}
		filled++
	}
	return filled, failed, nil
}

// contextText builds the prompt context: the list of referencing note
// titles plus short excerpts from the first few of them.
func (f *Filler) contextText(backlinks []scan.Backlink) string {
	var b strings.Builder
	b.WriteString("This concept is referenced in these notes:\n")
	for _, bl := range backlinks {
		b.WriteString("- " + bl.Title + "\n")
	}

	var excerpts []string
	for _, bl := range backlinks {
		if len(excerpts) == maxContextNotes {
			break
		}
		data, err := f.vault.Read(bl.Path)
		if err != nil {
			continue
		}
		if ex := firstParagraph(note.Parse(data)); ex != "" {
			excerpts = append(excerpts, ex)
		}
	}
	if len(excerpts) > 0 {
		b.WriteString("\nContext from referencing notes:\n")
		for _, ex := range excerpts {
			b.WriteString("\n" + ex + "\n")
		}
	}
	return b.String()
}

// firstParagraph returns the note's opening description paragraph,
// truncated for token budget.
func firstParagraph(n *note.ParsedNote) string {
	text := strings.Join(n.Description, "\n")
	if i := strings.Index(text, "\n\n"); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	if len(text) > maxExcerptChars {
		text = text[:maxExcerptChars]
	}
	return text
}
