// Package review coordinates the reconciliation workflow for the API, MCP,
// and CLI surfaces: inspecting staging, approving notes, filling stubs, and
// rebuilding indexes. It composes the pure engine packages and owns none of
// the file-format logic itself.
package review

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/gweinger/zettelkasten/internal/apperr"
	"github.com/gweinger/zettelkasten/internal/checksum"
	"github.com/gweinger/zettelkasten/internal/indexgen"
	"github.com/gweinger/zettelkasten/internal/note"
	"github.com/gweinger/zettelkasten/internal/oracle"
	"github.com/gweinger/zettelkasten/internal/resolve"
	"github.com/gweinger/zettelkasten/internal/scan"
	"github.com/gweinger/zettelkasten/internal/stubfill"
	"github.com/gweinger/zettelkasten/internal/vault"
	"github.com/gweinger/zettelkasten/internal/writer"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	IsStub    bool      `json:"is_stub"`
	MergeInto string    `json:"merge_into,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Stats summarizes the vault for dashboards.
type Stats struct {
	Notes   int `json:"notes"`
	Stubs   int `json:"stubs"`
	Orphans int `json:"orphans"`
	Staged  int `json:"staged"`
}

// Service wires the engine packages together.
type Service struct {
	vault    vault.Provider
	scanner  *scan.Scanner
	writer   *writer.Writer
	resolver *resolve.Resolver
	filler   *stubfill.Filler
	gen      *indexgen.Generator
	log      *slog.Logger
}

// NewService builds the review service on top of a vault. classifier may
// be oracle.Disabled{} when no API key is configured.
func NewService(v vault.Provider, classifier oracle.Classifier, log *slog.Logger) *Service {
	scanner := scan.New(v)
	gen := indexgen.New(v, log)
	return &Service{
		vault:    v,
		scanner:  scanner,
		writer:   writer.New(v, log, gen.Rebuild),
		resolver: resolve.New(classifier, scanner, log),
		filler:   stubfill.New(v, scanner, classifier, log),
		gen:      gen,
		log:      log,
	}
}

// Stats counts notes, stubs, orphans, and staged files.
func (s *Service) Stats(_ context.Context) (Stats, error) {
	ix, err := s.scanner.TitleIndex()
	if err != nil {
		return Stats{}, err
	}
	stubs, err := s.scanner.FindStubs()
	if err != nil {
		return Stats{}, err
	}
	orphans, err := s.scanner.Orphans()
	if err != nil {
		return Stats{}, err
	}
	staged, err := s.writer.ListStaging()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Notes:   len(ix.Entries()),
		Stubs:   len(stubs),
		Orphans: len(orphans),
		Staged:  len(staged),
	}, nil
}

// GetNote reads and parses a single note.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	data, err := s.vault.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	n := note.Parse(data)
	tags := n.Meta.Tags
	if tags == nil {
		tags = []string{}
	}
	return &NoteDetail{
		Path:      path,
		Title:     n.DisplayTitle(),
		Content:   string(data),
		Checksum:  checksum.Sum(data),
		Tags:      tags,
		IsStub:    n.IsStub(),
		MergeInto: n.Meta.MergeInto,
		UpdatedAt: time.Now(),
	}, nil
}

// ListStaging returns every note awaiting review.
func (s *Service) ListStaging(_ context.Context) ([]writer.StagedNote, error) {
	return s.writer.ListStaging()
}

// Stage resolves each incoming note against the corpus, embeds the merge
// decision, and writes it to staging. Returns the staged paths.
func (s *Service) Stage(ctx context.Context, notes []*note.ParsedNote) ([]string, error) {
	corpusIndex, err := s.gen.CorpusIndexText()
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		title := n.DisplayTitle()
		d := s.resolver.Resolve(ctx, title, firstLine(n.Description), corpusIndex)
		n.Meta.HasIsNew = true
		n.Meta.IsNew = d.IsNew
		if !d.IsNew {
			// merge_into stores the bare filename; targets live flat in
			// permanent-notes.
			n.Meta.MergeInto = path.Base(d.TargetPath)
		}
	}
	return s.writer.Stage(notes)
}

// Approve promotes one staged note.
func (s *Service) Approve(_ context.Context, path string) (writer.Outcome, error) {
	return s.writer.Approve(path)
}

// ApproveAll promotes every staged note, continuing past per-note
// failures.
func (s *Service) ApproveAll(_ context.Context) (map[writer.Outcome]int, int, error) {
	return s.writer.ApproveAll()
}

// Discard drops a staged note without applying it.
func (s *Service) Discard(_ context.Context, path string) error {
	return s.writer.Discard(path)
}

// Stubs lists stub notes.
func (s *Service) Stubs(_ context.Context) ([]scan.Stub, error) {
	return s.scanner.FindStubs()
}

// Orphans lists linked concepts with no note file.
func (s *Service) Orphans(_ context.Context) ([]scan.Orphan, error) {
	return s.scanner.Orphans()
}

// Backlinks lists the notes linking to a concept.
func (s *Service) Backlinks(_ context.Context, name string) ([]scan.Backlink, error) {
	return s.scanner.Backlinks(name)
}

// FillStub fills a single stub identified by its vault path.
func (s *Service) FillStub(ctx context.Context, path string) error {
	stubs, err := s.scanner.FindStubs()
	if err != nil {
		return err
	}
	for _, st := range stubs {
		if st.Path == path {
			return s.filler.Fill(ctx, st)
		}
	}
	return apperr.ErrNotFound
}

// FillAllStubs fills every stub, skipping individual failures.
func (s *Service) FillAllStubs(ctx context.Context) (filled, failed int, err error) {
	return s.filler.FillAll(ctx)
}

// RebuildIndex regenerates all index documents.
func (s *Service) RebuildIndex(_ context.Context) error {
	return s.gen.Rebuild()
}

// firstLine returns the first non-empty description line, used as the
// candidate description for duplicate checks.
func firstLine(desc []string) string {
	for _, l := range desc {
		if l != "" {
			return l
		}
	}
	return ""
}
