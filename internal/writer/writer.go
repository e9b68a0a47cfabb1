// Package writer owns every mutation of on-disk note files across the
// staging workflow: staging incoming notes, approving them into their
// final location, and discarding them. Parsing and merging are pure
// transforms elsewhere; this package is the only place they touch disk.
package writer

import (
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/gweinger/zettelkasten/internal/apperr"
	"github.com/gweinger/zettelkasten/internal/note"
	"github.com/gweinger/zettelkasten/internal/vault"
)

// Outcome reports what an approval did.
type Outcome int

const (
	OutcomeMoved Outcome = iota
	OutcomeMerged
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMoved:
		return "moved"
	case OutcomeMerged:
		return "merged"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// StagedNote is one file awaiting review.
type StagedNote struct {
	Path      string `json:"path"`
	Title     string `json:"title"`
	MergeInto string `json:"merge_into,omitempty"`
	IsNew     bool   `json:"is_new"`
}

// Writer applies staging and approval mutations to the vault.
type Writer struct {
	vault   vault.Provider
	log     *slog.Logger
	rebuild func() error
	now     func() time.Time
}

// New creates a Writer. rebuild runs after any approval that changed the
// permanent corpus; pass nil to skip index rebuilds.
func New(v vault.Provider, log *slog.Logger, rebuild func() error) *Writer {
	return &Writer{vault: v, log: log, rebuild: rebuild, now: time.Now}
}

// Stage renders each note into the staging area and returns the written
// paths. The subtree is chosen from tags: source notes go to
// staging/sources, everything else to staging/concepts.
func (w *Writer) Stage(notes []*note.ParsedNote) ([]string, error) {
	paths := make([]string, 0, len(notes))
	for _, n := range notes {
		title := n.DisplayTitle()
		if title == "" {
			return paths, fmt.Errorf("writer: cannot stage untitled note")
		}
		created := n.Meta.Created
		if created.IsZero() {
			created = w.now()
		}
		dir := vault.StagingConcepts()
		if n.Meta.HasTag("source") {
			dir = vault.StagingSources()
		}
		target := path.Join(dir, note.Filename(title, created))
		if err := w.vault.Write(target, n.Render()); err != nil {
			return paths, err
		}
		w.log.Info("note staged",
			slog.String("path", target),
			slog.Bool("is_new", n.Meta.IsNew || !n.Meta.HasIsNew))
		paths = append(paths, target)
	}
	return paths, nil
}

// Approve promotes one staged file. A pending merge whose target still
// exists runs the section merger into the target; anything else moves
// the file as-is into its final directory, keeping the filename. A merge
// target deleted between staging and approval falls back to the move
// path rather than erroring.
func (w *Writer) Approve(stagedPath string) (Outcome, error) {
	if !w.vault.Exists(stagedPath) {
		return OutcomeSkipped, nil
	}
	data, err := w.vault.Read(stagedPath)
	if err != nil {
		return OutcomeSkipped, err
	}
	n := note.Parse(data)

	if target, ok := w.mergeTarget(n); ok {
		return w.approveMerge(stagedPath, n, target)
	}
	return w.approveNew(stagedPath, n)
}

// mergeTarget returns the resolvable merge target, if this staged note
// has one.
func (w *Writer) mergeTarget(n *note.ParsedNote) (string, bool) {
	if n.Meta.MergeInto == "" || !n.Meta.HasIsNew || n.Meta.IsNew {
		return "", false
	}
	target := path.Join(vault.PermanentNotesDir, path.Base(n.Meta.MergeInto))
	if !w.vault.Exists(target) {
		w.log.Warn("merge target gone, approving as new note",
			slog.String("target", target))
		return "", false
	}
	return target, true
}

func (w *Writer) approveMerge(stagedPath string, incoming *note.ParsedNote, target string) (Outcome, error) {
	existingData, err := w.vault.Read(target)
	if err != nil {
		return OutcomeSkipped, err
	}
	merged := note.Merge(note.Parse(existingData), incoming)
	if err := w.vault.Write(target, merged.Render()); err != nil {
		return OutcomeSkipped, err
	}
	if err := w.vault.Delete(stagedPath); err != nil {
		return OutcomeSkipped, err
	}
	w.log.Info("note merged",
		slog.String("staged", stagedPath),
		slog.String("target", target))
	return OutcomeMerged, w.runRebuild()
}

func (w *Writer) approveNew(stagedPath string, n *note.ParsedNote) (Outcome, error) {
	final := path.Join(w.finalDir(stagedPath), path.Base(stagedPath))
	if w.vault.Exists(final) {
		return OutcomeSkipped, fmt.Errorf("writer: %s: %w", final, apperr.ErrAlreadyExists)
	}
	n.StripStagingMeta()
	if err := w.vault.Write(final, n.Render()); err != nil {
		return OutcomeSkipped, err
	}
	if err := w.vault.Delete(stagedPath); err != nil {
		return OutcomeSkipped, err
	}
	w.log.Info("note approved",
		slog.String("staged", stagedPath),
		slog.String("final", final))
	return OutcomeMoved, w.runRebuild()
}

// finalDir maps a staging subtree to its destination directory.
func (w *Writer) finalDir(stagedPath string) string {
	if strings.HasPrefix(path.Clean(stagedPath), vault.StagingSources()) {
		return vault.SourcesDir
	}
	return vault.PermanentNotesDir
}

// ApproveAll approves every staged file, continuing past per-file
// failures. Returns counts per outcome plus the number of failures.
func (w *Writer) ApproveAll() (map[Outcome]int, int, error) {
	staged, err := w.ListStaging()
	if err != nil {
		return nil, 0, err
	}
	counts := make(map[Outcome]int)
	failed := 0
	for _, s := range staged {
		outcome, err := w.Approve(s.Path)
		if err != nil {
			failed++
			w.log.Warn("approval failed",
				slog.String("path", s.Path),
				slog.String("error", err.Error()))
			continue
		}
		counts[outcome]++
	}
	return counts, failed, nil
}

// Discard deletes a staged file without applying it.
func (w *Writer) Discard(stagedPath string) error {
	if !strings.HasPrefix(path.Clean(stagedPath), vault.StagingDir) {
		return fmt.Errorf("writer: refusing to discard outside staging: %s", stagedPath)
	}
	if err := w.vault.Delete(stagedPath); err != nil {
		return err
	}
	w.log.Info("staged note discarded", slog.String("path", stagedPath))
	return nil
}

// ListStaging enumerates staged notes with their pending action, sorted
// by path for stable output.
func (w *Writer) ListStaging() ([]StagedNote, error) {
	infos, err := w.vault.List(vault.StagingDir)
	if err != nil {
		return nil, err
	}
	out := make([]StagedNote, 0, len(infos))
	for _, info := range infos {
		data, err := w.vault.Read(info.Path)
		if err != nil {
			return nil, err
		}
		n := note.Parse(data)
		title := n.DisplayTitle()
		if title == "" {
			title = note.TitleFromFilename(strings.TrimSuffix(path.Base(info.Path), ".md"))
		}
		out = append(out, StagedNote{
			Path:      info.Path,
			Title:     title,
			MergeInto: n.Meta.MergeInto,
			IsNew:     n.Meta.IsNew || !n.Meta.HasIsNew,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (w *Writer) runRebuild() error {
	if w.rebuild == nil {
		return nil
	}
	if err := w.rebuild(); err != nil {
		// The note itself landed; a failed rebuild is degraded, not fatal.
		w.log.Warn("index rebuild after approval failed",
			slog.String("error", err.Error()))
	}
	return nil
}
