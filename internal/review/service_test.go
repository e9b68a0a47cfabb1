package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gweinger/zettelkasten/internal/note"
	"github.com/gweinger/zettelkasten/internal/oracle"
	"github.com/gweinger/zettelkasten/internal/vault"
	"github.com/gweinger/zettelkasten/internal/writer"
)

type fakeClassifier struct {
	decision oracle.Decision
	err      error
}

func (f fakeClassifier) ClassifyDuplicate(context.Context, string, string, string) (oracle.Decision, error) {
	return f.decision, f.err
}

func (f fakeClassifier) Summarize(context.Context, string, string) (string, error) {
	return "A generated description.", nil
}

func testService(t *testing.T, c oracle.Classifier, files map[string]string) (*Service, *vault.FS) {
	t.Helper()
	root := t.TempDir()
	if err := vault.EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout: %v", err)
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	v, err := vault.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(v, c, log), v
}

func incoming(title string) *note.ParsedNote {
	return &note.ParsedNote{
		Meta: note.Meta{
			Title:   title,
			Created: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			Tags:    []string{"concept", "permanent-note"},
		},
		Description: []string{"Incoming text."},
	}
}

func TestStageAndApprove_NewConcept(t *testing.T) {
	svc, v := testService(t, fakeClassifier{}, nil)
	ctx := context.Background()

	paths, err := svc.Stage(ctx, []*note.ParsedNote{incoming("Chunking")})
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("paths = %v", paths)
	}

	staged, err := svc.ListStaging(ctx)
	if err != nil {
		t.Fatalf("ListStaging: %v", err)
	}
	if len(staged) != 1 || !staged[0].IsNew {
		t.Fatalf("staged = %+v", staged)
	}

	outcome, err := svc.Approve(ctx, paths[0])
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if outcome != writer.OutcomeMoved {
		t.Errorf("outcome = %v", outcome)
	}
	if !v.Exists("permanent-notes/" + filepath.Base(paths[0])) {
		t.Error("approved note missing from permanent-notes")
	}
	// Approval triggers an index rebuild.
	if !v.Exists("permanent-notes/INDEX.md") {
		t.Error("index not rebuilt after approval")
	}
}

func TestStage_DuplicateGetsMergeTarget(t *testing.T) {
	existing := "---\ntitle: Chunking\n---\n# Chunking\n\nOriginal.\n"
	svc, _ := testService(t,
		fakeClassifier{decision: oracle.Decision{IsDuplicate: true, MatchingTitle: "Chunking"}},
		map[string]string{"permanent-notes/20240101000000-chunking.md": existing})
	ctx := context.Background()

	paths, err := svc.Stage(ctx, []*note.ParsedNote{incoming("Chunking Information")})
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	staged, err := svc.ListStaging(ctx)
	if err != nil {
		t.Fatalf("ListStaging: %v", err)
	}
	if staged[0].IsNew || staged[0].MergeInto != "20240101000000-chunking.md" {
		t.Fatalf("staged = %+v", staged[0])
	}

	outcome, err := svc.Approve(ctx, paths[0])
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if outcome != writer.OutcomeMerged {
		t.Errorf("outcome = %v", outcome)
	}
}

func TestStage_OracleFailureStagesAsNew(t *testing.T) {
	svc, _ := testService(t, fakeClassifier{err: errors.New("boom")}, nil)
	if _, err := svc.Stage(context.Background(), []*note.ParsedNote{incoming("X")}); err != nil {
		t.Fatalf("Stage: %v", err)
	}
	staged, _ := svc.ListStaging(context.Background())
	if len(staged) != 1 || !staged[0].IsNew {
		t.Errorf("staged = %+v, want new on oracle failure", staged)
	}
}

func TestGetNote(t *testing.T) {
	content := "---\ntitle: Chunking\ntags: [concept]\n---\n# Chunking\n\nBody.\n"
	svc, _ := testService(t, fakeClassifier{}, map[string]string{
		"permanent-notes/20240101000000-chunking.md": content,
	})
	d, err := svc.GetNote(context.Background(), "permanent-notes/20240101000000-chunking.md")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if d.Title != "Chunking" || d.IsStub || !strings.Contains(d.Content, "Body.") {
		t.Errorf("detail = %+v", d)
	}
	if len(d.Tags) != 1 || d.Tags[0] != "concept" {
		t.Errorf("tags = %v", d.Tags)
	}
	if _, err := svc.GetNote(context.Background(), "permanent-notes/missing.md"); err == nil {
		t.Error("want error for missing note")
	}
}

func TestStats(t *testing.T) {
	svc, _ := testService(t, fakeClassifier{}, map[string]string{
		"permanent-notes/20240101000000-a.md": "---\ntitle: A\n---\n# A\n\nBody.\n\n## Related Notes\n\n- [[Ghost]]\n",
		"permanent-notes/20240102000000-b.md": "---\ntitle: B\n---\n# B\n",
	})
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Notes != 2 || stats.Stubs != 1 || stats.Orphans != 1 || stats.Staged != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestFillStub(t *testing.T) {
	svc, v := testService(t, fakeClassifier{}, map[string]string{
		"permanent-notes/20240101000000-a.md": "---\ntitle: A\n---\n# A\n\nBody.\n\n## Related Notes\n\n- [[Chunking]]\n",
		"permanent-notes/20240102000000-chunking.md": "---\ntitle: Chunking\n---\n# Chunking\n",
	})
	err := svc.FillStub(context.Background(), "permanent-notes/20240102000000-chunking.md")
	if err != nil {
		t.Fatalf("FillStub: %v", err)
	}
	data, _ := v.Read("permanent-notes/20240102000000-chunking.md")
	if !strings.Contains(string(data), "A generated description.") {
		t.Errorf("stub not filled:\n%s", data)
	}
	if err := svc.FillStub(context.Background(), "permanent-notes/nope.md"); err == nil {
		t.Error("want error for unknown stub path")
	}
}
