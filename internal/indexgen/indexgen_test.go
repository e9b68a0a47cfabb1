package indexgen

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gweinger/zettelkasten/internal/vault"
)

func testGenerator(t *testing.T, files map[string]string) (*Generator, *vault.FS) {
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
	return New(v, log), v
}

func TestRebuildConceptIndex(t *testing.T) {
	g, v := testGenerator(t, map[string]string{
		"permanent-notes/20240101000000-active-recall.md": "---\ntitle: Active Recall\n---\n# Active Recall\n\nTesting yourself beats rereading.\n",
		"permanent-notes/20240102000000-zettelkasten.md":  "---\ntitle: Zettelkasten\n---\n# Zettelkasten\n\nA slip-box method.\n",
		"permanent-notes/20240103000000-4-hour-rule.md":   "---\ntitle: 4 Hour Rule\n---\n# 4 Hour Rule\n\nDeep work caps out around four hours.\n",
	})
	if err := g.RebuildConceptIndex(); err != nil {
		t.Fatalf("RebuildConceptIndex: %v", err)
	}
	data, err := v.Read("permanent-notes/INDEX.md")
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "*3 concepts*") {
		t.Errorf("count missing:\n%s", out)
	}
	if !strings.Contains(out, "## #") {
		t.Errorf("digit-leading title should bucket under #:\n%s", out)
	}
	if !strings.Contains(out, "## A") || !strings.Contains(out, "## Z") {
		t.Errorf("letter sections missing:\n%s", out)
	}
	if !strings.Contains(out, "[[20240101000000-active-recall|Active Recall]]**: Testing yourself beats rereading.") {
		t.Errorf("entry with description missing:\n%s", out)
	}
	// The index must never index itself on rebuild.
	if err := g.RebuildConceptIndex(); err != nil {
		t.Fatalf("second rebuild: %v", err)
	}
	data, _ = v.Read("permanent-notes/INDEX.md")
	if strings.Contains(string(data), "Concept Index]]") {
		t.Error("index indexed itself")
	}
}

func TestRebuildSourceIndex(t *testing.T) {
	g, v := testGenerator(t, map[string]string{
		"sources/20240101000000-talk.md":    "---\ntitle: A Talk\nsource: https://example.com/v\nsource_type: youtube\n---\n# A Talk\n\nSummary.\n",
		"sources/20240102000000-essay.md":   "---\ntitle: An Essay\nsource: https://example.com/e\nsource_type: article\n---\n# An Essay\n\nSummary.\n",
		"sources/20240103000000-unknown.md": "---\ntitle: Mystery\n---\n# Mystery\n\nSummary.\n",
	})
	if err := g.RebuildSourceIndex(); err != nil {
		t.Fatalf("RebuildSourceIndex: %v", err)
	}
	data, err := v.Read("sources/INDEX.md")
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	out := string(data)
	wantOrder := []string{"## YouTube Videos", "## Articles", "## Other Sources"}
	last := -1
	for _, h := range wantOrder {
		i := strings.Index(out, h)
		if i < 0 {
			t.Fatalf("section %q missing:\n%s", h, out)
		}
		if i < last {
			t.Errorf("section %q out of order", h)
		}
		last = i
	}
	if !strings.Contains(out, "[source](https://example.com/v)") {
		t.Errorf("source link missing:\n%s", out)
	}
}

func TestRebuildPeopleIndex_OnlyTaggedNotes(t *testing.T) {
	g, v := testGenerator(t, map[string]string{
		"permanent-notes/20240101000000-jane-doe.md": "---\ntitle: Jane Doe\ntags: [person]\n---\n# Jane Doe\n\nResearcher.\n",
		"permanent-notes/20240102000000-concept.md":  "---\ntitle: Concept\ntags: [concept]\n---\n# Concept\n\nBody.\n",
	})
	if err := g.RebuildPeopleIndex(); err != nil {
		t.Fatalf("RebuildPeopleIndex: %v", err)
	}
	data, err := v.Read("permanent-notes/PEOPLE-INDEX.md")
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "Jane Doe") || strings.Contains(out, "|Concept]]") {
		t.Errorf("people filter wrong:\n%s", out)
	}
}

func TestCorpusIndexText(t *testing.T) {
	g, _ := testGenerator(t, map[string]string{
		"permanent-notes/20240101000000-active-recall.md": "---\ntitle: Active Recall\n---\n# Active Recall\n\n" + strings.Repeat("long ", 60) + "\n",
	})
	text, err := g.CorpusIndexText()
	if err != nil {
		t.Fatalf("CorpusIndexText: %v", err)
	}
	if !strings.HasPrefix(text, "- Active Recall: ") {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(text, "...") {
		t.Errorf("long description not truncated: %q", text)
	}
	line := strings.TrimRight(strings.TrimPrefix(text, "- Active Recall: "), "\n")
	if len(line) > maxDescriptionChars {
		t.Errorf("description length %d exceeds cap", len(line))
	}
}
