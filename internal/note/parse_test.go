package note

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestParse_FrontmatterAndSections(t *testing.T) {
	input := []byte(`---
title: Spaced Repetition
created: 2024-03-01 10:30:00
tags: [concept, learning]
---
# Spaced Repetition

Reviewing material at increasing intervals.

## Key Quotes

> "The spacing effect is one of the most robust findings."

## Sources

From: [[sources/20240301103000-make-it-stick.md|Make It Stick]]
URL: https://example.com/make-it-stick

## Related Notes

- [[permanent-notes/20240101000000-active-recall.md|Active Recall]]
`)
	n := Parse(input)
	if n.Meta.Title != "Spaced Repetition" {
		t.Errorf("meta title = %q", n.Meta.Title)
	}
	want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	if !n.Meta.Created.Equal(want) {
		t.Errorf("created = %v, want %v", n.Meta.Created, want)
	}
	if len(n.Meta.Tags) != 2 || n.Meta.Tags[0] != "concept" {
		t.Errorf("tags = %v", n.Meta.Tags)
	}
	if n.Title != "Spaced Repetition" {
		t.Errorf("title = %q", n.Title)
	}
	if got := strings.Join(n.Description, "\n"); got != "Reviewing material at increasing intervals." {
		t.Errorf("description = %q", got)
	}
	if len(n.Quotes) != 1 || !strings.Contains(n.Quotes[0], "spacing effect") {
		t.Errorf("quotes = %v", n.Quotes)
	}
	if len(n.SourceLines) != 2 {
		t.Fatalf("source lines = %v", n.SourceLines)
	}
	if len(n.Related) != 1 || !strings.Contains(n.Related[0], "Active Recall") {
		t.Errorf("related = %v", n.Related)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	n := Parse([]byte("# Loose Note\n\nJust text.\n"))
	if n.RawFrontmatter != "" {
		t.Errorf("raw frontmatter = %q, want empty", n.RawFrontmatter)
	}
	if n.Title != "Loose Note" {
		t.Errorf("title = %q", n.Title)
	}
	if n.IsStub() {
		t.Error("note without frontmatter must never be a stub")
	}
}

func TestParse_HeadingAfterProse(t *testing.T) {
	n := Parse([]byte("---\ntitle: X\n---\nSome stray intro line.\n\n# Real Heading\n\nBody.\n"))
	if n.Title != "Real Heading" {
		t.Errorf("title = %q, want heading found past leading prose", n.Title)
	}
	desc := strings.Join(n.Description, "\n")
	if !strings.Contains(desc, "Some stray intro line.") || !strings.Contains(desc, "Body.") {
		t.Errorf("description = %q, prose around the heading lost", desc)
	}
	if strings.Contains(desc, "Real Heading") {
		t.Errorf("heading leaked into description: %q", desc)
	}
}

func TestParse_UnclosedFrontmatterIsBody(t *testing.T) {
	n := Parse([]byte("---\ntitle: Broken\nNo closing delimiter here.\n"))
	if n.RawFrontmatter != "" {
		t.Errorf("raw frontmatter = %q, want empty", n.RawFrontmatter)
	}
	if n.Meta.Title != "" {
		t.Errorf("meta title = %q, want empty", n.Meta.Title)
	}
}

func TestParse_InvalidYAMLKeepsRawBlock(t *testing.T) {
	n := Parse([]byte("---\n: bad: yaml: {{{\n---\n# T\n\nBody.\n"))
	if n.RawFrontmatter == "" {
		t.Error("raw frontmatter should be preserved even when YAML is invalid")
	}
	if n.Meta.Title != "" {
		t.Errorf("meta title = %q, want empty", n.Meta.Title)
	}
	if n.Title != "T" {
		t.Errorf("title = %q", n.Title)
	}
}

func TestParse_StripsMergeBanner(t *testing.T) {
	input := []byte("---\ntitle: X\n---\n> **Merge pending:** content below will be merged into `a.md` when approved.\n\n# X\n\nBody.\n")
	n := Parse(input)
	if got := strings.Join(n.Description, "\n"); got != "Body." {
		t.Errorf("description = %q, banner leaked into content", got)
	}
}

func TestParse_LegacyAdditionalContent(t *testing.T) {
	input := []byte(`---
title: X
---
# X

First description.

## Related Notes

- [[permanent-notes/20240101000000-a.md|A]]

---

## Additional Content

# X

Second description.

## Related Notes

- [[permanent-notes/20240102000000-b.md|B]]
`)
	n := Parse(input)
	desc := strings.Join(n.Description, "\n")
	if !strings.Contains(desc, "First description.") || !strings.Contains(desc, "Second description.") {
		t.Errorf("description = %q", desc)
	}
	if len(n.Related) != 2 {
		t.Errorf("related = %v, want both segments' links", n.Related)
	}
}

func TestParse_UnknownSectionPreserved(t *testing.T) {
	n := Parse([]byte("---\ntitle: X\n---\n# X\n\n## Open Questions\n\nWhy though?\n"))
	if len(n.Extra) != 1 || n.Extra[0].Heading != "Open Questions" {
		t.Fatalf("extra = %+v", n.Extra)
	}
	if len(n.Extra[0].Lines) != 1 || n.Extra[0].Lines[0] != "Why though?" {
		t.Errorf("extra lines = %v", n.Extra[0].Lines)
	}
}

func TestRenderParse_RoundTripStable(t *testing.T) {
	input := []byte(`---
title: Spaced Repetition
created: 2024-03-01 10:30:00
tags: [concept]
---
# Spaced Repetition

A description.

## Key Quotes

> "Quote one."

> "Quote two."

## Sources

From: [[sources/20240301103000-a.md|A]]
URL: https://example.com/a

## Related Notes

- [[permanent-notes/20240101000000-b.md|B]]
`)
	first := Parse(input).Render()
	second := Parse(first).Render()
	if !bytes.Equal(first, second) {
		t.Errorf("render not stable:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestRender_MergeBanner(t *testing.T) {
	n := &ParsedNote{
		Meta: Meta{
			Title:     "X",
			MergeInto: "permanent-notes/20240101000000-x.md",
			IsNew:     false,
			HasIsNew:  true,
		},
		Description: []string{"Body."},
	}
	out := string(n.Render())
	if !strings.Contains(out, "**Merge pending:**") {
		t.Errorf("banner missing:\n%s", out)
	}
	if !strings.Contains(out, "`permanent-notes/20240101000000-x.md`") {
		t.Errorf("banner target missing:\n%s", out)
	}
}

func TestRender_NoBannerForNewNote(t *testing.T) {
	n := &ParsedNote{
		Meta:        Meta{Title: "X", IsNew: true, HasIsNew: true},
		Description: []string{"Body."},
	}
	if strings.Contains(string(n.Render()), "**Merge pending:**") {
		t.Error("new-note staging must not carry a merge banner")
	}
}

func TestStripStagingMeta(t *testing.T) {
	input := []byte("---\ntitle: X\nmerge_into: a.md\nis_new: false\n---\n# X\n\nBody.\n")
	n := Parse(input)
	n.StripStagingMeta()
	if n.Meta.MergeInto != "" || n.Meta.HasIsNew {
		t.Errorf("staging meta survived: %+v", n.Meta)
	}
	out := string(n.Render())
	if strings.Contains(out, "merge_into") || strings.Contains(out, "is_new") {
		t.Errorf("staging keys survived render:\n%s", out)
	}
	if !strings.Contains(out, "title: X") {
		t.Errorf("other frontmatter lost:\n%s", out)
	}
}

func TestIsStub(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"empty body", "---\ntitle: X\n---\n# X\n", true},
		{"only html comment", "---\ntitle: X\n---\n# X\n\n<!-- placeholder -->\n", true},
		{"real description", "---\ntitle: X\n---\n# X\n\nContent.\n", false},
		{"has related", "---\ntitle: X\n---\n# X\n\n## Related Notes\n\n- [[a|A]]\n", false},
		{"no frontmatter", "# X\n", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Parse([]byte(tc.input)).IsStub(); got != tc.want {
				t.Errorf("IsStub() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFilenameAndTitleRecovery(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	got := Filename("Spaced Repetition!", created)
	if got != "20240301103000-spaced-repetition.md" {
		t.Errorf("Filename = %q", got)
	}
	if title := TitleFromFilename("20240301103000-spaced-repetition"); title != "Spaced Repetition" {
		t.Errorf("TitleFromFilename = %q", title)
	}
	if title := TitleFromFilename("no-timestamp-here"); title != "No Timestamp Here" {
		t.Errorf("TitleFromFilename = %q", title)
	}
}
