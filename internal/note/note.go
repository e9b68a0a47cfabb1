// Package note parses, renders, and merges the Markdown documents that make
// up a Zettelkasten vault. Parsing is lenient: malformed input degrades to a
// best-effort result, never an error.
package note

import (
	"strings"
	"time"
	"unicode"
)

// SectionKind classifies a `##` section heading.
type SectionKind int

const (
	KindDescription SectionKind = iota
	KindQuotes
	KindSources
	KindRelated
	KindOther
)

// Classify maps a section heading to its kind. Matching is a case-insensitive
// substring test; this mirrors how real vault files name their sections
// ("Key Quotes", "Source", "Sources", "Related Notes", "Related Concepts").
func Classify(heading string) SectionKind {
	h := strings.ToLower(heading)
	switch {
	case strings.Contains(h, "key quote"):
		return KindQuotes
	case strings.Contains(h, "source"):
		return KindSources
	case strings.Contains(h, "related note"), strings.Contains(h, "related concept"):
		return KindRelated
	default:
		return KindOther
	}
}

// Section is an unrecognized `##` section preserved verbatim.
type Section struct {
	Heading string
	Lines   []string
}

// Meta holds the frontmatter fields the tool understands. MergeInto and
// IsNew are staging-only metadata; they are stripped when a note reaches
// its final location.
type Meta struct {
	Title      string
	Created    time.Time
	Tags       []string
	Source     string
	SourceType string
	MergeInto  string
	IsNew      bool
	HasIsNew   bool
}

// HasTag reports whether the note carries the given tag.
func (m Meta) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ParsedNote is the structured representation of one Markdown note.
type ParsedNote struct {
	Meta Meta

	// RawFrontmatter is the verbatim YAML block (without delimiters).
	// The merger keeps the existing note's block untouched.
	RawFrontmatter string

	// Title is the first `# ` heading of the body, which may differ from
	// the frontmatter title on hand-edited notes.
	Title string

	Description []string // body lines before the first recognized section
	Quotes      []string // "> ..." lines, verbatim
	SourceLines []string // non-empty source-section lines, verbatim
	Related     []string // "- [[...]]" lines, verbatim
	Extra       []Section
}

// DisplayTitle returns the best available title: frontmatter, then the
// first heading, then empty.
func (n *ParsedNote) DisplayTitle() string {
	if n.Meta.Title != "" {
		return n.Meta.Title
	}
	return n.Title
}

// IsStub reports whether the note has no substantive body: only whitespace
// and HTML comments remain once frontmatter and the title heading are gone.
// Notes without frontmatter are never stubs (they are foreign files, not
// generated placeholders).
func (n *ParsedNote) IsStub() bool {
	if n.RawFrontmatter == "" {
		return false
	}
	rest := strings.Join(n.Description, "\n")
	rest = stripHTMLComments(rest)
	if strings.TrimSpace(rest) != "" {
		return false
	}
	return len(n.Quotes) == 0 && len(n.SourceLines) == 0 &&
		len(n.Related) == 0 && len(n.Extra) == 0
}

func stripHTMLComments(s string) string {
	for {
		start := strings.Index(s, "<!--")
		if start < 0 {
			return s
		}
		end := strings.Index(s[start:], "-->")
		if end < 0 {
			return s[:start]
		}
		s = s[:start] + s[start+end+3:]
	}
}

// Slug converts a title to a filename-safe slug: lowercased, spaces to
// hyphens, anything else non-alphanumeric dropped.
func Slug(title string) string {
	s := strings.ToLower(title)
	s = strings.ReplaceAll(s, " ", "-")
	var b strings.Builder
	for _, r := range s {
		if r == '-' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Filename builds the canonical note filename: a fixed-width timestamp
// prefix for uniqueness and link ordering, then the slugged title.
func Filename(title string, created time.Time) string {
	return created.Format("20060102150405") + "-" + Slug(title) + ".md"
}

// TitleFromFilename recovers a human title from a note filename stem:
// the leading timestamp segment is dropped and the remainder title-cased.
func TitleFromFilename(stem string) string {
	rest := stem
	if i := strings.Index(stem, "-"); i > 0 && isDigits(stem[:i]) {
		rest = stem[i+1:]
	}
	words := strings.Split(rest, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
