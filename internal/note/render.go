package note

import (
	"fmt"
	"strings"
)

// Canonical section headings used when serializing.
const (
	headingQuotes  = "## Key Quotes"
	headingSources = "## Sources"
	headingRelated = "## Related Notes"
)

// Render serializes the note to its on-disk Markdown form. Output is
// stripped of trailing whitespace and terminated by exactly one newline,
// so repeated parse/render round-trips are byte-stable.
func (n *ParsedNote) Render() []byte {
	var lines []string

	if fm := n.frontmatterBlock(); fm != "" {
		lines = append(lines, "---")
		lines = append(lines, strings.Split(fm, "\n")...)
		lines = append(lines, "---", "")
	}

	if n.Meta.MergeInto != "" && n.Meta.HasIsNew && !n.Meta.IsNew {
		lines = append(lines,
			fmt.Sprintf("> %s content below will be merged into `%s` when approved.",
				mergeBannerMarker, n.Meta.MergeInto),
			"")
	}

	// The parsed heading wins over the frontmatter title so a hand-edited
	// heading survives serialization; freshly built notes have only Meta.
	title := n.Title
	if title == "" {
		title = n.DisplayTitle()
	}
	if title != "" {
		lines = append(lines, "# "+title, "")
	}

	if len(n.Description) > 0 {
		lines = append(lines, n.Description...)
		lines = append(lines, "")
	}

	if len(n.Quotes) > 0 {
		lines = append(lines, headingQuotes, "")
		for _, q := range n.Quotes {
			lines = append(lines, q, "")
		}
	}

	if len(n.SourceLines) > 0 {
		lines = append(lines, headingSources, "")
		for _, s := range n.SourceLines {
			lines = append(lines, s)
			// A URL line terminates a citation group.
			if isURLLine(s) {
				lines = append(lines, "")
			}
		}
		if !isURLLine(n.SourceLines[len(n.SourceLines)-1]) {
			lines = append(lines, "")
		}
	}

	if len(n.Related) > 0 {
		lines = append(lines, headingRelated, "")
		lines = append(lines, n.Related...)
		lines = append(lines, "")
	}

	for _, sec := range n.Extra {
		lines = append(lines, "## "+sec.Heading, "")
		if len(sec.Lines) > 0 {
			lines = append(lines, sec.Lines...)
			lines = append(lines, "")
		}
	}

	out := strings.TrimRight(strings.Join(lines, "\n"), " \t\n") + "\n"
	return []byte(out)
}

// frontmatterBlock returns the verbatim block when present, otherwise a
// block generated from Meta (used for freshly built notes).
func (n *ParsedNote) frontmatterBlock() string {
	if n.RawFrontmatter != "" {
		return strings.TrimRight(n.RawFrontmatter, "\n")
	}
	m := n.Meta
	if m.Title == "" && len(m.Tags) == 0 && m.Created.IsZero() {
		return ""
	}
	var b []string
	if m.Title != "" {
		b = append(b, "title: "+m.Title)
	}
	if !m.Created.IsZero() {
		b = append(b, "created: "+m.Created.Format(createdLayout))
	}
	if len(m.Tags) > 0 {
		b = append(b, "tags: ["+strings.Join(m.Tags, ", ")+"]")
	}
	if m.Source != "" {
		b = append(b, "source: "+m.Source)
	}
	if m.SourceType != "" {
		b = append(b, "source_type: "+m.SourceType)
	}
	if m.MergeInto != "" {
		b = append(b, "merge_into: "+m.MergeInto)
	}
	if m.HasIsNew {
		b = append(b, fmt.Sprintf("is_new: %t", m.IsNew))
	}
	return strings.Join(b, "\n")
}

// StripStagingMeta removes the staging-only merge_into/is_new fields from
// both the parsed Meta and the verbatim frontmatter block. Called when a
// note leaves staging for its final location.
func (n *ParsedNote) StripStagingMeta() {
	n.Meta.MergeInto = ""
	n.Meta.IsNew = false
	n.Meta.HasIsNew = false
	if n.RawFrontmatter == "" {
		return
	}
	var kept []string
	for _, line := range strings.Split(n.RawFrontmatter, "\n") {
		key := strings.TrimSpace(strings.SplitN(line, ":", 2)[0])
		if key == "merge_into" || key == "is_new" {
			continue
		}
		kept = append(kept, line)
	}
	n.RawFrontmatter = strings.Join(kept, "\n")
}

func isURLLine(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "URL:")
}
