package note

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// mergeBannerMarker opens the reviewer-warning blockquote that staging
// writes on pending-merge notes. The parser strips the whole blockquote
// run so the banner never leaks into merged content.
const mergeBannerMarker = "**Merge pending:**"

const createdLayout = "2006-01-02 15:04:05"

// Parse converts raw Markdown bytes into a ParsedNote. It never fails:
// malformed frontmatter is treated as body, a missing title stays empty,
// and unknown sections are carried through verbatim.
func Parse(data []byte) *ParsedNote {
	n := &ParsedNote{}

	raw, body := splitFrontmatter(string(data))
	n.RawFrontmatter = raw
	n.Meta = parseMeta(raw)

	lines := strings.Split(body, "\n")
	lines = stripMergeBanner(lines)
	n.Title, lines = extractTitle(lines)

	// Old-format files may contain a second document appended after a
	// horizontal rule; split them apart before section parsing.
	segments := splitLegacySegments(lines)
	for i, seg := range segments {
		if i > 0 {
			seg = dropDuplicateTitle(seg)
		}
		parseSections(n, seg)
	}
	return n
}

// splitFrontmatter separates the YAML block between leading --- delimiters
// from the body. A missing closing delimiter means the whole input is body.
func splitFrontmatter(s string) (raw, body string) {
	trimmed := strings.TrimLeft(s, "\n\r")
	if !strings.HasPrefix(trimmed, "---") {
		return "", s
	}
	rest := trimmed[len("---"):]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		// No closing delimiter: permissive fallback, everything is body.
		return "", s
	}
	raw = strings.TrimPrefix(rest[:idx], "\n")
	after := rest[idx+len("\n---"):]
	after = strings.TrimLeft(after, "\n\r")
	return raw, after
}

// parseMeta extracts the recognized frontmatter fields. Unknown keys are
// ignored here but survive inside RawFrontmatter.
func parseMeta(raw string) Meta {
	var m Meta
	if raw == "" {
		return m
	}
	var fm map[string]any
	if err := yaml.Unmarshal([]byte(raw), &fm); err != nil {
		return m
	}
	if s, ok := fm["title"].(string); ok {
		m.Title = s
	}
	if s, ok := fm["created"].(string); ok {
		if t, err := time.Parse(createdLayout, s); err == nil {
			m.Created = t
		}
	} else if t, ok := fm["created"].(time.Time); ok {
		m.Created = t
	}
	switch v := fm["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				m.Tags = append(m.Tags, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(strings.Trim(v, "[]"), ",") {
			if s = strings.TrimSpace(s); s != "" {
				m.Tags = append(m.Tags, s)
			}
		}
	}
	if s, ok := fm["source"].(string); ok {
		m.Source = s
	}
	if s, ok := fm["source_type"].(string); ok {
		m.SourceType = s
	}
	if s, ok := fm["merge_into"].(string); ok {
		m.MergeInto = s
	}
	if b, ok := fm["is_new"].(bool); ok {
		m.IsNew = b
		m.HasIsNew = true
	}
	return m
}

// stripMergeBanner removes a contiguous blockquote run immediately after
// the frontmatter when it opens with the merge-pending marker. The run
// ends at the first blank line.
func stripMergeBanner(lines []string) []string {
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) {
		return lines
	}
	first := strings.TrimSpace(lines[i])
	if !strings.HasPrefix(first, ">") || !strings.Contains(first, mergeBannerMarker) {
		return lines
	}
	j := i
	for j < len(lines) && strings.TrimSpace(lines[j]) != "" {
		j++
	}
	return lines[j:]
}

// extractTitle removes the first `# ` heading line plus exactly one
// following blank line, returning the heading text. The heading may sit
// anywhere in the body; prose before it stays as description.
func extractTitle(lines []string) (string, []string) {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "# ") {
			continue
		}
		title := strings.TrimSpace(trimmed[2:])
		rest := append(append([]string{}, lines[:i]...), lines[i+1:]...)
		if i < len(rest) && strings.TrimSpace(rest[i]) == "" {
			rest = append(rest[:i], rest[i+1:]...)
		}
		return title, rest
	}
	return "", lines
}

// dropDuplicateTitle discards a leading `# ` heading in a legacy second
// segment; it repeats the document title.
func dropDuplicateTitle(lines []string) []string {
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "# ") {
			return lines[i+1:]
		}
		break
	}
	return lines
}

// parseSections walks body lines, accumulating content into the note by
// section kind. Pre-heading text is description.
func parseSections(n *ParsedNote, lines []string) {
	kind := KindDescription
	var desc []string
	var extra *Section

	flushDesc := func() {
		desc = trimBlankEdges(desc)
		if len(desc) == 0 {
			return
		}
		if len(n.Description) > 0 {
			n.Description = append(n.Description, "")
		}
		n.Description = append(n.Description, desc...)
		desc = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") {
			flushDesc()
			heading := strings.TrimSpace(trimmed[3:])
			kind = Classify(heading)
			if kind == KindOther {
				n.Extra = append(n.Extra, Section{Heading: heading})
				extra = &n.Extra[len(n.Extra)-1]
			} else {
				extra = nil
			}
			continue
		}

		switch kind {
		case KindDescription:
			desc = append(desc, line)
		case KindQuotes:
			// Loose prose between quotes is dropped.
			if strings.HasPrefix(trimmed, ">") {
				n.Quotes = append(n.Quotes, trimmed)
			}
		case KindSources:
			// Line-soup by design: keep every non-empty line verbatim.
			if trimmed != "" {
				n.SourceLines = append(n.SourceLines, line)
			}
		case KindRelated:
			if strings.HasPrefix(trimmed, "-") && strings.Contains(trimmed, "[[") {
				n.Related = append(n.Related, trimmed)
			}
		case KindOther:
			if extra != nil {
				extra.Lines = append(extra.Lines, line)
			}
		}
	}
	flushDesc()

	for i := range n.Extra {
		n.Extra[i].Lines = trimBlankEdges(n.Extra[i].Lines)
	}
}

func trimBlankEdges(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}
