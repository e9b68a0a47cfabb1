package note

import (
	"regexp"
	"sort"
	"strings"
)

// minTimestamp sorts below every real fixed-width YYYYMMDDHHMMSS value.
const minTimestamp = "00000000000000"

var digitRunRe = regexp.MustCompile(`\d+`)

// Merge folds an incoming note into an existing one for the same concept.
// The existing note's frontmatter and title win; descriptions and quotes
// are concatenated without dedup (preserving both wordings is deliberate);
// sources are deduplicated by URL; related links are deduplicated by
// display name with the latest embedded timestamp winning.
func Merge(existing, incoming *ParsedNote) *ParsedNote {
	out := &ParsedNote{
		Meta:           existing.Meta,
		RawFrontmatter: existing.RawFrontmatter,
		Title:          existing.Title,
	}

	out.Description = append(out.Description, existing.Description...)
	if len(existing.Description) > 0 && len(incoming.Description) > 0 {
		out.Description = append(out.Description, "")
	}
	out.Description = append(out.Description, incoming.Description...)

	out.Quotes = append(append([]string{}, existing.Quotes...), incoming.Quotes...)

	out.SourceLines = dedupSources(append(append([]string{}, existing.SourceLines...), incoming.SourceLines...))

	out.Related = dedupRelated(append(append([]string{}, existing.Related...), incoming.Related...))

	out.Extra = append(append([]Section{}, existing.Extra...), incoming.Extra...)
	return out
}

// dedupSources groups consecutive lines into citation units terminated by
// a `URL:` line and keeps each unit only the first time its URL appears.
// A trailing unit with no URL line is preserved: it may be a hand-written
// citation that never got a link, and dropping it would lose information.
func dedupSources(lines []string) []string {
	seen := make(map[string]struct{})
	var out []string
	var group []string

	for _, line := range lines {
		group = append(group, line)
		if !isURLLine(line) {
			continue
		}
		key := sourceKey(line)
		if _, dup := seen[key]; !dup {
			seen[key] = struct{}{}
			out = append(out, group...)
		}
		group = nil
	}
	// Incomplete trailing group: emit verbatim.
	out = append(out, group...)
	return out
}

// sourceKey extracts the dedup key from a URL line: the URL string with
// any leading `From: ` label stripped.
func sourceKey(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimSpace(strings.TrimPrefix(s, "URL:"))
	s = strings.TrimSpace(strings.TrimPrefix(s, "From: "))
	return s
}

// dedupRelated keeps one entry per display name. When a name repeats, the
// entry whose path embeds the greatest 14-digit timestamp wins; entries
// without a timestamp sort as the minimum. The result is ordered by
// display name so merged output diffs stay stable.
func dedupRelated(lines []string) []string {
	type entry struct {
		line string
		ts   string
	}
	byName := make(map[string]entry)
	var keys []string

	for _, line := range lines {
		name := DisplayName(line)
		ts := linkTimestamp(line)
		cur, ok := byName[name]
		if !ok {
			byName[name] = entry{line: line, ts: ts}
			keys = append(keys, name)
			continue
		}
		// Lexicographic comparison is valid: the format is fixed-width.
		if ts > cur.ts {
			byName[name] = entry{line: line, ts: ts}
		}
	}

	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, byName[k].line)
	}
	return out
}

// DisplayName returns the human-readable name of a related-notes entry:
// the text after `|` inside the wikilink, or the whole link body when
// there is no alias.
func DisplayName(line string) string {
	body := linkBody(line)
	if i := strings.Index(body, "|"); i >= 0 {
		return strings.TrimSpace(body[i+1:])
	}
	return strings.TrimSpace(body)
}

// linkBody extracts the text between [[ and ]].
func linkBody(line string) string {
	start := strings.Index(line, "[[")
	if start < 0 {
		return strings.TrimSpace(line)
	}
	rest := line[start+2:]
	if end := strings.Index(rest, "]]"); end >= 0 {
		return rest[:end]
	}
	return rest
}

// linkTimestamp pulls the 14-digit timestamp out of the path segment of a
// related-notes entry. Missing or malformed timestamps map to the minimum
// so any real timestamp outranks them.
func linkTimestamp(line string) string {
	body := linkBody(line)
	path := body
	if i := strings.Index(body, "|"); i >= 0 {
		path = body[:i]
	}
	for _, run := range digitRunRe.FindAllString(path, -1) {
		if len(run) == 14 {
			return run
		}
	}
	return minTimestamp
}
