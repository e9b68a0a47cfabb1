package note

import "strings"

// Older versions of the tool "merged" notes by appending the incoming
// document to the existing file: a horizontal rule, a heading named
// "Additional Content", then the second document verbatim (including its
// own title heading). splitLegacySegments detects that pattern and cuts
// the body into independent segments so each parses with a fresh section
// state. It is a compatibility shim for files written by those versions
// and can be removed once every old-format file has been re-merged.

const legacyAppendHeading = "additional content"

// splitLegacySegments returns the body split at every legacy append
// boundary. The rule line and the "Additional Content" heading are
// consumed; they belong to neither segment. The boundary only counts
// when it appears inside a related-notes section, which is where the
// old concatenation always landed.
func splitLegacySegments(lines []string) [][]string {
	var segments [][]string
	kind := KindDescription
	start := 0

	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "## ") {
			kind = Classify(strings.TrimSpace(trimmed[3:]))
			i++
			continue
		}
		if trimmed == "---" && kind == KindRelated {
			if next, ok := nextNonBlank(lines, i+1); ok &&
				isLegacyHeading(lines[next]) {
				segments = append(segments, lines[start:i])
				i = next + 1
				start = i
				kind = KindDescription
				continue
			}
		}
		i++
	}
	segments = append(segments, lines[start:])
	return segments
}

func nextNonBlank(lines []string, from int) (int, bool) {
	for i := from; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "" {
			return i, true
		}
	}
	return 0, false
}

func isLegacyHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "## ") {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(trimmed[3:]), legacyAppendHeading)
}
