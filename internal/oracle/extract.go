package oracle

import "strings"

// ExtractJSON pulls a JSON payload out of a model response. Models wrap
// JSON in code fences and occasionally substitute typographic quotes;
// both are normalized here so the caller can hand the result straight to
// json.Unmarshal. If no fence is present the trimmed input is returned.
func ExtractJSON(s string) string {
	if i := strings.Index(s, "```json"); i >= 0 {
		s = afterFence(s, i+len("```json"))
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = afterFence(s, i+len("```"))
	}
	r := strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
	)
	return strings.TrimSpace(r.Replace(s))
}

func afterFence(s string, start int) string {
	rest := s[start:]
	if end := strings.Index(rest, "```"); end >= 0 {
		return rest[:end]
	}
	return rest
}
