// Package indexgen renders the browsable index documents: the concept
// index and people index in permanent-notes and the source index in the
// sources directory. The concept index doubles as the corpus summary the
// duplicate resolver feeds to the classifier oracle.
//
// Entry descriptions are first-paragraph excerpts rather than generated
// summaries, so a full rebuild costs zero oracle calls and stays
// deterministic.
package indexgen

import (
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/gweinger/zettelkasten/internal/note"
	"github.com/gweinger/zettelkasten/internal/vault"
)

const maxDescriptionChars = 150

// Generator rebuilds index files from the current corpus.
type Generator struct {
	vault vault.Provider
	log   *slog.Logger
	now   func() time.Time
}

func New(v vault.Provider, log *slog.Logger) *Generator {
	return &Generator{vault: v, log: log, now: time.Now}
}

// entry is one indexed note.
type entry struct {
	stem  string
	title string
	desc  string
	meta  note.Meta
}

// loadEntries parses every note in dir, skipping index files and files
// without frontmatter.
func (g *Generator) loadEntries(dir string) ([]entry, error) {
	infos, err := g.vault.List(dir)
	if err != nil {
		return nil, err
	}
	var out []entry
	for _, info := range infos {
		name := path.Base(info.Path)
		if vault.IsIndexFile(name) {
			continue
		}
		data, err := g.vault.Read(info.Path)
		if err != nil {
			return nil, err
		}
		n := note.Parse(data)
		if n.RawFrontmatter == "" {
			continue
		}
		stem := strings.TrimSuffix(name, ".md")
		title := n.DisplayTitle()
		if title == "" {
			title = note.TitleFromFilename(stem)
		}
		out = append(out, entry{
			stem:  stem,
			title: title,
			desc:  excerpt(n),
			meta:  n.Meta,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].title) < strings.ToLower(out[j].title)
	})
	return out, nil
}

// Rebuild regenerates every index document.
func (g *Generator) Rebuild() error {
	if err := g.RebuildConceptIndex(); err != nil {
		return err
	}
	if err := g.RebuildPeopleIndex(); err != nil {
		return err
	}
	return g.RebuildSourceIndex()
}

// RebuildConceptIndex writes permanent-notes/INDEX.md: every concept
// grouped by first letter, digits and symbols under "#".
func (g *Generator) RebuildConceptIndex() error {
	entries, err := g.loadEntries(vault.PermanentNotesDir)
	if err != nil {
		return err
	}

	var lines []string
	lines = append(lines, g.indexHeader("Concept Index", "[index, concepts]")...)
	lines = append(lines, fmt.Sprintf("*%d concepts*", len(entries)), "")
	lines = append(lines, letterSections(entries)...)

	target := path.Join(vault.PermanentNotesDir, "INDEX.md")
	if err := g.vault.Write(target, []byte(strings.Join(lines, "\n"))); err != nil {
		return err
	}
	g.log.Info("concept index rebuilt",
		slog.String("path", target),
		slog.Int("entries", len(entries)))
	return nil
}

// RebuildPeopleIndex writes permanent-notes/PEOPLE-INDEX.md covering
// notes tagged person or contact. No such notes, no index file.
func (g *Generator) RebuildPeopleIndex() error {
	entries, err := g.loadEntries(vault.PermanentNotesDir)
	if err != nil {
		return err
	}
	var people []entry
	for _, e := range entries {
		if e.meta.HasTag("person") || e.meta.HasTag("contact") {
			people = append(people, e)
		}
	}
	if len(people) == 0 {
		return nil
	}

	var lines []string
	lines = append(lines, g.indexHeader("People Index", "[index, people, contacts]")...)
	lines = append(lines, fmt.Sprintf("*%d people*", len(people)), "")
	lines = append(lines, letterSections(people)...)

	target := path.Join(vault.PermanentNotesDir, "PEOPLE-INDEX.md")
	if err := g.vault.Write(target, []byte(strings.Join(lines, "\n"))); err != nil {
		return err
	}
	g.log.Info("people index rebuilt", slog.Int("entries", len(people)))
	return nil
}

// sourceTypeOrder fixes section order in the source index.
var sourceTypeOrder = []struct {
	key     string
	display string
}{
	{"youtube", "YouTube Videos"},
	{"article", "Articles"},
	{"podcast", "Podcasts"},
	{"other", "Other Sources"},
}

// RebuildSourceIndex writes sources/INDEX.md grouped by source type.
func (g *Generator) RebuildSourceIndex() error {
	entries, err := g.loadEntries(vault.SourcesDir)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	groups := make(map[string][]entry)
	for _, e := range entries {
		key := e.meta.SourceType
		switch key {
		case "youtube", "article", "podcast":
		default:
			key = "other"
		}
		groups[key] = append(groups[key], e)
	}

	var lines []string
	lines = append(lines, g.indexHeader("Source Index", "[index, sources]")...)
	lines = append(lines, fmt.Sprintf("*%d sources*", len(entries)), "")

	for _, st := range sourceTypeOrder {
		group := groups[st.key]
		if len(group) == 0 {
			continue
		}
		lines = append(lines, "## "+st.display, "")
		for _, e := range group {
			link := fmt.Sprintf("[[%s|%s]]", e.stem, e.title)
			if e.meta.Source != "" {
				lines = append(lines, fmt.Sprintf("- %s - [source](%s)", link, e.meta.Source))
			} else {
				lines = append(lines, "- "+link)
			}
		}
		lines = append(lines, "")
	}

	target := path.Join(vault.SourcesDir, "INDEX.md")
	if err := g.vault.Write(target, []byte(strings.Join(lines, "\n"))); err != nil {
		return err
	}
	g.log.Info("source index rebuilt", slog.Int("entries", len(entries)))
	return nil
}

// CorpusIndexText returns the duplicate resolver's view of the corpus:
// one line per concept, title plus a short description.
func (g *Generator) CorpusIndexText() (string, error) {
	entries, err := g.loadEntries(vault.PermanentNotesDir)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, e := range entries {
		if e.desc != "" {
			fmt.Fprintf(&b, "- %s: %s\n", e.title, e.desc)
		} else {
			fmt.Fprintf(&b, "- %s\n", e.title)
		}
	}
	return b.String(), nil
}

func (g *Generator) indexHeader(title, tags string) []string {
	return []string{
		"---",
		"title: " + title,
		"created: " + g.now().Format("2006-01-02 15:04:05"),
		"tags: " + tags,
		"---",
		"",
		"# " + title,
		"",
	}
}

// letterSections renders entries grouped by first letter of title.
func letterSections(entries []entry) []string {
	groups := make(map[string][]entry)
	var letters []string
	for _, e := range entries {
		letter := "#"
		if r := []rune(e.title); len(r) > 0 && unicode.IsLetter(r[0]) {
			letter = strings.ToUpper(string(r[0]))
		}
		if _, ok := groups[letter]; !ok {
			letters = append(letters, letter)
		}
		groups[letter] = append(groups[letter], e)
	}
	sort.Strings(letters)

	var lines []string
	for _, letter := range letters {
		lines = append(lines, "## "+letter, "")
		for _, e := range groups[letter] {
			link := fmt.Sprintf("[[%s|%s]]", e.stem, e.title)
			if e.desc != "" {
				lines = append(lines, fmt.Sprintf("- **%s**: %s", link, e.desc))
			} else {
				lines = append(lines, "- "+link)
			}
		}
		lines = append(lines, "")
	}
	return lines
}

// excerpt is the first description paragraph, capped for index layout.
func excerpt(n *note.ParsedNote) string {
	text := strings.Join(n.Description, "\n")
	if i := strings.Index(text, "\n\n"); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if len(text) > maxDescriptionChars {
		text = text[:maxDescriptionChars-3] + "..."
	}
	return text
}
