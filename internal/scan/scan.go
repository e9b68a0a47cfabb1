// Package scan builds derived views over the permanent-notes directory:
// a title index, back-link lists, stubs, and orphaned concepts. Nothing is
// persisted; the filesystem is the only source of truth, so every call
// rescans the corpus and out-of-process edits are picked up immediately.
package scan

import (
	"path"
	"sort"
	"strings"

	"github.com/gweinger/zettelkasten/internal/note"
	"github.com/gweinger/zettelkasten/internal/vault"
)

// Scanner reads the corpus through a vault provider.
type Scanner struct {
	vault vault.Provider
}

func New(v vault.Provider) *Scanner {
	return &Scanner{vault: v}
}

// IndexEntry pairs a note's title (as stored) with its vault-relative path.
type IndexEntry struct {
	Title string
	Path  string
}

// TitleIndex maps note titles to files. Titles keep their stored casing but
// resolve case-insensitively.
type TitleIndex struct {
	byLower map[string]IndexEntry
}

// Resolve looks up a title case-insensitively.
func (ix *TitleIndex) Resolve(name string) (IndexEntry, bool) {
	e, ok := ix.byLower[strings.ToLower(strings.TrimSpace(name))]
	return e, ok
}

// Entries returns all indexed notes sorted by title.
func (ix *TitleIndex) Entries() []IndexEntry {
	out := make([]IndexEntry, 0, len(ix.byLower))
	for _, e := range ix.byLower {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// Stub is a note file with no substantive content yet.
type Stub struct {
	Title string
	Path  string
}

// Backlink identifies a note whose related-notes section links to a concept.
type Backlink struct {
	Title string
	Path  string
}

// Orphan is a linked display name with no corresponding note file. Referrers
// lists the titles of the notes that link to it, for later context gathering.
type Orphan struct {
	Name      string
	Referrers []string
}

// document is one scanned corpus file.
type document struct {
	path   string
	parsed *note.ParsedNote
	title  string
	stub   bool
}

// load enumerates and parses every permanent note, skipping index files.
// Byte-empty files still count: they are stubs whose title comes from the
// filename.
func (s *Scanner) load() ([]document, error) {
	infos, err := s.vault.List(vault.PermanentNotesDir)
	if err != nil {
		return nil, err
	}
	docs := make([]document, 0, len(infos))
	for _, info := range infos {
		name := path.Base(info.Path)
		if vault.IsIndexFile(name) {
			continue
		}
		data, err := s.vault.Read(info.Path)
		if err != nil {
			return nil, err
		}
		doc := document{path: info.Path}
		if len(data) == 0 {
			doc.parsed = &note.ParsedNote{}
			doc.title = note.TitleFromFilename(strings.TrimSuffix(name, ".md"))
			doc.stub = true
		} else {
			doc.parsed = note.Parse(data)
			doc.title = doc.parsed.DisplayTitle()
			if doc.title == "" {
				doc.title = note.TitleFromFilename(strings.TrimSuffix(name, ".md"))
			}
			doc.stub = doc.parsed.IsStub()
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// TitleIndex scans the corpus and builds the title lookup. On duplicate
// titles the first file in scan order wins.
func (s *Scanner) TitleIndex() (*TitleIndex, error) {
	docs, err := s.load()
	if err != nil {
		return nil, err
	}
	ix := &TitleIndex{byLower: make(map[string]IndexEntry, len(docs))}
	for _, doc := range docs {
		key := strings.ToLower(doc.title)
		if _, exists := ix.byLower[key]; exists {
			continue
		}
		ix.byLower[key] = IndexEntry{Title: doc.title, Path: doc.path}
	}
	return ix, nil
}

// FindStubs returns every stub note in scan order.
func (s *Scanner) FindStubs() ([]Stub, error) {
	docs, err := s.load()
	if err != nil {
		return nil, err
	}
	var stubs []Stub
	for _, doc := range docs {
		if doc.stub {
			stubs = append(stubs, Stub{Title: doc.title, Path: doc.path})
		}
	}
	return stubs, nil
}

// Backlinks returns the notes whose related-notes section links to the
// given concept. A link matches when its display name equals the concept
// name case-insensitively. One entry per source note, in scan order.
func (s *Scanner) Backlinks(conceptName string) ([]Backlink, error) {
	docs, err := s.load()
	if err != nil {
		return nil, err
	}
	want := strings.ToLower(strings.TrimSpace(conceptName))
	seen := make(map[string]struct{})
	var out []Backlink
	for _, doc := range docs {
		if doc.stub {
			continue
		}
		for _, line := range doc.parsed.Related {
			if strings.ToLower(note.DisplayName(line)) != want {
				continue
			}
			if _, dup := seen[doc.title]; dup {
				break
			}
			seen[doc.title] = struct{}{}
			out = append(out, Backlink{Title: doc.title, Path: doc.path})
			break
		}
	}
	return out, nil
}

// Orphans collects every linked display name that has no corresponding
// note, each with the titles of the notes referring to it. Sorted by name
// for stable output.
func (s *Scanner) Orphans() ([]Orphan, error) {
	docs, err := s.load()
	if err != nil {
		return nil, err
	}

	titles := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		titles[strings.ToLower(doc.title)] = struct{}{}
	}

	type ref struct {
		name      string
		referrers []string
		seen      map[string]struct{}
	}
	byLower := make(map[string]*ref)
	var order []string

	for _, doc := range docs {
		for _, line := range doc.parsed.Related {
			name := note.DisplayName(line)
			if name == "" {
				continue
			}
			key := strings.ToLower(name)
			if _, exists := titles[key]; exists {
				continue
			}
			r, ok := byLower[key]
			if !ok {
				r = &ref{name: name, seen: make(map[string]struct{})}
				byLower[key] = r
				order = append(order, key)
			}
			if _, dup := r.seen[doc.title]; !dup {
				r.seen[doc.title] = struct{}{}
				r.referrers = append(r.referrers, doc.title)
			}
		}
	}

	sort.Strings(order)
	out := make([]Orphan, 0, len(order))
	for _, key := range order {
		r := byLower[key]
		out = append(out, Orphan{Name: r.name, Referrers: r.referrers})
	}
	return out, nil
}
