package vault

import (
	"os"
	"path/filepath"
	"strings"
)

// Standard vault subdirectories, relative to the vault root.
const (
	PermanentNotesDir = "permanent-notes"
	SourcesDir        = "sources"
	FleetingNotesDir  = "fleeting-notes"
	InboxDir          = "inbox"
	StagingDir        = "staging"
)

// Staging and inbox are split by note kind so the review flow knows
// where an approved file belongs.
var layoutDirs = []string{
	PermanentNotesDir,
	SourcesDir,
	FleetingNotesDir,
	filepath.Join(InboxDir, "concepts"),
	filepath.Join(InboxDir, "sources"),
	filepath.Join(InboxDir, "archive"),
	filepath.Join(StagingDir, "concepts"),
	filepath.Join(StagingDir, "sources"),
}

// StagingConcepts returns the staging subdirectory for concept notes.
func StagingConcepts() string { return filepath.Join(StagingDir, "concepts") }

// StagingSources returns the staging subdirectory for source notes.
func StagingSources() string { return filepath.Join(StagingDir, "sources") }

// EnsureLayout creates the standard vault directory tree under root.
func EnsureLayout(root string) error {
	for _, dir := range layoutDirs {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return err
		}
	}
	return nil
}

// IsIndexFile reports whether name is a generated index file that corpus
// scans must skip. Matching is case-insensitive on the filename stem.
func IsIndexFile(name string) bool {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	switch strings.ToUpper(stem) {
	case "INDEX", "PEOPLE-INDEX", "PERSON-INDEX":
		return true
	}
	return false
}
