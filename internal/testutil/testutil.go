// Package testutil provides shared test helpers for setting up temp vaults.
package testutil

import (
	"testing"

	"github.com/gweinger/zettelkasten/internal/vault"
)

// TempVault creates a temporary vault with the standard layout and
// returns its provider plus the root directory.
func TempVault(t *testing.T) (*vault.FS, string) {
	t.Helper()
	root := t.TempDir()
	if err := vault.EnsureLayout(root); err != nil {
		t.Fatalf("EnsureLayout: %v", err)
	}
	v, err := vault.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return v, root
}

// WriteNote writes a note into the vault, failing the test on error.
func WriteNote(t *testing.T, v *vault.FS, rel, content string) {
	t.Helper()
	if err := v.Write(rel, []byte(content)); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}
