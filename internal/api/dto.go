package api

import (
	"github.com/gweinger/zettelkasten/internal/review"
	"github.com/gweinger/zettelkasten/internal/writer"
)

// ApproveRequest selects which staged note to approve; empty means all.
type ApproveRequest struct {
	Path string `json:"path" example:"staging/concepts/20240301100000-chunking.md"`
}

// ApproveResponse reports what a single approval did.
type ApproveResponse struct {
	Path    string `json:"path" validate:"required"`
	Outcome string `json:"outcome" example:"merged" validate:"required"`
}

// FillRequest selects which stub to fill; empty means all.
type FillRequest struct {
	Path string `json:"path" example:"permanent-notes/20240301100000-chunking.md"`
}

// FillResponse reports stub-fill counts.
type FillResponse struct {
	Filled int `json:"filled" validate:"required"`
	Failed int `json:"failed"`
}

// StagingResponse wraps the staged-note listing.
type StagingResponse struct {
	Staged []writer.StagedNote `json:"staged" validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = review.NoteDetail

// Stats is the vault summary response (aliased from the domain layer).
type Stats = review.Stats
