package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gweinger/zettelkasten/internal/apperr"
	"github.com/gweinger/zettelkasten/internal/review"
)

// Handler holds API route handlers.
type Handler struct {
	svc *review.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *review.Service) *Handler {
	return &Handler{svc: svc}
}

// wildcardPath extracts the vault-relative path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. staging%2Fx.md).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		slog.Error("stats failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetNote handles GET /api/notes/*.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), path)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("get note failed", slog.String("path", path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// ListStaging handles GET /api/staging.
func (h *Handler) ListStaging(w http.ResponseWriter, r *http.Request) {
	staged, err := h.svc.ListStaging(r.Context())
	if err != nil {
		slog.Error("list staging failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, StagingResponse{Staged: staged})
}

// Approve handles POST /api/staging/approve. An empty path approves every
// staged note.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	if req.Path == "" {
		counts, failed, err := h.svc.ApproveAll(r.Context())
		if err != nil {
			slog.Error("approve all failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
			return
		}
		resp := map[string]int{"failed": failed}
		for outcome, n := range counts {
			resp[outcome.String()] = n
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	outcome, err := h.svc.Approve(r.Context(), req.Path)
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("target filename already taken"))
			return
		}
		slog.Error("approve failed", slog.String("path", req.Path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ApproveResponse{Path: req.Path, Outcome: outcome.String()})
}

// Discard handles DELETE /api/staging/*.
func (h *Handler) Discard(w http.ResponseWriter, r *http.Request) {
	path := wildcardPath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if !strings.HasPrefix(path, "staging/") {
		path = "staging/" + path
	}
	if err := h.svc.Discard(r.Context(), path); err != nil {
		slog.Error("discard failed", slog.String("path", path), slog.String("error", err.Error()))
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stubs handles GET /api/stubs.
func (h *Handler) Stubs(w http.ResponseWriter, r *http.Request) {
	stubs, err := h.svc.Stubs(r.Context())
	if err != nil {
		slog.Error("stubs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stubs": stubs})
}

// FillStubs handles POST /api/stubs/fill. An empty path fills every stub.
func (h *Handler) FillStubs(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req FillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	if req.Path != "" {
		if err := h.svc.FillStub(r.Context(), req.Path); err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				writeJSON(w, http.StatusNotFound, errorBody("not a stub"))
				return
			}
			slog.Error("stub fill failed", slog.String("path", req.Path), slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errorBody(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, FillResponse{Filled: 1})
		return
	}

	filled, failed, err := h.svc.FillAllStubs(r.Context())
	if err != nil {
		slog.Error("stub fill all failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, FillResponse{Filled: filled, Failed: failed})
}

// Orphans handles GET /api/orphans.
func (h *Handler) Orphans(w http.ResponseWriter, r *http.Request) {
	orphans, err := h.svc.Orphans(r.Context())
	if err != nil {
		slog.Error("orphans failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orphans": orphans})
}

// Backlinks handles GET /api/backlinks?name=<concept>.
func (h *Handler) Backlinks(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'name' is required"))
		return
	}
	links, err := h.svc.Backlinks(r.Context(), name)
	if err != nil {
		slog.Error("backlinks failed", slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"backlinks": links})
}

// RebuildIndex handles POST /api/index/rebuild.
func (h *Handler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.RebuildIndex(r.Context()); err != nil {
		slog.Error("index rebuild failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
