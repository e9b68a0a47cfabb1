// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the vault review workflow to LLM clients via stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gweinger/zettelkasten/internal/review"
	"github.com/gweinger/zettelkasten/internal/vault"
)

// Server wraps the MCP server with review tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *review.Service
	vault vault.Provider
}

// New creates a new MCP server with all review tools registered.
func New(svc *review.Service, v vault.Provider) *Server {
	s := &Server{svc: svc, vault: v}

	s.mcp = server.NewMCPServer(
		"Zettelkasten",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("vault_stats",
		mcp.WithDescription("Summarize the vault: note, stub, orphan, and staged counts."),
	), s.vaultStats)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path (e.g. permanent-notes/20240101000000-chunking.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("list_staging",
		mcp.WithDescription("List notes in staging awaiting review, with their merge targets."),
	), s.listStaging)

	s.mcp.AddTool(mcp.NewTool("approve_note",
		mcp.WithDescription("Approve a staged note: merge it into its target or move it "+
			"into the final corpus. Omit path to approve everything in staging."),
		mcp.WithString("path", mcp.Description("Staged note path (empty approves all)")),
	), s.approveNote)

	s.mcp.AddTool(mcp.NewTool("discard_note",
		mcp.WithDescription("Delete a staged note without applying it."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Staged note path")),
	), s.discardNote)

	s.mcp.AddTool(mcp.NewTool("find_stubs",
		mcp.WithDescription("List stub notes (frontmatter but no body content)."),
	), s.findStubs)

	s.mcp.AddTool(mcp.NewTool("fill_stub",
		mcp.WithDescription("Generate a description for a stub note from the notes that "+
			"link to it. Omit path to fill every stub."),
		mcp.WithString("path", mcp.Description("Stub note path (empty fills all)")),
	), s.fillStub)

	s.mcp.AddTool(mcp.NewTool("find_orphans",
		mcp.WithDescription("List wikilinked concepts that have no note file yet."),
	), s.findOrphans)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the named concept."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Concept display name (case-insensitive)")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("rebuild_index",
		mcp.WithDescription("Regenerate the concept, people, and source index documents."),
	), s.rebuildIndex)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical note format contract. "+
			"Call this before writing notes to ensure correct structure."),
	), s.getNoteContract)

	s.mcp.AddTool(mcp.NewTool("upload_asset",
		mcp.WithDescription("Download an image or PDF from a URL (or decode a data: URI) "+
			"and store it in the vault attachments directory."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or base64 data: URI")),
		mcp.WithString("filename", mcp.Description("Optional filename override")),
	), s.uploadAsset)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource("zettel://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical Markdown note format that all notes must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) vaultStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.svc.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(stats), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.GetNote(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(n.Content), nil
}

func (s *Server) listStaging(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	staged, err := s.svc.ListStaging(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(staged) == 0 {
		return mcp.NewToolResultText("staging is empty"), nil
	}
	return jsonResult(staged), nil
}

func (s *Server) approveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := ""
	if v, err := req.RequireString("path"); err == nil {
		path = v
	}

	if path == "" {
		counts, failed, err := s.svc.ApproveAll(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		byName := map[string]int{"failed": failed}
		for outcome, n := range counts {
			byName[outcome.String()] = n
		}
		return jsonResult(byName), nil
	}

	outcome, err := s.svc.Approve(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s: %s", outcome, path)), nil
}

func (s *Server) discardNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Discard(ctx, path); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("discarded: %s", path)), nil
}

func (s *Server) findStubs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stubs, err := s.svc.Stubs(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(stubs) == 0 {
		return mcp.NewToolResultText("no stubs found"), nil
	}
	return jsonResult(stubs), nil
}

func (s *Server) fillStub(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := ""
	if v, err := req.RequireString("path"); err == nil {
		path = v
	}

	if path != "" {
		if err := s.svc.FillStub(ctx, path); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("filled: %s", path)), nil
	}

	filled, failed, err := s.svc.FillAllStubs(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("filled %d stubs, %d failed", filled, failed)), nil
}

func (s *Server) findOrphans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	orphans, err := s.svc.Orphans(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(orphans) == 0 {
		return mcp.NewToolResultText("no orphans found"), nil
	}
	return jsonResult(orphans), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	var lines []string
	for _, b := range bl {
		lines = append(lines, fmt.Sprintf("%s (%s)", b.Title, b.Path))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) rebuildIndex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.svc.RebuildIndex(ctx); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("indexes rebuilt"), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "zettel://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
