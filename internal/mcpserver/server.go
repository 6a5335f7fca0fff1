// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes NoteHub tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Voelzke/notehub/internal/noteservice"
)

// Server wraps the MCP server with NoteHub tools. One server instance acts
// on behalf of a single owner, matching the per-user stdio session model.
type Server struct {
	mcp   *server.MCPServer
	svc   *noteservice.Service
	owner string
}

// New creates an MCP server with all NoteHub tools registered.
func New(svc *noteservice.Service, owner string) *Server {
	s := &Server{svc: svc, owner: owner}

	s.mcp = server.NewMCPServer(
		"NoteHub",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Search notes by title and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a note by its numeric id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Numeric note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. Content MAY start with the metadata "+
			"header described by the get_note_contract tool; use it to create tasks "+
			"with due dates and reminders."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title")),
		mcp.WithString("content", mcp.Description("Markdown content, optionally with a metadata header")),
		mcp.WithString("folder", mcp.Description("Folder path relative to the note root")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes and tasks, actionable work first."),
		mcp.WithString("tag", mcp.Description("Optional tag to filter by")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes that link to the given note via [[wikilinks]]."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Numeric note id")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the canonical NoteHub note format contract. "+
			"Call this before creating notes with metadata headers."),
	), s.getNoteContract)

	s.mcp.AddResource(
		mcp.NewResource("notehub://note-format", "Note Format Contract",
			mcp.WithResourceDescription("Canonical note format including the metadata header."),
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

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, s.owner, query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := requireID(req)
	if !ok {
		return mcp.NewToolResultError("id must be a positive integer"), nil
	}
	note, err := s.svc.Find(ctx, s.owner, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %d", id)), nil
	}
	return mcp.NewToolResultText(note.Content), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content := req.GetString("content", "")
	folder := req.GetString("folder", "")

	note, err := s.svc.Create(ctx, s.owner, title, content, folder, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %q (id %d)", note.Title, note.ID)), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := req.GetString("tag", "")
	notes, err := s.svc.FindAll(ctx, s.owner, tag)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var lines []string
	for _, n := range notes {
		line := fmt.Sprintf("%d\t%s", n.ID, n.Title)
		if n.Type == "task" {
			line += "\t[" + n.Status + "]"
			if n.Due != "" {
				line += "\tdue " + n.Due
			}
		}
		lines = append(lines, line)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, ok := requireID(req)
	if !ok {
		return mcp.NewToolResultError("id must be a positive integer"), nil
	}
	links, err := s.svc.Backlinks(ctx, s.owner, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(links) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	var lines []string
	for _, l := range links {
		lines = append(lines, fmt.Sprintf("%s:%d\t%s", l.Title, l.Line, l.Context))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getNoteContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "notehub://note-format",
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

func requireID(req mcp.CallToolRequest) (uint64, bool) {
	raw, err := req.RequireString("id")
	if err != nil {
		return 0, false
	}
	var id uint64
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
