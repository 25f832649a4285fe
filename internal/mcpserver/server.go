// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes journal tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/puchi-app/puchi/internal/insights"
	"github.com/puchi-app/puchi/internal/journal"
	"github.com/puchi-app/puchi/internal/models"
)

// Server wraps the MCP server with journal tools.
type Server struct {
	mcp  *server.MCPServer
	repo *journal.Repository
}

// New creates a new MCP server with all journal tools registered.
func New(repo *journal.Repository) *Server {
	s := &Server{repo: repo}

	s.mcp = server.NewMCPServer(
		"Puchi",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_entries",
		mcp.WithDescription("Substring search across entry titles, content, tags and location names."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchEntries)

	s.mcp.AddTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List active journal entries, optionally filtered and sorted."),
		mcp.WithString("filter", mcp.Description("Category filter: all, bookmarked, photos, videos, voice, locations, thisWeek, thisMonth")),
		mcp.WithString("sort", mcp.Description("Sort field: date, title, wordCount (newest/largest first)")),
	), s.listEntries)

	s.mcp.AddTool(mcp.NewTool("read_entry",
		mcp.WithDescription("Read one journal entry in full, media metadata included."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry UUID")),
	), s.readEntry)

	s.mcp.AddTool(mcp.NewTool("add_entry",
		mcp.WithDescription("Create a new journal entry. Fields MUST follow the entry format "+
			"contract (closed mood set, comma-separated tags). Read the contract first via "+
			"the get_entry_contract tool or the puchi://entry-format resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Journal text; first line becomes the title unless one is given")),
		mcp.WithString("title", mcp.Description("Optional explicit title")),
		mcp.WithString("mood", mcp.Description("Optional mood from the fixed set")),
		mcp.WithString("tags", mcp.Description("Optional comma-separated tags")),
	), s.addEntry)

	s.mcp.AddTool(mcp.NewTool("get_insights",
		mcp.WithDescription("Derived journal statistics: totals, media counts, streaks, top moods/tags/locations."),
	), s.getInsights)

	s.mcp.AddTool(mcp.NewTool("get_entry_contract",
		mcp.WithDescription("Returns the canonical Puchi entry format contract. "+
			"Call this before creating entries to ensure correct structure."),
	), s.getEntryContract)

	// Resource: entry format contract.
	s.mcp.AddResource(
		mcp.NewResource("puchi://entry-format", "Entry Format Contract",
			mcp.WithResourceDescription("Canonical journal entry shape that all created entries must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEntryFormatResource,
	)

	s.registerAttachMedia()

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

// entrySummary is the compact listing shape returned by search and list.
type entrySummary struct {
	ID    string    `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
	Mood  string    `json:"mood,omitempty"`
	Words int       `json:"words"`
	Media int       `json:"media,omitempty"`
}

func summarize(entries []models.Entry) []entrySummary {
	out := make([]entrySummary, len(entries))
	for i, e := range entries {
		out[i] = entrySummary{
			ID:    e.ID.String(),
			Title: e.Title,
			Date:  e.Date,
			Mood:  string(e.Mood),
			Words: e.WordCount(),
			Media: len(e.MediaItems),
		}
	}
	return out
}

func (s *Server) searchEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entries := s.repo.FilteredEntries(journal.Query{Search: query})
	out, _ := json.MarshalIndent(summarize(entries), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var q journal.Query
	if f, err := req.RequireString("filter"); err == nil {
		q.Filter = journal.Filter(f)
	}
	if f, err := req.RequireString("sort"); err == nil {
		q.Sort = journal.SortField(f)
	}
	if !q.Filter.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown filter: %s", q.Filter)), nil
	}
	if !q.Sort.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown sort field: %s", q.Sort)), nil
	}
	entries := s.repo.FilteredEntries(q)
	out, _ := json.MarshalIndent(summarize(entries), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid entry id: %s", raw)), nil
	}
	e, err := s.repo.Entry(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", raw)), nil
	}
	out, _ := json.MarshalIndent(e, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	e := models.Entry{Content: content}
	if v, tErr := req.RequireString("title"); tErr == nil {
		e.Title = v
	}
	if v, mErr := req.RequireString("mood"); mErr == nil {
		e.Mood = models.Mood(v)
	}
	if v, tErr := req.RequireString("tags"); tErr == nil {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				e.Tags = append(e.Tags, tag)
			}
		}
	}

	created, err := s.repo.AddEntry(e)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(created, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getInsights(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := insights.Compute(s.repo.Entries(), s.repo.Now())
	out, _ := json.MarshalIndent(stats, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getEntryContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EntryFormatContract), nil
}

func (s *Server) readEntryFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "puchi://entry-format",
			MIMEType: "text/markdown",
			Text:     EntryFormatContract,
		},
	}, nil
}
