package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/puchi-app/puchi/internal/insights"
	"github.com/puchi-app/puchi/internal/journal"
	"github.com/puchi-app/puchi/internal/models"
	"github.com/puchi-app/puchi/internal/testutil"
)

func testServer(t *testing.T) (*Server, *journal.Repository) {
	t.Helper()

	repo := journal.NewRepository(testutil.TestKV(t), testutil.TestBlobStore(t))
	t.Cleanup(repo.Close)
	repo.Load()

	return New(repo), repo
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so dispatch to
	// the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "search_entries":
		result, err = srv.searchEntries(ctx, req)
	case "list_entries":
		result, err = srv.listEntries(ctx, req)
	case "read_entry":
		result, err = srv.readEntry(ctx, req)
	case "add_entry":
		result, err = srv.addEntry(ctx, req)
	case "get_insights":
		result, err = srv.getInsights(ctx, req)
	case "get_entry_contract":
		result, err = srv.getEntryContract(ctx, req)
	case "attach_media":
		result, err = srv.attachMedia(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestAddAndReadEntry(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "add_entry", map[string]interface{}{
		"content": "Beach day\nWe watched the sunset.",
		"mood":    "happy",
		"tags":    "beach, Sunset",
	})
	if r.IsError {
		t.Fatalf("add_entry failed: %s", resultText(r))
	}
	var created models.Entry
	if err := json.Unmarshal([]byte(resultText(r)), &created); err != nil {
		t.Fatal(err)
	}
	if created.Title != "Beach day" {
		t.Errorf("derived title = %q", created.Title)
	}
	// Tags are normalized to lowercase on save.
	if len(created.Tags) != 2 || created.Tags[1] != "sunset" {
		t.Errorf("tags = %v", created.Tags)
	}

	r = callTool(t, srv, "read_entry", map[string]interface{}{"id": created.ID.String()})
	if r.IsError {
		t.Fatalf("read_entry failed: %s", resultText(r))
	}
	var got models.Entry
	_ = json.Unmarshal([]byte(resultText(r)), &got)
	if got.Content != "Beach day\nWe watched the sunset." {
		t.Errorf("content = %q", got.Content)
	}
}

func TestAddEntryRejectsUnknownMood(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "add_entry", map[string]interface{}{
		"content": "hi",
		"mood":    "ecstatic",
	})
	if !r.IsError {
		t.Error("expected error for unknown mood")
	}
}

func TestSearchEntries(t *testing.T) {
	srv, _ := testServer(t)

	callTool(t, srv, "add_entry", map[string]interface{}{"content": "picnic in the park"})
	callTool(t, srv, "add_entry", map[string]interface{}{"content": "movie night at home"})

	r := callTool(t, srv, "search_entries", map[string]interface{}{"query": "picnic"})
	var hits []entrySummary
	if err := json.Unmarshal([]byte(resultText(r)), &hits); err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].Title != "picnic in the park" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestListEntriesValidatesFilter(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "list_entries", map[string]interface{}{"filter": "junk"})
	if !r.IsError {
		t.Error("expected error for unknown filter")
	}
}

func TestReadEntryMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_entry", map[string]interface{}{"id": "0c6e4f5a-3e57-4db5-9b9f-000000000000"})
	if !r.IsError {
		t.Error("expected error for missing entry")
	}
}

func TestGetInsights(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "add_entry", map[string]interface{}{"content": "one two three"})

	r := callTool(t, srv, "get_insights", map[string]interface{}{})
	var stats insights.Insights
	if err := json.Unmarshal([]byte(resultText(r)), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.TotalEntries != 1 || stats.TotalWords != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestEntryContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_entry_contract", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "mood") || !strings.Contains(text, "attach_media") {
		t.Errorf("contract looks wrong: %q", text)
	}
}

func TestAttachMediaDataURI(t *testing.T) {
	srv, repo := testServer(t)

	r := callTool(t, srv, "add_entry", map[string]interface{}{"content": "with a photo"})
	var created models.Entry
	_ = json.Unmarshal([]byte(resultText(r)), &created)

	payload := base64.StdEncoding.EncodeToString([]byte("fake png bytes"))
	r = callTool(t, srv, "attach_media", map[string]interface{}{
		"entry_id": created.ID.String(),
		"url":      "data:image/png;base64," + payload,
		"caption":  "us",
	})
	if r.IsError {
		t.Fatalf("attach_media failed: %s", resultText(r))
	}
	var res attachResult
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatal(err)
	}
	if res.Type != "photo" || res.Stored != "inline" {
		t.Errorf("result = %+v", res)
	}

	got, err := repo.Entry(created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.MediaItems) != 1 || got.MediaItems[0].Caption != "us" {
		t.Errorf("media items = %+v", got.MediaItems)
	}
}

func TestAttachMediaUnknownEntry(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "attach_media", map[string]interface{}{
		"entry_id": "0c6e4f5a-3e57-4db5-9b9f-000000000000",
		"url":      "data:image/png;base64,aGk=",
	})
	if !r.IsError {
		t.Error("expected error for unknown entry")
	}
}
