package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/helm/internal/nav"
	"github.com/kalambet/helm/internal/search"
	"github.com/kalambet/helm/internal/session"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T) MCPDeps {
	t.Helper()
	s := startSession(t, nil)
	return MCPDeps{
		Session:  s,
		Searcher: search.NewCatalogSearcher(s.Catalog(), 0),
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func callTool(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := h(context.Background(), makeCallToolRequest(name, args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

// --- tests ---

func TestMCPTool_RunCommand(t *testing.T) {
	deps := newTestMCPDeps(t)

	result := callTool(t, mcpRunCommand(deps), "run_command", map[string]any{"text": "show skills in data science"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var out session.Outcome
	if err := json.Unmarshal([]byte(toolText(t, result)), &out); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	want := nav.State{Section: nav.SectionSkills, ActiveExpertiseID: "data-science"}
	if out.State != want {
		t.Errorf("state = %+v, want %+v", out.State, want)
	}
}

func TestMCPTool_RunCommand_MissingText(t *testing.T) {
	deps := newTestMCPDeps(t)
	result := callTool(t, mcpRunCommand(deps), "run_command", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error result")
	}
}

func TestMCPTool_DispatchIntent(t *testing.T) {
	deps := newTestMCPDeps(t)
	h := mcpDispatchIntent(deps)

	result := callTool(t, h, "dispatch_intent", map[string]any{"kind": "show_expertise", "expertise_id": "fullstack"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	result = callTool(t, h, "dispatch_intent", map[string]any{"kind": "step_expertise", "delta": 1})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	var out session.Outcome
	json.Unmarshal([]byte(toolText(t, result)), &out)
	// fullstack is last, so stepping forward wraps to the first area.
	if out.State.ActiveExpertiseID != "isd" {
		t.Errorf("active = %q, want isd", out.State.ActiveExpertiseID)
	}

	result = callTool(t, h, "dispatch_intent", map[string]any{"kind": "show_section", "section": "education"})
	json.Unmarshal([]byte(toolText(t, result)), &out)
	if out.State.Section != nav.SectionEducation {
		t.Errorf("section = %q, want education", out.State.Section)
	}
}

func TestMCPTool_DispatchIntent_Invalid(t *testing.T) {
	deps := newTestMCPDeps(t)
	h := mcpDispatchIntent(deps)

	for _, args := range []map[string]any{
		{},
		{"kind": "fly"},
		{"kind": "show_section", "section": "hobbies"},
	} {
		if result := callTool(t, h, "dispatch_intent", args); !result.IsError {
			t.Errorf("args %v: expected error result", args)
		}
	}
}

func TestMCPTool_Search(t *testing.T) {
	deps := newTestMCPDeps(t)

	result := callTool(t, mcpSearch(deps), "search", map[string]any{"query": "platform", "scope": "ml"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	var results []search.Result
	if err := json.Unmarshal([]byte(toolText(t, result)), &results); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(results) != 1 || results[0].AreaID != "ml" {
		t.Errorf("results = %+v", results)
	}

	// The panel is untouched by a tool search.
	snap, err := deps.Session.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if snap.State != nav.Initial() || snap.Searching {
		t.Errorf("state changed: %+v", snap.State)
	}
}

func TestMCPTool_Search_EmptyQuery(t *testing.T) {
	deps := newTestMCPDeps(t)
	if result := callTool(t, mcpSearch(deps), "search", map[string]any{"query": ""}); !result.IsError {
		t.Fatal("expected error result")
	}
}

func TestMCPResource_State(t *testing.T) {
	deps := newTestMCPDeps(t)
	if _, err := deps.Session.Submit(context.Background(), "show education"); err != nil {
		t.Fatal(err)
	}

	contents, err := mcpResourceState(deps)(context.Background(), makeReadResourceRequest("helm://state"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	if tc.URI != "helm://state" || tc.MIMEType != "application/json" {
		t.Errorf("contents = %+v", tc)
	}
	var snap session.Snapshot
	if err := json.Unmarshal([]byte(tc.Text), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.State.Section != nav.SectionEducation {
		t.Errorf("section = %q", snap.State.Section)
	}
}

func TestMCPResource_StateClosedSession(t *testing.T) {
	deps := newTestMCPDeps(t)
	deps.Session.Close()
	<-deps.Session.Done()

	if _, err := mcpResourceState(deps)(context.Background(), makeReadResourceRequest("helm://state")); err == nil {
		t.Fatal("expected error for closed session")
	}
}

func TestNewMCPServer_Registers(t *testing.T) {
	deps := newTestMCPDeps(t)
	s := NewMCPServer(deps, "test")

	msg := s.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	b, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"run_command", "dispatch_intent", "search"} {
		if !strings.Contains(string(b), `"`+name+`"`) {
			t.Errorf("tools/list missing %s: %s", name, b)
		}
	}
}
