package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/helm/internal/command"
	"github.com/kalambet/helm/internal/nav"
	"github.com/kalambet/helm/internal/search"
	"github.com/kalambet/helm/internal/session"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Session  *session.Session
	Searcher search.Searcher
}

// NewMCPServer creates an MCP server exposing the interpreter as tools and
// its state as resources.
func NewMCPServer(deps MCPDeps, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"helm",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("helm drives a portfolio control panel: run spoken-style commands, dispatch intents, and search projects."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("run_command",
			mcp.WithDescription("Run a command as if it had been spoken, e.g. \"show projects in ai\" or \"search for dashboard\". Returns the recognised intent and the resulting navigation state."),
			mcp.WithString("text", mcp.Description("Command text"), mcp.Required()),
		),
		mcpRunCommand(deps),
	)

	s.AddTool(
		mcp.NewTool("dispatch_intent",
			mcp.WithDescription("Apply a structured intent directly, bypassing the command parser."),
			mcp.WithString("kind", mcp.Description("Intent kind, e.g. show_section, show_expertise, search_scoped, step_expertise"), mcp.Required()),
			mcp.WithString("section", mcp.Description("Section for show_section: expertise, education, projects or skills")),
			mcp.WithString("expertise_id", mcp.Description("Expertise area id for area-scoped intents")),
			mcp.WithString("query", mcp.Description("Search query for search intents")),
			mcp.WithNumber("delta", mcp.Description("Step for step_expertise: 1 or -1")),
		),
		mcpDispatchIntent(deps),
	)

	s.AddTool(
		mcp.NewTool("search",
			mcp.WithDescription("Search project titles, descriptions and attached documents without changing what the panel shows."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithString("scope", mcp.Description("Optional expertise area id to restrict the search")),
		),
		mcpSearch(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"helm://state",
			"Panel State",
			mcp.WithResourceDescription("Current navigation state, search results, voice status and activity log"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceState(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"helm://catalog",
			"Catalog",
			mcp.WithResourceDescription("Expertise areas, projects and education"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceJSON(func(context.Context) (any, error) { return deps.Session.Catalog(), nil }),
	)

	s.AddResource(
		mcp.NewResource(
			"helm://help",
			"Command Help",
			mcp.WithResourceDescription("The command vocabulary"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceJSON(func(context.Context) (any, error) { return command.Help(deps.Session.Catalog()), nil }),
	)

	return s
}

func mcpRunCommand(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil || text == "" {
			return mcpError("text is required"), nil
		}
		out, err := deps.Session.Submit(ctx, text)
		if err != nil {
			return mcpError(fmt.Sprintf("command failed: %v", err)), nil
		}
		return mcpJSON(out), nil
	}
}

func mcpDispatchIntent(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kind, err := req.RequireString("kind")
		if err != nil {
			return mcpError("kind is required"), nil
		}

		var in command.Intent
		if err := in.Kind.UnmarshalText([]byte(kind)); err != nil {
			return mcpError(err.Error()), nil
		}
		if sec := req.GetString("section", ""); sec != "" {
			section, err := nav.ParseSection(sec)
			if err != nil {
				return mcpError(err.Error()), nil
			}
			in.Section = section
		}
		in.ExpertiseID = req.GetString("expertise_id", "")
		in.Query = req.GetString("query", "")
		in.Delta = req.GetInt("delta", 0)

		out, err := deps.Session.Dispatch(ctx, in)
		if err != nil {
			return mcpError(fmt.Sprintf("dispatch failed: %v", err)), nil
		}
		return mcpJSON(out), nil
	}
}

func mcpSearch(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil || query == "" {
			return mcpError("query is required"), nil
		}
		results, err := deps.Searcher.Search(ctx, query, req.GetString("scope", ""))
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}
		return mcpJSON(results), nil
	}
}

func mcpResourceState(deps MCPDeps) server.ResourceHandlerFunc {
	return mcpResourceJSON(func(ctx context.Context) (any, error) {
		snap, err := deps.Session.Snapshot(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading state: %w", err)
		}
		return snap, nil
	})
}

func mcpResourceJSON(load func(context.Context) (any, error)) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshalling %s: %w", req.Params.URI, err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpJSON(v any) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err))
	}
	return mcpText(string(b))
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
