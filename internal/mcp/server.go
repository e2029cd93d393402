// Package mcp provides an MCP (Model Context Protocol) server that
// exposes the release-notes generator as MCP tools for AI assistants.
package mcp

import (
	"context"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/relnotes/pkg/models"
)

// GenerateParams selects what a generator invocation produces.
type GenerateParams struct {
	Query   string
	Version string
	DryRun  bool
}

// GenerateOutcome reports a completed generator invocation.
type GenerateOutcome struct {
	Title    string
	Items    int
	Degraded int
	Paths    []string
	Markdown string
}

// Generator runs the release-notes pipeline on behalf of a tool call.
type Generator interface {
	GenerateReleaseNotes(ctx context.Context, params GenerateParams) (*GenerateOutcome, error)
}

// Server wraps the generator and exposes it as MCP tools.
type Server struct {
	server    *gomcp.Server
	generator Generator
	cfg       *models.RunConfig
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(generator Generator, cfg *models.RunConfig, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		generator: generator,
		cfg:       cfg,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "relnotes", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type generateInput struct {
	Query   string `json:"query,omitempty" jsonschema:"saved query name or id; defaults to the configured default query"`
	Version string `json:"version,omitempty" jsonschema:"release version string; defaults to a date-based version"`
	DryRun  bool   `json:"dry_run,omitempty" jsonschema:"render without writing files; the markdown is returned inline"`
}

type generateOutput struct {
	Title    string   `json:"title"`
	Items    int      `json:"items"`
	Degraded int      `json:"degraded"`
	Paths    []string `json:"paths,omitempty"`
	Markdown string   `json:"markdown,omitempty"`
}

type listQueriesInput struct{}

type queryOutput struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type listQueriesOutput struct {
	Queries []queryOutput `json:"queries"`
	Count   int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "generate_release_notes",
		Description: "Generate release notes for a saved work-item query. Summarizes every item with the configured model and writes Markdown and HTML artifacts (unless dry_run is set).",
	}, s.handleGenerate)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_queries",
		Description: "List the saved work-item queries configured for this project.",
	}, s.handleListQueries)
}

// --- Tool handlers ---

func (s *Server) handleGenerate(ctx context.Context, _ *gomcp.CallToolRequest, input generateInput) (*gomcp.CallToolResult, generateOutput, error) {
	outcome, err := s.generator.GenerateReleaseNotes(ctx, GenerateParams{
		Query:   input.Query,
		Version: input.Version,
		DryRun:  input.DryRun,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("generating release notes: %s", err)), generateOutput{}, nil
	}

	out := generateOutput{
		Title:    outcome.Title,
		Items:    outcome.Items,
		Degraded: outcome.Degraded,
		Paths:    outcome.Paths,
	}
	if input.DryRun {
		out.Markdown = outcome.Markdown
	}
	return nil, out, nil
}

func (s *Server) handleListQueries(_ context.Context, _ *gomcp.CallToolRequest, _ listQueriesInput) (*gomcp.CallToolResult, listQueriesOutput, error) {
	var out listQueriesOutput
	if s.cfg.Tracker.Query != "" {
		out.Queries = append(out.Queries, queryOutput{Name: "(default)", ID: s.cfg.Tracker.Query})
	}
	for _, q := range s.cfg.Tracker.Queries {
		out.Queries = append(out.Queries, queryOutput{Name: q.Name, ID: q.ID})
	}
	out.Count = len(out.Queries)
	return nil, out, nil
}

// errorResult builds a CallToolResult carrying an error message.
func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		IsError: true,
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
	}
}
