// Package mcpserver exposes the changeset reviewer as an MCP tool over
// stdio.
//
// Stdout carries JSON-RPC frames only; logs go to stderr through slog.
//
// Example usage:
//
//	srv := mcpserver.New(reviewer, mcpserver.DefaultConfig())
//	if err := srv.Run(ctx); err != nil {
//	    return err
//	}
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/unneeks/stewardagent/pkg/governance"
	"github.com/unneeks/stewardagent/pkg/review"
)

// ToolReviewChangeset is the name of the single exposed tool.
const ToolReviewChangeset = "review_changeset"

// Config configures the server.
type Config struct {
	// Name is the implementation name (default: "steward-agent")
	Name string

	// Version is the implementation version (default: "1.0.0")
	Version string
}

// DefaultConfig returns the default server identity.
func DefaultConfig() *Config {
	return &Config{Name: "steward-agent", Version: "1.0.0"}
}

// Server is the MCP tool server.
type Server struct {
	mcp      *mcp.Server
	reviewer *review.Reviewer
	logger   *slog.Logger
}

// New creates a server with the review tool registered.
func New(reviewer *review.Reviewer, cfg *Config) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		reviewer: reviewer,
		logger:   slog.Default().With("component", "mcpserver"),
	}
	s.registerTools()
	return s
}

// Run serves on stdin/stdout until ctx is cancelled or the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting MCP server on stdio")
	if err := s.mcp.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

type reviewInput struct {
	Title  string `json:"pr_title" jsonschema:"A title for this change"`
	Type   string `json:"changeset_type" jsonschema:"Either 'code' for a SQL model change or 'policy' for a business term rule change"`
	Entity string `json:"changed_entity" jsonschema:"The exact name of the modified entity, e.g. 'gold_fct_approvals' or 'BT_001'"`
	Diff   string `json:"diff_text" jsonschema:"The unified diff containing the changes"`
}

type reviewOutput struct {
	Impact          []*governance.ImpactPath `json:"impact" jsonschema:"Lineage paths touched by the change"`
	Observations    []string                 `json:"observations" jsonschema:"Heuristic observations about the change"`
	Recommendations []*review.Recommendation `json:"recommendations" jsonschema:"Enforcement opportunities recorded as pending actions"`
	Report          string                   `json:"report" jsonschema:"Markdown review report"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolReviewChangeset,
		Description: "Reviews code (SQL) or policy changes against the data governance lineage graph, analyzes the risk, and records enforcement suggestions as pending actions.",
	}, s.handleReviewChangeset)
}

func (s *Server) handleReviewChangeset(ctx context.Context, req *mcp.CallToolRequest, args reviewInput) (*mcp.CallToolResult, reviewOutput, error) {
	s.logger.Debug("review_changeset called", "title", args.Title, "type", args.Type, "entity", args.Entity)

	res, err := s.reviewer.Review(ctx, &review.Request{
		Title:  args.Title,
		Type:   review.ChangesetType(args.Type),
		Entity: args.Entity,
		Diff:   args.Diff,
	})
	if err != nil {
		s.logger.Error("review failed", "error", err)
		return nil, reviewOutput{}, err
	}

	out := reviewOutput{
		Impact:          res.Impact,
		Observations:    res.Observations,
		Recommendations: res.Recommendations,
		Report:          res.Report,
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("Steward Agent successfully reviewed the change!\n\n%s", res.Report)},
		},
	}, out, nil
}
