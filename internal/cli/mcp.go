package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	relmcp "github.com/valter-silva-au/relnotes/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the relnotes MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relnotes MCP server on stdio",
	Long: `Start the relnotes MCP server on stdio transport.

The server exposes the generator as MCP tools that AI assistants can
call: generate_release_notes, list_queries.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Generator == nil {
			return fmt.Errorf("generator not initialized")
		}

		srv := relmcp.NewServer(&mcpGeneratorAdapter{gen: Generator}, Config, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

// mcpGeneratorAdapter adapts the CLI's ReleaseGenerator to the MCP
// server's Generator contract.
type mcpGeneratorAdapter struct {
	gen ReleaseGenerator
}

func (a *mcpGeneratorAdapter) GenerateReleaseNotes(ctx context.Context, params relmcp.GenerateParams) (*relmcp.GenerateOutcome, error) {
	result, err := a.gen.Generate(ctx, GenerateOptions{
		Query:   params.Query,
		Version: params.Version,
		DryRun:  params.DryRun,
	})
	if err != nil {
		return nil, err
	}
	return &relmcp.GenerateOutcome{
		Title:    result.Document.Title,
		Items:    result.Document.TotalItems,
		Degraded: result.Document.Degraded,
		Paths:    result.Paths,
		Markdown: result.Markdown,
	}, nil
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
