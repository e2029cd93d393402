// Package cli implements the relnotes command-line interface.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/relnotes/internal/core"
	"github.com/valter-silva-au/relnotes/pkg/models"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// Package-level dependencies set during application wiring.
var (
	// BasePath is the directory holding .relnotes.yaml.
	BasePath string
	// Config is the immutable run configuration.
	Config *models.RunConfig
	// ConfigMgr validates the configuration before a run.
	ConfigMgr core.ConfigurationManager
	// Generator runs the release-notes pipeline.
	Generator ReleaseGenerator
)

// GenerateOptions selects what one pipeline run produces.
type GenerateOptions struct {
	// Query is a configured saved-query name or a raw query id; empty
	// selects the default query.
	Query string
	// Version is the release version string; empty derives a date-based
	// version.
	Version string
	// DryRun renders without writing or notifying.
	DryRun bool
	// Progress, when non-nil, receives every settled summarization call.
	Progress func(core.ProgressEvent)
}

// GenerateResult is the outcome of one pipeline run.
type GenerateResult struct {
	Document *models.ReleaseDocument
	Markdown string
	HTML     string
	Paths    []string
}

// ReleaseGenerator runs the full release-notes pipeline. Implemented by
// the App so the CLI and the MCP server share one code path.
type ReleaseGenerator interface {
	Generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error)
}

var rootCmd = &cobra.Command{
	Use:   "relnotes",
	Short: "relnotes - AI-assisted release notes generator",
	Long: `relnotes turns the work items of a release query into structured,
human-readable release notes.

It fetches work items from the tracker, reconstructs the feature
hierarchy, summarizes each item and the release as a whole with a
language model, and renders the result as Markdown and HTML.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("relnotes %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
