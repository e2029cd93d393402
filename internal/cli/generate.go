package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/relnotes/internal/core"
	"github.com/valter-silva-au/relnotes/pkg/models"
)

// generateFlags holds the flags of the generate command.
type generateFlags struct {
	query   string
	version string
	dryRun  bool
	plain   bool
}

var (
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	fallbackStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	headerStyle   = lipgloss.NewStyle().Bold(true)
)

func newGenerateCommand() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate release notes from a saved work-item query",
		Long: `Generate release notes for one release.

The saved query is run against the tracker, the work-item hierarchy is
reconstructed, every item is summarized by the configured model (falling
back to its description when summarization fails), and the result is
written as Markdown and HTML under the configured output folder.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if Generator == nil {
				return fmt.Errorf("generator not initialized")
			}

			// Interrupts cancel the run; in-flight summarization calls
			// are abandoned and no partial document is rendered.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := GenerateOptions{
				Query:   flags.query,
				Version: flags.version,
				DryRun:  flags.dryRun,
			}

			interactive := !flags.plain && isatty.IsTerminal(os.Stdout.Fd())
			var done func(*GenerateResult, error) error
			if interactive {
				opts.Progress, done = startProgressDisplay()
			} else {
				opts.Progress = func(ev core.ProgressEvent) {
					if ev.Kind != core.KindItem {
						return
					}
					marker := "ok"
					if ev.Status == models.SummaryFallback {
						marker = "fallback"
					}
					fmt.Printf("  summarized #%d %s [%s]\n", ev.ItemID, ev.Title, marker)
				}
			}

			result, err := Generator.Generate(ctx, opts)
			if done != nil {
				if finErr := done(result, err); finErr != nil && err == nil {
					err = finErr
				}
			}
			if err != nil {
				return err
			}

			if flags.dryRun {
				fmt.Print(result.Markdown)
				return nil
			}

			printRunSummary(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.query, "query", "", "Saved query name or id (defaults to tracker.query)")
	cmd.Flags().StringVar(&flags.version, "version", "", "Release version string (defaults to a date-based version)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Print the Markdown to stdout instead of writing files")
	cmd.Flags().BoolVar(&flags.plain, "plain", false, "Disable the interactive progress display")

	return cmd
}

// printRunSummary prints the styled post-run report.
func printRunSummary(result *GenerateResult) {
	doc := result.Document
	fmt.Println(headerStyle.Render(doc.Title))
	fmt.Printf("  Items:    %d\n", doc.TotalItems)
	if doc.Degraded > 0 {
		fmt.Printf("  Degraded: %s\n", fallbackStyle.Render(fmt.Sprintf("%d summaries used fallback text", doc.Degraded)))
	} else {
		fmt.Printf("  Degraded: %s\n", okStyle.Render("none"))
	}
	for _, p := range result.Paths {
		fmt.Printf("  Wrote:    %s\n", p)
	}
}

func init() {
	rootCmd.AddCommand(newGenerateCommand())
}
