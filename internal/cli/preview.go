package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Render generated release notes in the terminal",
	Long: `Render a generated Markdown artifact in the terminal.

Without an argument the most recently written artifact in the output
folder is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			latest, err := latestArtifact()
			if err != nil {
				return err
			}
			path = latest
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			return fmt.Errorf("creating terminal renderer: %w", err)
		}

		out, err := renderer.Render(string(content))
		if err != nil {
			return fmt.Errorf("rendering %s: %w", path, err)
		}

		fmt.Print(out)
		return nil
	},
}

// latestArtifact returns the most recently modified .md file in the
// configured output folder.
func latestArtifact() (string, error) {
	if Config == nil {
		return "", fmt.Errorf("configuration not initialized")
	}

	folder := Config.Output.Folder
	if !filepath.IsAbs(folder) {
		folder = filepath.Join(BasePath, folder)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return "", fmt.Errorf("reading output folder %s: %w", folder, err)
	}

	type candidate struct {
		path string
		mod  int64
	}
	var candidates []candidate
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path: filepath.Join(folder, e.Name()),
			mod:  info.ModTime().UnixNano(),
		})
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no release notes found in %s (run 'relnotes generate' first)", folder)
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].mod > candidates[j].mod })
	return candidates[0].path, nil
}

func init() {
	rootCmd.AddCommand(previewCmd)
}
