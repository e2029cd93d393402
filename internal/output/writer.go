// Package output writes the rendered artifacts to disk. Naming and
// folder layout live here, outside the core pipeline.
package output

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var unsafePathPattern = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Writer persists rendered release notes under a configured folder.
type Writer struct {
	folder string
}

// NewWriter creates a Writer rooted at folder.
func NewWriter(folder string) *Writer {
	return &Writer{folder: folder}
}

// fileStem builds the artifact base name "{solution}-v{version}" with
// path-hostile characters squashed to hyphens.
func fileStem(solution, version string) string {
	stem := fmt.Sprintf("%s-v%s", solution, version)
	stem = unsafePathPattern.ReplaceAllString(stem, "-")
	return strings.Trim(stem, "-")
}

// Write stores the Markdown artifact and, when html is non-empty, the
// HTML artifact next to it. It creates the output folder as needed and
// returns the paths written.
func (w *Writer) Write(solution, version, markdown, html string) ([]string, error) {
	if err := os.MkdirAll(w.folder, 0o755); err != nil {
		return nil, fmt.Errorf("creating output folder: %w", err)
	}

	stem := fileStem(solution, version)
	mdPath := filepath.Join(w.folder, stem+".md")
	if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", mdPath, err)
	}
	paths := []string{mdPath}

	if html != "" {
		htmlPath := filepath.Join(w.folder, stem+".html")
		if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", htmlPath, err)
		}
		paths = append(paths, htmlPath)
	}

	return paths, nil
}
