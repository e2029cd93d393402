// Package internal provides the App struct that wires all components
// of the release-notes generator together and initializes the CLI
// layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/relnotes/internal/cache"
	"github.com/valter-silva-au/relnotes/internal/cli"
	"github.com/valter-silva-au/relnotes/internal/core"
	"github.com/valter-silva-au/relnotes/internal/observability"
	"github.com/valter-silva-au/relnotes/internal/output"
	"github.com/valter-silva-au/relnotes/internal/summarizer"
	"github.com/valter-silva-au/relnotes/internal/tracker"
	"github.com/valter-silva-au/relnotes/pkg/models"
)

// App holds all service dependencies for the release-notes generator.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.RunConfig

	// Collaborators
	Tracker    tracker.Fetcher
	Summarizer core.Summarizer
	Cache      *cache.SummaryCache // nil when caching is disabled

	// Core services
	Builder core.HierarchyBuilder

	// Output sink
	Writer *output.Writer

	// Observability
	RunLog   observability.RunLog
	Notifier observability.Notifier
}

// NewApp creates and wires all components. basePath is the directory
// containing .relnotes.yaml (typically the repository being released).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	app.Config = cfg

	// --- Collaborators ---
	app.Tracker = tracker.NewClient(cfg.Tracker)
	app.Summarizer = summarizer.NewClient(cfg.Model)
	if cfg.Cache.Enabled {
		app.Cache = cache.New(cfg.Cache)
	}

	// --- Core services ---
	app.Builder = core.NewHierarchyBuilder(cfg)

	// --- Output sink ---
	folder := cfg.Output.Folder
	if !filepath.IsAbs(folder) {
		folder = filepath.Join(basePath, folder)
	}
	app.Writer = output.NewWriter(folder)

	// --- Observability ---
	runLogPath := filepath.Join(basePath, ".relnotes_events.jsonl")
	app.RunLog, err = observability.NewJSONLRunLog(runLogPath)
	if err != nil {
		// Non-fatal: disable run logging if the file can't be created.
		app.RunLog = nil
	}
	if cfg.Notify.Enabled && cfg.Notify.SlackWebhook != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notify.SlackWebhook)
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.ConfigMgr = app.ConfigMgr
	cli.Generator = app

	return app, nil
}

// Close releases resources held by the App.
func (a *App) Close() error {
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if a.RunLog != nil {
		return a.RunLog.Close()
	}
	return nil
}

// ResolveBasePath determines the directory holding .relnotes.yaml: the
// RELNOTES_HOME env var if set, else the nearest ancestor of the
// working directory containing the file, else the working directory.
func ResolveBasePath() string {
	if home := os.Getenv("RELNOTES_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".relnotes.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}
