package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/valter-silva-au/relnotes/internal/cli"
	"github.com/valter-silva-au/relnotes/internal/core"
	"github.com/valter-silva-au/relnotes/internal/observability"
	"github.com/valter-silva-au/relnotes/internal/render"
)

// Generate runs the full pipeline for one release: fetch, hierarchy,
// summarize, render, write, notify. It implements cli.ReleaseGenerator
// so the generate command and the MCP server share one code path.
//
// Only a failed fetch (including rejected credentials) or invalid
// configuration is fatal; summarization failures degrade to fallback
// text and the run still produces both artifacts.
func (a *App) Generate(ctx context.Context, opts cli.GenerateOptions) (*cli.GenerateResult, error) {
	cfg := a.Config

	if err := a.ConfigMgr.Validate(cfg); err != nil {
		return nil, err
	}

	queryID, err := core.ResolveQueryID(cfg, opts.Query)
	if err != nil {
		return nil, fmt.Errorf("resolving query: %w", err)
	}

	version := opts.Version
	if version == "" {
		version = time.Now().Format("2006.01.02")
	}

	items, err := a.Tracker.FetchWorkItems(ctx, queryID)
	if err != nil {
		return nil, fmt.Errorf("fetching work items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("query %s returned no work items", queryID)
	}
	observability.LogPhase(a.RunLog, observability.PhaseFetch, "fetched work items", map[string]any{
		"query": queryID,
		"count": len(items),
	})

	roots := a.Builder.Build(items)
	observability.LogPhase(a.RunLog, observability.PhaseHierarchy, "built hierarchy", map[string]any{
		"roots": len(roots),
	})

	var summaryCache core.SummaryCache
	if a.Cache != nil {
		if err := a.Cache.Ping(ctx); err != nil {
			return nil, err
		}
		summaryCache = a.Cache
	}

	calls := core.NewCallTracker()
	assembler := core.NewDocumentAssembler(cfg, a.Summarizer, summaryCache, calls, opts.Progress)

	doc, err := assembler.Assemble(ctx, roots, core.ReleaseMetadata{
		Solution:        cfg.Solution.Name,
		SolutionSummary: cfg.Solution.Summary,
		Version:         version,
	})
	if err != nil {
		return nil, fmt.Errorf("assembling release document: %w", err)
	}
	observability.LogPhase(a.RunLog, observability.PhaseSummarize, "summarized work items", map[string]any{
		"items":    doc.TotalItems,
		"degraded": doc.Degraded,
	})

	markdown := render.Markdown(doc)
	var html string
	if cfg.Output.HTML {
		html, err = render.HTML(doc)
		if err != nil {
			return nil, err
		}
	}
	observability.LogPhase(a.RunLog, observability.PhaseRender, "rendered artifacts", map[string]any{
		"html": cfg.Output.HTML,
	})

	result := &cli.GenerateResult{
		Document: doc,
		Markdown: markdown,
		HTML:     html,
	}

	if opts.DryRun {
		return result, nil
	}

	result.Paths, err = a.Writer.Write(cfg.Solution.Name, version, markdown, html)
	if err != nil {
		return nil, err
	}
	observability.LogPhase(a.RunLog, observability.PhaseWrite, "wrote artifacts", map[string]any{
		"paths": result.Paths,
	})

	if a.Notifier != nil {
		report := observability.RunReport{
			Solution:  cfg.Solution.Name,
			Version:   version,
			Items:     doc.TotalItems,
			Degraded:  doc.Degraded,
			Artifacts: result.Paths,
		}
		if err := a.Notifier.Notify(report); err != nil {
			// Announcement failures never fail a completed run.
			observability.LogPhase(a.RunLog, observability.PhaseNotify, "notification failed", map[string]any{
				"error": err.Error(),
			})
		}
	}

	return result, nil
}

var _ cli.ReleaseGenerator = (*App)(nil)
