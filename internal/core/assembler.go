package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/valter-silva-au/relnotes/pkg/models"
)

// ErrSummaryUnavailable is the sentinel returned by a Summarizer when a
// call has definitively failed (retries exhausted or the prompt exceeds
// the model's token budget). The assembler reacts by substituting
// deterministic fallback text; it never aborts the run for this error.
var ErrSummaryUnavailable = errors.New("summary unavailable")

// ReleaseSummaryFallback is rendered in place of the release narrative
// when the release-rollup call itself fails.
const ReleaseSummaryFallback = "Summary unavailable."

// fallbackRunes caps the deterministic fallback text taken from a
// cleaned description when summarization fails.
const fallbackRunes = 160

// Summarizer is the adapter contract for the external LLM service.
// Implementations must retry transient failures internally and return
// ErrSummaryUnavailable once a call has definitively failed.
type Summarizer interface {
	Summarize(ctx context.Context, sc SummaryContext) (string, error)
}

// SummaryCache is an optional cache of per-item summaries keyed by item
// identity and content, letting re-runs skip calls for unchanged items.
type SummaryCache interface {
	Get(ctx context.Context, item models.WorkItem) (string, bool)
	Put(ctx context.Context, item models.WorkItem, text string)
}

// ReleaseMetadata carries the run-level inputs the assembler stamps
// into the document.
type ReleaseMetadata struct {
	Solution        string
	SolutionSummary string
	Version         string
}

// ProgressEvent reports one settled summarization call to an optional
// observer (CLI progress display, event log).
type ProgressEvent struct {
	Kind   SummaryKind
	ItemID int
	Title  string
	Status models.SummaryStatus
}

// DocumentAssembler walks the hierarchy, requests summaries, and
// composes the ordered release document.
type DocumentAssembler interface {
	Assemble(ctx context.Context, roots []*models.HierarchyNode, meta ReleaseMetadata) (*models.ReleaseDocument, error)
}

// documentAssembler implements DocumentAssembler.
type documentAssembler struct {
	cfg        *models.RunConfig
	summarizer Summarizer
	cache      SummaryCache // nil when caching is disabled
	progress   func(ProgressEvent)
	tracker    *CallTracker
	now        func() time.Time
}

// NewDocumentAssembler creates a DocumentAssembler. cache and progress
// may be nil. The tracker records every call's settled state for run
// reporting and may be shared with the CLI layer.
func NewDocumentAssembler(cfg *models.RunConfig, s Summarizer, cache SummaryCache, tracker *CallTracker, progress func(ProgressEvent)) DocumentAssembler {
	if tracker == nil {
		tracker = NewCallTracker()
	}
	return &documentAssembler{
		cfg:        cfg,
		summarizer: s,
		cache:      cache,
		progress:   progress,
		tracker:    tracker,
		now:        time.Now,
	}
}

// leafSlot holds one leaf's summarization result. Each concurrent call
// writes only to its own slot, so no locking is needed beyond the
// WaitGroup barrier.
type leafSlot struct {
	item    models.WorkItem
	summary models.ItemSummary
}

// Assemble drives the full pipeline: concurrent leaf summaries, then
// optional feature rollups, then exactly one release rollup after
// everything else has settled, then deterministic composition. A single
// item's failure never aborts the run; cancellation aborts it without
// producing a partial document.
func (a *documentAssembler) Assemble(ctx context.Context, roots []*models.HierarchyNode, meta ReleaseMetadata) (*models.ReleaseDocument, error) {
	if a.summarizer == nil {
		return nil, fmt.Errorf("assembling document: summarizer is nil")
	}

	type sectionWork struct {
		root   *models.HierarchyNode
		leaves []*leafSlot
		rollup string
	}

	sections := make([]*sectionWork, len(roots))
	var all []*leafSlot
	for i, root := range roots {
		sw := &sectionWork{root: root}
		for _, item := range descendantLeaves(root) {
			slot := &leafSlot{item: item}
			sw.leaves = append(sw.leaves, slot)
			all = append(all, slot)
		}
		sections[i] = sw
	}

	// Phase 1: leaf summaries, dispatched concurrently under the
	// configured cap. Every call settles (succeeds or falls back)
	// before the next phase starts.
	sem := make(chan struct{}, a.concurrency())
	var wg sync.WaitGroup
	for _, slot := range all {
		wg.Add(1)
		go func(s *leafSlot) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			s.summary = a.summarizeLeaf(ctx, s.item)
		}(slot)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assembling document: %w", err)
	}

	// Phase 2: optional feature rollups over each section's settled
	// leaf summaries.
	if a.cfg.Model.FeatureRollups {
		for _, sw := range sections {
			if sw.root.Item.ID == 0 || len(sw.leaves) == 0 {
				continue
			}
			sw.rollup = a.featureRollup(ctx, sw.root.Item, sw.leaves)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("assembling document: %w", err)
		}
	}

	// Phase 3: the release rollup is the hard join point; it runs only
	// after every other call for the run has settled.
	release := a.releaseRollup(ctx, all)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("assembling document: %w", err)
	}

	doc := &models.ReleaseDocument{
		Title:       fmt.Sprintf("%s v%s", meta.Solution, meta.Version),
		Solution:    meta.Solution,
		Version:     meta.Version,
		Summary:     release,
		GeneratedAt: a.now().UTC(),
		Degraded:    a.tracker.Fallbacks(),
	}

	for _, sw := range sections {
		section := models.Section{Heading: sw.root.Item.Title, Summary: sw.rollup}
		if sw.root.Item.ID != 0 {
			item := sw.root.Item
			section.Item = &item
		}
		section.Groups = a.groupLeaves(sw.leaves)
		doc.Sections = append(doc.Sections, section)
		doc.TotalItems += len(sw.leaves)
		if sw.root.Item.ID != 0 {
			doc.TotalItems++
		}
	}

	return doc, nil
}

func (a *documentAssembler) concurrency() int {
	if a.cfg.Model.Concurrency > 0 {
		return a.cfg.Model.Concurrency
	}
	return 1
}

// summarizeLeaf produces the summary for one leaf item, consulting the
// cache first and degrading to deterministic fallback text when the
// summarizer definitively fails.
func (a *documentAssembler) summarizeLeaf(ctx context.Context, item models.WorkItem) models.ItemSummary {
	if a.cache != nil {
		if text, ok := a.cache.Get(ctx, item); ok {
			a.settle(KindItem, item, models.SummaryOK)
			return models.ItemSummary{ItemID: item.ID, Text: text, Status: models.SummaryOK}
		}
	}

	cleaned := CleanText(item.Description)
	if cleaned == "" {
		// Nothing worth sending to the model; the title is the summary.
		a.settle(KindItem, item, models.SummaryFallback)
		return models.ItemSummary{ItemID: item.ID, Text: item.Title, Status: models.SummaryFallback}
	}

	text, err := a.summarizer.Summarize(ctx, SummaryContext{
		Kind:            KindItem,
		SolutionName:    a.cfg.Solution.Name,
		SolutionSummary: a.cfg.Solution.Summary,
		ItemTitle:       item.Title,
		ItemType:        item.Type,
		Text:            cleaned,
	})
	if err != nil || strings.TrimSpace(text) == "" {
		a.settle(KindItem, item, models.SummaryFallback)
		return models.ItemSummary{ItemID: item.ID, Text: Truncate(cleaned, fallbackRunes), Status: models.SummaryFallback}
	}

	text = strings.TrimSpace(text)
	if a.cache != nil {
		a.cache.Put(ctx, item, text)
	}
	a.settle(KindItem, item, models.SummaryOK)
	return models.ItemSummary{ItemID: item.ID, Text: text, Status: models.SummaryOK}
}

// featureRollup summarizes a feature's settled child summaries into a
// short narrative, degrading to empty (no narrative) on failure.
func (a *documentAssembler) featureRollup(ctx context.Context, feature models.WorkItem, leaves []*leafSlot) string {
	var b strings.Builder
	for _, slot := range leaves {
		fmt.Fprintf(&b, "- %s: %s\n", slot.item.Title, slot.summary.Text)
	}

	text, err := a.summarizer.Summarize(ctx, SummaryContext{
		Kind:            KindFeature,
		SolutionName:    a.cfg.Solution.Name,
		SolutionSummary: a.cfg.Solution.Summary,
		ItemTitle:       feature.Title,
		ItemType:        feature.Type,
		Text:            b.String(),
	})
	if err != nil || strings.TrimSpace(text) == "" {
		a.settle(KindFeature, feature, models.SummaryFallback)
		return ""
	}
	a.settle(KindFeature, feature, models.SummaryOK)
	return strings.TrimSpace(text)
}

// releaseRollup issues the single release-level call over the
// concatenation of all settled summaries, or over raw titles when every
// item summary failed.
func (a *documentAssembler) releaseRollup(ctx context.Context, all []*leafSlot) string {
	if len(all) == 0 {
		return ReleaseSummaryFallback
	}

	allFailed := true
	for _, slot := range all {
		if slot.summary.Status == models.SummaryOK {
			allFailed = false
			break
		}
	}

	var b strings.Builder
	for _, slot := range all {
		if allFailed {
			fmt.Fprintf(&b, "- %s\n", slot.item.Title)
		} else {
			fmt.Fprintf(&b, "- %s\n", slot.summary.Text)
		}
	}

	text, err := a.summarizer.Summarize(ctx, SummaryContext{
		Kind:            KindRelease,
		SolutionName:    a.cfg.Solution.Name,
		SolutionSummary: a.cfg.Solution.Summary,
		Text:            b.String(),
	})
	if err != nil || strings.TrimSpace(text) == "" {
		a.settle(KindRelease, models.WorkItem{Title: "release"}, models.SummaryFallback)
		return ReleaseSummaryFallback
	}
	a.settle(KindRelease, models.WorkItem{Title: "release"}, models.SummaryOK)
	return strings.TrimSpace(text)
}

// groupLeaves buckets settled leaves by type in the configured display
// priority order. Undesired types are excluded from the rendered
// groups; they were still summarized and counted for completeness.
func (a *documentAssembler) groupLeaves(leaves []*leafSlot) []models.TypeGroup {
	var groups []models.TypeGroup
	for _, want := range a.cfg.DesiredTypes {
		var group models.TypeGroup
		group.Type = want
		for _, slot := range leaves {
			if slot.item.Type != want {
				continue
			}
			if group.Icon.URL == "" {
				group.Icon = slot.item.Icon
			}
			group.Entries = append(group.Entries, models.LeafEntry{
				Item:    slot.item,
				Summary: slot.summary,
			})
		}
		if len(group.Entries) > 0 {
			groups = append(groups, group)
		}
	}
	return groups
}

// settle records a call's final state and notifies the progress
// observer.
func (a *documentAssembler) settle(kind SummaryKind, item models.WorkItem, status models.SummaryStatus) {
	phase := PhaseSucceeded
	if status == models.SummaryFallback {
		phase = PhaseFallback
	}
	a.tracker.Record(CallState{ItemID: item.ID, Kind: kind, Phase: phase})
	if a.progress != nil {
		a.progress(ProgressEvent{Kind: kind, ItemID: item.ID, Title: item.Title, Status: status})
	}
}

// descendantLeaves returns every leaf work item beneath root in
// depth-first input order. Branch nodes of a grouping type anchor their
// children but are not themselves listed as leaves; an undesired-type
// item that ended up with children keeps them (children are never
// dropped because of their parent's type).
func descendantLeaves(root *models.HierarchyNode) []models.WorkItem {
	var leaves []models.WorkItem
	var walk func(n *models.HierarchyNode, isRoot bool)
	walk = func(n *models.HierarchyNode, isRoot bool) {
		if !isRoot && n.IsLeaf() {
			leaves = append(leaves, n.Item)
			return
		}
		for _, c := range n.Children {
			walk(c, false)
		}
	}
	walk(root, true)
	return leaves
}
