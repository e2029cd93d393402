package models

import "time"

// LeafEntry is a single rendered line item: a leaf work item plus the
// summary chosen for it.
type LeafEntry struct {
	Item    WorkItem
	Summary ItemSummary
}

// TypeGroup collects the leaf entries of one work item type under a
// section, e.g. all Bugs beneath a feature. Groups appear in the fixed
// display-priority order from configuration.
type TypeGroup struct {
	Type    WorkItemType
	Icon    IconMeta
	Entries []LeafEntry
}

// Section is one top-level block of the release document: a feature (or
// the synthetic "Other Items" root) together with its grouped leaves.
type Section struct {
	Heading string
	Item    *WorkItem // nil for the synthetic root
	Summary string    // feature rollup, empty when rollups are disabled
	Groups  []TypeGroup
}

// ReleaseDocument is the fully assembled, renderer-ready representation
// of one release's notes. Section ordering is deterministic, so repeated
// runs over identical input differ only in generated prose.
type ReleaseDocument struct {
	Title       string
	Solution    string
	Version     string
	Summary     string // release-level narrative
	Sections    []Section
	GeneratedAt time.Time

	// TotalItems counts every input item, including items of types
	// excluded from rendering, for completeness checks.
	TotalItems int
	// Degraded counts summaries that fell back to deterministic text.
	Degraded int
}

// SectionHeadings returns the headings of all sections in document
// order, used to build the quick-links table of contents.
func (d *ReleaseDocument) SectionHeadings() []string {
	headings := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		headings[i] = s.Heading
	}
	return headings
}
