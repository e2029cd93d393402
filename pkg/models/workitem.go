package models

// WorkItemType identifies the kind of a tracked work item. The set of
// types is open: trackers allow custom process templates, so the values
// that matter for a run come from configuration, not from this package.
type WorkItemType string

const (
	TypeEpic      WorkItemType = "Epic"
	TypeFeature   WorkItemType = "Feature"
	TypeUserStory WorkItemType = "User Story"
	TypeBug       WorkItemType = "Bug"
	TypeTask      WorkItemType = "Task"
	TypeOther     WorkItemType = "Other"
)

// IconMeta holds the display metadata the tracker associates with a
// work item type.
type IconMeta struct {
	URL   string `yaml:"url"`
	Color string `yaml:"color"`
}

// WorkItem is the normalized representation of a single tracked item.
// Items are created once per run at the ingestion boundary and never
// mutated afterwards; the raw tracker payload is not carried along.
type WorkItem struct {
	ID           int          `yaml:"id"`
	Type         WorkItemType `yaml:"type"`
	Title        string       `yaml:"title"`
	Description  string       `yaml:"description,omitempty"`
	State        string       `yaml:"state,omitempty"`
	ParentID     int          `yaml:"parent,omitempty"` // 0 means no parent
	URL          string       `yaml:"url,omitempty"`
	Tags         []string     `yaml:"tags,omitempty"`
	CommentCount int          `yaml:"comment_count,omitempty"`
	Icon         IconMeta     `yaml:"icon,omitempty"`
}

// HierarchyNode wraps a WorkItem together with its resolved children.
// Children preserve the order in which their items appeared in the
// fetch, so reruns over unchanged input produce an identical tree.
type HierarchyNode struct {
	Item     WorkItem
	Children []*HierarchyNode
}

// IsLeaf reports whether the node has no children.
func (n *HierarchyNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// SummaryStatus records how an item's summary text was produced.
type SummaryStatus string

const (
	// SummaryOK means the summarizer produced the text.
	SummaryOK SummaryStatus = "ok"
	// SummaryFallback means summarization failed after retries and the
	// text is the deterministic fallback (cleaned description or title).
	SummaryFallback SummaryStatus = "fallback"
)

// ItemSummary is the generated (or fallback) summary for one work item.
type ItemSummary struct {
	ItemID int
	Text   string
	Status SummaryStatus
}
