package core

import (
	"github.com/valter-silva-au/relnotes/pkg/models"
)

// OtherItemsHeading is the heading of the synthetic root that collects
// items with no resolvable parent of a grouping type.
const OtherItemsHeading = "Other Items"

// HierarchyBuilder reconstructs the parent/child forest from the flat
// set of work items returned by a tracker query.
type HierarchyBuilder interface {
	Build(items []models.WorkItem) []*models.HierarchyNode
}

// hierarchyBuilder implements HierarchyBuilder for a fixed run
// configuration.
type hierarchyBuilder struct {
	cfg *models.RunConfig
}

// NewHierarchyBuilder creates a HierarchyBuilder using the given run
// configuration's parent-type set.
func NewHierarchyBuilder(cfg *models.RunConfig) HierarchyBuilder {
	return &hierarchyBuilder{cfg: cfg}
}

// Build indexes all items by id and attaches each one as a child of its
// parent's node when the parent is present in the same fetch. Items
// without a resolvable parent become roots: parent-type items stand on
// their own, everything else is collected under a synthetic
// "Other Items" root so no input item is ever dropped. A parent id
// pointing outside the fetch (filtered out by the query) is treated as
// no parent, never as an error. Root and child ordering follows input
// order, so reruns over unchanged input produce an identical forest.
func (b *hierarchyBuilder) Build(items []models.WorkItem) []*models.HierarchyNode {
	if len(items) == 0 {
		return nil
	}

	nodes := make(map[int]*models.HierarchyNode, len(items))
	for _, item := range items {
		if _, dup := nodes[item.ID]; dup {
			continue // ids are unique within a query result; first wins
		}
		nodes[item.ID] = &models.HierarchyNode{Item: item}
	}

	parentOf := make(map[int]int, len(items))
	for _, item := range items {
		parentOf[item.ID] = item.ParentID
	}

	var roots []*models.HierarchyNode
	var orphans []*models.HierarchyNode

	seen := make(map[int]bool, len(items))
	for _, item := range items {
		node := nodes[item.ID]
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true

		parent, ok := nodes[item.ParentID]
		if item.ParentID != 0 && ok && parent != node && !onParentCycle(item.ID, parentOf) {
			parent.Children = append(parent.Children, node)
			continue
		}

		if b.cfg.IsParentType(item.Type) {
			roots = append(roots, node)
		} else {
			orphans = append(orphans, node)
		}
	}

	if len(orphans) > 0 {
		roots = append(roots, &models.HierarchyNode{
			Item: models.WorkItem{
				ID:    0,
				Type:  models.TypeOther,
				Title: OtherItemsHeading,
			},
			Children: orphans,
		})
	}

	return roots
}

// onParentCycle reports whether following parent links from id leads
// back to id. Cycle members are promoted to roots so the forest always
// terminates and still covers every input item.
func onParentCycle(id int, parentOf map[int]int) bool {
	visited := map[int]bool{id: true}
	cur := parentOf[id]
	for cur != 0 {
		if cur == id {
			return true
		}
		if visited[cur] {
			return false // cycle exists upstream but does not include id
		}
		visited[cur] = true
		next, ok := parentOf[cur]
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

// Flatten walks the forest depth-first and returns every wrapped work
// item exactly once, excluding the synthetic root itself.
func Flatten(roots []*models.HierarchyNode) []models.WorkItem {
	var items []models.WorkItem
	var walk func(n *models.HierarchyNode)
	walk = func(n *models.HierarchyNode) {
		if n.Item.ID != 0 {
			items = append(items, n.Item)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return items
}
