package render

import (
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/relnotes/pkg/models"
)

func sampleDocument() *models.ReleaseDocument {
	feature := models.WorkItem{
		ID:    1,
		Type:  models.TypeFeature,
		Title: "Reporting overhaul",
		URL:   "https://dev.azure.com/org/proj/_workitems/edit/1",
		Icon:  models.IconMeta{URL: "https://icons.example/feature.png", Color: "773B93"},
	}
	bug := models.WorkItem{
		ID:    2,
		Type:  models.TypeBug,
		Title: "Export crashes on empty dataset",
		URL:   "https://dev.azure.com/org/proj/_workitems/edit/2",
		Icon:  models.IconMeta{URL: "https://icons.example/bug.png", Color: "CC293D"},
	}
	story := models.WorkItem{
		ID:    3,
		Type:  models.TypeUserStory,
		Title: "Schedule recurring exports",
		URL:   "https://dev.azure.com/org/proj/_workitems/edit/3",
		Icon:  models.IconMeta{URL: "https://icons.example/story.png", Color: "009CCC"},
	}

	return &models.ReleaseDocument{
		Title:       "Contoso v2.1",
		Solution:    "Contoso",
		Version:     "2.1",
		Summary:     "This release hardens exports and adds scheduling.",
		GeneratedAt: time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC),
		Sections: []models.Section{
			{
				Heading: feature.Title,
				Item:    &feature,
				Groups: []models.TypeGroup{
					{
						Type: models.TypeBug,
						Icon: bug.Icon,
						Entries: []models.LeafEntry{
							{Item: bug, Summary: models.ItemSummary{ItemID: 2, Text: "Fixes a crash when exporting with no rows.", Status: models.SummaryOK}},
						},
					},
					{
						Type: models.TypeUserStory,
						Icon: story.Icon,
						Entries: []models.LeafEntry{
							{Item: story, Summary: models.ItemSummary{ItemID: 3, Text: "Exports can now run on a schedule.", Status: models.SummaryOK}},
						},
					},
				},
			},
			{
				Heading: "Other Items",
				Groups: []models.TypeGroup{
					{
						Type: models.TypeTask,
						Entries: []models.LeafEntry{
							{Item: models.WorkItem{ID: 4, Type: models.TypeTask, Title: "Rotate signing keys", URL: "https://dev.azure.com/org/proj/_workitems/edit/4"},
								Summary: models.ItemSummary{ItemID: 4, Text: "Rotate signing keys", Status: models.SummaryFallback}},
						},
					},
				},
			},
		},
		TotalItems: 4,
		Degraded:   1,
	}
}

func TestAnchor(t *testing.T) {
	tests := []struct {
		heading string
		want    string
	}{
		{"Other Items", "other-items"},
		{"Reporting overhaul", "reporting-overhaul"},
		{"C# & Friends!", "c--friends"},
		{"already-lower_case", "already-lower_case"},
	}
	for _, tt := range tests {
		if got := Anchor(tt.heading); got != tt.want {
			t.Errorf("Anchor(%q) = %q, want %q", tt.heading, got, tt.want)
		}
	}
}

func TestPluralize(t *testing.T) {
	tests := []struct {
		in   models.WorkItemType
		want string
	}{
		{models.TypeBug, "Bugs"},
		{models.TypeTask, "Tasks"},
		{models.TypeUserStory, "User Stories"},
	}
	for _, tt := range tests {
		if got := Pluralize(tt.in); got != tt.want {
			t.Errorf("Pluralize(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMarkdown(t *testing.T) {
	got := Markdown(sampleDocument())

	for _, want := range []string{
		"# Contoso v2.1\n",
		"_Generated on 15-03-2026 09:30_",
		"## Summary\n\nThis release hardens exports and adds scheduling.",
		"## Quick Links\n\n- [Reporting overhaul](#reporting-overhaul)\n- [Other Items](#other-items)",
		"<img src='https://icons.example/feature.png' alt='Feature' width='20' height='20'> [#1](https://dev.azure.com/org/proj/_workitems/edit/1) Reporting overhaul",
		"### <img src='https://icons.example/bug.png' alt='Bug' width='20' height='20'> Bugs",
		"- [#2](https://dev.azure.com/org/proj/_workitems/edit/2) **Export crashes on empty dataset** - Fixes a crash when exporting with no rows.",
		"### <img src='https://icons.example/story.png' alt='User Story' width='20' height='20'> User Stories",
		"## Other Items\n",
		"### Tasks\n",
		"- [#4](https://dev.azure.com/org/proj/_workitems/edit/4) **Rotate signing keys** - Rotate signing keys",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("markdown missing %q\n---\n%s", want, got)
		}
	}
}

// Rendering is a pure function of the document: two calls on the same
// value are byte-identical.
func TestMarkdownDeterministic(t *testing.T) {
	doc := sampleDocument()
	if Markdown(doc) != Markdown(doc) {
		t.Error("repeated renders of the same document differ")
	}
}

func TestMarkdownSyntheticSectionHasNoIDLink(t *testing.T) {
	got := Markdown(sampleDocument())
	if strings.Contains(got, "## [#0]") || strings.Contains(got, "[#0](") {
		t.Error("synthetic section must render as a plain heading, not a work item link")
	}
}
