package core

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/relnotes/pkg/models"
)

// SummaryKind selects the prompt template for a summarization call.
type SummaryKind string

const (
	// KindItem summarizes a single work item from its description.
	KindItem SummaryKind = "item"
	// KindFeature rolls up the summaries of a feature's children.
	KindFeature SummaryKind = "feature"
	// KindRelease rolls up every summary in the run into the top-level
	// narrative. Issued exactly once per run, after all other calls.
	KindRelease SummaryKind = "release"
)

// SummaryContext bundles the text to summarize with the surrounding
// metadata used to build the prompt.
type SummaryContext struct {
	Kind            SummaryKind
	SolutionName    string
	SolutionSummary string
	ItemTitle       string
	ItemType        models.WorkItemType
	Text            string
}

// BuildPrompt renders the role-specific prompt for a summarization
// call. Each kind gets its own instructions; all three share the
// solution description so the model writes with product context.
func BuildPrompt(sc SummaryContext) string {
	var b strings.Builder

	switch sc.Kind {
	case KindItem:
		fmt.Fprintf(&b, "You are writing release notes for %s.\n", sc.SolutionName)
		if sc.SolutionSummary != "" {
			fmt.Fprintf(&b, "About the software: %s\n", sc.SolutionSummary)
		}
		fmt.Fprintf(&b, "Summarize the following %s in one sentence for end users.\n", strings.ToLower(string(sc.ItemType)))
		fmt.Fprintf(&b, "Title: %s\n", sc.ItemTitle)
		fmt.Fprintf(&b, "Description: %s\n", sc.Text)
		b.WriteString("Do not mention work item IDs, states, or internal jargon. Respond with the sentence only.")

	case KindFeature:
		fmt.Fprintf(&b, "You are writing release notes for %s.\n", sc.SolutionName)
		if sc.SolutionSummary != "" {
			fmt.Fprintf(&b, "About the software: %s\n", sc.SolutionSummary)
		}
		fmt.Fprintf(&b, "The feature %q shipped the following changes:\n%s\n", sc.ItemTitle, sc.Text)
		b.WriteString("Write a short paragraph (2-3 sentences) describing what this feature delivers to users. Respond with the paragraph only.")

	case KindRelease:
		fmt.Fprintf(&b, "You are writing the opening summary of the release notes for %s.\n", sc.SolutionName)
		if sc.SolutionSummary != "" {
			fmt.Fprintf(&b, "About the software: %s\n", sc.SolutionSummary)
		}
		b.WriteString("The following is a summary of the work items completed in this release:\n")
		b.WriteString(sc.Text)
		b.WriteString("\nYour response should be as concise as possible.")
	}

	return b.String()
}
