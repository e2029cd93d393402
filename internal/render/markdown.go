// Package render converts an assembled release document into its
// output formats. Both renderers are pure functions of the document:
// no network access, no lookups, no mutable state, so the Markdown and
// HTML artifacts can never disagree on content.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/valter-silva-au/relnotes/pkg/models"
)

var anchorStripPattern = regexp.MustCompile(`[^\w-]`)

// Anchor converts a section heading into the markdown anchor used by
// the quick-links table of contents: spaces become hyphens, everything
// outside [A-Za-z0-9_-] is dropped, and the result is lowercased.
func Anchor(heading string) string {
	anchor := strings.ReplaceAll(heading, " ", "-")
	anchor = anchorStripPattern.ReplaceAllString(anchor, "")
	return strings.ToLower(anchor)
}

// Pluralize returns the group heading for a work item type.
func Pluralize(t models.WorkItemType) string {
	s := string(t)
	if strings.HasSuffix(s, "y") {
		return s[:len(s)-1] + "ies"
	}
	return s + "s"
}

// icon renders the inline image markup for a type or item icon. Color
// metadata travels in the alt text styling hook so downstream themes
// can key off it.
func icon(meta models.IconMeta, alt string) string {
	if meta.URL == "" {
		return ""
	}
	return fmt.Sprintf("<img src='%s' alt='%s' width='20' height='20'> ", meta.URL, alt)
}

// Markdown renders the document as a Markdown string: H1 title,
// generation stamp, Summary section, quick-links contents, then one
// heading per section with grouped bullet lists. Calling it twice on
// the same document yields byte-identical output.
func Markdown(doc *models.ReleaseDocument) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "_Generated on %s_\n\n", doc.GeneratedAt.Format("02-01-2006 15:04"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "%s\n\n", doc.Summary)

	b.WriteString("## Quick Links\n\n")
	for _, heading := range doc.SectionHeadings() {
		fmt.Fprintf(&b, "- [%s](#%s)\n", heading, Anchor(heading))
	}
	b.WriteString("\n")

	for _, section := range doc.Sections {
		if section.Item != nil {
			fmt.Fprintf(&b, "## %s[#%d](%s) %s\n\n",
				icon(section.Item.Icon, string(section.Item.Type)),
				section.Item.ID, section.Item.URL, section.Item.Title)
		} else {
			fmt.Fprintf(&b, "## %s\n\n", section.Heading)
		}

		if section.Summary != "" {
			fmt.Fprintf(&b, "%s\n\n", section.Summary)
		}

		for _, group := range section.Groups {
			fmt.Fprintf(&b, "### %s%s\n\n", icon(group.Icon, string(group.Type)), Pluralize(group.Type))
			for _, entry := range group.Entries {
				fmt.Fprintf(&b, "- [#%d](%s) **%s** - %s\n",
					entry.Item.ID, entry.Item.URL, entry.Item.Title, entry.Summary.Text)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
