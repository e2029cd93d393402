package render

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/valter-silva-au/relnotes/pkg/models"
)

// htmlDocTemplate is a structural transform of the release document,
// not a Markdown conversion: converting the Markdown artifact would
// round-trip the custom icon markup lossily, so both formats are
// derived directly from the same document value.
const htmlDocTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="generated">Generated on {{.Generated}}</p>
<h2>Summary</h2>
<p>{{.Summary}}</p>
<h2>Quick Links</h2>
<ul class="quick-links">
{{- range .TOC}}
<li><a href="#{{.Anchor}}">{{.Heading}}</a></li>
{{- end}}
</ul>
{{- range .Sections}}
<h2 id="{{.Anchor}}">{{if .IconURL}}<img src="{{.IconURL}}" alt="{{.IconAlt}}" width="20" height="20"> {{end}}{{if .Ref}}<a href="{{.URL}}">#{{.Ref}}</a> {{end}}{{.Heading}}</h2>
{{- if .Summary}}
<p>{{.Summary}}</p>
{{- end}}
{{- range .Groups}}
<h3>{{if .IconURL}}<img src="{{.IconURL}}" alt="{{.IconAlt}}" width="20" height="20"> {{end}}{{.Heading}}</h3>
<ul>
{{- range .Entries}}
<li><a href="{{.URL}}">#{{.ID}}</a> <strong>{{.Title}}</strong> - {{.Summary}}</li>
{{- end}}
</ul>
{{- end}}
{{- end}}
</body>
</html>
`

var htmlTmpl = template.Must(template.New("release").Parse(htmlDocTemplate))

type htmlTOCEntry struct {
	Heading string
	Anchor  string
}

type htmlEntry struct {
	ID      int
	URL     string
	Title   string
	Summary string
}

type htmlGroup struct {
	Heading string
	IconURL string
	IconAlt string
	Entries []htmlEntry
}

type htmlSection struct {
	Heading string
	Anchor  string
	Ref     int
	URL     string
	IconURL string
	IconAlt string
	Summary string
	Groups  []htmlGroup
}

type htmlDoc struct {
	Title     string
	Generated string
	Summary   string
	TOC       []htmlTOCEntry
	Sections  []htmlSection
}

// HTML renders the document as a standalone HTML page. Like Markdown,
// it is a pure function of the document value.
func HTML(doc *models.ReleaseDocument) (string, error) {
	page := htmlDoc{
		Title:     doc.Title,
		Generated: doc.GeneratedAt.Format("02-01-2006 15:04"),
		Summary:   doc.Summary,
	}

	for _, heading := range doc.SectionHeadings() {
		page.TOC = append(page.TOC, htmlTOCEntry{Heading: heading, Anchor: Anchor(heading)})
	}

	for _, section := range doc.Sections {
		hs := htmlSection{
			Heading: section.Heading,
			Anchor:  Anchor(section.Heading),
			Summary: section.Summary,
		}
		if section.Item != nil {
			hs.Ref = section.Item.ID
			hs.URL = section.Item.URL
			hs.IconURL = section.Item.Icon.URL
			hs.IconAlt = string(section.Item.Type)
		}
		for _, group := range section.Groups {
			hg := htmlGroup{
				Heading: Pluralize(group.Type),
				IconURL: group.Icon.URL,
				IconAlt: string(group.Type),
			}
			for _, entry := range group.Entries {
				hg.Entries = append(hg.Entries, htmlEntry{
					ID:      entry.Item.ID,
					URL:     entry.Item.URL,
					Title:   entry.Item.Title,
					Summary: entry.Summary.Text,
				})
			}
			hs.Groups = append(hs.Groups, hg)
		}
		page.Sections = append(page.Sections, hs)
	}

	var b strings.Builder
	if err := htmlTmpl.Execute(&b, page); err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return b.String(), nil
}
