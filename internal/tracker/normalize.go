package tracker

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/valter-silva-au/relnotes/pkg/models"
)

// rawWorkItem is the wire shape of one work item: a stable envelope
// around a loosely-typed field map whose keys and value types vary by
// process template.
type rawWorkItem struct {
	ID     int            `json:"id"`
	Fields map[string]any `json:"fields"`
	Links  struct {
		HTML struct {
			Href string `json:"href"`
		} `json:"html"`
	} `json:"_links"`
	URL string `json:"url"`
}

// trackerFields is the subset of system fields the pipeline consumes,
// decoded from the raw field map.
type trackerFields struct {
	Title        string `mapstructure:"System.Title"`
	Type         string `mapstructure:"System.WorkItemType"`
	State        string `mapstructure:"System.State"`
	Description  string `mapstructure:"System.Description"`
	Parent       int    `mapstructure:"System.Parent"`
	Tags         string `mapstructure:"System.Tags"`
	CommentCount int    `mapstructure:"System.CommentCount"`
}

// normalizeWorkItem maps one raw payload into the fixed WorkItem shape.
// This is the single place backend field names appear; numbers arrive
// as JSON float64 and are weakly decoded into ints.
func normalizeWorkItem(raw rawWorkItem) (models.WorkItem, error) {
	var fields trackerFields
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &fields,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return models.WorkItem{}, fmt.Errorf("building field decoder: %w", err)
	}
	if err := decoder.Decode(raw.Fields); err != nil {
		return models.WorkItem{}, fmt.Errorf("decoding fields: %w", err)
	}

	link := raw.Links.HTML.Href
	if link == "" {
		link = raw.URL
	}

	return models.WorkItem{
		ID:           raw.ID,
		Type:         models.WorkItemType(fields.Type),
		Title:        fields.Title,
		Description:  fields.Description,
		State:        fields.State,
		ParentID:     fields.Parent,
		URL:          link,
		Tags:         splitTags(fields.Tags),
		CommentCount: fields.CommentCount,
	}, nil
}

// splitTags converts the tracker's "; "-joined tag string into a slice.
func splitTags(tags string) []string {
	if strings.TrimSpace(tags) == "" {
		return nil
	}
	parts := strings.Split(tags, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
