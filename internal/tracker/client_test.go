package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valter-silva-au/relnotes/pkg/models"
)

// trackerStub serves the three endpoints a fetch touches: the saved
// query, the type catalog, and the work item batch.
func trackerStub(t *testing.T, ids []int, fields map[int]map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/_apis/wit/wiql/"):
			refs := make([]map[string]any, len(ids))
			for i, id := range ids {
				refs[i] = map[string]any{"id": id}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"workItems": refs})

		case strings.Contains(r.URL.Path, "/_apis/wit/workitemtypes"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]any{
					{"name": "Bug", "color": "CC293D", "icon": map[string]any{"url": "https://icons.example/bug.png"}},
					{"name": "Task", "color": "F2CB1D", "icon": map[string]any{"url": "https://icons.example/task.png"}},
				},
			})

		case strings.Contains(r.URL.Path, "/_apis/wit/workitems"):
			var value []map[string]any
			for _, idStr := range strings.Split(r.URL.Query().Get("ids"), ",") {
				var id int
				_, _ = fmt.Sscanf(idStr, "%d", &id)
				value = append(value, map[string]any{
					"id":     id,
					"fields": fields[id],
					"_links": map[string]any{
						"html": map[string]any{"href": fmt.Sprintf("https://tracker.example/items/%d", id)},
					},
				})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"value": value})

		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func bugFields(title string, parent int) map[string]any {
	f := map[string]any{
		"System.Title":        title,
		"System.WorkItemType": "Bug",
		"System.State":        "Closed",
		"System.Description":  "<div>Fixed a crash in the export path.</div>",
	}
	if parent != 0 {
		// Numbers arrive as float64 from JSON decoding.
		f["System.Parent"] = float64(parent)
	}
	return f
}

func TestFetchWorkItems(t *testing.T) {
	server := trackerStub(t, []int{11, 7}, map[int]map[string]any{
		11: bugFields("Crash on empty dataset", 7),
		7: {
			"System.Title":        "Reporting",
			"System.WorkItemType": "Feature",
		},
	})
	c := NewClientForURL(server.URL, "pat")

	items, err := c.FetchWorkItems(context.Background(), "query-guid")
	require.NoError(t, err)
	require.Len(t, items, 2)

	// Query result order is preserved.
	assert.Equal(t, 11, items[0].ID)
	assert.Equal(t, 7, items[1].ID)

	bug := items[0]
	assert.Equal(t, models.TypeBug, bug.Type)
	assert.Equal(t, "Crash on empty dataset", bug.Title)
	assert.Equal(t, 7, bug.ParentID)
	assert.Equal(t, "https://tracker.example/items/11", bug.URL)
	assert.Equal(t, "https://icons.example/bug.png", bug.Icon.URL)
	assert.Equal(t, "CC293D", bug.Icon.Color)

	// Types missing from the catalog just render without an icon.
	assert.Empty(t, items[1].Icon.URL)
}

func TestFetchWorkItems_EmptyQueryResult(t *testing.T) {
	server := trackerStub(t, nil, nil)
	c := NewClientForURL(server.URL, "pat")

	items, err := c.FetchWorkItems(context.Background(), "query-guid")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestFetchWorkItems_TreeQueryShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/_apis/wit/wiql/"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"workItemRelations": []map[string]any{
					{"target": map[string]any{"id": 3}},
					{"target": map[string]any{"id": 4}},
					{"target": map[string]any{"id": 3}}, // duplicate edge
				},
			})
		case strings.Contains(r.URL.Path, "/_apis/wit/workitemtypes"):
			_ = json.NewEncoder(w).Encode(map[string]any{"value": []any{}})
		case strings.Contains(r.URL.Path, "/_apis/wit/workitems"):
			assert.Equal(t, "3,4", r.URL.Query().Get("ids"))
			_ = json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]any{
					{"id": 3, "fields": bugFields("first", 0)},
					{"id": 4, "fields": bugFields("second", 0)},
				},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	c := NewClientForURL(server.URL, "pat")

	items, err := c.FetchWorkItems(context.Background(), "tree-query")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].ID)
	assert.Equal(t, 4, items[1].ID)
}

func TestFetchWorkItems_Unauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusNonAuthoritativeInfo} {
		t.Run(fmt.Sprintf("status_%d", status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))
			t.Cleanup(server.Close)
			c := NewClientForURL(server.URL, "bad-pat")

			_, err := c.FetchWorkItems(context.Background(), "query-guid")
			require.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func TestFetchWorkItems_IconFailureIsNotFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/_apis/wit/wiql/"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"workItems": []map[string]any{{"id": 5}},
			})
		case strings.Contains(r.URL.Path, "/_apis/wit/workitemtypes"):
			w.WriteHeader(http.StatusInternalServerError)
		case strings.Contains(r.URL.Path, "/_apis/wit/workitems"):
			_ = json.NewEncoder(w).Encode(map[string]any{
				"value": []map[string]any{{"id": 5, "fields": bugFields("no icons", 0)}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	c := NewClientForURL(server.URL, "pat")

	items, err := c.FetchWorkItems(context.Background(), "query-guid")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Icon.URL)
}

func TestFetchWorkItems_Batching(t *testing.T) {
	ids := make([]int, 250)
	fields := make(map[int]map[string]any, 250)
	for i := range ids {
		ids[i] = i + 1
		fields[i+1] = bugFields(fmt.Sprintf("bug %d", i+1), 0)
	}
	var batchSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/_apis/wit/wiql/"):
			refs := make([]map[string]any, len(ids))
			for i, id := range ids {
				refs[i] = map[string]any{"id": id}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"workItems": refs})
		case strings.Contains(r.URL.Path, "/_apis/wit/workitemtypes"):
			_ = json.NewEncoder(w).Encode(map[string]any{"value": []any{}})
		case strings.Contains(r.URL.Path, "/_apis/wit/workitems"):
			batch := strings.Split(r.URL.Query().Get("ids"), ",")
			batchSizes = append(batchSizes, len(batch))
			var value []map[string]any
			for _, idStr := range batch {
				var id int
				_, _ = fmt.Sscanf(idStr, "%d", &id)
				value = append(value, map[string]any{"id": id, "fields": fields[id]})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"value": value})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	c := NewClientForURL(server.URL, "pat")

	items, err := c.FetchWorkItems(context.Background(), "query-guid")
	require.NoError(t, err)
	assert.Len(t, items, 250)
	assert.Equal(t, []int{200, 50}, batchSizes)
	assert.Equal(t, 1, items[0].ID)
	assert.Equal(t, 250, items[249].ID)
}
