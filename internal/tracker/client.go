// Package tracker fetches raw work items from an Azure DevOps style
// backend: it runs a saved query, batch-fetches the resulting items,
// and normalizes the loosely-typed payloads into models.WorkItem at
// the ingestion boundary so the core never touches backend field names.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/valter-silva-au/relnotes/pkg/models"
)

// ErrUnauthorized indicates the tracker rejected the personal access
// token. Fatal to the run: there are no items to process.
var ErrUnauthorized = errors.New("tracker rejected credentials")

// batchSize is the tracker's per-request cap on work item ids.
const batchSize = 200

const apiVersion = "7.1"

// Fetcher is the collaborator contract the pipeline depends on.
type Fetcher interface {
	FetchWorkItems(ctx context.Context, queryID string) ([]models.WorkItem, error)
}

// Client talks to the tracker's REST API for one organization/project.
type Client struct {
	baseURL    string // https://dev.azure.com/{org}/{project}
	pat        string
	httpClient *http.Client

	// icons caches per-type icon metadata for the run.
	icons map[models.WorkItemType]models.IconMeta
}

// NewClient creates a tracker Client from the tracker configuration.
func NewClient(cfg models.TrackerConfig) *Client {
	return &Client{
		baseURL: fmt.Sprintf("https://dev.azure.com/%s/%s",
			url.PathEscape(cfg.Organization), url.PathEscape(cfg.Project)),
		pat: cfg.PAT,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientForURL creates a Client against an explicit base URL. Used
// by tests to point at a stub server.
func NewClientForURL(baseURL, pat string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pat:        pat,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchWorkItems runs the saved query, batch-fetches the referenced
// items, and returns them normalized, preserving the query's result
// order. Any failure here is fatal to the run.
func (c *Client) FetchWorkItems(ctx context.Context, queryID string) ([]models.WorkItem, error) {
	ids, err := c.runQuery(ctx, queryID)
	if err != nil {
		return nil, fmt.Errorf("running query %s: %w", queryID, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if err := c.loadIcons(ctx); err != nil {
		// Icon metadata is cosmetic; a failure here must not kill the
		// fetch. Items render without icons.
		c.icons = nil
	}

	var items []models.WorkItem
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch, err := c.fetchBatch(ctx, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("fetching work items: %w", err)
		}
		items = append(items, batch...)
	}

	return items, nil
}

// wiqlResponse covers both flat and tree query result shapes.
type wiqlResponse struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
	WorkItemRelations []struct {
		Target struct {
			ID int `json:"id"`
		} `json:"target"`
	} `json:"workItemRelations"`
}

// runQuery executes the saved WIQL query and returns the referenced
// work item ids in result order.
func (c *Client) runQuery(ctx context.Context, queryID string) ([]int, error) {
	endpoint := fmt.Sprintf("%s/_apis/wit/wiql/%s?api-version=%s", c.baseURL, url.PathEscape(queryID), apiVersion)

	var parsed wiqlResponse
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var ids []int
	add := func(id int) {
		if id != 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, wi := range parsed.WorkItems {
		add(wi.ID)
	}
	for _, rel := range parsed.WorkItemRelations {
		add(rel.Target.ID)
	}
	return ids, nil
}

type workItemBatchResponse struct {
	Value []rawWorkItem `json:"value"`
}

// fetchBatch retrieves full field payloads for up to batchSize ids.
func (c *Client) fetchBatch(ctx context.Context, ids []int) ([]models.WorkItem, error) {
	strIDs := make([]string, len(ids))
	for i, id := range ids {
		strIDs[i] = strconv.Itoa(id)
	}
	endpoint := fmt.Sprintf("%s/_apis/wit/workitems?ids=%s&$expand=relations&api-version=%s",
		c.baseURL, strings.Join(strIDs, ","), apiVersion)

	var parsed workItemBatchResponse
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return nil, err
	}

	items := make([]models.WorkItem, 0, len(parsed.Value))
	for _, raw := range parsed.Value {
		item, err := normalizeWorkItem(raw)
		if err != nil {
			return nil, fmt.Errorf("normalizing work item %d: %w", raw.ID, err)
		}
		item.Icon = c.icons[item.Type]
		items = append(items, item)
	}
	return items, nil
}

type workItemTypeResponse struct {
	Value []struct {
		Name string `json:"name"`
		Icon struct {
			URL string `json:"url"`
		} `json:"icon"`
		Color string `json:"color"`
	} `json:"value"`
}

// loadIcons fetches per-type icon metadata once per run.
func (c *Client) loadIcons(ctx context.Context) error {
	if c.icons != nil {
		return nil
	}
	endpoint := fmt.Sprintf("%s/_apis/wit/workitemtypes?api-version=%s", c.baseURL, apiVersion)

	var parsed workItemTypeResponse
	if err := c.getJSON(ctx, endpoint, &parsed); err != nil {
		return err
	}

	c.icons = make(map[models.WorkItemType]models.IconMeta, len(parsed.Value))
	for _, t := range parsed.Value {
		c.icons[models.WorkItemType(t.Name)] = models.IconMeta{
			URL:   t.Icon.URL,
			Color: t.Color,
		}
	}
	return nil
}

// getJSON performs an authenticated GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.SetBasicAuth("", c.pat)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling tracker: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("status %d: %w", resp.StatusCode, ErrUnauthorized)
	// A 203 with an HTML body is how the tracker reports a bad PAT on
	// some endpoints.
	case resp.StatusCode == http.StatusNonAuthoritativeInfo:
		return fmt.Errorf("status %d: %w", resp.StatusCode, ErrUnauthorized)
	default:
		return fmt.Errorf("tracker returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding tracker response: %w", err)
	}
	return nil
}
