package summarizer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valter-silva-au/relnotes/internal/core"
	"github.com/valter-silva-au/relnotes/pkg/models"
)

// completionsStub is an httptest server that replays a scripted sequence
// of status codes, answering 200 with a canned completion.
type completionsStub struct {
	mu       sync.Mutex
	statuses []int
	requests []chatRequest
	server   *httptest.Server
}

func newCompletionsStub(t *testing.T, statuses ...int) *completionsStub {
	t.Helper()
	s := &completionsStub{statuses: statuses}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		s.requests = append(s.requests, req)

		status := http.StatusOK
		if len(s.statuses) > 0 {
			status = s.statuses[0]
			s.statuses = s.statuses[1:]
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "A concise summary."}},
			},
		})
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *completionsStub) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func testClient(baseURL string, maxRetries int) (*Client, *[]time.Duration) {
	c := NewClient(models.ModelConfig{
		Name:        "gpt-4o",
		BaseURL:     baseURL,
		APIKey:      "sk-test",
		TokenBudget: 128000,
		MaxRetries:  maxRetries,
	})
	var delays []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return c, &delays
}

func itemContext() core.SummaryContext {
	return core.SummaryContext{
		Kind:         core.KindItem,
		SolutionName: "Contoso",
		ItemTitle:    "Fix export crash",
		ItemType:     models.TypeBug,
		Text:         "Exports crashed when the dataset was empty.",
	}
}

func TestSummarize_Success(t *testing.T) {
	stub := newCompletionsStub(t)
	c, _ := testClient(stub.server.URL, 3)

	text, err := c.Summarize(context.Background(), itemContext())
	require.NoError(t, err)
	assert.Equal(t, "A concise summary.", text)

	require.Equal(t, 1, stub.callCount())
	req := stub.requests[0]
	assert.Equal(t, "gpt-4o", req.Model)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, "Fix export crash")
}

func TestSummarize_RetriesTransientThenSucceeds(t *testing.T) {
	stub := newCompletionsStub(t, http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusOK)
	c, delays := testClient(stub.server.URL, 3)

	text, err := c.Summarize(context.Background(), itemContext())
	require.NoError(t, err)
	assert.Equal(t, "A concise summary.", text)
	assert.Equal(t, 3, stub.callCount())

	// Backoff doubles from the 10s initial delay.
	assert.Equal(t, []time.Duration{10 * time.Second, 20 * time.Second}, *delays)
}

func TestSummarize_ExhaustedRetriesDegrade(t *testing.T) {
	stub := newCompletionsStub(t,
		http.StatusServiceUnavailable, http.StatusServiceUnavailable,
		http.StatusServiceUnavailable, http.StatusServiceUnavailable)
	c, _ := testClient(stub.server.URL, 3)

	_, err := c.Summarize(context.Background(), itemContext())
	require.ErrorIs(t, err, core.ErrSummaryUnavailable)
	// Initial attempt plus three retries.
	assert.Equal(t, 4, stub.callCount())
}

func TestSummarize_UnauthorizedIsFatalNotRetried(t *testing.T) {
	stub := newCompletionsStub(t, http.StatusUnauthorized)
	c, delays := testClient(stub.server.URL, 3)

	_, err := c.Summarize(context.Background(), itemContext())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, core.ErrSummaryUnavailable)
	assert.Equal(t, 1, stub.callCount())
	assert.Empty(t, *delays)
}

func TestSummarize_TokenBudgetExceeded(t *testing.T) {
	stub := newCompletionsStub(t)
	c, _ := testClient(stub.server.URL, 3)
	c.cfg.TokenBudget = 10

	sc := itemContext()
	sc.Text = strings.Repeat("overflow ", 50)

	_, err := c.Summarize(context.Background(), sc)
	require.ErrorIs(t, err, core.ErrSummaryUnavailable)
	// Budget rejection happens before any request.
	assert.Equal(t, 0, stub.callCount())
}

func TestSummarize_NoChoicesDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	t.Cleanup(server.Close)
	c, _ := testClient(server.URL, 3)

	_, err := c.Summarize(context.Background(), itemContext())
	require.ErrorIs(t, err, core.ErrSummaryUnavailable)
}

func TestSummarize_CancellationSurfacesDuringBackoff(t *testing.T) {
	stub := newCompletionsStub(t, http.StatusTooManyRequests)
	c := NewClient(models.ModelConfig{
		Name:        "gpt-4o",
		BaseURL:     stub.server.URL,
		APIKey:      "sk-test",
		TokenBudget: 128000,
		MaxRetries:  3,
	})
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		return context.Canceled
	}

	_, err := c.Summarize(context.Background(), itemContext())
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stub.callCount())
}
