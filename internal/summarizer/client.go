// Package summarizer wraps the external LLM chat-completions API
// behind the core Summarizer contract, adding prompt templating,
// bounded exponential backoff for transient failures, and the
// transient-vs-fatal distinction the assembler's degrade logic
// depends on.
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/valter-silva-au/relnotes/internal/core"
	"github.com/valter-silva-au/relnotes/pkg/models"
)

// ErrUnauthorized indicates the API rejected the key. This is fatal to
// the run rather than retried: waiting will not make a bad key valid.
var ErrUnauthorized = errors.New("summarizer API rejected credentials")

// initialBackoff is the first retry delay; each subsequent retry
// doubles it.
const initialBackoff = 10 * time.Second

// Client calls an OpenAI-style chat-completions endpoint. It is
// stateless per call and safe for concurrent use.
type Client struct {
	cfg        models.ModelConfig
	httpClient *http.Client

	// sleep is replaced in tests so backoff does not stall the suite.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a summarizer Client from the model configuration.
func NewClient(cfg models.ModelConfig) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Summarize builds the role-specific prompt for the given context and
// calls the completions endpoint, retrying transient failures
// (timeouts, 429, 5xx) with bounded exponential backoff. Once retries
// are exhausted it returns core.ErrSummaryUnavailable so the caller
// degrades to fallback text instead of aborting. Prompts over the
// model's token budget are rejected without a request for the same
// reason. A rejected API key surfaces as ErrUnauthorized, which is
// fatal.
func (c *Client) Summarize(ctx context.Context, sc core.SummaryContext) (string, error) {
	prompt := core.BuildPrompt(sc)

	if budget := c.cfg.TokenBudget; budget > 0 && core.EstimateTokens(prompt) > budget {
		return "", fmt.Errorf("prompt exceeds token budget %d: %w", budget, core.ErrSummaryUnavailable)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := initialBackoff << (attempt - 1)
			if err := c.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		text, err := c.complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		if errors.Is(err, ErrUnauthorized) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		if !isTransient(err) {
			return "", fmt.Errorf("%v: %w", err, core.ErrSummaryUnavailable)
		}
		lastErr = err
	}

	return "", fmt.Errorf("retries exhausted: %v: %w", lastErr, core.ErrSummaryUnavailable)
}

// transientError marks failures worth retrying.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func isTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// complete performs one chat-completions request.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model:    c.cfg.Name,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		// Network-level failures (timeouts, resets) are transient.
		return "", &transientError{fmt.Errorf("calling completions: %w", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// Fall through to decode.
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("status %d: %w", resp.StatusCode, ErrUnauthorized)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", &transientError{fmt.Errorf("completions returned status %d", resp.StatusCode)}
	default:
		// 404 here usually means the account has no access to the model.
		return "", fmt.Errorf("completions returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &transientError{fmt.Errorf("reading completion response: %w", err)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completions returned no choices: %w", core.ErrSummaryUnavailable)
	}

	return parsed.Choices[0].Message.Content, nil
}
