package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// RunReport summarizes a completed generation run for notification.
type RunReport struct {
	Solution  string
	Version   string
	Items     int
	Degraded  int
	Artifacts []string
}

// Notifier announces completed release-notes runs to external channels.
type Notifier interface {
	Notify(report RunReport) error
}

// slackNotifier posts run announcements to a Slack webhook.
type slackNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewSlackNotifier creates a Notifier that posts to the given Slack
// webhook URL.
func NewSlackNotifier(webhookURL string) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{},
	}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts the run report to the configured webhook.
func (s *slackNotifier) Notify(report RunReport) error {
	msg := s.buildMessage(report)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *slackNotifier) buildMessage(report RunReport) slackMessage {
	header := fmt.Sprintf("%s v%s release notes published", report.Solution, report.Version)

	body := fmt.Sprintf("*%d* work items", report.Items)
	if report.Degraded > 0 {
		body += fmt.Sprintf(" (%d summaries degraded to fallback text)", report.Degraded)
	}
	if len(report.Artifacts) > 0 {
		body += "\n" + strings.Join(report.Artifacts, "\n")
	}

	return slackMessage{Blocks: []slackBlock{
		{Type: "header", Text: &slackText{Type: "plain_text", Text: header}},
		{Type: "section", Text: &slackText{Type: "mrkdwn", Text: body}},
	}}
}
