package core

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// minCleanLength is the shortest cleaned description considered worth
// summarizing; anything shorter carries no signal beyond the title.
const minCleanLength = 30

var (
	htmlTagPattern  = regexp.MustCompile(`<[^>]*?>`)
	urlPattern      = regexp.MustCompile(`http[s]?://\S+`)
	userRefPattern  = regexp.MustCompile(`@\w+(\.\w+)?`)
	nbspPattern     = regexp.MustCompile(`&nbsp;`)
	spacePattern    = regexp.MustCompile(`\s+`)
	wordPattern     = regexp.MustCompile(`\b\w+\b`)
	nonSpacePattern = regexp.MustCompile(`\S`)
)

// CleanText strips a work item description of HTML tags, URLs, user
// references, and entity noise, collapsing whitespace. Bodies that are
// pure JSON (bot-generated payloads pasted into descriptions) and
// results shorter than minCleanLength are dropped entirely.
func CleanText(s string) string {
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = urlPattern.ReplaceAllString(s, "")
	s = userRefPattern.ReplaceAllString(s, "")

	if json.Valid([]byte(strings.TrimSpace(s))) && strings.TrimSpace(s) != "" {
		return ""
	}

	s = nbspPattern.ReplaceAllString(s, " ")
	s = spacePattern.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if len(s) < minCleanLength {
		return ""
	}
	return s
}

// Truncate returns at most n runes of s, appending an ellipsis when the
// text was cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}

// FormatDate converts a tracker timestamp ("2006-01-02T15:04:05.000Z")
// into the short human-readable form used in rendered documents. The
// input is returned unchanged when it does not parse.
func FormatDate(dateStr string) string {
	t, err := time.Parse("2006-01-02T15:04:05.000Z", dateStr)
	if err != nil {
		return dateStr
	}
	return t.Format("02-01-2006 15:04")
}

// EstimateTokens approximates the token count of a prompt as the word
// count plus the non-whitespace character count. It deliberately
// overestimates so prompts near a model's budget are rejected rather
// than truncated mid-request.
func EstimateTokens(text string) int {
	words := len(wordPattern.FindAllString(text, -1))
	chars := len(nonSpacePattern.FindAllString(text, -1))
	return words + chars
}
