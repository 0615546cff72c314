// Package normalize prepares raw customer messages for classification.
package normalize

import (
	"regexp"
	"strings"
)

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	headerLines    = regexp.MustCompile(`(?m)^(From:|To:|Subject:|Date:).*$`)
	signatureLines = regexp.MustCompile(`(?m)^--.*$`)
	urlTokens      = regexp.MustCompile(`http[s]?://[^\s]+`)
	periodRuns     = regexp.MustCompile(`[.]{3,}`)
	bangRuns       = regexp.MustCompile(`[!]{2,}`)
	questionRuns   = regexp.MustCompile(`[?]{2,}`)
)

// Clean strips email header lines, signature lines and URLs, collapses
// punctuation runs and whitespace, and trims the result. It is pure and
// idempotent: Clean(Clean(x)) == Clean(x).
func Clean(raw string) string {
	if raw == "" {
		return ""
	}

	// Removing a URL or collapsing whitespace can surface a pattern that
	// was not at a line boundary before, so run to a fixpoint. Two passes
	// settle everything seen in practice.
	text := raw
	for range 4 {
		next := cleanOnce(text)
		if next == text {
			return next
		}
		text = next
	}
	return text
}

func cleanOnce(raw string) string {
	text := headerLines.ReplaceAllString(raw, "")
	text = signatureLines.ReplaceAllString(text, "")
	text = urlTokens.ReplaceAllString(text, "")
	text = periodRuns.ReplaceAllString(text, "...")
	text = bangRuns.ReplaceAllString(text, "!")
	text = questionRuns.ReplaceAllString(text, "?")
	text = whitespaceRuns.ReplaceAllString(strings.TrimSpace(text), " ")

	return strings.TrimSpace(text)
}
