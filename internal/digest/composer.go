package digest

import (
	"fmt"
	"strings"
	"time"

	"crypto-digest-bot/internal/market"
	"crypto-digest-bot/internal/news"
)

const windowTimeLayout = "2006-01-02 15:04Z"

// noHeadlines is the placeholder used when no news item survives filtering.
const noHeadlines = "No matching headlines in the last 24h."

const promptTemplate = `Below are my daily portfolio snapshot and a summary of the last 24 hours of market moves and news. Write a short social-media style recap of around 200-260 words: conversational, short sentences, first person with a bit of playful pride, balancing market mood, risk reminders, and how my positions did. Do not list raw numbers one by one and avoid dry number dumps; end with one light tip. Always produce the complete text, never cut off mid-sentence.

Output format: plain text only - no Markdown, no bold, no headings or list markers.

[Portfolio snapshot]
%s

[Market & news]
%s
`

// FormatSummary renders one market line with sign-aware change figures.
func FormatSummary(s market.SymbolSummary) string {
	change := s.Change()
	sign := "+"
	if change.IsNegative() {
		sign = "-"
	}
	return fmt.Sprintf("%s: %s%s (%s%s%%) start=%s end=%s high=%s low=%s volume=%s (%s quote)",
		s.Symbol,
		sign, change.Abs().StringFixed(2),
		sign, s.ChangePct().Abs().StringFixed(2),
		s.StartPrice.StringFixed(2), s.EndPrice.StringFixed(2),
		s.High.StringFixed(2), s.Low.StringFixed(2),
		s.BaseVolume.StringFixed(4), s.QuoteVolume.StringFixed(2))
}

// FormatNews renders the retained headlines as a 1-based enumerated list,
// or a placeholder sentence when nothing matched.
func FormatNews(items []news.Item) string {
	if len(items) == 0 {
		return noHeadlines
	}
	lines := make([]string, 0, len(items))
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. [%s] %s - %s (%s)",
			i+1, item.Source, item.Published.Format(windowTimeLayout), item.Title, item.Link))
	}
	return strings.Join(lines, "\n")
}

// MarketBlock assembles the window header, the per-symbol market lines (or
// a placeholder when every symbol failed), and the news list.
func MarketBlock(summaries []market.SymbolSummary, items []news.Item, start, end time.Time, interval string) string {
	lines := []string{
		fmt.Sprintf("Window: %s -> %s (interval %s)",
			start.Format(windowTimeLayout), end.Format(windowTimeLayout), interval),
	}

	if len(summaries) > 0 {
		lines = append(lines, "Market move (last 24h):")
		for _, s := range summaries {
			lines = append(lines, "- "+FormatSummary(s))
		}
	} else {
		lines = append(lines, "Market move: unavailable")
	}

	lines = append(lines, "", "News (last 24h, keyword-filtered):", FormatNews(items))
	return strings.Join(lines, "\n")
}

// BuildPrompt merges the fixed instruction template, the snapshot text,
// and the market/news block into the final request string. Pure: identical
// inputs always produce byte-identical output.
func BuildPrompt(snapshotText, marketBlock string) string {
	return fmt.Sprintf(promptTemplate, snapshotText, marketBlock)
}
