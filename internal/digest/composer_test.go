package digest

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"crypto-digest-bot/internal/market"
	"crypto-digest-bot/internal/news"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func sampleSummary(symbol, start, end string) market.SymbolSummary {
	return market.SymbolSummary{
		Symbol:      symbol,
		StartPrice:  d(start),
		EndPrice:    d(end),
		High:        d(end),
		Low:         d(start),
		BaseVolume:  d("12.3456"),
		QuoteVolume: d("1234.56"),
	}
}

func TestFormatSummaryPositiveChange(t *testing.T) {
	line := FormatSummary(sampleSummary("BTCUSDT", "100.00", "110.00"))

	for _, want := range []string{"BTCUSDT:", "+10.00 (+10.00%)", "start=100.00", "end=110.00", "volume=12.3456 (1234.56 quote)"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestFormatSummaryNegativeChange(t *testing.T) {
	line := FormatSummary(sampleSummary("ETHUSDT", "200.00", "150.00"))

	if !strings.Contains(line, "-50.00 (-25.00%)") {
		t.Errorf("line %q missing sign-aware negative change", line)
	}
}

func TestFormatNewsEnumerates(t *testing.T) {
	items := []news.Item{
		{Source: "Coindesk", Title: "BTC pops", Link: "https://example.com/1",
			Published: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		{Source: "BinanceFeed", Title: "ETH drifts", Link: "https://example.com/2",
			Published: time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)},
	}

	got := FormatNews(items)
	want := "1. [Coindesk] 2025-06-01 12:00Z - BTC pops (https://example.com/1)\n" +
		"2. [BinanceFeed] 2025-06-01 09:30Z - ETH drifts (https://example.com/2)"
	if got != want {
		t.Errorf("FormatNews =\n%q\nwant\n%q", got, want)
	}
}

func TestFormatNewsEmptyPlaceholder(t *testing.T) {
	if got := FormatNews(nil); !strings.Contains(got, "No matching headlines") {
		t.Errorf("empty news = %q, want placeholder", got)
	}
}

func TestMarketBlockPlaceholderWhenNoSummaries(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	block := MarketBlock(nil, nil, start, end, "1h")
	if !strings.Contains(block, "Market move: unavailable") {
		t.Errorf("block missing unavailable placeholder:\n%s", block)
	}
	if !strings.Contains(block, "Window: 2025-06-01 00:00Z -> 2025-06-02 00:00Z (interval 1h)") {
		t.Errorf("block missing window header:\n%s", block)
	}
}

func TestMarketBlockListsEverySymbol(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	summaries := []market.SymbolSummary{
		sampleSummary("BTCUSDT", "100", "110"),
		sampleSummary("ETHUSDT", "50", "55"),
		sampleSummary("BNBUSDT", "10", "9"),
	}

	block := MarketBlock(summaries, nil, start, end, "1h")
	for _, sym := range []string{"- BTCUSDT:", "- ETHUSDT:", "- BNBUSDT:"} {
		if !strings.Contains(block, sym) {
			t.Errorf("block missing line for %s:\n%s", sym, block)
		}
	}
	// Output order follows input order.
	if strings.Index(block, "BTCUSDT") > strings.Index(block, "ETHUSDT") {
		t.Error("symbol lines out of input order")
	}
}

func TestBuildPromptIsPure(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	summaries := []market.SymbolSummary{sampleSummary("BTCUSDT", "100", "110")}
	items := []news.Item{{Source: "Coindesk", Title: "BTC pops", Link: "https://example.com/1", Published: start}}

	block1 := MarketBlock(summaries, items, start, end, "1h")
	block2 := MarketBlock(summaries, items, start, end, "1h")
	p1 := BuildPrompt("snapshot text", block1)
	p2 := BuildPrompt("snapshot text", block2)

	if p1 != p2 {
		t.Error("identical inputs produced different prompts")
	}
	if !strings.Contains(p1, "snapshot text") || !strings.Contains(p1, "BTC pops") {
		t.Errorf("prompt missing embedded inputs:\n%s", p1)
	}
}
