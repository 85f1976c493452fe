package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"crypto-digest-bot/internal/logger"
	"crypto-digest-bot/internal/store"
	"crypto-digest-bot/internal/trace"
)

const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Item is one retained headline.
type Item struct {
	Source    string
	Title     string
	Link      string
	Published time.Time // always UTC
}

// Collector fetches RSS feeds, filters items by recency and keyword, and
// returns them newest first. Feed-level failure is never fatal: a broken
// feed is logged and skipped.
type Collector struct {
	feeds      []store.FeedConfig
	keywords   []string
	httpClient *http.Client
	fallback   *Scraper
}

// NewCollector creates a collector over the given feeds. fallback may be
// nil to disable the headline scrape used when every feed comes up empty.
func NewCollector(feeds []store.FeedConfig, keywords []string, fallback *Scraper) *Collector {
	return &Collector{
		feeds:    feeds,
		keywords: keywords,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		fallback: fallback,
	}
}

// Collect gathers items published at or after cutoff whose title+description
// match at least one tracked keyword, merged across all feeds and sorted by
// publish time descending. Ties keep original feed encounter order.
func (c *Collector) Collect(ctx context.Context, cutoff time.Time) []Item {
	ctx, span := trace.StartSpan(ctx, "news-collect")
	defer span.End()

	var items []Item
	for _, feed := range c.feeds {
		feedItems, err := c.collectFeed(ctx, feed, cutoff)
		if err != nil {
			logger.Warn(ctx, "Skipping feed", "source", feed.Name, "error", err)
			continue
		}
		items = append(items, feedItems...)
	}

	if len(items) == 0 && c.fallback != nil {
		logger.Info(ctx, "No items from configured feeds, trying fallback scrape")
		scraped, err := c.fallback.Scrape(ctx, c.keywords)
		if err != nil {
			logger.Warn(ctx, "Fallback scrape failed", "error", err)
		}
		for _, it := range scraped {
			if c.retain(it, cutoff) {
				items = append(items, it)
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Published.After(items[j].Published)
	})
	return items
}

type rssDocument struct {
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

func (c *Collector) collectFeed(ctx context.Context, feed store.FeedConfig, cutoff time.Time) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, err
	}
	// Some providers gate feeds on a realistic browser user agent.
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/rss+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	// CloudFront/WAF sometimes answers with an empty 202 challenge.
	if resp.Header.Get("x-amzn-waf-action") != "" || len(strings.TrimSpace(string(body))) == 0 {
		return nil, fmt.Errorf("blocked or empty response")
	}

	var doc rssDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var items []Item
	for _, raw := range doc.Channel.Items {
		published, err := parseFeedTime(strings.TrimSpace(raw.PubDate))
		if err != nil {
			// Items without a parseable date are dropped, the feed is kept.
			continue
		}
		it := Item{
			Source:    feed.Name,
			Title:     strings.TrimSpace(raw.Title),
			Link:      strings.TrimSpace(raw.Link),
			Published: published,
		}
		if c.retainWithDescription(it, raw.Description, cutoff) {
			items = append(items, it)
		}
	}
	return items, nil
}

// retain applies the cutoff and keyword rules to an item without a
// description body.
func (c *Collector) retain(it Item, cutoff time.Time) bool {
	return c.retainWithDescription(it, "", cutoff)
}

func (c *Collector) retainWithDescription(it Item, description string, cutoff time.Time) bool {
	if it.Published.Before(cutoff) {
		return false
	}
	content := strings.ToLower(it.Title + " " + description)
	for _, kw := range c.keywords {
		if strings.Contains(content, kw) {
			return true
		}
	}
	return false
}

// feedTimeLayouts covers the RFC-822-ish formats seen in the wild. The
// zone-less layout comes last so a missing timezone parses as UTC.
var feedTimeLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	time.RFC3339,
	"Mon, 2 Jan 2006 15:04:05",
}

func parseFeedTime(s string) (time.Time, error) {
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable publish date %q", s)
}
