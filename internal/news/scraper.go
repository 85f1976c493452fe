package news

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"crypto-digest-bot/internal/logger"
)

// Scraper pulls headlines from the Google News search page. It is the
// fallback source when every configured RSS feed is blocked or empty.
type Scraper struct {
	baseURL string
	timeout time.Duration
}

// NewScraper creates a fallback scraper. An empty baseURL selects the
// public Google News site.
func NewScraper(baseURL string) *Scraper {
	if baseURL == "" {
		baseURL = "https://news.google.com"
	}
	return &Scraper{
		baseURL: baseURL,
		timeout: 10 * time.Second,
	}
}

// Scrape searches for the tracked keywords and returns whatever headlines
// carry a machine-readable timestamp. The caller applies the same cutoff
// and keyword filter as for feed items.
func (s *Scraper) Scrape(ctx context.Context, keywords []string) ([]Item, error) {
	var items []Item

	host := s.baseURL
	if u, err := url.Parse(s.baseURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}

	c := colly.NewCollector(
		colly.AllowedDomains(host),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", browserUserAgent)
	})

	c.OnHTML("article", func(e *colly.HTMLElement) {
		if item, ok := s.articleItem(e.DOM); ok {
			items = append(items, item)
		}
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.Warn(ctx, "Fallback scrape request failed", "url", r.Request.URL.String(), "error", err)
	})

	query := url.QueryEscape(strings.Join(keywords, " "))
	searchURL := fmt.Sprintf("%s/search?q=%s&hl=en-US&gl=US&ceid=US:en", s.baseURL, query)

	if err := c.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", searchURL, err)
	}
	c.Wait()

	logger.Info(ctx, "Fallback scrape completed", "headlines", len(items))
	return items, nil
}

// articleItem extracts one headline from an article node. Entries without a
// title, link, and machine-readable timestamp are dropped.
func (s *Scraper) articleItem(sel *goquery.Selection) (Item, bool) {
	title := strings.TrimSpace(sel.Find("h3, h4, a.JtKRv").First().Text())
	link := sel.Find("a").First().AttrOr("href", "")
	datetime := sel.Find("time").AttrOr("datetime", "")
	if title == "" || link == "" || datetime == "" {
		return Item{}, false
	}

	published, err := time.Parse(time.RFC3339, datetime)
	if err != nil {
		return Item{}, false
	}

	if strings.HasPrefix(link, "./") {
		link = s.baseURL + link[1:]
	}

	return Item{
		Source:    "GoogleNews",
		Title:     title,
		Link:      link,
		Published: published.UTC(),
	}, true
}
