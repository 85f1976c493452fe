package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crypto-digest-bot/internal/store"
)

func rssBody(items string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>test</title>%s</channel></rss>`, items)
}

func rssItemXML(title, link, pubDate, description string) string {
	return fmt.Sprintf(`<item><title>%s</title><link>%s</link><pubDate>%s</pubDate><description>%s</description></item>`,
		title, link, pubDate, description)
}

func serveRSS(t *testing.T, body string, header map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for k, v := range header {
			w.Header().Set(k, v)
		}
		w.Write([]byte(body))
	}))
}

func collectorFor(urls ...string) *Collector {
	feeds := make([]store.FeedConfig, 0, len(urls))
	for i, u := range urls {
		feeds = append(feeds, store.FeedConfig{Name: fmt.Sprintf("Feed%d", i+1), URL: u})
	}
	return NewCollector(feeds, []string{"btc", "bitcoin", "eth"}, nil)
}

func TestCollectFiltersByCutoff(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-1 * time.Hour).Format(time.RFC1123Z)
	stale := now.Add(-48 * time.Hour).Format(time.RFC1123Z)

	srv := serveRSS(t, rssBody(
		rssItemXML("Bitcoin climbs", "https://example.com/1", recent, "")+
			rssItemXML("Bitcoin fell last week", "https://example.com/2", stale, ""),
	), nil)
	defer srv.Close()

	items := collectorFor(srv.URL).Collect(context.Background(), now.Add(-24*time.Hour))
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 (stale item filtered)", len(items))
	}
	if items[0].Title != "Bitcoin climbs" {
		t.Errorf("retained item = %q", items[0].Title)
	}
}

func TestCollectFiltersByKeyword(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-time.Hour).Format(time.RFC1123Z)

	srv := serveRSS(t, rssBody(
		rssItemXML("Gold hits record", "https://example.com/1", recent, "bullion everywhere")+
			rssItemXML("Markets wobble", "https://example.com/2", recent, "ETH leads declines"),
	), nil)
	defer srv.Close()

	items := collectorFor(srv.URL).Collect(context.Background(), now.Add(-24*time.Hour))
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1 (keyword matched in description, case-insensitive)", len(items))
	}
	if items[0].Title != "Markets wobble" {
		t.Errorf("retained item = %q", items[0].Title)
	}
}

func TestCollectSortsDescendingStable(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	older := now.Add(-3 * time.Hour).Format(time.RFC1123Z)
	newer := now.Add(-1 * time.Hour).Format(time.RFC1123Z)

	// Two items share the older timestamp; encounter order must hold.
	srv := serveRSS(t, rssBody(
		rssItemXML("btc first tie", "https://example.com/a", older, "")+
			rssItemXML("btc newest", "https://example.com/b", newer, "")+
			rssItemXML("btc second tie", "https://example.com/c", older, ""),
	), nil)
	defer srv.Close()

	items := collectorFor(srv.URL).Collect(context.Background(), now.Add(-24*time.Hour))
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if items[0].Title != "btc newest" {
		t.Errorf("first item = %q, want newest", items[0].Title)
	}
	if items[1].Title != "btc first tie" || items[2].Title != "btc second tie" {
		t.Errorf("tie order = %q, %q; want encounter order preserved", items[1].Title, items[2].Title)
	}
}

func TestCollectSkipsChallengeResponse(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-time.Hour).Format(time.RFC1123Z)

	blocked := serveRSS(t, rssBody(rssItemXML("btc blocked", "https://example.com/x", recent, "")),
		map[string]string{"x-amzn-waf-action": "challenge"})
	defer blocked.Close()
	ok := serveRSS(t, rssBody(rssItemXML("btc visible", "https://example.com/y", recent, "")), nil)
	defer ok.Close()

	items := collectorFor(blocked.URL, ok.URL).Collect(context.Background(), now.Add(-24*time.Hour))
	if len(items) != 1 || items[0].Title != "btc visible" {
		t.Fatalf("items = %+v, want only the unblocked feed's item", items)
	}
}

func TestCollectSkipsEmptyAndBrokenFeeds(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-time.Hour).Format(time.RFC1123Z)

	empty := serveRSS(t, "", nil)
	defer empty.Close()
	malformed := serveRSS(t, "<rss><channel><item>", nil)
	defer malformed.Close()
	ok := serveRSS(t, rssBody(rssItemXML("btc survives", "https://example.com/z", recent, "")), nil)
	defer ok.Close()

	items := collectorFor(empty.URL, malformed.URL, ok.URL).Collect(context.Background(), now.Add(-24*time.Hour))
	if len(items) != 1 || items[0].Title != "btc survives" {
		t.Fatalf("items = %+v, want only the healthy feed's item", items)
	}
}

func TestCollectSkipsUnparseableDates(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-time.Hour).Format(time.RFC1123Z)

	srv := serveRSS(t, rssBody(
		rssItemXML("btc undated", "https://example.com/1", "sometime yesterday", "")+
			rssItemXML("btc dated", "https://example.com/2", recent, ""),
	), nil)
	defer srv.Close()

	items := collectorFor(srv.URL).Collect(context.Background(), now.Add(-24*time.Hour))
	if len(items) != 1 || items[0].Title != "btc dated" {
		t.Fatalf("items = %+v, want only the dated item", items)
	}
}

func TestCollectSendsBrowserUserAgent(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(rssBody("")))
	}))
	defer srv.Close()

	collectorFor(srv.URL).Collect(context.Background(), time.Now().Add(-24*time.Hour))
	if gotUA != browserUserAgent {
		t.Errorf("User-Agent = %q, want browser user agent", gotUA)
	}
}

func TestParseFeedTimeMissingZoneIsUTC(t *testing.T) {
	got, err := parseFeedTime("Mon, 2 Jan 2006 15:04:05")
	if err != nil {
		t.Fatalf("parseFeedTime: %v", err)
	}
	want := time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("parsed = %v, want %v (missing timezone treated as UTC)", got, want)
	}
}

func TestParseFeedTimeNormalizesToUTC(t *testing.T) {
	got, err := parseFeedTime("Mon, 02 Jan 2006 15:04:05 -0500")
	if err != nil {
		t.Fatalf("parseFeedTime: %v", err)
	}
	want := time.Date(2006, 1, 2, 20, 4, 5, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("parsed = %v (%v), want %v in UTC", got, got.Location(), want)
	}
}
