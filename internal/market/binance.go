package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"crypto-digest-bot/internal/trace"
)

const defaultBaseURL = "https://api.binance.com"

// FetchError marks a failed or empty kline fetch for a single symbol.
// It is recoverable: the caller drops the symbol and carries on.
type FetchError struct {
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Kline is one OHLCV bar as returned by the Binance spot klines endpoint.
// Prices and volumes keep the exchange's string precision via decimals.
type Kline struct {
	OpenTime    time.Time
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	BaseVolume  decimal.Decimal
	QuoteVolume decimal.Decimal
}

// Client fetches spot klines from the Binance public API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a kline client. An empty baseURL selects the public
// Binance endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FetchKlines requests bars for symbol over [start, end] at the given
// interval. Bars come back in the order the API returns them, which the
// endpoint documents as chronological; they are not re-sorted here.
// An error response or an empty result set yields a *FetchError.
func (c *Client) FetchKlines(ctx context.Context, symbol string, start, end time.Time, interval string) ([]Kline, error) {
	ctx, span := trace.StartSpan(ctx, "binance-klines")
	defer span.End()

	q := url.Values{}
	q.Set("symbol", strings.ToUpper(symbol))
	q.Set("interval", interval)
	q.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))

	u := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Symbol: symbol, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Symbol: symbol, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(body))}
	}

	// Rows are positional arrays: open time, open, high, low, close,
	// base volume, close time, quote volume, ...
	var rows [][]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &FetchError{Symbol: symbol, Err: fmt.Errorf("decode klines: %w", err)}
	}
	if len(rows) == 0 {
		return nil, &FetchError{Symbol: symbol, Err: fmt.Errorf("no kline data returned")}
	}

	bars := make([]Kline, 0, len(rows))
	for _, row := range rows {
		bar, err := parseKlineRow(row)
		if err != nil {
			return nil, &FetchError{Symbol: symbol, Err: err}
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

func parseKlineRow(row []any) (Kline, error) {
	if len(row) < 8 {
		return Kline{}, fmt.Errorf("kline row has %d fields, want at least 8", len(row))
	}

	openMs, ok := row[0].(float64)
	if !ok {
		return Kline{}, fmt.Errorf("kline open time is not numeric")
	}

	fields := make([]decimal.Decimal, 0, 6)
	for _, idx := range []int{1, 2, 3, 4, 5, 7} {
		s, ok := row[idx].(string)
		if !ok {
			return Kline{}, fmt.Errorf("kline field %d is not a string", idx)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Kline{}, fmt.Errorf("kline field %d: %w", idx, err)
		}
		fields = append(fields, d)
	}

	return Kline{
		OpenTime:    time.UnixMilli(int64(openMs)).UTC(),
		Open:        fields[0],
		High:        fields[1],
		Low:         fields[2],
		Close:       fields[3],
		BaseVolume:  fields[4],
		QuoteVolume: fields[5],
	}, nil
}
