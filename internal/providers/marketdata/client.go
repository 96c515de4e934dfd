// Package marketdata is the HTTP-backed price provider behind
// domain.Toolbox's GetPriceHistory/GetLatestPrice methods.
package marketdata

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"

	"github.com/vk/cryptoasl/internal/providers/marketdata/cache"
)

// Point is one price observation, decoded from the provider's JSON.
type Point struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Client fetches prices over HTTP, caching price-history responses
// through an interval-keyed Redis cache.
type Client struct {
	http    *resty.Client
	cache   *cache.Cache
	baseURL string
}

// New builds a Client against baseURL, with an optional cache (nil
// disables caching).
func New(baseURL string, c *cache.Cache) *Client {
	return &Client{
		http:    resty.New().SetBaseURL(baseURL),
		cache:   c,
		baseURL: baseURL,
	}
}

// Close releases the underlying HTTP client's idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// Latest fetches the most recent price for symbol, uncached (it is, by
// definition, always fresh).
func (c *Client) Latest(ctx context.Context, symbol string) (Point, error) {
	var out Point
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetResult(&out).
		Get("/prices/{symbol}/latest")
	if err != nil {
		return Point{}, fmt.Errorf("marketdata: latest price for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return Point{}, fmt.Errorf("marketdata: latest price for %s: status %s", symbol, resp.Status())
	}
	return out, nil
}

// History fetches interval-bucketed prices for symbol between from and
// to, serving from the interval-keyed cache when present.
func (c *Client) History(ctx context.Context, symbol, interval string, from, to time.Time) ([]Point, error) {
	key := cache.HistoryKey(symbol, interval, from, to)
	if c.cache != nil {
		if cached, ok, err := c.cache.GetHistory(ctx, key); err == nil && ok {
			return fromCachePoints(cached), nil
		}
	}

	var out []Point
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"interval": interval,
			"from":     from.UTC().Format(time.RFC3339),
			"to":       to.UTC().Format(time.RFC3339),
		}).
		SetResult(&out).
		Get("/prices/{symbol}/history")
	if err != nil {
		return nil, fmt.Errorf("marketdata: history for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("marketdata: history for %s: status %s", symbol, resp.Status())
	}

	if c.cache != nil {
		_ = c.cache.PutHistory(ctx, key, toCachePoints(out))
	}
	return out, nil
}

func toCachePoints(points []Point) []cache.Point {
	out := make([]cache.Point, len(points))
	for i, p := range points {
		out[i] = cache.Point{Price: p.Price, Timestamp: p.Timestamp}
	}
	return out
}

func fromCachePoints(points []cache.Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{Price: p.Price, Timestamp: p.Timestamp}
	}
	return out
}
