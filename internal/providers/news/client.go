// Package news is the HTTP-backed headline provider behind
// domain.Toolbox.GetNews. Decryption/Cloudflare-bypass concerns any real
// CryptoPanic-shaped provider needs are out of scope per spec §1's
// external-collaborator boundary — this client only speaks to a plain
// JSON HTTP endpoint.
package news

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"
)

// Item is one headline, decoded from the provider's JSON.
type Item struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}

// Client fetches news headlines over HTTP.
type Client struct {
	http *resty.Client
}

// New builds a Client against baseURL.
func New(baseURL string) *Client {
	return &Client{http: resty.New().SetBaseURL(baseURL)}
}

// Close releases the underlying HTTP client's idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// Search returns up to limit recent headlines mentioning symbol.
func (c *Client) Search(ctx context.Context, symbol string, limit int) ([]Item, error) {
	var out []Item
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"limit":  fmt.Sprintf("%d", limit),
		}).
		SetResult(&out).
		Get("/news")
	if err != nil {
		return nil, fmt.Errorf("news: search for %s: %w", symbol, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("news: search for %s: status %s", symbol, resp.Status())
	}
	return out, nil
}
