// Package domain hosts the Toolbox: the concrete object internal/catalog
// reflects to build the method catalog described in spec §4.2. Every
// exported method here becomes one Task-dispatchable catalog entry.
package domain

import (
	"context"
	"sync"
	"time"

	"github.com/vk/cryptoasl/internal/providers/marketdata"
	"github.com/vk/cryptoasl/internal/providers/news"
)

// TimeUnit is the enum spec §6 uses as its worked example: a named
// string type advertised in the catalog's Enums table.
type TimeUnit string

// EnumValues satisfies catalog's enumerable interface.
func (TimeUnit) EnumValues() []string { return []string{"Days", "Hours", "Minutes"} }

const (
	Days    TimeUnit = "Days"
	Hours   TimeUnit = "Hours"
	Minutes TimeUnit = "Minutes"
)

// PricePoint is one OHLC-less price observation: symbol, price, and the
// timestamp it was observed at.
type PricePoint struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// NewsItem is one headline returned by GetNews.
type NewsItem struct {
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Source    string    `json:"source"`
	Published time.Time `json:"published"`
}

// RecordedOutput is one entry appended by RecordOutput, per spec §4.4:
// each RecordOutput call is recorded in call order for the final
// rendered transcript. Content is untyped because a
// Task state may record anything a domain method returns — a scalar, a
// price-history array, a news-item list — and the human-readable
// serializer (internal/serialize) renders whatever shape arrives.
type RecordedOutput struct {
	Category string `json:"category"`
	Content  any    `json:"content"`
}

// Toolbox is the reflected catalog host. It is safe for concurrent use:
// its only mutable state (the recorder) is mutex-guarded.
type Toolbox struct {
	MarketData *marketdata.Client
	News       *news.Client

	mu      sync.Mutex
	records []RecordedOutput
}

// New builds a Toolbox backed by concrete market-data and news providers.
func New(md *marketdata.Client, n *news.Client) *Toolbox {
	return &Toolbox{MarketData: md, News: n}
}

// GetPriceHistory returns interval-bucketed prices for symbol between
// from and to, cached through the market-data provider's Redis layer.
func (t *Toolbox) GetPriceHistory(ctx context.Context, symbol string, interval string, from time.Time, to time.Time) ([]PricePoint, error) {
	points, err := t.MarketData.History(ctx, symbol, interval, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]PricePoint, len(points))
	for i, p := range points {
		out[i] = PricePoint{Symbol: symbol, Price: p.Price, Timestamp: p.Timestamp}
	}
	return out, nil
}

// GetLatestPrice returns the most recent observed price for symbol.
func (t *Toolbox) GetLatestPrice(ctx context.Context, symbol string) (PricePoint, error) {
	p, err := t.MarketData.Latest(ctx, symbol)
	if err != nil {
		return PricePoint{}, err
	}
	return PricePoint{Symbol: symbol, Price: p.Price, Timestamp: p.Timestamp}, nil
}

// GetNews returns up to limit recent headlines mentioning symbol.
func (t *Toolbox) GetNews(ctx context.Context, symbol string, limit int) ([]NewsItem, error) {
	items, err := t.News.Search(ctx, symbol, limit)
	if err != nil {
		return nil, err
	}
	out := make([]NewsItem, len(items))
	for i, it := range items {
		out[i] = NewsItem{Title: it.Title, URL: it.URL, Source: it.Source, Published: it.Published}
	}
	return out, nil
}

// AddTime adds value units of unit to t, per spec §6's worked date-
// arithmetic example.
func (t *Toolbox) AddTime(ctx context.Context, at time.Time, value float64, unit TimeUnit) (time.Time, error) {
	switch unit {
	case Days:
		return at.AddDate(0, 0, int(value)), nil
	case Hours:
		return at.Add(time.Duration(value) * time.Hour), nil
	case Minutes:
		return at.Add(time.Duration(value) * time.Minute), nil
	default:
		return at, nil
	}
}

// DiffDays returns the whole number of days between a and b (b - a).
func (t *Toolbox) DiffDays(ctx context.Context, a time.Time, b time.Time) (int, error) {
	return int(b.Sub(a).Hours() / 24), nil
}

// RecordOutput appends one entry to the run's transcript, per spec §4.4.
// It never fails: recording is a side effect, not a fallible operation,
// so its second return value is always nil.
func (t *Toolbox) RecordOutput(ctx context.Context, category string, content any) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, RecordedOutput{Category: category, Content: content})
	return true, nil
}

// Records returns a copy of everything recorded so far, in call order.
func (t *Toolbox) Records() []RecordedOutput {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]RecordedOutput, len(t.records))
	copy(out, t.records)
	return out
}
