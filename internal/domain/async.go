package domain

import (
	"context"
	"time"
)

// priceResult is the payload carried through a PriceFuture's channel.
type priceResult struct {
	point PricePoint
	err   error
}

// PriceFuture is a future-of-PricePoint: the idiomatic Go substitute for
// a futures library (none of the example repos carry one — a buffered
// channel plus an Await method is the standard stdlib pattern, and it is
// exactly the shape internal/catalog's reflector already knows how to
// unwrap).
type PriceFuture struct {
	ch chan priceResult
}

// Await blocks until the fetch completes or ctx is cancelled.
func (f *PriceFuture) Await(ctx context.Context) (PricePoint, error) {
	select {
	case r := <-f.ch:
		return r.point, r.err
	case <-ctx.Done():
		return PricePoint{}, ctx.Err()
	}
}

// FetchPriceAsync kicks off a price fetch in the background and returns a
// future immediately, exercising spec §4.2's future-of-T unwrap rule.
func (t *Toolbox) FetchPriceAsync(ctx context.Context, symbol string) (*PriceFuture, error) {
	ch := make(chan priceResult, 1)
	go func() {
		p, err := t.MarketData.Latest(ctx, symbol)
		if err != nil {
			ch <- priceResult{err: err}
			return
		}
		ch <- priceResult{point: PricePoint{Symbol: symbol, Price: p.Price, Timestamp: p.Timestamp}}
	}()
	return &PriceFuture{ch: ch}, nil
}

// StreamPriceUpdates exposes a channel of price ticks, exercising spec
// §4.2's async-sequence-of-T unwrap rule (the reflector drains it fully
// into a JSON array before the Task state sees a result). The stream
// closes itself after a handful of ticks since there is no live
// exchange feed in this module — a documented simplification of the
// out-of-scope real-time provider.
func (t *Toolbox) StreamPriceUpdates(ctx context.Context, symbol string) (chan PricePoint, error) {
	out := make(chan PricePoint)
	go func() {
		defer close(out)
		for i := 0; i < 5; i++ {
			p, err := t.MarketData.Latest(ctx, symbol)
			if err != nil {
				return
			}
			select {
			case out <- PricePoint{Symbol: symbol, Price: p.Price, Timestamp: p.Timestamp}:
			case <-ctx.Done():
				return
			}
			select {
			case <-time.After(50 * time.Millisecond):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
