package stateflow

import (
	"context"
	"sync"

	"github.com/vk/cryptoasl/internal/jsonvalue"
)

// runPool fans out n independent units of work across up to concurrency
// goroutines, preserving result order by index regardless of completion
// order, and cancelling outstanding work on the first error — adapted
// from the teacher's internal/dag/executor.go worker-pool loop
// (buffered job channel, sync.WaitGroup, cancel-on-first-failure),
// generalized from "graph nodes ready to run" to "Map items / Parallel
// branches at a fixed index."
func runPool(ctx context.Context, concurrency, n int, work func(ctx context.Context, idx int) (jsonvalue.Value, error)) ([]jsonvalue.Value, error) {
	if n == 0 {
		return nil, nil
	}
	if concurrency <= 0 || concurrency > n {
		concurrency = n
	}

	results := make([]jsonvalue.Value, n)
	jobs := make(chan int)
	childCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	var failOnce sync.Once

	worker := func() {
		defer wg.Done()
		for idx := range jobs {
			res, err := work(childCtx, idx)
			if err != nil {
				failOnce.Do(func() {
					mu.Lock()
					firstErr = err
					mu.Unlock()
					cancel()
				})
				continue
			}
			results[idx] = res
		}
	}

	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go worker()
	}

	go func() {
		defer close(jobs)
		for idx := 0; idx < n; idx++ {
			select {
			case jobs <- idx:
			case <-childCtx.Done():
				return
			}
		}
	}()

	wg.Wait()

	mu.Lock()
	err := firstErr
	mu.Unlock()
	if err != nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &CancelledError{Cause: ctxErr}
	}
	return results, nil
}
