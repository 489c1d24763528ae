package utils

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// WorkerPool bounds the number of concurrent jobs and spaces their start times.
type WorkerPool struct {
	maxWorkers int
	limiter    *rate.Limiter
	semaphore  chan struct{}
	wg         sync.WaitGroup
}

// NewWorkerPool creates a WorkerPool with the given concurrency and minimum
// interval between job starts (0 disables throttling).
func NewWorkerPool(maxWorkers, rateLimitMs int) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	limit := rate.Inf
	if rateLimitMs > 0 {
		limit = rate.Every(time.Duration(rateLimitMs) * time.Millisecond)
	}
	return &WorkerPool{
		maxWorkers: maxWorkers,
		limiter:    rate.NewLimiter(limit, 1),
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Submit enqueues a job. It blocks while the pool is full and returns
// ctx.Err() if ctx is done before a slot frees up. A job whose turn comes
// after ctx is done is skipped.
func (wp *WorkerPool) Submit(ctx context.Context, job func(ctx context.Context)) error {
	select {
	case wp.semaphore <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.semaphore }()

		if err := wp.limiter.Wait(ctx); err != nil {
			return
		}
		job(ctx)
	}()
	return nil
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Collect runs fn for every input on the pool and returns the successful
// results in input order. On cancellation it stops submitting, waits for
// running jobs and returns what completed.
func Collect[In, Out any](ctx context.Context, wp *WorkerPool, inputs []In, fn func(context.Context, In) (Out, bool)) []Out {
	results := make([]Out, len(inputs))
	done := make([]bool, len(inputs))

	for i, in := range inputs {
		err := wp.Submit(ctx, func(ctx context.Context) {
			out, ok := fn(ctx, in)
			if ok {
				results[i] = out
				done[i] = true
			}
		})
		if err != nil {
			break
		}
	}
	wp.Wait()

	out := make([]Out, 0, len(inputs))
	for i, ok := range done {
		if ok {
			out = append(out, results[i])
		}
	}
	return out
}

// URLSet is a thread-safe set for tracking visited URLs.
type URLSet struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	return true
}

// Contains returns true if the URL has already been visited.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}
