package loadtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Task is one unit of work run by a TaskPool.
type Task[T any] func(ctx context.Context) T

// PoolStats is a point-in-time view of a pool's counters.
type PoolStats struct {
	Size      int   `json:"size"`
	Submitted int64 `json:"submitted"`
	InFlight  int64 `json:"in_flight"`
	Completed int64 `json:"completed"`
}

// Pending returns tasks submitted but not yet started.
func (s PoolStats) Pending() int64 {
	return s.Submitted - s.InFlight - s.Completed
}

// TaskPool runs submitted tasks with at most Size of them in flight and
// collects their results in completion order.
type TaskPool[T any] struct {
	size      int
	semaphore chan struct{}
	recovered func(p any) T
	wg        sync.WaitGroup

	// Metrics (atomic for thread safety)
	submitted atomic.Int64
	inFlight  atomic.Int64
	completed atomic.Int64

	mu      sync.Mutex
	results []T
	closed  bool
}

// NewTaskPool creates a pool. recovered converts a task panic into a
// result; it may be nil, in which case a panicking task yields the zero T.
func NewTaskPool[T any](size int, recovered func(p any) T) (*TaskPool[T], error) {
	if size < 1 {
		return nil, &ConfigError{Field: "concurrency", Reason: fmt.Sprintf("must be at least 1, got %d", size)}
	}
	return &TaskPool[T]{
		size:      size,
		semaphore: make(chan struct{}, size),
		recovered: recovered,
	}, nil
}

// Submit queues task. It never blocks: the task starts as soon as a slot
// frees up. Submitting after Wait has returned panics.
func (p *TaskPool[T]) Submit(ctx context.Context, task Task[T]) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		panic("loadtest: submit on a drained pool")
	}
	p.mu.Unlock()

	p.submitted.Add(1)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.semaphore <- struct{}{}
		p.inFlight.Add(1)
		result := p.run(ctx, task)
		p.inFlight.Add(-1)
		<-p.semaphore

		p.mu.Lock()
		p.results = append(p.results, result)
		p.mu.Unlock()
		p.completed.Add(1)
	}()
}

func (p *TaskPool[T]) run(ctx context.Context, task Task[T]) (result T) {
	defer func() {
		if r := recover(); r != nil && p.recovered != nil {
			result = p.recovered(r)
		}
	}()
	return task(ctx)
}

// Wait blocks until every submitted task has finished and returns the
// results in the order they completed.
func (p *TaskPool[T]) Wait() []T {
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	out := make([]T, len(p.results))
	copy(out, p.results)
	return out
}

// Stats returns real-time counters.
func (p *TaskPool[T]) Stats() PoolStats {
	return PoolStats{
		Size:      p.size,
		Submitted: p.submitted.Load(),
		InFlight:  p.inFlight.Load(),
		Completed: p.completed.Load(),
	}
}

// LatencyStats summarizes a set of call latencies.
type LatencyStats struct {
	Min time.Duration `json:"min"`
	Max time.Duration `json:"max"`
	Avg time.Duration `json:"avg"`
	P50 time.Duration `json:"p50"`
	P95 time.Duration `json:"p95"`
	P99 time.Duration `json:"p99"`
}

// calculatePercentiles computes latency statistics.
func calculatePercentiles(latencies []time.Duration) LatencyStats {
	var s LatencyStats
	if len(latencies) == 0 {
		return s
	}

	// Sort a copy, the caller's order is meaningful
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]

	var total time.Duration
	for _, l := range sorted {
		total += l
	}
	s.Avg = total / time.Duration(len(sorted))

	s.P50 = sorted[len(sorted)*50/100]
	s.P95 = sorted[len(sorted)*95/100]
	s.P99 = sorted[len(sorted)*99/100]

	return s
}
