package loadtest

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/cpu"
)

// HostSampler measures the CPU load of the machine driving the benchmark,
// so a saturated load generator is not mistaken for a slow endpoint.
type HostSampler struct {
	interval time.Duration
	percent  func(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error)
}

// NewHostSampler samples overall CPU usage every interval.
func NewHostSampler(interval time.Duration) *HostSampler {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &HostSampler{interval: interval, percent: cpu.PercentWithContext}
}

// Start begins sampling and returns a function that stops it and reports
// the mean CPU percentage observed. The mean is zero if no sample
// completed.
func (h *HostSampler) Start(ctx context.Context) (stop func() float64) {
	ctx, cancel := context.WithCancel(ctx)

	var (
		mu      sync.Mutex
		sum     float64
		samples int
		wg      sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for ctx.Err() == nil {
			values, err := h.percent(ctx, h.interval, false)
			if err != nil || len(values) == 0 {
				if ctx.Err() != nil {
					return
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(h.interval):
				}
				continue
			}
			mu.Lock()
			sum += values[0]
			samples++
			mu.Unlock()
		}
	}()

	return func() float64 {
		cancel()
		wg.Wait()
		mu.Lock()
		defer mu.Unlock()
		if samples == 0 {
			return 0
		}
		return sum / float64(samples)
	}
}
