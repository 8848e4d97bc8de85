package loadtest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/FairForge/labelbench/internal/labels"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultLoadLevels is the concurrency sweep used when none is configured.
var DefaultLoadLevels = []int{10, 50, 100}

// LevelSummary aggregates one load level of a sweep.
type LevelSummary struct {
	LoadLevel      int           `json:"load_level"`
	StartTime      time.Time     `json:"start_time"`
	Duration       time.Duration `json:"duration"`
	Tasks          int           `json:"tasks"`
	Failures       int           `json:"failures"`
	ErrorRate      float64       `json:"error_rate"`
	MeanF1         float64       `json:"mean_f1"`
	Latency        LatencyStats  `json:"latency"`
	HostCPUPercent float64       `json:"host_cpu_percent"`
}

// Progress is a live view of a running sweep.
type Progress struct {
	RunID     string    `json:"run_id"`
	Running   bool      `json:"running"`
	Level     int       `json:"load_level"`
	LevelIdx  int       `json:"level_index"`
	Levels    []int     `json:"load_levels"`
	Batch     PoolStats `json:"batch"`
	Records   int       `json:"records"`
	StartedAt time.Time `json:"started_at"`
}

// Sweep runs an Evaluator once per load level, in order, and collects
// every record into one ResultTable.
type Sweep struct {
	evaluator *Evaluator
	logger    *zap.Logger
	observer  Observer
	sampler   *HostSampler
	runID     string

	mu        sync.RWMutex
	running   bool
	table     *ResultTable
	summaries []LevelSummary
	levels    []int
	levelIdx  int
	startedAt time.Time
}

// SweepOption customizes a Sweep.
type SweepOption func(*Sweep)

// WithSweepObserver reports tagged records to o.
func WithSweepObserver(o Observer) SweepOption {
	return func(s *Sweep) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithHostSampler records host CPU usage for each level.
func WithHostSampler(h *HostSampler) SweepOption {
	return func(s *Sweep) { s.sampler = h }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) SweepOption {
	return func(s *Sweep) { s.runID = id }
}

// NewSweep creates a sweep driving e.
func NewSweep(e *Evaluator, logger *zap.Logger, opts ...SweepOption) *Sweep {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sweep{
		evaluator: e,
		logger:    logger,
		observer:  nopObserver{},
		runID:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateLevels checks a load-level sweep.
func ValidateLevels(levels []int) error {
	if len(levels) == 0 {
		return &ConfigError{Field: "load levels", Reason: "at least one load level is required"}
	}
	for _, l := range levels {
		if l < 1 {
			return &ConfigError{Field: "load levels", Reason: fmt.Sprintf("must be positive, got %d", l)}
		}
	}
	return nil
}

// Run evaluates every item on every platform at each load level in order.
//
// Configuration problems are returned before any request is made. If ctx
// is cancelled the sweep stops and returns the records of the levels that
// finished along with ctx.Err(). A level interrupted by cancellation
// contributes no records.
func (s *Sweep) Run(ctx context.Context, items []labels.Item, platforms []Platform, levels []int) (*ResultTable, error) {
	if err := ValidateLevels(levels); err != nil {
		return nil, err
	}
	if err := ValidateTargets(items, platforms); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, fmt.Errorf("loadtest: sweep %s already running", s.runID)
	}
	table := NewResultTable(s.runID)
	s.running = true
	s.table = table
	s.summaries = nil
	s.levels = append([]int(nil), levels...)
	s.levelIdx = 0
	s.startedAt = time.Now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info("starting sweep",
		zap.String("run_id", s.runID),
		zap.Ints("load_levels", levels),
		zap.Int("inputs", len(items)),
		zap.Int("platforms", len(platforms)),
	)

	for i, level := range levels {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("sweep cancelled",
				zap.String("run_id", s.runID),
				zap.Int("completed_levels", i),
				zap.Error(err),
			)
			return table, err
		}

		s.mu.Lock()
		s.levelIdx = i
		s.mu.Unlock()

		s.logger.Info(fmt.Sprintf("Evaluating performance under load level: %d", level),
			zap.String("run_id", s.runID))

		summary, err := s.runLevel(ctx, table, items, platforms, level)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Warn("sweep cancelled during load level",
					zap.String("run_id", s.runID),
					zap.Int("load_level", level),
					zap.Int("completed_levels", i),
					zap.Error(err),
				)
			}
			return table, err
		}

		s.mu.Lock()
		s.summaries = append(s.summaries, summary)
		s.mu.Unlock()

		s.logger.Info("load level finished",
			zap.Int("load_level", level),
			zap.Int("tasks", summary.Tasks),
			zap.Int("failures", summary.Failures),
			zap.Float64("mean_f1", summary.MeanF1),
			zap.Duration("p95", summary.Latency.P95),
			zap.Duration("duration", summary.Duration),
		)
	}

	return table, nil
}

func (s *Sweep) runLevel(ctx context.Context, table *ResultTable, items []labels.Item, platforms []Platform, level int) (LevelSummary, error) {
	summary := LevelSummary{LoadLevel: level, StartTime: time.Now()}

	var stopSampler func() float64
	if s.sampler != nil {
		stopSampler = s.sampler.Start(ctx)
	}

	records, err := s.evaluator.Evaluate(ctx, items, platforms, level)

	if stopSampler != nil {
		summary.HostCPUPercent = stopSampler()
	}
	if err != nil {
		return summary, err
	}
	// Calls cut short by cancellation look like platform failures; drop the level.
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	latencies := make([]time.Duration, 0, len(records))
	var f1Sum float64
	for i := range records {
		records[i].LoadLevel = level
		s.observer.ObserveRecord(records[i].Platform, level, records[i].F1)

		f1Sum += records[i].F1
		if records[i].Failed {
			summary.Failures++
		} else {
			latencies = append(latencies, records[i].Latency)
		}
	}
	table.Append(records...)

	summary.Duration = time.Since(summary.StartTime)
	summary.Tasks = len(records)
	if summary.Tasks > 0 {
		summary.ErrorRate = float64(summary.Failures) / float64(summary.Tasks)
		summary.MeanF1 = f1Sum / float64(summary.Tasks)
	}
	summary.Latency = calculatePercentiles(latencies)
	return summary, nil
}

// RunID returns the identifier stamped on the sweep's table.
func (s *Sweep) RunID() string { return s.runID }

// Summaries returns per-level statistics of the last run, in level order.
func (s *Sweep) Summaries() []LevelSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LevelSummary, len(s.summaries))
	copy(out, s.summaries)
	return out
}

// Progress returns a live snapshot, suitable for a status endpoint.
func (s *Sweep) Progress() Progress {
	s.mu.RLock()
	p := Progress{
		RunID:     s.runID,
		Running:   s.running,
		LevelIdx:  s.levelIdx,
		Levels:    append([]int(nil), s.levels...),
		StartedAt: s.startedAt,
	}
	table := s.table
	s.mu.RUnlock()

	if p.LevelIdx < len(p.Levels) {
		p.Level = p.Levels[p.LevelIdx]
	}
	if table != nil {
		p.Records = table.Len()
	}
	p.Batch = s.evaluator.Stats()
	return p
}
