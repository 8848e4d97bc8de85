package loadtest

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/FairForge/labelbench/internal/classifier"
	"github.com/FairForge/labelbench/internal/labels"
	"github.com/FairForge/labelbench/internal/scoring"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Observer receives run-time events. *metrics.Collector satisfies it.
type Observer interface {
	ObserveClassify(platform string, d time.Duration, err error)
	ObserveRecord(platform string, loadLevel int, f1 float64)
	TaskStarted()
	TaskFinished()
}

type nopObserver struct{}

func (nopObserver) ObserveClassify(string, time.Duration, error) {}
func (nopObserver) ObserveRecord(string, int, float64)           {}
func (nopObserver) TaskStarted()                                 {}
func (nopObserver) TaskFinished()                                {}

// Evaluator scores every (input, platform) pair once, with a bounded
// number of classification calls in flight.
type Evaluator struct {
	classifier classifier.Classifier
	logger     *zap.Logger
	observer   Observer
	limiter    *rate.Limiter

	current atomic.Pointer[TaskPool[Record]]
}

// EvaluatorOption customizes an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithObserver reports classification and task events to o.
func WithObserver(o Observer) EvaluatorOption {
	return func(e *Evaluator) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithRateLimit paces task starts to rps per second. Zero or less disables pacing.
func WithRateLimit(rps float64) EvaluatorOption {
	return func(e *Evaluator) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			e.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// NewEvaluator creates an evaluator around c.
func NewEvaluator(c classifier.Classifier, logger *zap.Logger, opts ...EvaluatorOption) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Evaluator{
		classifier: c,
		logger:     logger,
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate classifies every item on every platform with at most budget
// calls in flight and returns one record per pair, in completion order.
// Records have LoadLevel unset. Only invalid arguments produce an error;
// a failed call degrades to a record scored against an empty label list.
func (e *Evaluator) Evaluate(ctx context.Context, items []labels.Item, platforms []Platform, budget int) ([]Record, error) {
	if err := ValidateTargets(items, platforms); err != nil {
		return nil, err
	}

	pool, err := NewTaskPool(budget, func(p any) Record {
		return Record{Failed: true}
	})
	if err != nil {
		return nil, err
	}
	e.current.Store(pool)

	for _, item := range items {
		for _, platform := range platforms {
			pool.Submit(ctx, e.task(item, platform))
		}
	}

	records := pool.Wait()
	e.logger.Debug("evaluation batch finished",
		zap.Int("records", len(records)),
		zap.Int("budget", budget),
	)
	return records, nil
}

// task binds one (input, platform) pair. A panic inside the classifier is
// caught here so the record keeps its identity.
func (e *Evaluator) task(item labels.Item, platform Platform) Task[Record] {
	return func(ctx context.Context) (rec Record) {
		e.observer.TaskStarted()
		defer e.observer.TaskFinished()

		rec = Record{Platform: platform.Name, InputID: item.ID}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				e.logger.Debug("pacing wait aborted", zap.Error(err))
			}
		}

		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("classifier panic: %v", r)
				e.logger.Error(fmt.Sprintf("Error on %s with input %s: %v", platform.Endpoint, item.ID, err))
				e.observer.ObserveClassify(platform.Name, 0, err)
				rec = degraded(rec, item)
			}
		}()

		res := e.classifier.Classify(ctx, platform.Endpoint, item.ID)
		e.observer.ObserveClassify(platform.Name, res.Latency, res.Err)

		scores := scoring.ScoreLabels(item.Expected, res.Labels)
		rec.Precision = scores.Precision
		rec.Recall = scores.Recall
		rec.F1 = scores.F1
		rec.Failed = res.Failed()
		rec.Latency = res.Latency
		return rec
	}
}

func degraded(rec Record, item labels.Item) Record {
	s := scoring.Score(item.Expected, nil)
	rec.Precision, rec.Recall, rec.F1 = s.Precision, s.Recall, s.F1
	rec.Failed = true
	return rec
}

// Stats returns the counters of the batch currently (or last) running.
func (e *Evaluator) Stats() PoolStats {
	if p := e.current.Load(); p != nil {
		return p.Stats()
	}
	return PoolStats{}
}

// ValidateTargets checks the items and platforms of a run.
func ValidateTargets(items []labels.Item, platforms []Platform) error {
	if len(platforms) == 0 {
		return &ConfigError{Field: "platforms", Reason: "at least one platform is required"}
	}
	if len(items) == 0 {
		return &ConfigError{Field: "inputs", Reason: "at least one input is required"}
	}

	names := make(map[string]bool, len(platforms))
	for _, p := range platforms {
		if p.Name == "" {
			return &ConfigError{Field: "platforms", Reason: "platform name is required"}
		}
		if p.Endpoint == "" {
			return &ConfigError{Field: "platforms", Reason: fmt.Sprintf("platform %q has no endpoint", p.Name)}
		}
		if names[p.Name] {
			return &ConfigError{Field: "platforms", Reason: fmt.Sprintf("duplicate platform %q", p.Name)}
		}
		names[p.Name] = true
	}

	ids := make(map[string]bool, len(items))
	for _, it := range items {
		if it.ID == "" {
			return &ConfigError{Field: "inputs", Reason: "input id is required"}
		}
		if ids[it.ID] {
			return &ConfigError{Field: "inputs", Reason: fmt.Sprintf("duplicate input %q", it.ID)}
		}
		ids[it.ID] = true
	}
	return nil
}
