package loadtest

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/FairForge/labelbench/internal/classifier"
	"github.com/FairForge/labelbench/internal/labels"
)

// stripLatency drops the one field that legitimately varies between runs.
func stripLatency(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		r.Latency = 0
		out[i] = r
	}
	SortRecords(out)
	return out
}

func TestEvaluator_CrossProduct(t *testing.T) {
	items, platforms, stub := fixture()
	e := NewEvaluator(stub, nil)

	records, err := e.Evaluate(context.Background(), items, platforms, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != len(items)*len(platforms) {
		t.Fatalf("expected %d records, got %d", len(items)*len(platforms), len(records))
	}

	pairs := make(map[string]bool)
	for _, r := range records {
		pairs[r.Platform+"|"+r.InputID] = true
		if r.LoadLevel != 0 {
			t.Errorf("evaluator must not tag load level, got %d", r.LoadLevel)
		}
	}
	if len(pairs) != 8 {
		t.Errorf("expected 8 distinct pairs, got %d", len(pairs))
	}
	if stub.calls.Load() != 8 {
		t.Errorf("expected one call per pair, got %d", stub.calls.Load())
	}
}

func TestEvaluator_Scores(t *testing.T) {
	items, platforms, stub := fixture()
	records, _ := NewEvaluator(stub, nil).Evaluate(context.Background(), items, platforms[:1], 1)

	for _, r := range records {
		switch r.InputID {
		case items[0].ID:
			// tree, sky hit; cloud is extra; mountain missed
			if r.Precision != 2.0/3.0 || r.Recall != 2.0/3.0 {
				t.Errorf("landscape: unexpected scores %+v", r)
			}
		case items[1].ID:
			if r.Precision != 1 || r.Recall != 1 || r.F1 != 1 {
				t.Errorf("family: expected perfect scores, got %+v", r)
			}
		}
	}
}

func TestEvaluator_FailureIsolation(t *testing.T) {
	items, platforms, stub := fixture()
	stub.failing["http://lambda"] = true
	obs := &recordingObserver{}

	records, err := NewEvaluator(stub, nil, WithObserver(obs)).Evaluate(context.Background(), items, platforms, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 8 {
		t.Fatalf("a failing platform must not drop records, got %d", len(records))
	}

	for _, r := range records {
		if r.Platform == "Lambda" {
			if !r.Failed {
				t.Errorf("expected lambda record to be marked failed")
			}
			if r.Precision != 1 || r.Recall != 0 || r.F1 != 0 {
				t.Errorf("expected degraded scores (1,0,0), got %+v", r)
			}
			continue
		}
		if r.Failed {
			t.Errorf("unexpected failure on %s", r.Platform)
		}
	}

	if obs.failures.Load() != 2 {
		t.Errorf("expected 2 observed failures, got %d", obs.failures.Load())
	}
	if obs.started.Load() != 8 || obs.finished.Load() != 8 {
		t.Errorf("expected 8 started/finished tasks, got %d/%d", obs.started.Load(), obs.finished.Load())
	}
}

type panickyClassifier struct{}

func (panickyClassifier) Classify(context.Context, string, string) classifier.Result {
	panic("driver bug")
}

func TestEvaluator_ClassifierPanic(t *testing.T) {
	items, platforms, _ := fixture()

	records, err := NewEvaluator(panickyClassifier{}, nil).Evaluate(context.Background(), items, platforms, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 8 {
		t.Fatalf("expected 8 records, got %d", len(records))
	}
	for _, r := range records {
		if !r.Failed || r.Platform == "" || r.InputID == "" {
			t.Errorf("expected an identified degraded record, got %+v", r)
		}
	}
}

func TestEvaluator_BudgetDoesNotChangeResults(t *testing.T) {
	items, platforms, stub := fixture()
	stub.failing["http://run"] = true
	e := NewEvaluator(stub, nil)

	serial, err := e.Evaluate(context.Background(), items, platforms, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parallel, err := e.Evaluate(context.Background(), items, platforms, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(stripLatency(serial), stripLatency(parallel)) {
		t.Errorf("budget changed the record set:\n%v\n%v", stripLatency(serial), stripLatency(parallel))
	}
}

func TestEvaluator_Deterministic(t *testing.T) {
	items, platforms, stub := fixture()
	e := NewEvaluator(stub, nil)

	first, _ := e.Evaluate(context.Background(), items, platforms, 4)
	second, _ := e.Evaluate(context.Background(), items, platforms, 4)

	if !reflect.DeepEqual(stripLatency(first), stripLatency(second)) {
		t.Error("expected identical metric values across runs")
	}
}

func TestEvaluator_RespectsBudget(t *testing.T) {
	items, platforms, stub := fixture()
	stub.delay = 10 * time.Millisecond

	_, err := NewEvaluator(stub, nil).Evaluate(context.Background(), items, platforms, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak := stub.peakInFlight(); peak > 2 {
		t.Errorf("expected at most 2 calls in flight, saw %d", peak)
	}
}

func TestEvaluator_ConfigErrors(t *testing.T) {
	items, platforms, stub := fixture()
	e := NewEvaluator(stub, nil)

	tests := []struct {
		name      string
		items     []labels.Item
		platforms []Platform
		budget    int
	}{
		{"zero budget", items, platforms, 0},
		{"no platforms", items, nil, 1},
		{"no inputs", nil, platforms, 1},
		{"missing endpoint", items, []Platform{{Name: "EC2"}}, 1},
		{"duplicate platform", items, []Platform{{Name: "EC2", Endpoint: "a"}, {Name: "EC2", Endpoint: "b"}}, 1},
		{"duplicate input", []labels.Item{items[0], items[0]}, platforms, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Evaluate(context.Background(), tt.items, tt.platforms, tt.budget)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if stub.calls.Load() != 0 {
		t.Errorf("configuration errors must not reach the network, got %d calls", stub.calls.Load())
	}
}

func TestEvaluator_RateLimit(t *testing.T) {
	items, platforms, stub := fixture()
	// A burst of 40 admits all 8 tasks without waiting.
	e := NewEvaluator(stub, nil, WithRateLimit(40))

	records, err := e.Evaluate(context.Background(), items, platforms, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 8 {
		t.Errorf("expected 8 records, got %d", len(records))
	}
	if e.limiter == nil {
		t.Error("expected limiter to be configured")
	}

	if NewEvaluator(stub, nil, WithRateLimit(0)).limiter != nil {
		t.Error("zero rate must disable pacing")
	}
}

func TestEvaluator_Stats(t *testing.T) {
	items, platforms, stub := fixture()
	e := NewEvaluator(stub, nil)

	if e.Stats() != (PoolStats{}) {
		t.Error("expected zero stats before any batch")
	}
	_, _ = e.Evaluate(context.Background(), items, platforms, 5)

	stats := e.Stats()
	if stats.Size != 5 || stats.Completed != 8 || stats.InFlight != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
