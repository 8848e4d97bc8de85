package loadtest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/FairForge/labelbench/internal/classifier"
	"github.com/FairForge/labelbench/internal/labels"
)

// stubClassifier answers from a fixed table keyed by endpoint and input.
type stubClassifier struct {
	answers map[string][]string // endpoint|input -> labels
	failing map[string]bool     // endpoints that always fail
	delay   time.Duration
	calls   atomic.Int64

	mu       sync.Mutex
	inFlight int
	peak     int
}

func newStub() *stubClassifier {
	return &stubClassifier{
		answers: make(map[string][]string),
		failing: make(map[string]bool),
	}
}

func (s *stubClassifier) answer(endpoint, input string, names ...string) {
	s.answers[endpoint+"|"+input] = names
}

func (s *stubClassifier) Classify(ctx context.Context, endpoint, input string) classifier.Result {
	s.calls.Add(1)

	s.mu.Lock()
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return classifier.Result{Err: ctx.Err()}
		}
	}

	if s.failing[endpoint] {
		return classifier.Result{Err: errors.New("connection refused"), Latency: time.Millisecond}
	}
	var out []classifier.Label
	for _, n := range s.answers[endpoint+"|"+input] {
		out = append(out, classifier.Label{Name: n, Confidence: 90})
	}
	return classifier.Result{Labels: out, Latency: time.Millisecond}
}

func (s *stubClassifier) peakInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}

// fixture builds two images against four platforms.
func fixture() ([]labels.Item, []Platform, *stubClassifier) {
	items := []labels.Item{
		labels.NewItem("https://img/landscape.jpg", "tree", "mountain", "sky"),
		labels.NewItem("https://img/family.jpg", "person", "family", "indoor"),
	}
	platforms := []Platform{
		{Name: "EC2", Endpoint: "http://ec2"},
		{Name: "Lambda", Endpoint: "http://lambda"},
		{Name: "Cloud Run", Endpoint: "http://run"},
		{Name: "Google Compute", Endpoint: "http://gce"},
	}

	stub := newStub()
	for _, p := range platforms {
		stub.answer(p.Endpoint, items[0].ID, "Tree", "Sky", "Cloud")
		stub.answer(p.Endpoint, items[1].ID, "Person", "Family", "Indoor")
	}
	return items, platforms, stub
}

// recordingObserver counts events.
type recordingObserver struct {
	classify atomic.Int64
	failures atomic.Int64
	records  atomic.Int64
	started  atomic.Int64
	finished atomic.Int64
}

func (o *recordingObserver) ObserveClassify(_ string, _ time.Duration, err error) {
	o.classify.Add(1)
	if err != nil {
		o.failures.Add(1)
	}
}
func (o *recordingObserver) ObserveRecord(string, int, float64) { o.records.Add(1) }
func (o *recordingObserver) TaskStarted()                       { o.started.Add(1) }
func (o *recordingObserver) TaskFinished()                      { o.finished.Add(1) }
