package loadtest

import (
	"sort"
	"sync"
	"time"
)

// Platform is a named classification endpoint.
type Platform struct {
	Name     string `json:"name" yaml:"name"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// Record is the score of one (input, platform, load level) evaluation.
// LoadLevel is zero until the sweep tags it.
type Record struct {
	Platform  string        `json:"platform"`
	InputID   string        `json:"image"`
	Precision float64       `json:"precision"`
	Recall    float64       `json:"recall"`
	F1        float64       `json:"f1_score"`
	LoadLevel int           `json:"load_level"`
	Failed    bool          `json:"failed"`
	Latency   time.Duration `json:"latency"`
}

// key identifies the (input, platform, level) triple a record covers.
type key struct {
	platform string
	input    string
	level    int
}

func (r Record) key() key {
	return key{platform: r.Platform, input: r.InputID, level: r.LoadLevel}
}

// ResultTable accumulates records across load levels. Appends are safe
// from concurrent goroutines; readers get copies.
type ResultTable struct {
	runID   string
	mu      sync.RWMutex
	records []Record
}

// NewResultTable creates an empty table for runID.
func NewResultTable(runID string) *ResultTable {
	return &ResultTable{runID: runID}
}

// RunID returns the identifier of the run that produced the table.
func (t *ResultTable) RunID() string { return t.runID }

// Append adds records in the given order.
func (t *ResultTable) Append(records ...Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = append(t.records, records...)
}

// Len returns the number of records.
func (t *ResultTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Records returns a snapshot of every record in append order.
func (t *ResultTable) Records() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// ByLevel returns the records tagged with level.
func (t *ResultTable) ByLevel(level int) []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Record
	for _, r := range t.records {
		if r.LoadLevel == level {
			out = append(out, r)
		}
	}
	return out
}

// Levels returns the distinct load levels in first-seen order.
func (t *ResultTable) Levels() []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := make(map[int]bool)
	var out []int
	for _, r := range t.records {
		if !seen[r.LoadLevel] {
			seen[r.LoadLevel] = true
			out = append(out, r.LoadLevel)
		}
	}
	return out
}

// Duplicates returns the triples that appear more than once. A healthy
// table returns none.
func (t *ResultTable) Duplicates() []Record {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := make(map[key]int)
	var out []Record
	for _, r := range t.records {
		seen[r.key()]++
		if seen[r.key()] == 2 {
			out = append(out, r)
		}
	}
	return out
}

// SortRecords orders records by level, platform, then input. Handy for
// comparing record sets that were collected in completion order.
func SortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.LoadLevel != b.LoadLevel {
			return a.LoadLevel < b.LoadLevel
		}
		if a.Platform != b.Platform {
			return a.Platform < b.Platform
		}
		return a.InputID < b.InputID
	})
}
