// internal/reporting/report.go
package reporting

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/FairForge/labelbench/internal/loadtest"
)

// Export formats
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Report is the JSON document written at the end of a run.
type Report struct {
	ID        string                  `json:"id"`
	RunID     string                  `json:"run_id"`
	CreatedAt time.Time               `json:"created_at"`
	Levels    []int                   `json:"load_levels"`
	Records   int                     `json:"records"`
	Summaries []loadtest.LevelSummary `json:"summaries"`
	Averages  []Average               `json:"averages"`
	Overall   []PlatformAverage       `json:"overall"`
	Combined  []Combined              `json:"combined,omitempty"`
}

// NewReport aggregates a finished (or partial) result table.
func NewReport(table *loadtest.ResultTable, summaries []loadtest.LevelSummary, cpu []CPURow) *Report {
	records := table.Records()
	avgs := Averages(records)

	r := &Report{
		ID:        uuid.New().String(),
		RunID:     table.RunID(),
		CreatedAt: time.Now().UTC(),
		Levels:    table.Levels(),
		Records:   len(records),
		Summaries: summaries,
		Averages:  avgs,
		Overall:   OverallByPlatform(avgs),
	}
	if len(cpu) > 0 {
		r.Combined = Combine(avgs, cpu)
	}
	return r
}

// Export exports a report to the specified format. CSV exports the
// per-(platform, level) averages.
func Export(report *Report, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(report, "", "  ")
	case FormatCSV:
		var buf bytes.Buffer
		if err := WriteAveragesCSV(&buf, report.Averages); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("reporting: unsupported format %q", format)
	}
}
