package reporting

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/FairForge/labelbench/internal/loadtest"
)

// ResultsHeader is the column contract of the per-record results file.
var ResultsHeader = []string{"Platform", "Image", "Precision", "Recall", "F1 Score", "Load Level"}

// AveragesHeader is the column layout of the per-(platform, level) averages.
var AveragesHeader = []string{"Platform", "Load Level", "Precision", "Recall", "F1 Score"}

// ErrMalformedCSV is returned for CPU files that cannot be melted.
var ErrMalformedCSV = errors.New("reporting: malformed csv")

// DefaultPlatformMapping maps load-testing row labels to benchmark platform names.
var DefaultPlatformMapping = map[string]string{
	"Amazon EC2 CPU (%)":            "EC2",
	"AWS Lambda CPU (%)":            "Lambda",
	"Google Cloud Run CPU (%)":      "Cloud Run",
	"Google Compute Engine CPU (%)": "Google Compute",
}

// CPURow is one melted cell of the load-testing CSV.
type CPURow struct {
	Platform   string  `json:"platform"`
	LoadLevel  int     `json:"load_level"`
	CPUPercent float64 `json:"cpu_percent"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteResultsCSV writes one row per record, in the order given.
func WriteResultsCSV(w io.Writer, records []loadtest.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ResultsHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Platform,
			r.InputID,
			formatFloat(r.Precision),
			formatFloat(r.Recall),
			formatFloat(r.F1),
			strconv.Itoa(r.LoadLevel),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAveragesCSV writes per-(platform, level) averages.
func WriteAveragesCSV(w io.Writer, avgs []Average) error {
	cw := csv.NewWriter(w)
	_ = cw.Write(AveragesHeader)
	for _, a := range avgs {
		_ = cw.Write([]string{
			a.Platform,
			strconv.Itoa(a.LoadLevel),
			formatFloat(a.Precision),
			formatFloat(a.Recall),
			formatFloat(a.F1),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteOverallCSV writes one row per platform.
func WriteOverallCSV(w io.Writer, overall []PlatformAverage) error {
	cw := csv.NewWriter(w)
	_ = cw.Write(AveragesHeader)
	for _, a := range overall {
		_ = cw.Write([]string{
			a.Platform,
			formatFloat(a.LoadLevel),
			formatFloat(a.Precision),
			formatFloat(a.Recall),
			formatFloat(a.F1),
		})
	}
	cw.Flush()
	return cw.Error()
}

// WriteCombinedCSV writes averages joined with CPU utilisation.
func WriteCombinedCSV(w io.Writer, rows []Combined) error {
	cw := csv.NewWriter(w)
	_ = cw.Write(append(append([]string(nil), AveragesHeader...), "CPU Utilization"))
	for _, c := range rows {
		_ = cw.Write([]string{
			c.Platform,
			strconv.Itoa(c.LoadLevel),
			formatFloat(c.Precision),
			formatFloat(c.Recall),
			formatFloat(c.F1),
			formatFloat(c.CPUPercent),
		})
	}
	cw.Flush()
	return cw.Error()
}

// ReadCPUCSV reads the wide load-testing CSV
//
//	Platform,Load 10,Load 50,Load 100
//	Amazon EC2 CPU (%),12.5,40.1,77
//
// and melts it into one CPURow per (platform, level). Row labels are
// translated through mapping (DefaultPlatformMapping when nil); rows whose
// label maps to nothing, such as "Load (Users)", are skipped. Labels that
// are already benchmark names pass through unchanged.
func ReadCPUCSV(r io.Reader, mapping map[string]string) ([]CPURow, error) {
	if mapping == nil {
		mapping = DefaultPlatformMapping
	}
	known := make(map[string]bool, len(mapping))
	for _, name := range mapping {
		known[name] = true
	}

	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrMalformedCSV, err)
	}
	if len(header) < 2 || strings.TrimSpace(header[0]) != "Platform" {
		return nil, fmt.Errorf("%w: first column must be Platform", ErrMalformedCSV)
	}

	levels := make([]int, len(header)-1)
	for i, col := range header[1:] {
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(col), "Load")))
		if err != nil {
			return nil, fmt.Errorf("%w: column %q is not a load level", ErrMalformedCSV, col)
		}
		levels[i] = n
	}

	var out []CPURow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}

		label := strings.TrimSpace(rec[0])
		platform, ok := mapping[label]
		if !ok {
			if !known[label] {
				continue
			}
			platform = label
		}

		for i, cell := range rec[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			pct, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s at load %d: %q", ErrMalformedCSV, platform, levels[i], cell)
			}
			out = append(out, CPURow{Platform: platform, LoadLevel: levels[i], CPUPercent: pct})
		}
	}
	return out, nil
}
