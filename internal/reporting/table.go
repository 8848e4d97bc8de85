package reporting

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}

func pct(v float64) string { return fmt.Sprintf("%.3f", v) }

// RenderTable prints per-(platform, level) averages as a console table.
func RenderTable(w io.Writer, avgs []Average) {
	table := newTable(w, []string{"Platform", "Load Level", "Precision", "Recall", "F1 Score", "Samples"})
	for _, a := range avgs {
		table.Append([]string{
			a.Platform,
			strconv.Itoa(a.LoadLevel),
			pct(a.Precision),
			pct(a.Recall),
			pct(a.F1),
			strconv.Itoa(a.Samples),
		})
	}
	table.Render()
}

// RenderCombined prints averages joined with CPU utilisation.
func RenderCombined(w io.Writer, rows []Combined) {
	table := newTable(w, []string{"Platform", "Load Level", "F1 Score", "CPU %"})
	for _, c := range rows {
		table.Append([]string{
			c.Platform,
			strconv.Itoa(c.LoadLevel),
			pct(c.F1),
			fmt.Sprintf("%.1f", c.CPUPercent),
		})
	}
	table.Render()
}
