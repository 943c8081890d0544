package summary

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/v8cov/pkg/report"
	"github.com/Sumatoshi-tech/v8cov/pkg/safeconv"
)

// Coverage thresholds for coloring percentages.
const (
	percentGood = 80
	percentFair = 50
)

// RenderOptions controls table rendering.
type RenderOptions struct {
	// NoColor disables colored percentages.
	NoColor bool
}

// Render writes rep as a table.
func Render(w io.Writer, rep Report, opts RenderOptions) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"Script", "Language", "Functions", "Called", "Block", "Covered", "Total", "Coverage"})

	for _, sum := range rep.Scripts {
		tbl.AppendRow(row(sum, opts))
	}

	tbl.AppendFooter(row(rep.Total, opts))
	tbl.Render()

	return nil
}

func row(sum ScriptSummary, opts RenderOptions) table.Row {
	return table.Row{
		sum.URL,
		sum.Language,
		sum.Functions,
		sum.FunctionsCalled,
		sum.BlockCoverage,
		humanize.Bytes(safeconv.MustIntToUint64(sum.CoveredBytes)),
		humanize.Bytes(safeconv.MustIntToUint64(sum.TotalBytes)),
		formatPercent(sum.Percent(), opts),
	}
}

func formatPercent(percent float64, opts RenderOptions) string {
	text := fmt.Sprintf("%.1f%%", percent)
	if opts.NoColor {
		return text
	}

	attr := color.FgRed

	switch {
	case percent >= percentGood:
		attr = color.FgGreen
	case percent >= percentFair:
		attr = color.FgYellow
	}

	return color.New(attr).Sprint(text)
}

// RenderJSON writes rep as indented JSON.
func RenderJSON(w io.Writer, rep Report) error {
	return report.NewJSONCodec("  ").Encode(w, rep)
}

// RenderYAML writes rep as YAML.
func RenderYAML(w io.Writer, rep Report) error {
	return report.NewYAMLCodec().Encode(w, rep)
}
