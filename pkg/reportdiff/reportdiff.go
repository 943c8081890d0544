// Package reportdiff compares two coverage reports line by line.
package reportdiff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/v8cov/pkg/coverage"
	"github.com/Sumatoshi-tech/v8cov/pkg/merge"
)

// Line prefixes of the diff output.
const (
	prefixRemoved = "-"
	prefixAdded   = "+"
)

// Diff deep-normalizes both reports and returns the lines present in only
// one of them, prefixed with "-" for a and "+" for b. It returns an empty
// string when the reports describe the same coverage. Both reports are
// consumed.
func Diff(a, b coverage.ProcessCov) string {
	merge.DeepNormalizeProcessCov(&a)
	merge.DeepNormalizeProcessCov(&b)

	textA, textB := Listing(a), Listing(b)
	if textA == textB {
		return ""
	}

	dmp := diffmatchpatch.New()
	charsA, charsB, lines := dmp.DiffLinesToChars(textA, textB)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(charsA, charsB, false), lines)

	var out strings.Builder

	for _, d := range diffs {
		var prefix string

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = prefixRemoved
		case diffmatchpatch.DiffInsert:
			prefix = prefixAdded
		case diffmatchpatch.DiffEqual:
			continue
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			out.WriteString(prefix)
			out.WriteString(line)
		}
	}

	return out.String()
}

// Listing renders a report with one line per range:
//
//	url function [start,end)=count
//
// Anonymous functions are shown as "(anonymous)". Script ids are omitted.
func Listing(process coverage.ProcessCov) string {
	var out strings.Builder

	for _, script := range process.Result {
		for _, fn := range script.Functions {
			name := fn.FunctionName
			if name == "" {
				name = "(anonymous)"
			}

			for _, rng := range fn.Ranges {
				fmt.Fprintf(&out, "%s %s [%d,%d)=%d\n", script.URL, name, rng.StartOffset, rng.EndOffset, rng.Count)
			}
		}
	}

	return out.String()
}
