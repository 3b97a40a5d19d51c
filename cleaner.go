package main

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// CleanTable applies per-type imputation, normalization and outlier
// flagging driven by the profiles. The input table is never mutated; the
// returned insight log records every mutation in order, one entry per
// cleaning action. Columns without a determined type pass through
// unchanged.
func CleanTable(t *Table, profiles map[string]*ColumnProfile) (*Table, []string) {
	clean := t.Clone()
	var insights []string

	// Iterate the source columns in table order so the insight log is
	// deterministic; auxiliary columns are appended after the originals.
	source := append([]string(nil), t.Columns...)
	for _, col := range source {
		p := profiles[col]
		if p == nil || p.Type == ColumnUndetermined {
			insights = append(insights, fmt.Sprintf("Skipping '%s' - no column type detected", col))
			continue
		}

		if p.MissingCount > 0 {
			insights = append(insights, imputeColumn(clean, col, p)...)
		}

		if p.Type == ColumnCategorical && hasIssue(p, issueInconsistentCap) {
			normalizeCategorical(clean, col)
			insights = append(insights, fmt.Sprintf("Standardized capitalization/spacing in '%s'", col))
		}

		if p.Type == ColumnDate {
			if !canonicalizeDates(clean, col) {
				insights = append(insights, fmt.Sprintf("Failed to convert '%s' to datetime", col))
			}
		}

		if p.Type == ColumnNumerical && p.Numeric.OutlierCount > 0 {
			if insight, ok := flagOutliers(clean, col); ok {
				insights = append(insights, insight)
			}
		}
	}

	return clean, insights
}

func hasIssue(p *ColumnProfile, issue string) bool {
	for _, i := range p.Issues {
		if i == issue {
			return true
		}
	}
	return false
}

func imputeColumn(t *Table, col string, p *ColumnProfile) []string {
	switch p.Type {
	case ColumnNumerical:
		fill := formatFloat(p.Numeric.Median)
		n := fillMissing(t, col, fill)
		return []string{fmt.Sprintf("Filled %d missing in '%s' with median: %s", n, col, fill)}

	case ColumnCategorical:
		mode, ok := columnMode(t.Column(col))
		if !ok {
			return []string{fmt.Sprintf("Skipped imputing '%s' - no mode available", col)}
		}
		n := fillMissing(t, col, mode)
		return []string{fmt.Sprintf("Filled %d missing in '%s' with mode: %s", n, col, mode)}

	case ColumnText:
		n := fillMissing(t, col, "")
		return []string{fmt.Sprintf("Filled %d missing in '%s' with empty string", n, col)}

	case ColumnDate:
		// Record which rows were originally missing before the fill value
		// makes them indistinguishable from real observations.
		cells := t.Column(col)
		mask := make([]bool, len(cells))
		for i, c := range cells {
			mask[i] = c.Missing
		}
		t.AddColumn(col+"_MISSING", boolCells(mask))

		median, ok := medianDate(cells)
		if !ok {
			return []string{fmt.Sprintf("Skipped imputing '%s' - no parseable dates", col)}
		}
		fill := canonicalDate(median)
		n := fillMissing(t, col, fill)
		return []string{fmt.Sprintf("Filled %d missing in '%s' with median date: %s", n, col, fill)}
	}
	return nil
}

// fillMissing replaces every missing cell with value, returning the number
// of rows affected.
func fillMissing(t *Table, col, value string) int {
	cells := t.Column(col)
	n := 0
	for i, c := range cells {
		if c.Missing {
			cells[i] = Cell{Value: value}
			n++
		}
	}
	return n
}

// columnMode returns the most frequent non-missing value; ties break on
// first occurrence in the column.
func columnMode(cells []Cell) (string, bool) {
	var values []string
	for _, c := range cells {
		if !c.Missing {
			values = append(values, c.Value)
		}
	}
	if len(values) == 0 {
		return "", false
	}
	return countCategories(values)[0].Value, true
}

// medianDate is the midpoint of the two middle instants for even counts,
// the middle instant otherwise.
func medianDate(cells []Cell) (time.Time, bool) {
	var dates []time.Time
	for _, c := range cells {
		if c.Missing {
			continue
		}
		if d, ok := parseDate(c.Value); ok {
			dates = append(dates, d)
		}
	}
	if len(dates) == 0 {
		return time.Time{}, false
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	n := len(dates)
	if n%2 == 1 {
		return dates[n/2], true
	}
	a, b := dates[n/2-1], dates[n/2]
	return a.Add(b.Sub(a) / 2), true
}

func normalizeCategorical(t *Table, col string) {
	cells := t.Column(col)
	for i, c := range cells {
		if c.Missing {
			continue
		}
		cells[i] = Cell{Value: titleCaser.String(foldValue(c.Value))}
	}
}

// canonicalizeDates rewrites every non-missing cell to the canonical date
// form. Returns false without touching the column if any value fails to
// parse; per the error taxonomy that is logged, never raised.
func canonicalizeDates(t *Table, col string) bool {
	cells := t.Column(col)
	out := make([]Cell, len(cells))
	for i, c := range cells {
		if c.Missing {
			out[i] = c
			continue
		}
		d, ok := parseDate(c.Value)
		if !ok {
			return false
		}
		out[i] = Cell{Value: canonicalDate(d)}
	}
	copy(cells, out)
	return true
}

// flagOutliers re-applies the IQR rule to the post-imputation values and
// stores the mask in a companion bool column. The mask may legitimately
// differ from the profiler's: imputation shifts the quartiles, and the
// cleaned data is what gets re-evaluated. Skips without an insight when an
// identical companion column already exists, so re-cleaning a clean table
// is a no-op.
func flagOutliers(t *Table, col string) (string, bool) {
	cells := t.Column(col)
	nums := make([]float64, 0, len(cells))
	for _, c := range cells {
		v, ok := parseNumeric(c.Value)
		if !ok {
			return fmt.Sprintf("Skipped outlier flagging in '%s' - non-numeric values present", col), true
		}
		nums = append(nums, v)
	}

	mask, _, _ := outlierMask(nums)
	flagCol := col + "_OUTLIER"
	flags := boolCells(mask)
	if t.HasColumn(flagCol) && cellsEqual(t.Column(flagCol), flags) {
		return "", false
	}
	t.AddColumn(flagCol, flags)

	flagged := 0
	for _, f := range mask {
		if f {
			flagged++
		}
	}
	return fmt.Sprintf("Flagged outliers in '%s' using IQR: %d rows", col, flagged), true
}

func cellsEqual(a, b []Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
