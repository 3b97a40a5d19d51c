package main

import (
	"math"
	"testing"
)

func cellsFromStrings(values ...string) []Cell {
	cells := make([]Cell, len(values))
	for i, v := range values {
		if v == "" {
			cells[i] = Cell{Missing: true}
		} else {
			cells[i] = Cell{Value: v}
		}
	}
	return cells
}

func newTestTable(t *testing.T, cols map[string][]string, order []string) *Table {
	t.Helper()
	table := NewTable(order)
	rows := -1
	for _, col := range order {
		cells := cellsFromStrings(cols[col]...)
		if rows == -1 {
			rows = len(cells)
		}
		if len(cells) != rows {
			t.Fatalf("test table column %s has %d rows, want %d", col, len(cells), rows)
		}
		table.Cells[col] = cells
	}
	return table
}

func TestProfileNumericColumnIQROutliers(t *testing.T) {
	table := newTestTable(t, map[string][]string{
		"KM": {"1", "2", "3", "4", "100"},
	}, []string{"KM"})

	p := ProfileTable(table)["KM"]
	if p.Type != ColumnNumerical {
		t.Fatalf("expected numerical, got %s", p.Type)
	}
	if p.Numeric == nil {
		t.Fatal("expected numeric stats")
	}
	// Q1=2, Q3=4, IQR=2 -> upper fence 7, so only 100 is flagged.
	if p.Numeric.OutlierCount != 1 {
		t.Fatalf("expected 1 outlier, got %d", p.Numeric.OutlierCount)
	}
	if p.Numeric.Median != 3 {
		t.Fatalf("expected median 3, got %v", p.Numeric.Median)
	}
	if p.Numeric.Min != 1 || p.Numeric.Max != 100 {
		t.Fatalf("unexpected min/max: %v/%v", p.Numeric.Min, p.Numeric.Max)
	}
	if !hasIssue(p, issueHighOutliers) {
		t.Fatalf("expected high outlier issue at 20%%, issues=%v", p.Issues)
	}
}

func TestProfileTypePriorityOrder(t *testing.T) {
	table := newTestTable(t, map[string][]string{
		"Numbers": {"1.5", "2", "-3"},
		"Dates":   {"2023-01-02", "2023-02-03", "2023-12-31"},
		"Text": {
			"the steering wheel makes a loud clicking noise when turning",
			"customer states heated steering wheel stopped working entirely",
			"wheel trim coming apart at the seam near the horn button",
		},
		"Category": {"Warranty", "Retail", "Warranty"},
	}, []string{"Numbers", "Dates", "Text", "Category"})

	profiles := ProfileTable(table)

	want := map[string]ColumnType{
		"Numbers":  ColumnNumerical,
		"Dates":    ColumnDate,
		"Text":     ColumnText,
		"Category": ColumnCategorical,
	}
	for col, wantType := range want {
		if got := profiles[col].Type; got != wantType {
			t.Fatalf("column %s: expected %s, got %s", col, wantType, got)
		}
	}

	if profiles["Dates"].Date.RangeDays != 363 {
		t.Fatalf("expected 363 days range, got %d", profiles["Dates"].Date.RangeDays)
	}
	if len(profiles["Text"].Text.TopTokens) == 0 {
		t.Fatal("expected top tokens for text column")
	}
	for _, tok := range profiles["Text"].Text.TopTokens {
		if stopwords[tok.Token] {
			t.Fatalf("stopword %q leaked into top tokens", tok.Token)
		}
	}
	if profiles["Text"].Text.AvgLength <= textLengthThreshold {
		t.Fatalf("text column mean length %v should exceed threshold", profiles["Text"].Text.AvgLength)
	}
}

func TestProfileDateBeatsTextForShortDates(t *testing.T) {
	// All values parse as dates, so the column is date even though it is
	// also a plausible categorical.
	table := newTestTable(t, map[string][]string{
		"When": {"2024-05-01", "2024-05-02", "2024-05-01"},
	}, []string{"When"})

	if got := ProfileTable(table)["When"].Type; got != ColumnDate {
		t.Fatalf("expected date, got %s", got)
	}
}

func TestProfileCategoricalStatsAndCapsIssue(t *testing.T) {
	table := newTestTable(t, map[string][]string{
		"Channel": {"dealer", "Dealer", " dealer ", "fleet", "fleet"},
	}, []string{"Channel"})

	p := ProfileTable(table)["Channel"]
	if p.Type != ColumnCategorical {
		t.Fatalf("expected categorical, got %s", p.Type)
	}
	if !hasIssue(p, issueInconsistentCap) {
		t.Fatalf("expected capitalization issue, issues=%v", p.Issues)
	}
	if p.Categorical.Entropy <= 0 {
		t.Fatalf("expected positive entropy, got %v", p.Categorical.Entropy)
	}
	if got := p.Categorical.TopCategories[0].Count; got != 2 {
		t.Fatalf("expected top category count 2, got %d", got)
	}
}

func TestProfileCategoricalNoCapsIssueWhenConsistent(t *testing.T) {
	table := newTestTable(t, map[string][]string{
		"Channel": {"Dealer", "Fleet", "Dealer"},
	}, []string{"Channel"})

	if p := ProfileTable(table)["Channel"]; hasIssue(p, issueInconsistentCap) {
		t.Fatalf("unexpected capitalization issue, issues=%v", p.Issues)
	}
}

func TestProfilePrimaryKeyDetection(t *testing.T) {
	table := newTestTable(t, map[string][]string{
		"ID":   {"a1", "a2", "a3"},
		"Dup":  {"x", "x", "y"},
		"Hole": {"1", "", "3"},
	}, []string{"ID", "Dup", "Hole"})

	profiles := ProfileTable(table)
	if !profiles["ID"].PotentialPrimaryKey {
		t.Fatal("ID should be a potential primary key")
	}
	if profiles["Dup"].PotentialPrimaryKey {
		t.Fatal("Dup has repeated values, not a primary key")
	}
	if profiles["Hole"].PotentialPrimaryKey {
		t.Fatal("Hole has a missing value, not a primary key")
	}
}

func TestProfileAllMissingIsUndetermined(t *testing.T) {
	table := newTestTable(t, map[string][]string{
		"Empty": {"", "", ""},
	}, []string{"Empty"})

	p := ProfileTable(table)["Empty"]
	if p.Type != ColumnUndetermined {
		t.Fatalf("expected undetermined, got %s", p.Type)
	}
	if p.MissingCount != 3 || p.MissingRatio != 1 {
		t.Fatalf("unexpected missing stats: count=%d ratio=%v", p.MissingCount, p.MissingRatio)
	}
}

func TestProfileMixedColumnFallsBackToCategorical(t *testing.T) {
	// One non-numeric value disqualifies the whole column from numerical.
	table := newTestTable(t, map[string][]string{
		"Mixed": {"1", "2", "n/a"},
	}, []string{"Mixed"})

	if got := ProfileTable(table)["Mixed"].Type; got != ColumnCategorical {
		t.Fatalf("expected categorical, got %s", got)
	}
}

func TestPercentileLinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 100}
	if q1 := percentileSorted(sorted, 0.25); q1 != 2 {
		t.Fatalf("expected Q1=2, got %v", q1)
	}
	if q3 := percentileSorted(sorted, 0.75); q3 != 4 {
		t.Fatalf("expected Q3=4, got %v", q3)
	}
}

func TestOutlierMaskMatchesIQRRule(t *testing.T) {
	nums := []float64{1, 2, 3, 4, 100}
	mask, lower, upper := outlierMask(nums)
	for i, v := range nums {
		want := v < lower || v > upper
		if mask[i] != want {
			t.Fatalf("mask[%d]=%t disagrees with fences [%v, %v] for %v", i, mask[i], lower, upper, v)
		}
	}
	if upper != 7 {
		t.Fatalf("expected upper fence 7, got %v", upper)
	}
}

func TestCategoryEntropyUniform(t *testing.T) {
	counts := []CategoryCount{{"a", 1}, {"b", 1}, {"c", 1}, {"d", 1}}
	got := categoryEntropy(counts)
	want := math.Log(4)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected entropy ln(4)=%v, got %v", want, got)
	}
}

func TestSampleStd(t *testing.T) {
	got := sampleStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	want := 2.138089935299395 // sample std (n-1 denominator)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
