package main

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// textLengthThreshold separates free-text columns from categorical ones:
// a string column whose mean value length exceeds it is treated as text.
const textLengthThreshold = 20

// highOutlierRatio flags a numerical column as suspicious when more than
// this share of its values fall outside the IQR fences.
const highOutlierRatio = 0.05

const (
	issueHighOutliers    = "High outlier percentage"
	issueInconsistentCap = "Inconsistent capitalization or spacing"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	time.RFC3339,
}

func parseNumeric(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ProfileTable inspects every column of the table and returns one profile
// per column. It never mutates the table; type inference is a one-shot pass
// and downstream stages must not re-derive it.
func ProfileTable(t *Table) map[string]*ColumnProfile {
	profiles := make(map[string]*ColumnProfile, len(t.Columns))
	for _, col := range t.Columns {
		profiles[col] = profileColumn(col, t.Column(col))
	}
	return profiles
}

func profileColumn(name string, cells []Cell) *ColumnProfile {
	rowCount := len(cells)
	var values []string
	missing := 0
	for _, c := range cells {
		if c.Missing {
			missing++
			continue
		}
		values = append(values, c.Value)
	}

	distinct := make(map[string]bool, len(values))
	for _, v := range values {
		distinct[v] = true
	}

	p := &ColumnProfile{
		Name:         name,
		DeclaredType: "string",
		RowCount:     rowCount,
		MissingCount: missing,
		MissingRatio: ratio(missing, rowCount),
		UniqueCount:  len(distinct),
		UniqueRatio:  ratio(len(distinct), rowCount),
	}
	// Primary-key detection is independent of the inferred type.
	p.PotentialPrimaryKey = rowCount > 0 && missing == 0 && len(distinct) == rowCount

	if len(values) == 0 {
		p.Type = ColumnUndetermined
		return p
	}

	// Priority order: numerical, date, text, categorical. A column only
	// qualifies for a type when every non-missing value coerces cleanly.
	if nums, ok := coerceAllNumeric(values); ok {
		p.Type = ColumnNumerical
		p.Numeric = numericStats(nums)
		if p.Numeric.OutlierRatio > highOutlierRatio {
			p.Issues = append(p.Issues, issueHighOutliers)
		}
		return p
	}

	if dates, ok := coerceAllDates(values); ok {
		p.Type = ColumnDate
		p.Date = dateStats(dates)
		return p
	}

	if meanRuneLength(values) > textLengthThreshold {
		p.Type = ColumnText
		p.Text = textStats(values)
		return p
	}

	p.Type = ColumnCategorical
	p.Categorical = categoricalStats(values)
	if countDistinctFolded(values) < len(distinct) {
		p.Issues = append(p.Issues, issueInconsistentCap)
	}
	return p
}

func coerceAllNumeric(values []string) ([]float64, bool) {
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		f, ok := parseNumeric(v)
		if !ok {
			return nil, false
		}
		nums = append(nums, f)
	}
	return nums, true
}

func coerceAllDates(values []string) ([]time.Time, bool) {
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, ok := parseDate(v)
		if !ok {
			return nil, false
		}
		dates = append(dates, d)
	}
	return dates, true
}

func numericStats(nums []float64) *NumericStats {
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)

	s := &NumericStats{
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Mean:   mean(nums),
		Median: medianSorted(sorted),
		Std:    sampleStd(nums),
	}
	mask, _, _ := outlierMask(nums)
	for _, flagged := range mask {
		if flagged {
			s.OutlierCount++
		}
	}
	s.OutlierRatio = ratio(s.OutlierCount, len(nums))
	return s
}

func categoricalStats(values []string) *CategoricalStats {
	counts := countCategories(values)
	top := counts
	if len(top) > 5 {
		top = top[:5]
	}
	return &CategoricalStats{
		TopCategories: append([]CategoryCount(nil), top...),
		Entropy:       categoryEntropy(counts),
	}
}

func textStats(values []string) *TextStats {
	maxLen := 0
	total := 0
	for _, v := range values {
		n := utf8.RuneCountInString(v)
		total += n
		if n > maxLen {
			maxLen = n
		}
	}
	return &TextStats{
		TopTokens: topTokens(values, 10),
		AvgLength: float64(total) / float64(len(values)),
		MaxLength: maxLen,
	}
}

func dateStats(dates []time.Time) *DateStats {
	min, max := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return &DateStats{
		Min:       min,
		Max:       max,
		RangeDays: int(max.Sub(min).Hours() / 24),
	}
}

// countCategories returns frequencies most-frequent first, ties broken by
// first appearance in the column.
func countCategories(values []string) []CategoryCount {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	firstSeen := make(map[string]int, len(order))
	for i, v := range order {
		firstSeen[v] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})
	out := make([]CategoryCount, len(order))
	for i, v := range order {
		out[i] = CategoryCount{Value: v, Count: counts[v]}
	}
	return out
}

func countDistinctFolded(values []string) int {
	folded := make(map[string]bool, len(values))
	for _, v := range values {
		folded[foldValue(v)] = true
	}
	return len(folded)
}

func meanRuneLength(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0
	for _, v := range values {
		total += utf8.RuneCountInString(v)
	}
	return float64(total) / float64(len(values))
}

// --- small stats helpers ---

func mean(nums []float64) float64 {
	sum := 0.0
	for _, v := range nums {
		sum += v
	}
	return sum / float64(len(nums))
}

func sampleStd(nums []float64) float64 {
	if len(nums) < 2 {
		return 0
	}
	m := mean(nums)
	ss := 0.0
	for _, v := range nums {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(nums)-1))
}

func medianSorted(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentileSorted uses linear interpolation between closest ranks, which
// makes Q1/Q3 of [1,2,3,4,100] come out as exactly 2 and 4.
func percentileSorted(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// outlierMask applies the IQR rule: a value is an outlier iff it falls
// below Q1-1.5*IQR or above Q3+1.5*IQR. Returns the per-value mask and the
// fences.
func outlierMask(nums []float64) (mask []bool, lower, upper float64) {
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	q1 := percentileSorted(sorted, 0.25)
	q3 := percentileSorted(sorted, 0.75)
	iqr := q3 - q1
	lower = q1 - 1.5*iqr
	upper = q3 + 1.5*iqr

	mask = make([]bool, len(nums))
	for i, v := range nums {
		mask[i] = v < lower || v > upper
	}
	return mask, lower, upper
}

// categoryEntropy is the Shannon entropy (natural log) of the normalized
// category frequency distribution.
func categoryEntropy(counts []CategoryCount) float64 {
	total := 0
	for _, c := range counts {
		total += c.Count
	}
	if total == 0 {
		return 0
	}
	h := 0.0
	for _, c := range counts {
		if c.Count == 0 {
			continue
		}
		p := float64(c.Count) / float64(total)
		h -= p * math.Log(p)
	}
	return h
}
