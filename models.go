package main

import (
	"fmt"
	"strconv"
	"time"
)

// Cell is one table value. Blank spreadsheet cells load as Missing.
type Cell struct {
	Value   string
	Missing bool
}

// Table is an in-memory tabular dataset: ordered columns, string-typed cells.
// Coercion to numbers or dates is always explicit and driven by the profiles.
type Table struct {
	Columns []string
	Cells   map[string][]Cell
}

func NewTable(columns []string) *Table {
	t := &Table{
		Columns: append([]string(nil), columns...),
		Cells:   make(map[string][]Cell, len(columns)),
	}
	for _, col := range columns {
		t.Cells[col] = nil
	}
	return t
}

func (t *Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Cells[t.Columns[0]])
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.Cells[name]
	return ok
}

func (t *Table) Column(name string) []Cell {
	return t.Cells[name]
}

// AddColumn appends a new column, or replaces the values if it exists.
func (t *Table) AddColumn(name string, cells []Cell) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
	t.Cells[name] = cells
}

func (t *Table) CellAt(col string, row int) Cell {
	return t.Cells[col][row]
}

// StringAt returns the cell value with missing cells read as "".
func (t *Table) StringAt(col string, row int) string {
	cells, ok := t.Cells[col]
	if !ok || row >= len(cells) || cells[row].Missing {
		return ""
	}
	return cells[row].Value
}

// Clone deep-copies the table so cleaning never mutates its input.
func (t *Table) Clone() *Table {
	out := NewTable(t.Columns)
	for col, cells := range t.Cells {
		out.Cells[col] = append([]Cell(nil), cells...)
	}
	return out
}

// ColumnType is the inferred semantic type of a column.
type ColumnType int

const (
	ColumnUndetermined ColumnType = iota
	ColumnNumerical
	ColumnCategorical
	ColumnText
	ColumnDate
)

func (ct ColumnType) String() string {
	switch ct {
	case ColumnNumerical:
		return "numerical"
	case ColumnCategorical:
		return "categorical"
	case ColumnText:
		return "text"
	case ColumnDate:
		return "date"
	default:
		return "undetermined"
	}
}

type NumericStats struct {
	Min          float64
	Max          float64
	Mean         float64
	Median       float64
	Std          float64
	OutlierCount int
	OutlierRatio float64
}

type CategoryCount struct {
	Value string
	Count int
}

type CategoricalStats struct {
	TopCategories []CategoryCount // up to 5, most frequent first
	Entropy       float64         // Shannon entropy of the frequency distribution
}

type TokenCount struct {
	Token string
	Count int
}

type TextStats struct {
	TopTokens []TokenCount // up to 10 non-stopword tokens, most frequent first
	AvgLength float64
	MaxLength int
}

type DateStats struct {
	Min       time.Time
	Max       time.Time
	RangeDays int
}

// ColumnProfile is the one-shot read-only analysis of a single column.
// Exactly one of the stats payloads is non-nil, matching Type.
type ColumnProfile struct {
	Name         string
	DeclaredType string
	RowCount     int
	MissingCount int
	MissingRatio float64
	UniqueCount  int
	UniqueRatio  float64

	Type        ColumnType
	Numeric     *NumericStats
	Categorical *CategoricalStats
	Text        *TextStats
	Date        *DateStats

	Issues              []string
	PotentialPrimaryKey bool
}

// Taxonomy is the closed label set the classifier is constrained to,
// one ordered label list per axis. Root Cause is single-label; the four
// condition/component axes allow up to three labels per record.
type Taxonomy struct {
	RootCause        []string
	SymptomCondition []string
	SymptomComponent []string
	FixCondition     []string
	FixComponent     []string
}

// NotMentioned is the sentinel label used when no taxonomy value applies.
const NotMentioned = "Not Mentioned"

// MaxAxisLabels is the fixed width of every multi-label axis.
const MaxAxisLabels = 3

// TagResult holds one record's validated classification. Every label is
// guaranteed (by validation, not by trust in the service) to be a taxonomy
// member, the sentinel, or the empty padding string.
type TagResult struct {
	RootCause        string
	SymptomCondition []string
	SymptomComponent []string
	FixCondition     []string
	FixComponent     []string
	Confidence       float64
}

// formatFloat renders the shortest plain-decimal form; insights and cells
// never use exponent notation, even for large values.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatBool(v bool) string {
	return strconv.FormatBool(v)
}

// canonicalDate renders the canonical date representation: date-only when
// the clock is zero, otherwise a full timestamp.
func canonicalDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}

func boolCells(mask []bool) []Cell {
	cells := make([]Cell, len(mask))
	for i, v := range mask {
		cells[i] = Cell{Value: formatBool(v)}
	}
	return cells
}

func ratio(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func (p *ColumnProfile) describe() string {
	return fmt.Sprintf("column=%s type=%s missing=%d unique=%d pk=%t",
		p.Name, p.Type, p.MissingCount, p.UniqueCount, p.PotentialPrimaryKey)
}
