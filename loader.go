package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNotFound is the fatal load-time error: the input dataset is absent.
var ErrNotFound = errors.New("input file not found")

// LoadTable reads the full dataset into memory. The format is picked by
// extension: .xlsx/.xlsm via excelize (sheet by name, first sheet when the
// name is empty), .csv via encoding/csv. The first row is the header. There
// are no partial loads; the data model assumes the dataset fits in memory.
func LoadTable(path, sheet string) (*Table, error) {
	rows, err := readRows(path, sheet)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no header row in %s", path)
	}

	header := dedupeHeader(rows[0])

	table := NewTable(header)
	for _, row := range rows[1:] {
		for i, col := range header {
			var raw string
			if i < len(row) {
				raw = row[i]
			}
			cell := Cell{Value: raw}
			if strings.TrimSpace(raw) == "" {
				cell = Cell{Missing: true}
			}
			table.Cells[col] = append(table.Cells[col], cell)
		}
	}
	log.Printf("Loaded %d rows x %d columns from %s", table.RowCount(), len(header), path)
	return table, nil
}

// LoadTaxonomy reads the allowed label lists: one sheet column per axis,
// header = axis name, non-blank cells are the labels in order. A missing
// axis column is a configuration problem and fails the run.
func LoadTaxonomy(path, sheet string) (*Taxonomy, error) {
	table, err := LoadTable(path, sheet)
	if err != nil {
		return nil, err
	}

	axis := func(name string) ([]string, error) {
		if !table.HasColumn(name) {
			return nil, fmt.Errorf("taxonomy sheet is missing the %q column", name)
		}
		var labels []string
		for _, cell := range table.Column(name) {
			if cell.Missing {
				continue
			}
			if v := strings.TrimSpace(cell.Value); v != "" {
				labels = append(labels, v)
			}
		}
		return labels, nil
	}

	var tax Taxonomy
	for _, bind := range []struct {
		name   string
		target *[]string
	}{
		{"Root Cause", &tax.RootCause},
		{"Symptom Condition", &tax.SymptomCondition},
		{"Symptom Component", &tax.SymptomComponent},
		{"Fix Condition", &tax.FixCondition},
		{"Fix Component", &tax.FixComponent},
	} {
		labels, err := axis(bind.name)
		if err != nil {
			return nil, err
		}
		*bind.target = labels
	}
	return &tax, nil
}

// dedupeHeader trims header names and renames repeats with a numeric
// suffix ("KM", "KM.1", "KM.2", ...) so every column keys its own cells.
func dedupeHeader(raw []string) []string {
	header := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	counts := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		base := name
		for seen[name] {
			counts[base]++
			name = fmt.Sprintf("%s.%d", base, counts[base])
		}
		seen[name] = true
		header[i] = name
	}
	return header
}

func readRows(path, sheet string) ([][]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSVRows(path)
	default:
		return readWorkbookRows(path, sheet)
	}
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

func readWorkbookRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q from %s: %w", sheet, path, err)
	}
	return rows, nil
}
