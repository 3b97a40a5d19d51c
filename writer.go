package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// WriteTable saves the table with all original and derived columns. Format
// follows the extension: .csv writes CSV, anything else a single-sheet
// workbook. Missing cells are written blank.
func WriteTable(t *Table, path string) error {
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return writeCSV(t, path)
	}
	return writeWorkbook(t, path)
}

func writeCSV(t *Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	rows := t.RowCount()
	record := make([]string, len(t.Columns))
	for i := 0; i < rows; i++ {
		for j, col := range t.Columns {
			record[j] = t.StringAt(col, i)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing %s: %w", path, err)
	}
	log.Printf("Wrote %d rows x %d columns to %s", rows, len(t.Columns), path)
	return nil
}

func writeWorkbook(t *Table, path string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	rows := t.RowCount()
	for i := 0; i < rows; i++ {
		record := make([]interface{}, len(t.Columns))
		for j, col := range t.Columns {
			record[j] = t.StringAt(col, i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("addressing row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheet, cell, &record); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	log.Printf("Wrote %d rows x %d columns to %s", rows, len(t.Columns), path)
	return nil
}
