package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestLoadTableMissingFileIsFatal(t *testing.T) {
	_, err := LoadTable(filepath.Join(t.TempDir(), "nope.xlsx"), "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadTableCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	content := "Complaint,KM\nwheel clicks,1200\n,\nhorn stuck,900\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	table, err := LoadTable(path, "")
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}

	if table.RowCount() != 3 {
		t.Fatalf("expected 3 rows, got %d", table.RowCount())
	}
	if got := table.StringAt("Complaint", 0); got != "wheel clicks" {
		t.Fatalf("Complaint[0]=%q", got)
	}
	if !table.CellAt("Complaint", 1).Missing {
		t.Fatal("blank cell should load as missing")
	}
	if got := table.StringAt("KM", 2); got != "900" {
		t.Fatalf("KM[2]=%q", got)
	}
}

func TestLoadTableDedupesDuplicateHeaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.csv")
	content := "KM,KM,KM\n1,2,3\n4,5,6\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	table, err := LoadTable(path, "")
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}

	want := []string{"KM", "KM.1", "KM.2"}
	if len(table.Columns) != len(want) {
		t.Fatalf("columns: %v", table.Columns)
	}
	for i, col := range want {
		if table.Columns[i] != col {
			t.Fatalf("column %d: got %q, want %q", i, table.Columns[i], col)
		}
	}
	if table.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.RowCount())
	}
	if got := table.StringAt("KM.1", 1); got != "5" {
		t.Fatalf("KM.1[1]=%q", got)
	}
}

func TestLoadTaxonomyFromWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.xlsx")
	writeTaxonomyFixture(t, path)

	tax, err := LoadTaxonomy(path, "Taxonomy")
	if err != nil {
		t.Fatalf("LoadTaxonomy failed: %v", err)
	}

	if len(tax.RootCause) != 2 || tax.RootCause[0] != "Wear and tear" {
		t.Fatalf("unexpected root causes: %v", tax.RootCause)
	}
	// Axis columns have different lengths; blanks must not become labels.
	if len(tax.FixComponent) != 1 {
		t.Fatalf("expected 1 fix component, got %v", tax.FixComponent)
	}
}

func TestLoadTaxonomyMissingAxisColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.xlsx")
	f := excelize.NewFile()
	sheet := "Taxonomy"
	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	header := []interface{}{"Root Cause"} // the other four axes are absent
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatalf("SetSheetRow: %v", err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	if _, err := LoadTaxonomy(path, sheet); err == nil {
		t.Fatal("expected an error for the missing axis columns")
	}
}

func writeTaxonomyFixture(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Taxonomy"
	if _, err := f.NewSheet(sheet); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	rows := [][]interface{}{
		{"Root Cause", "Symptom Condition", "Symptom Component", "Fix Condition", "Fix Component"},
		{"Wear and tear", "Clicking noise", "Steering wheel (main component)", "Replaced", "Wiring harness"},
		{"Manufacturing defect", "Not working", "Horn mechanism", "Adjusted", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("CoordinatesToCellName: %v", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
}
