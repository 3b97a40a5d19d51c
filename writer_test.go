package main

import (
	"path/filepath"
	"testing"
)

func roundTripTable(t *testing.T) *Table {
	t.Helper()
	return newTestTable(t, map[string][]string{
		"Complaint":  {"wheel clicks", "horn stuck"},
		"KM":         {"1200", "900"},
		"Root Cause": {"Wear and tear", NotMentioned},
	}, []string{"Complaint", "KM", "Root Cause"})
}

func TestWriteAndLoadCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	src := roundTripTable(t)

	if err := WriteTable(src, path); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	got, err := LoadTable(path, "")
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}

	assertSameTable(t, src, got)
}

func TestWriteAndLoadWorkbookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	src := roundTripTable(t)

	if err := WriteTable(src, path); err != nil {
		t.Fatalf("WriteTable failed: %v", err)
	}
	got, err := LoadTable(path, "")
	if err != nil {
		t.Fatalf("LoadTable failed: %v", err)
	}

	assertSameTable(t, src, got)
}

func assertSameTable(t *testing.T, want, got *Table) {
	t.Helper()
	if len(got.Columns) != len(want.Columns) {
		t.Fatalf("column count: got %d, want %d", len(got.Columns), len(want.Columns))
	}
	for i, col := range want.Columns {
		if got.Columns[i] != col {
			t.Fatalf("column %d: got %q, want %q", i, got.Columns[i], col)
		}
	}
	if got.RowCount() != want.RowCount() {
		t.Fatalf("row count: got %d, want %d", got.RowCount(), want.RowCount())
	}
	for _, col := range want.Columns {
		for i := 0; i < want.RowCount(); i++ {
			if got.StringAt(col, i) != want.StringAt(col, i) {
				t.Fatalf("%s[%d]: got %q, want %q", col, i, got.StringAt(col, i), want.StringAt(col, i))
			}
		}
	}
}
