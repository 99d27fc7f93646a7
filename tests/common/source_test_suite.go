package common

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/ideamans/go-sheetsync"
)

// FixtureRows is the content every live source under test must hold: a
// header row followed by data rows. The second data row has an empty
// primary cell and must be skipped.
var FixtureRows = [][]interface{}{
	{"name", "age", "active"},
	{"Alice", 30, true},
	{"", 25, false},
	{"Bob", 41, false},
}

// SourceTestCase represents a test case for a source
type SourceTestCase struct {
	Name        string
	Source      sheetsync.Source
	SheetID     string
	Description string
}

// DiscardLogger returns a logger that drops everything
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ExtractFixture connects to the source and extracts the fixture sheet
func ExtractFixture(t *testing.T, tc SourceTestCase) *sheetsync.Table {
	t.Helper()

	ctx := context.Background()
	extractor, err := sheetsync.NewExtractor(ctx, tc.Source, DiscardLogger())
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}

	data, err := extractor.ExtractData(ctx, tc.SheetID)
	if err != nil {
		t.Fatalf("Failed to extract data: %v", err)
	}
	return data
}

// RowsByTitle returns the extracted rows keyed by the primary value, with
// column ids replaced by column titles. Sources assign their own column and
// row ids, so comparisons go through titles.
func RowsByTitle(t *testing.T, data *sheetsync.Table, primaryTitle string) map[string]map[string]interface{} {
	t.Helper()

	result := make(map[string]map[string]interface{})
	for _, row := range data.Rows() {
		values := make(map[string]interface{})
		for _, columnID := range row.Columns() {
			title, ok := data.ColumnTitle(columnID)
			if !ok {
				t.Errorf("Row %s has a cell for unknown column %s", row.ID(), columnID)
				continue
			}
			values[title], _ = row.Value(columnID)
		}

		key, _ := values[primaryTitle].(string)
		if key == "" {
			t.Errorf("Row %s was extracted with an empty primary value", row.ID())
			continue
		}
		result[key] = values
	}
	return result
}

// CheckFixture verifies a table extracted from FixtureRows
func CheckFixture(t *testing.T, data *sheetsync.Table) {
	t.Helper()

	if data.NumColumns() != 3 {
		t.Errorf("NumColumns() = %d, want 3", data.NumColumns())
	}
	if data.NumRows() != 2 {
		t.Fatalf("NumRows() = %d, want 2", data.NumRows())
	}

	rows := RowsByTitle(t, data, "name")
	want := map[string]map[string]interface{}{
		"Alice": {"name": "Alice", "age": int64(30), "active": true},
		"Bob":   {"name": "Bob", "age": int64(41), "active": false},
	}
	for key, wantValues := range want {
		got, ok := rows[key]
		if !ok {
			t.Errorf("Missing row %s", key)
			continue
		}
		for title, wantValue := range wantValues {
			if got[title] != wantValue {
				t.Errorf("Row %s %s = %#v, want %#v", key, title, got[title], wantValue)
			}
		}
	}
}
