package googlesheets

import "strings"

// Config represents configuration specific to Google Sheets source
type Config struct {
	// SheetName is the worksheet to read. Empty means the first worksheet.
	SheetName string

	// PrimaryColumn is the header title of the primary column.
	// Empty means the first column.
	PrimaryColumn string
}

// sheetRange returns the A1 range covering the whole named worksheet.
// The name is always quoted so spaces and apostrophes parse.
func sheetRange(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
