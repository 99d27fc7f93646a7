package excel

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ideamans/go-sheetsync"
)

// Source implements the sheetsync.Source interface for a local Excel workbook.
// The worksheet name is used as the sheet ID; the first row of the worksheet
// holds the column titles.
type Source struct {
	config Config
}

// New creates a new Excel source with the given configuration
func New(config *Config) (*Source, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is required", sheetsync.ErrInvalidArgument)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Source{config: *config}, nil
}

// CurrentUser reports the workbook author. It fails when the workbook cannot be opened.
func (s *Source) CurrentUser(ctx context.Context) (*sheetsync.User, error) {
	f, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	props, err := f.GetDocProps()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read document properties: %w", sheetsync.ErrUpstream, err)
	}

	name := props.Creator
	if name == "" {
		name = props.LastModifiedBy
	}
	if name == "" {
		name = filepath.Base(s.config.FilePath)
	}
	return &sheetsync.User{Name: name}, nil
}

// GetSheet retrieves all rows of the named worksheet
func (s *Source) GetSheet(ctx context.Context, sheetName string) (*sheetsync.Sheet, error) {
	f, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// Check if sheet exists
	sheetIndex, err := f.GetSheetIndex(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get sheet index: %w", sheetsync.ErrUpstream, err)
	}
	if sheetIndex == -1 {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, sheetName)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get rows: %w", sheetsync.ErrUpstream, err)
	}

	sheet := &sheetsync.Sheet{ID: sheetName, Name: sheetName}
	if len(rows) == 0 {
		return sheet, nil
	}

	// First row is the header. Columns without a title are ignored.
	titles := make([]string, len(rows[0]))
	ids := make([]string, len(rows[0]))
	for i, title := range rows[0] {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		id, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("%w: column %d: %w", sheetsync.ErrUpstream, i+1, err)
		}
		titles[i] = title
		ids[i] = id
		sheet.Columns = append(sheet.Columns, sheetsync.SheetColumn{
			ID:      id,
			Title:   title,
			Primary: title == s.config.PrimaryColumn,
		})
	}
	if s.config.PrimaryColumn == "" && len(sheet.Columns) > 0 {
		sheet.Columns[0].Primary = true
	}

	for i := 1; i < len(rows); i++ {
		values := rows[i]
		if len(values) == 0 {
			continue // Skip empty rows
		}

		row := sheetsync.SheetRow{
			// Row number (1-based, data starts from row 2)
			ID: strconv.Itoa(i + 1),
		}
		for j := 0; j < len(values) && j < len(titles); j++ {
			if titles[j] == "" {
				continue
			}
			row.Cells = append(row.Cells, sheetsync.Cell{
				ColumnID: ids[j],
				Value:    parseValue(values[j]),
			})
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}

func (s *Source) open(ctx context.Context) (*excelize.File, error) {
	// Check if context is cancelled
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	f, err := excelize.OpenFile(s.config.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, s.config.FilePath)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidFileFormat, err)
	}
	return f, nil
}

// parseValue converts a cell's text to a typed value. Blank cells become nil.
func parseValue(value string) interface{} {
	if value == "" {
		return nil
	}

	// Try to parse as number first
	if floatVal, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(floatVal) && !math.IsInf(floatVal, 0) {
		// Check if it's an integer
		if intVal := int64(floatVal); float64(intVal) == floatVal {
			return intVal
		}
		return floatVal
	}

	if value == "true" || value == "false" || value == "TRUE" || value == "FALSE" {
		return value == "true" || value == "TRUE"
	}
	return value
}
