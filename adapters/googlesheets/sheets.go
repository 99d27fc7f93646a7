package googlesheets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ideamans/go-sheetsync"
)

// SheetsSource implements the sheetsync.Source interface for Google Sheets.
// The spreadsheet ID is used as the sheet ID; the first row of the worksheet
// holds the column titles.
type SheetsSource struct {
	sheets *sheets.Service
	drive  *drive.Service
	config Config
}

// NewSheetsSource creates a new Google Sheets source with provided options
func NewSheetsSource(ctx context.Context, config Config, opts ...option.ClientOption) (*SheetsSource, error) {
	sheetsService, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	driveService, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &SheetsSource{
		sheets: sheetsService,
		drive:  driveService,
		config: config,
	}, nil
}

// CurrentUser returns the account behind the credentials
func (s *SheetsSource) CurrentUser(ctx context.Context) (*sheetsync.User, error) {
	about, err := s.drive.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		return nil, classify(err, "get current user")
	}
	if about.User == nil {
		return nil, fmt.Errorf("%w: no user in response", sheetsync.ErrAuthentication)
	}

	return &sheetsync.User{
		Name:  about.User.DisplayName,
		Email: about.User.EmailAddress,
	}, nil
}

// GetSheet retrieves all rows of the worksheet
func (s *SheetsSource) GetSheet(ctx context.Context, spreadsheetID string) (*sheetsync.Sheet, error) {
	sheetName := s.config.SheetName
	if sheetName == "" {
		var err error
		if sheetName, err = s.firstSheetName(ctx, spreadsheetID); err != nil {
			return nil, err
		}
	}

	resp, err := s.sheets.Spreadsheets.Values.Get(spreadsheetID, sheetRange(sheetName)).Context(ctx).Do()
	if err != nil {
		return nil, classify(err, "get sheet data")
	}

	sheet := &sheetsync.Sheet{
		ID:   spreadsheetID,
		Name: sheetName,
	}
	if len(resp.Values) == 0 {
		return sheet, nil
	}

	// First row is the header. Columns without a title are ignored.
	header := resp.Values[0]
	titles := make([]string, len(header))
	for i, v := range header {
		title, _ := v.(string)
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		titles[i] = title
		sheet.Columns = append(sheet.Columns, sheetsync.SheetColumn{
			ID:    ColumnName(i + 1),
			Title: title,
		})
	}
	markPrimary(sheet.Columns, s.config.PrimaryColumn)

	for i := 1; i < len(resp.Values); i++ {
		values := resp.Values[i]
		if len(values) == 0 {
			continue
		}

		row := sheetsync.SheetRow{
			// Row number (1-based, data starts at row 2)
			ID: strconv.Itoa(i + 1),
		}
		for j := 0; j < len(values) && j < len(titles); j++ {
			if titles[j] == "" {
				continue
			}
			row.Cells = append(row.Cells, sheetsync.Cell{
				ColumnID: ColumnName(j + 1),
				Value:    convertCellValue(values[j]),
			})
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	return sheet, nil
}

// firstSheetName looks up the title of the first worksheet
func (s *SheetsSource) firstSheetName(ctx context.Context, spreadsheetID string) (string, error) {
	resp, err := s.sheets.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return "", classify(err, "get spreadsheet")
	}
	if len(resp.Sheets) == 0 || resp.Sheets[0].Properties == nil {
		return "", fmt.Errorf("%w: spreadsheet %s has no worksheets", sheetsync.ErrNotFound, spreadsheetID)
	}
	return resp.Sheets[0].Properties.Title, nil
}

// markPrimary flags the column titled primary, or the first column when
// primary is empty.
func markPrimary(columns []sheetsync.SheetColumn, primary string) {
	if len(columns) == 0 {
		return
	}
	if primary == "" {
		columns[0].Primary = true
		return
	}
	for i := range columns {
		if columns[i].Title == primary {
			columns[i].Primary = true
			return
		}
	}
}

// classify maps a Google API error onto the sheetsync error kinds
func classify(err error, op string) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %s: %w", sheetsync.ErrAuthentication, op, err)
		case apiErr.Code == http.StatusNotFound:
			return fmt.Errorf("%w: %s: %w", sheetsync.ErrNotFound, op, err)
		case apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "Unable to parse range"):
			// Unknown worksheet name
			return fmt.Errorf("%w: %s: %w", sheetsync.ErrNotFound, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %w", sheetsync.ErrUpstream, op, err)
}

// ColumnName converts a 1-based column number to its letter name (1 -> A, 27 -> AA)
func ColumnName(n int) string {
	name := ""
	for n > 0 {
		n--
		name = string(rune('A'+n%26)) + name
		n /= 26
	}
	return name
}

// convertCellValue converts a Google Sheets cell value to Go type.
// Blank cells become nil.
func convertCellValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		// Try to parse as number
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(val, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
		// Try to parse as bool
		if val == "true" || val == "TRUE" {
			return true
		}
		if val == "false" || val == "FALSE" {
			return false
		}
		return val
	case float64:
		// Check if it's actually an integer
		if val == float64(int64(val)) {
			return int64(val)
		}
		return val
	case bool:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
