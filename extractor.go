package sheetsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ideamans/go-sheetsync/logging"
)

// Extractor reads a sheet from a Source and builds a Table from it
type Extractor struct {
	source Source
	base   *slog.Logger
	logger *slog.Logger
}

// NewExtractor creates an extractor and verifies the source credential.
// It fails with ErrAuthentication if the connection test fails.
func NewExtractor(ctx context.Context, source Source, logger *slog.Logger) (*Extractor, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: source is required", ErrInvalidArgument)
	}

	e := &Extractor{
		source: source,
		base:   logger,
		logger: logging.Named(logger, "sheetsync.extractor"),
	}
	e.logger.Info("Initializing a new spreadsheet extractor")

	if err := e.Connected(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

// Connected checks the credential by fetching the current user
func (e *Extractor) Connected(ctx context.Context) error {
	e.logger.Info("Beginning spreadsheet connection test")

	user, err := e.source.CurrentUser(ctx)
	if err != nil {
		e.logger.Log(ctx, logging.LevelCritical, "Spreadsheet connection test FAILED; error returned", "error", err)
		if errors.Is(err, ErrAuthentication) {
			return err
		}
		return fmt.Errorf("%w: connection test: %w", ErrAuthentication, err)
	}
	if user == nil {
		e.logger.Log(ctx, logging.LevelCritical, "Spreadsheet connection test FAILED; no user returned")
		return fmt.Errorf("%w: connection test returned no user", ErrAuthentication)
	}

	e.logger.Info("Connected to spreadsheet", "user", user.Name, "email", user.Email)
	return nil
}

// GetSheet retrieves a sheet with all of its columns and rows
func (e *Extractor) GetSheet(ctx context.Context, sheetID string) (*Sheet, error) {
	e.logger.Info("Getting sheet", "sheet", sheetID)

	sheet, err := e.source.GetSheet(ctx, sheetID)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUpstream) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: get sheet %s: %w", ErrUpstream, sheetID, err)
	}
	if sheet == nil {
		return nil, fmt.Errorf("%w: sheet %s", ErrNotFound, sheetID)
	}
	return sheet, nil
}

// ExtractData builds a Table from a sheet. Rows whose primary column cell is
// missing or empty are skipped. When no column is flagged primary, every row
// is skipped.
func (e *Extractor) ExtractData(ctx context.Context, sheetID string) (*Table, error) {
	e.logger.Info("Extracting data", "sheet", sheetID)

	sheet, err := e.GetSheet(ctx, sheetID)
	if err != nil {
		return nil, err
	}

	data := NewTable(sheetID, e.base)

	var primaryColumnID string
	var havePrimary bool
	for _, column := range sheet.Columns {
		data.AddColumn(column.ID, column.Title)
		if !havePrimary && column.Primary {
			primaryColumnID = column.ID
			havePrimary = true
		}
	}
	if !havePrimary {
		e.logger.Warn("No primary column found; all rows will be skipped", "sheet", sheetID)
	}

	skipped := 0
	for _, sheetRow := range sheet.Rows {
		if !havePrimary || !cellIsNotEmpty(sheetRow, primaryColumnID) {
			skipped++
			continue
		}

		row := NewRow(sheetRow.ID)
		for _, cell := range sheetRow.Cells {
			row.Set(cell.ColumnID, cell.Value)
		}
		if err := data.AddRow(row); err != nil {
			return nil, err
		}
	}

	e.logger.Info("Extracted data", "sheet", sheetID,
		"columns", data.NumColumns(), "rows", data.NumRows(), "skipped", skipped)
	return data, nil
}

// cellIsNotEmpty reports whether the row has a truthy value in the column.
// Zero numbers and false count as empty, so such rows are not keyed.
func cellIsNotEmpty(row SheetRow, columnID string) bool {
	cell, ok := row.Cell(columnID)
	if !ok {
		return false
	}
	switch v := cell.Value.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case int32:
		return v != 0
	case float64:
		return v != 0
	case float32:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}
