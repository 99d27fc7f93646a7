package sheetsync

import (
	"context"
	"io"
	"log/slog"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSource is an in-memory Source
type fakeSource struct {
	user     *User
	userErr  error
	sheets   map[string]*Sheet
	sheetErr error
	calls    int
}

func (s *fakeSource) CurrentUser(ctx context.Context) (*User, error) {
	return s.user, s.userErr
}

func (s *fakeSource) GetSheet(ctx context.Context, sheetID string) (*Sheet, error) {
	s.calls++
	if s.sheetErr != nil {
		return nil, s.sheetErr
	}
	sheet, ok := s.sheets[sheetID]
	if !ok {
		return nil, ErrNotFound
	}
	return sheet, nil
}

func newFakeSource(sheets ...*Sheet) *fakeSource {
	s := &fakeSource{
		user:   &User{Name: "Test User", Email: "test@example.com"},
		sheets: make(map[string]*Sheet),
	}
	for _, sheet := range sheets {
		s.sheets[sheet.ID] = sheet
	}
	return s
}

// exampleSheet is a two column sheet where column "1" is primary and row 101
// has an empty primary cell.
func exampleSheet() *Sheet {
	return &Sheet{
		ID:   "7000",
		Name: "Example",
		Columns: []SheetColumn{
			{ID: "1", Title: "Name", Primary: true},
			{ID: "2", Title: "Status"},
		},
		Rows: []SheetRow{
			{ID: "100", Cells: []Cell{{ColumnID: "1", Value: "Alice"}, {ColumnID: "2", Value: "Active"}}},
			{ID: "101", Cells: []Cell{{ColumnID: "1", Value: ""}, {ColumnID: "2", Value: "Active"}}},
		},
	}
}
