package sheetsync

import "context"

// Source is the hosted spreadsheet capability the extractor reads from
type Source interface {
	// CurrentUser returns the account the credential belongs to.
	// Adapters return ErrAuthentication when the credential is rejected.
	CurrentUser(ctx context.Context) (*User, error)

	// GetSheet returns the sheet metadata with all columns and all rows.
	// Adapters return ErrNotFound for unknown sheets and ErrUpstream for other failures.
	GetSheet(ctx context.Context, sheetID string) (*Sheet, error)
}

// User is the authenticated spreadsheet account
type User struct {
	Name  string
	Email string
}

// Sheet is a spreadsheet as returned by a Source
type Sheet struct {
	ID      string
	Name    string
	Columns []SheetColumn
	Rows    []SheetRow
}

// SheetColumn is a spreadsheet column. At most one column should be primary.
type SheetColumn struct {
	ID      string
	Title   string
	Primary bool
}

// SheetRow is a spreadsheet row with the cells it carries
type SheetRow struct {
	ID    string
	Cells []Cell
}

// Cell holds the value of one column on a row. Value is nil for blank cells.
type Cell struct {
	ColumnID string
	Value    interface{}
}

// Cell returns the cell for a column, if the row carries one
func (r SheetRow) Cell(columnID string) (Cell, bool) {
	for _, c := range r.Cells {
		if c.ColumnID == columnID {
			return c, true
		}
	}
	return Cell{}, false
}
