package sheetsync

import (
	"fmt"
	"log/slog"

	"github.com/ideamans/go-sheetsync/logging"
)

// KeyAttribute is the partition key attribute of every destination item
const KeyAttribute = "id"

// Column is a column id to title mapping, in spreadsheet order
type Column struct {
	ID    string
	Title string
}

// Row is one extracted spreadsheet row. Cell values are kept in the order
// they were set.
type Row struct {
	id     string
	keys   []string
	values map[string]interface{}
}

// NewRow creates an empty row. Non-string ids are stringified.
func NewRow(id interface{}) *Row {
	return &Row{
		id:     stringify(id),
		values: make(map[string]interface{}),
	}
}

// ID returns the row identifier
func (r *Row) ID() string {
	return r.id
}

// Set stores a cell value. Setting an existing column keeps its position.
func (r *Row) Set(columnID string, value interface{}) {
	if _, exists := r.values[columnID]; !exists {
		r.keys = append(r.keys, columnID)
	}
	r.values[columnID] = value
}

// Value returns the value stored for a column
func (r *Row) Value(columnID string) (interface{}, bool) {
	v, ok := r.values[columnID]
	return v, ok
}

// Columns returns the column ids present on the row, in insertion order
func (r *Row) Columns() []string {
	keys := make([]string, len(r.keys))
	copy(keys, r.keys)
	return keys
}

// Len returns the number of cells on the row
func (r *Row) Len() int {
	return len(r.keys)
}

// Data returns a copy of the column id to value mapping
func (r *Row) Data() map[string]interface{} {
	data := make(map[string]interface{}, len(r.values))
	for k, v := range r.values {
		data[k] = v
	}
	return data
}

// Item returns the row as a store item: its data plus the key attribute
func (r *Row) Item() map[string]interface{} {
	item := r.Data()
	item[KeyAttribute] = r.id
	return item
}

func (r *Row) clone() *Row {
	c := &Row{
		id:     r.id,
		keys:   r.Columns(),
		values: r.Data(),
	}
	return c
}

// Table is the data extracted from one sheet. Columns are expected to be
// added before rows.
type Table struct {
	id       string
	columns  []Column
	index    map[string]int // column id -> position in columns
	rows     []*Row
	warnings []error
	logger   *slog.Logger
}

// NewTable creates an empty table. Non-string ids are stringified.
func NewTable(id interface{}, logger *slog.Logger) *Table {
	t := &Table{
		id:     stringify(id),
		index:  make(map[string]int),
		logger: logging.Named(logger, "sheetsync.table"),
	}
	t.logger.Info("Initializing table", "table", t.id)
	return t
}

// ID returns the table identifier
func (t *Table) ID() string {
	return t.id
}

// AddColumn adds a column id to title mapping. Duplicate ids, duplicate
// titles and the reserved title "id" are logged and recorded as warnings;
// they never fail.
func (t *Table) AddColumn(id interface{}, title string) {
	columnID := stringify(id)
	t.logger.Debug("Adding column", "id", columnID, "title", title)

	if _, exists := t.index[columnID]; exists {
		t.warn(fmt.Errorf("%w: %s", ErrDuplicateColumnID, columnID))
	}
	for _, c := range t.columns {
		if c.Title == title {
			t.warn(fmt.Errorf("%w: %q; this table will not serialize to JSON well", ErrDuplicateColumnTitle, title))
			break
		}
	}
	if title == KeyAttribute {
		t.warn(fmt.Errorf("%w: column %s is titled %q; this table will not serialize to JSON well", ErrReservedColumnTitle, columnID, title))
	}

	if i, exists := t.index[columnID]; exists {
		t.columns[i].Title = title
		return
	}
	t.index[columnID] = len(t.columns)
	t.columns = append(t.columns, Column{ID: columnID, Title: title})
}

func (t *Table) warn(err error) {
	t.logger.Warn(err.Error(), "table", t.id)
	t.warnings = append(t.warnings, err)
}

// Columns returns the columns in spreadsheet order
func (t *Table) Columns() []Column {
	columns := make([]Column, len(t.columns))
	copy(columns, t.columns)
	return columns
}

// ColumnTitle returns the title of a column
func (t *Table) ColumnTitle(id string) (string, bool) {
	i, ok := t.index[id]
	if !ok {
		return "", false
	}
	return t.columns[i].Title, true
}

// NumColumns returns the number of columns
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// Warnings returns the column warnings raised while building the table
func (t *Table) Warnings() []error {
	warnings := make([]error, len(t.warnings))
	copy(warnings, t.warnings)
	return warnings
}

// AddRow validates and appends a row. The table keeps its own copy, so later
// changes to row are not seen by the table.
func (t *Table) AddRow(row *Row) error {
	if row == nil {
		return fmt.Errorf("%w: nil row", ErrInvalidArgument)
	}
	if row.id == "" {
		return fmt.Errorf("%w: row id must not be empty", ErrInvalidArgument)
	}

	t.logger.Debug("Adding row", "id", row.id, "cells", row.Len())
	t.rows = append(t.rows, row.clone())
	return nil
}

// Rows returns copies of the rows in spreadsheet order
func (t *Table) Rows() []*Row {
	rows := make([]*Row, len(t.rows))
	for i, r := range t.rows {
		rows[i] = r.clone()
	}
	return rows
}

// NumRows returns the number of rows
func (t *Table) NumRows() int {
	return len(t.rows)
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}
