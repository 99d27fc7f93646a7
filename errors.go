package sheetsync

import "errors"

var (
	// ErrAuthentication is returned when a credential is rejected or the identity check fails
	ErrAuthentication = errors.New("authentication failed")

	// ErrNotFound is returned when a sheet or table is missing where it is required
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument is returned for malformed configuration or arguments
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstream is returned for failures reported by the spreadsheet or store APIs
	ErrUpstream = errors.New("upstream error")
)

// Column warnings. These never fail a sync; they are recorded on the Table.
var (
	ErrDuplicateColumnID    = errors.New("duplicate column id")
	ErrDuplicateColumnTitle = errors.New("duplicate column title")
	ErrReservedColumnTitle  = errors.New("reserved column title")
)
