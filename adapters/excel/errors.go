package excel

import (
	"fmt"

	"github.com/ideamans/go-sheetsync"
)

var (
	// ErrMissingFilePath is returned when file path is not specified
	ErrMissingFilePath = fmt.Errorf("%w: file path is required", sheetsync.ErrInvalidArgument)

	// ErrSheetNotFound is returned when the workbook or worksheet doesn't exist
	ErrSheetNotFound = fmt.Errorf("%w: sheet not found", sheetsync.ErrNotFound)

	// ErrInvalidFileFormat is returned when the file is not a valid Excel file
	ErrInvalidFileFormat = fmt.Errorf("%w: invalid Excel file format", sheetsync.ErrUpstream)
)
