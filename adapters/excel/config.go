package excel

// Config holds configuration for Excel source
type Config struct {
	FilePath string // Path to the Excel file

	// PrimaryColumn is the header title of the primary column.
	// Empty means the first column.
	PrimaryColumn string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.FilePath == "" {
		return ErrMissingFilePath
	}
	return nil
}
