package sheetsync

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ideamans/go-sheetsync/logging"
)

// Defaults for Config and UpdaterConfig
const (
	DefaultSourceType       = SourceSmartsheet
	DefaultReadCapacity     = int64(1)
	DefaultWriteCapacity    = int64(1)
	DefaultLogLevel         = "WARNING"
	DefaultTableWaitTimeout = 5 * time.Minute
	DefaultMaxRetries       = 10
	DefaultRetryInterval    = 100 * time.Millisecond

	// NoRetries disables resubmission of unprocessed batch items
	NoRetries = -1
)

// Source types
const (
	SourceSmartsheet   = "smartsheet"
	SourceGoogleSheets = "googlesheets"
	SourceExcel        = "excel"
)

// Config represents the settings of a sync job, read once at startup
type Config struct {
	SourceType           string        // smartsheet, googlesheets or excel (default: smartsheet)
	SheetID              string        // Source sheet identifier
	TableName            string        // Destination table (default: SheetID)
	EncryptedCredentials string        // Base64 KMS ciphertext of the spreadsheet credential
	Credentials          string        // Plaintext credential, for local runs
	ReadCapacity         int64         // Read capacity for auto-created tables (default: 1)
	WriteCapacity        int64         // Write capacity for auto-created tables (default: 1)
	LogLevel             string        // DEBUG, INFO, WARNING, ERROR or CRITICAL (default: WARNING)
	SheetName            string        // Worksheet name (googlesheets)
	PrimaryColumn        string        // Primary column title (googlesheets, excel)
	WorkbookPath         string        // Workbook file (excel)
	TableWaitTimeout     time.Duration // Maximum wait for table creation (default: 5m)
	MaxRetries           int           // Resubmissions of unprocessed batch items (default: 10, NoRetries for none)
}

// ConfigFromEnv reads the configuration from environment variables.
// lookup is typically os.LookupEnv.
func ConfigFromEnv(lookup func(string) (string, bool)) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
		return ""
	}

	config := &Config{
		SourceType:           get("SOURCE_TYPE"),
		SheetID:              get("SHEET_ID"),
		TableName:            get("TABLE_NAME"),
		EncryptedCredentials: get("ENCRYPTED_CREDENTIALS", "ENCRYPTED_SMARTSHEET_ACCESS_TOKEN"),
		Credentials:          get("CREDENTIALS", "SMARTSHEET_ACCESS_TOKEN"),
		LogLevel:             get("LOG_LEVEL"),
		SheetName:            get("SHEET_NAME"),
		PrimaryColumn:        get("PRIMARY_COLUMN"),
		WorkbookPath:         get("WORKBOOK_PATH"),
	}

	var err error
	if config.ReadCapacity, err = parseInt(get("NEW_TABLE_DEFAULT_READ_CAPACITY_UNITS"), "NEW_TABLE_DEFAULT_READ_CAPACITY_UNITS"); err != nil {
		return nil, err
	}
	if config.WriteCapacity, err = parseInt(get("NEW_TABLE_DEFAULT_WRITE_CAPACITY_UNITS"), "NEW_TABLE_DEFAULT_WRITE_CAPACITY_UNITS"); err != nil {
		return nil, err
	}
	if v := get("BATCH_MAX_RETRIES"); v != "" {
		retries, err := strconv.Atoi(v)
		if err != nil || retries < 0 {
			return nil, fmt.Errorf("%w: BATCH_MAX_RETRIES must be a non-negative integer, got %q", ErrInvalidArgument, v)
		}
		config.MaxRetries = retries
		if retries == 0 {
			config.MaxRetries = NoRetries
		}
	}

	if v := get("TABLE_WAIT_TIMEOUT"); v != "" {
		if config.TableWaitTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("%w: TABLE_WAIT_TIMEOUT: %w", ErrInvalidArgument, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func parseInt(value, name string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", ErrInvalidArgument, name, value)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %d", ErrInvalidArgument, name, n)
	}
	return n, nil
}

// Validate fills defaults and checks the configuration
func (c *Config) Validate() error {
	if c.SourceType == "" {
		c.SourceType = DefaultSourceType
	}
	if c.TableName == "" {
		c.TableName = c.SheetID
	}
	if c.ReadCapacity == 0 {
		c.ReadCapacity = DefaultReadCapacity
	}
	if c.WriteCapacity == 0 {
		c.WriteCapacity = DefaultWriteCapacity
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.TableWaitTimeout == 0 {
		c.TableWaitTimeout = DefaultTableWaitTimeout
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}

	if c.SheetID == "" {
		return fmt.Errorf("%w: SHEET_ID is required", ErrInvalidArgument)
	}
	if c.ReadCapacity < 1 || c.WriteCapacity < 1 {
		return fmt.Errorf("%w: table capacities must be at least 1", ErrInvalidArgument)
	}
	if c.TableWaitTimeout < 0 {
		return fmt.Errorf("%w: table wait timeout must be positive", ErrInvalidArgument)
	}
	if c.MaxRetries < 0 && c.MaxRetries != NoRetries {
		return fmt.Errorf("%w: max retries must not be negative", ErrInvalidArgument)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: LOG_LEVEL: %w", ErrInvalidArgument, err)
	}

	switch c.SourceType {
	case SourceSmartsheet:
		if c.EncryptedCredentials == "" && c.Credentials == "" {
			return fmt.Errorf("%w: smartsheet requires ENCRYPTED_CREDENTIALS or CREDENTIALS", ErrInvalidArgument)
		}
	case SourceGoogleSheets:
	case SourceExcel:
		if c.WorkbookPath == "" {
			return fmt.Errorf("%w: excel requires WORKBOOK_PATH", ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("%w: unknown SOURCE_TYPE %q", ErrInvalidArgument, c.SourceType)
	}
	return nil
}

// Level returns the configured log level
func (c *Config) Level() slog.Level {
	level, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelWarn
	}
	return level
}

// UpdaterConfig returns the updater settings derived from c
func (c *Config) UpdaterConfig() UpdaterConfig {
	return UpdaterConfig{
		ReadCapacity:     c.ReadCapacity,
		WriteCapacity:    c.WriteCapacity,
		TableWaitTimeout: c.TableWaitTimeout,
		MaxRetries:       c.MaxRetries,
	}
}
