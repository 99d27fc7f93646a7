package smartsheet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/ideamans/go-sheetsync"
)

// APIError is an error payload returned by the Smartsheet API
type APIError struct {
	StatusCode int    `json:"-"`
	ErrorCode  int    `json:"errorCode"`
	Message    string `json:"message"`
	RefID      string `json:"refId"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("smartsheet: status %d, error code %d: %s (ref %s)", e.StatusCode, e.ErrorCode, e.Message, e.RefID)
}

// Client implements the sheetsync.Source interface for Smartsheet
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new Smartsheet client. Every request carries the access token
// as a bearer token.
func New(ctx context.Context, config Config) (*Client, error) {
	if config.AccessToken == "" {
		return nil, fmt.Errorf("%w: smartsheet access token is required", sheetsync.ErrInvalidArgument)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("%w: base url: %w", sheetsync.ErrInvalidArgument, err)
	}

	if config.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, config.HTTPClient)
	}
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: config.AccessToken})

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: oauth2.NewClient(ctx, tokenSource),
	}, nil
}

type user struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type sheet struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Columns []column `json:"columns"`
	Rows    []row    `json:"rows"`
}

type column struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Primary bool   `json:"primary"`
}

type row struct {
	ID    int64  `json:"id"`
	Cells []cell `json:"cells"`
}

type cell struct {
	ColumnID int64       `json:"columnId"`
	Value    interface{} `json:"value"`
}

// CurrentUser returns the owner of the access token
func (c *Client) CurrentUser(ctx context.Context) (*sheetsync.User, error) {
	var u user
	if err := c.get(ctx, "/users/me", &u); err != nil {
		return nil, classify(err, "get current user")
	}

	return &sheetsync.User{
		Name:  strings.TrimSpace(u.FirstName + " " + u.LastName),
		Email: u.Email,
	}, nil
}

// GetSheet retrieves a sheet with all of its columns and rows
func (c *Client) GetSheet(ctx context.Context, sheetID string) (*sheetsync.Sheet, error) {
	var s sheet
	if err := c.get(ctx, "/sheets/"+url.PathEscape(sheetID), &s); err != nil {
		return nil, classify(err, "get sheet "+sheetID)
	}

	result := &sheetsync.Sheet{
		ID:      strconv.FormatInt(s.ID, 10),
		Name:    s.Name,
		Columns: make([]sheetsync.SheetColumn, 0, len(s.Columns)),
		Rows:    make([]sheetsync.SheetRow, 0, len(s.Rows)),
	}
	for _, col := range s.Columns {
		result.Columns = append(result.Columns, sheetsync.SheetColumn{
			ID:      strconv.FormatInt(col.ID, 10),
			Title:   col.Title,
			Primary: col.Primary,
		})
	}
	for _, r := range s.Rows {
		sheetRow := sheetsync.SheetRow{
			ID:    strconv.FormatInt(r.ID, 10),
			Cells: make([]sheetsync.Cell, 0, len(r.Cells)),
		}
		for _, rc := range r.Cells {
			sheetRow.Cells = append(sheetRow.Cells, sheetsync.Cell{
				ColumnID: strconv.FormatInt(rc.ColumnID, 10),
				Value:    convertCellValue(rc.Value),
			})
		}
		result.Rows = append(result.Rows, sheetRow)
	}

	return result, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// classify maps a request failure onto the sheetsync error kinds
func classify(err error, op string) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s: %w", sheetsync.ErrAuthentication, op, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s: %w", sheetsync.ErrNotFound, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %w", sheetsync.ErrUpstream, op, err)
}

// convertCellValue converts a decoded cell value to Go type.
// Numbers become int64 when integral, float64 otherwise.
func convertCellValue(v interface{}) interface{} {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
