package smartsheet

import "net/http"

// DefaultBaseURL is the Smartsheet REST API 2.0 endpoint
const DefaultBaseURL = "https://api.smartsheet.com/2.0"

// Config represents configuration specific to the Smartsheet source
type Config struct {
	AccessToken string       // API access token
	BaseURL     string       // default: DefaultBaseURL
	HTTPClient  *http.Client // Base transport (default: http.DefaultClient)
}
