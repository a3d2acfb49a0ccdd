package mercadolibre

import (
	"errors"
	"time"
)

const (
	// ProductionAPIURL is the production REST API endpoint
	ProductionAPIURL = "https://api.mercadolibre.com"
	// ProductionAuthURL is the OAuth token endpoint
	ProductionAuthURL = "https://api.mercadolibre.com/oauth/token"

	// multigetMaxIDs is the hard limit the bulk items endpoint accepts per call
	multigetMaxIDs = 20
)

// Errors for MercadoLibre configuration
var (
	ErrConfigMissingBaseURL   = errors.New("mercadolibre: api base url is required")
	ErrConfigMissingAuthURL   = errors.New("mercadolibre: auth url is required")
	ErrConfigInvalidPageSize  = errors.New("mercadolibre: page size must be between 1 and 50")
	ErrConfigInvalidBatchSize = errors.New("mercadolibre: detail batch size must be between 1 and 20")
)

// Config holds configuration for the MercadoLibre open platform client
type Config struct {
	// APIBaseURL is the base URL for the REST API
	APIBaseURL string
	// AuthURL is the OAuth token endpoint used for refresh grants
	AuthURL string
	// ClientID is the application ID from the developer console
	ClientID string
	// ClientSecret is the application secret
	ClientSecret string
	// Timeout is the HTTP request timeout
	Timeout time.Duration
	// PageSize is the page size used during item ID discovery
	PageSize int
	// MaxScanPages bounds scroll pagination per status partition
	MaxScanPages int
	// MaxOffsetPages bounds offset pagination per status partition
	MaxOffsetPages int
	// DetailBatchSize is the number of item IDs per bulk detail call
	DetailBatchSize int
	// DetailConcurrency is the number of bulk detail calls in flight
	DetailConcurrency int
}

// NewConfig creates a new configuration with production defaults
func NewConfig(clientID, clientSecret string) *Config {
	return &Config{
		APIBaseURL:        ProductionAPIURL,
		AuthURL:           ProductionAuthURL,
		ClientID:          clientID,
		ClientSecret:      clientSecret,
		Timeout:           30 * time.Second,
		PageSize:          50,
		MaxScanPages:      1000,
		MaxOffsetPages:    400,
		DetailBatchSize:   20,
		DetailConcurrency: 4,
	}
}

// Validate validates the configuration, filling safe defaults for
// unset tuning knobs.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.AuthURL == "" {
		return ErrConfigMissingAuthURL
	}
	if c.PageSize <= 0 || c.PageSize > 50 {
		return ErrConfigInvalidPageSize
	}
	if c.DetailBatchSize <= 0 || c.DetailBatchSize > multigetMaxIDs {
		return ErrConfigInvalidBatchSize
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxScanPages <= 0 {
		c.MaxScanPages = 1000
	}
	if c.MaxOffsetPages <= 0 {
		c.MaxOffsetPages = 400
	}
	if c.DetailConcurrency <= 0 {
		c.DetailConcurrency = 4
	}
	return nil
}
