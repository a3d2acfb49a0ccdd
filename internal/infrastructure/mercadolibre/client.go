package mercadolibre

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sellerproof/backend/internal/domain/mirror"
	"github.com/sellerproof/backend/internal/domain/shared"
)

// maxResponseSize is the maximum allowed response size from the platform API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Client implements mirror.ListingPlatform against the MercadoLibre open API
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new MercadoLibre API client
func NewClient(config *Config, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger.Named("mercadolibre"),
	}, nil
}

var _ mirror.ListingPlatform = (*Client)(nil)

// DiscoverItemIDs collects the IDs of every item the seller has on the
// platform. The search endpoint is queried once per status partition plus
// one unfiltered pass, all in parallel, and the results are deduplicated.
// A failed partition contributes whatever it collected before failing;
// discovery itself never fails.
func (c *Client) DiscoverItemIDs(ctx context.Context, remoteUserID int64, accessToken string) ([]string, error) {
	statuses := mirror.DiscoveryStatuses()
	partitions := make([]string, 0, len(statuses)+1)
	partitions = append(partitions, "") // unfiltered pass
	for _, s := range statuses {
		partitions = append(partitions, s.String())
	}

	groups := shared.MapConcurrent(partitions, len(partitions), func(status string, _ int) []string {
		return c.collectIDsForStatus(ctx, remoteUserID, accessToken, status)
	})

	seen := make(map[string]struct{})
	var itemIDs []string
	for _, group := range groups {
		for _, id := range group {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			itemIDs = append(itemIDs, id)
		}
	}

	c.logger.Debug("item id discovery finished",
		zap.Int64("remote_user_id", remoteUserID),
		zap.Int("unique_ids", len(itemIDs)),
	)
	return itemIDs, nil
}

// collectIDsForStatus pages through one status partition. Scan (scroll)
// pagination is tried first since it has no result window; sellers on API
// tiers without scan support get offset pagination instead. Partial results
// are kept on failure.
func (c *Client) collectIDsForStatus(ctx context.Context, remoteUserID int64, accessToken, status string) []string {
	ids, err := c.scanItemIDs(ctx, remoteUserID, accessToken, status)
	if err == nil {
		return ids
	}
	c.logger.Debug("scan pagination unavailable, falling back to offset",
		zap.String("status", status),
		zap.Error(err),
	)

	more, err := c.offsetItemIDs(ctx, remoteUserID, accessToken, status)
	if err != nil {
		c.logger.Warn("offset pagination aborted, keeping partial ids",
			zap.String("status", status),
			zap.Int("collected", len(ids)+len(more)),
			zap.Error(err),
		)
	}
	return append(ids, more...)
}

func (c *Client) scanItemIDs(ctx context.Context, remoteUserID int64, accessToken, status string) ([]string, error) {
	var ids []string
	scrollID := ""

	for page := 0; page < c.config.MaxScanPages; page++ {
		params := url.Values{}
		params.Set("search_type", "scan")
		params.Set("limit", strconv.Itoa(c.config.PageSize))
		if status != "" {
			params.Set("status", status)
		}
		if scrollID != "" {
			params.Set("scroll_id", scrollID)
		}

		endpoint := fmt.Sprintf("%s/users/%d/items/search?%s", c.config.APIBaseURL, remoteUserID, params.Encode())

		var body searchResponse
		if err := c.getJSON(ctx, endpoint, accessToken, &body); err != nil {
			return ids, fmt.Errorf("%w: %v", mirror.ErrScanNotSupported, err)
		}

		ids = append(ids, body.Results...)
		scrollID = body.ScrollID
		if scrollID == "" || len(body.Results) == 0 {
			break
		}
	}
	return ids, nil
}

func (c *Client) offsetItemIDs(ctx context.Context, remoteUserID int64, accessToken, status string) ([]string, error) {
	var ids []string

	for page := 0; page < c.config.MaxOffsetPages; page++ {
		params := url.Values{}
		params.Set("limit", strconv.Itoa(c.config.PageSize))
		params.Set("offset", strconv.Itoa(page*c.config.PageSize))
		if status != "" {
			params.Set("status", status)
		}

		endpoint := fmt.Sprintf("%s/users/%d/items/search?%s", c.config.APIBaseURL, remoteUserID, params.Encode())

		var body searchResponse
		if err := c.getJSON(ctx, endpoint, accessToken, &body); err != nil {
			return ids, err
		}

		ids = append(ids, body.Results...)
		if len(body.Results) < c.config.PageSize {
			break
		}
	}
	return ids, nil
}

// FetchListings resolves item IDs to full listings via the bulk items
// endpoint. IDs are chunked to the endpoint's per-call limit and fetched
// with bounded concurrency. Entries the platform could not resolve are
// dropped; a failed batch drops all of its entries.
func (c *Client) FetchListings(ctx context.Context, accessToken string, itemIDs []string) ([]mirror.Listing, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}

	batchSize := c.config.DetailBatchSize
	batches := make([][]string, 0, (len(itemIDs)+batchSize-1)/batchSize)
	for i := 0; i < len(itemIDs); i += batchSize {
		end := i + batchSize
		if end > len(itemIDs) {
			end = len(itemIDs)
		}
		batches = append(batches, itemIDs[i:end])
	}

	groups := shared.MapConcurrent(batches, c.config.DetailConcurrency, func(batch []string, _ int) []mirror.Listing {
		listings, err := c.fetchBatch(ctx, accessToken, batch)
		if err != nil {
			c.logger.Warn("detail batch fetch failed",
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			return nil
		}
		return listings
	})

	var listings []mirror.Listing
	for _, group := range groups {
		listings = append(listings, group...)
	}
	return listings, nil
}

func (c *Client) fetchBatch(ctx context.Context, accessToken string, batch []string) ([]mirror.Listing, error) {
	endpoint := fmt.Sprintf("%s/items?ids=%s", c.config.APIBaseURL, strings.Join(batch, ","))

	var results []multigetItem
	if err := c.getJSON(ctx, endpoint, accessToken, &results); err != nil {
		return nil, err
	}

	listings := make([]mirror.Listing, 0, len(results))
	for _, item := range results {
		if item.Code != http.StatusOK || item.Body == nil {
			continue
		}
		listings = append(listings, item.Body.toListing())
	}
	return listings, nil
}

// getJSON performs an authenticated GET and decodes the JSON response
func (c *Client) getJSON(ctx context.Context, endpoint, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("mercadolibre: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", mirror.ErrPlatformRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("mercadolibre: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: HTTP %d", mirror.ErrPlatformRequestFailed, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", mirror.ErrPlatformInvalidResponse, err)
	}
	return nil
}
