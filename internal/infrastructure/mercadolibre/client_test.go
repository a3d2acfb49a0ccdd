package mercadolibre

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellerproof/backend/internal/domain/mirror"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr error
	}{
		{
			name:    "valid config",
			config:  NewConfig("client-id", "client-secret"),
			wantErr: nil,
		},
		{
			name:    "missing base url",
			config:  &Config{AuthURL: ProductionAuthURL, PageSize: 50, DetailBatchSize: 20},
			wantErr: ErrConfigMissingBaseURL,
		},
		{
			name:    "missing auth url",
			config:  &Config{APIBaseURL: ProductionAPIURL, PageSize: 50, DetailBatchSize: 20},
			wantErr: ErrConfigMissingAuthURL,
		},
		{
			name:    "page size over platform limit",
			config:  &Config{APIBaseURL: ProductionAPIURL, AuthURL: ProductionAuthURL, PageSize: 51, DetailBatchSize: 20},
			wantErr: ErrConfigInvalidPageSize,
		},
		{
			name:    "detail batch size over bulk limit",
			config:  &Config{APIBaseURL: ProductionAPIURL, AuthURL: ProductionAuthURL, PageSize: 50, DetailBatchSize: 21},
			wantErr: ErrConfigInvalidBatchSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.True(t, tt.config.Timeout > 0)
				assert.True(t, tt.config.MaxScanPages > 0)
			}
		})
	}
}

func newTestClient(t *testing.T, handler http.Handler, mutate func(*Config)) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := NewConfig("client-id", "client-secret")
	cfg.APIBaseURL = server.URL
	cfg.AuthURL = server.URL + "/oauth/token"
	if mutate != nil {
		mutate(cfg)
	}

	client, err := NewClient(cfg, nil)
	require.NoError(t, err)
	return client, server
}

func TestClient_DiscoverItemIDs_Scan(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "scan", r.URL.Query().Get("search_type"))

		if r.URL.Query().Get("scroll_id") != "" {
			// Drained: scan ends when a page comes back empty
			json.NewEncoder(w).Encode(searchResponse{Results: []string{}})
			return
		}
		json.NewEncoder(w).Encode(searchResponse{
			Results:  []string{"MLB100", "MLB101"},
			ScrollID: "scroll-1",
		})
	}), nil)

	ids, err := client.DiscoverItemIDs(context.Background(), 123456, "token-1")

	require.NoError(t, err)
	// Every status partition returns the same two ids; the union dedups them.
	assert.ElementsMatch(t, []string{"MLB100", "MLB101"}, ids)
}

func TestClient_DiscoverItemIDs_OffsetFallback(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search_type") == "scan" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		switch r.URL.Query().Get("offset") {
		case "0":
			json.NewEncoder(w).Encode(searchResponse{Results: []string{"MLB1", "MLB2"}})
		default:
			// Short page ends offset pagination
			json.NewEncoder(w).Encode(searchResponse{Results: []string{"MLB3"}})
		}
	}), func(cfg *Config) {
		cfg.PageSize = 2
	})

	ids, err := client.DiscoverItemIDs(context.Background(), 123456, "token-1")

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"MLB1", "MLB2", "MLB3"}, ids)
}

func TestClient_DiscoverItemIDs_PartitionFailureKeepsOthers(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The blocked partition fails on both strategies; everything else
		// returns one id via scan.
		if r.URL.Query().Get("status") == "blocked" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(searchResponse{Results: []string{"MLB9"}})
	}), nil)

	ids, err := client.DiscoverItemIDs(context.Background(), 123456, "token-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"MLB9"}, ids)
}

func TestClient_FetchListings(t *testing.T) {
	sku := "SKU-7"
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/items", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{
				"code": 200,
				"body": map[string]any{
					"id":                  "MLB100",
					"title":               "Wireless Mouse",
					"price":               99.9,
					"available_quantity":  5,
					"sold_quantity":       12,
					"status":              "active",
					"permalink":           "https://example.com/MLB100",
					"listing_type_id":     "gold_special",
					"condition":           "new",
					"seller_custom_field": sku,
				},
			},
			{
				"code": 404,
				"body": nil,
			},
		})
	}), nil)

	listings, err := client.FetchListings(context.Background(), "token-1", []string{"MLB100", "MLB404"})

	require.NoError(t, err)
	require.Len(t, listings, 1)
	l := listings[0]
	assert.Equal(t, "MLB100", l.ItemCode)
	assert.Equal(t, "Wireless Mouse", l.Title)
	assert.Equal(t, mirror.ListingStatusActive, l.Status)
	assert.Equal(t, "gold_special", l.ListingType)
	require.NotNil(t, l.SKU)
	assert.Equal(t, sku, *l.SKU)
	assert.True(t, l.Price.Equal(decimal.NewFromFloat(99.9)))
	assert.Equal(t, 5, l.AvailableQuantity)
}

func TestClient_FetchListings_FailedBatchIsDropped(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query().Get("ids")
		if ids == "MLB1,MLB2" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"code": 200, "body": map[string]any{"id": "MLB3", "title": "Keyboard", "status": "paused"}},
		})
	}), func(cfg *Config) {
		cfg.DetailBatchSize = 2
	})

	listings, err := client.FetchListings(context.Background(), "token-1", []string{"MLB1", "MLB2", "MLB3"})

	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "MLB3", listings[0].ItemCode)
	assert.Equal(t, mirror.ListingStatusPaused, listings[0].Status)
}

func TestClient_FetchListings_EmptyInput(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for empty input")
	}), nil)

	listings, err := client.FetchListings(context.Background(), "token-1", nil)

	assert.NoError(t, err)
	assert.Empty(t, listings)
}
