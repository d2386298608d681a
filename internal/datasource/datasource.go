// Package datasource fetches market data for Compound v3 Comet markets.
// It defines narrow source interfaces and implements concrete clients for
// The Graph gateway (rate history), CoinGecko (spot prices), raw JSON-RPC
// eth_call (collateral factors), and the governance forum RSS feed.
package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

// RateHistorySource returns historical daily borrow/supply rates for a market.
type RateHistorySource interface {
	// Name returns the human-readable name of this source.
	Name() string

	// RateHistory returns up to days-many daily rate points, newest first,
	// as reported by the source. Values are raw: the caller normalizes.
	RateHistory(ctx context.Context, market models.Market, days int) ([]models.RatePoint, error)
}

// SpotPriceSource returns a current USD price for a collateral asset.
type SpotPriceSource interface {
	Name() string

	// SpotPrice returns the USD price for the given price identifier.
	SpotPrice(ctx context.Context, priceID string) (*models.SpotPrice, error)
}

// CollateralFactorSource returns the collateral risk parameters for a market.
type CollateralFactorSource interface {
	Name() string

	// AssetInfo returns the borrow/liquidate collateral factors and the
	// liquidation factor for the market's collateral asset.
	AssetInfo(ctx context.Context, market models.Market) (*models.AssetInfo, error)
}

// GovernanceFeedSource returns recent governance forum posts.
type GovernanceFeedSource interface {
	Name() string

	// LatestPosts returns up to limit recent forum posts, newest first.
	LatestPosts(ctx context.Context, limit int) ([]models.GovernancePost, error)
}

// --- Sentinel errors ---

// ErrMarketNotFound is returned when a market yields no rows from the subgraph.
var ErrMarketNotFound = fmt.Errorf("market not found in subgraph")

// ErrRateLimited is returned when a source rate-limits the request.
var ErrRateLimited = fmt.Errorf("rate limited by data source")

// ErrMissingAPIKey is returned when a source requires a credential that
// is not configured.
var ErrMissingAPIKey = fmt.Errorf("missing API key")

// ErrPriceUnavailable is returned when a price source has no usable quote.
var ErrPriceUnavailable = fmt.Errorf("price unavailable")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "swapsim/1.0 (+https://github.com/Doshir1/compound-fixed-rate-swap)"

// HTTPClient is a pre-configured HTTP client with reasonable timeouts.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// doGet performs a GET request with the given URL and headers, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
func doGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	// Set default headers.
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, */*")

	// Override/add custom headers.
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, resp.StatusCode, nil
}

// doPostJSON marshals payload, POSTs it to url, and decodes the JSON
// response into out. Non-2xx responses become *ErrHTTP.
func doPostJSON(ctx context.Context, url string, payload any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
