package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Doshir1/compound-fixed-rate-swap/internal/infra"
	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

// DefaultPriceURL is the CoinGecko public API base.
const DefaultPriceURL = "https://api.coingecko.com/api/v3"

// CoinGecko fetches spot USD prices from the CoinGecko simple price API.
type CoinGecko struct {
	baseURL  string
	cache    *infra.Cache
	limiter  *infra.RateLimiter
	cacheTTL time.Duration
}

// NewCoinGecko creates a CoinGecko price source. The free tier allows
// roughly 10 calls per minute, so the limiter is conservative.
func NewCoinGecko(baseURL string, cacheTTL time.Duration) *CoinGecko {
	if baseURL == "" {
		baseURL = DefaultPriceURL
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &CoinGecko{
		baseURL:  baseURL,
		cache:    infra.NewCache(cacheTTL),
		limiter:  infra.NewRateLimiter(10, time.Minute),
		cacheTTL: cacheTTL,
	}
}

// Name returns the data source name.
func (c *CoinGecko) Name() string { return "CoinGecko" }

// SpotPrice returns the USD price for the given CoinGecko asset id.
func (c *CoinGecko) SpotPrice(ctx context.Context, priceID string) (*models.SpotPrice, error) {
	if priceID == "" {
		return nil, fmt.Errorf("coingecko: empty price id: %w", ErrPriceUnavailable)
	}

	cacheKey := infra.CacheKey("price", priceID)
	if cached, ok := c.cache.Get(cacheKey); ok {
		p := cached.(models.SpotPrice)
		return &p, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, url.QueryEscape(priceID))
	body, _, err := doGet(ctx, u, nil)
	if err != nil {
		var httpErr *ErrHTTP
		if errors.As(err, &httpErr) && httpErr.StatusCode == 429 {
			return nil, fmt.Errorf("coingecko: %w", ErrRateLimited)
		}
		return nil, fmt.Errorf("coingecko: %w", err)
	}
	defer body.Close()

	// Response shape: {"ethereum": {"usd": 3145.12}}
	var decoded map[string]map[string]float64
	if err := json.NewDecoder(body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("coingecko: decode: %w", err)
	}

	quote, ok := decoded[priceID]
	if !ok {
		return nil, fmt.Errorf("coingecko: no quote for %q: %w", priceID, ErrPriceUnavailable)
	}
	usd, ok := quote["usd"]
	if !ok || usd <= 0 {
		return nil, fmt.Errorf("coingecko: non-positive usd quote for %q: %w", priceID, ErrPriceUnavailable)
	}

	price := models.SpotPrice{
		PriceUSD:  usd,
		Source:    c.Name(),
		FetchedAt: time.Now().UTC(),
	}
	c.cache.SetWithTTL(cacheKey, price, c.cacheTTL)
	return &price, nil
}
