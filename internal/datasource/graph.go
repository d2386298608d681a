package datasource

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Doshir1/compound-fixed-rate-swap/internal/infra"
	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

// DefaultGatewayURL is The Graph's hosted gateway endpoint base.
const DefaultGatewayURL = "https://gateway.thegraph.com/api"

// Graph fetches daily market accounting rows from the Compound v3 subgraph
// through The Graph gateway.
type Graph struct {
	gatewayURL string
	apiKey     string
	cache      *infra.Cache
	limiter    *infra.RateLimiter
	cacheTTL   time.Duration
}

// NewGraph creates a gateway client. The API key is required for live
// queries; an empty key makes RateHistory fail with ErrMissingAPIKey.
func NewGraph(gatewayURL, apiKey string, cacheTTL time.Duration) *Graph {
	if gatewayURL == "" {
		gatewayURL = DefaultGatewayURL
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Graph{
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		apiKey:     apiKey,
		cache:      infra.NewCache(cacheTTL),
		limiter:    infra.NewRateLimiter(2, time.Second),
		cacheTTL:   cacheTTL,
	}
}

// Name returns the data source name.
func (g *Graph) Name() string { return "The Graph" }

// rateHistoryQuery pulls the newest accounting row per day. The subgraph
// keys dailyMarketAccountings by market id (the lowercase Comet address).
const rateHistoryQuery = `query RateHistory($market: String!, $first: Int!) {
  dailyMarketAccountings(
    first: $first
    orderBy: timestamp
    orderDirection: desc
    where: { market: $market }
  ) {
    timestamp
    accounting {
      borrowApr
      supplyApr
    }
  }
}`

// RateHistory returns up to days-many daily rate points, newest first.
// Rows with unparsable numbers are skipped.
func (g *Graph) RateHistory(ctx context.Context, market models.Market, days int) ([]models.RatePoint, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("graph gateway: %w", ErrMissingAPIKey)
	}
	if days <= 0 {
		days = 365
	}

	cacheKey := infra.CacheKey("rates", market.Name, strconv.Itoa(days))
	if cached, ok := g.cache.Get(cacheKey); ok {
		return cached.([]models.RatePoint), nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload := graphQLRequest{
		Query: rateHistoryQuery,
		Variables: map[string]any{
			"market": strings.ToLower(market.Comet),
			"first":  days,
		},
	}

	var resp rateHistoryResponse
	if err := doPostJSON(ctx, g.endpoint(market), payload, &resp); err != nil {
		return nil, fmt.Errorf("graph gateway: %w", err)
	}
	if len(resp.Errors) > 0 {
		return nil, fmt.Errorf("graph gateway: %s", resp.Errors[0].Message)
	}
	if len(resp.Data.DailyMarketAccountings) == 0 {
		return nil, fmt.Errorf("market %s (%s): %w", market.Name, market.Comet, ErrMarketNotFound)
	}

	points := make([]models.RatePoint, 0, len(resp.Data.DailyMarketAccountings))
	for _, row := range resp.Data.DailyMarketAccountings {
		ts, err := strconv.ParseInt(row.Timestamp, 10, 64)
		if err != nil {
			continue
		}
		borrow, err := strconv.ParseFloat(row.Accounting.BorrowApr, 64)
		if err != nil {
			continue
		}
		supply, err := strconv.ParseFloat(row.Accounting.SupplyApr, 64)
		if err != nil {
			continue
		}
		points = append(points, models.RatePoint{
			Timestamp:  ts,
			BorrowRate: borrow,
			SupplyRate: supply,
		})
	}

	g.cache.SetWithTTL(cacheKey, points, g.cacheTTL)
	return points, nil
}

// endpoint builds the per-subgraph gateway URL.
func (g *Graph) endpoint(market models.Market) string {
	return g.gatewayURL + "/" + g.apiKey + "/subgraphs/id/" + market.SubgraphID
}

// --- Wire types ---

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type rateHistoryResponse struct {
	Data struct {
		DailyMarketAccountings []struct {
			Timestamp  string `json:"timestamp"`
			Accounting struct {
				BorrowApr string `json:"borrowApr"`
				SupplyApr string `json:"supplyApr"`
			} `json:"accounting"`
		} `json:"dailyMarketAccountings"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}
