package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test helpers
// ════════════════════════════════════════════════════════════════════

func testMarket() models.Market {
	return models.Market{
		Name:             "usdc-mainnet",
		Comet:            "0xc3d688B66703497DAA19211EEdff47f25384cdc3",
		BaseSymbol:       "USDC",
		CollateralSymbol: "WETH",
		Collateral:       "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		PriceID:          "ethereum",
		SubgraphID:       "test-subgraph",
	}
}

// word64 renders v as a 32-byte ABI word.
func word64(v uint64) string {
	return fmt.Sprintf("%064x", v)
}

// assetInfoResult builds a full eth_call result for getAssetInfoByAddress
// with the three factors placed in words 4..6.
func assetInfoResult(borrowCF, liquidateCF, liquidationFactor uint64) string {
	words := []uint64{
		0,                 // offset
		0,                 // asset
		0,                 // price feed
		1e8,               // scale
		borrowCF,          // borrow collateral factor
		liquidateCF,       // liquidate collateral factor
		liquidationFactor, // liquidation factor
		0,                 // supply cap
	}
	out := "0x"
	for _, w := range words {
		out += word64(w)
	}
	return out
}

const testRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Compound Governance</title>
<item>
  <title>Treasury diversification</title>
  <link>https://www.comp.xyz/t/treasury/456</link>
  <description>Moving protocol funds between venues</description>
  <pubDate>Sun, 04 Aug 2024 10:00:00 GMT</pubDate>
</item>
<item>
  <title>Raise USDC borrow rate kink</title>
  <link>https://www.comp.xyz/t/raise-usdc-kink/123</link>
  <description><![CDATA[<p>Proposal to adjust the <b>interest rate</b> curve.</p>]]></description>
  <pubDate>Mon, 05 Aug 2024 10:00:00 GMT</pubDate>
</item>
</channel>
</rss>`

// newRSSServer serves the fixed governance feed fixture.
func newRSSServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, testRSS)
	}))
}

// ════════════════════════════════════════════════════════════════════
// Selector derivation and calldata encoding
// ════════════════════════════════════════════════════════════════════

func TestMethodSelectorKnownVectors(t *testing.T) {
	// Canonical ERC-20 selectors pin down the Keccak-256 derivation.
	tests := []struct {
		sig  string
		want string
	}{
		{"transfer(address,uint256)", "a9059cbb"},
		{"balanceOf(address)", "70a08231"},
	}
	for _, tc := range tests {
		got := methodSelector(tc.sig)
		if got != tc.want {
			t.Errorf("methodSelector(%q) = %q, want %q", tc.sig, got, tc.want)
		}
	}
}

func TestAssetInfoCalldata(t *testing.T) {
	addr := "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	data, err := assetInfoCalldata(addr)
	if err != nil {
		t.Fatalf("assetInfoCalldata error: %v", err)
	}

	// 0x + 4-byte selector + 32-byte padded address.
	if len(data) != 2+8+64 {
		t.Fatalf("calldata length = %d, want %d", len(data), 2+8+64)
	}
	wantPrefix := "0x" + methodSelector(assetInfoSig)
	if data[:len(wantPrefix)] != wantPrefix {
		t.Errorf("calldata prefix = %q, want %q", data[:len(wantPrefix)], wantPrefix)
	}
	wantSuffix := "000000000000000000000000c02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	if data[len(wantPrefix):] != wantSuffix {
		t.Errorf("calldata args = %q, want %q", data[len(wantPrefix):], wantSuffix)
	}
}

func TestAssetInfoCalldataBadAddress(t *testing.T) {
	for _, addr := range []string{"", "0x123", "0xzz2aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"} {
		if _, err := assetInfoCalldata(addr); err == nil {
			t.Errorf("expected error for address %q", addr)
		}
	}
}

// ════════════════════════════════════════════════════════════════════
// eth_call result decoding
// ════════════════════════════════════════════════════════════════════

func TestDecodeAssetInfo(t *testing.T) {
	result := assetInfoResult(825000000000000000, 895000000000000000, 950000000000000000)

	info, err := decodeAssetInfo(result)
	if err != nil {
		t.Fatalf("decodeAssetInfo error: %v", err)
	}

	tol := 1e-12
	if math.Abs(info.BorrowCollateralFactor-0.825) > tol {
		t.Errorf("borrow CF = %v, want 0.825", info.BorrowCollateralFactor)
	}
	if math.Abs(info.LiquidateCollateralFactor-0.895) > tol {
		t.Errorf("liquidate CF = %v, want 0.895", info.LiquidateCollateralFactor)
	}
	if math.Abs(info.LiquidationFactor-0.95) > tol {
		t.Errorf("liquidation factor = %v, want 0.95", info.LiquidationFactor)
	}
	if math.Abs(info.LiquidationPenalty()-0.05) > tol {
		t.Errorf("penalty = %v, want 0.05", info.LiquidationPenalty())
	}
}

func TestDecodeAssetInfoShortResult(t *testing.T) {
	if _, err := decodeAssetInfo("0x" + word64(1)); err == nil {
		t.Error("expected error for short result")
	}
}

func TestDecodeAssetInfoBadWord(t *testing.T) {
	result := assetInfoResult(1, 2, 3)
	// Corrupt word 4 with non-hex characters.
	corrupted := result[:2+4*64] + "zz" + result[2+4*64+2:]
	if _, err := decodeAssetInfo(corrupted); err == nil {
		t.Error("expected error for non-hex word")
	}
}

// ════════════════════════════════════════════════════════════════════
// Graph gateway client
// ════════════════════════════════════════════════════════════════════

func graphResponse(rows string) string {
	return `{"data":{"dailyMarketAccountings":[` + rows + `]}}`
}

func TestGraphRateHistory(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		wantPath := "/test-key/subgraphs/id/test-subgraph"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}

		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Variables["market"] != "0xc3d688b66703497daa19211eedff47f25384cdc3" {
			t.Errorf("market variable = %v, want lowercase comet address", req.Variables["market"])
		}
		if req.Variables["first"] != float64(30) {
			t.Errorf("first variable = %v, want 30", req.Variables["first"])
		}

		fmt.Fprint(w, graphResponse(`
			{"timestamp":"1700086400","accounting":{"borrowApr":"0.052","supplyApr":"0.041"}},
			{"timestamp":"1700000000","accounting":{"borrowApr":"0.050","supplyApr":"0.040"}},
			{"timestamp":"bad","accounting":{"borrowApr":"0.049","supplyApr":"0.039"}}`))
	}))
	defer ts.Close()

	g := NewGraph(ts.URL, "test-key", time.Minute)
	points, err := g.RateHistory(context.Background(), testMarket(), 30)
	if err != nil {
		t.Fatalf("RateHistory error: %v", err)
	}

	// The malformed third row is skipped.
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	if points[0].Timestamp != 1700086400 {
		t.Errorf("first timestamp = %d, want 1700086400", points[0].Timestamp)
	}
	if points[0].BorrowRate != 0.052 {
		t.Errorf("first borrow rate = %v, want 0.052", points[0].BorrowRate)
	}
	if points[1].SupplyRate != 0.040 {
		t.Errorf("second supply rate = %v, want 0.040", points[1].SupplyRate)
	}

	// Second call is served from cache.
	if _, err := g.RateHistory(context.Background(), testMarket(), 30); err != nil {
		t.Fatalf("cached RateHistory error: %v", err)
	}
	if hits != 1 {
		t.Errorf("expected 1 upstream hit, got %d", hits)
	}
}

func TestGraphRateHistoryMissingKey(t *testing.T) {
	g := NewGraph("http://localhost:0", "", time.Minute)
	_, err := g.RateHistory(context.Background(), testMarket(), 30)
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestGraphRateHistoryEmptyMarket(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, graphResponse(""))
	}))
	defer ts.Close()

	g := NewGraph(ts.URL, "test-key", time.Minute)
	_, err := g.RateHistory(context.Background(), testMarket(), 30)
	if !errors.Is(err, ErrMarketNotFound) {
		t.Errorf("expected ErrMarketNotFound, got %v", err)
	}
}

func TestGraphRateHistoryGraphQLError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"message":"subgraph not found"}]}`)
	}))
	defer ts.Close()

	g := NewGraph(ts.URL, "test-key", time.Minute)
	_, err := g.RateHistory(context.Background(), testMarket(), 30)
	if err == nil {
		t.Fatal("expected error for GraphQL errors payload")
	}
}

func TestGraphRateHistoryHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer ts.Close()

	g := NewGraph(ts.URL, "test-key", time.Minute)
	_, err := g.RateHistory(context.Background(), testMarket(), 30)
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *ErrHTTP, got %v", err)
	}
	if httpErr.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", httpErr.StatusCode)
	}
}

// ════════════════════════════════════════════════════════════════════
// CoinGecko client
// ════════════════════════════════════════════════════════════════════

func TestCoinGeckoSpotPrice(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/simple/price" {
			t.Errorf("path = %q, want /simple/price", r.URL.Path)
		}
		if got := r.URL.Query().Get("ids"); got != "ethereum" {
			t.Errorf("ids = %q, want ethereum", got)
		}
		if got := r.URL.Query().Get("vs_currencies"); got != "usd" {
			t.Errorf("vs_currencies = %q, want usd", got)
		}
		fmt.Fprint(w, `{"ethereum":{"usd":3145.12}}`)
	}))
	defer ts.Close()

	cg := NewCoinGecko(ts.URL, time.Minute)
	price, err := cg.SpotPrice(context.Background(), "ethereum")
	if err != nil {
		t.Fatalf("SpotPrice error: %v", err)
	}
	if price.PriceUSD != 3145.12 {
		t.Errorf("price = %v, want 3145.12", price.PriceUSD)
	}
	if price.Source != "CoinGecko" {
		t.Errorf("source = %q, want CoinGecko", price.Source)
	}

	// Second call is served from cache.
	if _, err := cg.SpotPrice(context.Background(), "ethereum"); err != nil {
		t.Fatalf("cached SpotPrice error: %v", err)
	}
	if hits != 1 {
		t.Errorf("expected 1 upstream hit, got %d", hits)
	}
}

func TestCoinGeckoUnknownID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer ts.Close()

	cg := NewCoinGecko(ts.URL, time.Minute)
	_, err := cg.SpotPrice(context.Background(), "not-a-coin")
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("expected ErrPriceUnavailable, got %v", err)
	}
}

func TestCoinGeckoZeroPrice(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ethereum":{"usd":0}}`)
	}))
	defer ts.Close()

	cg := NewCoinGecko(ts.URL, time.Minute)
	_, err := cg.SpotPrice(context.Background(), "ethereum")
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("expected ErrPriceUnavailable for zero price, got %v", err)
	}
}

func TestCoinGeckoRateLimited(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	cg := NewCoinGecko(ts.URL, time.Minute)
	_, err := cg.SpotPrice(context.Background(), "ethereum")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestCoinGeckoEmptyID(t *testing.T) {
	cg := NewCoinGecko("http://localhost:0", time.Minute)
	if _, err := cg.SpotPrice(context.Background(), ""); !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("expected ErrPriceUnavailable for empty id, got %v", err)
	}
}

// ════════════════════════════════════════════════════════════════════
// Comet RPC client
// ════════════════════════════════════════════════════════════════════

func TestCometRPCAssetInfo(t *testing.T) {
	var hits int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Method != "eth_call" {
			t.Errorf("method = %q, want eth_call", req.Method)
		}
		call, ok := req.Params[0].(map[string]any)
		if !ok {
			t.Fatalf("params[0] is %T, want object", req.Params[0])
		}
		if call["to"] != testMarket().Comet {
			t.Errorf("to = %v, want comet address", call["to"])
		}
		data, _ := call["data"].(string)
		wantPrefix := "0x" + methodSelector(assetInfoSig)
		if len(data) < len(wantPrefix) || data[:len(wantPrefix)] != wantPrefix {
			t.Errorf("calldata %q does not start with selector %q", data, wantPrefix)
		}

		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":"%s"}`,
			assetInfoResult(825000000000000000, 895000000000000000, 950000000000000000))
	}))
	defer ts.Close()

	c := NewCometRPC(ts.URL)
	info, err := c.AssetInfo(context.Background(), testMarket())
	if err != nil {
		t.Fatalf("AssetInfo error: %v", err)
	}
	if math.Abs(info.LiquidateCollateralFactor-0.895) > 1e-12 {
		t.Errorf("liquidate CF = %v, want 0.895", info.LiquidateCollateralFactor)
	}
	if info.Asset != testMarket().Collateral {
		t.Errorf("asset = %q, want collateral address", info.Asset)
	}
	if info.Source != "Comet RPC" {
		t.Errorf("source = %q, want Comet RPC", info.Source)
	}

	// Second call is served from cache.
	if _, err := c.AssetInfo(context.Background(), testMarket()); err != nil {
		t.Fatalf("cached AssetInfo error: %v", err)
	}
	if hits != 1 {
		t.Errorf("expected 1 upstream hit, got %d", hits)
	}
}

func TestCometRPCCallError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"execution reverted"}}`)
	}))
	defer ts.Close()

	c := NewCometRPC(ts.URL)
	_, err := c.AssetInfo(context.Background(), testMarket())
	if err == nil {
		t.Fatal("expected error for eth_call revert")
	}
}

func TestCometRPCFactorsOutOfRange(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Borrow CF of 2.0 is outside [0, 1].
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":1,"result":"%s"}`,
			assetInfoResult(2000000000000000000, 895000000000000000, 950000000000000000))
	}))
	defer ts.Close()

	c := NewCometRPC(ts.URL)
	if _, err := c.AssetInfo(context.Background(), testMarket()); err == nil {
		t.Fatal("expected error for out-of-range factors")
	}
}

func TestCometRPCNoEndpoint(t *testing.T) {
	c := NewCometRPC("")
	if _, err := c.AssetInfo(context.Background(), testMarket()); err == nil {
		t.Fatal("expected error when no RPC endpoint is configured")
	}
}

// ════════════════════════════════════════════════════════════════════
// Static (manual override) sources
// ════════════════════════════════════════════════════════════════════

func TestStaticPrice(t *testing.T) {
	s := NewStaticPrice(2500)
	p, err := s.SpotPrice(context.Background(), "ethereum")
	if err != nil {
		t.Fatalf("SpotPrice error: %v", err)
	}
	if p.PriceUSD != 2500 {
		t.Errorf("price = %v, want 2500", p.PriceUSD)
	}
	if p.Source != "manual" {
		t.Errorf("source = %q, want manual", p.Source)
	}
}

func TestStaticPriceInvalid(t *testing.T) {
	s := NewStaticPrice(0)
	if _, err := s.SpotPrice(context.Background(), "ethereum"); !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("expected ErrPriceUnavailable, got %v", err)
	}
}

func TestStaticAssetInfo(t *testing.T) {
	s := NewStaticAssetInfo(0.825, 0.895, 0.95)
	info, err := s.AssetInfo(context.Background(), testMarket())
	if err != nil {
		t.Fatalf("AssetInfo error: %v", err)
	}
	if info.BorrowCollateralFactor != 0.825 {
		t.Errorf("borrow CF = %v, want 0.825", info.BorrowCollateralFactor)
	}
	if info.Asset != testMarket().Collateral {
		t.Errorf("asset = %q, want collateral address", info.Asset)
	}
}

func TestStaticAssetInfoInvalid(t *testing.T) {
	s := NewStaticAssetInfo(1.5, 0.895, 0.95)
	if _, err := s.AssetInfo(context.Background(), testMarket()); err == nil {
		t.Error("expected error for factors outside [0, 1]")
	}
}

// ════════════════════════════════════════════════════════════════════
// Governance forum feed
// ════════════════════════════════════════════════════════════════════

func TestForumLatestPosts(t *testing.T) {
	ts := newRSSServer(t)
	defer ts.Close()

	f := NewForum(ts.URL)
	posts, err := f.LatestPosts(context.Background(), 10)
	if err != nil {
		t.Fatalf("LatestPosts error: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	if posts[0].Title != "Raise USDC borrow rate kink" {
		t.Errorf("newest post = %q, want the kink proposal", posts[0].Title)
	}
	// HTML stripped from the summary.
	if posts[0].Summary != "Proposal to adjust the interest rate curve." {
		t.Errorf("summary = %q, want HTML stripped", posts[0].Summary)
	}
	if posts[0].Source != "Governance Forum" {
		t.Errorf("source = %q, want Governance Forum", posts[0].Source)
	}
}

func TestForumMarketPosts(t *testing.T) {
	ts := newRSSServer(t)
	defer ts.Close()

	f := NewForum(ts.URL)
	posts, err := f.MarketPosts(context.Background(), testMarket(), 10)
	if err != nil {
		t.Fatalf("MarketPosts error: %v", err)
	}
	// Only the kink proposal mentions USDC / interest rates.
	if len(posts) != 1 {
		t.Fatalf("expected 1 relevant post, got %d", len(posts))
	}
	if posts[0].Title != "Raise USDC borrow rate kink" {
		t.Errorf("relevant post = %q", posts[0].Title)
	}
}

func TestForumLimit(t *testing.T) {
	ts := newRSSServer(t)
	defer ts.Close()

	f := NewForum(ts.URL)
	posts, err := f.LatestPosts(context.Background(), 1)
	if err != nil {
		t.Fatalf("LatestPosts error: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("expected limit to cap posts at 1, got %d", len(posts))
	}
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"plain text", "plain text"},
		{"", ""},
		{"<div><a href='#'>link</a> and text</div>", "link and text"},
	}
	for _, tt := range tests {
		got := cleanHTML(tt.input)
		if got != tt.want {
			t.Errorf("cleanHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMarketKeywords(t *testing.T) {
	kw := marketKeywords(testMarket())
	found := map[string]bool{}
	for _, k := range kw {
		found[k] = true
	}
	for _, want := range []string{"usdc", "weth", "liquidation"} {
		if !found[want] {
			t.Errorf("expected keyword %q in %v", want, kw)
		}
	}
}

func TestMatchesAny(t *testing.T) {
	tests := []struct {
		text     string
		keywords []string
		want     bool
	}{
		{"Raise USDC borrow rate", []string{"usdc"}, true},
		{"Treasury diversification", []string{"usdc", "weth"}, false},
		{"Adjust WETH Collateral Factor", []string{"collateral factor"}, true},
	}
	for _, tt := range tests {
		got := matchesAny(tt.text, tt.keywords)
		if got != tt.want {
			t.Errorf("matchesAny(%q, %v) = %v, want %v", tt.text, tt.keywords, got, tt.want)
		}
	}
}

func TestSortPostsByDate(t *testing.T) {
	now := time.Now()
	posts := []models.GovernancePost{
		{Title: "old", Published: now.Add(-2 * time.Hour)},
		{Title: "newest", Published: now},
		{Title: "mid", Published: now.Add(-1 * time.Hour)},
	}
	sortPostsByDate(posts)
	if posts[0].Title != "newest" {
		t.Errorf("first post = %q, want %q", posts[0].Title, "newest")
	}
	if posts[2].Title != "old" {
		t.Errorf("last post = %q, want %q", posts[2].Title, "old")
	}
}

// ════════════════════════════════════════════════════════════════════
// Aggregator
// ════════════════════════════════════════════════════════════════════

type stubRates struct {
	points []models.RatePoint
	err    error
}

func (s *stubRates) Name() string { return "stub rates" }
func (s *stubRates) RateHistory(_ context.Context, _ models.Market, _ int) ([]models.RatePoint, error) {
	return s.points, s.err
}

type stubPrice struct {
	price *models.SpotPrice
	err   error
}

func (s *stubPrice) Name() string { return "stub price" }
func (s *stubPrice) SpotPrice(_ context.Context, _ string) (*models.SpotPrice, error) {
	return s.price, s.err
}

type stubFactors struct {
	info *models.AssetInfo
	err  error
}

func (s *stubFactors) Name() string { return "stub factors" }
func (s *stubFactors) AssetInfo(_ context.Context, _ models.Market) (*models.AssetInfo, error) {
	return s.info, s.err
}

func TestAggregatorFetchSnapshot(t *testing.T) {
	rss := newRSSServer(t)
	defer rss.Close()

	rates := &stubRates{points: []models.RatePoint{
		{Timestamp: 1700086400, BorrowRate: 0.052, SupplyRate: 0.041},
		{Timestamp: 1700000000, BorrowRate: 0.050, SupplyRate: 0.040},
	}}
	price := &stubPrice{price: &models.SpotPrice{PriceUSD: 3000, Source: "stub"}}
	factors := &stubFactors{info: &models.AssetInfo{
		BorrowCollateralFactor:    0.825,
		LiquidateCollateralFactor: 0.895,
		LiquidationFactor:         0.95,
	}}

	agg := NewAggregatorWithSources(rates, price, factors, NewForum(rss.URL))
	snap, err := agg.FetchSnapshot(context.Background(), testMarket(), 365)
	if err != nil {
		t.Fatalf("FetchSnapshot error: %v", err)
	}

	if len(snap.Rates) != 2 {
		t.Errorf("expected 2 rate points, got %d", len(snap.Rates))
	}
	if snap.Price == nil || snap.Price.PriceUSD != 3000 {
		t.Errorf("price not propagated: %+v", snap.Price)
	}
	if snap.Asset == nil || snap.Asset.LiquidateCollateralFactor != 0.895 {
		t.Errorf("asset info not propagated: %+v", snap.Asset)
	}
	if len(snap.Posts) != 1 {
		t.Errorf("expected 1 relevant forum post, got %d", len(snap.Posts))
	}
	if len(snap.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", snap.Warnings)
	}
	if snap.Market.Name != "usdc-mainnet" {
		t.Errorf("market = %q, want usdc-mainnet", snap.Market.Name)
	}
}

func TestAggregatorPartialFailures(t *testing.T) {
	rates := &stubRates{points: []models.RatePoint{
		{Timestamp: 1700000000, BorrowRate: 0.05, SupplyRate: 0.04},
	}}
	price := &stubPrice{err: fmt.Errorf("price feed down")}
	factors := &stubFactors{err: fmt.Errorf("rpc down")}

	// Unreachable forum endpoint degrades to a warning too.
	agg := NewAggregatorWithSources(rates, price, factors, NewForum("http://127.0.0.1:1/latest.rss"))
	snap, err := agg.FetchSnapshot(context.Background(), testMarket(), 365)
	if err != nil {
		t.Fatalf("FetchSnapshot should tolerate optional failures, got %v", err)
	}

	if snap.Price != nil || snap.Asset != nil || snap.Posts != nil {
		t.Error("failed sources should leave their fields nil")
	}
	if len(snap.Warnings) != 3 {
		t.Errorf("expected 3 warnings, got %d: %v", len(snap.Warnings), snap.Warnings)
	}
	if len(snap.Rates) != 1 {
		t.Errorf("rates should still be present, got %d", len(snap.Rates))
	}
}

func TestAggregatorRateFailureIsFatal(t *testing.T) {
	rss := newRSSServer(t)
	defer rss.Close()

	rates := &stubRates{err: fmt.Errorf("gateway down")}
	price := &stubPrice{price: &models.SpotPrice{PriceUSD: 3000}}
	factors := &stubFactors{info: &models.AssetInfo{
		BorrowCollateralFactor:    0.825,
		LiquidateCollateralFactor: 0.895,
		LiquidationFactor:         0.95,
	}}

	agg := NewAggregatorWithSources(rates, price, factors, NewForum(rss.URL))
	_, err := agg.FetchSnapshot(context.Background(), testMarket(), 365)
	if err == nil {
		t.Fatal("expected error when rate history fails")
	}
}

func TestAggregatorAccessors(t *testing.T) {
	rss := newRSSServer(t)
	defer rss.Close()

	agg := NewAggregatorWithSources(&stubRates{}, &stubPrice{}, &stubFactors{}, NewForum(rss.URL))
	if agg.Rates() == nil {
		t.Error("Rates() returned nil")
	}
	if agg.Price() == nil {
		t.Error("Price() returned nil")
	}
	if agg.Factors() == nil {
		t.Error("Factors() returned nil")
	}
	if agg.ForumSource() == nil {
		t.Error("ForumSource() returned nil")
	}
}

// ════════════════════════════════════════════════════════════════════
// Shared helpers
// ════════════════════════════════════════════════════════════════════

func TestErrHTTPError(t *testing.T) {
	e := &ErrHTTP{StatusCode: 404, Status: "404 Not Found", Body: "page not found"}
	msg := e.Error()
	if msg != "HTTP 404 404 Not Found: page not found" {
		t.Fatalf("unexpected error message: %s", msg)
	}
}

func TestSourceNames(t *testing.T) {
	if got := NewGraph("", "k", 0).Name(); got != "The Graph" {
		t.Errorf("Graph Name() = %q", got)
	}
	if got := NewCoinGecko("", 0).Name(); got != "CoinGecko" {
		t.Errorf("CoinGecko Name() = %q", got)
	}
	if got := NewCometRPC("").Name(); got != "Comet RPC" {
		t.Errorf("CometRPC Name() = %q", got)
	}
	if got := NewForum("").Name(); got != "Governance Forum" {
		t.Errorf("Forum Name() = %q", got)
	}
}
