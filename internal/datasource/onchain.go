package datasource

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/Doshir1/compound-fixed-rate-swap/internal/infra"
	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

// assetInfoSig is the Comet method that returns the collateral risk
// parameters for an asset. The return struct is fully static, so the
// response is eight inline 32-byte words; the collateral factors sit in
// words 4, 5 and 6, scaled by 1e18.
const assetInfoSig = "getAssetInfoByAddress(address)"

const factorScale = 1e18

// CometRPC reads collateral factors straight from the Comet contract via
// raw JSON-RPC eth_call, no contract bindings needed.
type CometRPC struct {
	rpcURL  string
	cache   *infra.Cache
	limiter *infra.RateLimiter
}

// NewCometRPC creates an eth_call client against the given JSON-RPC endpoint.
func NewCometRPC(rpcURL string) *CometRPC {
	return &CometRPC{
		rpcURL:  rpcURL,
		cache:   infra.NewCache(5 * time.Minute),
		limiter: infra.NewRateLimiter(4, time.Second),
	}
}

// Name returns the data source name.
func (c *CometRPC) Name() string { return "Comet RPC" }

// AssetInfo fetches the borrow/liquidate collateral factors and the
// liquidation factor for the market's collateral asset.
func (c *CometRPC) AssetInfo(ctx context.Context, market models.Market) (*models.AssetInfo, error) {
	if c.rpcURL == "" {
		return nil, fmt.Errorf("comet rpc: no endpoint configured")
	}

	cacheKey := infra.CacheKey("assetinfo", market.Comet, market.Collateral)
	if cached, ok := c.cache.Get(cacheKey); ok {
		info := cached.(models.AssetInfo)
		return &info, nil
	}

	calldata, err := assetInfoCalldata(market.Collateral)
	if err != nil {
		return nil, fmt.Errorf("comet rpc: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload := rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "eth_call",
		Params: []any{
			map[string]string{"to": market.Comet, "data": calldata},
			"latest",
		},
	}

	var resp rpcResponse
	if err := doPostJSON(ctx, c.rpcURL, payload, &resp); err != nil {
		return nil, fmt.Errorf("comet rpc: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("comet rpc: eth_call error %d: %s", resp.Error.Code, resp.Error.Message)
	}

	info, err := decodeAssetInfo(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("comet rpc: %w", err)
	}
	info.Asset = market.Collateral
	info.Source = c.Name()

	if !info.Valid() {
		return nil, fmt.Errorf("comet rpc: factors out of range: %+v", *info)
	}

	c.cache.Set(cacheKey, *info)
	return info, nil
}

// assetInfoCalldata builds the eth_call data: 4-byte selector followed by
// the asset address left-padded to 32 bytes.
func assetInfoCalldata(asset string) (string, error) {
	addr := strings.ToLower(strings.TrimPrefix(asset, "0x"))
	if len(addr) != 40 {
		return "", fmt.Errorf("bad asset address %q", asset)
	}
	if _, err := hex.DecodeString(addr); err != nil {
		return "", fmt.Errorf("bad asset address %q: %w", asset, err)
	}
	return "0x" + methodSelector(assetInfoSig) + strings.Repeat("0", 24) + addr, nil
}

// methodSelector returns the first four bytes of the Keccak-256 hash of a
// canonical method signature, hex encoded without the 0x prefix.
func methodSelector(signature string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return hex.EncodeToString(h.Sum(nil)[:4])
}

// decodeAssetInfo pulls the three 1e18-scaled factors out of an
// eth_call result for getAssetInfoByAddress.
func decodeAssetInfo(result string) (*models.AssetInfo, error) {
	raw := strings.TrimPrefix(result, "0x")
	if len(raw) < 7*64 {
		return nil, fmt.Errorf("short eth_call result: %d hex chars", len(raw))
	}

	borrowCF, err := decodeWord(raw, 4)
	if err != nil {
		return nil, err
	}
	liquidateCF, err := decodeWord(raw, 5)
	if err != nil {
		return nil, err
	}
	liquidationFactor, err := decodeWord(raw, 6)
	if err != nil {
		return nil, err
	}

	return &models.AssetInfo{
		BorrowCollateralFactor:    borrowCF / factorScale,
		LiquidateCollateralFactor: liquidateCF / factorScale,
		LiquidationFactor:         liquidationFactor / factorScale,
	}, nil
}

// decodeWord parses the i-th 32-byte word as an unsigned integer.
// Collateral factors never exceed 1e18, so uint64 range is enough.
func decodeWord(raw string, i int) (float64, error) {
	word := raw[i*64 : (i+1)*64]
	v, err := strconv.ParseUint(word, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("decode word %d: %w", i, err)
	}
	return float64(v), nil
}

// --- Wire types ---

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result string `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
