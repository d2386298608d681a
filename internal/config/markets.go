package config

import (
	"strings"

	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

// KnownMarkets returns the mainnet Comet markets that ship as presets.
// The active market is still whatever the config selects; these exist so
// the CLI and API can offer a market list without any config file.
func KnownMarkets() []models.Market {
	return []models.Market{
		{
			Name:             "usdc-mainnet",
			Comet:            "0xc3d688B66703497DAA19211EEdff47f25384cdc3",
			BaseSymbol:       "USDC",
			CollateralSymbol: "WETH",
			Collateral:       "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
			PriceID:          "ethereum",
			SubgraphID:       "5nwMCSHaTqG3Kd2gHznbTXEnZ9QNWsssQfbHhDqQSQFp",
		},
		{
			Name:             "weth-mainnet",
			Comet:            "0xA17581A9E3356d9A858b789D68B4d866e593aE94",
			BaseSymbol:       "WETH",
			CollateralSymbol: "wstETH",
			Collateral:       "0x7f39C581F595B53c5cb19bD0b3f8dA6c935E2Ca0",
			PriceID:          "wrapped-steth",
			SubgraphID:       "5nwMCSHaTqG3Kd2gHznbTXEnZ9QNWsssQfbHhDqQSQFp",
		},
	}
}

// FindMarket looks up a preset market by name (case-insensitive).
// Returns false when the name matches no preset.
func FindMarket(name string) (models.Market, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	for _, m := range KnownMarkets() {
		if strings.ToLower(m.Name) == needle {
			return m, true
		}
	}
	return models.Market{}, false
}
