package models

import (
	"encoding/json"
	"testing"
	"time"
)

// ── Market Tests ──

func TestMarketJSONRoundtrip(t *testing.T) {
	m := Market{
		Name:             "USDC Mainnet",
		Comet:            "0xc3d688B66703497DAA19211EEdff47f25384cdc3",
		BaseSymbol:       "USDC",
		CollateralSymbol: "WETH",
		Collateral:       "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2",
		PriceID:          "ethereum",
		SubgraphID:       "5nwMCSHaTqG3Kd2gHznbTXEnZ9QNWsssQfbHhDqQSQFp",
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("json.Marshal(Market) error: %v", err)
	}
	var decoded Market
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal(Market) error: %v", err)
	}
	if decoded.Comet != m.Comet {
		t.Errorf("Comet: got %q, want %q", decoded.Comet, m.Comet)
	}
	if decoded.PriceID != m.PriceID {
		t.Errorf("PriceID: got %q, want %q", decoded.PriceID, m.PriceID)
	}
}

func TestRatePointTime(t *testing.T) {
	p := RatePoint{Timestamp: 1700000000, BorrowRate: 0.032, SupplyRate: 0.021}
	got := p.Time()
	if got.Unix() != p.Timestamp {
		t.Errorf("Time().Unix(): got %d, want %d", got.Unix(), p.Timestamp)
	}
	if got.Location() != time.UTC {
		t.Errorf("Time() location: got %v, want UTC", got.Location())
	}
}

// ── AssetInfo Tests ──

func TestAssetInfoLiquidationPenalty(t *testing.T) {
	a := AssetInfo{
		BorrowCollateralFactor:    0.825,
		LiquidateCollateralFactor: 0.895,
		LiquidationFactor:         0.95,
	}
	got := a.LiquidationPenalty()
	want := 0.05
	if diff := got - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("LiquidationPenalty: got %v, want %v", got, want)
	}
}

func TestAssetInfoValid(t *testing.T) {
	tests := []struct {
		name string
		info AssetInfo
		want bool
	}{
		{"typical", AssetInfo{BorrowCollateralFactor: 0.825, LiquidateCollateralFactor: 0.895, LiquidationFactor: 0.95}, true},
		{"bounds", AssetInfo{BorrowCollateralFactor: 0, LiquidateCollateralFactor: 1, LiquidationFactor: 1}, true},
		{"negative factor", AssetInfo{BorrowCollateralFactor: -0.1, LiquidateCollateralFactor: 0.9, LiquidationFactor: 0.95}, false},
		{"above one", AssetInfo{BorrowCollateralFactor: 0.8, LiquidateCollateralFactor: 1.2, LiquidationFactor: 0.95}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}
