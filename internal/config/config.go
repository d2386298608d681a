// Package config handles configuration loading for swapsim.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

// Lookback and horizon bounds, matching the ranges the simulator is
// calibrated for. Values outside these bounds are clamped, not rejected.
const (
	MinLookbackDays    = 90
	MaxLookbackDays    = 730
	MaxHorizonDays     = 365
	DefaultHorizonDays = 180
)

// Config represents the complete application configuration.
type Config struct {
	Market     MarketConfig     `mapstructure:"market"     yaml:"market"`
	Data       DataConfig       `mapstructure:"data"       yaml:"data"`
	Simulation SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
	Forecast   ForecastConfig   `mapstructure:"forecast"   yaml:"forecast"`
	Position   PositionConfig   `mapstructure:"position"   yaml:"position"`
	Store      StoreConfig      `mapstructure:"store"      yaml:"store"`
	Cache      CacheConfig      `mapstructure:"cache"      yaml:"cache"`
	API        APIConfig        `mapstructure:"api"        yaml:"api"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
}

// MarketConfig identifies the Comet market the tool operates on.
type MarketConfig struct {
	Name             string `mapstructure:"name"              yaml:"name"`
	Comet            string `mapstructure:"comet"             yaml:"comet"`             // Comet proxy address
	BaseSymbol       string `mapstructure:"base_symbol"       yaml:"base_symbol"`       // borrowed asset, e.g. "USDC"
	CollateralSymbol string `mapstructure:"collateral_symbol" yaml:"collateral_symbol"` // e.g. "WETH"
	Collateral       string `mapstructure:"collateral"        yaml:"collateral"`        // collateral token address
	PriceID          string `mapstructure:"price_id"          yaml:"price_id"`          // CoinGecko id for the collateral
	SubgraphID       string `mapstructure:"subgraph_id"       yaml:"subgraph_id"`
}

// Model converts the config section into the shared market model.
func (m MarketConfig) Model() models.Market {
	return models.Market{
		Name:             m.Name,
		Comet:            m.Comet,
		BaseSymbol:       m.BaseSymbol,
		CollateralSymbol: m.CollateralSymbol,
		Collateral:       m.Collateral,
		PriceID:          m.PriceID,
		SubgraphID:       m.SubgraphID,
	}
}

// DataConfig holds external data source settings.
type DataConfig struct {
	GraphAPIKey       string `mapstructure:"graph_api_key"       yaml:"graph_api_key"       json:"-"`
	GatewayURL        string `mapstructure:"gateway_url"         yaml:"gateway_url"`
	PriceURL          string `mapstructure:"price_url"           yaml:"price_url"`
	RPCURL            string `mapstructure:"rpc_url"             yaml:"rpc_url"`
	ForumFeedURL      string `mapstructure:"forum_feed_url"      yaml:"forum_feed_url"`
	LookbackDays      int    `mapstructure:"lookback_days"       yaml:"lookback_days"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// SimulationConfig holds the cashflow simulator and rate selector knobs.
type SimulationConfig struct {
	HorizonDays           int     `mapstructure:"horizon_days"             yaml:"horizon_days"`
	BorrowAmount          float64 `mapstructure:"borrow_amount"            yaml:"borrow_amount"`
	Policy                string  `mapstructure:"policy"                   yaml:"policy"` // "stat_offset", "max_margin", "safe_search"
	OffsetK               float64 `mapstructure:"offset_k"                 yaml:"offset_k"`
	Margin                float64 `mapstructure:"margin"                   yaml:"margin"`
	BisectIterations      int     `mapstructure:"bisect_iterations"        yaml:"bisect_iterations"`
	DoubleAttempts        int     `mapstructure:"double_attempts"          yaml:"double_attempts"`
	MultiWindow           bool    `mapstructure:"multi_window"             yaml:"multi_window"`
	CompoundFixedNotional bool    `mapstructure:"compound_fixed_notional"  yaml:"compound_fixed_notional"`
	BreachOnCumulativeNet bool    `mapstructure:"breach_on_cumulative_net" yaml:"breach_on_cumulative_net"`
}

// ForecastConfig holds the mean-reverting floating-rate forecast knobs.
type ForecastConfig struct {
	FallbackPhi float64 `mapstructure:"fallback_phi" yaml:"fallback_phi"`
	ShockStdDev float64 `mapstructure:"shock_stddev" yaml:"shock_stddev"`
	Seed        int64   `mapstructure:"seed"         yaml:"seed"`
}

// PositionConfig holds default position inputs. Manual fields override
// fetched values when non-zero, for use when price or RPC data is
// unavailable.
type PositionConfig struct {
	CollateralAmount        float64 `mapstructure:"collateral_amount"         yaml:"collateral_amount"`
	ManualPrice             float64 `mapstructure:"manual_price"              yaml:"manual_price"`
	ManualBorrowCF          float64 `mapstructure:"manual_borrow_cf"          yaml:"manual_borrow_cf"`
	ManualLiquidateCF       float64 `mapstructure:"manual_liquidate_cf"       yaml:"manual_liquidate_cf"`
	ManualLiquidationFactor float64 `mapstructure:"manual_liquidation_factor" yaml:"manual_liquidation_factor"`
}

// StoreConfig holds the rate archive settings. An empty DSN selects the
// in-memory store.
type StoreConfig struct {
	DatabaseURL string `mapstructure:"database_url" yaml:"database_url" json:"-"`
}

// CacheConfig holds cache settings. An empty Redis address selects the
// in-memory cache. TTLs are in seconds.
type CacheConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"     yaml:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" yaml:"redis_password" json:"-"`
	RedisDB       int    `mapstructure:"redis_db"       yaml:"redis_db"`
	PriceTTL      int    `mapstructure:"price_ttl"      yaml:"price_ttl"`
	SnapshotTTL   int    `mapstructure:"snapshot_ttl"   yaml:"snapshot_ttl"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.swapsim/config.yaml (home directory)
//  3. /etc/swapsim/config.yaml (system)
//
// Environment variables override config file values.
// Format: SWAPSIM_<SECTION>_<KEY>, e.g., SWAPSIM_DATA_GRAPH_API_KEY
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".swapsim"))
	v.AddConfigPath("/etc/swapsim")

	// Environment variable settings
	v.SetEnvPrefix("SWAPSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found — that's fine, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Override sensitive values from environment
	overrideFromEnv(&cfg)
	cfg.Normalize()

	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("SWAPSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	overrideFromEnv(&cfg)
	cfg.Normalize()
	return &cfg, nil
}

// Normalize clamps lookback and horizon into their supported bounds and
// backfills a horizon when none is configured.
func (c *Config) Normalize() {
	if c.Data.LookbackDays < MinLookbackDays {
		c.Data.LookbackDays = MinLookbackDays
	}
	if c.Data.LookbackDays > MaxLookbackDays {
		c.Data.LookbackDays = MaxLookbackDays
	}
	if c.Simulation.HorizonDays <= 0 {
		c.Simulation.HorizonDays = minInt(c.Data.LookbackDays, DefaultHorizonDays)
	}
	if hcap := minInt(c.Data.LookbackDays, MaxHorizonDays); c.Simulation.HorizonDays > hcap {
		c.Simulation.HorizonDays = hcap
	}
	if c.Data.RequestTimeoutSec <= 0 {
		c.Data.RequestTimeoutSec = 15
	}
}

// setDefaults sets sensible defaults for all config values.
// Market defaults target the mainnet USDC Comet with WETH collateral.
func setDefaults(v *viper.Viper) {
	// Market defaults (mainnet USDC Comet)
	v.SetDefault("market.name", "usdc-mainnet")
	v.SetDefault("market.comet", "0xc3d688B66703497DAA19211EEdff47f25384cdc3")
	v.SetDefault("market.base_symbol", "USDC")
	v.SetDefault("market.collateral_symbol", "WETH")
	v.SetDefault("market.collateral", "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	v.SetDefault("market.price_id", "ethereum")
	v.SetDefault("market.subgraph_id", "5nwMCSHaTqG3Kd2gHznbTXEnZ9QNWsssQfbHhDqQSQFp")

	// Data source defaults
	v.SetDefault("data.gateway_url", "https://gateway.thegraph.com/api")
	v.SetDefault("data.price_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("data.rpc_url", "https://eth.llamarpc.com")
	v.SetDefault("data.forum_feed_url", "https://www.comp.xyz/latest.rss")
	v.SetDefault("data.lookback_days", 365)
	v.SetDefault("data.request_timeout_sec", 15)

	// Simulation defaults
	v.SetDefault("simulation.horizon_days", DefaultHorizonDays)
	v.SetDefault("simulation.borrow_amount", 10000)
	v.SetDefault("simulation.policy", "stat_offset")
	v.SetDefault("simulation.offset_k", 0.5)
	v.SetDefault("simulation.margin", 0.0005) // 5 bps
	v.SetDefault("simulation.bisect_iterations", 48)
	v.SetDefault("simulation.double_attempts", 60)
	v.SetDefault("simulation.multi_window", false)
	v.SetDefault("simulation.compound_fixed_notional", false)
	v.SetDefault("simulation.breach_on_cumulative_net", false)

	// Forecast defaults (deterministic unless a shock stddev is set)
	v.SetDefault("forecast.fallback_phi", 0.8)
	v.SetDefault("forecast.shock_stddev", 0.0)
	v.SetDefault("forecast.seed", 42)

	// Position defaults
	v.SetDefault("position.collateral_amount", 10.0)
	v.SetDefault("position.manual_price", 0.0)
	v.SetDefault("position.manual_borrow_cf", 0.0)
	v.SetDefault("position.manual_liquidate_cf", 0.0)
	v.SetDefault("position.manual_liquidation_factor", 0.0)

	// Store defaults (empty DSN = in-memory)
	v.SetDefault("store.database_url", "")

	// Cache defaults (empty addr = in-memory)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.price_ttl", 60)     // 1 minute
	v.SetDefault("cache.snapshot_ttl", 300) // 5 minutes

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment
// variables. The prefixed form wins; the bare forms are the names these
// values carry in typical deployments.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("SWAPSIM_DATA_GRAPH_API_KEY"); key != "" {
		cfg.Data.GraphAPIKey = key
	} else if key := os.Getenv("GRAPH_API_KEY"); key != "" {
		cfg.Data.GraphAPIKey = key
	}
	if dsn := os.Getenv("SWAPSIM_STORE_DATABASE_URL"); dsn != "" {
		cfg.Store.DatabaseURL = dsn
	} else if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Store.DatabaseURL = dsn
	}
	if addr := os.Getenv("SWAPSIM_CACHE_REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	} else if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Cache.RedisAddr = addr
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
