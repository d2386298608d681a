// Package api provides the HTTP REST API server for the swap simulator.
//
// It exposes endpoints for rate history, position sizing, fixed-rate
// policies, floating-rate forecasts, cashflow simulation, the
// governance feed, and WebSocket streaming of per-day ledgers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Doshir1/compound-fixed-rate-swap/internal/cache"
	"github.com/Doshir1/compound-fixed-rate-swap/internal/config"
	"github.com/Doshir1/compound-fixed-rate-swap/internal/datasource"
	"github.com/Doshir1/compound-fixed-rate-swap/internal/infra"
	"github.com/Doshir1/compound-fixed-rate-swap/internal/store"
	"github.com/Doshir1/compound-fixed-rate-swap/internal/swap"
	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
	"github.com/Doshir1/compound-fixed-rate-swap/pkg/utils"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	agg     *datasource.Aggregator
	store   store.RateStore
	cache   cache.Cache
	wsHub   *WSHub
	version string
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config) (*Server, error) {
	agg := datasource.NewAggregator(cfg)

	var st store.RateStore
	if cfg.Store.DatabaseURL != "" {
		pg, err := store.NewPostgres(cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("store setup failed: %w", err)
		}
		st = pg
	} else {
		st = store.NewMemory()
	}

	c, err := cache.FromConfig(cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("cache setup failed: %w", err)
	}

	srv := &Server{
		cfg:     cfg,
		agg:     agg,
		store:   st,
		cache:   c,
		wsHub:   NewWSHub(),
		version: "dev",
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// SetVersion overrides the version string reported by /health.
func (s *Server) SetVersion(v string) {
	if v != "" {
		s.version = v
	}
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		return err
	}
	s.cache.Close()
	return s.store.Close()
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Simulation
		r.Post("/simulate", s.handleSimulate)

		// Fixed-rate policies
		r.Post("/saferate", s.handleSafeRate)

		// Position sizing
		r.Post("/position", s.handlePosition)

		// Floating-rate forecast
		r.Post("/forecast", s.handleForecast)

		// Rate history
		r.Get("/rates/{market}", s.handleRates)

		// Markets
		r.Get("/markets", s.handleMarkets)

		// Governance feed
		r.Get("/feed", s.handleFeed)

		// Configuration
		r.Get("/config", s.handleGetConfig)
		r.Get("/config/keys", s.handleGetConfigKeys)

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// PositionRequest carries collateral inputs for sizing. Factors are
// decimal fractions in [0,1].
type PositionRequest struct {
	CollateralAmount          float64 `json:"collateral_amount"`
	CollateralPriceUSD        float64 `json:"collateral_price_usd"`
	BorrowCollateralFactor    float64 `json:"borrow_collateral_factor"`
	LiquidateCollateralFactor float64 `json:"liquidate_collateral_factor"`
	LiquidationPenalty        float64 `json:"liquidation_penalty,omitempty"`
}

func (p PositionRequest) model() swap.Position {
	return swap.Position{
		CollateralAmount:          p.CollateralAmount,
		CollateralPriceUSD:        p.CollateralPriceUSD,
		BorrowCollateralFactor:    p.BorrowCollateralFactor,
		LiquidateCollateralFactor: p.LiquidateCollateralFactor,
		LiquidationPenalty:        p.LiquidationPenalty,
	}
}

// SimulateRequest is the body for POST /api/v1/simulate. Either an
// explicit floating_rates series (annualized decimal fractions, one per
// day) or a market to fetch history for is required.
type SimulateRequest struct {
	Market                string           `json:"market,omitempty"`
	FixedAnnual           float64          `json:"fixed_annual"`
	BorrowAmount          float64          `json:"borrow_amount"`
	HorizonDays           int              `json:"horizon_days,omitempty"`
	FloatingRates         []float64        `json:"floating_rates,omitempty"`
	UseForecast           bool             `json:"use_forecast,omitempty"`
	Position              *PositionRequest `json:"position,omitempty"`
	CompoundFixedNotional bool             `json:"compound_fixed_notional,omitempty"`
	BreachOnCumulativeNet bool             `json:"breach_on_cumulative_net,omitempty"`
	Stream                bool             `json:"stream,omitempty"` // broadcast per-day rows over /ws
}

// SimulateResponse is the result of POST /api/v1/simulate.
type SimulateResponse struct {
	Market string       `json:"market,omitempty"`
	Sizing *swap.Sizing `json:"sizing,omitempty"`
	Result *swap.Result `json:"result"`
}

// SafeRateRequest is the body for POST /api/v1/saferate.
type SafeRateRequest struct {
	Market        string           `json:"market,omitempty"`
	FloatingRates []float64        `json:"floating_rates,omitempty"`
	BorrowAmount  float64          `json:"borrow_amount"`
	Position      *PositionRequest `json:"position,omitempty"`
	Policy        string           `json:"policy,omitempty"` // default: configured policy
	OffsetK       float64          `json:"offset_k,omitempty"`
	Margin        float64          `json:"margin,omitempty"`
	WindowDays    int              `json:"window_days,omitempty"`
	MultiWindow   bool             `json:"multi_window,omitempty"`
}

// SafeRateResponse is the result of POST /api/v1/saferate.
type SafeRateResponse struct {
	Market      string         `json:"market,omitempty"`
	Policy      swap.Policy    `json:"policy"`
	FixedAnnual float64        `json:"fixed_annual"`
	Stats       swap.RateStats `json:"stats"`
}

// ForecastRequest is the body for POST /api/v1/forecast.
type ForecastRequest struct {
	Market        string    `json:"market,omitempty"`
	FloatingRates []float64 `json:"floating_rates,omitempty"`
	HorizonDays   int       `json:"horizon_days,omitempty"`
	ShockStdDev   float64   `json:"shock_stddev,omitempty"`
	Seed          int64     `json:"seed,omitempty"`
}

// ForecastResponse is the result of POST /api/v1/forecast.
type ForecastResponse struct {
	Market      string    `json:"market,omitempty"`
	HorizonDays int       `json:"horizon_days"`
	Rates       []float64 `json:"rates"`
}

// PositionResponse is the result of POST /api/v1/position.
type PositionResponse struct {
	Position     swap.Position `json:"position"`
	Sizing       swap.Sizing   `json:"sizing"`
	SafetyBuffer float64       `json:"safety_buffer"`
}

// RatesResponse is the result of GET /api/v1/rates/{market}.
type RatesResponse struct {
	Market string                 `json:"market"`
	Window int                    `json:"window"`
	Points []swap.RateObservation `json:"points"`
	Stats  swap.RateStats         `json:"stats"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":  "ok",
			"version": s.version,
			"market":  s.cfg.Market.Name,
			"time":    utils.FormatDateTimeUTC(time.Now()),
		},
	})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BorrowAmount <= 0 {
		req.BorrowAmount = s.cfg.Simulation.BorrowAmount
	}
	if len(req.FloatingRates) == 0 && req.Market == "" && s.cfg.Market.Name == "" {
		writeError(w, http.StatusBadRequest, "floating_rates or market is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	series, market, err := s.resolveSeries(ctx, req.FloatingRates, req.Market)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	horizon := req.HorizonDays
	if horizon <= 0 {
		horizon = s.cfg.Simulation.HorizonDays
	}
	if len(req.FloatingRates) > 0 {
		// An explicit series is itself the horizon.
		horizon = len(req.FloatingRates)
	} else if req.UseForecast {
		series, err = swap.Forecast(series, swap.ForecastConfig{
			Horizon:     horizon,
			FallbackPhi: s.cfg.Forecast.FallbackPhi,
			ShockStdDev: s.cfg.Forecast.ShockStdDev,
			Seed:        s.cfg.Forecast.Seed,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	} else {
		if horizon > len(series) {
			horizon = len(series)
		}
		series = series[len(series)-horizon:]
	}

	var sizing swap.Sizing
	var sizingOut *swap.Sizing
	if req.Position != nil {
		sizing, err = req.Position.model().Size()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sizingOut = &sizing
	}

	engine := swap.NewEngine(swap.Config{
		FixedAnnual:           req.FixedAnnual,
		BorrowAmount:          req.BorrowAmount,
		CollateralValue:       sizing.CollateralValue,
		LiquidationThreshold:  sizing.LiquidationThreshold,
		CompoundFixedNotional: req.CompoundFixedNotional,
		BreachOnCumulativeNet: req.BreachOnCumulativeNet,
	})
	result, err := engine.Run(series)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Stream the ledger to WebSocket clients before replying.
	if req.Stream {
		for _, day := range result.Days {
			s.wsHub.Broadcast(WSMessage{Type: "simulation_day", Market: market.Name, Data: day})
		}
		s.wsHub.Broadcast(WSMessage{
			Type:   "simulation_complete",
			Market: market.Name,
			Data: map[string]interface{}{
				"market":  market.Name,
				"summary": result.Summary,
			},
		})
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: SimulateResponse{
			Market: market.Name,
			Sizing: sizingOut,
			Result: result,
		},
	})
}

func (s *Server) handleSafeRate(w http.ResponseWriter, r *http.Request) {
	var req SafeRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	policyName := req.Policy
	if policyName == "" {
		policyName = s.cfg.Simulation.Policy
	}
	policy, err := swap.ParsePolicy(policyName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.BorrowAmount <= 0 {
		req.BorrowAmount = s.cfg.Simulation.BorrowAmount
	}

	var sizing swap.Sizing
	if req.Position != nil {
		sizing, err = req.Position.model().Size()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else if policy == swap.PolicySafeSearch {
		writeError(w, http.StatusBadRequest, "position is required for the safety search")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	series, market, err := s.resolveSeries(ctx, req.FloatingRates, req.Market)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	selector := swap.NewSelector(swap.SelectorConfig{
		Policy:           policy,
		OffsetK:          firstNonZero(req.OffsetK, s.cfg.Simulation.OffsetK),
		Margin:           firstNonZero(req.Margin, s.cfg.Simulation.Margin),
		BisectIterations: s.cfg.Simulation.BisectIterations,
		DoubleAttempts:   s.cfg.Simulation.DoubleAttempts,
		WindowDays:       req.WindowDays,
		MultiWindow:      req.MultiWindow,
	})
	rate, err := selector.Suggest(series, req.BorrowAmount, sizing)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	stats, err := swap.ComputeRateStats(series)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: SafeRateResponse{
			Market:      market.Name,
			Policy:      policy,
			FixedAnnual: rate,
			Stats:       stats,
		},
	})
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pos := req.model()
	sizing, err := pos.Size()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: PositionResponse{
			Position:     pos,
			Sizing:       sizing,
			SafetyBuffer: sizing.SafetyBuffer(),
		},
	})
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	var req ForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	horizon := req.HorizonDays
	if horizon <= 0 {
		horizon = s.cfg.Simulation.HorizonDays
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	series, market, err := s.resolveSeries(ctx, req.FloatingRates, req.Market)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	seed := req.Seed
	if seed == 0 {
		seed = s.cfg.Forecast.Seed
	}
	rates, err := swap.Forecast(series, swap.ForecastConfig{
		Horizon:     horizon,
		FallbackPhi: s.cfg.Forecast.FallbackPhi,
		ShockStdDev: req.ShockStdDev,
		Seed:        seed,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ForecastResponse{
			Market:      market.Name,
			HorizonDays: horizon,
			Rates:       rates,
		},
	})
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "market")
	market, ok := s.resolveMarket(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown market: %s", name))
		return
	}

	window := 0
	if raw := r.URL.Query().Get("window"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "window must be a non-negative integer")
			return
		}
		window = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	points, err := s.fetchRateHistory(ctx, market, s.cfg.Data.LookbackDays)
	if err != nil {
		writeResolveError(w, err)
		return
	}

	obs, err := swap.Normalize(points)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	obs = swap.Window(obs, window)

	stats, err := swap.ComputeRateStats(swap.BorrowSeries(obs))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: RatesResponse{
			Market: market.Name,
			Window: len(obs),
			Points: obs,
			Stats:  stats,
		},
	})
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	markets := config.KnownMarkets()

	// Include the configured market when it is not one of the presets.
	configured := s.cfg.Market.Model()
	if configured.Name != "" {
		known := false
		for _, m := range markets {
			if strings.EqualFold(m.Name, configured.Name) {
				known = true
				break
			}
		}
		if !known {
			markets = append([]models.Market{configured}, markets...)
		}
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    markets,
	})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.requestTimeout())
	defer cancel()

	var posts []models.GovernancePost
	var err error
	if name := r.URL.Query().Get("market"); name != "" {
		market, ok := s.resolveMarket(name)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown market: %s", name))
			return
		}
		posts, err = s.agg.ForumSource().MarketPosts(ctx, market, limit)
	} else {
		posts, err = s.agg.ForumSource().LatestPosts(ctx, limit)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    posts,
	})
}

// ============================================================
// Internal helpers
// ============================================================

// resolveMarket maps a market name to its definition. An empty name
// resolves to the configured market.
func (s *Server) resolveMarket(name string) (models.Market, bool) {
	if name == "" || strings.EqualFold(strings.TrimSpace(name), s.cfg.Market.Name) {
		return s.cfg.Market.Model(), true
	}
	return config.FindMarket(name)
}

// resolveSeries produces the annualized floating-rate series for a
// request: an explicit series wins, otherwise the named (or configured)
// market's history is fetched and normalized.
func (s *Server) resolveSeries(ctx context.Context, explicit []float64, marketName string) ([]float64, models.Market, error) {
	if len(explicit) > 0 {
		return explicit, models.Market{}, nil
	}

	market, ok := s.resolveMarket(marketName)
	if !ok {
		return nil, models.Market{}, fmt.Errorf("%w: %s", datasource.ErrMarketNotFound, marketName)
	}

	points, err := s.fetchRateHistory(ctx, market, s.cfg.Data.LookbackDays)
	if err != nil {
		return nil, market, err
	}
	obs, err := swap.Normalize(points)
	if err != nil {
		return nil, market, err
	}
	return swap.BorrowSeries(obs), market, nil
}

// fetchRateHistory fetches a market's raw rate points through the
// response cache, archiving successful fetches and falling back to the
// archive when the gateway is unreachable.
func (s *Server) fetchRateHistory(ctx context.Context, market models.Market, days int) ([]models.RatePoint, error) {
	key := infra.CacheKey("api", "rates", market.Name, strconv.Itoa(days))
	if raw, ok := s.cache.Get(ctx, key); ok {
		var points []models.RatePoint
		if err := json.Unmarshal(raw, &points); err == nil && len(points) > 0 {
			return points, nil
		}
	}

	now := time.Now()
	points, err := s.agg.Rates().RateHistory(ctx, market, days)
	if err != nil {
		archived, loadErr := s.store.LoadRates(ctx, market.Name, utils.LookbackStart(now, days), now.Unix())
		if loadErr == nil && len(archived) > 0 {
			log.Printf("rate fetch for %s failed (%v); serving %d archived points", market.Name, err, len(archived))
			return archived, nil
		}
		return nil, err
	}

	if raw, merr := json.Marshal(points); merr == nil {
		ttl := time.Duration(s.cfg.Cache.SnapshotTTL) * time.Second
		if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
			log.Printf("rate cache write for %s failed: %v", market.Name, err)
		}
	}
	if _, serr := s.store.SaveRates(ctx, market.Name, points); serr != nil {
		log.Printf("rate archive write for %s failed: %v", market.Name, serr)
	}
	return points, nil
}

func (s *Server) requestTimeout() time.Duration {
	if s.cfg.Data.RequestTimeoutSec > 0 {
		return time.Duration(s.cfg.Data.RequestTimeoutSec) * time.Second
	}
	return 15 * time.Second
}

// writeResolveError maps series-resolution failures onto HTTP statuses.
func writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, datasource.ErrMarketNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, datasource.ErrMissingAPIKey):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, datasource.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func firstNonZero(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections. Market, when
// set, scopes the message to clients subscribed to that market.
type WSMessage struct {
	Type   string      `json:"type"`
	Market string      `json:"market,omitempty"`
	Data   interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage

	mu     sync.Mutex
	market string // empty = receive every market
}

// Subscribe scopes the client to a single market's messages. An empty
// market resets the client to receive everything.
func (c *WSClient) Subscribe(market string) {
	c.mu.Lock()
	c.market = market
	c.mu.Unlock()
}

// wants reports whether a message scoped to market should reach the
// client. Unscoped messages always pass.
func (c *WSClient) wants(market string) bool {
	if market == "" {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.market == "" || c.market == market
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.wants(msg.Market) {
					continue
				}
				select {
				case client.send <- msg:
				default:
					// Slow client; disconnect
					h.mu.RUnlock()
					h.mu.Lock()
					delete(h.clients, client)
					close(client.send)
					h.mu.Unlock()
					h.mu.RLock()
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast queues a message for delivery to connected clients,
// honoring per-client market subscriptions.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Drop message if broadcast channel is full
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (h *WSHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}
