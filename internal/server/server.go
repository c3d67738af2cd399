// Package server exposes the ranking, layout and profit models over HTTP.
// A websocket hub pushes a fresh default leaderboard whenever prices refresh.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/napolitain/solver-mutations/internal/market"
	"github.com/napolitain/solver-mutations/internal/models"
	"github.com/napolitain/solver-mutations/internal/ranking"
	"github.com/napolitain/solver-mutations/internal/solver/layout"
)

const (
	DefaultResponseTTL = 60 * time.Second
	DefaultRateLimit   = 10.0
	DefaultBurst       = 20
)

// Config tunes the HTTP layer
type Config struct {
	RateLimit      float64 // requests per second per client IP, <= 0 disables limiting
	Burst          int
	ResponseTTL    time.Duration
	AllowedOrigins []string // "*" allows any origin
	Defaults       models.PlayerConfig
}

// DefaultConfig returns the production settings
func DefaultConfig() Config {
	return Config{
		RateLimit:      DefaultRateLimit,
		Burst:          DefaultBurst,
		ResponseTTL:    DefaultResponseTTL,
		AllowedOrigins: []string{"*"},
		Defaults:       models.DefaultPlayerConfig(),
	}
}

// Server serves the mutation API
type Server struct {
	ranker    *ranking.Ranker
	prices    market.Source
	cfg       Config
	logger    *slog.Logger
	responses *cache.Cache
	limiter   *ipLimiter
	hub       *Hub
	blocked   []layout.Coord
}

// New builds a server; prices may be nil, in which case everything is valued at 0
func New(ranker *ranking.Ranker, prices market.Source, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if prices == nil {
		prices = market.Static{}
	}
	if cfg.ResponseTTL <= 0 {
		cfg.ResponseTTL = DefaultResponseTTL
	}
	if cfg.Defaults.Plots == 0 {
		cfg.Defaults = models.DefaultPlayerConfig()
	}

	s := &Server{
		ranker:    ranker,
		prices:    prices,
		cfg:       cfg,
		logger:    logger,
		responses: cache.New(cfg.ResponseTTL, 2*cfg.ResponseTTL),
		hub:       NewHub(logger),
		blocked:   layout.DefaultBlocked(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = newIPLimiter(cfg.RateLimit, cfg.Burst)
	}
	return s
}

// Hub returns the websocket broadcaster
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the routed handler wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/ping", s.handlePing)
	mux.HandleFunc("GET /api/mutations", s.handleMutations)
	mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)
	mux.HandleFunc("GET /api/layout", s.handleLayout)
	mux.HandleFunc("GET /api/profit", s.handleProfit)
	mux.HandleFunc("GET /ws/leaderboard", s.hub.ServeWS)

	var h http.Handler = mux
	if s.limiter != nil {
		h = rateLimit(s.limiter, h)
	}
	h = cors(s.cfg.AllowedOrigins, h)
	h = accessLog(s.logger, h)
	h = requestID(h)
	h = recovery(s.logger, h)
	return h
}

// Close stops the hub and the limiter janitor
func (s *Server) Close() error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	return s.hub.Close()
}

// currentPrices never fails; an unavailable feed degrades to empty prices
func (s *Server) currentPrices(ctx context.Context) models.Prices {
	prices, err := s.prices.Prices(ctx)
	if err != nil {
		s.logger.Warn("price feed unavailable", "error", err)
		return models.Prices{}
	}
	return prices
}
