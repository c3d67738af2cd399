package market

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/napolitain/solver-mutations/internal/models"
)

const (
	DefaultPriceTTL = 10 * time.Minute

	// DefaultFallbackTTL is how long a snapshot or empty fallback is served
	// before Prices tries upstream again
	DefaultFallbackTTL = time.Minute

	pricesKey = "bazaar:prices"
)

// Store is a shared cache tier, e.g. Redis, consulted before the upstream
type Store interface {
	Load(ctx context.Context) (models.Prices, bool, error)
	Save(ctx context.Context, prices models.Prices, ttl time.Duration) error
}

// CachedSource layers an in-process cache, an optional shared store and an
// optional on-disk snapshot over an upstream source.
// It never fails: when everything is unavailable it returns empty prices.
type CachedSource struct {
	upstream Source
	local    *cache.Cache
	store    Store
	snapshot *Snapshot
	ttl      time.Duration
	fallback time.Duration
	logger   *slog.Logger

	mu      sync.Mutex // serialises upstream refreshes
	updated time.Time
}

// CachedOption configures a CachedSource
type CachedOption func(*CachedSource)

// WithStore adds a shared cache tier
func WithStore(s Store) CachedOption {
	return func(c *CachedSource) { c.store = s }
}

// WithSnapshot adds an on-disk fallback
func WithSnapshot(s *Snapshot) CachedOption {
	return func(c *CachedSource) { c.snapshot = s }
}

// WithTTL sets how long prices stay fresh
func WithTTL(ttl time.Duration) CachedOption {
	return func(c *CachedSource) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithFallbackTTL sets how long fallback prices are cached after an upstream failure
func WithFallbackTTL(ttl time.Duration) CachedOption {
	return func(c *CachedSource) {
		if ttl > 0 {
			c.fallback = ttl
		}
	}
}

// WithLogger sets the logger for fallback warnings
func WithLogger(l *slog.Logger) CachedOption {
	return func(c *CachedSource) { c.logger = l }
}

// NewCachedSource wraps upstream
func NewCachedSource(upstream Source, opts ...CachedOption) *CachedSource {
	c := &CachedSource{
		upstream: upstream,
		ttl:      DefaultPriceTTL,
		fallback: DefaultFallbackTTL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.local = cache.New(c.ttl, 2*c.ttl)
	return c
}

// Prices returns cached prices, refreshing from upstream when stale
func (c *CachedSource) Prices(ctx context.Context) (models.Prices, error) {
	if p, ok := c.cached(); ok {
		return p, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// another caller may have refreshed while we waited
	if p, ok := c.cached(); ok {
		return p, nil
	}

	if c.store != nil {
		p, ok, err := c.store.Load(ctx)
		if err != nil {
			c.logger.Warn("price store read failed", "error", err)
		} else if ok {
			c.local.SetDefault(pricesKey, p)
			return p, nil
		}
	}

	p, err := c.refreshLocked(ctx)
	if err == nil {
		return p, nil
	}
	c.logger.Warn("bazaar fetch failed", "error", err)

	fallback := models.Prices{}
	if c.snapshot != nil {
		snap, serr := c.snapshot.Load()
		if serr == nil {
			c.logger.Info("serving prices from snapshot", "path", c.snapshot.Path(), "items", len(snap))
			fallback = snap
		} else {
			c.logger.Warn("price snapshot unavailable", "error", serr)
		}
	}
	// later callers get the fallback until it expires; Refresh still goes upstream
	c.local.Set(pricesKey, fallback, c.fallback)
	return fallback, nil
}

// Refresh bypasses every cache tier and reports upstream errors
func (c *CachedSource) Refresh(ctx context.Context) (models.Prices, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.refreshLocked(ctx)
}

// Updated returns when prices were last fetched from upstream
func (c *CachedSource) Updated() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.updated
}

func (c *CachedSource) cached() (models.Prices, bool) {
	if v, ok := c.local.Get(pricesKey); ok {
		return v.(models.Prices), true
	}
	return nil, false
}

func (c *CachedSource) refreshLocked(ctx context.Context) (models.Prices, error) {
	p, err := c.upstream.Prices(ctx)
	if err != nil {
		return nil, err
	}
	c.updated = time.Now()
	c.local.SetDefault(pricesKey, p)

	if c.store != nil {
		if err := c.store.Save(ctx, p, c.ttl); err != nil {
			c.logger.Warn("price store write failed", "error", err)
		}
	}
	if c.snapshot != nil {
		if err := c.snapshot.Save(p); err != nil {
			c.logger.Warn("price snapshot write failed", "path", c.snapshot.Path(), "error", err)
		}
	}
	return p, nil
}
