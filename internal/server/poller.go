package server

import (
	"context"
	"time"

	"github.com/napolitain/solver-mutations/internal/models"
)

// Refresher is a price source that can be forced to refetch
type Refresher interface {
	Refresh(ctx context.Context) (models.Prices, error)
}

// RunPoller refreshes prices every interval until ctx ends, pushing the default
// leaderboard to websocket subscribers after each successful refresh
func (s *Server) RunPoller(ctx context.Context, src Refresher, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.poll(ctx, src)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx, src)
		}
	}
}

func (s *Server) poll(ctx context.Context, src Refresher) {
	prices, err := src.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("price refresh failed", "error", err)
		}
		return
	}
	board, err := s.ranker.Rank(ctx, s.cfg.Defaults, prices)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("default leaderboard failed", "error", err)
		}
		return
	}
	s.logger.Info("prices refreshed", "items", len(prices), "entries", len(board.Entries))
	s.publish(board)
}
