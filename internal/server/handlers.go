package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/napolitain/solver-mutations/internal/converter"
	"github.com/napolitain/solver-mutations/internal/loader"
	"github.com/napolitain/solver-mutations/internal/models"
	"github.com/napolitain/solver-mutations/internal/ranking"
	"github.com/napolitain/solver-mutations/internal/solver/layout"
	"github.com/napolitain/solver-mutations/internal/solver/profit"
)

type mutationInfo struct {
	Name         string        `json:"name"`
	Limit        int           `json:"limit"`
	GrowthStages int           `json:"growth_stages"`
	Recipe       models.Recipe `json:"recipe"`
	Destructive  bool          `json:"destructive,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var paramErr *converter.ParamError
	switch {
	case errors.Is(err, models.ErrUnknownMutation):
		return http.StatusNotFound
	case errors.As(err, &paramErr),
		errors.Is(err, models.ErrInvalidConfig),
		errors.Is(err, models.ErrUnknownCrop),
		errors.Is(err, profit.ErrInvalidParams),
		errors.Is(err, layout.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /api/mutations
func (s *Server) handleMutations(w http.ResponseWriter, r *http.Request) {
	tables := s.ranker.Tables()
	out := make([]mutationInfo, 0, len(tables.Mutations))
	for _, name := range tables.MutationNames() {
		m := tables.Mutations[name]
		out = append(out, mutationInfo{
			Name:         name,
			Limit:        m.Limit,
			GrowthStages: tables.GrowthStages(name),
			Recipe:       m.Recipe,
			Destructive:  tables.IsDestructive(name),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /api/leaderboard?plots=&fortune=&mode=...&top=
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	cfg, err := converter.QueryToPlayerConfig(values, s.cfg.Defaults)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	top := 0
	if raw := values.Get("top"); raw != "" {
		if top, err = strconv.Atoi(raw); err != nil || top < 0 {
			writeError(w, http.StatusBadRequest, &converter.ParamError{Param: "top", Value: raw, Err: fmt.Errorf("want a non-negative integer")})
			return
		}
	}

	key, err := leaderboardKey(cfg, top)
	if err == nil {
		if cached, ok := s.responses.Get(key); ok {
			w.Header().Set("X-Cache", "hit")
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	board, err := s.ranker.Rank(r.Context(), cfg, s.currentPrices(r.Context()))
	if err != nil {
		if r.Context().Err() != nil {
			return
		}
		writeError(w, statusFor(err), err)
		return
	}
	if top > 0 {
		trimmed := *board
		trimmed.Entries = board.Top(top)
		board = &trimmed
	}
	if key != "" {
		s.responses.SetDefault(key, board)
	}
	w.Header().Set("X-Cache", "miss")
	writeJSON(w, http.StatusOK, board)
}

// leaderboardKey hashes the normalised configuration so equivalent queries share a cache slot
func leaderboardKey(cfg models.PlayerConfig, top int) (string, error) {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	h := xxhash.New()
	_, _ = h.Write(raw)
	_, _ = fmt.Fprintf(h, "|top=%d", top)
	return "leaderboard:" + strconv.FormatUint(h.Sum64(), 16), nil
}

// GET /api/layout?mutation=Ashwreath or ?recipe=A=2,B=2&limit=16, optional cost=A=100
func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	tables := s.ranker.Tables()

	var (
		recipe models.Recipe
		limit  int
		err    error
	)
	switch {
	case values.Get("mutation") != "":
		m, err := tables.Mutation(values.Get("mutation"))
		if err != nil {
			writeError(w, statusFor(err), err)
			return
		}
		recipe = tables.LayoutRecipe(m.Name)
		limit = m.Limit
	case values.Get("recipe") != "":
		recipe, err = loader.ParseRecipe(values.Get("recipe"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, errors.New("mutation or recipe is required"))
		return
	}
	if raw := values.Get("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, &converter.ParamError{Param: "limit", Value: raw, Err: err})
			return
		}
	}

	if err := layout.CheckInput(recipe, limit); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	costs := s.ingredientCosts(r, recipe)
	override, err := converter.ParseCostList(values.Get("cost"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	for ing, c := range override {
		costs[ing] = c
	}

	res, err := layout.Optimize(recipe, limit, costs, s.blocked)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, converter.LayoutToResponse(res, s.blocked))
}

// ingredientCosts prices crops at NPC value and everything else from the feed
func (s *Server) ingredientCosts(r *http.Request, recipe models.Recipe) map[string]float64 {
	tables := s.ranker.Tables()
	prices := s.currentPrices(r.Context())
	costs := make(map[string]float64, len(recipe))
	for ing := range recipe {
		if npc, ok := tables.NPCPrice(ing); ok {
			costs[ing] = npc
			continue
		}
		costs[ing] = prices.SetupPrice(ing, s.cfg.Defaults.SetupMode)
	}
	return costs
}

// GET /api/profit?m=&x=&p=&tau=&g=&v=&c=
func (s *Server) handleProfit(w http.ResponseWriter, r *http.Request) {
	params, err := converter.QueryToProfitParams(r.URL.Query())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	rates, err := profit.ComputeRates(params)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, rates)
}

// publish drops cached responses and pushes board to every subscriber
func (s *Server) publish(board *ranking.Leaderboard) {
	s.responses.Flush()
	if err := s.hub.Broadcast(board); err != nil {
		s.logger.Warn("leaderboard broadcast failed", "error", err)
	}
}
