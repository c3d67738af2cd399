package converter

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/napolitain/solver-mutations/internal/models"
	"github.com/napolitain/solver-mutations/internal/solver/layout"
	"github.com/napolitain/solver-mutations/internal/solver/profit"
)

// ParamError reports a malformed query parameter
type ParamError struct {
	Param string
	Value string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Param, e.Value, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

type query struct {
	values url.Values
	err    error
}

func (q *query) int(name string, dst *int) {
	raw := strings.TrimSpace(q.values.Get(name))
	if raw == "" || q.err != nil {
		return
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		q.err = &ParamError{Param: name, Value: raw, Err: err}
		return
	}
	*dst = v
}

func (q *query) float(name string, dst *float64) {
	raw := strings.TrimSpace(q.values.Get(name))
	if raw == "" || q.err != nil {
		return
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		q.err = &ParamError{Param: name, Value: raw, Err: err}
		return
	}
	*dst = v
}

func (q *query) optFloat(name string) *float64 {
	if strings.TrimSpace(q.values.Get(name)) == "" {
		return nil
	}
	var v float64
	q.float(name, &v)
	return &v
}

// QueryToPlayerConfig layers query parameters over base and validates the result
func QueryToPlayerConfig(values url.Values, base models.PlayerConfig) (models.PlayerConfig, error) {
	cfg := base
	q := &query{values: values}

	q.int("plots", &cfg.Plots)
	q.float("fortune", &cfg.Fortune)
	q.int("gh_upgrade", &cfg.GreenhouseUpgrade)
	q.int("unique_crops", &cfg.UniqueCrops)
	q.float("mutation_chance", &cfg.MutationChance)
	q.float("batch_interval_hours", &cfg.BatchIntervalHours)
	q.float("boost_cost", &cfg.BoostCost)
	if v := q.optFloat("boosted_mut_price"); v != nil {
		cfg.BoostedMutPrice = v
	}
	if q.err != nil {
		return cfg, q.err
	}

	var err error
	if raw := values.Get("mode"); raw != "" {
		if cfg.Mode, err = ParseScoreMode(raw); err != nil {
			return cfg, err
		}
	}
	if raw := values.Get("setup_mode"); raw != "" {
		if cfg.SetupMode, err = ParseSetupMode(raw); err != nil {
			return cfg, err
		}
	}
	if raw := values.Get("sell_mode"); raw != "" {
		if cfg.SellMode, err = ParseSellMode(raw); err != nil {
			return cfg, err
		}
	}
	if values.Has("target_crop") {
		cfg.TargetCrop = values.Get("target_crop")
	}
	if values.Has("maxed_crops") {
		cfg.MaxedCrops = SplitList(values.Get("maxed_crops"))
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// QueryToProfitParams reads m, x, p, tau, g, v, c and the boost fields
func QueryToProfitParams(values url.Values) (profit.Params, error) {
	p := profit.Params{Plots: 1, SpotsPerPlot: 1, Chance: models.DefaultMutationChance, CycleHours: models.BaseCycleHours}
	q := &query{values: values}

	q.int("m", &p.Plots)
	q.int("x", &p.SpotsPerPlot)
	q.float("p", &p.Chance)
	q.float("tau", &p.CycleHours)
	q.int("g", &p.GrowthCycles)
	q.float("v", &p.Value)
	q.float("c", &p.PerHarvestCost)
	p.BoostValue = q.optFloat("v_boost")
	q.float("boost_cost", &p.BoostCost)
	q.float("boost_hours", &p.BoostHours)
	if q.err != nil {
		return p, q.err
	}
	return p, p.Validate()
}

// ParseCostList parses "A=100,B=2.5" into unit costs
func ParseCostList(s string) (map[string]float64, error) {
	costs := make(map[string]float64)
	for _, part := range SplitList(s) {
		name, raw, ok := strings.Cut(part, "=")
		if !ok {
			return nil, &ParamError{Param: "cost", Value: part, Err: fmt.Errorf("want name=price")}
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, &ParamError{Param: "cost", Value: part, Err: err}
		}
		costs[strings.TrimSpace(name)] = v
	}
	return costs, nil
}

// TileCount is one ingredient total of a layout
type TileCount struct {
	Ingredient string `json:"ingredient"`
	Tiles      int    `json:"tiles"`
}

// LayoutResponse is the wire form of a layout result
type LayoutResponse struct {
	Recipe       models.Recipe     `json:"recipe"`
	Limit        int               `json:"limit"`
	TileCounts   []TileCount       `json:"tile_counts"`
	TotalTiles   int               `json:"total_tiles"`
	NaiveTiles   int               `json:"naive_tiles"`
	Savings      float64           `json:"savings"`
	Unmet        int               `json:"unmet"`
	Producers    int               `json:"producer_count"`
	RepairPasses int               `json:"repair_passes"`
	Blocked      []layout.Coord    `json:"blocked"`
	Grid         []string          `json:"grid,omitempty"`
	Legend       map[string]string `json:"legend,omitempty"`
}

// LayoutToResponse converts an optimizer result to its wire form
func LayoutToResponse(res *layout.Result, blocked []layout.Coord) LayoutResponse {
	out := LayoutResponse{
		Recipe:       res.Recipe,
		Limit:        res.Limit,
		TotalTiles:   res.TotalTiles(),
		NaiveTiles:   res.NaiveTiles(),
		Savings:      res.Savings(),
		Unmet:        res.Unmet,
		Producers:    res.Producers,
		RepairPasses: res.RepairPasses,
		Blocked:      blocked,
		TileCounts:   []TileCount{},
	}
	for ing, n := range res.TileCounts {
		out.TileCounts = append(out.TileCounts, TileCount{Ingredient: ing, Tiles: n})
	}
	sort.Slice(out.TileCounts, func(i, j int) bool {
		return out.TileCounts[i].Ingredient < out.TileCounts[j].Ingredient
	})

	if res.Grid != nil {
		out.Grid = strings.Split(strings.TrimRight(res.Grid.String(), "\n"), "\n")
		out.Legend = make(map[string]string)
		for name, sym := range res.Grid.Symbols() {
			out.Legend[string(sym)] = name
		}
	}
	return out
}
