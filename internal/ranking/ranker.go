// Package ranking evaluates every mutation for a player configuration and
// orders them by the selected score.
package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/napolitain/solver-mutations/internal/models"
	"github.com/napolitain/solver-mutations/internal/solver/layout"
	"github.com/napolitain/solver-mutations/internal/solver/profit"
)

// Ranker ranks mutations against static tables.
// It is safe for concurrent use.
type Ranker struct {
	tables  *models.Tables
	layouts *LayoutCache
	workers int
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Ranker
type Option func(*Ranker)

// WithWorkers sets the number of goroutines evaluating mutations
func WithWorkers(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger used for per-mutation warnings
func WithLogger(l *slog.Logger) Option {
	return func(r *Ranker) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithLayoutCache shares a layout cache between rankers
func WithLayoutCache(c *LayoutCache) Option {
	return func(r *Ranker) {
		if c != nil {
			r.layouts = c
		}
	}
}

// NewRanker creates a ranker over tables
func NewRanker(tables *models.Tables, opts ...Option) *Ranker {
	r := &Ranker{
		tables:  tables,
		workers: runtime.GOMAXPROCS(0),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.layouts == nil {
		r.layouts = NewLayoutCache(DefaultLayoutTTL, layout.DefaultBlocked())
	}
	return r
}

// Tables returns the tables the ranker reads
func (r *Ranker) Tables() *models.Tables {
	return r.tables
}

// Rank evaluates every mutation and sorts the result by cfg.Mode.
// A mutation that cannot be evaluated ranks with zero rates and a warning.
func (r *Ranker) Rank(ctx context.Context, cfg models.PlayerConfig, prices models.Prices) (*Leaderboard, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scorer, err := r.newScorer(cfg)
	if err != nil {
		return nil, err
	}

	names := r.tables.MutationNames()
	entries, err := r.evaluateAll(ctx, cfg, prices, names)
	if err != nil {
		return nil, err
	}

	kept := entries[:0]
	for _, e := range entries {
		e.Score = scorer.score(&e)
		if scorer.dropZero && e.Score == 0 {
			continue
		}
		kept = append(kept, e)
	}
	sortEntries(kept, scorer.ascending)

	board := &Leaderboard{
		CycleTimeHours:      cfg.CycleTimeHours(),
		TotalCyclesPerBatch: cfg.CyclesPerLifespan(),
		Config:              cfg,
		Entries:             kept,
		GeneratedAt:         r.now(),
	}
	if len(prices) == 0 {
		board.Warnings = append(board.Warnings, "no market prices available, bazaar items valued at 0")
	}
	return board, nil
}

// Evaluate computes a single mutation entry without ranking it
func (r *Ranker) Evaluate(cfg models.PlayerConfig, prices models.Prices, name string) (*Entry, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := r.tables.Mutation(name); err != nil {
		return nil, err
	}
	scorer, err := r.newScorer(cfg)
	if err != nil {
		return nil, err
	}
	e := r.evaluate(cfg, prices, name)
	e.Score = scorer.score(&e)
	return &e, nil
}

// evaluateAll fans mutations out over a fixed worker pool
func (r *Ranker) evaluateAll(ctx context.Context, cfg models.PlayerConfig, prices models.Prices, names []string) ([]Entry, error) {
	numWorkers := r.workers
	if numWorkers > len(names) {
		numWorkers = len(names)
	}

	nameCh := make(chan int, len(names))
	for i := range names {
		nameCh <- i
	}
	close(nameCh)

	entries := make([]Entry, len(names))
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range nameCh {
				if ctx.Err() != nil {
					return
				}
				entries[idx] = r.evaluate(cfg, prices, names[idx])
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *Ranker) evaluate(cfg models.PlayerConfig, prices models.Prices, name string) Entry {
	m := r.tables.Mutations[name]
	limit := m.Limit * cfg.Plots
	entry := Entry{Mutation: name, Limit: limit}
	bd := &entry.Breakdown

	unitPrices := r.ingredientPrices(m.Recipe, prices, cfg.SetupMode)
	amounts, unmet, err := r.setupAmounts(name, m.Limit, cfg.Plots, unitPrices)
	if err != nil {
		r.logger.Warn("layout failed", "mutation", name, "error", err)
		entry.Warnings = append(entry.Warnings, fmt.Sprintf("layout failed: %v", err))
	}
	if unmet > 0 {
		entry.Warnings = append(entry.Warnings, fmt.Sprintf("layout leaves %d ingredient units unmet per plot", unmet))
	}
	bd.LayoutUnmet = unmet

	for _, ing := range sortedKeys(amounts) {
		if _, ok := unitPrices[ing]; !ok {
			r.priceInto(unitPrices, ing, prices, cfg.SetupMode)
		}
		amount := amounts[ing]
		unit := unitPrices[ing]
		bd.Ingredients = append(bd.Ingredients, IngredientLine{
			Name:      ing,
			Amount:    amount,
			UnitPrice: unit,
			Total:     unit * float64(amount),
		})
		entry.SetupCost += unit * float64(amount)
	}

	mult := cfg.FortuneMultiplier()
	special := r.tables.SpecialMultiplier(name)
	bd.Yields = make(map[string]float64)
	for _, crop := range r.tables.CropOrder {
		drop := r.tables.Drops[name][crop]
		if drop <= 0 {
			continue
		}
		items := drop * mult * special
		bd.Yields[crop] = items
		npc, _ := r.tables.NPCPrice(crop)
		bd.CropValue += items * npc
	}
	bd.MutationValue = prices.SalePrice(name, cfg.SellMode)

	bd.GrowthStages = r.tables.GrowthStages(name)
	bd.SpawnChance = r.tables.SpawnChance(name, cfg.MutationChance)
	bd.Destructive = r.tables.IsDestructive(name)

	params := profit.Params{
		Plots:        cfg.Plots,
		SpotsPerPlot: m.Limit,
		Chance:       bd.SpawnChance,
		CycleHours:   cfg.CycleTimeHours(),
		GrowthCycles: bd.GrowthStages,
		Value:        bd.CropValue + bd.MutationValue,
	}
	if bd.Destructive {
		params.PerHarvestCost = entry.SetupCost / float64(limit)
	} else {
		bd.SetupCostPerHour = entry.SetupCost / models.SetupLifespanHours
	}
	if cfg.BatchIntervalHours > 0 {
		params.BoostHours = cfg.BatchIntervalHours
		params.BoostCost = cfg.BoostCost
		if cfg.BoostedMutPrice != nil {
			boosted := bd.CropValue + *cfg.BoostedMutPrice
			params.BoostValue = &boosted
		}
	}

	bd.Rates = r.rates(name, params)
	entry.Warnings = append(entry.Warnings, bd.Rates.Warnings...)

	entry.ProfitPerHour = bd.Rates.ProfitPerHour - bd.SetupCostPerHour
	entry.EstimatedTimeHours = bd.Rates.HoursPerHarvestPerSpot
	bd.EstimatedTimeHours = entry.EstimatedTimeHours
	entry.Profit = entry.ProfitPerHour * entry.EstimatedTimeHours
	return entry
}

// rates never fails; bad parameters degrade to zero rates
func (r *Ranker) rates(name string, params profit.Params) *profit.Rates {
	if params.Chance <= 0 {
		return profit.Zero(fmt.Sprintf("%s has no spawn chance, rates set to 0", name))
	}
	rates, err := profit.ComputeRates(params)
	if err != nil {
		r.logger.Warn("profit model rejected parameters", "mutation", name, "error", err)
		return profit.Zero(fmt.Sprintf("profit model rejected parameters: %v", err))
	}
	return rates
}

// ingredientPrices prices every recipe entry: raw crops at NPC price,
// everything else from the bazaar by setup mode, placeholders at 0
func (r *Ranker) ingredientPrices(recipe models.Recipe, prices models.Prices, mode models.SetupMode) map[string]float64 {
	out := make(map[string]float64, len(recipe))
	for ing := range recipe {
		r.priceInto(out, ing, prices, mode)
	}
	return out
}

func (r *Ranker) priceInto(out map[string]float64, ing string, prices models.Prices, mode models.SetupMode) {
	if r.tables.Pseudo[ing] {
		out[ing] = 0
		return
	}
	if npc, ok := r.tables.NPCPrice(ing); ok {
		out[ing] = npc
		return
	}
	out[ing] = prices.SetupPrice(ing, mode)
}

// setupAmounts returns ingredient amounts across all plots and the per-plot unmet demand
func (r *Ranker) setupAmounts(name string, baseLimit, plots int, unitPrices map[string]float64) (map[string]int, int, error) {
	amounts := make(map[string]int)

	if fixed, ok := r.tables.SetupPerPlot(name); ok {
		for ing, qty := range fixed {
			if qty > 0 {
				amounts[ing] = qty * plots
			}
		}
		return amounts, 0, nil
	}

	recipe := r.tables.LayoutRecipe(name)
	if recipe.Total() == 0 {
		return amounts, 0, nil
	}

	res, err := r.layouts.get(recipe, baseLimit, unitPrices)
	if err != nil {
		return amounts, 0, err
	}
	for ing, n := range res.counts {
		amounts[ing] = n * plots
	}
	return amounts, res.unmet, nil
}

func sortEntries(entries []Entry, ascending bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			if ascending {
				return a.Score < b.Score
			}
			return a.Score > b.Score
		}
		return a.Mutation < b.Mutation
	})
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
