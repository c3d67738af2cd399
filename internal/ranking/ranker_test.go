package ranking

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/napolitain/solver-mutations/internal/loader"
	"github.com/napolitain/solver-mutations/internal/models"
)

func ptr[T any](v T) *T { return &v }

// testTables builds a tiny world:
// Alpha is a plain wheat mutation, Beta is destructive and needs a bazaar item,
// Gamma can never spawn.
func testTables() *models.Tables {
	t := models.NewTables()
	t.Crops["Wheat"] = &models.Crop{Name: "Wheat", NPCPrice: 6, Milestone: "Wheat"}
	t.Crops["Melon"] = &models.Crop{Name: "Melon", NPCPrice: 2, Milestone: "Melon"}
	t.CropOrder = []string{"Wheat", "Melon"}
	t.Milestones["Wheat"] = 1_000_000
	t.Milestones["Melon"] = 2_000_000
	t.Pseudo["Adjacent Crops"] = true

	t.Mutations["Alpha"] = &models.Mutation{Name: "Alpha", ProductID: "ALPHA", Limit: 4, GrowthStages: 2, Recipe: models.Recipe{"Wheat": 1}}
	t.Mutations["Beta"] = &models.Mutation{Name: "Beta", ProductID: "BETA", Limit: 2, Recipe: models.Recipe{"Gem": 1}}
	t.Mutations["Gamma"] = &models.Mutation{Name: "Gamma", ProductID: "GAMMA", Limit: 1, GrowthStages: 3, Recipe: models.Recipe{"Adjacent Crops": 0}}

	t.Drops["Alpha"] = map[string]float64{"Wheat": 10}
	t.Drops["Beta"] = map[string]float64{"Wheat": 5, "Melon": 20}
	t.Drops["Gamma"] = map[string]float64{}

	t.Overrides["Beta"] = models.Override{Destructive: true}
	t.Overrides["Gamma"] = models.Override{MutationChance: ptr(0.0)}
	return t
}

func testConfig() models.PlayerConfig {
	cfg := models.DefaultPlayerConfig()
	cfg.Plots = 1
	cfg.Fortune = 0
	return cfg
}

func testPrices() models.Prices {
	return models.Prices{
		"Alpha": {BuyPrice: 100, SellPrice: 80},
		"Gem":   {BuyPrice: 50, SellPrice: 40},
	}
}

func near(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Abs(b))
}

func TestRankProfitMode(t *testing.T) {
	r := NewRanker(testTables(), WithWorkers(2))
	cfg := testConfig()

	board, err := r.Rank(context.Background(), cfg, testPrices())
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(board.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(board.Entries))
	}

	order := []string{board.Entries[0].Mutation, board.Entries[1].Mutation, board.Entries[2].Mutation}
	if order[0] != "Alpha" || order[1] != "Gamma" || order[2] != "Beta" {
		t.Errorf("unexpected order %v", order)
	}

	tau := cfg.CycleTimeHours()
	mult := cfg.FortuneMultiplier()
	if !near(board.CycleTimeHours, tau) {
		t.Errorf("CycleTimeHours = %f, want %f", board.CycleTimeHours, tau)
	}

	alpha, _ := board.Find("Alpha")
	if alpha.SetupCost != 570 {
		t.Errorf("Alpha setup = %f, want 95 wheat at 6 = 570", alpha.SetupCost)
	}
	v := 10*mult*6 + 100
	harvestsPerHour := 4 / (1/0.25 + 2) / tau
	wantPPH := harvestsPerHour*v - 570/models.SetupLifespanHours
	if !near(alpha.ProfitPerHour, wantPPH) {
		t.Errorf("Alpha ProfitPerHour = %f, want %f", alpha.ProfitPerHour, wantPPH)
	}
	if !near(alpha.EstimatedTimeHours, 6*tau) {
		t.Errorf("Alpha EstimatedTimeHours = %f, want %f", alpha.EstimatedTimeHours, 6*tau)
	}
	if !near(alpha.Profit, alpha.ProfitPerHour*alpha.EstimatedTimeHours) {
		t.Error("Profit should equal ProfitPerHour * EstimatedTimeHours")
	}
	if alpha.Breakdown.GrowthStages != 2 || alpha.Breakdown.SpawnChance != 0.25 {
		t.Errorf("Alpha breakdown = %+v", alpha.Breakdown)
	}

	beta, _ := board.Find("Beta")
	if beta.SetupCost != 97*40 {
		t.Errorf("Beta setup = %f, want %d", beta.SetupCost, 97*40)
	}
	if beta.Breakdown.Rates.NetValue >= 0 {
		t.Errorf("Beta should pay setup every harvest, v_net = %f", beta.Breakdown.Rates.NetValue)
	}
	if !near(beta.Breakdown.Rates.NetValue, (5*6+20*2)*mult-97*40/2.0) {
		t.Errorf("Beta v_net = %f", beta.Breakdown.Rates.NetValue)
	}
	if beta.Breakdown.SetupCostPerHour != 0 {
		t.Error("destructive mutations do not amortise setup")
	}
	if beta.Breakdown.GrowthStages != 1 {
		t.Errorf("Beta growth stages = %d, want clamp to 1", beta.Breakdown.GrowthStages)
	}

	gamma, _ := board.Find("Gamma")
	if gamma.ProfitPerHour != 0 || gamma.EstimatedTimeHours != 0 {
		t.Errorf("Gamma should have zero rates: %+v", gamma)
	}
	if len(gamma.Warnings) == 0 {
		t.Error("Gamma should carry a warning")
	}
	if len(gamma.Breakdown.Ingredients) != 0 {
		t.Errorf("Gamma has no placed ingredients, got %v", gamma.Breakdown.Ingredients)
	}
}

func TestRankSetupModes(t *testing.T) {
	r := NewRanker(testTables())
	cfg := testConfig()
	cfg.SetupMode = models.SetupInstaBuy
	cfg.SellMode = models.SellInsta

	entry, err := r.Evaluate(cfg, testPrices(), "Beta")
	if err != nil {
		t.Fatal(err)
	}
	if entry.SetupCost != 97*50 {
		t.Errorf("insta buy should use buyPrice, setup = %f", entry.SetupCost)
	}

	entry, err = r.Evaluate(cfg, testPrices(), "Alpha")
	if err != nil {
		t.Fatal(err)
	}
	if entry.Breakdown.MutationValue != 80 {
		t.Errorf("insta sell should use sellPrice, got %f", entry.Breakdown.MutationValue)
	}
	if entry.SetupCost != 570 {
		t.Error("crops are always priced at NPC value")
	}
}

func TestRankSmartMode(t *testing.T) {
	r := NewRanker(testTables())
	cfg := testConfig()
	cfg.Mode = models.ModeSmart
	mult := cfg.FortuneMultiplier()

	board, err := r.Rank(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("Gamma has no drops and should be dropped, got %d entries", len(board.Entries))
	}

	beta := (5*2*mult/1_000_000*100 + 20*2*mult/2_000_000*100) * 1.2
	alpha := 10 * 4 * mult / 1_000_000 * 100
	if board.Entries[0].Mutation != "Alpha" || !near(board.Entries[0].Score, alpha) {
		t.Errorf("first = %s %f, want Alpha %f", board.Entries[0].Mutation, board.Entries[0].Score, alpha)
	}
	if board.Entries[1].Mutation != "Beta" || !near(board.Entries[1].Score, beta) {
		t.Errorf("second = %s %f, want Beta %f", board.Entries[1].Mutation, board.Entries[1].Score, beta)
	}

	cfg.MaxedCrops = []string{"wheat"}
	board, err = r.Rank(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(board.Entries) != 1 || board.Entries[0].Mutation != "Beta" {
		t.Fatalf("with wheat maxed only Beta should remain, got %+v", board.Entries)
	}
	if !near(board.Entries[0].Score, 20*2*mult/2_000_000*100) {
		t.Errorf("Beta score = %f", board.Entries[0].Score)
	}
}

func TestRankTargetMode(t *testing.T) {
	r := NewRanker(testTables())
	cfg := testConfig()
	cfg.Mode = models.ModeTarget
	cfg.TargetCrop = "melon"

	board, err := r.Rank(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(board.Entries) != 1 || board.Entries[0].Mutation != "Beta" {
		t.Fatalf("only Beta drops melons, got %+v", board.Entries)
	}
	if !near(board.Entries[0].Score, 20*2*cfg.FortuneMultiplier()) {
		t.Errorf("score = %f", board.Entries[0].Score)
	}

	cfg.TargetCrop = "Starfruit"
	if _, err := r.Rank(context.Background(), cfg, nil); !errors.Is(err, models.ErrUnknownCrop) {
		t.Errorf("expected ErrUnknownCrop, got %v", err)
	}
}

func TestRankSetupMode(t *testing.T) {
	r := NewRanker(testTables())
	cfg := testConfig()
	cfg.Mode = models.ModeSetup

	board, err := r.Rank(context.Background(), cfg, testPrices())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Gamma", "Alpha", "Beta"}
	for i, name := range want {
		if board.Entries[i].Mutation != name {
			t.Errorf("entry %d = %s, want %s", i, board.Entries[i].Mutation, name)
		}
	}
}

func TestRankInvalidConfig(t *testing.T) {
	r := NewRanker(testTables())
	cfg := testConfig()
	cfg.Plots = 7

	if _, err := r.Rank(context.Background(), cfg, nil); !errors.Is(err, models.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if _, err := r.Evaluate(testConfig(), nil, "Nope"); !errors.Is(err, models.ErrUnknownMutation) {
		t.Errorf("expected ErrUnknownMutation, got %v", err)
	}
}

func TestRankCanceled(t *testing.T) {
	r := NewRanker(testTables())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Rank(ctx, testConfig(), nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRankBoostWindow(t *testing.T) {
	r := NewRanker(testTables())
	cfg := testConfig()
	cfg.BatchIntervalHours = 24
	cfg.BoostCost = 240
	cfg.BoostedMutPrice = ptr(1000.0)

	entry, err := r.Evaluate(cfg, testPrices(), "Alpha")
	if err != nil {
		t.Fatal(err)
	}
	batch := entry.Breakdown.Rates.Batch
	if batch == nil {
		t.Fatal("expected batch rates")
	}
	if batch.BoostCostPerHour != 10 {
		t.Errorf("BoostCostPerHour = %f, want 10", batch.BoostCostPerHour)
	}
	boosted := 10*cfg.FortuneMultiplier()*6 + 1000
	if !near(batch.RevenuePerHour, batch.HarvestsPerHour*boosted) {
		t.Errorf("batch revenue should use the boosted mutation price")
	}
}

func TestRankEmbeddedTables(t *testing.T) {
	tables, err := loader.LoadEmbedded()
	if err != nil {
		t.Fatal(err)
	}
	r := NewRanker(tables)
	cfg := models.DefaultPlayerConfig()

	board, err := r.Rank(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Rank failed: %v", err)
	}
	if len(board.Entries) != len(tables.Mutations) {
		t.Errorf("profit mode should rank every mutation: %d of %d", len(board.Entries), len(tables.Mutations))
	}
	if len(board.Warnings) == 0 {
		t.Error("missing prices should be reported")
	}

	for i, e := range board.Entries {
		if i > 0 {
			prev := board.Entries[i-1]
			if prev.Score < e.Score || (prev.Score == e.Score && prev.Mutation > e.Mutation) {
				t.Errorf("entries %d and %d out of order", i-1, i)
			}
		}
		for _, v := range []float64{e.ProfitPerHour, e.Profit, e.SetupCost, e.EstimatedTimeHours} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("%s has non-finite output", e.Mutation)
			}
		}
		if e.EstimatedTimeHours > 0 && !near(e.Profit/e.EstimatedTimeHours, e.ProfitPerHour) {
			t.Errorf("%s: profit / estimated time != profit per hour", e.Mutation)
		}
		if e.Breakdown.GrowthStages < 1 {
			t.Errorf("%s: growth stages %d below 1", e.Mutation, e.Breakdown.GrowthStages)
		}
	}

	veil, ok := board.Find("Veilshroom")
	if !ok {
		t.Fatal("Veilshroom missing")
	}
	if veil.Breakdown.GrowthStages != 1 {
		t.Errorf("Veilshroom growth stages = %d, want 1", veil.Breakdown.GrowthStages)
	}
	amounts := map[string]int{}
	for _, ing := range veil.Breakdown.Ingredients {
		amounts[ing.Name] = ing.Amount
	}
	if amounts["Red Mushroom"] == 0 || amounts["Brown Mushroom"] == 0 {
		t.Errorf("Veilshroom should need both mushrooms, got %v", amounts)
	}

	shell, _ := board.Find("Shellfruit")
	amounts = map[string]int{}
	for _, ing := range shell.Breakdown.Ingredients {
		amounts[ing.Name] = ing.Amount
	}
	if amounts["Blastberry"] != 30 || amounts["Turtlellini"] != 30 || len(amounts) != 2 {
		t.Errorf("Shellfruit setup override not applied: %v", amounts)
	}
	if !shell.Breakdown.Destructive {
		t.Error("Shellfruit should be destructive")
	}

	god, _ := board.Find("Godseed")
	if god.SetupCost != 0 || len(god.Breakdown.Ingredients) != 0 {
		t.Errorf("Godseed has nothing to place: %+v", god.Breakdown.Ingredients)
	}
}

func TestRankEmbeddedTargetMushroom(t *testing.T) {
	tables, err := loader.LoadEmbedded()
	if err != nil {
		t.Fatal(err)
	}
	cfg := models.DefaultPlayerConfig()
	cfg.Mode = models.ModeTarget
	cfg.TargetCrop = "Mushroom"

	board, err := NewRanker(tables).Rank(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := board.Find("Veilshroom"); !ok {
		t.Error("Veilshroom drops mushrooms and should rank")
	}
	for _, e := range board.Entries {
		if tables.Drops[e.Mutation]["Red Mushroom"]+tables.Drops[e.Mutation]["Brown Mushroom"] <= 0 {
			t.Errorf("%s drops no mushrooms", e.Mutation)
		}
	}
}

func TestRankConcurrentCallers(t *testing.T) {
	r := NewRanker(testTables())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Rank(context.Background(), testConfig(), testPrices()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
}

func TestLayoutKey(t *testing.T) {
	recipe := models.Recipe{"A": 2, "B": 2}

	same1 := layoutKey(recipe, 52, map[string]float64{"A": 5, "B": 1})
	same2 := layoutKey(recipe, 52, map[string]float64{"A": 900, "B": 3})
	if same1 != same2 {
		t.Error("keys with the same cost order should match")
	}
	if layoutKey(recipe, 52, map[string]float64{"A": 1, "B": 1}) == same1 {
		t.Error("a tie must not share a key with a strict order")
	}
	if layoutKey(recipe, 52, map[string]float64{"A": 1, "B": 5}) == same1 {
		t.Error("reversed order must not share a key")
	}
	if layoutKey(recipe, 16, map[string]float64{"A": 5, "B": 1}) == same1 {
		t.Error("limit must be part of the key")
	}
}

func TestLayoutCacheReuse(t *testing.T) {
	r := NewRanker(testTables())
	cfg := testConfig()

	if _, err := r.Rank(context.Background(), cfg, testPrices()); err != nil {
		t.Fatal(err)
	}
	n := r.layouts.Len()
	if n != 2 {
		t.Errorf("expected 2 cached layouts (Alpha, Beta), got %d", n)
	}

	// different prices, same order
	prices := testPrices()
	prices["Gem"] = models.PriceQuote{BuyPrice: 7000, SellPrice: 6000}
	if _, err := r.Rank(context.Background(), cfg, prices); err != nil {
		t.Fatal(err)
	}
	if r.layouts.Len() != n {
		t.Errorf("cost changes that keep the order should hit the cache, %d != %d", r.layouts.Len(), n)
	}
}
