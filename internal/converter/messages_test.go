package converter

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/napolitain/solver-mutations/internal/models"
	"github.com/napolitain/solver-mutations/internal/solver/layout"
	"github.com/napolitain/solver-mutations/internal/solver/profit"
)

func TestQueryToPlayerConfigDefaults(t *testing.T) {
	cfg, err := QueryToPlayerConfig(url.Values{}, models.DefaultPlayerConfig())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPlayerConfig(), cfg)
}

func TestQueryToPlayerConfig(t *testing.T) {
	values := url.Values{
		"plots":                {"2"},
		"fortune":              {"1800.4"},
		"gh_upgrade":           {"5"},
		"unique_crops":         {"6"},
		"mode":                 {"target"},
		"setup_mode":           {"insta_buy"},
		"sell_mode":            {"insta_sell"},
		"target_crop":          {" Mushroom "},
		"maxed_crops":          {"Wheat,Carrot"},
		"mutation_chance":      {"0.3"},
		"batch_interval_hours": {"24"},
		"boost_cost":           {"1000"},
		"boosted_mut_price":    {"99"},
	}

	cfg, err := QueryToPlayerConfig(values, models.DefaultPlayerConfig())
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Plots)
	assert.Equal(t, 1800.0, cfg.Fortune, "fortune is rounded")
	assert.Equal(t, 5, cfg.GreenhouseUpgrade)
	assert.Equal(t, 6, cfg.UniqueCrops)
	assert.Equal(t, models.ModeTarget, cfg.Mode)
	assert.Equal(t, models.SetupInstaBuy, cfg.SetupMode)
	assert.Equal(t, models.SellInsta, cfg.SellMode)
	assert.Equal(t, "Mushroom", cfg.TargetCrop)
	assert.Equal(t, []string{"Wheat", "Carrot"}, cfg.MaxedCrops)
	assert.Equal(t, 0.3, cfg.MutationChance)
	assert.Equal(t, 24.0, cfg.BatchIntervalHours)
	assert.Equal(t, 1000.0, cfg.BoostCost)
	require.NotNil(t, cfg.BoostedMutPrice)
	assert.Equal(t, 99.0, *cfg.BoostedMutPrice)
}

func TestQueryToPlayerConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
	}{
		{"plots not a number", url.Values{"plots": {"three"}}},
		{"plots out of range", url.Values{"plots": {"4"}}},
		{"gh upgrade out of range", url.Values{"gh_upgrade": {"10"}}},
		{"unknown mode", url.Values{"mode": {"chaos"}}},
		{"target without crop", url.Values{"mode": {"target"}}},
		{"chance above one", url.Values{"mutation_chance": {"1.5"}}},
		{"bad boost price", url.Values{"boosted_mut_price": {"lots"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := QueryToPlayerConfig(tt.values, models.DefaultPlayerConfig())
			assert.Error(t, err)
		})
	}

	_, err := QueryToPlayerConfig(url.Values{"fortune": {"x"}}, models.DefaultPlayerConfig())
	var pe *ParamError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "fortune", pe.Param)
}

func TestQueryToProfitParams(t *testing.T) {
	values := url.Values{
		"m": {"3"}, "x": {"16"}, "p": {"0.25"}, "tau": {"2"}, "g": {"10"}, "v": {"50000"},
		"c": {"10"}, "v_boost": {"60000"}, "boost_cost": {"5"}, "boost_hours": {"12"},
	}
	p, err := QueryToProfitParams(values)
	require.NoError(t, err)

	assert.Equal(t, 3, p.Plots)
	assert.Equal(t, 16, p.SpotsPerPlot)
	assert.Equal(t, 0.25, p.Chance)
	assert.Equal(t, 2.0, p.CycleHours)
	assert.Equal(t, 10, p.GrowthCycles)
	assert.Equal(t, 50000.0, p.Value)
	assert.Equal(t, 10.0, p.PerHarvestCost)
	require.NotNil(t, p.BoostValue)
	assert.Equal(t, 60000.0, *p.BoostValue)
	assert.Equal(t, 12.0, p.BoostHours)

	_, err = QueryToProfitParams(url.Values{"p": {"0"}})
	assert.ErrorIs(t, err, profit.ErrInvalidParams)

	_, err = QueryToProfitParams(url.Values{"g": {"1.5"}})
	var pe *ParamError
	assert.ErrorAs(t, err, &pe)
}

func TestParseCostList(t *testing.T) {
	costs, err := ParseCostList("Fire=100, Nether Wart=4.5")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"Fire": 100, "Nether Wart": 4.5}, costs)

	_, err = ParseCostList("Fire")
	assert.Error(t, err)
	_, err = ParseCostList("Fire=cheap")
	assert.Error(t, err)
}

func TestLayoutToResponse(t *testing.T) {
	res, err := layout.Optimize(models.Recipe{"Nether Wart": 2, "Fire": 2}, 52, nil, layout.DefaultBlocked())
	require.NoError(t, err)

	out := LayoutToResponse(res, layout.DefaultBlocked())
	assert.Equal(t, 47, out.TotalTiles)
	assert.Equal(t, 208, out.NaiveTiles)
	assert.Equal(t, 52, out.Producers)
	assert.Len(t, out.Grid, layout.GridSize)
	require.Len(t, out.TileCounts, 2)
	assert.Equal(t, "Fire", out.TileCounts[0].Ingredient)
	assert.Equal(t, "Nether Wart", out.Legend["N"])

	trivial, err := layout.Optimize(models.Recipe{"Wheat": 1}, 99, nil, layout.DefaultBlocked())
	require.NoError(t, err)
	out = LayoutToResponse(trivial, layout.DefaultBlocked())
	assert.Nil(t, out.Grid)
	assert.Equal(t, []TileCount{{Ingredient: "Wheat", Tiles: 99}}, out.TileCounts)
}
