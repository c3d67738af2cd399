package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/napolitain/solver-mutations/internal/converter"
	"github.com/napolitain/solver-mutations/internal/loader"
	"github.com/napolitain/solver-mutations/internal/logging"
	"github.com/napolitain/solver-mutations/internal/market"
	"github.com/napolitain/solver-mutations/internal/models"
	"github.com/napolitain/solver-mutations/internal/ranking"
)

var (
	dataDir     string
	configFile  string
	pricesFile  string
	offline     bool
	top         int
	quiet       bool
	interactive bool
	verbose     bool

	plots              int
	fortune            float64
	ghUpgrade          int
	uniqueCrops        int
	mode               string
	setupMode          string
	sellMode           string
	targetCrop         string
	maxedCrops         []string
	mutationChance     float64
	batchIntervalHours float64
	boostCost          float64
	boostedMutPrice    float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Greenhouse Mutation Profit Leaderboard",
		Long: `Ranks every greenhouse mutation for a player configuration using
current bazaar prices, shared-ingredient layouts and the renewal profit model.`,
		RunE:         runLeaderboard,
		SilenceUsage: true,
	}

	defaults := models.DefaultPlayerConfig()
	f := rootCmd.Flags()
	f.StringVarP(&dataDir, "data", "d", "", "Path to data directory (empty uses the embedded tables)")
	f.StringVarP(&configFile, "config", "c", "", "Path to YAML player config file")
	f.StringVarP(&pricesFile, "prices", "p", "", "Offline price snapshot (skips the bazaar API)")
	f.BoolVar(&offline, "offline", false, "Do not query the bazaar; bazaar items are valued at 0")
	f.IntVarP(&top, "top", "n", 15, "Number of entries to show (0 shows all)")
	f.BoolVarP(&quiet, "quiet", "q", false, "Minimal output")
	f.BoolVarP(&interactive, "interactive", "i", false, "Browse the leaderboard interactively")
	f.BoolVarP(&verbose, "verbose", "v", false, "Log diagnostics to stderr")

	f.IntVar(&plots, "plots", defaults.Plots, "Greenhouse plots (1-3)")
	f.Float64Var(&fortune, "fortune", defaults.Fortune, "Farming fortune (0-4000)")
	f.IntVar(&ghUpgrade, "gh-upgrade", defaults.GreenhouseUpgrade, "Greenhouse growth upgrade (0-9)")
	f.IntVar(&uniqueCrops, "unique-crops", defaults.UniqueCrops, "Unique crops placed (0-12)")
	f.StringVar(&mode, "mode", string(defaults.Mode), "Ranking mode: profit, smart, target, setup")
	f.StringVar(&setupMode, "setup-mode", string(defaults.SetupMode), "Ingredient pricing: buy_order or insta_buy")
	f.StringVar(&sellMode, "sell-mode", string(defaults.SellMode), "Output pricing: sell_offer or insta_sell")
	f.StringVar(&targetCrop, "target-crop", "", "Crop or milestone group for target mode")
	f.StringSliceVar(&maxedCrops, "maxed-crops", nil, "Milestone groups already maxed (smart mode)")
	f.Float64Var(&mutationChance, "mutation-chance", defaults.MutationChance, "Default spawn chance per cycle")
	f.Float64Var(&batchIntervalHours, "batch-interval-hours", 0, "Market boost window in hours (0 disables)")
	f.Float64Var(&boostCost, "boost-cost", 0, "Cost of one boost window")
	f.Float64Var(&boostedMutPrice, "boosted-mut-price", 0, "Mutation price while boosted")

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func runLeaderboard(cmd *cobra.Command, args []string) error {
	titleColor := color.New(color.FgCyan, color.Bold)
	infoColor := color.New(color.FgYellow)

	terminal := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	if !terminal {
		color.NoColor = true
		if interactive {
			infoColor.Fprintln(os.Stderr, "stdout is not a terminal, falling back to table output")
			interactive = false
		}
	}

	logOut := io.Discard
	if verbose {
		logOut = os.Stderr
	}
	logger := logging.New("debug", "text", logOut)

	if !quiet && !interactive {
		titleColor.Println("\n╭───────────────────────────────╮")
		titleColor.Println("│  Greenhouse Mutations         │")
		titleColor.Println("│  Profit Leaderboard           │")
		titleColor.Println("╰───────────────────────────────╯")
		fmt.Println()
	}

	tables, err := loader.Load(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load tables: %w", err)
	}

	cfg, err := playerConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	prices, source := loadPrices(ctx, tables, logger)

	if !quiet && !interactive {
		infoColor.Printf("📦 Loaded %d mutations, %d crops\n", len(tables.Mutations), len(tables.Crops))
		infoColor.Printf("💰 Prices: %s (%d items)\n\n", source, len(prices))
	}

	ranker := ranking.NewRanker(tables, ranking.WithLogger(logger))
	board, err := ranker.Rank(ctx, cfg, prices)
	if err != nil {
		return err
	}

	if interactive {
		return runInteractive(board)
	}
	if !quiet {
		printConfig(os.Stdout, board)
	}
	printLeaderboard(os.Stdout, board, top)
	if !quiet {
		printWarnings(os.Stdout, board)
	}
	return nil
}

// playerConfig layers explicitly set flags over the config file or the defaults
func playerConfig(cmd *cobra.Command) (models.PlayerConfig, error) {
	cfg := models.DefaultPlayerConfig()
	if configFile != "" {
		loaded, err := models.LoadPlayerConfig(configFile)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("plots") {
		cfg.Plots = plots
	}
	if f.Changed("fortune") {
		cfg.Fortune = fortune
	}
	if f.Changed("gh-upgrade") {
		cfg.GreenhouseUpgrade = ghUpgrade
	}
	if f.Changed("unique-crops") {
		cfg.UniqueCrops = uniqueCrops
	}
	if f.Changed("mutation-chance") {
		cfg.MutationChance = mutationChance
	}
	if f.Changed("target-crop") {
		cfg.TargetCrop = targetCrop
	}
	if f.Changed("maxed-crops") {
		cfg.MaxedCrops = maxedCrops
	}
	if f.Changed("batch-interval-hours") {
		cfg.BatchIntervalHours = batchIntervalHours
	}
	if f.Changed("boost-cost") {
		cfg.BoostCost = boostCost
	}
	if f.Changed("boosted-mut-price") {
		v := boostedMutPrice
		cfg.BoostedMutPrice = &v
	}

	var err error
	if f.Changed("mode") {
		if cfg.Mode, err = converter.ParseScoreMode(mode); err != nil {
			return cfg, err
		}
	}
	if f.Changed("setup-mode") {
		if cfg.SetupMode, err = converter.ParseSetupMode(setupMode); err != nil {
			return cfg, err
		}
	}
	if f.Changed("sell-mode") {
		if cfg.SellMode, err = converter.ParseSellMode(sellMode); err != nil {
			return cfg, err
		}
	}

	cfg.Normalize()
	return cfg, cfg.Validate()
}

// loadPrices returns the prices and a label describing where they came from
func loadPrices(ctx context.Context, tables *models.Tables, logger *slog.Logger) (models.Prices, string) {
	if pricesFile != "" {
		prices, err := market.NewSnapshot(pricesFile).Load()
		if err != nil {
			color.Yellow("Warning: could not read %s: %v", pricesFile, err)
			return models.Prices{}, "none"
		}
		return prices, pricesFile
	}
	if offline {
		return models.Prices{}, "offline"
	}

	bazaar := market.NewBazaarClient(tables.ProductIDs, market.WithBazaarLogger(logger))
	prices, err := market.NewCachedSource(bazaar, market.WithLogger(logger)).Prices(ctx)
	if err != nil || len(prices) == 0 {
		color.Yellow("Warning: bazaar unavailable, bazaar items valued at 0")
		return models.Prices{}, "none"
	}
	return prices, "bazaar"
}
