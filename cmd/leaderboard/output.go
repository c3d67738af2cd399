package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/napolitain/solver-mutations/internal/models"
	"github.com/napolitain/solver-mutations/internal/ranking"
)

func printConfig(w io.Writer, board *ranking.Leaderboard) {
	infoColor := color.New(color.FgYellow)
	cfg := board.Config

	infoColor.Fprintln(w, "📊 Player:")
	fmt.Fprintf(w, "   Plots: %d   Fortune: %s   GH upgrade: %d   Unique crops: %d\n",
		cfg.Plots, humanize.Comma(int64(cfg.Fortune)), cfg.GreenhouseUpgrade, cfg.UniqueCrops)
	fmt.Fprintf(w, "   Mode: %s   Setup: %s   Sell: %s\n", cfg.Mode, cfg.SetupMode, cfg.SellMode)
	if cfg.Mode == models.ModeTarget {
		fmt.Fprintf(w, "   Target: %s\n", cfg.TargetCrop)
	}
	if len(cfg.MaxedCrops) > 0 {
		fmt.Fprintf(w, "   Maxed: %s\n", strings.Join(cfg.MaxedCrops, ", "))
	}
	fmt.Fprintf(w, "   Cycle: %s   Cycles per setup: %.1f\n\n",
		formatHours(board.CycleTimeHours), board.TotalCyclesPerBatch)
}

func printLeaderboard(w io.Writer, board *ranking.Leaderboard, n int) {
	entries := board.Top(n)
	if len(entries) == 0 {
		color.New(color.FgRed).Fprintln(w, "No mutation scored above zero for this configuration.")
		return
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"#", "Mutation", scoreHeader(board.Config.Mode), "Profit/h", "Setup", "Time", "Limit", "Unmet"}),
	)
	for i, e := range entries {
		row := []string{
			fmt.Sprintf("%d", i+1),
			e.Mutation,
			formatScore(board.Config.Mode, e.Score),
			formatCoins(e.ProfitPerHour),
			formatCoins(e.SetupCost),
			formatHours(e.EstimatedTimeHours),
			fmt.Sprintf("%d", e.Limit),
			fmt.Sprintf("%d", e.Breakdown.LayoutUnmet),
		}
		_ = table.Append(row)
	}
	_ = table.Render()
}

func printWarnings(w io.Writer, board *ranking.Leaderboard) {
	warnColor := color.New(color.FgYellow)
	for _, msg := range board.Warnings {
		warnColor.Fprintf(w, "⚠ %s\n", msg)
	}
	for _, e := range board.Entries {
		for _, msg := range e.Warnings {
			warnColor.Fprintf(w, "⚠ %s: %s\n", e.Mutation, msg)
		}
	}
}

// formatBreakdown renders the detail view of one entry
func formatBreakdown(e ranking.Entry) string {
	var sb strings.Builder
	b := e.Breakdown

	fmt.Fprintf(&sb, "%s\n\n", e.Mutation)
	fmt.Fprintf(&sb, "Profit/h     %s\n", formatCoins(e.ProfitPerHour))
	fmt.Fprintf(&sb, "Profit       %s over %s\n", formatCoins(e.Profit), formatHours(e.EstimatedTimeHours))
	fmt.Fprintf(&sb, "Setup        %s (%s/h)\n", formatCoins(e.SetupCost), formatCoins(b.SetupCostPerHour))
	fmt.Fprintf(&sb, "Spawn        %.2f%%  growth %d  limit %d\n", b.SpawnChance*100, b.GrowthStages, e.Limit)
	if b.Destructive {
		sb.WriteString("Destructive  setup is consumed by every harvest\n")
	}
	if b.LayoutUnmet > 0 {
		fmt.Fprintf(&sb, "Layout       %d ingredient slots unmet\n", b.LayoutUnmet)
	}

	if len(b.Ingredients) > 0 {
		sb.WriteString("\nIngredients\n")
		for _, ing := range b.Ingredients {
			fmt.Fprintf(&sb, "  %-22s x%-5d %s\n", ing.Name, ing.Amount, formatCoins(ing.Total))
		}
	}

	if len(b.Yields) > 0 {
		sb.WriteString("\nDrops per harvest\n")
		crops := make([]string, 0, len(b.Yields))
		for crop := range b.Yields {
			crops = append(crops, crop)
		}
		sort.Strings(crops)
		for _, crop := range crops {
			fmt.Fprintf(&sb, "  %-22s %s\n", crop, humanize.CommafWithDigits(b.Yields[crop], 1))
		}
	}

	for _, msg := range e.Warnings {
		fmt.Fprintf(&sb, "\n⚠ %s", msg)
	}
	return sb.String()
}

func scoreHeader(mode models.ScoreMode) string {
	switch mode {
	case models.ModeSmart:
		return "Milestone"
	case models.ModeTarget:
		return "Items/h"
	case models.ModeSetup:
		return "Setup"
	default:
		return "Score"
	}
}

func formatScore(mode models.ScoreMode, v float64) string {
	switch mode {
	case models.ModeSmart:
		return fmt.Sprintf("%.4f%%", v*100)
	case models.ModeTarget:
		return humanize.CommafWithDigits(v, 1)
	default:
		return formatCoins(v)
	}
}

// formatCoins renders whole coins with thousands separators, compacting very large values
func formatCoins(v float64) string {
	switch {
	case math.IsNaN(v):
		return "-"
	case math.Abs(v) >= 1e12:
		return humanize.SIWithDigits(v, 2, "")
	default:
		return humanize.CommafWithDigits(math.Round(v), 0)
	}
}

func formatHours(h float64) string {
	switch {
	case h <= 0 || math.IsNaN(h):
		return "-"
	case h < 1:
		return fmt.Sprintf("%.0fm", h*60)
	case h < 48:
		return fmt.Sprintf("%.1fh", h)
	case h < 24*365:
		days := math.Floor(h / 24)
		return fmt.Sprintf("%.0fd %.0fh", days, h-days*24)
	default:
		return humanize.SIWithDigits(h/24, 1, "d")
	}
}
