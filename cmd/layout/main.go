package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/napolitain/solver-mutations/internal/converter"
	"github.com/napolitain/solver-mutations/internal/loader"
	"github.com/napolitain/solver-mutations/internal/models"
	"github.com/napolitain/solver-mutations/internal/solver/layout"
)

var (
	dataDir  string
	mutation string
	recipe   string
	limit    int
	costs    []string
	noRepair bool
	quiet    bool
)

// palette cycles through distinct colours for ingredient tiles
var palette = []lipgloss.Color{"208", "39", "170", "220", "82", "203", "45", "141"}

var (
	producerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	blockedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "layout",
		Short: "Greenhouse Layout Optimizer",
		Long: `Places ingredient tiles on the 10x10 greenhouse grid so that the
required number of producers share neighbouring ingredients.`,
		RunE:         runLayout,
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVarP(&dataDir, "data", "d", "", "Path to data directory (empty uses the embedded tables)")
	rootCmd.Flags().StringVarP(&mutation, "mutation", "m", "", "Mutation to lay out")
	rootCmd.Flags().StringVarP(&recipe, "recipe", "r", "", `Custom recipe, e.g. "Nether Wart=2,Fire=2"`)
	rootCmd.Flags().IntVarP(&limit, "limit", "l", 0, "Producers to place (defaults to the mutation limit)")
	rootCmd.Flags().StringSliceVar(&costs, "cost", nil, "Ingredient unit cost, e.g. --cost Fire=30 (repeatable)")
	rootCmd.Flags().BoolVar(&noRepair, "no-repair", false, "Skip the local search after greedy construction")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the grid")

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

func runLayout(cmd *cobra.Command, args []string) error {
	titleColor := color.New(color.FgCyan, color.Bold)
	successColor := color.New(color.FgGreen, color.Bold)
	warnColor := color.New(color.FgYellow)

	tables, err := loader.Load(dataDir)
	if err != nil {
		return fmt.Errorf("failed to load tables: %w", err)
	}

	rec, lim, err := resolveRecipe(tables)
	if err != nil {
		return err
	}
	unitCosts, err := resolveCosts(tables, rec)
	if err != nil {
		return err
	}

	opts := layout.DefaultOptions()
	if noRepair {
		opts.MaxRepairPasses = 0
	}
	res, err := layout.OptimizeWithOptions(rec, lim, unitCosts, opts)
	if err != nil {
		return err
	}

	if quiet {
		fmt.Print(renderGrid(res.Grid))
		return nil
	}

	titleColor.Println("\n╭───────────────────────────╮")
	titleColor.Println("│  Greenhouse               │")
	titleColor.Println("│  Layout Optimizer         │")
	titleColor.Println("╰───────────────────────────╯")
	fmt.Println()
	fmt.Printf("📋 Recipe: %s   Producers: %d\n\n", formatRecipe(rec), lim)

	if res.Grid == nil {
		successColor.Printf("✓ No shared layout needed: %d ingredient tiles\n", res.TotalTiles())
		printLegend(os.Stdout, res, unitCosts)
		return nil
	}

	fmt.Println(renderGrid(res.Grid))
	printLegend(os.Stdout, res, unitCosts)
	fmt.Println()

	if res.Unmet == 0 {
		successColor.Printf("✓ Every producer is fully supplied after %d repair passes\n", res.RepairPasses)
	} else {
		warnColor.Printf("⚠ %d ingredient slots unmet after %d repair passes\n", res.Unmet, res.RepairPasses)
	}
	fmt.Printf("   Tiles: %d shared vs %d naive (%.1f%% saved)\n", res.TotalTiles(), res.NaiveTiles(), res.Savings()*100)
	fmt.Printf("   Setup cost: %s coins\n", humanize.CommafWithDigits(setupCost(res, unitCosts), 0))
	return nil
}

func resolveRecipe(tables *models.Tables) (models.Recipe, int, error) {
	switch {
	case mutation != "" && recipe != "":
		return nil, 0, fmt.Errorf("use either --mutation or --recipe")
	case mutation != "":
		m, err := tables.Mutation(mutation)
		if err != nil {
			return nil, 0, err
		}
		lim := m.Limit
		if limit > 0 {
			lim = limit
		}
		return tables.LayoutRecipe(m.Name), lim, nil
	case recipe != "":
		rec, err := loader.ParseRecipe(recipe)
		if err != nil {
			return nil, 0, err
		}
		if limit < 1 {
			return nil, 0, fmt.Errorf("--limit is required with --recipe")
		}
		return rec, limit, nil
	default:
		return nil, 0, fmt.Errorf("--mutation or --recipe is required")
	}
}

// resolveCosts prices crops at NPC value, then applies --cost overrides
func resolveCosts(tables *models.Tables, rec models.Recipe) (map[string]float64, error) {
	out := make(map[string]float64, len(rec))
	for ing := range rec {
		if npc, ok := tables.NPCPrice(ing); ok {
			out[ing] = npc
		}
	}
	overrides, err := converter.ParseCostList(strings.Join(costs, ","))
	if err != nil {
		return nil, err
	}
	for ing, c := range overrides {
		out[ing] = c
	}
	return out, nil
}

func setupCost(res *layout.Result, unitCosts map[string]float64) float64 {
	total := 0.0
	for ing, n := range res.TileCounts {
		total += float64(n) * unitCosts[ing]
	}
	return total
}

// renderGrid draws the grid with one coloured letter per ingredient
func renderGrid(g *layout.Grid) string {
	if g == nil {
		return ""
	}
	symbols := g.Symbols()
	styles := ingredientStyles(symbols)

	var sb strings.Builder
	for r := 0; r < g.Size; r++ {
		cells := make([]string, 0, g.Size)
		for c := 0; c < g.Size; c++ {
			t := g.At(layout.Coord{Row: r, Col: c})
			switch t.Kind {
			case layout.Producer:
				cells = append(cells, producerStyle.Render("P"))
			case layout.Blocked:
				cells = append(cells, blockedStyle.Render("#"))
			default:
				cells = append(cells, styles[t.Ingredient].Render(string(symbols[t.Ingredient])))
			}
		}
		sb.WriteString(strings.Join(cells, " "))
		sb.WriteString("\n")
	}
	return sb.String()
}

func ingredientStyles(symbols map[string]byte) map[string]lipgloss.Style {
	names := make([]string, 0, len(symbols))
	for name := range symbols {
		names = append(names, name)
	}
	sort.Strings(names)

	styles := make(map[string]lipgloss.Style, len(names))
	for i, name := range names {
		styles[name] = lipgloss.NewStyle().Foreground(palette[i%len(palette)])
	}
	return styles
}

func printLegend(w io.Writer, res *layout.Result, unitCosts map[string]float64) {
	var symbols map[string]byte
	if res.Grid != nil {
		symbols = res.Grid.Symbols()
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Symbol", "Ingredient", "Per Producer", "Tiles", "Naive", "Unit Cost", "Total"}),
	)
	for _, ing := range res.Recipe.Ingredients() {
		sym := "-"
		if s, ok := symbols[ing]; ok {
			sym = string(s)
		}
		tiles := res.TileCounts[ing]
		row := []string{
			sym,
			ing,
			fmt.Sprintf("%d", res.Recipe[ing]),
			fmt.Sprintf("%d", tiles),
			fmt.Sprintf("%d", res.Recipe[ing]*res.Limit),
			humanize.CommafWithDigits(unitCosts[ing], 1),
			humanize.CommafWithDigits(float64(tiles)*unitCosts[ing], 0),
		}
		_ = table.Append(row)
	}
	_ = table.Render()
}

func formatRecipe(rec models.Recipe) string {
	parts := make([]string, 0, len(rec))
	for _, ing := range rec.Ingredients() {
		parts = append(parts, fmt.Sprintf("%d× %s", rec[ing], ing))
	}
	if len(parts) == 0 {
		return "(none)"
	}
	return strings.Join(parts, ", ")
}
