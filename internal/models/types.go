package models

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnknownMutation = errors.New("unknown mutation")
	ErrUnknownCrop     = errors.New("unknown crop")
	ErrInvalidConfig   = errors.New("invalid config")
)

// ScoreMode selects how the leaderboard orders mutations
type ScoreMode string

const (
	ModeProfit ScoreMode = "profit"
	ModeSmart  ScoreMode = "smart"
	ModeTarget ScoreMode = "target"
	ModeSetup  ScoreMode = "setup"
)

// AllScoreModes returns all score modes in display order
func AllScoreModes() []ScoreMode {
	return []ScoreMode{ModeProfit, ModeSmart, ModeTarget, ModeSetup}
}

// SetupMode selects which bazaar price is paid for ingredients
type SetupMode string

const (
	// SetupBuyOrder pays the buy order price (quick_status.sellPrice)
	SetupBuyOrder SetupMode = "buy_order"
	// SetupInstaBuy pays the insta-buy price (quick_status.buyPrice)
	SetupInstaBuy SetupMode = "insta_buy"
)

// SellMode selects which bazaar price is received for harvested mutations
type SellMode string

const (
	// SellOffer lists a sell offer at the insta-buy price (quick_status.buyPrice)
	SellOffer SellMode = "sell_offer"
	// SellInsta sells instantly into buy orders (quick_status.sellPrice)
	SellInsta SellMode = "insta_sell"
)

// Recipe maps an ingredient name to the quantity one mutation needs around it.
// A quantity of 0 marks a non-consuming dependency.
type Recipe map[string]int

// Total returns the sum of positive quantities
func (r Recipe) Total() int {
	total := 0
	for _, qty := range r {
		if qty > 0 {
			total += qty
		}
	}
	return total
}

// Ingredients returns ingredient names with a positive quantity, sorted
func (r Recipe) Ingredients() []string {
	names := make([]string, 0, len(r))
	for name, qty := range r {
		if qty > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy of the recipe
func (r Recipe) Clone() Recipe {
	out := make(Recipe, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Mutation is one rankable mutation definition
type Mutation struct {
	Name         string
	ProductID    string
	Limit        int // placements on a single plot
	GrowthStages int
	Recipe       Recipe
}

// Crop is a raw crop dropped by mutations
type Crop struct {
	Name      string
	NPCPrice  float64
	Milestone string
}

// Override holds per-mutation parameters layered over the base tables
type Override struct {
	GrowthStages      *int           `yaml:"growth_stages"`
	SpecialMultiplier *float64       `yaml:"special_multiplier"`
	MutationChance    *float64       `yaml:"mutation_chance"`
	Destructive       bool           `yaml:"destructive"`
	SetupPerPlot      map[string]int `yaml:"setup_per_plot"`
}

// PriceQuote is a bazaar quick_status pair.
// BuyPrice is the insta-buy price, SellPrice the insta-sell price.
type PriceQuote struct {
	BuyPrice  float64 `json:"buyPrice"`
	SellPrice float64 `json:"sellPrice"`
}

// Prices maps item name to its quote
type Prices map[string]PriceQuote

// Quote returns the quote for an item, zero when unknown
func (p Prices) Quote(name string) PriceQuote {
	if p == nil {
		return PriceQuote{}
	}
	return p[name]
}

// SetupPrice returns what one unit of an item costs under the setup mode
func (p Prices) SetupPrice(name string, mode SetupMode) float64 {
	q := p.Quote(name)
	if mode == SetupInstaBuy {
		return q.BuyPrice
	}
	return q.SellPrice
}

// SalePrice returns what one unit of an item earns under the sell mode
func (p Prices) SalePrice(name string, mode SellMode) float64 {
	q := p.Quote(name)
	if mode == SellInsta {
		return q.SellPrice
	}
	return q.BuyPrice
}

// Tables is the immutable set of static lookup tables loaded at startup
type Tables struct {
	Mutations  map[string]*Mutation
	Crops      map[string]*Crop
	CropOrder  []string                      // drop table column order
	Drops      map[string]map[string]float64 // mutation -> crop -> base drops per harvest
	Milestones map[string]float64            // milestone group -> collection requirement
	Overrides  map[string]Override
	ProductIDs map[string]string // every bazaar-priced item, mutations included
	Pseudo     map[string]bool   // recipe entries that are never placed on the grid
}

// NewTables returns empty tables ready to be filled by a loader
func NewTables() *Tables {
	return &Tables{
		Mutations:  make(map[string]*Mutation),
		Crops:      make(map[string]*Crop),
		Drops:      make(map[string]map[string]float64),
		Milestones: make(map[string]float64),
		Overrides:  make(map[string]Override),
		ProductIDs: make(map[string]string),
		Pseudo:     make(map[string]bool),
	}
}

// MutationNames returns all mutation names sorted
func (t *Tables) MutationNames() []string {
	names := make([]string, 0, len(t.Mutations))
	for name := range t.Mutations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Mutation looks up a mutation by name
func (t *Tables) Mutation(name string) (*Mutation, error) {
	m, ok := t.Mutations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMutation, name)
	}
	return m, nil
}

// LayoutRecipe returns the recipe entries that occupy grid tiles
func (t *Tables) LayoutRecipe(name string) Recipe {
	m, ok := t.Mutations[name]
	if !ok {
		return Recipe{}
	}
	out := make(Recipe, len(m.Recipe))
	for ing, qty := range m.Recipe {
		if qty <= 0 || t.Pseudo[ing] {
			continue
		}
		out[ing] = qty
	}
	return out
}

// GrowthStages returns the growth delay in cycles.
// The override wins over the table value and the result is never below 1.
func (t *Tables) GrowthStages(name string) int {
	stages := 0
	if m, ok := t.Mutations[name]; ok {
		stages = m.GrowthStages
	}
	if o, ok := t.Overrides[name]; ok && o.GrowthStages != nil {
		stages = *o.GrowthStages
	}
	if stages < 1 {
		stages = 1
	}
	return stages
}

// SpecialMultiplier returns the drop multiplier for a mutation, 1 by default
func (t *Tables) SpecialMultiplier(name string) float64 {
	if o, ok := t.Overrides[name]; ok && o.SpecialMultiplier != nil {
		return *o.SpecialMultiplier
	}
	return 1
}

// SpawnChance returns the override spawn chance or the fallback
func (t *Tables) SpawnChance(name string, fallback float64) float64 {
	if o, ok := t.Overrides[name]; ok && o.MutationChance != nil {
		return *o.MutationChance
	}
	return fallback
}

// IsDestructive reports whether harvesting destroys the surrounding ingredients
func (t *Tables) IsDestructive(name string) bool {
	return t.Overrides[name].Destructive
}

// SetupPerPlot returns a fixed per-plot ingredient list replacing the layout, if any
func (t *Tables) SetupPerPlot(name string) (map[string]int, bool) {
	o, ok := t.Overrides[name]
	if !ok || len(o.SetupPerPlot) == 0 {
		return nil, false
	}
	return o.SetupPerPlot, true
}

// MilestoneGroups returns all milestone group names sorted
func (t *Tables) MilestoneGroups() []string {
	groups := make([]string, 0, len(t.Milestones))
	for g := range t.Milestones {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// CropsInGroup returns the crops that count toward a milestone group, in column order
func (t *Tables) CropsInGroup(group string) []string {
	var out []string
	for _, name := range t.CropOrder {
		if c, ok := t.Crops[name]; ok && c.Milestone == group {
			out = append(out, name)
		}
	}
	return out
}

// GroupDrop returns the base drops of a mutation for a milestone group
func (t *Tables) GroupDrop(mutation, group string) float64 {
	total := 0.0
	for _, crop := range t.CropsInGroup(group) {
		total += t.Drops[mutation][crop]
	}
	return total
}

// NPCPrice returns the NPC price of a crop and whether it is a known crop
func (t *Tables) NPCPrice(name string) (float64, bool) {
	c, ok := t.Crops[name]
	if !ok {
		return 0, false
	}
	return c.NPCPrice, true
}
