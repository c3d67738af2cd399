package ranking

import (
	"time"

	"github.com/napolitain/solver-mutations/internal/models"
	"github.com/napolitain/solver-mutations/internal/solver/profit"
)

// IngredientLine is one ingredient of a mutation setup
type IngredientLine struct {
	Name      string  `json:"name"`
	Amount    int     `json:"amount"`
	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"`
}

// Breakdown explains how an entry was computed
type Breakdown struct {
	Ingredients        []IngredientLine   `json:"ingredients"`
	GrowthStages       int                `json:"growth_stages"`
	SpawnChance        float64            `json:"spawn_chance"`
	EstimatedTimeHours float64            `json:"estimated_time_hours"`
	LayoutUnmet        int                `json:"layout_unmet"`
	Destructive        bool               `json:"destructive"`
	Yields             map[string]float64 `json:"yields"` // crop -> items per harvest per spot
	CropValue          float64            `json:"crop_value"`
	MutationValue      float64            `json:"mutation_value"`
	SetupCostPerHour   float64            `json:"setup_cost_per_hour"`
	Rates              *profit.Rates      `json:"rates"`
}

// Entry is one ranked mutation
type Entry struct {
	Mutation           string    `json:"mutationName"`
	Score              float64   `json:"score"`
	Limit              int       `json:"limit"`
	SetupCost          float64   `json:"setup_cost"`
	ProfitPerHour      float64   `json:"profit_per_hour"`
	Profit             float64   `json:"profit"`
	EstimatedTimeHours float64   `json:"estimated_time_hours"`
	Breakdown          Breakdown `json:"breakdown"`
	Warnings           []string  `json:"warnings,omitempty"`
}

// Leaderboard is the ranked output for one player configuration
type Leaderboard struct {
	CycleTimeHours      float64             `json:"cycle_time_hours"`
	TotalCyclesPerBatch float64             `json:"total_cycles_per_batch"`
	Config              models.PlayerConfig `json:"config"`
	Entries             []Entry             `json:"leaderboard"`
	Warnings            []string            `json:"warnings,omitempty"`
	GeneratedAt         time.Time           `json:"generated_at"`
}

// Top returns at most n entries; n <= 0 returns all
func (l *Leaderboard) Top(n int) []Entry {
	if n <= 0 || n >= len(l.Entries) {
		return l.Entries
	}
	return l.Entries[:n]
}

// Find returns the entry for a mutation
func (l *Leaderboard) Find(name string) (*Entry, bool) {
	for i := range l.Entries {
		if l.Entries[i].Mutation == name {
			return &l.Entries[i], true
		}
	}
	return nil, false
}
