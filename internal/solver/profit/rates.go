// Package profit turns spawn odds and harvest value into steady-state
// throughput and profit rates using a renewal-reward model.
package profit

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MaxValue caps non-finite outputs so they stay sortable and JSON-safe
	MaxValue = 1e308

	// LargeCycleThreshold flags spawn odds so low the wait is effectively forever
	LargeCycleThreshold = 1e6

	// LargeHoursThreshold flags harvest intervals beyond any realistic session
	LargeHoursThreshold = 1e6
)

var ErrInvalidParams = errors.New("invalid profit parameters")

// ValidationError reports the first parameter that failed validation
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidParams
}

// Params is the input of one rate computation
type Params struct {
	Plots          int     `json:"m"`
	SpotsPerPlot   int     `json:"x"`
	Chance         float64 `json:"p"`
	CycleHours     float64 `json:"tau"`
	GrowthCycles   int     `json:"g"`
	Value          float64 `json:"v"`
	PerHarvestCost float64 `json:"per_harvest_cost"`

	// Boost sub-mode, active when BoostHours > 0
	BoostValue *float64 `json:"v_boost,omitempty"`
	BoostCost  float64  `json:"boost_cost"`
	BoostHours float64  `json:"boost_hours"`
}

// Rates is the steady-state output of the model
type Rates struct {
	Spots                   int     `json:"N"`
	CyclesPerHarvestPerSpot float64 `json:"cycles_per_harvest_per_spot"`
	HoursPerHarvestPerSpot  float64 `json:"hours_per_harvest_per_spot"`
	HarvestsPerCycle        float64 `json:"harvests_per_cycle"`
	HarvestsPerHour         float64 `json:"harvests_per_hour"`
	NetValue                float64 `json:"v_net"`
	ProfitPerCycle          float64 `json:"profit_per_cycle"`
	ProfitPerHour           float64 `json:"profit_per_hour"`

	Batch    *BatchRates `json:"batch"`
	Warnings []string    `json:"warnings"`
}

// BatchRates models a timed market boost of BoostHours
type BatchRates struct {
	WindowHours      float64 `json:"window_hours"`
	EffectiveHours   float64 `json:"effective_hours"`
	HarvestsPerHour  float64 `json:"harvests_per_hour"`
	RevenuePerHour   float64 `json:"revenue_per_hour"`
	BoostCostPerHour float64 `json:"boost_cost_per_hour"`
	ProfitPerHour    float64 `json:"profit_per_hour"`
}

// Validate checks domain bounds; the first failure is returned
func (p Params) Validate() error {
	floats := []struct {
		field string
		v     float64
	}{
		{"p", p.Chance},
		{"tau", p.CycleHours},
		{"v", p.Value},
		{"per_harvest_cost", p.PerHarvestCost},
		{"boost_cost", p.BoostCost},
		{"boost_hours", p.BoostHours},
	}
	if p.BoostValue != nil {
		floats = append(floats, struct {
			field string
			v     float64
		}{"v_boost", *p.BoostValue})
	}
	for _, f := range floats {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &ValidationError{Field: f.field, Value: f.v, Reason: "must be finite"}
		}
	}

	switch {
	case p.Chance <= 0 || p.Chance > 1:
		return &ValidationError{Field: "p", Value: p.Chance, Reason: "must be in (0, 1]"}
	case p.CycleHours <= 0:
		return &ValidationError{Field: "tau", Value: p.CycleHours, Reason: "must be > 0"}
	case p.Plots < 1:
		return &ValidationError{Field: "m", Value: float64(p.Plots), Reason: "must be >= 1"}
	case p.SpotsPerPlot < 1:
		return &ValidationError{Field: "x", Value: float64(p.SpotsPerPlot), Reason: "must be >= 1"}
	case p.GrowthCycles < 0:
		return &ValidationError{Field: "g", Value: float64(p.GrowthCycles), Reason: "must be >= 0"}
	case p.PerHarvestCost < 0:
		return &ValidationError{Field: "per_harvest_cost", Value: p.PerHarvestCost, Reason: "must be >= 0"}
	case p.BoostHours < 0:
		return &ValidationError{Field: "boost_hours", Value: p.BoostHours, Reason: "must be >= 0"}
	case p.BoostCost < 0:
		return &ValidationError{Field: "boost_cost", Value: p.BoostCost, Reason: "must be >= 0"}
	}
	return nil
}

// ComputeRates evaluates the renewal-reward model for one mutation.
// Every returned number is finite; degenerate values are capped or zeroed
// and noted in Warnings.
func ComputeRates(p Params) (*Rates, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r := &Rates{Warnings: []string{}}
	spots, ok := spotCount(p.Plots, p.SpotsPerPlot)
	if ok {
		r.Spots = spots
	} else {
		r.warnf("N = %d x %d is out of range, throughput and profit reported as 0", p.Plots, p.SpotsPerPlot)
	}
	n := float64(r.Spots)

	waitCycles := 1 / p.Chance
	if waitCycles > LargeCycleThreshold {
		r.warnf("spawn chance %g means ~%.3g cycles expected before a spawn", p.Chance, waitCycles)
	}

	cycles := waitCycles + float64(p.GrowthCycles)
	hours := p.CycleHours * cycles
	if hours > LargeHoursThreshold {
		r.warnf("~%.3g hours per harvest per spot", hours)
	}

	// n/(1/p+g) rearranged so g == 0 yields exactly n*p
	harvestsPerCycle := n * p.Chance / (1 + float64(p.GrowthCycles)*p.Chance)
	netValue := p.Value - p.PerHarvestCost
	profitPerCycle := harvestsPerCycle * netValue
	if !ok {
		harvestsPerCycle, profitPerCycle = 0, 0
	}

	r.CyclesPerHarvestPerSpot = r.finite("cycles_per_harvest_per_spot", cycles)
	r.HoursPerHarvestPerSpot = r.finite("hours_per_harvest_per_spot", hours)
	r.HarvestsPerCycle = r.finite("harvests_per_cycle", harvestsPerCycle)
	r.HarvestsPerHour = r.finite("harvests_per_hour", harvestsPerCycle/p.CycleHours)
	r.NetValue = r.finite("v_net", netValue)
	r.ProfitPerCycle = r.finite("profit_per_cycle", profitPerCycle)
	r.ProfitPerHour = r.finite("profit_per_hour", profitPerCycle/p.CycleHours)

	if p.BoostHours > 0 {
		if ok {
			r.Batch = r.batch(p, n, hours)
		} else {
			r.Batch = &BatchRates{}
		}
	}
	return r, nil
}

func (r *Rates) batch(p Params, n, hours float64) *BatchRates {
	boosted := p.Value
	if p.BoostValue != nil {
		boosted = *p.BoostValue
	}

	window := p.BoostHours / 2
	effective := hours + window
	rate := n / effective
	revenue := rate * boosted
	boostCost := p.BoostCost / p.BoostHours

	return &BatchRates{
		WindowHours:      r.finite("batch.window_hours", window),
		EffectiveHours:   r.finite("batch.effective_hours", effective),
		HarvestsPerHour:  r.finite("batch.harvests_per_hour", rate),
		RevenuePerHour:   r.finite("batch.revenue_per_hour", revenue),
		BoostCostPerHour: r.finite("batch.boost_cost_per_hour", boostCost),
		ProfitPerHour:    r.finite("batch.profit_per_hour", revenue-boostCost),
	}
}

// spotCount multiplies plots by spots per plot, reporting false when the
// product is not a positive int
func spotCount(plots, perPlot int) (int, bool) {
	if plots < 1 || perPlot < 1 {
		return 0, false
	}
	if plots > math.MaxInt/perPlot {
		return 0, false
	}
	return plots * perPlot, true
}

// finite zeroes NaN and caps infinities and overflow at MaxValue
func (r *Rates) finite(name string, v float64) float64 {
	switch {
	case math.IsNaN(v):
		r.warnf("%s was NaN, reported as 0", name)
		return 0
	case v > MaxValue:
		r.warnf("%s overflowed, capped at %g", name, MaxValue)
		return MaxValue
	case v < -MaxValue:
		r.warnf("%s overflowed, capped at %g", name, -MaxValue)
		return -MaxValue
	}
	return v
}

func (r *Rates) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Zero returns all-zero rates carrying a single warning. Aggregators use it
// when one mutation cannot be evaluated but the rest must still rank.
func Zero(reason string) *Rates {
	return &Rates{Warnings: []string{reason}}
}
