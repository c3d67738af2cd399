package layout

import (
	"errors"
	"fmt"
	"sort"

	"github.com/napolitain/solver-mutations/internal/models"
)

// DefaultMaxRepairPasses bounds the local search so latency stays predictable
const DefaultMaxRepairPasses = 20

// Input bounds keep a single search cheap and the naive counts within int range
const (
	MaxIngredients = 16
	MaxQuantity    = 64
	MaxLimit       = 100 * GridSize * GridSize
)

var ErrInvalidInput = errors.New("invalid layout input")

const (
	kindProducer = -1
	kindBlocked  = -2
)

// Options tunes the optimizer
type Options struct {
	Blocked         []Coord
	MaxRepairPasses int
	Size            int // grid side, GridSize when zero
}

// DefaultOptions returns the standard greenhouse configuration
func DefaultOptions() Options {
	return Options{
		Blocked:         DefaultBlocked(),
		MaxRepairPasses: DefaultMaxRepairPasses,
		Size:            GridSize,
	}
}

// Result is the outcome of one optimization.
// Unmet is not guaranteed to be zero; callers must check it.
type Result struct {
	Recipe       models.Recipe
	Limit        int
	TileCounts   map[string]int
	Unmet        int
	Producers    int
	RepairPasses int
	Grid         *Grid // nil for the degenerate and trivial cases
}

// TotalTiles returns the number of ingredient tiles placed
func (r *Result) TotalTiles() int {
	total := 0
	for _, n := range r.TileCounts {
		total += n
	}
	return total
}

// NaiveTiles returns the ingredient count without any sharing
func (r *Result) NaiveTiles() int {
	return r.Recipe.Total() * r.Limit
}

// Savings returns the fraction of ingredients saved by sharing
func (r *Result) Savings() float64 {
	naive := r.NaiveTiles()
	if naive == 0 {
		return 0
	}
	return 1 - float64(r.TotalTiles())/float64(naive)
}

// Optimize places ingredient tiles so limit producers share them
func Optimize(recipe models.Recipe, limit int, costs map[string]float64, blocked []Coord) (*Result, error) {
	opts := DefaultOptions()
	opts.Blocked = blocked
	return OptimizeWithOptions(recipe, limit, costs, opts)
}

// OptimizeWithOptions is Optimize with explicit tuning
func OptimizeWithOptions(recipe models.Recipe, limit int, costs map[string]float64, opts Options) (*Result, error) {
	o, err := NewOptimizer(recipe, limit, costs, opts)
	if err != nil {
		return nil, err
	}
	return o.Solve(), nil
}

// CheckInput rejects recipes and limits outside what one search accepts
func CheckInput(recipe models.Recipe, limit int) error {
	if limit < 1 {
		return fmt.Errorf("%w: limit must be >= 1, got %d", ErrInvalidInput, limit)
	}
	if limit > MaxLimit {
		return fmt.Errorf("%w: limit %d exceeds %d", ErrInvalidInput, limit, MaxLimit)
	}
	for ing, qty := range recipe {
		if qty < 0 {
			return fmt.Errorf("%w: %s quantity %d is negative", ErrInvalidInput, ing, qty)
		}
		if qty > MaxQuantity {
			return fmt.Errorf("%w: %s quantity %d exceeds %d", ErrInvalidInput, ing, qty, MaxQuantity)
		}
	}
	if n := len(recipe.Ingredients()); n > MaxIngredients {
		return fmt.Errorf("%w: %d ingredients, at most %d", ErrInvalidInput, n, MaxIngredients)
	}
	return nil
}

// Optimizer holds the working state of one layout search
type Optimizer struct {
	recipe     models.Recipe
	limit      int
	size       int
	maxPasses  int
	ings       []string // ingredient order: cost desc, then name
	req        []int    // requirement per ingredient, aligned with ings
	free       []int    // non-blocked tile indices, row-major
	neighbors  [][]int  // non-blocked neighbors per tile index, row-major
	kind       []int    // kindProducer, kindBlocked or an index into ings
	needBuffer []int
}

// NewOptimizer validates the input and prepares a search
func NewOptimizer(recipe models.Recipe, limit int, costs map[string]float64, opts Options) (*Optimizer, error) {
	if err := CheckInput(recipe, limit); err != nil {
		return nil, err
	}

	size := opts.Size
	if size <= 0 {
		size = GridSize
	}
	maxPasses := opts.MaxRepairPasses
	if maxPasses < 0 {
		maxPasses = 0
	}

	o := &Optimizer{
		recipe:    recipe.Clone(),
		limit:     limit,
		size:      size,
		maxPasses: maxPasses,
		kind:      make([]int, size*size),
	}

	for _, c := range opts.Blocked {
		if c.Row < 0 || c.Row >= size || c.Col < 0 || c.Col >= size {
			return nil, fmt.Errorf("%w: blocked tile (%d,%d) is off the grid", ErrInvalidInput, c.Row, c.Col)
		}
		o.kind[c.Row*size+c.Col] = kindBlocked
	}
	for i := range o.kind {
		if o.kind[i] != kindBlocked {
			o.kind[i] = kindProducer
			o.free = append(o.free, i)
		}
	}

	o.ings = recipe.Ingredients()
	sort.SliceStable(o.ings, func(i, j int) bool {
		return costs[o.ings[i]] > costs[o.ings[j]]
	})
	o.req = make([]int, len(o.ings))
	for i, ing := range o.ings {
		o.req[i] = recipe[ing]
	}
	o.needBuffer = make([]int, len(o.ings))

	o.neighbors = make([][]int, size*size)
	for _, t := range o.free {
		r, c := t/size, t%size
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				if dr == 0 && dc == 0 {
					continue
				}
				nr, nc := r+dr, c+dc
				if nr < 0 || nr >= size || nc < 0 || nc >= size {
					continue
				}
				n := nr*size + nc
				if o.kind[n] != kindBlocked {
					o.neighbors[t] = append(o.neighbors[t], n)
				}
			}
		}
	}

	return o, nil
}

// Solve runs construction then repair
func (o *Optimizer) Solve() *Result {
	result := &Result{Recipe: o.recipe, Limit: o.limit, TileCounts: make(map[string]int)}

	if o.recipe.Total() == 0 {
		result.Producers = o.limit
		return result
	}

	toConvert := len(o.free) - o.limit
	if toConvert <= 0 {
		for i, ing := range o.ings {
			result.TileCounts[ing] = o.req[i] * o.limit
		}
		result.Producers = o.limit
		return result
	}

	o.construct(toConvert)
	result.RepairPasses = o.repair()

	result.Unmet = o.totalUnmet()
	result.Grid = o.grid()
	result.TileCounts = result.Grid.Counts()
	for _, t := range o.free {
		if o.kind[t] == kindProducer {
			result.Producers++
		}
	}
	return result
}

// needs fills needBuffer with the residual demand of producer t
func (o *Optimizer) needs(t int) []int {
	n := o.needBuffer
	copy(n, o.req)
	for _, nb := range o.neighbors[t] {
		if k := o.kind[nb]; k >= 0 && n[k] > 0 {
			n[k]--
		}
	}
	return n
}

func (o *Optimizer) unmetAt(t int) int {
	total := 0
	for _, v := range o.needs(t) {
		total += v
	}
	return total
}

func (o *Optimizer) totalUnmet() int {
	total := 0
	for _, t := range o.free {
		if o.kind[t] == kindProducer {
			total += o.unmetAt(t)
		}
	}
	return total
}

// score rates turning producer t into ingredient k: its own demand disappears
// and every neighbouring producer still short of k gains one unit
func (o *Optimizer) score(t, k int) int {
	s := o.unmetAt(t)
	for _, nb := range o.neighbors[t] {
		if o.kind[nb] == kindProducer && o.needs(nb)[k] > 0 {
			s++
		}
	}
	return s
}

func (o *Optimizer) construct(steps int) {
	for step := 0; step < steps; step++ {
		bestTile, bestIng, bestScore := -1, -1, -1
		for _, t := range o.free {
			if o.kind[t] != kindProducer {
				continue
			}
			for k := range o.ings {
				if s := o.score(t, k); s > bestScore {
					bestTile, bestIng, bestScore = t, k, s
				}
			}
		}
		if bestTile < 0 {
			return
		}
		o.kind[bestTile] = bestIng
	}
}

// repair runs bounded local search and returns the number of passes used
func (o *Optimizer) repair() int {
	passes := 0
	for passes < o.maxPasses {
		if o.totalUnmet() == 0 {
			break
		}
		passes++

		improved := o.retype()
		if !improved {
			improved = o.swap()
		}
		if !improved {
			break
		}
	}
	return passes
}

// retype tries every other ingredient on each ingredient tile and keeps the
// first strict improvement per tile
func (o *Optimizer) retype() bool {
	improved := false
	for _, t := range o.free {
		current := o.kind[t]
		if current < 0 {
			continue
		}
		before := o.totalUnmet()
		for k := range o.ings {
			if k == current {
				continue
			}
			o.kind[t] = k
			if o.totalUnmet() < before {
				improved = true
				break
			}
			o.kind[t] = current
		}
	}
	return improved
}

// swap exchanges a short producer with a neighbouring ingredient tile and
// keeps the best ingredient for the vacated spot; one accepted swap ends the pass
func (o *Optimizer) swap() bool {
	for _, m := range o.free {
		if o.kind[m] != kindProducer || o.unmetAt(m) == 0 {
			continue
		}
		for _, nb := range o.neighbors[m] {
			old := o.kind[nb]
			if old < 0 {
				continue
			}
			before := o.totalUnmet()

			o.kind[nb] = kindProducer
			bestIng, bestUnmet := -1, before
			for k := range o.ings {
				o.kind[m] = k
				if u := o.totalUnmet(); u < bestUnmet {
					bestIng, bestUnmet = k, u
				}
			}

			if bestIng >= 0 {
				o.kind[m] = bestIng
				return true
			}
			o.kind[m] = kindProducer
			o.kind[nb] = old
		}
	}
	return false
}

func (o *Optimizer) grid() *Grid {
	g := newGrid(o.size)
	for i, k := range o.kind {
		switch {
		case k == kindBlocked:
			g.tiles[i] = Tile{Kind: Blocked}
		case k == kindProducer:
			g.tiles[i] = Tile{Kind: Producer}
		default:
			g.tiles[i] = Tile{Kind: Ingredient, Ingredient: o.ings[k]}
		}
	}
	return g
}
