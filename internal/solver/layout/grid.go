package layout

import (
	"sort"
	"strings"

	"github.com/napolitain/solver-mutations/internal/models"
)

// GridSize is the side length of one greenhouse plot
const GridSize = 10

// Coord addresses a tile on the grid
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// DefaultBlocked returns the reserved tile of a greenhouse plot
func DefaultBlocked() []Coord {
	return []Coord{{Row: 4, Col: 4}}
}

// TileKind is the state of a grid tile
type TileKind int

const (
	Producer TileKind = iota
	Ingredient
	Blocked
)

func (k TileKind) String() string {
	switch k {
	case Producer:
		return "producer"
	case Ingredient:
		return "ingredient"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Tile is one cell of a finished layout
type Tile struct {
	Kind       TileKind
	Ingredient string // set when Kind == Ingredient
}

// Grid is a finished layout, stored row-major
type Grid struct {
	Size  int
	tiles []Tile
}

func newGrid(size int) *Grid {
	return &Grid{Size: size, tiles: make([]Tile, size*size)}
}

// At returns the tile at c; off-grid coordinates read as blocked
func (g *Grid) At(c Coord) Tile {
	if !g.inBounds(c) {
		return Tile{Kind: Blocked}
	}
	return g.tiles[c.Row*g.Size+c.Col]
}

func (g *Grid) inBounds(c Coord) bool {
	return c.Row >= 0 && c.Row < g.Size && c.Col >= 0 && c.Col < g.Size
}

// Neighbors returns the in-grid tiles at Chebyshev distance 1, row-major
func (g *Grid) Neighbors(c Coord) []Coord {
	out := make([]Coord, 0, 8)
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			n := Coord{Row: c.Row + dr, Col: c.Col + dc}
			if g.inBounds(n) {
				out = append(out, n)
			}
		}
	}
	return out
}

// Producers returns all producer coordinates, row-major
func (g *Grid) Producers() []Coord {
	var out []Coord
	for i, t := range g.tiles {
		if t.Kind == Producer {
			out = append(out, Coord{Row: i / g.Size, Col: i % g.Size})
		}
	}
	return out
}

// Counts tallies ingredient tiles by type
func (g *Grid) Counts() map[string]int {
	counts := make(map[string]int)
	for _, t := range g.tiles {
		if t.Kind == Ingredient {
			counts[t.Ingredient]++
		}
	}
	return counts
}

// Residual returns what a producer at c still lacks from recipe
func (g *Grid) Residual(c Coord, recipe models.Recipe) map[string]int {
	need := make(map[string]int, len(recipe))
	for ing, qty := range recipe {
		if qty > 0 {
			need[ing] = qty
		}
	}
	for _, n := range g.Neighbors(c) {
		t := g.At(n)
		if t.Kind == Ingredient && need[t.Ingredient] > 0 {
			need[t.Ingredient]--
		}
	}
	return need
}

// Unmet recomputes the total unmet demand of the layout from scratch
func (g *Grid) Unmet(recipe models.Recipe) int {
	total := 0
	for _, c := range g.Producers() {
		for _, v := range g.Residual(c, recipe) {
			if v > 0 {
				total += v
			}
		}
	}
	return total
}

// Symbols assigns a single letter to each ingredient, in name order
func (g *Grid) Symbols() map[string]byte {
	names := make([]string, 0)
	for name := range g.Counts() {
		names = append(names, name)
	}
	sort.Strings(names)

	symbols := make(map[string]byte, len(names))
	used := map[byte]bool{'P': true, '#': true}
	for _, name := range names {
		var sym byte = '?'
		for _, r := range strings.ToUpper(name) {
			if r >= 'A' && r <= 'Z' && !used[byte(r)] {
				sym = byte(r)
				break
			}
		}
		if sym == '?' {
			for b := byte('a'); b <= 'z'; b++ {
				if !used[b] {
					sym = b
					break
				}
			}
		}
		used[sym] = true
		symbols[name] = sym
	}
	return symbols
}

// String renders the grid with P for producers, # for blocked tiles and
// one letter per ingredient type
func (g *Grid) String() string {
	symbols := g.Symbols()
	var sb strings.Builder
	for r := 0; r < g.Size; r++ {
		for c := 0; c < g.Size; c++ {
			t := g.tiles[r*g.Size+c]
			switch t.Kind {
			case Producer:
				sb.WriteByte('P')
			case Blocked:
				sb.WriteByte('#')
			default:
				sb.WriteByte(symbols[t.Ingredient])
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
