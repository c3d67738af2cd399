package ranking

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/patrickmn/go-cache"

	"github.com/napolitain/solver-mutations/internal/models"
	"github.com/napolitain/solver-mutations/internal/solver/layout"
)

const (
	DefaultLayoutTTL      = 30 * time.Minute
	layoutCleanupInterval = 10 * time.Minute
)

type layoutResult struct {
	counts map[string]int
	unmet  int
}

// LayoutCache memoises layouts per plot. The optimizer only looks at the
// cost order of ingredients, so the key ignores the prices themselves.
type LayoutCache struct {
	store   *cache.Cache
	blocked []layout.Coord
}

// NewLayoutCache returns a cache that expires entries after ttl
func NewLayoutCache(ttl time.Duration, blocked []layout.Coord) *LayoutCache {
	return &LayoutCache{
		store:   cache.New(ttl, layoutCleanupInterval),
		blocked: blocked,
	}
}

// Len returns the number of cached layouts
func (c *LayoutCache) Len() int {
	return c.store.ItemCount()
}

// Flush drops every cached layout
func (c *LayoutCache) Flush() {
	c.store.Flush()
}

func (c *LayoutCache) get(recipe models.Recipe, limit int, costs map[string]float64) (layoutResult, error) {
	key := layoutKey(recipe, limit, costs)
	if v, ok := c.store.Get(key); ok {
		return v.(layoutResult), nil
	}

	res, err := layout.Optimize(recipe, limit, costs, c.blocked)
	if err != nil {
		return layoutResult{}, err
	}
	lr := layoutResult{counts: res.TileCounts, unmet: res.Unmet}
	c.store.SetDefault(key, lr)
	return lr, nil
}

// layoutKey hashes recipe, limit and the cost ranking.
// "Fire>Nether Wart" and "Fire=Nether Wart" differ because ties fall back to name order.
func layoutKey(recipe models.Recipe, limit int, costs map[string]float64) string {
	ings := recipe.Ingredients()
	sort.SliceStable(ings, func(i, j int) bool {
		return costs[ings[i]] > costs[ings[j]]
	})

	var sb strings.Builder
	for _, ing := range ings {
		sb.WriteString(ing)
		sb.WriteByte('=')
		sb.WriteString(strconv.Itoa(recipe[ing]))
		sb.WriteByte(';')
	}
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(limit))
	sb.WriteByte('|')
	for i, ing := range ings {
		if i > 0 {
			if costs[ings[i-1]] == costs[ing] {
				sb.WriteByte('=')
			} else {
				sb.WriteByte('>')
			}
		}
		sb.WriteString(ing)
	}
	return strconv.FormatUint(xxhash.Sum64String(sb.String()), 16)
}
