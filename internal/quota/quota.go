// Package quota enforces per-category count bounds and backfills
// short categories from trusted online sources.
package quota

import (
	"github.com/hubtoday/weeklyagent/internal/render"
)

// Categories that must never run short. Their minimum is floored
// regardless of configuration.
const floorMin = 5

var flooredCategories = map[string]bool{
	"时事":   true,
	"AI资讯": true,
}

// EffectiveMin returns the minimum item count a category must reach,
// applying the floor for headline categories.
func EffectiveMin(category string, configured int) int {
	min := configured
	if min < 0 {
		min = 0
	}
	if flooredCategories[category] && min < floorMin {
		min = floorMin
	}
	return min
}

// EnforceMax truncates a bucket to its configured maximum, preserving
// insertion order so earlier-extracted items win.
func EnforceMax(items []render.Item, max int) []render.Item {
	if max <= 0 || len(items) <= max {
		return items
	}
	return items[:max]
}
