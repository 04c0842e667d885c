package engine

import (
	"math/rand"
	"sort"
	"strings"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/geo"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
	"github.com/samber/lo"
)

// FilterPoolByCity applies the config's city filter to the checkpoint pool.
// With any flag enabled, only spots whose address contains an enabled city
// name survive; spots with an empty address are excluded. With no flag set
// the pool passes through untouched.
func FilterPoolByCity(pool []core.Spot, filter core.CityFilter) []core.Spot {
	if !filter.Any() {
		return pool
	}
	cities := filter.Cities()
	return lo.Filter(pool, func(s core.Spot, _ int) bool {
		if s.Address == "" {
			return false
		}
		for _, city := range cities {
			if strings.Contains(s.Address, city) {
				return true
			}
		}
		return false
	})
}

// SelectCPSpots picks the checkpoint spot IDs for a new game. The count is
// clamped to 0..5. Small counts (≤2) bias the draw toward the start-goal
// corridor: candidates are shortlisted by ascending detour ratio and the
// checkpoints drawn uniformly from the shortlist. Larger counts draw
// uniformly from the whole (city-filtered) pool. Draws are without
// replacement; rng is injected so tests can seed it.
func SelectCPSpots(pool []core.Spot, cfg core.GameConfig, rng *rand.Rand) []string {
	n := cfg.CPCount
	if n < 0 {
		n = 0
	}
	if n > MaxCPCount {
		n = MaxCPCount
	}
	if n == 0 {
		return nil
	}

	pool = FilterPoolByCity(pool, cfg.CityFilter)
	if len(pool) == 0 {
		return nil
	}
	if n > len(pool) {
		n = len(pool)
	}

	if n <= 2 && cfg.Start != nil && cfg.Goal != nil {
		start, goal := *cfg.Start, *cfg.Goal
		shortlist := append([]core.Spot(nil), pool...)
		sort.Slice(shortlist, func(i, j int) bool {
			ri := geo.DetourRatio(start, shortlist[i].Location(), goal)
			rj := geo.DetourRatio(start, shortlist[j].Location(), goal)
			if ri != rj {
				return ri < rj
			}
			return shortlist[i].ID < shortlist[j].ID
		})
		if len(shortlist) > cpShortlistSize {
			shortlist = shortlist[:cpShortlistSize]
		}
		return drawIDs(shortlist, n, rng)
	}

	return drawIDs(pool, n, rng)
}

// drawIDs draws n distinct spot IDs uniformly without replacement.
func drawIDs(pool []core.Spot, n int, rng *rand.Rand) []string {
	perm := rng.Perm(len(pool))
	ids := make([]string, 0, n)
	for _, i := range perm[:n] {
		ids = append(ids, pool[i].ID)
	}
	return ids
}
