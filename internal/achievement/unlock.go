package achievement

import (
	"github.com/samber/lo"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// ComputeGameUnlocks evaluates the catalog against the current game's
// visited-spot set. These unlocks grant bonus score.
func ComputeGameUnlocks(catalog []core.Achievement, visited map[string]bool) []core.Achievement {
	return lo.Filter(catalog, func(a core.Achievement, _ int) bool {
		return allVisited(a.SpotIDs, visited)
	})
}

// ComputeCumulativeUnlockedIDs evaluates the catalog against the ever-visited
// set that accumulates across games. Cumulative unlocks are record-keeping
// only and never grant score.
func ComputeCumulativeUnlockedIDs(catalog []core.Achievement, everVisited map[string]bool) []string {
	unlocked := lo.Filter(catalog, func(a core.Achievement, _ int) bool {
		return allVisited(a.SpotIDs, everVisited)
	})
	return lo.Map(unlocked, func(a core.Achievement, _ int) string { return a.ID })
}

// ComputeBonus sums the points of an unlock list.
func ComputeBonus(unlocks []core.Achievement) int {
	return lo.SumBy(unlocks, func(a core.Achievement) int { return a.Points })
}

func allVisited(spotIDs []string, visited map[string]bool) bool {
	if len(spotIDs) == 0 {
		return false
	}
	for _, id := range spotIDs {
		if !visited[id] {
			return false
		}
	}
	return true
}
