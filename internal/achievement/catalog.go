// Package achievement derives bonus achievements from the spot master and a
// visited-spot set. The catalog is a fixed set of groupings over the playable
// (JudgeTarget=1) spots; an achievement unlocks when every member spot is in
// the visited set under evaluation.
package achievement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// Point values per grouping family. Postal groups scale with group size.
const (
	AllSpotsPoints = 6000
	CityPoints     = 2000
	CategoryPoints = 500
)

// postalPoints is the step function mapping a postal group's size to points.
func postalPoints(size int) int {
	switch {
	case size <= 1:
		return 30
	case size <= 3:
		return 50
	case size <= 6:
		return 60
	case size <= 10:
		return 100
	case size <= 20:
		return 200
	default:
		return 400
	}
}

// BuildCatalog derives the achievement catalog from the spot master. Only
// JudgeTarget=1 spots participate; empty postal/category values form no
// group. The result is ordered deterministically: all-spots first, then
// cities, then postal groups and categories sorted by key.
func BuildCatalog(spots []core.Spot) []core.Achievement {
	playable := lo.Filter(spots, func(s core.Spot, _ int) bool {
		return s.JudgeTarget == 1
	})
	if len(playable) == 0 {
		return nil
	}

	var catalog []core.Achievement

	catalog = append(catalog, core.Achievement{
		ID:      "all",
		Kind:    core.AchievementAll,
		Name:    "全スポット制覇",
		SpotIDs: spotIDs(playable),
		Points:  AllSpotsPoints,
	})

	for _, city := range []string{core.CityIbusuki, core.CityMinamikyushu, core.CityMakurazaki} {
		members := lo.Filter(playable, func(s core.Spot, _ int) bool {
			return strings.Contains(s.Address, city)
		})
		if len(members) == 0 {
			continue
		}
		catalog = append(catalog, core.Achievement{
			ID:      "city:" + city,
			Kind:    core.AchievementCity,
			Name:    city + "制覇",
			SpotIDs: spotIDs(members),
			Points:  CityPoints,
		})
	}

	byPostal := lo.GroupBy(lo.Filter(playable, func(s core.Spot, _ int) bool {
		return s.Postal != ""
	}), func(s core.Spot) string { return s.Postal })
	for _, postal := range sortedKeys(byPostal) {
		members := byPostal[postal]
		catalog = append(catalog, core.Achievement{
			ID:      "postal:" + postal,
			Kind:    core.AchievementPostal,
			Name:    fmt.Sprintf("〒%s エリア制覇", postal),
			SpotIDs: spotIDs(members),
			Points:  postalPoints(len(members)),
		})
	}

	byCategory := lo.GroupBy(lo.Filter(playable, func(s core.Spot, _ int) bool {
		return s.Category != ""
	}), func(s core.Spot) string { return s.Category })
	for _, category := range sortedKeys(byCategory) {
		catalog = append(catalog, core.Achievement{
			ID:      "category:" + category,
			Kind:    core.AchievementCategory,
			Name:    category + "制覇",
			SpotIDs: spotIDs(byCategory[category]),
			Points:  CategoryPoints,
		})
	}

	return catalog
}

func spotIDs(spots []core.Spot) []string {
	ids := lo.Map(spots, func(s core.Spot, _ int) string { return s.ID })
	sort.Strings(ids)
	return ids
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
