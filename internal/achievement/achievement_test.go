package achievement

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

func masterSpots() []core.Spot {
	return []core.Spot{
		{ID: "sp001", Name: "枕崎お魚センター", Address: "枕崎市松之尾町", Postal: "898-0001", Category: "物産", JudgeTarget: 1},
		{ID: "sp002", Name: "火之神公園", Address: "枕崎市火之神岬町", Postal: "898-0001", Category: "公園", JudgeTarget: 1},
		{ID: "sp003", Name: "枕崎駅", Address: "枕崎市東本町", Postal: "898-0003", Category: "駅", JudgeTarget: 1},
		{ID: "sp004", Name: "知覧武家屋敷", Address: "南九州市知覧町", Postal: "897-0302", Category: "史跡", JudgeTarget: 1},
		{ID: "sp005", Name: "撮影専用スポット", Address: "枕崎市", JudgeTarget: 0},
	}
}

func TestBuildCatalog(t *testing.T) {
	catalog := BuildCatalog(masterSpots())

	byID := map[string]core.Achievement{}
	for _, a := range catalog {
		byID[a.ID] = a
	}

	all, ok := byID["all"]
	require.True(t, ok)
	assert.Equal(t, core.AchievementAll, all.Kind)
	assert.Equal(t, AllSpotsPoints, all.Points)
	assert.Equal(t, []string{"sp001", "sp002", "sp003", "sp004"}, all.SpotIDs,
		"JudgeTarget=0 spots never join a group")

	makurazaki, ok := byID["city:"+core.CityMakurazaki]
	require.True(t, ok)
	assert.Equal(t, CityPoints, makurazaki.Points)
	assert.Equal(t, []string{"sp001", "sp002", "sp003"}, makurazaki.SpotIDs)

	_, ok = byID["city:"+core.CityIbusuki]
	assert.False(t, ok, "a city with no spots forms no group")

	postal, ok := byID["postal:898-0001"]
	require.True(t, ok)
	assert.Equal(t, []string{"sp001", "sp002"}, postal.SpotIDs)
	assert.Equal(t, 50, postal.Points)

	station, ok := byID["category:駅"]
	require.True(t, ok)
	assert.Equal(t, CategoryPoints, station.Points)
	assert.Equal(t, []string{"sp003"}, station.SpotIDs)

	assert.Nil(t, BuildCatalog(nil))

	// deterministic ordering
	again := BuildCatalog(masterSpots())
	assert.Equal(t, catalog, again)
}

func TestPostalPointsSteps(t *testing.T) {
	tests := []struct {
		size, want int
	}{
		{1, 30}, {2, 50}, {3, 50}, {4, 60}, {6, 60},
		{7, 100}, {10, 100}, {11, 200}, {20, 200}, {21, 400},
	}
	for _, tt := range tests {
		spots := make([]core.Spot, tt.size)
		for i := range spots {
			spots[i] = core.Spot{ID: fmt.Sprintf("sp%03d", i), Postal: "898-0099", JudgeTarget: 1}
		}
		catalog := BuildCatalog(spots)
		var got int
		for _, a := range catalog {
			if a.ID == "postal:898-0099" {
				got = a.Points
			}
		}
		assert.Equal(t, tt.want, got, "group size %d", tt.size)
	}
}

func TestComputeGameUnlocks(t *testing.T) {
	catalog := BuildCatalog(masterSpots())

	visited := map[string]bool{"sp001": true, "sp002": true}
	unlocks := ComputeGameUnlocks(catalog, visited)

	ids := map[string]bool{}
	for _, a := range unlocks {
		ids[a.ID] = true
	}
	assert.True(t, ids["postal:898-0001"])
	assert.True(t, ids["category:物産"])
	assert.True(t, ids["category:公園"])
	assert.False(t, ids["city:"+core.CityMakurazaki], "sp003 still missing")
	assert.False(t, ids["all"])

	assert.Empty(t, ComputeGameUnlocks(catalog, nil))
}

func TestComputeBonus(t *testing.T) {
	catalog := BuildCatalog(masterSpots())
	visited := map[string]bool{"sp001": true, "sp002": true, "sp003": true, "sp004": true}

	unlocks := ComputeGameUnlocks(catalog, visited)
	// all(6000) + 枕崎市(2000) + 南九州市(2000) + two postal groups (50+30+30)
	// + four categories (500 each)
	assert.Equal(t, 6000+2000+2000+50+30+30+500*4, ComputeBonus(unlocks))

	assert.Zero(t, ComputeBonus(nil))
}

func TestComputeCumulativeUnlockedIDs(t *testing.T) {
	catalog := BuildCatalog(masterSpots())

	ever := map[string]bool{"sp001": true, "sp002": true, "sp003": true}
	ids := ComputeCumulativeUnlockedIDs(catalog, ever)
	assert.Contains(t, ids, "city:"+core.CityMakurazaki)
	assert.NotContains(t, ids, "all")
}

func TestUpsertRecords(t *testing.T) {
	now := time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC)
	later := now.Add(24 * time.Hour)

	records := UpsertRecords(nil, []string{"category:駅", "all"}, false, now)
	require.Len(t, records, 2)
	assert.Equal(t, "all", records[0].AchievementID, "sorted by ID")
	assert.Equal(t, now, records[0].FirstUnlockedAt)
	assert.Equal(t, now, records[0].LastUnlockedAt)
	assert.Equal(t, 1, records[0].UnlockCount)

	// a repeat unlock keeps the first timestamp and bumps the count
	records = UpsertRecords(records, []string{"all"}, false, later)
	require.Len(t, records, 2)
	assert.Equal(t, now, records[0].FirstUnlockedAt)
	assert.Equal(t, later, records[0].LastUnlockedAt)
	assert.Equal(t, 2, records[0].UnlockCount)

	// cumulative-only unlocks record timestamps without counting
	records = UpsertRecords(records, []string{"postal:898-0001"}, true, later)
	require.Len(t, records, 3)
	for _, r := range records {
		if r.AchievementID == "postal:898-0001" {
			assert.Equal(t, later, r.FirstUnlockedAt)
			assert.Equal(t, 0, r.UnlockCount)
		}
	}
}
