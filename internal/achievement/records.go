package achievement

import (
	"sort"
	"time"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// UpsertRecords merges a batch of unlocked achievement IDs into the cross-game
// record list and returns the updated list, sorted by achievement ID. Existing
// records keep their first-unlock timestamp and get a refreshed last-unlock;
// new records start with both timestamps at now. The unlock count increments
// only for scoring (per-game) unlocks; cumulative-only unlocks record
// timestamps without touching the count.
func UpsertRecords(records []core.AchievementRecord, unlockedIDs []string, cumulativeOnly bool, now time.Time) []core.AchievementRecord {
	byID := make(map[string]core.AchievementRecord, len(records))
	for _, r := range records {
		byID[r.AchievementID] = r
	}

	for _, id := range unlockedIDs {
		r, ok := byID[id]
		if !ok {
			r = core.AchievementRecord{AchievementID: id, FirstUnlockedAt: now}
		}
		r.LastUnlockedAt = now
		if !cumulativeOnly {
			r.UnlockCount++
		}
		byID[id] = r
	}

	out := make([]core.AchievementRecord, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AchievementID < out[j].AchievementID
	})
	return out
}
