// pkg/core/achievement.go
package core

import "time"

// AchievementKind distinguishes the grouping families in the catalog.
type AchievementKind string

const (
	AchievementAll      AchievementKind = "ALL"
	AchievementCity     AchievementKind = "CITY"
	AchievementPostal   AchievementKind = "POSTAL"
	AchievementCategory AchievementKind = "CATEGORY"
)

// Achievement is one grouping of spots: it unlocks when every member spot is
// present in the visited set under evaluation.
type Achievement struct {
	ID      string          `json:"id"`
	Kind    AchievementKind `json:"kind"`
	Name    string          `json:"name"`
	SpotIDs []string        `json:"spotIds"`
	Points  int             `json:"points"`
}

// AchievementRecord is the cross-game, device-local unlock record for one
// achievement ID. Cumulative-only unlocks update timestamps without
// incrementing the count.
type AchievementRecord struct {
	AchievementID   string    `json:"achievementId"`
	FirstUnlockedAt time.Time `json:"firstUnlockedAt"`
	LastUnlockedAt  time.Time `json:"lastUnlockedAt"`
	UnlockCount     int       `json:"unlockCount"`
}
