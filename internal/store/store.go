// Package store persists game state across sessions: the active progress
// snapshot, finished-game history, achievement records, and the cumulative
// ever-visited spot set. The engine never touches a store; the session layer
// saves each returned snapshot after a successful transition.
package store

import (
	"gorm.io/gorm"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/store/gormdb"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/store/memory"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// ProgressStore holds at most one active game and the finished-game history.
type ProgressStore interface {
	// Current returns the active (not ended) snapshot, if any.
	Current() (core.GameProgress, bool, error)
	// Save upserts a snapshot keyed by game ID.
	Save(p core.GameProgress) error
	// History returns ended games, most recent first.
	History() ([]core.GameProgress, error)
}

// AchievementStore holds the device-local, cross-game achievement state.
type AchievementStore interface {
	Records() ([]core.AchievementRecord, error)
	SaveRecords(records []core.AchievementRecord) error
	EverVisited() (map[string]bool, error)
	AddEverVisited(spotIDs []string) error
}

// Stores bundles the two store interfaces a session needs.
type Stores struct {
	Progress    ProgressStore
	Achievement AchievementStore
}

// NewGorm returns database-backed stores.
func NewGorm(db *gorm.DB) Stores {
	return Stores{
		Progress:    gormdb.NewProgressStore(db),
		Achievement: gormdb.NewAchievementStore(db),
	}
}

// NewMemory returns in-memory stores, used when no database is available and
// in tests.
func NewMemory() Stores {
	return Stores{
		Progress:    memory.NewProgressStore(),
		Achievement: memory.NewAchievementStore(),
	}
}
