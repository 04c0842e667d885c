package gormdb

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/model"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.GameProgress{},
		&model.AchievementRecord{},
		&model.EverVisitedSpot{},
	))
	return db
}

func runningProgress(gameID string, startedAt time.Time) core.GameProgress {
	start := core.LatLng{Lat: 31.2, Lng: 130.5}
	return core.GameProgress{
		GameID:    gameID,
		StartedAt: startedAt,
		Config: core.GameConfig{
			DurationMin: 180,
			JREnabled:   true,
			Start:       &start,
			Goal:        &start,
		},
		ReachedCPIDs:     make(map[string]bool),
		VisitedSpotIDs:   make(map[string]bool),
		ScoredStationIDs: make(map[string]bool),
	}
}

func TestProgressStore_SaveAndCurrent(t *testing.T) {
	s := NewProgressStore(testDB(t))
	t0 := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)

	_, ok, err := s.Current()
	require.NoError(t, err)
	assert.False(t, ok)

	p := runningProgress("game-1", t0)
	p.VisitedSpotIDs["sp001"] = true
	p.Score = 50
	require.NoError(t, s.Save(p))

	got, ok, err := s.Current()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "game-1", got.GameID)
	assert.Equal(t, 50, got.Score)
	assert.True(t, got.VisitedSpotIDs["sp001"])
	require.NotNil(t, got.Config.Goal)
	assert.InDelta(t, 130.5, got.Config.Goal.Lng, 1e-9)
}

func TestProgressStore_SaveUpsertsByGameID(t *testing.T) {
	s := NewProgressStore(testDB(t))
	t0 := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)

	p := runningProgress("game-1", t0)
	require.NoError(t, s.Save(p))

	p.Score = 120
	p.VisitedSpotIDs["sp002"] = true
	require.NoError(t, s.Save(p))

	got, ok, err := s.Current()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 120, got.Score)

	var count int64
	require.NoError(t, s.db.Model(&model.GameProgress{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "second save must update, not insert")
}

func TestProgressStore_EndedGamesGoToHistory(t *testing.T) {
	s := NewProgressStore(testDB(t))
	t0 := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)

	old := runningProgress("game-1", t0)
	endedAt := t0.Add(3 * time.Hour)
	old.EndedAt = &endedAt
	old.EndReason = core.EndReasonGoal
	require.NoError(t, s.Save(old))

	current := runningProgress("game-2", t0.Add(24*time.Hour))
	require.NoError(t, s.Save(current))

	got, ok, err := s.Current()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "game-2", got.GameID)

	history, err := s.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "game-1", history[0].GameID)
	assert.Equal(t, core.EndReasonGoal, history[0].EndReason)
}

func TestAchievementStore_RecordsUpsert(t *testing.T) {
	s := NewAchievementStore(testDB(t))
	now := time.Date(2025, 11, 2, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRecords([]core.AchievementRecord{
		{AchievementID: "category:駅", FirstUnlockedAt: now, LastUnlockedAt: now, UnlockCount: 1},
		{AchievementID: "all", FirstUnlockedAt: now, LastUnlockedAt: now, UnlockCount: 1},
	}))

	later := now.Add(24 * time.Hour)
	require.NoError(t, s.SaveRecords([]core.AchievementRecord{
		{AchievementID: "all", FirstUnlockedAt: now, LastUnlockedAt: later, UnlockCount: 2},
	}))

	records, err := s.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "all", records[0].AchievementID)
	assert.Equal(t, 2, records[0].UnlockCount)
	assert.Equal(t, later.Unix(), records[0].LastUnlockedAt.Unix())
}

func TestAchievementStore_EverVisitedIgnoresDuplicates(t *testing.T) {
	s := NewAchievementStore(testDB(t))

	require.NoError(t, s.AddEverVisited([]string{"sp001", "sp002"}))
	require.NoError(t, s.AddEverVisited([]string{"sp002", "sp003"}))

	ever, err := s.EverVisited()
	require.NoError(t, err)
	assert.Len(t, ever, 3)
	assert.True(t, ever["sp001"])
	assert.True(t, ever["sp003"])
}

func TestAchievementStore_EmptyBatchesAreNoops(t *testing.T) {
	s := NewAchievementStore(testDB(t))

	assert.NoError(t, s.SaveRecords(nil))
	assert.NoError(t, s.AddEverVisited(nil))
}
