// Package gormdb implements the store interfaces on a gorm connection, for
// both SQLite and Postgres.
package gormdb

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/model"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/model/convert"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// ProgressStore persists snapshots in the game_progresses table.
type ProgressStore struct {
	db *gorm.DB
}

// NewProgressStore wraps a gorm connection.
func NewProgressStore(db *gorm.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Current returns the most recently started row without an end time.
func (s *ProgressStore) Current() (core.GameProgress, bool, error) {
	var row model.GameProgress
	err := s.db.Where("ended_at IS NULL").Order("started_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.GameProgress{}, false, nil
	}
	if err != nil {
		return core.GameProgress{}, false, fmt.Errorf("load current progress: %w", err)
	}

	p, err := convert.ProgressToCore(row)
	if err != nil {
		return core.GameProgress{}, false, fmt.Errorf("decode current progress: %w", err)
	}
	return p, true, nil
}

// Save upserts a snapshot keyed by game ID.
func (s *ProgressStore) Save(p core.GameProgress) error {
	row, err := convert.CoreToProgress(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

// History returns ended games, most recent first.
func (s *ProgressStore) History() ([]core.GameProgress, error) {
	var rows []model.GameProgress
	err := s.db.Where("ended_at IS NOT NULL").Order("started_at DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	out := make([]core.GameProgress, 0, len(rows))
	for _, row := range rows {
		p, err := convert.ProgressToCore(row)
		if err != nil {
			return nil, fmt.Errorf("decode history row %s: %w", row.GameID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// AchievementStore persists achievement records and the ever-visited set.
type AchievementStore struct {
	db *gorm.DB
}

// NewAchievementStore wraps a gorm connection.
func NewAchievementStore(db *gorm.DB) *AchievementStore {
	return &AchievementStore{db: db}
}

// Records returns all records sorted by achievement ID.
func (s *AchievementStore) Records() ([]core.AchievementRecord, error) {
	var rows []model.AchievementRecord
	if err := s.db.Order("achievement_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load achievement records: %w", err)
	}
	out := make([]core.AchievementRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, convert.AchievementRecordToCore(row))
	}
	return out, nil
}

// SaveRecords upserts the given records keyed by achievement ID.
func (s *AchievementStore) SaveRecords(records []core.AchievementRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]model.AchievementRecord, 0, len(records))
	for _, r := range records {
		rows = append(rows, convert.CoreToAchievementRecord(r))
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "achievement_id"}},
		UpdateAll: true,
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("save achievement records: %w", err)
	}
	return nil
}

// EverVisited returns the cumulative visited set.
func (s *AchievementStore) EverVisited() (map[string]bool, error) {
	var rows []model.EverVisitedSpot
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load ever-visited set: %w", err)
	}
	out := make(map[string]bool, len(rows))
	for _, row := range rows {
		out[row.SpotID] = true
	}
	return out, nil
}

// AddEverVisited inserts spot IDs into the cumulative set, ignoring ones
// already present.
func (s *AchievementStore) AddEverVisited(spotIDs []string) error {
	if len(spotIDs) == 0 {
		return nil
	}
	rows := make([]model.EverVisitedSpot, 0, len(spotIDs))
	for _, id := range spotIDs {
		rows = append(rows, model.EverVisitedSpot{SpotID: id})
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "spot_id"}},
		DoNothing: true,
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("add ever-visited spots: %w", err)
	}
	return nil
}
