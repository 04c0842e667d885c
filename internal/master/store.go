package master

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/model"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/model/convert"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// Store persists master data and serves it back as core types.
type Store struct {
	db *gorm.DB
}

// NewStore wraps a gorm connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// SyncSpots upserts the imported spot master, keyed by spot ID.
func (s *Store) SyncSpots(spots []core.Spot) error {
	if len(spots) == 0 {
		return nil
	}
	rows := make([]model.Spot, 0, len(spots))
	for _, sp := range spots {
		rows = append(rows, convert.CoreToSpot(sp))
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "spot_id"}},
		UpdateAll: true,
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("sync spots: %w", err)
	}
	return nil
}

// SyncStations upserts the imported station master, keyed by station ID.
func (s *Store) SyncStations(stations []core.Station) error {
	if len(stations) == 0 {
		return nil
	}
	rows := make([]model.Station, 0, len(stations))
	for _, st := range stations {
		rows = append(rows, convert.CoreToStation(st))
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "station_id"}},
		UpdateAll: true,
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("sync stations: %w", err)
	}
	return nil
}

// Spots returns the full spot master.
func (s *Store) Spots() ([]core.Spot, error) {
	var rows []model.Spot
	if err := s.db.Order("spot_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load spots: %w", err)
	}
	spots := make([]core.Spot, 0, len(rows))
	for _, row := range rows {
		spots = append(spots, convert.SpotToCore(row))
	}
	return spots, nil
}

// JudgeSpots returns the playable subset of the spot master.
func (s *Store) JudgeSpots() ([]core.Spot, error) {
	var rows []model.Spot
	if err := s.db.Where("judge_target = ?", 1).Order("spot_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load judge spots: %w", err)
	}
	spots := make([]core.Spot, 0, len(rows))
	for _, row := range rows {
		spots = append(spots, convert.SpotToCore(row))
	}
	return spots, nil
}

// Stations returns the station master in line order.
func (s *Store) Stations() ([]core.Station, error) {
	var rows []model.Station
	if err := s.db.Order("order_index").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}
	stations := make([]core.Station, 0, len(rows))
	for _, row := range rows {
		stations = append(stations, convert.StationToCore(row))
	}
	return stations, nil
}
