package model

import (
	"database/sql"
	"time"

	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Spot{},
	&Station{},
	&GameProgress{},
	&AchievementRecord{},
	&EverVisitedSpot{},
}

////////////////////////
// MASTER DATA
////////////////////////

// Spot is a master-data point of interest. Lat/Lng are WGS84 for reads; the
// Location column carries the same point in EPSG:3857 for spatial queries.
type Spot struct {
	gorm.Model
	SpotID      string     `json:"spotId" gorm:"size:64;uniqueIndex:idx_spots_spot_id"`
	Name        string     `json:"name" gorm:"size:255"`
	Lat         float64    `json:"lat"`
	Lng         float64    `json:"lng"`
	Location    geom.Point `json:"location"`
	Score       int        `json:"score"`
	Size        string     `json:"size" gorm:"size:16"`
	Category    string     `json:"category" gorm:"size:64;index:idx_spots_category"`
	Postal      string     `json:"postal" gorm:"size:16;index:idx_spots_postal"`
	Address     string     `json:"address" gorm:"size:255"`
	JudgeTarget int        `json:"judgeTarget" gorm:"index:idx_spots_judge_target"`
}

func (*Spot) TableName() string {
	return "spots"
}

// Station is a master-data JR station on the strictly linear line.
type Station struct {
	gorm.Model
	StationID  string     `json:"stationId" gorm:"size:64;uniqueIndex:idx_stations_station_id"`
	Name       string     `json:"name" gorm:"size:255"`
	OrderIndex int        `json:"orderIndex" gorm:"index:idx_stations_order_index"`
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	Location   geom.Point `json:"location"`
	PrevRouteM float64    `json:"prevRouteM"`
	NextRouteM float64    `json:"nextRouteM"`
	Score      int        `json:"score"`
}

func (*Station) TableName() string {
	return "stations"
}

////////////////////////
// GAME STATE
////////////////////////

// GameProgress is the persisted snapshot of one game session. Sets and the
// event log are stored as JSON columns; the row is replaced wholesale after
// each successful transition.
//
// UsedStationIDs is a legacy column: early builds recorded scored stations
// under that name. Reads merge it into ScoredStationIDs; writes leave it
// empty.
type GameProgress struct {
	gorm.Model
	GameID           string         `json:"gameId" gorm:"size:64;uniqueIndex:idx_game_progresses_game_id"`
	StartedAt        time.Time      `json:"startedAt" gorm:"type:timestamptz"`
	Config           datatypes.JSON `json:"config"`
	CPSpotIDs        datatypes.JSON `json:"cpSpotIds"`
	ReachedCPIDs     datatypes.JSON `json:"reachedCpIds"`
	VisitedSpotIDs   datatypes.JSON `json:"visitedSpotIds"`
	ScoredStationIDs datatypes.JSON `json:"scoredStationIds"`
	UsedStationIDs   datatypes.JSON `json:"usedStationIds,omitempty"`
	StationEvents    datatypes.JSON `json:"stationEvents"`
	BoardedStationID string         `json:"boardedStationId" gorm:"size:64"`
	CooldownUntil    time.Time      `json:"cooldownUntil" gorm:"type:timestamptz"`
	Score            int            `json:"score"`
	Penalty          int            `json:"penalty"`
	EndedAt          sql.NullTime   `json:"endedAt" gorm:"type:timestamptz"`
	EndReason        string         `json:"endReason" gorm:"size:16"`
	LastLocation     datatypes.JSON `json:"lastLocation"`
}

func (*GameProgress) TableName() string {
	return "game_progresses"
}

// AchievementRecord is the cross-game unlock record for one achievement.
type AchievementRecord struct {
	gorm.Model
	AchievementID   string    `json:"achievementId" gorm:"size:128;uniqueIndex:idx_achievement_records_achievement_id"`
	FirstUnlockedAt time.Time `json:"firstUnlockedAt" gorm:"type:timestamptz"`
	LastUnlockedAt  time.Time `json:"lastUnlockedAt" gorm:"type:timestamptz"`
	UnlockCount     int       `json:"unlockCount"`
}

func (*AchievementRecord) TableName() string {
	return "achievement_records"
}

// EverVisitedSpot is one member of the cumulative visited set that persists
// across games and is never reset. Used for cumulative achievement display.
type EverVisitedSpot struct {
	gorm.Model
	SpotID string `json:"spotId" gorm:"size:64;uniqueIndex:idx_ever_visited_spots_spot_id"`
}

func (*EverVisitedSpot) TableName() string {
	return "ever_visited_spots"
}
