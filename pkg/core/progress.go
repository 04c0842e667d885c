// pkg/core/progress.go
package core

import (
	"strings"
	"time"
)

// City names used by the checkpoint city filter and the achievement catalog.
// Spot addresses are matched by substring.
const (
	CityIbusuki      = "指宿市"
	CityMinamikyushu = "南九州市"
	CityMakurazaki   = "枕崎市"
)

// CityOf returns the city name contained in a spot address, or "" when the
// address belongs to none of the known cities.
func CityOf(address string) string {
	for _, city := range []string{CityIbusuki, CityMinamikyushu, CityMakurazaki} {
		if strings.Contains(address, city) {
			return city
		}
	}
	return ""
}

// CityFilter restricts checkpoint candidates to the enabled cities.
// With no flag set, no restriction applies.
type CityFilter struct {
	Ibusuki      bool `json:"ibusuki"`
	Minamikyushu bool `json:"minamikyushu"`
	Makurazaki   bool `json:"makurazaki"`
}

// Any returns true if at least one city flag is enabled.
func (f CityFilter) Any() bool {
	return f.Ibusuki || f.Minamikyushu || f.Makurazaki
}

// Cities returns the enabled city names.
func (f CityFilter) Cities() []string {
	var cities []string
	if f.Ibusuki {
		cities = append(cities, CityIbusuki)
	}
	if f.Minamikyushu {
		cities = append(cities, CityMinamikyushu)
	}
	if f.Makurazaki {
		cities = append(cities, CityMakurazaki)
	}
	return cities
}

// GameConfig describes one game session. Start and Goal may be nil before the
// game starts, in which case they resolve to the player's current location;
// a running game's config always carries concrete coordinates.
type GameConfig struct {
	DurationMin int        `json:"durationMin"` // 15-minute granularity
	JREnabled   bool       `json:"jrEnabled"`
	CPCount     int        `json:"cpCount"` // clamped to 0..5
	Start       *LatLng    `json:"start,omitempty"`
	Goal        *LatLng    `json:"goal,omitempty"`
	CityFilter  CityFilter `json:"cityFilter"`
}

// StationEventType discriminates boarding from alighting in the ride log.
type StationEventType string

const (
	StationEventBoard  StationEventType = "BOARD"
	StationEventAlight StationEventType = "ALIGHT"
)

// StationEvent is one entry in the ordered board/alight log.
type StationEvent struct {
	Type      StationEventType `json:"type"`
	StationID string           `json:"stationId"`
	At        time.Time        `json:"at"`
}

// EndReason records how a game ended.
type EndReason string

const (
	EndReasonGoal      EndReason = "GOAL"
	EndReasonAbandoned EndReason = "ABANDONED"
)

// GameProgress is the aggregate state of one active game. The engine treats it
// as immutable: every operation works on a Clone and returns a new snapshot,
// leaving the caller responsible for replacing the stored one atomically.
type GameProgress struct {
	GameID    string     `json:"gameId"`
	StartedAt time.Time  `json:"startedAt"`
	Config    GameConfig `json:"config"`

	CPSpotIDs        []string        `json:"cpSpotIds"`
	ReachedCPIDs     map[string]bool `json:"reachedCpIds"`
	VisitedSpotIDs   map[string]bool `json:"visitedSpotIds"`
	ScoredStationIDs map[string]bool `json:"scoredStationIds"`

	StationEvents    []StationEvent `json:"stationEvents"`
	BoardedStationID string         `json:"boardedStationId,omitempty"`
	CooldownUntil    time.Time      `json:"cooldownUntil"`

	Score   int `json:"score"`
	Penalty int `json:"penalty"`

	EndedAt   *time.Time `json:"endedAt,omitempty"`
	EndReason EndReason  `json:"endReason,omitempty"`

	LastLocation *Fix `json:"lastLocation,omitempty"`
}

// Ended returns true once the game reached a terminal state.
func (p GameProgress) Ended() bool {
	return p.EndedAt != nil
}

// PlannedEnd is the configured end time of the session.
func (p GameProgress) PlannedEnd() time.Time {
	return p.StartedAt.Add(time.Duration(p.Config.DurationMin) * time.Minute)
}

// IsCP reports whether the given spot ID is one of this game's checkpoints.
func (p GameProgress) IsCP(spotID string) bool {
	for _, id := range p.CPSpotIDs {
		if id == spotID {
			return true
		}
	}
	return false
}

// Clone returns a structurally independent copy of the snapshot.
func (p GameProgress) Clone() GameProgress {
	c := p
	c.CPSpotIDs = append([]string(nil), p.CPSpotIDs...)
	c.ReachedCPIDs = cloneSet(p.ReachedCPIDs)
	c.VisitedSpotIDs = cloneSet(p.VisitedSpotIDs)
	c.ScoredStationIDs = cloneSet(p.ScoredStationIDs)
	c.StationEvents = append([]StationEvent(nil), p.StationEvents...)
	if p.EndedAt != nil {
		endedAt := *p.EndedAt
		c.EndedAt = &endedAt
	}
	if p.LastLocation != nil {
		loc := *p.LastLocation
		c.LastLocation = &loc
	}
	if p.Config.Start != nil {
		start := *p.Config.Start
		c.Config.Start = &start
	}
	if p.Config.Goal != nil {
		goal := *p.Config.Goal
		c.Config.Goal = &goal
	}
	return c
}

func cloneSet(s map[string]bool) map[string]bool {
	c := make(map[string]bool, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}
