// Package convert provides functions to convert between GORM models and core models
package convert

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	"gorm.io/datatypes"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/geo"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/model"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// setToJSON stores an ID set as a sorted JSON array.
func setToJSON(set map[string]bool) datatypes.JSON {
	if len(set) == 0 {
		return datatypes.JSON("[]")
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	data, _ := json.Marshal(ids)
	return datatypes.JSON(data)
}

// jsonToSet reads a JSON array column back into an ID set.
func jsonToSet(data datatypes.JSON) (map[string]bool, error) {
	set := make(map[string]bool)
	if len(data) == 0 {
		return set, nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// CoreToSpot converts a core.Spot to a GORM model.Spot.
func CoreToSpot(s core.Spot) model.Spot {
	return model.Spot{
		SpotID:      s.ID,
		Name:        s.Name,
		Lat:         s.Lat,
		Lng:         s.Lng,
		Location:    geo.Point3857From4326(s.Location()),
		Score:       s.Score,
		Size:        s.Size,
		Category:    s.Category,
		Postal:      s.Postal,
		Address:     s.Address,
		JudgeTarget: s.JudgeTarget,
	}
}

// SpotToCore converts a GORM model.Spot back to a core.Spot.
func SpotToCore(s model.Spot) core.Spot {
	return core.Spot{
		ID:          s.SpotID,
		Name:        s.Name,
		Lat:         s.Lat,
		Lng:         s.Lng,
		Score:       s.Score,
		Size:        s.Size,
		Category:    s.Category,
		Postal:      s.Postal,
		Address:     s.Address,
		JudgeTarget: s.JudgeTarget,
	}
}

// CoreToStation converts a core.Station to a GORM model.Station.
func CoreToStation(s core.Station) model.Station {
	return model.Station{
		StationID:  s.ID,
		Name:       s.Name,
		OrderIndex: s.OrderIndex,
		Lat:        s.Lat,
		Lng:        s.Lng,
		Location:   geo.Point3857From4326(s.Location()),
		PrevRouteM: s.PrevRouteM,
		NextRouteM: s.NextRouteM,
		Score:      s.Score,
	}
}

// StationToCore converts a GORM model.Station back to a core.Station.
func StationToCore(s model.Station) core.Station {
	return core.Station{
		ID:         s.StationID,
		Name:       s.Name,
		OrderIndex: s.OrderIndex,
		Lat:        s.Lat,
		Lng:        s.Lng,
		PrevRouteM: s.PrevRouteM,
		NextRouteM: s.NextRouteM,
		Score:      s.Score,
	}
}

// CoreToProgress converts a core.GameProgress snapshot into its persisted row.
func CoreToProgress(p core.GameProgress) (model.GameProgress, error) {
	configJSON, err := json.Marshal(p.Config)
	if err != nil {
		return model.GameProgress{}, fmt.Errorf("marshal config: %w", err)
	}
	cpJSON, _ := json.Marshal(p.CPSpotIDs)
	if p.CPSpotIDs == nil {
		cpJSON = []byte("[]")
	}
	eventsJSON, _ := json.Marshal(p.StationEvents)
	if p.StationEvents == nil {
		eventsJSON = []byte("[]")
	}

	row := model.GameProgress{
		GameID:           p.GameID,
		StartedAt:        p.StartedAt,
		Config:           configJSON,
		CPSpotIDs:        cpJSON,
		ReachedCPIDs:     setToJSON(p.ReachedCPIDs),
		VisitedSpotIDs:   setToJSON(p.VisitedSpotIDs),
		ScoredStationIDs: setToJSON(p.ScoredStationIDs),
		StationEvents:    eventsJSON,
		BoardedStationID: p.BoardedStationID,
		CooldownUntil:    p.CooldownUntil,
		Score:            p.Score,
		Penalty:          p.Penalty,
		EndReason:        string(p.EndReason),
	}
	if p.EndedAt != nil {
		row.EndedAt = sql.NullTime{Time: *p.EndedAt, Valid: true}
	}
	if p.LastLocation != nil {
		locJSON, _ := json.Marshal(p.LastLocation)
		row.LastLocation = locJSON
	}
	return row, nil
}

// ProgressToCore converts a persisted row back into a core.GameProgress.
// Rows written by early builds stored scored stations in the usedStationIds
// column; those are merged into the scored set here.
func ProgressToCore(row model.GameProgress) (core.GameProgress, error) {
	p := core.GameProgress{
		GameID:           row.GameID,
		StartedAt:        row.StartedAt,
		BoardedStationID: row.BoardedStationID,
		CooldownUntil:    row.CooldownUntil,
		Score:            row.Score,
		Penalty:          row.Penalty,
		EndReason:        core.EndReason(row.EndReason),
	}

	if len(row.Config) > 0 {
		if err := json.Unmarshal(row.Config, &p.Config); err != nil {
			return core.GameProgress{}, fmt.Errorf("unmarshal config: %w", err)
		}
	}
	if len(row.CPSpotIDs) > 0 {
		if err := json.Unmarshal(row.CPSpotIDs, &p.CPSpotIDs); err != nil {
			return core.GameProgress{}, fmt.Errorf("unmarshal cpSpotIds: %w", err)
		}
	}

	var err error
	if p.ReachedCPIDs, err = jsonToSet(row.ReachedCPIDs); err != nil {
		return core.GameProgress{}, fmt.Errorf("unmarshal reachedCpIds: %w", err)
	}
	if p.VisitedSpotIDs, err = jsonToSet(row.VisitedSpotIDs); err != nil {
		return core.GameProgress{}, fmt.Errorf("unmarshal visitedSpotIds: %w", err)
	}
	if p.ScoredStationIDs, err = jsonToSet(row.ScoredStationIDs); err != nil {
		return core.GameProgress{}, fmt.Errorf("unmarshal scoredStationIds: %w", err)
	}

	// legacy column merge
	legacy, err := jsonToSet(row.UsedStationIDs)
	if err != nil {
		return core.GameProgress{}, fmt.Errorf("unmarshal usedStationIds: %w", err)
	}
	for id := range legacy {
		p.ScoredStationIDs[id] = true
	}

	if len(row.StationEvents) > 0 {
		if err := json.Unmarshal(row.StationEvents, &p.StationEvents); err != nil {
			return core.GameProgress{}, fmt.Errorf("unmarshal stationEvents: %w", err)
		}
	}
	if row.EndedAt.Valid {
		endedAt := row.EndedAt.Time
		p.EndedAt = &endedAt
	}
	if len(row.LastLocation) > 0 {
		var loc core.Fix
		if err := json.Unmarshal(row.LastLocation, &loc); err != nil {
			return core.GameProgress{}, fmt.Errorf("unmarshal lastLocation: %w", err)
		}
		p.LastLocation = &loc
	}

	return p, nil
}

// CoreToAchievementRecord converts a core record to its persisted row.
func CoreToAchievementRecord(r core.AchievementRecord) model.AchievementRecord {
	return model.AchievementRecord{
		AchievementID:   r.AchievementID,
		FirstUnlockedAt: r.FirstUnlockedAt,
		LastUnlockedAt:  r.LastUnlockedAt,
		UnlockCount:     r.UnlockCount,
	}
}

// AchievementRecordToCore converts a persisted row back to a core record.
func AchievementRecordToCore(r model.AchievementRecord) core.AchievementRecord {
	return core.AchievementRecord{
		AchievementID:   r.AchievementID,
		FirstUnlockedAt: r.FirstUnlockedAt,
		LastUnlockedAt:  r.LastUnlockedAt,
		UnlockCount:     r.UnlockCount,
	}
}
