package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/geo"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// checkJRGates enforces the preconditions shared by board and alight:
// the JR feature toggle and the inter-action cooldown.
func checkJRGates(p core.GameProgress, now time.Time) *core.CheckInError {
	if !p.Config.JREnabled {
		return core.Fail(core.FailJRDisabled, "JR check-in is disabled for this game")
	}
	if now.Before(p.CooldownUntil) {
		remaining := int(math.Ceil(p.CooldownUntil.Sub(now).Seconds()))
		return core.Fail(core.FailCooldown, "wait %ds before the next JR action", remaining)
	}
	return nil
}

// BoardTrain opens a boarding at the nearest in-radius station. Boarding
// itself scores nothing; points are credited on alight.
func BoardTrain(p core.GameProgress, fix core.Fix, stations []core.Station, now time.Time) (core.CheckInResult, error) {
	if err := checkCommon(p, fix); err != nil {
		return core.CheckInResult{}, err
	}
	if err := checkJRGates(p, now); err != nil {
		return core.CheckInResult{}, err
	}
	if p.BoardedStationID != "" {
		return core.CheckInResult{}, core.Fail(core.FailAlreadyBoarded,
			"already on board from station %s", p.BoardedStationID)
	}

	station, ok := nearestStation(fix.LatLng, stations)
	if !ok {
		return core.CheckInResult{}, core.Fail(core.FailNoStation,
			"no station within %dm", int(CheckInRadiusM))
	}

	next := p.Clone()
	next.BoardedStationID = station.ID
	next.StationEvents = append(next.StationEvents, core.StationEvent{
		Type:      core.StationEventBoard,
		StationID: station.ID,
		At:        now,
	})
	next.CooldownUntil = now.Add(JRCooldown)
	next.LastLocation = &core.Fix{LatLng: fix.LatLng, AccuracyM: fix.AccuracyM}

	return core.CheckInResult{
		Kind:     core.KindBoard,
		Message:  fmt.Sprintf("boarded at %s", station.Name),
		Progress: next,
	}, nil
}

// AlightTrain closes the open boarding at the nearest in-radius station and
// credits every station on the ride (boarded, strictly between, and alight)
// that has not been scored earlier this game.
func AlightTrain(p core.GameProgress, fix core.Fix, stations []core.Station, now time.Time) (core.CheckInResult, error) {
	if err := checkCommon(p, fix); err != nil {
		return core.CheckInResult{}, err
	}
	if err := checkJRGates(p, now); err != nil {
		return core.CheckInResult{}, err
	}
	if p.BoardedStationID == "" {
		return core.CheckInResult{}, core.Fail(core.FailNotBoarded, "not on board")
	}

	station, ok := nearestStation(fix.LatLng, stations)
	if !ok {
		return core.CheckInResult{}, core.Fail(core.FailNoStation,
			"no station within %dm", int(CheckInRadiusM))
	}
	if station.ID == p.BoardedStationID {
		return core.CheckInResult{}, core.Fail(core.FailSameStation,
			"cannot alight at the boarding station %s", station.Name)
	}

	line := geo.NewLine(stations)
	ride, err := line.RideSet(p.BoardedStationID, station.ID)
	if err != nil {
		// stale progress/master pairing; non-fatal, the caller logs it
		return core.CheckInResult{}, core.Fail(core.FailBoardStationUnknown,
			"boarded station %s not found in station master", p.BoardedStationID)
	}

	next := p.Clone()
	gained := 0
	var passed []string
	for _, s := range ride {
		if s.ID != p.BoardedStationID && s.ID != station.ID {
			passed = append(passed, s.Name)
		}
		if next.ScoredStationIDs[s.ID] {
			continue
		}
		if s.Score > 0 {
			gained += s.Score
		}
		next.ScoredStationIDs[s.ID] = true
	}

	next.Score += gained
	next.BoardedStationID = ""
	next.StationEvents = append(next.StationEvents, core.StationEvent{
		Type:      core.StationEventAlight,
		StationID: station.ID,
		At:        now,
	})
	next.CooldownUntil = now.Add(JRCooldown)
	next.LastLocation = &core.Fix{LatLng: fix.LatLng, AccuracyM: fix.AccuracyM}

	msg := fmt.Sprintf("alighted at %s (+%d)", station.Name, gained)
	if len(passed) > 0 {
		msg = fmt.Sprintf("alighted at %s via %s (+%d)", station.Name, strings.Join(passed, ", "), gained)
	}

	return core.CheckInResult{Kind: core.KindAlight, Message: msg, Progress: next}, nil
}
