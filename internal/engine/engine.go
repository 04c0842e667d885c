// Package engine implements the game-progress state machine: check-in
// eligibility, scoring, penalties, checkpoint selection. Every operation is a
// pure state transition: it takes an immutable progress snapshot plus inputs
// and returns either a brand-new snapshot inside a CheckInResult, or a typed
// *core.CheckInError. Failures never mutate the input; persisting the returned
// snapshot is the caller's job.
package engine

import (
	"math"
	"sort"
	"time"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/geo"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// Game rule constants.
const (
	// CheckInRadiusM is how close a fix must be to a spot, station or the goal.
	CheckInRadiusM = 50.0

	// DenseClusterRadiusM is the mutual-distance threshold under which spots
	// are treated as a single check-in opportunity.
	DenseClusterRadiusM = 3.0

	// MaxAccuracyM rejects fixes whose reported accuracy is worse than this.
	MaxAccuracyM = 100.0

	// JRCooldown spaces successive board/alight actions.
	JRCooldown = 60 * time.Second

	// CPMissPenalty is charged per configured checkpoint not reached, at goal.
	CPMissPenalty = 100

	// GoalGrace is the early/late window around the planned end with no
	// time penalty.
	GoalGrace = 15 * time.Minute

	// MaxCPCount bounds the checkpoint count a config may ask for.
	MaxCPCount = 5

	// cpShortlistSize caps the detour-ratio shortlist for small CP counts.
	cpShortlistSize = 30
)

// checkCommon enforces the preconditions shared by every check-in operation.
func checkCommon(p core.GameProgress, fix core.Fix) *core.CheckInError {
	if p.Ended() {
		return core.Fail(core.FailGameEnded, "this game has already ended (%s)", p.EndReason)
	}
	if fix.AccuracyM > MaxAccuracyM {
		return core.Fail(core.FailAccuracyTooBad,
			"location accuracy too poor: ±%dm (max ±%dm)",
			int(math.Round(fix.AccuracyM)), int(MaxAccuracyM))
	}
	return nil
}

// spotCandidate pairs a spot with its distance from the current fix.
type spotCandidate struct {
	spot  core.Spot
	distM float64
}

// spotsWithinRadius collects spots within the check-in radius of the fix.
func spotsWithinRadius(loc core.LatLng, spots []core.Spot) []spotCandidate {
	var out []spotCandidate
	for _, s := range spots {
		if d := geo.DistanceMeters(loc, s.Location()); d <= CheckInRadiusM {
			out = append(out, spotCandidate{spot: s, distM: d})
		}
	}
	return out
}

// rankSpotCandidates sorts candidates by ascending distance, then descending
// score, then ascending ID. The ordering is total, so selection is
// deterministic for any input.
func rankSpotCandidates(cands []spotCandidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].distM != cands[j].distM {
			return cands[i].distM < cands[j].distM
		}
		if cands[i].spot.Score != cands[j].spot.Score {
			return cands[i].spot.Score > cands[j].spot.Score
		}
		return cands[i].spot.ID < cands[j].spot.ID
	})
}

// stationCandidate pairs a station with its distance from the current fix.
type stationCandidate struct {
	station core.Station
	distM   float64
}

// nearestStation resolves the station candidate for a board/alight fix:
// within the check-in radius, ranked by ascending distance then ascending ID.
func nearestStation(loc core.LatLng, stations []core.Station) (core.Station, bool) {
	var cands []stationCandidate
	for _, s := range stations {
		if d := geo.DistanceMeters(loc, s.Location()); d <= CheckInRadiusM {
			cands = append(cands, stationCandidate{station: s, distM: d})
		}
	}
	if len(cands) == 0 {
		return core.Station{}, false
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].distM != cands[j].distM {
			return cands[i].distM < cands[j].distM
		}
		return cands[i].station.ID < cands[j].station.ID
	})
	return cands[0].station, true
}

// floorMinutes truncates a duration down to whole minutes.
func floorMinutes(d time.Duration) int {
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}
