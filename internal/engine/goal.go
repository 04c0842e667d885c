package engine

import (
	"fmt"
	"time"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/geo"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// GoalCheckIn finishes the game at the configured goal. There is no JR or
// cooldown gating here; the only gates are the common preconditions and the
// goal radius. The transition is terminal: no further check-ins are accepted.
func GoalCheckIn(p core.GameProgress, fix core.Fix, now time.Time) (core.CheckInResult, error) {
	if err := checkCommon(p, fix); err != nil {
		return core.CheckInResult{}, err
	}

	goal := p.Config.Goal
	if goal == nil {
		// a running game always carries a resolved goal; treat missing data
		// the same as being out of range
		return core.CheckInResult{}, core.Fail(core.FailNotAtGoal, "goal is not set")
	}
	if d := geo.DistanceMeters(fix.LatLng, *goal); d > CheckInRadiusM {
		return core.CheckInResult{}, core.Fail(core.FailNotAtGoal,
			"goal is %dm away (must be within %dm)", int(d), int(CheckInRadiusM))
	}

	timePenalty := CalcPenalty(p.StartedAt, p.Config.DurationMin, now)
	missedCPs := 0
	for _, id := range p.CPSpotIDs {
		if !p.ReachedCPIDs[id] {
			missedCPs++
		}
	}
	cpPenalty := CPMissPenalty * missedCPs
	total := timePenalty + cpPenalty

	next := p.Clone()
	next.Penalty = total
	next.Score -= total
	endedAt := now
	next.EndedAt = &endedAt
	next.EndReason = core.EndReasonGoal
	next.LastLocation = &core.Fix{LatLng: fix.LatLng, AccuracyM: fix.AccuracyM}

	msg := fmt.Sprintf("goal! final score %d (penalty %d)", next.Score, total)
	return core.CheckInResult{Kind: core.KindGoal, Message: msg, Progress: next}, nil
}

// CalcPenalty computes the time penalty for finishing at goalTime: one point
// per whole minute (seconds truncated, not rounded) outside the grace window
// around the planned end. Arriving more than the grace early is penalized
// against the early threshold; arriving late is penalized against the planned
// end itself.
func CalcPenalty(startedAt time.Time, durationMin int, goalTime time.Time) int {
	plannedEnd := startedAt.Add(time.Duration(durationMin) * time.Minute)
	earlyThreshold := plannedEnd.Add(-GoalGrace)

	switch {
	case goalTime.Before(earlyThreshold):
		return floorMinutes(earlyThreshold.Sub(goalTime))
	case goalTime.After(plannedEnd):
		return floorMinutes(goalTime.Sub(plannedEnd))
	default:
		return 0
	}
}

// Abandon ends the game without a goal check-in. No penalty arithmetic runs;
// the score stays where it was.
func Abandon(p core.GameProgress, now time.Time) (core.GameProgress, error) {
	if p.Ended() {
		return core.GameProgress{}, core.Fail(core.FailGameEnded,
			"this game has already ended (%s)", p.EndReason)
	}
	next := p.Clone()
	endedAt := now
	next.EndedAt = &endedAt
	next.EndReason = core.EndReasonAbandoned
	return next, nil
}
