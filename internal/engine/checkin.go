package engine

import (
	"fmt"
	"time"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/geo"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// CheckInSpotOrCP attempts a check-in against the playable (JudgeTarget=1)
// spot master. The target is the nearest in-radius spot, adjusted by the
// dense-cluster rule; its score is credited the first time it enters the
// visited set, and checkpoint membership is recorded idempotently.
func CheckInSpotOrCP(p core.GameProgress, fix core.Fix, judgeSpots []core.Spot, now time.Time) (core.CheckInResult, error) {
	if err := checkCommon(p, fix); err != nil {
		return core.CheckInResult{}, err
	}

	cands := spotsWithinRadius(fix.LatLng, judgeSpots)
	if len(cands) == 0 {
		return core.CheckInResult{}, core.Fail(core.FailNoSpot,
			"no spot within %dm", int(CheckInRadiusM))
	}
	rankSpotCandidates(cands)
	base := cands[0]

	target := resolveDenseCluster(base, cands, p.VisitedSpotIDs)

	// while boarded, only station-tagged spots can be checked in here
	if p.BoardedStationID != "" && target.spot.Category != core.SpotCategoryStation {
		return core.CheckInResult{}, core.Fail(core.FailInTrain,
			"cannot check in at %s while on board", target.spot.Name)
	}

	next := p.Clone()
	firstVisit := !next.VisitedSpotIDs[target.spot.ID]
	if firstVisit {
		next.Score += target.spot.Score
	}
	next.VisitedSpotIDs[target.spot.ID] = true

	kind := core.KindSpot
	if next.IsCP(target.spot.ID) {
		next.ReachedCPIDs[target.spot.ID] = true
		kind = core.KindCP
	}
	next.LastLocation = &core.Fix{LatLng: fix.LatLng, AccuracyM: fix.AccuracyM}

	msg := fmt.Sprintf("checked in at %s", target.spot.Name)
	if firstVisit && target.spot.Score > 0 {
		msg = fmt.Sprintf("checked in at %s (+%d)", target.spot.Name, target.spot.Score)
	} else if !firstVisit {
		msg = fmt.Sprintf("already visited %s", target.spot.Name)
	}

	return core.CheckInResult{Kind: kind, Message: msg, Progress: next}, nil
}

// resolveDenseCluster applies the dense-cluster rule: starting from the base
// candidate, flood-fill the connected component of in-radius candidates under
// the "mutual distance ≤ 3m" edge relation. Within a component of size > 1,
// unvisited members are preferred (falling back to all members when every one
// has been visited), re-ranked by the standard tie-break. A farther unvisited
// member can therefore win over a closer visited one; that is intended, to
// encourage full cluster exploration.
func resolveDenseCluster(base spotCandidate, cands []spotCandidate, visited map[string]bool) spotCandidate {
	component := clusterComponent(base, cands)
	if len(component) <= 1 {
		return base
	}

	pool := make([]spotCandidate, 0, len(component))
	for _, c := range component {
		if !visited[c.spot.ID] {
			pool = append(pool, c)
		}
	}
	if len(pool) == 0 {
		pool = component
	}
	rankSpotCandidates(pool)
	return pool[0]
}

// clusterComponent runs a BFS over the in-radius candidate set (not the full
// spot list) from the base candidate, connecting candidates whose mutual
// distance is within the dense-cluster threshold.
func clusterComponent(base spotCandidate, cands []spotCandidate) []spotCandidate {
	inComponent := map[string]bool{base.spot.ID: true}
	component := []spotCandidate{base}
	queue := []spotCandidate{base}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range cands {
			if inComponent[c.spot.ID] {
				continue
			}
			if geo.DistanceMeters(cur.spot.Location(), c.spot.Location()) <= DenseClusterRadiusM {
				inComponent[c.spot.ID] = true
				component = append(component, c)
				queue = append(queue, c)
			}
		}
	}
	return component
}
