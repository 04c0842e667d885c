package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
	"github.com/google/uuid"
)

// StartNewGame resolves the config against the player's current location and
// returns a fresh RUNNING progress snapshot. Fixed start/goal coordinates are
// honored; unset ones resolve to the current fix. Checkpoints are selected
// once here and stay fixed for the game's duration (debug reassignment aside).
func StartNewGame(cfg core.GameConfig, current core.LatLng, pool []core.Spot, rng *rand.Rand, now time.Time) core.GameProgress {
	resolved := cfg
	if resolved.Start == nil {
		start := current
		resolved.Start = &start
	}
	if resolved.Goal == nil {
		goal := current
		resolved.Goal = &goal
	}

	return core.GameProgress{
		GameID:           uuid.NewString(),
		StartedAt:        now,
		Config:           resolved,
		CPSpotIDs:        SelectCPSpots(pool, resolved, rng),
		ReachedCPIDs:     make(map[string]bool),
		VisitedSpotIDs:   make(map[string]bool),
		ScoredStationIDs: make(map[string]bool),
	}
}

// ReassignCP swaps one configured checkpoint for another pool spot, keeping
// order. This is the debug drag-to-reassign operation; regular play never
// changes cpSpotIds after start.
func ReassignCP(p core.GameProgress, oldID, newID string, pool []core.Spot) (core.GameProgress, error) {
	if p.Ended() {
		return core.GameProgress{}, fmt.Errorf("game has ended")
	}
	if p.IsCP(newID) {
		return core.GameProgress{}, fmt.Errorf("spot %s is already a checkpoint", newID)
	}
	found := false
	for _, s := range pool {
		if s.ID == newID {
			found = true
			break
		}
	}
	if !found {
		return core.GameProgress{}, fmt.Errorf("spot %s not in checkpoint pool", newID)
	}

	next := p.Clone()
	replaced := false
	for i, id := range next.CPSpotIDs {
		if id == oldID {
			next.CPSpotIDs[i] = newID
			replaced = true
			break
		}
	}
	if !replaced {
		return core.GameProgress{}, fmt.Errorf("spot %s is not a configured checkpoint", oldID)
	}
	delete(next.ReachedCPIDs, oldID)
	return next, nil
}
