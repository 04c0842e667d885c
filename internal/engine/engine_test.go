package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// Fixture geometry is anchored near Makurazaki station. Offsets are expressed
// in degrees of latitude; 0.0001 deg is roughly 11m.
var (
	t0      = time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	baseLoc = core.LatLng{Lat: 31.20000, Lng: 130.50000}
)

// latOffset shifts a coordinate north by roughly the given number of meters.
func latOffset(ll core.LatLng, meters float64) core.LatLng {
	return core.LatLng{Lat: ll.Lat + meters/111194.9, Lng: ll.Lng}
}

func fixAt(ll core.LatLng, accuracyM float64) core.Fix {
	return core.Fix{LatLng: ll, AccuracyM: accuracyM}
}

// runningProgress returns a fresh in-play snapshot started at t0 with a
// 180-minute duration and JR enabled, start and goal both at baseLoc.
func runningProgress() core.GameProgress {
	start := baseLoc
	goal := baseLoc
	return core.GameProgress{
		GameID:    "game-0001",
		StartedAt: t0,
		Config: core.GameConfig{
			DurationMin: 180,
			JREnabled:   true,
			Start:       &start,
			Goal:        &goal,
		},
		ReachedCPIDs:     make(map[string]bool),
		VisitedSpotIDs:   make(map[string]bool),
		ScoredStationIDs: make(map[string]bool),
	}
}

func failCode(t *testing.T, err error) core.FailCode {
	t.Helper()
	require.Error(t, err)
	var cerr *core.CheckInError
	require.ErrorAs(t, err, &cerr)
	return cerr.Code
}
