package telemetry

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/queue"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// Point aliases the InfluxDB point type so callers need no influx import.
type Point = influxdb2_write.Point

// Recorder buffers KPI points and periodically drains them into InfluxDB.
// Submitting a point never blocks the game loop.
type Recorder struct {
	manager  *Manager
	points   *queue.Queue[*influxdb2_write.Point]
	stopChan chan struct{}
}

// NewRecorder creates a recorder draining into the given manager.
func NewRecorder(m *Manager) *Recorder {
	return &Recorder{
		manager: m,
		points:  queue.New[*influxdb2_write.Point](),
	}
}

// Start launches the background goroutine that drains the point queue.
func (r *Recorder) Start() {
	r.stopChan = make(chan struct{})

	go func() {
		for {
			select {
			case <-r.stopChan:
				return
			default:
			}

			if r.points.Empty() {
				time.Sleep(1 * time.Second)
				continue
			}

			for _, point := range r.points.GetAndEmpty() {
				if err := r.manager.WritePoint(context.Background(), point); err != nil {
					r.manager.Logger.Error().Err(err).Msg("Error writing KPI point")
				}
			}
		}
	}()
}

// Stop drains remaining points and stops the background goroutine.
func (r *Recorder) Stop() {
	if r.stopChan != nil {
		close(r.stopChan)
	}
	for _, point := range r.points.GetAndEmpty() {
		if err := r.manager.WritePoint(context.Background(), point); err != nil {
			r.manager.Logger.Error().Err(err).Msg("Error writing KPI point")
		}
	}
}

// Submit enqueues a point for the background writer.
func (r *Recorder) Submit(point *influxdb2_write.Point) {
	r.points.Push(point)
}

// Pending returns the number of points waiting to be written.
func (r *Recorder) Pending() int {
	return r.points.Len()
}

// GameResultPoint summarizes a finished game.
func GameResultPoint(p core.GameProgress, now time.Time) *influxdb2_write.Point {
	durationMin := 0.0
	if p.EndedAt != nil {
		durationMin = p.EndedAt.Sub(p.StartedAt).Minutes()
	}
	return influxdb2.NewPoint(
		"game_result",
		map[string]string{
			"end_reason": string(p.EndReason),
		},
		map[string]interface{}{
			"game_id":         p.GameID,
			"score":           p.Score,
			"penalty":         p.Penalty,
			"visited_spots":   len(p.VisitedSpotIDs),
			"scored_stations": len(p.ScoredStationIDs),
			"cp_reached":      len(p.ReachedCPIDs),
			"cp_total":        len(p.CPSpotIDs),
			"duration_min":    durationMin,
		},
		now,
	)
}

// CheckInPoint records a single successful spot check-in.
func CheckInPoint(gameID string, spot core.Spot, now time.Time) *influxdb2_write.Point {
	return influxdb2.NewPoint(
		"check_in",
		map[string]string{
			"category": spot.Category,
			"city":     core.CityOf(spot.Address),
		},
		map[string]interface{}{
			"game_id": gameID,
			"spot_id": spot.ID,
			"score":   spot.Score,
		},
		now,
	)
}

// StationRidePoint records a completed train ride between two stations.
func StationRidePoint(gameID, fromID, toID string, score int, now time.Time) *influxdb2_write.Point {
	return influxdb2.NewPoint(
		"station_ride",
		map[string]string{},
		map[string]interface{}{
			"game_id":      gameID,
			"from_station": fromID,
			"to_station":   toID,
			"score":        score,
		},
		now,
	)
}
