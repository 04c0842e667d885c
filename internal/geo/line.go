package geo

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
)

// ErrUnknownStation is returned when a station ID cannot be resolved against
// the line's master data.
var ErrUnknownStation = errors.New("unknown station id")

// Line is the strictly linear station line, ordered by OrderIndex.
// OrderIndex values are unique; stepping by ±1 walks adjacent stations.
type Line struct {
	stations []core.Station
	byID     map[string]int // index into stations
}

// NewLine builds a Line from master-data stations. The input slice is not
// retained; stations are sorted by OrderIndex.
func NewLine(stations []core.Station) *Line {
	sorted := append([]core.Station(nil), stations...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].OrderIndex < sorted[j].OrderIndex
	})
	byID := make(map[string]int, len(sorted))
	for i, s := range sorted {
		byID[s.ID] = i
	}
	return &Line{stations: sorted, byID: byID}
}

// Stations returns the line's stations in OrderIndex order.
func (l *Line) Stations() []core.Station {
	return l.stations
}

// Get resolves a station by ID.
func (l *Line) Get(id string) (core.Station, bool) {
	i, ok := l.byID[id]
	if !ok {
		return core.Station{}, false
	}
	return l.stations[i], true
}

// RideSet returns the inclusive set of stations passed on a ride from
// boarded to alight: {boarded} ∪ {strictly between} ∪ {alight}, in travel
// order. Direction follows the relative OrderIndex of the two endpoints.
func (l *Line) RideSet(boardedID, alightID string) ([]core.Station, error) {
	from, ok := l.byID[boardedID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStation, boardedID)
	}
	to, ok := l.byID[alightID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStation, alightID)
	}

	step := 1
	if to < from {
		step = -1
	}
	ride := make([]core.Station, 0, abs(to-from)+1)
	for i := from; ; i += step {
		ride = append(ride, l.stations[i])
		if i == to {
			break
		}
	}
	return ride, nil
}

// LineString returns the rail line as an EPSG:3857 LineString, usable for
// storage or export alongside the master-data geometry columns.
func (l *Line) LineString() (geom.LineString, error) {
	if len(l.stations) < 2 {
		return geom.LineString{}, fmt.Errorf("line must have at least 2 stations, got %d", len(l.stations))
	}
	flat := make([]float64, 0, len(l.stations)*2)
	for _, s := range l.stations {
		pt := Point3857From4326(s.Location())
		xy, _ := pt.XY()
		flat = append(flat, xy.X, xy.Y)
	}
	seq := geom.NewSequence(flat, geom.DimXY)
	return geom.NewLineString(seq), nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
