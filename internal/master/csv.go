// Package master loads and serves the static master data: spots and the JR
// station line. Master data is imported from CSV, persisted via gorm, and
// served from an in-memory cache for the duration of a session.
package master

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// spot CSV columns: id,name,lat,lng,score,size,category,postal,address,judge_target
// station CSV columns: id,name,order_index,lat,lng,prev_route_m,next_route_m,score

// ReadSpotsCSV parses the spot master CSV. The first row is a header and is
// skipped. Optional columns may be empty; lat/lng/score/judge_target must
// parse.
func ReadSpotsCSV(r io.Reader) ([]core.Spot, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 10

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read spots csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("spots csv is empty")
	}

	spots := make([]core.Spot, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		lat, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("spots csv line %d: bad lat %q", line, row[2])
		}
		lng, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("spots csv line %d: bad lng %q", line, row[3])
		}
		score, err := strconv.Atoi(row[4])
		if err != nil {
			return nil, fmt.Errorf("spots csv line %d: bad score %q", line, row[4])
		}
		judge, err := strconv.Atoi(row[9])
		if err != nil {
			return nil, fmt.Errorf("spots csv line %d: bad judge_target %q", line, row[9])
		}

		spots = append(spots, core.Spot{
			ID:          row[0],
			Name:        row[1],
			Lat:         lat,
			Lng:         lng,
			Score:       score,
			Size:        row[5],
			Category:    row[6],
			Postal:      row[7],
			Address:     row[8],
			JudgeTarget: judge,
		})
	}
	return spots, nil
}

// ReadStationsCSV parses the station master CSV. The first row is a header
// and is skipped.
func ReadStationsCSV(r io.Reader) ([]core.Station, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 8

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read stations csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("stations csv is empty")
	}

	stations := make([]core.Station, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		order, err := strconv.Atoi(row[2])
		if err != nil {
			return nil, fmt.Errorf("stations csv line %d: bad order_index %q", line, row[2])
		}
		lat, err := strconv.ParseFloat(row[3], 64)
		if err != nil {
			return nil, fmt.Errorf("stations csv line %d: bad lat %q", line, row[3])
		}
		lng, err := strconv.ParseFloat(row[4], 64)
		if err != nil {
			return nil, fmt.Errorf("stations csv line %d: bad lng %q", line, row[4])
		}
		prev, err := parseOptionalFloat(row[5])
		if err != nil {
			return nil, fmt.Errorf("stations csv line %d: bad prev_route_m %q", line, row[5])
		}
		next, err := parseOptionalFloat(row[6])
		if err != nil {
			return nil, fmt.Errorf("stations csv line %d: bad next_route_m %q", line, row[6])
		}
		score, err := strconv.Atoi(row[7])
		if err != nil {
			return nil, fmt.Errorf("stations csv line %d: bad score %q", line, row[7])
		}

		stations = append(stations, core.Station{
			ID:         row[0],
			Name:       row[1],
			OrderIndex: order,
			Lat:        lat,
			Lng:        lng,
			PrevRouteM: prev,
			NextRouteM: next,
			Score:      score,
		})
	}
	return stations, nil
}

func parseOptionalFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
