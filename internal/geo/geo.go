package geo

import (
	"math"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// All runtime proximity judgements use great-circle distance on WGS84 lat/lng.
// Stored geometry (master data columns) is kept in EPSG:3857 WKB, because
// SQLite has no spatial awareness and points must survive a round trip through
// the inherent Scan function during migrations.

// earthRadiusM is the spherical-Earth approximation radius in meters.
const earthRadiusM = 6371000.0

// DistanceMeters returns the haversine great-circle distance in meters
// between two WGS84 points.
func DistanceMeters(a, b core.LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	dLat := (b.Lat - a.Lat) * math.Pi / 180.0
	dLng := (b.Lng - a.Lng) * math.Pi / 180.0

	sinLat := math.Sin(dLat / 2)
	sinLng := math.Sin(dLng / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLng*sinLng
	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DetourRatio scores a checkpoint candidate by how far it bends the straight
// start→goal corridor: (d(start,c) + d(c,goal)) / d(start,goal).
// A degenerate start==goal course divides by 1 instead of 0.
func DetourRatio(start, candidate, goal core.LatLng) float64 {
	direct := DistanceMeters(start, goal)
	if direct == 0 {
		direct = 1
	}
	return (DistanceMeters(start, candidate) + DistanceMeters(candidate, goal)) / direct
}

// Point3857From4326 converts a WGS84 lat/lng to an EPSG:3857 geom.Point for
// storage in geometry columns.
func Point3857From4326(ll core.LatLng) geom.Point {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(ll.Lng, ll.Lat, 0)
	return geom.NewPoint(
		geom.Coordinates{
			XY: geom.XY{X: x, Y: y},
			Z:  0,
		},
	)
}
