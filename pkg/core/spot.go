// pkg/core/spot.go
package core

// SpotCategoryStation is the master-data category assigned to station spots.
// While a player is on board, only spots of this category remain checkinable.
const SpotCategoryStation = "駅"

// LatLng is a WGS84 coordinate pair in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Fix is a resolved location fix as reported by the location provider.
type Fix struct {
	LatLng
	AccuracyM float64 `json:"accuracyM"`
}

// Spot is a fixed point of interest from the master data.
// Spots are immutable for the duration of a game; the engine never mutates them.
type Spot struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Score       int     `json:"score"`
	Size        string  `json:"size,omitempty"`
	Category    string  `json:"category,omitempty"`
	Postal      string  `json:"postal,omitempty"`
	Address     string  `json:"address,omitempty"`
	JudgeTarget int     `json:"judgeTarget"`
}

// Location returns the spot position as a LatLng.
func (s Spot) Location() LatLng {
	return LatLng{Lat: s.Lat, Lng: s.Lng}
}

// Station is a point on the (strictly linear) JR line.
// OrderIndex positions the station on the line, 0 being one terminus;
// "stations between A and B" is defined by stepping OrderIndex by ±1.
type Station struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	OrderIndex int     `json:"orderIndex"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	PrevRouteM float64 `json:"prevRouteM,omitempty"`
	NextRouteM float64 `json:"nextRouteM,omitempty"`
	Score      int     `json:"score,omitempty"`
}

// Location returns the station position as a LatLng.
func (s Station) Location() LatLng {
	return LatLng{Lat: s.Lat, Lng: s.Lng}
}
