package geo

import (
	"errors"
	"testing"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

func testStations() []core.Station {
	// deliberately out of order; NewLine must sort by OrderIndex
	return []core.Station{
		{ID: "st3", Name: "頴娃", OrderIndex: 3, Lat: 31.24, Lng: 130.45},
		{ID: "st0", Name: "指宿", OrderIndex: 0, Lat: 31.25, Lng: 130.63},
		{ID: "st2", Name: "西頴娃", OrderIndex: 2, Lat: 31.24, Lng: 130.48},
		{ID: "st1", Name: "山川", OrderIndex: 1, Lat: 31.21, Lng: 130.63},
		{ID: "st4", Name: "枕崎", OrderIndex: 4, Lat: 31.27, Lng: 130.30},
	}
}

func TestNewLine_SortsByOrderIndex(t *testing.T) {
	l := NewLine(testStations())

	stations := l.Stations()
	for i, s := range stations {
		if s.OrderIndex != i {
			t.Errorf("station at position %d has OrderIndex %d", i, s.OrderIndex)
		}
	}
}

func TestLine_Get(t *testing.T) {
	l := NewLine(testStations())

	s, ok := l.Get("st2")
	if !ok {
		t.Fatal("expected st2 to resolve")
	}
	if s.Name != "西頴娃" {
		t.Errorf("expected 西頴娃, got %s", s.Name)
	}

	if _, ok := l.Get("nope"); ok {
		t.Error("expected unknown ID to not resolve")
	}
}

func TestLine_RideSet_Forward(t *testing.T) {
	l := NewLine(testStations())

	ride, err := l.RideSet("st1", "st4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"st1", "st2", "st3", "st4"}
	if len(ride) != len(want) {
		t.Fatalf("expected %d stations, got %d", len(want), len(ride))
	}
	for i, id := range want {
		if ride[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, ride[i].ID)
		}
	}
}

func TestLine_RideSet_Backward(t *testing.T) {
	l := NewLine(testStations())

	ride, err := l.RideSet("st3", "st0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"st3", "st2", "st1", "st0"}
	for i, id := range want {
		if ride[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, ride[i].ID)
		}
	}
}

func TestLine_RideSet_AdjacentStations(t *testing.T) {
	l := NewLine(testStations())

	ride, err := l.RideSet("st0", "st1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ride) != 2 {
		t.Errorf("expected 2 stations for adjacent ride, got %d", len(ride))
	}
}

func TestLine_RideSet_UnknownStation(t *testing.T) {
	l := NewLine(testStations())

	_, err := l.RideSet("ghost", "st1")
	if err == nil {
		t.Fatal("expected error for unknown boarded station")
	}
	if !errors.Is(err, ErrUnknownStation) {
		t.Errorf("expected ErrUnknownStation, got %v", err)
	}

	_, err = l.RideSet("st1", "ghost")
	if !errors.Is(err, ErrUnknownStation) {
		t.Errorf("expected ErrUnknownStation for alight, got %v", err)
	}
}

func TestLine_LineString(t *testing.T) {
	l := NewLine(testStations())

	ls, err := l.LineString()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ls.Coordinates().Length() != 5 {
		t.Errorf("expected 5 points, got %d", ls.Coordinates().Length())
	}
}

func TestLine_LineString_TooFewStations(t *testing.T) {
	l := NewLine(testStations()[:1])

	if _, err := l.LineString(); err == nil {
		t.Error("expected error for a single-station line")
	}
}
