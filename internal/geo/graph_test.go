package geo

import (
	"testing"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

func TestBuildRouteGraph_NodeCount(t *testing.T) {
	stations := testStations()
	spots := []core.Spot{
		{ID: "sp1", Lat: 31.25, Lng: 130.62, JudgeTarget: 1},
		{ID: "sp2", Lat: 31.26, Lng: 130.31, JudgeTarget: 1},
	}

	g := BuildRouteGraph(stations, spots)
	if g.NodeCount() != len(stations)+len(spots) {
		t.Errorf("expected %d nodes, got %d", len(stations)+len(spots), g.NodeCount())
	}
}

func TestRouteGraph_ShortestPath_AlongLine(t *testing.T) {
	g := BuildRouteGraph(testStations(), nil)

	path, dist, ok := g.ShortestPath("st0", "st4")
	if !ok {
		t.Fatal("expected a path along the line")
	}
	if dist <= 0 {
		t.Errorf("expected positive distance, got %f", dist)
	}
	want := []string{"st0", "st1", "st2", "st3", "st4"}
	if len(path) != len(want) {
		t.Fatalf("expected path of %d nodes, got %v", len(want), path)
	}
	for i, id := range want {
		if path[i] != id {
			t.Errorf("position %d: expected %s, got %s", i, id, path[i])
		}
	}
}

func TestRouteGraph_ShortestPath_SpotToStation(t *testing.T) {
	spots := []core.Spot{{ID: "sp1", Lat: 31.25, Lng: 130.62}}
	g := BuildRouteGraph(testStations(), spots)

	path, _, ok := g.ShortestPath("sp1", "st4")
	if !ok {
		t.Fatal("expected spot to be attached to the line")
	}
	if path[0] != "sp1" || path[len(path)-1] != "st4" {
		t.Errorf("path endpoints wrong: %v", path)
	}
}

func TestRouteGraph_ShortestPath_UnknownNode(t *testing.T) {
	g := BuildRouteGraph(testStations(), nil)

	if _, _, ok := g.ShortestPath("ghost", "st0"); ok {
		t.Error("expected no path for unknown node")
	}
}

func TestRouteGraph_ShortestPath_SameNode(t *testing.T) {
	g := BuildRouteGraph(testStations(), nil)

	path, dist, ok := g.ShortestPath("st2", "st2")
	if !ok {
		t.Fatal("expected trivial path")
	}
	if dist != 0 {
		t.Errorf("expected 0 distance, got %f", dist)
	}
	if len(path) != 1 || path[0] != "st2" {
		t.Errorf("expected [st2], got %v", path)
	}
}

func TestRouteGraph_UsesRailDistanceWhenPresent(t *testing.T) {
	stations := []core.Station{
		{ID: "a", OrderIndex: 0, Lat: 31.0, Lng: 130.0, NextRouteM: 1234},
		{ID: "b", OrderIndex: 1, Lat: 31.1, Lng: 130.1, PrevRouteM: 1234},
	}
	g := BuildRouteGraph(stations, nil)

	_, dist, ok := g.ShortestPath("a", "b")
	if !ok {
		t.Fatal("expected path")
	}
	if dist != 1234 {
		t.Errorf("expected rail distance 1234, got %f", dist)
	}
}
