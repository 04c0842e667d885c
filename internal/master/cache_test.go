package master

import (
	"testing"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

func filledCache() *Cache {
	c := NewCache()
	c.Fill(
		[]core.Spot{
			{ID: "sp001", Name: "a", JudgeTarget: 1},
			{ID: "sp002", Name: "b", JudgeTarget: 0},
			{ID: "sp003", Name: "c", JudgeTarget: 1},
		},
		[]core.Station{
			{ID: "st001", Name: "枕崎", OrderIndex: 1},
			{ID: "st002", Name: "薩摩板敷", OrderIndex: 2},
		},
	)
	return c
}

func TestCacheLookups(t *testing.T) {
	c := filledCache()

	if s, ok := c.GetSpot("sp002"); !ok || s.Name != "b" {
		t.Errorf("GetSpot(sp002) = %v, %v", s, ok)
	}
	if _, ok := c.GetSpot("nope"); ok {
		t.Error("expected miss for unknown spot")
	}
	if st, ok := c.GetStation("st002"); !ok || st.OrderIndex != 2 {
		t.Errorf("GetStation(st002) = %v, %v", st, ok)
	}
}

func TestCacheJudgeSpots(t *testing.T) {
	c := filledCache()

	judge := c.JudgeSpots()
	if len(judge) != 2 {
		t.Fatalf("expected 2 judge spots, got %d", len(judge))
	}
	for _, s := range judge {
		if s.JudgeTarget != 1 {
			t.Errorf("judge spot %s has JudgeTarget %d", s.ID, s.JudgeTarget)
		}
	}
}

func TestCacheStationsKeepOrder(t *testing.T) {
	c := filledCache()

	stations := c.Stations()
	if len(stations) != 2 {
		t.Fatalf("expected 2 stations, got %d", len(stations))
	}
	if stations[0].ID != "st001" || stations[1].ID != "st002" {
		t.Errorf("station order not preserved: %v", stations)
	}
}

func TestCacheReset(t *testing.T) {
	c := filledCache()
	c.Reset()

	if len(c.JudgeSpots()) != 0 {
		t.Error("judge spots should be empty after reset")
	}
	if len(c.Stations()) != 0 {
		t.Error("stations should be empty after reset")
	}
	if _, ok := c.GetSpot("sp001"); ok {
		t.Error("spot lookup should miss after reset")
	}
}

func TestCacheRefill(t *testing.T) {
	c := filledCache()
	c.Fill([]core.Spot{{ID: "sp009", JudgeTarget: 1}}, nil)

	if _, ok := c.GetSpot("sp001"); ok {
		t.Error("old spots should be gone after refill")
	}
	if len(c.JudgeSpots()) != 1 {
		t.Errorf("expected 1 judge spot, got %d", len(c.JudgeSpots()))
	}
}
