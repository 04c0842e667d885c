package master

import (
	"sync"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// Cache holds the master data in memory for the duration of a session.
// Check-ins hit this on every location fix, so lookups must not touch the
// database.
type Cache struct {
	mu         sync.RWMutex
	spots      map[string]core.Spot
	stations   map[string]core.Station
	judgeSpots []core.Spot
	lineOrder  []core.Station
}

// NewCache creates an empty master cache.
func NewCache() *Cache {
	return &Cache{
		spots:    make(map[string]core.Spot),
		stations: make(map[string]core.Station),
	}
}

// Fill replaces the cache contents with the given master data.
func (c *Cache) Fill(spots []core.Spot, stations []core.Station) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.spots = make(map[string]core.Spot, len(spots))
	c.judgeSpots = c.judgeSpots[:0]
	for _, s := range spots {
		c.spots[s.ID] = s
		if s.JudgeTarget == 1 {
			c.judgeSpots = append(c.judgeSpots, s)
		}
	}

	c.stations = make(map[string]core.Station, len(stations))
	for _, st := range stations {
		c.stations[st.ID] = st
	}
	c.lineOrder = append(c.lineOrder[:0], stations...)
}

// GetStation looks up one station by ID.
func (c *Cache) GetStation(id string) (core.Station, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.stations[id]
	return s, ok
}

// Reset clears the cache.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spots = make(map[string]core.Spot)
	c.stations = make(map[string]core.Station)
	c.judgeSpots = nil
	c.lineOrder = nil
}

// GetSpot looks up one spot by ID.
func (c *Cache) GetSpot(id string) (core.Spot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.spots[id]
	return s, ok
}

// JudgeSpots returns the playable spots. The returned slice is shared; callers
// must not mutate it.
func (c *Cache) JudgeSpots() []core.Spot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.judgeSpots
}

// Stations returns the station line in the order it was filled.
func (c *Cache) Stations() []core.Station {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lineOrder
}
