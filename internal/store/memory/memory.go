// Package memory implements the store interfaces without a database.
package memory

import (
	"sort"
	"sync"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// ProgressStore keeps snapshots in a map keyed by game ID.
type ProgressStore struct {
	mu    sync.RWMutex
	games map[string]core.GameProgress
}

// NewProgressStore creates an empty in-memory progress store.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{games: make(map[string]core.GameProgress)}
}

// Current returns the active snapshot, if any. At most one game is ever
// active; if several somehow are, the most recently started wins.
func (s *ProgressStore) Current() (core.GameProgress, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var current core.GameProgress
	found := false
	for _, p := range s.games {
		if p.Ended() {
			continue
		}
		if !found || p.StartedAt.After(current.StartedAt) {
			current = p
			found = true
		}
	}
	if !found {
		return core.GameProgress{}, false, nil
	}
	return current.Clone(), true, nil
}

// Save upserts a snapshot keyed by game ID.
func (s *ProgressStore) Save(p core.GameProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[p.GameID] = p.Clone()
	return nil
}

// History returns ended games, most recent first.
func (s *ProgressStore) History() ([]core.GameProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ended []core.GameProgress
	for _, p := range s.games {
		if p.Ended() {
			ended = append(ended, p.Clone())
		}
	}
	sort.Slice(ended, func(i, j int) bool {
		return ended[i].StartedAt.After(ended[j].StartedAt)
	})
	return ended, nil
}

// AchievementStore keeps achievement records and the ever-visited set.
type AchievementStore struct {
	mu          sync.RWMutex
	records     map[string]core.AchievementRecord
	everVisited map[string]bool
}

// NewAchievementStore creates an empty in-memory achievement store.
func NewAchievementStore() *AchievementStore {
	return &AchievementStore{
		records:     make(map[string]core.AchievementRecord),
		everVisited: make(map[string]bool),
	}
}

// Records returns all records sorted by achievement ID.
func (s *AchievementStore) Records() ([]core.AchievementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.AchievementRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AchievementID < out[j].AchievementID
	})
	return out, nil
}

// SaveRecords upserts the given records.
func (s *AchievementStore) SaveRecords(records []core.AchievementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.AchievementID] = r
	}
	return nil
}

// EverVisited returns a copy of the cumulative visited set.
func (s *AchievementStore) EverVisited() (map[string]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool, len(s.everVisited))
	for id := range s.everVisited {
		out[id] = true
	}
	return out, nil
}

// AddEverVisited adds spot IDs to the cumulative visited set.
func (s *AchievementStore) AddEverVisited(spotIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range spotIDs {
		s.everVisited[id] = true
	}
	return nil
}
