// Package session owns the single active game. It serializes operations
// behind a busy flag, feeds snapshots through the engine, persists each
// result, and triggers achievement evaluation and KPI submission when a game
// finishes. The engine itself stays pure; everything stateful happens here.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/achievement"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/api"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/engine"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/logging"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/master"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/store"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/telemetry"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// ErrBusy is returned when another operation holds the session.
var ErrBusy = errors.New("another operation is in progress")

// ErrNoActiveGame is returned by operations that need a running game.
var ErrNoActiveGame = errors.New("no active game")

// ErrGameActive is returned by Start when a game is already running.
var ErrGameActive = errors.New("a game is already in progress")

// Dependencies holds everything a session needs.
type Dependencies struct {
	Stores     store.Stores
	Cache      *master.Cache
	Catalog    []core.Achievement
	Defaults   core.GameConfig
	LogManager *logging.SlogManager
	Recorder   *telemetry.Recorder
	Uploader   *api.Client
	Rand       *rand.Rand
	Now        func() time.Time
}

// Service is the stateful caller of the engine.
type Service struct {
	deps Dependencies

	mu   sync.Mutex
	busy bool
}

// NewService creates a session service.
func NewService(deps Dependencies) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{deps: deps}
}

func (s *Service) logger() *slog.Logger {
	if s.deps.LogManager != nil {
		return s.deps.LogManager.Logger()
	}
	return slog.Default()
}

// acquire marks the session busy. Attempts while busy fail instead of
// queueing so a stale client retry cannot double-apply an operation.
func (s *Service) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return ErrBusy
	}
	s.busy = true
	return nil
}

func (s *Service) release() {
	s.mu.Lock()
	s.busy = false
	s.mu.Unlock()
}

// Start begins a new game. Fails when one is already running.
func (s *Service) Start(cfg core.GameConfig, current core.LatLng) (core.GameProgress, error) {
	if err := s.acquire(); err != nil {
		return core.GameProgress{}, err
	}
	defer s.release()

	if _, active, err := s.deps.Stores.Progress.Current(); err != nil {
		return core.GameProgress{}, fmt.Errorf("loading current game: %w", err)
	} else if active {
		return core.GameProgress{}, ErrGameActive
	}

	// An omitted duration falls back to the configured default game length.
	if cfg.DurationMin <= 0 {
		cfg.DurationMin = s.deps.Defaults.DurationMin
	}

	p := engine.StartNewGame(cfg, current, s.deps.Cache.JudgeSpots(), s.deps.Rand, s.deps.Now())
	if err := s.deps.Stores.Progress.Save(p); err != nil {
		return core.GameProgress{}, fmt.Errorf("saving new game: %w", err)
	}

	s.attachGameContext()
	s.logger().Info("Game started",
		"game_id", p.GameID,
		"duration_min", p.Config.DurationMin,
		"cp_count", len(p.CPSpotIDs))
	return p, nil
}

// attachGameContext stamps every log record with the active game ID and score.
func (s *Service) attachGameContext() {
	if s.deps.LogManager == nil {
		return
	}
	s.deps.LogManager.AttachContext(func() []slog.Attr {
		p, ok, err := s.deps.Stores.Progress.Current()
		if err != nil || !ok {
			return nil
		}
		return []slog.Attr{
			slog.String("game_id", p.GameID),
			slog.Int("score", p.Score),
		}
	})
}

func (s *Service) current() (core.GameProgress, error) {
	p, ok, err := s.deps.Stores.Progress.Current()
	if err != nil {
		return core.GameProgress{}, fmt.Errorf("loading current game: %w", err)
	}
	if !ok {
		return core.GameProgress{}, ErrNoActiveGame
	}
	return p, nil
}

// CheckIn attempts a spot or checkpoint check-in at the given fix.
func (s *Service) CheckIn(fix core.Fix) (core.CheckInResult, error) {
	if err := s.acquire(); err != nil {
		return core.CheckInResult{}, err
	}
	defer s.release()

	p, err := s.current()
	if err != nil {
		return core.CheckInResult{}, err
	}

	result, err := engine.CheckInSpotOrCP(p, fix, s.deps.Cache.JudgeSpots(), s.deps.Now())
	if err != nil {
		return core.CheckInResult{}, err
	}
	if err := s.deps.Stores.Progress.Save(result.Progress); err != nil {
		return core.CheckInResult{}, fmt.Errorf("saving progress: %w", err)
	}

	if spotID := newlyVisited(p, result.Progress); spotID != "" {
		if spot, ok := s.deps.Cache.GetSpot(spotID); ok {
			s.submitKPI(telemetry.CheckInPoint(p.GameID, spot, s.deps.Now()))
		}
		s.logger().Info("Check-in", "spot_id", spotID, "kind", string(result.Kind))
	}
	return result, nil
}

// newlyVisited returns the spot visited by this transition, if any.
func newlyVisited(before, after core.GameProgress) string {
	for id := range after.VisitedSpotIDs {
		if !before.VisitedSpotIDs[id] {
			return id
		}
	}
	return ""
}

// Board starts a train ride at the nearest station.
func (s *Service) Board(fix core.Fix) (core.CheckInResult, error) {
	if err := s.acquire(); err != nil {
		return core.CheckInResult{}, err
	}
	defer s.release()

	p, err := s.current()
	if err != nil {
		return core.CheckInResult{}, err
	}

	result, err := engine.BoardTrain(p, fix, s.deps.Cache.Stations(), s.deps.Now())
	if err != nil {
		return core.CheckInResult{}, err
	}
	if err := s.deps.Stores.Progress.Save(result.Progress); err != nil {
		return core.CheckInResult{}, fmt.Errorf("saving progress: %w", err)
	}

	s.logger().Info("Boarded train", "station_id", result.Progress.BoardedStationID)
	return result, nil
}

// Alight ends a train ride at the nearest station and scores the section.
func (s *Service) Alight(fix core.Fix) (core.CheckInResult, error) {
	if err := s.acquire(); err != nil {
		return core.CheckInResult{}, err
	}
	defer s.release()

	p, err := s.current()
	if err != nil {
		return core.CheckInResult{}, err
	}

	result, err := engine.AlightTrain(p, fix, s.deps.Cache.Stations(), s.deps.Now())
	if err != nil {
		return core.CheckInResult{}, err
	}
	if err := s.deps.Stores.Progress.Save(result.Progress); err != nil {
		return core.CheckInResult{}, fmt.Errorf("saving progress: %w", err)
	}

	fromID := p.BoardedStationID
	toID := lastAlightStation(result.Progress)
	delta := result.Progress.Score - p.Score
	s.submitKPI(telemetry.StationRidePoint(p.GameID, fromID, toID, delta, s.deps.Now()))
	s.logger().Info("Alighted train", "from", fromID, "to", toID, "score_delta", delta)
	return result, nil
}

func lastAlightStation(p core.GameProgress) string {
	for i := len(p.StationEvents) - 1; i >= 0; i-- {
		if p.StationEvents[i].Type == core.StationEventAlight {
			return p.StationEvents[i].StationID
		}
	}
	return ""
}

// Goal attempts the goal check-in. On success the game ends, achievements are
// evaluated, the bonus is added, and the result is persisted and uploaded.
func (s *Service) Goal(fix core.Fix) (core.CheckInResult, error) {
	if err := s.acquire(); err != nil {
		return core.CheckInResult{}, err
	}
	defer s.release()

	p, err := s.current()
	if err != nil {
		return core.CheckInResult{}, err
	}

	result, err := engine.GoalCheckIn(p, fix, s.deps.Now())
	if err != nil {
		return core.CheckInResult{}, err
	}

	final, records, err := s.finishGame(result.Progress)
	if err != nil {
		return core.CheckInResult{}, err
	}
	result.Progress = final

	s.uploadResult(final, records)
	return result, nil
}

// Abandon ends the current game without penalty or achievements.
func (s *Service) Abandon() (core.GameProgress, error) {
	if err := s.acquire(); err != nil {
		return core.GameProgress{}, err
	}
	defer s.release()

	p, err := s.current()
	if err != nil {
		return core.GameProgress{}, err
	}

	next, err := engine.Abandon(p, s.deps.Now())
	if err != nil {
		return core.GameProgress{}, err
	}
	if err := s.deps.Stores.Progress.Save(next); err != nil {
		return core.GameProgress{}, fmt.Errorf("saving progress: %w", err)
	}

	s.submitKPI(telemetry.GameResultPoint(next, s.deps.Now()))
	s.logger().Info("Game abandoned", "game_id", next.GameID)
	return next, nil
}

// finishGame runs the end-of-game bookkeeping for a goaled progress:
// achievement unlocks, bonus points, record upserts, and the cumulative
// ever-visited set.
func (s *Service) finishGame(p core.GameProgress) (core.GameProgress, []core.AchievementRecord, error) {
	now := s.deps.Now()

	gameUnlocks := achievement.ComputeGameUnlocks(s.deps.Catalog, p.VisitedSpotIDs)
	bonus := achievement.ComputeBonus(gameUnlocks)
	p.Score += bonus

	if err := s.deps.Stores.Progress.Save(p); err != nil {
		return core.GameProgress{}, nil, fmt.Errorf("saving finished game: %w", err)
	}

	visitedIDs := sortedIDs(p.VisitedSpotIDs)
	if err := s.deps.Stores.Achievement.AddEverVisited(visitedIDs); err != nil {
		return core.GameProgress{}, nil, fmt.Errorf("updating ever-visited set: %w", err)
	}

	records, err := s.deps.Stores.Achievement.Records()
	if err != nil {
		return core.GameProgress{}, nil, fmt.Errorf("loading achievement records: %w", err)
	}

	gameIDs := make([]string, 0, len(gameUnlocks))
	gameUnlocked := make(map[string]bool, len(gameUnlocks))
	for _, a := range gameUnlocks {
		gameIDs = append(gameIDs, a.ID)
		gameUnlocked[a.ID] = true
	}
	records = achievement.UpsertRecords(records, gameIDs, false, now)

	// Cumulative unlocks over the all-time visited set update timestamps
	// without counting as a fresh unlock.
	everVisited, err := s.deps.Stores.Achievement.EverVisited()
	if err != nil {
		return core.GameProgress{}, nil, fmt.Errorf("loading ever-visited set: %w", err)
	}
	var cumulativeOnly []string
	for _, id := range achievement.ComputeCumulativeUnlockedIDs(s.deps.Catalog, everVisited) {
		if !gameUnlocked[id] {
			cumulativeOnly = append(cumulativeOnly, id)
		}
	}
	records = achievement.UpsertRecords(records, cumulativeOnly, true, now)

	if err := s.deps.Stores.Achievement.SaveRecords(records); err != nil {
		return core.GameProgress{}, nil, fmt.Errorf("saving achievement records: %w", err)
	}

	s.submitKPI(telemetry.GameResultPoint(p, now))
	s.logger().Info("Game finished",
		"game_id", p.GameID,
		"score", p.Score,
		"penalty", p.Penalty,
		"bonus", bonus,
		"unlocks", len(gameUnlocks))
	return p, records, nil
}

func sortedIDs(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReassignCP swaps a configured checkpoint for another pool spot.
func (s *Service) ReassignCP(oldID, newID string) (core.GameProgress, error) {
	if err := s.acquire(); err != nil {
		return core.GameProgress{}, err
	}
	defer s.release()

	p, err := s.current()
	if err != nil {
		return core.GameProgress{}, err
	}

	pool := engine.FilterPoolByCity(s.deps.Cache.JudgeSpots(), p.Config.CityFilter)
	next, err := engine.ReassignCP(p, oldID, newID, pool)
	if err != nil {
		return core.GameProgress{}, err
	}
	if err := s.deps.Stores.Progress.Save(next); err != nil {
		return core.GameProgress{}, fmt.Errorf("saving progress: %w", err)
	}
	return next, nil
}

// Progress returns the active snapshot, if any.
func (s *Service) Progress() (core.GameProgress, bool, error) {
	return s.deps.Stores.Progress.Current()
}

// History returns finished games, most recent first.
func (s *Service) History() ([]core.GameProgress, error) {
	return s.deps.Stores.Progress.History()
}

// Achievements returns the device-local achievement records.
func (s *Service) Achievements() ([]core.AchievementRecord, error) {
	return s.deps.Stores.Achievement.Records()
}

func (s *Service) submitKPI(point *telemetry.Point) {
	if s.deps.Recorder != nil {
		s.deps.Recorder.Submit(point)
	}
}

// uploadResult sends the finished game to the ranking server. Upload failures
// are logged, never surfaced to the player.
func (s *Service) uploadResult(p core.GameProgress, records []core.AchievementRecord) {
	if s.deps.Uploader == nil {
		return
	}
	go func() {
		if err := s.deps.Uploader.UploadResult(api.GameResult{Progress: p, Achievements: records}); err != nil {
			s.logger().Error("Result upload failed", "game_id", p.GameID, "error", err)
		}
	}()
}
