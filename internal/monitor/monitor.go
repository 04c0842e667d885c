// Package monitor periodically snapshots server health: the active game,
// the KPI queue depth and database validity. The snapshot is written to a
// status file for operators and logged at debug level.
package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/logging"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/session"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/telemetry"
)

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	LogManager      *logging.SlogManager
	Session         *session.Service
	Recorder        *telemetry.Recorder
	StatusDir       string
	Interval        time.Duration
	IsDatabaseValid func() bool
}

// Status is one point-in-time health snapshot.
type Status struct {
	Time         time.Time `json:"time"`
	DatabaseOK   bool      `json:"databaseOk"`
	KPIQueueLen  int       `json:"kpiQueueLen"`
	ActiveGameID string    `json:"activeGameId,omitempty"`
	Score        int       `json:"score,omitempty"`
	Goroutines   int       `json:"goroutines"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus builds the current health snapshot.
func (s *Service) GetStatus() Status {
	status := Status{
		Time:       time.Now(),
		Goroutines: runtime.NumGoroutine(),
	}
	if s.deps.IsDatabaseValid != nil {
		status.DatabaseOK = s.deps.IsDatabaseValid()
	}
	if s.deps.Recorder != nil {
		status.KPIQueueLen = s.deps.Recorder.Pending()
	}
	if s.deps.Session != nil {
		if p, active, err := s.deps.Session.Progress(); err == nil && active {
			status.ActiveGameID = p.GameID
			status.Score = p.Score
		}
	}
	return status
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.LogManager.Logger()
		logger.Debug("Starting status monitor goroutine")

		statusFile, err := os.Create(filepath.Join(s.deps.StatusDir, "status.json"))
		if err != nil {
			logger.Error("Error creating status file", "error", err)
		}
		defer func() {
			if statusFile != nil {
				statusFile.Close()
			}
		}()

		for {
			select {
			case <-s.stopChan:
				return
			default:
				time.Sleep(s.deps.Interval)

				status := s.GetStatus()
				statusStr, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					continue
				}

				if statusFile != nil {
					statusFile.Truncate(0)
					statusFile.Seek(0, 0)
					statusFile.Write(statusStr)
					statusFile.WriteString("\n")
				}

				logger.Debug("Server status",
					"database_ok", status.DatabaseOK,
					"kpi_queue", status.KPIQueueLen,
					"active_game", status.ActiveGameID)
			}
		}
	}()

	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
	}
}
