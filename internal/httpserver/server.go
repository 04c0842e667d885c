// Package httpserver exposes the game over HTTP for the PWA frontend.
// Responsibilities:
//   - Router + middleware (JSON, panic recovery, timeouts, request IDs).
//   - Game endpoints: POST /game/start, /game/checkin, /game/board,
//     /game/alight, /game/goal, /game/abandon, /game/reassign-cp.
//   - Read endpoints: GET /game/progress, /game/history, /achievements.
//   - Diagnostics: "/", "/health".
//
// Every game operation goes through the dispatcher so throughput and failure
// counts show up in the OTel metrics.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/dispatcher"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/session"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// Action names registered on the dispatcher.
const (
	actionStart      = "game:start"
	actionCheckIn    = "game:checkin"
	actionBoard      = "game:board"
	actionAlight     = "game:alight"
	actionGoal       = "game:goal"
	actionAbandon    = "game:abandon"
	actionReassignCP = "game:reassign-cp"
)

// Server bundles the router, session service and dispatcher.
type Server struct {
	r       *chi.Mux
	session *session.Service
	disp    *dispatcher.Dispatcher
}

// New constructs a Server, installs middleware, and registers routes.
func New(svc *session.Service, disp *dispatcher.Dispatcher) *Server {
	s := &Server{r: chi.NewRouter(), session: svc, disp: disp}

	s.registerActions()

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"ibumaku-pwa","endpoints":["/health","POST /game/start","POST /game/checkin","POST /game/board","POST /game/alight","POST /game/goal","POST /game/abandon","GET /game/progress"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Game operations
	s.r.Post("/game/start", s.handleStart)
	s.r.Post("/game/checkin", s.handleFixAction(actionCheckIn))
	s.r.Post("/game/board", s.handleFixAction(actionBoard))
	s.r.Post("/game/alight", s.handleFixAction(actionAlight))
	s.r.Post("/game/goal", s.handleFixAction(actionGoal))
	s.r.Post("/game/abandon", s.handleAbandon)
	s.r.Post("/game/reassign-cp", s.handleReassignCP)

	// Reads
	s.r.Get("/game/progress", s.handleProgress)
	s.r.Get("/game/history", s.handleHistory)
	s.r.Get("/achievements", s.handleAchievements)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// registerActions wires each game operation into the dispatcher.
func (s *Server) registerActions() {
	s.disp.Register(actionStart, func(a dispatcher.Action) (any, error) {
		req := a.Payload.(startRequest)
		return s.session.Start(req.Config, req.Current)
	}, dispatcher.Logged())

	s.disp.Register(actionCheckIn, func(a dispatcher.Action) (any, error) {
		return s.session.CheckIn(a.Payload.(core.Fix))
	}, dispatcher.Logged())

	s.disp.Register(actionBoard, func(a dispatcher.Action) (any, error) {
		return s.session.Board(a.Payload.(core.Fix))
	}, dispatcher.Logged())

	s.disp.Register(actionAlight, func(a dispatcher.Action) (any, error) {
		return s.session.Alight(a.Payload.(core.Fix))
	}, dispatcher.Logged())

	s.disp.Register(actionGoal, func(a dispatcher.Action) (any, error) {
		return s.session.Goal(a.Payload.(core.Fix))
	}, dispatcher.Logged())

	s.disp.Register(actionAbandon, func(a dispatcher.Action) (any, error) {
		return s.session.Abandon()
	}, dispatcher.Logged())

	s.disp.Register(actionReassignCP, func(a dispatcher.Action) (any, error) {
		req := a.Payload.(reassignRequest)
		return s.session.ReassignCP(req.OldID, req.NewID)
	}, dispatcher.Logged())
}

// ----------------------------- requests ------------------------------------

type startRequest struct {
	Config  core.GameConfig `json:"config"`
	Current core.LatLng     `json:"current"`
}

type fixRequest struct {
	Fix core.Fix `json:"fix"`
}

type reassignRequest struct {
	OldID string `json:"oldId"`
	NewID string `json:"newId"`
}

// ----------------------------- handlers ------------------------------------

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	s.dispatch(w, actionStart, req)
}

// handleFixAction builds a handler for the fix-based operations, which all
// share the same request shape.
func (s *Server) handleFixAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fixRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
			return
		}
		s.dispatch(w, action, req.Fix)
	}
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, actionAbandon, nil)
}

func (s *Server) handleReassignCP(w http.ResponseWriter, r *http.Request) {
	var req reassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}
	s.dispatch(w, actionReassignCP, req)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, active, err := s.session.Progress()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	if !active {
		writeError(w, http.StatusNotFound, "NO_ACTIVE_GAME", "no active game")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.session.History()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	if history == nil {
		history = []core.GameProgress{}
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleAchievements(w http.ResponseWriter, r *http.Request) {
	records, err := s.session.Achievements()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL", err.Error())
		return
	}
	if records == nil {
		records = []core.AchievementRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// dispatch routes an action through the dispatcher and writes the outcome.
func (s *Server) dispatch(w http.ResponseWriter, action string, payload any) {
	result, err := s.disp.Dispatch(dispatcher.Action{
		Name:      action,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ----------------------------- responses -----------------------------------

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// writeDomainError maps session and engine failures onto HTTP statuses. Rule
// violations are 422 so the frontend can show the failure message as-is;
// conflicts over session state are 409.
func writeDomainError(w http.ResponseWriter, err error) {
	var cerr *core.CheckInError
	if errors.As(err, &cerr) {
		status := http.StatusUnprocessableEntity
		if cerr.Code == core.FailGameEnded {
			status = http.StatusConflict
		}
		writeError(w, status, string(cerr.Code), cerr.Message)
		return
	}

	switch {
	case errors.Is(err, session.ErrBusy):
		writeError(w, http.StatusConflict, "BUSY", err.Error())
	case errors.Is(err, session.ErrGameActive):
		writeError(w, http.StatusConflict, "GAME_ACTIVE", err.Error())
	case errors.Is(err, session.ErrNoActiveGame):
		writeError(w, http.StatusNotFound, "NO_ACTIVE_GAME", err.Error())
	default:
		writeError(w, http.StatusUnprocessableEntity, "OPERATION_FAILED", err.Error())
	}
}

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}
