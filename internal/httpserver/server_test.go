package httpserver

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/achievement"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/dispatcher"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/master"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/session"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/store"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

var baseLoc = core.LatLng{Lat: 31.20000, Lng: 130.50000}

type nopLogger struct{}

func (nopLogger) Debug(msg string, keysAndValues ...any) {}
func (nopLogger) Info(msg string, keysAndValues ...any)  {}
func (nopLogger) Error(msg string, keysAndValues ...any) {}

func testServer(t *testing.T) *Server {
	t.Helper()

	spots := []core.Spot{
		{
			ID: "sp001", Name: "枕崎お魚センター",
			Lat: baseLoc.Lat, Lng: baseLoc.Lng,
			Score: 50, Category: "観光", Postal: "898-0001",
			Address: "鹿児島県枕崎市松之尾町", JudgeTarget: 1,
		},
		{
			ID: "sp002", Name: "火之神公園",
			Lat: baseLoc.Lat + 0.02, Lng: baseLoc.Lng,
			Score: 80, Category: "公園", Postal: "898-0015",
			Address: "鹿児島県枕崎市火之神岬町", JudgeTarget: 1,
		},
	}
	cache := master.NewCache()
	cache.Fill(spots, nil)

	svc := session.NewService(session.Dependencies{
		Stores:  store.NewMemory(),
		Cache:   cache,
		Catalog: achievement.BuildCatalog(spots),
		Rand:    rand.New(rand.NewSource(7)),
	})

	disp, err := dispatcher.New(nopLogger{})
	if err != nil {
		t.Fatalf("creating dispatcher: %v", err)
	}
	return New(svc, disp)
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func startGame(t *testing.T, s *Server) core.GameProgress {
	t.Helper()

	rec := doJSON(t, s, http.MethodPost, "/game/start", map[string]any{
		"config":  map[string]any{"durationMin": 180, "jrEnabled": true, "cpCount": 0},
		"current": baseLoc,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("start returned %d: %s", rec.Code, rec.Body.String())
	}
	var p core.GameProgress
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decoding start response: %v", err)
	}
	return p
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	return resp.Error.Code
}

func TestHealth(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestStartGame(t *testing.T) {
	s := testServer(t)

	p := startGame(t, s)
	if p.GameID == "" {
		t.Error("expected non-empty game ID")
	}
	if p.Config.DurationMin != 180 {
		t.Errorf("expected durationMin 180, got %d", p.Config.DurationMin)
	}

	rec := doJSON(t, s, http.MethodGet, "/game/progress", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress returned %d", rec.Code)
	}
}

func TestStartGame_Conflict(t *testing.T) {
	s := testServer(t)
	startGame(t, s)

	rec := doJSON(t, s, http.MethodPost, "/game/start", map[string]any{
		"config":  map[string]any{"durationMin": 180},
		"current": baseLoc,
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "GAME_ACTIVE" {
		t.Errorf("expected GAME_ACTIVE, got %s", code)
	}
}

func TestStartGame_BadJSON(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/game/start", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCheckIn(t *testing.T) {
	s := testServer(t)
	startGame(t, s)

	rec := doJSON(t, s, http.MethodPost, "/game/checkin", map[string]any{
		"fix": map[string]any{"lat": baseLoc.Lat, "lng": baseLoc.Lng, "accuracyM": 10},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("checkin returned %d: %s", rec.Code, rec.Body.String())
	}

	var result core.CheckInResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding checkin response: %v", err)
	}
	if result.Kind != core.KindSpot {
		t.Errorf("expected kind SPOT, got %s", result.Kind)
	}
	if result.Progress.Score != 50 {
		t.Errorf("expected score 50, got %d", result.Progress.Score)
	}
}

func TestCheckIn_NoActiveGame(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/game/checkin", map[string]any{
		"fix": map[string]any{"lat": baseLoc.Lat, "lng": baseLoc.Lng, "accuracyM": 10},
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "NO_ACTIVE_GAME" {
		t.Errorf("expected NO_ACTIVE_GAME, got %s", code)
	}
}

func TestCheckIn_RuleViolation(t *testing.T) {
	s := testServer(t)
	startGame(t, s)

	// A fix nowhere near any spot
	rec := doJSON(t, s, http.MethodPost, "/game/checkin", map[string]any{
		"fix": map[string]any{"lat": 32.0, "lng": 131.0, "accuracyM": 10},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "NO_SPOT" {
		t.Errorf("expected NO_SPOT, got %s", code)
	}
}

func TestBoard_JRDisabled(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodPost, "/game/start", map[string]any{
		"config":  map[string]any{"durationMin": 180, "jrEnabled": false},
		"current": baseLoc,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("start returned %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPost, "/game/board", map[string]any{
		"fix": map[string]any{"lat": baseLoc.Lat, "lng": baseLoc.Lng, "accuracyM": 10},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != "JR_DISABLED" {
		t.Errorf("expected JR_DISABLED, got %s", code)
	}
}

func TestGoal(t *testing.T) {
	s := testServer(t)
	startGame(t, s)

	rec := doJSON(t, s, http.MethodPost, "/game/goal", map[string]any{
		"fix": map[string]any{"lat": baseLoc.Lat, "lng": baseLoc.Lng, "accuracyM": 10},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("goal returned %d: %s", rec.Code, rec.Body.String())
	}

	var result core.CheckInResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decoding goal response: %v", err)
	}
	if result.Kind != core.KindGoal {
		t.Errorf("expected kind GOAL, got %s", result.Kind)
	}
	if !result.Progress.Ended() {
		t.Error("expected game to be ended")
	}

	// Progress is gone, history has the game.
	rec = doJSON(t, s, http.MethodGet, "/game/progress", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after goal, got %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/game/history", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history returned %d", rec.Code)
	}
	var history []core.GameProgress
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decoding history: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(history))
	}
}

func TestAbandon(t *testing.T) {
	s := testServer(t)
	startGame(t, s)

	rec := doJSON(t, s, http.MethodPost, "/game/abandon", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("abandon returned %d: %s", rec.Code, rec.Body.String())
	}

	var p core.GameProgress
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decoding abandon response: %v", err)
	}
	if p.EndReason != core.EndReasonAbandoned {
		t.Errorf("expected ABANDONED, got %s", p.EndReason)
	}
}

func TestAchievements_EmptyList(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodGet, "/achievements", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("achievements returned %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Errorf("expected empty JSON array, got %q", body)
	}
}

func TestNotFound(t *testing.T) {
	s := testServer(t)

	rec := doJSON(t, s, http.MethodGet, "/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
