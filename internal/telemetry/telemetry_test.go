package telemetry

import (
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

var testTime = time.Date(2025, 11, 2, 9, 30, 0, 0, time.UTC)

func TestGameResultPoint(t *testing.T) {
	ended := testTime.Add(170 * time.Minute)
	p := core.GameProgress{
		GameID:           "game-001",
		StartedAt:        testTime,
		Score:            240,
		Penalty:          100,
		VisitedSpotIDs:   map[string]bool{"sp001": true, "sp002": true},
		ScoredStationIDs: map[string]bool{"st001": true},
		ReachedCPIDs:     map[string]bool{"cp001": true},
		CPSpotIDs:        []string{"cp001", "cp002"},
		EndedAt:          &ended,
		EndReason:        core.EndReasonGoal,
	}

	point := GameResultPoint(p, ended)
	if point.Name() != "game_result" {
		t.Errorf("expected measurement game_result, got %s", point.Name())
	}

	tags := map[string]string{}
	for _, tag := range point.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["end_reason"] != "GOAL" {
		t.Errorf("expected end_reason GOAL, got %s", tags["end_reason"])
	}

	fields := map[string]interface{}{}
	for _, f := range point.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["score"] != int64(240) {
		t.Errorf("expected score 240, got %v", fields["score"])
	}
	if fields["penalty"] != int64(100) {
		t.Errorf("expected penalty 100, got %v", fields["penalty"])
	}
	if fields["visited_spots"] != int64(2) {
		t.Errorf("expected visited_spots 2, got %v", fields["visited_spots"])
	}
	if fields["cp_reached"] != int64(1) || fields["cp_total"] != int64(2) {
		t.Errorf("unexpected cp fields: %v / %v", fields["cp_reached"], fields["cp_total"])
	}
	if fields["duration_min"] != float64(170) {
		t.Errorf("expected duration_min 170, got %v", fields["duration_min"])
	}
}

func TestGameResultPoint_NoEnd(t *testing.T) {
	p := core.GameProgress{GameID: "game-002", StartedAt: testTime}
	point := GameResultPoint(p, testTime)

	for _, f := range point.FieldList() {
		if f.Key == "duration_min" && f.Value != float64(0) {
			t.Errorf("expected duration_min 0 for unfinished game, got %v", f.Value)
		}
	}
}

func TestCheckInPoint(t *testing.T) {
	spot := core.Spot{
		ID:       "sp003",
		Name:     "枕崎駅",
		Category: "駅",
		Address:  "鹿児島県枕崎市東本町",
		Score:    30,
	}
	point := CheckInPoint("game-001", spot, testTime)

	if point.Name() != "check_in" {
		t.Errorf("expected measurement check_in, got %s", point.Name())
	}
	tags := map[string]string{}
	for _, tag := range point.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["category"] != "駅" {
		t.Errorf("expected category 駅, got %s", tags["category"])
	}
	if tags["city"] != core.CityMakurazaki {
		t.Errorf("expected city 枕崎市, got %s", tags["city"])
	}
}

func TestStationRidePoint(t *testing.T) {
	point := StationRidePoint("game-001", "st002", "st005", 140, testTime)
	if point.Name() != "station_ride" {
		t.Errorf("expected measurement station_ride, got %s", point.Name())
	}

	fields := map[string]interface{}{}
	for _, f := range point.FieldList() {
		fields[f.Key] = f.Value
	}
	if fields["from_station"] != "st002" || fields["to_station"] != "st005" {
		t.Errorf("unexpected station fields: %v", fields)
	}
	if fields["score"] != int64(140) {
		t.Errorf("expected score 140, got %v", fields["score"])
	}
}

func TestWritePoint_BackupFile(t *testing.T) {
	backupPath := filepath.Join(t.TempDir(), "kpi.backup.gz")
	file, err := os.OpenFile(backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("creating backup file: %v", err)
	}

	m := &Manager{
		IsValid:      false,
		BackupWriter: gzip.NewWriter(file),
		Logger:       zerolog.Nop(),
		BackupPath:   backupPath,
	}

	point := StationRidePoint("game-001", "st001", "st002", 20, testTime)
	if err := m.WritePoint(context.Background(), point); err != nil {
		t.Fatalf("WritePoint: %v", err)
	}
	m.Close()

	raw, err := os.Open(backupPath)
	if err != nil {
		t.Fatalf("opening backup file: %v", err)
	}
	defer raw.Close()
	gz, err := gzip.NewReader(raw)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	content, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}

	line := string(content)
	if !strings.Contains(line, "station_ride") {
		t.Errorf("backup missing measurement name: %s", line)
	}
	if !strings.Contains(line, "st002") {
		t.Errorf("backup missing station field: %s", line)
	}
}

func TestWritePoint_NoBackupWriter(t *testing.T) {
	m := &Manager{IsValid: false, Logger: zerolog.Nop()}
	point := CheckInPoint("game-001", core.Spot{ID: "sp001"}, testTime)
	if err := m.WritePoint(context.Background(), point); err == nil {
		t.Error("expected error when neither client nor backup writer available")
	}
}

func TestRecorder_DrainOnStop(t *testing.T) {
	backupPath := filepath.Join(t.TempDir(), "kpi.backup.gz")
	file, err := os.OpenFile(backupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("creating backup file: %v", err)
	}
	m := &Manager{
		IsValid:      false,
		BackupWriter: gzip.NewWriter(file),
		Logger:       zerolog.Nop(),
		BackupPath:   backupPath,
	}

	r := NewRecorder(m)
	r.Submit(CheckInPoint("game-001", core.Spot{ID: "sp001", Score: 50}, testTime))
	r.Submit(CheckInPoint("game-001", core.Spot{ID: "sp002", Score: 80}, testTime))
	if r.Pending() != 2 {
		t.Fatalf("expected 2 pending points, got %d", r.Pending())
	}

	r.Stop()
	if r.Pending() != 0 {
		t.Errorf("expected queue drained after Stop, got %d", r.Pending())
	}
	m.Close()

	raw, err := os.Open(backupPath)
	if err != nil {
		t.Fatalf("opening backup file: %v", err)
	}
	defer raw.Close()
	gz, err := gzip.NewReader(raw)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	content, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	if got := strings.Count(string(content), "check_in"); got != 2 {
		t.Errorf("expected 2 check_in lines in backup, got %d", got)
	}
}
