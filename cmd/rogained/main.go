// rogained is the game backend for the Ibusuki-Makurazaki rogaining PWA.
// It wires config, logging, the database, master data, telemetry and the
// session service together and serves the game API over HTTP.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/achievement"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/api"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/config"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/database"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/dispatcher"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/httpserver"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/logging"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/master"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/monitor"
	intotel "github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/otel"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/session"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/store"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/telemetry"
	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// Version and BuildDate can be set at build time via ldflags.
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

const appName = "rogained"

func main() {
	_ = godotenv.Load()

	configDir := os.Getenv("ROGAINED_CONFIG_DIR")
	if configDir == "" {
		configDir = "."
	}
	if err := config.Load(configDir); err != nil {
		// viper defaults still apply; run with those
		fmt.Fprintf(os.Stderr, "config: %v (using defaults)\n", err)
	}

	sessionStart := time.Now()
	logsDir := config.GetString("logsDir")
	_ = os.MkdirAll(logsDir, 0755)

	var logWriter io.Writer
	logFile, err := os.OpenFile(
		logging.LogFilePath(logsDir, appName, sessionStart),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644,
	)
	if err == nil {
		logWriter = logFile
		defer logFile.Close()
	}

	otelCfg := config.GetOTelConfig()
	otelProvider, err := intotel.New(intotel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    logWriter,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "otel: %v (telemetry disabled)\n", err)
		otelProvider, _ = intotel.New(intotel.Config{Enabled: false})
	}

	slogMgr := logging.NewSlogManager()
	var logProvider *sdklog.LoggerProvider
	if otelProvider.Enabled() {
		logProvider = otelProvider.LoggerProvider()
	}
	slogMgr.Setup(logWriter, config.GetString("logLevel"), logProvider)
	logger := slogMgr.Logger()
	logger.Info("Starting rogained", "version", Version, "buildDate", BuildDate)

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	// Database
	dbm := database.NewManager(zlog)
	if err := dbm.Connect(); err != nil {
		logger.Error("Database connection failed, running on memory stores", "error", err)
	} else if err := dbm.Setup(); err != nil {
		logger.Error("Database migration failed, running on memory stores", "error", err)
		dbm.IsValid = false
	}

	// Master data
	spots, stations := loadMaster(logger)
	if dbm.IsValid {
		ms := master.NewStore(dbm.DB)
		if len(spots) > 0 {
			if err := ms.SyncSpots(spots); err != nil {
				logger.Error("Spot master sync failed", "error", err)
			}
		}
		if len(stations) > 0 {
			if err := ms.SyncStations(stations); err != nil {
				logger.Error("Station master sync failed", "error", err)
			}
		}
		// The database is authoritative once synced; it also covers runs
		// where the CSV files are absent.
		if dbSpots, err := ms.Spots(); err == nil && len(dbSpots) > 0 {
			spots = dbSpots
		}
		if dbStations, err := ms.Stations(); err == nil && len(dbStations) > 0 {
			stations = dbStations
		}
	}
	cache := master.NewCache()
	cache.Fill(spots, stations)
	logger.Info("Master data loaded", "spots", len(spots), "stations", len(stations))

	// Stores
	var stores store.Stores
	if dbm.IsValid {
		stores = store.NewGorm(dbm.DB)
	} else {
		stores = store.NewMemory()
	}

	// KPI telemetry
	var recorder *telemetry.Recorder
	var influxMgr *telemetry.Manager
	if config.GetBool("influx.enabled") {
		influxMgr = telemetry.NewManager(zlog, filepath.Join(logsDir, appName+".kpi.backup.gz"))
		if err := influxMgr.Connect(); err != nil {
			logger.Error("InfluxDB setup failed, KPI submission disabled", "error", err)
			influxMgr = nil
		} else {
			recorder = telemetry.NewRecorder(influxMgr)
			recorder.Start()
		}
	}

	// Result uploader
	var uploader *api.Client
	if serverURL := config.GetString("api.serverUrl"); serverURL != "" {
		uploader = api.New(serverURL, config.GetString("api.apiKey"))
		if err := uploader.Healthcheck(); err != nil {
			logger.Warn("Ranking server unreachable", "error", err)
		}
	}

	defaults := config.GetGameDefaults()
	svc := session.NewService(session.Dependencies{
		Stores:  stores,
		Cache:   cache,
		Catalog: achievement.BuildCatalog(spots),
		Defaults: core.GameConfig{
			DurationMin: defaults.DurationMin,
			JREnabled:   defaults.JREnabled,
			CPCount:     defaults.CPCount,
		},
		LogManager: slogMgr,
		Recorder:   recorder,
		Uploader:   uploader,
	})

	monitorSvc := monitor.NewService(monitor.Dependencies{
		LogManager:      slogMgr,
		Session:         svc,
		Recorder:        recorder,
		StatusDir:       logsDir,
		Interval:        5 * time.Second,
		IsDatabaseValid: func() bool { return dbm.IsValid },
	})
	if err := monitorSvc.Start(); err != nil {
		logger.Error("Status monitor failed to start", "error", err)
	}

	disp, err := dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		logger.Error("Dispatcher setup failed", "error", err)
		os.Exit(1)
	}

	srv := httpserver.New(svc, disp)
	httpSrv := &http.Server{
		Addr:    config.GetString("server.addr"),
		Handler: srv.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Serving HTTP", "addr", httpSrv.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case err := <-errCh:
		logger.Error("HTTP server exited", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)

	monitorSvc.Stop()
	if recorder != nil {
		recorder.Stop()
	}
	if influxMgr != nil {
		influxMgr.Close()
	}
	if dbm.IsValid && dbm.IsLocal {
		if err := dbm.Backup(); err != nil {
			logger.Error("Database backup failed", "error", err)
		}
	}
	_ = slogMgr.Flush(shutdownCtx)
	_ = otelProvider.Shutdown(shutdownCtx)
}

// loadMaster reads the spot and station CSV files named in the config.
// Missing files are not fatal; the database may already hold the master data.
func loadMaster(logger *slog.Logger) ([]core.Spot, []core.Station) {
	var spots []core.Spot
	var stations []core.Station

	if path := config.GetString("master.spotsCsv"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			logger.Warn("Spot master CSV not readable", "path", path, "error", err)
		} else {
			spots, err = master.ReadSpotsCSV(f)
			f.Close()
			if err != nil {
				logger.Warn("Spot master CSV invalid", "path", path, "error", err)
				spots = nil
			}
		}
	}

	if path := config.GetString("master.stationsCsv"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			logger.Warn("Station master CSV not readable", "path", path, "error", err)
		} else {
			stations, err = master.ReadStationsCSV(f)
			f.Close()
			if err != nil {
				logger.Warn("Station master CSV invalid", "path", path, "error", err)
				stations = nil
			}
		}
	}

	return spots, stations
}
