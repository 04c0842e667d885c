package database

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/internal/model"
)

// Manager handles database connections and operations.
type Manager struct {
	DB             *gorm.DB
	SqlDB          *sql.DB
	IsValid        bool
	IsLocal        bool
	SqliteFilePath string
	Logger         zerolog.Logger
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{
		IsValid: false,
		IsLocal: false,
		Logger:  log,
	}
}

// Connect establishes a database connection. With db.type=postgres it tries
// Postgres first and falls back to the local SQLite file if that fails;
// otherwise it goes straight to SQLite.
func (m *Manager) Connect() error {
	var err error

	m.SqliteFilePath = viper.GetString("db.path")

	if viper.GetString("db.type") == "postgres" {
		m.DB, err = m.GetPostgresDB()
		if err != nil {
			m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		}
	}
	if m.DB == nil {
		m.IsLocal = true
		m.DB, err = m.GetSqliteDB(m.SqliteFilePath)
		if err != nil || m.DB == nil {
			m.IsValid = false
			return fmt.Errorf("failed to get local SQLite DB: %s", err)
		}
	}

	// test connection
	m.SqlDB, err = m.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %s", err)
	}

	err = m.SqlDB.Ping()
	if err != nil {
		if m.IsLocal {
			m.IsValid = false
			return fmt.Errorf("failed to validate SQLite connection: %s", err)
		}
		m.Logger.Error().Err(err).Msg("Failed to validate connection, trying SQLite")
		m.IsLocal = true
		m.DB, err = m.GetSqliteDB(m.SqliteFilePath)
		if err != nil || m.DB == nil {
			m.IsValid = false
			return fmt.Errorf("failed to get local SQLite DB: %s", err)
		}
	}

	m.Logger.Info().Msg("Connected to database")
	m.IsValid = true

	if !m.IsLocal {
		m.SqlDB.SetMaxOpenConns(10)
	}

	return nil
}

// GetPostgresDB returns a connection to the Postgres database.
func (m *Manager) GetPostgresDB() (*gorm.DB, error) {
	dsn := fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
	)

	m.Logger.Debug().Msgf("Connecting to Postgres DB at '%s'", dsn)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// GetSqliteDB returns a connection to a SQLite database.
// If path is empty, uses an in-memory database.
func (m *Manager) GetSqliteDB(path string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if path != "" {
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{
			PrepareStmt:            true,
			SkipDefaultTransaction: true,
			Logger:                 logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			m.IsValid = false
			return nil, err
		}
		m.Logger.Info().Str("path", path).Msg("Using local SQLite DB")
	} else {
		db, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
			PrepareStmt:            true,
			SkipDefaultTransaction: true,
			Logger:                 logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			m.IsValid = false
			return nil, err
		}
		m.Logger.Info().Msg("Using local SQLite DB in memory")
	}

	// set PRAGMAS
	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %s", err)
		}
	}

	return db, nil
}

// Setup migrates the schema.
func (m *Manager) Setup() error {
	// Ensure PostGIS Extension is installed for Postgres
	if m.DB.Dialector.Name() == "postgres" {
		err := m.DB.Exec(`CREATE Extension IF NOT EXISTS postgis;`).Error
		if err != nil {
			m.IsValid = false
			return fmt.Errorf("failed to create PostGIS Extension: %s", err)
		}
		m.Logger.Info().Msg("PostGIS Extension created")
	}

	m.Logger.Info().Msg("Migrating schema")
	if err := m.DB.AutoMigrate(model.DatabaseModels...); err != nil {
		m.IsValid = false
		return fmt.Errorf("failed to migrate schema: %s", err)
	}

	m.Logger.Info().Msg("Database setup complete")
	return nil
}

// Backup vacuums the live SQLite database into a timestamped copy next to it.
// No-op for Postgres.
func (m *Manager) Backup() error {
	if !m.IsLocal {
		return nil
	}
	if m.SqliteFilePath == "" {
		return fmt.Errorf("sqlite file path not set")
	}

	backupPath := strings.TrimSuffix(m.SqliteFilePath, ".db") +
		"." + time.Now().UTC().Format("20060102_150405") + ".bak.db"

	if exists, err := os.Stat(backupPath); err == nil && exists != nil {
		if err := os.Remove(backupPath); err != nil {
			return fmt.Errorf("error removing existing backup file: %s", err)
		}
	}

	start := time.Now()
	err := m.DB.Exec("VACUUM INTO 'file:" + backupPath + "';").Error
	if err != nil {
		return fmt.Errorf("error backing up DB: %s", err)
	}

	m.Logger.Debug().Dur("duration", time.Since(start)).Str("path", backupPath).Msg("Backed up DB")
	return nil
}
