// Package database persists batch catalogs through gorm. A reachable
// Postgres server is preferred; without one the catalog lives in a shared
// in-memory SQLite database that is vacuumed to disk at the end of the run
// so `pitchmark dump` can read it back.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/osm3d/pitchmark/internal/model"
)

// sqlitePragmas tune the fallback database for bulk inserts. Durability
// comes from the end-of-run VACUUM INTO, not the journal.
var sqlitePragmas = []string{
	"PRAGMA user_version = 1;",
	"PRAGMA journal_mode = MEMORY;",
	"PRAGMA synchronous = OFF;",
	"PRAGMA cache_size = -32000;",
	"PRAGMA temp_store = MEMORY;",
	"PRAGMA page_size = 32768;",
	"PRAGMA mmap_size = 30000000000;",
}

// Manager owns the catalog connection for one run.
type Manager struct {
	DB              *gorm.DB
	SqlDB           *sql.DB
	IsValid         bool
	ShouldSaveLocal bool
	SqliteFilePath  string
	Logger          zerolog.Logger

	// LastWriteDuration holds the wall time of the most recent
	// SaveFrameRecords call. Sampled by the progress monitor.
	LastWriteDuration time.Duration
}

// NewManager creates a new database manager.
func NewManager(log zerolog.Logger) *Manager {
	return &Manager{Logger: log}
}

// Connect opens the catalog, preferring Postgres and dropping to the
// in-memory SQLite database when Postgres cannot be reached or pinged.
// The fallback marks the run for a disk dump at finalize time.
func (m *Manager) Connect() error {
	pg, err := m.GetPostgresDB()
	if err != nil {
		m.Logger.Error().Err(err).Msg("Failed to connect to Postgres DB, trying SQLite")
		return m.fallBackToLocal()
	}

	m.DB = pg
	m.SqlDB, err = pg.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %s", err)
	}
	if err := m.SqlDB.Ping(); err != nil {
		m.Logger.Error().Err(err).Msg("Failed to validate connection, trying SQLite")
		return m.fallBackToLocal()
	}

	m.SqlDB.SetMaxOpenConns(10)
	m.IsValid = true
	m.Logger.Info().Msg("Connected to catalog database")
	return nil
}

// fallBackToLocal swaps the connection to the shared in-memory SQLite
// database. Callers treat any error here as the end of cataloging.
func (m *Manager) fallBackToLocal() error {
	m.ShouldSaveLocal = true
	db, err := m.GetSqliteDB("")
	if err != nil || db == nil {
		m.IsValid = false
		return fmt.Errorf("failed to get local SQLite DB: %s", err)
	}
	m.DB = db
	m.SqlDB, _ = db.DB()
	m.IsValid = true
	return nil
}

// GetPostgresDB opens the Postgres catalog configured under the db.* keys.
func (m *Manager) GetPostgresDB() (*gorm.DB, error) {
	m.Logger.Debug().Msgf("Connecting to Postgres DB at '%s'", postgresDSN())
	return openPostgres()
}

// GetSqliteDB opens a SQLite catalog at path, or the shared in-memory
// database when path is empty.
func (m *Manager) GetSqliteDB(path string) (*gorm.DB, error) {
	db, err := openSqlite(path)
	if err != nil {
		m.IsValid = false
		return nil, err
	}
	if path != "" {
		m.Logger.Info().Str("path", path).Msg("Using local SQLite DB")
	} else {
		m.Logger.Info().Msg("Using local SQLite DB in memory with disk dump at finalize")
	}
	return db, nil
}

// Setup migrates the catalog schema, seeding the tool info row when the
// database is fresh.
func (m *Manager) Setup() error {
	if !m.DB.Migrator().HasTable(&model.RunInfo{}) {
		if err := m.DB.AutoMigrate(&model.RunInfo{}); err != nil {
			m.IsValid = false
			return fmt.Errorf("failed to create run_info table: %s", err)
		}
		info := model.RunInfo{
			ToolName:    "pitchmark",
			ToolVersion: "1.0.0",
			Homepage:    "https://github.com/osm3d/pitchmark",
		}
		if err := m.DB.Create(&info).Error; err != nil {
			m.IsValid = false
			return fmt.Errorf("failed to create run_info entry: %s", err)
		}
	}

	// frame origin columns are geometry typed on Postgres
	if m.DB.Dialector.Name() == "postgres" {
		if err := m.DB.Exec(`CREATE EXTENSION IF NOT EXISTS postgis;`).Error; err != nil {
			m.IsValid = false
			return fmt.Errorf("failed to create PostGIS extension: %s", err)
		}
		m.Logger.Info().Msg("PostGIS extension ready")
	}

	m.Logger.Info().Msg("Migrating schema")
	models := model.DatabaseModels
	if m.ShouldSaveLocal {
		models = model.DatabaseModelsSQLite
	}
	if err := m.DB.AutoMigrate(models...); err != nil {
		m.IsValid = false
		return fmt.Errorf("failed to migrate schema: %s", err)
	}

	m.Logger.Info().Msg("Database setup complete")
	return nil
}

// CreateBatch inserts a batch row so frame records can reference it.
func (m *Manager) CreateBatch(batch *model.BatchRecord) error {
	if !m.IsValid {
		return fmt.Errorf("db not valid")
	}
	return m.DB.Create(batch).Error
}

// SaveFrameRecords inserts frame records stamped with the given batch.
func (m *Manager) SaveFrameRecords(batchID uint, records []model.FrameRecord) error {
	if !m.IsValid {
		return fmt.Errorf("db not valid")
	}
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		records[i].BatchID = batchID
	}

	start := time.Now()
	if err := m.DB.Create(&records).Error; err != nil {
		return fmt.Errorf("error saving frame records: %s", err)
	}
	m.LastWriteDuration = time.Since(start)
	m.Logger.Debug().
		Int("count", len(records)).
		Dur("duration", m.LastWriteDuration).
		Msg("Saved frame records")
	return nil
}

// FinalizeBatch writes back totals and duration after a run.
func (m *Manager) FinalizeBatch(batch *model.BatchRecord) error {
	if !m.IsValid {
		return fmt.Errorf("db not valid")
	}
	return m.DB.Save(batch).Error
}

// SavePerfSample inserts one monitor performance row.
func (m *Manager) SavePerfSample(sample *model.PerfSample) error {
	if !m.IsValid {
		return fmt.Errorf("db not valid")
	}
	return m.DB.Create(sample).Error
}

// DumpMemoryToDisk vacuums the in-memory catalog into SqliteFilePath,
// replacing any previous dump.
func (m *Manager) DumpMemoryToDisk() error {
	if m.SqliteFilePath == "" {
		return fmt.Errorf("sqlite file path not set")
	}
	if _, err := os.Stat(m.SqliteFilePath); err == nil {
		if err := os.Remove(m.SqliteFilePath); err != nil {
			return fmt.Errorf("error removing existing DB file: %s", err)
		}
	}

	start := time.Now()
	if err := m.DB.Exec("VACUUM INTO 'file:" + m.SqliteFilePath + "';").Error; err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %s", err)
	}
	m.Logger.Debug().Dur("duration", time.Since(start)).Msg("Dumped memory DB to disk")
	return nil
}

// GetBackupDBPaths lists the .db files a previous run dumped into dir.
func GetBackupDBPaths(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".db") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// Standalone openers for `pitchmark dump`, which reads catalogs without a
// Manager.

// GetPostgresDBStandalone connects using the viper db.* keys.
func GetPostgresDBStandalone() (*gorm.DB, error) {
	return openPostgres()
}

// GetSqliteDBStandalone opens the SQLite catalog at path, or the shared
// in-memory database when path is empty.
func GetSqliteDBStandalone(path string) (*gorm.DB, error) {
	return openSqlite(path)
}

func postgresDSN() string {
	return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
		viper.GetString("db.host"),
		viper.GetString("db.port"),
		viper.GetString("db.username"),
		viper.GetString("db.password"),
		viper.GetString("db.database"),
	)
}

func openPostgres() (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  postgresDSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
}

func openSqlite(path string) (*gorm.DB, error) {
	dsn := "file::memory:?cache=shared"
	if path != "" {
		dsn = path
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	for _, pragma := range sqlitePragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %s", err)
		}
	}
	return db, nil
}
