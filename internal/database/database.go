package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OCAP2/drivesim/internal/model"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config describes a database connection.
type Config struct {
	Driver   string
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Path     string // sqlite file, in-memory when empty
}

// DSN returns the driver specific connection string.
func (c Config) DSN() string {
	switch c.Driver {
	case DriverPostgres:
		return fmt.Sprintf(`host=%s port=%s user=%s password=%s dbname=%s sslmode=disable`,
			c.Host, c.Port, c.Username, c.Password, c.Database)
	case DriverMySQL:
		return fmt.Sprintf(`%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC`,
			c.Username, c.Password, c.Host, c.Port, c.Database)
	default:
		if c.Path == "" {
			return "file::memory:?cache=shared"
		}
		return c.Path
	}
}

// redacted is DSN with the password masked, for logs.
func (c Config) redacted() string {
	if c.Password == "" {
		return c.DSN()
	}
	masked := c
	masked.Password = "****"
	return masked.DSN()
}

// Manager handles database connections and operations.
type Manager struct {
	DB              *gorm.DB
	SqlDB           *sql.DB
	IsValid         bool
	ShouldSaveLocal bool
	SqliteFilePath  string
	Logger          *slog.Logger
}

// NewManager creates a new database manager.
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		Logger: log,
	}
}

// Connect opens cfg and pings it. When a server database cannot be reached
// and fallbackPath is set, a local SQLite file is used instead.
func (m *Manager) Connect(cfg Config, fallbackPath string) error {
	db, err := Open(cfg)
	if err == nil {
		m.SqlDB, err = db.DB()
	}
	if err == nil {
		err = m.SqlDB.Ping()
	}

	if err != nil {
		if cfg.Driver == DriverSQLite || fallbackPath == "" {
			m.IsValid = false
			return fmt.Errorf("failed to connect to %s DB: %w", cfg.Driver, err)
		}
		m.Logger.Error("Failed to connect to DB, trying SQLite", "driver", cfg.Driver, "error", err)
		m.ShouldSaveLocal = true
		m.SqliteFilePath = fallbackPath
		db, err = OpenSqlite(fallbackPath)
		if err != nil {
			m.IsValid = false
			return fmt.Errorf("failed to get local SQLite DB: %w", err)
		}
		if m.SqlDB, err = db.DB(); err != nil {
			return fmt.Errorf("failed to access sql interface: %w", err)
		}
	} else {
		m.Logger.Info("Connected to database", "driver", cfg.Driver)
		if cfg.Driver == DriverSQLite {
			m.ShouldSaveLocal = true
			m.SqliteFilePath = cfg.Path
		} else {
			m.SqlDB.SetMaxOpenConns(10)
		}
	}

	m.DB = db
	m.IsValid = true
	return nil
}

// Setup migrates the schema.
func (m *Manager) Setup() error {
	if m.DB == nil {
		return fmt.Errorf("db not connected")
	}
	m.Logger.Info("Migrating schema")
	if err := Migrate(m.DB); err != nil {
		m.IsValid = false
		return err
	}
	m.Logger.Info("Database setup complete")
	return nil
}

// Close closes the underlying connection pool.
func (m *Manager) Close() error {
	if m.SqlDB == nil {
		return nil
	}
	return m.SqlDB.Close()
}

// Open connects to cfg without checking liveness.
func Open(cfg Config) (*gorm.DB, error) {
	switch cfg.Driver {
	case DriverPostgres:
		return OpenPostgres(cfg)
	case DriverMySQL:
		return OpenMySQL(cfg)
	case DriverSQLite, "":
		return OpenSqlite(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}

// OpenPostgres returns a connection to a Postgres database.
func OpenPostgres(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN(),
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        10000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres (%s): %w", cfg.redacted(), err)
	}
	return db, nil
}

// OpenMySQL returns a connection to a MySQL database.
func OpenMySQL(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{
		SkipDefaultTransaction: true,
		CreateBatchSize:        5000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open mysql (%s): %w", cfg.redacted(), err)
	}
	return db, nil
}

// OpenSqlite returns a connection to a SQLite database.
// If path is empty, uses a shared in-memory database.
func OpenSqlite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(Config{Driver: DriverSQLite, Path: path}.DSN()), &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		CreateBatchSize:        2000,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA user_version = 1;",
		"PRAGMA journal_mode = MEMORY;",
		"PRAGMA synchronous = OFF;",
		"PRAGMA cache_size = -32000;",
		"PRAGMA temp_store = MEMORY;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			return nil, fmt.Errorf("error setting PRAGMA: %w", err)
		}
	}

	return db, nil
}

// Migrate creates or updates every table in model.DatabaseModels.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(model.DatabaseModels...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// DumpMemoryDBToDisk vacuums a SQLite database into a file, replacing any
// previous dump.
func DumpMemoryDBToDisk(db *gorm.DB, sqliteFilePath string) error {
	if sqliteFilePath == "" {
		return fmt.Errorf("sqlite file path not set")
	}

	if _, err := os.Stat(sqliteFilePath); err == nil {
		if err := os.Remove(sqliteFilePath); err != nil {
			return fmt.Errorf("error removing existing DB file: %w", err)
		}
	}

	if err := db.Exec("VACUUM INTO ?", sqliteFilePath).Error; err != nil {
		return fmt.Errorf("error dumping memory DB to disk: %w", err)
	}
	return nil
}

// BackupDBPaths returns paths to all .db files in dir, oldest first by name.
func BackupDBPaths(dir string) ([]string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var dbPaths []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".db") {
			dbPaths = append(dbPaths, filepath.Join(dir, file.Name()))
		}
	}
	return dbPaths, nil
}

// DumpFileName is the file a run's SQLite dump is written to.
func DumpFileName(dir, name string, start time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s.db", name, start.Format("20060102_150405")))
}
