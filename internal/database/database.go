// Package database opens the relational store and applies its schema.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"newsfeed/internal/logger"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Manager struct {
	DB     *sql.DB
	Driver string
}

type Config struct {
	Driver           string
	ConnectionString string
	Host             string
	Port             string
	User             string
	Password         string
	DBName           string
	SQLitePath       string
}

func NewManager(cfg Config) (*Manager, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPostgres
	}

	var (
		db  *sql.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		db, err = openPostgres(cfg)
	case DriverSQLite:
		db, err = openSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Infof("Successfully connected to the %s database", driver)

	manager := &Manager{DB: db, Driver: driver}

	if err := manager.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return manager, nil
}

func openPostgres(cfg Config) (*sql.DB, error) {
	connectionString := cfg.ConnectionString
	if connectionString == "" {
		connectionString = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName,
		)
	}

	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return db, nil
}

func (m *Manager) runMigrations() error {
	migrations := postgresMigrations
	if m.Driver == DriverSQLite {
		migrations = sqliteMigrations
	}

	for i, migration := range migrations {
		if _, err := m.DB.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	logger.Infof("Database migrations completed successfully")
	return nil
}

func (m *Manager) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

func (m *Manager) GetDB() *sql.DB {
	return m.DB
}
