package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const (
	SchemaVersion = 2
)

// DB represents the database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens the SQLite database at the given path, enables WAL
// mode and applies pending migrations.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=10000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, path: dbPath}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return db, nil
}

// migrate applies database migrations incrementally, tracked via user_version.
func (db *DB) migrate() error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}

	for version < SchemaVersion {
		version++
		switch version {
		case 1:
			err = applySchemaV1(tx)
		case 2:
			err = applySchemaV2(tx)
		default:
			return fmt.Errorf("unknown schema version: %d", version)
		}
		if err != nil {
			return fmt.Errorf("failed to apply schema v%d: %w", version, err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
		return err
	}

	return tx.Commit()
}

func applySchemaV1(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			food_name TEXT NOT NULL,
			confidence REAL NOT NULL DEFAULT 0,
			max_confidence REAL NOT NULL DEFAULT 0,
			model_agreement INTEGER NOT NULL DEFAULT 0,
			calories_kcal REAL NOT NULL DEFAULT 0,
			protein_g REAL NOT NULL DEFAULT 0,
			fat_g REAL NOT NULL DEFAULT 0,
			carbs_g REAL NOT NULL DEFAULT 0,
			fiber_g REAL NOT NULL DEFAULT 0,
			sugar_g REAL NOT NULL DEFAULT 0,
			sodium_mg REAL NOT NULL DEFAULT 0,
			serving_size TEXT NOT NULL DEFAULT '100g',
			data_source TEXT NOT NULL DEFAULT '',
			processing_time REAL NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			analysis_id TEXT NOT NULL REFERENCES analyses(id) ON DELETE CASCADE,
			feedback_type TEXT NOT NULL,
			predicted_food TEXT NOT NULL,
			correct_food TEXT,
			original_confidence REAL NOT NULL DEFAULT 0,
			correction_reason TEXT,
			notes TEXT,
			created_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS learning_cache (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			predicted_food TEXT NOT NULL,
			correct_food TEXT NOT NULL,
			occurrence_count INTEGER NOT NULL DEFAULT 1,
			confidence_boost REAL NOT NULL DEFAULT 1.15,
			average_original_confidence REAL NOT NULL DEFAULT 0,
			success_rate REAL NOT NULL DEFAULT 100,
			first_seen TEXT NOT NULL,
			last_seen TEXT NOT NULL,
			UNIQUE(predicted_food, correct_food)
		);

		CREATE TABLE IF NOT EXISTS nutrition_cache (
			food_name TEXT PRIMARY KEY,
			calories_kcal REAL NOT NULL DEFAULT 0,
			protein_g REAL NOT NULL DEFAULT 0,
			fat_g REAL NOT NULL DEFAULT 0,
			carbs_g REAL NOT NULL DEFAULT 0,
			fiber_g REAL NOT NULL DEFAULT 0,
			sugar_g REAL NOT NULL DEFAULT 0,
			sodium_mg REAL NOT NULL DEFAULT 0,
			source TEXT NOT NULL,
			cached_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS daily_statistics (
			date TEXT PRIMARY KEY,
			total_predictions INTEGER NOT NULL DEFAULT 0,
			correct_predictions INTEGER NOT NULL DEFAULT 0,
			accuracy_rate REAL NOT NULL DEFAULT 0,
			high_confidence_predictions INTEGER NOT NULL DEFAULT 0,
			high_confidence_correct INTEGER NOT NULL DEFAULT 0,
			medium_confidence_predictions INTEGER NOT NULL DEFAULT 0,
			medium_confidence_correct INTEGER NOT NULL DEFAULT 0,
			low_confidence_predictions INTEGER NOT NULL DEFAULT 0,
			low_confidence_correct INTEGER NOT NULL DEFAULT 0,
			total_corrections INTEGER NOT NULL DEFAULT 0,
			total_confirmations INTEGER NOT NULL DEFAULT 0,
			total_nutrition_searches INTEGER NOT NULL DEFAULT 0,
			successful_nutrition_searches INTEGER NOT NULL DEFAULT 0,
			average_processing_time REAL NOT NULL DEFAULT 0,
			last_updated TEXT NOT NULL
		);
	`)
	return err
}

func applySchemaV2(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_feedback_analysis ON feedback(analysis_id);
		CREATE INDEX IF NOT EXISTS idx_learning_predicted ON learning_cache(predicted_food);
	`)
	return err
}

// Conn returns the underlying sql.DB connection for direct queries.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Begin starts a new transaction.
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Ping verifies database connectivity.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Close closes the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
