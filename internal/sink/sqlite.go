package sink

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - runs + words tables
const currentSchemaVersion = 1

// Run status values stored in runs.status.
const (
	StatusRunning  = "running"
	StatusComplete = "complete"
	StatusFailed   = "failed"
)

// RunMeta describes the run recorded in the runs table.
type RunMeta struct {
	ConfigDigest string
	Total        uint64
}

// SQLite stores words in a SQLite database, one row per combination keyed
// by (run_id, idx). All words of a run are written in one transaction, so
// an aborted run leaves only its runs row, marked failed.
type SQLite struct {
	db      *sql.DB
	tx      *sql.Tx
	insert  *sql.Stmt
	runID   string
	written int64
	done    bool
}

var _ Sink = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at path and starts a run.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func OpenSQLite(path string, meta RunMeta) (*SQLite, error) {
	if meta.Total > math.MaxInt64 {
		return nil, fmt.Errorf("%d combinations exceed the SQLite index range", meta.Total)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	runID := uuid.Must(uuid.NewV7()).String()
	_, err = db.Exec(
		`INSERT INTO runs (id, config_digest, total, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		runID, meta.ConfigDigest, int64(meta.Total), StatusRunning, time.Now().Unix(),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to record run: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	insert, err := tx.Prepare(`INSERT INTO words (run_id, idx, word) VALUES (?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}

	return &SQLite{db: db, tx: tx, insert: insert, runID: runID}, nil
}

// RunID returns the UUIDv7 identifying this run.
func (s *SQLite) RunID() string { return s.runID }

// Write inserts one word.
func (s *SQLite) Write(index uint64, word []byte) error {
	if index > math.MaxInt64 {
		return fmt.Errorf("index %d exceeds the SQLite index range", index)
	}
	if _, err := s.insert.Exec(s.runID, int64(index), string(word)); err != nil {
		return err
	}
	s.written++
	return nil
}

// Commit commits the words and marks the run complete. If the words cannot
// be committed the run is marked failed instead.
func (s *SQLite) Commit() error {
	if s.done {
		return errors.New("sink already finished")
	}
	s.done = true
	defer s.db.Close()

	if err := s.insert.Close(); err != nil {
		_ = s.tx.Rollback()
		return errors.Join(fmt.Errorf("close insert: %w", err), s.finish(StatusFailed, 0))
	}
	if err := s.tx.Commit(); err != nil {
		return errors.Join(fmt.Errorf("commit words: %w", err), s.finish(StatusFailed, 0))
	}
	return s.finish(StatusComplete, s.written)
}

// Abort rolls back the words and marks the run failed.
func (s *SQLite) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	defer s.db.Close()

	_ = s.insert.Close()
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback words: %w", err)
	}
	return s.finish(StatusFailed, 0)
}

func (s *SQLite) finish(status string, written int64) error {
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, written = ?, finished_at = ? WHERE id = ?`,
		status, written, time.Now().Unix(), s.runID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", s.runID, err)
	}
	return nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates tables if they don't exist and records the schema
// version. It is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
