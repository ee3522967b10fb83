// Package journal keeps an append-only SQLite record of a city run: the
// generated map, weekly reports and notable events. The simulation only
// writes to it; the API reads recent reports back.
package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/tilecity/internal/city"
	"github.com/talgya/tilecity/internal/world"
)

// DB wraps a SQLite connection.
type DB struct {
	conn *sqlx.DB
}

// Generation is one recorded map generation.
type Generation struct {
	ID        int64     `json:"id" db:"id"`
	Seed      int64     `json:"seed" db:"seed"`
	Size      int       `json:"size" db:"size"`
	Steps     int       `json:"steps" db:"steps"`
	Restarts  int       `json:"restarts" db:"restarts"`
	Counts    string    `json:"counts" db:"counts_json"` // Road type name -> tiles
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer; SQLite serialises writes anyway.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed INTEGER NOT NULL,
		size INTEGER NOT NULL,
		steps INTEGER NOT NULL,
		restarts INTEGER NOT NULL,
		counts_json TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS weekly_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		week INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		treasury INTEGER NOT NULL,
		funds INTEGER NOT NULL,
		debt REAL NOT NULL,
		tax REAL NOT NULL,
		population INTEGER NOT NULL,
		employed INTEGER NOT NULL,
		avg_happiness REAL NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_reports_week ON weekly_reports(week);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveGeneration records a finished map generation and returns its row ID.
func (db *DB) SaveGeneration(ctx context.Context, stats world.GenStats, ts *world.TileSet) (int64, error) {
	counts := make(map[string]int, len(stats.Counts))
	for t, n := range stats.Counts {
		name := fmt.Sprint(int(t))
		if ts != nil {
			name = ts.Name(t)
		}
		counts[name] += n
	}
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return 0, fmt.Errorf("encode tile counts: %w", err)
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO generations (seed, size, steps, restarts, counts_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		stats.Seed, stats.Size, stats.Steps, stats.Restarts, string(countsJSON), time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert generation: %w", err)
	}
	return res.LastInsertId()
}

// Generations returns every recorded generation, newest first.
func (db *DB) Generations(ctx context.Context) ([]Generation, error) {
	var gens []Generation
	err := db.conn.SelectContext(ctx, &gens,
		"SELECT id, seed, size, steps, restarts, counts_json, created_at FROM generations ORDER BY id DESC")
	return gens, err
}

// SaveWeeklyReport appends a weekly report.
func (db *DB) SaveWeeklyReport(ctx context.Context, r city.Report) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.NamedExecContext(ctx, `INSERT INTO weekly_reports
		(week, tick, treasury, funds, debt, tax, population, employed, avg_happiness, created_at)
		VALUES (:week, :tick, :treasury, :funds, :debt, :tax, :population, :employed, :avg_happiness, :created_at)`,
		r,
	)
	if err != nil {
		return fmt.Errorf("insert report for week %d: %w", r.Week, err)
	}
	return nil
}

// RecentReports returns up to limit reports, newest first.
func (db *DB) RecentReports(ctx context.Context, limit int) ([]city.Report, error) {
	var reports []city.Report
	err := db.conn.SelectContext(ctx, &reports,
		`SELECT week, tick, treasury, funds, debt, tax, population, employed, avg_happiness, created_at
		FROM weekly_reports ORDER BY id DESC LIMIT ?`,
		limit,
	)
	return reports, err
}

// SaveEvents appends events to the database.
func (db *DB) SaveEvents(ctx context.Context, events []city.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO events (tick, description, category) VALUES (?, ?, ?)",
			e.Tick, e.Description, e.Category,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Debug("events journalled", "count", len(events))
	return nil
}

// RecentEvents returns the most recent N events, newest first.
func (db *DB) RecentEvents(ctx context.Context, limit int) ([]city.Event, error) {
	var events []city.Event
	err := db.conn.SelectContext(ctx, &events,
		"SELECT tick, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair of run metadata.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO run_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM run_meta WHERE key = ?", key)
	return value, err
}
