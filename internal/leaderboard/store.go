// Package leaderboard implements the shared ranking: a SQLite store, the
// HTTP API in front of it, a websocket feed of new entries and a client for
// the terminal game.
package leaderboard

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Query limits.
const (
	MaxGlobalEntries = 100
	MaxPlayerEntries = 20
)

// dateLayout is fixed width so stored dates sort as text.
const dateLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is a single ranking record.
type Entry struct {
	ID          uuid.UUID `json:"id"`
	PlayerName  string    `json:"playerName"`
	Score       int       `json:"score"`
	Moves       int       `json:"moves"`
	Time        string    `json:"time"`
	ElapsedSecs int       `json:"-"`
	Difficulty  string    `json:"difficulty"`
	Efficiency  int       `json:"efficiency"`
	Date        time.Time `json:"date"`
}

// Store manages the SQLite database connection for the ranking.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS rankings (
			id TEXT PRIMARY KEY,
			player_name TEXT NOT NULL,
			score INTEGER NOT NULL,
			moves INTEGER NOT NULL,
			time TEXT NOT NULL,
			elapsed_secs INTEGER NOT NULL,
			difficulty TEXT NOT NULL,
			efficiency INTEGER NOT NULL,
			date TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_rankings_top ON rankings(score DESC, moves ASC, elapsed_secs ASC);
		CREATE INDEX IF NOT EXISTS idx_rankings_difficulty ON rankings(difficulty);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Insert stores e. A zero ID is replaced with a new one.
func (s *Store) Insert(ctx context.Context, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rankings (id, player_name, score, moves, time, elapsed_secs, difficulty, efficiency, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.PlayerName, e.Score, e.Moves, e.Time, e.ElapsedSecs,
		e.Difficulty, e.Efficiency, e.Date.UTC().Format(dateLayout),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save entry: %w", err)
	}
	return nil
}

// Global returns the top entries ordered by score, then fewest moves, then
// shortest time. An empty difficulty includes every level.
func (s *Store) Global(ctx context.Context, difficulty string, limit int) ([]Entry, error) {
	limit = clampLimit(limit, MaxGlobalEntries)

	query := `SELECT id, player_name, score, moves, time, elapsed_secs, difficulty, efficiency, date FROM rankings`
	args := []any{}
	if difficulty != "" {
		query += ` WHERE difficulty = ?`
		args = append(args, strings.ToLower(difficulty))
	}
	query += ` ORDER BY score DESC, moves ASC, elapsed_secs ASC LIMIT ?`
	args = append(args, limit)

	return s.query(ctx, query, args...)
}

// Player returns the best entries of players whose name contains name,
// ignoring case, newest first among equal scores.
func (s *Store) Player(ctx context.Context, name string, limit int) ([]Entry, error) {
	limit = clampLimit(limit, MaxPlayerEntries)
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(name))) + "%"

	return s.query(ctx,
		`SELECT id, player_name, score, moves, time, elapsed_secs, difficulty, efficiency, date FROM rankings
		 WHERE lower(player_name) LIKE ? ESCAPE '\'
		 ORDER BY score DESC, date DESC LIMIT ?`,
		pattern, limit,
	)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query rankings: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e    Entry
			id   string
			date string
		)
		if err := rows.Scan(&id, &e.PlayerName, &e.Score, &e.Moves, &e.Time, &e.ElapsedSecs, &e.Difficulty, &e.Efficiency, &date); err != nil {
			return nil, fmt.Errorf("storage: cannot scan entry: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("storage: bad entry id %q: %w", id, err)
		}
		if e.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("storage: bad entry date %q: %w", date, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: cannot read rankings: %w", err)
	}
	return entries, nil
}

func clampLimit(limit, maxLimit int) int {
	if limit <= 0 || limit > maxLimit {
		return maxLimit
	}
	return limit
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
