package store

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// Store persists completed round history to SQLite. Live game state never
// touches the database; only final results land here, feeding the
// leaderboard.
type Store struct {
	db *sql.DB
}

// New opens the database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rounds (
		id TEXT PRIMARY KEY,
		duration_seconds INTEGER NOT NULL,
		initial_cash INTEGER NOT NULL,
		participant_count INTEGER NOT NULL,
		started_at DATETIME,
		ended_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS round_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		round_id TEXT NOT NULL REFERENCES rounds(id),
		participant_id TEXT NOT NULL,
		final_balance INTEGER NOT NULL,
		profit INTEGER NOT NULL,
		rank INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_round_results_round ON round_results(round_id);
	CREATE INDEX IF NOT EXISTS idx_round_results_profit ON round_results(profit);
	`
	_, err := s.db.Exec(schema)
	return err
}
