package store

import "time"

// RoundRecord summarizes one completed round.
type RoundRecord struct {
	ID               string
	DurationSeconds  int
	InitialCash      int64
	ParticipantCount int
	StartedAt        time.Time
	EndedAt          time.Time
}

// RoundResult is one participant's final standing in a round.
type RoundResult struct {
	RoundID       string
	ParticipantID string
	FinalBalance  int64
	Profit        int64
	Rank          int
}

// LeaderboardEntry is one row of the all-time leaderboard.
type LeaderboardEntry struct {
	ParticipantID string `json:"participant_id"`
	Profit        int64  `json:"profit"`
	FinalBalance  int64  `json:"final_balance"`
	RoundID       string `json:"round_id"`
}

// SaveRound writes a round and all its results in one transaction.
func (s *Store) SaveRound(record RoundRecord, results []RoundResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO rounds (id, duration_seconds, initial_cash, participant_count, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.DurationSeconds, record.InitialCash,
		record.ParticipantCount, record.StartedAt, record.EndedAt,
	)
	if err != nil {
		return err
	}

	for _, r := range results {
		_, err = tx.Exec(
			`INSERT INTO round_results (round_id, participant_id, final_balance, profit, rank)
			 VALUES (?, ?, ?, ?, ?)`,
			record.ID, r.ParticipantID, r.FinalBalance, r.Profit, r.Rank,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// RoundResults returns the stored results for one round, best first.
func (s *Store) RoundResults(roundID string) ([]RoundResult, error) {
	rows, err := s.db.Query(
		`SELECT round_id, participant_id, final_balance, profit, rank
		 FROM round_results WHERE round_id = ? ORDER BY rank ASC`,
		roundID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RoundResult
	for rows.Next() {
		var r RoundResult
		if err := rows.Scan(&r.RoundID, &r.ParticipantID, &r.FinalBalance, &r.Profit, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Leaderboard returns the highest single-round profits across all rounds.
func (s *Store) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.Query(
		`SELECT participant_id, profit, final_balance, round_id
		 FROM round_results ORDER BY profit DESC, created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.ParticipantID, &e.Profit, &e.FinalBalance, &e.RoundID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecentRounds returns the most recently finished rounds.
func (s *Store) RecentRounds(limit int) ([]RoundRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, duration_seconds, initial_cash, participant_count, started_at, ended_at
		 FROM rounds ORDER BY ended_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RoundRecord
	for rows.Next() {
		var r RoundRecord
		if err := rows.Scan(&r.ID, &r.DurationSeconds, &r.InitialCash, &r.ParticipantCount, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
