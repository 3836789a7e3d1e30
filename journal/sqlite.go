package journal

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r RunRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, instruments, days, lookahead, threshold, initial_balance, final_balance, profit, entries)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), strings.Join(r.Instruments, ","), r.Days, r.Lookahead,
		r.Threshold, r.InitialBalance, r.FinalBalance, r.Profit, r.Entries,
	)
	return err
}

func (j *SQLite) RecordEntry(runID string, seq int, e Entry) error {
	_, err := j.db.Exec(`
		INSERT INTO entries
		(run_id, seq, day, instrument, action, price, balance, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, seq, e.Day, e.Instrument, string(e.Action), e.Price, e.Balance, e.Reason,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
