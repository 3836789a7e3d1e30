package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrRunNotFound is returned by GetRun for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `run_id, created, instruments, days, lookahead, threshold, initial_balance, final_balance, profit, entries`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var rec RunRecord
	var instruments string
	err := row.Scan(
		&rec.RunID,
		&rec.Created,
		&instruments,
		&rec.Days,
		&rec.Lookahead,
		&rec.Threshold,
		&rec.InitialBalance,
		&rec.FinalBalance,
		&rec.Profit,
		&rec.Entries,
	)
	if err != nil {
		return RunRecord{}, err
	}
	if instruments != "" {
		rec.Instruments = strings.Split(instruments, ",")
	}
	return rec, nil
}

// GetRun returns a single run summary by id.
func (j *SQLite) GetRun(runID string) (RunRecord, error) {
	row := j.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	rec, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RunRecord{}, fmt.Errorf("%w: %q", ErrRunNotFound, runID)
		}
		return RunRecord{}, err
	}
	return rec, nil
}

// ListRuns returns every run, oldest first.
func (j *SQLite) ListRuns() ([]RunRecord, error) {
	rows, err := j.db.Query(`SELECT ` + runColumns + ` FROM runs ORDER BY run_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEntries returns the trade log of a run in its original order.
func (j *SQLite) ListEntries(runID string) ([]Entry, error) {
	rows, err := j.db.Query(`
		SELECT day, instrument, action, price, balance, reason
		FROM entries
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(
			&e.Day,
			&e.Instrument,
			&action,
			&e.Price,
			&e.Balance,
			&e.Reason,
		); err != nil {
			return nil, err
		}
		e.Action = Action(action)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
