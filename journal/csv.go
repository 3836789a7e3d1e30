package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	entryHeader = []string{"run_id", "seq", "day", "instrument", "action", "price", "balance", "reason"}
	runHeader   = []string{"run_id", "created", "instruments", "days", "lookahead", "threshold", "initial_balance", "final_balance", "profit", "entries"}
)

type CSV struct {
	entries *csv.Writer
	runs    *csv.Writer
	ef, rf  *os.File
}

func NewCSV(entriesPath, runsPath string) (*CSV, error) {
	ef, err := os.Create(entriesPath)
	if err != nil {
		return nil, err
	}
	rf, err := os.Create(runsPath)
	if err != nil {
		_ = ef.Close()
		return nil, err
	}

	ew := csv.NewWriter(ef)
	rw := csv.NewWriter(rf)

	if err := writeHeader(ew, entryHeader); err != nil {
		_ = ef.Close()
		_ = rf.Close()
		return nil, err
	}
	if err := writeHeader(rw, runHeader); err != nil {
		_ = ef.Close()
		_ = rf.Close()
		return nil, err
	}

	return &CSV{ew, rw, ef, rf}, nil
}

func writeHeader(w *csv.Writer, header []string) error {
	if err := w.Write(header); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSV) RecordRun(r RunRecord) error {
	err := j.runs.Write([]string{
		r.RunID,
		r.Created.UTC().Format(time.RFC3339),
		strings.Join(r.Instruments, ";"),
		strconv.Itoa(r.Days),
		strconv.Itoa(r.Lookahead),
		f(r.Threshold),
		f(r.InitialBalance),
		f(r.FinalBalance),
		f(r.Profit),
		strconv.Itoa(r.Entries),
	})
	if err != nil {
		return err
	}
	j.runs.Flush()
	return j.runs.Error()
}

func (j *CSV) RecordEntry(runID string, seq int, e Entry) error {
	err := j.entries.Write([]string{
		runID,
		strconv.Itoa(seq),
		strconv.Itoa(e.Day),
		e.Instrument,
		string(e.Action),
		f(e.Price),
		f(e.Balance),
		e.Reason,
	})
	if err != nil {
		return err
	}
	j.entries.Flush()
	return j.entries.Error()
}

func (j *CSV) Close() error {
	j.entries.Flush()
	if err := j.entries.Error(); err != nil {
		return err
	}
	j.runs.Flush()
	if err := j.runs.Error(); err != nil {
		return err
	}

	if err := j.ef.Close(); err != nil {
		return err
	}
	return j.rf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
