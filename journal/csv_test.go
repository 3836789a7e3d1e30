package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()

	rows, err := csv.NewReader(fh).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVJournalHeaders(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entriesPath := filepath.Join(dir, "entries.csv")
	runsPath := filepath.Join(dir, "runs.csv")

	j, err := NewCSV(entriesPath, runsPath)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	assert.Equal(t, entryHeader, readCSV(t, entriesPath)[0])
	assert.Equal(t, runHeader, readCSV(t, runsPath)[0])
}

func TestCSVJournalRecord(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	entriesPath := filepath.Join(dir, "entries.csv")
	runsPath := filepath.Join(dir, "runs.csv")

	j, err := NewCSV(entriesPath, runsPath)
	require.NoError(t, err)

	run := RunRecord{
		RunID:          "R1",
		Created:        time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Instruments:    []string{"INFY.NS", "ITC.NS"},
		Days:           3,
		Lookahead:      5,
		Threshold:      0.02,
		InitialBalance: 1000,
		FinalBalance:   1010.5,
		Profit:         10.5,
		Entries:        2,
	}
	entries := []Entry{
		{Day: 0, Instrument: "INFY.NS", Action: Buy, Price: 100, Balance: 0},
		{Day: 2, Instrument: "INFY.NS", Action: FinalSell, Price: 101.05, Balance: 1010.5, Reason: "Final liquidation of long position."},
	}
	require.NoError(t, Record(j, run, entries))
	require.NoError(t, j.Close())

	rows := readCSV(t, entriesPath)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"R1", "0", "0", "INFY.NS", "BUY", "100.000000", "0.000000", ""}, rows[1])
	assert.Equal(t, []string{"R1", "1", "2", "INFY.NS", "FINAL SELL", "101.050000", "1010.500000", "Final liquidation of long position."}, rows[2])

	runs := readCSV(t, runsPath)
	require.Len(t, runs, 2)
	assert.Equal(t, "R1", runs[1][0])
	assert.Equal(t, "2024-01-02T03:04:05Z", runs[1][1])
	assert.Equal(t, "INFY.NS;ITC.NS", runs[1][2])
	assert.Equal(t, "10.500000", runs[1][8])
}

func TestCSVJournalBadPath(t *testing.T) {
	t.Parallel()

	_, err := NewCSV(filepath.Join(t.TempDir(), "missing", "entries.csv"), "runs.csv")
	assert.Error(t, err)
}

func TestCSVJournalHeaderWriteFails(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}

	runsPath := filepath.Join(t.TempDir(), "runs.csv")
	j, err := NewCSV("/dev/full", runsPath)
	require.Error(t, err)
	assert.Nil(t, j)

	_, err = os.Stat(runsPath)
	assert.NoError(t, err)
}

func TestWriteHeaderOnClosedFile(t *testing.T) {
	fh, err := os.Create(filepath.Join(t.TempDir(), "closed.csv"))
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	assert.Error(t, writeHeader(csv.NewWriter(fh), entryHeader))
}
