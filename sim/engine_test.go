package sim

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rustyeddy/forecast-trader/explain"
	"github.com/rustyeddy/forecast-trader/internal/id"
	"github.com/rustyeddy/forecast-trader/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenario() []Series {
	return []Series{
		{Instrument: "A", Actual: []float64{100, 100, 100}, Predicted: []float64{100, 130, 130}},
		{Instrument: "B", Actual: []float64{10, 11, 12}, Predicted: []float64{10, 9, 9}},
	}
}

type failingSink struct{ *journal.Memory }

func (failingSink) RecordEntry(string, int, journal.Entry) error { return errors.New("disk full") }

func TestEngineRecordsRunWithReasons(t *testing.T) {
	mem := journal.NewMemory()
	e := NewEngine(opts(1000, 1), mem)
	e.SetEnricher(&explain.Enricher{Explainer: explain.Static{Text: "trend"}})
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return created }

	res, err := e.Run(context.Background(), scenario())
	require.NoError(t, err)

	require.NotEmpty(t, res.RunID)
	ts, err := id.Time(res.RunID)
	require.NoError(t, err)
	assert.True(t, ts.Equal(created))

	for _, entry := range res.Log {
		if entry.Action.IsFinal() {
			assert.Equal(t, explain.FinalReason(entry.Action), entry.Reason)
		} else {
			assert.Equal(t, "trend", entry.Reason)
		}
	}

	runs := mem.Runs()
	require.Len(t, runs, 1)
	assert.Equal(t, res.RunID, runs[0].RunID)
	assert.Equal(t, []string{"A", "B"}, runs[0].Instruments)
	assert.Equal(t, len(res.Log), runs[0].Entries)
	assert.Equal(t, res.Profit, runs[0].Profit)
	assert.Equal(t, res.Log, mem.Entries(res.RunID))
}

func TestEngineEnrichmentDoesNotChangeMoney(t *testing.T) {
	plain, err := Run(context.Background(), scenario(), opts(1000, 1))
	require.NoError(t, err)

	e := NewEngine(opts(1000, 1))
	e.SetEnricher(&explain.Enricher{Explainer: explain.Func(func(context.Context, explain.Context) (string, error) {
		return "", errors.New("timeout")
	})})
	res, err := e.Run(context.Background(), scenario())
	require.NoError(t, err)

	assert.Equal(t, plain.FinalBalance, res.FinalBalance)
	require.Len(t, res.Log, len(plain.Log))
	for i := range res.Log {
		got := res.Log[i]
		if !got.Action.IsFinal() {
			assert.Equal(t, explain.Fallback, got.Reason)
		}
		got.Reason = ""
		assert.Equal(t, plain.Log[i], got)
	}
}

func TestEngineLogIsByteIdenticalAcrossRuns(t *testing.T) {
	run := func() []byte {
		e := NewEngine(opts(1000, 1))
		e.SetEnricher(&explain.Enricher{Explainer: explain.Static{}})
		res, err := e.Run(context.Background(), scenario())
		require.NoError(t, err)
		b, err := json.Marshal(res.Log)
		require.NoError(t, err)
		return b
	}
	assert.Equal(t, run(), run())
}

func TestEngineWithoutEnricherHasNoReasons(t *testing.T) {
	res, err := NewEngine(opts(1000, 1)).Run(context.Background(), scenario())
	require.NoError(t, err)
	for _, entry := range res.Log {
		assert.Empty(t, entry.Reason)
	}
}

func TestEngineSinkErrorKeepsResult(t *testing.T) {
	e := NewEngine(opts(1000, 1), &failingSink{Memory: journal.NewMemory()})
	res, err := e.Run(context.Background(), scenario())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NotEmpty(t, res.Log)
}

func TestEngineValidationError(t *testing.T) {
	mem := journal.NewMemory()
	_, err := NewEngine(opts(1000, 1), mem).Run(context.Background(), nil)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, mem.Runs())
}

func TestContexts(t *testing.T) {
	series := []Series{{
		Instrument: "A",
		Actual:     []float64{1, 2, 3, 4, 5, 6, 7},
		Predicted:  []float64{1, 2, 3, 4, 5, 6, 7},
	}}
	log := []journal.Entry{
		{Day: 5, Instrument: "A", Action: journal.Hold, Price: 6},
		{Day: 6, Instrument: "A", Action: journal.FinalSell, Price: 7},
	}

	got := Contexts(series, log, Options{Lookahead: 3, HistoryWindow: 3})
	require.Len(t, got, 2)
	assert.Equal(t, explain.Context{
		Instrument: "A",
		Action:     journal.Hold,
		Price:      6,
		Forecast:   []float64{7},
		History:    []float64{4, 5, 6},
	}, got[0])
	assert.Empty(t, got[1].Forecast)
}
