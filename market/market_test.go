package market

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/forecast-trader/internal/logging"
	"github.com/rustyeddy/forecast-trader/journal"
	"github.com/rustyeddy/forecast-trader/sim"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestReadBars(t *testing.T) {
	in := "Date,Open,High,Low,Close,Volume\n" +
		"2024-01-02,1,1,1,100.5,10\n" +
		"2024-01-03 00:00:00-05:00,1,1,1,101,10\n" +
		"2024-01-04T00:00:00Z,1,1,1,99.25,10\n"
	bars, err := ReadBars(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []float64{100.5, 101, 99.25}, Closes(bars))
}

func TestReadBarsErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "", ErrEmpty},
		{"header only", "Date,Close\n", ErrEmpty},
		{"unordered", "Date,Close\n2024-01-03,1\n2024-01-02,2\n", ErrUnordered},
		{"duplicate", "Date,Close\n2024-01-03,1\n2024-01-03,2\n", ErrUnordered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadBars(strings.NewReader(tt.in))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := ReadBars(strings.NewReader("Time,Price\n2024-01-02,1\n"))
	assert.Error(t, err)
	_, err = ReadBars(strings.NewReader("Date,Close\n2024-01-02,abc\n"))
	assert.Error(t, err)
}

func TestDownsample(t *testing.T) {
	vs := []float64{0, 1, 2, 3, 4, 5, 6}
	assert.Equal(t, []float64{0, 3, 6}, Downsample(vs, 3))
	assert.Equal(t, []float64{0, 2, 4, 6}, Downsample(vs, 2))
	assert.Equal(t, vs, Downsample(vs, 1))
	assert.Empty(t, Downsample(nil, 5))
}

func TestCSVPredictor(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Pred_AAA.csv", "predicted\n1.5\n2.5\n3.5\n")

	p := CSVPredictor{Dir: dir}
	got, err := p.Predict(context.Background(), "AAA", 2, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.5, 3.5}, got)

	_, err = p.Predict(context.Background(), "ZZZ", 2, 100)
	assert.Error(t, err)
}

func TestHTTPPredictor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, "AAA", r.URL.Query().Get("ticker"))
		assert.Equal(t, "3", r.URL.Query().Get("steps"))
		assert.Equal(t, "100", r.URL.Query().Get("seq_length"))
		if r.URL.Query().Get("ticker") != "AAA" {
			http.Error(w, "unknown", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"predictions":[10,11.5,12]}`))
	}))
	defer srv.Close()

	p := NewHTTPPredictor(srv.URL, 0)
	got, err := p.Predict(context.Background(), "AAA", 3, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 11.5, 12}, got)
}

func TestHTTPPredictorBadReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer srv.Close()

	_, err := NewHTTPPredictor(srv.URL, 0).Predict(context.Background(), "AAA", 3, 100)
	assert.Error(t, err)

	got := PredictOrEmpty(context.Background(), NewHTTPPredictor(srv.URL, 0), logging.Nop(), "AAA", 3, 100)
	assert.Empty(t, got)
}

type stubPredictor struct {
	out []float64
	err error
}

func (s stubPredictor) Predict(context.Context, string, int, int) ([]float64, error) {
	return s.out, s.err
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Data_AAA.csv", "Date,Close\n2024-01-01,1\n2024-01-02,2\n2024-01-03,3\n2024-01-04,4\n2024-01-05,5\n")

	loader := CSVLoader{Dir: dir}

	series, err := Build(context.Background(), loader, stubPredictor{out: []float64{9, 8, 7, 6}}, []string{"AAA"}, 2, 100)
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, "AAA", series[0].Instrument)
	assert.Equal(t, []float64{1, 3, 5}, series[0].Actual)
	assert.Equal(t, []float64{9, 8, 7, 6}, series[0].Predicted)
	assert.True(t, series[0].Unaligned)

	series, err = Build(context.Background(), loader, stubPredictor{out: []float64{9, 8, 7}}, []string{"AAA"}, 2, 100)
	require.NoError(t, err)
	assert.False(t, series[0].Unaligned)

	series, err = Build(context.Background(), loader, stubPredictor{out: []float64{9}}, []string{"AAA"}, 2, 100)
	require.NoError(t, err)
	assert.Equal(t, []float64{9}, series[0].Predicted)
	assert.True(t, series[0].Unaligned)

	series, err = Build(context.Background(), loader, stubPredictor{err: errors.New("down")}, []string{"AAA"}, 2, 100)
	require.NoError(t, err)
	assert.Empty(t, series[0].Predicted)

	series, err = Build(context.Background(), loader, nil, []string{"AAA"}, 1, 100)
	require.NoError(t, err)
	assert.Len(t, series[0].Actual, 5)

	_, err = Build(context.Background(), loader, nil, []string{"MISSING"}, 2, 100)
	assert.Error(t, err)
}

func TestBuildShortForecastStillTrades(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Data_A.csv", "Date,Close\n2024-01-01,100\n2024-01-02,100\n2024-01-03,100\n2024-01-04,100\n")

	series, err := Build(context.Background(), CSVLoader{Dir: dir}, stubPredictor{out: []float64{100, 150}}, []string{"A"}, 1, 100)
	require.NoError(t, err)

	res, err := sim.Run(context.Background(), series, sim.Options{InitialBalance: 1000, Lookahead: 5, Threshold: 0.02})
	require.NoError(t, err)
	require.Len(t, res.Log, 4)
	assert.Equal(t, journal.Entry{Day: 0, Instrument: "A", Action: journal.Buy, Price: 100, Balance: 0}, res.Log[0])
	assert.Equal(t, journal.Entry{Day: 3, Instrument: "A", Action: journal.FinalSell, Price: 100, Balance: 1000}, res.Log[3])
}
