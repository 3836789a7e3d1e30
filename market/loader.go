// Package market loads historical prices and forecasts and assembles
// them into simulator input.
package market

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmpty     = errors.New("no price rows")
	ErrUnordered = errors.New("timestamps not strictly increasing")
)

// Bar is one historical observation.
type Bar struct {
	Time  time.Time
	Close float64
}

// Loader returns the ordered price history of an instrument.
type Loader interface {
	Load(ctx context.Context, instrument string) ([]Bar, error)
}

// CSVLoader reads Data_<instrument>.csv files from Dir. Files need a
// Date column and a Close column; other columns (OHLCV, indicators) are
// ignored.
type CSVLoader struct {
	Dir string
}

func (l CSVLoader) Path(instrument string) string {
	return filepath.Join(l.Dir, "Data_"+instrument+".csv")
}

func (l CSVLoader) Load(ctx context.Context, instrument string) ([]Bar, error) {
	f, err := os.Open(l.Path(instrument))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bars, err := ReadBars(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", instrument, err)
	}
	return bars, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

func column(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// ReadBars parses a header-first CSV with Date (or Datetime) and Close
// columns. Rows must be strictly increasing in time.
func ReadBars(r io.Reader) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, err
	}

	dateCol := column(header, "Date")
	if dateCol < 0 {
		dateCol = column(header, "Datetime")
	}
	closeCol := column(header, "Close")
	if dateCol < 0 || closeCol < 0 {
		return nil, fmt.Errorf("header %v: need Date and Close columns", header)
	}

	var bars []Bar
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) <= dateCol || len(row) <= closeCol {
			return nil, fmt.Errorf("line %d: short row", line)
		}

		ts, err := parseTime(strings.TrimSpace(row[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		px, err := strconv.ParseFloat(strings.TrimSpace(row[closeCol]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad close %q: %w", line, row[closeCol], err)
		}
		if n := len(bars); n > 0 && !ts.After(bars[n-1].Time) {
			return nil, fmt.Errorf("line %d: %w", line, ErrUnordered)
		}
		bars = append(bars, Bar{Time: ts, Close: px})
	}

	if len(bars) == 0 {
		return nil, ErrEmpty
	}
	return bars, nil
}

// Closes extracts the close prices of bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Downsample keeps every step-th value starting with the first.
func Downsample(vs []float64, step int) []float64 {
	if step <= 1 {
		return append([]float64(nil), vs...)
	}
	out := make([]float64, 0, (len(vs)+step-1)/step)
	for i := 0; i < len(vs); i += step {
		out = append(out, vs[i])
	}
	return out
}
