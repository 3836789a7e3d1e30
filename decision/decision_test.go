package decision

import (
	"testing"

	"github.com/rustyeddy/forecast-trader/journal"
	"github.com/rustyeddy/forecast-trader/ledger"
	"github.com/stretchr/testify/assert"
)

func TestAvgFuture(t *testing.T) {
	assert.Equal(t, 100.0, AvgFuture(100, nil))
	assert.Equal(t, 100.0, AvgFuture(100, []float64{}))
	assert.Equal(t, 120.0, AvgFuture(100, []float64{110, 130}))
}

func TestAffordable(t *testing.T) {
	assert.Equal(t, int64(10), Affordable(1000, 100))
	assert.Equal(t, int64(9), Affordable(999.99, 100))
	assert.Equal(t, int64(0), Affordable(99, 100))
	assert.Equal(t, int64(0), Affordable(0, 100))
	assert.Equal(t, int64(0), Affordable(-50, 100))

	// 1000/0.1 rounds to exactly 10000.0 but 10000 shares cost more
	// than 1000 in exact arithmetic
	assert.Equal(t, int64(9999), Affordable(1000, 0.1))
	assert.Equal(t, int64(9), Affordable(1, 0.1))
	assert.Equal(t, int64(4), Affordable(1, 0.25))
}

func TestFloorDiv(t *testing.T) {
	tests := []struct {
		a, b, want float64
	}{
		{7, 2, 3},
		{6, 2, 3},
		{1000, 0.1, 9999},
		{0.3, 0.1, 2},
		{-7, 2, -4},
		{7, -2, -4},
		{0.5, 2, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FloorDiv(tt.a, tt.b), "%v // %v", tt.a, tt.b)
	}
}

func TestDecideFlat(t *testing.T) {
	long := ledger.Position{Kind: ledger.Long, Shares: 4, EntryPrice: 90}
	short := ledger.Position{Kind: ledger.Short, Shares: 4, EntryPrice: 110}

	tests := []struct {
		name       string
		in         Input
		wantAction journal.Action
		wantShares int64
	}{
		{"buy above threshold", Input{Price: 100, Window: []float64{103}, Balance: 1000, Threshold: 0.02}, journal.Buy, 10},
		{"short below threshold", Input{Price: 100, Window: []float64{97}, Balance: 1000, Threshold: 0.02}, journal.Short, 10},
		{"inside band", Input{Price: 100, Window: []float64{101}, Balance: 1000, Threshold: 0.02}, "", 0},
		{"upper boundary is not a signal", Input{Price: 100, Window: []float64{102}, Balance: 1000, Threshold: 0.02}, "", 0},
		{"lower boundary is not a signal", Input{Price: 100, Window: []float64{98}, Balance: 1000, Threshold: 0.02}, "", 0},
		{"empty window is neutral", Input{Price: 100, Balance: 1000, Threshold: 0.02}, "", 0},
		{"buy unaffordable", Input{Price: 100, Window: []float64{150}, Balance: 50, Threshold: 0.02}, "", 0},
		{"short unaffordable", Input{Price: 100, Window: []float64{50}, Balance: 50, Threshold: 0.02}, "", 0},
		{"zero threshold still strict", Input{Price: 100, Window: []float64{100}, Balance: 1000}, "", 0},

		{"long sells on lower forecast", Input{Price: 100, Window: []float64{99.9}, Position: long}, journal.Sell, 4},
		{"long holds on equal forecast", Input{Price: 100, Window: []float64{100}, Position: long}, journal.Hold, 4},
		{"long holds on empty window", Input{Price: 100, Position: long}, journal.Hold, 4},
		{"short covers on higher forecast", Input{Price: 100, Window: []float64{100.1}, Position: short}, journal.Cover, 4},
		{"short holds on equal forecast", Input{Price: 100, Window: []float64{100}, Position: short}, journal.Hold, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.in)
			assert.Equal(t, tt.wantAction, d.Action)
			assert.Equal(t, tt.wantShares, d.Shares)
			assert.Equal(t, tt.wantAction != "", d.Logged())
		})
	}
}

func TestDecideReportsAverage(t *testing.T) {
	d := Decide(Input{Price: 100, Window: []float64{130, 110}, Balance: 1000, Threshold: 0.02})
	assert.Equal(t, 120.0, d.AvgFuture)
	assert.True(t, d.Opens())
	assert.False(t, d.Closes())
}

func TestCash(t *testing.T) {
	long := ledger.Position{Kind: ledger.Long, Shares: 10, EntryPrice: 100}
	short := ledger.Position{Kind: ledger.Short, Shares: 10, EntryPrice: 100}

	assert.Equal(t, -1000.0, Cash(journal.Buy, ledger.Position{}, 10, 100))
	assert.Equal(t, 1000.0, Cash(journal.Short, ledger.Position{}, 10, 100))
	assert.Equal(t, 1200.0, Cash(journal.Sell, long, 0, 120))
	assert.Equal(t, 1200.0, Cash(journal.FinalSell, long, 0, 120))
	assert.Equal(t, -200.0, Cash(journal.Cover, short, 0, 120))
	assert.Equal(t, 200.0, Cash(journal.FinalCover, short, 0, 80))
	assert.Equal(t, 0.0, Cash(journal.Hold, long, 10, 120))
}

func TestFinal(t *testing.T) {
	assert.Equal(t, journal.FinalSell, Final(ledger.Position{Kind: ledger.Long, Shares: 1}))
	assert.Equal(t, journal.FinalCover, Final(ledger.Position{Kind: ledger.Short, Shares: 1}))
	assert.Equal(t, journal.Action(""), Final(ledger.Position{}))
}
