// Package ledger tracks the one open position each instrument may hold.
package ledger

import (
	"errors"
	"fmt"
)

// ErrInvariant is returned when the ledger is asked to make a
// transition its state does not allow. It always indicates a bug in the
// caller's decision logic.
var ErrInvariant = errors.New("ledger invariant violation")

// Kind is the side of a position.
type Kind int

const (
	None Kind = iota
	Long
	Short
)

func (k Kind) String() string {
	switch k {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "none"
	}
}

// Position is the ledger state for one instrument. The zero value is a
// flat position.
type Position struct {
	Kind       Kind
	Shares     int64
	EntryPrice float64 // meaningless when Kind == None
}

// Flat reports whether p holds nothing.
func (p Position) Flat() bool { return p.Kind == None }

// Valid reports whether p satisfies shares > 0 <=> kind != none.
func (p Position) Valid() bool {
	return (p.Shares > 0) == (p.Kind != None)
}

// Ledger maps instrument ids to open positions. It is owned by a single
// simulation run and is not safe for concurrent use.
type Ledger struct {
	positions map[string]Position
	order     []string
}

func New() *Ledger {
	return &Ledger{positions: make(map[string]Position)}
}

// Get returns the open position for instrument, if any.
func (l *Ledger) Get(instrument string) (Position, bool) {
	p, ok := l.positions[instrument]
	return p, ok
}

// Open records a new position. It fails if one is already open or the
// position itself would break the shares/kind invariant.
func (l *Ledger) Open(instrument string, kind Kind, shares int64, entryPrice float64) error {
	if _, ok := l.positions[instrument]; ok {
		return fmt.Errorf("%w: open %s: position already open", ErrInvariant, instrument)
	}
	if kind == None {
		return fmt.Errorf("%w: open %s: kind none", ErrInvariant, instrument)
	}
	if shares <= 0 {
		return fmt.Errorf("%w: open %s: shares %d", ErrInvariant, instrument, shares)
	}

	l.positions[instrument] = Position{Kind: kind, Shares: shares, EntryPrice: entryPrice}
	l.order = append(l.order, instrument)
	return nil
}

// Close removes and returns the open position for instrument.
func (l *Ledger) Close(instrument string) (Position, error) {
	p, ok := l.positions[instrument]
	if !ok {
		return Position{}, fmt.Errorf("%w: close %s: no open position", ErrInvariant, instrument)
	}
	delete(l.positions, instrument)
	for i, name := range l.order {
		if name == instrument {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return p, nil
}

// OpenInstruments returns the instruments with open positions, in the order they
// were opened.
func (l *Ledger) OpenInstruments() []string {
	return append([]string(nil), l.order...)
}

// Len is the number of open positions.
func (l *Ledger) Len() int { return len(l.positions) }
