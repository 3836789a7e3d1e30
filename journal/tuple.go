package journal

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// Tuple returns the entry in consumer order:
// (day, instrument, action, price, balance[, reason]).
// The reason is only present when one was attached.
func (e Entry) Tuple() []any {
	t := []any{e.Day, e.Instrument, string(e.Action), e.Price, e.Balance}
	if e.Reason != "" {
		t = append(t, e.Reason)
	}
	return t
}

// MarshalJSON encodes the entry as a JSON array in tuple order.
func (e Entry) MarshalJSON() ([]byte, error) {
	return sonic.ConfigStd.Marshal(e.Tuple())
}

// UnmarshalJSON decodes the 5 or 6 element array form.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := sonic.ConfigStd.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("entry: %w", err)
	}
	if len(raw) != 5 && len(raw) != 6 {
		return fmt.Errorf("entry: want 5 or 6 fields, got %d", len(raw))
	}

	var out Entry
	var action string
	targets := []any{&out.Day, &out.Instrument, &action, &out.Price, &out.Balance}
	if len(raw) == 6 {
		targets = append(targets, &out.Reason)
	}
	for i, dst := range targets {
		if err := sonic.ConfigStd.Unmarshal(raw[i], dst); err != nil {
			return fmt.Errorf("entry field %d: %w", i, err)
		}
	}
	out.Action = Action(action)
	if !out.Action.Valid() {
		return fmt.Errorf("entry: unknown action %q", action)
	}

	*e = out
	return nil
}
