package sector

import (
	"fmt"
	"strings"
)

// Slot is one entry of the device's sector table. The device only stores the function and stop
// angle; a slot begins one step after the previous slot's stop, and the first slot at 0.
type Slot struct {
	Function Function
	Start    float64
	Stop     float64
}

// StopTicks is the stop angle in odometer ticks.
func (s Slot) StopTicks() int {
	return AngleToTicks(s.Stop)
}

// Table is a sector table holding at most MaxNumSectors slots.
type Table struct {
	slots []Slot
}

// NewTable returns a table holding slots.
func NewTable(slots ...Slot) (*Table, error) {
	t := &Table{slots: make([]Slot, 0, MaxNumSectors)}
	for _, s := range slots {
		if err := t.Append(s); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Append adds a slot, failing with TooManySectors once the table is full.
func (t *Table) Append(s Slot) error {
	if len(t.slots) >= MaxNumSectors {
		return newConfigError(TooManySectors, "sector table holds at most %d slots", MaxNumSectors)
	}
	t.slots = append(t.slots, s)
	return nil
}

// Len is the number of laid out slots.
func (t *Table) Len() int {
	return len(t.slots)
}

// Slots returns a copy of the laid out slots.
func (t *Table) Slots() []Slot {
	out := make([]Slot, len(t.slots))
	copy(out, t.slots)
	return out
}

// Padded returns all MaxNumSectors slots as written to the device: the laid out slots followed
// by unused slots with a zero stop angle.
func (t *Table) Padded() []Slot {
	out := make([]Slot, MaxNumSectors)
	copy(out, t.slots)
	for i := len(t.slots); i < MaxNumSectors; i++ {
		out[i] = Slot{Function: FunctionUnused}
	}
	return out
}

// Measuring returns the measuring slots as active sectors.
func (t *Table) Measuring() []ActiveSector {
	var out []ActiveSector
	for _, s := range t.slots {
		if s.Function == FunctionMeasuring {
			out = append(out, ActiveSector{Start: s.Start, Stop: s.Stop})
		}
	}
	return out
}

func (t *Table) String() string {
	var sb strings.Builder
	for i, s := range t.slots {
		fmt.Fprintf(&sb, "%d: %-15s [%7.3f, %7.3f]\n", i, s.Function, s.Start, s.Stop)
	}
	return sb.String()
}

// GenerateTable lays out the device sector table for the given active sectors. Each active
// sector becomes a measuring slot. The arcs before the first, between consecutive and after the
// last active sector become not initialized slots, so that the slots' stop angles cover the whole
// revolution in ascending order.
func GenerateTable(sectors []ActiveSector, step float64) (*Table, error) {
	if err := ValidateActiveSectors(sectors, step); err != nil {
		return nil, err
	}
	if err := ValidateStep(step); err != nil {
		return nil, err
	}

	t, err := NewTable()
	if err != nil {
		return nil, err
	}
	const eps = 1e-9
	// next is the angle the next slot starts at
	next := 0.0
	for _, s := range SortActiveSectors(sectors) {
		if s.Start-next > eps {
			if err := t.Append(Slot{Function: FunctionNotInitialized, Start: next, Stop: s.Start - step}); err != nil {
				return nil, err
			}
		}
		if err := t.Append(Slot{Function: FunctionMeasuring, Start: s.Start, Stop: s.Stop}); err != nil {
			return nil, err
		}
		next = s.Stop + step
	}
	if last := MaxScanArea - step; last-next > -eps {
		if err := t.Append(Slot{Function: FunctionNotInitialized, Start: next, Stop: last}); err != nil {
			return nil, err
		}
	}
	return t, nil
}
