// Package timeunit splits a remaining duration into per-unit gauge values.
package timeunit

import "time"

// Unit is one ring of the gauge.
type Unit struct {
	Index       int
	Label       string
	Scale       time.Duration
	RolloverMax int64

	// Value is the whole number of units left after coarser units are taken out.
	Value int64
	// FractionalValue is the full remaining duration expressed in this unit.
	FractionalValue float64
	// NormalizedFraction is Value/RolloverMax, the sweep of the ring.
	NormalizedFraction float64
}

// Table is an ordered set of units, finest first.
type Table []Unit

// NewTable returns the full millisecond..day table with zeroed values.
func NewTable() Table {
	return Table{
		{Index: 0, Label: "millisecond", Scale: time.Millisecond, RolloverMax: 1000},
		{Index: 1, Label: "second", Scale: time.Second, RolloverMax: 60},
		{Index: 2, Label: "minute", Scale: time.Minute, RolloverMax: 60},
		{Index: 3, Label: "hour", Scale: time.Hour, RolloverMax: 24},
		{Index: 4, Label: "day", Scale: 24 * time.Hour, RolloverMax: 365},
	}
}

// InitialUnitCount returns how many units, counted from the finest, are needed
// to show total without a leading unit that would always read zero.
// The engine passes CountdownFor rather than warm-up plus countdown, since
// the warm-up display is clamped to the countdown value.
func (table Table) InitialUnitCount(total time.Duration) int {
	for i := len(table) - 1; i > 0; i-- {
		if total > table[i].Scale {
			return i + 1
		}
	}
	return 1
}

// Prune returns a copy holding only the first count units.
func (table Table) Prune(count int) Table {
	if count < 1 {
		count = 1
	}
	if count > len(table) {
		count = len(table)
	}
	pruned := make(Table, count)
	copy(pruned, table[:count])
	return pruned
}

// Decompose fills every unit from remaining, coarsest first.
// A terminal table (finished or stopped run) is forced to zero.
func (table Table) Decompose(remaining time.Duration, terminal bool) {
	if remaining < 0 {
		remaining = 0
	}
	original := remaining
	for i := len(table) - 1; i >= 0; i-- {
		unit := &table[i]
		if terminal {
			unit.Value = 0
			unit.FractionalValue = 0
			unit.NormalizedFraction = 0
			continue
		}
		value := int64(remaining / unit.Scale)
		remaining -= time.Duration(value) * unit.Scale
		unit.Value = value
		unit.FractionalValue = float64(original) / float64(unit.Scale)
		unit.NormalizedFraction = 0
		if unit.RolloverMax > 0 {
			unit.NormalizedFraction = float64(value) / float64(unit.RolloverMax)
		}
	}
}

// Snapshot returns a copy observers may keep.
func (table Table) Snapshot() Table {
	snapshot := make(Table, len(table))
	copy(snapshot, table)
	return snapshot
}

// Sum recombines the integer values into a duration.
func (table Table) Sum() time.Duration {
	var total time.Duration
	for _, unit := range table {
		total += time.Duration(unit.Value) * unit.Scale
	}
	return total
}

// Coarsest returns the highest retained unit.
func (table Table) Coarsest() (Unit, bool) {
	if len(table) == 0 {
		return Unit{}, false
	}
	return table[len(table)-1], true
}
