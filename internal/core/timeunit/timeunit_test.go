package timeunit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTable_Ordering(t *testing.T) {
	table := NewTable()
	require.Len(t, table, 5)
	for i, unit := range table {
		assert.Equal(t, i, unit.Index)
		if i > 0 {
			assert.Equal(t, table[i-1].Scale*time.Duration(table[i-1].RolloverMax), unit.Scale, unit.Label)
		}
	}
}

func TestInitialUnitCount(t *testing.T) {
	table := NewTable()
	cases := []struct {
		total time.Duration
		want  int
	}{
		{0, 1},
		{500 * time.Millisecond, 1},
		{time.Second, 1},
		{time.Second + time.Millisecond, 2},
		{15 * time.Second, 2},
		{time.Minute, 2},
		{125678 * time.Millisecond, 3},
		{2 * time.Hour, 4},
		{49 * time.Hour, 5},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, table.InitialUnitCount(tc.total), tc.total.String())
	}
}

func TestPrune(t *testing.T) {
	table := NewTable()
	pruned := table.Prune(3)
	require.Len(t, pruned, 3)
	assert.Equal(t, "minute", pruned[2].Label)

	pruned[0].Value = 42
	assert.Zero(t, table[0].Value)

	assert.Len(t, table.Prune(0), 1)
	assert.Len(t, table.Prune(9), 5)
}

func TestDecompose_ExactFloor(t *testing.T) {
	table := NewTable().Prune(3)
	remaining := 125678 * time.Millisecond

	table.Decompose(remaining, false)

	assert.Equal(t, int64(678), table[0].Value)
	assert.Equal(t, int64(5), table[1].Value)
	assert.Equal(t, int64(2), table[2].Value)
	assert.Equal(t, remaining, table.Sum())

	assert.InDelta(t, 125678.0, table[0].FractionalValue, 1e-9)
	assert.InDelta(t, 125.678, table[1].FractionalValue, 1e-9)
	assert.InDelta(t, 125678.0/60000.0, table[2].FractionalValue, 1e-9)

	assert.InDelta(t, 0.678, table[0].NormalizedFraction, 1e-9)
	assert.InDelta(t, 5.0/60.0, table[1].NormalizedFraction, 1e-9)
	assert.InDelta(t, 2.0/60.0, table[2].NormalizedFraction, 1e-9)
}

func TestDecompose_CoarsestAbsorbsOverflow(t *testing.T) {
	table := NewTable().Prune(2)
	table.Decompose(125678*time.Millisecond, false)
	assert.Equal(t, int64(125), table[1].Value)
	assert.Equal(t, int64(678), table[0].Value)
}

func TestDecompose_Idempotent(t *testing.T) {
	table := NewTable()
	table.Decompose(90061001*time.Millisecond, false)
	first := table.Snapshot()
	table.Decompose(90061001*time.Millisecond, false)
	assert.Equal(t, first, table)
	assert.Equal(t, int64(1), table[4].Value)
	assert.Equal(t, int64(1), table[3].Value)
	assert.Equal(t, int64(1), table[2].Value)
	assert.Equal(t, int64(1), table[1].Value)
	assert.Equal(t, int64(1), table[0].Value)
}

func TestDecompose_TerminalZeroes(t *testing.T) {
	table := NewTable().Prune(2)
	for range 2 {
		table.Decompose(15*time.Second, true)
		for _, unit := range table {
			assert.Zero(t, unit.Value)
			assert.Zero(t, unit.FractionalValue)
			assert.Zero(t, unit.NormalizedFraction)
		}
	}
}

func TestDecompose_NegativeClamped(t *testing.T) {
	table := NewTable().Prune(2)
	table.Decompose(-time.Second, false)
	for _, unit := range table {
		assert.Zero(t, unit.Value)
		assert.Zero(t, unit.FractionalValue)
	}
}

func TestCoarsest(t *testing.T) {
	unit, ok := NewTable().Prune(2).Coarsest()
	require.True(t, ok)
	assert.Equal(t, "second", unit.Label)

	_, ok = Table{}.Coarsest()
	assert.False(t, ok)
}
