package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestFactorer(t *testing.T, cfg Config) *Factorer {
	t.Helper()
	f, err := NewFactorer(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return f
}

func TestFactorClassicalShortcuts(t *testing.T) {
	tests := []struct {
		n     uint64
		base  uint64
		lines []string
	}{
		{n: 2, lines: []string{"Early result found: 2 1"}},
		{n: 22, lines: []string{"Early result found: 2 11"}},
		{n: 9, lines: []string{"Early result found: 3 3"}},
		{n: 125, lines: []string{"Early result found: 5 25"}},
		{n: 15, base: 6, lines: []string{"Early result found: 3 5"}},
		{n: 21, base: 14, lines: []string{"Early result found: 7 3"}},
	}

	for _, tt := range tests {
		f := newTestFactorer(t, Config{Base: tt.base, Seed: 1})
		res, err := f.Factor(context.Background(), tt.n)
		require.NoError(t, err, "N=%d", tt.n)
		assert.NotNil(t, res.Shortcut)
		assert.Equal(t, tt.lines, res.Lines(), "N=%d", tt.n)
	}
}

func TestFactorRejectsInput(t *testing.T) {
	f := newTestFactorer(t, Config{Seed: 1})

	_, err := f.Factor(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewFactorer(Config{Shots: -1}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	f = newTestFactorer(t, Config{Seed: 1, Base: 15})
	_, err = f.Factor(context.Background(), 15)
	assert.ErrorIs(t, err, ErrConstantOutOfRange)
}

func TestFactorPrime(t *testing.T) {
	f := newTestFactorer(t, Config{Seed: 1})
	res, err := f.Factor(context.Background(), 13)
	require.NoError(t, err)

	assert.True(t, res.Prime)
	assert.Empty(t, res.Trials)
	assert.Equal(t, []string{"no factors found"}, res.Lines())
}

func TestFactorPoolsRepeatedBase(t *testing.T) {
	// 14 = -1 mod 15 has order 2 and a^(r/2) = -1, so every outcome fails
	// and all three trials run on the same base.
	f := newTestFactorer(t, Config{Base: 14, Shots: 8, Seed: 3, MaxTrials: 3})
	res, err := f.Factor(context.Background(), 15)
	require.NoError(t, err)

	require.Len(t, res.Trials, 3)
	assert.Zero(t, res.Factor)
	assert.Equal(t, []string{"no factors found"}, res.Lines())
	for i, trial := range res.Trials {
		assert.Equal(t, 8*(i+1), trial.Report.Shots, "trial %d", i)
		assert.Zero(t, trial.Report.Successes)
		assert.Same(t, res.Trials[0].Program, trial.Program)
	}
}

func TestFactor15(t *testing.T) {
	f := newTestFactorer(t, Config{Base: 7, Shots: 32, Seed: 5})
	res, err := f.Factor(context.Background(), 15)
	require.NoError(t, err)

	require.Len(t, res.Trials, 1)
	assert.Nil(t, res.Shortcut)
	assert.Contains(t, []uint64{3, 5}, res.Factor)
	assert.Equal(t, uint64(15), res.Factor*res.Cofactor())

	trial := res.Last()
	assert.Equal(t, 11, trial.Program.Stats.Qubits)
	assert.Equal(t, 32, trial.Report.Shots)
	assert.Positive(t, trial.Report.Successes)

	lines := res.Lines()
	require.Len(t, lines, 2)
	assert.Regexp(t, `^Factors of 15 are (3 and 5|5 and 3)$`, lines[0])
	assert.Regexp(t, `^successes = \d+$`, lines[1])

	for _, o := range trial.Report.Outcomes {
		if o.OK() {
			assert.Equal(t, uint64(4), o.Order)
			assert.ElementsMatch(t, []uint64{3, 5}, o.Factors)
		}
	}
}

func TestFactor15RandomBases(t *testing.T) {
	f := newTestFactorer(t, Config{Shots: 16, Seed: 99, MaxTrials: 8})
	res, err := f.Factor(context.Background(), 15)
	require.NoError(t, err)

	assert.Contains(t, []uint64{3, 5}, res.Factor)
	assert.LessOrEqual(t, len(res.Trials), 8)
}

func TestCompileUsesCache(t *testing.T) {
	f := newTestFactorer(t, Config{Seed: 1})

	p1, err := f.Compile(15, 7)
	require.NoError(t, err)
	p2, err := f.Compile(15, 7)
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	p3, err := f.Compile(15, 2)
	require.NoError(t, err)
	assert.NotSame(t, p1, p3)

	_, err = f.Compile(15, 5)
	assert.ErrorIs(t, err, ErrNotInvertible)
}

func TestFactor21(t *testing.T) {
	if testing.Short() {
		t.Skip("13-qubit simulation")
	}

	f := newTestFactorer(t, Config{Base: 2, Shots: 12, Seed: 21})
	res, err := f.Factor(context.Background(), 21)
	require.NoError(t, err)

	trial := res.Last()
	require.NotNil(t, trial)
	assert.Equal(t, 13, trial.Program.Stats.Qubits)
	assert.Equal(t, 10, trial.Program.Rounds())

	for _, o := range trial.Report.Outcomes {
		if !o.OK() {
			continue
		}
		assert.Zero(t, o.Order%6, "order candidate %d from %s", o.Order, o.Bitstring)
		for _, p := range o.Factors {
			assert.Contains(t, []uint64{3, 7}, p)
		}
	}
	assert.Contains(t, []uint64{3, 7}, res.Factor)
}

func TestResultLines(t *testing.T) {
	res := &Result{N: 15}
	assert.Equal(t, []string{"no factors found"}, res.Lines())
	assert.Zero(t, res.Cofactor())
	assert.Nil(t, res.Last())
}
