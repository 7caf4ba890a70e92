package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withRegister returns index with the bits of v written onto reg.
func withRegister(index int, reg Register, v uint64) int {
	for i, q := range reg {
		if v>>uint(i)&1 == 1 {
			index |= 1 << q
		}
	}
	return index
}

// readRegister returns the value reg holds in the basis state index.
func readRegister(index int, reg Register) uint64 {
	var v uint64
	for i, q := range reg {
		if index&(1<<q) != 0 {
			v |= 1 << uint(i)
		}
	}
	return v
}

// runBasis executes a measurement-free program on |input> and returns the
// basis state it ends in.
func runBasis(t *testing.T, c *Circuit, input int) int {
	t.Helper()
	s := NewBasisState(c.NumQubits, input)
	require.NoError(t, s.Execute(c))
	out, ok := s.BasisState()
	require.True(t, ok, "output is not a basis state")
	return out
}

func TestFourierRoundTrip(t *testing.T) {
	for size := 1; size <= 5; size++ {
		c := NewCircuit()
		reg := c.AddQuantumRegister("q", size)
		FourierTransform(c, reg)
		InverseFourierTransform(c, reg)

		for b := uint64(0); b < 1<<size; b++ {
			out := runBasis(t, c, withRegister(0, reg, b))
			assert.Equal(t, b, readRegister(out, reg), "size %d", size)
		}
	}
}

func TestFourierSingleQubitIsHadamard(t *testing.T) {
	c := NewCircuit()
	reg := c.AddQuantumRegister("q", 1)
	FourierTransform(c, reg)

	require.Len(t, c.Gates, 1)
	assert.Equal(t, "H", c.Gates[0].Type)
}

func TestFourierUniformMagnitudes(t *testing.T) {
	c := NewCircuit()
	reg := c.AddQuantumRegister("q", 3)
	FourierTransform(c, reg)

	s := NewBasisState(3, 5)
	require.NoError(t, s.Execute(c))
	for q := range 3 {
		assert.InDelta(t, 0.5, s.probabilityOne(q), 1e-12)
	}
}

func TestPhaseAdd(t *testing.T) {
	const size = 4
	for _, constant := range []uint64{0, 1, 5, 9, 15} {
		c := NewCircuit()
		reg := c.AddQuantumRegister("q", size)
		FourierTransform(c, reg)
		require.NoError(t, PhaseAdd(c, reg, constant))
		InverseFourierTransform(c, reg)

		for b := uint64(0); b < 1<<size; b++ {
			out := runBasis(t, c, withRegister(0, reg, b))
			assert.Equal(t, (b+constant)%(1<<size), readRegister(out, reg), "%d + %d", b, constant)
		}
	}
}

func TestPhaseSubtractUndoesAdd(t *testing.T) {
	const size = 4
	for _, constant := range []uint64{0, 3, 8, 15} {
		c := NewCircuit()
		reg := c.AddQuantumRegister("q", size)
		FourierTransform(c, reg)
		require.NoError(t, PhaseAdd(c, reg, constant))
		require.NoError(t, PhaseSubtract(c, reg, constant))
		InverseFourierTransform(c, reg)

		for b := uint64(0); b < 1<<size; b++ {
			out := runBasis(t, c, withRegister(0, reg, b))
			assert.Equal(t, b, readRegister(out, reg))
		}
	}
}

func TestPhaseSubtract(t *testing.T) {
	const size = 3
	c := NewCircuit()
	reg := c.AddQuantumRegister("q", size)
	FourierTransform(c, reg)
	require.NoError(t, PhaseSubtract(c, reg, 3))
	InverseFourierTransform(c, reg)

	for b := uint64(0); b < 1<<size; b++ {
		out := runBasis(t, c, withRegister(0, reg, b))
		assert.Equal(t, (b+8-3)%8, readRegister(out, reg))
	}
}

func TestPhaseAddControls(t *testing.T) {
	c := NewCircuit()
	ctrl := c.AddQuantumRegister("c", 2)
	reg := c.AddQuantumRegister("q", 3)
	FourierTransform(c, reg)
	require.NoError(t, PhaseAdd(c, reg, 3, ctrl[0], ctrl[1]))
	InverseFourierTransform(c, reg)

	for controls := uint64(0); controls < 4; controls++ {
		for b := uint64(0); b < 8; b++ {
			in := withRegister(withRegister(0, ctrl, controls), reg, b)
			out := runBasis(t, c, in)

			want := b
			if controls == 3 {
				want = (b + 3) % 8
			}
			assert.Equal(t, want, readRegister(out, reg))
			assert.Equal(t, controls, readRegister(out, ctrl))
		}
	}
}

func TestPhaseAddRejectsWideConstant(t *testing.T) {
	c := NewCircuit()
	reg := c.AddQuantumRegister("q", 3)

	assert.ErrorIs(t, PhaseAdd(c, reg, 8), ErrConstantOutOfRange)
	assert.ErrorIs(t, PhaseSubtract(c, reg, 9), ErrConstantOutOfRange)
	assert.Empty(t, c.Gates)
}
