package main

import (
	"math"

	"github.com/pkg/errors"
)

// ErrConstantOutOfRange is returned when a classical constant does not fit
// the register it is added to.
var ErrConstantOutOfRange = errors.New("constant out of range")

// rotation returns the phase angle pi/2^k.
func rotation(k int) float64 {
	return math.Ldexp(math.Pi, -k)
}

// FourierTransform emits the QFT over reg in place. Afterwards qubit i holds
// (|0> + e^{2 pi i b/2^(i+1)}|1>)/sqrt2 for the basis value b; there is no
// swap network, every phase adder below relies on this layout.
func FourierTransform(c *Circuit, reg Register) {
	for i := reg.Size() - 1; i >= 0; i-- {
		c.AddGate("H", reg[i])
		for j := 0; j < i; j++ {
			c.AddParameterizedGate("P", reg[i], []float64{rotation(i - j)}, reg[j])
		}
	}
}

// InverseFourierTransform emits the exact inverse of FourierTransform.
func InverseFourierTransform(c *Circuit, reg Register) {
	for i := 0; i < reg.Size(); i++ {
		for j := i - 1; j >= 0; j-- {
			c.AddParameterizedGate("P", reg[i], []float64{-rotation(i - j)}, reg[j])
		}
		c.AddGate("H", reg[i])
	}
}

// PhaseAdd adds the classical constant to reg, which must already be in the
// Fourier basis. Every emitted rotation carries the given controls.
func PhaseAdd(c *Circuit, reg Register, constant uint64, controls ...int) error {
	if !fits(constant, reg.Size()) {
		return errors.Wrapf(ErrConstantOutOfRange, "phase add %d on %d qubits", constant, reg.Size())
	}
	phaseAdd(c, reg, constant, controls...)
	return nil
}

// PhaseSubtract subtracts the constant by adding its two's complement
// modulo 2^size.
func PhaseSubtract(c *Circuit, reg Register, constant uint64, controls ...int) error {
	if !fits(constant, reg.Size()) {
		return errors.Wrapf(ErrConstantOutOfRange, "phase subtract %d on %d qubits", constant, reg.Size())
	}
	phaseSubtract(c, reg, constant, controls...)
	return nil
}

func phaseAdd(c *Circuit, reg Register, constant uint64, controls ...int) {
	for i := reg.Size() - 1; i >= 0; i-- {
		for j := 0; j <= i && j < 64; j++ {
			if constant&(1<<uint(j)) != 0 {
				c.AddParameterizedGate("P", reg[i], []float64{rotation(i - j)}, controls...)
			}
		}
	}
}

func phaseSubtract(c *Circuit, reg Register, constant uint64, controls ...int) {
	negated := -constant
	if reg.Size() < 64 {
		negated &= (1 << uint(reg.Size())) - 1
	}
	phaseAdd(c, reg, negated, controls...)
}

// fits reports whether 0 <= v < 2^size.
func fits(v uint64, size int) bool {
	return size >= 64 || v>>uint(size) == 0
}
