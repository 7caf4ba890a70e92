package main

import (
	"math/bits"

	"github.com/pkg/errors"
)

var (
	// ErrRegisterTooNarrow is returned when a register cannot hold the
	// modulus with the extra overflow bit the modular adder relies on.
	ErrRegisterTooNarrow = errors.New("register too narrow")
	// ErrNotInvertible is returned when the multiplier constant shares a
	// factor with the modulus.
	ErrNotInvertible = errors.New("constant not invertible modulo N")
)

// AncillaPair holds the two work qubits of the modular adder. Overflow is
// the top bit of the Fourier register, Flag records whether N was
// subtracted one time too many. Both are |0> between calls.
type AncillaPair struct {
	Overflow int
	Flag     int
}

// checkModular validates the build-time contract shared by every modular
// circuit: 1 <= N < 2^acc.Size() and 0 <= a < N.
func checkModular(acc Register, a, modulus uint64) error {
	if modulus == 0 || bits.Len64(modulus) > acc.Size() {
		return errors.Wrapf(ErrRegisterTooNarrow, "N = %d on %d qubits", modulus, acc.Size())
	}
	if a >= modulus {
		return errors.Wrapf(ErrConstantOutOfRange, "a = %d, N = %d", a, modulus)
	}
	return nil
}

// ModularAdd emits acc <- (acc + a) mod N conditioned on c0 AND c1. acc
// stays in the Fourier basis over acc ++ an.Overflow and must hold a value
// below N on entry.
func ModularAdd(c *Circuit, c0, c1 int, acc Register, an AncillaPair, a, modulus uint64) error {
	if err := checkModular(acc, a, modulus); err != nil {
		return errors.Wrap(err, "modular add")
	}
	f := acc.Append(an.Overflow)

	phaseAdd(c, f, a, c0, c1)
	phaseSubtract(c, f, modulus)
	InverseFourierTransform(c, f)
	c.AddGate("X", an.Flag, f.Msb())
	FourierTransform(c, f)
	phaseAdd(c, f, modulus, an.Flag)

	// Clear the flag: it was set exactly when acc + a < N, which is when
	// acc + a - a stays non-negative.
	phaseSubtract(c, f, a, c0, c1)
	InverseFourierTransform(c, f)
	c.AddGate("X", f.Msb())
	c.AddGate("X", an.Flag, f.Msb())
	c.AddGate("X", f.Msb())
	FourierTransform(c, f)
	phaseAdd(c, f, a, c0, c1)

	return nil
}

// ModularAddInverse emits the inverse of ModularAdd: acc <- (acc - a) mod N
// conditioned on c0 AND c1.
func ModularAddInverse(c *Circuit, c0, c1 int, acc Register, an AncillaPair, a, modulus uint64) error {
	if err := checkModular(acc, a, modulus); err != nil {
		return errors.Wrap(err, "inverse modular add")
	}
	f := acc.Append(an.Overflow)

	phaseSubtract(c, f, a, c0, c1)
	InverseFourierTransform(c, f)
	c.AddGate("X", f.Msb())
	c.AddGate("X", an.Flag, f.Msb())
	c.AddGate("X", f.Msb())
	FourierTransform(c, f)
	phaseAdd(c, f, a, c0, c1)

	phaseSubtract(c, f, modulus, an.Flag)
	InverseFourierTransform(c, f)
	c.AddGate("X", an.Flag, f.Msb())
	FourierTransform(c, f)
	phaseAdd(c, f, modulus)
	phaseSubtract(c, f, a, c0, c1)

	return nil
}

// ControlledMultiply emits acc <- (acc + a*x) mod N conditioned on control.
// x is little-endian and only used as a control source.
func ControlledMultiply(c *Circuit, control int, x, acc Register, an AncillaPair, a, modulus uint64) error {
	if err := checkModular(acc, a%max(modulus, 1), modulus); err != nil {
		return errors.Wrap(err, "controlled multiply")
	}
	f := acc.Append(an.Overflow)

	FourierTransform(c, f)
	term := a % modulus
	for i := 0; i < x.Size(); i++ {
		if err := ModularAdd(c, control, x[i], acc, an, term, modulus); err != nil {
			return errors.Wrapf(err, "controlled multiply bit %d", i)
		}
		term = mulMod(term, 2, modulus)
	}
	InverseFourierTransform(c, f)

	return nil
}

// ControlledMultiplyInverse emits acc <- (acc - a*x) mod N conditioned on
// control.
func ControlledMultiplyInverse(c *Circuit, control int, x, acc Register, an AncillaPair, a, modulus uint64) error {
	if err := checkModular(acc, a%max(modulus, 1), modulus); err != nil {
		return errors.Wrap(err, "inverse controlled multiply")
	}
	f := acc.Append(an.Overflow)

	terms := make([]uint64, x.Size())
	term := a % modulus
	for i := range terms {
		terms[i] = term
		term = mulMod(term, 2, modulus)
	}

	FourierTransform(c, f)
	for i := x.Size() - 1; i >= 0; i-- {
		if err := ModularAddInverse(c, control, x[i], acc, an, terms[i], modulus); err != nil {
			return errors.Wrapf(err, "inverse controlled multiply bit %d", i)
		}
	}
	InverseFourierTransform(c, f)

	return nil
}

// ControlledModularMultiply emits source <- (a*source) mod N in place,
// conditioned on control: multiply into scratch, swap, then un-multiply by
// a^-1 to return scratch to |0>.
func ControlledModularMultiply(c *Circuit, control int, source, scratch Register, an AncillaPair, a, modulus uint64) error {
	if source.Size() != scratch.Size() {
		return errors.Wrapf(ErrRegisterTooNarrow, "source has %d qubits, scratch %d", source.Size(), scratch.Size())
	}
	if modulus == 0 {
		return errors.Wrap(ErrRegisterTooNarrow, "N = 0")
	}
	inverse, ok := modInverse(a%modulus, modulus)
	if !ok {
		return errors.Wrapf(ErrNotInvertible, "a = %d, N = %d", a, modulus)
	}

	if err := ControlledMultiply(c, control, source, scratch, an, a, modulus); err != nil {
		return errors.Wrap(err, "multiply into scratch")
	}
	for k := range source {
		c.AddSwap(source[k], scratch[k], control)
	}
	if err := ControlledMultiplyInverse(c, control, source, scratch, an, inverse, modulus); err != nil {
		return errors.Wrap(err, "unmultiply scratch")
	}

	return nil
}
