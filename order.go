package main

import (
	"fmt"
	"math/bits"

	"github.com/pkg/errors"
)

const orderFindingComment = "order finding N=%d a=%d"

// ParseOrderFindingComment recovers (N, a) from the comment of an exported
// order-finding program.
func ParseOrderFindingComment(comment string) (n, a uint64, ok bool) {
	if _, err := fmt.Sscanf(comment, orderFindingComment, &n, &a); err != nil {
		return 0, 0, false
	}
	return n, a, n >= 3 && a >= 2 && a < n
}

// OrderFinding is the built semiclassical order-finding program for one
// (N, a) pair together with its register layout.
type OrderFinding struct {
	N       uint64
	A       uint64
	Width   int      // n, the bit length of N
	Powers  []uint64 // constant used in round i: a^(2^(2n-1-i)) mod N
	Target  int
	Source  Register
	Scratch Register
	Ancilla AncillaPair
	Circuit *Circuit
}

// Rounds returns the number of measured phase bits, 2n.
func (o *OrderFinding) Rounds() int { return 2 * o.Width }

// NumQubits returns 2n+3.
func (o *OrderFinding) NumQubits() int { return o.Circuit.NumQubits }

// BuildOrderFinding constructs the 2n+3 qubit circuit estimating the order
// of a modulo N one phase bit per round. Round i measures bit i of the
// phase integer, least significant first, so the control power descends
// from 2^(2n-1) to 1 and earlier bits feed forward as phase corrections.
func BuildOrderFinding(n, a uint64) (*OrderFinding, error) {
	if n < 3 {
		return nil, errors.Wrapf(ErrInvalidInput, "N = %d", n)
	}
	if a < 2 || a >= n {
		return nil, errors.Wrapf(ErrConstantOutOfRange, "base a = %d outside [2, %d]", a, n-1)
	}
	if gcd(a, n) != 1 {
		return nil, errors.Wrapf(ErrNotInvertible, "a = %d, N = %d", a, n)
	}

	width := bits.Len64(n)
	rounds := 2 * width
	squares := repeatedSquares(a, n, rounds)

	o := &OrderFinding{
		N:       n,
		A:       a,
		Width:   width,
		Powers:  make([]uint64, rounds),
		Circuit: NewCircuit(),
	}
	c := o.Circuit
	c.Comment = fmt.Sprintf(orderFindingComment, n, a)

	o.Target = c.AddQuantumRegister("m", 1)[0]
	o.Source = c.AddQuantumRegister("l1", width)
	o.Scratch = c.AddQuantumRegister("l2", width)
	an := c.AddQuantumRegister("an", 2)
	o.Ancilla = AncillaPair{Overflow: an[0], Flag: an[1]}

	cbits := make([]int, rounds)
	for i := range cbits {
		cbits[i] = c.AddClassicalRegister(fmt.Sprintf("c%d", i), 1)
	}

	c.AddGate("X", o.Source[0])

	for i := 0; i < rounds; i++ {
		o.Powers[i] = squares[rounds-1-i]

		c.AddGate("H", o.Target)
		if err := ControlledModularMultiply(c, o.Target, o.Source, o.Scratch, o.Ancilla, o.Powers[i], n); err != nil {
			return nil, errors.Wrapf(err, "round %d", i)
		}
		for j := i - 1; j >= 0; j-- {
			c.AddClassicalControlGate("P", o.Target, cbits[j], 1, -rotation(i-j))
		}
		c.AddGate("H", o.Target)
		c.AddMeasure(o.Target, cbits[i])
		c.AddClassicalControlGate("X", o.Target, cbits[i], 1)
	}

	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate order finding program")
	}
	return o, nil
}
