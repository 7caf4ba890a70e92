package main

import (
	"math/big"
	"math/bits"
	"math/rand/v2"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidInput is returned for N < 2.
	ErrInvalidInput = errors.New("N must be an integer >= 2")
	// ErrPrime is returned when N has no nontrivial factor to find.
	ErrPrime = errors.New("N is prime")
)

// Shortcut is a factor found classically before any circuit is built.
type Shortcut struct {
	Factor uint64
	Reason string // "even", "perfect power" or "shared factor"
}

// Precheck runs the deterministic guard clauses: evenness, perfect powers
// and primality. A nil shortcut with a nil error means N needs the quantum
// stage.
func Precheck(n uint64) (*Shortcut, error) {
	if n < 2 {
		return nil, errors.Wrapf(ErrInvalidInput, "N = %d", n)
	}
	if n%2 == 0 {
		return &Shortcut{Factor: 2, Reason: "even"}, nil
	}
	if p := perfectPowerBase(n); p != 0 {
		return &Shortcut{Factor: p, Reason: "perfect power"}, nil
	}
	if new(big.Int).SetUint64(n).ProbablyPrime(20) {
		return nil, errors.Wrapf(ErrPrime, "N = %d", n)
	}
	return nil, nil
}

// perfectPowerBase returns p when n == p^q for some p in [2, floor(sqrt n)]
// and q >= 2, and 0 otherwise. Trial bases stop at floor(sqrt n); anything
// missed here is still caught by the gcd shortcut or the quantum stage.
func perfectPowerBase(n uint64) uint64 {
	for p := uint64(2); p*p <= n; p++ {
		pq := p * p
		for pq <= n {
			if pq == n {
				return p
			}
			hi, lo := bits.Mul64(pq, p)
			if hi != 0 {
				break
			}
			pq = lo
		}
	}
	return 0
}

// PickBase draws the random base a uniformly from [2, n-1].
func PickBase(n uint64, rng *rand.Rand) uint64 {
	return 2 + rng.Uint64N(n-2)
}

// CoprimeShortcut returns the shared factor when gcd(a, n) > 1.
func CoprimeShortcut(n, a uint64) *Shortcut {
	if g := gcd(a, n); g > 1 {
		return &Shortcut{Factor: g, Reason: "shared factor"}
	}
	return nil
}

func gcd(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func mulMod(a, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	return bits.Rem64(hi, lo, m)
}

// powMod computes base^exp mod m by square-and-multiply.
func powMod(base, exp, m uint64) uint64 {
	b := new(big.Int).SetUint64(base)
	e := new(big.Int).SetUint64(exp)
	return b.Exp(b, e, new(big.Int).SetUint64(m)).Uint64()
}

// modInverse returns a^-1 mod m, or false when gcd(a, m) != 1.
func modInverse(a, m uint64) (uint64, bool) {
	inv := new(big.Int).ModInverse(new(big.Int).SetUint64(a), new(big.Int).SetUint64(m))
	if inv == nil {
		return 0, false
	}
	return inv.Uint64(), true
}

// repeatedSquares returns a^(2^k) mod m for k = 0..count-1.
func repeatedSquares(a, m uint64, count int) []uint64 {
	out := make([]uint64, count)
	sq := a % m
	for k := range out {
		out[k] = sq
		sq = mulMod(sq, sq, m)
	}
	return out
}
