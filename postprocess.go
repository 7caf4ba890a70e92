package main

import (
	"math/big"
	"math/bits"
	"slices"
	"strconv"

	"github.com/shopspring/decimal"
)

// Outcome is the decode of one observed bitstring.
type Outcome struct {
	Bitstring string
	Count     int
	Measured  uint64          // phase integer y, bit i measured in round i
	Phase     decimal.Decimal // y / 2^width
	Order     uint64          // verified order candidate, 0 when none
	Factors   []uint64        // nontrivial factors of N, empty on failure
	Reason    string          // why the outcome yielded nothing
}

// OK reports whether the outcome produced a factor.
func (o Outcome) OK() bool { return len(o.Factors) > 0 }

// Report aggregates the decodes of every distinct bitstring.
type Report struct {
	N         uint64
	A         uint64
	Outcomes  []Outcome
	Shots     int
	Successes int    // shots whose bitstring yielded a factor
	Factor    uint64 // factor from the first successful outcome, 0 if none
}

// PostProcess decodes counts from an order-finding run for base a modulo n.
// Outcomes are ordered by count, then bitstring, so the result does not
// depend on the order shots arrived in.
func PostProcess(n, a uint64, counts Counts) Report {
	report := Report{N: n, A: a}
	for _, k := range counts.Sorted() {
		o := decodeOutcome(n, a, k)
		o.Count = counts[k]
		report.Shots += o.Count
		if o.OK() {
			report.Successes += o.Count
			if report.Factor == 0 {
				report.Factor = o.Factors[0]
			}
		}
		report.Outcomes = append(report.Outcomes, o)
	}
	return report
}

func decodeOutcome(n, a uint64, bitstring string) Outcome {
	o := Outcome{Bitstring: bitstring}
	width := len(bitstring)
	y, err := strconv.ParseUint(bitstring, 2, 64)
	if err != nil || width == 0 || width > 63 {
		o.Reason = "malformed bitstring"
		return o
	}
	o.Measured = y

	num := new(big.Int).SetUint64(y)
	den := new(big.Int).Lsh(big.NewInt(1), uint(width))
	o.Phase = decimal.NewFromBigInt(num, 0).DivRound(decimal.NewFromBigInt(den, 0), int32(width))

	if y == 0 {
		o.Reason = "zero phase"
		return o
	}

	order, ok := orderCandidate(n, a, convergentDenominators(num, den, n))
	if !ok {
		o.Reason = "no order candidate"
		return o
	}
	o.Order = order
	if order%2 == 1 {
		o.Reason = "odd order candidate"
		return o
	}

	v := powMod(a, order/2, n)
	for _, g := range []uint64{gcd(v+n-1, n), gcd(v+1, n)} {
		if g > 1 && g < n && !slices.Contains(o.Factors, g) {
			o.Factors = append(o.Factors, g)
		}
	}
	if len(o.Factors) == 0 {
		o.Reason = "trivial gcd"
	}
	return o
}

// convergentDenominators returns the denominators of the continued-fraction
// convergents of num/den that are below limit, in increasing order.
func convergentDenominators(num, den *big.Int, limit uint64) []uint64 {
	var out []uint64
	kPrev2, kPrev1 := big.NewInt(1), big.NewInt(0)
	p, q := new(big.Int).Set(num), new(big.Int).Set(den)
	for q.Sign() != 0 {
		quo, rem := new(big.Int).QuoRem(p, q, new(big.Int))
		k := new(big.Int).Mul(quo, kPrev1)
		k.Add(k, kPrev2)
		if !k.IsUint64() || k.Uint64() >= limit {
			break
		}
		out = append(out, k.Uint64())
		kPrev2, kPrev1 = kPrev1, k
		p, q = q, rem
	}
	return out
}

// orderCandidate returns the smallest k*q below n, over convergent
// denominators q >= 2 and k <= bitlen(n), with a^(k*q) = 1 mod n. Small
// multiples recover the order when the sampled k/r was not in lowest terms.
func orderCandidate(n, a uint64, denominators []uint64) (uint64, bool) {
	maxMultiple := uint64(bits.Len64(n))
	for _, q := range denominators {
		if q < 2 {
			continue
		}
		for k := uint64(1); k <= maxMultiple && k*q < n; k++ {
			if powMod(a, k*q, n) == 1 {
				return k * q, true
			}
		}
	}
	return 0, false
}
