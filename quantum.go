package main

import (
	"context"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrTooManyQubits is returned when a program is too wide for the state
// vector budget.
var ErrTooManyQubits = errors.New("too many qubits to simulate")

// probabilityFloor treats outcome probabilities below it as exactly zero.
const probabilityFloor = 1e-12

type Complex = complex128

type StateVector struct {
	Amplitudes []Complex
	NumQubits  int
}

func NewStateVector(numQubits int) *StateVector {
	n := 1 << numQubits
	amps := make([]Complex, n)
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

// NewBasisState returns |index>.
func NewBasisState(numQubits, index int) *StateVector {
	s := NewStateVector(numQubits)
	s.Amplitudes[0] = 0
	s.Amplitudes[index] = 1
	return s
}

func (s *StateVector) Clone() *StateVector {
	amps := make([]Complex, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

// ApplyGate applies one unitary gate. MEASURE and classical conditions are
// the runner's business.
func (s *StateVector) ApplyGate(g Gate) {
	var cMask int
	for _, q := range g.Controls {
		cMask |= 1 << q
	}
	switch g.Type {
	case "H":
		s.applyH(g.Target, cMask)
	case "X":
		s.applyX(g.Target, cMask)
	case "P":
		s.applyP(g.Target, cMask, g.Params[0])
	case "SWAP":
		s.applySWAP(g.Target, g.Target2, cMask)
	}
}

// Execute runs a measurement-free program. Conditioned gates are rejected
// since there is no classical state to test them against.
func (s *StateVector) Execute(c *Circuit) error {
	if c.NumQubits != s.NumQubits {
		return errors.Errorf("program has %d qubits, state %d", c.NumQubits, s.NumQubits)
	}
	for i, g := range c.Gates {
		if g.Type == "MEASURE" || g.ClassicalControl >= 0 {
			return errors.Errorf("gate %d: %s needs the shot runner", i, g.Type)
		}
		s.ApplyGate(g)
	}
	return nil
}

func (s *StateVector) applyH(q, cMask int) {
	hFactor := complex(1.0/math.Sqrt2, 0)
	n := len(s.Amplitudes)
	bit := 1 << q
	for i := 0; i < n; i++ {
		if i&bit == 0 && i&cMask == cMask {
			j := i | bit
			a, b := s.Amplitudes[i], s.Amplitudes[j]
			s.Amplitudes[i] = hFactor * (a + b)
			s.Amplitudes[j] = hFactor * (a - b)
		}
	}
}

func (s *StateVector) applyX(q, cMask int) {
	n := len(s.Amplitudes)
	bit := 1 << q
	for i := 0; i < n; i++ {
		if i&bit == 0 && i&cMask == cMask {
			j := i | bit
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// applyP multiplies every basis state with the target and all controls set
// by e^{i theta}.
func (s *StateVector) applyP(q, cMask int, theta float64) {
	n := len(s.Amplitudes)
	mask := cMask | 1<<q
	phase := cmplx.Exp(complex(0, theta))
	for i := 0; i < n; i++ {
		if i&mask == mask {
			s.Amplitudes[i] *= phase
		}
	}
}

func (s *StateVector) applySWAP(q1, q2, cMask int) {
	n := len(s.Amplitudes)
	bit1 := 1 << q1
	bit2 := 1 << q2
	for i := 0; i < n; i++ {
		if i&bit1 != 0 && i&bit2 == 0 && i&cMask == cMask {
			j := (i &^ bit1) | bit2
			s.Amplitudes[i], s.Amplitudes[j] = s.Amplitudes[j], s.Amplitudes[i]
		}
	}
}

// probabilityOne returns the probability of measuring qubit q as 1.
func (s *StateVector) probabilityOne(q int) float64 {
	bit := 1 << q
	p := 0.0
	for i, amp := range s.Amplitudes {
		if i&bit != 0 {
			p += real(amp * cmplx.Conj(amp))
		}
	}
	return p
}

// collapse projects qubit q onto outcome and renormalises.
func (s *StateVector) collapse(q, outcome int, prob float64) {
	bit := 1 << q
	norm := complex(math.Sqrt(prob), 0)
	for i := range s.Amplitudes {
		if (i&bit != 0) == (outcome == 1) {
			s.Amplitudes[i] /= norm
		} else {
			s.Amplitudes[i] = 0
		}
	}
}

// BasisState returns the index of the single basis state carrying all the
// probability mass, or false if the state is a superposition.
func (s *StateVector) BasisState() (int, bool) {
	for i, amp := range s.Amplitudes {
		if real(amp*cmplx.Conj(amp)) > 1-1e-9 {
			return i, true
		}
	}
	return 0, false
}

// Counts maps a classical bitstring, highest bit first, to the number of
// shots that produced it.
type Counts map[string]int

// Total returns the number of shots recorded.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Sorted returns the bitstrings by count, highest first, ties broken by
// bitstring.
func (c Counts) Sorted() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y string) int {
		if c[x] != c[y] {
			return c[y] - c[x]
		}
		return strings.Compare(x, y)
	})
	return keys
}

// Merge adds other into c.
func (c Counts) Merge(other Counts) {
	for k, n := range other {
		c[k] += n
	}
}

// Simulator executes programs shot by shot on a state vector. Shots share a
// state until a measurement splits them; each outcome continues on its own
// copy, so a program with k distinct measurement paths costs k runs rather
// than one per shot.
type Simulator struct {
	Workers   int
	MaxQubits int
	Seed      uint64
	logger    *zap.Logger
}

// NewSimulator returns a simulator bounded by the configuration.
func NewSimulator(cfg Config, logger *zap.Logger) *Simulator {
	cfg = cfg.WithDefaults()
	return &Simulator{
		Workers:   cfg.Workers,
		MaxQubits: cfg.MaxQubits,
		Seed:      cfg.Seed,
		logger:    logger,
	}
}

// branch is a group of shots that have observed the same outcomes so far.
type branch struct {
	state *StateVector
	cbits []byte
	shots int
	pc    int
	rng   *rand.Rand
}

// Run executes shots of the program and returns the observed bitstrings.
func (s *Simulator) Run(ctx context.Context, c *Circuit, shots int) (Counts, error) {
	return s.RunSeeded(ctx, c, shots, s.Seed)
}

// RunSeeded is Run with an explicit sampling seed. Equal seeds give equal
// counts whatever the worker count.
func (s *Simulator) RunSeeded(ctx context.Context, c *Circuit, shots int, seed uint64) (Counts, error) {
	if shots < 1 {
		return nil, errors.Errorf("shots must be positive, got %d", shots)
	}
	if c.NumQubits > s.MaxQubits {
		return nil, errors.Wrapf(ErrTooManyQubits, "%d qubits, limit %d", c.NumQubits, s.MaxQubits)
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate program")
	}

	start := time.Now()
	counts := make(Counts)
	var mu sync.Mutex
	var branches int

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.Workers, 1))

	var run func(b *branch) error
	run = func(b *branch) error {
		for ; b.pc < len(c.Gates); b.pc++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			gate := c.Gates[b.pc]
			if gate.ClassicalControl >= 0 && int(b.cbits[gate.ClassicalControl]) != gate.ClassicalValue {
				continue
			}
			if gate.Type != "MEASURE" {
				b.state.ApplyGate(gate)
				continue
			}

			p1 := b.state.probabilityOne(gate.Target)
			ones := 0
			switch {
			case p1 < probabilityFloor:
			case p1 > 1-probabilityFloor:
				ones = b.shots
			default:
				for range b.shots {
					if b.rng.Float64() < p1 {
						ones++
					}
				}
			}
			zeros := b.shots - ones

			if ones > 0 && zeros > 0 {
				child := &branch{
					state: b.state.Clone(),
					cbits: slices.Clone(b.cbits),
					shots: ones,
					pc:    b.pc + 1,
					rng:   rand.New(rand.NewPCG(b.rng.Uint64(), b.rng.Uint64())),
				}
				child.state.collapse(gate.Target, 1, p1)
				child.cbits[gate.Cbit] = 1
				if !g.TryGo(func() error { return run(child) }) {
					if err := run(child); err != nil {
						return err
					}
				}
				b.shots = zeros
			}

			outcome := 0
			prob := 1 - p1
			if zeros == 0 {
				outcome, prob = 1, p1
			}
			b.state.collapse(gate.Target, outcome, max(prob, probabilityFloor))
			b.cbits[gate.Cbit] = byte(outcome)
		}

		key := bitstring(b.cbits)
		mu.Lock()
		counts[key] += b.shots
		branches++
		mu.Unlock()
		return nil
	}

	root := &branch{
		state: NewStateVector(c.NumQubits),
		cbits: make([]byte, c.NumCbits),
		shots: shots,
		rng:   rand.New(rand.NewPCG(seed, 0x5eed)),
	}
	g.Go(func() error { return run(root) })
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "run shots")
	}

	elapsed := time.Since(start)
	shotsSimulatedTotal.Add(float64(shots))
	measurementBranchesTotal.Add(float64(branches))
	simulationDuration.Observe(elapsed.Seconds())
	s.logger.Debug(
		"simulation finished",
		zap.Int("shots", shots),
		zap.Int("branches", branches),
		zap.Int("outcomes", len(counts)),
		zap.Duration("elapsed", elapsed),
	)

	return counts, nil
}

// bitstring renders classical bits highest index first.
func bitstring(cbits []byte) string {
	var sb strings.Builder
	sb.Grow(len(cbits))
	for i := len(cbits) - 1; i >= 0; i-- {
		sb.WriteByte('0' + cbits[i])
	}
	return sb.String()
}
