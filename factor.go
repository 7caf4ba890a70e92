package main

import (
	"context"
	"fmt"
	"math/rand/v2"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type circuitKey struct {
	n uint64
	a uint64
}

// Program is a built order-finding program with its analysis.
type Program struct {
	*OrderFinding
	Stats CircuitStats
}

// Trial is one base attempted by the Factorer.
type Trial struct {
	Base     uint64
	Seed     uint64
	Shortcut *Shortcut // set when gcd(a, N) > 1
	Program  *Program
	Report   Report // covers every shot simulated for Base so far
}

// Result is the outcome of factoring one N.
type Result struct {
	N        uint64
	Factor   uint64    // 0 when nothing was found
	Shortcut *Shortcut // set when the factor came from a classical check
	Prime    bool      // N is prime, so no trial was run
	Trials   []Trial
}

// Cofactor returns N / Factor.
func (r *Result) Cofactor() uint64 {
	if r.Factor == 0 {
		return 0
	}
	return r.N / r.Factor
}

// Last returns the most recent trial, or nil.
func (r *Result) Last() *Trial {
	if len(r.Trials) == 0 {
		return nil
	}
	return &r.Trials[len(r.Trials)-1]
}

// Lines renders the result as the command prints it.
func (r *Result) Lines() []string {
	if r.Shortcut != nil {
		return []string{fmt.Sprintf("Early result found: %d %d", r.Factor, r.Cofactor())}
	}
	if r.Factor == 0 {
		return []string{"no factors found"}
	}
	return []string{
		fmt.Sprintf("Factors of %d are %d and %d", r.N, r.Factor, r.Cofactor()),
		fmt.Sprintf("successes = %d", r.Last().Report.Successes),
	}
}

// Factorer runs the classical checks, builds order-finding programs and
// simulates them until a base yields a factor or the trial budget runs out.
type Factorer struct {
	cfg      Config
	logger   *zap.Logger
	sim      *Simulator
	circuits *lru.Cache[circuitKey, *Program]
	rng      *rand.Rand
}

func NewFactorer(cfg Config, logger *zap.Logger) (*Factorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "create factorer")
	}
	cfg = cfg.WithDefaults()
	circuits, err := lru.New[circuitKey, *Program](cfg.CircuitCacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create circuit cache")
	}
	return &Factorer{
		cfg:      cfg,
		logger:   logger,
		sim:      NewSimulator(cfg, logger),
		circuits: circuits,
		rng:      rand.New(rand.NewPCG(cfg.Seed, 0xba5e)),
	}, nil
}

// Compile returns the order-finding program for (n, a), building it on a
// cache miss.
func (f *Factorer) Compile(n, a uint64) (*Program, error) {
	key := circuitKey{n: n, a: a}
	if p, ok := f.circuits.Get(key); ok {
		circuitsBuiltTotal.WithLabelValues("cache").Inc()
		return p, nil
	}

	of, err := BuildOrderFinding(n, a)
	if err != nil {
		return nil, errors.Wrap(err, "build order finding")
	}
	p := &Program{OrderFinding: of, Stats: FromCircuit(of.Circuit).Stats()}
	f.circuits.Add(key, p)

	circuitsBuiltTotal.WithLabelValues("built").Inc()
	circuitGates.Observe(float64(p.Stats.Gates))
	circuitDepth.Observe(float64(p.Stats.Depth))
	f.logger.Info(
		"compiled order finding",
		zap.Uint64("n", n),
		zap.Uint64("a", a),
		zap.Int("qubits", p.Stats.Qubits),
		zap.Int("gates", p.Stats.Gates),
		zap.Int("depth", p.Stats.Depth),
		zap.Int("width", p.Stats.MaxWidth),
	)
	return p, nil
}

// PickBase returns the configured base, or draws one.
func (f *Factorer) PickBase(n uint64) (uint64, error) {
	if f.cfg.Base == 0 {
		return PickBase(n, f.rng), nil
	}
	if f.cfg.Base < 2 || f.cfg.Base >= n {
		return 0, errors.Wrapf(ErrConstantOutOfRange, "base a = %d outside [2, %d]", f.cfg.Base, n-1)
	}
	return f.cfg.Base, nil
}

// Factor looks for a nontrivial factor of n.
func (f *Factorer) Factor(ctx context.Context, n uint64) (*Result, error) {
	res := &Result{N: n}

	shortcut, err := Precheck(n)
	if errors.Is(err, ErrPrime) {
		f.logger.Info("N is prime, skipping order finding", zap.Uint64("n", n))
		res.Prime = true
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	if shortcut != nil {
		factorAttemptsTotal.WithLabelValues("shortcut").Inc()
		f.logger.Info("classical shortcut", zap.Uint64("n", n), zap.String("reason", shortcut.Reason))
		res.Shortcut = shortcut
		res.Factor = shortcut.Factor
		return res, nil
	}

	pooled := make(map[uint64]Counts)
	for i := 0; i < f.cfg.MaxTrials; i++ {
		a, err := f.PickBase(n)
		if err != nil {
			return nil, err
		}
		t := Trial{Base: a, Seed: f.rng.Uint64()}

		if s := CoprimeShortcut(n, a); s != nil {
			factorAttemptsTotal.WithLabelValues("shortcut").Inc()
			f.logger.Info("classical shortcut", zap.Uint64("n", n), zap.Uint64("a", a), zap.String("reason", s.Reason))
			t.Shortcut = s
			res.Trials = append(res.Trials, t)
			res.Shortcut = s
			res.Factor = s.Factor
			return res, nil
		}

		t.Program, err = f.Compile(n, a)
		if err != nil {
			return nil, err
		}
		counts, err := f.sim.RunSeeded(ctx, t.Program.Circuit, f.cfg.Shots, t.Seed)
		if err != nil {
			return nil, errors.Wrapf(err, "simulate a = %d", a)
		}
		if pooled[a] == nil {
			pooled[a] = Counts{}
		}
		pooled[a].Merge(counts)
		t.Report = PostProcess(n, a, pooled[a])
		res.Trials = append(res.Trials, t)

		f.logger.Info(
			"trial finished",
			zap.Int("trial", i),
			zap.Uint64("a", a),
			zap.Int("outcomes", len(t.Report.Outcomes)),
			zap.Int("successes", t.Report.Successes),
		)
		if t.Report.Factor != 0 {
			factorAttemptsTotal.WithLabelValues("success").Inc()
			res.Factor = t.Report.Factor
			return res, nil
		}
		factorAttemptsTotal.WithLabelValues("failure").Inc()
	}

	return res, nil
}
