package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	configFile = flag.String(
		"config",
		"",
		"the YAML configuration file (optional)",
	)
	shots = flag.Int(
		"shots",
		0,
		"number of shots simulated per trial",
	)
	seed = flag.Uint64(
		"seed",
		0,
		"seed for base and measurement sampling (0 picks one from the clock)",
	)
	base = flag.Uint64(
		"a",
		0,
		"fixed base a in [2, N-1] (0 samples one per trial)",
	)
	trials = flag.Int(
		"trials",
		0,
		"number of bases tried before giving up",
	)
	workers = flag.Int(
		"workers",
		0,
		"concurrent measurement branches",
	)
	debug = flag.Bool(
		"debug",
		false,
		"enable development logging",
	)
	tui = flag.Bool(
		"tui",
		false,
		"browse the run in a terminal viewer",
	)
	qasmOut = flag.String(
		"qasm",
		"",
		"write the order-finding program to this OpenQASM file and exit",
	)
	qasmIn = flag.String(
		"from-qasm",
		"",
		"simulate a previously exported OpenQASM program",
	)
	prometheusServer = flag.String(
		"prometheus-server",
		"",
		"enable prometheus server on specified address (e.g. localhost:8080)",
	)
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] N\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}

	logger, err := NewLogger(cfg.Debug)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	if *tui {
		// The viewer owns the terminal.
		logger = zap.NewNop()
	}
	defer logger.Sync()

	if *prometheusServer != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Fatal("Failed to start prometheus server", zap.Error(http.ListenAndServe(*prometheusServer, mux)))
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		stop()
		os.Exit(fail(logger, err))
	}
}

// fail flushes the logger and reports err, returning the exit status.
// os.Exit skips deferred calls, so buffered log entries are written here.
func fail(logger *zap.Logger, err error) int {
	_ = logger.Sync()
	fmt.Println("error:", err)
	return 1
}

// loadConfig reads the config file and applies explicitly set flags on top.
func loadConfig() (Config, error) {
	cfg, err := LoadConfig(*configFile)
	if err != nil {
		return Config{}, err
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "shots":
			cfg.Shots = *shots
		case "seed":
			cfg.Seed = *seed
		case "a":
			cfg.Base = *base
		case "trials":
			cfg.MaxTrials = *trials
		case "workers":
			cfg.Workers = *workers
		case "debug":
			cfg.Debug = *debug
		}
	})
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "apply flags")
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	return cfg.WithDefaults(), nil
}

func run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	if *qasmIn != "" {
		return runQASM(ctx, cfg, logger, *qasmIn)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		return errors.New("expected exactly one argument N")
	}
	n, err := strconv.ParseUint(flag.Arg(0), 10, 64)
	if err != nil {
		return errors.Wrapf(ErrInvalidInput, "parse N %q", flag.Arg(0))
	}

	f, err := NewFactorer(cfg, logger)
	if err != nil {
		return err
	}

	if *qasmOut != "" {
		return exportQASM(f, n, *qasmOut)
	}

	if *tui {
		p := tea.NewProgram(newModel(ctx, f, n), tea.WithAltScreen(), tea.WithMouseCellMotion())
		_, err := p.Run()
		return errors.Wrap(err, "run viewer")
	}

	res, err := f.Factor(ctx, n)
	if err != nil {
		return err
	}
	for _, line := range res.Lines() {
		fmt.Println(line)
	}
	return nil
}

// exportQASM writes the program for N and the chosen base to path. Classical
// shortcuts are printed instead, since there is no program to build.
func exportQASM(f *Factorer, n uint64, path string) error {
	shortcut, err := Precheck(n)
	if err != nil {
		return err
	}
	a := uint64(0)
	if shortcut == nil {
		if a, err = f.PickBase(n); err != nil {
			return err
		}
		shortcut = CoprimeShortcut(n, a)
	}
	if shortcut != nil {
		fmt.Printf("Early result found: %d %d\n", shortcut.Factor, n/shortcut.Factor)
		return nil
	}

	p, err := f.Compile(n, a)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(p.Circuit.ToQASM()), 0644); err != nil {
		return errors.Wrap(err, "write qasm")
	}
	fmt.Printf("wrote %s: N=%d a=%d, %d qubits, %d gates\n", path, n, a, p.Stats.Qubits, p.Stats.Gates)
	return nil
}

// runQASM simulates an exported program. When the program carries its
// (N, a) header the counts are decoded as well.
func runQASM(ctx context.Context, cfg Config, logger *zap.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read qasm")
	}
	c := NewCircuit()
	if err := c.ParseQASM(string(data)); err != nil {
		return err
	}

	counts, err := NewSimulator(cfg, logger).Run(ctx, c, cfg.Shots)
	if err != nil {
		return err
	}

	for _, k := range counts.Sorted() {
		fmt.Printf("%s %d\n", k, counts[k])
	}

	n, a, ok := ParseOrderFindingComment(c.Comment)
	if !ok {
		return nil
	}
	rep := PostProcess(n, a, counts)
	res := &Result{N: n, Factor: rep.Factor, Trials: []Trial{{Base: a, Report: rep}}}
	for _, line := range res.Lines() {
		fmt.Println(line)
	}
	return nil
}
