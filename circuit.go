package main

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Pre-compiled regexps for QASM parsing.
var (
	qregRegex    = regexp.MustCompile(`^qreg\s+(\w+)\s*\[(\d+)\];?$`)
	cregRegex    = regexp.MustCompile(`^creg\s+(\w+)\s*\[(\d+)\];?$`)
	measureRegex = regexp.MustCompile(`^measure\s+(\w+\[\d+\])\s*->\s*(\w+\[\d+\]);?$`)
	ifRegex      = regexp.MustCompile(`^if\s*\(\s*(\w+)\s*==\s*(\d+)\s*\)\s*(.+)$`)
	gateRegex    = regexp.MustCompile(`^(\w+)(?:\s*\(\s*([^)]*?)\s*\))?\s+(.+?);?$`)
	operandRegex = regexp.MustCompile(`^(\w+)\[(\d+)\]$`)
)

// ccu1Definition is emitted whenever a doubly-controlled phase is present,
// qelib1.inc only goes up to cu1.
const ccu1Definition = "gate ccu1(lambda) a,b,c { cu1(lambda/2) b,c; cx a,b; cu1(-lambda/2) b,c; cx a,b; cu1(lambda/2) a,c; }"

// Gate is one instruction of a circuit program.
type Gate struct {
	Type             string    // "H", "X", "P", "SWAP" or "MEASURE"
	Target           int       // target qubit
	Target2          int       // second SWAP leg, -1 otherwise
	Controls         []int     // quantum controls, the gate fires when all are |1>
	Params           []float64 // phase angle for "P"
	Cbit             int       // classical bit written by a MEASURE, -1 otherwise
	ClassicalControl int       // -1 if not classically controlled, else classical bit index
	ClassicalValue   int       // value ClassicalControl must hold for the gate to fire
}

// RegisterDecl names a contiguous block of qubits or classical bits.
type RegisterDecl struct {
	Name   string
	Offset int
	Size   int
}

// Register is an ordered list of qubit indices; index 0 is the least
// significant bit.
type Register []int

// Size returns the bit width of the register.
func (r Register) Size() int { return len(r) }

// Msb returns the most significant qubit.
func (r Register) Msb() int { return r[len(r)-1] }

// Append returns a new register extended with the given qubits on top.
func (r Register) Append(qubits ...int) Register {
	out := make(Register, 0, len(r)+len(qubits))
	out = append(out, r...)
	return append(out, qubits...)
}

// Circuit is an append-only gate program together with its register
// declarations.
type Circuit struct {
	NumQubits int
	NumCbits  int
	Qregs     []RegisterDecl
	Cregs     []RegisterDecl
	Gates     []Gate
	Comment   string // emitted as a leading QASM comment
}

// NewCircuit returns an empty program.
func NewCircuit() *Circuit {
	return &Circuit{}
}

// AddQuantumRegister declares size fresh qubits and returns them as a register.
func (c *Circuit) AddQuantumRegister(name string, size int) Register {
	reg := make(Register, size)
	for i := range reg {
		reg[i] = c.NumQubits + i
	}
	c.Qregs = append(c.Qregs, RegisterDecl{Name: name, Offset: c.NumQubits, Size: size})
	c.NumQubits += size
	return reg
}

// AddClassicalRegister declares size fresh classical bits and returns the
// index of the first one.
func (c *Circuit) AddClassicalRegister(name string, size int) int {
	offset := c.NumCbits
	c.Cregs = append(c.Cregs, RegisterDecl{Name: name, Offset: offset, Size: size})
	c.NumCbits += size
	return offset
}

// AddGate appends an unparameterized gate, optionally controlled.
func (c *Circuit) AddGate(gateType string, target int, controls ...int) {
	c.Gates = append(c.Gates, Gate{
		Type:             gateType,
		Target:           target,
		Target2:          -1,
		Controls:         slices.Clone(controls),
		Cbit:             -1,
		ClassicalControl: -1,
	})
}

// AddParameterizedGate appends a parameterized gate, optionally controlled.
func (c *Circuit) AddParameterizedGate(gateType string, target int, params []float64, controls ...int) {
	c.Gates = append(c.Gates, Gate{
		Type:             gateType,
		Target:           target,
		Target2:          -1,
		Controls:         slices.Clone(controls),
		Params:           slices.Clone(params),
		Cbit:             -1,
		ClassicalControl: -1,
	})
}

// AddSwap appends a (controlled) swap of qubits a and b.
func (c *Circuit) AddSwap(a, b int, controls ...int) {
	c.Gates = append(c.Gates, Gate{
		Type:             "SWAP",
		Target:           a,
		Target2:          b,
		Controls:         slices.Clone(controls),
		Cbit:             -1,
		ClassicalControl: -1,
	})
}

// AddMeasure appends a computational-basis measurement of target into cbit.
func (c *Circuit) AddMeasure(target, cbit int) {
	c.Gates = append(c.Gates, Gate{
		Type:             "MEASURE",
		Target:           target,
		Target2:          -1,
		Cbit:             cbit,
		ClassicalControl: -1,
	})
}

// AddClassicalControlGate appends a single-qubit gate that only fires when
// classical bit cbit holds value.
func (c *Circuit) AddClassicalControlGate(gateType string, target, cbit, value int, params ...float64) {
	c.Gates = append(c.Gates, Gate{
		Type:             gateType,
		Target:           target,
		Target2:          -1,
		Params:           slices.Clone(params),
		Cbit:             -1,
		ClassicalControl: cbit,
		ClassicalValue:   value,
	})
}

// Qubits returns every qubit the gate touches, controls first.
func (g Gate) Qubits() []int {
	qs := append(slices.Clone(g.Controls), g.Target)
	if g.Target2 >= 0 {
		qs = append(qs, g.Target2)
	}
	return qs
}

// Validate checks that every gate addresses declared qubits and bits and
// that no gate uses the same qubit twice.
func (c *Circuit) Validate() error {
	for i, g := range c.Gates {
		qs := g.Qubits()
		for k, q := range qs {
			if q < 0 || q >= c.NumQubits {
				return errors.Errorf("gate %d (%s): qubit %d out of range", i, g.Type, q)
			}
			if slices.Contains(qs[k+1:], q) {
				return errors.Errorf("gate %d (%s): qubit %d used twice", i, g.Type, q)
			}
		}
		switch g.Type {
		case "H", "X", "SWAP":
		case "P":
			if len(g.Params) != 1 {
				return errors.Errorf("gate %d: phase gate needs one angle", i)
			}
		case "MEASURE":
			if g.Cbit < 0 || g.Cbit >= c.NumCbits {
				return errors.Errorf("gate %d: classical bit %d out of range", i, g.Cbit)
			}
		default:
			return errors.Errorf("gate %d: unknown gate type %q", i, g.Type)
		}
		if g.Type == "SWAP" && g.Target2 < 0 {
			return errors.Errorf("gate %d: swap without second target", i)
		}
		if g.ClassicalControl >= c.NumCbits {
			return errors.Errorf("gate %d: condition bit %d out of range", i, g.ClassicalControl)
		}
	}
	return nil
}

// qubitName returns the QASM operand for a qubit.
func (c *Circuit) qubitName(q int) string {
	for _, r := range c.Qregs {
		if q >= r.Offset && q < r.Offset+r.Size {
			return fmt.Sprintf("%s[%d]", r.Name, q-r.Offset)
		}
	}
	return fmt.Sprintf("q[%d]", q)
}

// cbitName returns the QASM operand for a classical bit and the register it
// belongs to.
func (c *Circuit) cbitName(b int) (string, string) {
	for _, r := range c.Cregs {
		if b >= r.Offset && b < r.Offset+r.Size {
			return fmt.Sprintf("%s[%d]", r.Name, b-r.Offset), r.Name
		}
	}
	return fmt.Sprintf("c[%d]", b), "c"
}

// qasmName returns the qelib1 mnemonic for a gate, one leading "c" per control.
func qasmName(g Gate) string {
	base := strings.ToLower(g.Type)
	if g.Type == "P" {
		base = "u1"
	}
	return strings.Repeat("c", len(g.Controls)) + base
}

// ToQASM generates OpenQASM 2.0 output for the program.
func (c *Circuit) ToQASM() string {
	var sb strings.Builder
	if c.Comment != "" {
		for _, line := range strings.Split(c.Comment, "\n") {
			fmt.Fprintf(&sb, "// %s\n", line)
		}
	}
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n")

	needsCCU1 := slices.ContainsFunc(c.Gates, func(g Gate) bool {
		return g.Type == "P" && len(g.Controls) == 2
	})
	if needsCCU1 {
		sb.WriteString(ccu1Definition + "\n")
	}
	sb.WriteString("\n")

	qregs := c.Qregs
	if len(qregs) == 0 {
		qregs = []RegisterDecl{{Name: "q", Size: max(c.NumQubits, 1)}}
	}
	for _, r := range qregs {
		fmt.Fprintf(&sb, "qreg %s[%d];\n", r.Name, r.Size)
	}
	cregs := c.Cregs
	if len(cregs) == 0 && c.NumCbits > 0 {
		cregs = []RegisterDecl{{Name: "c", Size: c.NumCbits}}
	}
	for _, r := range cregs {
		fmt.Fprintf(&sb, "creg %s[%d];\n", r.Name, r.Size)
	}
	sb.WriteString("\n")

	for _, g := range c.Gates {
		if g.ClassicalControl >= 0 {
			_, reg := c.cbitName(g.ClassicalControl)
			fmt.Fprintf(&sb, "if(%s==%d) ", reg, g.ClassicalValue)
		}
		if g.Type == "MEASURE" {
			name, _ := c.cbitName(g.Cbit)
			fmt.Fprintf(&sb, "measure %s -> %s;\n", c.qubitName(g.Target), name)
			continue
		}
		operands := make([]string, 0, 4)
		for _, q := range g.Qubits() {
			operands = append(operands, c.qubitName(q))
		}
		if len(g.Params) > 0 {
			fmt.Fprintf(&sb, "%s(%s) %s;\n", qasmName(g), formatParam(g.Params[0]), strings.Join(operands, ", "))
		} else {
			fmt.Fprintf(&sb, "%s %s;\n", qasmName(g), strings.Join(operands, ", "))
		}
	}

	return sb.String()
}

// ParseQASM parses QASM text in the dialect written by ToQASM and rebuilds
// the program from it.
func (c *Circuit) ParseQASM(qasm string) error {
	*c = Circuit{}
	qregs := make(map[string]RegisterDecl)
	cregs := make(map[string]RegisterDecl)

	resolve := func(operand string, regs map[string]RegisterDecl) (int, error) {
		m := operandRegex.FindStringSubmatch(strings.TrimSpace(operand))
		if m == nil {
			return 0, errors.Errorf("bad operand %q", operand)
		}
		r, ok := regs[m[1]]
		if !ok {
			return 0, errors.Errorf("undeclared register %q", m[1])
		}
		idx, _ := strconv.Atoi(m[2])
		if idx >= r.Size {
			return 0, errors.Errorf("index %d out of range for %s", idx, m[1])
		}
		return r.Offset + idx, nil
	}

	var comments []string
	for n, line := range strings.Split(qasm, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "//") {
			if len(c.Gates) == 0 {
				comments = append(comments, strings.TrimSpace(strings.TrimPrefix(line, "//")))
			}
			continue
		}
		if strings.HasPrefix(line, "OPENQASM") ||
			strings.HasPrefix(line, "include") ||
			strings.HasPrefix(line, "gate ") ||
			strings.HasPrefix(line, "barrier") {
			continue
		}
		if m := qregRegex.FindStringSubmatch(line); m != nil {
			size, _ := strconv.Atoi(m[2])
			c.AddQuantumRegister(m[1], size)
			qregs[m[1]] = c.Qregs[len(c.Qregs)-1]
			continue
		}
		if m := cregRegex.FindStringSubmatch(line); m != nil {
			size, _ := strconv.Atoi(m[2])
			c.AddClassicalRegister(m[1], size)
			cregs[m[1]] = c.Cregs[len(c.Cregs)-1]
			continue
		}

		cond, value := -1, 0
		if m := ifRegex.FindStringSubmatch(line); m != nil {
			r, ok := cregs[m[1]]
			if !ok {
				return errors.Errorf("line %d: undeclared classical register %q", n+1, m[1])
			}
			cond = r.Offset
			value, _ = strconv.Atoi(m[2])
			line = strings.TrimSpace(m[3])
		}

		if m := measureRegex.FindStringSubmatch(line); m != nil {
			q, err := resolve(m[1], qregs)
			if err != nil {
				return errors.Wrapf(err, "line %d", n+1)
			}
			b, err := resolve(m[2], cregs)
			if err != nil {
				return errors.Wrapf(err, "line %d", n+1)
			}
			c.AddMeasure(q, b)
			continue
		}

		m := gateRegex.FindStringSubmatch(line)
		if m == nil {
			return errors.Errorf("line %d: cannot parse %q", n+1, line)
		}
		name := strings.ToLower(m[1])
		base := strings.TrimLeft(name, "c")
		numControls := len(name) - len(base)
		var operands []int
		for _, op := range strings.Split(m[3], ",") {
			q, err := resolve(op, qregs)
			if err != nil {
				return errors.Wrapf(err, "line %d", n+1)
			}
			operands = append(operands, q)
		}
		var params []float64
		if m[2] != "" {
			p, ok := parseParamExpr(m[2])
			if !ok {
				return errors.Errorf("line %d: bad parameter %q", n+1, m[2])
			}
			params = []float64{p}
		}

		var gate Gate
		switch base {
		case "h", "x", "u1", "p":
			if len(operands) != numControls+1 {
				return errors.Errorf("line %d: %s expects %d operands", n+1, name, numControls+1)
			}
			gateType := strings.ToUpper(base)
			if base == "u1" {
				gateType = "P"
			}
			gate = Gate{
				Type:     gateType,
				Target:   operands[numControls],
				Target2:  -1,
				Controls: operands[:numControls],
				Params:   params,
			}
		case "swap":
			if len(operands) != numControls+2 {
				return errors.Errorf("line %d: %s expects %d operands", n+1, name, numControls+2)
			}
			gate = Gate{
				Type:     "SWAP",
				Target:   operands[numControls],
				Target2:  operands[numControls+1],
				Controls: operands[:numControls],
			}
		default:
			return errors.Errorf("line %d: unsupported gate %q", n+1, name)
		}
		if len(gate.Controls) == 0 {
			gate.Controls = nil
		}
		gate.Cbit = -1
		gate.ClassicalControl = cond
		gate.ClassicalValue = value
		c.Gates = append(c.Gates, gate)
	}
	c.Comment = strings.Join(comments, "\n")

	return errors.Wrap(c.Validate(), "validate parsed program")
}
