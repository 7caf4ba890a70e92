package main

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNamedCregs(t *testing.T) {
	qasm := `OPENQASM 2.0;
include "qelib1.inc";

qreg q[3];
creg c0[1];
creg c1[1];

h q[1];
cx q[1], q[2];
ccx q[0], q[1], q[2];
measure q[0] -> c0[0];
measure q[1] -> c1[0];

if(c1==1) x q[2];
if(c0==1) u1(pi/2) q[2];`

	c := NewCircuit()
	require.NoError(t, c.ParseQASM(qasm))
	require.Len(t, c.Gates, 7)

	assert.Equal(t, 3, c.NumQubits)
	assert.Equal(t, 2, c.NumCbits)

	assert.Equal(t, "X", c.Gates[1].Type)
	assert.Equal(t, 2, c.Gates[1].Target)
	assert.Equal(t, []int{1}, c.Gates[1].Controls)

	assert.Equal(t, []int{0, 1}, c.Gates[2].Controls)

	assert.Equal(t, "MEASURE", c.Gates[3].Type)
	assert.Equal(t, 0, c.Gates[3].Cbit)
	assert.Equal(t, 1, c.Gates[4].Cbit)

	g5 := c.Gates[5]
	assert.Equal(t, "X", g5.Type)
	assert.Equal(t, 1, g5.ClassicalControl)
	assert.Equal(t, 1, g5.ClassicalValue)

	g6 := c.Gates[6]
	assert.Equal(t, "P", g6.Type)
	assert.Equal(t, 0, g6.ClassicalControl)
	assert.InDelta(t, math.Pi/2, g6.Params[0], 1e-12)
}

func TestParseQASMErrors(t *testing.T) {
	header := "OPENQASM 2.0;\ninclude \"qelib1.inc\";\nqreg q[2];\ncreg c[1];\n"
	tests := []struct {
		name string
		body string
	}{
		{"undeclared register", "h r[0];"},
		{"index out of range", "h q[5];"},
		{"unsupported gate", "y q[0];"},
		{"wrong operand count", "cx q[0];"},
		{"repeated qubit", "cx q[0], q[0];"},
		{"bad parameter", "u1(theta) q[0];"},
		{"undeclared condition register", "if(d==1) x q[0];"},
		{"garbage", "this is not qasm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCircuit()
			assert.Error(t, c.ParseQASM(header+tt.body))
		})
	}
}

func TestRoundTripQASM(t *testing.T) {
	c := NewCircuit()
	c.Comment = "round trip"
	a := c.AddQuantumRegister("a", 2)
	b := c.AddQuantumRegister("b", 2)
	bit := c.AddClassicalRegister("c0", 1)

	c.AddGate("H", a[0])
	c.AddGate("X", b[1], a[0], a[1])
	c.AddParameterizedGate("P", b[0], []float64{math.Pi / 4}, a[0], a[1])
	c.AddParameterizedGate("P", b[1], []float64{-rotation(10)}, a[1])
	c.AddSwap(b[0], b[1], a[0])
	c.AddMeasure(a[0], bit)
	c.AddClassicalControlGate("P", a[0], bit, 1, -math.Pi/2)
	c.AddClassicalControlGate("X", a[0], bit, 1)

	qasm := c.ToQASM()
	assert.True(t, strings.HasPrefix(qasm, "// round trip\n"))
	assert.Contains(t, qasm, ccu1Definition)
	assert.Contains(t, qasm, "ccx a[0], a[1], b[1];")
	assert.Contains(t, qasm, "ccu1(pi/4) a[0], a[1], b[0];")
	assert.Contains(t, qasm, "cu1(-pi/1024) a[1], b[1];")
	assert.Contains(t, qasm, "cswap a[0], b[0], b[1];")
	assert.Contains(t, qasm, "measure a[0] -> c0[0];")
	assert.Contains(t, qasm, "if(c0==1) u1(-pi/2) a[0];")

	c2 := NewCircuit()
	require.NoError(t, c2.ParseQASM(qasm))
	assert.Equal(t, c.NumQubits, c2.NumQubits)
	assert.Equal(t, c.NumCbits, c2.NumCbits)
	assert.Equal(t, c.Qregs, c2.Qregs)
	assert.Equal(t, c.Cregs, c2.Cregs)
	assert.Equal(t, c.Comment, c2.Comment)
	assert.Equal(t, c.Gates, c2.Gates)
}

func TestOrderFindingQASMRoundTrip(t *testing.T) {
	of, err := BuildOrderFinding(15, 7)
	require.NoError(t, err)

	c := NewCircuit()
	require.NoError(t, c.ParseQASM(of.Circuit.ToQASM()))
	assert.Equal(t, len(of.Circuit.Gates), len(c.Gates))
	assert.Equal(t, of.Circuit.Qregs, c.Qregs)

	n, a, ok := ParseOrderFindingComment(c.Comment)
	require.True(t, ok)
	assert.Equal(t, uint64(15), n)
	assert.Equal(t, uint64(7), a)

	for i := range c.Gates {
		want, got := of.Circuit.Gates[i], c.Gates[i]
		assert.Equal(t, want.Type, got.Type, "gate %d", i)
		assert.Equal(t, want.Qubits(), got.Qubits(), "gate %d", i)
		for k := range want.Params {
			assert.InDelta(t, want.Params[k], got.Params[k], 1e-12, "gate %d", i)
		}
	}
}

func TestParseParamExpr(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		// Plain numbers
		{"1.5707", 1.5707, true},
		{"-0.5", -0.5, true},
		{"0", 0, true},

		// Pi constant
		{"pi", math.Pi, true},
		{"PI", math.Pi, true},

		// Binary fractions
		{"pi/2", math.Pi / 2, true},
		{"pi/1024", math.Pi / 1024, true},
		{"-pi/4", -math.Pi / 4, true},
		{"pi/1048576", math.Pi / 1048576, true},

		// Coefficients
		{"2*pi", 2 * math.Pi, true},
		{"3pi/4", 3 * math.Pi / 4, true},
		{"-3*pi/4", -3 * math.Pi / 4, true},

		// Whitespace
		{" pi / 2 ", math.Pi / 2, true},

		// Invalid
		{"", 0, false},
		{"abc", 0, false},
		{"pi/0", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseParamExpr(tt.input)
		if ok != tt.ok {
			t.Errorf("parseParamExpr(%q): ok=%v, want ok=%v", tt.input, ok, tt.ok)
			continue
		}
		if ok && math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("parseParamExpr(%q) = %g, want %g", tt.input, got, tt.want)
		}
	}
}

func TestFormatParam(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{math.Pi, "pi"},
		{math.Pi / 2, "pi/2"},
		{rotation(6), "pi/64"},
		{-rotation(12), "-pi/4096"},
		{math.Pi / 3, "pi/3"},
		{3 * math.Pi / 4, "3*pi/4"},
		{-math.Pi, "-pi"},
		{2 * math.Pi, "2*pi"},
		{1.5, "1.5"},
		{0, "0"},
	}

	for _, tt := range tests {
		got := formatParam(tt.input)
		if got != tt.want {
			t.Errorf("formatParam(%g) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestFormatParamRoundTripsRotations(t *testing.T) {
	for k := 0; k < 40; k++ {
		for _, sign := range []float64{1, -1} {
			want := sign * rotation(k)
			got, ok := parseParamExpr(formatParam(want))
			require.True(t, ok, "k=%d", k)
			assert.Equal(t, want, got, "k=%d", k)
		}
	}
}
