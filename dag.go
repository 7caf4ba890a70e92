package main

import (
	"fmt"
	"slices"
)

// DAGNode is one gate of a program with the gates it must follow.
// A gate depends on the previous gate touching any of its qubits and, for
// conditioned gates and measurements, on the previous gate using its bit.
type DAGNode struct {
	ID               string
	Index            int    // position in Circuit.Gates
	Type             string // "H", "X", "P", "SWAP" or "MEASURE"
	Qubits           []int  // controls then target(s)
	Controls         int    // number of quantum controls
	Cbit             int    // written bit for MEASURE (-1 otherwise)
	ClassicalControl int    // read bit for conditioned gates (-1 otherwise)
	Layer            int    // earliest parallel layer, 0 for roots
	Dependencies     []string
}

// CircuitDAG is the dependency graph of a built program. It backs the
// statistics logged and exported for every compiled program.
type CircuitDAG struct {
	Nodes     map[string]*DAGNode
	NumQubits int
	NumCbits  int
	Qregs     []RegisterDecl
	order     []string // node IDs in program order
	rootNodes []string
}

// CircuitStats summarises a program.
type CircuitStats struct {
	Qubits       int
	Cbits        int
	Gates        int
	Depth        int
	MaxWidth     int // gates in the widest layer
	Measurements int
	Conditioned  int
	MaxControls  int
	ByType       map[string]int
	ByRegister   map[string]int // gates touching each quantum register
}

// NewCircuitDAG creates an empty CircuitDAG.
func NewCircuitDAG() *CircuitDAG {
	return &CircuitDAG{
		Nodes:     make(map[string]*DAGNode),
		rootNodes: []string{},
	}
}

func generateNodeID(gateType string, target, index int) string {
	return fmt.Sprintf("%s_q%d_g%d", gateType, target, index)
}

// FromCircuit builds the DAG of a program, assigning every gate the
// earliest layer its dependencies allow.
func FromCircuit(circuit *Circuit) *CircuitDAG {
	dag := NewCircuitDAG()
	dag.NumQubits = circuit.NumQubits
	dag.NumCbits = circuit.NumCbits
	dag.Qregs = circuit.Qregs

	lastOnQubit := make(map[int]string)
	lastOnCbit := make(map[int]string)

	for i, gate := range circuit.Gates {
		node := &DAGNode{
			ID:               generateNodeID(gate.Type, gate.Target, i),
			Index:            i,
			Type:             gate.Type,
			Qubits:           gate.Qubits(),
			Controls:         len(gate.Controls),
			Cbit:             -1,
			ClassicalControl: gate.ClassicalControl,
		}
		if gate.Type == "MEASURE" {
			node.Cbit = gate.Cbit
		}

		var deps []string
		for _, q := range node.Qubits {
			if id, ok := lastOnQubit[q]; ok {
				deps = append(deps, id)
			}
		}
		for _, b := range []int{node.Cbit, node.ClassicalControl} {
			if b < 0 {
				continue
			}
			if id, ok := lastOnCbit[b]; ok {
				deps = append(deps, id)
			}
		}
		slices.Sort(deps)
		node.Dependencies = slices.Compact(deps)

		dag.Nodes[node.ID] = node
		dag.order = append(dag.order, node.ID)
		if len(node.Dependencies) == 0 {
			dag.rootNodes = append(dag.rootNodes, node.ID)
		}

		for _, q := range node.Qubits {
			lastOnQubit[q] = node.ID
		}
		for _, b := range []int{node.Cbit, node.ClassicalControl} {
			if b >= 0 {
				lastOnCbit[b] = node.ID
			}
		}
	}

	for _, node := range dag.TopologicalSort() {
		for _, id := range node.Dependencies {
			node.Layer = max(node.Layer, dag.Nodes[id].Layer+1)
		}
	}

	return dag
}

// TopologicalSort returns nodes in an order respecting dependencies.
// Roots are visited in program order so the result is stable.
func (dag *CircuitDAG) TopologicalSort() []*DAGNode {
	visited := make(map[string]bool)
	result := make([]*DAGNode, 0, len(dag.Nodes))

	var visit func(nodeID string)
	visit = func(nodeID string) {
		if visited[nodeID] {
			return
		}
		visited[nodeID] = true

		node := dag.Nodes[nodeID]
		for _, depID := range node.Dependencies {
			visit(depID)
		}
		result = append(result, node)
	}

	for _, rootID := range dag.rootNodes {
		visit(rootID)
	}
	for _, id := range dag.order {
		visit(id)
	}

	return result
}

// Layers groups nodes by layer; gates within a layer touch disjoint qubits
// and bits.
func (dag *CircuitDAG) Layers() [][]*DAGNode {
	layers := make([][]*DAGNode, dag.Depth())
	for _, id := range dag.order {
		node := dag.Nodes[id]
		layers[node.Layer] = append(layers[node.Layer], node)
	}
	return layers
}

// Depth returns the number of layers.
func (dag *CircuitDAG) Depth() int {
	depth := 0
	for _, node := range dag.Nodes {
		depth = max(depth, node.Layer+1)
	}
	return depth
}

// GetNodesOnQubit returns, in program order, the nodes that touch qubit.
func (dag *CircuitDAG) GetNodesOnQubit(qubit int) []*DAGNode {
	var result []*DAGNode
	for _, id := range dag.order {
		node := dag.Nodes[id]
		if slices.Contains(node.Qubits, qubit) {
			result = append(result, node)
		}
	}
	return result
}

// Stats counts gates by kind and by register and reports the depth and
// the widest layer.
func (dag *CircuitDAG) Stats() CircuitStats {
	stats := CircuitStats{
		Qubits:     dag.NumQubits,
		Cbits:      dag.NumCbits,
		Gates:      len(dag.Nodes),
		Depth:      dag.Depth(),
		ByType:     make(map[string]int),
		ByRegister: make(map[string]int),
	}
	for _, node := range dag.Nodes {
		stats.ByType[node.Type]++
		if node.Type == "MEASURE" {
			stats.Measurements++
		}
		if node.ClassicalControl >= 0 {
			stats.Conditioned++
		}
		stats.MaxControls = max(stats.MaxControls, node.Controls)
	}
	for _, layer := range dag.Layers() {
		stats.MaxWidth = max(stats.MaxWidth, len(layer))
	}
	for _, reg := range dag.Qregs {
		touched := make(map[string]bool)
		for q := reg.Offset; q < reg.Offset+reg.Size; q++ {
			for _, node := range dag.GetNodesOnQubit(q) {
				touched[node.ID] = true
			}
		}
		stats.ByRegister[reg.Name] = len(touched)
	}
	return stats
}
