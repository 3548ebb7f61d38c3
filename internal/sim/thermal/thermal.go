// Package thermal integrates the lumped-node thermal network of
// spec.md §4.1 step 1: explicit Euler on
//   dT_i/dt = (Q_i - cooling_i*(T_i-T_amb) - sum_k k_ik*(T_i-T_k)) / C_i
//
// Node temperatures and the coupling matrix are copied into gonum/mat
// types each step and the coupling sum is accumulated pairwise from them,
// grounded on the teacher's use of gonum.org/v1/gonum for its analysis
// tooling (cmd/analysis).
package thermal

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Node is one lumped thermal-capacitance node.
type Node struct {
	ID           string
	TempC        float64
	HeatCapacity float64 // C_i, J/K
	Cooling      float64 // cooling_i, W/K, to ambient
	// TripC/ClearC implement hysteresis: crossing TripC (rising) sets
	// Tripped; only falling below ClearC clears it (spec.md §4.1
	// "Hysteresis: each trip has t_trip and t_clear = t_trip - delta").
	TripC   float64
	ClearC  float64
	Tripped bool
}

// Network is the full set of coupled nodes plus their pairwise
// conductances k_ik.
type Network struct {
	Nodes []Node
	// Coupling[i][j] is k_ij, the conductance between Nodes[i] and
	// Nodes[j] (W/K); symmetric, zero diagonal, zero for unconnected pairs.
	Coupling [][]float64
	AmbientC float64
}

// Heat is the external heat input Q_i (W) for each node this step,
// indexed the same as Network.Nodes.
type Heat []float64

// TripEvent is emitted when a node's Tripped flag changes this step
// (spec.md §4.1 step 7: "edge event... thermal trip, with hysteresis").
type TripEvent struct {
	NodeID  string
	Tripped bool
}

// Step advances every node by dt seconds using explicit Euler integration
// and returns any trip/clear transitions that occurred.
func (n *Network) Step(q Heat, dt float64) ([]TripEvent, error) {
	count := len(n.Nodes)
	if len(q) != count {
		return nil, fmt.Errorf("thermal.Step: heat input length %d != node count %d", len(q), count)
	}

	temps := mat.NewVecDense(count, nil)
	for i, node := range n.Nodes {
		temps.SetVec(i, node.TempC)
	}

	coupling := mat.NewDense(count, count, nil)
	for i := 0; i < count; i++ {
		for j := 0; j < count; j++ {
			if i < len(n.Coupling) && j < len(n.Coupling[i]) {
				coupling.Set(i, j, n.Coupling[i][j])
			}
		}
	}

	derivative := make([]float64, count)
	for i := range n.Nodes {
		coupled := 0.0
		for j := range n.Nodes {
			if i == j {
				continue
			}
			coupled += coupling.At(i, j) * (temps.AtVec(i) - temps.AtVec(j))
		}
		cooling := n.Nodes[i].Cooling * (temps.AtVec(i) - n.AmbientC)
		derivative[i] = (q[i] - cooling - coupled) / n.Nodes[i].HeatCapacity
	}

	var events []TripEvent
	for i := range n.Nodes {
		node := &n.Nodes[i]
		node.TempC += derivative[i] * dt

		wasTripped := node.Tripped
		switch {
		case !node.Tripped && node.TempC >= node.TripC:
			node.Tripped = true
		case node.Tripped && node.TempC <= node.ClearC:
			node.Tripped = false
		}
		if node.Tripped != wasTripped {
			events = append(events, TripEvent{NodeID: node.ID, Tripped: node.Tripped})
		}
	}
	return events, nil
}

// TempC returns the current temperature of the named node, or (0, false)
// if no such node exists.
func (n *Network) TempC(id string) (float64, bool) {
	for _, node := range n.Nodes {
		if node.ID == id {
			return node.TempC, true
		}
	}
	return 0, false
}

// IsTripped reports whether the named node is currently tripped.
func (n *Network) IsTripped(id string) bool {
	for _, node := range n.Nodes {
		if node.ID == id {
			return node.Tripped
		}
	}
	return false
}
