package trace

import (
	"slices"

	"github.com/vk/chiplettrace/internal/placement"
)

// DefaultNetworkName labels traces whose input did not name the network.
const DefaultNetworkName = "DNN"

// ComputationTask is one chiplet's contribution to one layer's output.
type ComputationTask struct {
	Layer      string
	Type       string
	IfmapH     int
	IfmapW     int
	FilterH    int
	FilterW    int
	Channels   int
	NumFilters int
	StrideH    int
	StrideW    int
	// Extra carries type-specific parameters, e.g. "G=2,GC=32,GK=32".
	Extra string
	// Output is the exact sub-range owned by the chiplet, batch already
	// shifted by the enclosing batch group.
	Output placement.Range
}

// ChipletTrace is the program of a single chiplet.
type ChipletTrace struct {
	ID           int
	Pos          placement.Position
	Computations []ComputationTask
	Operations   []Operation
}

// FullTrace is the program of every chiplet on the mesh, indexed by linear
// chiplet index.
type FullTrace struct {
	Mesh       placement.Mesh
	Network    string
	TotalBatch int
	Chiplets   []ChipletTrace
}

// New allocates an empty trace with one ChipletTrace per mesh position.
func New(mesh placement.Mesh, network string, totalBatch int) *FullTrace {
	if network == "" {
		network = DefaultNetworkName
	}
	ft := &FullTrace{
		Mesh:       mesh,
		Network:    network,
		TotalBatch: totalBatch,
		Chiplets:   make([]ChipletTrace, mesh.Size()),
	}
	for i := range ft.Chiplets {
		ft.Chiplets[i].ID = i
		ft.Chiplets[i].Pos = mesh.Position(i)
	}
	return ft
}

// Queues returns an independent copy of every chiplet's operation queue.
func (ft *FullTrace) Queues() [][]Operation {
	queues := make([][]Operation, len(ft.Chiplets))
	for i, c := range ft.Chiplets {
		queues[i] = slices.Clone(c.Operations)
	}
	return queues
}

// OperationCount returns the total number of queued operations.
func (ft *FullTrace) OperationCount() int {
	n := 0
	for _, c := range ft.Chiplets {
		n += len(c.Operations)
	}
	return n
}

// Clone returns a deep copy of the trace.
func (ft *FullTrace) Clone() *FullTrace {
	cp := *ft
	cp.Chiplets = make([]ChipletTrace, len(ft.Chiplets))
	for i, c := range ft.Chiplets {
		c.Computations = slices.Clone(c.Computations)
		c.Operations = slices.Clone(c.Operations)
		cp.Chiplets[i] = c
	}
	return &cp
}

// Filter returns a copy of the trace keeping only operations for which keep
// returns true. Relative order is preserved.
func (ft *FullTrace) Filter(keep func(Operation) bool) *FullTrace {
	cp := ft.Clone()
	for i := range cp.Chiplets {
		ops := cp.Chiplets[i].Operations[:0]
		for _, op := range cp.Chiplets[i].Operations {
			if keep(op) {
				ops = append(ops, op)
			}
		}
		cp.Chiplets[i].Operations = ops
	}
	return cp
}

// WithoutCompute returns a copy without COMPUTE operations.
func (ft *FullTrace) WithoutCompute() *FullTrace {
	return ft.Filter(func(op Operation) bool { return op.Kind != OpCompute })
}

// WithoutExternal returns a copy without operations whose peer is external memory.
func (ft *FullTrace) WithoutExternal() *FullTrace {
	return ft.Filter(func(op Operation) bool { return op.Peer != PeerDRAM })
}
