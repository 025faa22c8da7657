package placement

import (
	"fmt"

	"github.com/vk/chiplettrace/internal/layerset"
)

// Node is a placement tree node: either *Leaf or *Group.
type Node interface {
	placementNode()
}

// Leaf places a single layer.
type Leaf struct {
	Layer *Layer
	// Direct is the subset of the layer's predecessors whose data arrives
	// chip-to-chip rather than through external memory.
	Direct layerset.Set
	// Outputs lists, per destination chiplet, the output sub-range placed there.
	Outputs []Partition
}

// Group replicates its children BatchGroups times, each replica shifted by
// TotalBatch/BatchGroups in the batch dimension.
type Group struct {
	Children    []Node
	BatchGroups int
}

func (*Leaf) placementNode()  {}
func (*Group) placementNode() {}

// Name returns the placed layer's name.
func (l *Leaf) Name() string {
	return l.Layer.Name
}

// Prevs returns the ids of every predecessor of the placed layer.
func (l *Leaf) Prevs() layerset.Set {
	return l.Layer.Prevs
}

// IsDirect reports whether the predecessor with the given id delivers its
// data chip-to-chip.
func (l *Leaf) IsDirect(prev int) bool {
	return l.Direct.Contains(prev)
}

// Tree is an immutable placement decision together with the global facts
// needed to interpret it.
type Tree struct {
	Network    *Network
	Root       Node
	TotalBatch int
	Mesh       Mesh

	leaves map[int]*Leaf
}

// NewTree indexes the leaves of root by layer id. When a layer is placed by
// several leaves, the first one in traversal order is the one Leaf returns.
func NewTree(network *Network, root Node, totalBatch int, mesh Mesh) *Tree {
	t := &Tree{
		Network:    network,
		Root:       root,
		TotalBatch: totalBatch,
		Mesh:       mesh,
		leaves:     make(map[int]*Leaf),
	}
	t.index(root)
	return t
}

func (t *Tree) index(n Node) {
	switch n := n.(type) {
	case nil:
	case *Leaf:
		if _, seen := t.leaves[n.Layer.ID]; !seen {
			t.leaves[n.Layer.ID] = n
		}
	case *Group:
		for _, child := range n.Children {
			t.index(child)
		}
	default:
		panic(fmt.Sprintf("placement: unexpected node type %T", n))
	}
}

// Leaf returns the leaf placing the layer with the given id.
func (t *Tree) Leaf(layerID int) (*Leaf, bool) {
	l, ok := t.leaves[layerID]
	return l, ok
}

// WithMesh returns a shallow copy of the tree interpreted on another mesh.
func (t *Tree) WithMesh(m Mesh) *Tree {
	cp := *t
	cp.Mesh = m
	return &cp
}

// Walk visits every leaf in traversal order together with its running batch
// offset. At a group, each of the BatchGroups replicas visits all children in
// order, replica b adding b*(TotalBatch/BatchGroups) to the offset. A fixed
// tree always produces the same visit sequence.
func (t *Tree) Walk(visit func(leaf *Leaf, batchOffset int)) {
	t.walk(t.Root, 0, visit)
}

func (t *Tree) walk(n Node, batchOffset int, visit func(*Leaf, int)) {
	switch n := n.(type) {
	case nil:
	case *Leaf:
		visit(n, batchOffset)
	case *Group:
		groups := n.BatchGroups
		if groups < 1 {
			groups = 1
		}
		perGroup := t.TotalBatch / groups
		for b := 0; b < groups; b++ {
			for _, child := range n.Children {
				t.walk(child, batchOffset+b*perGroup, visit)
			}
		}
	default:
		panic(fmt.Sprintf("placement: unexpected node type %T", n))
	}
}
