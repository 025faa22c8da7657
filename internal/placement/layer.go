package placement

import (
	"fmt"

	"github.com/vk/chiplettrace/internal/layerset"
)

// Kind is the closed set of layer types the trace generator distinguishes.
type Kind int

const (
	KindConv Kind = iota
	KindGroupConv
	KindFC
	KindPool
	KindEltwise
	KindPTP
	KindTranspose
	KindOther
)

var kindNames = [...]string{
	KindConv:      "conv",
	KindGroupConv: "groupconv",
	KindFC:        "fc",
	KindPool:      "pool",
	KindEltwise:   "eltwise",
	KindPTP:       "ptp",
	KindTranspose: "transpose",
	KindOther:     "other",
}

// String returns the report name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	return k >= KindConv && k <= KindOther
}

// ParseKind maps a report name back to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown layer kind %q", name)
}

// Dims is a feature-map shape without the batch dimension.
type Dims struct {
	C int
	H int
	W int
}

// Shape is the opaque shape/type metadata of a layer. Which fields are
// meaningful depends on Kind: Filter* for conv, groupconv, fc and pool,
// Groups for groupconv, Inputs for eltwise.
type Shape struct {
	Kind    Kind
	Ifmap   Dims
	Ofmap   Dims
	FilterH int
	FilterW int
	StrideH int
	StrideW int
	Groups  int
	Inputs  int
}

// Layer is one node of the network being mapped.
type Layer struct {
	ID    int
	Name  string
	Shape Shape
	// Prevs holds the ids of the layers whose outputs this layer consumes.
	Prevs layerset.Set
}

// Network is the set of layers, indexed by id.
type Network struct {
	Name   string
	layers map[int]*Layer
	order  []int
}

// NewNetwork creates an empty network.
func NewNetwork(name string) *Network {
	return &Network{Name: name, layers: make(map[int]*Layer)}
}

// AddLayer registers a layer. Ids must be unique.
func (n *Network) AddLayer(l *Layer) error {
	if _, exists := n.layers[l.ID]; exists {
		return fmt.Errorf("duplicate layer id %d (%s)", l.ID, l.Name)
	}
	n.layers[l.ID] = l
	n.order = append(n.order, l.ID)
	return nil
}

// Layer returns the layer with the given id.
func (n *Network) Layer(id int) (*Layer, bool) {
	l, ok := n.layers[id]
	return l, ok
}

// Layers returns the layers in registration order.
func (n *Network) Layers() []*Layer {
	out := make([]*Layer, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, n.layers[id])
	}
	return out
}
