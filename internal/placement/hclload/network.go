package hclload

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/chiplettrace/internal/dag"
	"github.com/vk/chiplettrace/internal/layerset"
	"github.com/vk/chiplettrace/internal/placement"
)

// buildNetwork converts decoded layer blocks into a Network and rejects
// predecessor relations that are unknown or cyclic.
func buildNetwork(name string, blocks []*layerBlock) (*placement.Network, error) {
	net := placement.NewNetwork(name)
	names := make(map[string]*layerBlock, len(blocks))
	graph := dag.New()

	known := make(map[int]bool, len(blocks))
	for _, lb := range blocks {
		if lb.ID >= 0 && lb.ID <= layerset.MaxID {
			known[lb.ID] = true
		}
	}

	for _, lb := range blocks {
		if prev, ok := names[lb.Name]; ok {
			return nil, hcl.Diagnostics{errorDiag("Duplicate layer", lb.DefRange.Ptr(), "Layer %q is already defined at %s.", lb.Name, prev.DefRange)}
		}
		names[lb.Name] = lb

		layer, diags := translateLayer(lb, known)
		if diags.HasErrors() {
			return nil, diags
		}
		if err := net.AddLayer(layer); err != nil {
			return nil, hcl.Diagnostics{errorDiag("Duplicate layer", lb.DefRange.Ptr(), "%s.", err)}
		}
		graph.AddNode(layer.ID)
	}

	for _, layer := range net.Layers() {
		for _, prev := range layer.Prevs.IDs() {
			if err := graph.AddEdge(prev, layer.ID); err != nil {
				return nil, fmt.Errorf("layer %q: %w", layer.Name, err)
			}
		}
	}
	if err := graph.DetectCycles(); err != nil {
		return nil, fmt.Errorf("invalid layer predecessors: %w", err)
	}
	return net, nil
}

// translateLayer converts one layer block. known holds the in-range ids of
// every declared layer; predecessors are checked against it before insertion.
func translateLayer(lb *layerBlock, known map[int]bool) (*placement.Layer, hcl.Diagnostics) {
	subject := lb.DefRange.Ptr()

	if err := checkLayerName(lb.Name); err != nil {
		return nil, hcl.Diagnostics{errorDiag("Invalid layer name", subject, "Layer %q: %s.", lb.Name, err)}
	}
	kind, err := placement.ParseKind(lb.Kind)
	if err != nil {
		return nil, hcl.Diagnostics{errorDiag("Invalid layer kind", subject, "Layer %q: %s.", lb.Name, err)}
	}
	if lb.ID < 0 || lb.ID > layerset.MaxID {
		return nil, hcl.Diagnostics{errorDiag("Invalid layer id", subject, "Layer %q: id %d is outside [0,%d].", lb.Name, lb.ID, layerset.MaxID)}
	}

	ifmap, diags := dims(lb.Ifmap, "ifmap", lb)
	if diags.HasErrors() {
		return nil, diags
	}
	ofmap, diags := dims(lb.Ofmap, "ofmap", lb)
	if diags.HasErrors() {
		return nil, diags
	}

	shape := placement.Shape{
		Kind:    kind,
		Ifmap:   ifmap,
		Ofmap:   ofmap,
		StrideH: 1,
		StrideW: 1,
		Groups:  lb.Groups,
		Inputs:  lb.Inputs,
	}
	if lb.Filter != nil {
		if len(lb.Filter) != 2 {
			return nil, hcl.Diagnostics{errorDiag("Invalid filter", subject, "Layer %q: filter must be [R, S].", lb.Name)}
		}
		shape.FilterH, shape.FilterW = lb.Filter[0], lb.Filter[1]
	}
	if lb.Stride != nil {
		if len(lb.Stride) != 2 {
			return nil, hcl.Diagnostics{errorDiag("Invalid stride", subject, "Layer %q: stride must be [H, W].", lb.Name)}
		}
		shape.StrideH, shape.StrideW = lb.Stride[0], lb.Stride[1]
	}

	var prevs layerset.Set
	for _, p := range lb.Prevs {
		if !known[p] {
			return nil, hcl.Diagnostics{errorDiag("Invalid predecessor", subject, "Layer %q: unknown predecessor id %d.", lb.Name, p)}
		}
		prevs.Insert(p)
	}

	return &placement.Layer{ID: lb.ID, Name: lb.Name, Shape: shape, Prevs: prevs}, nil
}

// checkLayerName rejects names that would not survive a report round trip.
func checkLayerName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("name must not be empty")
	case strings.TrimSpace(name) != name:
		return fmt.Errorf("name must not start or end with whitespace")
	case strings.Contains(name, "|"):
		return fmt.Errorf("name must not contain '|'")
	case strings.IndexFunc(name, unicode.IsControl) >= 0:
		return fmt.Errorf("name must not contain control characters")
	}
	return nil
}

func dims(v []int, attr string, lb *layerBlock) (placement.Dims, hcl.Diagnostics) {
	if len(v) != 3 {
		return placement.Dims{}, hcl.Diagnostics{errorDiag("Invalid "+attr, lb.DefRange.Ptr(), "Layer %q: %s must be [C, H, W].", lb.Name, attr)}
	}
	return placement.Dims{C: v[0], H: v[1], W: v[2]}, nil
}
