package hclload

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/vk/chiplettrace/internal/layerset"
	"github.com/vk/chiplettrace/internal/placement"
)

// treeDecoder turns the `schedule` block into placement nodes. Children are
// kept in source order.
type treeDecoder struct {
	ctx     *hcl.EvalContext
	network *placement.Network
	byName  map[string]*placement.Layer
	leaves  int
}

func (d *treeDecoder) layer(name string) (*placement.Layer, bool) {
	if d.byName == nil {
		d.byName = make(map[string]*placement.Layer)
		for _, l := range d.network.Layers() {
			d.byName[l.Name] = l
		}
	}
	l, ok := d.byName[name]
	return l, ok
}

func (d *treeDecoder) group(body hcl.Body) (*placement.Group, hcl.Diagnostics) {
	content, diags := body.Content(groupSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	g := &placement.Group{BatchGroups: 1}
	if attr, ok := content.Attributes["batch_groups"]; ok {
		if diags := gohcl.DecodeExpression(attr.Expr, d.ctx, &g.BatchGroups); diags.HasErrors() {
			return nil, diags
		}
		if g.BatchGroups < 1 {
			return nil, hcl.Diagnostics{errorDiag("Invalid batch_groups", attr.Expr.Range().Ptr(), "batch_groups must be at least 1, got %d.", g.BatchGroups)}
		}
	}

	for _, block := range content.Blocks {
		var child placement.Node
		switch block.Type {
		case "group":
			child, diags = d.group(block.Body)
		case "leaf":
			child, diags = d.leaf(block)
		}
		if diags.HasErrors() {
			return nil, diags
		}
		g.Children = append(g.Children, child)
	}
	return g, nil
}

func (d *treeDecoder) leaf(block *hcl.Block) (*placement.Leaf, hcl.Diagnostics) {
	name := block.Labels[0]
	layer, ok := d.layer(name)
	if !ok {
		return nil, hcl.Diagnostics{errorDiag("Unknown layer", block.LabelRanges[0].Ptr(), "No layer named %q is defined.", name)}
	}

	content, diags := block.Body.Content(leafSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	leaf := &placement.Leaf{Layer: layer}
	if attr, ok := content.Attributes["direct"]; ok {
		ids, diags := decodeInts(attr.Expr, d.ctx, 0)
		if diags.HasErrors() {
			return nil, diags
		}
		for _, id := range ids {
			if id < 0 || id > layerset.MaxID {
				return nil, hcl.Diagnostics{errorDiag("Invalid direct predecessor", attr.Expr.Range().Ptr(), "Layer %d is not a predecessor of %q (prevs %s).", id, name, layer.Prevs)}
			}
		}
		direct := layerset.Of(ids...)
		if !direct.SubsetOf(layer.Prevs) {
			return nil, hcl.Diagnostics{errorDiag("Invalid direct predecessor", attr.Expr.Range().Ptr(), "Direct predecessors %s of %q are not among its prevs %s.", direct, name, layer.Prevs)}
		}
		leaf.Direct = direct
	}

	for _, out := range content.Blocks {
		part, diags := d.partition(out.Body)
		if diags.HasErrors() {
			return nil, diags
		}
		leaf.Outputs = append(leaf.Outputs, part)
	}

	d.leaves++
	return leaf, nil
}

func (d *treeDecoder) partition(body hcl.Body) (placement.Partition, hcl.Diagnostics) {
	var part placement.Partition
	content, diags := body.Content(outputSchema)
	if diags.HasErrors() {
		return part, diags
	}

	tile, diags := decodeInts(content.Attributes["tile"].Expr, d.ctx, 2)
	if diags.HasErrors() {
		return part, diags
	}
	part.Tile = placement.Position{X: tile[0], Y: tile[1]}

	for _, dim := range []struct {
		name string
		dst  *placement.Interval
	}{
		{"b", &part.Range.B},
		{"c", &part.Range.C},
		{"h", &part.Range.H},
		{"w", &part.Range.W},
	} {
		bounds, diags := decodeInts(content.Attributes[dim.name].Expr, d.ctx, 2)
		if diags.HasErrors() {
			return part, diags
		}
		*dim.dst = placement.Interval{From: bounds[0], To: bounds[1]}
	}
	return part, nil
}
