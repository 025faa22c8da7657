package hclload

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "network", LabelNames: []string{"name"}},
		{Type: "layer", LabelNames: []string{"name"}},
		{Type: "schedule"},
	},
}

// groupSchema is shared by `schedule` and `group`; the schedule is the
// outermost group.
var groupSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "batch_groups"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "group"},
		{Type: "leaf", LabelNames: []string{"layer"}},
	},
}

var leafSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "direct"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "output"},
	},
}

var outputSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "tile", Required: true},
		{Name: "b", Required: true},
		{Name: "c", Required: true},
		{Name: "h", Required: true},
		{Name: "w", Required: true},
	},
}

// networkBlock is decoded with gohcl; the label is filled in by the loader.
type networkBlock struct {
	Name       string
	TotalBatch int `hcl:"total_batch"`
	MeshWidth  int `hcl:"mesh_width,optional"`
	MeshHeight int `hcl:"mesh_height,optional"`
}

type layerBlock struct {
	Name   string
	ID     int    `hcl:"id"`
	Kind   string `hcl:"kind"`
	Ifmap  []int  `hcl:"ifmap"`
	Ofmap  []int  `hcl:"ofmap"`
	Filter []int  `hcl:"filter,optional"`
	Stride []int  `hcl:"stride,optional"`
	Groups int    `hcl:"groups,optional"`
	Inputs int    `hcl:"inputs,optional"`
	Prevs  []int  `hcl:"prevs,optional"`

	DefRange hcl.Range
}

// evalContext exposes the network block to every expression in the files.
func evalContext(n *networkBlock) *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"network": cty.ObjectVal(map[string]cty.Value{
				"name":        cty.StringVal(n.Name),
				"total_batch": cty.NumberIntVal(int64(n.TotalBatch)),
				"mesh_width":  cty.NumberIntVal(int64(n.MeshWidth)),
				"mesh_height": cty.NumberIntVal(int64(n.MeshHeight)),
			}),
		},
	}
}

// decodeInts evaluates expr as a list of whole numbers. When want is
// positive the list must have exactly that many elements.
func decodeInts(expr hcl.Expression, ctx *hcl.EvalContext, want int) ([]int, hcl.Diagnostics) {
	val, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() || !val.IsWhollyKnown() {
		return nil, hcl.Diagnostics{errorDiag("Invalid value", expr.Range().Ptr(), "A list of numbers is required.")}
	}

	list, err := convert.Convert(val, cty.List(cty.Number))
	if err != nil {
		return nil, hcl.Diagnostics{errorDiag("Invalid value", expr.Range().Ptr(), "A list of numbers is required: %s.", err)}
	}
	var out []int
	if err := gocty.FromCtyValue(list, &out); err != nil {
		return nil, hcl.Diagnostics{errorDiag("Invalid value", expr.Range().Ptr(), "%s.", err)}
	}
	if want > 0 && len(out) != want {
		return nil, hcl.Diagnostics{errorDiag("Invalid value", expr.Range().Ptr(), "Expected %d elements, got %d.", want, len(out))}
	}
	return out, diags
}
