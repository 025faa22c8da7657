package hclload

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/chiplettrace/internal/ctxlog"
	"github.com/vk/chiplettrace/internal/fsutil"
	"github.com/vk/chiplettrace/internal/placement"
)

// Loader reads placement trees from .hcl files.
type Loader struct{}

// NewLoader creates a new HCL placement loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found under paths and assembles the placement
// tree they describe.
func (l *Loader) Load(ctx context.Context, paths ...string) (*placement.Tree, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	var files []string
	for _, p := range paths {
		found, err := fsutil.FindFilesByExtension(p, ".hcl")
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var blocks hcl.Blocks
	for _, file := range files {
		f, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		content, diags := f.Body.Content(fileSchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		blocks = append(blocks, content.Blocks...)
	}

	network, err := decodeNetwork(blocks)
	if err != nil {
		return nil, err
	}
	evalCtx := evalContext(network)

	layers, err := decodeLayers(blocks, evalCtx)
	if err != nil {
		return nil, err
	}
	net, err := buildNetwork(network.Name, layers)
	if err != nil {
		return nil, err
	}

	scheduleBlock, diags := findUniqueBlock(blocks, "schedule")
	if diags.HasErrors() {
		return nil, diags
	}
	if scheduleBlock == nil {
		return nil, fmt.Errorf("no schedule block found in %v", paths)
	}

	d := &treeDecoder{ctx: evalCtx, network: net}
	root, diags := d.group(scheduleBlock.Body)
	if diags.HasErrors() {
		return nil, diags
	}

	mesh := placement.Mesh{Width: network.MeshWidth, Height: network.MeshHeight}
	tree := placement.NewTree(net, root, network.TotalBatch, mesh)

	logger.Debug("HCL loading complete.",
		"network", net.Name,
		"layers", len(net.Layers()),
		"leaves", d.leaves,
		"total_batch", network.TotalBatch,
		"mesh", fmt.Sprintf("%dx%d", mesh.Width, mesh.Height),
	)
	return tree, nil
}

func decodeNetwork(blocks hcl.Blocks) (*networkBlock, error) {
	block, diags := findUniqueBlock(blocks, "network")
	if diags.HasErrors() {
		return nil, diags
	}
	if block == nil {
		return nil, fmt.Errorf("no network block found")
	}

	n := &networkBlock{Name: block.Labels[0]}
	if diags := gohcl.DecodeBody(block.Body, nil, n); diags.HasErrors() {
		return nil, diags
	}
	if n.TotalBatch < 1 {
		return nil, hcl.Diagnostics{errorDiag("Invalid total_batch", block.DefRange.Ptr(), "total_batch must be at least 1, got %d.", n.TotalBatch)}
	}
	if n.MeshWidth < 0 || n.MeshHeight < 0 {
		return nil, hcl.Diagnostics{errorDiag("Invalid mesh", block.DefRange.Ptr(), "Mesh dimensions must not be negative.")}
	}
	return n, nil
}

func decodeLayers(blocks hcl.Blocks, evalCtx *hcl.EvalContext) ([]*layerBlock, error) {
	var layers []*layerBlock
	var diags hcl.Diagnostics
	for _, block := range blocks {
		if block.Type != "layer" {
			continue
		}
		lb := &layerBlock{Name: block.Labels[0], DefRange: block.DefRange}
		diags = append(diags, gohcl.DecodeBody(block.Body, evalCtx, lb)...)
		layers = append(layers, lb)
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return layers, nil
}
