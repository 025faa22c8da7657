package generator

import (
	"context"

	"github.com/vk/chiplettrace/internal/ctxlog"
	"github.com/vk/chiplettrace/internal/placement"
	"github.com/vk/chiplettrace/internal/trace"
)

// genContext is the state of a single generation run: the trace being
// assembled and the transfer id counter. It is threaded through both passes
// and discarded when Generate returns.
type genContext struct {
	ctx            context.Context
	tree           *placement.Tree
	trace          *trace.FullTrace
	nextTransferID int
	skipped        int
}

// Generate builds the full trace for tree. The tree is not modified.
func Generate(ctx context.Context, tree *placement.Tree) *trace.FullTrace {
	logger := ctxlog.FromContext(ctx)
	gc := &genContext{
		ctx:   ctx,
		tree:  tree,
		trace: trace.New(tree.Mesh, tree.Network.Name, tree.TotalBatch),
	}

	logger.Debug("Collecting computations.", "chiplets", len(gc.trace.Chiplets))
	tree.Walk(gc.collectComputations)

	logger.Debug("Collecting transfers.")
	tree.Walk(gc.collectTransfers)

	logger.Info("Trace generated.",
		"chiplets", len(gc.trace.Chiplets),
		"operations", gc.trace.OperationCount(),
		"transfers", gc.nextTransferID,
		"unmapped_lookups", gc.skipped,
	)
	return gc.trace
}

// allocTransferID hands out the next transfer id of this run.
func (gc *genContext) allocTransferID() int {
	id := gc.nextTransferID
	gc.nextTransferID++
	return id
}

// chipletFor resolves a partition to a chiplet index. Empty partitions and
// positions outside the mesh are skipped.
func (gc *genContext) chipletFor(layer string, part placement.Partition) (int, bool) {
	if part.Range.IsEmpty() {
		return 0, false
	}
	idx, ok := gc.tree.Mesh.Index(part.Tile)
	if !ok {
		// TODO: surface unmapped positions to the caller once the mapper
		// contract says whether they are legal.
		gc.skipped++
		ctxlog.FromContext(gc.ctx).Debug("Skipping partition on unmapped chiplet.", "layer", layer, "pos", part.Tile.String())
		return 0, false
	}
	return idx, true
}

func (gc *genContext) collectComputations(leaf *placement.Leaf, batchOffset int) {
	base := taskFor(leaf.Layer)
	for _, part := range leaf.Outputs {
		idx, ok := gc.chipletFor(leaf.Name(), part)
		if !ok {
			continue
		}
		task := base
		task.Output = part.Range
		task.Output.B = part.Range.B.Shift(batchOffset)
		chip := &gc.trace.Chiplets[idx]
		chip.Computations = append(chip.Computations, task)
	}
}

func (gc *genContext) collectTransfers(leaf *placement.Leaf, batchOffset int) {
	name := leaf.Name()
	prevs := leaf.Prevs()
	firstID := gc.nextTransferID

	for _, part := range leaf.Outputs {
		to, ok := gc.chipletFor(name, part)
		if !ok {
			continue
		}
		ifmapSize := part.Range.Volume() * trace.ElementSize

		if prevs.Empty() {
			gc.emit(to, trace.Recv(trace.PeerDRAM, name+"_ifmap", ifmapSize, gc.allocTransferID()))
		}
		prevs.Each(func(prev int) {
			prevLeaf, ok := gc.tree.Leaf(prev)
			if !ok {
				return
			}
			if !leaf.IsDirect(prev) {
				gc.emit(to, trace.Recv(trace.PeerDRAM, name+"_ifmap", ifmapSize, gc.allocTransferID()))
				return
			}
			gc.collectDirect(prevLeaf, name, to)
		})

		gc.emit(to, trace.Compute(name))
	}

	ctxlog.FromContext(gc.ctx).Debug("Leaf transfers collected.",
		"layer", name,
		"batch_offset", batchOffset,
		"first_tid", firstID,
		"allocated", gc.nextTransferID-firstID,
	)
}

// collectDirect pairs a RECV on chiplet `to` with a SEND on every other
// chiplet holding a piece of prev's output. The size is the volume of the
// source partition.
func (gc *genContext) collectDirect(prev *placement.Leaf, name string, to int) {
	prevName := prev.Name()
	for _, src := range prev.Outputs {
		from, ok := gc.chipletFor(prevName, src)
		if !ok {
			continue
		}
		size := src.Range.Volume() * trace.ElementSize
		if from == to || size <= 0 {
			continue
		}
		tid := gc.allocTransferID()
		gc.emit(to, trace.Recv(from, name+"_from_"+prevName, size, tid))
		gc.emit(from, trace.Send(to, prevName+"_to_"+name, size, tid))
	}
}

func (gc *genContext) emit(chiplet int, op trace.Operation) {
	chip := &gc.trace.Chiplets[chiplet]
	chip.Operations = append(chip.Operations, op)
}
