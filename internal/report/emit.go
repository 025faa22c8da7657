package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/vk/chiplettrace/internal/placement"
	"github.com/vk/chiplettrace/internal/trace"
)

const (
	computationsHeader = "# Layer | Type | IFMAP_H | IFMAP_W | Filter_H | Filter_W | Channels | NumFilters | Stride_H | Stride_W | Extra | Batch | OutputRange"
	operationsHeader   = "# Seq | Type    | Peer | Layer           | Size     | TransferID"
)

// Write renders ft to w.
func Write(w io.Writer, ft *trace.FullTrace) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# Chiplet Simulation Trace")
	fmt.Fprintf(bw, "# Mesh: %dx%d\n", ft.Mesh.Width, ft.Mesh.Height)
	fmt.Fprintf(bw, "# Network: %s\n", ft.Network)
	fmt.Fprintf(bw, "# Total Batch: %d\n", ft.TotalBatch)
	fmt.Fprintf(bw, "# Total Chiplets: %d\n\n", len(ft.Chiplets))

	for _, c := range ft.Chiplets {
		fmt.Fprintf(bw, "===== CHIPLET %d (%d,%d) =====\n\n", c.ID, c.Pos.X, c.Pos.Y)

		fmt.Fprintln(bw, "[COMPUTATIONS]")
		fmt.Fprintln(bw, computationsHeader)
		for _, task := range c.Computations {
			writeComputation(bw, task)
		}

		fmt.Fprintln(bw, "\n[ORDERED_OPERATIONS]")
		fmt.Fprintln(bw, operationsHeader)
		for seq, op := range c.Operations {
			writeOperation(bw, seq, op)
		}
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

func writeComputation(w io.Writer, t trace.ComputationTask) {
	extra := t.Extra
	if extra == "" {
		extra = "-"
	}
	fmt.Fprintf(w, "%s | %s | %d | %d | %d | %d | %d | %d | %d | %d | %s | %s | %s\n",
		t.Layer, t.Type, t.IfmapH, t.IfmapW, t.FilterH, t.FilterW,
		t.Channels, t.NumFilters, t.StrideH, t.StrideW, extra,
		t.Output.B, formatOutputRange(t.Output))
}

func formatOutputRange(r placement.Range) string {
	return "C" + r.C.String() + "H" + r.H.String() + "W" + r.W.String()
}

func writeOperation(w io.Writer, seq int, op trace.Operation) {
	var peer string
	switch op.Peer {
	case trace.PeerDRAM:
		peer = "DRAM"
	case trace.PeerNone:
		peer = "-   "
	default:
		peer = fmt.Sprintf("%4d", op.Peer)
	}
	fmt.Fprintf(w, "%5d | %-7s | %s | %15s | %8d | T%d\n", seq, op.Kind, peer, op.Label, op.Size, op.TransferID)
}
