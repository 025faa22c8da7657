package verifier

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/vk/chiplettrace/internal/ctxlog"
	"github.com/vk/chiplettrace/internal/dag"
	"github.com/vk/chiplettrace/internal/trace"
)

// Blocked is a chiplet that could not make progress and the operation at the
// head of its queue.
type Blocked struct {
	Chiplet int
	Head    trace.Operation
}

// Result is the outcome of a verification.
type Result struct {
	Feasible bool
	// Executed counts the operations drained before the run ended.
	Executed int
	// Remaining counts the operations left when a deadlock was found.
	Remaining int
	// Blocked lists every chiplet with a non-empty queue at deadlock, in
	// index order.
	Blocked []Blocked
	// Cycle is the circular wait among blocked chiplets, if one exists.
	Cycle []int
}

// WriteDiagnostics writes one line per blocked chiplet. It writes nothing for
// a feasible result.
func (r Result) WriteDiagnostics(w io.Writer) error {
	if r.Feasible {
		return nil
	}
	if _, err := fmt.Fprintln(w, "[Deadlock] Unable to match any operation at head:"); err != nil {
		return err
	}
	for _, b := range r.Blocked {
		if _, err := fmt.Fprintf(w, "  Chip %d: %s\n", b.Chiplet, b.Head); err != nil {
			return err
		}
	}
	if len(r.Cycle) > 0 {
		if _, err := fmt.Fprintf(w, "  Circular wait: %s\n", dag.FormatCycle(r.Cycle)); err != nil {
			return err
		}
	}
	return nil
}

// Verify checks the operation queues of ft.
func Verify(ctx context.Context, ft *trace.FullTrace) Result {
	return VerifyQueues(ctx, ft.Queues())
}

// VerifyQueues checks the given queues. The slices are copied before use.
func VerifyQueues(ctx context.Context, queues [][]trace.Operation) Result {
	logger := ctxlog.FromContext(ctx)

	ops := make([][]trace.Operation, len(queues))
	remaining := 0
	for i, q := range queues {
		ops[i] = slices.Clone(q)
		remaining += len(q)
	}
	heads := make([]int, len(ops))
	executed := 0

	for remaining > 0 {
		n := step(ops, heads)
		if n == 0 {
			res := deadlock(ops, heads, executed, remaining)
			logger.Warn("Trace may contain deadlocks.", "blocked_chiplets", len(res.Blocked), "remaining_operations", remaining)
			for _, b := range res.Blocked {
				logger.Warn("Blocked chiplet.", "chiplet", b.Chiplet, "head", b.Head.String())
			}
			if len(res.Cycle) > 0 {
				logger.Warn("Circular wait.", "cycle", dag.FormatCycle(res.Cycle))
			}
			return res
		}
		executed += n
		remaining -= n
	}

	logger.Debug("Trace is deadlock-free.", "operations", executed)
	return Result{Feasible: true, Executed: executed}
}

// step executes the first executable head and returns how many operations
// it popped: 1 for a COMPUTE or external-memory transfer, 2 for a matched
// pair, 0 when nothing can run.
func step(ops [][]trace.Operation, heads []int) int {
	for i := range ops {
		if heads[i] >= len(ops[i]) {
			continue
		}
		op := ops[i][heads[i]]
		if op.Kind == trace.OpCompute || op.Peer < 0 {
			heads[i]++
			return 1
		}
		p := op.Peer
		if p < len(ops) && heads[p] < len(ops[p]) && op.Matches(ops[p][heads[p]]) {
			heads[i]++
			heads[p]++
			return 2
		}
	}
	return 0
}

func deadlock(ops [][]trace.Operation, heads []int, executed, remaining int) Result {
	res := Result{Executed: executed, Remaining: remaining}
	waits := dag.New()
	for i := range ops {
		if heads[i] >= len(ops[i]) {
			continue
		}
		head := ops[i][heads[i]]
		res.Blocked = append(res.Blocked, Blocked{Chiplet: i, Head: head})
		waits.AddNode(i)
	}
	selfWait := -1
	for _, b := range res.Blocked {
		p := b.Head.Peer
		if p < 0 || p >= len(ops) || heads[p] >= len(ops[p]) {
			continue
		}
		if p == b.Chiplet {
			if selfWait < 0 {
				selfWait = p
			}
			continue
		}
		// Both ends are blocked nodes and distinct, so AddEdge cannot fail.
		_ = waits.AddEdge(b.Chiplet, p)
	}
	res.Cycle = waits.FindCycle()
	if res.Cycle == nil && selfWait >= 0 {
		res.Cycle = []int{selfWait}
	}
	return res
}
