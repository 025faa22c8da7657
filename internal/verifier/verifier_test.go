package verifier

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/chiplettrace/internal/ctxlog"
	"github.com/vk/chiplettrace/internal/placement"
	"github.com/vk/chiplettrace/internal/trace"
)

func traceOf(queues ...[]trace.Operation) *trace.FullTrace {
	ft := trace.New(placement.Mesh{Width: len(queues), Height: 1}, "", 1)
	for i, q := range queues {
		ft.Chiplets[i].Operations = q
	}
	return ft
}

func TestVerify_CircularWaitIsInfeasible(t *testing.T) {
	ft := traceOf(
		[]trace.Operation{trace.Send(1, "x", 8, 0), trace.Recv(1, "y", 8, 1)},
		[]trace.Operation{trace.Send(0, "y", 8, 1), trace.Recv(0, "x", 8, 0)},
	)

	res := Verify(context.Background(), ft)

	assert.False(t, res.Feasible)
	assert.Equal(t, 4, res.Remaining)
	require.Len(t, res.Blocked, 2)
	assert.Equal(t, Blocked{Chiplet: 0, Head: trace.Send(1, "x", 8, 0)}, res.Blocked[0])
	assert.Equal(t, Blocked{Chiplet: 1, Head: trace.Send(0, "y", 8, 1)}, res.Blocked[1])
	assert.Equal(t, []int{0, 1}, res.Cycle)
}

func TestVerify_ReorderedQueueIsFeasible(t *testing.T) {
	ft := traceOf(
		[]trace.Operation{trace.Send(1, "x", 8, 0), trace.Recv(1, "y", 8, 1)},
		[]trace.Operation{trace.Recv(0, "x", 8, 0), trace.Send(0, "y", 8, 1)},
	)

	res := Verify(context.Background(), ft)

	assert.True(t, res.Feasible)
	assert.Equal(t, 4, res.Executed)
	assert.Empty(t, res.Blocked)
}

func TestVerify_SingleExternalLoadIsFeasible(t *testing.T) {
	ft := traceOf([]trace.Operation{
		trace.Recv(trace.PeerDRAM, "conv1_ifmap", 64, 0),
		trace.Compute("conv1"),
	})
	res := Verify(context.Background(), ft)
	assert.True(t, res.Feasible)
	assert.Equal(t, 2, res.Executed)
}

func TestVerify_ExternalMemoryNeverBlocks(t *testing.T) {
	orders := [][]trace.Operation{
		{trace.Compute("a"), trace.Recv(trace.PeerDRAM, "a_ifmap", 8, 0), trace.Compute("b")},
		{trace.Recv(trace.PeerDRAM, "b_ifmap", 8, 1), trace.Recv(trace.PeerDRAM, "b_ifmap", 8, 2)},
		{},
		{trace.Compute("c")},
	}
	assert.True(t, VerifyQueues(context.Background(), orders).Feasible)

	reordered := [][]trace.Operation{orders[3], orders[1], orders[0]}
	assert.True(t, VerifyQueues(context.Background(), reordered).Feasible)
}

func TestVerify_EmptyTraceIsFeasible(t *testing.T) {
	assert.True(t, VerifyQueues(context.Background(), nil).Feasible)
	assert.True(t, Verify(context.Background(), traceOf(nil, nil)).Feasible)
}

func TestVerify_WaitingOnFinishedChipletHasNoCycle(t *testing.T) {
	ft := traceOf(
		[]trace.Operation{trace.Recv(1, "x", 8, 0)},
		[]trace.Operation{trace.Compute("done")},
	)
	res := Verify(context.Background(), ft)

	assert.False(t, res.Feasible)
	assert.Equal(t, 1, res.Executed)
	require.Len(t, res.Blocked, 1)
	assert.Nil(t, res.Cycle)
}

func TestVerify_SelfAddressedHeadIsOneNodeCycle(t *testing.T) {
	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))
	ft := traceOf(
		[]trace.Operation{trace.Compute("a")},
		[]trace.Operation{trace.Send(1, "x", 8, 0), trace.Recv(1, "x", 8, 0)},
	)

	res := Verify(ctx, ft)

	assert.False(t, res.Feasible)
	assert.Equal(t, 1, res.Executed)
	require.Len(t, res.Blocked, 1)
	assert.Equal(t, []int{1}, res.Cycle)
	assert.Contains(t, logs.String(), `cycle="1 -> 1"`)

	var out bytes.Buffer
	require.NoError(t, res.WriteDiagnostics(&out))
	assert.Contains(t, out.String(), "  Circular wait: 1 -> 1\n")
}

func TestVerify_PeerOffMeshBlocks(t *testing.T) {
	res := VerifyQueues(context.Background(), [][]trace.Operation{{trace.Send(7, "x", 8, 0)}})
	assert.False(t, res.Feasible)
}

func TestVerify_DoesNotMutateTrace(t *testing.T) {
	ops0 := []trace.Operation{trace.Send(1, "x", 8, 0), trace.Compute("a")}
	ops1 := []trace.Operation{trace.Recv(0, "x", 8, 0)}
	ft := traceOf(ops0, ops1)
	before := ft.Clone()

	require.True(t, Verify(context.Background(), ft).Feasible)
	assert.Equal(t, before, ft)
}

func TestVerify_LogsBlockedChiplets(t *testing.T) {
	var logs bytes.Buffer
	ctx := ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&logs, nil)))
	ft := traceOf(
		[]trace.Operation{trace.Send(1, "x", 8, 0), trace.Recv(1, "y", 8, 1)},
		[]trace.Operation{trace.Send(0, "y", 8, 1), trace.Recv(0, "x", 8, 0)},
	)

	Verify(ctx, ft)

	assert.Contains(t, logs.String(), "Trace may contain deadlocks.")
	assert.Contains(t, logs.String(), `head="SEND peer=0 tid=1"`)
	assert.Contains(t, logs.String(), `cycle="0 -> 1 -> 0"`)
}

func TestResult_WriteDiagnostics(t *testing.T) {
	res := Result{
		Blocked: []Blocked{
			{Chiplet: 0, Head: trace.Send(1, "x", 8, 0)},
			{Chiplet: 1, Head: trace.Recv(0, "y", 8, 3)},
		},
		Cycle: []int{0, 1},
	}
	var out bytes.Buffer
	require.NoError(t, res.WriteDiagnostics(&out))
	assert.Equal(t, "[Deadlock] Unable to match any operation at head:\n"+
		"  Chip 0: SEND peer=1 tid=0\n"+
		"  Chip 1: RECV peer=0 tid=3\n"+
		"  Circular wait: 0 -> 1 -> 0\n", out.String())

	out.Reset()
	require.NoError(t, Result{Feasible: true}.WriteDiagnostics(&out))
	assert.Empty(t, out.String())
}

func TestEliminatePairs(t *testing.T) {
	t.Run("resolvable trace", func(t *testing.T) {
		ft := traceOf(
			[]trace.Operation{trace.Recv(trace.PeerDRAM, "a", 8, 0), trace.Compute("a"), trace.Send(1, "a_to_b", 8, 1)},
			[]trace.Operation{trace.Recv(0, "b_from_a", 8, 1), trace.Compute("b"), trace.Send(0, "b_to_c", 8, 2)},
		)
		ft.Chiplets[0].Operations = append(ft.Chiplets[0].Operations, trace.Recv(1, "c_from_b", 8, 2))

		assert.Equal(t, PairStats{Eliminated: 2, Remaining: 0}, EliminatePairs(ft))
		assert.Len(t, ft.Chiplets[0].Operations, 4, "input trace is untouched")
	})

	t.Run("circular wait leaves operations", func(t *testing.T) {
		ft := traceOf(
			[]trace.Operation{trace.Send(1, "x", 8, 0), trace.Recv(1, "y", 8, 1)},
			[]trace.Operation{trace.Send(0, "y", 8, 1), trace.Recv(0, "x", 8, 0)},
		)
		assert.Equal(t, PairStats{Eliminated: 0, Remaining: 4}, EliminatePairs(ft))
	})
}
