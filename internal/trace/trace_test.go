package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/vk/chiplettrace/internal/placement"
)

func twoChipTrace(ops0, ops1 []Operation) *FullTrace {
	ft := New(placement.Mesh{Width: 2, Height: 1}, "", 1)
	ft.Chiplets[0].Operations = ops0
	ft.Chiplets[1].Operations = ops1
	return ft
}

func TestOperation_Matches(t *testing.T) {
	send := Send(1, "a_to_b", 64, 7)
	recv := Recv(0, "b_from_a", 64, 7)

	assert.True(t, send.Matches(recv))
	assert.True(t, recv.Matches(send))
	assert.False(t, send.Matches(Send(0, "x", 64, 7)), "same direction never matches")
	assert.False(t, recv.Matches(Recv(1, "x", 64, 7)), "same direction never matches")
	assert.False(t, send.Matches(Recv(0, "x", 64, 8)), "different transfer id")
	assert.False(t, Compute("c").Matches(Compute("c")))
}

func TestOperation_Constructors(t *testing.T) {
	c := Compute("conv1")
	assert.Equal(t, OpCompute, c.Kind)
	assert.Equal(t, PeerNone, c.Peer)
	assert.Equal(t, int64(0), c.Size)
	assert.Equal(t, NoTransfer, c.TransferID)
	assert.False(t, c.IsChipToChip())

	assert.False(t, Recv(PeerDRAM, "x", 8, 0).IsChipToChip())
	assert.True(t, Recv(3, "x", 8, 0).IsChipToChip())
	assert.Equal(t, "SEND peer=3 tid=4", Send(3, "x", 8, 4).String())
	assert.Equal(t, "RECV peer=DRAM tid=0", Recv(PeerDRAM, "x", 8, 0).String())
	assert.Equal(t, "COMPUTE peer=- tid=-1", c.String())
}

func TestNew_AssignsIdentityAndPositions(t *testing.T) {
	ft := New(placement.Mesh{Width: 3, Height: 2}, "", 8)
	assert.Equal(t, DefaultNetworkName, ft.Network)
	require.Len(t, ft.Chiplets, 6)
	assert.Equal(t, 4, ft.Chiplets[4].ID)
	assert.Equal(t, placement.Position{X: 1, Y: 1}, ft.Chiplets[4].Pos)
}

func TestQueues_AreIndependentCopies(t *testing.T) {
	ft := twoChipTrace([]Operation{Compute("a")}, nil)
	queues := ft.Queues()
	queues[0][0].Label = "mutated"
	queues[0] = queues[0][1:]

	assert.Equal(t, "a", ft.Chiplets[0].Operations[0].Label)
	assert.Equal(t, 1, ft.OperationCount())
}

func TestFilters_PreserveOrderAndLeaveInputUntouched(t *testing.T) {
	ops := []Operation{
		Recv(PeerDRAM, "a_ifmap", 8, 0),
		Send(1, "a_to_b", 8, 1),
		Compute("a"),
		Recv(1, "a_from_b", 8, 2),
	}
	ft := twoChipTrace(ops, nil)

	noCompute := ft.WithoutCompute()
	assert.Equal(t, []Operation{ops[0], ops[1], ops[3]}, noCompute.Chiplets[0].Operations)

	noExternal := noCompute.WithoutExternal()
	assert.Equal(t, []Operation{ops[1], ops[3]}, noExternal.Chiplets[0].Operations)

	assert.Equal(t, ops, ft.Chiplets[0].Operations)
}

func TestCheckMatching(t *testing.T) {
	t.Run("complete pairing passes", func(t *testing.T) {
		ft := twoChipTrace(
			[]Operation{Recv(PeerDRAM, "a_ifmap", 8, 0), Send(1, "a_to_b", 8, 1), Compute("a")},
			[]Operation{Recv(0, "b_from_a", 8, 1), Compute("b")},
		)
		assert.NoError(t, CheckMatching(ft))
	})

	t.Run("every violation is reported", func(t *testing.T) {
		ft := twoChipTrace(
			[]Operation{
				Send(1, "orphan", 8, 1),
				Send(0, "self", 8, 2),
				Send(5, "off-mesh", 8, 3),
			},
			[]Operation{
				Recv(0, "lonely", 8, 4),
				Send(0, "dup", 8, 6),
				Send(0, "dup", 8, 6),
			},
		)
		err := CheckMatching(ft)
		require.Error(t, err)

		errs := multierr.Errors(err)
		require.Len(t, errs, 5)
		assert.ErrorContains(t, errs[0], "addressed to itself")
		assert.ErrorContains(t, errs[1], "not on the mesh")
		assert.ErrorContains(t, errs[2], "T1 on chiplet 0: SEND has no matching RECV")
		assert.ErrorContains(t, errs[3], "T4 on chiplet 1: RECV has no matching SEND")
		assert.ErrorContains(t, errs[4], "T6 on chiplet 1: duplicate SEND")

		var matchErr *MatchError
		assert.ErrorAs(t, err, &matchErr)
	})

	t.Run("endpoints must address each other", func(t *testing.T) {
		ft := New(placement.Mesh{Width: 3, Height: 1}, "", 1)
		ft.Chiplets[0].Operations = []Operation{Send(1, "x", 8, 9)}
		ft.Chiplets[2].Operations = []Operation{Recv(0, "x", 8, 9)}
		assert.ErrorContains(t, CheckMatching(ft), "endpoints disagree")
	})
}
