package verifier

import "github.com/vk/chiplettrace/internal/trace"

// PairStats summarises a pair elimination run.
type PairStats struct {
	// Eliminated is the number of SEND/RECV pairs removed.
	Eliminated int
	// Remaining is the number of chip-to-chip operations left afterwards.
	Remaining int
}

// EliminatePairs drops COMPUTE and external-memory operations from a copy of
// ft, then repeatedly removes a SEND at the head of chiplet A together with
// the RECV at the head of its peer B, provided that RECV names A as its peer
// and carries the same transfer id. Only SEND-led pairs are considered. A
// trace whose chip-to-chip traffic is fully resolvable ends with Remaining 0.
func EliminatePairs(ft *trace.FullTrace) PairStats {
	queues := ft.WithoutCompute().WithoutExternal().Queues()

	var stats PairStats
	for eliminatePair(queues) {
		stats.Eliminated++
	}
	for _, q := range queues {
		stats.Remaining += len(q)
	}
	return stats
}

func eliminatePair(queues [][]trace.Operation) bool {
	for i, q := range queues {
		if len(q) == 0 || q[0].Kind != trace.OpSend {
			continue
		}
		p := q[0].Peer
		if p < 0 || p >= len(queues) || len(queues[p]) == 0 {
			continue
		}
		head := queues[p][0]
		if head.Kind == trace.OpRecv && head.Peer == i && head.TransferID == q[0].TransferID {
			queues[i] = q[1:]
			queues[p] = queues[p][1:]
			return true
		}
	}
	return false
}
