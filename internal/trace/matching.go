package trace

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// MatchError describes one violation of the transfer pairing invariant.
type MatchError struct {
	TransferID int
	Chiplet    int
	Reason     string
}

func (e *MatchError) Error() string {
	return fmt.Sprintf("transfer T%d on chiplet %d: %s", e.TransferID, e.Chiplet, e.Reason)
}

type endpoint struct {
	chiplet int
	op      Operation
}

// CheckMatching verifies that every chip-to-chip SEND has exactly one RECV
// with the same transfer id on its peer chiplet, addressed back to the
// sender, and vice versa. Operations whose peer is external memory or no
// peer are exempt. All violations are returned, combined with multierr, in
// transfer id order.
func CheckMatching(ft *FullTrace) error {
	var errs error
	sends := make(map[int][]endpoint)
	recvs := make(map[int][]endpoint)

	for i, c := range ft.Chiplets {
		for _, op := range c.Operations {
			if !op.IsChipToChip() {
				continue
			}
			if op.Peer >= len(ft.Chiplets) {
				errs = multierr.Append(errs, &MatchError{op.TransferID, i, fmt.Sprintf("%s peer %d is not on the mesh", op.Kind, op.Peer)})
				continue
			}
			if op.Peer == i {
				errs = multierr.Append(errs, &MatchError{op.TransferID, i, fmt.Sprintf("%s addressed to itself", op.Kind)})
				continue
			}
			if op.Kind == OpSend {
				sends[op.TransferID] = append(sends[op.TransferID], endpoint{i, op})
			} else {
				recvs[op.TransferID] = append(recvs[op.TransferID], endpoint{i, op})
			}
		}
	}

	for _, tid := range transferIDs(sends, recvs) {
		s, r := sends[tid], recvs[tid]
		switch {
		case len(s) > 1:
			errs = multierr.Append(errs, &MatchError{tid, s[1].chiplet, fmt.Sprintf("duplicate SEND (%d in total)", len(s))})
		case len(r) > 1:
			errs = multierr.Append(errs, &MatchError{tid, r[1].chiplet, fmt.Sprintf("duplicate RECV (%d in total)", len(r))})
		case len(r) == 0:
			errs = multierr.Append(errs, &MatchError{tid, s[0].chiplet, "SEND has no matching RECV"})
		case len(s) == 0:
			errs = multierr.Append(errs, &MatchError{tid, r[0].chiplet, "RECV has no matching SEND"})
		case s[0].op.Peer != r[0].chiplet || r[0].op.Peer != s[0].chiplet:
			errs = multierr.Append(errs, &MatchError{tid, s[0].chiplet, fmt.Sprintf(
				"endpoints disagree: SEND on %d to %d, RECV on %d from %d",
				s[0].chiplet, s[0].op.Peer, r[0].chiplet, r[0].op.Peer)})
		}
	}
	return errs
}

func transferIDs(maps ...map[int][]endpoint) []int {
	seen := make(map[int]struct{})
	var ids []int
	for _, m := range maps {
		for id := range m {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	sort.Ints(ids)
	return ids
}
