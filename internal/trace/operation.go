package trace

import "fmt"

// OpKind tags an operation.
type OpKind int

const (
	OpRecv OpKind = iota
	OpCompute
	OpSend
)

// String returns the report name of the kind.
func (k OpKind) String() string {
	switch k {
	case OpRecv:
		return "RECV"
	case OpCompute:
		return "COMPUTE"
	case OpSend:
		return "SEND"
	}
	return fmt.Sprintf("OpKind(%d)", int(k))
}

// Peer sentinels. Any non-negative peer is a chiplet index.
const (
	PeerDRAM = -1
	PeerNone = -2
)

// NoTransfer is the transfer id carried by COMPUTE operations.
const NoTransfer = -1

// ElementSize is the number of bytes per data element.
const ElementSize = 8

// Operation is one step of a chiplet's program.
type Operation struct {
	Kind OpKind
	// Peer is a chiplet index, PeerDRAM or PeerNone.
	Peer int
	// Label names the layer (and the related layer for transfers).
	Label string
	// Size is the payload in bytes; zero for COMPUTE.
	Size int64
	// TransferID pairs a SEND with its RECV.
	TransferID int
}

// Recv builds a RECEIVE operation.
func Recv(peer int, label string, size int64, tid int) Operation {
	return Operation{Kind: OpRecv, Peer: peer, Label: label, Size: size, TransferID: tid}
}

// Send builds a SEND operation.
func Send(peer int, label string, size int64, tid int) Operation {
	return Operation{Kind: OpSend, Peer: peer, Label: label, Size: size, TransferID: tid}
}

// Compute builds a COMPUTE operation.
func Compute(label string) Operation {
	return Operation{Kind: OpCompute, Peer: PeerNone, Label: label, TransferID: NoTransfer}
}

// Matches reports whether o and other are the two ends of one transfer: a
// SEND and a RECV carrying the same transfer id. Two operations of the same
// direction never match.
func (o Operation) Matches(other Operation) bool {
	switch {
	case o.Kind == OpSend && other.Kind == OpRecv,
		o.Kind == OpRecv && other.Kind == OpSend:
		return o.TransferID == other.TransferID
	}
	return false
}

// IsChipToChip reports whether the operation is a transfer with another chiplet.
func (o Operation) IsChipToChip() bool {
	return o.Kind != OpCompute && o.Peer >= 0
}

// PeerString renders the peer the way the report does, without padding.
func (o Operation) PeerString() string {
	switch o.Peer {
	case PeerDRAM:
		return "DRAM"
	case PeerNone:
		return "-"
	}
	return fmt.Sprintf("%d", o.Peer)
}

func (o Operation) String() string {
	return fmt.Sprintf("%s peer=%s tid=%d", o.Kind, o.PeerString(), o.TransferID)
}
