// Package placement models the read-only output of the upstream mapper: a
// recursively partitioned placement tree that says, for every layer of a
// network, which sub-range of its output each chiplet of a 2-D mesh computes.
//
// The tree has exactly two node kinds. A *Leaf places one layer; a *Group
// replicates its ordered children over a number of batch groups. Node is a
// closed interface, so a type switch over those two cases is exhaustive.
//
// Trees are built once (usually by the hclload package) and never mutated
// afterwards. Walk is the single traversal shared by every consumer.
package placement
