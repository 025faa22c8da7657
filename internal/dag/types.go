package dag

// Graph is a collection of nodes and their directed edges. Iteration order
// is always ascending by id, so every query is reproducible.
type Graph struct {
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[int]*node
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using ids),
// not by direct struct manipulation.
type node struct {
	id int
	// dependents holds the ids of the nodes that depend on this node (edge targets).
	dependents map[int]struct{}
}
