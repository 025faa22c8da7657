package dag

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[int]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id int) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = &node{
		id:         id,
		dependents: make(map[int]struct{}),
	}
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID int) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %d -> %d", fromID, fromID)
	}

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %d", fromID)
	}
	if _, ok := g.nodes[toID]; !ok {
		return fmt.Errorf("destination node not found: %d", toID)
	}

	fromNode.dependents[toID] = struct{}{}
	return nil
}

// FindCycle returns the nodes of the first cycle found, in edge order, or nil
// if the graph is acyclic. Roots and edges are visited in ascending id order.
func (g *Graph) FindCycle() []int {
	// Classic three-colour depth-first search: permanent nodes are fully
	// explored, nodes on the stack are in progress.
	permanent := make(map[int]bool)
	onStack := make(map[int]int)
	var stack []int

	var visit func(id int) []int
	visit = func(id int) []int {
		if permanent[id] {
			return nil
		}
		if pos, ok := onStack[id]; ok {
			cycle := make([]int, len(stack)-pos)
			copy(cycle, stack[pos:])
			return cycle
		}

		onStack[id] = len(stack)
		stack = append(stack, id)
		for _, next := range sortedKeys(g.nodes[id].dependents) {
			if cycle := visit(next); cycle != nil {
				return cycle
			}
		}
		stack = stack[:len(stack)-1]
		delete(onStack, id)
		permanent[id] = true
		return nil
	}

	for _, id := range sortedKeys(g.nodes) {
		if cycle := visit(id); cycle != nil {
			return cycle
		}
	}
	return nil
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// naming the nodes of the first cycle found.
func (g *Graph) DetectCycles() error {
	cycle := g.FindCycle()
	if cycle == nil {
		return nil
	}
	return fmt.Errorf("cycle detected: %s", FormatCycle(cycle))
}

// FormatCycle renders a cycle as "a -> b -> c -> a".
func FormatCycle(cycle []int) string {
	if len(cycle) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cycle)+1)
	for _, id := range cycle {
		parts = append(parts, strconv.Itoa(id))
	}
	parts = append(parts, strconv.Itoa(cycle[0]))
	return strings.Join(parts, " -> ")
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
