// Package generator turns a placement tree into per-chiplet programs.
//
// Generation runs two passes over the same traversal (placement.Tree.Walk).
// The first collects, for every chiplet, the computation contributions it
// owns. The second appends, for every non-empty output partition, the
// RECEIVE operations that bring its inputs in (from another chiplet or from
// external memory) followed by a COMPUTE, and the matching SEND on each
// source chiplet.
//
// Transfer ids come from a counter owned by one generation run. Two runs over
// the same tree produce identical traces.
package generator
