// Package trace holds the per-chiplet program produced by the generator: an
// unordered list of computation contributions and an ordered queue of
// RECEIVE / COMPUTE / SEND operations per chiplet.
//
// Queue order is the program order. Nothing downstream of the generator may
// reorder it; helpers in this package that filter operations return copies.
package trace
