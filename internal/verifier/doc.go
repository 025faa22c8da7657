// Package verifier decides whether a set of per-chiplet operation queues can
// be drained to completion.
//
// Chip-to-chip transfers are synchronous rendezvous: a SEND and its RECV
// execute together, and only when both sit at the head of their queues.
// COMPUTE operations and transfers with external memory always execute. The
// verifier repeatedly executes the first executable head, scanning chiplets
// in index order, until every queue is empty (feasible) or a full scan makes
// no progress (deadlock). It works on private copies of the queues and never
// modifies the trace it is given.
package verifier
