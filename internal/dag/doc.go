// Package dag provides a small directed graph over integer ids with
// deterministic cycle detection.
//
// It serves two callers: the placement loader, which rejects networks whose
// predecessor relations loop back on themselves, and the deadlock verifier,
// which turns the heads of blocked chiplet queues into a wait-for graph and
// reports the circular wait it contains.
package dag
