// Package report renders a trace as the fixed textual layout consumed by the
// downstream chiplet simulator, and parses that layout back.
//
// The operation table's sequence number is the chiplet's program order and
// is written exactly as the trace stores it.
package report
