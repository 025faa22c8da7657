package report

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/vk/chiplettrace/internal/placement"
	"github.com/vk/chiplettrace/internal/trace"
)

var (
	chipletRegex  = regexp.MustCompile(`^===== CHIPLET (\d+) \((\d+),(\d+)\) =====$`)
	meshRegex     = regexp.MustCompile(`^(\d+)x(\d+)$`)
	intervalRegex = regexp.MustCompile(`^\[(-?\d+),(-?\d+)\)$`)
	outRangeRegex = regexp.MustCompile(`^C\[(-?\d+),(-?\d+)\)H\[(-?\d+),(-?\d+)\)W\[(-?\d+),(-?\d+)\)$`)
)

type section int

const (
	sectionNone section = iota
	sectionComputations
	sectionOperations
)

// parser holds the state of a single Parse call.
type parser struct {
	ft      *trace.FullTrace
	header  map[string]string
	current *trace.ChipletTrace
	section section
	seen    map[int]bool
}

// Parse reads a report produced by Write. Chiplet blocks may appear in any
// order but every id must lie on the declared mesh.
func Parse(r io.Reader) (*trace.FullTrace, error) {
	p := &parser{header: make(map[string]string), seen: make(map[int]bool)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := p.line(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	if p.ft == nil {
		if err := p.start(); err != nil {
			return nil, err
		}
	}
	return p.ft, nil
}

func (p *parser) line(line string) error {
	switch {
	case line == "":
		return nil
	case strings.HasPrefix(line, "===== CHIPLET"):
		return p.chiplet(line)
	case line == "[COMPUTATIONS]":
		p.section = sectionComputations
		return nil
	case line == "[ORDERED_OPERATIONS]":
		p.section = sectionOperations
		return nil
	case strings.HasPrefix(line, "#"):
		if p.ft == nil {
			if key, value, ok := strings.Cut(strings.TrimPrefix(line, "#"), ":"); ok {
				p.header[strings.TrimSpace(key)] = strings.TrimSpace(value)
			}
		}
		return nil
	}

	if p.current == nil {
		return fmt.Errorf("unexpected content outside a chiplet block: %q", line)
	}
	switch p.section {
	case sectionComputations:
		task, err := parseComputation(line)
		if err != nil {
			return err
		}
		p.current.Computations = append(p.current.Computations, task)
	case sectionOperations:
		op, seq, err := parseOperation(line)
		if err != nil {
			return err
		}
		if seq != len(p.current.Operations) {
			return fmt.Errorf("operation sequence %d out of order, expected %d", seq, len(p.current.Operations))
		}
		p.current.Operations = append(p.current.Operations, op)
	default:
		return fmt.Errorf("content before a section marker: %q", line)
	}
	return nil
}

// start builds the empty trace from the header lines seen so far.
func (p *parser) start() error {
	m := meshRegex.FindStringSubmatch(p.header["Mesh"])
	if m == nil {
		return fmt.Errorf("missing or invalid mesh header %q", p.header["Mesh"])
	}
	mesh := placement.Mesh{Width: atoi(m[1]), Height: atoi(m[2])}
	if err := mesh.Validate(); err != nil {
		return fmt.Errorf("invalid mesh header %q: %w", p.header["Mesh"], err)
	}

	batch := 0
	if v, ok := p.header["Total Batch"]; ok {
		var err error
		if batch, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("invalid total batch %q: %w", v, err)
		}
	}
	p.ft = trace.New(mesh, p.header["Network"], batch)

	if v, ok := p.header["Total Chiplets"]; ok && v != strconv.Itoa(mesh.Size()) {
		return fmt.Errorf("header declares %s chiplets but mesh %dx%d has %d", v, mesh.Width, mesh.Height, mesh.Size())
	}
	return nil
}

func (p *parser) chiplet(line string) error {
	if p.ft == nil {
		if err := p.start(); err != nil {
			return err
		}
	}
	m := chipletRegex.FindStringSubmatch(line)
	if m == nil {
		return fmt.Errorf("malformed chiplet header %q", line)
	}
	id := atoi(m[1])
	if id >= len(p.ft.Chiplets) {
		return fmt.Errorf("chiplet %d is not on the %dx%d mesh", id, p.ft.Mesh.Width, p.ft.Mesh.Height)
	}
	pos := placement.Position{X: atoi(m[2]), Y: atoi(m[3])}
	if pos != p.ft.Chiplets[id].Pos {
		return fmt.Errorf("chiplet %d declared at %s, expected %s", id, pos, p.ft.Chiplets[id].Pos)
	}
	if p.seen[id] {
		return fmt.Errorf("duplicate chiplet block %d", id)
	}
	p.seen[id] = true
	p.current = &p.ft.Chiplets[id]
	p.section = sectionNone
	return nil
}

func splitRow(line string, want int) ([]string, error) {
	parts := strings.Split(line, "|")
	if len(parts) != want {
		return nil, fmt.Errorf("expected %d columns, got %d", want, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func parseComputation(line string) (trace.ComputationTask, error) {
	var task trace.ComputationTask
	parts, err := splitRow(line, 13)
	if err != nil {
		return task, err
	}

	task.Layer = parts[0]
	task.Type = parts[1]
	fields := []*int{&task.IfmapH, &task.IfmapW, &task.FilterH, &task.FilterW, &task.Channels, &task.NumFilters, &task.StrideH, &task.StrideW}
	for i, dst := range fields {
		if *dst, err = strconv.Atoi(parts[2+i]); err != nil {
			return task, fmt.Errorf("column %d: %w", 3+i, err)
		}
	}
	if parts[10] != "-" {
		task.Extra = parts[10]
	}

	b := intervalRegex.FindStringSubmatch(parts[11])
	if b == nil {
		return task, fmt.Errorf("malformed batch range %q", parts[11])
	}
	o := outRangeRegex.FindStringSubmatch(parts[12])
	if o == nil {
		return task, fmt.Errorf("malformed output range %q", parts[12])
	}
	task.Output = placement.Range{
		B: placement.Interval{From: atoi(b[1]), To: atoi(b[2])},
		C: placement.Interval{From: atoi(o[1]), To: atoi(o[2])},
		H: placement.Interval{From: atoi(o[3]), To: atoi(o[4])},
		W: placement.Interval{From: atoi(o[5]), To: atoi(o[6])},
	}
	return task, nil
}

func parseOperation(line string) (trace.Operation, int, error) {
	var op trace.Operation
	parts, err := splitRow(line, 6)
	if err != nil {
		return op, 0, err
	}

	seq, err := strconv.Atoi(parts[0])
	if err != nil {
		return op, 0, fmt.Errorf("invalid sequence number: %w", err)
	}

	switch parts[1] {
	case "RECV":
		op.Kind = trace.OpRecv
	case "COMPUTE":
		op.Kind = trace.OpCompute
	case "SEND":
		op.Kind = trace.OpSend
	default:
		return op, 0, fmt.Errorf("unknown operation type %q", parts[1])
	}

	switch parts[2] {
	case "DRAM":
		op.Peer = trace.PeerDRAM
	case "-":
		op.Peer = trace.PeerNone
	default:
		if op.Peer, err = strconv.Atoi(parts[2]); err != nil || op.Peer < 0 {
			return op, 0, fmt.Errorf("invalid peer %q", parts[2])
		}
	}

	op.Label = parts[3]
	if op.Size, err = strconv.ParseInt(parts[4], 10, 64); err != nil {
		return op, 0, fmt.Errorf("invalid size: %w", err)
	}

	tid, ok := strings.CutPrefix(parts[5], "T")
	if !ok {
		return op, 0, fmt.Errorf("invalid transfer id %q", parts[5])
	}
	if op.TransferID, err = strconv.Atoi(tid); err != nil {
		return op, 0, fmt.Errorf("invalid transfer id %q: %w", parts[5], err)
	}
	return op, seq, nil
}

// atoi converts a string already validated by a digits-only regex. Values
// too large for an int saturate, so range checks downstream still reject them.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
