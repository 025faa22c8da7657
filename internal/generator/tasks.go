package generator

import (
	"fmt"

	"github.com/vk/chiplettrace/internal/placement"
	"github.com/vk/chiplettrace/internal/trace"
)

// taskFor extracts the report columns of a layer. The switch covers every
// placement.Kind; each branch is a pure function of the shape.
func taskFor(l *placement.Layer) trace.ComputationTask {
	if !l.Shape.Kind.Valid() {
		panic(fmt.Sprintf("generator: unhandled layer kind %v", l.Shape.Kind))
	}
	var task trace.ComputationTask
	switch s := l.Shape; s.Kind {
	case placement.KindConv:
		task = convTask(s)
	case placement.KindGroupConv:
		task = groupConvTask(s)
	case placement.KindFC:
		task = fcTask(s)
	case placement.KindPool:
		task = poolTask(s)
	case placement.KindEltwise:
		task = eltwiseTask(s)
	default:
		task = passThroughTask(s)
	}
	task.Layer = l.Name
	task.Type = l.Shape.Kind.String()
	return task
}

func convTask(s placement.Shape) trace.ComputationTask {
	return trace.ComputationTask{
		IfmapH:     s.Ifmap.H,
		IfmapW:     s.Ifmap.W,
		FilterH:    s.FilterH,
		FilterW:    s.FilterW,
		Channels:   s.Ifmap.C,
		NumFilters: s.Ofmap.C,
		StrideH:    s.StrideH,
		StrideW:    s.StrideW,
	}
}

func groupConvTask(s placement.Shape) trace.ComputationTask {
	task := convTask(s)
	groups := max(s.Groups, 1)
	task.Extra = fmt.Sprintf("G=%d,GC=%d,GK=%d", groups, s.Ifmap.C/groups, s.Ofmap.C/groups)
	return task
}

// fcTask reports the filter as covering the whole input map; the declared
// filter size goes into Extra.
func fcTask(s placement.Shape) trace.ComputationTask {
	return trace.ComputationTask{
		IfmapH:     s.Ifmap.H,
		IfmapW:     s.Ifmap.W,
		FilterH:    s.Ifmap.H,
		FilterW:    s.Ifmap.W,
		Channels:   s.Ifmap.C,
		NumFilters: s.Ofmap.C,
		StrideH:    1,
		StrideW:    1,
		Extra:      fmt.Sprintf("R=%d,S=%d", s.FilterH, s.FilterW),
	}
}

// poolTask reports output channels in both channel columns.
func poolTask(s placement.Shape) trace.ComputationTask {
	return trace.ComputationTask{
		IfmapH:     s.Ifmap.H,
		IfmapW:     s.Ifmap.W,
		FilterH:    s.FilterH,
		FilterW:    s.FilterW,
		Channels:   s.Ofmap.C,
		NumFilters: s.Ofmap.C,
		StrideH:    s.StrideH,
		StrideW:    s.StrideW,
		Extra:      fmt.Sprintf("pool=%dx%d", s.FilterH, s.FilterW),
	}
}

func eltwiseTask(s placement.Shape) trace.ComputationTask {
	task := passThroughTask(s)
	task.Extra = fmt.Sprintf("N=%d", s.Inputs)
	return task
}

// passThroughTask covers layers without a filter: point-to-point,
// transpose, and anything else.
func passThroughTask(s placement.Shape) trace.ComputationTask {
	return trace.ComputationTask{
		IfmapH:     s.Ifmap.H,
		IfmapW:     s.Ifmap.W,
		Channels:   s.Ifmap.C,
		NumFilters: s.Ofmap.C,
		StrideH:    1,
		StrideW:    1,
	}
}
