package placement

import "fmt"

// Position is a chiplet coordinate on the mesh.
type Position struct {
	X int
	Y int
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Mesh describes the chiplet grid. Linear chiplet indices are row-major:
// index = y*Width + x.
type Mesh struct {
	Width  int
	Height int
}

// MaxChiplets bounds the number of chiplets a mesh may hold.
const MaxChiplets = 1 << 16

// Validate rejects meshes with a non-positive side or more than MaxChiplets
// chiplets.
func (m Mesh) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return fmt.Errorf("mesh dimensions must be positive, got %dx%d", m.Width, m.Height)
	}
	if m.Width > MaxChiplets/m.Height {
		return fmt.Errorf("mesh %dx%d exceeds %d chiplets", m.Width, m.Height, MaxChiplets)
	}
	return nil
}

// Size returns the number of chiplets on the mesh.
func (m Mesh) Size() int {
	if m.Width <= 0 || m.Height <= 0 {
		return 0
	}
	return m.Width * m.Height
}

// Index maps a position to its linear chiplet index. The second result is
// false when the position lies outside the mesh.
func (m Mesh) Index(p Position) (int, bool) {
	if p.X < 0 || p.Y < 0 || p.X >= m.Width || p.Y >= m.Height {
		return 0, false
	}
	return p.Y*m.Width + p.X, true
}

// Position is the inverse of Index.
func (m Mesh) Position(index int) Position {
	return Position{X: index % m.Width, Y: index / m.Width}
}

// Interval is the half-open range [From, To).
type Interval struct {
	From int
	To   int
}

// Len returns the number of elements in the interval; inverted intervals are empty.
func (i Interval) Len() int {
	if i.To <= i.From {
		return 0
	}
	return i.To - i.From
}

// Shift returns the interval moved by offset.
func (i Interval) Shift(offset int) Interval {
	return Interval{From: i.From + offset, To: i.To + offset}
}

func (i Interval) String() string {
	return fmt.Sprintf("[%d,%d)", i.From, i.To)
}

// Range is a four-dimensional output sub-range: batch, channel, height, width.
type Range struct {
	B Interval
	C Interval
	H Interval
	W Interval
}

// Volume returns the number of data elements in the range.
func (r Range) Volume() int64 {
	return int64(r.B.Len()) * int64(r.C.Len()) * int64(r.H.Len()) * int64(r.W.Len())
}

// IsEmpty reports whether the range holds no elements.
func (r Range) IsEmpty() bool {
	return r.Volume() == 0
}

// Partition is one destination sub-range of a layer's output and the chiplet
// that produces it.
type Partition struct {
	Range Range
	Tile  Position
}
