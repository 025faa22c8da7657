// Package layerset provides an ordered set of small non-negative integers,
// used to hold the ids of a layer's predecessor layers.
package layerset

import (
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// MaxID is the largest id a Set can hold. Callers reading ids from input
// must reject larger values before inserting them.
const MaxID = 1<<16 - 1

// Set is a set of layer ids. The zero value is an empty set ready to use.
// Iteration is always in ascending id order.
type Set struct {
	bits *bitset.BitSet
}

// Of returns a set holding the given ids.
func Of(ids ...int) Set {
	var s Set
	for _, id := range ids {
		s.Insert(id)
	}
	return s
}

// Insert adds id to the set.
func (s *Set) Insert(id int) {
	if id < 0 || id > MaxID {
		panic("layerset: id out of range " + strconv.Itoa(id))
	}
	if s.bits == nil {
		s.bits = bitset.New(uint(id) + 1)
	}
	s.bits.Set(uint(id))
}

// Contains reports whether id is a member of the set.
func (s Set) Contains(id int) bool {
	if s.bits == nil || id < 0 {
		return false
	}
	return s.bits.Test(uint(id))
}

// Len returns the number of ids in the set.
func (s Set) Len() int {
	if s.bits == nil {
		return 0
	}
	return int(s.bits.Count())
}

// Empty reports whether the set has no members.
func (s Set) Empty() bool {
	return s.Len() == 0
}

// Each calls fn for every id in ascending order.
func (s Set) Each(fn func(id int)) {
	if s.bits == nil {
		return
	}
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		fn(int(i))
	}
}

// IDs returns the members in ascending order.
func (s Set) IDs() []int {
	ids := make([]int, 0, s.Len())
	s.Each(func(id int) { ids = append(ids, id) })
	return ids
}

// SubsetOf reports whether every member of s is also in other.
func (s Set) SubsetOf(other Set) bool {
	subset := true
	s.Each(func(id int) {
		if !other.Contains(id) {
			subset = false
		}
	})
	return subset
}

// String renders the set as "()", "(3,)" or "(1,4,7)".
func (s Set) String() string {
	ids := s.IDs()
	switch len(ids) {
	case 0:
		return "()"
	case 1:
		return "(" + strconv.Itoa(ids[0]) + ",)"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return "(" + strings.Join(parts, ",") + ")"
}
