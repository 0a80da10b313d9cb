package graphs

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Three-way partition of the reference taxa induced by a node: taxa under its
// first child, taxa under the sibling of that child, and every other taxon
// (the outgroup candidates)
type Split struct {
	One       *bitset.BitSet
	Other     *bitset.BitSet
	Outgroups *bitset.BitSet
}

// Computes the split of a node. Returns an error if the node is a tip, a
// polytomy, or if the sides do not partition the taxa.
func (rt *RefTree) ComputeSplit(id NodeID) (Split, error) {
	rt.mustExist(id)
	children := rt.children[id]
	switch {
	case len(children) == 0:
		return Split{}, fmt.Errorf("%w, %s", ErrNotInternal, rt.Label(id))
	case len(children) != 2:
		return Split{}, fmt.Errorf("%w, %s has %d children", ErrPolytomy, rt.Label(id), len(children))
	}
	one := rt.leafsets[children[0]].Clone()
	other := rt.leafsets[rt.sibling(children[0], id)].Clone()
	s := Split{
		One:       one,
		Other:     other,
		Outgroups: rt.all.Difference(one.Union(other)),
	}
	if err := s.Check(rt.all); err != nil {
		return Split{}, fmt.Errorf("%w at node %s", err, rt.Label(id))
	}
	return s, nil
}

// Finds node's sibling under parent p -- assumes binary node
func (rt *RefTree) sibling(id, p NodeID) NodeID {
	for _, c := range rt.children[p] {
		if c != id {
			return c
		}
	}
	panic("failed to find node sibling")
}

// Verifies that the sides are non-empty, pairwise disjoint, and that together
// they cover taxa exactly
func (s Split) Check(taxa *bitset.BitSet) error {
	switch {
	case s.One == nil || s.Other == nil || s.Outgroups == nil:
		return fmt.Errorf("%w, missing side", ErrBrokenPartition)
	case s.One.None() || s.Other.None():
		return fmt.Errorf("%w, empty side", ErrBrokenPartition)
	case s.One.IntersectionCardinality(s.Other) != 0,
		s.One.IntersectionCardinality(s.Outgroups) != 0,
		s.Other.IntersectionCardinality(s.Outgroups) != 0:
		return fmt.Errorf("%w, sides overlap", ErrBrokenPartition)
	}
	union := s.One.Union(s.Other).Union(s.Outgroups)
	if union.SymmetricDifferenceCardinality(taxa) != 0 {
		return fmt.Errorf("%w, union of sides is not the taxon set", ErrBrokenPartition)
	}
	return nil
}
