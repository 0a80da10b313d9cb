// Package implementing the decisiveness and congruence tests of gene trees
// against the splits of a reference tree, and the per-node driver
package support

import (
	gr "github.com/jsdoublel/gsf/internal/graphs"
)

const minOutgroups = 2 // one outgroup taxon cannot orient the split

// A gene tree is decisive for a split if it has at least one taxon on both
// sides and at least two outgroup candidates.
func IsDecisive(pt *gr.PartialTree, s gr.Split) bool {
	present := pt.Present()
	return s.One.IntersectionCardinality(present) > 0 &&
		s.Other.IntersectionCardinality(present) > 0 &&
		s.Outgroups.IntersectionCardinality(present) >= minOutgroups
}
