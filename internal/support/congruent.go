package support

import (
	gr "github.com/jsdoublel/gsf/internal/graphs"
)

// A gene tree is congruent with a split if the MRCA of its taxa from both sides
// contains nothing else, i.e., no outgroup (or unknown) taxon is nested inside.
// The MRCA is taken in the gene tree as rooted. Trees without taxa from either
// side are never congruent.
func IsCongruent(pt *gr.PartialTree, s gr.Split) bool {
	present := pt.Present()
	both := s.One.Intersection(present).Union(s.Other.Intersection(present))
	if both.None() {
		return false
	}
	return pt.Monophyletic(both)
}
