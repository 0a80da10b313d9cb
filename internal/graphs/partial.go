package graphs

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/evolbioinfo/gotree/tree"
)

var ErrDuplicateTaxon = errors.New("duplicate taxon")

// Read-only view of a gene tree relative to the reference taxa. Queries never
// reroot or otherwise modify the underlying gotree structure.
type PartialTree struct {
	tre     *tree.Tree
	ref     *RefTree
	present *bitset.BitSet // reference taxa in the gene tree
	foreign int            // number of gene tree taxa missing from the reference
	lca     func(tips ...string) (*tree.Node, []*tree.Edge, bool, error)
}

// Makes view of gene tree; returns an error if a label appears twice.
func NewPartialTree(gtre *tree.Tree, ref *RefTree) (*PartialTree, error) {
	pt := &PartialTree{
		tre:     gtre,
		ref:     ref,
		present: bitset.New(uint(ref.NLeaves)),
	}
	seen := make(map[string]bool)
	for _, t := range gtre.Tips() {
		if seen[t.Name()] {
			return nil, fmt.Errorf("%w %s", ErrDuplicateTaxon, t.Name())
		}
		seen[t.Name()] = true
		if i, ok := ref.TaxonIndex(t.Name()); ok {
			pt.present.Set(i)
		} else {
			pt.foreign++
		}
	}
	index, err := tree.NewNodeIndex(gtre)
	if err != nil {
		return nil, err
	}
	pt.lca = func(tips ...string) (*tree.Node, []*tree.Edge, bool, error) {
		return gtre.LeastCommonAncestorRooted(index, tips...)
	}
	return pt, nil
}

// Reference taxa contained in the gene tree (do not modify)
func (pt *PartialTree) Present() *bitset.BitSet {
	return pt.present
}

// Number of gene tree taxa that are not in the reference tree
func (pt *PartialTree) Foreign() int {
	return pt.foreign
}

func (pt *PartialTree) Tree() *tree.Tree {
	return pt.tre
}

// Reports whether taxa (reference tip indices, all present in the gene tree)
// form a clade of the gene tree as rooted. At a multifurcating common ancestor
// only the children holding taxa count, since an unresolved node may be refined
// in any way; any other tip below those children (including taxa missing from
// the reference) breaks the clade. A single taxon is always a clade.
func (pt *PartialTree) Monophyletic(taxa *bitset.BitSet) bool {
	k := taxa.IntersectionCardinality(pt.present)
	if k != taxa.Count() {
		panic(fmt.Sprintf("taxa %s not all present in gene tree", pt.ref.SetString(taxa)))
	}
	switch k {
	case 0:
		return false
	case 1:
		return true
	}
	names := make([]string, 0, k)
	for i, ok := taxa.NextSet(0); ok; i, ok = taxa.NextSet(i + 1) {
		names = append(names, pt.ref.TaxonName(i))
	}
	_, _, mono, err := pt.lca(names...)
	if err != nil {
		panic(fmt.Sprintf("common ancestor of %s: %s", pt.ref.SetString(taxa), err))
	}
	return mono
}
