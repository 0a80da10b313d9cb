// Package containing the tree structures used by gsf: the rerooted reference
// tree, the splits induced by its nodes, and read-only views of gene trees
package graphs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/evolbioinfo/gotree/tree"
)

var (
	ErrPolytomy        = errors.New("node is a polytomy")
	ErrNotInternal     = errors.New("node is not internal")
	ErrBrokenPartition = errors.New("split does not partition the taxa")
	ErrUnknownNode     = errors.New("unknown node")
)

// Position of a node in the pre-order enumeration of the reference tree
type NodeID int

// Reference tree with per-node data computed once after rerooting
type RefTree struct {
	tree.Tree
	preorder []*tree.Node     // nodes in pre-order (index = NodeID)
	children [][]NodeID       // children of each node
	leafsets []*bitset.BitSet // taxa under each node
	all      *bitset.BitSet   // every taxon
	names    []string         // taxon name by tip index
	taxa     map[string]uint  // tip index by taxon name
	NLeaves  int              // number of leaves
}

// Preprocess the (already rerooted) reference tree. The tip index must be up
// to date, see prep.Preprocess.
func MakeRefTree(tre *tree.Tree) *RefTree {
	preorder, children := enumerate(tre)
	names, taxa := tipNames(tre)
	n := len(names)
	all := bitset.New(uint(n))
	for i := range n {
		all.Set(uint(i))
	}
	return &RefTree{
		Tree:     *tre,
		preorder: preorder,
		children: children,
		leafsets: calcLeafsets(preorder, children, n),
		all:      all,
		names:    names,
		taxa:     taxa,
		NLeaves:  n,
	}
}

// Lists nodes in pre-order and the children of each one (as gotree only stores
// neighbors)
func enumerate(tre *tree.Tree) ([]*tree.Node, [][]NodeID) {
	preorder := make([]*tree.Node, 0)
	ids := make(map[*tree.Node]NodeID)
	parents := make([]NodeID, 0)
	tre.PreOrder(func(cur, prev *tree.Node, e *tree.Edge) (keep bool) {
		ids[cur] = NodeID(len(preorder))
		preorder = append(preorder, cur)
		if prev == nil {
			parents = append(parents, -1)
		} else {
			parents = append(parents, ids[prev])
		}
		return true
	})
	children := make([][]NodeID, len(preorder))
	for i, p := range parents {
		if p >= 0 {
			children[p] = append(children[p], NodeID(i))
		}
	}
	return preorder, children
}

func tipNames(tre *tree.Tree) ([]string, map[string]uint) {
	tips := tre.Tips()
	names := make([]string, len(tips))
	taxa := make(map[string]uint, len(tips))
	for _, t := range tips {
		names[t.TipIndex()] = t.Name()
		taxa[t.Name()] = uint(t.TipIndex())
	}
	return names, taxa
}

// Calculates the leafset for every node; children always follow their parent
// in pre-order, so walking backwards visits them first
func calcLeafsets(preorder []*tree.Node, children [][]NodeID, nLeaves int) []*bitset.BitSet {
	leafsets := make([]*bitset.BitSet, len(preorder))
	for i := len(preorder) - 1; i >= 0; i-- {
		leafsets[i] = bitset.New(uint(nLeaves))
		if preorder[i].Tip() {
			leafsets[i].Set(uint(preorder[i].TipIndex()))
			continue
		}
		for _, c := range children[i] {
			leafsets[i].InPlaceUnion(leafsets[c])
		}
	}
	return leafsets
}

// Number of nodes in the tree
func (rt *RefTree) NumNodes() int {
	return len(rt.preorder)
}

// Nodes with more than one leaf below them, in pre-order
func (rt *RefTree) Qualifying() []NodeID {
	result := make([]NodeID, 0, rt.NumNodes()-rt.NLeaves)
	for i, ls := range rt.leafsets {
		if ls.Count() > 1 {
			result = append(result, NodeID(i))
		}
	}
	return result
}

func (rt *RefTree) node(id NodeID) *tree.Node {
	rt.mustExist(id)
	return rt.preorder[id]
}

func (rt *RefTree) Children(id NodeID) []NodeID {
	rt.mustExist(id)
	return rt.children[id]
}

// Taxa under node (do not modify)
func (rt *RefTree) Leafset(id NodeID) *bitset.BitSet {
	rt.mustExist(id)
	return rt.leafsets[id]
}

// Every taxon of the reference tree (do not modify)
func (rt *RefTree) Taxa() *bitset.BitSet {
	return rt.all
}

// Tip index of taxon, false if the reference tree does not contain it
func (rt *RefTree) TaxonIndex(name string) (uint, bool) {
	i, ok := rt.taxa[name]
	return i, ok
}

func (rt *RefTree) TaxonName(i uint) string {
	return rt.names[i]
}

// Names of the taxa in the set, in tip index order
func (rt *RefTree) Names(set *bitset.BitSet) []string {
	names := make([]string, 0, set.Count())
	for i, ok := set.NextSet(0); ok; i, ok = set.NextSet(i + 1) {
		names = append(names, rt.names[i])
	}
	return names
}

// Returns set as string for printing/testing, e.g. {A,B}
func (rt *RefTree) SetString(set *bitset.BitSet) string {
	return "{" + strings.Join(rt.Names(set), ",") + "}"
}

// Stable label for a node, the two sides of its split (e.g. {A,B}|{C,D}). Tips
// are labeled by name.
func (rt *RefTree) Label(id NodeID) string {
	if n := rt.node(id); n.Tip() {
		return n.Name()
	}
	sides := make([]string, len(rt.children[id]))
	for i, c := range rt.children[id] {
		sides[i] = rt.SetString(rt.leafsets[c])
	}
	return strings.Join(sides, "|")
}

func (rt *RefTree) mustExist(id NodeID) {
	if id < 0 || int(id) >= len(rt.preorder) {
		panic(fmt.Sprintf("%s %d, tree has %d nodes", ErrUnknownNode, id, len(rt.preorder)))
	}
}
