// Package used for reading, validating, and preprocessing the reference tree
// and gene trees
package prep

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/evolbioinfo/gotree/tree"
	"golang.org/x/sync/errgroup"

	gr "github.com/jsdoublel/gsf/internal/graphs"
)

var (
	ErrUnrooted        = errors.New("not rooted")
	ErrNonBinary       = errors.New("not binary")
	ErrMulTree         = errors.New("contains duplicate labels")
	ErrUnknownOutgroup = errors.New("outgroup not found")
)

// Reroots the reference tree at outgroup and indexes the gene trees against it.
// Returns an error if the reference tree is not valid (duplicate labels, missing
// outgroup, not binary after rerooting) or if a gene tree has duplicate labels.
func Preprocess(tre *tree.Tree, geneTrees []*tree.Tree, outgroup string, nprocs int) (*gr.RefTree, []*gr.PartialTree, error) {
	if err := tre.UpdateTipIndex(); err != nil {
		return nil, nil, fmt.Errorf("reference tree %w", ErrMulTree)
	}
	if _, err := tre.TipIndex(outgroup); err != nil {
		return nil, nil, fmt.Errorf("%w, reference tree has no taxon %s", ErrUnknownOutgroup, outgroup)
	}
	log.Printf("rooting reference tree at %s", outgroup)
	if err := tre.RerootOutGroup(false, true, outgroup); err != nil {
		return nil, nil, fmt.Errorf("could not root reference tree at %s: %w", outgroup, err)
	}
	if err := tre.UpdateTipIndex(); err != nil {
		return nil, nil, fmt.Errorf("reference tree %w", ErrMulTree)
	}
	if !tre.Rooted() {
		return nil, nil, fmt.Errorf("reference tree is %w", ErrUnrooted)
	}
	if !TreeIsBinary(tre) {
		return nil, nil, fmt.Errorf("reference tree is %w", ErrNonBinary)
	}
	ref := gr.MakeRefTree(tre)
	partials, err := indexGeneTrees(geneTrees, ref, nprocs)
	if err != nil {
		return nil, nil, err
	}
	logCoverage(partials, ref)
	return ref, partials, nil
}

// Makes a partial tree view for every gene tree (order is kept)
func indexGeneTrees(geneTrees []*tree.Tree, ref *gr.RefTree, nprocs int) ([]*gr.PartialTree, error) {
	log.Printf("indexing %d gene trees", len(geneTrees))
	partials := make([]*gr.PartialTree, len(geneTrees))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(nprocs, 1))
	for i, gt := range geneTrees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pt, err := gr.NewPartialTree(gt, ref)
			if err != nil {
				return fmt.Errorf("gene tree %d %w: %w", i+1, ErrMulTree, err)
			}
			partials[i] = pt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return partials, nil
}

func logCoverage(partials []*gr.PartialTree, ref *gr.RefTree) {
	withForeign, complete := 0, 0
	for _, pt := range partials {
		if pt.Foreign() > 0 {
			withForeign++
		}
		if int(pt.Present().Count()) == ref.NLeaves {
			complete++
		}
	}
	if len(partials) == 0 {
		log.Println("WARNING: no gene trees provided; every node will have 0 decisive gene trees")
		return
	}
	log.Printf("%d gene trees provided, %d contain every reference taxon\n", len(partials), complete)
	if withForeign > 0 {
		log.Printf("WARNING: %d gene trees contain taxa missing from the reference tree; they cannot be congruent with nodes they intrude on\n", withForeign)
	}
}

func TreeIsBinary(tre *tree.Tree) bool {
	if !tre.Rooted() {
		return false
	}
	root := tre.Root()
	if root.Nneigh() != 2 {
		panic("tree is not rooted (even though it is??)")
	}
	return isBinary(root.Neigh()[0], root) && isBinary(root.Neigh()[1], root)
}

func isBinary(node, prev *tree.Node) bool {
	if node.Tip() {
		return true
	}
	if node.Nneigh() != 3 {
		return false
	}
	for _, n := range node.Neigh() {
		if n != prev && !isBinary(n, node) {
			return false
		}
	}
	return true
}

// Logs message every time count passes another percent (integer) of total
func LogEveryNPercent(count, percent, total int, message string) {
	if total <= 0 || percent <= 0 {
		return
	}
	step := max(total*percent/100, 1)
	if count%step == 0 || count == total {
		log.Print(message)
	}
}
