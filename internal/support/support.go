package support

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	gr "github.com/jsdoublel/gsf/internal/graphs"
	pr "github.com/jsdoublel/gsf/internal/prep"
)

// Results for one reference tree node
type NodeStats struct {
	ID        gr.NodeID // pre-order position in the reference tree
	Label     string    // e.g. {A,B}|{C,D}
	Split     gr.Split
	Trees     []int // decisive gene trees (indices), in input order
	Decisive  int   // number of decisive gene trees
	Congruent int   // number of decisive gene trees that are congruent
}

// Fraction of decisive gene trees that are congruent (0 if there are none)
func (ns NodeStats) CongruentFrac() float64 {
	if ns.Decisive == 0 {
		return 0
	}
	return float64(ns.Congruent) / float64(ns.Decisive)
}

// Calculates decisive sets and congruence counts for every reference node with
// more than one leaf below it. Results are in pre-order. Nodes are processed
// in parallel (nprocs); the reference and gene trees are only read.
func Analyze(ref *gr.RefTree, partials []*gr.PartialTree, nprocs int) ([]NodeStats, error) {
	nodes := ref.Qualifying()
	log.Printf("testing %d nodes against %d gene trees", len(nodes), len(partials))
	splits, err := computeSplits(ref, nodes)
	if err != nil {
		return nil, err
	}
	results := make([]NodeStats, len(nodes))
	var done atomic.Int64
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(max(nprocs, 1))
	for i, id := range nodes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			set := DecisiveSet(partials, splits[i])
			results[i] = NodeStats{
				ID:        id,
				Label:     ref.Label(id),
				Split:     splits[i],
				Trees:     set,
				Decisive:  len(set),
				Congruent: CountCongruent(partials, set, splits[i]),
			}
			count := int(done.Add(1))
			pr.LogEveryNPercent(count, 10, len(nodes), fmt.Sprintf("tested node %d of %d", count, len(nodes)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Computes each split once, before any gene tree is tested
func computeSplits(ref *gr.RefTree, nodes []gr.NodeID) ([]gr.Split, error) {
	splits := make([]gr.Split, len(nodes))
	for i, id := range nodes {
		s, err := ref.ComputeSplit(id)
		if err != nil {
			return nil, fmt.Errorf("reference tree node %d: %w", id, err)
		}
		splits[i] = s
	}
	return splits, nil
}

// Indices of the gene trees decisive for split, in input order
func DecisiveSet(partials []*gr.PartialTree, s gr.Split) []int {
	set := make([]int, 0)
	for i, pt := range partials {
		if IsDecisive(pt, s) {
			set = append(set, i)
		}
	}
	return set
}

// Number of gene trees (indices from set) congruent with split
func CountCongruent(partials []*gr.PartialTree, set []int, s gr.Split) int {
	count := 0
	for _, i := range set {
		if IsCongruent(partials[i], s) {
			count++
		}
	}
	return count
}
