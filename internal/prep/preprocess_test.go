package prep

import (
	"errors"
	"strings"
	"testing"

	"github.com/evolbioinfo/gotree/io/newick"
	"github.com/evolbioinfo/gotree/tree"

	gr "github.com/jsdoublel/gsf/internal/graphs"
)

func parseTrees(t *testing.T, nwks ...string) []*tree.Tree {
	t.Helper()
	trees := make([]*tree.Tree, len(nwks))
	for i, nwk := range nwks {
		tre, err := newick.NewParser(strings.NewReader(nwk)).Parse()
		if err != nil {
			t.Fatalf("invalid newick in test: %v", err)
		}
		trees[i] = tre
	}
	return trees
}

func TestPreprocess(t *testing.T) {
	testCases := []struct {
		name        string
		tre         string
		geneTrees   []string
		outgroup    string
		expectedErr error
	}{
		{
			name:      "basic",
			tre:       "((A,B),(C,D),(E,F));",
			geneTrees: []string{"(A,C,E,F);", "((A,B),(C,D),(E,F));"},
			outgroup:  "E",
		},
		{
			name:      "already rooted at outgroup",
			tre:       "(E,(F,((A,B),(C,D))));",
			geneTrees: []string{"(A,C,E,F);"},
			outgroup:  "E",
		},
		{
			name:        "unknown outgroup",
			tre:         "((A,B),(C,D),(E,F));",
			geneTrees:   []string{"(A,C,E,F);"},
			outgroup:    "Z",
			expectedErr: ErrUnknownOutgroup,
		},
		{
			name:        "duplicate reference labels",
			tre:         "((A,B),(A,D),(E,F));",
			geneTrees:   []string{"(A,C,E,F);"},
			outgroup:    "E",
			expectedErr: ErrMulTree,
		},
		{
			name:        "duplicate gene tree labels",
			tre:         "((A,B),(C,D),(E,F));",
			geneTrees:   []string{"(A,C,E,F);", "((A,B),(A,D),(E,F));"},
			outgroup:    "E",
			expectedErr: gr.ErrDuplicateTaxon,
		},
		{
			name:        "polytomy",
			tre:         "((A,B,C),(D,E),F);",
			geneTrees:   []string{"(A,C,E,F);"},
			outgroup:    "F",
			expectedErr: ErrNonBinary,
		},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			tre := parseTrees(t, test.tre)[0]
			ref, partials, err := Preprocess(tre, parseTrees(t, test.geneTrees...), test.outgroup, 2)
			switch {
			case !errors.Is(err, test.expectedErr):
				t.Fatalf("failed with unexpected error %+v", err)
			case err != nil:
				t.Logf("%s", err)
				return
			}
			root := ref.Root()
			if root.Nneigh() != 2 {
				t.Fatalf("reference root has %d neighbors", root.Nneigh())
			}
			foundOutgroup := false
			for _, n := range root.Neigh() {
				foundOutgroup = foundOutgroup || (n.Tip() && n.Name() == test.outgroup)
			}
			if !foundOutgroup {
				t.Errorf("reference tree not rooted at %s: %s", test.outgroup, ref.Newick())
			}
			if len(partials) != len(test.geneTrees) {
				t.Fatalf("%d partial trees, expected %d", len(partials), len(test.geneTrees))
			}
			for i, pt := range partials {
				if pt.Tree() == nil || len(pt.Tree().AllTipNames()) != int(pt.Present().Count())+pt.Foreign() {
					t.Errorf("gene tree %d indexed incorrectly", i+1)
				}
			}
		})
	}
}

func TestTreeIsBinary(t *testing.T) {
	testCases := []struct {
		name     string
		tre      string
		expected bool
	}{
		{name: "binary", tre: "((A,B),(C,D));", expected: true},
		{name: "unrooted", tre: "(A,B,(C,D));", expected: false},
		{name: "polytomy", tre: "((A,B,C),D);", expected: false},
		{name: "deep polytomy", tre: "(((A,B,C),D),E);", expected: false},
		{name: "caterpillar", tre: "((((A,B),C),D),E);", expected: true},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			if result := TreeIsBinary(parseTrees(t, test.tre)[0]); result != test.expected {
				t.Errorf("TreeIsBinary(%s) = %t, expected %t", test.tre, result, test.expected)
			}
		})
	}
}

func TestPreprocessFiles(t *testing.T) {
	testCases := []struct {
		name        string
		treeFile    string
		outgroup    string
		expectedErr error
	}{
		{name: "basic", treeFile: "testdata/reference.nwk", outgroup: "E"},
		{name: "duplicate labels", treeFile: "testdata/duplicate.nwk", outgroup: "E", expectedErr: ErrMulTree},
		{name: "polytomy", treeFile: "testdata/polytomy.nwk", outgroup: "F", expectedErr: ErrNonBinary},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			tre, geneTrees, err := ReadInputFiles(test.treeFile, "testdata/genetrees.nwk", Newick)
			if err != nil {
				t.Fatalf("unexpected error reading files %s", err)
			}
			ref, partials, err := Preprocess(tre, geneTrees.Trees, test.outgroup, 1)
			switch {
			case !errors.Is(err, test.expectedErr):
				t.Fatalf("failed with unexpected error %+v", err)
			case err != nil:
				t.Logf("%s", err)
				return
			}
			if ref.NLeaves != 6 || len(partials) != 3 {
				t.Errorf("expected 6 taxa and 3 gene trees, got %d and %d", ref.NLeaves, len(partials))
			}
		})
	}
}
