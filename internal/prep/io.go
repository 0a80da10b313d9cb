package prep

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/evolbioinfo/gotree/io/newick"
	"github.com/evolbioinfo/gotree/io/nexus"
	"github.com/evolbioinfo/gotree/tree"
)

var (
	ErrInvalidFile   = errors.New("invalid file")
	ErrInvalidFormat = errors.New("invalid format")
)

// Gene tree file format (-f)
type Format int

const (
	Newick Format = iota // one tree per line
	Nexus                // TREES block
)

var ParseFormat = map[string]Format{
	"newick": Newick,
	"nexus":  Nexus,
}

func (f *Format) Set(s string) error {
	format, ok := ParseFormat[s]
	if !ok {
		return fmt.Errorf("\"%s\" is not a gene tree format, use newick or nexus", s)
	}
	*f = format
	return nil
}

func (f Format) String() string {
	switch f {
	case Newick:
		return "newick"
	case Nexus:
		return "nexus"
	}
	panic(fmt.Sprintf("gene tree format (%d) does not exist", f))
}

// Gene trees in file order, with a name for each one (line number or nexus
// tree name) used in the csv output
type GeneTrees struct {
	Trees []*tree.Tree
	Names []string
}

// Reads the reference tree (-i) and the gene trees (-t). The reference file
// must hold exactly one newick tree; branch lengths, supports and comments are
// dropped from it. A gene tree file without trees is valid, every node then
// has no decisive gene trees.
func ReadInputFiles(treeFile, genetreesFile string, format Format) (*tree.Tree, *GeneTrees, error) {
	defer quietGotree()()
	tre, err := readTreeFile(treeFile)
	if err != nil {
		return nil, nil, err
	}
	genetrees, err := readGeneTreesFile(genetreesFile, format)
	if err != nil {
		return nil, nil, err
	}
	return tre, genetrees, nil
}

// Discards log output while gotree parses (it logs per tree); the returned
// function restores the logger
func quietGotree() func() {
	flags, out := log.Flags(), log.Writer()
	log.SetOutput(io.Discard)
	return func() {
		log.SetOutput(out)
		log.SetFlags(flags)
	}
}

func readTreeFile(treeFile string) (*tree.Tree, error) {
	content, err := os.ReadFile(treeFile)
	if err != nil {
		return nil, fmt.Errorf("error reading reference tree file: %w", err)
	}
	content = bytes.TrimSpace(content)
	if len(content) == 0 || bytes.ContainsRune(content, '\n') {
		return nil, fmt.Errorf("%w, %s must contain exactly one reference tree",
			ErrInvalidFile, treeFile)
	}
	tre, err := newick.NewParser(bytes.NewReader(content)).Parse()
	if err != nil {
		return nil, fmt.Errorf("%w, reference tree in %s: %s", ErrInvalidFormat, treeFile, err)
	}
	tre.ClearLengths(true, true)
	tre.ClearSupports()
	tre.ClearComments()
	return tre, nil
}

// reads gene tree file, one newick tree per line (blank lines are skipped) or a
// nexus file
func readGeneTreesFile(genetreesFile string, format Format) (*GeneTrees, error) {
	file, err := os.Open(genetreesFile)
	if err != nil {
		return nil, fmt.Errorf("error opening %s, %w", genetreesFile, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			panic(fmt.Sprintf("could not close file %s, %s", genetreesFile, err))
		}
	}()
	var genetrees *GeneTrees
	switch format {
	case Newick:
		genetrees, err = parseNewickLines(file, genetreesFile)
	case Nexus:
		genetrees, err = parseNexus(file, genetreesFile)
	default:
		return nil, fmt.Errorf("%w, not a valid file format", ErrInvalidFile)
	}
	if err != nil {
		return nil, err
	}
	return genetrees, nil
}

func parseNewickLines(r io.Reader, filename string) (*GeneTrees, error) {
	geneTreeList := make([]*tree.Tree, 0)
	geneTreeNames := make([]string, 0)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), 1<<30) // gene trees can be long lines
	for i := 1; scanner.Scan(); i++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		genetree, err := newick.NewParser(bytes.NewReader(line)).Parse()
		if err != nil {
			return nil, fmt.Errorf("%w, error reading gene tree on line %d in %s: %s",
				ErrInvalidFormat, i, filename, err.Error())
		}
		geneTreeList = append(geneTreeList, genetree)
		geneTreeNames = append(geneTreeNames, strconv.Itoa(i))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w, error scanning %s: %s", ErrInvalidFile, filename, err.Error())
	}
	return &GeneTrees{Trees: geneTreeList, Names: geneTreeNames}, nil
}

func parseNexus(r io.Reader, filename string) (*GeneTrees, error) {
	nex, err := nexus.NewParser(r).Parse()
	if err != nil {
		return nil, fmt.Errorf("%w, error reading gene tree nexus file %s: %s",
			ErrInvalidFormat, filename, err.Error())
	}
	geneTreeList := make([]*tree.Tree, 0)
	geneTreeNames := make([]string, 0)
	nex.IterateTrees(func(s string, t *tree.Tree) {
		geneTreeList = append(geneTreeList, t)
		geneTreeNames = append(geneTreeNames, s)
	})
	return &GeneTrees{Trees: geneTreeList, Names: geneTreeNames}, nil
}
