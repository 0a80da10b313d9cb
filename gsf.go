/*
gsf (Gene tree Support Frequencies) annotates each node of a reference tree
with the number of gene trees (possibly missing taxa) that are decisive for
it, and the number of those decisive gene trees that are congruent with it.

usage: gsf [ -f <format> | -c <csv> | -p <prefix> | -n <int> | -h | -v ] -i <tree> -t <gene_trees> -o <outgroup>

A gene tree is decisive for a node if it contains at least one taxon from each
side of the node and at least two taxa outside of it. It is congruent if the
most recent common ancestor of its taxa from both sides contains no other taxa.

flags:

	-c file
	  	also write per-node results to csv file
	-f format
	  	gene tree format [ newick | nexus ] (default "newick")
	-h	prints this message and exits
	-i tree
	  	reference newick tree containing all taxa
	-n int
	  	number of parallel processes
	-o taxon
	  	outgroup taxon used to root the reference tree
	-p prefix
	  	also write bar plot of results to <prefix>.png
	-t gene_trees
	  	gene tree file (one newick tree per line)
	-v	prints version number and exits

example:

	gsf -i species.nwk -t gene-trees.nwk -o Outgroup > gsf.txt 2> log.txt
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"

	gr "github.com/jsdoublel/gsf/internal/graphs"
	pr "github.com/jsdoublel/gsf/internal/prep"
	"github.com/jsdoublel/gsf/internal/report"
	"github.com/jsdoublel/gsf/internal/support"
)

const (
	Version    = "v1.0.0"
	ErrMessage = "gsf encountered an error ::"
)

type args struct {
	treeFile     string    // reference tree file
	geneTreeFile string    // gene trees
	outgroup     string    // taxon to root reference tree with
	gtFormat     pr.Format // gene tree file format
	csvFile      string    // optional csv output
	plotPrefix   string    // optional plot output
	nprocs       int       // number of parallel processes
}

func setNProcs(nprocs int) int {
	maxProcs := runtime.GOMAXPROCS(0)
	switch {
	case nprocs > maxProcs:
		log.Printf("%d is greater than available processes (%d); limit set to %d\n", nprocs, maxProcs, maxProcs)
		return maxProcs
	case nprocs <= 0:
		log.Printf("number of processes not set; defaulting to %d processes\n", maxProcs)
		return maxProcs
	default:
		return nprocs
	}
}

func parseArgs() args {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr,
			"usage: gsf [ -f <format> | -c <csv> | -p <prefix> | -n <int> | -h | -v ] -i <tree> -t <gene_trees> -o <outgroup>\n",
			"\n",
			"flags:\n\n",
		)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr,
			"\n",
			"example:\n\n",
			"\tgsf -i species.nwk -t gene-trees.nwk -o Outgroup > gsf.txt 2> log.txt\n",
		)
	}
	format := pr.Newick
	flag.Var(&format, "f", "gene tree `format` [ newick | nexus ] (default \"newick\")")
	treeFile := flag.String("i", "", "reference newick `tree` containing all taxa")
	geneTreeFile := flag.String("t", "", "gene tree file (one newick tree per line)")
	outgroup := flag.String("o", "", "outgroup `taxon` used to root the reference tree")
	csvFile := flag.String("c", "", "also write per-node results to csv `file`")
	plotPrefix := flag.String("p", "", "also write bar plot of results to <`prefix`>.png")
	help := flag.Bool("h", false, "prints this message and exits")
	ver := flag.Bool("v", false, "prints version number and exits")
	nprocs := flag.Int("n", 0, "number of parallel processes")
	flag.Parse()
	if *help {
		flag.Usage()
		os.Exit(0)
	}
	if *ver {
		fmt.Printf("gsf version %s\n", Version)
		os.Exit(0)
	}
	if flag.NArg() != 0 {
		parserError(fmt.Sprintf("unexpected positional arguments %v", flag.Args()))
	}
	if *treeFile == "" || *geneTreeFile == "" || *outgroup == "" {
		parserError("-i, -t, and -o are all required")
	}
	return args{
		treeFile:     *treeFile,
		geneTreeFile: *geneTreeFile,
		outgroup:     *outgroup,
		gtFormat:     format,
		csvFile:      *csvFile,
		plotPrefix:   *plotPrefix,
		nprocs:       setNProcs(*nprocs),
	}
}

// prints message, usage, and exits (status code 1)
func parserError(message string) {
	fmt.Fprintln(os.Stderr, message)
	flag.Usage()
	os.Exit(1)
}

func writeCSV(stats []support.NodeStats, ref *gr.RefTree, names []string, csvFile string) (err error) {
	log.Printf("writing csv to %s", csvFile)
	f, err := os.Create(csvFile)
	if err != nil {
		return fmt.Errorf("%w, %s", report.ErrWritingFile, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w, %s", report.ErrWritingFile, cerr)
		}
	}()
	return report.WriteStatsToCSV(stats, ref, names, f)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("gsf version %s", Version)
	args := parseArgs()
	tre, geneTrees, err := pr.ReadInputFiles(args.treeFile, args.geneTreeFile, args.gtFormat)
	if err != nil {
		log.Fatalf("%s %s\n", ErrMessage, err)
	}
	ref, partials, err := pr.Preprocess(tre, geneTrees.Trees, args.outgroup, args.nprocs)
	if err != nil {
		log.Fatalf("%s %s\n", ErrMessage, err)
	}
	stats, err := support.Analyze(ref, partials, args.nprocs)
	if err != nil {
		log.Fatalf("%s %s\n", ErrMessage, err)
	}
	if err := report.WriteStats(stats, os.Stdout); err != nil {
		log.Fatalf("%s %s\n", ErrMessage, err)
	}
	if args.csvFile != "" {
		if err := writeCSV(stats, ref, geneTrees.Names, args.csvFile); err != nil {
			log.Fatalf("%s %s\n", ErrMessage, err)
		}
	}
	if args.plotPrefix != "" {
		log.Printf("writing plot to %s.png", args.plotPrefix)
		if err := report.WriteStatsBarplot(stats, args.plotPrefix); err != nil {
			log.Fatalf("%s %s\n", ErrMessage, err)
		}
	}
	log.Println("done")
}
