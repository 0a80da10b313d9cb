package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/evolbioinfo/gotree/io/newick"

	gr "github.com/jsdoublel/gsf/internal/graphs"
	"github.com/jsdoublel/gsf/internal/support"
)

func analyze(t *testing.T, ref string, geneTrees ...string) (*gr.RefTree, []support.NodeStats) {
	t.Helper()
	tre, err := newick.NewParser(strings.NewReader(ref)).Parse()
	if err != nil {
		t.Fatalf("invalid newick in test: %v", err)
	}
	if err := tre.UpdateTipIndex(); err != nil {
		t.Fatalf("failed to update tip index: %v", err)
	}
	rt := gr.MakeRefTree(tre)
	partials := make([]*gr.PartialTree, len(geneTrees))
	for i, nwk := range geneTrees {
		gt, err := newick.NewParser(strings.NewReader(nwk)).Parse()
		if err != nil {
			t.Fatalf("invalid newick in test: %v", err)
		}
		if partials[i], err = gr.NewPartialTree(gt, rt); err != nil {
			t.Fatalf("unexpected error %s", err)
		}
	}
	stats, err := support.Analyze(rt, partials, 1)
	if err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	return rt, stats
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteStats(t *testing.T) {
	_, stats := analyze(t, "(((A,B),(C,D)),(E,F));", "(A,C,E,F);", "((A,E),(C,F));")
	var buf bytes.Buffer
	if err := WriteStats(stats, &buf); err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2*len(stats) {
		t.Fatalf("expected %d lines, got %d:\n%s", 2*len(stats), len(lines), buf.String())
	}
	for i, ns := range stats {
		if lines[2*i] != ns.Label {
			t.Errorf("line %d is %s, expected label %s", 2*i, lines[2*i], ns.Label)
		}
	}
	// pre-order: root, ((A,B),(C,D)), (A,B), (C,D), (E,F)
	if lines[2] != "{A,B}|{C,D}" || lines[3] != "1 2" {
		t.Errorf("unexpected result for {A,B}|{C,D}: %s %s", lines[2], lines[3])
	}
	if err := WriteStats(stats, failingWriter{}); !errors.Is(err, ErrWritingFile) {
		t.Errorf("expected %s, got %v", ErrWritingFile, err)
	}
}

func TestWriteStatsToCSV(t *testing.T) {
	ref, stats := analyze(t, "(((A,B),(C,D)),(E,F));", "(A,C,E,F);", "((A,E),(C,F));")
	var buf bytes.Buffer
	if err := WriteStatsToCSV(stats, ref, []string{"g1", "g2"}, &buf); err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid csv: %s", err)
	}
	if len(records) != len(stats)+1 {
		t.Fatalf("expected %d records, got %d", len(stats)+1, len(records))
	}
	if records[0][0] != "node" || len(records[0]) != 9 {
		t.Errorf("bad header %v", records[0])
	}
	row := records[2]
	expected := []string{"1", "{A,B}|{C,D}", "A B", "C D", "E F", "1", "2", "0.5", "g1 g2"}
	for i := range expected {
		if row[i] != expected[i] {
			t.Errorf("column %s is %s, expected %s", records[0][i], row[i], expected[i])
		}
	}
}

func TestWriteStatsBarplot(t *testing.T) {
	_, stats := analyze(t, "(((A,B),(C,D)),(E,F));", "(A,C,E,F);", "((A,E),(C,F));")
	prefix := filepath.Join(t.TempDir(), "gsf")
	if err := WriteStatsBarplot(stats, prefix); err != nil {
		t.Fatalf("unexpected error %s", err)
	}
	if info, err := os.Stat(prefix + ".png"); err != nil || info.Size() == 0 {
		t.Errorf("plot not written: %v", err)
	}
	if err := WriteStatsBarplot(nil, prefix); !errors.Is(err, ErrWritingFile) {
		t.Errorf("expected %s for empty results, got %v", ErrWritingFile, err)
	}
}
