// Package for writing per-node results as text, csv, or a plot
package report

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"image/color"
	"io"
	"log"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	gr "github.com/jsdoublel/gsf/internal/graphs"
	"github.com/jsdoublel/gsf/internal/support"
)

var ErrWritingFile = errors.New("error writing file")

var (
	decisiveColor  = color.RGBA{R: 190, G: 190, B: 190, A: 255}
	congruentColor = color.RGBA{R: 37, G: 150, B: 190, A: 255}
	plotBarWidth   = vg.Points(10)
)

const (
	plotH    = 4 * vg.Inch
	minPlotW = 6 * vg.Inch
)

// Writes two lines per node: its label, then "<congruent> <decisive>"
func WriteStats(stats []support.NodeStats, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, ns := range stats {
		if _, err := fmt.Fprintf(bw, "%s\n%d %d\n", ns.Label, ns.Congruent, ns.Decisive); err != nil {
			return fmt.Errorf("%w, %s", ErrWritingFile, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w, %s", ErrWritingFile, err)
	}
	return nil
}

// Write results csv file to writer.
//
// Columns: "node", "label", "one_side", "other_side", "outgroups", "congruent",
// "decisive", "congruent_frac", "decisive_trees"
func WriteStatsToCSV(stats []support.NodeStats, ref *gr.RefTree, names []string, w io.Writer) (err error) {
	data := make([][]string, len(stats)+1)
	data[0] = []string{"node", "label", "one_side", "other_side", "outgroups",
		"congruent", "decisive", "congruent_frac", "decisive_trees"}
	for i, ns := range stats {
		data[i+1] = []string{
			strconv.Itoa(int(ns.ID)),
			ns.Label,
			strings.Join(ref.Names(ns.Split.One), " "),
			strings.Join(ref.Names(ns.Split.Other), " "),
			strings.Join(ref.Names(ns.Split.Outgroups), " "),
			strconv.Itoa(ns.Congruent),
			strconv.Itoa(ns.Decisive),
			strconv.FormatFloat(ns.CongruentFrac(), 'f', -1, 64),
			treeNames(ns.Trees, names),
		}
	}
	writer := csv.NewWriter(w)
	defer func() {
		writer.Flush()
		if err == nil {
			err = writer.Error()
		} else if writer.Error() != nil {
			log.Printf("error when flushing output csv, %s", writer.Error())
		}
	}()
	if err = writer.WriteAll(data); err != nil {
		err = fmt.Errorf("%w, %s", ErrWritingFile, err)
		return
	}
	return
}

func treeNames(trees []int, names []string) string {
	result := make([]string, len(trees))
	for i, t := range trees {
		if t < len(names) {
			result[i] = names[t]
		} else {
			result[i] = strconv.Itoa(t + 1)
		}
	}
	return strings.Join(result, " ")
}

// Saves bar plot (<prefix>.png) of decisive and congruent gene trees per node;
// bars are numbered by node id
func WriteStatsBarplot(stats []support.NodeStats, prefix string) error {
	if len(stats) == 0 {
		return fmt.Errorf("%w, no nodes to plot", ErrWritingFile)
	}
	decisive := make(plotter.Values, len(stats))
	congruent := make(plotter.Values, len(stats))
	ticks := make([]string, len(stats))
	for i, ns := range stats {
		decisive[i] = float64(ns.Decisive)
		congruent[i] = float64(ns.Congruent)
		ticks[i] = strconv.Itoa(int(ns.ID))
	}
	p := plot.New()
	p.X.Label.Text = "Node"
	p.Y.Label.Text = "Number of Gene Trees"
	p.Y.Min = 0
	dBars, err := plotter.NewBarChart(decisive, plotBarWidth)
	if err != nil {
		return err
	}
	dBars.Color = decisiveColor
	dBars.LineStyle.Width = vg.Length(0)
	dBars.Offset = -plotBarWidth / 2
	cBars, err := plotter.NewBarChart(congruent, plotBarWidth)
	if err != nil {
		return err
	}
	cBars.Color = congruentColor
	cBars.LineStyle.Width = vg.Length(0)
	cBars.Offset = plotBarWidth / 2
	p.Add(dBars, cBars)
	p.Legend.Add("decisive", dBars)
	p.Legend.Add("congruent", cBars)
	p.Legend.Top = true
	p.NominalX(ticks...)
	w := max(minPlotW, vg.Length(len(stats))*3*plotBarWidth)
	return p.Save(w, plotH, fmt.Sprintf("%s.png", prefix))
}
