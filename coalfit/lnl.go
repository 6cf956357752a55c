package main

import (
	"fmt"
	"math"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/likelihood"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/popmodel"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/segment"
)

var (
	lnlCmd   = app.Command("lnl", "compute the log-likelihood of a tree")
	lnlModel = lnlCmd.Flag("model", "demographic model").Short('m').Default("constant").String()
	lnlPar   = lnlCmd.Flag("par", "model parameter, e.g. --par N=20").Short('p').StringMap()
	lnlTree  = addTreeInput(lnlCmd)

	segmentsCmd = app.Command("segments", "print the coalescence intervals of a tree")
	segmentsT   = segmentsCmd.Flag("transmission", "split donor and recipient intervals at this transmission time").
			Short('T').Default("NaN").Float64()
	segmentsTree = addTreeInput(segmentsCmd)

	windowCmd  = app.Command("window", "print the transmission window of a tree with donor and recipient leaves")
	windowTree = addTreeInput(windowCmd)
)

// LnLSummary is the output of the lnl command.
type LnLSummary struct {
	Model  string          `json:"model"`
	Params popmodel.Params `json:"parameters"`
	LnL    float64         `json:"lnL"`
}

func runLnL() interface{} {
	t := lnlTree.read()
	f := lookupFamily(*lnlModel)
	p, err := parseParams(*lnlPar)
	if err != nil {
		log.Fatal(err)
	}
	p, err = f.Resolve(p)
	if err != nil {
		log.Fatal(err)
	}
	m, err := f.Model(p)
	if err != nil {
		log.Fatal(err)
	}

	e := likelihood.NewEngine(t, *tolerance)
	l := e.LogLikelihood(m)
	if math.IsInf(l, -1) {
		log.Warning("Zero likelihood, parameters may be outside of the model domain")
	}
	log.Noticef("%s %v: lnL=%v", f.Name, p, l)
	fmt.Println(l)
	return &LnLSummary{Model: f.Name, Params: p, LnL: l}
}

// SegmentRow is a segment of one host in the segments command output.
type SegmentRow struct {
	Host string `json:"host,omitempty"`
	segment.Segment
	Coalescence bool `json:"coalescence"`
}

// SegmentsSummary is the output of the segments command.
type SegmentsSummary struct {
	Segments         []SegmentRow       `json:"segments"`
	CoalescenceTimes []float64          `json:"coalescenceTimes"`
	Duration         map[string]float64 `json:"duration"`
	// NextCoalescence is the first coalescence older than the
	// transmission time.
	NextCoalescence *float64 `json:"nextCoalescence,omitempty"`
}

func runSegments() interface{} {
	t := segmentsTree.read()
	summary := &SegmentsSummary{
		CoalescenceTimes: t.CoalescenceTimes(),
		Duration:         make(map[string]float64),
	}
	if math.IsNaN(*segmentsT) {
		segments := segment.Decompose(t, *tolerance)
		for _, s := range segments {
			summary.Segments = append(summary.Segments, SegmentRow{Segment: s, Coalescence: s.Coalescences > 0})
		}
		summary.Duration["all"] = segment.TotalDuration(segments)
	} else {
		segment.CheckTree(t, *tolerance)
		mh, err := segment.DecomposeMultihost(t, *segmentsT, *tolerance)
		if err != nil {
			log.Fatal(err)
		}
		for h := 0; h < segment.NHosts; h++ {
			segments, coal := mh.Segments(h)
			for i, s := range segments {
				summary.Segments = append(summary.Segments, SegmentRow{Host: segment.HostName(h), Segment: s, Coalescence: coal[i]})
			}
			summary.Duration[segment.HostName(h)] = segment.TotalDuration(segments)
		}
		next := t.ClosestParent(*segmentsT).Time
		summary.NextCoalescence = &next
		log.Infof("First coalescence above T=%g at %g", *segmentsT, next)
	}

	tbl := newTable()
	tbl.AppendHeader(header("host", "start", "end", "duration", "lineages", "coalescences"))
	for _, r := range summary.Segments {
		tbl.AppendRow([]interface{}{r.Host,
			fmt.Sprintf("%.6g", r.Start), fmt.Sprintf("%.6g", r.End), fmt.Sprintf("%.6g", r.Duration),
			r.Lineages, r.Coalescences})
	}
	for _, name := range popmodel.Params(summary.Duration).Names() {
		tbl.AppendFooter([]interface{}{name, "", "total", fmt.Sprintf("%.6g", summary.Duration[name]), "", ""})
	}
	tbl.Render()
	log.Infof("Coalescence times: %v", summary.CoalescenceTimes)
	return summary
}

// WindowSummary is the output of the window command.
type WindowSummary struct {
	AllHostsInfected float64 `json:"allHostsInfected"`
	MixedNode        float64 `json:"mostRecentMixedNode"`
	Low              float64 `json:"low"`
	High             float64 `json:"high"`
}

func runWindow() interface{} {
	t := windowTree.read()
	inf, err := t.AllHostsInfectedTime()
	if err != nil {
		log.Fatal(err)
	}
	node, err := t.MostRecentMixedNode()
	if err != nil {
		log.Fatal(err)
	}
	low, high, err := t.TransmissionWindow()
	if err != nil {
		log.Fatal(err)
	}
	log.Noticef("Transmission window: [%g, %g]", low, high)

	tbl := newTable()
	tbl.AppendHeader(header("all hosts infected", "most recent mixed node", "low", "high"))
	tbl.AppendRow([]interface{}{inf, node.Time, low, high})
	tbl.Render()
	return &WindowSummary{AllHostsInfected: inf, MixedNode: node.Time, Low: low, High: high}
}
