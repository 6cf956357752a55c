package estimate

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
	bolt "go.etcd.io/bbolt"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/checkpoint"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/dist"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/likelihood"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/popmodel"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/segment"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/tree"
)

// Batch fits the same model to many trees in parallel, e.g. to study
// the spread of the estimates or the coverage of the confidence
// intervals on simulated trees.
type Batch struct {
	Family   *popmodel.Family
	Free     []string
	Params   popmodel.Params
	Settings Settings
	// Intervals lists the parameters for which confidence intervals
	// are computed.
	Intervals []string
	// Drop is the log-likelihood drop of the intervals, zero means
	// DefaultDrop.
	Drop float64
	// Truth holds the parameter values the trees were simulated
	// with; if set, interval coverage is reported.
	Truth popmodel.Params
	// Level is the level of the spread summaries, zero means 0.95.
	Level float64
	// Tolerance for near-simultaneous events, zero means
	// segment.DefaultTolerance.
	Tolerance float64
	// Workers is the number of parallel fits, zero means GOMAXPROCS.
	Workers int
	// DB stores finished fits; fits found there are not repeated.
	DB *bolt.DB
}

// TreeResult is the fit of a single tree of a batch.
type TreeResult struct {
	Index     int        `json:"index"`
	Result    *Result    `json:"result,omitempty"`
	Intervals []Interval `json:"intervals,omitempty"`
	Error     string     `json:"error,omitempty"`
	// Resumed is set for fits loaded from the checkpoint.
	Resumed bool `json:"resumed,omitempty"`
}

// BatchSummary summarizes a batch run.
type BatchSummary struct {
	Trees        int                    `json:"trees"`
	Failed       int                    `json:"failed"`
	NotConverged int                    `json:"notConverged"`
	Resumed      int                    `json:"resumed"`
	Spreads      map[string]dist.Spread `json:"spreads,omitempty"`
	// Coverage is the fraction of intervals containing the true
	// value, per parameter.
	Coverage map[string]float64 `json:"coverage,omitempty"`
	Results  []TreeResult       `json:"results"`
}

func (b *Batch) drop() float64 {
	if b.Drop <= 0 {
		return DefaultDrop
	}
	return b.Drop
}

func (b *Batch) level() float64 {
	if b.Level <= 0 {
		return 0.95
	}
	return b.Level
}

func (b *Batch) tolerance() float64 {
	if b.Tolerance <= 0 {
		return segment.DefaultTolerance
	}
	return b.Tolerance
}

func (b *Batch) workers(n int) int {
	w := b.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	if w > n {
		w = n
	}
	return w
}

// key is the checkpoint key of a tree.
func (b *Batch) key(i int) []byte {
	return []byte(fmt.Sprintf("%s/%08d", b.Family.Name, i))
}

// setup fingerprints a tree together with everything which changes its
// fit: model, free and fixed parameters, intervals, tolerance and the
// optimizer settings.
func (b *Batch) setup(t *tree.Tree) string {
	h := xxhash.New()
	fmt.Fprintf(h, "%s\n%s\nfree=%s\npar=%s\nci=%s\ndrop=%g\ntol=%g\nmethod=%s\niter=%d\nrandom=%v\n",
		t.HostString(), b.Family.Name,
		strings.Join(b.Free, ","), popmodel.Params(b.Params), strings.Join(b.Intervals, ","),
		b.drop(), b.tolerance(), b.Settings.Method, b.Settings.iterations(), b.Settings.Randomize)
	return strconv.FormatUint(h.Sum64(), 16)
}

// Run fits all the trees. If the context is cancelled, the remaining
// trees are skipped and the summary of the finished ones is returned
// together with the context error.
func (b *Batch) Run(ctx context.Context, trees []*tree.Tree) (*BatchSummary, error) {
	if len(trees) == 0 {
		return nil, fmt.Errorf("no trees to fit")
	}
	if b.Family == nil {
		return nil, fmt.Errorf("no model family")
	}
	intervals := make([]string, len(b.Intervals))
	for i, name := range b.Intervals {
		c, err := b.Family.Canonical(name)
		if err != nil {
			return nil, err
		}
		intervals[i] = c
	}
	b.Intervals = intervals

	results := make([]TreeResult, len(trees))
	finished := make([]bool, len(trees))
	tasks := make(chan int, len(trees))
	var wg sync.WaitGroup
	var done int64
	total := humanize.Comma(int64(len(trees)))

	nw := b.workers(len(trees))
	log.Infof("Fitting %s trees with %d workers", total, nw)
	for w := 0; w < nw; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				if ctx.Err() != nil {
					continue
				}
				results[i] = b.fit(i, trees[i])
				finished[i] = true
				n := atomic.AddInt64(&done, 1)
				log.Debugf("%s of %s trees done", humanize.Comma(n), total)
			}
		}()
	}
	for i := range trees {
		tasks <- i
	}
	close(tasks)
	wg.Wait()

	var fin []TreeResult
	for i, ok := range finished {
		if ok {
			fin = append(fin, results[i])
		}
	}
	summary := b.summarize(fin)
	if err := ctx.Err(); err != nil {
		log.Warningf("Batch interrupted after %s of %s trees", humanize.Comma(int64(len(fin))), total)
		return summary, err
	}
	return summary, nil
}

// fit fits a single tree, or loads it from the checkpoint.
func (b *Batch) fit(i int, t *tree.Tree) TreeResult {
	cp := checkpoint.NewCheckpointIO(b.DB, b.key(i))
	data, err := cp.Load()
	if err != nil {
		log.Warningf("tree %d: cannot load checkpoint: %v", i, err)
	}
	setup := b.setup(t)
	switch {
	case data != nil && data.Final && data.Setup == setup:
		return b.fromCheckpoint(i, data)
	case data != nil:
		log.Infof("tree %d: checkpoint is for a different tree or settings, refitting", i)
	}

	tr := TreeResult{Index: i}
	e := likelihood.NewEngine(t, b.tolerance())
	s := b.Settings
	s.Output = nil
	s.Signals = false
	res, err := MaximumLikelihood(e, b.Family, b.Free, b.Params, s)
	if err != nil {
		log.Warningf("tree %d: %v", i, err)
		tr.Error = err.Error()
	} else {
		tr.Result = res
		if !res.Converged {
			log.Warningf("tree %d: %s", i, res.Status)
		}
		for _, name := range b.Intervals {
			iv, err := ConfidenceInterval(e, b.Family, name, res.Params, res.LnL, b.drop())
			if err != nil {
				log.Warningf("tree %d: %v", i, err)
				continue
			}
			tr.Intervals = append(tr.Intervals, iv)
		}
	}

	data = toCheckpoint(tr)
	data.Setup = setup
	if err := cp.Save(data); err != nil {
		log.Warningf("tree %d: cannot save checkpoint: %v", i, err)
	}
	return tr
}

func toCheckpoint(tr TreeResult) *checkpoint.CheckpointData {
	data := &checkpoint.CheckpointData{
		Error: tr.Error,
		Final: true,
	}
	if tr.Result != nil {
		data.Parameters = tr.Result.Params
		data.Likelihood = tr.Result.LnL
		data.Iter = tr.Result.Optimizer.Iterations
		data.Converged = tr.Result.Converged
	}
	if len(tr.Intervals) > 0 {
		data.Lower = make(map[string]float64)
		data.Upper = make(map[string]float64)
		for _, iv := range tr.Intervals {
			data.Lower[iv.Name] = iv.Low
			data.Upper[iv.Name] = iv.High
		}
	}
	return data
}

func (b *Batch) fromCheckpoint(i int, data *checkpoint.CheckpointData) TreeResult {
	tr := TreeResult{Index: i, Error: data.Error, Resumed: true}
	if data.Parameters != nil {
		free := make([]string, 0, len(b.Free))
		for _, name := range b.Free {
			if c, err := b.Family.Canonical(name); err == nil {
				free = append(free, c)
			}
		}
		tr.Result = &Result{
			Model:     b.Family.Name,
			Params:    popmodel.Params(data.Parameters),
			Free:      free,
			LnL:       data.Likelihood,
			Converged: data.Converged,
			Status:    "loaded from checkpoint",
		}
		for _, name := range b.Intervals {
			low, okl := data.Lower[name]
			high, okh := data.Upper[name]
			if okl && okh {
				tr.Intervals = append(tr.Intervals, Interval{
					Name:    name,
					Peak:    data.Parameters[name],
					Low:     low,
					High:    high,
					PeakLnL: data.Likelihood,
					Drop:    b.drop(),
				})
			}
		}
	}
	return tr
}

func (b *Batch) summarize(results []TreeResult) *BatchSummary {
	s := &BatchSummary{
		Trees:   len(results),
		Results: results,
	}
	estimates := make(map[string][]float64)
	covered := make(map[string]int)
	tried := make(map[string]int)
	for _, tr := range results {
		if tr.Resumed {
			s.Resumed++
		}
		if tr.Result == nil {
			s.Failed++
			continue
		}
		if !tr.Result.Converged {
			s.NotConverged++
		}
		for _, name := range tr.Result.Free {
			estimates[name] = append(estimates[name], tr.Result.Params[name])
		}
		for _, iv := range tr.Intervals {
			truth, ok := b.Truth[iv.Name]
			if !ok {
				continue
			}
			tried[iv.Name]++
			if iv.Low <= truth && truth <= iv.High {
				covered[iv.Name]++
			}
		}
	}

	names := make([]string, 0, len(estimates))
	for name := range estimates {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sp, err := dist.Summarize(estimates[name], b.level())
		if err != nil {
			continue
		}
		if s.Spreads == nil {
			s.Spreads = make(map[string]dist.Spread)
		}
		s.Spreads[name] = sp
		log.Infof("%s: mean=%g, sd=%g, trimmed [%g, %g]", name, sp.Mean, sp.SD, sp.TrimmedLow, sp.TrimmedHigh)
	}
	for name, n := range tried {
		if s.Coverage == nil {
			s.Coverage = make(map[string]float64)
		}
		s.Coverage[name] = float64(covered[name]) / float64(n)
		log.Infof("%s: interval coverage %.3f (%d trees)", name, s.Coverage[name], n)
	}
	return s
}
