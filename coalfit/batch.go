package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/checkpoint"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/estimate"
)

var (
	batchCmd     = app.Command("batch", "fit a model to many trees in parallel and summarize the estimates")
	batchModel   = batchCmd.Flag("model", "demographic model").Short('m').Default("constant").String()
	batchPar     = batchCmd.Flag("par", "starting or fixed parameter value").Short('p').StringMap()
	batchFree    = batchCmd.Flag("free", "free parameter, all parameters are free if none is set").Short('f').Strings()
	batchCI      = batchCmd.Flag("ci", "compute confidence interval for a parameter").Strings()
	batchTruth   = batchCmd.Flag("truth", "true parameter value, used to report interval coverage").StringMap()
	batchLevel   = batchCmd.Flag("level", "confidence level").Default("0.95").Float64()
	batchWorkers = batchCmd.Flag("workers", "number of parallel fits, default is the number of threads").Int()
	batchDB      = batchCmd.Flag("checkpoint", "checkpoint database, finished fits are not repeated").String()
	batchOpt     = addOptimizerFlags(batchCmd)
	batchTrees   = batchCmd.Arg("trees", "file with one newick tree per line").Required().ExistingFile()
)

func runBatch() interface{} {
	trees := readTrees(*batchTrees)
	f := lookupFamily(*batchModel)
	p, err := parseParams(*batchPar)
	if err != nil {
		log.Fatal(err)
	}
	truth, err := parseParams(*batchTruth)
	if err != nil {
		log.Fatal(err)
	}
	if len(truth) > 0 {
		if truth, err = f.Resolve(truth); err != nil {
			log.Fatal(err)
		}
	}
	free := *batchFree
	if len(free) == 0 {
		free = f.Params
	}
	drop, err := estimate.Drop(*batchLevel)
	if err != nil {
		log.Fatal(err)
	}

	settings, closeOut := batchOpt.settings()
	defer closeOut()
	// the batch is interrupted through the context
	settings.Signals = false
	if settings.Output != nil && *batchWorkers != 1 {
		log.Warning("Trajectories of parallel fits are interleaved")
	}

	b := &estimate.Batch{
		Family:    f,
		Free:      free,
		Params:    p,
		Settings:  settings,
		Intervals: *batchCI,
		Drop:      drop,
		Truth:     truth,
		Level:     *batchLevel,
		Tolerance: *tolerance,
		Workers:   *batchWorkers,
	}
	if *batchDB != "" {
		db, err := checkpoint.Open(*batchDB)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		keys, err := checkpoint.Keys(db)
		if err != nil {
			log.Fatal(err)
		}
		log.Infof("Checkpoint %s has %d entries", *batchDB, len(keys))
		b.DB = db
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := b.Run(ctx, trees)
	switch {
	case errors.Is(err, context.Canceled):
		log.Warning("Interrupted, the summary is partial")
	case err != nil:
		log.Fatal(err)
	}
	log.Noticef("%d trees, %d failed, %d not converged, %d resumed",
		summary.Trees, summary.Failed, summary.NotConverged, summary.Resumed)

	tbl := newTable()
	tbl.AppendHeader(header("parameter", "n", "mean", "median", "sd", "trimmed low", "trimmed high", "HDI low", "HDI high", "coverage"))
	for _, name := range f.Params {
		s, ok := summary.Spreads[name]
		if !ok {
			continue
		}
		coverage := ""
		if c, ok := summary.Coverage[name]; ok {
			coverage = fmt.Sprintf("%.3f", c)
		}
		tbl.AppendRow([]interface{}{name, s.N,
			fmt.Sprintf("%.6g", s.Mean), fmt.Sprintf("%.6g", s.Median), fmt.Sprintf("%.6g", s.SD),
			fmt.Sprintf("%.6g", s.TrimmedLow), fmt.Sprintf("%.6g", s.TrimmedHigh),
			fmt.Sprintf("%.6g", s.HDILow), fmt.Sprintf("%.6g", s.HDIHigh),
			coverage})
	}
	tbl.Render()
	return summary
}
