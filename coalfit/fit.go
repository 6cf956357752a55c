package main

import (
	"errors"
	"fmt"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/estimate"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/likelihood"
)

var (
	fitCmd    = app.Command("fit", "estimate demographic model parameters with confidence intervals")
	fitModel  = fitCmd.Flag("model", "demographic model").Short('m').Default("constant").String()
	fitPar    = fitCmd.Flag("par", "starting or fixed parameter value, e.g. --par N=20").Short('p').StringMap()
	fitFree   = fitCmd.Flag("free", "free parameter, all parameters are free if none is set").Short('f').Strings()
	fitCI     = fitCmd.Flag("ci", "compute confidence interval for a free parameter, all free parameters by default").Strings()
	fitSkipCI = fitCmd.Flag("skip-ci", "do not compute confidence intervals").Bool()
	fitLevel  = fitCmd.Flag("level", "confidence level").Default("0.95").Float64()
	fitOpt    = addOptimizerFlags(fitCmd)
	fitTree   = addTreeInput(fitCmd)

	transCmd       = app.Command("transmission", "estimate the transmission time and host models from a two-host tree")
	transDonor     = transCmd.Flag("donor-model", "donor demographic model").Default("constant").String()
	transRecipient = transCmd.Flag("recipient-model", "recipient demographic model").Default("constant").String()
	transPar       = transCmd.Flag("par", "starting or fixed parameter value, e.g. --par T=1.2 --par donor.N=10").Short('p').StringMap()
	transFree      = transCmd.Flag("free", "free parameter (T, donor.<name> or recipient.<name>)").Short('f').Strings()
	transCI        = transCmd.Flag("ci", "compute confidence interval for a free parameter").Strings()
	transLevel     = transCmd.Flag("level", "confidence level").Default("0.95").Float64()
	transOpt       = addOptimizerFlags(transCmd)
	transTree      = addTreeInput(transCmd)
)

// FitSummary is the output of the fit command.
type FitSummary struct {
	*estimate.Result
	Intervals []estimate.Interval `json:"intervals,omitempty"`
}

func runFit() interface{} {
	t := fitTree.read()
	f := lookupFamily(*fitModel)
	p, err := parseParams(*fitPar)
	if err != nil {
		log.Fatal(err)
	}
	free := *fitFree
	if len(free) == 0 {
		free = f.Params
	}
	drop, err := estimate.Drop(*fitLevel)
	if err != nil {
		log.Fatal(err)
	}

	settings, closeOut := fitOpt.settings()
	defer closeOut()

	e := likelihood.NewEngine(t, *tolerance)
	res, err := estimate.MaximumLikelihood(e, f, free, p, settings)
	if err != nil {
		log.Fatal(err)
	}
	if !res.Converged {
		log.Warning("Optimization did not converge:", res.Status)
	}
	summary := &FitSummary{Result: res}

	ci := *fitCI
	if len(ci) == 0 && !*fitSkipCI {
		ci = res.Free
	}
	for _, name := range ci {
		interval, err := estimate.ConfidenceInterval(e, f, name, res.Params, res.LnL, drop)
		if errors.Is(err, estimate.ErrNoBracket) {
			log.Warningf("Confidence interval for %s: %v", name, err)
			continue
		}
		if err != nil {
			log.Fatal(err)
		}
		log.Notice(interval)
		summary.Intervals = append(summary.Intervals, interval)
	}

	names := res.Params.Names()
	tbl := newTable()
	tbl.AppendHeader(append(header(names...), "lnL"))
	tbl.AppendRow(append(paramRow(res.Params, names), fmt.Sprintf("%.6f", res.LnL)))
	tbl.Render()
	printIntervals(summary.Intervals, *fitLevel)
	return summary
}

// TransmissionSummary is the output of the transmission command.
type TransmissionSummary struct {
	*estimate.TransmissionResult
	Intervals []estimate.Interval `json:"intervals,omitempty"`
}

func runTransmission() interface{} {
	t := transTree.read()
	donor := lookupFamily(*transDonor)
	recipient := lookupFamily(*transRecipient)
	p, err := parseParams(*transPar)
	if err != nil {
		log.Fatal(err)
	}
	dp, rp, T, err := splitTransmissionParams(p)
	if err != nil {
		log.Fatal(err)
	}
	drop, err := estimate.Drop(*transLevel)
	if err != nil {
		log.Fatal(err)
	}

	settings, closeOut := transOpt.settings()
	defer closeOut()

	e := likelihood.NewEngine(t, *tolerance)
	res, err := estimate.MaximumLikelihoodTransmission(e, donor, recipient, dp, rp, T, *transFree, settings)
	if err != nil {
		log.Fatal(err)
	}
	if len(res.Free) > 0 && !res.Converged {
		log.Warning("Optimization did not converge:", res.Status)
	}
	summary := &TransmissionSummary{TransmissionResult: res}
	for _, name := range *transCI {
		interval, err := estimate.TransmissionConfidenceInterval(e, res, name, drop)
		if errors.Is(err, estimate.ErrNoBracket) {
			log.Warningf("Confidence interval for %s: %v", name, err)
			continue
		}
		if err != nil {
			log.Fatal(err)
		}
		log.Notice(interval)
		summary.Intervals = append(summary.Intervals, interval)
	}

	tbl := newTable()
	tbl.AppendHeader(header("host", "model", "parameters"))
	tbl.AppendRow([]interface{}{"donor", res.DonorModel, res.Donor.String()})
	tbl.AppendRow([]interface{}{"recipient", res.RecipientModel, res.Recipient.String()})
	tbl.AppendFooter([]interface{}{fmt.Sprintf("T=%.6g", res.T),
		fmt.Sprintf("window [%.6g, %.6g]", res.Window[0], res.Window[1]),
		fmt.Sprintf("lnL=%.6f", res.LnL)})
	tbl.Render()
	printIntervals(summary.Intervals, *transLevel)
	return summary
}

func printIntervals(intervals []estimate.Interval, level float64) {
	if len(intervals) == 0 {
		return
	}
	tbl := newTable()
	tbl.AppendHeader(header("parameter", "estimate", fmt.Sprintf("%g%% low", level*100), "high"))
	for _, i := range intervals {
		tbl.AppendRow([]interface{}{i.Name,
			fmt.Sprintf("%.6g", i.Peak), fmt.Sprintf("%.6g", i.Low), fmt.Sprintf("%.6g", i.High)})
	}
	tbl.Render()
}
