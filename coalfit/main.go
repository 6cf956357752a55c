/*
Coalfit computes coalescent likelihoods of timed trees under
demographic models and estimates the model parameters.

Compute the likelihood of a tree under the constant model:

	coalfit lnl --model constant --par N=20 tree.nwk

Estimate the population size with a 95% confidence interval:

	coalfit fit --model constant --free N tree.nwk

Estimate the transmission time from a tree with donor (D_*) and
recipient (R_*) leaves:

	coalfit transmission --host D=0 --host R=1 --free T tree.nwk

To see all the commands and options run:

	coalfit --help
*/
package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/op/go-logging"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/estimate"
	"github.com/MolEvolEpid/ray-summer-phylogeny-practice/segment"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("coalfit")
var formatter = logging.MustStringFormatter(`%{message}`)

// packages which log
var loggers = []string{"coalfit", "tree", "popmodel", "segment", "likelihood", "optimize", "estimate", "checkpoint"}

// command-line options
var (
	// application
	app = kingpin.New("coalfit", "coalescent likelihood of timed trees under demographic models").Version(version)

	// technical
	nThreads   = app.Flag("nt", "number of threads to use").Int()
	seed       = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()
	tolerance  = app.Flag("tolerance", "events closer than this are simultaneous").Default(fmt.Sprint(segment.DefaultTolerance)).Float64()

	// input/output
	outLogF  = app.Flag("log", "write log to a file").String()
	logLevel = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

// optimizer options shared by the fitting commands
type optimizerFlags struct {
	method     *string
	iterations *int
	report     *int
	randomize  *bool
	outF       *string
}

func addOptimizerFlags(cmd *kingpin.CmdClause) *optimizerFlags {
	return &optimizerFlags{
		method: cmd.Flag("method", "optimization method to use "+
			"(auto: brent for one parameter and simplex otherwise, "+
			"brent: bounded one-dimensional Brent, "+
			"simplex: downhill simplex, "+
			"lbfgsb: limited-memory Broyden–Fletcher–Goldfarb–Shanno with bounding constraints, "+
			"nelder-mead: Nelder-Mead from gonum, "+
			"bfgs: BFGS from gonum, "+
			"annealing: simullated annealing, "+
			"mh: Metropolis-Hastings, "+
			"none: just compute likelihood, no optimization"+
			")").Default("auto").Enum(estimate.Methods...),
		iterations: cmd.Flag("iter", "number of iterations").Default(fmt.Sprint(estimate.DefaultIterations)).Int(),
		report:     cmd.Flag("report", "report every N iterations").Default("10").Int(),
		randomize:  cmd.Flag("randomize", "use uniformly distributed random starting point").Bool(),
		outF:       cmd.Flag("out", "write optimization trajectory to a file").String(),
	}
}

// settings creates optimizer settings; the returned function closes
// the trajectory file.
func (o *optimizerFlags) settings() (estimate.Settings, func()) {
	s := estimate.Settings{
		Method:       *o.method,
		Iterations:   *o.iterations,
		Randomize:    *o.randomize,
		ReportPeriod: *o.report,
		Signals:      true,
	}
	if *o.outF == "" {
		return s, func() {}
	}
	f, err := os.Create(*o.outF)
	if err != nil {
		log.Fatal("Error creating trajectory file:", err)
	}
	s.Output = f
	return s, func() { f.Close() }
}

func setupLogging() func() {
	logging.SetFormatter(formatter)

	closer := func() {}
	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		closer = func() { f.Close() }
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, module := range loggers {
		logging.SetLevel(level, module)
	}
	return closer
}

// saveJSON writes the summary to the json file if requested.
func saveJSON(summary interface{}) {
	if *jsonF == "" {
		return
	}
	j, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		log.Error(err)
		return
	}
	log.Debug(string(j))
	f, err := os.Create(*jsonF)
	if err != nil {
		log.Error("Error creating json output file:", err)
		return
	}
	defer f.Close()
	if _, err := f.Write(j); err != nil {
		log.Error(err)
	}
}

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	closeLog := setupLogging()
	defer closeLog()

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	rand.Seed(*seed)
	runtime.GOMAXPROCS(*nThreads)

	effectiveNThreads := runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.", effectiveNThreads)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	startTime := time.Now()
	var result interface{}
	switch command {
	case lnlCmd.FullCommand():
		result = runLnL()
	case segmentsCmd.FullCommand():
		result = runSegments()
	case windowCmd.FullCommand():
		result = runWindow()
	case fitCmd.FullCommand():
		result = runFit()
	case transCmd.FullCommand():
		result = runTransmission()
	case profileCmd.FullCommand():
		result = runProfile()
	case batchCmd.FullCommand():
		result = runBatch()
	}
	deltaT := time.Since(startTime)
	log.Noticef("Running time: %v", deltaT)

	saveJSON(&CallSummary{
		Version:     version,
		CommandLine: os.Args,
		Command:     command,
		Seed:        *seed,
		NThreads:    effectiveNThreads,
		TotalTime:   deltaT.Seconds(),
		Result:      result,
	})
}
