/*

Tefactor estimates a panel treatment effect model with a shared
latent factor and stochastic search variable selection using a Gibbs
sampler.

The basic usage of tefactor looks like this:

	tefactor data.csv

, this will read a long-format panel (one row per subject and period)
with columns subject, period, treated and y and run a single chain.

Covariates, priors and sampler settings are read from a YAML file:

	tefactor --config run.yaml --chains 4 --out draws.db data.csv

To see all the options run:

	tefactor --help

*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/op/go-logging"
	bolt "go.etcd.io/bbolt"
	"gopkg.in/alecthomas/kingpin.v2"

	"bitbucket.org/Davydov/tefactor/panel"
	"bitbucket.org/Davydov/tefactor/sampler"
	"bitbucket.org/Davydov/tefactor/start"
	"bitbucket.org/Davydov/tefactor/store"
)

// These three variables are set during the compilation.
var githash = ""
var gitbranch = ""
var buildstamp = ""
var version = fmt.Sprintf("branch: %s, revision: %s, build time: %s", gitbranch, githash, buildstamp)

// Logger settings.
var log = logging.MustGetLogger("tefactor")
var formatter = logging.MustStringFormatter(`%{message}`)

// command-line options
var (
	// application
	app = kingpin.New("tefactor", "panel treatment effect factor model sampler").Version(version)

	// input
	dataFileName   = app.Arg("data", "long-format panel CSV").Required().ExistingFile()
	configFileName = app.Flag("config", "YAML run configuration").ExistingFile()

	// model
	fixedX      = app.Flag("fixedx", "number of leading selection covariates always included (config or 1 by default)").Default("-1").Int()
	fixedY      = app.Flag("fixedy", "number of leading outcome covariates always included (config or 1 by default)").Default("-1").Int()
	fixLoadings = app.Flag("fixloadings", "always include all the factor loadings").Bool()

	// sampler parameters
	burnIn      = app.Flag("burnin", "number of burn-in iterations (config or 1000 by default)").Default("-1").Int()
	draws       = app.Flag("draws", "number of iterations after burn-in (config or 5000 by default)").Default("-1").Int()
	selStart    = app.Flag("selstart", "iteration starting variable selection (config or 500 by default)").Default("-1").Int()
	noSelection = app.Flag("noselection", "disable variable selection").Bool()
	noSignFlip  = app.Flag("nosignflip", "disable the random sign flip of the factor loadings (always off for a frozen equation)").Bool()
	report      = app.Flag("report", "report every N iterations").Default("-1").Int()

	// diagnostics
	freezeVariance  = app.Flag("freezevar", "keep variances at the starting values").Bool()
	freezeFactor    = app.Flag("freezefactor", "keep the factor at the starting values").Bool()
	freezeTreatment = app.Flag("freezetreat", "keep the treatment equation at the starting values").Bool()
	freezeOutcome   = app.Flag("freezeout", "keep the outcome equation at the starting values").Bool()

	// technical
	chains     = app.Flag("chains", "number of chains").Default("1").Int()
	nThreads   = app.Flag("nt", "number of threads to use").Int()
	seed       = app.Flag("seed", "random generator seed, default time based").Default("-1").Int64()
	cpuProfile = app.Flag("cpuprofile", "write cpu profile to file").String()

	// output
	outLogF      = app.Flag("log", "write log to a file").String()
	outBoltF     = app.Flag("out", "write draws to a bolt database").String()
	flushSeconds = app.Flag("flush", "save draws to the database every N seconds").Default("30").Float64()
	sqliteF      = app.Flag("sqlite", "export draws to a SQLite database").String()
	logLevel     = app.Flag("loglevel", "set loglevel "+
		"('critical', 'error', 'warning', 'notice', 'info', 'debug')").
		Default("notice").
		Enum("critical", "error", "warning", "notice", "info", "debug")
	jsonF = app.Flag("json", "write json output to a file").String()
)

// readPanel reads the panel CSV.
func readPanel(fn string, cols panel.Columns) (*panel.Panel, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return panel.ReadCSV(f, cols)
}

func run(rs *runSettings) (summary *RunSummary) {
	startTime := time.Now()
	summary = &RunSummary{Settings: rs.settings}

	p, err := readPanel(*dataFileName, rs.cfg.Columns)
	if err != nil {
		log.Fatal("Error reading panel:", err)
	}
	treated := 0
	for _, d := range p.D {
		if d {
			treated++
		}
	}
	summary.Data = DataSummary{
		Subjects: p.N,
		Periods:  p.TMax,
		Records:  p.NRecords(),
		Treated:  treated,
	}
	pre, post := p.Counts()
	log.Infof("%d treated subjects, %d pre-treatment and %d post-treatment records", treated, pre, post)

	m, err := rs.model(p)
	if err != nil {
		log.Fatal(err)
	}

	v := rs.cfg.Start
	if v == nil {
		v, err = start.Compute(p)
		if err != nil {
			log.Fatal("Error computing starting values:", err)
		}
	} else {
		log.Info("Using starting values from the configuration")
	}

	cs := sampler.ChainSettings{
		Chains:  rs.chains,
		Threads: rs.threads,
		Seed:    rs.seed,
	}

	var bio *store.BoltIO
	if rs.boltF != "" {
		db, err := bolt.Open(rs.boltF, 0600, &bolt.Options{Timeout: 1 * time.Second})
		if err != nil {
			log.Fatal("Error opening database:", err)
		}
		defer db.Close()
		bio = store.NewBoltIO(db, rs.flush)
		cs.Recorder = func(int) sampler.Recorder { return bio }
	}

	log.Noticef("Running %d chain(s) of %d iterations", rs.chains, rs.settings.Total())
	archives, err := sampler.RunChains(context.Background(), m, v, rs.settings, cs)
	if bio != nil {
		if ferr := bio.Flush(); ferr != nil {
			log.Error("Error saving draws:", ferr)
		}
	}
	if err != nil {
		log.Fatal(err)
	}

	for _, a := range archives {
		summary.RunID = a.RunID
		summary.Chains = append(summary.Chains, summarize(a))
	}

	if rs.sqliteF != "" {
		if err := store.ExportSQLite(context.Background(), rs.sqliteF, archives); err != nil {
			log.Error("Error exporting draws:", err)
		}
	}

	deltaT := time.Since(startTime)
	log.Noticef("Running time: %v", deltaT)
	summary.Time = deltaT.Seconds()

	return
}

func main() {
	programStart := time.Now()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// logging
	logging.SetFormatter(formatter)

	var backend *logging.LogBackend
	if *outLogF != "" {
		f, err := os.OpenFile(*outLogF, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("Error creating log file:", err)
		}
		defer f.Close()
		backend = logging.NewLogBackend(f, "", 0)
	} else {
		backend = logging.NewLogBackend(os.Stderr, "", 0)
	}
	logging.SetBackend(backend)

	level, err := logging.LogLevel(*logLevel)
	if err != nil {
		log.Fatal(err)
	}
	for _, module := range []string{"tefactor", "sampler", "start", "store", "panel", "blr"} {
		logging.SetLevel(level, module)
	}

	// print revision
	log.Info(version)

	// print commandline
	log.Info("Command line:", os.Args)

	if *seed == -1 {
		*seed = time.Now().UnixNano()
		log.Debug("Random seed from time")
	}
	log.Infof("Random seed=%v", *seed)

	runtime.GOMAXPROCS(*nThreads)

	effectiveNThreads := runtime.GOMAXPROCS(0)
	log.Infof("Using threads: %d.\n", effectiveNThreads)

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	cfg, err := readConfig(*configFileName)
	if err != nil {
		log.Fatal("Error reading configuration:", err)
	}
	rs := newRunSettings(cfg, effectiveNThreads, uint64(*seed))

	summary := run(rs)
	summary.NThreads = effectiveNThreads
	summary.Version = version
	summary.CommandLine = os.Args
	summary.Seed = rs.seed
	summary.TotalTime = time.Since(programStart).Seconds()

	// output summary in json format
	if *jsonF != "" {
		j, err := json.Marshal(summary)
		if err != nil {
			log.Error(err)
		} else {
			log.Debug(string(j))
			f, err := os.Create(*jsonF)
			if err != nil {
				log.Error("Error creating json output file:", err)
			} else {
				f.Write(j)
				f.Close()
			}
		}
	}
}
