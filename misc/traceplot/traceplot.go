// traceplot creates a trace plot of a parameter stored in a tefactor
// bolt database.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/op/go-logging"
	bolt "go.etcd.io/bbolt"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gopkg.in/alecthomas/kingpin.v2"

	"bitbucket.org/Davydov/tefactor/sampler"
	"bitbucket.org/Davydov/tefactor/store"
)

var log = logging.MustGetLogger("traceplot")

var (
	app = kingpin.New("traceplot", "trace plot of a tefactor parameter")

	dbFileName = app.Arg("db", "bolt database written by tefactor").Required().ExistingFile()
	parameter  = app.Arg("parameter", "parameter name, e.g. delta or lambda[t=0,d=1]").String()

	runID    = app.Flag("run", "run id (all runs by default)").String()
	chain    = app.Flag("chain", "chain number (all chains by default)").Default("-1").Int()
	noBurnIn = app.Flag("noburnin", "skip burn-in iterations").Bool()
	list     = app.Flag("list", "list runs and parameter names").Bool()
	outF     = app.Flag("out", "output file").Default("trace.png").String()
	size     = app.Flag("size", "plot size in inches").Default("6").Float64()
)

// selected returns the chains to plot.
func selected(metas []sampler.Meta) []sampler.Meta {
	var sel []sampler.Meta
	for _, meta := range metas {
		if *runID != "" && meta.RunID != *runID {
			continue
		}
		if *chain >= 0 && meta.Chain != *chain {
			continue
		}
		sel = append(sel, meta)
	}
	return sel
}

// trace returns trace points of the parameter.
func trace(db *bolt.DB, meta sampler.Meta, name string) (plotter.XYs, error) {
	a, err := store.LoadArchive(db, meta.RunID, meta.Chain)
	if err != nil {
		return nil, err
	}
	tr, err := a.Trace(name)
	if err != nil {
		return nil, err
	}
	draws := a.Draws()
	pts := make(plotter.XYs, 0, len(tr))
	for i, v := range tr {
		iter := draws[i].Iter
		if *noBurnIn && iter < a.BurnIn {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(iter), Y: v})
	}
	return pts, nil
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))
	logging.SetLevel(logging.WARNING, "store")

	db, err := bolt.Open(*dbFileName, 0600, &bolt.Options{Timeout: 1 * time.Second, ReadOnly: true})
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	metas, err := store.Chains(db)
	if err != nil {
		log.Fatal(err)
	}
	metas = selected(metas)
	if len(metas) == 0 {
		log.Fatal("No chains found")
	}

	if *list {
		for _, meta := range metas {
			fmt.Printf("run=%s chain=%d seed=%d iterations=%d\n", meta.RunID, meta.Chain, meta.Seed, meta.Total)
		}
		for _, name := range metas[0].Names() {
			fmt.Println(name)
		}
		return
	}
	if *parameter == "" {
		log.Fatal("Parameter name is required")
	}

	p := plot.New()
	p.Title.Text = *parameter
	p.X.Label.Text = "iteration"

	var lines []interface{}
	for _, meta := range metas {
		pts, err := trace(db, meta, *parameter)
		if err != nil {
			log.Fatal(err)
		}
		lines = append(lines, fmt.Sprintf("chain %d", meta.Chain), pts)
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		log.Fatal(err)
	}

	if err := p.Save(vg.Length(*size)*vg.Inch, vg.Length(*size)*vg.Inch, *outF); err != nil {
		log.Fatal(err)
	}
}
