// simpanel writes a synthetic panel for tefactor.
package main

import (
	"os"

	"github.com/op/go-logging"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/yaml.v3"

	"bitbucket.org/Davydov/tefactor/panel"
	"bitbucket.org/Davydov/tefactor/sim"
)

var log = logging.MustGetLogger("simpanel")

var (
	app = kingpin.New("simpanel", "synthetic panel generator")

	n         = app.Flag("n", "number of subjects").Default("200").Int()
	tmax      = app.Flag("tmax", "number of periods").Default("2").Int()
	onset     = app.Flag("onset", "first post-treatment period").Default("0").Int()
	seed      = app.Flag("seed", "random generator seed").Default("1").Uint64()
	truthF    = app.Flag("truth", "YAML file with the true parameters").ExistingFile()
	outF      = app.Flag("out", "output CSV file (stdout by default)").String()
	columnsF  = app.Flag("columns", "write the column mapping as a tefactor configuration").String()
	thetaFlag = app.Flag("theta", "print the realized factor").Bool()
)

// columnsConfig is the column section of a tefactor configuration.
type columnsConfig struct {
	Columns panel.Columns `yaml:"columns"`
}

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	truth := sim.DefaultTruth(*tmax)
	if *truthF != "" {
		b, err := os.ReadFile(*truthF)
		if err != nil {
			log.Fatal(err)
		}
		if err := yaml.Unmarshal(b, &truth); err != nil {
			log.Fatal(err)
		}
	}

	res, err := sim.Generate(sim.Config{N: *n, TMax: *tmax, Onset: *onset, Truth: truth, Seed: *seed})
	if err != nil {
		log.Fatal(err)
	}

	w := os.Stdout
	if *outF != "" {
		f, err := os.Create(*outF)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		w = f
	}
	if err := sim.WriteCSV(w, res.Panel); err != nil {
		log.Fatal(err)
	}

	if *columnsF != "" {
		b, err := yaml.Marshal(columnsConfig{Columns: sim.Columns(res.Panel)})
		if err != nil {
			log.Fatal(err)
		}
		if err := os.WriteFile(*columnsF, b, 0644); err != nil {
			log.Fatal(err)
		}
	}

	if *thetaFlag {
		for i, th := range res.Theta {
			log.Noticef("%s\t%v", res.Panel.IDs[i], th)
		}
	}
}
