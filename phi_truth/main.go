package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/profile"

	"github.com/decibelcooper/phiana"
	"github.com/decibelcooper/phiana/event"
	"github.com/decibelcooper/phiana/frame"
	"github.com/decibelcooper/phiana/reco"
	"github.com/decibelcooper/phiana/store"
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [options] <proio-input-file>

Computes the generator-level observables of exclusive phi events.

options:
`,
		os.Args[0],
	)
	flag.PrintDefaults()
}

var (
	output    = flag.String("o", "phi_truth.csv", "output file (.root, .csv or .db)")
	beam      = flag.Float64("beam", 10.6, "beam energy in GeV")
	workers   = flag.Int("workers", 1, "number of events evaluated concurrently")
	maxEvents = flag.Int64("n", 0, "maximum number of events to read (0 for all)")
	doProfile = flag.Bool("profile", false, "write a CPU profile")
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() != 1 {
		printUsage()
		os.Exit(1)
	}

	if *doProfile {
		defer profile.Start().Stop()
	}

	logger := phiana.NewLogger(os.Stdout, os.Stderr, slog.LevelInfo)

	src, err := store.OpenProio(flag.Arg(0))
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer src.Close()

	plan := reco.ReconstructFull(reco.SelectExclusivePhiEvent(frame.NewPlan(), event.IgnoreDaughter), *beam)
	sink, err := store.Create(*output, store.FormatAuto, "phi_truth", plan.Columns())
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	stats, err := plan.Run(context.Background(), src, sink, frame.WithWorkers(*workers), frame.WithLimit(*maxEvents))
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		logger.Error(fmt.Errorf("processing %s: %w", flag.Arg(0), err).Error())
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("Kept %d of %d generated events", stats.Kept, stats.Read), "main")
}
