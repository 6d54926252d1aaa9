package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pkg/profile"

	"github.com/decibelcooper/phiana"
	"github.com/decibelcooper/phiana/event"
	"github.com/decibelcooper/phiana/frame"
	"github.com/decibelcooper/phiana/reco"
	"github.com/decibelcooper/phiana/store"
)

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: %s [options] [<root-input-file>]

Reconstructs exclusive phi -> K+ K- events from a tree of reconstructed
particles and writes the per-event observables.

options:
`,
		os.Args[0],
	)
	flag.PrintDefaults()
}

// cliFlags holds the command-line overrides of the configuration file.
// Zero strings, non-positive numbers and -1 counts mean unset.
type cliFlags struct {
	config     string
	tree       string
	output     string
	format     string
	channel    string
	beam       float64
	daughter   string
	workers    int
	skip       int64
	maxEvents  int64
	verbosity  int
	profile    bool
	selections phiana.SelectionFlags
}

func newFlags(fs *flag.FlagSet) *cliFlags {
	c := &cliFlags{}
	fs.StringVar(&c.config, "config", "", "configuration file path")
	fs.StringVar(&c.tree, "tree", "", "input tree name")
	fs.StringVar(&c.output, "o", "", "output file (.root, .csv or .db)")
	fs.StringVar(&c.format, "format", "", "output format: auto, root, csv or sqlite")
	fs.StringVar(&c.channel, "channel", "", "full, missing-km (exclusive-kp) or missing-kp (exclusive-km)")
	fs.Float64Var(&c.beam, "beam", 0, "beam energy in GeV")
	fs.StringVar(&c.daughter, "daughter", "", "kaon provenance for the phi selection: ignore or require")
	fs.IntVar(&c.workers, "workers", 0, "number of events evaluated concurrently")
	fs.Int64Var(&c.skip, "skip", -1, "number of events to skip")
	fs.Int64Var(&c.maxEvents, "n", -1, "maximum number of events to read (0 for all)")
	fs.IntVar(&c.verbosity, "v", -1, "verbosity level")
	fs.BoolVar(&c.profile, "profile", false, "write a CPU profile")
	fs.Var(&c.selections, "select", "event selection, repeatable: "+fmt.Sprint(reco.Selections()))
	return c
}

// configure loads the configuration file and applies the overrides. args
// are the positional arguments; the first one is the input file.
func (c *cliFlags) configure(args []string) (phiana.Configuration, error) {
	config, err := phiana.LoadConfiguration(c.config)
	if err != nil {
		return config, fmt.Errorf("reading configuration file: %w", err)
	}

	if len(args) > 0 {
		config.FileIn = args[0]
	}
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&config.Tree, c.tree)
	setString(&config.FileOut, c.output)
	setString(&config.Format, c.format)
	setString(&config.Channel, c.channel)
	setString(&config.DaughterPolicy, c.daughter)
	if c.beam > 0 {
		config.BeamEnergy = c.beam
	}
	if c.workers > 0 {
		config.NumWorkers = c.workers
	}
	if c.skip >= 0 {
		config.Skip = c.skip
	}
	if c.maxEvents >= 0 {
		config.MaxEvents = c.maxEvents
	}
	if c.verbosity >= 0 {
		config.Verbosity = c.verbosity
	}
	if c.selections.IsSet() {
		config.Selections = c.selections.Names
	}
	config.Profile = config.Profile || c.profile

	if config.FileIn == "" {
		return config, fmt.Errorf("no input file")
	}
	return config, nil
}

func main() {
	cli := newFlags(flag.CommandLine)
	flag.Usage = printUsage
	flag.Parse()

	logger := phiana.NewLogger(os.Stdout, os.Stderr, slog.LevelDebug)
	config, err := cli.configure(flag.Args())
	if err == nil {
		err = run(config, logger)
	}
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run(config phiana.Configuration, logger phiana.Logger) error {
	if config.Verbosity > 0 {
		phiana.PrintConfiguration(config, logger)
	}
	if config.Profile {
		defer profile.Start().Stop()
	}

	ch, err := reco.ParseChannel(config.Channel)
	if err != nil {
		return err
	}
	policy, err := event.ParseDaughterPolicy(config.DaughterPolicy)
	if err != nil {
		return err
	}
	outFormat, err := store.ParseFormat(config.Format)
	if err != nil {
		return err
	}

	plan, err := reco.ApplySelections(frame.NewPlan(), config.Selections, policy)
	if err != nil {
		return err
	}
	plan = reco.Build(plan, ch, config.BeamEnergy)
	if err := plan.Err(); err != nil {
		return fmt.Errorf("building %s reconstruction: %w", ch, err)
	}
	if config.Verbosity > 1 {
		for _, s := range plan.Stages() {
			logger.Info(fmt.Sprintf("%s: %v -> %v", s.Label, s.Inputs, s.Outputs), "plan")
		}
	}

	src, err := store.OpenROOT(config.FileIn, config.Tree)
	if err != nil {
		return err
	}
	defer src.Close()
	if config.Verbosity > 0 {
		logger.Info(fmt.Sprintf("Number of events: %d", src.Entries()), "main")
	}

	sink, err := store.Create(config.FileOut, outFormat, config.OutTree, plan.Columns())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	stats, err := plan.Run(ctx, src, sink,
		frame.WithWorkers(config.NumWorkers),
		frame.WithSkip(config.Skip),
		frame.WithLimit(config.MaxEvents),
	)
	if cerr := sink.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("processing %s: %w", config.FileIn, err)
	}

	logger.Info(fmt.Sprintf("Channel %s: kept %d of %d events in %s", ch, stats.Kept, stats.Read, time.Since(start).Round(time.Millisecond)), "main")
	logger.Info(fmt.Sprintf("Wrote %s", config.FileOut), "main")
	return nil
}
