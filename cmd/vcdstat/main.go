// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

// Command vcdstat reads a VCD waveform dump and writes one value-frequency
// table (or time series) per watched signal.
//
// Usage:
//
//	vcdstat -clock top.clk [options] dump.vcd
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/pkg/profile"
	"github.com/waveline/vcdstat"
)

const version = "0.3.0"

func main() {
	log.SetFlags(0)
	log.SetPrefix("vcdstat: ")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s -clock <signal> [options] <dump.vcd>\n", os.Args[0])
		flag.PrintDefaults()
	}
	clock := flag.String("clock", "", "`name` of the clock signal triggering sampling (required)")
	edge := flag.String("edge", "rising", "sampling clock edge: rising|falling")
	signals := flag.String("signals", "", "comma-separated `names` of signals to watch (default all declared)")
	mode := flag.String("mode", "frequency", "output mode: frequency|timeseries")
	unknown := flag.String("unknown", "skip", "unknown-bit policy: fail|zero|skip")
	numeric := flag.String("numeric", "unsigned", "integer interpretation of vectors: unsigned|signed")
	width := flag.Int("width", vcdstat.DefaultIntegerWidth, "target `bits` for sign extension; bounds watched vector widths")
	outDir := flag.String("o", ".", "output `directory`")
	errLimit := flag.Int("errlimit", vcdstat.DefaultErrLimit, "abort after `n` malformed body records (-1: no limit)")
	workers := flag.Int("workers", 0, "shard aggregation over `n` goroutines (0: synchronous)")
	cpuprofile := flag.Bool("cpuprofile", false, "write a CPU profile to the current directory")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}
	if flag.NArg() != 1 || *clock == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *cpuprofile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	cfg, err := buildConfig(*clock, *edge, *signals, *mode, *unknown, *numeric,
		*width, *errLimit, *workers)
	if err != nil {
		log.Println(err)
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *outDir, cfg); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func buildConfig(clock, edge, signals, mode, unknown, numeric string,
	width, errLimit, workers int) (vcdstat.Config, error) {

	cfg := vcdstat.Config{
		Clock:        clock,
		IntegerWidth: width,
		ErrLimit:     errLimit,
		Workers:      workers,
	}
	var err error
	if cfg.Edge, err = vcdstat.ParseEdge(edge); err != nil {
		return cfg, err
	}
	if cfg.Mode, err = vcdstat.ParseMode(mode); err != nil {
		return cfg, err
	}
	if cfg.Unknown, err = vcdstat.ParseUnknownPolicy(unknown); err != nil {
		return cfg, err
	}
	if cfg.Numeric, err = vcdstat.ParseNumericMode(numeric); err != nil {
		return cfg, err
	}
	cfg.Signals = splitSignals(signals)
	return cfg, nil
}

// splitSignals maps the -signals flag to the Config convention: flag unset
// watches everything, set but empty watches nothing.
func splitSignals(s string) []string {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "signals" {
			set = true
		}
	})
	if !set {
		return nil
	}
	var names []string
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	if names == nil {
		names = []string{}
	}
	return names
}

func run(inPath, outDir string, cfg vcdstat.Config) error {
	f, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer f.Close()

	p, err := vcdstat.New(f, cfg)
	if err != nil {
		return err
	}
	if err := p.Run(); err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	if err := p.WriteOutputs(outDir); err != nil {
		return err
	}

	st := p.Symbols()
	if ts := st.Timescale.String(); ts != "" {
		log.Printf("timescale %s", ts)
	}
	log.Printf("%d signals declared, %d watched", len(st.Signals()), len(p.Watched()))
	log.Printf("%d changes applied, %d samples taken, %d records skipped",
		p.Applied(), p.Samples(), len(p.Errors()))
	for _, e := range p.Errors() {
		log.Printf("  skipped: %v", e)
	}
	for _, s := range p.Stats() {
		if s.Freq.Len() > 0 {
			log.Printf("%s: %d distinct values over %d samples",
				s.Signal.Path, s.Freq.Len(), s.Freq.Total())
		}
	}
	return nil
}
