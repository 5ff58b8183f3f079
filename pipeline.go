// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdstat

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/waveline/vcdstat/vcd"
)

// DefaultErrLimit is the number of non-fatal body errors tolerated before a
// run becomes fatal, when Config.ErrLimit is zero.
const DefaultErrLimit = 100

// DefaultIntegerWidth is the sign-extension target width used when
// Config.IntegerWidth is zero.
const DefaultIntegerWidth = 64

// Config configures a Pipeline.
type Config struct {
	// Clock names the signal whose edges trigger sampling, by full
	// hierarchical path or by unambiguous unqualified name.
	Clock string
	// Edge is the qualifying clock transition.
	Edge Edge
	// Signals lists the signals to watch, by path or unambiguous name. A nil
	// slice watches every declared signal; an empty non-nil slice watches
	// none.
	Signals []string
	// Mode selects frequency tables or time series.
	Mode Mode
	// Numeric selects the integer interpretation of bit vectors.
	Numeric NumericMode
	// Unknown selects the unknown-bit policy.
	Unknown UnknownPolicy
	// IntegerWidth is the target width signed values are extended to. It
	// bounds the declared width of watched vector signals. 0 means 64.
	IntegerWidth int
	// ErrLimit is the number of body errors above which the run aborts.
	// 0 means DefaultErrLimit; negative disables the limit.
	ErrLimit int
	// Workers shards sample aggregation over this many goroutines.
	// 0 keeps the pipeline fully synchronous.
	Workers int
}

// A Pipeline owns one streaming run over a dump: the symbol table, the
// watcher registry, the sampling controller and all frequency tables. Memory
// use is independent of the dump size except for the distinct values
// accumulated in the tables.
type Pipeline struct {
	cfg     Config
	rd      *vcd.Reader
	table   *vcd.SymbolTable
	reg     *Registry
	sc      *SamplingController
	agg     *Aggregator
	policy  Policy
	watched []*vcd.Signal

	batch   []Change
	raws    []string
	errs    []error
	applied uint64
	stopped int32
}

// New parses the declaration section of the dump read from rd and sets up a
// pipeline per cfg. Configuration problems (unknown clock or signal names,
// widths over the integer width) are reported here, before any body record is
// read and before any output file is opened.
func New(rd io.Reader, cfg Config) (*Pipeline, error) {
	r, err := vcd.NewReader(rd)
	if err != nil {
		return nil, err
	}
	if cfg.IntegerWidth == 0 {
		cfg.IntegerWidth = DefaultIntegerWidth
	}
	if cfg.ErrLimit == 0 {
		cfg.ErrLimit = DefaultErrLimit
	}
	table := r.Symbols()

	clock, err := resolveSignal(table, cfg.Clock, "clock_signal")
	if err != nil {
		return nil, err
	}
	watched, err := resolveWatched(table, cfg.Signals)
	if err != nil {
		return nil, err
	}
	for _, sig := range watched {
		if sig.Kind == vcd.KindVector && sig.Width > cfg.IntegerWidth {
			return nil, &ConfigurationError{Option: "integer_width",
				Msg: fmt.Sprintf("signal %s is %d bits wide, over the integer width %d",
					sig.Path, sig.Width, cfg.IntegerWidth)}
		}
	}

	p := &Pipeline{
		cfg:     cfg,
		rd:      r,
		table:   table,
		reg:     NewRegistry(),
		sc:      NewSamplingController(clock, cfg.Edge, watched),
		agg:     NewAggregator(watched, cfg.Mode, cfg.Workers),
		watched: watched,
		policy: Policy{
			Numeric: cfg.Numeric,
			Unknown: cfg.Unknown,
			Width:   cfg.IntegerWidth,
		},
	}
	return p, nil
}

// Symbols returns the signal directory of the dump.
func (p *Pipeline) Symbols() *vcd.SymbolTable {
	return p.table
}

// Watched returns the watched signals, in configuration order.
func (p *Pipeline) Watched() []*vcd.Signal {
	return p.watched
}

// Watch registers an observer for decoded changes of the named signal.
func (p *Pipeline) Watch(name string, o Observer) (Handle, error) {
	sig, err := resolveSignal(p.table, name, "signals")
	if err != nil {
		return Handle{}, err
	}
	return p.reg.Register(sig.Code, o), nil
}

// Unwatch removes a registration made with Watch.
func (p *Pipeline) Unwatch(h Handle) {
	p.reg.Unregister(h)
}

// Run streams the body of the dump to completion. Body errors below the
// configured limit are recorded (see Errors) and skipped. On a fatal error,
// tables covering the timestamps processed so far remain available.
func (p *Pipeline) Run() error {
	defer p.agg.Close()
	cur := uint64(0)
	p.sc.BeginTime()
	for atomic.LoadInt32(&p.stopped) == 0 {
		ev, err := p.rd.Next()
		if err == io.EOF {
			p.flush(cur)
			return nil
		}
		if rerr, ok := err.(*vcd.RecordError); ok {
			if ferr := p.bodyError(rerr); ferr != nil {
				return ferr
			}
			continue
		}
		if err != nil {
			return err
		}
		switch ev.Kind {
		case vcd.EventTime:
			// a repeated marker for the same instant stays in the group
			if ev.Time != cur {
				p.flush(cur)
				cur = ev.Time
				p.sc.BeginTime()
			}
		case vcd.EventChange:
			sig := p.table.Signal(ev.Code)
			v, derr := Decode(ev.Raw, sig, p.policy)
			if derr != nil {
				de := &DecodeError{Signal: sig.Path, Token: ev.Raw, Time: ev.Time,
					Pos: ev.Pos, Msg: derr.Error()}
				if IsUnknownBits(derr) && p.cfg.Unknown == UnknownFail {
					return de
				}
				if ferr := p.bodyError(de); ferr != nil {
					return ferr
				}
				continue
			}
			p.batch = append(p.batch, Change{Time: ev.Time, Signal: sig, Value: v})
			p.raws = append(p.raws, ev.Raw)
			p.applied++
		}
	}
	return nil
}

// flush closes the current timestamp: every change has been decoded and
// queued, so the cache update, the observer dispatch and the sampling trigger
// all see the instant atomically.
func (p *Pipeline) flush(t uint64) {
	for i, c := range p.batch {
		p.sc.Observe(c.Signal, c.Value, p.raws[i])
	}
	p.reg.Dispatch(p.batch)
	if s, ok := p.sc.EndTime(t); ok {
		p.agg.Apply(s)
	}
	p.batch = p.batch[:0]
	p.raws = p.raws[:0]
}

func (p *Pipeline) bodyError(err error) error {
	p.errs = append(p.errs, err)
	if p.cfg.ErrLimit >= 0 && len(p.errs) > p.cfg.ErrLimit {
		return errors.Wrapf(err, "more than %d body errors", p.cfg.ErrLimit)
	}
	return nil
}

// Abort stops Run before the next timestamp. Tables covering the timestamps
// fully processed so far are retained; aggregation is append-only, so no
// rollback is needed. Abort is safe to call from another goroutine.
func (p *Pipeline) Abort() {
	atomic.StoreInt32(&p.stopped, 1)
}

// Stats returns the per-signal statistics, ordered like Watched.
func (p *Pipeline) Stats() []*SignalStats {
	return p.agg.Stats()
}

// Samples returns the number of sampling instants taken.
func (p *Pipeline) Samples() uint64 {
	return p.agg.Samples()
}

// Applied returns the number of value changes decoded and applied.
func (p *Pipeline) Applied() uint64 {
	return p.applied
}

// Errors returns the non-fatal body errors recorded during Run, in order of
// occurrence.
func (p *Pipeline) Errors() []error {
	return p.errs
}

// WriteOutputs writes one file per watched signal into dir. A failure on one
// signal's file does not affect the others.
func (p *Pipeline) WriteOutputs(dir string) error {
	w := &Writer{Dir: dir, Mode: p.cfg.Mode}
	return w.WriteAll(p.agg.Stats())
}
