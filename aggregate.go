// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdstat

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/waveline/vcdstat/vcd"
	"golang.org/x/exp/maps"
)

// Mode selects what is collected per watched signal.
type Mode int

// Aggregation modes.
const (
	Frequency  Mode = iota // value -> occurrence count
	TimeSeries             // ordered (time, value) pairs
)

// ParseMode parses the "mode" configuration value.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "frequency":
		return Frequency, nil
	case "timeseries":
		return TimeSeries, nil
	}
	return 0, errors.Errorf("invalid mode %q (frequency|timeseries)", s)
}

// A FrequencyTable maps observed values to the number of sampling instants at
// which they occurred. Its memory grows with the number of distinct values,
// not with the number of samples; vector widths can be large, so the domain
// is open.
type FrequencyTable struct {
	counts map[Value]uint64
}

// NewFrequencyTable returns an empty table.
func NewFrequencyTable() *FrequencyTable {
	return &FrequencyTable{counts: make(map[Value]uint64)}
}

// Add increments the count for v.
func (t *FrequencyTable) Add(v Value) {
	t.counts[v]++
}

// Count returns the count recorded for v.
func (t *FrequencyTable) Count(v Value) uint64 {
	return t.counts[v]
}

// Total returns the sum of all counts.
func (t *FrequencyTable) Total() uint64 {
	var n uint64
	for _, c := range t.counts {
		n += c
	}
	return n
}

// Len returns the number of distinct values observed.
func (t *FrequencyTable) Len() int {
	return len(t.counts)
}

// Values returns the distinct observed values in deterministic (numeric)
// order.
func (t *FrequencyTable) Values() []Value {
	vs := maps.Keys(t.counts)
	sort.Slice(vs, func(i, j int) bool { return vs[i].Less(vs[j]) })
	return vs
}

// A TimedValue is one time-series entry.
type TimedValue struct {
	Time  uint64
	Value Value
}

// SignalStats holds everything aggregated for one watched signal.
type SignalStats struct {
	Signal  *vcd.Signal
	Freq    *FrequencyTable
	Series  []TimedValue // time-series mode only
	Dropped uint64       // samples dropped because the value was unknown
}

// An Aggregator folds samples into per-signal statistics. With workers > 0 it
// shards the watched signals over that many goroutines; each signal's table
// has exactly one writer, and Apply does not return before every shard has
// finished the sample, so the per-timestamp barrier holds.
type Aggregator struct {
	mode    Mode
	stats   []*SignalStats
	samples uint64

	shards []chan Sample
	wg     sync.WaitGroup
}

// NewAggregator returns an aggregator for the watched signals. workers <= 0
// selects the synchronous path.
func NewAggregator(watched []*vcd.Signal, mode Mode, workers int) *Aggregator {
	a := &Aggregator{mode: mode}
	for _, sig := range watched {
		a.stats = append(a.stats, &SignalStats{Signal: sig, Freq: NewFrequencyTable()})
	}
	if workers > len(a.stats) {
		workers = len(a.stats)
	}
	for i := 0; i < workers; i++ {
		ch := make(chan Sample, 1)
		a.shards = append(a.shards, ch)
		go a.run(i, ch)
	}
	return a
}

func (a *Aggregator) run(shard int, ch <-chan Sample) {
	for {
		s, ok := <-ch
		if !ok {
			a.wg.Done()
			return
		}
		for i := shard; i < len(a.stats); i += len(a.shards) {
			a.applyOne(i, s)
		}
		a.wg.Done()
	}
}

// Apply folds one sample into the statistics of every watched signal. It
// returns once the sample has been fully applied.
func (a *Aggregator) Apply(s Sample) {
	a.samples++
	if len(a.shards) == 0 {
		for i := range a.stats {
			a.applyOne(i, s)
		}
		return
	}
	a.wg.Add(len(a.shards))
	for _, ch := range a.shards {
		ch <- s
	}
	a.wg.Wait()
}

func (a *Aggregator) applyOne(i int, s Sample) {
	st := a.stats[i]
	v := s.Values[i]
	if !v.IsKnown() {
		st.Dropped++
		return
	}
	if a.mode == TimeSeries {
		st.Series = append(st.Series, TimedValue{Time: s.Time, Value: v})
		return
	}
	st.Freq.Add(v)
}

// Close stops the shard goroutines, if any. The aggregated statistics remain
// available.
func (a *Aggregator) Close() {
	if len(a.shards) == 0 {
		return
	}
	a.wg.Add(len(a.shards))
	for _, ch := range a.shards {
		close(ch)
	}
	a.wg.Wait()
	a.shards = nil
}

// Stats returns the per-signal statistics, ordered like the watched signal
// list.
func (a *Aggregator) Stats() []*SignalStats {
	return a.stats
}

// Samples returns the number of sampling instants applied so far.
func (a *Aggregator) Samples() uint64 {
	return a.samples
}
