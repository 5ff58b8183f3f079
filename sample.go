// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdstat

import (
	"github.com/pkg/errors"
	"github.com/waveline/vcdstat/vcd"
)

// Edge is the clock transition that triggers sampling.
type Edge int

// Edge kinds.
const (
	Rising Edge = iota
	Falling
)

func (e Edge) String() string {
	if e == Rising {
		return "rising"
	}
	return "falling"
}

// ParseEdge parses the "edge" configuration value.
func ParseEdge(s string) (Edge, error) {
	switch s {
	case "rising":
		return Rising, nil
	case "falling":
		return Falling, nil
	}
	return 0, errors.Errorf("invalid edge %q (rising|falling)", s)
}

// A Sample is the snapshot taken at one sampling instant: the timestamp and
// the last-known value of every watched signal, indexed like the watched
// signal list.
type Sample struct {
	Time   uint64
	Values []Value
}

// A SamplingController watches a designated clock signal for a configured
// edge and snapshots the last-known values of the watched signals when it
// fires. It keeps a last-known-value cache for every declared signal, seeded
// to Unknown until first observed.
//
// The controller must only be asked for a sample (EndTime) after every value
// change of the current timestamp has been observed; this is the per
// timestamp barrier that keeps samples atomic.
type SamplingController struct {
	clock   *vcd.Signal
	edge    Edge
	watched []*vcd.Signal

	last  map[string]Value // last-known value by identifier code
	level int8             // current clock level: 0, 1, or -1 for unknown
	prev  int8             // clock level at the current timestamp's entry
}

// NewSamplingController returns a controller triggering on the given edge of
// clock, snapshotting the watched signals.
func NewSamplingController(clock *vcd.Signal, edge Edge, watched []*vcd.Signal) *SamplingController {
	return &SamplingController{
		clock:   clock,
		edge:    edge,
		watched: watched,
		last:    make(map[string]Value),
		level:   -1,
		prev:    -1,
	}
}

// BeginTime marks the start of a new timestamp, capturing the clock level
// against which EndTime detects an edge.
func (s *SamplingController) BeginTime() {
	s.prev = s.level
}

// Observe records the decoded value of one change event. raw is the change's
// raw token, used to track the clock level exactly even when the decode
// policy maps the clock's bits to something other than 0 and 1.
func (s *SamplingController) Observe(sig *vcd.Signal, v Value, raw string) {
	s.last[sig.Code] = v
	if sig.Code == s.clock.Code {
		s.level = clockLevel(raw)
	}
}

// Last returns the last-known value of the signal with the given identifier
// code, Unknown if it has not been observed yet.
func (s *SamplingController) Last(code string) Value {
	if v, ok := s.last[code]; ok {
		return v
	}
	return UnknownValue()
}

// EndTime closes the current timestamp after all of its changes have been
// observed. If the clock made a qualifying transition during the timestamp,
// it returns the Sample for that instant. At most one sample is produced per
// timestamp, so duplicate markers collapse.
func (s *SamplingController) EndTime(t uint64) (Sample, bool) {
	target := int8(1)
	if s.edge == Falling {
		target = 0
	}
	if s.level != target || s.prev == target {
		return Sample{}, false
	}
	s.prev = s.level
	sm := Sample{Time: t, Values: make([]Value, len(s.watched))}
	for i, sig := range s.watched {
		sm.Values[i] = s.Last(sig.Code)
	}
	return sm, true
}

// clockLevel extracts the logic level of a clock change from its raw token:
// 1, 0, or -1 when the level is unknown. For vectors the least significant
// bit is used.
func clockLevel(raw string) int8 {
	switch raw[len(raw)-1] {
	case '1':
		return 1
	case '0':
		return 0
	}
	return -1
}
