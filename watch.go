// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdstat

import (
	"github.com/waveline/vcdstat/vcd"
)

// An Observer receives decoded value changes for a signal it is registered
// on. Observers are invoked once per change, after every change of the same
// timestamp has been decoded.
type Observer interface {
	OnChange(t uint64, sig *vcd.Signal, v Value)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(t uint64, sig *vcd.Signal, v Value)

// OnChange calls f.
func (f ObserverFunc) OnChange(t uint64, sig *vcd.Signal, v Value) {
	f(t, sig, v)
}

// A Handle identifies a registration with a Registry.
type Handle struct {
	code string
	seq  int
}

type watcher struct {
	seq int
	o   Observer
}

// A Registry holds, per signal, the ordered set of registered observers and
// delivers decoded changes to them one timestamp at a time. It is owned by a
// single pipeline and is not safe for concurrent use.
type Registry struct {
	seq         int
	obs         map[string][]watcher // identifier code -> registration order
	dispatching bool
	deferred    []Handle
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{obs: make(map[string][]watcher)}
}

// Register adds o as an observer of the signal with the given identifier
// code. Observers of one signal are invoked in registration order.
func (r *Registry) Register(code string, o Observer) Handle {
	r.seq++
	h := Handle{code: code, seq: r.seq}
	r.obs[code] = append(r.obs[code], watcher{seq: r.seq, o: o})
	return h
}

// Unregister removes the registration h. When called from inside an observer
// callback it takes effect only after the current timestamp's dispatch
// completes.
func (r *Registry) Unregister(h Handle) {
	if r.dispatching {
		r.deferred = append(r.deferred, h)
		return
	}
	r.remove(h)
}

func (r *Registry) remove(h Handle) {
	ws := r.obs[h.code]
	for i, w := range ws {
		if w.seq == h.seq {
			r.obs[h.code] = append(ws[:i:i], ws[i+1:]...)
			return
		}
	}
}

// A Change is one decoded value change, queued for dispatch.
type Change struct {
	Time   uint64
	Signal *vcd.Signal
	Value  Value
}

// Dispatch delivers one timestamp's worth of decoded changes. All changes
// must belong to the same timestamp; none of them becomes visible to an
// observer before every one has been decoded and queued.
func (r *Registry) Dispatch(batch []Change) {
	r.dispatching = true
	for _, c := range batch {
		for _, w := range r.obs[c.Signal.Code] {
			w.o.OnChange(c.Time, c.Signal, c.Value)
		}
	}
	r.dispatching = false
	for _, h := range r.deferred {
		r.remove(h)
	}
	r.deferred = r.deferred[:0]
}
