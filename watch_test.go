package vcdstat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/waveline/vcdstat"
	"github.com/waveline/vcdstat/vcd"
)

func TestRegistryInvokesInRegistrationOrder(t *testing.T) {
	r := vcdstat.NewRegistry()
	sig := vec(1)

	var order []string
	r.Register(sig.Code, vcdstat.ObserverFunc(func(_ uint64, _ *vcd.Signal, _ vcdstat.Value) {
		order = append(order, "first")
	}))
	r.Register(sig.Code, vcdstat.ObserverFunc(func(_ uint64, _ *vcd.Signal, _ vcdstat.Value) {
		order = append(order, "second")
	}))

	r.Dispatch([]vcdstat.Change{{Time: 1, Signal: sig, Value: vcdstat.IntValue(1)}})
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRegistryDispatchesOnlyToOwnSignal(t *testing.T) {
	r := vcdstat.NewRegistry()
	a := &vcd.Signal{Code: "a", Width: 1}
	b := &vcd.Signal{Code: "b", Width: 1}

	var got []string
	r.Register("a", vcdstat.ObserverFunc(func(_ uint64, s *vcd.Signal, _ vcdstat.Value) {
		got = append(got, s.Code)
	}))
	r.Dispatch([]vcdstat.Change{
		{Time: 1, Signal: b, Value: vcdstat.IntValue(0)},
		{Time: 1, Signal: a, Value: vcdstat.IntValue(1)},
	})
	assert.Equal(t, []string{"a"}, got)
}

func TestUnregisterTakesEffectAfterDispatch(t *testing.T) {
	r := vcdstat.NewRegistry()
	sig := vec(1)

	var calls int
	var h vcdstat.Handle
	h = r.Register(sig.Code, vcdstat.ObserverFunc(func(_ uint64, _ *vcd.Signal, _ vcdstat.Value) {
		calls++
		r.Unregister(h) // deferred until the current timestamp completes
	}))

	// two changes in the same timestamp: both must be delivered
	batch := []vcdstat.Change{
		{Time: 1, Signal: sig, Value: vcdstat.IntValue(0)},
		{Time: 1, Signal: sig, Value: vcdstat.IntValue(1)},
	}
	r.Dispatch(batch)
	assert.Equal(t, 2, calls)

	// next timestamp: the observer is gone
	r.Dispatch([]vcdstat.Change{{Time: 2, Signal: sig, Value: vcdstat.IntValue(0)}})
	assert.Equal(t, 2, calls)
}

func TestUnregisterOutsideDispatch(t *testing.T) {
	r := vcdstat.NewRegistry()
	sig := vec(1)

	var calls int
	h := r.Register(sig.Code, vcdstat.ObserverFunc(func(_ uint64, _ *vcd.Signal, _ vcdstat.Value) {
		calls++
	}))
	r.Unregister(h)
	r.Dispatch([]vcdstat.Change{{Time: 1, Signal: sig, Value: vcdstat.IntValue(1)}})
	assert.Equal(t, 0, calls)
}
