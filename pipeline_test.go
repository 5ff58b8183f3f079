package vcdstat_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/waveline/vcdstat"
	"github.com/waveline/vcdstat/vcd"
)

const clkDump = `$timescale 1ns $end
$scope module top $end
$var wire 1 ! clk $end
$var wire 8 " q $end
$upscope $end
$enddefinitions $end
#0
$dumpvars
1!
b00000001 "
$end
#5
0!
#10
1!
b11111111 "
`

func mustRun(t *testing.T, dump string, cfg vcdstat.Config) *vcdstat.Pipeline {
	t.Helper()
	p, err := vcdstat.New(strings.NewReader(dump), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestFrequencySignedAndUnsigned(t *testing.T) {
	base := vcdstat.Config{
		Clock:   "clk",
		Edge:    vcdstat.Rising,
		Signals: []string{"q"},
	}

	signed := base
	signed.Numeric = vcdstat.Signed
	p := mustRun(t, clkDump, signed)
	q := p.Stats()[0]
	assert.Equal(t, uint64(1), q.Freq.Count(vcdstat.IntValue(1)))
	assert.Equal(t, uint64(1), q.Freq.Count(vcdstat.IntValue(-1)))
	assert.Equal(t, 2, q.Freq.Len())

	unsigned := base
	unsigned.Numeric = vcdstat.Unsigned
	p = mustRun(t, clkDump, unsigned)
	q = p.Stats()[0]
	assert.Equal(t, uint64(1), q.Freq.Count(vcdstat.IntValue(1)))
	assert.Equal(t, uint64(1), q.Freq.Count(vcdstat.IntValue(255)))
	assert.Equal(t, 2, q.Freq.Len())

	assert.Equal(t, uint64(2), p.Samples())
	assert.Equal(t, uint64(2), q.Freq.Total(),
		"total counts == sampling instants with a decodable value")
}

func TestUnknownZeroSubstitutes(t *testing.T) {
	dump := `$scope module top $end
$var wire 1 ! clk $end
$var wire 3 " q $end
$upscope $end
$enddefinitions $end
#0
1!
bz00 "
`
	cfg := vcdstat.Config{
		Clock:   "clk",
		Edge:    vcdstat.Rising,
		Signals: []string{"q"},
		Unknown: vcdstat.UnknownZero,
	}
	p := mustRun(t, dump, cfg)
	assert.Equal(t, uint64(1), p.Stats()[0].Freq.Count(vcdstat.IntValue(0)))
}

func TestUnknownSkipDropsSample(t *testing.T) {
	dump := `$scope module top $end
$var wire 1 ! clk $end
$var wire 3 " q $end
$upscope $end
$enddefinitions $end
#0
1!
bz00 "
`
	cfg := vcdstat.Config{
		Clock:   "clk",
		Edge:    vcdstat.Rising,
		Signals: []string{"q"},
		Unknown: vcdstat.UnknownSkip,
	}
	p := mustRun(t, dump, cfg)
	st := p.Stats()[0]
	assert.Equal(t, uint64(0), st.Freq.Total())
	assert.Equal(t, uint64(1), st.Dropped)
	assert.Equal(t, uint64(1), p.Samples())
}

func TestUnknownFailEscalates(t *testing.T) {
	dump := `$scope module top $end
$var wire 1 ! clk $end
$var wire 3 " q $end
$upscope $end
$enddefinitions $end
#4
bz00 "
`
	cfg := vcdstat.Config{
		Clock:   "clk",
		Edge:    vcdstat.Rising,
		Unknown: vcdstat.UnknownFail,
	}
	p, err := vcdstat.New(strings.NewReader(dump), cfg)
	if err != nil {
		t.Fatal(err)
	}
	err = p.Run()
	var de *vcdstat.DecodeError
	if assert.ErrorAs(t, err, &de) {
		assert.Equal(t, "top.q", de.Signal)
		assert.Equal(t, uint64(4), de.Time)
		assert.Equal(t, "bz00", de.Token)
	}
}

func TestUnknownClockIsConfigurationError(t *testing.T) {
	dir := t.TempDir()
	cfg := vcdstat.Config{Clock: "nope", Edge: vcdstat.Rising}
	_, err := vcdstat.New(strings.NewReader(clkDump), cfg)
	var ce *vcdstat.ConfigurationError
	if assert.ErrorAs(t, err, &ce) {
		assert.Equal(t, "clock_signal", ce.Option)
	}
	// the failure happens before any output file is created
	ents, _ := os.ReadDir(dir)
	assert.Empty(t, ents)
}

func TestUnknownSignalSuggestion(t *testing.T) {
	cfg := vcdstat.Config{Clock: "cl", Edge: vcdstat.Rising}
	_, err := vcdstat.New(strings.NewReader(clkDump), cfg)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), `did you mean "top.clk"?`)
	}
}

func TestAmbiguousSignalName(t *testing.T) {
	dump := `$scope module a $end
$var wire 1 ! clk $end
$upscope $end
$scope module b $end
$var wire 1 " clk $end
$upscope $end
$enddefinitions $end
`
	cfg := vcdstat.Config{Clock: "clk", Edge: vcdstat.Rising}
	_, err := vcdstat.New(strings.NewReader(dump), cfg)
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "ambiguous")
		assert.Contains(t, err.Error(), "a.clk")
		assert.Contains(t, err.Error(), "b.clk")
	}

	cfg.Clock = "a.clk"
	_, err = vcdstat.New(strings.NewReader(dump), cfg)
	assert.NoError(t, err, "full path disambiguates")
}

func TestRealFrequency(t *testing.T) {
	dump := `$scope module top $end
$var wire 1 ! clk $end
$var real 64 # temp $end
$upscope $end
$enddefinitions $end
#0
1!
r3.14 #
#5
0!
#10
1!
r3.14 #
`
	cfg := vcdstat.Config{
		Clock:   "clk",
		Edge:    vcdstat.Rising,
		Signals: []string{"temp"},
	}
	p := mustRun(t, dump, cfg)
	st := p.Stats()[0]
	assert.Equal(t, uint64(2), st.Freq.Count(vcdstat.RealValue(3.14)))
	assert.Equal(t, 1, st.Freq.Len())
}

func TestEmptySignalListWritesNothing(t *testing.T) {
	dir := t.TempDir()
	cfg := vcdstat.Config{
		Clock:   "clk",
		Edge:    vcdstat.Rising,
		Signals: []string{},
	}
	p := mustRun(t, clkDump, cfg)
	assert.NoError(t, p.WriteOutputs(dir))
	ents, err := os.ReadDir(dir)
	assert.NoError(t, err)
	assert.Empty(t, ents)
}

func TestWatchAllByDefault(t *testing.T) {
	cfg := vcdstat.Config{Clock: "clk", Edge: vcdstat.Rising}
	p := mustRun(t, clkDump, cfg)
	if assert.Len(t, p.Watched(), 2) {
		assert.Equal(t, "top.clk", p.Watched()[0].Path)
		assert.Equal(t, "top.q", p.Watched()[1].Path)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	mk := func() []byte {
		dir := t.TempDir()
		p := mustRun(t, clkDump, vcdstat.Config{Clock: "clk", Edge: vcdstat.Rising})
		if err := p.WriteOutputs(dir); err != nil {
			t.Fatal(err)
		}
		var all []byte
		for _, name := range []string{"top.clk.tsv", "top.q.tsv"} {
			b, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				t.Fatal(err)
			}
			all = append(all, b...)
		}
		return all
	}
	assert.Equal(t, mk(), mk())
}

func TestShardedRunMatchesSynchronous(t *testing.T) {
	run := func(workers int) *vcdstat.SignalStats {
		cfg := vcdstat.Config{
			Clock:   "clk",
			Edge:    vcdstat.Rising,
			Signals: []string{"q"},
			Workers: workers,
		}
		return mustRun(t, clkDump, cfg).Stats()[0]
	}
	a, b := run(0), run(2)
	assert.Equal(t, a.Freq.Values(), b.Freq.Values())
	assert.Equal(t, a.Freq.Total(), b.Freq.Total())
}

func TestBodyErrorLimit(t *testing.T) {
	dump := `$scope module top $end
$var wire 1 ! clk $end
$upscope $end
$enddefinitions $end
#0
1?
2?
3?
`
	cfg := vcdstat.Config{Clock: "clk", Edge: vcdstat.Rising, ErrLimit: 2}
	p, err := vcdstat.New(strings.NewReader(dump), cfg)
	if err != nil {
		t.Fatal(err)
	}
	err = p.Run()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "more than 2 body errors")
	}
}

func TestBodyErrorsBelowLimitAreRecorded(t *testing.T) {
	dump := `$scope module top $end
$var wire 1 ! clk $end
$upscope $end
$enddefinitions $end
#0
1?
1!
`
	cfg := vcdstat.Config{Clock: "clk", Edge: vcdstat.Rising}
	p := mustRun(t, dump, cfg)
	if assert.Len(t, p.Errors(), 1) {
		assert.Contains(t, p.Errors()[0].Error(), "undeclared identifier")
	}
	assert.Equal(t, uint64(1), p.Applied())
	assert.Equal(t, uint64(1), p.Samples())
}

func TestIntegerWidthBoundsWatchedSignals(t *testing.T) {
	dump := `$scope module top $end
$var wire 1 ! clk $end
$var wire 100 " wide $end
$upscope $end
$enddefinitions $end
`
	cfg := vcdstat.Config{Clock: "clk", Edge: vcdstat.Rising, Signals: []string{"wide"}}
	_, err := vcdstat.New(strings.NewReader(dump), cfg)
	var ce *vcdstat.ConfigurationError
	if assert.ErrorAs(t, err, &ce) {
		assert.Equal(t, "integer_width", ce.Option)
	}

	cfg.IntegerWidth = 128
	_, err = vcdstat.New(strings.NewReader(dump), cfg)
	assert.NoError(t, err)
}

func TestWatchObserversSeeDecodedChanges(t *testing.T) {
	cfg := vcdstat.Config{
		Clock:   "clk",
		Edge:    vcdstat.Rising,
		Signals: []string{"q"},
		Numeric: vcdstat.Unsigned,
	}
	p, err := vcdstat.New(strings.NewReader(clkDump), cfg)
	if err != nil {
		t.Fatal(err)
	}
	var got []vcdstat.Value
	var times []uint64
	_, err = p.Watch("q", vcdstat.ObserverFunc(func(t uint64, _ *vcd.Signal, v vcdstat.Value) {
		got = append(got, v)
		times = append(times, t)
	}))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Run(); err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, []vcdstat.Value{vcdstat.IntValue(1), vcdstat.IntValue(255)}, got)
	assert.Equal(t, []uint64{0, 10}, times)
}

func TestAbortRetainsPartialTables(t *testing.T) {
	cfg := vcdstat.Config{Clock: "clk", Edge: vcdstat.Rising, Signals: []string{"q"}}
	p, err := vcdstat.New(strings.NewReader(clkDump), cfg)
	if err != nil {
		t.Fatal(err)
	}
	p.Abort()
	assert.NoError(t, p.Run())
	assert.Equal(t, uint64(0), p.Samples())
	assert.NotNil(t, p.Stats()[0].Freq)
}
