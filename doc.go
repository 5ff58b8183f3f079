/*
Package vcdstat turns value-change dump (VCD) waveforms into per-signal
value-frequency tables.

It streams a dump through a single pull-based pipeline: the vcd reader
tokenizes the file and builds the signal directory from the declaration
section, the decoder turns raw value tokens into typed values under a
configurable numeric and unknown-bit policy, and a sampling controller
snapshots the last-known value of every watched signal on each qualifying
clock edge. Snapshots are folded into open frequency tables (or, optionally,
ordered time series) whose memory grows only with the number of distinct
observed values.

A minimal run:

	p, err := vcdstat.New(f, vcdstat.Config{
		Clock: "top.clk",
		Edge:  vcdstat.Rising,
		Mode:  vcdstat.Frequency,
	})
	if err != nil {
		// setup errors: bad dump header, unknown signal names
	}
	if err := p.Run(); err != nil {
		// fatal stream errors; partial tables remain in p.Stats()
	}
	err = p.WriteOutputs("out")

The pipeline is single threaded and memory use is independent of the dump
size. Setting Config.Workers shards sample aggregation across goroutines;
each signal's table has a single writer and a barrier at every timestamp
keeps sampling exact, so results are identical to the synchronous path.
*/
package vcdstat
