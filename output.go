// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdstat

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Writer serializes aggregated statistics, one tab-separated file per
// watched signal. A failure writing one signal's file does not affect files
// already written; the first failure is reported after all signals have been
// attempted.
type Writer struct {
	Dir  string
	Mode Mode
}

// WriteAll writes one file per signal in stats. Already existing files are
// truncated.
func (w *Writer) WriteAll(stats []*SignalStats) error {
	var first error
	for _, st := range stats {
		if err := w.WriteSignal(st); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// WriteSignal writes the output file for a single signal.
func (w *Writer) WriteSignal(st *SignalStats) error {
	name := filepath.Join(w.Dir, FileName(st.Signal.Path))
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "create output for "+st.Signal.Path)
	}
	bw := bufio.NewWriter(f)
	if w.Mode == TimeSeries {
		writeSeries(bw, st.Series)
	} else {
		writeTable(bw, st.Freq)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "write output for "+st.Signal.Path)
	}
	return errors.Wrap(f.Close(), "close output for "+st.Signal.Path)
}

func writeTable(bw *bufio.Writer, t *FrequencyTable) {
	bw.WriteString("value\tcount\n")
	for _, v := range t.Values() {
		bw.WriteString(v.String())
		bw.WriteByte('\t')
		bw.WriteString(strconv.FormatUint(t.Count(v), 10))
		bw.WriteByte('\n')
	}
}

func writeSeries(bw *bufio.Writer, series []TimedValue) {
	bw.WriteString("time\tvalue\n")
	for _, tv := range series {
		bw.WriteString(strconv.FormatUint(tv.Time, 10))
		bw.WriteByte('\t')
		bw.WriteString(tv.Value.String())
		bw.WriteByte('\n')
	}
}

// FileName maps a hierarchical signal name to its output file name.
// Characters that are unsafe in file names are replaced with '_'.
func FileName(path string) string {
	var b strings.Builder
	b.Grow(len(path) + 4)
	for _, r := range path {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString(".tsv")
	return b.String()
}
