// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

// Package vcd implements streaming access to value-change dump (VCD) files:
// a lexer, the signal directory built from the declaration section, and a
// pull-based reader over the body's timestamped value changes.
//
// The reader never holds more than one record in memory, so it can process
// dumps of any size. Malformed header syntax is fatal; malformed body records
// are reported as *RecordError and can be skipped by the caller.
package vcd

import (
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/waveline/vcdstat/internal/lex"
)

// Parse lifecycle: Header -> Declarations -> Body -> Done.
type phase int

const (
	phaseHeader phase = iota
	phaseDeclarations
	phaseBody
	phaseDone
)

// EventKind discriminates body events.
type EventKind int

// Body events.
const (
	EventTime   EventKind = iota // a #<time> timestamp marker
	EventChange                  // a scalar, vector or real value change
)

// An Event is one body record. Events are transient: the raw value token is
// only valid until it is decoded.
type Event struct {
	Kind EventKind
	Time uint64 // timestamp (for EventChange, the nearest preceding marker)
	Code string // identifier code (EventChange only)
	Raw  string // raw value token: "0", "1", "x", "z", "b...", "r..."
	Pos  lex.Pos
}

// A Reader streams events from a VCD dump. The declaration section is parsed
// eagerly by NewReader; body events are pulled one at a time with Next.
type Reader struct {
	lx    *lex.Lexer
	table *SymbolTable
	phase phase
	time  uint64
}

// NewReader parses the header and declaration section of the dump read from
// rd and returns a reader positioned at the start of the body. It fails with
// *StructuralError on malformed declarations and *DuplicateIdentifierError on
// width-conflicting redeclarations.
func NewReader(rd io.Reader) (*Reader, error) {
	r := &Reader{lx: Lexer(rd)}
	if err := r.parseHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// Symbols returns the signal directory built from the declaration section.
func (r *Reader) Symbols() *SymbolTable {
	return r.table
}

// Time returns the most recent timestamp marker, 0 before the first one.
func (r *Reader) Time() uint64 {
	return r.time
}

func (r *Reader) parseHeader() error {
	b := newSymbolBuilder()
	for {
		it := r.lx.Lex()
		switch it.Type {
		case EOF:
			if err := r.lx.Err(); err != nil {
				return errors.Wrap(err, "read")
			}
			return r.structural(it.Pos, "unexpected end of input before $enddefinitions")
		case Word:
			return r.structural(it.Pos, "value change before $enddefinitions")
		}
		kw := it.Value.(string)
		switch kw {
		case "$date", "$version", "$comment":
			words, _, err := r.collectToEnd(it.Pos, kw)
			if err != nil {
				return err
			}
			text := strings.Join(words, " ")
			if kw == "$date" {
				b.t.Date = text
			} else if kw == "$version" {
				b.t.Version = text
			}
		case "$timescale":
			words, pos, err := r.collectToEnd(it.Pos, kw)
			if err != nil {
				return err
			}
			ts, err := ParseTimescale(strings.Join(words, " "))
			if err != nil {
				return r.structural(pos, err.Error())
			}
			b.t.Timescale = ts
		case "$scope":
			words, pos, err := r.collectToEnd(it.Pos, kw)
			if err != nil {
				return err
			}
			if len(words) != 2 {
				return r.structural(pos, "$scope expects a kind and a name")
			}
			b.pushScope(words[0], words[1])
			r.phase = phaseDeclarations
		case "$upscope":
			words, pos, err := r.collectToEnd(it.Pos, kw)
			if err != nil {
				return err
			}
			if len(words) != 0 {
				return r.structural(pos, "$upscope expects no arguments")
			}
			if !b.popScope() {
				return r.structural(pos, "$upscope without matching $scope")
			}
		case "$var":
			words, pos, err := r.collectToEnd(it.Pos, kw)
			if err != nil {
				return err
			}
			if len(words) < 4 || len(words) > 5 {
				return r.structural(pos, "$var expects a type, width, identifier code and name")
			}
			width, err := strconv.Atoi(words[1])
			if err != nil || width <= 0 {
				return r.structural(pos, "invalid variable width "+strconv.Quote(words[1]))
			}
			name := words[3]
			if len(words) == 5 {
				// bit range of a vector, e.g. "q [7:0]"
				name += words[4]
			}
			if err := b.declare(pos, words[0], width, words[2], name); err != nil {
				return err
			}
			r.phase = phaseDeclarations
		case "$enddefinitions":
			words, pos, err := r.collectToEnd(it.Pos, kw)
			if err != nil {
				return err
			}
			if len(words) != 0 {
				return r.structural(pos, "$enddefinitions expects no arguments")
			}
			r.phase = phaseBody
			r.table = b.t
			return nil
		case "$dumpvars", "$dumpall", "$dumpon", "$dumpoff":
			return r.structural(it.Pos, kw+" before $enddefinitions")
		default:
			// unknown extension command, skip its arguments
			if _, _, err := r.collectToEnd(it.Pos, kw); err != nil {
				return err
			}
		}
	}
}

// collectToEnd gathers the words of a header command up to its closing $end.
func (r *Reader) collectToEnd(pos lex.Pos, kw string) ([]string, lex.Pos, error) {
	var words []string
	for {
		it := r.lx.Lex()
		switch it.Type {
		case EOF:
			return nil, pos, r.structural(pos, "unterminated "+kw+", missing $end")
		case Keyword:
			if it.Value.(string) == "$end" {
				return words, pos, nil
			}
			return nil, pos, r.structural(it.Pos, "unexpected "+it.Value.(string)+" inside "+kw)
		default:
			words = append(words, it.Value.(string))
		}
	}
}

func (r *Reader) structural(pos lex.Pos, msg string) error {
	return &StructuralError{Pos: pos, Time: r.time, Msg: msg}
}

// Next returns the next body event. It returns io.EOF at end of input, a
// *RecordError for a malformed record (the record is skipped; calling Next
// again resumes after it), and a wrapped read error on stream failure.
func (r *Reader) Next() (Event, error) {
	if r.phase == phaseDone {
		return Event{}, io.EOF
	}
	for {
		it := r.lx.Lex()
		switch it.Type {
		case EOF:
			r.phase = phaseDone
			if err := r.lx.Err(); err != nil {
				return Event{}, errors.Wrap(err, "read")
			}
			return Event{}, io.EOF
		case Keyword:
			kw := it.Value.(string)
			switch kw {
			case "$dumpvars", "$dumpall", "$dumpon", "$dumpoff", "$end":
				// dump sections carry ordinary value changes
				continue
			case "$comment":
				r.skipToEnd()
				continue
			default:
				return Event{}, &RecordError{Pos: it.Pos, Time: r.time, Token: kw,
					Msg: "unexpected command in body"}
			}
		}
		return r.record(it.Value.(string), it.Pos)
	}
}

func (r *Reader) record(w string, pos lex.Pos) (Event, error) {
	switch w[0] {
	case '#':
		t, err := strconv.ParseUint(w[1:], 10, 64)
		if err != nil {
			return Event{}, &RecordError{Pos: pos, Time: r.time, Token: w,
				Msg: "malformed timestamp"}
		}
		if t < r.time {
			return Event{}, &RecordError{Pos: pos, Time: r.time, Token: w,
				Msg: "timestamp decreases"}
		}
		r.time = t
		return Event{Kind: EventTime, Time: t, Pos: pos}, nil
	case '0', '1', 'x', 'X', 'z', 'Z':
		code := w[1:]
		if code == "" {
			return Event{}, &RecordError{Pos: pos, Time: r.time, Token: w,
				Msg: "missing identifier code"}
		}
		if r.table.Signal(code) == nil {
			return Event{}, &RecordError{Pos: pos, Time: r.time, Token: w,
				Msg: "undeclared identifier " + strconv.Quote(code)}
		}
		return Event{Kind: EventChange, Time: r.time, Code: code,
			Raw: strings.ToLower(w[:1]), Pos: pos}, nil
	case 'b', 'B':
		bits := strings.ToLower(w[1:])
		if bits == "" || strings.Trim(bits, "01xz") != "" {
			return Event{}, &RecordError{Pos: pos, Time: r.time, Token: w,
				Msg: "malformed bit vector"}
		}
		code, err := r.ident(w, pos)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: EventChange, Time: r.time, Code: code,
			Raw: "b" + bits, Pos: pos}, nil
	case 'r', 'R':
		if w[1:] == "" {
			return Event{}, &RecordError{Pos: pos, Time: r.time, Token: w,
				Msg: "malformed real value"}
		}
		code, err := r.ident(w, pos)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: EventChange, Time: r.time, Code: code,
			Raw: "r" + w[1:], Pos: pos}, nil
	}
	return Event{}, &RecordError{Pos: pos, Time: r.time, Token: w, Msg: "unexpected token"}
}

// ident reads the identifier code word following a vector or real value.
func (r *Reader) ident(val string, pos lex.Pos) (string, error) {
	it := r.lx.Lex()
	if it.Type != Word {
		return "", &RecordError{Pos: pos, Time: r.time, Token: val,
			Msg: "missing identifier code"}
	}
	code := it.Value.(string)
	if r.table.Signal(code) == nil {
		return "", &RecordError{Pos: it.Pos, Time: r.time, Token: val,
			Msg: "undeclared identifier " + strconv.Quote(code)}
	}
	return code, nil
}

func (r *Reader) skipToEnd() {
	for {
		it := r.lx.Lex()
		if it.Type == EOF {
			return
		}
		if it.Type == Keyword && it.Value.(string) == "$end" {
			return
		}
	}
}
