// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

// Package lex implements a small state-function lexer engine for streaming
// text formats. Clients provide an initial StateFn; a state function consumes
// runes and emits items, then returns the next state (nil returns to the
// initial state).
package lex

import (
	"bufio"
	"fmt"
	"io"
)

// EOF is returned by Next at end of input and is also the item type of the
// final item emitted by a lexer.
const EOF = -1

// Type identifies the type of an Item. Client packages define their own
// token types starting at 0.
type Type int

// A Pos locates a token in the input stream.
type Pos struct {
	Off  int64 // byte offset from the start of the input
	Line int   // 1-based line number
}

func (p Pos) String() string {
	return fmt.Sprintf("line %d (offset %d)", p.Line, p.Off)
}

// An Item is a token emitted by a lexer.
type Item struct {
	Type  Type
	Pos   Pos
	Value interface{}
}

func (i Item) String() string {
	if i.Type == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%v", i.Value)
}

// A StateFn scans runes from the lexer and emits items. It returns the next
// state function, or nil to return to the initial state.
type StateFn func(l *Lexer) StateFn

// A Lexer holds the scanning state machine.
type Lexer struct {
	r     *bufio.Reader
	init  StateFn
	state StateFn
	queue []Item

	cur    rune
	pos    Pos // position of cur
	next   Pos // position of the rune after cur
	start  Pos // position of the first significant rune since the last Emit
	fresh  bool
	backed bool
	err    error
}

// New returns a new lexer reading from r with init as its initial state.
func New(r io.Reader, init StateFn) *Lexer {
	return &Lexer{
		r:     bufio.NewReader(r),
		init:  init,
		next:  Pos{Line: 1},
		fresh: true,
	}
}

// Lex runs the state machine until the next item is available and returns it.
func (l *Lexer) Lex() Item {
	for len(l.queue) == 0 {
		st := l.state
		if st == nil {
			st = l.init
		}
		l.state = st(l)
	}
	it := l.queue[0]
	copy(l.queue, l.queue[1:])
	l.queue = l.queue[:len(l.queue)-1]
	return it
}

// Next returns the next rune from the input, or EOF.
func (l *Lexer) Next() rune {
	if l.backed {
		l.backed = false
		if l.fresh && l.cur != EOF {
			l.start = l.pos
			l.fresh = false
		}
		return l.cur
	}
	r, sz, err := l.r.ReadRune()
	if err != nil {
		if err != io.EOF {
			l.err = err
		}
		l.cur = EOF
		l.pos = l.next
		return EOF
	}
	l.pos = l.next
	l.next.Off += int64(sz)
	if r == '\n' {
		l.next.Line = l.pos.Line + 1
	} else {
		l.next.Line = l.pos.Line
	}
	l.cur = r
	if l.fresh {
		l.start = l.pos
		l.fresh = false
	}
	return r
}

// Current returns the last rune returned by Next.
func (l *Lexer) Current() rune {
	return l.cur
}

// Backup un-reads the last rune. Only one rune may be backed up.
func (l *Lexer) Backup() {
	l.backed = true
}

// AcceptWhile consumes runes for as long as pred returns true. The first rune
// not accepted is backed up.
func (l *Lexer) AcceptWhile(pred func(r rune) bool) {
	for {
		r := l.Next()
		if r == EOF || !pred(r) {
			l.Backup()
			return
		}
	}
}

// Emit queues an item of type t with value v, positioned at the first
// significant rune consumed since the previous Emit or Discard.
func (l *Lexer) Emit(t Type, v interface{}) {
	l.queue = append(l.queue, Item{Type: t, Pos: l.start, Value: v})
	l.fresh = true
}

// Discard marks all runes consumed so far as insignificant, so that the next
// emitted item is positioned at the next rune instead.
func (l *Lexer) Discard() {
	l.fresh = true
}

// Pos returns the position of the current rune.
func (l *Lexer) Pos() Pos {
	return l.pos
}

// Err returns the first non-EOF read error encountered, if any.
func (l *Lexer) Err() error {
	return l.err
}
