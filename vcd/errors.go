// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package vcd

import (
	"fmt"

	"github.com/waveline/vcdstat/internal/lex"
)

// A StructuralError reports a malformed header or declaration section, or a
// body record appearing before $enddefinitions. It is fatal: no output may be
// produced after one is returned.
type StructuralError struct {
	Pos  lex.Pos
	Time uint64 // nearest preceding timestamp (0 in the header)
	Msg  string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("vcd: %s at %s, near time %d", e.Msg, e.Pos, e.Time)
}

// A DuplicateIdentifierError reports an identifier code redeclared with a
// different width. Redeclaring a code at the same width is a legal alias.
type DuplicateIdentifierError struct {
	Pos  lex.Pos
	Code string
	Have int // width of the original declaration
	Want int // width of the conflicting redeclaration
}

func (e *DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("vcd: identifier %q redeclared with width %d (was %d) at %s",
		e.Code, e.Want, e.Have, e.Pos)
}

// A RecordError reports a single malformed value-change record in the body.
// It is not fatal: the record is skipped and lexing continues.
type RecordError struct {
	Pos   lex.Pos
	Time  uint64 // nearest preceding timestamp
	Token string
	Msg   string
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("vcd: %s in record %q at %s, near time %d", e.Msg, e.Token, e.Pos, e.Time)
}
