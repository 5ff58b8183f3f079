// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdstat

import (
	"fmt"

	"github.com/waveline/vcdstat/internal/lex"
)

// A DecodeError reports a value token that could not be decoded for its
// signal: a malformed literal, or an unknown bit under the fail policy. It
// carries the record's position and the nearest preceding timestamp.
type DecodeError struct {
	Signal string // hierarchical signal name
	Token  string // raw value token
	Time   uint64
	Pos    lex.Pos
	Msg    string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s in token %q at %s, near time %d",
		e.Signal, e.Msg, e.Token, e.Pos, e.Time)
}

// A ConfigurationError reports an invalid run configuration, such as a clock
// or watched signal absent from the symbol table. It is raised before the
// body is parsed and before any output file is opened.
type ConfigurationError struct {
	Option string
	Msg    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %s", e.Option, e.Msg)
}
