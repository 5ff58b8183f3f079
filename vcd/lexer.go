// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package vcd

import (
	"io"
	"strings"
	"unicode"

	"github.com/waveline/vcdstat/internal/lex"
)

// Tokens
const (
	EOF     lex.Type = lex.EOF
	Keyword lex.Type = iota // $-prefixed command word, e.g. "$var"
	Word                    // any other whitespace-delimited word
)

// Lexer returns a lexer that splits a VCD stream into keywords and words.
// VCD is entirely whitespace-delimited, so this is the whole lexical layer;
// interpreting words as timestamps or value changes is the reader's job.
func Lexer(r io.Reader) *lex.Lexer {
	return lex.New(r, lexInit)
}

func lexInit(l *lex.Lexer) lex.StateFn {
	r := l.Next()
	switch {
	case r == lex.EOF:
		return lexEOF
	case unicode.IsSpace(r):
		l.AcceptWhile(unicode.IsSpace)
		l.Discard()
	case r == '$':
		return lexWord(Keyword)
	default:
		return lexWord(Word)
	}
	return nil
}

func lexWord(t lex.Type) lex.StateFn {
	return func(l *lex.Lexer) lex.StateFn {
		var buf strings.Builder
		buf.Grow(8)
		buf.WriteRune(l.Current())
		r := l.Next()
		for r != lex.EOF && !unicode.IsSpace(r) {
			buf.WriteRune(r)
			r = l.Next()
		}
		l.Backup()
		l.Emit(t, buf.String())
		return nil
	}
}

// lexEOF places the lexer in End-Of-File state.
// Once in this state, the lexer will only emit EOF.
func lexEOF(l *lex.Lexer) lex.StateFn {
	l.Emit(lex.EOF, "end of input")
	return lexEOF
}
