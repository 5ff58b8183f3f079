package lex_test

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/waveline/vcdstat/internal/lex"
)

const tWord lex.Type = iota

func lexWords(l *lex.Lexer) lex.StateFn {
	r := l.Next()
	switch {
	case r == lex.EOF:
		l.Emit(lex.EOF, "end of input")
		return lexWords
	case unicode.IsSpace(r):
		l.AcceptWhile(unicode.IsSpace)
		l.Discard()
		return nil
	}
	var buf strings.Builder
	buf.WriteRune(l.Current())
	r = l.Next()
	for r != lex.EOF && !unicode.IsSpace(r) {
		buf.WriteRune(r)
		r = l.Next()
	}
	l.Backup()
	l.Emit(tWord, buf.String())
	return nil
}

func TestLexWords(t *testing.T) {
	l := lex.New(strings.NewReader("ab cd\nef"), lexWords)

	it := l.Lex()
	assert.Equal(t, tWord, it.Type)
	assert.Equal(t, "ab", it.Value)
	assert.Equal(t, lex.Pos{Off: 0, Line: 1}, it.Pos)

	it = l.Lex()
	assert.Equal(t, "cd", it.Value)
	assert.Equal(t, lex.Pos{Off: 3, Line: 1}, it.Pos)

	it = l.Lex()
	assert.Equal(t, "ef", it.Value)
	assert.Equal(t, lex.Pos{Off: 6, Line: 2}, it.Pos)

	for i := 0; i < 3; i++ {
		it = l.Lex()
		assert.Equal(t, lex.Type(lex.EOF), it.Type, "EOF must repeat")
	}
	assert.NoError(t, l.Err())
}

func TestLexLeadingSpace(t *testing.T) {
	l := lex.New(strings.NewReader("  \n x"), lexWords)
	it := l.Lex()
	assert.Equal(t, "x", it.Value)
	assert.Equal(t, lex.Pos{Off: 4, Line: 2}, it.Pos)
}

func TestLexEmpty(t *testing.T) {
	l := lex.New(strings.NewReader(""), lexWords)
	assert.Equal(t, lex.Type(lex.EOF), l.Lex().Type)
}

func TestPosString(t *testing.T) {
	assert.Equal(t, "line 3 (offset 17)", lex.Pos{Off: 17, Line: 3}.String())
}
