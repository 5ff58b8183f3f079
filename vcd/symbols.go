// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package vcd

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/waveline/vcdstat/internal/lex"
)

// VarKind tags a signal's value domain.
type VarKind int

// Value domains.
const (
	KindVector VarKind = iota // bit vector ('0', '1', 'x', 'z' per bit)
	KindReal                  // floating point
)

// A Signal describes one declared variable. Signals are created during header
// parsing and immutable thereafter.
type Signal struct {
	Code  string  // identifier code, unique within the dump
	Name  string  // declared name, without scope
	Path  string  // full hierarchical name, scopes joined with '.'
	Type  string  // declared type: wire, reg, integer, real, ...
	Width int     // bit width, > 0
	Kind  VarKind // value domain
	Scope int     // index of the enclosing scope in the arena
}

// A Scope is a node of the hierarchical scope tree. The tree is stored as an
// arena of nodes with parent/child indices; index 0 is the implicit root.
type Scope struct {
	Name     string
	Kind     string // module, task, function, begin, fork
	Parent   int    // -1 for the root
	Children []int
}

// A Timescale is the time unit of the dump's timestamps.
type Timescale struct {
	Magnitude int    // 1, 10 or 100
	Unit      string // s, ms, us, ns, ps or fs
}

func (t Timescale) String() string {
	if t.Unit == "" {
		return ""
	}
	return strconv.Itoa(t.Magnitude) + t.Unit
}

// ParseTimescale parses the text of a $timescale command, either as a single
// word ("10ns") or as separate magnitude and unit words ("10 ns").
func ParseTimescale(text string) (Timescale, error) {
	s := strings.Join(strings.Fields(text), "")
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	mag, err := strconv.Atoi(s[:i])
	if err != nil {
		return Timescale{}, errors.Errorf("invalid timescale %q", text)
	}
	unit := s[i:]
	switch mag {
	case 1, 10, 100:
	default:
		return Timescale{}, errors.Errorf("invalid timescale magnitude %d", mag)
	}
	switch unit {
	case "s", "ms", "us", "ns", "ps", "fs":
	default:
		return Timescale{}, errors.Errorf("invalid timescale unit %q", unit)
	}
	return Timescale{Magnitude: mag, Unit: unit}, nil
}

// A SymbolTable is the signal directory built from the declaration section.
type SymbolTable struct {
	Date      string
	Version   string
	Timescale Timescale

	scopes  []Scope
	signals map[string]*Signal   // canonical signal by identifier code
	byPath  map[string]*Signal   // every declared path, aliases included
	byName  map[string][]*Signal // unqualified name -> declarations
	order   []*Signal            // declaration order, aliases included
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{
		scopes:  []Scope{{Parent: -1}},
		signals: make(map[string]*Signal),
		byPath:  make(map[string]*Signal),
		byName:  make(map[string][]*Signal),
	}
}

// Signal returns the canonical signal declared with the given identifier
// code, or nil.
func (t *SymbolTable) Signal(code string) *Signal {
	return t.signals[code]
}

// LookupPath returns the signal declared with the given full hierarchical
// name, or nil.
func (t *SymbolTable) LookupPath(path string) *Signal {
	return t.byPath[path]
}

// LookupName returns all signals declared with the given unqualified name.
func (t *SymbolTable) LookupName(name string) []*Signal {
	return t.byName[name]
}

// Signals returns all declared signals in declaration order, aliases
// included.
func (t *SymbolTable) Signals() []*Signal {
	return t.order
}

// Scopes returns the scope arena. Index 0 is the root.
func (t *SymbolTable) Scopes() []Scope {
	return t.scopes
}

// Paths returns the full hierarchical names of all declared signals in
// declaration order.
func (t *SymbolTable) Paths() []string {
	paths := make([]string, len(t.order))
	for i, s := range t.order {
		paths[i] = s.Path
	}
	return paths
}

// scopePath returns the '.'-joined path of scope n, or "" for the root.
func (t *SymbolTable) scopePath(n int) string {
	var parts []string
	for n > 0 {
		parts = append(parts, t.scopes[n].Name)
		n = t.scopes[n].Parent
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// symbolBuilder accumulates declarations during the header phase. Scope
// nesting is tracked with an explicit stack of arena indices.
type symbolBuilder struct {
	t     *SymbolTable
	stack []int // scope indices, bottom is the root
}

func newSymbolBuilder() *symbolBuilder {
	return &symbolBuilder{t: newSymbolTable(), stack: []int{0}}
}

func (b *symbolBuilder) pushScope(kind, name string) {
	parent := b.stack[len(b.stack)-1]
	n := len(b.t.scopes)
	b.t.scopes = append(b.t.scopes, Scope{Name: name, Kind: kind, Parent: parent})
	b.t.scopes[parent].Children = append(b.t.scopes[parent].Children, n)
	b.stack = append(b.stack, n)
}

func (b *symbolBuilder) popScope() bool {
	if len(b.stack) <= 1 {
		return false
	}
	b.stack = b.stack[:len(b.stack)-1]
	return true
}

func (b *symbolBuilder) declare(pos lex.Pos, typ string, width int, code, name string) error {
	kind := KindVector
	if typ == "real" || typ == "realtime" {
		kind = KindReal
	}
	if prev, ok := b.t.signals[code]; ok && prev.Width != width {
		return &DuplicateIdentifierError{Pos: pos, Code: code, Have: prev.Width, Want: width}
	}
	cur := b.stack[len(b.stack)-1]
	sig := &Signal{
		Code:  code,
		Name:  name,
		Type:  typ,
		Width: width,
		Kind:  kind,
		Scope: cur,
	}
	if p := b.t.scopePath(cur); p != "" {
		sig.Path = p + "." + name
	} else {
		sig.Path = name
	}
	if _, ok := b.t.signals[code]; !ok {
		b.t.signals[code] = sig
	}
	b.t.byPath[sig.Path] = sig
	b.t.byName[name] = append(b.t.byName[name], sig)
	b.t.order = append(b.t.order, sig)
	return nil
}
