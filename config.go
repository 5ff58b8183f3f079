// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdstat

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/waveline/vcdstat/vcd"
)

// resolveSignal finds a declared signal by full hierarchical path, falling
// back to its unqualified name when that is unambiguous.
func resolveSignal(t *vcd.SymbolTable, name, option string) (*vcd.Signal, error) {
	if name == "" {
		return nil, &ConfigurationError{Option: option, Msg: "no signal name given"}
	}
	if s := t.LookupPath(name); s != nil {
		return s, nil
	}
	switch ss := t.LookupName(name); len(ss) {
	case 0:
	case 1:
		return ss[0], nil
	default:
		paths := make([]string, len(ss))
		for i, s := range ss {
			paths[i] = s.Path
		}
		return nil, &ConfigurationError{Option: option,
			Msg: "ambiguous signal name " + strconv.Quote(name) +
				", candidates: " + strings.Join(paths, ", ")}
	}
	msg := "unknown signal " + strconv.Quote(name)
	if s := suggest(name, t.Paths()); s != "" {
		msg += ", did you mean " + strconv.Quote(s) + "?"
	}
	return nil, &ConfigurationError{Option: option, Msg: msg}
}

// resolveWatched maps the configured signal list to signal descriptors. A nil
// list watches every declared signal (canonical declarations only, aliases
// excluded); an empty list watches none.
func resolveWatched(t *vcd.SymbolTable, names []string) ([]*vcd.Signal, error) {
	var watched []*vcd.Signal
	if names == nil {
		for _, s := range t.Signals() {
			if t.Signal(s.Code) == s {
				watched = append(watched, s)
			}
		}
		return watched, nil
	}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		s, err := resolveSignal(t, name, "signals")
		if err != nil {
			return nil, err
		}
		if seen[s.Path] {
			continue
		}
		seen[s.Path] = true
		watched = append(watched, s)
	}
	return watched, nil
}

// suggest returns the declared name closest to name, or "".
func suggest(name string, candidates []string) string {
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		// no candidate contains name; try matching against the last path
		// element instead
		for _, c := range candidates {
			base := c
			if i := strings.LastIndexByte(c, '.'); i >= 0 {
				base = c[i+1:]
			}
			if r := fuzzy.RankMatchFold(name, base); r >= 0 {
				ranks = append(ranks, fuzzy.Rank{Source: name, Target: c, Distance: r})
			}
		}
	}
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}
