// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdstat

import (
	"math/big"
	"strconv"
)

// ValueKind tags a decoded value.
type ValueKind uint8

// Decoded value kinds.
const (
	KindUnknown ValueKind = iota // at least one unknown or high-impedance bit
	KindInt                      // integer representable in an int64
	KindBig                      // integer outside the int64 range
	KindReal                     // double-precision floating point
)

// A Value is a decoded signal value. Values are comparable and usable as map
// keys; integers that do not fit in an int64 are carried as a canonical
// decimal string so that frequency tables stay exact for wide vectors.
type Value struct {
	Kind ValueKind
	Int  int64
	Real float64
	Big  string // canonical decimal representation, KindBig only
}

// UnknownValue returns the unknown value.
func UnknownValue() Value {
	return Value{Kind: KindUnknown}
}

// IntValue returns an integer value.
func IntValue(v int64) Value {
	return Value{Kind: KindInt, Int: v}
}

// RealValue returns a floating point value.
func RealValue(v float64) Value {
	return Value{Kind: KindReal, Real: v}
}

// BigValue returns an integer value from v, normalizing to KindInt when v
// fits in an int64.
func BigValue(v *big.Int) Value {
	if v.IsInt64() {
		return IntValue(v.Int64())
	}
	return Value{Kind: KindBig, Big: v.String()}
}

// IsKnown reports whether v holds a concrete value.
func (v Value) IsKnown() bool {
	return v.Kind != KindUnknown
}

func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindBig:
		return v.Big
	case KindReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	}
	return "x"
}

// bigInt returns the integer value of v as a big.Int. Valid for KindInt and
// KindBig only.
func (v Value) bigInt() *big.Int {
	if v.Kind == KindInt {
		return big.NewInt(v.Int)
	}
	b, _ := new(big.Int).SetString(v.Big, 10)
	return b
}

// Less orders values for deterministic output: integers first in numeric
// order, then reals, then unknown.
func (v Value) Less(o Value) bool {
	vi := v.Kind == KindInt || v.Kind == KindBig
	oi := o.Kind == KindInt || o.Kind == KindBig
	switch {
	case vi && oi:
		if v.Kind == KindInt && o.Kind == KindInt {
			return v.Int < o.Int
		}
		return v.bigInt().Cmp(o.bigInt()) < 0
	case vi != oi:
		return vi
	case v.Kind == KindReal && o.Kind == KindReal:
		return v.Real < o.Real
	}
	return v.Kind != KindUnknown && o.Kind == KindUnknown
}
