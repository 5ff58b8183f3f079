// Copyright 2021 Waveline authors.
// Licensed under the MIT license. See license text in the LICENSE file.

package vcdstat

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/waveline/vcdstat/vcd"
)

// NumericMode selects the integer interpretation of bit vectors.
type NumericMode int

// Integer interpretations.
const (
	Unsigned NumericMode = iota
	Signed
)

// ParseNumericMode parses the "numeric" configuration value.
func ParseNumericMode(s string) (NumericMode, error) {
	switch s {
	case "unsigned":
		return Unsigned, nil
	case "signed":
		return Signed, nil
	}
	return 0, errors.Errorf("invalid numeric mode %q (unsigned|signed)", s)
}

// UnknownPolicy selects what happens when a value has unknown or
// high-impedance bits.
type UnknownPolicy int

// Unknown-bit policies.
const (
	UnknownSkip UnknownPolicy = iota // drop the signal's sample at that instant
	UnknownZero                      // substitute a concrete zero value
	UnknownFail                      // first occurrence is fatal
)

// ParseUnknownPolicy parses the "unknown" configuration value.
func ParseUnknownPolicy(s string) (UnknownPolicy, error) {
	switch s {
	case "skip":
		return UnknownSkip, nil
	case "zero":
		return UnknownZero, nil
	case "fail":
		return UnknownFail, nil
	}
	return 0, errors.Errorf("invalid unknown policy %q (fail|zero|skip)", s)
}

// A Policy configures the decoding of raw value tokens.
type Policy struct {
	Numeric NumericMode
	Unknown UnknownPolicy
	// Width is the target integer width that signed values are extended to
	// by replicating their sign bit. Extension preserves the numeric value,
	// so Width only bounds the declared width of watched vector signals.
	Width int
}

var errUnknownBits = errors.New("unknown or high-impedance bit")

// Decode converts the raw value token of a change event into a typed value
// according to the signal's descriptor and the decode policy. It is a pure
// function: no state is read or written besides its arguments.
//
// Vector tokens shorter than the declared width are left-extended per the VCD
// rules: with '0' when the leftmost bit is '0' or '1', otherwise with the
// leftmost 'x' or 'z' bit itself.
func Decode(raw string, sig *vcd.Signal, p Policy) (Value, error) {
	if sig.Kind == vcd.KindReal {
		if raw[0] != 'r' {
			return UnknownValue(), errors.Errorf("bit token for real signal")
		}
		f, err := strconv.ParseFloat(raw[1:], 64)
		if err != nil {
			return UnknownValue(), errors.Errorf("malformed real literal %q", raw[1:])
		}
		return RealValue(f), nil
	}
	if raw[0] == 'r' {
		return UnknownValue(), errors.Errorf("real token for bit-vector signal")
	}

	var bits string
	switch raw[0] {
	case 'b':
		bits = raw[1:]
	case '0', '1', 'x', 'z':
		bits = raw
	default:
		return UnknownValue(), errors.Errorf("malformed value token")
	}
	if len(bits) > sig.Width {
		return UnknownValue(), errors.Errorf("vector wider than declared width %d", sig.Width)
	}
	if strings.ContainsAny(bits, "xz") {
		switch p.Unknown {
		case UnknownZero:
			return IntValue(0), nil
		case UnknownFail:
			return UnknownValue(), errUnknownBits
		}
		return UnknownValue(), nil
	}
	bits = extend(bits, sig.Width)

	v, ok := new(big.Int).SetString(bits, 2)
	if !ok {
		return UnknownValue(), errors.Errorf("malformed bit vector")
	}
	if p.Numeric == Signed && bits[0] == '1' {
		// two's complement of the declared width
		m := new(big.Int).Lsh(big.NewInt(1), uint(sig.Width))
		v.Sub(v, m)
	}
	return BigValue(v), nil
}

// IsUnknownBits reports whether err is the unknown-bit decode failure raised
// under the fail policy.
func IsUnknownBits(err error) bool {
	return errors.Cause(err) == errUnknownBits
}

// extend left-extends bits to width per the VCD value extension rules.
func extend(bits string, width int) string {
	if len(bits) >= width {
		return bits
	}
	fill := byte('0')
	if bits[0] == 'x' || bits[0] == 'z' {
		fill = bits[0]
	}
	return strings.Repeat(string(fill), width-len(bits)) + bits
}
