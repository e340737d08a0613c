// Package bip32 implements the BIP-32 index and derivation-path algebra:
// normal and hardened child indexes, multipath derivation segments, and
// derivation paths built out of them.
package bip32

import (
	"fmt"
	"strconv"
	"strings"
)

// HardenedBoundary is the first child number reserved for hardened
// derivation, 2^31, per BIP-32.
const HardenedBoundary uint32 = 1 << 31

// IndexError is returned by operations on indexes that would otherwise
// over- or under-flow their valid range.
type IndexError struct {
	msg string
}

func (e *IndexError) Error() string { return e.msg }

// ErrHardenedWraparound is returned when incrementing the last hardened
// index, 0x7FFFFFFF.
var ErrHardenedWraparound = &IndexError{msg: "attempt to increment the last hardened index"}

// ErrNormalWraparound is returned when incrementing the last normal index,
// 0x7FFFFFFF.
var ErrNormalWraparound = &IndexError{msg: "attempt to increment the last normal index"}

// IndexParseError is returned when a textual index fails to parse.
type IndexParseError struct {
	Input string
	msg   string
}

func (e *IndexParseError) Error() string {
	return fmt.Sprintf("invalid derivation index '%s': %s", e.Input, e.msg)
}

func newIndexParseError(input, msg string) *IndexParseError {
	return &IndexParseError{Input: input, msg: msg}
}

// IdxBase is implemented by every index kind usable inside a DerivationSeg
// or DerivationPath: NormalIndex, HardenedIndex and DerivationIndex.
type IdxBase interface {
	comparable
	// ChildNumber returns the raw BIP-32 child number, with the hardened
	// bit folded in when the index is hardened.
	ChildNumber() uint32
	// IsHardened reports whether the index carries the hardened bit.
	IsHardened() bool
	String() string
}

// Idx extends IdxBase with the non-hardened offset, used by operations that
// need to rebuild an index of a different kind from the same numeric value.
type Idx interface {
	IdxBase
	// Index returns the offset within its half of the 32-bit space, i.e.
	// ChildNumber() with the hardened bit masked off.
	Index() uint32
}

// NormalIndex is a BIP-32 child number below the hardened boundary.
type NormalIndex struct {
	value uint32
}

// NormalZero and NormalOne are the two indexes used by the standard
// external/internal keychain pair.
var (
	NormalZero = NormalIndex{0}
	NormalOne  = NormalIndex{1}
)

// NewNormalIndex builds a NormalIndex, rejecting values at or past the
// hardened boundary.
func NewNormalIndex(value uint32) (NormalIndex, error) {
	if value >= HardenedBoundary {
		return NormalIndex{}, &IndexError{msg: fmt.Sprintf("normal index %d is at or past the hardened boundary", value)}
	}
	return NormalIndex{value}, nil
}

// MustNormalIndex is like NewNormalIndex but panics on error; reserved for
// constants known to be valid at compile time.
func MustNormalIndex(value uint32) NormalIndex {
	idx, err := NewNormalIndex(value)
	if err != nil {
		panic(err)
	}
	return idx
}

func (n NormalIndex) ChildNumber() uint32 { return n.value }
func (n NormalIndex) IsHardened() bool    { return false }
func (n NormalIndex) Index() uint32       { return n.value }
func (n NormalIndex) String() string      { return strconv.FormatUint(uint64(n.value), 10) }

// Increment returns the next normal index, failing when n is already the
// last one before the hardened boundary.
func (n NormalIndex) Increment() (NormalIndex, error) {
	if n.value+1 >= HardenedBoundary {
		return NormalIndex{}, ErrNormalWraparound
	}
	return NormalIndex{n.value + 1}, nil
}

// ParseNormalIndex parses a plain decimal child number, rejecting any
// hardened marker.
func ParseNormalIndex(s string) (NormalIndex, error) {
	value, hardened, err := parseRawIndex(s)
	if err != nil {
		return NormalIndex{}, err
	}
	if hardened {
		return NormalIndex{}, newIndexParseError(s, "unexpected hardened marker on a normal index")
	}
	return NormalIndex{uint32(value)}, nil
}

// HardenedIndex is a BIP-32 child number at or past the hardened boundary,
// stored as its offset within the hardened half of the space.
type HardenedIndex struct {
	value uint32
}

// NewHardenedIndex builds a HardenedIndex from its offset (0 meaning child
// number HardenedBoundary).
func NewHardenedIndex(offset uint32) (HardenedIndex, error) {
	if offset >= HardenedBoundary {
		return HardenedIndex{}, &IndexError{msg: fmt.Sprintf("hardened index offset %d is out of range", offset)}
	}
	return HardenedIndex{offset}, nil
}

// HardenedFromChildNumber builds a HardenedIndex from a full 32-bit child
// number that must already carry the hardened bit.
func HardenedFromChildNumber(childNumber uint32) (HardenedIndex, error) {
	if childNumber < HardenedBoundary {
		return HardenedIndex{}, &IndexError{msg: fmt.Sprintf("child number %d does not carry the hardened bit", childNumber)}
	}
	return HardenedIndex{childNumber - HardenedBoundary}, nil
}

func (h HardenedIndex) ChildNumber() uint32 { return h.value + HardenedBoundary }
func (h HardenedIndex) IsHardened() bool    { return true }
func (h HardenedIndex) Index() uint32       { return h.value }
func (h HardenedIndex) String() string      { return strconv.FormatUint(uint64(h.value), 10) + "h" }

// Increment returns the next hardened index, failing when h is already the
// last one, 0x7FFFFFFF.
func (h HardenedIndex) Increment() (HardenedIndex, error) {
	if h.value+1 >= HardenedBoundary {
		return HardenedIndex{}, ErrHardenedWraparound
	}
	return HardenedIndex{h.value + 1}, nil
}

// ParseHardenedIndex parses a decimal child number that must carry one of
// the equivalent hardened markers ', h or H.
func ParseHardenedIndex(s string) (HardenedIndex, error) {
	value, hardened, err := parseRawIndex(s)
	if err != nil {
		return HardenedIndex{}, err
	}
	if !hardened {
		return HardenedIndex{}, newIndexParseError(s, "missing hardened marker")
	}
	return HardenedIndex{uint32(value)}, nil
}

// DerivationIndex is either a normal or a hardened index, distinguished by
// its numeric value relative to HardenedBoundary.
type DerivationIndex struct {
	raw uint32
}

// NewDerivationIndex wraps a raw 32-bit BIP-32 child number.
func NewDerivationIndex(raw uint32) DerivationIndex { return DerivationIndex{raw} }

func (d DerivationIndex) ChildNumber() uint32 { return d.raw }
func (d DerivationIndex) IsHardened() bool    { return d.raw >= HardenedBoundary }
func (d DerivationIndex) Index() uint32 {
	if d.IsHardened() {
		return d.raw - HardenedBoundary
	}
	return d.raw
}

func (d DerivationIndex) String() string {
	if d.IsHardened() {
		return strconv.FormatUint(uint64(d.Index()), 10) + "h"
	}
	return strconv.FormatUint(uint64(d.raw), 10)
}

// AsNormal converts to NormalIndex, failing if d is hardened.
func (d DerivationIndex) AsNormal() (NormalIndex, error) {
	if d.IsHardened() {
		return NormalIndex{}, &IndexError{msg: "derivation index is hardened"}
	}
	return NormalIndex{d.raw}, nil
}

// AsHardened converts to HardenedIndex, failing if d is not hardened.
func (d DerivationIndex) AsHardened() (HardenedIndex, error) {
	if !d.IsHardened() {
		return HardenedIndex{}, &IndexError{msg: "derivation index is not hardened"}
	}
	return HardenedIndex{d.raw - HardenedBoundary}, nil
}

// ParseIndex parses either a normal or a hardened textual index.
func ParseIndex(s string) (DerivationIndex, error) {
	value, hardened, err := parseRawIndex(s)
	if err != nil {
		return DerivationIndex{}, err
	}
	if hardened {
		return DerivationIndex{uint32(value) + HardenedBoundary}, nil
	}
	return DerivationIndex{uint32(value)}, nil
}

// parseRawIndex splits off a trailing hardened marker (', h or H) and
// parses the remaining decimal digits, rejecting offsets at or past
// HardenedBoundary.
func parseRawIndex(s string) (value uint64, hardened bool, err error) {
	if s == "" {
		return 0, false, newIndexParseError(s, "empty index")
	}
	digits := s
	last := s[len(s)-1]
	switch last {
	case '\'', 'h', 'H':
		hardened = true
		digits = s[:len(s)-1]
	}
	if digits == "" {
		return 0, false, newIndexParseError(s, "missing digits")
	}
	if strings.HasPrefix(digits, "+") || strings.HasPrefix(digits, "-") {
		return 0, false, newIndexParseError(s, "sign not allowed")
	}
	value, convErr := strconv.ParseUint(digits, 10, 32)
	if convErr != nil {
		return 0, false, newIndexParseError(s, "not a decimal number")
	}
	if value >= uint64(HardenedBoundary) {
		return 0, false, newIndexParseError(s, "out of range for a 31-bit index")
	}
	return value, hardened, nil
}
