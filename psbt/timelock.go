package psbt

import (
	"fmt"
	"strconv"
	"strings"
)

// LocktimeThreshold is the consensus boundary (BIP-65) below which a
// locktime value is a block height and at or above which it's a Unix
// timestamp.
const LocktimeThreshold uint32 = 500_000_000

// InvalidTimelock is returned when a height or timestamp value falls on
// the wrong side of LocktimeThreshold for the type being constructed.
type InvalidTimelock struct {
	Value uint32
}

func (e InvalidTimelock) Error() string {
	return fmt.Sprintf("timelock value %d is out of range for this type", e.Value)
}

// TimelockParseError is returned by ParseLockHeight/ParseLockTimestamp when
// a text form doesn't match the expected grammar.
type TimelockParseError struct {
	Text string
}

func (e TimelockParseError) Error() string {
	return fmt.Sprintf("invalid timelock text %q", e.Text)
}

// LockHeight is a locktime expressed as a block height, always strictly
// below LocktimeThreshold.
type LockHeight uint32

// AnytimeHeight is the canonical "no lock" LockHeight value.
const AnytimeHeight LockHeight = 0

// FromHeight constructs a LockHeight, rejecting values at or above
// LocktimeThreshold.
func FromHeight(n uint32) (LockHeight, error) {
	if n >= LocktimeThreshold {
		return 0, InvalidTimelock{Value: n}
	}
	return LockHeight(n), nil
}

// TryFromConsensusHeight is an alias of FromHeight kept for parity with
// the timestamp-side constructor naming.
func TryFromConsensusHeight(n uint32) (LockHeight, error) { return FromHeight(n) }

// ToConsensusU32 returns the raw locktime value for wire encoding.
func (h LockHeight) ToConsensusU32() uint32 { return uint32(h) }

// IsAnytime reports whether this is the zero/"no lock" height.
func (h LockHeight) IsAnytime() bool { return h == 0 }

// String renders "none" for zero, otherwise "height(n)".
func (h LockHeight) String() string {
	if h == 0 {
		return "none"
	}
	return fmt.Sprintf("height(%d)", uint32(h))
}

// ParseLockHeight parses "0", "none", or "height(n)".
func ParseLockHeight(s string) (LockHeight, error) {
	s = strings.TrimSpace(s)
	if s == "0" || s == "none" {
		return AnytimeHeight, nil
	}
	if strings.HasPrefix(s, "height(") && strings.HasSuffix(s, ")") {
		inner := s[len("height(") : len(s)-1]
		n, err := strconv.ParseUint(inner, 10, 32)
		if err != nil {
			return 0, TimelockParseError{Text: s}
		}
		return FromHeight(uint32(n))
	}
	return 0, TimelockParseError{Text: s}
}

// LockTimestamp is a locktime expressed as a Unix timestamp, always at or
// above LocktimeThreshold.
type LockTimestamp uint32

// AnytimeTimestamp is the canonical "no lock" LockTimestamp value: the
// threshold itself is the smallest legal timestamp, so "no lock" is
// represented the same way Bitcoin Core represents it, by zero meaning
// "unset" at the call site rather than a valid LockTimestamp value.
const AnytimeTimestamp LockTimestamp = 0

// FromUnixTimestamp constructs a LockTimestamp, rejecting values below
// LocktimeThreshold.
func FromUnixTimestamp(n uint32) (LockTimestamp, error) {
	if n < LocktimeThreshold {
		return 0, InvalidTimelock{Value: n}
	}
	return LockTimestamp(n), nil
}

// TryFromConsensusU32 is an alias kept for parity with LockHeight's
// constructor naming.
func TryFromConsensusU32(n uint32) (LockTimestamp, error) { return FromUnixTimestamp(n) }

// ToConsensusU32 returns the raw locktime value for wire encoding.
func (ts LockTimestamp) ToConsensusU32() uint32 { return uint32(ts) }

// IsAnytime reports whether this is the zero/"no lock" timestamp.
func (ts LockTimestamp) IsAnytime() bool { return ts == 0 }

// String renders "none" for zero, otherwise "time(n)".
func (ts LockTimestamp) String() string {
	if ts == 0 {
		return "none"
	}
	return fmt.Sprintf("time(%d)", uint32(ts))
}

// ParseLockTimestamp parses "0", "none", or "time(n)".
func ParseLockTimestamp(s string) (LockTimestamp, error) {
	s = strings.TrimSpace(s)
	if s == "0" || s == "none" {
		return AnytimeTimestamp, nil
	}
	if strings.HasPrefix(s, "time(") && strings.HasSuffix(s, ")") {
		inner := s[len("time(") : len(s)-1]
		n, err := strconv.ParseUint(inner, 10, 32)
		if err != nil {
			return 0, TimelockParseError{Text: s}
		}
		return FromUnixTimestamp(uint32(n))
	}
	return 0, TimelockParseError{Text: s}
}

// ParseTimelock parses either form and reports which kind it resolved to,
// for callers (e.g. the REQUIRED_TIME/HEIGHT_LOCKTIME PSBT fields) that
// accept either.
func ParseTimelock(s string) (height *LockHeight, timestamp *LockTimestamp, err error) {
	if h, hErr := ParseLockHeight(s); hErr == nil {
		return &h, nil, nil
	}
	if ts, tsErr := ParseLockTimestamp(s); tsErr == nil {
		return nil, &ts, nil
	}
	return nil, nil, TimelockParseError{Text: s}
}
