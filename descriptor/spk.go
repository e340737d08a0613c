package descriptor

import (
	"crypto/sha256"
	"encoding/hex"
)

// SpkClass is the output-script class a descriptor declares, matching
// Bitcoin Core's own standardness classification.
type SpkClass uint8

const (
	ClassBare SpkClass = iota
	ClassP2pkh
	ClassP2sh
	ClassP2wpkh
	ClassP2wsh
	ClassP2tr
)

func (c SpkClass) String() string {
	switch c {
	case ClassBare:
		return "bare"
	case ClassP2pkh:
		return "p2pkh"
	case ClassP2sh:
		return "p2sh"
	case ClassP2wpkh:
		return "p2wpkh"
	case ClassP2wsh:
		return "p2wsh"
	case ClassP2tr:
		return "p2tr"
	default:
		return "unknown"
	}
}

// DustLimit returns the minimum standard output value, in satoshis, for
// an output of this class.
func (c SpkClass) DustLimit() int64 {
	switch c {
	case ClassBare:
		return 0
	case ClassP2pkh:
		return 546
	case ClassP2sh:
		return 540
	case ClassP2wpkh:
		return 294
	case ClassP2wsh, ClassP2tr:
		return 330
	default:
		return 0
	}
}

func (c SpkClass) IsTaproot() bool { return c == ClassP2tr }

func (c SpkClass) IsSegwit() bool { return c == ClassP2wpkh || c == ClassP2wsh || c == ClassP2tr }

func (c SpkClass) IsSegwitV0() bool { return c == ClassP2wpkh || c == ClassP2wsh }

// DescrId identifies a descriptor by the scriptPubKey it derives at
// (OUTER, 0): the first eight bytes of SHA-256("wallet-descriptor" ||
// len(spk) || spk), little-endian.
type DescrId [8]byte

// DescrIdParseError is returned when a "XXXXXXXX-XXXXXXXX" id string
// fails to parse.
type DescrIdParseError struct {
	Input string
	msg   string
}

func (e *DescrIdParseError) Error() string {
	return "invalid descriptor id '" + e.Input + "': " + e.msg
}

func (id DescrId) String() string {
	return hex.EncodeToString(id[:4]) + "-" + hex.EncodeToString(id[4:])
}

// ParseDescrId parses the "XXXXXXXX-XXXXXXXX" textual form.
func ParseDescrId(s string) (DescrId, error) {
	if len(s) != 17 || s[8] != '-' {
		return DescrId{}, &DescrIdParseError{Input: s, msg: "expected 16 hex digits split by a single '-'"}
	}
	raw, err := hex.DecodeString(s[:8] + s[9:])
	if err != nil || len(raw) != 8 {
		return DescrId{}, &DescrIdParseError{Input: s, msg: "malformed hex"}
	}
	var id DescrId
	copy(id[:], raw)
	return id, nil
}

// computeDescrId implements spec.md §4.2's id() derivation: the first
// eight bytes of SHA-256("wallet-descriptor" || len(spk) || spk), where
// len(spk) is a little-endian uint64 byte count, matching the Rust
// implementation's engine.input_with_len call.
func computeDescrId(spk []byte) DescrId {
	h := sha256.New()
	h.Write([]byte("wallet-descriptor"))
	var lenBuf [8]byte
	n := uint64(len(spk))
	for i := 0; i < 8; i++ {
		lenBuf[i] = byte(n)
		n >>= 8
	}
	h.Write(lenBuf[:])
	h.Write(spk)
	digest := h.Sum(nil)
	var id DescrId
	copy(id[:], digest[:8])
	return id
}
