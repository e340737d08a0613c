// Package xpub implements BIP-32 extended public/private keys, their
// 78-byte wire encoding, key-origin tracking, and the account-level
// derivable key types the descriptor and signer packages build on.
package xpub

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/lnp-bp/bpstd-go/bip32"
)

// XpubFp is a BIP-32 key fingerprint: the first four bytes of
// HASH160(compressed pubkey).
type XpubFp [4]byte

func (fp XpubFp) String() string { return hex.EncodeToString(fp[:]) }

// ParseXpubFp parses an 8-character hex fingerprint.
func ParseXpubFp(s string) (XpubFp, error) {
	var fp XpubFp
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 4 {
		return fp, &OriginParseError{Input: s, msg: "fingerprint must be 8 hex characters"}
	}
	copy(fp[:], b)
	return fp, nil
}

// OriginParseError is returned when a "fingerprint/path" origin string
// fails to parse.
type OriginParseError struct {
	Input string
	msg   string
}

func (e *OriginParseError) Error() string {
	return "invalid key origin '" + e.Input + "': " + e.msg
}

// KeyOrigin records where a key came from: the fingerprint of the master
// key it was derived from, and the path taken to reach it. This is the
// data carried by descriptor bracket notation, e.g. [deadbeef/84h/0h/0h].
type KeyOrigin struct {
	MasterFp XpubFp
	Path     bip32.DerivationPath[bip32.DerivationIndex]
}

func (o KeyOrigin) String() string {
	return o.MasterFp.String() + o.Path.String()
}

// ParseKeyOrigin parses the bracket-interior form "fingerprint/path".
func ParseKeyOrigin(s string) (KeyOrigin, error) {
	idx := strings.IndexByte(s, '/')
	if idx < 0 {
		return KeyOrigin{}, &OriginParseError{Input: s, msg: "missing derivation path"}
	}
	fp, err := ParseXpubFp(s[:idx])
	if err != nil {
		return KeyOrigin{}, &OriginParseError{Input: s, msg: err.Error()}
	}
	path, err := bip32.ParseDerivationPath(s[idx:], bip32.ParseIndex)
	if err != nil {
		return KeyOrigin{}, &OriginParseError{Input: s, msg: err.Error()}
	}
	return KeyOrigin{MasterFp: fp, Path: path}, nil
}

// XkeyOrigin is the origin of an extended key itself (as opposed to a leaf
// key derived from it): the master fingerprint plus the all-hardened path
// used to reach an account-level xpub/xpriv.
type XkeyOrigin struct {
	MasterFp XpubFp
	Path     bip32.DerivationPath[bip32.HardenedIndex]
}

func (o XkeyOrigin) String() string {
	return o.MasterFp.String() + o.Path.String()
}

// XkeyAccountError reports that a would-be account-level key origin path
// is not entirely hardened.
type XkeyAccountError struct {
	Origin string
}

func (e *XkeyAccountError) Error() string {
	return "account-level key origin '" + e.Origin + "' must consist only of hardened indexes"
}

// ParseXkeyOrigin parses the bracket-interior form for an account-level
// extended key, requiring every path segment to be hardened.
func ParseXkeyOrigin(s string) (XkeyOrigin, error) {
	idx := strings.IndexByte(s, '/')
	if idx < 0 {
		return XkeyOrigin{}, &OriginParseError{Input: s, msg: "missing derivation path"}
	}
	fp, err := ParseXpubFp(s[:idx])
	if err != nil {
		return XkeyOrigin{}, &OriginParseError{Input: s, msg: err.Error()}
	}
	path, err := bip32.ParseDerivationPath(s[idx:], bip32.ParseHardenedIndex)
	if err != nil {
		return XkeyOrigin{}, &XkeyAccountError{Origin: s}
	}
	return XkeyOrigin{MasterFp: fp, Path: path}, nil
}

// XkeyMeta is the non-cryptographic header of a BIP-32 extended key: its
// depth, the fingerprint of its direct parent, and the child number used
// to derive it from that parent.
type XkeyMeta struct {
	Depth       uint8
	ParentFp    XpubFp
	ChildNumber uint32
}

func (m XkeyMeta) String() string {
	return "depth=" + strconv.Itoa(int(m.Depth)) + " parent=" + m.ParentFp.String()
}
