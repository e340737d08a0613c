package bip32

import "strings"

// Keychain distinguishes the branches under an account-level extended key,
// conventionally 0 for receive addresses and 1 for change addresses.
type Keychain uint8

const (
	KeychainExternal Keychain = 0
	KeychainInternal Keychain = 1
)

func (k Keychain) String() string {
	n, _ := NewNormalIndex(uint32(k))
	return n.String()
}

// Terminal is the final (keychain, index) pair of a derivation path, the
// shortest suffix needed to locate an address under an account-level xpub.
type Terminal struct {
	Keychain Keychain
	Index    NormalIndex
}

// NewTerminal builds a Terminal from its two components.
func NewTerminal(keychain Keychain, index NormalIndex) Terminal {
	return Terminal{Keychain: keychain, Index: index}
}

func (t Terminal) String() string {
	return t.Keychain.String() + "/" + t.Index.String()
}

// TerminalParseError is returned when a "keychain/index" pair fails to
// parse.
type TerminalParseError struct {
	Input string
	msg   string
}

func (e *TerminalParseError) Error() string {
	return "invalid derivation terminal '" + e.Input + "': " + e.msg
}

// ParseTerminal parses the conventional "keychain/index" textual form.
func ParseTerminal(s string) (Terminal, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return Terminal{}, &TerminalParseError{Input: s, msg: "expected keychain/index"}
	}
	keychain, err := ParseNormalIndex(parts[0])
	if err != nil {
		return Terminal{}, &TerminalParseError{Input: s, msg: err.Error()}
	}
	if keychain.ChildNumber() > 0xFF {
		return Terminal{}, &TerminalParseError{Input: s, msg: "keychain does not fit in a byte"}
	}
	index, err := ParseNormalIndex(parts[1])
	if err != nil {
		return Terminal{}, &TerminalParseError{Input: s, msg: err.Error()}
	}
	return Terminal{Keychain: Keychain(keychain.ChildNumber()), Index: index}, nil
}
