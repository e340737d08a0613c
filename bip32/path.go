package bip32

import "strings"

// DerivationParseError is returned when a "/"-joined derivation path fails
// to parse.
type DerivationParseError struct {
	Input string
	msg   string
}

func (e *DerivationParseError) Error() string {
	return "invalid derivation path '" + e.Input + "': " + e.msg
}

// DerivationPath is a sequence of indexes of a single kind, describing a
// walk from some extended key down to a descendant. It may be empty (for
// example a HardenedPrefix result); ParseDerivationPath rejects empty text.
type DerivationPath[I Idx] []I

// ParseDerivationPath parses a "/"-joined path, optionally prefixed with a
// leading slash, delegating element parsing to parse.
func ParseDerivationPath[I Idx](s string, parse func(string) (I, error)) (DerivationPath[I], error) {
	trimmed := strings.TrimPrefix(s, "/")
	if trimmed == "" {
		return nil, &DerivationParseError{Input: s, msg: "empty path"}
	}
	parts := strings.Split(trimmed, "/")
	path := make(DerivationPath[I], 0, len(parts))
	for _, part := range parts {
		idx, err := parse(part)
		if err != nil {
			return nil, &DerivationParseError{Input: s, msg: err.Error()}
		}
		path = append(path, idx)
	}
	return path, nil
}

func (p DerivationPath[I]) String() string {
	var b strings.Builder
	for _, idx := range p {
		b.WriteByte('/')
		b.WriteString(idx.String())
	}
	return b.String()
}

// Terminal extracts the (keychain, index) suffix of the path, succeeding
// only when the last two segments are both normal (non-hardened) and fit
// within a u16 index / u8 keychain.
func (p DerivationPath[I]) Terminal() (Terminal, bool) {
	if len(p) < 2 {
		return Terminal{}, false
	}
	index := p[len(p)-1]
	if index.IsHardened() {
		return Terminal{}, false
	}
	if index.ChildNumber() > 0xFFFF {
		return Terminal{}, false
	}
	keychain := p[len(p)-2]
	if keychain.IsHardened() {
		return Terminal{}, false
	}
	if keychain.ChildNumber() > 0xFF {
		return Terminal{}, false
	}
	normalIndex, _ := NewNormalIndex(index.ChildNumber())
	return Terminal{Keychain: Keychain(keychain.ChildNumber()), Index: normalIndex}, true
}

// HardenedPrefix returns the leading run of hardened indexes in the path,
// stopping at the first normal one.
func (p DerivationPath[I]) HardenedPrefix() DerivationPath[HardenedIndex] {
	var out DerivationPath[HardenedIndex]
	for _, idx := range p {
		if !idx.IsHardened() {
			break
		}
		h, _ := NewHardenedIndex(idx.Index())
		out = append(out, h)
	}
	return out
}

// StartsWith reports whether master is a prefix of p, comparing indexes by
// their raw child number so that paths of different index kinds (e.g. a
// DerivationIndex path against a HardenedIndex master) can be compared.
func StartsWith[I Idx, J Idx](p DerivationPath[I], master DerivationPath[J]) bool {
	return SharedPrefix(p, master) == len(master)
}

// SharedPrefix returns the length of the shared prefix between p and
// master, or 0 if master is not entirely a prefix of p.
func SharedPrefix[I Idx, J Idx](p DerivationPath[I], master DerivationPath[J]) int {
	if len(master) > len(p) {
		return 0
	}
	shared := 0
	for i := range master {
		if p[i].ChildNumber() != master[i].ChildNumber() {
			break
		}
		shared++
	}
	if shared == len(master) {
		return shared
	}
	return 0
}
