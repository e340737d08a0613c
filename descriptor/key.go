package descriptor

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/lnp-bp/bpstd-go/bip32"
	"github.com/lnp-bp/bpstd-go/xpub"
)

// KeyExpr is a descriptor KEY placeholder resolved to concrete key
// material: either a fixed raw key (hex-encoded in the descriptor text)
// or a full BIP-380 account key, optionally with a wildcard tail.
// It implements xpub.DeriveCompr/DeriveLegacy/DeriveXOnly so every
// descriptor variant can treat a KEY uniformly regardless of how it was
// spelled.
type KeyExpr struct {
	text      string
	derivable *xpub.XpubDerivable // set for "[fp/path]xpub.../seg/*" forms
	fixed     *xpub.XpubAccount   // set for "[fp/path]xpub..." with no tail
	rawPub    *btcec.PublicKey    // set for bare hex keys (legacy/compressed)
	rawXOnly  *[32]byte           // set for bare 32-byte x-only hex keys
}

func (k KeyExpr) String() string { return k.text }

// ParseKeyExpr parses one descriptor KEY argument: a bracket-origin xpub
// account key (with or without a trailing keychain-segment/wildcard tail)
// or a raw hex-encoded key (65, 33 or 32 bytes).
func ParseKeyExpr(s string) (KeyExpr, error) {
	expr := KeyExpr{text: s}
	rest := s
	var masterFp xpub.XpubFp
	var hasOrigin bool
	var originPath bip32.DerivationPath[bip32.HardenedIndex]
	if strings.HasPrefix(rest, "[") {
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return KeyExpr{}, newParseErr(s, "unterminated key origin")
		}
		origin, err := xpub.ParseXkeyOrigin(rest[1:end])
		if err != nil {
			return KeyExpr{}, newParseErr(s, err.Error())
		}
		masterFp = origin.MasterFp
		originPath = origin.Path
		hasOrigin = true
		rest = rest[end+1:]
	}

	if looksLikeXkey(rest) {
		xp, tail, err := splitXkeyTail(rest)
		if err != nil {
			return KeyExpr{}, newParseErr(s, err.Error())
		}
		account, err := xpub.ParseXpub(xp)
		if err != nil {
			return KeyExpr{}, newParseErr(s, err.Error())
		}
		if !hasOrigin {
			masterFp = account.Fingerprint()
			originPath = nil
		}
		acct := xpub.NewXpubAccount(account, masterFp, originPath)
		if tail == "" {
			expr.fixed = &acct
			return expr, nil
		}
		seg, err := parseKeychainSeg(tail)
		if err != nil {
			return KeyExpr{}, newParseErr(s, err.Error())
		}
		derivable := xpub.XpubDerivable{Account: acct, Keychains: seg}
		expr.derivable = &derivable
		return expr, nil
	}

	raw, err := hex.DecodeString(rest)
	if err != nil {
		return KeyExpr{}, newParseErr(s, "not a recognized xpub or hex key")
	}
	switch len(raw) {
	case 33:
		pub, err := btcec.ParsePubKey(raw)
		if err != nil {
			return KeyExpr{}, newParseErr(s, err.Error())
		}
		expr.rawPub = pub
	case 65:
		pub, err := btcec.ParsePubKey(raw)
		if err != nil {
			return KeyExpr{}, newParseErr(s, err.Error())
		}
		expr.rawPub = pub
	case 32:
		var xo [32]byte
		copy(xo[:], raw)
		if _, err := schnorr.ParsePubKey(raw); err != nil {
			return KeyExpr{}, newParseErr(s, err.Error())
		}
		expr.rawXOnly = &xo
	default:
		return KeyExpr{}, newParseErr(s, "hex key must be 33, 65 or 32 bytes")
	}
	return expr, nil
}

// looksLikeXkey reports whether the non-origin portion of a key string
// begins with an extended-key prefix rather than raw hex.
func looksLikeXkey(s string) bool {
	return strings.HasPrefix(s, "xpub") || strings.HasPrefix(s, "tpub") ||
		strings.HasPrefix(s, "xprv") || strings.HasPrefix(s, "tprv")
}

// splitXkeyTail separates the base58 xpub/xprv string from its optional
// "/seg/*" keychain tail.
func splitXkeyTail(s string) (xkey string, tail string, err error) {
	idx := strings.IndexByte(s, '/')
	if idx < 0 {
		return s, "", nil
	}
	return s[:idx], s[idx+1:], nil
}

// parseKeychainSeg parses the "<0;1>/*" or "0/*" tail of a wildcard xpub
// key expression into its keychain segment, requiring the trailing "*".
func parseKeychainSeg(tail string) (bip32.DerivationSeg[bip32.NormalIndex], error) {
	if !strings.HasSuffix(tail, "/*") {
		return bip32.DerivationSeg[bip32.NormalIndex]{}, newParseErr(tail, "wildcard key must end in /*")
	}
	segText := strings.TrimSuffix(tail, "/*")
	return bip32.ParseDerivationSeg(segText, bip32.ParseNormalIndex)
}

// ErrFixedKeyMismatch is returned when a terminal is requested from a
// fixed (non-wildcard) key expression under a keychain other than the one
// implied by its origin; fixed keys ignore the keychain/index entirely
// and always resolve to the same key, so this is never actually returned
// by DeriveCompr/DeriveLegacy/DeriveXOnly below but is kept for API
// symmetry with XpubDerivable's ErrKeychainMismatch.
type ErrFixedKeyMismatch struct{}

func (ErrFixedKeyMismatch) Error() string { return "fixed key does not support keychain selection" }

func (k KeyExpr) DeriveCompr(terminal bip32.Terminal) ([33]byte, error) {
	switch {
	case k.rawPub != nil:
		var out [33]byte
		copy(out[:], k.rawPub.SerializeCompressed())
		return out, nil
	case k.fixed != nil:
		var out [33]byte
		copy(out[:], k.fixed.Xpub.CompressedKey())
		return out, nil
	case k.derivable != nil:
		return k.derivable.DeriveCompr(terminal)
	}
	return [33]byte{}, newParseErr(k.text, "key cannot produce a compressed public key")
}

func (k KeyExpr) DeriveLegacy(terminal bip32.Terminal) ([65]byte, error) {
	switch {
	case k.rawPub != nil:
		var out [65]byte
		copy(out[:], k.rawPub.SerializeUncompressed())
		return out, nil
	case k.fixed != nil:
		var out [65]byte
		copy(out[:], k.fixed.Xpub.PubKey().SerializeUncompressed())
		return out, nil
	case k.derivable != nil:
		return k.derivable.DeriveLegacy(terminal)
	}
	return [65]byte{}, newParseErr(k.text, "key cannot produce a legacy public key")
}

func (k KeyExpr) DeriveXOnly(terminal bip32.Terminal) ([32]byte, error) {
	switch {
	case k.rawXOnly != nil:
		return *k.rawXOnly, nil
	case k.rawPub != nil:
		var out [32]byte
		copy(out[:], schnorr.SerializePubKey(k.rawPub))
		return out, nil
	case k.fixed != nil:
		var out [32]byte
		copy(out[:], schnorr.SerializePubKey(k.fixed.Xpub.PubKey()))
		return out, nil
	case k.derivable != nil:
		return k.derivable.DeriveXOnly(terminal)
	}
	return [32]byte{}, newParseErr(k.text, "key cannot produce an x-only public key")
}

// Keychains returns the keychain variants this key supports and true, or
// an empty segment and false if the key is fixed (any keychain is accepted
// since it ignores the terminal).
func (k KeyExpr) Keychains() (bip32.DerivationSeg[bip32.NormalIndex], bool) {
	if k.derivable == nil {
		return bip32.DerivationSeg[bip32.NormalIndex]{}, false
	}
	return k.derivable.Keychains, true
}

// XpubSpec returns the underlying account xpub and its origin, used by
// the signer to match PSBT BIP-32 derivations against descriptor keys.
func (k KeyExpr) XpubSpec() (xpub.XpubAccount, bool) {
	if k.derivable != nil {
		return k.derivable.Account, true
	}
	if k.fixed != nil {
		return *k.fixed, true
	}
	return xpub.XpubAccount{}, false
}
