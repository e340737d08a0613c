package xpub

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"github.com/lnp-bp/bpstd-go/bip32"
)

// XpubAccount is an account-level extended public key together with the
// all-hardened origin path used to reach it from the wallet master key.
type XpubAccount struct {
	Xpub   Xpub
	Origin XkeyOrigin
}

// NewXpubAccount pairs an account-level Xpub with its origin. It does not
// check that xpub was derived from masterFp along path; the caller is
// trusted to have derived Xpub from the path it asserts.
func NewXpubAccount(xpub Xpub, masterFp XpubFp, path bip32.DerivationPath[bip32.HardenedIndex]) XpubAccount {
	return XpubAccount{Xpub: xpub, Origin: XkeyOrigin{MasterFp: masterFp, Path: path}}
}

func (a XpubAccount) String() string { return "[" + a.Origin.String() + "]" + a.Xpub.String() }

// XpubDerivable is a full wallet key descriptor: an account-level xpub,
// the keychain segment selecting receive/change (or other BIP-380
// multipath alternatives), and an implicit wildcard index tail. It is the
// unit the descriptor package embeds inside pkh()/wpkh()/tr() and similar.
type XpubDerivable struct {
	Account   XpubAccount
	Keychains bip32.DerivationSeg[bip32.NormalIndex]
}

func (d XpubDerivable) String() string {
	return d.Account.String() + "/" + d.Keychains.String() + "/*"
}

// ErrKeychainMismatch is returned when a terminal's keychain is not one of
// the variants this derivable key's segment allows.
type ErrKeychainMismatch struct {
	Keychain bip32.Keychain
}

func (e *ErrKeychainMismatch) Error() string {
	return "keychain " + e.Keychain.String() + " is not among the allowed derivation variants"
}

func (d XpubDerivable) checkKeychain(terminal bip32.Terminal) error {
	for _, variant := range d.Keychains.ToSlice() {
		if uint32(terminal.Keychain) == variant.ChildNumber() {
			return nil
		}
	}
	return &ErrKeychainMismatch{Keychain: terminal.Keychain}
}

// deriveXpub derives the leaf Xpub for terminal, validating that its
// keychain is one this derivable key permits.
func (d XpubDerivable) deriveXpub(terminal bip32.Terminal) (Xpub, error) {
	if err := d.checkKeychain(terminal); err != nil {
		return Xpub{}, err
	}
	keychainIdx, err := bip32.NewNormalIndex(uint32(terminal.Keychain))
	if err != nil {
		return Xpub{}, err
	}
	branch, err := d.Account.Xpub.Child(bip32.NewDerivationIndex(keychainIdx.ChildNumber()))
	if err != nil {
		return Xpub{}, err
	}
	return branch.Child(bip32.NewDerivationIndex(terminal.Index.ChildNumber()))
}

// FullPath returns the complete derivation path from the wallet master key
// down to terminal, concatenating the account origin with the keychain
// and index.
func (d XpubDerivable) FullPath(terminal bip32.Terminal) bip32.DerivationPath[bip32.DerivationIndex] {
	path := make(bip32.DerivationPath[bip32.DerivationIndex], 0, len(d.Account.Origin.Path)+2)
	for _, h := range d.Account.Origin.Path {
		path = append(path, bip32.NewDerivationIndex(h.ChildNumber()))
	}
	path = append(path, bip32.NewDerivationIndex(uint32(terminal.Keychain)))
	path = append(path, bip32.NewDerivationIndex(terminal.Index.ChildNumber()))
	return path
}

// DeriveCompr derives the compressed SEC1 public key at terminal, the form
// used by wpkh/wsh/sh-wrapped and legacy-compressed pkh outputs.
type DeriveCompr interface {
	DeriveCompr(terminal bip32.Terminal) ([33]byte, error)
}

// DeriveLegacy derives the uncompressed SEC1 public key at terminal, the
// form used by pre-SegWit wallets that never adopted key compression.
type DeriveLegacy interface {
	DeriveLegacy(terminal bip32.Terminal) ([65]byte, error)
}

// DeriveXOnly derives the 32-byte x-only public key at terminal, the form
// used by taproot outputs per BIP-340/341.
type DeriveXOnly interface {
	DeriveXOnly(terminal bip32.Terminal) ([32]byte, error)
}

func (d XpubDerivable) DeriveCompr(terminal bip32.Terminal) ([33]byte, error) {
	xp, err := d.deriveXpub(terminal)
	if err != nil {
		return [33]byte{}, err
	}
	return xp.CompressedKey(), nil
}

func (d XpubDerivable) DeriveLegacy(terminal bip32.Terminal) ([65]byte, error) {
	xp, err := d.deriveXpub(terminal)
	if err != nil {
		return [65]byte{}, err
	}
	var out [65]byte
	copy(out[:], xp.PubKey().SerializeUncompressed())
	return out, nil
}

func (d XpubDerivable) DeriveXOnly(terminal bip32.Terminal) ([32]byte, error) {
	xp, err := d.deriveXpub(terminal)
	if err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], schnorr.SerializePubKey(xp.PubKey()))
	return out, nil
}

// DerivePubKey derives the full, never-x-only, *btcec.PublicKey at
// terminal, for callers that need the whole point rather than one of the
// three wire encodings above.
func (d XpubDerivable) DerivePubKey(terminal bip32.Terminal) (*btcec.PublicKey, error) {
	xp, err := d.deriveXpub(terminal)
	if err != nil {
		return nil, err
	}
	return xp.PubKey(), nil
}
