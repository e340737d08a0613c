package signer

import (
	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/lnp-bp/bpstd-go/bip32"
	"github.com/lnp-bp/bpstd-go/xpub"
)

// KeyProvider is the private-material side of the signer contract: given
// the master fingerprint and full derivation path a PSBT input's BIP-32
// derivation field names, it returns the private key for that path if it
// holds the corresponding master key, or false if it doesn't recognize
// the fingerprint at all.
type KeyProvider interface {
	PrivateKeyFor(masterFp xpub.XpubFp, path bip32.DerivationPath[bip32.DerivationIndex]) (*btcec.PrivateKey, bool)
}

// XprivKeyProvider is a KeyProvider backed by a single in-memory master
// extended private key, deriving on demand. Real wallets would back this
// with an HSM or a hardware-signer RPC instead; this is the reference
// implementation the signer package's own tests exercise, grounded on
// _examples/lightninglabs-chantools/btc/signer.go's FetchPrivKey, which
// derives a fresh child key from the root extended key for every signing
// request rather than caching leaf keys.
type XprivKeyProvider struct {
	master   xpub.Xpriv
	masterFp xpub.XpubFp
}

// NewXprivKeyProvider wraps master, treating it as the wallet's root key:
// master.Fingerprint() is the fingerprint PSBT derivation fields must name
// for this provider to answer a request.
func NewXprivKeyProvider(master xpub.Xpriv) (*XprivKeyProvider, error) {
	fp, err := master.Fingerprint()
	if err != nil {
		return nil, err
	}
	return &XprivKeyProvider{master: master, masterFp: fp}, nil
}

func (p *XprivKeyProvider) PrivateKeyFor(masterFp xpub.XpubFp, path bip32.DerivationPath[bip32.DerivationIndex]) (*btcec.PrivateKey, bool) {
	if masterFp != p.masterFp {
		return nil, false
	}
	child, err := p.master.Derive(path)
	if err != nil {
		return nil, false
	}
	return child.PrivKey(), true
}

// MultiKeyProvider fans a lookup out to several providers in order,
// answering with the first one that recognizes the fingerprint. Used to
// combine several account keys (e.g. an OUTER and an INNER wallet root)
// behind one signer.
type MultiKeyProvider []KeyProvider

func (m MultiKeyProvider) PrivateKeyFor(masterFp xpub.XpubFp, path bip32.DerivationPath[bip32.DerivationIndex]) (*btcec.PrivateKey, bool) {
	for _, p := range m {
		if key, ok := p.PrivateKeyFor(masterFp, path); ok {
			return key, true
		}
	}
	return nil, false
}
