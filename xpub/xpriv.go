package xpub

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"

	"github.com/lnp-bp/bpstd-go/bip32"
	"github.com/lnp-bp/bpstd-go/network"
)

// XprivCore is the raw 78-byte BIP-32 payload of a private extended key.
type XprivCore struct {
	Meta      XkeyMeta
	ChainCode [32]byte
}

// Xpriv is a BIP-32 extended private key.
type Xpriv struct {
	core    XprivCore
	priv    *btcec.PrivateKey
	network network.Network
}

// ParseXpriv decodes a base58check-encoded "xprv.../tprv..." string.
func ParseXpriv(s string) (Xpriv, error) {
	payload, err := decodeXkeyPayload(s)
	if err != nil {
		return Xpriv{}, &XkeyParseError{Input: s, Err: err}
	}
	net := network.Mainnet
	if !bytes.Equal(payload[:4], XprivMainnetMagic[:]) {
		if !bytes.Equal(payload[:4], XprivTestnetMagic[:]) {
			return Xpriv{}, &XkeyParseError{Input: s, Err: &XkeyDecodeError{msg: "unrecognized xpriv version bytes"}}
		}
		net = network.Testnet3
	}
	if payload[45] != 0x00 {
		return Xpriv{}, &XkeyParseError{Input: s, Err: &XkeyDecodeError{msg: "private key padding byte must be zero"}}
	}
	priv, _ := btcec.PrivKeyFromBytes(payload[46:78])
	var fp XpubFp
	copy(fp[:], payload[5:9])
	var cc [32]byte
	copy(cc[:], payload[13:45])
	return Xpriv{
		core: XprivCore{
			Meta: XkeyMeta{
				Depth:       payload[4],
				ParentFp:    fp,
				ChildNumber: binary.BigEndian.Uint32(payload[9:13]),
			},
			ChainCode: cc,
		},
		priv:    priv,
		network: net,
	}, nil
}

func (x Xpriv) Network() network.Network  { return x.network }
func (x Xpriv) Depth() uint8              { return x.core.Meta.Depth }
func (x Xpriv) ParentFingerprint() XpubFp { return x.core.Meta.ParentFp }
func (x Xpriv) ChildNumber() uint32       { return x.core.Meta.ChildNumber }
func (x Xpriv) ChainCode() [32]byte       { return x.core.ChainCode }
func (x Xpriv) PrivKey() *btcec.PrivateKey { return x.priv }

func (x Xpriv) payload() []byte {
	buf := make([]byte, 78)
	copy(buf[0:4], xprivMagic(x.network)[:])
	buf[4] = x.core.Meta.Depth
	copy(buf[5:9], x.core.Meta.ParentFp[:])
	binary.BigEndian.PutUint32(buf[9:13], x.core.Meta.ChildNumber)
	copy(buf[13:45], x.core.ChainCode[:])
	copy(buf[46:78], x.priv.Serialize())
	return buf
}

func (x Xpriv) String() string { return encodeXkeyPayload(x.payload()) }

func (x Xpriv) toHDKey() *hdkeychain.ExtendedKey {
	return hdkeychain.NewExtendedKey(
		xprivMagic(x.network)[:],
		x.priv.Serialize(),
		x.core.ChainCode[:],
		x.core.Meta.ParentFp[:],
		x.core.Meta.Depth,
		x.core.Meta.ChildNumber,
		true,
	)
}

func xprivFromHDKey(key *hdkeychain.ExtendedKey, net network.Network) (Xpriv, error) {
	priv, err := key.ECPrivKey()
	if err != nil {
		return Xpriv{}, err
	}
	var fp XpubFp
	binary.BigEndian.PutUint32(fp[:], key.ParentFingerprint())
	var cc [32]byte
	copy(cc[:], key.ChainCode())
	return Xpriv{
		core: XprivCore{
			Meta: XkeyMeta{
				Depth:       key.Depth(),
				ParentFp:    fp,
				ChildNumber: key.ChildIndex(),
			},
			ChainCode: cc,
		},
		priv:    priv,
		network: net,
	}, nil
}

// Child derives the direct child at the given DerivationIndex, normal or
// hardened.
func (x Xpriv) Child(index bip32.DerivationIndex) (Xpriv, error) {
	child, err := x.toHDKey().Child(index.ChildNumber())
	if err != nil {
		return Xpriv{}, err
	}
	return xprivFromHDKey(child, x.network)
}

// Derive walks every index in path from x, in order.
func (x Xpriv) Derive(path bip32.DerivationPath[bip32.DerivationIndex]) (Xpriv, error) {
	current := x
	for _, idx := range path {
		next, err := current.Child(idx)
		if err != nil {
			return Xpriv{}, err
		}
		current = next
	}
	return current, nil
}

// Neuter strips the private key material, producing the corresponding
// Xpub.
func (x Xpriv) Neuter() (Xpub, error) {
	neutered, err := x.toHDKey().Neuter()
	if err != nil {
		return Xpub{}, err
	}
	return xpubFromHDKey(neutered, x.network)
}

// Fingerprint returns HASH160(compressed pubkey)[:4] of the public key
// corresponding to x.
func (x Xpriv) Fingerprint() (XpubFp, error) {
	pub, err := x.Neuter()
	if err != nil {
		return XpubFp{}, err
	}
	return pub.Fingerprint(), nil
}
