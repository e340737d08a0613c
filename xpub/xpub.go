package xpub

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/lnp-bp/bpstd-go/bip32"
	"github.com/lnp-bp/bpstd-go/network"
)

// The four-byte version prefixes of the BIP-32 serialization format. The
// testnet magic is shared by testnet3, testnet4, signet and regtest, as in
// Bitcoin Core.
var (
	XpubMainnetMagic  = [4]byte{0x04, 0x88, 0xB2, 0x1E}
	XprivMainnetMagic = [4]byte{0x04, 0x88, 0xAD, 0xE4}
	XpubTestnetMagic  = [4]byte{0x04, 0x35, 0x87, 0xCF}
	XprivTestnetMagic = [4]byte{0x04, 0x35, 0x83, 0x94}
)

func xpubMagic(n network.Network) [4]byte {
	if n == network.Mainnet {
		return XpubMainnetMagic
	}
	return XpubTestnetMagic
}

func xprivMagic(n network.Network) [4]byte {
	if n == network.Mainnet {
		return XprivMainnetMagic
	}
	return XprivTestnetMagic
}

// XkeyDecodeError is returned when a base58check-encoded extended key
// fails to decode.
type XkeyDecodeError struct {
	msg string
}

func (e *XkeyDecodeError) Error() string { return "malformed extended key: " + e.msg }

// XkeyParseError wraps a decode failure with the original input string.
type XkeyParseError struct {
	Input string
	Err   error
}

func (e *XkeyParseError) Error() string {
	return "invalid extended key '" + e.Input + "': " + e.Err.Error()
}
func (e *XkeyParseError) Unwrap() error { return e.Err }

func decodeXkeyPayload(s string) ([]byte, error) {
	raw := base58.Decode(s)
	if len(raw) != 82 {
		return nil, &XkeyDecodeError{msg: "expected 82 base58check bytes, got " + itoa(len(raw))}
	}
	payload, checksum := raw[:78], raw[78:]
	sum := chainhash.DoubleHashB(payload)[:4]
	if !bytes.Equal(sum, checksum) {
		return nil, &XkeyDecodeError{msg: "checksum mismatch"}
	}
	return payload, nil
}

func encodeXkeyPayload(payload []byte) string {
	sum := chainhash.DoubleHashB(payload)[:4]
	return base58.Encode(append(append([]byte{}, payload...), sum...))
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// XpubCore is the raw 78-byte BIP-32 payload shared by Xpub and Xpriv,
// split into its named fields.
type XpubCore struct {
	Meta      XkeyMeta
	ChainCode [32]byte
}

// Xpub is a BIP-32 extended public key.
type Xpub struct {
	core    XpubCore
	pub     *btcec.PublicKey
	network network.Network
}

// ParseXpub decodes a base58check-encoded "xpub..."/"tpub..." string.
func ParseXpub(s string) (Xpub, error) {
	payload, err := decodeXkeyPayload(s)
	if err != nil {
		return Xpub{}, &XkeyParseError{Input: s, Err: err}
	}
	net := network.Mainnet
	if !bytes.Equal(payload[:4], XpubMainnetMagic[:]) {
		if !bytes.Equal(payload[:4], XpubTestnetMagic[:]) {
			return Xpub{}, &XkeyParseError{Input: s, Err: &XkeyDecodeError{msg: "unrecognized xpub version bytes"}}
		}
		net = network.Testnet3
	}
	pub, err := btcec.ParsePubKey(payload[45:78])
	if err != nil {
		return Xpub{}, &XkeyParseError{Input: s, Err: err}
	}
	var fp XpubFp
	copy(fp[:], payload[5:9])
	var cc [32]byte
	copy(cc[:], payload[13:45])
	return Xpub{
		core: XpubCore{
			Meta: XkeyMeta{
				Depth:       payload[4],
				ParentFp:    fp,
				ChildNumber: binary.BigEndian.Uint32(payload[9:13]),
			},
			ChainCode: cc,
		},
		pub:     pub,
		network: net,
	}, nil
}

// NewXpub builds an Xpub directly from its component fields, used when
// constructing a child key from derivation math rather than parsing text.
func NewXpub(meta XkeyMeta, chainCode [32]byte, pub *btcec.PublicKey, net network.Network) Xpub {
	return Xpub{core: XpubCore{Meta: meta, ChainCode: chainCode}, pub: pub, network: net}
}

func (x Xpub) Network() network.Network   { return x.network }
func (x Xpub) Depth() uint8               { return x.core.Meta.Depth }
func (x Xpub) ParentFingerprint() XpubFp  { return x.core.Meta.ParentFp }
func (x Xpub) ChildNumber() uint32        { return x.core.Meta.ChildNumber }
func (x Xpub) ChainCode() [32]byte        { return x.core.ChainCode }
func (x Xpub) PubKey() *btcec.PublicKey   { return x.pub }
func (x Xpub) CompressedKey() [33]byte {
	var out [33]byte
	copy(out[:], x.pub.SerializeCompressed())
	return out
}

// Fingerprint returns HASH160(compressed pubkey)[:4], the fingerprint
// identifying this key as a parent of its children.
func (x Xpub) Fingerprint() XpubFp {
	var fp XpubFp
	copy(fp[:], btcutil.Hash160(x.pub.SerializeCompressed())[:4])
	return fp
}

// XpubId uniquely identifies an extended public key by HASH160 of its
// serialized compressed pubkey.
type XpubId [20]byte

func (id XpubId) String() string { return hex.EncodeToString(id[:]) }

// Id returns the full-length identifier for this key, as distinct from
// its four-byte Fingerprint.
func (x Xpub) Id() XpubId {
	var id XpubId
	copy(id[:], btcutil.Hash160(x.pub.SerializeCompressed()))
	return id
}

func (x Xpub) payload() []byte {
	buf := make([]byte, 78)
	copy(buf[0:4], xpubMagic(x.network)[:])
	buf[4] = x.core.Meta.Depth
	copy(buf[5:9], x.core.Meta.ParentFp[:])
	binary.BigEndian.PutUint32(buf[9:13], x.core.Meta.ChildNumber)
	copy(buf[13:45], x.core.ChainCode[:])
	copy(buf[45:78], x.pub.SerializeCompressed())
	return buf
}

func (x Xpub) String() string { return encodeXkeyPayload(x.payload()) }

// toHDKey adapts an Xpub into the btcutil/hdkeychain representation used
// internally to perform child-key derivation math.
func (x Xpub) toHDKey() *hdkeychain.ExtendedKey {
	return hdkeychain.NewExtendedKey(
		xpubMagic(x.network)[:],
		x.pub.SerializeCompressed(),
		x.core.ChainCode[:],
		x.core.Meta.ParentFp[:],
		x.core.Meta.Depth,
		x.core.Meta.ChildNumber,
		false,
	)
}

func xpubFromHDKey(key *hdkeychain.ExtendedKey, net network.Network) (Xpub, error) {
	pub, err := key.ECPubKey()
	if err != nil {
		return Xpub{}, err
	}
	var fp XpubFp
	binary.BigEndian.PutUint32(fp[:], key.ParentFingerprint())
	var cc [32]byte
	copy(cc[:], key.ChainCode())
	return Xpub{
		core: XpubCore{
			Meta: XkeyMeta{
				Depth:       key.Depth(),
				ParentFp:    fp,
				ChildNumber: key.ChildIndex(),
			},
			ChainCode: cc,
		},
		pub:     pub,
		network: net,
	}, nil
}

// Child derives the direct, normal or hardened child at the given
// DerivationIndex. Deriving a hardened child from a public key fails, as
// required by BIP-32.
func (x Xpub) Child(index bip32.DerivationIndex) (Xpub, error) {
	child, err := x.toHDKey().Child(index.ChildNumber())
	if err != nil {
		return Xpub{}, err
	}
	return xpubFromHDKey(child, x.network)
}

// Derive walks every index in path from x, in order.
func (x Xpub) Derive(path bip32.DerivationPath[bip32.DerivationIndex]) (Xpub, error) {
	current := x
	for _, idx := range path {
		next, err := current.Child(idx)
		if err != nil {
			return Xpub{}, err
		}
		current = next
	}
	return current, nil
}
