// Package taproot implements the BIP-341/342 script-tree "mountain range"
// construction: leaf tagged hashes, the branch Merkle fold, and control
// block assembly for script-path spends.
package taproot

import (
	"bytes"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// LeafVersion is the tapscript leaf version byte from BIP-342. 0xC0 is the
// only version this module assigns scripts under; the module does not parse
// control blocks, so it reads no other leaf version.
type LeafVersion uint8

const TapscriptLeafVersion LeafVersion = 0xC0

var (
	tagTapLeaf   = []byte("TapLeaf")
	tagTapBranch = []byte("TapBranch")
	tagTapTweak  = []byte("TapTweak")
)

// LeafScript is a tapscript leaf: a script under a specific leaf version.
type LeafScript struct {
	Version LeafVersion
	Script  []byte
}

// TapLeafHash computes the BIP-341 tagged leaf hash of a tapscript leaf:
// TapLeaf(version || compact_size(len(script)) || script).
func TapLeafHash(leaf LeafScript) chainhash.Hash {
	var buf bytes.Buffer
	buf.WriteByte(byte(leaf.Version))
	_ = wire.WriteVarBytes(&buf, 0, leaf.Script)
	return *chainhash.TaggedHash(tagTapLeaf, buf.Bytes())
}

// TapBranchHash combines two child node hashes into their parent, ordering
// them lexicographically as required by BIP-341 so that Merkle branch
// hashing is commutative in its two inputs.
func TapBranchHash(a, b chainhash.Hash) chainhash.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return *chainhash.TaggedHash(tagTapBranch, a[:], b[:])
}

// TapTweakHash computes the tweak applied to an internal key to produce
// the output key: TapTweak(internal_key || merkle_root). merkleRoot may be
// nil for a key-path-only (script-less) output.
func TapTweakHash(internalKey [32]byte, merkleRoot *chainhash.Hash) chainhash.Hash {
	if merkleRoot == nil {
		return *chainhash.TaggedHash(tagTapTweak, internalKey[:])
	}
	return *chainhash.TaggedHash(tagTapTweak, internalKey[:], merkleRoot[:])
}
