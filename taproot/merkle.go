package taproot

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
)

// MerkleRoot computes the BIP-341 Merkle root of the tree: the tagged
// leaf hash of its only leaf, or the repeated TapBranch fold of every
// leaf's tagged hash otherwise.
func (t TapTree) MerkleRoot() chainhash.Hash {
	return foldLeaves(t.leaves,
		func(leaf LeafInfo) chainhash.Hash { return TapLeafHash(leaf.Script) },
		TapBranchHash,
	)
}

// merklePaths returns, for each leaf in push order, the sibling hashes
// from that leaf up to (but not including) the root, in the order BIP-341
// control blocks expect them: nearest sibling first.
func merklePaths(leaves []LeafInfo) [][]chainhash.Hash {
	paths := make([][]chainhash.Hash, len(leaves))
	type node struct {
		hash chainhash.Hash
		idxs []int
	}
	next := 0
	foldLeaves(leaves,
		func(leaf LeafInfo) node {
			i := next
			next++
			return node{hash: TapLeafHash(leaf.Script), idxs: []int{i}}
		},
		func(a, b node) node {
			for _, i := range a.idxs {
				paths[i] = append(paths[i], b.hash)
			}
			for _, i := range b.idxs {
				paths[i] = append(paths[i], a.hash)
			}
			idxs := make([]int, 0, len(a.idxs)+len(b.idxs))
			idxs = append(idxs, a.idxs...)
			idxs = append(idxs, b.idxs...)
			return node{hash: TapBranchHash(a.hash, b.hash), idxs: idxs}
		},
	)
	return paths
}

// ControlBlockFactory produces, for every leaf in a tree, the control
// block needed to prove a script-path spend against a given internal key.
// Leaves are handed out last-pushed-first.
type ControlBlockFactory struct {
	internalKey *btcec.PublicKey
	oddParity   bool
	merkleRoot  chainhash.Hash
	leaves      []LeafInfo
	paths       [][]chainhash.Hash
}

// NewControlBlockFactory tweaks internalKey by the tree's Merkle root to
// derive the output key, and prepares to hand out one control block per
// leaf.
func NewControlBlockFactory(internalKey *btcec.PublicKey, tree TapTree) *ControlBlockFactory {
	root := tree.MerkleRoot()
	outputKey := txscript.ComputeTaprootOutputKey(internalKey, root[:])
	odd := outputKey.SerializeCompressed()[0] == secpOddPrefix
	return &ControlBlockFactory{
		internalKey: internalKey,
		oddParity:   odd,
		merkleRoot:  root,
		leaves:      tree.Leaves(),
		paths:       merklePaths(tree.leaves),
	}
}

const secpOddPrefix = 0x03

// Next hands out the control block and leaf script for the
// most-recently-remaining leaf, or ok=false once every leaf has been
// consumed.
func (f *ControlBlockFactory) Next() (controlBlock []byte, leaf LeafScript, ok bool) {
	if len(f.leaves) == 0 {
		return nil, LeafScript{}, false
	}
	last := len(f.leaves) - 1
	leafInfo := f.leaves[last]
	path := f.paths[last]
	f.leaves = f.leaves[:last]
	f.paths = f.paths[:last]

	firstByte := byte(leafInfo.Script.Version)
	if f.oddParity {
		firstByte |= 0x01
	}
	cb := make([]byte, 0, 33+32*len(path))
	cb = append(cb, firstByte)
	cb = append(cb, schnorr.SerializePubKey(f.internalKey)...)
	for _, h := range path {
		cb = append(cb, h[:]...)
	}
	return cb, leafInfo.Script, true
}

// Remaining returns the number of leaves not yet handed out by Next.
func (f *ControlBlockFactory) Remaining() int { return len(f.leaves) }
