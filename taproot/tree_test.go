package taproot

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"
)

func script(tag byte) LeafScript {
	return LeafScript{Version: TapscriptLeafVersion, Script: []byte{tag, tag, tag}}
}

func TestSingleLeafMerkleRootIsLeafHash(t *testing.T) {
	tree := WithSingleLeaf(script(0x01))
	require.Equal(t, TapLeafHash(script(0x01)), tree.MerkleRoot())
}

func TestBuilderFinalizesOnCompleteMountainRange(t *testing.T) {
	builder := NewTapTreeBuilder()
	done, err := builder.PushLeaf(LeafInfo{Depth: 1, Script: script(0x01)})
	require.NoError(t, err)
	require.False(t, done)

	done, err = builder.PushLeaf(LeafInfo{Depth: 1, Script: script(0x02)})
	require.NoError(t, err)
	require.True(t, done)

	_, err = builder.Finish()
	require.NoError(t, err)
}

func TestBuilderRejectsLeafAfterFinalized(t *testing.T) {
	builder := NewTapTreeBuilder()
	_, err := builder.PushLeaf(LeafInfo{Depth: 0, Script: script(0x01)})
	require.NoError(t, err)
	require.True(t, builder.IsFinalized())

	_, err = builder.PushLeaf(LeafInfo{Depth: 0, Script: script(0x02)})
	require.ErrorIs(t, err, FinalizedTree{})
}

func TestFinishRejectsIncompleteTree(t *testing.T) {
	builder := NewTapTreeBuilder()
	_, err := builder.PushLeaf(LeafInfo{Depth: 1, Script: script(0x01)})
	require.NoError(t, err)

	_, err = builder.Finish()
	require.Error(t, err)
}

func TestThreeLeafTreeMerkleRootDeterministic(t *testing.T) {
	leaves := []LeafInfo{
		{Depth: 2, Script: script(0x01)},
		{Depth: 2, Script: script(0x02)},
		{Depth: 1, Script: script(0x03)},
	}
	tree, err := FromLeaves(leaves)
	require.NoError(t, err)

	root1 := tree.MerkleRoot()
	root2 := tree.MerkleRoot()
	require.Equal(t, root1, root2)

	// Order of the two deepest leaves must not change the root: TapBranch
	// hashing sorts its two children lexicographically.
	swapped := []LeafInfo{
		{Depth: 2, Script: script(0x02)},
		{Depth: 2, Script: script(0x01)},
		{Depth: 1, Script: script(0x03)},
	}
	swappedTree, err := FromLeaves(swapped)
	require.NoError(t, err)
	require.Equal(t, root1, swappedTree.MerkleRoot())
}

func TestControlBlockFactoryProducesOnePerLeaf(t *testing.T) {
	leaves := []LeafInfo{
		{Depth: 1, Script: script(0x01)},
		{Depth: 1, Script: script(0x02)},
	}
	tree, err := FromLeaves(leaves)
	require.NoError(t, err)

	internalPriv, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	factory := NewControlBlockFactory(internalPriv.PubKey(), tree)
	var controlBlocks [][]byte
	for {
		cb, _, ok := factory.Next()
		if !ok {
			break
		}
		controlBlocks = append(controlBlocks, cb)
	}
	require.Len(t, controlBlocks, 2)
	for _, cb := range controlBlocks {
		require.Len(t, cb, 33+32) // one sibling hash for a two-leaf tree
	}
}

func TestTapTreeDisplay(t *testing.T) {
	leaves := []LeafInfo{
		{Depth: 1, Script: script(0x01)},
		{Depth: 1, Script: script(0x02)},
	}
	tree, err := FromLeaves(leaves)
	require.NoError(t, err)
	require.Contains(t, tree.String(), "script(")
}

func TestMaxDepthRejected(t *testing.T) {
	builder := NewTapTreeBuilder()
	_, err := builder.PushLeaf(LeafInfo{Depth: maxTapDepth + 1, Script: script(0x01)})
	require.Error(t, err)
}

func TestDepthZeroLeafRejectedAfterOtherLeaves(t *testing.T) {
	builder := NewTapTreeBuilder()
	done, err := builder.PushLeaf(LeafInfo{Depth: 1, Script: script(0x01)})
	require.NoError(t, err)
	require.False(t, done)

	_, err = builder.PushLeaf(LeafInfo{Depth: 0, Script: script(0x02)})
	require.Error(t, err)
}

func TestExcessMergeablesRejected(t *testing.T) {
	builder := NewTapTreeBuilder()
	done, err := builder.PushLeaf(LeafInfo{Depth: 1, Script: script(0x01)})
	require.NoError(t, err)
	require.False(t, done)

	done, err = builder.PushLeaf(LeafInfo{Depth: 1, Script: script(0x02)})
	require.NoError(t, err)
	require.True(t, done)

	_, err = builder.PushLeaf(LeafInfo{Depth: 1, Script: script(0x03)})
	require.ErrorIs(t, err, FinalizedTree{})
}
