package bip32

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDerivationSegSingle(t *testing.T) {
	seg := NewDerivationSeg(NormalZero)
	require.Equal(t, uint8(1), seg.Count())
	require.Equal(t, "0", seg.String())
}

func TestDerivationSegMultipath(t *testing.T) {
	seg, err := NewDerivationSegFrom(NormalOne, NormalZero)
	require.NoError(t, err)
	require.Equal(t, uint8(2), seg.Count())
	require.Equal(t, "<0;1>", seg.String())

	first, ok := seg.At(0)
	require.True(t, ok)
	require.Equal(t, NormalZero, first)
}

func TestDerivationSegDedup(t *testing.T) {
	seg, err := NewDerivationSegFrom(NormalZero, NormalZero, NormalOne)
	require.NoError(t, err)
	require.Equal(t, uint8(2), seg.Count())
}

func TestDerivationSegTooManyVariants(t *testing.T) {
	items := make([]NormalIndex, 0, 9)
	for i := uint32(0); i < 9; i++ {
		idx, err := NewNormalIndex(i)
		require.NoError(t, err)
		items = append(items, idx)
	}
	_, err := NewDerivationSegFrom(items...)
	require.Error(t, err)
}

func TestParseDerivationSegRoundTrip(t *testing.T) {
	seg, err := ParseDerivationSeg("<0;1>", ParseNormalIndex)
	require.NoError(t, err)
	require.Equal(t, uint8(2), seg.Count())

	again, err := ParseDerivationSeg(seg.String(), ParseNormalIndex)
	require.NoError(t, err)
	require.Equal(t, seg, again)
}

func TestDerivationSegIsDistinct(t *testing.T) {
	a, err := NewDerivationSegFrom(NormalZero)
	require.NoError(t, err)
	b, err := NewDerivationSegFrom(NormalOne)
	require.NoError(t, err)
	require.True(t, a.IsDistinct(b))

	c, err := NewDerivationSegFrom(NormalZero, NormalOne)
	require.NoError(t, err)
	require.False(t, a.IsDistinct(c))
}

func TestStandardSeg(t *testing.T) {
	seg := StandardSeg()
	require.Equal(t, "<0;1>", seg.String())
}
