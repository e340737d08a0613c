package bip32

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalIndexBoundary(t *testing.T) {
	_, err := NewNormalIndex(HardenedBoundary - 1)
	require.NoError(t, err)

	_, err = NewNormalIndex(HardenedBoundary)
	require.Error(t, err)
}

func TestHardenedIndexBoundary(t *testing.T) {
	_, err := NewHardenedIndex(HardenedBoundary - 1)
	require.NoError(t, err)

	_, err = NewHardenedIndex(HardenedBoundary)
	require.Error(t, err)

	idx, err := HardenedFromChildNumber(HardenedBoundary)
	require.NoError(t, err)
	require.Equal(t, uint32(0), idx.Index())

	_, err = HardenedFromChildNumber(HardenedBoundary - 1)
	require.Error(t, err)
}

func TestIndexIncrementWraparound(t *testing.T) {
	last, err := NewNormalIndex(HardenedBoundary - 1)
	require.NoError(t, err)
	_, err = last.Increment()
	require.ErrorIs(t, err, ErrNormalWraparound)

	lastHardened, err := NewHardenedIndex(HardenedBoundary - 1)
	require.NoError(t, err)
	_, err = lastHardened.Increment()
	require.ErrorIs(t, err, ErrHardenedWraparound)

	zero, err := NewNormalIndex(0)
	require.NoError(t, err)
	next, err := zero.Increment()
	require.NoError(t, err)
	require.Equal(t, uint32(1), next.ChildNumber())
}

func TestParseIndexEquivalentForms(t *testing.T) {
	forms := []string{"86'", "86h", "86H"}
	var parsed []HardenedIndex
	for _, form := range forms {
		idx, err := ParseHardenedIndex(form)
		require.NoError(t, err, form)
		parsed = append(parsed, idx)
	}
	for _, idx := range parsed[1:] {
		require.Equal(t, parsed[0], idx)
	}
}

func TestParseNormalIndexRejectsHardenedMarker(t *testing.T) {
	_, err := ParseNormalIndex("5'")
	require.Error(t, err)
}

func TestParseHardenedIndexRequiresMarker(t *testing.T) {
	_, err := ParseHardenedIndex("5")
	require.Error(t, err)
}

func TestParseIndexEitherKind(t *testing.T) {
	normal, err := ParseIndex("44")
	require.NoError(t, err)
	require.False(t, normal.IsHardened())
	require.Equal(t, uint32(44), normal.ChildNumber())

	hardened, err := ParseIndex("44h")
	require.NoError(t, err)
	require.True(t, hardened.IsHardened())
	require.Equal(t, HardenedBoundary+44, hardened.ChildNumber())
}

func TestDerivationIndexRoundTrip(t *testing.T) {
	cases := []string{"0", "1", "86h", "2147483646", "2147483646h"}
	for _, s := range cases {
		idx, err := ParseIndex(s)
		require.NoError(t, err, s)
		again, err := ParseIndex(idx.String())
		require.NoError(t, err, s)
		require.Equal(t, idx, again, s)
	}
}

func TestParseIndexRejectsOutOfRange(t *testing.T) {
	_, err := ParseIndex("2147483648")
	require.Error(t, err)

	_, err = ParseHardenedIndex("2147483648h")
	require.Error(t, err)
}

func TestParseIndexRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "abc", "-1", "+1", "1.5"} {
		_, err := ParseIndex(s)
		require.Error(t, err, s)
	}
}
