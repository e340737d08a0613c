package xpub

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/lnp-bp/bpstd-go/bip32"
	"github.com/lnp-bp/bpstd-go/network"
)

func masterXpriv(t *testing.T) Xpriv {
	t.Helper()
	seed, err := hdkeychain.GenerateSeed(hdkeychain.RecommendedSeedLen)
	require.NoError(t, err)
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)
	xpriv, err := xprivFromHDKey(master, network.Mainnet)
	require.NoError(t, err)
	return xpriv
}

func TestXprivSerializeParseRoundTrip(t *testing.T) {
	xpriv := masterXpriv(t)
	encoded := xpriv.String()

	parsed, err := ParseXpriv(encoded)
	require.NoError(t, err)
	require.Equal(t, xpriv.core, parsed.core)
	require.Equal(t, xpriv.priv.Serialize(), parsed.priv.Serialize())
}

func TestXprivNeuterAndXpubRoundTrip(t *testing.T) {
	xpriv := masterXpriv(t)
	xpub, err := xpriv.Neuter()
	require.NoError(t, err)

	encoded := xpub.String()
	parsed, err := ParseXpub(encoded)
	require.NoError(t, err)
	require.Equal(t, xpub.core, parsed.core)
	require.Equal(t, xpub.pub.SerializeCompressed(), parsed.pub.SerializeCompressed())
}

func TestDeriveChildMatchesPrivatePublic(t *testing.T) {
	xpriv := masterXpriv(t)
	childIdx := bip32.NewDerivationIndex(5)

	childPriv, err := xpriv.Child(childIdx)
	require.NoError(t, err)
	childPub, err := childPriv.Neuter()
	require.NoError(t, err)

	xpub, err := xpriv.Neuter()
	require.NoError(t, err)
	derivedPub, err := xpub.Child(childIdx)
	require.NoError(t, err)

	require.Equal(t, childPub.pub.SerializeCompressed(), derivedPub.pub.SerializeCompressed())
}

func TestDeriveHardenedFromPublicFails(t *testing.T) {
	xpriv := masterXpriv(t)
	xpub, err := xpriv.Neuter()
	require.NoError(t, err)

	hardenedIdx, err := bip32.NewHardenedIndex(0)
	require.NoError(t, err)

	_, err = xpub.Child(bip32.NewDerivationIndex(hardenedIdx.ChildNumber()))
	require.Error(t, err)
}

func TestFingerprintMatchesAcrossPrivatePublic(t *testing.T) {
	xpriv := masterXpriv(t)
	xpub, err := xpriv.Neuter()
	require.NoError(t, err)

	fpFromPriv, err := xpriv.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, xpub.Fingerprint(), fpFromPriv)
}
