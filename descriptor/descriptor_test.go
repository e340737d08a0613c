package descriptor

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"

	"github.com/lnp-bp/bpstd-go/bip32"
	"github.com/lnp-bp/bpstd-go/xpub"
)

// testAccountXpub generates a fresh account-level xpub string, in the
// teacher's own style of exercising real key-derivation math rather than
// a hardcoded fixture.
func testAccountXpub(t *testing.T) string {
	t.Helper()
	seed, err := hdkeychain.GenerateSeed(hdkeychain.RecommendedSeedLen)
	require.NoError(t, err)
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	account, err := master.Derive(hdkeychain.HardenedKeyStart + 84)
	require.NoError(t, err)
	account, err = account.Derive(hdkeychain.HardenedKeyStart)
	require.NoError(t, err)
	account, err = account.Derive(hdkeychain.HardenedKeyStart)
	require.NoError(t, err)

	pub, err := account.Neuter()
	require.NoError(t, err)

	x, err := xpub.ParseXpub(pub.String())
	require.NoError(t, err)
	return x.String()
}

func mustParse(t *testing.T, s string) StdDescr {
	t.Helper()
	d, err := Parse(s)
	require.NoError(t, err)
	return d
}

func terminal(keychain uint32, index uint32) bip32.Terminal {
	k, _ := bip32.NewNormalIndex(keychain)
	i, _ := bip32.NewNormalIndex(index)
	return bip32.Terminal{Keychain: bip32.Keychain(k.ChildNumber()), Index: i}
}

func TestParseWpkhAndDerive(t *testing.T) {
	xp := testAccountXpub(t)
	d := mustParse(t, "wpkh("+xp+"/0/*)")
	require.Equal(t, KindWpkh, d.Kind)

	out, err := d.Derive(terminal(0, 0))
	require.NoError(t, err)
	require.Equal(t, ClassP2wpkh, out.Class)
	require.Len(t, out.ScriptPubKey, 22)
}

func TestShWshSortedMultiRoundTripE2(t *testing.T) {
	xp, xp2 := testAccountXpub(t), testAccountXpub(t)
	text := "sh(wsh(sortedmulti(2," + xp + "/0/*," + xp2 + "/0/*)))"
	d := mustParse(t, text)
	require.Equal(t, KindShWshSortedMulti, d.Kind)
	require.Equal(t, text, d.String())

	out, err := d.Derive(terminal(0, 0))
	require.NoError(t, err)
	require.Equal(t, ClassP2sh, out.Class)
	require.NotEmpty(t, out.RedeemScript)
	require.NotEmpty(t, out.WitnessScript)
}

func TestDescrIdRoundTripE3(t *testing.T) {
	xp := testAccountXpub(t)
	d := mustParse(t, "wpkh("+xp+"/0/*)")
	out, err := d.Derive(terminal(0, 0))
	require.NoError(t, err)

	id := computeDescrId(out.ScriptPubKey)
	str := id.String()
	require.Len(t, str, 17)

	parsed, err := ParseDescrId(str)
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestMultisigThresholdZeroRejected(t *testing.T) {
	xp := testAccountXpub(t)
	_, err := Parse("wsh(multi(0," + xp + "/0/*))")
	require.Error(t, err)
}

func TestMultisigThresholdExceedsKeyCountRejected(t *testing.T) {
	xp := testAccountXpub(t)
	_, err := Parse("wsh(multi(2," + xp + "/0/*))")
	require.Error(t, err)
}

func TestMultisigOverSixteenKeysRejected(t *testing.T) {
	xp := testAccountXpub(t)
	s := "wsh(multi(1"
	for i := 0; i < 17; i++ {
		s += "," + xp + "/0/*"
	}
	s += "))"
	_, err := Parse(s)
	require.Error(t, err)
}

func TestMultiAThousandKeysRejected(t *testing.T) {
	xp := testAccountXpub(t)
	s := "tr(" + xp + "/0/*,multi_a(1"
	for i := 0; i < 1000; i++ {
		s += "," + xp + "/0/*"
	}
	s += "))"
	_, err := Parse(s)
	require.Error(t, err)
}

func TestTrKeyOnlyDerive(t *testing.T) {
	xp := testAccountXpub(t)
	d := mustParse(t, "tr("+xp+"/0/*)")
	require.Equal(t, KindTrKey, d.Kind)

	out, err := d.Derive(terminal(0, 5))
	require.NoError(t, err)
	require.Equal(t, ClassP2tr, out.Class)
	require.Nil(t, out.TapTree)
}

func TestTrMultiADerive(t *testing.T) {
	xp, xp2, xp3 := testAccountXpub(t), testAccountXpub(t), testAccountXpub(t)
	d := mustParse(t, "tr("+xp+"/0/*,multi_a(2,"+xp2+"/0/*,"+xp3+"/0/*))")
	require.Equal(t, KindTrMultiA, d.Kind)

	out, err := d.Derive(terminal(0, 0))
	require.NoError(t, err)
	require.Equal(t, ClassP2tr, out.Class)
	require.NotNil(t, out.TapTree)
	require.Equal(t, 1, out.TapTree.Len())
}

func TestTrTreeDerive(t *testing.T) {
	xp, xp2, xp3 := testAccountXpub(t), testAccountXpub(t), testAccountXpub(t)
	text := "tr(" + xp + "/0/*,{pk(" + xp2 + "/0/*),pk(" + xp3 + "/0/*)})"
	d := mustParse(t, text)
	require.Equal(t, KindTrTree, d.Kind)
	require.Len(t, d.Leaves, 2)

	out, err := d.Derive(terminal(0, 0))
	require.NoError(t, err)
	require.Equal(t, ClassP2tr, out.Class)
	require.Equal(t, 2, out.TapTree.Len())
}

func TestChecksumRoundTrip(t *testing.T) {
	xp := testAccountXpub(t)
	text := "wpkh(" + xp + "/0/*)"
	withSum := WithChecksum(text)
	require.True(t, VerifyChecksum(withSum, true))

	d, err := Parse(withSum)
	require.NoError(t, err)
	require.Equal(t, text, d.String())
}

func TestChecksumMismatchRejected(t *testing.T) {
	xp := testAccountXpub(t)
	text := "wpkh(" + xp + "/0/*)#deadbeef"
	_, err := Parse(text)
	require.Error(t, err)
}

func TestAssembleOrdersSignaturesByScript(t *testing.T) {
	xp, xp2 := testAccountXpub(t), testAccountXpub(t)
	d := mustParse(t, "wsh(sortedmulti(2,"+xp+"/0/*,"+xp2+"/0/*))")
	out, err := d.Derive(terminal(0, 0))
	require.NoError(t, err)

	pk0, err := ParseKeyExpr(xp + "/0/*")
	require.NoError(t, err)
	key0, err := pk0.DeriveCompr(terminal(0, 0))
	require.NoError(t, err)
	pk1, err := ParseKeyExpr(xp2 + "/0/*")
	require.NoError(t, err)
	key1, err := pk1.DeriveCompr(terminal(0, 0))
	require.NoError(t, err)

	sigs := []Sig{
		{PubKey: key1[:], Signature: []byte("sig1")},
		{PubKey: key0[:], Signature: []byte("sig0")},
	}
	_, witness, err := d.Assemble(out, sigs, nil, nil)
	require.NoError(t, err)
	require.Len(t, witness, 4) // dummy, sig x2, witness-script

	// sortedmulti orders keys by their compressed encoding, so the
	// signatures must follow that order, not the order they were passed in.
	first, second := []byte("sig0"), []byte("sig1")
	if bytes.Compare(key1[:], key0[:]) < 0 {
		first, second = second, first
	}
	require.Equal(t, first, witness[1])
	require.Equal(t, second, witness[2])
}
