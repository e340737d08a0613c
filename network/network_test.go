package network

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromStringAliases(t *testing.T) {
	for _, s := range []string{"bitcoin", "mainnet", "Bitcoin"} {
		n, err := FromString(s)
		require.NoError(t, err, s)
		require.Equal(t, Mainnet, n)
	}
	for _, s := range []string{"testnet", "testnet3"} {
		n, err := FromString(s)
		require.NoError(t, err, s)
		require.Equal(t, Testnet3, n)
	}
}

func TestFromStringUnknown(t *testing.T) {
	_, err := FromString("mutinynet")
	require.Error(t, err)
}

func TestGenesisHashRoundTrip(t *testing.T) {
	for _, n := range []Network{Mainnet, Testnet3, Testnet4, Signet, Regtest} {
		found, err := FromGenesisHash(n.GenesisHash())
		require.NoError(t, err)
		require.Equal(t, n, found)
	}
}

func TestFromGenesisHashUnknown(t *testing.T) {
	_, err := FromGenesisHash(Mainnet.GenesisHash())
	require.NoError(t, err)

	var zero = Mainnet.GenesisHash()
	zero[0] ^= 0xff
	_, err = FromGenesisHash(zero)
	require.Error(t, err)
}

func TestIsTestnet(t *testing.T) {
	require.False(t, Mainnet.IsTestnet())
	for _, n := range []Network{Testnet3, Testnet4, Signet, Regtest} {
		require.True(t, n.IsTestnet())
	}
}
