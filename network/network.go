// Package network identifies the Bitcoin network an address, extended key
// or descriptor belongs to, independent of the chaincfg.Params values the
// signer and CLI layers ultimately need.
package network

import (
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Network is one of the five Bitcoin chains this module recognizes.
type Network uint8

const (
	Mainnet Network = iota
	Testnet3
	Testnet4
	Signet
	Regtest
)

func (n Network) String() string {
	switch n {
	case Mainnet:
		return "bitcoin"
	case Testnet3:
		return "testnet3"
	case Testnet4:
		return "testnet4"
	case Signet:
		return "signet"
	case Regtest:
		return "regtest"
	default:
		return "unknown"
	}
}

// IsTestnet reports whether n is any network other than mainnet.
func (n Network) IsTestnet() bool { return n != Mainnet }

func genesisOf(s string) chainhash.Hash {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		panic(err)
	}
	return *h
}

// Genesis block hashes, in the conventional big-endian display order.
var (
	genesisMainnet  = genesisOf("000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f")
	genesisTestnet3 = genesisOf("000000000933ea01ad0ee984209779baaec3ced90fa3f408719526f8d77f4943")
	genesisTestnet4 = genesisOf("00000000da84f2bafbbc53dee25a72ae507ff4914b867c565be350b0da8bf043")
	genesisSignet   = genesisOf("00000008819873e925422c1ff0f99f7cc9bbb232af63a077a480a3633bee1ef6")
	genesisRegtest  = genesisOf("0f9188f13cb7b2c71f2a335e3a4fc328bf5beb436012afca590b1a11466e2206")
)

// GenesisHash returns the genesis block hash identifying n.
func (n Network) GenesisHash() chainhash.Hash {
	switch n {
	case Mainnet:
		return genesisMainnet
	case Testnet3:
		return genesisTestnet3
	case Testnet4:
		return genesisTestnet4
	case Signet:
		return genesisSignet
	case Regtest:
		return genesisRegtest
	default:
		panic("unreachable network")
	}
}

// UnknownGenesisBlock is returned when a genesis hash does not match any
// network this module recognizes.
type UnknownGenesisBlock struct {
	Hash chainhash.Hash
}

func (e *UnknownGenesisBlock) Error() string {
	return "unknown genesis block hash '" + e.Hash.String() + "'"
}

// FromGenesisHash reverse-looks-up the network owning a genesis hash.
func FromGenesisHash(hash chainhash.Hash) (Network, error) {
	for _, n := range []Network{Mainnet, Testnet3, Testnet4, Signet, Regtest} {
		if n.GenesisHash() == hash {
			return n, nil
		}
	}
	return 0, &UnknownGenesisBlock{Hash: hash}
}

// UnknownNetwork is returned when a textual network name is not
// recognized.
type UnknownNetwork struct {
	Input string
}

func (e *UnknownNetwork) Error() string { return "unknown bitcoin network '" + e.Input + "'" }

// FromString parses the conventional network names, accepting both
// "bitcoin" and "mainnet" for the main chain and both "testnet" and
// "testnet3" for the first testnet.
func FromString(s string) (Network, error) {
	switch strings.ToLower(s) {
	case "bitcoin", "mainnet":
		return Mainnet, nil
	case "testnet", "testnet3":
		return Testnet3, nil
	case "testnet4":
		return Testnet4, nil
	case "signet":
		return Signet, nil
	case "regtest":
		return Regtest, nil
	default:
		return 0, &UnknownNetwork{Input: s}
	}
}
