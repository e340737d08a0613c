package descriptor

import (
	"crypto/sha256"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

// schnorrLift recovers the even-Y full public key a BIP-340 x-only key
// represents, as required before it can serve as a taproot internal key.
func schnorrLift(xonly [32]byte) (*btcec.PublicKey, error) {
	return schnorr.ParsePubKey(xonly[:])
}

// schnorrSerialize returns the 32-byte x-only encoding of pk.
func schnorrSerialize(pk *btcec.PublicKey) []byte {
	return schnorr.SerializePubKey(pk)
}

func sha256Sum(b []byte) []byte {
	h := sha256.Sum256(b)
	return h[:]
}
