package psbt

import (
	"bytes"

	"github.com/btcsuite/btcd/wire"
)

// IsFinalized reports whether an input carries a final scriptSig, a final
// witness, or both (as a P2SH-wrapped segwit input does).
func IsFinalized(in *Map) bool {
	if _, ok := in.Get(byte(InputFinalScriptSig), nil); ok {
		return true
	}
	if _, ok := in.Get(byte(InputFinalScriptWitness), nil); ok {
		return true
	}
	return false
}

// UnfinalizedInputs returns the index of every input that has not yet
// been finalized.
func (p *Psbt) UnfinalizedInputs() []uint16 {
	var out []uint16
	for i, in := range p.Inputs {
		if !IsFinalized(in) {
			out = append(out, uint16(i))
		}
	}
	return out
}

// FinalizeInput installs the final scriptSig/witness for input i and
// strips the signature-gathering fields the finalized witness makes
// redundant (partial sigs, redeem/witness scripts, BIP-32 derivations,
// taproot signing material), as BIP-174 prescribes. Either scriptSig or
// witness may be nil, matching whichever form the spending input needs.
func (p *Psbt) FinalizeInput(i int, scriptSig []byte, witness [][]byte) error {
	if i < 0 || i >= len(p.Inputs) {
		return newPsbtError("MissingKey", "input index %d out of range", i)
	}
	in := p.Inputs[i]

	if scriptSig != nil {
		if err := in.Insert(Record{KeyType: byte(InputFinalScriptSig), Value: scriptSig}); err != nil {
			return err
		}
	}
	if witness != nil {
		if err := in.Insert(Record{KeyType: byte(InputFinalScriptWitness), Value: encodeWitness(witness)}); err != nil {
			return err
		}
	}

	for _, key := range signatureGatheringInputKeys {
		in.Remove(byte(key))
	}
	return nil
}

// encodeWitness serializes a witness stack the way PSBT_IN_FINAL_SCRIPTWITNESS
// stores it: a compact-size stack-item count followed by each item as a
// compact-size-prefixed blob.
func encodeWitness(witness [][]byte) []byte {
	var buf bytes.Buffer
	_ = wire.WriteVarInt(&buf, 0, uint64(len(witness)))
	for _, item := range witness {
		_ = wire.WriteVarInt(&buf, 0, uint64(len(item)))
		buf.Write(item)
	}
	return buf.Bytes()
}
