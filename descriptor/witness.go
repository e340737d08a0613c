package descriptor

import (
	"sort"

	"github.com/btcsuite/btcd/txscript"
)

// Sig is one signature collected for a derived output, keyed by the
// compressed (or x-only, for taproot) public key it belongs to.
type Sig struct {
	PubKey    []byte
	Signature []byte // DER-encoded ECDSA, or a 64-byte BIP-340 signature for taproot
}

// AssembleErr is returned when the signatures handed to Assemble don't
// satisfy the descriptor's spending conditions.
type AssembleErr struct{ msg string }

func (e *AssembleErr) Error() string { return e.msg }

// Assemble builds the final sig-script and witness stack for a derived
// output given the signatures collected for it, following spec.md
// §4.5's per-kind assembly rules. leafScript/controlBlock are required
// only for taproot script-path spends (KindTrMultiA/KindTrSortedMultiA/
// KindTrTree); leave them nil for a taproot key-path spend.
func (d StdDescr) Assemble(der DerivedScript, sigs []Sig, leafScript []byte, controlBlock []byte) (sigScript []byte, witness [][]byte, err error) {
	switch d.Kind {
	case KindPkh:
		if len(sigs) != 1 {
			return nil, nil, &AssembleErr{msg: "pkh requires exactly one signature"}
		}
		script, err := scriptPush(sigs[0].Signature, sigs[0].PubKey)
		if err != nil {
			return nil, nil, err
		}
		return script, nil, nil

	case KindWpkh:
		if len(sigs) != 1 {
			return nil, nil, &AssembleErr{msg: "wpkh requires exactly one signature"}
		}
		return nil, [][]byte{sigs[0].Signature, sigs[0].PubKey}, nil

	case KindShWpkh:
		if len(sigs) != 1 {
			return nil, nil, &AssembleErr{msg: "sh(wpkh) requires exactly one signature"}
		}
		script, err := scriptPush(der.RedeemScript)
		if err != nil {
			return nil, nil, err
		}
		return script, [][]byte{sigs[0].Signature, sigs[0].PubKey}, nil

	case KindShMulti, KindShSortedMulti:
		ordered, err := orderSigsByScript(sigs, der.RedeemScript)
		if err != nil {
			return nil, nil, err
		}
		sigScript, err := multisigSigScript(ordered, der.RedeemScript)
		if err != nil {
			return nil, nil, err
		}
		return sigScript, nil, nil

	case KindWshMulti, KindWshSortedMulti:
		ordered, err := orderSigsByScript(sigs, der.WitnessScript)
		if err != nil {
			return nil, nil, err
		}
		return nil, multisigWitness(ordered, der.WitnessScript), nil

	case KindShWshMulti, KindShWshSortedMulti:
		ordered, err := orderSigsByScript(sigs, der.WitnessScript)
		if err != nil {
			return nil, nil, err
		}
		script, err := scriptPush(der.RedeemScript)
		if err != nil {
			return nil, nil, err
		}
		return script, multisigWitness(ordered, der.WitnessScript), nil

	case KindTrKey:
		if len(sigs) != 1 {
			return nil, nil, &AssembleErr{msg: "taproot key-path spend requires exactly one signature"}
		}
		return nil, [][]byte{sigs[0].Signature}, nil

	case KindTrMultiA, KindTrSortedMultiA, KindTrTree:
		if leafScript == nil || controlBlock == nil {
			return nil, nil, &AssembleErr{msg: "taproot script-path spend requires a leaf script and control block"}
		}
		stack := make([][]byte, 0, len(sigs)+2)
		for _, s := range sigs {
			stack = append(stack, s.Signature)
		}
		stack = append(stack, leafScript, controlBlock)
		return nil, stack, nil
	}
	return nil, nil, &AssembleErr{msg: "unrecognized descriptor kind"}
}

// orderSigsByScript reorders sigs to match the key order OP_CHECKMULTISIG
// expects: the same relative order the compiled redeem/witness script's
// pubkey pushes appear in (which, for the sorted* kinds, is already the
// post-derivation lexicographic order the script was built with).
func orderSigsByScript(sigs []Sig, script []byte) ([]Sig, error) {
	pushes, err := txscript.PushedData(script)
	if err != nil {
		return nil, err
	}
	rank := make(map[string]int, len(pushes))
	i := 0
	for _, push := range pushes {
		if len(push) != 33 && len(push) != 65 {
			continue
		}
		rank[string(push)] = i
		i++
	}
	ordered := append([]Sig(nil), sigs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rank[string(ordered[i].PubKey)] < rank[string(ordered[j].PubKey)]
	})
	return ordered, nil
}

func multisigSigScript(sigs []Sig, redeemScript []byte) ([]byte, error) {
	parts := make([][]byte, 0, len(sigs)+2)
	parts = append(parts, nil) // OP_0 dummy for the off-by-one CHECKMULTISIG bug
	for _, s := range sigs {
		parts = append(parts, s.Signature)
	}
	parts = append(parts, redeemScript)
	return scriptPush(parts...)
}

func multisigWitness(sigs []Sig, witnessScript []byte) [][]byte {
	stack := make([][]byte, 0, len(sigs)+2)
	stack = append(stack, nil) // OP_0 dummy
	for _, s := range sigs {
		stack = append(stack, s.Signature)
	}
	stack = append(stack, witnessScript)
	return stack
}

// scriptPush builds a sig-script from a sequence of data pushes, using
// OP_0 for a nil entry (the CHECKMULTISIG dummy element).
func scriptPush(items ...[]byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	for _, item := range items {
		if item == nil {
			builder.AddOp(txscript.OP_0)
			continue
		}
		builder.AddData(item)
	}
	return builder.Script()
}
