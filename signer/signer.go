// Package signer implements the signer contract of spec.md §4.5: given a
// PSBT, a descriptor, and a terminal for each input, it walks the inputs,
// matches the PSBT's own recorded BIP-32 derivations against the keys the
// descriptor names, requests a signature from a KeyProvider for every
// match, and writes the result back into the PSBT's partial-sig /
// taproot-key-sig / taproot-script-sig fields. It never touches anything
// but an input's signature-gathering fields; assembling the final
// scriptSig/witness from the resulting signatures is the descriptor's job
// (StdDescr.Assemble), applied by the caller before psbt.FinalizeInput.
//
// Grounded on _examples/lightninglabs-chantools/btc/signer.go and
// _examples/lightninglabs-chantools/lnd/signer.go (FetchPrivKey /
// SignOutputRaw / maybeTweakPrivKey), generalized from lnd's
// keychain.KeyDescriptor family/index axis to this package's
// descriptor-xpub/origin axis.
package signer

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnp-bp/bpstd-go/bip32"
	"github.com/lnp-bp/bpstd-go/descriptor"
	"github.com/lnp-bp/bpstd-go/psbt"
	"github.com/lnp-bp/bpstd-go/taproot"
	"github.com/lnp-bp/bpstd-go/xpub"
)

// InputDescriptor names how one PSBT input should be signed: the
// descriptor and terminal it was derived from, and, for a taproot
// script-path spend, the leaf script being satisfied (nil selects the
// taproot key-path, or any non-taproot class).
type InputDescriptor struct {
	Descr      descriptor.StdDescr
	Terminal   bip32.Terminal
	LeafScript []byte
}

// Signer produces signatures for PSBT inputs by consulting a KeyProvider
// for the private key behind each (masterFp, path) a PSBT input's own
// BIP-32 derivation fields name, restricted to the keys the caller's
// descriptor actually uses.
type Signer struct {
	Keys KeyProvider
}

// SignPsbt walks every input named in inputs, producing and writing back
// whatever signatures s.Keys can provide. An input with no matching key
// is not an error by itself — SignPsbt is meant to be called once per
// cosigner, and a given cosigner naturally has no key for inputs it
// doesn't own — but any other failure (unknown prevout, missing witness
// utxo, a sighash that can't be computed, a taproot input with no
// recorded internal key) is collected into the returned *Rejected keyed
// by input index.
func (s *Signer) SignPsbt(p *psbt.Psbt, inputs map[int]InputDescriptor) error {
	tx, err := signableTx(p)
	if err != nil {
		return err
	}
	prevOuts, err := prevOutputs(p, tx)
	if err != nil {
		return err
	}
	fetcher := mapPrevOutFetcher(prevOuts)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	rejected := &Rejected{}
	for i := range p.Inputs {
		id, ok := inputs[i]
		if !ok {
			continue
		}
		if err := s.signInput(p, i, tx, fetcher, sigHashes, id); err != nil {
			rejected.add(i, err)
		}
	}
	return rejected.AsError()
}

func (s *Signer) signInput(
	p *psbt.Psbt, i int, tx *wire.MsgTx, fetcher txscript.PrevOutputFetcher,
	sigHashes *txscript.TxSigHashes, id InputDescriptor,
) error {
	der, err := id.Descr.Derive(id.Terminal)
	if err != nil {
		return err
	}

	op := outPointForInput(p, tx, i)
	prevOut := fetcher.FetchPrevOutput(op)
	if prevOut == nil {
		return errMissingWitnessUtxo(i)
	}

	hashType := readSighashType(p.Inputs[i], der.Class.IsTaproot())

	// Finding no key this signer holds is not an error (see SignPsbt).
	if der.Class.IsTaproot() {
		_, err = s.signTaprootInput(p, i, tx, sigHashes, prevOut, der, id, hashType)
	} else {
		_, err = s.signLegacyOrSegwitInput(p, i, tx, sigHashes, prevOut, id, der, hashType)
	}
	return err
}

// readSighashType reads PSBT_IN_SIGHASH_TYPE, defaulting to SIGHASH_ALL
// for non-taproot inputs and SIGHASH_DEFAULT for taproot ones per BIP-341.
func readSighashType(in *psbt.Map, isTaproot bool) txscript.SigHashType {
	raw, ok := in.Get(byte(psbt.InputSighashType), nil)
	if !ok || len(raw) != 4 {
		if isTaproot {
			return txscript.SigHashDefault
		}
		return txscript.SigHashAll
	}
	v := binary.LittleEndian.Uint32(raw)
	if isTaproot && v == 0 {
		return txscript.SigHashDefault
	}
	return psbt.ParseSighashConsensus(v).ToConsensus()
}

// matchesDescriptorOrigin reports whether (masterFp, path) falls under
// the origin of some key the descriptor actually uses — the "matching
// the input's BIP-32 derivations against the descriptor's xpub origin
// (prefix match)" step of spec.md §4.5.
func matchesDescriptorOrigin(descr descriptor.StdDescr, masterFp xpub.XpubFp, path bip32.DerivationPath[bip32.DerivationIndex]) bool {
	for _, k := range descr.AllKeys() {
		acct, ok := k.XpubSpec()
		if !ok {
			continue
		}
		if acct.Origin.MasterFp != masterFp {
			continue
		}
		if bip32.StartsWith[bip32.DerivationIndex, bip32.HardenedIndex](path, acct.Origin.Path) {
			return true
		}
	}
	return false
}

// signLegacyOrSegwitInput handles every non-taproot SpkClass: legacy P2PKH,
// bare/P2SH-wrapped P2WPKH, and bare/P2WSH/P2SH multisig, signing once per
// BIP-32 derivation entry this signer can satisfy.
func (s *Signer) signLegacyOrSegwitInput(
	p *psbt.Psbt, i int, tx *wire.MsgTx, sigHashes *txscript.TxSigHashes,
	prevOut *wire.TxOut, id InputDescriptor, der descriptor.DerivedScript,
	hashType txscript.SigHashType,
) (bool, error) {
	subScript, isWitness, err := sigContextForKind(id.Descr.Kind, der, prevOut)
	if err != nil {
		return false, err
	}

	in := p.Inputs[i]
	signed := false
	for _, rec := range in.GetAll(byte(psbt.InputBip32Derivation)) {
		d, err := parseBip32DerivationValue(rec.Value)
		if err != nil {
			continue
		}
		if !matchesDescriptorOrigin(id.Descr, d.MasterFp, d.Path) {
			continue
		}
		priv, ok := s.Keys.PrivateKeyFor(d.MasterFp, d.Path)
		if !ok {
			continue
		}

		var (
			sigBytes []byte
			err2     error
		)
		if isWitness {
			sigBytes, err2 = txscript.RawTxInWitnessSignature(
				tx, sigHashes, i, prevOut.Value, subScript, hashType, priv,
			)
		} else {
			sigBytes, err2 = txscript.RawTxInSignature(tx, i, subScript, hashType, priv)
		}
		if err2 != nil {
			return false, errSighashFailure(i, err2)
		}

		sig, err2 := psbt.ParseEcdsaSig(sigBytes)
		if err2 != nil {
			return false, SignError{Kind: "InvalidValueLen", Msg: err2.Error()}
		}
		if err2 := in.Insert(psbt.Record{
			KeyType: byte(psbt.InputPartialSig),
			KeyData: rec.KeyData,
			Value:   sig.Bytes(),
		}); err2 != nil {
			return false, err2
		}
		signed = true
	}
	return signed, nil
}

// sigContextForKind returns the script the signature commits to
// (scriptCode for a witness spend, or the scriptSig subscript for a
// legacy one) and whether the spend is a witness spend at all.
func sigContextForKind(kind descriptor.Kind, der descriptor.DerivedScript, prevOut *wire.TxOut) (subScript []byte, isWitness bool, err error) {
	switch kind {
	case descriptor.KindPkh:
		return prevOut.PkScript, false, nil
	case descriptor.KindWpkh:
		script, err := p2pkhEquivFromProgram(der.ScriptPubKey)
		return script, true, err
	case descriptor.KindShWpkh:
		script, err := p2pkhEquivFromProgram(der.RedeemScript)
		return script, true, err
	case descriptor.KindShMulti, descriptor.KindShSortedMulti:
		return der.RedeemScript, false, nil
	case descriptor.KindWshMulti, descriptor.KindWshSortedMulti,
		descriptor.KindShWshMulti, descriptor.KindShWshSortedMulti:
		return der.WitnessScript, true, nil
	}
	return nil, false, SignError{Kind: "Unsupported", Msg: "descriptor kind has no legacy/segwit-v0 signing path"}
}

// p2pkhEquivFromProgram recovers the P2PKH-equivalent scriptCode a P2WPKH
// (or P2SH-wrapped P2WPKH) signature commits to from its witness program
// `OP_0 <20-byte-hash>`.
func p2pkhEquivFromProgram(program []byte) ([]byte, error) {
	if len(program) != 22 || program[0] != 0x00 || program[1] != 0x14 {
		return nil, SignError{Kind: "Unsupported", Msg: "not a P2WPKH witness program"}
	}
	hash := program[2:22]
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_DUP)
	builder.AddOp(txscript.OP_HASH160)
	builder.AddData(hash)
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddOp(txscript.OP_CHECKSIG)
	return builder.Script()
}

// signTaprootInput handles the key-path and script-path taproot signing
// rules of spec.md §4.5, selecting script-path signing when id.LeafScript
// is set and matching PSBT_IN_TAP_BIP32_DERIVATION entries by their
// recorded leaf-hash set (empty ⇒ key-path only, per BIP-371).
func (s *Signer) signTaprootInput(
	p *psbt.Psbt, i int, tx *wire.MsgTx, sigHashes *txscript.TxSigHashes,
	prevOut *wire.TxOut, der descriptor.DerivedScript, id InputDescriptor,
	hashType txscript.SigHashType,
) (bool, error) {
	if der.InternalKey == nil {
		return false, errTaprootInputMissingInternalKey(i)
	}

	var targetLeafHash *chainhash.Hash
	if id.LeafScript != nil {
		h := taproot.TapLeafHash(taproot.LeafScript{Version: taproot.TapscriptLeafVersion, Script: id.LeafScript})
		targetLeafHash = &h
	}

	in := p.Inputs[i]
	signed := false
	for _, rec := range in.GetAll(byte(psbt.InputTapBip32Derivation)) {
		leafHashes, d, err := parseTapBip32DerivationValue(rec.Value)
		if err != nil {
			continue
		}
		if !matchesDescriptorOrigin(id.Descr, d.MasterFp, d.Path) {
			continue
		}
		if !tapLeafSetMatches(leafHashes, targetLeafHash) {
			continue
		}
		priv, ok := s.Keys.PrivateKeyFor(d.MasterFp, d.Path)
		if !ok {
			continue
		}

		if targetLeafHash == nil {
			var tapTweak []byte
			if der.TapTree != nil {
				root := der.TapTree.MerkleRoot()
				tapTweak = root[:]
			}
			sig, err := txscript.RawTxInTaprootSignature(
				tx, sigHashes, i, prevOut.Value, prevOut.PkScript,
				tapTweak, hashType, priv,
			)
			if err != nil {
				return false, errSighashFailure(i, err)
			}
			if err := in.Insert(psbt.Record{KeyType: byte(psbt.InputTapKeySig), Value: sig}); err != nil {
				return false, err
			}
		} else {
			leaf := txscript.TapLeaf{LeafVersion: txscript.BaseLeafVersion, Script: id.LeafScript}
			sig, err := txscript.RawTxInTapscriptSignature(
				tx, sigHashes, i, prevOut.Value, prevOut.PkScript,
				leaf, hashType, priv,
			)
			if err != nil {
				return false, errSighashFailure(i, err)
			}
			keyData := append(append([]byte(nil), rec.KeyData...), targetLeafHash[:]...)
			if err := in.Insert(psbt.Record{KeyType: byte(psbt.InputTapScriptSig), KeyData: keyData, Value: sig}); err != nil {
				return false, err
			}
		}
		signed = true
	}
	return signed, nil
}

func tapLeafSetMatches(leafHashes []chainhash.Hash, target *chainhash.Hash) bool {
	if target == nil {
		return len(leafHashes) == 0
	}
	for _, h := range leafHashes {
		if h == *target {
			return true
		}
	}
	return false
}
