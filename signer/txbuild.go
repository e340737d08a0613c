package signer

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/lnp-bp/bpstd-go/bip32"
	"github.com/lnp-bp/bpstd-go/psbt"
	"github.com/lnp-bp/bpstd-go/xpub"
)

// signableTx recovers the wire.MsgTx a PSBT's inputs sign against: for a
// v0 psbt that's the embedded PSBT_GLOBAL_UNSIGNED_TX verbatim; for a v2
// psbt there is no such field, so one is assembled from the per-input
// prevtxid/output-index/sequence and per-output amount/script fields BIP-370
// defines instead.
func signableTx(p *psbt.Psbt) (*wire.MsgTx, error) {
	if p.Version == psbt.PsbtV0 {
		raw, ok := p.Global.Get(byte(psbt.GlobalUnsignedTx), nil)
		if !ok {
			return nil, SignError{Kind: "MissingKey", Msg: "PSBT_GLOBAL_UNSIGNED_TX"}
		}
		var tx wire.MsgTx
		if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
			return nil, SignError{Kind: "InvalidValueLen", Msg: err.Error()}
		}
		return &tx, nil
	}

	tx := wire.NewMsgTx(2)
	if raw, ok := p.Global.Get(byte(psbt.GlobalTxVersion), nil); ok && len(raw) == 4 {
		tx.Version = int32(binary.LittleEndian.Uint32(raw))
	}
	if raw, ok := p.Global.Get(byte(psbt.GlobalFallbackLocktime), nil); ok && len(raw) == 4 {
		tx.LockTime = binary.LittleEndian.Uint32(raw)
	}

	for _, in := range p.Inputs {
		txidRaw, ok := in.Get(byte(psbt.InputPrevTxid), nil)
		if !ok || len(txidRaw) != chainhash.HashSize {
			return nil, SignError{Kind: "MissingKey", Msg: "PSBT_IN_PREVIOUS_TXID"}
		}
		var txid chainhash.Hash
		copy(txid[:], txidRaw)

		idxRaw, ok := in.Get(byte(psbt.InputOutputIndex), nil)
		if !ok || len(idxRaw) != 4 {
			return nil, SignError{Kind: "MissingKey", Msg: "PSBT_IN_OUTPUT_INDEX"}
		}

		sequence := uint32(0xFFFFFFFF)
		if seqRaw, ok := in.Get(byte(psbt.InputSequence), nil); ok && len(seqRaw) == 4 {
			sequence = binary.LittleEndian.Uint32(seqRaw)
		}

		outPoint := wire.OutPoint{Hash: txid, Index: binary.LittleEndian.Uint32(idxRaw)}
		txIn := wire.NewTxIn(&outPoint, nil, nil)
		txIn.Sequence = sequence
		tx.AddTxIn(txIn)
	}

	for _, out := range p.Outputs {
		amtRaw, ok := out.Get(byte(psbt.OutputAmount), nil)
		if !ok || len(amtRaw) != 8 {
			return nil, SignError{Kind: "MissingKey", Msg: "PSBT_OUT_AMOUNT"}
		}
		script, ok := out.Get(byte(psbt.OutputScript), nil)
		if !ok {
			return nil, SignError{Kind: "MissingKey", Msg: "PSBT_OUT_SCRIPT"}
		}
		amt := int64(binary.LittleEndian.Uint64(amtRaw))
		tx.AddTxOut(wire.NewTxOut(amt, script))
	}

	return tx, nil
}

// prevOutpointIndex returns the previous output's index for input i,
// reading it from the embedded unsigned tx (v0) or the explicit v2 field.
func prevOutpointIndex(p *psbt.Psbt, tx *wire.MsgTx, i int) uint32 {
	if p.Version == psbt.PsbtV0 {
		return tx.TxIn[i].PreviousOutPoint.Index
	}
	idxRaw, _ := p.Inputs[i].Get(byte(psbt.InputOutputIndex), nil)
	return binary.LittleEndian.Uint32(idxRaw)
}

// decodeTxOut parses the PSBT_IN_WITNESS_UTXO value format: an 8-byte
// little-endian amount followed by a compact-size-prefixed scriptPubKey,
// the same layout as a single serialized wire.TxOut.
func decodeTxOut(raw []byte) (*wire.TxOut, error) {
	if len(raw) < 9 {
		return nil, SignError{Kind: "InvalidValueLen", Msg: "witness utxo"}
	}
	r := bytes.NewReader(raw)
	var amt int64
	if err := binary.Read(r, binary.LittleEndian, &amt); err != nil {
		return nil, SignError{Kind: "InvalidValueLen", Msg: err.Error()}
	}
	scriptLen, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, SignError{Kind: "InvalidValueLen", Msg: err.Error()}
	}
	script := make([]byte, scriptLen)
	if _, err := r.Read(script); err != nil {
		return nil, SignError{Kind: "InvalidValueLen", Msg: err.Error()}
	}
	return wire.NewTxOut(amt, script), nil
}

// outPointForInput returns the outpoint input i spends: the embedded
// unsigned tx's (v0) or the explicit PSBT_IN_PREVIOUS_TXID/OUTPUT_INDEX
// pair (v2).
func outPointForInput(p *psbt.Psbt, tx *wire.MsgTx, i int) wire.OutPoint {
	op := wire.OutPoint{Index: prevOutpointIndex(p, tx, i)}
	if p.Version == psbt.PsbtV0 {
		op.Hash = tx.TxIn[i].PreviousOutPoint.Hash
	} else {
		txidRaw, _ := p.Inputs[i].Get(byte(psbt.InputPrevTxid), nil)
		copy(op.Hash[:], txidRaw)
	}
	return op
}

// prevOutputs resolves the spent wire.TxOut for every input that carries
// a witness-utxo or non-witness-utxo record, for use as a
// txscript.PrevOutputFetcher over the whole transaction (taproot sighash
// computation needs every input's prevout, not just the one being signed).
func prevOutputs(p *psbt.Psbt, tx *wire.MsgTx) (map[wire.OutPoint]*wire.TxOut, error) {
	out := make(map[wire.OutPoint]*wire.TxOut, len(p.Inputs))
	for i, in := range p.Inputs {
		outPoint := outPointForInput(p, tx, i)

		if raw, ok := in.Get(byte(psbt.InputWitnessUtxo), nil); ok {
			txOut, err := decodeTxOut(raw)
			if err != nil {
				return nil, err
			}
			out[outPoint] = txOut
			continue
		}
		if raw, ok := in.Get(byte(psbt.InputNonWitnessUtxo), nil); ok {
			var prevTx wire.MsgTx
			if err := prevTx.Deserialize(bytes.NewReader(raw)); err != nil {
				return nil, SignError{Kind: "InvalidValueLen", Msg: err.Error()}
			}
			if int(outPoint.Index) >= len(prevTx.TxOut) {
				return nil, errUnknownPrevout(i)
			}
			out[outPoint] = prevTx.TxOut[outPoint.Index]
		}
	}
	return out, nil
}

// mapPrevOutFetcher adapts a prevout map to txscript.PrevOutputFetcher.
type mapPrevOutFetcher map[wire.OutPoint]*wire.TxOut

func (m mapPrevOutFetcher) FetchPrevOutput(op wire.OutPoint) *wire.TxOut {
	return m[op]
}

// bip32Derivation is one parsed PSBT_IN_BIP32_DERIVATION /
// PSBT_IN_TAP_BIP32_DERIVATION value: the master fingerprint and full
// derivation path the PSBT claims for a given public key.
type bip32Derivation struct {
	MasterFp xpub.XpubFp
	Path     bip32.DerivationPath[bip32.DerivationIndex]
}

// parseBip32DerivationValue parses a PSBT_IN_BIP32_DERIVATION value: a
// 4-byte master fingerprint followed by zero or more little-endian u32
// child numbers.
func parseBip32DerivationValue(raw []byte) (bip32Derivation, error) {
	if len(raw) < 4 || (len(raw)-4)%4 != 0 {
		return bip32Derivation{}, SignError{Kind: "InvalidValueLen", Msg: "bip32 derivation"}
	}
	var d bip32Derivation
	copy(d.MasterFp[:], raw[:4])
	for off := 4; off < len(raw); off += 4 {
		d.Path = append(d.Path, bip32.NewDerivationIndex(binary.LittleEndian.Uint32(raw[off:off+4])))
	}
	return d, nil
}

// parseTapBip32DerivationValue parses a PSBT_IN_TAP_BIP32_DERIVATION
// value per BIP-371: a compact-size leaf-hash count, that many 32-byte
// leaf hashes, then the same master-fingerprint-plus-path tail as the
// legacy BIP-32 field.
func parseTapBip32DerivationValue(raw []byte) (leafHashes []chainhash.Hash, d bip32Derivation, err error) {
	r := bytes.NewReader(raw)
	count, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, bip32Derivation{}, SignError{Kind: "InvalidValueLen", Msg: "tap bip32 derivation"}
	}
	leafHashes = make([]chainhash.Hash, count)
	for i := range leafHashes {
		if _, err := r.Read(leafHashes[i][:]); err != nil {
			return nil, bip32Derivation{}, SignError{Kind: "InvalidValueLen", Msg: "tap bip32 derivation leaf hash"}
		}
	}
	tail := make([]byte, r.Len())
	_, _ = r.Read(tail)
	d, err = parseBip32DerivationValue(tail)
	return leafHashes, d, err
}
