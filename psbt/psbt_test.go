package psbt

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

func sampleTx(t *testing.T) *wire.MsgTx {
	t.Helper()
	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(50_000, []byte{0x00, 0x14}))
	return tx
}

func u32le(n uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, n)
	return b
}

func buildV0Psbt(t *testing.T) *Psbt {
	t.Helper()
	tx := sampleTx(t)
	var txBuf bytes.Buffer
	if err := tx.Serialize(&txBuf); err != nil {
		t.Fatalf("serialize tx: %v", err)
	}

	p := newPsbt(PsbtV0, 1, 1)
	if err := p.Global.Insert(Record{KeyType: byte(GlobalUnsignedTx), Value: txBuf.Bytes()}); err != nil {
		t.Fatalf("insert unsigned tx: %v", err)
	}
	return p
}

func TestV0PsbtEncodeDecodeRoundTrip(t *testing.T) {
	p := buildV0Psbt(t)
	_ = p.Inputs[0].Insert(Record{KeyType: byte(InputWitnessUtxo), Value: []byte{0x01}})

	encoded, err := p.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Version != PsbtV0 {
		t.Fatalf("expected v0, got %v", decoded.Version)
	}
	if len(decoded.Inputs) != 1 || len(decoded.Outputs) != 1 {
		t.Fatalf("expected 1 input and 1 output, got %d/%d", len(decoded.Inputs), len(decoded.Outputs))
	}
	if _, ok := decoded.Inputs[0].Get(byte(InputWitnessUtxo), nil); !ok {
		t.Fatal("expected witness utxo to survive round trip")
	}
}

func TestV0PsbtRejectsV2OnlyGlobalKey(t *testing.T) {
	p := buildV0Psbt(t)
	_ = p.Global.Insert(Record{KeyType: byte(GlobalVersion), Value: u32le(0)})
	_ = p.Global.Insert(Record{KeyType: byte(GlobalTxModifiable), Value: []byte{0x00}})

	encoded, err := p.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(encoded); err == nil {
		t.Fatal("expected v2-only global key to be rejected in a v0 psbt")
	}
}

func buildV2Psbt(t *testing.T) *Psbt {
	t.Helper()
	p := newPsbt(PsbtV2, 1, 1)
	_ = p.Global.Insert(Record{KeyType: byte(GlobalVersion), Value: u32le(2)})
	_ = p.Global.Insert(Record{KeyType: byte(GlobalTxVersion), Value: u32le(2)})
	_ = p.Global.Insert(Record{KeyType: byte(GlobalFallbackLocktime), Value: u32le(0)})
	_ = p.Global.Insert(Record{KeyType: byte(GlobalInputCount), Value: u32le(1)})
	_ = p.Global.Insert(Record{KeyType: byte(GlobalOutputCount), Value: u32le(1)})

	var zeroTxid [32]byte
	_ = p.Inputs[0].Insert(Record{KeyType: byte(InputPrevTxid), Value: zeroTxid[:]})
	_ = p.Inputs[0].Insert(Record{KeyType: byte(InputOutputIndex), Value: u32le(0)})

	_ = p.Outputs[0].Insert(Record{KeyType: byte(OutputAmount), Value: make([]byte, 8)})
	_ = p.Outputs[0].Insert(Record{KeyType: byte(OutputScript), Value: []byte{0x00, 0x14}})
	return p
}

func TestV2PsbtEncodeDecodeRoundTrip(t *testing.T) {
	p := buildV2Psbt(t)
	encoded, err := p.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := Decode(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Version != PsbtV2 {
		t.Fatalf("expected v2, got %v", decoded.Version)
	}
	if len(decoded.Inputs) != 1 || len(decoded.Outputs) != 1 {
		t.Fatalf("expected 1 input and 1 output, got %d/%d", len(decoded.Inputs), len(decoded.Outputs))
	}
}

func TestV2PsbtRejectsUnsignedTxGlobal(t *testing.T) {
	p := buildV2Psbt(t)
	tx := sampleTx(t)
	var txBuf bytes.Buffer
	_ = tx.Serialize(&txBuf)
	_ = p.Global.Insert(Record{KeyType: byte(GlobalUnsignedTx), Value: txBuf.Bytes()})

	encoded, err := p.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(encoded); err == nil {
		t.Fatal("expected PSBT_GLOBAL_UNSIGNED_TX to be rejected in a v2 psbt")
	}
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	if _, err := Decode([]byte("not-a-psbt-at-all")); err == nil {
		t.Fatal("expected magic mismatch error")
	}
}

func TestTryFromStandardU32RejectsUnknownVersion(t *testing.T) {
	if _, err := TryFromStandardU32(1); err == nil {
		t.Fatal("expected error for version 1")
	}
	if _, err := TryFromStandardU32(3); err == nil {
		t.Fatal("expected error for version 3")
	}
}
