package psbt

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/wire"
)

// PsbtUnsupportedVer is returned when a PSBT_GLOBAL_VERSION field or an
// explicit version argument names anything other than 0 or 2.
type PsbtUnsupportedVer struct{ Value uint32 }

func (e PsbtUnsupportedVer) Error() string {
	return newPsbtError("UnsupportedVersion", "v%d", e.Value).Error()
}

// PsbtVer is the PSBT format version: the original BIP-174 implicit-
// transaction layout, or BIP-370's explicit transaction-structure layout.
type PsbtVer uint32

const (
	PsbtV0 PsbtVer = 0
	PsbtV2 PsbtVer = 2
)

// TryFromStandardU32 validates a raw version number against the versions
// this package implements.
func TryFromStandardU32(v uint32) (PsbtVer, error) {
	switch v {
	case 0:
		return PsbtV0, nil
	case 2:
		return PsbtV2, nil
	default:
		return 0, PsbtUnsupportedVer{Value: v}
	}
}

// ToStandardU32 returns the raw version number.
func (v PsbtVer) ToStandardU32() uint32 { return uint32(v) }

// MaxPsbtVer is the highest version this package understands.
func MaxPsbtVer() PsbtVer { return PsbtV2 }

// Psbt is the in-memory form of a Partially Signed Bitcoin Transaction:
// one global Map plus one Map per input and per output, tagged with the
// version whose key-type rules it was validated against.
type Psbt struct {
	Version PsbtVer
	Global  *Map
	Inputs  []*Map
	Outputs []*Map
}

func newPsbt(ver PsbtVer, numIn, numOut int) *Psbt {
	p := &Psbt{Version: ver, Global: NewMap()}
	p.Inputs = make([]*Map, numIn)
	p.Outputs = make([]*Map, numOut)
	for i := range p.Inputs {
		p.Inputs[i] = NewMap()
	}
	for i := range p.Outputs {
		p.Outputs[i] = NewMap()
	}
	return p
}

// Decode parses a binary PSBT, validating magic bytes, the version-
// specific key-type matrix, and reconstructing the input/output map
// count either from the embedded unsigned transaction (v0) or from the
// explicit PSBT_GLOBAL_INPUT_COUNT/OUTPUT_COUNT fields (v2).
func Decode(data []byte) (*Psbt, error) {
	r := bytes.NewReader(data)
	if err := decodeMagic(r); err != nil {
		return nil, err
	}

	global, err := decodeMap(r)
	if err != nil {
		return nil, err
	}

	ver := PsbtV0
	if raw, ok := global.Get(byte(GlobalVersion), nil); ok {
		if len(raw) != 4 {
			return nil, newPsbtError("InvalidValueLen", "PSBT_GLOBAL_VERSION")
		}
		v, err := TryFromStandardU32(binary.LittleEndian.Uint32(raw))
		if err != nil {
			return nil, err
		}
		ver = v
	}

	var numIn, numOut int
	if unsignedTx, ok := global.Get(byte(GlobalUnsignedTx), nil); ok {
		if ver != PsbtV0 {
			return nil, errUnexpectedKey("PSBT_GLOBAL_UNSIGNED_TX present in a v2 psbt")
		}
		var tx wire.MsgTx
		if err := tx.Deserialize(bytes.NewReader(unsignedTx)); err != nil {
			return nil, newPsbtError("InvalidValueLen", "PSBT_GLOBAL_UNSIGNED_TX: %v", err)
		}
		numIn, numOut = len(tx.TxIn), len(tx.TxOut)
	} else {
		if ver != PsbtV2 {
			return nil, errMissingKey("PSBT_GLOBAL_UNSIGNED_TX")
		}
		inRaw, ok := global.Get(byte(GlobalInputCount), nil)
		if !ok || len(inRaw) != 4 {
			return nil, errMissingKey("PSBT_GLOBAL_INPUT_COUNT")
		}
		outRaw, ok := global.Get(byte(GlobalOutputCount), nil)
		if !ok || len(outRaw) != 4 {
			return nil, errMissingKey("PSBT_GLOBAL_OUTPUT_COUNT")
		}
		numIn = int(binary.LittleEndian.Uint32(inRaw))
		numOut = int(binary.LittleEndian.Uint32(outRaw))
	}

	if err := validateGlobalVersionMatrix(ver, global); err != nil {
		return nil, err
	}

	p := newPsbt(ver, numIn, numOut)
	p.Global = global

	for i := 0; i < numIn; i++ {
		in, err := decodeMap(r)
		if err != nil {
			return nil, err
		}
		if err := validateInputVersionMatrix(ver, in); err != nil {
			return nil, err
		}
		p.Inputs[i] = in
	}
	for i := 0; i < numOut; i++ {
		out, err := decodeMap(r)
		if err != nil {
			return nil, err
		}
		if err := validateOutputVersionMatrix(ver, out); err != nil {
			return nil, err
		}
		p.Outputs[i] = out
	}

	return p, nil
}

// Encode serializes the Psbt to its binary form: magic bytes followed by
// the global map then one map per input and per output, each in
// canonical key order.
func (p *Psbt) Encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(magic[:])
	if err := encodeMap(&buf, p.Global); err != nil {
		return nil, err
	}
	for _, in := range p.Inputs {
		if err := encodeMap(&buf, in); err != nil {
			return nil, err
		}
	}
	for _, out := range p.Outputs {
		if err := encodeMap(&buf, out); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func validateGlobalVersionMatrix(ver PsbtVer, m *Map) error {
	for _, rec := range m.Records() {
		key := GlobalKey(rec.KeyType)
		if ver == PsbtV0 && v2OnlyGlobalKeys[key] {
			return errUnexpectedKey("v2-only global key in a v0 psbt")
		}
		if ver == PsbtV2 && key == GlobalUnsignedTx {
			return errUnexpectedKey("PSBT_GLOBAL_UNSIGNED_TX in a v2 psbt")
		}
	}
	return nil
}

func validateInputVersionMatrix(ver PsbtVer, m *Map) error {
	for _, rec := range m.Records() {
		key := InputKey(rec.KeyType)
		if ver == PsbtV0 && v2OnlyInputKeys[key] {
			return errUnexpectedKey("v2-only input key in a v0 psbt")
		}
	}
	if ver == PsbtV2 {
		for _, required := range []InputKey{InputPrevTxid, InputOutputIndex} {
			if _, ok := m.Get(byte(required), nil); !ok {
				return errMissingKey("required v2 input tx-structure key")
			}
		}
	}
	return nil
}

func validateOutputVersionMatrix(ver PsbtVer, m *Map) error {
	for _, rec := range m.Records() {
		key := OutputKey(rec.KeyType)
		if ver == PsbtV0 && v2OnlyOutputKeys[key] {
			return errUnexpectedKey("v2-only output key in a v0 psbt")
		}
	}
	if ver == PsbtV2 {
		for _, required := range []OutputKey{OutputAmount, OutputScript} {
			if _, ok := m.Get(byte(required), nil); !ok {
				return errMissingKey("required v2 output tx-structure key")
			}
		}
	}
	return nil
}
