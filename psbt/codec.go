package psbt

import (
	"bytes"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
)

// magic is the five-byte PSBT file marker: "psbt" followed by the 0xFF
// separator byte, identical across v0 and v2.
var magic = [5]byte{0x70, 0x73, 0x62, 0x74, 0xff}

// PsbtError is the umbrella error type for decode/validation failures
// across the codec and version-negotiation layers.
type PsbtError struct {
	Kind string
	Msg  string
}

func (e PsbtError) Error() string {
	if e.Msg == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newPsbtError(kind, format string, args ...interface{}) PsbtError {
	return PsbtError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func errInvalidMagic() error               { return PsbtError{Kind: "InvalidMagic"} }
func errTruncatedRecord() error            { return PsbtError{Kind: "TruncatedRecord"} }
func errMissingKey(what string) error      { return newPsbtError("MissingKey", "%s", what) }
func errUnexpectedKey(what string) error   { return newPsbtError("UnexpectedKey", "%s", what) }
func errUnknownGlobalKey(code byte) error  { return newPsbtError("UnknownGlobalKey", "0x%02x", code) }
func errUnknownInputKey(code byte) error   { return newPsbtError("UnknownInputKey", "0x%02x", code) }
func errUnknownOutputKey(code byte) error  { return newPsbtError("UnknownOutputKey", "0x%02x", code) }

func readCompactBytes(r *bytes.Reader) ([]byte, error) {
	n, err := wire.ReadVarInt(r, 0)
	if err != nil {
		return nil, errTruncatedRecord()
	}
	buf := make([]byte, n)
	if n > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errTruncatedRecord()
		}
	}
	return buf, nil
}

func writeCompactBytes(w *bytes.Buffer, b []byte) error {
	if err := wire.WriteVarInt(w, 0, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// decodeMap reads records until the single 0x00 (zero-length key)
// terminator byte, splitting each key blob into its one-byte type and
// remaining key data.
func decodeMap(r *bytes.Reader) (*Map, error) {
	m := NewMap()
	for {
		keyLen, err := wire.ReadVarInt(r, 0)
		if err != nil {
			return nil, errTruncatedRecord()
		}
		if keyLen == 0 {
			return m, nil
		}
		keyBlob := make([]byte, keyLen)
		if _, err := io.ReadFull(r, keyBlob); err != nil {
			return nil, errTruncatedRecord()
		}
		value, err := readCompactBytes(r)
		if err != nil {
			return nil, err
		}
		rec := Record{KeyType: keyBlob[0], KeyData: keyBlob[1:], Value: value}
		if err := m.Insert(rec); err != nil {
			return nil, err
		}
	}
}

// encodeMap writes records in canonical ascending (KeyType, KeyData)
// order followed by the 0x00 terminator.
func encodeMap(w *bytes.Buffer, m *Map) error {
	for _, rec := range m.Sorted() {
		keyBlob := append([]byte{rec.KeyType}, rec.KeyData...)
		if err := writeCompactBytes(w, keyBlob); err != nil {
			return err
		}
		if err := writeCompactBytes(w, rec.Value); err != nil {
			return err
		}
	}
	return wire.WriteVarInt(w, 0, 0)
}

func decodeMagic(r *bytes.Reader) error {
	var got [5]byte
	if _, err := io.ReadFull(r, got[:]); err != nil {
		return errInvalidMagic()
	}
	if got != magic {
		return errInvalidMagic()
	}
	return nil
}
