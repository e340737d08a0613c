package psbt

import "bytes"

// KeyAlreadyPresent is returned when inserting a record whose (type,
// keydata) pair duplicates one already present in the Map.
type KeyAlreadyPresent struct {
	KeyType uint8
	KeyData []byte
}

func (e KeyAlreadyPresent) Error() string {
	return "duplicate key in psbt map"
}

// Record is one key-value entry of a PSBT map: a one-byte key type, the
// variable-length key data that follows it (empty for most key types, the
// xpub/script/outpoint bytes for the few that carry extra key data), and
// the value bytes.
type Record struct {
	KeyType uint8
	KeyData []byte
	Value   []byte
}

func (r Record) cmpKey(other Record) int {
	if r.KeyType != other.KeyType {
		if r.KeyType < other.KeyType {
			return -1
		}
		return 1
	}
	return bytes.Compare(r.KeyData, other.KeyData)
}

// Map is an ordered collection of Records sharing one key-type namespace
// (global, a single input, or a single output). Insertion order is
// preserved for iteration; Sorted returns the canonical ascending
// (key-type, key-data) order PSBT serialization requires.
type Map struct {
	records []Record
}

// NewMap returns an empty Map.
func NewMap() *Map { return &Map{} }

// Insert adds a record, rejecting an exact (KeyType, KeyData) duplicate.
func (m *Map) Insert(rec Record) error {
	for _, existing := range m.records {
		if existing.KeyType == rec.KeyType && bytes.Equal(existing.KeyData, rec.KeyData) {
			return KeyAlreadyPresent{KeyType: rec.KeyType, KeyData: rec.KeyData}
		}
	}
	m.records = append(m.records, rec)
	return nil
}

// Get looks up a record by (KeyType, KeyData), KeyData defaulting to nil
// for key types that carry none.
func (m *Map) Get(keyType uint8, keyData []byte) ([]byte, bool) {
	for _, rec := range m.records {
		if rec.KeyType == keyType && bytes.Equal(rec.KeyData, keyData) {
			return rec.Value, true
		}
	}
	return nil, false
}

// GetAll returns every record whose KeyType matches, regardless of
// KeyData, for key types that carry per-entry key data (BIP32_DERIVATION,
// PARTIAL_SIG, and similar repeated fields).
func (m *Map) GetAll(keyType uint8) []Record {
	var out []Record
	for _, rec := range m.records {
		if rec.KeyType == keyType {
			out = append(out, rec)
		}
	}
	return out
}

// Remove deletes every record of the given key type, reporting whether
// anything was removed.
func (m *Map) Remove(keyType uint8) bool {
	var kept []Record
	removed := false
	for _, rec := range m.records {
		if rec.KeyType == keyType {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	m.records = kept
	return removed
}

// Records returns the records in insertion order.
func (m *Map) Records() []Record {
	return append([]Record(nil), m.records...)
}

// Sorted returns the records in the canonical ascending (KeyType, KeyData)
// order PSBT serialization requires, leaving the Map's own insertion order
// untouched.
func (m *Map) Sorted() []Record {
	out := append([]Record(nil), m.records...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].cmpKey(out[j-1]) < 0; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Len returns the number of records currently stored.
func (m *Map) Len() int { return len(m.records) }
