package psbt

import "testing"

func TestMapRejectsDuplicateKey(t *testing.T) {
	m := NewMap()
	if err := m.Insert(Record{KeyType: 0x01, Value: []byte("a")}); err != nil {
		t.Fatalf("unexpected error on first insert: %v", err)
	}
	if err := m.Insert(Record{KeyType: 0x01, Value: []byte("b")}); err == nil {
		t.Fatal("expected error inserting a duplicate key")
	}
}

func TestMapDistinguishesByKeyData(t *testing.T) {
	m := NewMap()
	if err := m.Insert(Record{KeyType: 0x06, KeyData: []byte{0x01}, Value: []byte("a")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Insert(Record{KeyType: 0x06, KeyData: []byte{0x02}, Value: []byte("b")}); err != nil {
		t.Fatalf("key data differs, insert should succeed: %v", err)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", m.Len())
	}
}

func TestMapSortedOrdersByTypeThenKeyData(t *testing.T) {
	m := NewMap()
	_ = m.Insert(Record{KeyType: 0x06, KeyData: []byte{0x02}})
	_ = m.Insert(Record{KeyType: 0x01, KeyData: nil})
	_ = m.Insert(Record{KeyType: 0x06, KeyData: []byte{0x01}})

	sorted := m.Sorted()
	if len(sorted) != 3 {
		t.Fatalf("expected 3 records, got %d", len(sorted))
	}
	if sorted[0].KeyType != 0x01 {
		t.Fatalf("expected key type 0x01 first, got 0x%02x", sorted[0].KeyType)
	}
	if sorted[1].KeyType != 0x06 || sorted[1].KeyData[0] != 0x01 {
		t.Fatalf("expected (0x06, [0x01]) second, got (0x%02x, %v)", sorted[1].KeyType, sorted[1].KeyData)
	}
	if sorted[2].KeyType != 0x06 || sorted[2].KeyData[0] != 0x02 {
		t.Fatalf("expected (0x06, [0x02]) third, got (0x%02x, %v)", sorted[2].KeyType, sorted[2].KeyData)
	}
}

func TestMapRemoveAndGetAll(t *testing.T) {
	m := NewMap()
	_ = m.Insert(Record{KeyType: 0x06, KeyData: []byte{0x01}, Value: []byte("a")})
	_ = m.Insert(Record{KeyType: 0x06, KeyData: []byte{0x02}, Value: []byte("b")})
	_ = m.Insert(Record{KeyType: 0x01, Value: []byte("c")})

	all := m.GetAll(0x06)
	if len(all) != 2 {
		t.Fatalf("expected 2 records of type 0x06, got %d", len(all))
	}

	if !m.Remove(0x06) {
		t.Fatal("expected Remove to report removal")
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 record remaining, got %d", m.Len())
	}
	if m.Remove(0x06) {
		t.Fatal("second Remove of the same key should report nothing removed")
	}
}
