package psbt

import "testing"

func TestParseSighashStandardAcceptsSixValues(t *testing.T) {
	cases := map[byte]SighashType{
		0x01: {Flag: SighashAll},
		0x02: {Flag: SighashNone},
		0x03: {Flag: SighashSingle},
		0x81: {Flag: SighashAll, AnyoneCanPay: true},
		0x82: {Flag: SighashNone, AnyoneCanPay: true},
		0x83: {Flag: SighashSingle, AnyoneCanPay: true},
	}
	for b, want := range cases {
		got, err := ParseSighashStandard(b)
		if err != nil {
			t.Fatalf("byte 0x%02x: unexpected error %v", b, err)
		}
		if got != want {
			t.Fatalf("byte 0x%02x: got %+v, want %+v", b, got, want)
		}
		if got.ToByte() != b {
			t.Fatalf("round trip byte 0x%02x produced 0x%02x", b, got.ToByte())
		}
	}
}

func TestParseSighashStandardRejectsNonStandard(t *testing.T) {
	for _, b := range []byte{0x00, 0x04, 0x80, 0xff} {
		if _, err := ParseSighashStandard(b); err == nil {
			t.Fatalf("byte 0x%02x should have been rejected", b)
		}
	}
}

func TestParseSighashConsensusAcceptsQuirkyValues(t *testing.T) {
	// Bitcoin Core's loose decoder folds any value outside the six
	// standard encodings onto SIGHASH_ALL (with ANYONECANPAY taken from
	// bit 7), rather than rejecting it.
	got := ParseSighashConsensus(0x00)
	if got.Flag != SighashAll || got.AnyoneCanPay {
		t.Fatalf("0x00 should fold to SIGHASH_ALL, got %+v", got)
	}

	got = ParseSighashConsensus(0xff)
	if got.Flag != SighashAll || !got.AnyoneCanPay {
		t.Fatalf("0xff should fold to SIGHASH_ALL|ANYONECANPAY, got %+v", got)
	}

	got = ParseSighashConsensus(0x02)
	if got.Flag != SighashNone || got.AnyoneCanPay {
		t.Fatalf("0x02 should decode as SIGHASH_NONE, got %+v", got)
	}
}

func TestEcdsaSigRoundTrip(t *testing.T) {
	der := []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02}
	sig := SighashAllEcdsaSig(der)
	blob := sig.Bytes()

	parsed, err := ParseEcdsaSig(blob)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.SighashType != SighashAllType() {
		t.Fatalf("expected SIGHASH_ALL, got %+v", parsed.SighashType)
	}
	if string(parsed.Sig) != string(der) {
		t.Fatalf("der bytes mismatch after round trip")
	}
}

func TestParseEcdsaSigRejectsNonStandardTrailer(t *testing.T) {
	blob := append([]byte{0x30, 0x02, 0x02, 0x01}, 0x00)
	if _, err := ParseEcdsaSig(blob); err == nil {
		t.Fatal("expected error for non-standard sighash trailer byte")
	}
}
