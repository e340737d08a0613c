package psbt

import "testing"

func TestUnfinalizedInputsTracksFinalizationState(t *testing.T) {
	p := newPsbt(PsbtV0, 2, 1)
	unfinalized := p.UnfinalizedInputs()
	if len(unfinalized) != 2 {
		t.Fatalf("expected both inputs unfinalized, got %v", unfinalized)
	}

	if err := p.FinalizeInput(0, []byte{0x51}, nil); err != nil {
		t.Fatalf("finalize input 0: %v", err)
	}

	unfinalized = p.UnfinalizedInputs()
	if len(unfinalized) != 1 || unfinalized[0] != 1 {
		t.Fatalf("expected only input 1 unfinalized, got %v", unfinalized)
	}
}

func TestFinalizeInputStripsSignatureGatheringKeys(t *testing.T) {
	p := newPsbt(PsbtV0, 1, 1)
	in := p.Inputs[0]
	_ = in.Insert(Record{KeyType: byte(InputPartialSig), KeyData: []byte{0x02}, Value: []byte("sig")})
	_ = in.Insert(Record{KeyType: byte(InputWitnessScript), Value: []byte("witness-script")})
	_ = in.Insert(Record{KeyType: byte(InputBip32Derivation), KeyData: []byte{0x02}, Value: []byte("origin")})
	_ = in.Insert(Record{KeyType: byte(InputWitnessUtxo), Value: []byte("utxo")})

	if err := p.FinalizeInput(0, nil, [][]byte{{0x00}, {0x51}}); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if !IsFinalized(in) {
		t.Fatal("expected input to be finalized")
	}
	if _, ok := in.Get(byte(InputPartialSig), []byte{0x02}); ok {
		t.Fatal("expected partial sig to be stripped")
	}
	if _, ok := in.Get(byte(InputWitnessScript), nil); ok {
		t.Fatal("expected witness script to be stripped")
	}
	if _, ok := in.Get(byte(InputBip32Derivation), []byte{0x02}); ok {
		t.Fatal("expected bip32 derivation to be stripped")
	}
	if _, ok := in.Get(byte(InputWitnessUtxo), nil); !ok {
		t.Fatal("expected witness utxo to survive finalization")
	}
}
