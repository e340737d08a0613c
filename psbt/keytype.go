// Package psbt implements the Partially Signed Bitcoin Transaction format,
// both the original BIP-174 (v0) layout and the BIP-370 (v2) explicit
// transaction-structure layout, sharing one typed key-value map model for
// the three record scopes (global, per-input, per-output).
package psbt

// GlobalKey enumerates the known global-scope key types (BIP-174/370).
type GlobalKey uint8

const (
	GlobalUnsignedTx       GlobalKey = 0x00
	GlobalXpub             GlobalKey = 0x01
	GlobalTxVersion        GlobalKey = 0x02 // v2 only
	GlobalFallbackLocktime GlobalKey = 0x03 // v2 only
	GlobalInputCount       GlobalKey = 0x04 // v2 only
	GlobalOutputCount      GlobalKey = 0x05 // v2 only
	GlobalTxModifiable     GlobalKey = 0x06 // v2 only
	GlobalVersion          GlobalKey = 0xFB
	GlobalProprietary      GlobalKey = 0xFC
)

// InputKey enumerates the known per-input key types (BIP-174/370/371).
type InputKey uint8

const (
	InputNonWitnessUtxo         InputKey = 0x00
	InputWitnessUtxo            InputKey = 0x01
	InputPartialSig             InputKey = 0x02
	InputSighashType            InputKey = 0x03
	InputRedeemScript           InputKey = 0x04
	InputWitnessScript          InputKey = 0x05
	InputBip32Derivation        InputKey = 0x06
	InputFinalScriptSig         InputKey = 0x07
	InputFinalScriptWitness     InputKey = 0x08
	InputPrevTxid               InputKey = 0x0E // v2 only
	InputOutputIndex            InputKey = 0x0F // v2 only
	InputSequence               InputKey = 0x10 // v2 only
	InputRequiredTimeLocktime   InputKey = 0x11 // v2 only
	InputRequiredHeightLocktime InputKey = 0x12 // v2 only
	InputTapKeySig              InputKey = 0x13
	InputTapScriptSig           InputKey = 0x14
	InputTapLeafScript          InputKey = 0x15
	InputTapBip32Derivation     InputKey = 0x16
	InputTapInternalKey         InputKey = 0x17
	InputTapMerkleRoot          InputKey = 0x18
	InputProprietary            InputKey = 0xFC
)

// OutputKey enumerates the known per-output key types (BIP-174/370/371).
type OutputKey uint8

const (
	OutputRedeemScript       OutputKey = 0x00
	OutputWitnessScript      OutputKey = 0x01
	OutputBip32Derivation    OutputKey = 0x02
	OutputAmount             OutputKey = 0x03 // v2 only
	OutputScript             OutputKey = 0x04 // v2 only
	OutputTapInternalKey     OutputKey = 0x05
	OutputTapTree            OutputKey = 0x06
	OutputTapBip32Derivation OutputKey = 0x07
	OutputProprietary        OutputKey = 0xFC
)

// v2OnlyGlobalKeys holds the global keys a v0 psbt must never carry.
var v2OnlyGlobalKeys = map[GlobalKey]bool{
	GlobalTxVersion:        true,
	GlobalFallbackLocktime: true,
	GlobalInputCount:       true,
	GlobalOutputCount:      true,
	GlobalTxModifiable:     true,
}

// v2OnlyInputKeys holds the tx-structure input keys a v0 psbt must never
// carry (they're implicit in the global unsigned tx instead).
var v2OnlyInputKeys = map[InputKey]bool{
	InputPrevTxid:               true,
	InputOutputIndex:            true,
	InputSequence:               true,
	InputRequiredTimeLocktime:   true,
	InputRequiredHeightLocktime: true,
}

// v2OnlyOutputKeys holds the tx-structure output keys a v0 psbt must never
// carry.
var v2OnlyOutputKeys = map[OutputKey]bool{
	OutputAmount: true,
	OutputScript: true,
}

// signatureGatheringInputKeys are removed from an input's map upon
// finalization, per spec.md §4.4. FinalizeInput removes all of them; it has
// no option to keep any.
var signatureGatheringInputKeys = []InputKey{
	InputPartialSig, InputSighashType, InputRedeemScript, InputWitnessScript,
	InputBip32Derivation, InputTapKeySig, InputTapScriptSig, InputTapLeafScript,
	InputTapBip32Derivation,
}
