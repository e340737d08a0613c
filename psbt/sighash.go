package psbt

import "github.com/btcsuite/btcd/txscript"

// NonStandardSighashType is returned by ParseSighashStandard when a byte
// isn't one of the six standard sighash encodings.
type NonStandardSighashType struct{ Value uint32 }

func (e NonStandardSighashType) Error() string {
	return "non-standard sighash type value"
}

// SighashFlag is the base signing mode, independent of ANYONECANPAY.
type SighashFlag uint8

const (
	SighashAll    SighashFlag = 0x01
	SighashNone   SighashFlag = 0x02
	SighashSingle SighashFlag = 0x03
)

// SighashType is a full PSBT/transaction sighash type: a base flag plus
// the ANYONECANPAY bit, matching BIP-174's SIGHASH_TYPE field.
type SighashType struct {
	Flag         SighashFlag
	AnyoneCanPay bool
}

func SighashAllType() SighashType    { return SighashType{Flag: SighashAll} }
func SighashNoneType() SighashType   { return SighashType{Flag: SighashNone} }
func SighashSingleType() SighashType { return SighashType{Flag: SighashSingle} }

// ToByte returns the canonical single-byte wire encoding: the low bits
// carry the flag, bit 7 carries ANYONECANPAY.
func (s SighashType) ToByte() byte {
	b := byte(s.Flag)
	if s.AnyoneCanPay {
		b |= 0x80
	}
	return b
}

// ToConsensus maps a SighashType onto the txscript.SigHashType the signer
// and sighash-computation code actually consumes.
func (s SighashType) ToConsensus() txscript.SigHashType {
	var base txscript.SigHashType
	switch s.Flag {
	case SighashNone:
		base = txscript.SigHashNone
	case SighashSingle:
		base = txscript.SigHashSingle
	default:
		base = txscript.SigHashAll
	}
	if s.AnyoneCanPay {
		base |= txscript.SigHashAnyOneCanPay
	}
	return base
}

// ParseSighashStandard decodes a byte under the strict standardness rule:
// only {0x01, 0x02, 0x03, 0x81, 0x82, 0x83} are accepted.
func ParseSighashStandard(b byte) (SighashType, error) {
	switch b {
	case 0x01:
		return SighashType{Flag: SighashAll}, nil
	case 0x02:
		return SighashType{Flag: SighashNone}, nil
	case 0x03:
		return SighashType{Flag: SighashSingle}, nil
	case 0x81:
		return SighashType{Flag: SighashAll, AnyoneCanPay: true}, nil
	case 0x82:
		return SighashType{Flag: SighashNone, AnyoneCanPay: true}, nil
	case 0x83:
		return SighashType{Flag: SighashSingle, AnyoneCanPay: true}, nil
	default:
		return SighashType{}, NonStandardSighashType{Value: uint32(b)}
	}
}

// ParseSighashConsensus replicates Bitcoin Core's loose from_consensus
// behavior: every value not in the standard set is folded onto either
// (All, false) or (All, true) depending on whether bit 7 is set, rather
// than being rejected.
func ParseSighashConsensus(n uint32) SighashType {
	switch n {
	case 0x01:
		return SighashType{Flag: SighashAll}
	case 0x02:
		return SighashType{Flag: SighashNone}
	case 0x03:
		return SighashType{Flag: SighashSingle}
	case 0x81:
		return SighashType{Flag: SighashAll, AnyoneCanPay: true}
	case 0x82:
		return SighashType{Flag: SighashNone, AnyoneCanPay: true}
	case 0x83:
		return SighashType{Flag: SighashSingle, AnyoneCanPay: true}
	}
	if n&0x80 == 0x80 {
		return SighashType{Flag: SighashAll, AnyoneCanPay: true}
	}
	return SighashType{Flag: SighashAll}
}

// EcdsaSigError is returned when an ECDSA-sig-plus-sighash-byte blob fails
// to parse.
type EcdsaSigError struct{ msg string }

func (e EcdsaSigError) Error() string { return e.msg }

// EcdsaSig pairs a DER-encoded ECDSA signature with the sighash type it
// was computed under, the value stored verbatim in a PARTIAL_SIG record.
type EcdsaSig struct {
	Sig         []byte // DER encoding, without the trailing sighash byte
	SighashType SighashType
}

// SighashAllEcdsaSig wraps a bare DER signature as a SIGHASH_ALL EcdsaSig.
func SighashAllEcdsaSig(der []byte) EcdsaSig {
	return EcdsaSig{Sig: der, SighashType: SighashAllType()}
}

// ParseEcdsaSig splits a DER-signature-plus-sighash-byte blob the way it
// is stored on the wire, applying the strict standardness rule to the
// trailing byte.
func ParseEcdsaSig(b []byte) (EcdsaSig, error) {
	if len(b) == 0 {
		return EcdsaSig{}, EcdsaSigError{msg: "empty signature"}
	}
	der, hashByte := b[:len(b)-1], b[len(b)-1]
	sighash, err := ParseSighashStandard(hashByte)
	if err != nil {
		return EcdsaSig{}, EcdsaSigError{msg: err.Error()}
	}
	return EcdsaSig{Sig: der, SighashType: sighash}, nil
}

// Bytes serializes the EcdsaSig back to its wire form: DER bytes followed
// by the single sighash-type byte.
func (s EcdsaSig) Bytes() []byte {
	return append(append([]byte(nil), s.Sig...), s.SighashType.ToByte())
}
