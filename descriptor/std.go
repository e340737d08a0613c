package descriptor

import (
	"sort"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"

	"github.com/lnp-bp/bpstd-go/bip32"
	"github.com/lnp-bp/bpstd-go/taproot"
)

// Kind tags which of the 13 recognized descriptor forms a StdDescr holds.
// Per the recursive-descriptor-enum design note, StdDescr is a single tagged
// struct rather than a 13-way interface hierarchy; every method below is
// a plain switch over Kind.
type Kind uint8

const (
	KindPkh Kind = iota
	KindWpkh
	KindShWpkh
	KindShMulti
	KindShSortedMulti
	KindWshMulti
	KindWshSortedMulti
	KindShWshMulti
	KindShWshSortedMulti
	KindTrKey
	KindTrMultiA
	KindTrSortedMultiA
	KindTrTree
)

// TreeLeaf is one leaf of a tr(KEY, TREE) script tree, after resolving
// the fixed "pk(KEY)" leaf-script grammar this module supports.
type TreeLeaf struct {
	Depth uint8
	Key   KeyExpr
}

// StdDescr is a fully parsed, ready-to-derive output-script descriptor.
type StdDescr struct {
	Kind Kind

	// Key is the sole key for Pkh/Wpkh/ShWpkh/TrKey, and the internal
	// key for the three Tr* multi-leaf variants.
	Key KeyExpr

	// Threshold/Keys hold the (k, keys) pair for every multisig
	// variant, including the tr(...) _a forms.
	Threshold int
	Keys      []KeyExpr

	// Leaves holds the resolved tree for KindTrTree.
	Leaves []TreeLeaf
}

// DerivedScript is the concrete output produced by deriving a descriptor
// at one (keychain, index) terminal.
type DerivedScript struct {
	Class         SpkClass
	ScriptPubKey  []byte
	RedeemScript  []byte // non-nil for any P2SH-class output
	WitnessScript []byte // non-nil for any P2WSH-class output (bare or P2SH-wrapped)
	InternalKey   *btcec.PublicKey
	TapTree       *taproot.TapTree // non-nil for script-path taproot outputs
	TapLeaf       *taproot.LeafScript
}

// ErrArity is returned by the multisig constructors when k or the key
// count violates spec.md §4.2's arity rules.
type ErrArity struct{ msg string }

func (e *ErrArity) Error() string { return e.msg }

func checkMultisigArity(k, n, maxN int) error {
	if n == 0 || n > maxN {
		return &ErrArity{msg: "multisig key count out of range"}
	}
	if k < 1 || k > n {
		return &ErrArity{msg: "multisig threshold out of range"}
	}
	return nil
}

// Class returns the SpkClass this descriptor's Kind always derives.
func (d StdDescr) Class() SpkClass {
	switch d.Kind {
	case KindPkh:
		return ClassP2pkh
	case KindWpkh:
		return ClassP2wpkh
	case KindShWpkh, KindShMulti, KindShSortedMulti, KindShWshMulti, KindShWshSortedMulti:
		return ClassP2sh
	case KindWshMulti, KindWshSortedMulti:
		return ClassP2wsh
	case KindTrKey, KindTrMultiA, KindTrSortedMultiA, KindTrTree:
		return ClassP2tr
	default:
		return ClassBare
	}
}

func (d StdDescr) IsTaproot() bool { return d.Class().IsTaproot() }
func (d StdDescr) IsSegwit() bool  { return d.Class().IsSegwit() }

// Id computes the descriptor's stable identifier per spec.md §4.2:
// id(d) depends only on d.Derive(OUTER, 0).ScriptPubKey.
func (d StdDescr) Id() (DescrId, error) {
	outerZero := bip32.NewTerminal(bip32.KeychainExternal, bip32.MustNormalIndex(0))
	derived, err := d.Derive(outerZero)
	if err != nil {
		return DescrId{}, err
	}
	return computeDescrId(derived.ScriptPubKey), nil
}

// AllKeys returns every KeyExpr this descriptor carries, in descriptor
// order (sorted-multi variants still list keys in their declared order;
// sorting happens only at derivation time).
func (d StdDescr) AllKeys() []KeyExpr {
	switch d.Kind {
	case KindPkh, KindWpkh, KindShWpkh, KindTrKey:
		return []KeyExpr{d.Key}
	case KindShMulti, KindShSortedMulti, KindWshMulti, KindWshSortedMulti,
		KindShWshMulti, KindShWshSortedMulti:
		return append([]KeyExpr(nil), d.Keys...)
	case KindTrMultiA, KindTrSortedMultiA:
		return append([]KeyExpr{d.Key}, d.Keys...)
	case KindTrTree:
		out := []KeyExpr{d.Key}
		for _, l := range d.Leaves {
			out = append(out, l.Key)
		}
		return out
	default:
		return nil
	}
}

// Derive evaluates the descriptor at the given terminal, producing the
// concrete scriptPubKey and any accompanying redeem/witness script or
// taproot tree.
func (d StdDescr) Derive(terminal bip32.Terminal) (DerivedScript, error) {
	switch d.Kind {
	case KindPkh:
		pk, err := d.Key.DeriveLegacy(terminal)
		if err != nil {
			return DerivedScript{}, err
		}
		hash := btcutil.Hash160(pk[:])
		spk, err := p2pkhScript(hash)
		if err != nil {
			return DerivedScript{}, err
		}
		return DerivedScript{Class: ClassP2pkh, ScriptPubKey: spk}, nil

	case KindWpkh:
		pk, err := d.Key.DeriveCompr(terminal)
		if err != nil {
			return DerivedScript{}, err
		}
		hash := btcutil.Hash160(pk[:])
		spk, err := p2wpkhScript(hash)
		if err != nil {
			return DerivedScript{}, err
		}
		return DerivedScript{Class: ClassP2wpkh, ScriptPubKey: spk}, nil

	case KindShWpkh:
		pk, err := d.Key.DeriveCompr(terminal)
		if err != nil {
			return DerivedScript{}, err
		}
		witnessScript, err := p2wpkhScript(btcutil.Hash160(pk[:]))
		if err != nil {
			return DerivedScript{}, err
		}
		spk, err := p2shScript(btcutil.Hash160(witnessScript))
		if err != nil {
			return DerivedScript{}, err
		}
		return DerivedScript{Class: ClassP2sh, ScriptPubKey: spk, RedeemScript: witnessScript}, nil

	case KindShMulti, KindShSortedMulti:
		redeem, err := d.multisigScript(terminal, 16)
		if err != nil {
			return DerivedScript{}, err
		}
		spk, err := p2shScript(btcutil.Hash160(redeem))
		if err != nil {
			return DerivedScript{}, err
		}
		return DerivedScript{Class: ClassP2sh, ScriptPubKey: spk, RedeemScript: redeem}, nil

	case KindWshMulti, KindWshSortedMulti:
		witnessScript, err := d.multisigScript(terminal, 16)
		if err != nil {
			return DerivedScript{}, err
		}
		spk, err := p2wshScript(sha256Sum(witnessScript))
		if err != nil {
			return DerivedScript{}, err
		}
		return DerivedScript{Class: ClassP2wsh, ScriptPubKey: spk, WitnessScript: witnessScript}, nil

	case KindShWshMulti, KindShWshSortedMulti:
		witnessScript, err := d.multisigScript(terminal, 16)
		if err != nil {
			return DerivedScript{}, err
		}
		redeem, err := p2wshScript(sha256Sum(witnessScript))
		if err != nil {
			return DerivedScript{}, err
		}
		spk, err := p2shScript(btcutil.Hash160(redeem))
		if err != nil {
			return DerivedScript{}, err
		}
		return DerivedScript{
			Class: ClassP2sh, ScriptPubKey: spk,
			RedeemScript: redeem, WitnessScript: witnessScript,
		}, nil

	case KindTrKey:
		internal, err := deriveXOnlyPubKey(d.Key, terminal)
		if err != nil {
			return DerivedScript{}, err
		}
		outputKey := txscript.ComputeTaprootKeyNoScript(internal)
		spk, err := p2trFromOutputKey(outputKey)
		if err != nil {
			return DerivedScript{}, err
		}
		return DerivedScript{Class: ClassP2tr, ScriptPubKey: spk, InternalKey: internal}, nil

	case KindTrMultiA, KindTrSortedMultiA:
		internal, err := deriveXOnlyPubKey(d.Key, terminal)
		if err != nil {
			return DerivedScript{}, err
		}
		leafScript, err := d.multiALeafScript(terminal)
		if err != nil {
			return DerivedScript{}, err
		}
		leaf := taproot.LeafScript{Version: taproot.TapscriptLeafVersion, Script: leafScript}
		tree := taproot.WithSingleLeaf(leaf)
		root := tree.MerkleRoot()
		outputKey := txscript.ComputeTaprootOutputKey(internal, root[:])
		spk, err := p2trFromOutputKey(outputKey)
		if err != nil {
			return DerivedScript{}, err
		}
		return DerivedScript{
			Class: ClassP2tr, ScriptPubKey: spk,
			InternalKey: internal, TapTree: &tree, TapLeaf: &leaf,
		}, nil

	case KindTrTree:
		internal, err := deriveXOnlyPubKey(d.Key, terminal)
		if err != nil {
			return DerivedScript{}, err
		}
		leaves := make([]taproot.LeafInfo, 0, len(d.Leaves))
		for _, l := range d.Leaves {
			pk, err := l.Key.DeriveXOnly(terminal)
			if err != nil {
				return DerivedScript{}, err
			}
			script, err := pkLeafScript(pk)
			if err != nil {
				return DerivedScript{}, err
			}
			leaves = append(leaves, taproot.LeafInfo{
				Depth:  l.Depth,
				Script: taproot.LeafScript{Version: taproot.TapscriptLeafVersion, Script: script},
			})
		}
		tree, err := taproot.FromLeaves(leaves)
		if err != nil {
			return DerivedScript{}, err
		}
		root := tree.MerkleRoot()
		outputKey := txscript.ComputeTaprootOutputKey(internal, root[:])
		spk, err := p2trFromOutputKey(outputKey)
		if err != nil {
			return DerivedScript{}, err
		}
		return DerivedScript{Class: ClassP2tr, ScriptPubKey: spk, InternalKey: internal, TapTree: &tree}, nil
	}
	return DerivedScript{}, &ErrArity{msg: "unrecognized descriptor kind"}
}

// multisigScript builds the multi(k, K1, ..., Kn) / sortedmulti(...)
// script, deriving each key at terminal and, for the sorted variants,
// reordering by compressed-encoding lexicographic order after
// derivation as spec.md §4.2 requires.
func (d StdDescr) multisigScript(terminal bip32.Terminal, maxN int) ([]byte, error) {
	keys := make([][]byte, 0, len(d.Keys))
	for _, k := range d.Keys {
		pk, err := k.DeriveCompr(terminal)
		if err != nil {
			return nil, err
		}
		keys = append(keys, append([]byte(nil), pk[:]...))
	}
	if d.Kind == KindShSortedMulti || d.Kind == KindWshSortedMulti || d.Kind == KindShWshSortedMulti {
		sortByteSlices(keys)
	}
	return multisigOpcodeScript(d.Threshold, keys)
}

// multiALeafScript builds the tr(...) multi_a/sortedmulti_a leaf script:
// <K1> OP_CHECKSIG <K2> OP_CHECKSIGADD ... <Kn> OP_CHECKSIGADD <k>
// OP_NUMEQUAL, deriving every key (the internal key is not part of the
// leaf) and sorting them for the sortedmulti_a form.
func (d StdDescr) multiALeafScript(terminal bip32.Terminal) ([]byte, error) {
	keys := make([][]byte, 0, len(d.Keys))
	for _, k := range d.Keys {
		pk, err := k.DeriveXOnly(terminal)
		if err != nil {
			return nil, err
		}
		keys = append(keys, append([]byte(nil), pk[:]...))
	}
	if d.Kind == KindTrSortedMultiA {
		sortByteSlices(keys)
	}
	builder := txscript.NewScriptBuilder()
	for i, key := range keys {
		builder.AddData(key)
		if i == 0 {
			builder.AddOp(txscript.OP_CHECKSIG)
		} else {
			builder.AddOp(txscript.OP_CHECKSIGADD)
		}
	}
	builder.AddInt64(int64(d.Threshold))
	builder.AddOp(txscript.OP_NUMEQUAL)
	return builder.Script()
}

func sortByteSlices(keys [][]byte) {
	sort.Slice(keys, func(i, j int) bool {
		for k := 0; k < len(keys[i]) && k < len(keys[j]); k++ {
			if keys[i][k] != keys[j][k] {
				return keys[i][k] < keys[j][k]
			}
		}
		return len(keys[i]) < len(keys[j])
	})
}

func multisigOpcodeScript(k int, keys [][]byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddInt64(int64(k))
	for _, key := range keys {
		builder.AddData(key)
	}
	builder.AddInt64(int64(len(keys)))
	builder.AddOp(txscript.OP_CHECKMULTISIG)
	return builder.Script()
}

func pkLeafScript(xonly [32]byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddData(xonly[:])
	builder.AddOp(txscript.OP_CHECKSIG)
	return builder.Script()
}

func deriveXOnlyPubKey(k KeyExpr, terminal bip32.Terminal) (*btcec.PublicKey, error) {
	xo, err := k.DeriveXOnly(terminal)
	if err != nil {
		return nil, err
	}
	return schnorrLift(xo)
}

func p2pkhScript(hash160 []byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_DUP)
	builder.AddOp(txscript.OP_HASH160)
	builder.AddData(hash160)
	builder.AddOp(txscript.OP_EQUALVERIFY)
	builder.AddOp(txscript.OP_CHECKSIG)
	return builder.Script()
}

func p2wpkhScript(hash160 []byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_0)
	builder.AddData(hash160)
	return builder.Script()
}

func p2shScript(hash160 []byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_HASH160)
	builder.AddData(hash160)
	builder.AddOp(txscript.OP_EQUAL)
	return builder.Script()
}

func p2wshScript(sha256 []byte) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_0)
	builder.AddData(sha256)
	return builder.Script()
}

func p2trFromOutputKey(outputKey *btcec.PublicKey) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddOp(txscript.OP_1)
	builder.AddData(schnorrSerialize(outputKey))
	return builder.Script()
}
