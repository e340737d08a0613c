package signer

import "fmt"

// SignError is the signer's taxonomy of semantic failures, following the
// same {Kind, Msg} shape psbt.PsbtError uses for protocol errors.
type SignError struct {
	Kind string
	Msg  string
}

func (e SignError) Error() string {
	if e.Msg == "" {
		return "signer: " + e.Kind
	}
	return fmt.Sprintf("signer: %s: %s", e.Kind, e.Msg)
}

func errUnknownPrevout(input int) error {
	return SignError{Kind: "UnknownPrevout", Msg: fmt.Sprintf("input %d", input)}
}

func errMissingWitnessUtxo(input int) error {
	return SignError{Kind: "MissingWitnessUtxo", Msg: fmt.Sprintf("input %d", input)}
}

func errSighashFailure(input int, cause error) error {
	return SignError{Kind: "SighashFailure", Msg: fmt.Sprintf("input %d: %v", input, cause)}
}

func errTaprootInputMissingInternalKey(input int) error {
	return SignError{Kind: "TaprootInputMissingInternalKey", Msg: fmt.Sprintf("input %d", input)}
}

// Rejected aggregates the per-input failures SignPsbt collects while
// walking a PSBT, rather than aborting at the first one: a multi-input
// transaction where one input's signer has no matching key is still
// worth signing everywhere else.
type Rejected struct {
	Inputs map[int]error
}

func (r *Rejected) add(i int, err error) {
	if r.Inputs == nil {
		r.Inputs = make(map[int]error)
	}
	r.Inputs[i] = err
}

func (r *Rejected) Error() string {
	return fmt.Sprintf("signer: %d input(s) rejected", len(r.Inputs))
}

// AsError returns r if it holds any rejection, nil otherwise, so callers
// can write `if err := rejected.AsError(); err != nil { ... }`.
func (r *Rejected) AsError() error {
	if r == nil || len(r.Inputs) == 0 {
		return nil
	}
	return r
}
