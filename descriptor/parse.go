package descriptor

import (
	"strconv"
	"strings"
)

// Parse parses a full descriptor string, stripping and verifying an
// optional trailing "#checksum" per spec.md §4.3.
func Parse(s string) (StdDescr, error) {
	body := s
	if idx := strings.LastIndexByte(s, '#'); idx >= 0 {
		body = s[:idx]
		if !VerifyChecksum(s, true) {
			return StdDescr{}, newParseErr(s, "checksum mismatch")
		}
	}
	node, err := parseNode(body)
	if err != nil {
		return StdDescr{}, err
	}
	return fromNode(node)
}

// fromNode dispatches a top-level NodeScript to the matching StdDescr
// construction, covering every grammar form spec.md §4.2 recognizes.
func fromNode(node Node) (StdDescr, error) {
	if node.Kind != NodeScript {
		return StdDescr{}, newParseErr(node.Text, errNotSupported)
	}
	switch node.Name {
	case "pkh":
		return oneKeyDescr(node, KindPkh)
	case "wpkh":
		return oneKeyDescr(node, KindWpkh)
	case "sh":
		return fromSh(node)
	case "wsh":
		return fromWsh(node)
	case "tr":
		return fromTr(node)
	default:
		return StdDescr{}, newParseErr(node.Name, errNotSupported)
	}
}

func oneKeyDescr(node Node, kind Kind) (StdDescr, error) {
	children, err := checkForms(node, node.Name, []FormPattern{PatternKey})
	if err != nil {
		return StdDescr{}, err
	}
	key, err := ParseKeyExpr(children[0].Text)
	if err != nil {
		return StdDescr{}, err
	}
	return StdDescr{Kind: kind, Key: key}, nil
}

// fromSh parses sh(...): sh(wpkh(K)), sh(wsh(SCRIPT)), or sh(SCRIPT)
// where SCRIPT is multi(...)/sortedmulti(...).
func fromSh(node Node) (StdDescr, error) {
	children, err := checkForms(node, "sh", []FormPattern{PatternScript})
	if err != nil {
		return StdDescr{}, err
	}
	inner := children[0]
	if inner.Name == "wpkh" {
		d, err := oneKeyDescr(inner, KindShWpkh)
		if err != nil {
			return StdDescr{}, err
		}
		return d, nil
	}
	if inner.Name == "wsh" {
		innerChildren, err := checkForms(inner, "wsh", []FormPattern{PatternScript})
		if err != nil {
			return StdDescr{}, err
		}
		return multisigDescr(innerChildren[0], map[string]Kind{
			"multi":       KindShWshMulti,
			"sortedmulti": KindShWshSortedMulti,
		})
	}
	return multisigDescr(inner, map[string]Kind{
		"multi":       KindShMulti,
		"sortedmulti": KindShSortedMulti,
	})
}

// fromWsh parses wsh(multi(...)) / wsh(sortedmulti(...)).
func fromWsh(node Node) (StdDescr, error) {
	children, err := checkForms(node, "wsh", []FormPattern{PatternScript})
	if err != nil {
		return StdDescr{}, err
	}
	return multisigDescr(children[0], map[string]Kind{
		"multi":       KindWshMulti,
		"sortedmulti": KindWshSortedMulti,
	})
}

func multisigDescr(node Node, kinds map[string]Kind) (StdDescr, error) {
	kind, ok := kinds[node.Name]
	if !ok {
		return StdDescr{}, newParseErr(node.Name, errNotSupported)
	}
	children, err := checkForms(node, node.Name, []FormPattern{PatternLit, PatternVariadicKey})
	if err != nil {
		return StdDescr{}, err
	}
	return buildMultisig(kind, children, 16)
}

func buildMultisig(kind Kind, children []Node, maxN int) (StdDescr, error) {
	k, err := strconv.Atoi(children[0].Text)
	if err != nil {
		return StdDescr{}, newParseErr(children[0].Text, "invalid threshold")
	}
	keys := make([]KeyExpr, 0, len(children)-1)
	for _, c := range children[1:] {
		key, err := ParseKeyExpr(c.Text)
		if err != nil {
			return StdDescr{}, err
		}
		keys = append(keys, key)
	}
	if err := checkMultisigArity(k, len(keys), maxN); err != nil {
		return StdDescr{}, err
	}
	return StdDescr{Kind: kind, Threshold: k, Keys: keys}, nil
}

// fromTr parses tr(KEY), tr(KEY, multi_a(...)), tr(KEY, sortedmulti_a(...))
// and tr(KEY, TREE).
func fromTr(node Node) (StdDescr, error) {
	if len(node.Children) == 1 {
		children, err := checkForms(node, "tr", []FormPattern{PatternKey})
		if err != nil {
			return StdDescr{}, err
		}
		internal, err := ParseKeyExpr(children[0].Text)
		if err != nil {
			return StdDescr{}, err
		}
		return StdDescr{Kind: KindTrKey, Key: internal}, nil
	}
	if len(node.Children) != 2 {
		return StdDescr{}, newParseErr("tr", errInvalidArgs)
	}
	internal, err := ParseKeyExpr(node.Children[0].Text)
	if err != nil {
		return StdDescr{}, err
	}
	second := node.Children[1]
	if second.Kind == NodeScript && (second.Name == "multi_a" || second.Name == "sortedmulti_a") {
		kind := KindTrMultiA
		if second.Name == "sortedmulti_a" {
			kind = KindTrSortedMultiA
		}
		mChildren, err := checkForms(second, second.Name, []FormPattern{PatternLit, PatternVariadicKey})
		if err != nil {
			return StdDescr{}, err
		}
		d, err := buildMultisig(kind, mChildren, 999)
		if err != nil {
			return StdDescr{}, err
		}
		d.Key = internal
		return d, nil
	}
	// A lone top-level leaf arrives as a pk(KEY) call or a bare key rather
	// than as a tree node; wrap it as a single depth-0 leaf.
	if second.Kind == NodeKey {
		second = Node{Kind: NodeTree, Text: second.Text}
	} else if second.Kind == NodeScript && second.Name == "pk" && len(second.Children) == 1 {
		second = Node{Kind: NodeTree, Text: second.Children[0].Text}
	}
	tree, err := fromTreeNode(second)
	if err != nil {
		return StdDescr{}, err
	}
	return StdDescr{Kind: KindTrTree, Key: internal, Leaves: tree}, nil
}

// fromTreeNode walks a NodeTree AST into the flat []TreeLeaf form the
// taproot package's mountain-range builder consumes, assigning each
// leaf its branch-nesting depth. A leaf is written either as pk(KEY) or
// as a bare KEY; both resolve to the fixed single-key CHECKSIG leaf this
// module supports, which renders back as pk(KEY).
func fromTreeNode(node Node) ([]TreeLeaf, error) {
	return collectTreeLeaves(node, 0)
}

func collectTreeLeaves(node Node, depth uint8) ([]TreeLeaf, error) {
	if node.Kind != NodeTree {
		return nil, newParseErr(node.Text, errInvalidScriptExpr)
	}
	if len(node.Children) == 0 {
		text := node.Text
		if strings.HasPrefix(text, "pk(") && strings.HasSuffix(text, ")") {
			text = text[len("pk(") : len(text)-1]
		}
		key, err := ParseKeyExpr(text)
		if err != nil {
			return nil, err
		}
		return []TreeLeaf{{Depth: depth, Key: key}}, nil
	}
	left, err := collectTreeLeaves(node.Children[0], depth+1)
	if err != nil {
		return nil, err
	}
	right, err := collectTreeLeaves(node.Children[1], depth+1)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}

// String renders the descriptor back to its canonical textual form
// (without a trailing checksum; use WithChecksum(d.String()) to add one).
func (d StdDescr) String() string {
	switch d.Kind {
	case KindPkh:
		return "pkh(" + d.Key.String() + ")"
	case KindWpkh:
		return "wpkh(" + d.Key.String() + ")"
	case KindShWpkh:
		return "sh(wpkh(" + d.Key.String() + "))"
	case KindShMulti:
		return "sh(" + renderMultisig("multi", d.Threshold, d.Keys) + ")"
	case KindShSortedMulti:
		return "sh(" + renderMultisig("sortedmulti", d.Threshold, d.Keys) + ")"
	case KindWshMulti:
		return "wsh(" + renderMultisig("multi", d.Threshold, d.Keys) + ")"
	case KindWshSortedMulti:
		return "wsh(" + renderMultisig("sortedmulti", d.Threshold, d.Keys) + ")"
	case KindShWshMulti:
		return "sh(wsh(" + renderMultisig("multi", d.Threshold, d.Keys) + "))"
	case KindShWshSortedMulti:
		return "sh(wsh(" + renderMultisig("sortedmulti", d.Threshold, d.Keys) + "))"
	case KindTrKey:
		return "tr(" + d.Key.String() + ")"
	case KindTrMultiA:
		return "tr(" + d.Key.String() + "," + renderMultisig("multi_a", d.Threshold, d.Keys) + ")"
	case KindTrSortedMultiA:
		return "tr(" + d.Key.String() + "," + renderMultisig("sortedmulti_a", d.Threshold, d.Keys) + ")"
	case KindTrTree:
		return "tr(" + d.Key.String() + "," + renderTree(d.Leaves) + ")"
	default:
		return ""
	}
}

func renderMultisig(name string, k int, keys []KeyExpr) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	b.WriteString(strconv.Itoa(k))
	for _, key := range keys {
		b.WriteByte(',')
		b.WriteString(key.String())
	}
	b.WriteByte(')')
	return b.String()
}

// renderTree re-nests a flat, depth-ordered leaf list into compact
// "{left,right}" notation, pairing leaves from the deepest level inward
// the same way the taproot mountain-range builder folds them.
func renderTree(leaves []TreeLeaf) string {
	type node struct {
		depth uint8
		text  string
	}
	nodes := make([]node, len(leaves))
	for i, l := range leaves {
		nodes[i] = node{depth: l.Depth, text: "pk(" + l.Key.String() + ")"}
	}
	for len(nodes) > 1 {
		maxDepth := nodes[0].depth
		for _, n := range nodes {
			if n.depth > maxDepth {
				maxDepth = n.depth
			}
		}
		for i := 0; i+1 < len(nodes); i++ {
			if nodes[i].depth == maxDepth && nodes[i+1].depth == maxDepth {
				merged := node{depth: maxDepth - 1, text: "{" + nodes[i].text + "," + nodes[i+1].text + "}"}
				nodes = append(nodes[:i], append([]node{merged}, nodes[i+2:]...)...)
				break
			}
		}
	}
	if len(nodes) == 0 {
		return ""
	}
	return nodes[0].text
}
