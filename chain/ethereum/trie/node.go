package trie

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
)

// Hasher hashes node encodings. The receipts trie uses keccak256.
type Hasher interface {
	Hash([]byte) []byte
}

// reference is how a parent refers to a child node: nodes whose encoding is
// shorter than a hash are embedded as is, all others by their hash.
func reference(enc []byte, h Hasher) []byte {
	if len(enc) < 32 {
		return enc
	}
	return h.Hash(enc)
}

func writeRef(w rlp.EncoderBuffer, ref []byte) {
	if len(ref) < 32 {
		w.Write(ref)
		return
	}
	w.WriteBytes(ref)
}

// Decoded form of a node taken from a proof. The raw item encodings are kept
// so that siblings are re-encoded byte for byte.

type nodeKind int

const (
	kindLeaf nodeKind = iota
	kindExtension
	kindBranch
)

type item struct {
	kind  rlp.Kind
	value []byte
	raw   []byte
}

type rawNode struct {
	kind  nodeKind
	items []item
	path  []byte
}

var errTrailingBytes = errors.New("trailing bytes after node")

func decodeNode(enc []byte) (*rawNode, error) {
	content, rest, err := rlp.SplitList(enc)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, errTrailingBytes
	}

	var items []item
	for len(content) > 0 {
		kind, value, tail, err := rlp.Split(content)
		if err != nil {
			return nil, err
		}
		items = append(items, item{
			kind:  kind,
			value: value,
			raw:   content[:len(content)-len(tail)],
		})
		content = tail
	}

	switch len(items) {
	case 17:
		return &rawNode{kind: kindBranch, items: items}, nil
	case 2:
		if items[0].kind == rlp.List {
			return nil, fmt.Errorf("node path is a list")
		}
		path, leaf, err := expandPath(items[0].value)
		if err != nil {
			return nil, err
		}
		if leaf {
			return &rawNode{kind: kindLeaf, items: items, path: path}, nil
		}
		return &rawNode{kind: kindExtension, items: items, path: path}, nil
	default:
		return nil, fmt.Errorf("node has %d items", len(items))
	}
}
