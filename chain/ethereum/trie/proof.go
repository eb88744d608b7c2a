package trie

import (
	"bytes"
	"errors"
	"fmt"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ggxchain/transaction-receipt-relayer/crypto/keccak"
)

// Proof is an inclusion proof for one receipt: the encodings of the trie
// nodes on the path from the root to the receipt's leaf.
type Proof struct {
	Nodes            [][]byte
	Size             uint64
	TransactionIndex uint64
}

var (
	errEmptyProof    = errors.New("empty proof")
	errIndexMismatch = errors.New("proof is for another transaction index")
	errPathMismatch  = errors.New("proof path does not follow the key")
)

// NewProof proves the value stored at index in t.
func NewProof(t *Trie, index uint64) (*Proof, error) {
	nodes, err := t.Prove(Key(index))
	if err != nil {
		return nil, fmt.Errorf("prove index %d: %w", index, err)
	}
	return &Proof{
		Nodes:            nodes,
		Size:             t.Size(),
		TransactionIndex: index,
	}, nil
}

// MerkleRoot recomputes the trie root from the proof, taking value as the
// leaf value at index. Only the nodes of the proof are touched. Any malformed
// proof gives the zero hash, which never equals a receipts root.
func (p *Proof) MerkleRoot(value []byte, index uint64) gethCommon.Hash {
	root, err := p.root(value, index, keccak.New())
	if err != nil {
		return gethCommon.Hash{}
	}
	return root
}

func (p *Proof) root(value []byte, index uint64, h Hasher) (gethCommon.Hash, error) {
	if len(p.Nodes) == 0 {
		return gethCommon.Hash{}, errEmptyProof
	}
	if index != p.TransactionIndex || (p.Size != 0 && index >= p.Size) {
		return gethCommon.Hash{}, errIndexMismatch
	}

	path := toNibbles(Key(index))
	nodes := make([]*rawNode, len(p.Nodes))
	depths := make([]int, len(p.Nodes))

	// Top down: decode every node and find where it sits on the key path.
	depth := 0
	for i, enc := range p.Nodes {
		n, err := decodeNode(enc)
		if err != nil {
			return gethCommon.Hash{}, fmt.Errorf("node %d: %w", i, err)
		}
		nodes[i], depths[i] = n, depth
		last := i == len(p.Nodes)-1

		switch n.kind {
		case kindLeaf:
			if !last {
				return gethCommon.Hash{}, errPathMismatch
			}
		case kindExtension:
			if last || !bytes.HasPrefix(path[depth:], n.path) {
				return gethCommon.Hash{}, errPathMismatch
			}
			depth += len(n.path)
		case kindBranch:
			if !last && depth >= len(path) || last && depth != len(path) {
				return gethCommon.Hash{}, errPathMismatch
			}
			depth++
		}
	}

	// Bottom up: rebuild each node around the recomputed child below it.
	var enc []byte
	for i := len(nodes) - 1; i >= 0; i-- {
		n, d := nodes[i], depths[i]
		w := rlp.NewEncoderBuffer(nil)
		list := w.List()
		switch n.kind {
		case kindLeaf:
			w.WriteBytes(compactPath(path[d:], true))
			w.WriteBytes(value)
		case kindExtension:
			w.Write(n.items[0].raw)
			writeRef(w, reference(enc, h))
		case kindBranch:
			for slot := 0; slot < 16; slot++ {
				if enc != nil && d < len(path) && int(path[d]) == slot {
					writeRef(w, reference(enc, h))
					continue
				}
				w.Write(n.items[slot].raw)
			}
			if d == len(path) {
				w.WriteBytes(value)
			} else {
				w.Write(n.items[16].raw)
			}
		}
		w.ListEnd(list)
		enc = w.ToBytes()
		w.Flush()
	}

	return gethCommon.BytesToHash(h.Hash(enc)), nil
}
