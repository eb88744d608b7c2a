// Package trie builds Merkle-Patricia tries over transaction receipts and
// produces and checks inclusion proofs against a block's receipts root.
package trie

import (
	"errors"
	"sync"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/rlp"
	gethTrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
)

// EmptyRoot is the root of a trie without any entries, keccak256(rlp("")).
var EmptyRoot = gethCommon.HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

var ErrKeyNotFound = errors.New("key not found in trie")

// Trie is an in-memory Merkle-Patricia trie. It is safe for concurrent use.
type Trie struct {
	mu   sync.Mutex
	trie *gethTrie.Trie
	size uint64
}

func New() *Trie {
	return &Trie{trie: gethTrie.NewEmpty(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil))}
}

// Key returns the trie key of the receipt at the given transaction index.
func Key(index uint64) []byte {
	key, _ := rlp.EncodeToBytes(index)
	return key
}

// Size returns the number of keys in the trie.
func (t *Trie) Size() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

func (t *Trie) Update(key, value []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.trie.MustGet(key)) == 0 {
		t.size++
	}
	t.trie.MustUpdate(key, gethCommon.CopyBytes(value))
}

// Root returns the root hash.
func (t *Trie) Root() gethCommon.Hash {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.trie.Hash()
}

// proofList collects the nodes written by a proof in the order they are
// visited, root first.
type proofList [][]byte

// For interface ethdb.KeyValueWriter
func (l *proofList) Put(_ []byte, value []byte) error {
	*l = append(*l, gethCommon.CopyBytes(value))
	return nil
}

// For interface ethdb.KeyValueWriter
func (l *proofList) Delete(_ []byte) error {
	return errors.New("delete should never be called to generate a proof")
}

// Prove returns the encodings of every node on the path to key, root first.
func (t *Trie) Prove(key []byte) ([][]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.trie.MustGet(key)) == 0 {
		return nil, ErrKeyNotFound
	}
	var nodes proofList
	if err := t.trie.Prove(key, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}
