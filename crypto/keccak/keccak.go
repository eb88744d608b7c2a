package keccak

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Keccak256 hashes execution layer structures: block headers, receipts and
// trie nodes.
type Keccak256 struct{}

// New creates a new Keccak256 hashing method
func New() *Keccak256 {
	return &Keccak256{}
}

// Hash generates a Keccak256 hash from a byte array
func (h *Keccak256) Hash(data []byte) []byte {
	return crypto.Keccak256(data)
}

// Sum hashes the concatenation of the given byte slices.
func (h *Keccak256) Sum(data ...[]byte) common.Hash {
	return crypto.Keccak256Hash(data...)
}
