package registry

import (
	"github.com/ethereum/go-ethereum/common"
)

// ProcessedReceipts records the receipts of one chain that were already
// proven. Entries are never removed.
type ProcessedReceipts interface {
	ContainsReceipt(number uint64, receiptHash common.Hash) (bool, error)
	ContainsReceiptHash(receiptHash common.Hash) (bool, error)
	InsertReceipt(number uint64, receiptHash common.Hash) error
	InsertReceiptHash(receiptHash common.Hash) error
}

type receiptKey struct {
	number uint64
	hash   common.Hash
}

type MemoryProcessedReceipts struct {
	receipts map[receiptKey]struct{}
	hashes   map[common.Hash]struct{}
}

func NewMemoryProcessedReceipts() *MemoryProcessedReceipts {
	return &MemoryProcessedReceipts{
		receipts: make(map[receiptKey]struct{}),
		hashes:   make(map[common.Hash]struct{}),
	}
}

func (m *MemoryProcessedReceipts) ContainsReceipt(number uint64, receiptHash common.Hash) (bool, error) {
	_, ok := m.receipts[receiptKey{number, receiptHash}]
	return ok, nil
}

func (m *MemoryProcessedReceipts) ContainsReceiptHash(receiptHash common.Hash) (bool, error) {
	_, ok := m.hashes[receiptHash]
	return ok, nil
}

func (m *MemoryProcessedReceipts) InsertReceipt(number uint64, receiptHash common.Hash) error {
	m.receipts[receiptKey{number, receiptHash}] = struct{}{}
	return nil
}

func (m *MemoryProcessedReceipts) InsertReceiptHash(receiptHash common.Hash) error {
	m.hashes[receiptHash] = struct{}{}
	return nil
}
