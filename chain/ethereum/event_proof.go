// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package ethereum

import (
	"fmt"

	gethCommon "github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"github.com/ggxchain/transaction-receipt-relayer/chain/ethereum/trie"
)

// EventProof proves that a receipt is part of an execution block.
type EventProof struct {
	BlockHeader            ExecutionHeader
	BlockHash              gethCommon.Hash
	TransactionReceipt     TransactionReceipt
	TransactionReceiptHash gethCommon.Hash
	MerkleProofOfReceipt   trie.Proof
	TransactionIndex       uint64
}

type ValidationErrorKind int

const (
	IncorrectBodyHash ValidationErrorKind = iota
	IncorrectReceiptHash
	IncorrectReceiptRoot
)

func (k ValidationErrorKind) String() string {
	switch k {
	case IncorrectBodyHash:
		return "incorrect body hash"
	case IncorrectReceiptHash:
		return "incorrect receipt hash"
	case IncorrectReceiptRoot:
		return "incorrect receipt root"
	default:
		return "unknown validation error"
	}
}

type ValidationError struct {
	Kind     ValidationErrorKind
	Expected gethCommon.Hash
	Actual   gethCommon.Hash
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: expected %s, actual %s", e.Kind, e.Expected.Hex(), e.Actual.Hex())
}

// Validate checks the block hash, the receipt hash and the receipt's
// inclusion in the block's receipts root, in that order. It does not check
// that the block is part of any chain.
func (p *EventProof) Validate() error {
	if actual := p.BlockHeader.Hash(); actual != p.BlockHash {
		return &ValidationError{Kind: IncorrectBodyHash, Expected: p.BlockHash, Actual: actual}
	}

	receipt := p.TransactionReceipt.Encode()
	if actual := p.TransactionReceipt.Hash(); actual != p.TransactionReceiptHash {
		return &ValidationError{Kind: IncorrectReceiptHash, Expected: p.TransactionReceiptHash, Actual: actual}
	}

	root := p.MerkleProofOfReceipt.MerkleRoot(receipt, p.TransactionIndex)
	if root != p.BlockHeader.ReceiptsRoot {
		return &ValidationError{Kind: IncorrectReceiptRoot, Expected: p.BlockHeader.ReceiptsRoot, Actual: root}
	}

	return nil
}

// ReceiptsTrie builds the receipts trie of a block from its receipts in
// transaction order.
func ReceiptsTrie(receipts []*TransactionReceipt) *trie.Trie {
	t := trie.New()
	for i, receipt := range receipts {
		t.Update(trie.Key(uint64(i)), receipt.Encode())
	}
	return t
}

// MakeEventProof assembles the proof for the receipt at index. The receipts
// trie can be shared between calls for the same block.
func MakeEventProof(header *ExecutionHeader, receipts []*TransactionReceipt, receiptsTrie *trie.Trie, index uint64) (*EventProof, error) {
	if index >= uint64(len(receipts)) {
		return nil, fmt.Errorf("transaction index %d out of range, block has %d receipts", index, len(receipts))
	}
	if root := receiptsTrie.Root(); root != header.ReceiptsRoot {
		return nil, fmt.Errorf("receipts trie root %s does not match header receipts root %s", root.Hex(), header.ReceiptsRoot.Hex())
	}

	proof, err := trie.NewProof(receiptsTrie, index)
	if err != nil {
		return nil, err
	}

	receipt := receipts[index]
	p := EventProof{
		BlockHeader:            *header,
		BlockHash:              header.Hash(),
		TransactionReceipt:     *receipt,
		TransactionReceiptHash: receipt.Hash(),
		MerkleProofOfReceipt:   *proof,
		TransactionIndex:       index,
	}

	log.WithFields(log.Fields{
		"blockNumber": header.Number,
		"blockHash":   p.BlockHash.Hex(),
		"index":       index,
		"proofNodes":  len(proof.Nodes),
	}).Debug("Generated receipt proof")

	return &p, nil
}
