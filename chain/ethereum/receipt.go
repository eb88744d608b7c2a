// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package ethereum

import (
	"fmt"
	"io"

	gethCommon "github.com/ethereum/go-ethereum/common"
	gethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ggxchain/transaction-receipt-relayer/crypto/keccak"
)

// TxType is the EIP-2718 envelope type of the transaction a receipt belongs to.
type TxType uint8

const (
	LegacyTxType TxType = iota
	AccessListTxType
	DynamicFeeTxType
	BlobTxType
)

func (t TxType) String() string {
	switch t {
	case LegacyTxType:
		return "legacy"
	case AccessListTxType:
		return "eip2930"
	case DynamicFeeTxType:
		return "eip1559"
	case BlobTxType:
		return "eip4844"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

type Log struct {
	Address gethCommon.Address
	Topics  []gethCommon.Hash
	Data    []byte
}

func (l *Log) contentLength() int {
	return bytesLength(l.Address[:]) + listLength(len(l.Topics)*33) + bytesLength(l.Data)
}

// Length returns the size of the RLP encoding of the log.
func (l *Log) Length() int {
	return listLength(l.contentLength())
}

func (l *Log) encode(w rlp.EncoderBuffer) {
	list := w.List()
	w.WriteBytes(l.Address[:])
	topics := w.List()
	for _, topic := range l.Topics {
		w.WriteBytes(topic[:])
	}
	w.ListEnd(topics)
	w.WriteBytes(l.Data)
	w.ListEnd(list)
}

type TransactionReceipt struct {
	TxType            TxType
	Success           bool
	CumulativeGasUsed uint64
	Bloom             gethTypes.Bloom
	Logs              []Log
}

func (r *TransactionReceipt) status() uint64 {
	if r.Success {
		return 1
	}
	return 0
}

func (r *TransactionReceipt) contentLength() int {
	logs := 0
	for i := range r.Logs {
		logs += r.Logs[i].Length()
	}
	return uint64Length(r.status()) +
		uint64Length(r.CumulativeGasUsed) +
		bytesLength(r.Bloom[:]) +
		listLength(logs)
}

// Length returns the size of the consensus encoding of the receipt, without
// producing it.
func (r *TransactionReceipt) Length() int {
	n := listLength(r.contentLength())
	if r.TxType != LegacyTxType {
		n++
	}
	return n
}

func (r *TransactionReceipt) encode(w rlp.EncoderBuffer) {
	if r.TxType != LegacyTxType {
		w.Write([]byte{byte(r.TxType)})
	}
	list := w.List()
	w.WriteUint64(r.status())
	w.WriteUint64(r.CumulativeGasUsed)
	w.WriteBytes(r.Bloom[:])
	logs := w.List()
	for i := range r.Logs {
		r.Logs[i].encode(w)
	}
	w.ListEnd(logs)
	w.ListEnd(list)
}

// EncodeTo writes the consensus encoding of the receipt: the bare RLP list for
// legacy receipts, the type byte followed by the list otherwise.
func (r *TransactionReceipt) EncodeTo(out io.Writer) error {
	w := rlp.NewEncoderBuffer(out)
	r.encode(w)
	return w.Flush()
}

// Encode returns the consensus encoding of the receipt. This is the value
// stored in the block's receipts trie.
func (r *TransactionReceipt) Encode() []byte {
	w := rlp.NewEncoderBuffer(nil)
	r.encode(w)
	enc := w.ToBytes()
	w.Flush()
	return enc
}

func (r *TransactionReceipt) Hash() gethCommon.Hash {
	return keccak.New().Sum(r.Encode())
}

// LogsFrom returns the logs emitted by the given contract address.
func (r *TransactionReceipt) LogsFrom(address gethCommon.Address) []Log {
	var logs []Log
	for _, l := range r.Logs {
		if l.Address == address {
			logs = append(logs, l)
		}
	}
	return logs
}

// MakeReceipt converts a receipt as returned by the execution client into
// the form that is hashed into the receipts trie.
func MakeReceipt(receipt *gethTypes.Receipt) (*TransactionReceipt, error) {
	if receipt.Type > uint8(BlobTxType) {
		return nil, fmt.Errorf("unsupported receipt type %d", receipt.Type)
	}

	logs := make([]Log, 0, len(receipt.Logs))
	for _, l := range receipt.Logs {
		topics := make([]gethCommon.Hash, len(l.Topics))
		copy(topics, l.Topics)
		logs = append(logs, Log{
			Address: l.Address,
			Topics:  topics,
			Data:    gethCommon.CopyBytes(l.Data),
		})
	}

	return &TransactionReceipt{
		TxType:            TxType(receipt.Type),
		Success:           receipt.Status == gethTypes.ReceiptStatusSuccessful,
		CumulativeGasUsed: receipt.CumulativeGasUsed,
		Bloom:             receipt.Bloom,
		Logs:              logs,
	}, nil
}

func MakeReceipts(receipts gethTypes.Receipts) ([]*TransactionReceipt, error) {
	result := make([]*TransactionReceipt, 0, len(receipts))
	for i, receipt := range receipts {
		r, err := MakeReceipt(receipt)
		if err != nil {
			return nil, fmt.Errorf("convert receipt %d: %w", i, err)
		}
		result = append(result, r)
	}
	return result, nil
}
