// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package ethereum

import (
	"errors"
	"fmt"
	"math/big"

	gethCommon "github.com/ethereum/go-ethereum/common"
	gethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ggxchain/transaction-receipt-relayer/crypto/keccak"
)

var ErrInvalidOptionalFields = errors.New("optional header fields must be set in fork order")

// ExecutionHeader is an execution layer block header. The trailing fields are
// introduced by successive forks (London, Shanghai, Cancun, Prague) and are only part
// of the encoding when set.
type ExecutionHeader struct {
	ParentHash       gethCommon.Hash
	OmmersHash       gethCommon.Hash
	Beneficiary      gethCommon.Address
	StateRoot        gethCommon.Hash
	TransactionsRoot gethCommon.Hash
	ReceiptsRoot     gethCommon.Hash
	LogsBloom        gethTypes.Bloom
	Difficulty       *big.Int
	Number           uint64
	GasLimit         uint64
	GasUsed          uint64
	Timestamp        uint64
	ExtraData        []byte
	MixHash          gethCommon.Hash
	Nonce            gethTypes.BlockNonce

	BaseFee               *big.Int
	WithdrawalsRoot       *gethCommon.Hash
	BlobGasUsed           *uint64
	ExcessBlobGas         *uint64
	ParentBeaconBlockRoot *gethCommon.Hash
	RequestsHash          *gethCommon.Hash
}

// optionalFields returns how many of the fork-specific trailing fields are
// present, or an error if a later field is set while an earlier one is not.
func (h *ExecutionHeader) optionalFields() (int, error) {
	present := []bool{
		h.BaseFee != nil,
		h.WithdrawalsRoot != nil,
		h.BlobGasUsed != nil,
		h.ExcessBlobGas != nil,
		h.ParentBeaconBlockRoot != nil,
		h.RequestsHash != nil,
	}
	n := 0
	for n < len(present) && present[n] {
		n++
	}
	for _, p := range present[n:] {
		if p {
			return 0, ErrInvalidOptionalFields
		}
	}
	return n, nil
}

func (h *ExecutionHeader) contentLength(optional int) int {
	n := 33*6 + 21 +
		bytesLength(h.LogsBloom[:]) +
		bigLength(h.Difficulty) +
		uint64Length(h.Number) +
		uint64Length(h.GasLimit) +
		uint64Length(h.GasUsed) +
		uint64Length(h.Timestamp) +
		bytesLength(h.ExtraData) +
		9
	if optional > 0 {
		n += bigLength(h.BaseFee)
	}
	if optional > 1 {
		n += 33
	}
	if optional > 2 {
		n += uint64Length(*h.BlobGasUsed)
	}
	if optional > 3 {
		n += uint64Length(*h.ExcessBlobGas)
	}
	if optional > 4 {
		n += 33
	}
	if optional > 5 {
		n += 33
	}
	return n
}

// Length returns the size of the RLP encoding of the header.
func (h *ExecutionHeader) Length() (int, error) {
	optional, err := h.optionalFields()
	if err != nil {
		return 0, err
	}
	return listLength(h.contentLength(optional)), nil
}

func writeBig(w rlp.EncoderBuffer, x *big.Int) {
	if x == nil {
		w.WriteUint64(0)
		return
	}
	w.WriteBigInt(x)
}

// Encode returns the RLP encoding of the header.
func (h *ExecutionHeader) Encode() ([]byte, error) {
	optional, err := h.optionalFields()
	if err != nil {
		return nil, err
	}
	if h.Difficulty != nil && h.Difficulty.Sign() < 0 || h.BaseFee != nil && h.BaseFee.Sign() < 0 {
		return nil, fmt.Errorf("negative integer field in header %d", h.Number)
	}

	w := rlp.NewEncoderBuffer(nil)
	list := w.List()
	w.WriteBytes(h.ParentHash[:])
	w.WriteBytes(h.OmmersHash[:])
	w.WriteBytes(h.Beneficiary[:])
	w.WriteBytes(h.StateRoot[:])
	w.WriteBytes(h.TransactionsRoot[:])
	w.WriteBytes(h.ReceiptsRoot[:])
	w.WriteBytes(h.LogsBloom[:])
	writeBig(w, h.Difficulty)
	w.WriteUint64(h.Number)
	w.WriteUint64(h.GasLimit)
	w.WriteUint64(h.GasUsed)
	w.WriteUint64(h.Timestamp)
	w.WriteBytes(h.ExtraData)
	w.WriteBytes(h.MixHash[:])
	w.WriteBytes(h.Nonce[:])
	if optional > 0 {
		writeBig(w, h.BaseFee)
	}
	if optional > 1 {
		w.WriteBytes(h.WithdrawalsRoot[:])
	}
	if optional > 2 {
		w.WriteUint64(*h.BlobGasUsed)
	}
	if optional > 3 {
		w.WriteUint64(*h.ExcessBlobGas)
	}
	if optional > 4 {
		w.WriteBytes(h.ParentBeaconBlockRoot[:])
	}
	if optional > 5 {
		w.WriteBytes(h.RequestsHash[:])
	}
	w.ListEnd(list)

	enc := w.ToBytes()
	w.Flush()
	return enc, nil
}

// Hash returns the block hash, keccak256 of the RLP encoding. A header that
// cannot be encoded hashes to the zero hash, which never matches a real block.
func (h *ExecutionHeader) Hash() gethCommon.Hash {
	enc, err := h.Encode()
	if err != nil {
		return gethCommon.Hash{}
	}
	return keccak.New().Sum(enc)
}

func copyHash(h *gethCommon.Hash) *gethCommon.Hash {
	if h == nil {
		return nil
	}
	c := *h
	return &c
}

func copyUint64(x *uint64) *uint64 {
	if x == nil {
		return nil
	}
	c := *x
	return &c
}

func copyBig(x *big.Int) *big.Int {
	if x == nil {
		return nil
	}
	return new(big.Int).Set(x)
}

func MakeHeader(gethheader *gethTypes.Header) (*ExecutionHeader, error) {
	if gethheader.Number == nil || !gethheader.Number.IsUint64() {
		return nil, fmt.Errorf("gethheader.Number is not uint64")
	}

	return &ExecutionHeader{
		ParentHash:            gethheader.ParentHash,
		OmmersHash:            gethheader.UncleHash,
		Beneficiary:           gethheader.Coinbase,
		StateRoot:             gethheader.Root,
		TransactionsRoot:      gethheader.TxHash,
		ReceiptsRoot:          gethheader.ReceiptHash,
		LogsBloom:             gethheader.Bloom,
		Difficulty:            copyBig(gethheader.Difficulty),
		Number:                gethheader.Number.Uint64(),
		GasLimit:              gethheader.GasLimit,
		GasUsed:               gethheader.GasUsed,
		Timestamp:             gethheader.Time,
		ExtraData:             gethCommon.CopyBytes(gethheader.Extra),
		MixHash:               gethheader.MixDigest,
		Nonce:                 gethheader.Nonce,
		BaseFee:               copyBig(gethheader.BaseFee),
		WithdrawalsRoot:       copyHash(gethheader.WithdrawalsHash),
		BlobGasUsed:           copyUint64(gethheader.BlobGasUsed),
		ExcessBlobGas:         copyUint64(gethheader.ExcessBlobGas),
		ParentBeaconBlockRoot: copyHash(gethheader.ParentBeaconRoot),
		RequestsHash:          copyHash(gethheader.RequestsHash),
	}, nil
}

// GethHeader is the inverse of MakeHeader.
func (h *ExecutionHeader) GethHeader() *gethTypes.Header {
	return &gethTypes.Header{
		ParentHash:       h.ParentHash,
		UncleHash:        h.OmmersHash,
		Coinbase:         h.Beneficiary,
		Root:             h.StateRoot,
		TxHash:           h.TransactionsRoot,
		ReceiptHash:      h.ReceiptsRoot,
		Bloom:            h.LogsBloom,
		Difficulty:       copyBig(h.Difficulty),
		Number:           new(big.Int).SetUint64(h.Number),
		GasLimit:         h.GasLimit,
		GasUsed:          h.GasUsed,
		Time:             h.Timestamp,
		Extra:            gethCommon.CopyBytes(h.ExtraData),
		MixDigest:        h.MixHash,
		Nonce:            h.Nonce,
		BaseFee:          copyBig(h.BaseFee),
		WithdrawalsHash:  copyHash(h.WithdrawalsRoot),
		BlobGasUsed:      copyUint64(h.BlobGasUsed),
		ExcessBlobGas:    copyUint64(h.ExcessBlobGas),
		ParentBeaconRoot: copyHash(h.ParentBeaconBlockRoot),
		RequestsHash:     copyHash(h.RequestsHash),
	}
}
