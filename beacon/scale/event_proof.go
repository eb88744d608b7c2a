package scale

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	gethCommon "github.com/ethereum/go-ethereum/common"
	gethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/snowfork/go-substrate-rpc-client/v4/scale"
	"github.com/snowfork/go-substrate-rpc-client/v4/types"

	"github.com/ggxchain/transaction-receipt-relayer/chain/ethereum"
)

var ErrIntegerOverflow = errors.New("integer does not fit in 256 bits")

// EncodeEventProof produces the wire form of an event proof:
//
//	header | block hash | receipt | receipt hash | proof | transaction index
//
// Sequences carry a compact length prefix, optional header fields a one
// byte option tag, integers are little endian.
func EncodeEventProof(p *ethereum.EventProof) ([]byte, error) {
	var buf bytes.Buffer
	encoder := scale.NewEncoder(&buf)

	if err := encodeHeader(encoder, &p.BlockHeader); err != nil {
		return nil, err
	}
	if err := encoder.Encode(types.H256(p.BlockHash)); err != nil {
		return nil, err
	}
	if err := encodeReceipt(encoder, &p.TransactionReceipt); err != nil {
		return nil, err
	}
	if err := encoder.Encode(types.H256(p.TransactionReceiptHash)); err != nil {
		return nil, err
	}
	if err := encoder.Encode(p.MerkleProofOfReceipt.Nodes); err != nil {
		return nil, err
	}
	if err := encoder.Encode(types.U64(p.MerkleProofOfReceipt.Size)); err != nil {
		return nil, err
	}
	if err := encoder.Encode(types.U64(p.MerkleProofOfReceipt.TransactionIndex)); err != nil {
		return nil, err
	}
	if err := encoder.Encode(types.U64(p.TransactionIndex)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeEventProof parses the wire form of an event proof. It rejects
// truncated input, trailing bytes and length prefixes larger than the input,
// and never panics.
func DecodeEventProof(data []byte) (proof *ethereum.EventProof, err error) {
	defer func() {
		if r := recover(); r != nil {
			proof, err = nil, fmt.Errorf("decode event proof: %v", r)
		}
	}()

	d := newBoundedDecoder(data)
	p := ethereum.EventProof{}

	if err := decodeHeader(d, &p.BlockHeader); err != nil {
		return nil, fmt.Errorf("block header: %w", err)
	}
	if err := d.fixed(p.BlockHash[:]); err != nil {
		return nil, fmt.Errorf("block hash: %w", err)
	}
	if err := decodeReceipt(d, &p.TransactionReceipt); err != nil {
		return nil, fmt.Errorf("receipt: %w", err)
	}
	if err := d.fixed(p.TransactionReceiptHash[:]); err != nil {
		return nil, fmt.Errorf("receipt hash: %w", err)
	}

	nodes, err := d.length(1)
	if err != nil {
		return nil, fmt.Errorf("proof: %w", err)
	}
	p.MerkleProofOfReceipt.Nodes = make([][]byte, 0, nodes)
	for i := 0; i < nodes; i++ {
		node, err := d.bytes()
		if err != nil {
			return nil, fmt.Errorf("proof node %d: %w", i, err)
		}
		p.MerkleProofOfReceipt.Nodes = append(p.MerkleProofOfReceipt.Nodes, node)
	}

	var size, proofIndex, index types.U64
	for _, v := range []*types.U64{&size, &proofIndex, &index} {
		if err := d.Decode(v); err != nil {
			return nil, fmt.Errorf("proof: %w", err)
		}
	}
	p.MerkleProofOfReceipt.Size = uint64(size)
	p.MerkleProofOfReceipt.TransactionIndex = uint64(proofIndex)
	p.TransactionIndex = uint64(index)

	if err := d.done(); err != nil {
		return nil, err
	}
	return &p, nil
}

func encodeU256(encoder *scale.Encoder, x *big.Int) error {
	if x == nil {
		x = new(big.Int)
	}
	if x.Sign() < 0 || x.BitLen() > 256 {
		return ErrIntegerOverflow
	}
	return encoder.Encode(types.NewU256(*x))
}

func decodeU256(d *boundedDecoder) (*big.Int, error) {
	var le [32]byte
	if err := d.fixed(le[:]); err != nil {
		return nil, err
	}
	be := make([]byte, 32)
	for i := range le {
		be[31-i] = le[i]
	}
	return new(big.Int).SetBytes(be), nil
}

func encodeHeader(encoder *scale.Encoder, h *ethereum.ExecutionHeader) error {
	for _, hash := range [][]byte{h.ParentHash[:], h.OmmersHash[:]} {
		if err := encoder.Encode(types.NewH256(hash)); err != nil {
			return err
		}
	}
	if err := encoder.Encode(types.NewH160(h.Beneficiary[:])); err != nil {
		return err
	}
	for _, hash := range [][]byte{h.StateRoot[:], h.TransactionsRoot[:], h.ReceiptsRoot[:]} {
		if err := encoder.Encode(types.NewH256(hash)); err != nil {
			return err
		}
	}
	if err := encoder.Encode([gethTypes.BloomByteLength]byte(h.LogsBloom)); err != nil {
		return err
	}
	if err := encodeU256(encoder, h.Difficulty); err != nil {
		return err
	}
	for _, x := range []uint64{h.Number, h.GasLimit, h.GasUsed, h.Timestamp} {
		if err := encoder.Encode(types.U64(x)); err != nil {
			return err
		}
	}
	if err := encoder.Encode(h.ExtraData); err != nil {
		return err
	}
	if err := encoder.Encode(types.H256(h.MixHash)); err != nil {
		return err
	}
	if err := encoder.Encode([8]byte(h.Nonce)); err != nil {
		return err
	}

	if err := encoder.PushByte(optionTag(h.BaseFee != nil)); err != nil {
		return err
	}
	if h.BaseFee != nil {
		if err := encodeU256(encoder, h.BaseFee); err != nil {
			return err
		}
	}
	if err := encodeOptionHash(encoder, h.WithdrawalsRoot); err != nil {
		return err
	}
	if err := encodeOptionU64(encoder, h.BlobGasUsed); err != nil {
		return err
	}
	if err := encodeOptionU64(encoder, h.ExcessBlobGas); err != nil {
		return err
	}
	if err := encodeOptionHash(encoder, h.ParentBeaconBlockRoot); err != nil {
		return err
	}
	return encodeOptionHash(encoder, h.RequestsHash)
}

func optionTag(has bool) byte {
	if has {
		return 1
	}
	return 0
}

func encodeOptionHash(encoder *scale.Encoder, h *gethCommon.Hash) error {
	if h == nil {
		return encoder.EncodeOption(false, nil)
	}
	return encoder.EncodeOption(true, types.H256(*h))
}

func encodeOptionU64(encoder *scale.Encoder, x *uint64) error {
	if x == nil {
		return encoder.EncodeOption(false, nil)
	}
	return encoder.EncodeOption(true, types.U64(*x))
}

func (d *boundedDecoder) option() (bool, error) {
	tag, err := d.r.ReadByte()
	if err != nil {
		return false, err
	}
	switch tag {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("invalid option tag %d", tag)
	}
}

func (d *boundedDecoder) optionHash() (*gethCommon.Hash, error) {
	has, err := d.option()
	if err != nil || !has {
		return nil, err
	}
	var h gethCommon.Hash
	if err := d.fixed(h[:]); err != nil {
		return nil, err
	}
	return &h, nil
}

func (d *boundedDecoder) optionU64() (*uint64, error) {
	has, err := d.option()
	if err != nil || !has {
		return nil, err
	}
	var x types.U64
	if err := d.Decode(&x); err != nil {
		return nil, err
	}
	v := uint64(x)
	return &v, nil
}

func decodeHeader(d *boundedDecoder, h *ethereum.ExecutionHeader) error {
	for _, out := range [][]byte{h.ParentHash[:], h.OmmersHash[:], h.Beneficiary[:], h.StateRoot[:],
		h.TransactionsRoot[:], h.ReceiptsRoot[:], h.LogsBloom[:]} {
		if err := d.fixed(out); err != nil {
			return err
		}
	}

	difficulty, err := decodeU256(d)
	if err != nil {
		return err
	}
	h.Difficulty = difficulty

	var number, gasLimit, gasUsed, timestamp types.U64
	for _, v := range []*types.U64{&number, &gasLimit, &gasUsed, &timestamp} {
		if err := d.Decode(v); err != nil {
			return err
		}
	}
	h.Number, h.GasLimit, h.GasUsed, h.Timestamp = uint64(number), uint64(gasLimit), uint64(gasUsed), uint64(timestamp)

	if h.ExtraData, err = d.bytes(); err != nil {
		return err
	}
	if err := d.fixed(h.MixHash[:]); err != nil {
		return err
	}
	if err := d.fixed(h.Nonce[:]); err != nil {
		return err
	}

	hasBaseFee, err := d.option()
	if err != nil {
		return err
	}
	if hasBaseFee {
		if h.BaseFee, err = decodeU256(d); err != nil {
			return err
		}
	}
	if h.WithdrawalsRoot, err = d.optionHash(); err != nil {
		return err
	}
	if h.BlobGasUsed, err = d.optionU64(); err != nil {
		return err
	}
	if h.ExcessBlobGas, err = d.optionU64(); err != nil {
		return err
	}
	if h.ParentBeaconBlockRoot, err = d.optionHash(); err != nil {
		return err
	}
	if h.RequestsHash, err = d.optionHash(); err != nil {
		return err
	}
	return nil
}

func encodeReceipt(encoder *scale.Encoder, r *ethereum.TransactionReceipt) error {
	if err := encoder.PushByte(byte(r.TxType)); err != nil {
		return err
	}
	if err := encoder.Encode(r.Success); err != nil {
		return err
	}
	if err := encoder.Encode(types.U64(r.CumulativeGasUsed)); err != nil {
		return err
	}
	if err := encoder.Encode([gethTypes.BloomByteLength]byte(r.Bloom)); err != nil {
		return err
	}
	if err := encoder.EncodeUintCompact(*big.NewInt(int64(len(r.Logs)))); err != nil {
		return err
	}
	for i := range r.Logs {
		l := &r.Logs[i]
		if err := encoder.Encode(types.NewH160(l.Address[:])); err != nil {
			return err
		}
		topics := make([]types.H256, len(l.Topics))
		for j, topic := range l.Topics {
			topics[j] = types.H256(topic)
		}
		if err := encoder.Encode(topics); err != nil {
			return err
		}
		if err := encoder.Encode(l.Data); err != nil {
			return err
		}
	}
	return nil
}

const minLogSize = 20 + 1 + 1

func decodeReceipt(d *boundedDecoder, r *ethereum.TransactionReceipt) error {
	txType, err := d.r.ReadByte()
	if err != nil {
		return err
	}
	if txType > byte(ethereum.BlobTxType) {
		return fmt.Errorf("unsupported receipt type %d", txType)
	}
	r.TxType = ethereum.TxType(txType)

	success, err := d.option()
	if err != nil {
		return fmt.Errorf("success flag: %w", err)
	}
	r.Success = success

	var gas types.U64
	if err := d.Decode(&gas); err != nil {
		return err
	}
	r.CumulativeGasUsed = uint64(gas)
	if err := d.fixed(r.Bloom[:]); err != nil {
		return err
	}

	logs, err := d.length(minLogSize)
	if err != nil {
		return fmt.Errorf("logs: %w", err)
	}
	r.Logs = make([]ethereum.Log, logs)
	for i := range r.Logs {
		l := &r.Logs[i]
		if err := d.fixed(l.Address[:]); err != nil {
			return fmt.Errorf("log %d: %w", i, err)
		}
		topics, err := d.length(32)
		if err != nil {
			return fmt.Errorf("log %d topics: %w", i, err)
		}
		l.Topics = make([]gethCommon.Hash, topics)
		for j := range l.Topics {
			if err := d.fixed(l.Topics[j][:]); err != nil {
				return fmt.Errorf("log %d topic %d: %w", i, j, err)
			}
		}
		if l.Data, err = d.bytes(); err != nil {
			return fmt.Errorf("log %d data: %w", i, err)
		}
	}
	return nil
}
