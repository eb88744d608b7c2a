package scale

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggxchain/transaction-receipt-relayer/beacon/state"
	"github.com/ggxchain/transaction-receipt-relayer/chain/ethereum"
	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
)

// Offset of the extra data length prefix in an encoded proof.
const extraDataOffset = 32 + 32 + 20 + 3*32 + 256 + 32 + 4*8

func makeProof(t *testing.T, index uint64) *ethereum.EventProof {
	receipts := make([]*ethereum.TransactionReceipt, 4)
	for i := range receipts {
		receipts[i] = &ethereum.TransactionReceipt{
			TxType:            ethereum.DynamicFeeTxType,
			Success:           i%2 == 0,
			CumulativeGasUsed: uint64(21_000 * (i + 1)),
			Logs: []ethereum.Log{{
				Address: common.Address{0xaa, byte(i)},
				Topics:  []common.Hash{{0x01}, {0x02, byte(i)}},
				Data:    []byte{byte(i), 0xff},
			}},
		}
	}
	receiptsTrie := ethereum.ReceiptsTrie(receipts)

	withdrawals := common.Hash{0x77}
	blobGas, excessBlobGas := uint64(131072), uint64(0)
	beaconRoot := common.Hash{0x88}
	header := &ethereum.ExecutionHeader{
		ParentHash:            common.Hash{0x11},
		Beneficiary:           common.Address{0x22},
		StateRoot:             common.Hash{0x33},
		TransactionsRoot:      common.Hash{0x44},
		ReceiptsRoot:          receiptsTrie.Root(),
		Difficulty:            big.NewInt(0),
		Number:                19_000_000,
		GasLimit:              30_000_000,
		GasUsed:               84_000,
		Timestamp:             1_700_000_000,
		ExtraData:             []byte("relay"),
		BaseFee:               big.NewInt(7_000_000_000),
		WithdrawalsRoot:       &withdrawals,
		BlobGasUsed:           &blobGas,
		ExcessBlobGas:         &excessBlobGas,
		ParentBeaconBlockRoot: &beaconRoot,
	}

	proof, err := ethereum.MakeEventProof(header, receipts, receiptsTrie, index)
	require.NoError(t, err)
	return proof
}

func TestEventProof_RoundTrip(t *testing.T) {
	for _, index := range []uint64{0, 3} {
		proof := makeProof(t, index)
		encoded, err := EncodeEventProof(proof)
		require.NoError(t, err)

		decoded, err := DecodeEventProof(encoded)
		require.NoError(t, err)
		require.NoError(t, decoded.Validate())
		assert.Equal(t, proof.BlockHash, decoded.BlockHash)
		assert.Equal(t, proof.TransactionReceipt.Logs, decoded.TransactionReceipt.Logs)
		assert.Equal(t, proof.MerkleProofOfReceipt.Nodes, decoded.MerkleProofOfReceipt.Nodes)
		assert.Equal(t, index, decoded.TransactionIndex)

		reencoded, err := EncodeEventProof(decoded)
		require.NoError(t, err)
		assert.Equal(t, encoded, reencoded)
	}
}

func TestEventProof_PreLondonHeader(t *testing.T) {
	proof := makeProof(t, 1)
	proof.BlockHeader.BaseFee = nil
	proof.BlockHeader.WithdrawalsRoot = nil
	proof.BlockHeader.BlobGasUsed = nil
	proof.BlockHeader.ExcessBlobGas = nil
	proof.BlockHeader.ParentBeaconBlockRoot = nil
	proof.BlockHash = proof.BlockHeader.Hash()

	encoded, err := EncodeEventProof(proof)
	require.NoError(t, err)
	decoded, err := DecodeEventProof(encoded)
	require.NoError(t, err)
	assert.Nil(t, decoded.BlockHeader.BaseFee)
	assert.Nil(t, decoded.BlockHeader.ParentBeaconBlockRoot)
	require.NoError(t, decoded.Validate())
}

func TestEventProof_PragueHeader(t *testing.T) {
	proof := makeProof(t, 2)
	requests := common.Hash{0x99}
	proof.BlockHeader.RequestsHash = &requests
	proof.BlockHash = proof.BlockHeader.Hash()

	encoded, err := EncodeEventProof(proof)
	require.NoError(t, err)
	decoded, err := DecodeEventProof(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded.BlockHeader.RequestsHash)
	assert.Equal(t, requests, *decoded.BlockHeader.RequestsHash)
	require.NoError(t, decoded.Validate())

	cancun, err := EncodeEventProof(makeProof(t, 2))
	require.NoError(t, err)
	assert.Len(t, encoded, len(cancun)+32)
}

func TestDecodeEventProof_Malformed(t *testing.T) {
	encoded, err := EncodeEventProof(makeProof(t, 2))
	require.NoError(t, err)

	t.Run("truncated", func(t *testing.T) {
		for n := 0; n < len(encoded); n++ {
			_, err := DecodeEventProof(encoded[:n])
			require.Error(t, err, "prefix of %d bytes", n)
		}
	})

	t.Run("trailing bytes", func(t *testing.T) {
		_, err := DecodeEventProof(append(append([]byte{}, encoded...), 0))
		require.ErrorIs(t, err, ErrTrailingBytes)
	})

	t.Run("length prefix beyond input", func(t *testing.T) {
		require.Equal(t, byte(len("relay")<<2), encoded[extraDataOffset])
		hostile := append([]byte{}, encoded[:extraDataOffset]...)
		hostile = append(hostile, 0xfe, 0xff, 0xff, 0xff)
		hostile = append(hostile, encoded[extraDataOffset+1:]...)

		_, err := DecodeEventProof(hostile)
		require.ErrorIs(t, err, ErrLengthBound)
	})

	t.Run("invalid option tag", func(t *testing.T) {
		baseFeeTag := extraDataOffset + 1 + len("relay") + 32 + 8
		require.Equal(t, byte(1), encoded[baseFeeTag])
		corrupted := append([]byte{}, encoded...)
		corrupted[baseFeeTag] = 2

		_, err := DecodeEventProof(corrupted)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := DecodeEventProof([]byte{0xde, 0xad, 0xbe, 0xef})
		require.Error(t, err)
	})
}

func TestEncodeEventProof_RejectsOversizedInteger(t *testing.T) {
	proof := makeProof(t, 0)
	proof.BlockHeader.Difficulty = new(big.Int).Lsh(big.NewInt(1), 256)
	_, err := EncodeEventProof(proof)
	require.ErrorIs(t, err, ErrIntegerOverflow)
}

func makeStore() *lightclient.Store {
	committee := state.SyncCommittee{
		Pubkeys:         [][48]byte{{1}, {2}, {3}},
		AggregatePubkey: [48]byte{4},
	}
	tail := common.Hash{0x05}
	signer := lightclient.AccountID{9}
	return &lightclient.Store{
		Network: "sepolia",
		FinalizedBeaconHeader: lightclient.ExtendedBeaconHeader{
			Header:             state.BeaconBlockHeader{Slot: 4_000_000, ProposerIndex: 12, BodyRoot: [32]byte{6}},
			BeaconBlockRoot:    common.Hash{7},
			ExecutionBlockHash: common.Hash{8},
		},
		FinalizedExecutionHeader: lightclient.ExecutionHeaderInfo{ParentHash: common.Hash{10}, BlockNumber: 5_000_000, Submitter: lightclient.AccountID{1}},
		CurrentSyncCommittee:     committee,
		NextSyncCommittee:        committee,
		UnfinalizedHeaders: map[common.Hash]lightclient.ExecutionHeaderInfo{
			{0x03}: {ParentHash: common.Hash{0x04}, BlockNumber: 5_000_003, Submitter: lightclient.AccountID{2}},
			{0x04}: {ParentHash: common.Hash{0x05}, BlockNumber: 5_000_002, Submitter: lightclient.AccountID{2}},
			{0x05}: {ParentHash: common.Hash{0x06}, BlockNumber: 5_000_001, Submitter: lightclient.AccountID{3}},
		},
		UnfinalizedTail: &tail,
		Mode:            lightclient.SubmitHeader,
		Paused:          true,
		Config: lightclient.Config{
			ValidateUpdates:     true,
			VerifyBLSSignatures: false,
			HashesGCThreshold:   51_000,
			TrustedSigner:       &signer,
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	store := makeStore()
	encoded, err := EncodeStore(store)
	require.NoError(t, err)

	decoded, err := DecodeStore(encoded)
	require.NoError(t, err)
	assert.Equal(t, store, decoded)

	for i := 0; i < 10; i++ {
		again, err := EncodeStore(makeStore())
		require.NoError(t, err)
		require.Equal(t, encoded, again)
	}
}

func TestStore_WithoutOptionalFields(t *testing.T) {
	store := makeStore()
	store.UnfinalizedHeaders = map[common.Hash]lightclient.ExecutionHeaderInfo{}
	store.UnfinalizedTail = nil
	store.Config.TrustedSigner = nil
	store.Mode = lightclient.SubmitLightClientUpdate

	encoded, err := EncodeStore(store)
	require.NoError(t, err)
	decoded, err := DecodeStore(encoded)
	require.NoError(t, err)
	assert.Equal(t, store, decoded)
}
