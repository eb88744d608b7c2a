package json

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggxchain/transaction-receipt-relayer/beacon/state"
	"github.com/ggxchain/transaction-receipt-relayer/chain/ethereum"
	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
)

func committee(size int, seed byte) state.SyncCommittee {
	c := state.SyncCommittee{Pubkeys: make([][48]byte, size)}
	for i := range c.Pubkeys {
		c.Pubkeys[i][0] = seed
		c.Pubkeys[i][47] = byte(i)
	}
	c.AggregatePubkey[0] = seed + 1
	return c
}

func header(slot uint64) state.BeaconBlockHeader {
	return state.BeaconBlockHeader{
		Slot:          slot,
		ProposerIndex: 7,
		ParentRoot:    [32]byte{1},
		StateRoot:     [32]byte{2},
		BodyRoot:      [32]byte{3},
	}
}

func update() *lightclient.LightClientUpdate {
	u := &lightclient.LightClientUpdate{
		AttestedBeaconHeader: header(130),
		SyncAggregate: lightclient.SyncAggregate{
			SyncCommitteeBits:      []byte{0xff, 0xff, 0xff, 0x7f},
			SyncCommitteeSignature: [96]byte{0xaa},
		},
		SignatureSlot: 131,
		FinalityUpdate: lightclient.FinalizedHeaderUpdate{
			HeaderUpdate: lightclient.HeaderUpdate{
				BeaconHeader:        header(64),
				ExecutionBlockHash:  common.HexToHash("0x01"),
				ExecutionHashBranch: [][32]byte{{4}, {5}, {6}, {7}},
			},
			FinalityBranch: [][32]byte{{8}, {9}, {10}, {11}, {12}, {13}},
		},
	}
	return u
}

func roundTrip(t *testing.T, in, out interface{}) {
	data, err := json.Marshal(in)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestLightClientUpdate(t *testing.T) {
	tests := []struct {
		name      string
		committee *lightclient.SyncCommitteeUpdate
	}{
		{"finality only", nil},
		{"with committee", &lightclient.SyncCommitteeUpdate{
			NextSyncCommittee:       committee(32, 9),
			NextSyncCommitteeBranch: [][32]byte{{1}, {2}, {3}, {4}, {5}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := update()
			want.SyncCommitteeUpdate = tt.committee

			var decoded LightClientUpdate
			roundTrip(t, NewLightClientUpdate(want), &decoded)

			got, err := decoded.ToLightClient()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLightClientUpdate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(u *LightClientUpdate)
	}{
		{"short signature", func(u *LightClientUpdate) {
			u.SyncAggregate.SyncCommitteeSignature = "0xaa"
		}},
		{"bad bits", func(u *LightClientUpdate) {
			u.SyncAggregate.SyncCommitteeBits = "0xz"
		}},
		{"short parent root", func(u *LightClientUpdate) {
			u.AttestedBeaconHeader.ParentRoot = "0x01"
		}},
		{"short branch node", func(u *LightClientUpdate) {
			u.FinalityUpdate.FinalityBranch[2] = "0x"
		}},
		{"short execution hash", func(u *LightClientUpdate) {
			u.FinalityUpdate.HeaderUpdate.ExecutionBlockHash = "0x0102"
		}},
		{"short committee key", func(u *LightClientUpdate) {
			u.SyncCommitteeUpdate = &SyncCommitteeUpdate{
				NextSyncCommittee: SyncCommittee{
					Pubkeys:         []string{"0x" + strings.Repeat("00", 48), "0x00"},
					AggregatePubkey: "0x" + strings.Repeat("00", 48),
				},
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewLightClientUpdate(update())
			tt.mutate(u)
			_, err := u.ToLightClient()
			require.Error(t, err)
		})
	}
}

func TestInitInput(t *testing.T) {
	root := common.HexToHash("0xbeac")
	blobGas := uint64(0)
	executionHeader := &ethereum.ExecutionHeader{
		ParentHash:            common.HexToHash("0x0a"),
		OmmersHash:            gethTypes.EmptyUncleHash,
		StateRoot:             common.HexToHash("0x0b"),
		TransactionsRoot:      gethTypes.EmptyTxsHash,
		ReceiptsRoot:          gethTypes.EmptyReceiptsHash,
		Difficulty:            big.NewInt(1),
		Number:                1000,
		GasLimit:              30_000_000,
		Timestamp:             1_700_000_000,
		ExtraData:             []byte("checkpoint"),
		BaseFee:               big.NewInt(7),
		WithdrawalsRoot:       &gethTypes.EmptyWithdrawalsHash,
		BlobGasUsed:           &blobGas,
		ExcessBlobGas:         &blobGas,
		ParentBeaconBlockRoot: &root,
	}
	signer := lightclient.AccountID{0xd4, 0x35}

	want := &lightclient.InitInput{
		Network:                  "goerli",
		FinalizedExecutionHeader: *executionHeader,
		FinalizedBeaconHeader: lightclient.ExtendedBeaconHeader{
			Header:             header(64),
			BeaconBlockRoot:    root,
			ExecutionBlockHash: executionHeader.Hash(),
		},
		CurrentSyncCommittee: committee(32, 1),
		NextSyncCommittee:    committee(32, 2),
		HashesGCThreshold:    500,
		TrustedSigner:        &signer,
	}

	var decoded InitInput
	roundTrip(t, NewInitInput(want), &decoded)

	got, err := decoded.ToLightClient()
	require.NoError(t, err)
	assert.Equal(t, executionHeader.Hash(), got.FinalizedExecutionHeader.Hash())
	assert.Equal(t, want.FinalizedBeaconHeader, got.FinalizedBeaconHeader)
	assert.Equal(t, want.CurrentSyncCommittee, got.CurrentSyncCommittee)
	assert.Equal(t, want.NextSyncCommittee, got.NextSyncCommittee)
	assert.Equal(t, want.HashesGCThreshold, got.HashesGCThreshold)
	require.NotNil(t, got.TrustedSigner)
	assert.Equal(t, signer, *got.TrustedSigner)

	decoded.FinalizedExecutionHeader = nil
	_, err = decoded.ToLightClient()
	require.ErrorIs(t, err, ErrMissingExecutionHeader)
}

func TestParseExecutionHeaders(t *testing.T) {
	first := &gethTypes.Header{
		ParentHash: common.HexToHash("0x01"),
		Difficulty: big.NewInt(0),
		Number:     big.NewInt(10),
		GasLimit:   30_000_000,
		Extra:      []byte{},
		BaseFee:    big.NewInt(7),
	}
	second := &gethTypes.Header{
		ParentHash: first.Hash(),
		Difficulty: big.NewInt(0),
		Number:     big.NewInt(11),
		GasLimit:   30_000_000,
		Extra:      []byte{},
		BaseFee:    big.NewInt(7),
	}

	single, err := json.Marshal(first)
	require.NoError(t, err)
	headers, err := ParseExecutionHeaders(single)
	require.NoError(t, err)
	require.Len(t, headers, 1)
	assert.Equal(t, first.Hash(), headers[0].Hash())

	list, err := json.Marshal([]*gethTypes.Header{second, first})
	require.NoError(t, err)
	headers, err = ParseExecutionHeaders(append([]byte("\n  "), list...))
	require.NoError(t, err)
	require.Len(t, headers, 2)
	assert.Equal(t, uint64(11), headers[0].Number)
	assert.Equal(t, second.Hash(), headers[0].Hash())
	assert.Equal(t, first.Hash(), headers[1].Hash())

	_, err = ParseExecutionHeaders([]byte("[]"))
	require.ErrorIs(t, err, ErrNoHeaders)
	_, err = ParseExecutionHeaders([]byte(`{"number": "0x1"}`))
	require.Error(t, err)
}
