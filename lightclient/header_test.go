package lightclient

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) announce(anchor int) {
	slot := h.client.FinalizedBeaconBlockSlot() + 4*h.network.Spec.SlotsInEpoch
	update := h.makeUpdate(updateOpts{activeSlot: slot, anchor: h.chain[anchor]})
	require.NoError(h.t, h.client.SubmitUpdate(alice, update))
	require.Equal(h.t, SubmitHeader, h.client.Mode())
}

func TestSubmitExecutionHeader_FinalizesSegment(t *testing.T) {
	h := newHarness(t, noBLS)
	h.announce(10)

	h.submitSegment(10, 2)
	tail, ok := h.client.UnfinalizedTailBlockNumber()
	require.True(t, ok)
	assert.Equal(t, h.chain[2].Number, tail)
	assert.Equal(t, h.chain[0].Number, h.client.LastBlockNumber())
	_, finalized, err := h.client.BlockHashSafe(h.chain[5].Number)
	require.NoError(t, err)
	assert.False(t, finalized)

	h.submitSegment(1, 1)

	assert.Equal(t, h.chain[10].Number, h.client.LastBlockNumber())
	assert.Equal(t, SubmitLightClientUpdate, h.client.Mode())
	assert.Empty(t, h.client.Store().UnfinalizedHeaders)
	_, ok = h.client.UnfinalizedTailBlockNumber()
	assert.False(t, ok)

	for _, header := range h.chain[:11] {
		hash, ok, err := h.client.BlockHashSafe(header.Number)
		require.NoError(t, err)
		require.True(t, ok, "header %d", header.Number)
		assert.Equal(t, header.Hash(), hash)
	}
	_, ok, err = h.client.BlockHashSafe(h.chain[11].Number)
	require.NoError(t, err)
	assert.False(t, ok)

	info := h.client.Store().FinalizedExecutionHeader
	assert.Equal(t, h.chain[10].ParentHash, info.ParentHash)
	assert.Equal(t, bob, info.Submitter)
}

func TestSubmitExecutionHeader_DirectChild(t *testing.T) {
	h := newHarness(t, noBLS)
	h.announce(1)

	h.submitSegment(1, 1)
	assert.Equal(t, h.chain[1].Number, h.client.LastBlockNumber())
	assert.Equal(t, SubmitLightClientUpdate, h.client.Mode())
}

func TestSubmitExecutionHeader_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		submit func(h *harness) error
	}{
		{"skipped header", func(h *harness) error {
			require.NoError(h.t, h.client.SubmitExecutionHeader(bob, h.chain[6]))
			return h.client.SubmitExecutionHeader(bob, h.chain[4])
		}},
		{"header from a fork", func(h *harness) error {
			fork := *h.chain[6]
			fork.Difficulty = big.NewInt(99)
			return h.client.SubmitExecutionHeader(bob, &fork)
		}},
		{"same header twice", func(h *harness) error {
			require.NoError(h.t, h.client.SubmitExecutionHeader(bob, h.chain[6]))
			return h.client.SubmitExecutionHeader(bob, h.chain[6])
		}},
		{"child of the anchor", func(h *harness) error {
			return h.client.SubmitExecutionHeader(bob, h.chain[7])
		}},
		{"already finalized number", func(h *harness) error {
			h.submitSegment(6, 2)
			return h.client.SubmitExecutionHeader(bob, h.chain[0])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, noBLS)
			h.announce(6)
			require.ErrorIs(t, tt.submit(h), ErrBlockHashesDoNotMatch)
		})
	}
}

func TestSubmitExecutionHeader_ParentOfFinalizedChildMismatch(t *testing.T) {
	h := newHarness(t, noBLS)
	// A header that hashes to the announced anchor but whose parent is not
	// the finalized header can only come from an anchor on another chain.
	other := makeChain(firstBlock, 3)
	other[1].ParentHash = common.Hash{0x42}
	h.chain[1] = other[1]
	h.announce(1)

	require.ErrorIs(t, h.client.SubmitExecutionHeader(bob, other[1]), ErrBlockHashesDoNotMatch)
	assert.Equal(t, SubmitHeader, h.client.Mode())
}

func TestSubmitExecutionHeader_WrongMode(t *testing.T) {
	h := newHarness(t, noBLS)
	require.ErrorIs(t, h.client.SubmitExecutionHeader(bob, h.chain[1]), ErrInvalidClientMode)
}

func TestSubmitExecutionHeader_GarbageCollection(t *testing.T) {
	const threshold = 5
	h := newHarness(t, harnessOpts{network: "goerli", validate: true, gcThreshold: threshold})

	h.announce(10)
	h.submitSegment(10, 1)

	h.announce(30)
	h.submitSegment(30, 11)

	head := h.chain[30].Number
	require.Equal(t, head, h.client.LastBlockNumber())

	for _, header := range h.chain[:31] {
		_, ok, err := h.client.BlockHashSafe(header.Number)
		require.NoError(t, err)
		if header.Number < head-threshold {
			assert.False(t, ok, "header %d should be collected", header.Number)
		} else {
			assert.True(t, ok, "header %d should be kept", header.Number)
		}
	}
}

func TestSubmitExecutionHeader_GarbageCollectionStopsAtGap(t *testing.T) {
	h := newHarness(t, harnessOpts{network: "goerli", validate: true, gcThreshold: 3})

	// An entry below a gap survives collection.
	orphan := common.Hash{0x99}
	require.NoError(t, h.blocks.SetBlockHash(firstBlock-10, orphan))

	h.announce(12)
	h.submitSegment(12, 1)

	_, ok, err := h.client.BlockHashSafe(firstBlock - 10)
	require.NoError(t, err)
	assert.True(t, ok)

	_, ok, err = h.client.BlockHashSafe(firstBlock + 8)
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = h.client.BlockHashSafe(firstBlock + 9)
	require.NoError(t, err)
	assert.True(t, ok)
}
