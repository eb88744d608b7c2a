package lightclient

import (
	"crypto/sha256"
	"encoding/binary"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	blst "github.com/supranational/blst/bindings/go"

	"github.com/ggxchain/transaction-receipt-relayer/beacon/config"
	"github.com/ggxchain/transaction-receipt-relayer/beacon/state"
	"github.com/ggxchain/transaction-receipt-relayer/chain/ethereum"
	"github.com/ggxchain/transaction-receipt-relayer/crypto/bls"
)

var (
	alice = AccountID{1}
	bob   = AccountID{2}
)

func testHash(parts ...uint64) [32]byte {
	buf := make([]byte, 8*len(parts))
	for i, p := range parts {
		binary.BigEndian.PutUint64(buf[8*i:], p)
	}
	return sha256.Sum256(buf)
}

type keySet struct {
	keys      []*blst.SecretKey
	committee state.SyncCommittee
}

var (
	keySetsMu sync.Mutex
	keySets   = map[[2]uint64]*keySet{}
)

// committeeKeys returns a deterministic committee, generated once per test
// binary.
func committeeKeys(t *testing.T, size uint64, seed uint64) *keySet {
	keySetsMu.Lock()
	defer keySetsMu.Unlock()

	if ks, ok := keySets[[2]uint64{size, seed}]; ok {
		return ks
	}

	ks := &keySet{
		keys:      make([]*blst.SecretKey, size),
		committee: state.SyncCommittee{Pubkeys: make([][48]byte, size)},
	}
	pubkeys := make([]*blst.P1Affine, size)
	for i := range ks.keys {
		ikm := testHash(seed, uint64(i))
		sk := blst.KeyGen(ikm[:])
		require.NotNil(t, sk)
		ks.keys[i] = sk
		pubkeys[i] = new(blst.P1Affine).From(sk)
		copy(ks.committee.Pubkeys[i][:], pubkeys[i].Compress())
	}
	agg := new(blst.P1Aggregate)
	require.True(t, agg.Aggregate(pubkeys, false))
	copy(ks.committee.AggregatePubkey[:], agg.ToAffine().Compress())

	keySets[[2]uint64{size, seed}] = ks
	return ks
}

func makeChain(start uint64, n int) []*ethereum.ExecutionHeader {
	chain := make([]*ethereum.ExecutionHeader, n)
	parent := common.Hash(testHash(start, 0xffff))
	for i := range chain {
		withdrawals := common.Hash(testHash(start, uint64(i), 3))
		beaconRoot := common.Hash(testHash(start, uint64(i), 4))
		blobGas, excessBlobGas := uint64(131072), uint64(0)
		chain[i] = &ethereum.ExecutionHeader{
			ParentHash:            parent,
			OmmersHash:            common.HexToHash("0x1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347"),
			Beneficiary:           common.HexToAddress("0x95222290dd7278aa3ddd389cc1e1d165cc4bafe5"),
			StateRoot:             testHash(start, uint64(i), 1),
			ReceiptsRoot:          testHash(start, uint64(i), 2),
			Difficulty:            big.NewInt(0),
			Number:                start + uint64(i),
			GasLimit:              30_000_000,
			GasUsed:               21_000 * uint64(i),
			Timestamp:             1_700_000_000 + 12*uint64(i),
			ExtraData:             []byte("beaverbuild.org"),
			BaseFee:               big.NewInt(int64(7 + i)),
			WithdrawalsRoot:       &withdrawals,
			BlobGasUsed:           &blobGas,
			ExcessBlobGas:         &excessBlobGas,
			ParentBeaconBlockRoot: &beaconRoot,
		}
		parent = chain[i].Hash()
	}
	return chain
}

// Field counts of the beacon containers as each fork defines them.
var (
	stateFields = map[config.ForkName]int{
		config.Phase0: 21, config.Altair: 24, config.Bellatrix: 25, config.Capella: 28,
		config.Deneb: 28, config.Electra: 37, config.Fulu: 38,
	}
	bodyFields = map[config.ForkName]int{
		config.Bellatrix: 10, config.Capella: 11, config.Deneb: 12, config.Electra: 13, config.Fulu: 13,
	}
	payloadFields = map[config.ForkName]int{
		config.Bellatrix: 14, config.Capella: 15, config.Deneb: 17, config.Electra: 17, config.Fulu: 17,
	}
)

// Container field positions used by the light client.
const (
	finalizedCheckpointField = 20
	nextSyncCommitteeField   = 23
	executionPayloadField    = 9
	blockHashField           = 12
)

// containerLeaves returns count field roots padded with zero chunks to the
// next power of two.
func containerLeaves(count int, fill func(i int) [32]byte) [][32]byte {
	width := 1
	for width < count {
		width <<= 1
	}
	leaves := make([][32]byte, width)
	for i := 0; i < count; i++ {
		leaves[i] = fill(i)
	}
	return leaves
}

func (h *harness) forkAt(slot uint64) config.ForkName {
	return h.network.ForkAt(h.network.EpochAtSlot(slot)).Name
}

// merkleLayers builds every layer of a binary tree over a power of two
// number of leaves, leaves first.
func merkleLayers(leaves [][32]byte) [][][32]byte {
	layers := [][][32]byte{leaves}
	for layer := leaves; len(layer) > 1; {
		next := make([][32]byte, len(layer)/2)
		for i := range next {
			next[i] = sha256.Sum256(append(layer[2*i][:], layer[2*i+1][:]...))
		}
		layers = append(layers, next)
		layer = next
	}
	return layers
}

func merkleBranch(layers [][][32]byte, index int) [][32]byte {
	branch := make([][32]byte, 0, len(layers)-1)
	for _, layer := range layers[:len(layers)-1] {
		branch = append(branch, layer[index^1])
		index >>= 1
	}
	return branch
}

type harnessOpts struct {
	network string
	// Sync committee period of the checkpoint. Zero means 900.
	period        uint64
	validate      bool
	verifyBLS     bool
	gcThreshold   uint64
	trustedSigner *AccountID
}

type harness struct {
	t       *testing.T
	network *config.Network
	sign    bool
	keys    []*keySet
	period  uint64
	chain   []*ethereum.ExecutionHeader
	blocks  MemoryBlockIndex
	client  *Client
	nonce   uint64
}

const firstBlock = 18_000_000

func newHarness(t *testing.T, opts harnessOpts) *harness {
	network, err := config.Lookup(opts.network)
	require.NoError(t, err)

	size := network.Spec.SyncCommitteeSize
	h := &harness{
		t:       t,
		network: network,
		sign:    opts.verifyBLS && opts.trustedSigner == nil,
		period:  opts.period,
		keys: []*keySet{
			committeeKeys(t, size, 1),
			committeeKeys(t, size, 2),
			committeeKeys(t, size, 3),
		},
		chain:  makeChain(firstBlock, 40),
		blocks: MemoryBlockIndex{},
	}
	if h.period == 0 {
		h.period = 900
	}

	beacon := state.BeaconBlockHeader{
		Slot:          h.periodStart(0) + network.Spec.SlotsInEpoch,
		ProposerIndex: 11,
		ParentRoot:    testHash(1),
		StateRoot:     testHash(2),
		BodyRoot:      testHash(3),
	}
	root, err := beacon.HashTreeRoot()
	require.NoError(t, err)

	gc := opts.gcThreshold
	if gc == 0 {
		gc = 1000
	}
	store, err := Initialize(&InitInput{
		Network:                  opts.network,
		FinalizedExecutionHeader: *h.chain[0],
		FinalizedBeaconHeader: ExtendedBeaconHeader{
			Header:             beacon,
			BeaconBlockRoot:    root,
			ExecutionBlockHash: h.chain[0].Hash(),
		},
		CurrentSyncCommittee: h.keys[0].committee,
		NextSyncCommittee:    h.keys[1].committee,
		ValidateUpdates:      opts.validate,
		VerifyBLSSignatures:  opts.verifyBLS,
		HashesGCThreshold:    gc,
		TrustedSigner:        opts.trustedSigner,
	}, alice, h.blocks)
	require.NoError(t, err)

	h.client, err = New(store, h.blocks)
	require.NoError(t, err)
	return h
}

func (h *harness) periodStart(offset uint64) uint64 {
	return (h.period + offset) * h.network.Spec.SlotsPerPeriod()
}

func (h *harness) threshold() int {
	size := int(h.network.Spec.SyncCommitteeSize)
	return (size*2 + 2) / 3
}

type updateOpts struct {
	activeSlot uint64
	anchor     *ethereum.ExecutionHeader
	// Set bits. Zero means the two thirds threshold.
	participants int
	// Signers signs instead of the committee of the signature period.
	signers *keySet
	// Index into the harness key sets of the committee to announce.
	nextCommittee int
	// Zero means one slot after the attested header.
	signatureSlot uint64
	// Zero means two epochs after the finalized header.
	attestedSlot uint64
	// Signs for this fork version instead of the one active before the
	// signature slot.
	forkVersion *[4]byte
}

func (h *harness) makeUpdate(o updateOpts) *LightClientUpdate {
	h.nonce++
	n := h.network

	executionHash := o.anchor.Hash()
	fork := h.forkAt(o.activeSlot)
	payloadLayers := merkleLayers(containerLeaves(payloadFields[fork], func(i int) [32]byte {
		if i == blockHashField {
			return executionHash
		}
		return testHash(h.nonce, 10, uint64(i))
	}))
	payloadRoot := payloadLayers[len(payloadLayers)-1][0]
	bodyLayers := merkleLayers(containerLeaves(bodyFields[fork], func(i int) [32]byte {
		if i == executionPayloadField {
			return payloadRoot
		}
		return testHash(h.nonce, 13, uint64(i))
	}))
	executionBranch := append(merkleBranch(payloadLayers, blockHashField), merkleBranch(bodyLayers, executionPayloadField)...)

	active := state.BeaconBlockHeader{
		Slot:          o.activeSlot,
		ProposerIndex: 100 + h.nonce,
		ParentRoot:    testHash(h.nonce, 11),
		StateRoot:     testHash(h.nonce, 12),
		BodyRoot:      bodyLayers[len(bodyLayers)-1][0],
	}
	activeRoot, err := active.HashTreeRoot()
	require.NoError(h.t, err)

	attestedSlot := o.attestedSlot
	if attestedSlot == 0 {
		attestedSlot = o.activeSlot + 2*n.Spec.SlotsInEpoch
	}

	epochChunk := [32]byte{}
	binary.LittleEndian.PutUint64(epochChunk[:], n.EpochAtSlot(o.activeSlot))
	var committeeUpdate *SyncCommitteeUpdate
	var committeeRoot [32]byte
	if o.nextCommittee > 0 {
		committee := h.keys[o.nextCommittee].committee
		committeeRoot, err = committee.HashTreeRoot()
		require.NoError(h.t, err)
		committeeUpdate = &SyncCommitteeUpdate{NextSyncCommittee: committee}
	}
	layers := merkleLayers(containerLeaves(stateFields[h.forkAt(attestedSlot)], func(i int) [32]byte {
		switch {
		case i == finalizedCheckpointField:
			return sha256.Sum256(append(epochChunk[:], activeRoot[:]...))
		case i == nextSyncCommitteeField && committeeUpdate != nil:
			return committeeRoot
		default:
			return testHash(h.nonce, 20, uint64(i))
		}
	}))
	if committeeUpdate != nil {
		committeeUpdate.NextSyncCommitteeBranch = merkleBranch(layers, nextSyncCommitteeField)
	}
	finalityBranch := append([][32]byte{epochChunk}, merkleBranch(layers, finalizedCheckpointField)...)

	attested := state.BeaconBlockHeader{
		Slot:          attestedSlot,
		ProposerIndex: 200 + h.nonce,
		ParentRoot:    testHash(h.nonce, 30),
		StateRoot:     layers[len(layers)-1][0],
		BodyRoot:      testHash(h.nonce, 31),
	}
	signatureSlot := o.signatureSlot
	if signatureSlot == 0 {
		signatureSlot = attested.Slot + 1
	}

	participants := o.participants
	if participants == 0 {
		participants = h.threshold()
	}
	bits := make([]byte, n.Spec.SyncCommitteeSize/8)
	for i := 0; i < participants; i++ {
		bits[i/8] |= 1 << (i % 8)
	}

	update := &LightClientUpdate{
		AttestedBeaconHeader: attested,
		SyncAggregate:        SyncAggregate{SyncCommitteeBits: bits},
		SignatureSlot:        signatureSlot,
		FinalityUpdate: FinalizedHeaderUpdate{
			HeaderUpdate: HeaderUpdate{
				BeaconHeader:        active,
				ExecutionBlockHash:  executionHash,
				ExecutionHashBranch: executionBranch,
			},
			FinalityBranch: finalityBranch,
		},
		SyncCommitteeUpdate: committeeUpdate,
	}

	if h.sign || o.signers != nil {
		update.SyncAggregate.SyncCommitteeSignature = h.signUpdate(update, participants, o.signers, o.forkVersion)
	}
	return update
}

func (h *harness) signUpdate(update *LightClientUpdate, participants int, signers *keySet, forkVersion *[4]byte) [96]byte {
	n := h.network
	if signers == nil {
		finalizedIdx := n.PeriodAtSlot(h.client.FinalizedBeaconBlockSlot()) - h.period
		signers = h.keys[finalizedIdx]
		if n.PeriodAtSlot(update.SignatureSlot) > n.PeriodAtSlot(h.client.FinalizedBeaconBlockSlot()) {
			signers = h.keys[finalizedIdx+1]
		}
	}

	version := n.ForkVersionAt(n.EpochAtSlot(update.SignatureSlot - 1))
	if forkVersion != nil {
		version = *forkVersion
	}
	domain, err := state.ComputeDomain(state.DomainSyncCommittee, version, n.GenesisValidatorsRoot)
	require.NoError(h.t, err)
	attestedRoot, err := update.AttestedBeaconHeader.HashTreeRoot()
	require.NoError(h.t, err)
	signingRoot, err := state.ComputeSigningRoot(attestedRoot, domain)
	require.NoError(h.t, err)

	sigs := make([]*blst.P2Affine, participants)
	for i := range sigs {
		sigs[i] = new(blst.P2Affine).Sign(signers.keys[i], signingRoot[:], bls.DST)
	}
	agg := new(blst.P2Aggregate)
	require.True(h.t, agg.Aggregate(sigs, false))
	var sig [96]byte
	copy(sig[:], agg.ToAffine().Compress())
	return sig
}

// submitSegment submits chain[anchor] back to chain[from], newest first.
func (h *harness) submitSegment(anchor, from int) {
	for i := anchor; i >= from; i-- {
		require.NoError(h.t, h.client.SubmitExecutionHeader(bob, h.chain[i]), "header %d", i)
		known, err := h.client.IsKnownExecutionHeader(h.chain[i].Number)
		require.NoError(h.t, err)
		require.True(h.t, known, "header %d", i)
	}
}
