package scale

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/snowfork/go-substrate-rpc-client/v4/scale"
	"github.com/snowfork/go-substrate-rpc-client/v4/types"

	"github.com/ggxchain/transaction-receipt-relayer/beacon/state"
	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
)

// StoreRecord is the persisted form of a light client store.
type StoreRecord struct {
	Network                  types.Text
	FinalizedBeaconHeader    ExtendedBeaconHeader
	FinalizedExecutionHeader ExecutionHeaderInfo
	CurrentSyncCommittee     SyncCommittee
	NextSyncCommittee        SyncCommittee
	UnfinalizedHeaders       []UnfinalizedHeader
	UnfinalizedTail          OptionH256
	Mode                     types.U8
	Paused                   bool
	ValidateUpdates          bool
	VerifyBLSSignatures      bool
	HashesGCThreshold        types.U64
	TrustedSigner            OptionAccountID
}

type BeaconHeader struct {
	Slot          types.U64
	ProposerIndex types.U64
	ParentRoot    types.H256
	StateRoot     types.H256
	BodyRoot      types.H256
}

type ExtendedBeaconHeader struct {
	Header             BeaconHeader
	BeaconBlockRoot    types.H256
	ExecutionBlockHash types.H256
}

type ExecutionHeaderInfo struct {
	ParentHash  types.H256
	BlockNumber types.U64
	Submitter   [32]byte
}

type SyncCommittee struct {
	Pubkeys         [][48]byte
	AggregatePubkey [48]byte
}

type UnfinalizedHeader struct {
	Hash types.H256
	Info ExecutionHeaderInfo
}

type OptionH256 struct {
	HasValue bool
	Value    types.H256
}

func (o OptionH256) Encode(encoder scale.Encoder) error {
	return encoder.EncodeOption(o.HasValue, o.Value)
}

func (o *OptionH256) Decode(decoder scale.Decoder) error {
	return decoder.DecodeOption(&o.HasValue, &o.Value)
}

type OptionAccountID struct {
	HasValue bool
	Value    [32]byte
}

func (o OptionAccountID) Encode(encoder scale.Encoder) error {
	return encoder.EncodeOption(o.HasValue, o.Value)
}

func (o *OptionAccountID) Decode(decoder scale.Decoder) error {
	return decoder.DecodeOption(&o.HasValue, &o.Value)
}

func NewBeaconHeader(h *state.BeaconBlockHeader) BeaconHeader {
	return BeaconHeader{
		Slot:          types.U64(h.Slot),
		ProposerIndex: types.U64(h.ProposerIndex),
		ParentRoot:    types.H256(h.ParentRoot),
		StateRoot:     types.H256(h.StateRoot),
		BodyRoot:      types.H256(h.BodyRoot),
	}
}

func (h BeaconHeader) ToState() state.BeaconBlockHeader {
	return state.BeaconBlockHeader{
		Slot:          uint64(h.Slot),
		ProposerIndex: uint64(h.ProposerIndex),
		ParentRoot:    h.ParentRoot,
		StateRoot:     h.StateRoot,
		BodyRoot:      h.BodyRoot,
	}
}

func newHeaderInfo(info *lightclient.ExecutionHeaderInfo) ExecutionHeaderInfo {
	return ExecutionHeaderInfo{
		ParentHash:  types.H256(info.ParentHash),
		BlockNumber: types.U64(info.BlockNumber),
		Submitter:   [32]byte(info.Submitter),
	}
}

func (i ExecutionHeaderInfo) toLightClient() lightclient.ExecutionHeaderInfo {
	return lightclient.ExecutionHeaderInfo{
		ParentHash:  common.Hash(i.ParentHash),
		BlockNumber: uint64(i.BlockNumber),
		Submitter:   lightclient.AccountID(i.Submitter),
	}
}

func newCommittee(c *state.SyncCommittee) SyncCommittee {
	return SyncCommittee{Pubkeys: c.Pubkeys, AggregatePubkey: c.AggregatePubkey}
}

func (c SyncCommittee) toState() state.SyncCommittee {
	return state.SyncCommittee{Pubkeys: c.Pubkeys, AggregatePubkey: c.AggregatePubkey}
}

// NewStoreRecord converts a store to its persisted form. Unfinalized
// headers are ordered by hash so equal stores encode to equal bytes.
func NewStoreRecord(s *lightclient.Store) StoreRecord {
	record := StoreRecord{
		Network: types.Text(s.Network),
		FinalizedBeaconHeader: ExtendedBeaconHeader{
			Header:             NewBeaconHeader(&s.FinalizedBeaconHeader.Header),
			BeaconBlockRoot:    types.H256(s.FinalizedBeaconHeader.BeaconBlockRoot),
			ExecutionBlockHash: types.H256(s.FinalizedBeaconHeader.ExecutionBlockHash),
		},
		FinalizedExecutionHeader: newHeaderInfo(&s.FinalizedExecutionHeader),
		CurrentSyncCommittee:     newCommittee(&s.CurrentSyncCommittee),
		NextSyncCommittee:        newCommittee(&s.NextSyncCommittee),
		UnfinalizedHeaders:       make([]UnfinalizedHeader, 0, len(s.UnfinalizedHeaders)),
		Mode:                     types.U8(s.Mode),
		Paused:                   s.Paused,
		ValidateUpdates:          s.Config.ValidateUpdates,
		VerifyBLSSignatures:      s.Config.VerifyBLSSignatures,
		HashesGCThreshold:        types.U64(s.Config.HashesGCThreshold),
	}

	for hash, info := range s.UnfinalizedHeaders {
		info := info
		record.UnfinalizedHeaders = append(record.UnfinalizedHeaders, UnfinalizedHeader{
			Hash: types.H256(hash),
			Info: newHeaderInfo(&info),
		})
	}
	sort.Slice(record.UnfinalizedHeaders, func(i, j int) bool {
		a, b := record.UnfinalizedHeaders[i].Hash, record.UnfinalizedHeaders[j].Hash
		return bytes.Compare(a[:], b[:]) < 0
	})

	if s.UnfinalizedTail != nil {
		record.UnfinalizedTail = OptionH256{HasValue: true, Value: types.H256(*s.UnfinalizedTail)}
	}
	if s.Config.TrustedSigner != nil {
		record.TrustedSigner = OptionAccountID{HasValue: true, Value: [32]byte(*s.Config.TrustedSigner)}
	}
	return record
}

func (r *StoreRecord) ToStore() *lightclient.Store {
	s := &lightclient.Store{
		Network: string(r.Network),
		FinalizedBeaconHeader: lightclient.ExtendedBeaconHeader{
			Header:             r.FinalizedBeaconHeader.Header.ToState(),
			BeaconBlockRoot:    common.Hash(r.FinalizedBeaconHeader.BeaconBlockRoot),
			ExecutionBlockHash: common.Hash(r.FinalizedBeaconHeader.ExecutionBlockHash),
		},
		FinalizedExecutionHeader: r.FinalizedExecutionHeader.toLightClient(),
		CurrentSyncCommittee:     r.CurrentSyncCommittee.toState(),
		NextSyncCommittee:        r.NextSyncCommittee.toState(),
		UnfinalizedHeaders:       make(map[common.Hash]lightclient.ExecutionHeaderInfo, len(r.UnfinalizedHeaders)),
		Mode:                     lightclient.Mode(r.Mode),
		Paused:                   r.Paused,
		Config: lightclient.Config{
			ValidateUpdates:     r.ValidateUpdates,
			VerifyBLSSignatures: r.VerifyBLSSignatures,
			HashesGCThreshold:   uint64(r.HashesGCThreshold),
		},
	}
	for _, entry := range r.UnfinalizedHeaders {
		s.UnfinalizedHeaders[common.Hash(entry.Hash)] = entry.Info.toLightClient()
	}
	if r.UnfinalizedTail.HasValue {
		tail := common.Hash(r.UnfinalizedTail.Value)
		s.UnfinalizedTail = &tail
	}
	if r.TrustedSigner.HasValue {
		signer := lightclient.AccountID(r.TrustedSigner.Value)
		s.Config.TrustedSigner = &signer
	}
	return s
}

func EncodeStore(s *lightclient.Store) ([]byte, error) {
	record := NewStoreRecord(s)
	return types.EncodeToBytes(record)
}

func DecodeStore(data []byte) (*lightclient.Store, error) {
	var record StoreRecord
	if err := types.DecodeFromBytes(data, &record); err != nil {
		return nil, fmt.Errorf("decode store: %w", err)
	}
	return record.ToStore(), nil
}

// EncodeExecutionHeaderInfo returns the stored form of one unfinalized
// execution header entry.
func EncodeExecutionHeaderInfo(info *lightclient.ExecutionHeaderInfo) ([]byte, error) {
	return types.EncodeToBytes(newHeaderInfo(info))
}
