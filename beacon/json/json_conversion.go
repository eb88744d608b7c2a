package json

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"github.com/ggxchain/transaction-receipt-relayer/beacon/state"
	"github.com/ggxchain/transaction-receipt-relayer/beacon/util"
	"github.com/ggxchain/transaction-receipt-relayer/chain/ethereum"
	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
)

var ErrMissingExecutionHeader = errors.New("finalized_execution_header is missing")

func (h *BeaconHeader) ToState() (state.BeaconBlockHeader, error) {
	out := state.BeaconBlockHeader{Slot: h.Slot, ProposerIndex: h.ProposerIndex}
	var err error
	if out.ParentRoot, err = util.HexStringTo32Bytes(h.ParentRoot); err != nil {
		return out, fmt.Errorf("parent_root: %w", err)
	}
	if out.StateRoot, err = util.HexStringTo32Bytes(h.StateRoot); err != nil {
		return out, fmt.Errorf("state_root: %w", err)
	}
	if out.BodyRoot, err = util.HexStringTo32Bytes(h.BodyRoot); err != nil {
		return out, fmt.Errorf("body_root: %w", err)
	}
	return out, nil
}

func NewBeaconHeader(h *state.BeaconBlockHeader) BeaconHeader {
	return BeaconHeader{
		Slot:          h.Slot,
		ProposerIndex: h.ProposerIndex,
		ParentRoot:    util.BytesToHexString(h.ParentRoot[:]),
		StateRoot:     util.BytesToHexString(h.StateRoot[:]),
		BodyRoot:      util.BytesToHexString(h.BodyRoot[:]),
	}
}

// ToState decodes the committee keys, several at a time for large
// committees.
func (s *SyncCommittee) ToState() (state.SyncCommittee, error) {
	out := state.SyncCommittee{Pubkeys: make([][48]byte, len(s.Pubkeys))}

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i := range s.Pubkeys {
		i := i
		eg.Go(func() error {
			key, err := util.HexStringToPublicKey(s.Pubkeys[i])
			if err != nil {
				return fmt.Errorf("pubkeys[%d]: %w", i, err)
			}
			out.Pubkeys[i] = key
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return state.SyncCommittee{}, err
	}

	var err error
	if out.AggregatePubkey, err = util.HexStringToPublicKey(s.AggregatePubkey); err != nil {
		return state.SyncCommittee{}, fmt.Errorf("aggregate_pubkey: %w", err)
	}
	return out, nil
}

func NewSyncCommittee(c *state.SyncCommittee) SyncCommittee {
	out := SyncCommittee{
		Pubkeys:         make([]string, len(c.Pubkeys)),
		AggregatePubkey: util.BytesToHexString(c.AggregatePubkey[:]),
	}
	for i := range c.Pubkeys {
		out.Pubkeys[i] = util.BytesToHexString(c.Pubkeys[i][:])
	}
	return out
}

func (e *ExtendedBeaconHeader) ToLightClient() (lightclient.ExtendedBeaconHeader, error) {
	var out lightclient.ExtendedBeaconHeader
	var err error
	if out.Header, err = e.Header.ToState(); err != nil {
		return out, fmt.Errorf("header: %w", err)
	}
	if out.BeaconBlockRoot, err = util.HexStringTo32Bytes(e.BeaconBlockRoot); err != nil {
		return out, fmt.Errorf("beacon_block_root: %w", err)
	}
	if out.ExecutionBlockHash, err = util.HexStringTo32Bytes(e.ExecutionBlockHash); err != nil {
		return out, fmt.Errorf("execution_block_hash: %w", err)
	}
	return out, nil
}

func NewExtendedBeaconHeader(e *lightclient.ExtendedBeaconHeader) ExtendedBeaconHeader {
	return ExtendedBeaconHeader{
		Header:             NewBeaconHeader(&e.Header),
		BeaconBlockRoot:    e.BeaconBlockRoot.Hex(),
		ExecutionBlockHash: e.ExecutionBlockHash.Hex(),
	}
}

func ToAccountID(s string) (lightclient.AccountID, error) {
	id, err := util.HexStringTo32Bytes(s)
	return lightclient.AccountID(id), err
}

func (i *InitInput) ToLightClient() (*lightclient.InitInput, error) {
	if i.FinalizedExecutionHeader == nil {
		return nil, ErrMissingExecutionHeader
	}
	executionHeader, err := ethereum.MakeHeader(i.FinalizedExecutionHeader)
	if err != nil {
		return nil, fmt.Errorf("finalized_execution_header: %w", err)
	}

	out := &lightclient.InitInput{
		Network:                  i.Network,
		FinalizedExecutionHeader: *executionHeader,
		ValidateUpdates:          i.ValidateUpdates,
		VerifyBLSSignatures:      i.VerifyBLSSignatures,
		HashesGCThreshold:        i.HashesGCThreshold,
	}
	if out.FinalizedBeaconHeader, err = i.FinalizedBeaconHeader.ToLightClient(); err != nil {
		return nil, fmt.Errorf("finalized_beacon_header: %w", err)
	}
	if out.CurrentSyncCommittee, err = i.CurrentSyncCommittee.ToState(); err != nil {
		return nil, fmt.Errorf("current_sync_committee: %w", err)
	}
	if out.NextSyncCommittee, err = i.NextSyncCommittee.ToState(); err != nil {
		return nil, fmt.Errorf("next_sync_committee: %w", err)
	}
	if i.TrustedSigner != nil {
		signer, err := ToAccountID(*i.TrustedSigner)
		if err != nil {
			return nil, fmt.Errorf("trusted_signer: %w", err)
		}
		out.TrustedSigner = &signer
	}
	return out, nil
}

func NewInitInput(in *lightclient.InitInput) *InitInput {
	out := &InitInput{
		Network:                  in.Network,
		FinalizedExecutionHeader: in.FinalizedExecutionHeader.GethHeader(),
		FinalizedBeaconHeader:    NewExtendedBeaconHeader(&in.FinalizedBeaconHeader),
		CurrentSyncCommittee:     NewSyncCommittee(&in.CurrentSyncCommittee),
		NextSyncCommittee:        NewSyncCommittee(&in.NextSyncCommittee),
		ValidateUpdates:          in.ValidateUpdates,
		VerifyBLSSignatures:      in.VerifyBLSSignatures,
		HashesGCThreshold:        in.HashesGCThreshold,
	}
	if in.TrustedSigner != nil {
		signer := in.TrustedSigner.Hex()
		out.TrustedSigner = &signer
	}
	return out
}

func (u *LightClientUpdate) ToLightClient() (*lightclient.LightClientUpdate, error) {
	out := &lightclient.LightClientUpdate{SignatureSlot: u.SignatureSlot}
	var err error

	if out.AttestedBeaconHeader, err = u.AttestedBeaconHeader.ToState(); err != nil {
		return nil, fmt.Errorf("attested_beacon_header: %w", err)
	}
	if out.SyncAggregate.SyncCommitteeBits, err = util.HexStringToByteArray(u.SyncAggregate.SyncCommitteeBits); err != nil {
		return nil, fmt.Errorf("sync_committee_bits: %w", err)
	}
	if out.SyncAggregate.SyncCommitteeSignature, err = util.HexStringTo96Bytes(u.SyncAggregate.SyncCommitteeSignature); err != nil {
		return nil, fmt.Errorf("sync_committee_signature: %w", err)
	}

	header := &u.FinalityUpdate.HeaderUpdate
	finality := &out.FinalityUpdate
	if finality.HeaderUpdate.BeaconHeader, err = header.BeaconHeader.ToState(); err != nil {
		return nil, fmt.Errorf("finalized beacon_header: %w", err)
	}
	hash, err := util.HexStringTo32Bytes(header.ExecutionBlockHash)
	if err != nil {
		return nil, fmt.Errorf("execution_block_hash: %w", err)
	}
	finality.HeaderUpdate.ExecutionBlockHash = common.Hash(hash)
	if finality.HeaderUpdate.ExecutionHashBranch, err = util.HexBranchTo32Bytes(header.ExecutionHashBranch); err != nil {
		return nil, fmt.Errorf("execution_hash_branch: %w", err)
	}
	if finality.FinalityBranch, err = util.HexBranchTo32Bytes(u.FinalityUpdate.FinalityBranch); err != nil {
		return nil, fmt.Errorf("finality_branch: %w", err)
	}

	if u.SyncCommitteeUpdate != nil {
		committee, err := u.SyncCommitteeUpdate.NextSyncCommittee.ToState()
		if err != nil {
			return nil, fmt.Errorf("next_sync_committee: %w", err)
		}
		branch, err := util.HexBranchTo32Bytes(u.SyncCommitteeUpdate.NextSyncCommitteeBranch)
		if err != nil {
			return nil, fmt.Errorf("next_sync_committee_branch: %w", err)
		}
		out.SyncCommitteeUpdate = &lightclient.SyncCommitteeUpdate{
			NextSyncCommittee:       committee,
			NextSyncCommitteeBranch: branch,
		}
	}
	return out, nil
}

func NewLightClientUpdate(u *lightclient.LightClientUpdate) *LightClientUpdate {
	header := &u.FinalityUpdate.HeaderUpdate
	out := &LightClientUpdate{
		AttestedBeaconHeader: NewBeaconHeader(&u.AttestedBeaconHeader),
		SyncAggregate: SyncAggregate{
			SyncCommitteeBits:      util.BytesToHexString(u.SyncAggregate.SyncCommitteeBits),
			SyncCommitteeSignature: util.BytesToHexString(u.SyncAggregate.SyncCommitteeSignature[:]),
		},
		SignatureSlot: u.SignatureSlot,
		FinalityUpdate: FinalizedHeaderUpdate{
			HeaderUpdate: HeaderUpdate{
				BeaconHeader:        NewBeaconHeader(&header.BeaconHeader),
				ExecutionBlockHash:  header.ExecutionBlockHash.Hex(),
				ExecutionHashBranch: util.BranchToHexStrings(header.ExecutionHashBranch),
			},
			FinalityBranch: util.BranchToHexStrings(u.FinalityUpdate.FinalityBranch),
		},
	}
	if u.SyncCommitteeUpdate != nil {
		out.SyncCommitteeUpdate = &SyncCommitteeUpdate{
			NextSyncCommittee:       NewSyncCommittee(&u.SyncCommitteeUpdate.NextSyncCommittee),
			NextSyncCommitteeBranch: util.BranchToHexStrings(u.SyncCommitteeUpdate.NextSyncCommitteeBranch),
		}
	}
	return out
}
