package lightclient

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"github.com/ggxchain/transaction-receipt-relayer/beacon/config"
	"github.com/ggxchain/transaction-receipt-relayer/beacon/state"
	"github.com/ggxchain/transaction-receipt-relayer/chain/ethereum"
	"github.com/ggxchain/transaction-receipt-relayer/crypto/bls"
)

// InitInput is the trusted checkpoint a chain is bootstrapped from.
type InitInput struct {
	Network                  string
	FinalizedExecutionHeader ethereum.ExecutionHeader
	FinalizedBeaconHeader    ExtendedBeaconHeader
	CurrentSyncCommittee     state.SyncCommittee
	NextSyncCommittee        state.SyncCommittee
	ValidateUpdates          bool
	VerifyBLSSignatures      bool
	HashesGCThreshold        uint64
	TrustedSigner            *AccountID
}

// Initialize checks a checkpoint and builds the store for a new chain. The
// finalized execution header is recorded in blocks.
func Initialize(input *InitInput, submitter AccountID, blocks BlockIndex) (*Store, error) {
	network, err := config.Lookup(input.Network)
	if err != nil {
		return nil, err
	}
	if network.RequireTrustless && !(input.ValidateUpdates && input.VerifyBLSSignatures) {
		return nil, fmt.Errorf("%w: %s", ErrTrustlessModeError, network.Name)
	}
	if network.RequireTrustless && input.TrustedSigner != nil {
		return nil, fmt.Errorf("%w: %s does not accept a trusted signer", ErrTrustlessModeError, network.Name)
	}

	beaconHeader := &input.FinalizedBeaconHeader
	root, err := beaconHeader.Header.HashTreeRoot()
	if err != nil {
		return nil, fmt.Errorf("hash beacon header: %w", err)
	}
	if common.Hash(root) != beaconHeader.BeaconBlockRoot {
		return nil, fmt.Errorf("%w: computed %s, given %s",
			ErrInvalidBeaconBlockRoot, common.Hash(root).Hex(), beaconHeader.BeaconBlockRoot.Hex())
	}

	executionHash := input.FinalizedExecutionHeader.Hash()
	if executionHash != beaconHeader.ExecutionBlockHash {
		return nil, fmt.Errorf("%w: execution header hashes to %s, beacon header carries %s",
			ErrBlockHashesDoNotMatch, executionHash.Hex(), beaconHeader.ExecutionBlockHash.Hex())
	}

	size := network.Spec.SyncCommitteeSize
	for name, committee := range map[string]*state.SyncCommittee{
		"current": &input.CurrentSyncCommittee,
		"next":    &input.NextSyncCommittee,
	} {
		if err := committee.ValidateSize(size); err != nil {
			return nil, fmt.Errorf("%w: %s committee: %w", ErrInvalidSyncCommittee, name, err)
		}
		if !input.VerifyBLSSignatures {
			continue
		}
		aggregate, err := bls.AggregatePublicKeys(committee.Pubkeys)
		if err != nil {
			return nil, fmt.Errorf("%w: %s committee: %w", ErrInvalidSyncCommittee, name, err)
		}
		if aggregate != committee.AggregatePubkey {
			return nil, fmt.Errorf("%w: %s committee aggregate key does not match its members", ErrInvalidSyncCommittee, name)
		}
	}

	if err := blocks.SetBlockHash(input.FinalizedExecutionHeader.Number, executionHash); err != nil {
		return nil, err
	}

	store := &Store{
		Network:               network.Name,
		FinalizedBeaconHeader: *beaconHeader,
		FinalizedExecutionHeader: ExecutionHeaderInfo{
			ParentHash:  input.FinalizedExecutionHeader.ParentHash,
			BlockNumber: input.FinalizedExecutionHeader.Number,
			Submitter:   submitter,
		},
		CurrentSyncCommittee: input.CurrentSyncCommittee,
		NextSyncCommittee:    input.NextSyncCommittee,
		UnfinalizedHeaders:   make(map[common.Hash]ExecutionHeaderInfo),
		Mode:                 SubmitLightClientUpdate,
		Config: Config{
			ValidateUpdates:     input.ValidateUpdates,
			VerifyBLSSignatures: input.VerifyBLSSignatures,
			HashesGCThreshold:   input.HashesGCThreshold,
			TrustedSigner:       input.TrustedSigner,
		},
	}

	log.WithFields(log.Fields{
		"network":        network.Name,
		"slot":           beaconHeader.Header.Slot,
		"executionBlock": input.FinalizedExecutionHeader.Number,
		"mode":           store.Config.Mode(),
	}).Info("Initialized light client")

	return store, nil
}
