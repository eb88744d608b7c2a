package json

import (
	gethTypes "github.com/ethereum/go-ethereum/core/types"
)

type BeaconHeader struct {
	Slot          uint64 `json:"slot"`
	ProposerIndex uint64 `json:"proposer_index"`
	ParentRoot    string `json:"parent_root"`
	StateRoot     string `json:"state_root"`
	BodyRoot      string `json:"body_root"`
}

type SyncCommittee struct {
	Pubkeys         []string `json:"pubkeys"`
	AggregatePubkey string   `json:"aggregate_pubkey"`
}

type SyncAggregate struct {
	SyncCommitteeBits      string `json:"sync_committee_bits"`
	SyncCommitteeSignature string `json:"sync_committee_signature"`
}

type ExtendedBeaconHeader struct {
	Header             BeaconHeader `json:"header"`
	BeaconBlockRoot    string       `json:"beacon_block_root"`
	ExecutionBlockHash string       `json:"execution_block_hash"`
}

// InitInput carries the execution header in the execution client's JSON
// form so a block fetched with eth_getBlockByNumber can be pasted in.
type InitInput struct {
	Network                  string               `json:"network"`
	FinalizedExecutionHeader *gethTypes.Header    `json:"finalized_execution_header"`
	FinalizedBeaconHeader    ExtendedBeaconHeader `json:"finalized_beacon_header"`
	CurrentSyncCommittee     SyncCommittee        `json:"current_sync_committee"`
	NextSyncCommittee        SyncCommittee        `json:"next_sync_committee"`
	ValidateUpdates          bool                 `json:"validate_updates"`
	VerifyBLSSignatures      bool                 `json:"verify_bls_signatures"`
	HashesGCThreshold        uint64               `json:"hashes_gc_threshold"`
	TrustedSigner            *string              `json:"trusted_signer"`
}

type HeaderUpdate struct {
	BeaconHeader        BeaconHeader `json:"beacon_header"`
	ExecutionBlockHash  string       `json:"execution_block_hash"`
	ExecutionHashBranch []string     `json:"execution_hash_branch"`
}

type FinalizedHeaderUpdate struct {
	HeaderUpdate   HeaderUpdate `json:"header_update"`
	FinalityBranch []string     `json:"finality_branch"`
}

type SyncCommitteeUpdate struct {
	NextSyncCommittee       SyncCommittee `json:"next_sync_committee"`
	NextSyncCommitteeBranch []string      `json:"next_sync_committee_branch"`
}

type LightClientUpdate struct {
	AttestedBeaconHeader BeaconHeader          `json:"attested_beacon_header"`
	SyncAggregate        SyncAggregate         `json:"sync_aggregate"`
	SignatureSlot        uint64                `json:"signature_slot"`
	FinalityUpdate       FinalizedHeaderUpdate `json:"finality_update"`
	SyncCommitteeUpdate  *SyncCommitteeUpdate  `json:"sync_committee_update"`
}
