package lightclient

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ggxchain/transaction-receipt-relayer/beacon/state"
)

// ChainID identifies a tracked Ethereum network, usually its EVM chain id.
type ChainID uint64

// AccountID is the 32 byte public key identifying a runtime account.
type AccountID [32]byte

func (a AccountID) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a AccountID) String() string {
	return a.Hex()
}

// Mode is what the store accepts next.
type Mode uint8

const (
	SubmitLightClientUpdate Mode = iota
	SubmitHeader
)

func (m Mode) String() string {
	switch m {
	case SubmitLightClientUpdate:
		return "SubmitLightClientUpdate"
	case SubmitHeader:
		return "SubmitHeader"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// VerificationMode selects how much of an update is checked cryptographically.
type VerificationMode uint8

const (
	// Trustless verifies the committee signature.
	Trustless VerificationMode = iota
	// TrustedSigner accepts updates from one account without BLS verification.
	TrustedSigner
	// NoBLS skips BLS verification for everyone. Test networks only.
	NoBLS
)

func (m VerificationMode) String() string {
	switch m {
	case Trustless:
		return "trustless"
	case TrustedSigner:
		return "trusted-signer"
	case NoBLS:
		return "no-bls"
	default:
		return fmt.Sprintf("VerificationMode(%d)", uint8(m))
	}
}

type Config struct {
	ValidateUpdates     bool
	VerifyBLSSignatures bool
	HashesGCThreshold   uint64
	TrustedSigner       *AccountID
}

func (c *Config) Mode() VerificationMode {
	switch {
	case c.TrustedSigner != nil:
		return TrustedSigner
	case !c.VerifyBLSSignatures:
		return NoBLS
	default:
		return Trustless
	}
}

// ExtendedBeaconHeader is a finalized beacon header together with its root
// and the hash of the execution block it carries.
type ExtendedBeaconHeader struct {
	Header             state.BeaconBlockHeader
	BeaconBlockRoot    common.Hash
	ExecutionBlockHash common.Hash
}

type ExecutionHeaderInfo struct {
	ParentHash  common.Hash
	BlockNumber uint64
	Submitter   AccountID
}

type HeaderUpdate struct {
	BeaconHeader        state.BeaconBlockHeader
	ExecutionBlockHash  common.Hash
	ExecutionHashBranch [][32]byte
}

type FinalizedHeaderUpdate struct {
	HeaderUpdate   HeaderUpdate
	FinalityBranch [][32]byte
}

type SyncCommitteeUpdate struct {
	NextSyncCommittee       state.SyncCommittee
	NextSyncCommitteeBranch [][32]byte
}

type SyncAggregate struct {
	// Bitvector of the committee size, little-endian bit order.
	SyncCommitteeBits      []byte
	SyncCommitteeSignature [96]byte
}

type LightClientUpdate struct {
	AttestedBeaconHeader state.BeaconBlockHeader
	SyncAggregate        SyncAggregate
	SignatureSlot        uint64
	FinalityUpdate       FinalizedHeaderUpdate
	SyncCommitteeUpdate  *SyncCommitteeUpdate
}
