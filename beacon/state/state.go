// Package state holds the beacon chain containers the light client hashes and
// their SSZ hash tree roots.
package state

import (
	"errors"
	"fmt"

	ssz "github.com/ferranbt/fastssz"
)

// DomainSyncCommittee is the signature domain type of sync committee
// messages.
var DomainSyncCommittee = [4]byte{0x07, 0x00, 0x00, 0x00}

var ErrCommitteeSize = errors.New("sync committee has unexpected number of public keys")

type BeaconBlockHeader struct {
	Slot          uint64   `json:"slot"`
	ProposerIndex uint64   `json:"proposer_index"`
	ParentRoot    [32]byte `json:"parent_root" ssz-size:"32"`
	StateRoot     [32]byte `json:"state_root" ssz-size:"32"`
	BodyRoot      [32]byte `json:"body_root" ssz-size:"32"`
}

func (b *BeaconBlockHeader) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutUint64(b.Slot)
	hh.PutUint64(b.ProposerIndex)
	hh.PutBytes(b.ParentRoot[:])
	hh.PutBytes(b.StateRoot[:])
	hh.PutBytes(b.BodyRoot[:])
	hh.Merkleize(indx)
	return nil
}

func (b *BeaconBlockHeader) HashTreeRoot() ([32]byte, error) {
	return hashTreeRoot(b.HashTreeRootWith)
}

// SyncCommittee is Vector[BLSPubkey, N] plus the aggregate key. N is a
// preset value, so the length is checked by the caller through
// ValidateSize.
type SyncCommittee struct {
	Pubkeys         [][48]byte `json:"pubkeys" ssz-size:"?,48"`
	AggregatePubkey [48]byte   `json:"aggregate_pubkey" ssz-size:"48"`
}

func (s *SyncCommittee) ValidateSize(size uint64) error {
	if uint64(len(s.Pubkeys)) != size {
		return fmt.Errorf("%w: got %d, want %d", ErrCommitteeSize, len(s.Pubkeys), size)
	}
	return nil
}

func (s *SyncCommittee) HashTreeRootWith(hh *ssz.Hasher) error {
	if len(s.Pubkeys) == 0 {
		return ErrCommitteeSize
	}
	indx := hh.Index()
	{
		subIndx := hh.Index()
		for i := range s.Pubkeys {
			hh.PutBytes(s.Pubkeys[i][:])
		}
		hh.Merkleize(subIndx)
	}
	hh.PutBytes(s.AggregatePubkey[:])
	hh.Merkleize(indx)
	return nil
}

func (s *SyncCommittee) HashTreeRoot() ([32]byte, error) {
	return hashTreeRoot(s.HashTreeRootWith)
}

type ForkData struct {
	CurrentVersion        [4]byte  `ssz-size:"4"`
	GenesisValidatorsRoot [32]byte `ssz-size:"32"`
}

func (f *ForkData) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutBytes(f.CurrentVersion[:])
	hh.PutBytes(f.GenesisValidatorsRoot[:])
	hh.Merkleize(indx)
	return nil
}

func (f *ForkData) HashTreeRoot() ([32]byte, error) {
	return hashTreeRoot(f.HashTreeRootWith)
}

type SigningData struct {
	ObjectRoot [32]byte `ssz-size:"32"`
	Domain     [32]byte `ssz-size:"32"`
}

func (s *SigningData) HashTreeRootWith(hh *ssz.Hasher) error {
	indx := hh.Index()
	hh.PutBytes(s.ObjectRoot[:])
	hh.PutBytes(s.Domain[:])
	hh.Merkleize(indx)
	return nil
}

func (s *SigningData) HashTreeRoot() ([32]byte, error) {
	return hashTreeRoot(s.HashTreeRootWith)
}

func hashTreeRoot(walk func(hh *ssz.Hasher) error) ([32]byte, error) {
	hh := ssz.NewHasher()
	if err := walk(hh); err != nil {
		return [32]byte{}, err
	}
	return hh.HashRoot()
}

// ComputeDomain mixes the fork version and genesis validators root into a
// signature domain.
func ComputeDomain(domainType [4]byte, forkVersion [4]byte, genesisValidatorsRoot [32]byte) ([32]byte, error) {
	forkDataRoot, err := (&ForkData{
		CurrentVersion:        forkVersion,
		GenesisValidatorsRoot: genesisValidatorsRoot,
	}).HashTreeRoot()
	if err != nil {
		return [32]byte{}, err
	}

	var domain [32]byte
	copy(domain[:4], domainType[:])
	copy(domain[4:], forkDataRoot[:28])
	return domain, nil
}

// ComputeSigningRoot is the message a committee signs for an object.
func ComputeSigningRoot(objectRoot [32]byte, domain [32]byte) ([32]byte, error) {
	return (&SigningData{ObjectRoot: objectRoot, Domain: domain}).HashTreeRoot()
}
