package lightclient

import (
	"fmt"

	"github.com/prysmaticlabs/go-bitfield"

	"github.com/ggxchain/transaction-receipt-relayer/beacon/state"
	"github.com/ggxchain/transaction-receipt-relayer/crypto/bls"
)

func committeeBits(raw []byte, size uint64) (bitfield.Bitfield, error) {
	if uint64(len(raw))*8 != size {
		return nil, fmt.Errorf("%w: bitvector has %d bits, committee has %d members",
			ErrSyncCommitteeBitsSumLessThanThreshold, len(raw)*8, size)
	}
	bits := make([]byte, len(raw))
	copy(bits, raw)

	switch size {
	case 32:
		return bitfield.Bitvector32(bits), nil
	case 64:
		return bitfield.Bitvector64(bits), nil
	case 128:
		return bitfield.Bitvector128(bits), nil
	case 512:
		return bitfield.Bitvector512(bits), nil
	default:
		return nil, fmt.Errorf("unsupported sync committee size %d", size)
	}
}

// checkParticipation requires at least two thirds of the committee to have
// signed.
func (c *Client) checkParticipation(raw []byte) (bitfield.Bitfield, error) {
	size := c.network.Spec.SyncCommitteeSize
	bits, err := committeeBits(raw, size)
	if err != nil {
		return nil, err
	}
	if count := bits.Count(); count*3 < size*2 {
		return nil, fmt.Errorf("%w: %d of %d", ErrSyncCommitteeBitsSumLessThanThreshold, count, size)
	}
	return bits, nil
}

// signingSlot is the slot whose fork signs the attested header: the slot
// before the signature slot.
func signingSlot(signatureSlot uint64) uint64 {
	if signatureSlot == 0 {
		return 0
	}
	return signatureSlot - 1
}

func (c *Client) verifySignature(update *LightClientUpdate, participation bitfield.Bitfield, finalizedPeriod uint64) error {
	signaturePeriod := c.network.PeriodAtSlot(update.SignatureSlot)

	var committee *state.SyncCommittee
	switch signaturePeriod {
	case finalizedPeriod:
		committee = &c.store.CurrentSyncCommittee
	case finalizedPeriod + 1:
		committee = &c.store.NextSyncCommittee
	default:
		return fmt.Errorf("%w: signature period %d, finalized period %d",
			ErrInvalidSignaturePeriod, signaturePeriod, finalizedPeriod)
	}
	if err := committee.ValidateSize(participation.Len()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSyncCommittee, err)
	}

	pubkeys := make([][bls.PublicKeyLength]byte, 0, participation.Count())
	for _, i := range participation.BitIndices() {
		pubkeys = append(pubkeys, committee.Pubkeys[i])
	}

	forkVersion := c.network.ForkVersionAt(c.network.EpochAtSlot(signingSlot(update.SignatureSlot)))
	domain, err := state.ComputeDomain(state.DomainSyncCommittee, forkVersion, c.network.GenesisValidatorsRoot)
	if err != nil {
		return err
	}
	attestedRoot, err := update.AttestedBeaconHeader.HashTreeRoot()
	if err != nil {
		return fmt.Errorf("hash attested header: %w", err)
	}
	signingRoot, err := state.ComputeSigningRoot(attestedRoot, domain)
	if err != nil {
		return err
	}

	if err := bls.FastAggregateVerify(pubkeys, signingRoot, update.SyncAggregate.SyncCommitteeSignature); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	return nil
}
