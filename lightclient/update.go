// Copyright 2020 Snowfork
// SPDX-License-Identifier: LGPL-3.0-only

package lightclient

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"github.com/ggxchain/transaction-receipt-relayer/crypto/merkle"
)

// SubmitUpdate verifies a finality update and, when it holds, advances the
// finalized beacon header. Nothing is written when an error is returned.
func (c *Client) SubmitUpdate(caller AccountID, update *LightClientUpdate) error {
	if c.store.Paused {
		return ErrLightClientUpdateNotAllowed
	}
	if signer := c.store.Config.TrustedSigner; signer != nil && *signer != caller {
		return ErrNotTrustedSigner
	}

	finalizedPeriod := c.network.PeriodAtSlot(c.store.FinalizedBeaconHeader.Header.Slot)
	if c.store.Config.ValidateUpdates {
		if err := c.validateUpdate(update, finalizedPeriod); err != nil {
			return err
		}
	} else if c.store.Mode != SubmitLightClientUpdate {
		return fmt.Errorf("%w: %s", ErrInvalidClientMode, c.store.Mode)
	}

	return c.commitUpdate(update, finalizedPeriod)
}

func (c *Client) validateUpdate(update *LightClientUpdate, finalizedPeriod uint64) error {
	active := &update.FinalityUpdate.HeaderUpdate.BeaconHeader
	attested := &update.AttestedBeaconHeader

	if active.Slot <= c.store.FinalizedBeaconHeader.Header.Slot {
		return ErrActiveHeaderSlotLessThanFinalizedSlot
	}

	updatePeriod := c.network.PeriodAtSlot(active.Slot)
	if updatePeriod != finalizedPeriod && updatePeriod != finalizedPeriod+1 {
		return fmt.Errorf("%w: update period %d, finalized period %d",
			ErrUpdateHeaderSlotLessThanFinalizedHeaderSlot, updatePeriod, finalizedPeriod)
	}
	if updatePeriod == finalizedPeriod+1 && update.SyncCommitteeUpdate == nil {
		return ErrSyncCommitteeUpdateNotPresent
	}

	if attested.Slot < active.Slot || update.SignatureSlot <= attested.Slot {
		return fmt.Errorf("%w: finalized %d, attested %d, signature %d",
			ErrInvalidUpdateSlots, active.Slot, attested.Slot, update.SignatureSlot)
	}

	if c.store.Mode != SubmitLightClientUpdate {
		return fmt.Errorf("%w: %s", ErrInvalidClientMode, c.store.Mode)
	}

	participation, err := c.checkParticipation(update.SyncAggregate.SyncCommitteeBits)
	if err != nil {
		return err
	}

	if err := c.verifyFinalityBranch(update); err != nil {
		return err
	}
	if err := c.verifyNextSyncCommittee(update); err != nil {
		return err
	}

	if c.store.Config.Mode() == Trustless || c.network.RequireTrustless {
		if err := c.verifySignature(update, participation, finalizedPeriod); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) verifyFinalityBranch(update *LightClientUpdate) error {
	headerUpdate := &update.FinalityUpdate.HeaderUpdate

	finalizedRoot, err := headerUpdate.BeaconHeader.HashTreeRoot()
	if err != nil {
		return fmt.Errorf("hash finalized header: %w", err)
	}
	if !merkle.VerifyBranch(
		update.AttestedBeaconHeader.StateRoot,
		finalizedRoot,
		update.FinalityUpdate.FinalityBranch,
		c.network.FinalizedRootIndex(update.AttestedBeaconHeader.Slot),
	) {
		return ErrInvalidFinalityProof
	}

	if !merkle.VerifyBranch(
		headerUpdate.BeaconHeader.BodyRoot,
		headerUpdate.ExecutionBlockHash,
		headerUpdate.ExecutionHashBranch,
		c.network.ExecutionBlockHashIndex(headerUpdate.BeaconHeader.Slot),
	) {
		return ErrInvalidExecutionBlockHashProof
	}
	return nil
}

func (c *Client) verifyNextSyncCommittee(update *LightClientUpdate) error {
	committeeUpdate := update.SyncCommitteeUpdate
	if committeeUpdate == nil {
		return nil
	}
	if err := committeeUpdate.NextSyncCommittee.ValidateSize(c.network.Spec.SyncCommitteeSize); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSyncCommittee, err)
	}

	committeeRoot, err := committeeUpdate.NextSyncCommittee.HashTreeRoot()
	if err != nil {
		return fmt.Errorf("hash next sync committee: %w", err)
	}
	if !merkle.VerifyBranch(
		update.AttestedBeaconHeader.StateRoot,
		committeeRoot,
		committeeUpdate.NextSyncCommitteeBranch,
		c.network.NextSyncCommitteeIndex(update.AttestedBeaconHeader.Slot),
	) {
		return ErrInvalidNextSyncCommitteeProof
	}
	return nil
}

func (c *Client) commitUpdate(update *LightClientUpdate, finalizedPeriod uint64) error {
	headerUpdate := &update.FinalityUpdate.HeaderUpdate

	root, err := headerUpdate.BeaconHeader.HashTreeRoot()
	if err != nil {
		return fmt.Errorf("hash finalized header: %w", err)
	}
	finalizedHash, err := c.finalizedExecutionHash()
	if err != nil {
		return err
	}

	updatePeriod := c.network.PeriodAtSlot(headerUpdate.BeaconHeader.Slot)
	if updatePeriod == finalizedPeriod+1 && update.SyncCommitteeUpdate != nil {
		c.store.CurrentSyncCommittee = c.store.NextSyncCommittee
		c.store.NextSyncCommittee = update.SyncCommitteeUpdate.NextSyncCommittee
	}

	c.store.FinalizedBeaconHeader = ExtendedBeaconHeader{
		Header:             headerUpdate.BeaconHeader,
		BeaconBlockRoot:    common.Hash(root),
		ExecutionBlockHash: headerUpdate.ExecutionBlockHash,
	}

	if headerUpdate.ExecutionBlockHash != finalizedHash {
		c.store.Mode = SubmitHeader
	}

	log.WithFields(log.Fields{
		"network":            c.network.Name,
		"slot":               headerUpdate.BeaconHeader.Slot,
		"period":             updatePeriod,
		"beaconBlockRoot":    common.Hash(root).Hex(),
		"executionBlockHash": headerUpdate.ExecutionBlockHash.Hex(),
		"mode":               c.store.Mode,
	}).Info("Applied finality update")

	return nil
}
