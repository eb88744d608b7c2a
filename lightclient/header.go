package lightclient

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"github.com/ggxchain/transaction-receipt-relayer/chain/ethereum"
)

// SubmitExecutionHeader links one execution header into the chain ending at
// the anchor of the last finality update. Headers are submitted from the
// anchor backwards. When the submitted header is the child of the finalized
// execution header, the whole pending segment is finalized.
func (c *Client) SubmitExecutionHeader(submitter AccountID, header *ethereum.ExecutionHeader) error {
	if c.store.Mode != SubmitHeader {
		return fmt.Errorf("%w: %s", ErrInvalidClientMode, c.store.Mode)
	}

	hash := header.Hash()
	expected := c.store.FinalizedBeaconHeader.ExecutionBlockHash
	if c.store.UnfinalizedTail != nil {
		expected = c.store.UnfinalizedHeaders[*c.store.UnfinalizedTail].ParentHash
	}
	if hash != expected {
		return fmt.Errorf("%w: header %d hashes to %s, expected %s",
			ErrBlockHashesDoNotMatch, header.Number, hash.Hex(), expected.Hex())
	}

	finalizedNumber := c.store.FinalizedExecutionHeader.BlockNumber
	if header.Number <= finalizedNumber {
		return fmt.Errorf("%w: header %d is not above finalized header %d",
			ErrBlockHashesDoNotMatch, header.Number, finalizedNumber)
	}

	info := ExecutionHeaderInfo{
		ParentHash:  header.ParentHash,
		BlockNumber: header.Number,
		Submitter:   submitter,
	}

	if header.Number != finalizedNumber+1 {
		c.store.UnfinalizedHeaders[hash] = info
		c.store.UnfinalizedTail = &hash

		log.WithFields(log.Fields{
			"number": header.Number,
			"hash":   hash.Hex(),
		}).Debug("Accepted unfinalized execution header")
		return nil
	}

	finalizedHash, err := c.finalizedExecutionHash()
	if err != nil {
		return err
	}
	if header.ParentHash != finalizedHash {
		return fmt.Errorf("%w: parent %s of header %d is not the finalized header %s",
			ErrBlockHashesDoNotMatch, header.ParentHash.Hex(), header.Number, finalizedHash.Hex())
	}

	return c.finalizeSegment(hash, info)
}

// finalizeSegment promotes the pending headers from the anchor down to the
// header that connects to the finalized chain.
func (c *Client) finalizeSegment(hash common.Hash, info ExecutionHeaderInfo) error {
	anchor := c.store.FinalizedBeaconHeader.ExecutionBlockHash
	head, ok := c.store.UnfinalizedHeaders[anchor]
	if anchor == hash {
		head, ok = info, true
	}
	if !ok {
		return fmt.Errorf("anchor %s missing from unfinalized headers", anchor.Hex())
	}

	segment := c.store.UnfinalizedHeaders
	segment[hash] = info

	count := 0
	for cursor := anchor; ; {
		current, ok := segment[cursor]
		if !ok {
			break
		}
		if err := c.blocks.SetBlockHash(current.BlockNumber, cursor); err != nil {
			return err
		}
		count++
		cursor = current.ParentHash
	}

	c.store.FinalizedExecutionHeader = head
	c.store.UnfinalizedHeaders = make(map[common.Hash]ExecutionHeaderInfo)
	c.store.UnfinalizedTail = nil
	c.store.Mode = SubmitLightClientUpdate

	log.WithFields(log.Fields{
		"network": c.network.Name,
		"from":    info.BlockNumber,
		"to":      head.BlockNumber,
		"headers": count,
	}).Info("Finalized execution headers")

	return c.gcFinalizedBlocks()
}

// gcFinalizedBlocks drops finalized hashes more than HashesGCThreshold blocks
// below the finalized head, newest first, stopping at the first gap.
func (c *Client) gcFinalizedBlocks() error {
	threshold := c.store.Config.HashesGCThreshold
	head := c.store.FinalizedExecutionHeader.BlockNumber
	if head <= threshold {
		return nil
	}

	removed := 0
	for number := head - threshold; number > 0; {
		number--
		_, ok, err := c.blocks.BlockHash(number)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := c.blocks.DeleteBlockHash(number); err != nil {
			return err
		}
		removed++
	}

	if removed > 0 {
		log.WithFields(log.Fields{
			"network": c.network.Name,
			"below":   head - threshold,
			"removed": removed,
		}).Info("Removed old execution block hashes")
	}
	return nil
}
