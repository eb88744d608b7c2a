package lightclient

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ggxchain/transaction-receipt-relayer/beacon/config"
	"github.com/ggxchain/transaction-receipt-relayer/beacon/state"
)

// Store is the light client state of one chain.
type Store struct {
	Network                  string
	FinalizedBeaconHeader    ExtendedBeaconHeader
	FinalizedExecutionHeader ExecutionHeaderInfo
	CurrentSyncCommittee     state.SyncCommittee
	NextSyncCommittee        state.SyncCommittee
	// Execution headers submitted since the last finality update, keyed by
	// block hash. They form one chain from the anchor down to the tail.
	UnfinalizedHeaders map[common.Hash]ExecutionHeaderInfo
	UnfinalizedTail    *common.Hash
	Mode               Mode
	Paused             bool
	Config             Config
}

// BlockIndex maps finalized execution block numbers to hashes. It is kept
// outside Store so that it can live in storage entry by entry.
type BlockIndex interface {
	BlockHash(number uint64) (common.Hash, bool, error)
	SetBlockHash(number uint64, hash common.Hash) error
	DeleteBlockHash(number uint64) error
}

// MemoryBlockIndex is a BlockIndex backed by a map.
type MemoryBlockIndex map[uint64]common.Hash

func (m MemoryBlockIndex) BlockHash(number uint64) (common.Hash, bool, error) {
	hash, ok := m[number]
	return hash, ok, nil
}

func (m MemoryBlockIndex) SetBlockHash(number uint64, hash common.Hash) error {
	m[number] = hash
	return nil
}

func (m MemoryBlockIndex) DeleteBlockHash(number uint64) error {
	delete(m, number)
	return nil
}

// Client applies updates and execution headers to one store.
type Client struct {
	store   *Store
	blocks  BlockIndex
	network *config.Network
}

func New(store *Store, blocks BlockIndex) (*Client, error) {
	network, err := config.Lookup(store.Network)
	if err != nil {
		return nil, err
	}
	if store.UnfinalizedHeaders == nil {
		store.UnfinalizedHeaders = make(map[common.Hash]ExecutionHeaderInfo)
	}
	return &Client{store: store, blocks: blocks, network: network}, nil
}

func (c *Client) Store() *Store {
	return c.store
}

func (c *Client) Network() *config.Network {
	return c.network
}

func (c *Client) finalizedExecutionHash() (common.Hash, error) {
	number := c.store.FinalizedExecutionHeader.BlockNumber
	hash, ok, err := c.blocks.BlockHash(number)
	if err != nil {
		return common.Hash{}, err
	}
	if !ok {
		return common.Hash{}, fmt.Errorf("finalized execution block %d missing from index", number)
	}
	return hash, nil
}

// BlockHashSafe returns the hash of a finalized execution block.
func (c *Client) BlockHashSafe(number uint64) (common.Hash, bool, error) {
	return c.blocks.BlockHash(number)
}

// IsKnownExecutionHeader reports whether a header with this number has been
// finalized or is waiting for its segment to be finalized.
func (c *Client) IsKnownExecutionHeader(number uint64) (bool, error) {
	_, ok, err := c.blocks.BlockHash(number)
	if err != nil || ok {
		return ok, err
	}
	for _, info := range c.store.UnfinalizedHeaders {
		if info.BlockNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) LastBlockNumber() uint64 {
	return c.store.FinalizedExecutionHeader.BlockNumber
}

func (c *Client) FinalizedBeaconBlockSlot() uint64 {
	return c.store.FinalizedBeaconHeader.Header.Slot
}

func (c *Client) FinalizedBeaconBlockRoot() common.Hash {
	return c.store.FinalizedBeaconHeader.BeaconBlockRoot
}

// UnfinalizedTailBlockNumber is the number of the oldest pending execution
// header, if any.
func (c *Client) UnfinalizedTailBlockNumber() (uint64, bool) {
	if c.store.UnfinalizedTail == nil {
		return 0, false
	}
	info, ok := c.store.UnfinalizedHeaders[*c.store.UnfinalizedTail]
	return info.BlockNumber, ok
}

func (c *Client) Paused() bool {
	return c.store.Paused
}

func (c *Client) SetPaused(paused bool) {
	c.store.Paused = paused
}

// SetTrustedSigner gates updates to one account. Networks that must stay
// trustless refuse a signer.
func (c *Client) SetTrustedSigner(signer *AccountID) error {
	if signer == nil {
		c.store.Config.TrustedSigner = nil
		return nil
	}
	if c.network.RequireTrustless {
		return fmt.Errorf("%w: %s does not accept a trusted signer", ErrTrustlessModeError, c.network.Name)
	}
	s := *signer
	c.store.Config.TrustedSigner = &s
	return nil
}

func (c *Client) Mode() Mode {
	return c.store.Mode
}
