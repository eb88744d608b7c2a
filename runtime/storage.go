package runtime

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/snowfork/go-substrate-rpc-client/v4/types"

	"github.com/ggxchain/transaction-receipt-relayer/beacon/scale"
	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
	"github.com/ggxchain/transaction-receipt-relayer/registry"
)

func (t *tx) loadStore(chain lightclient.ChainID) (*lightclient.Store, bool, error) {
	data, ok, err := t.get(storeKey(chain))
	if err != nil || !ok {
		return nil, false, err
	}
	store, err := scale.DecodeStore(data)
	if err != nil {
		return nil, false, fmt.Errorf("chain %d: %w", chain, err)
	}
	return store, true, nil
}

func (t *tx) saveStore(chain lightclient.ChainID, store *lightclient.Store) error {
	data, err := scale.EncodeStore(store)
	if err != nil {
		return fmt.Errorf("chain %d: encode store: %w", chain, err)
	}
	t.put(storeKey(chain), data)
	return nil
}

// blockIndex is the finalized execution block index of one chain.
type blockIndex struct {
	tx    *tx
	chain lightclient.ChainID
}

func (b *blockIndex) BlockHash(number uint64) (common.Hash, bool, error) {
	data, ok, err := b.tx.get(blockKey(b.chain, number))
	if err != nil || !ok {
		return common.Hash{}, false, err
	}
	if len(data) != common.HashLength {
		return common.Hash{}, false, fmt.Errorf("chain %d: corrupt block hash entry %d", b.chain, number)
	}
	return common.BytesToHash(data), true, nil
}

func (b *blockIndex) SetBlockHash(number uint64, hash common.Hash) error {
	b.tx.put(blockKey(b.chain, number), hash[:])
	return nil
}

func (b *blockIndex) DeleteBlockHash(number uint64) error {
	b.tx.delete(blockKey(b.chain, number))
	return nil
}

type processedReceipts struct {
	tx    *tx
	chain lightclient.ChainID
}

func (p *processedReceipts) ContainsReceipt(number uint64, receiptHash common.Hash) (bool, error) {
	_, ok, err := p.tx.get(receiptKey(p.chain, number, receiptHash))
	return ok, err
}

func (p *processedReceipts) ContainsReceiptHash(receiptHash common.Hash) (bool, error) {
	_, ok, err := p.tx.get(receiptHashKey(p.chain, receiptHash))
	return ok, err
}

func (p *processedReceipts) InsertReceipt(number uint64, receiptHash common.Hash) error {
	p.tx.put(receiptKey(p.chain, number, receiptHash), processedReceiptVal)
	return nil
}

func (p *processedReceipts) InsertReceiptHash(receiptHash common.Hash) error {
	p.tx.put(receiptHashKey(p.chain, receiptHash), processedReceiptVal)
	return nil
}

func (t *tx) watchedAddress() (common.Address, error) {
	data, ok, err := t.get(watchedAddressKey)
	if err != nil || !ok {
		return common.Address{}, err
	}
	return common.BytesToAddress(data), nil
}

func (t *tx) setWatchedAddress(address common.Address) {
	t.put(watchedAddressKey, address[:])
}

type feesRecord struct {
	ProofDeposit types.U128
	ProofReward  types.U128
}

func (t *tx) proofFees() (registry.Fees, error) {
	data, ok, err := t.get(proofFeesKey)
	if err != nil {
		return registry.Fees{}, err
	}
	if !ok {
		return registry.Fees{ProofDeposit: new(big.Int), ProofReward: new(big.Int)}, nil
	}
	var record feesRecord
	if err := types.DecodeFromBytes(data, &record); err != nil {
		return registry.Fees{}, fmt.Errorf("decode proof fees: %w", err)
	}
	return registry.Fees{ProofDeposit: record.ProofDeposit.Int, ProofReward: record.ProofReward.Int}, nil
}

func (t *tx) setProofFees(fees registry.Fees) error {
	data, err := types.EncodeToBytes(feesRecord{
		ProofDeposit: types.NewU128(*fees.ProofDeposit),
		ProofReward:  types.NewU128(*fees.ProofReward),
	})
	if err != nil {
		return err
	}
	t.put(proofFeesKey, data)
	return nil
}

func (t *tx) storedBalance(account lightclient.AccountID) (*big.Int, error) {
	data, ok, err := t.get(balanceKey(account))
	if err != nil {
		return nil, err
	}
	if !ok {
		return new(big.Int), nil
	}
	var balance types.U128
	if err := types.DecodeFromBytes(data, &balance); err != nil {
		return nil, fmt.Errorf("decode balance of %s: %w", account, err)
	}
	return balance.Int, nil
}

func (t *tx) setStoredBalance(account lightclient.AccountID, balance *big.Int) error {
	data, err := types.EncodeToBytes(types.NewU128(*balance))
	if err != nil {
		return err
	}
	t.put(balanceKey(account), data)
	return nil
}
