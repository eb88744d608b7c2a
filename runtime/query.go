package runtime

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
	"github.com/ggxchain/transaction-receipt-relayer/registry"
)

// ChainStatus is a snapshot of one light client.
type ChainStatus struct {
	Chain            lightclient.ChainID
	Network          string
	Mode             string
	VerificationMode string
	Paused           bool
	FinalizedSlot    uint64
	FinalizedRoot    string
	ExecutionHash    string
	LastBlockNumber  uint64
	HasTail          bool
	TailBlockNumber  uint64
	PendingHeaders   int
	TrustedSigner    string
}

func (r *Runtime) withClient(chain lightclient.ChainID, fn func(client *lightclient.Client) error) error {
	return r.view(chain, func(t *tx) error {
		client, err := r.client(t, chain)
		if err != nil {
			return err
		}
		return fn(client)
	})
}

func (r *Runtime) Status(chain lightclient.ChainID) (*ChainStatus, error) {
	var status *ChainStatus
	err := r.withClient(chain, func(client *lightclient.Client) error {
		store := client.Store()
		status = &ChainStatus{
			Chain:            chain,
			Network:          store.Network,
			Mode:             client.Mode().String(),
			VerificationMode: store.Config.Mode().String(),
			Paused:           client.Paused(),
			FinalizedSlot:    client.FinalizedBeaconBlockSlot(),
			FinalizedRoot:    client.FinalizedBeaconBlockRoot().Hex(),
			ExecutionHash:    store.FinalizedBeaconHeader.ExecutionBlockHash.Hex(),
			LastBlockNumber:  client.LastBlockNumber(),
			PendingHeaders:   len(store.UnfinalizedHeaders),
		}
		status.TailBlockNumber, status.HasTail = client.UnfinalizedTailBlockNumber()
		if signer := store.Config.TrustedSigner; signer != nil {
			status.TrustedSigner = signer.Hex()
		}
		return nil
	})
	return status, err
}

func (r *Runtime) LastBlockNumber(chain lightclient.ChainID) (uint64, error) {
	var number uint64
	err := r.withClient(chain, func(client *lightclient.Client) error {
		number = client.LastBlockNumber()
		return nil
	})
	return number, err
}

func (r *Runtime) BlockHashSafe(chain lightclient.ChainID, number uint64) (common.Hash, bool, error) {
	var (
		hash common.Hash
		ok   bool
	)
	err := r.withClient(chain, func(client *lightclient.Client) error {
		var err error
		hash, ok, err = client.BlockHashSafe(number)
		return err
	})
	return hash, ok, err
}

func (r *Runtime) IsKnownExecutionHeader(chain lightclient.ChainID, number uint64) (bool, error) {
	var known bool
	err := r.withClient(chain, func(client *lightclient.Client) error {
		var err error
		known, err = client.IsKnownExecutionHeader(number)
		return err
	})
	return known, err
}

func (r *Runtime) ProcessedReceipt(chain lightclient.ChainID, number uint64, receiptHash common.Hash) (bool, error) {
	var ok bool
	err := r.view(chain, func(t *tx) error {
		var err error
		ok, err = (&processedReceipts{tx: t, chain: chain}).ContainsReceipt(number, receiptHash)
		return err
	})
	return ok, err
}

func (r *Runtime) ProcessedReceiptHash(chain lightclient.ChainID, receiptHash common.Hash) (bool, error) {
	var ok bool
	err := r.view(chain, func(t *tx) error {
		var err error
		ok, err = (&processedReceipts{tx: t, chain: chain}).ContainsReceiptHash(receiptHash)
		return err
	})
	return ok, err
}

func (r *Runtime) Balance(account lightclient.AccountID) (*big.Int, error) {
	r.ledgerMu.Lock()
	defer r.ledgerMu.Unlock()
	return newTx(r.db).storedBalance(account)
}

func (r *Runtime) WatchedAddress() (common.Address, error) {
	r.settingsMu.RLock()
	defer r.settingsMu.RUnlock()
	return newTx(r.db).watchedAddress()
}

func (r *Runtime) ProofFees() (registry.Fees, error) {
	r.settingsMu.RLock()
	defer r.settingsMu.RUnlock()
	return newTx(r.db).proofFees()
}
