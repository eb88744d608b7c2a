// Package runtime hosts the light clients and the receipt registry of every
// chain on one key-value database. Each entry point runs in a staged
// transaction that is committed on success and discarded on error.
package runtime

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/sirupsen/logrus"

	"github.com/ggxchain/transaction-receipt-relayer/beacon/scale"
	"github.com/ggxchain/transaction-receipt-relayer/chain/ethereum"
	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
	"github.com/ggxchain/transaction-receipt-relayer/registry"
)

var log = logrus.WithField("prefix", "runtime")

type Options struct {
	Admins   Authorizer
	Treasury *lightclient.AccountID
	// Charged per byte of stored execution header entry. Nil or zero
	// disables the storage fee.
	StoragePricePerByte *big.Int
	MaxProofSize        int
}

type Runtime struct {
	db      ethdb.KeyValueStore
	options Options

	mu     sync.Mutex
	chains map[lightclient.ChainID]*sync.Mutex

	// settingsMu guards the watched address and the proof fees.
	settingsMu sync.RWMutex
	ledgerMu   sync.Mutex
}

func New(db ethdb.KeyValueStore, options Options) *Runtime {
	if options.Admins == nil {
		options.Admins = NewAdminSet()
	}
	if options.StoragePricePerByte == nil {
		options.StoragePricePerByte = new(big.Int)
	}
	return &Runtime{
		db:      db,
		options: options,
		chains:  make(map[lightclient.ChainID]*sync.Mutex),
	}
}

func (r *Runtime) Close() error {
	return r.db.Close()
}

func (r *Runtime) chainLock(chain lightclient.ChainID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.chains[chain]
	if !ok {
		lock = new(sync.Mutex)
		r.chains[chain] = lock
	}
	return lock
}

func (r *Runtime) commit(t *tx) error {
	r.ledgerMu.Lock()
	defer r.ledgerMu.Unlock()

	if err := t.settle(); err != nil {
		return err
	}
	b, err := t.batch()
	if err != nil {
		return err
	}
	return b.Write()
}

// update runs fn in a transaction holding the lock of chain.
func (r *Runtime) update(chain lightclient.ChainID, fn func(t *tx) error) error {
	lock := r.chainLock(chain)
	lock.Lock()
	defer lock.Unlock()
	r.settingsMu.RLock()
	defer r.settingsMu.RUnlock()

	t := newTx(r.db)
	if err := fn(t); err != nil {
		return err
	}
	return r.commit(t)
}

// updateSettings runs fn in a transaction that excludes every chain
// transaction.
func (r *Runtime) updateSettings(fn func(t *tx) error) error {
	r.settingsMu.Lock()
	defer r.settingsMu.Unlock()

	t := newTx(r.db)
	if err := fn(t); err != nil {
		return err
	}
	return r.commit(t)
}

func (r *Runtime) view(chain lightclient.ChainID, fn func(t *tx) error) error {
	lock := r.chainLock(chain)
	lock.Lock()
	defer lock.Unlock()
	return fn(newTx(r.db))
}

func (r *Runtime) client(t *tx, chain lightclient.ChainID) (*lightclient.Client, error) {
	store, ok, err := t.loadStore(chain)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", lightclient.ErrChainNotInitialized, chain)
	}
	return lightclient.New(store, &blockIndex{tx: t, chain: chain})
}

func (r *Runtime) ledger(t *tx) *ledger {
	return &ledger{tx: t, treasury: r.options.Treasury}
}

// Init bootstraps the light client of chain from a trusted checkpoint.
func (r *Runtime) Init(chain lightclient.ChainID, caller lightclient.AccountID, input *lightclient.InitInput) error {
	return r.update(chain, func(t *tx) error {
		_, ok, err := t.get(storeKey(chain))
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("%w: %d", lightclient.ErrChainAlreadyInitialized, chain)
		}

		store, err := lightclient.Initialize(input, caller, &blockIndex{tx: t, chain: chain})
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{
			"chain":       chain,
			"network":     store.Network,
			"blockNumber": store.FinalizedExecutionHeader.BlockNumber,
			"slot":        store.FinalizedBeaconHeader.Header.Slot,
			"mode":        store.Config.Mode(),
		}).Info("Initialized light client")

		return t.saveStore(chain, store)
	})
}

func (r *Runtime) SubmitUpdate(chain lightclient.ChainID, caller lightclient.AccountID, update *lightclient.LightClientUpdate) error {
	return r.update(chain, func(t *tx) error {
		client, err := r.client(t, chain)
		if err != nil {
			return err
		}
		if err := client.SubmitUpdate(caller, update); err != nil {
			return err
		}
		return t.saveStore(chain, client.Store())
	})
}

func (r *Runtime) storageFee(info *lightclient.ExecutionHeaderInfo) (*big.Int, error) {
	if r.options.StoragePricePerByte.Sign() == 0 {
		return new(big.Int), nil
	}
	encoded, err := scale.EncodeExecutionHeaderInfo(info)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Mul(r.options.StoragePricePerByte, big.NewInt(int64(len(encoded)))), nil
}

// SubmitExecutionHeader charges the submitter the storage fee of one header
// entry on success.
func (r *Runtime) SubmitExecutionHeader(chain lightclient.ChainID, caller lightclient.AccountID, header *ethereum.ExecutionHeader) error {
	return r.update(chain, func(t *tx) error {
		client, err := r.client(t, chain)
		if err != nil {
			return err
		}

		fee, err := r.storageFee(&lightclient.ExecutionHeaderInfo{
			ParentHash:  header.ParentHash,
			BlockNumber: header.Number,
			Submitter:   caller,
		})
		if err != nil {
			return err
		}
		ledger := r.ledger(t)
		if err := ledger.Hold(caller, fee); err != nil {
			return err
		}

		if err := client.SubmitExecutionHeader(caller, header); err != nil {
			return err
		}
		if err := ledger.Charge(caller, fee); err != nil {
			return err
		}
		return t.saveStore(chain, client.Store())
	})
}

// SubmitProof checks a receipt proof for chain and pays or charges the
// caller accordingly.
func (r *Runtime) SubmitProof(chain lightclient.ChainID, caller lightclient.AccountID, raw []byte) (*registry.Outcome, error) {
	var outcome *registry.Outcome
	err := r.update(chain, func(t *tx) error {
		if _, err := r.client(t, chain); err != nil {
			return err
		}
		watched, err := t.watchedAddress()
		if err != nil {
			return err
		}
		fees, err := t.proofFees()
		if err != nil {
			return err
		}

		reg := registry.New(chain, &blockIndex{tx: t, chain: chain}, &processedReceipts{tx: t, chain: chain}, registry.Settings{
			WatchedAddress: watched,
			Fees:           fees,
			MaxProofSize:   r.options.MaxProofSize,
		})
		outcome, err = reg.SubmitProof(raw)
		if err != nil {
			return err
		}

		ledger := r.ledger(t)
		switch outcome.Kind {
		case registry.OutcomeReward:
			return ledger.Reward(caller, outcome.Amount)
		case registry.OutcomeCharge:
			return ledger.Charge(caller, outcome.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (r *Runtime) adminUpdate(chain lightclient.ChainID, caller lightclient.AccountID, fn func(client *lightclient.Client) error) error {
	if err := r.options.Admins.Authorize(caller); err != nil {
		return err
	}
	return r.update(chain, func(t *tx) error {
		client, err := r.client(t, chain)
		if err != nil {
			return err
		}
		if err := fn(client); err != nil {
			return err
		}
		return t.saveStore(chain, client.Store())
	})
}

func (r *Runtime) Pause(chain lightclient.ChainID, caller lightclient.AccountID) error {
	return r.adminUpdate(chain, caller, func(client *lightclient.Client) error {
		client.SetPaused(true)
		log.WithField("chain", chain).Info("Paused light client updates")
		return nil
	})
}

func (r *Runtime) Resume(chain lightclient.ChainID, caller lightclient.AccountID) error {
	return r.adminUpdate(chain, caller, func(client *lightclient.Client) error {
		client.SetPaused(false)
		log.WithField("chain", chain).Info("Resumed light client updates")
		return nil
	})
}

// SetTrustedSigner restricts updates of chain to signer. A nil signer lifts
// the restriction.
func (r *Runtime) SetTrustedSigner(chain lightclient.ChainID, caller lightclient.AccountID, signer *lightclient.AccountID) error {
	return r.adminUpdate(chain, caller, func(client *lightclient.Client) error {
		if err := client.SetTrustedSigner(signer); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"chain":  chain,
			"signer": signer,
		}).Info("Updated trusted signer")
		return nil
	})
}

func (r *Runtime) UpdateWatchingAddress(caller lightclient.AccountID, address common.Address) error {
	if err := r.options.Admins.Authorize(caller); err != nil {
		return err
	}
	return r.updateSettings(func(t *tx) error {
		t.setWatchedAddress(address)
		log.WithField("address", address.Hex()).Info("Updated watched address")
		return nil
	})
}

func (r *Runtime) UpdateProofFee(caller lightclient.AccountID, deposit, reward *big.Int) error {
	if err := r.options.Admins.Authorize(caller); err != nil {
		return err
	}
	if deposit == nil || reward == nil {
		return fmt.Errorf("proof fees must be set")
	}
	if deposit.Sign() < 0 || reward.Sign() < 0 {
		return fmt.Errorf("proof fees must not be negative")
	}
	deposit, reward = new(big.Int).Set(deposit), new(big.Int).Set(reward)
	return r.updateSettings(func(t *tx) error {
		log.WithFields(logrus.Fields{
			"deposit": deposit,
			"reward":  reward,
		}).Info("Updated proof fees")
		return t.setProofFees(registry.Fees{ProofDeposit: deposit, ProofReward: reward})
	})
}

// Fund credits amount to account.
func (r *Runtime) Fund(caller lightclient.AccountID, account lightclient.AccountID, amount *big.Int) error {
	if err := r.options.Admins.Authorize(caller); err != nil {
		return err
	}
	if amount == nil {
		return fmt.Errorf("funding amount must be set")
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("cannot fund a negative amount")
	}
	amount = new(big.Int).Set(amount)
	return r.updateSettings(func(t *tx) error {
		return r.ledger(t).Reward(account, amount)
	})
}

// SeedSettings stores the watched address and the proof fees unless they
// were already set, either by an earlier seed or by an admin.
func (r *Runtime) SeedSettings(address common.Address, fees registry.Fees) error {
	return r.updateSettings(func(t *tx) error {
		if _, ok, err := t.get(watchedAddressKey); err != nil {
			return err
		} else if !ok {
			t.setWatchedAddress(address)
		}
		if _, ok, err := t.get(proofFeesKey); err != nil {
			return err
		} else if !ok {
			return t.setProofFees(fees)
		}
		return nil
	})
}
