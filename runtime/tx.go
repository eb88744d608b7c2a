package runtime

import (
	"math/big"

	"github.com/ethereum/go-ethereum/ethdb"

	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
)

// tx stages writes over the database until it is committed. Balance
// changes are kept as deltas and applied against the stored balances at
// commit time.
type tx struct {
	db     ethdb.KeyValueStore
	writes map[string][]byte
	order  []string
	deltas map[lightclient.AccountID]*big.Int
}

func newTx(db ethdb.KeyValueStore) *tx {
	return &tx{
		db:     db,
		writes: make(map[string][]byte),
		deltas: make(map[lightclient.AccountID]*big.Int),
	}
}

func (t *tx) get(k []byte) ([]byte, bool, error) {
	if v, ok := t.writes[string(k)]; ok {
		return v, v != nil, nil
	}
	ok, err := t.db.Has(k)
	if err != nil || !ok {
		return nil, false, err
	}
	v, err := t.db.Get(k)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (t *tx) stage(k []byte, v []byte) {
	ks := string(k)
	if _, ok := t.writes[ks]; !ok {
		t.order = append(t.order, ks)
	}
	t.writes[ks] = v
}

func (t *tx) put(k, v []byte) {
	t.stage(k, append([]byte{}, v...))
}

func (t *tx) delete(k []byte) {
	t.stage(k, nil)
}

func (t *tx) addBalance(account lightclient.AccountID, delta *big.Int) {
	d, ok := t.deltas[account]
	if !ok {
		d = new(big.Int)
		t.deltas[account] = d
	}
	d.Add(d, delta)
}

// batch collects the staged changes. Balance deltas must be resolved into
// writes before.
func (t *tx) batch() (ethdb.Batch, error) {
	b := t.db.NewBatch()
	for _, k := range t.order {
		var err error
		if v := t.writes[k]; v != nil {
			err = b.Put([]byte(k), v)
		} else {
			err = b.Delete([]byte(k))
		}
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}
