package runtime

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"

	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
)

const (
	dbCache   = 16
	dbHandles = 16
)

// OpenDatabase opens the leveldb database kept under dataDir.
func OpenDatabase(dataDir string) (ethdb.KeyValueStore, error) {
	path := filepath.Join(dataDir, "relayerdata")
	db, err := leveldb.New(path, dbCache, dbHandles, "relayer/db/", false)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	log.WithField("path", path).Info("Opened database")
	return db, nil
}

func NewMemoryDatabase() ethdb.KeyValueStore {
	return memorydb.New()
}

var (
	storePrefix         = []byte("s|")
	blockPrefix         = []byte("b|")
	receiptPrefix       = []byte("r|")
	receiptHashPrefix   = []byte("h|")
	balancePrefix       = []byte("a|")
	watchedAddressKey   = []byte("w")
	proofFeesKey        = []byte("f")
	processedReceiptVal = []byte{1}
)

func key(prefix []byte, parts ...[]byte) []byte {
	k := append([]byte{}, prefix...)
	for i, part := range parts {
		if i > 0 {
			k = append(k, '|')
		}
		k = append(k, part...)
	}
	return k
}

func be64(x uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], x)
	return b[:]
}

func storeKey(chain lightclient.ChainID) []byte {
	return key(storePrefix, be64(uint64(chain)))
}

func blockKey(chain lightclient.ChainID, number uint64) []byte {
	return key(blockPrefix, be64(uint64(chain)), be64(number))
}

func receiptKey(chain lightclient.ChainID, number uint64, hash common.Hash) []byte {
	return key(receiptPrefix, be64(uint64(chain)), be64(number), hash[:])
}

func receiptHashKey(chain lightclient.ChainID, hash common.Hash) []byte {
	return key(receiptHashPrefix, be64(uint64(chain)), hash[:])
}

func balanceKey(account lightclient.AccountID) []byte {
	return key(balancePrefix, account[:])
}
