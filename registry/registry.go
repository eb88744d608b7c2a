package registry

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	"github.com/ggxchain/transaction-receipt-relayer/beacon/scale"
	"github.com/ggxchain/transaction-receipt-relayer/lightclient"
)

var (
	ErrDeserializeFail        = errors.New("failed to deserialize event proof")
	ErrHeaderHashDoesNotExist = errors.New("execution block is not finalized")
	ErrVerifyProofFail        = errors.New("event proof verification failed")
)

// DefaultMaxProofSize bounds the encoded size of a submitted proof.
const DefaultMaxProofSize = 1 << 20

type OutcomeKind uint8

const (
	// OutcomeNone means the receipt has no log from the watched address.
	OutcomeNone OutcomeKind = iota
	OutcomeReward
	OutcomeCharge
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNone:
		return "none"
	case OutcomeReward:
		return "reward"
	case OutcomeCharge:
		return "charge"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", uint8(k))
	}
}

// Outcome tells the caller what to do with the submitter's balance.
type Outcome struct {
	Kind        OutcomeKind
	Amount      *big.Int
	BlockNumber uint64
	ReceiptHash common.Hash
}

type Fees struct {
	ProofDeposit *big.Int
	ProofReward  *big.Int
}

type Settings struct {
	WatchedAddress common.Address
	Fees           Fees
	MaxProofSize   int
}

// Registry accepts receipt proofs for the finalized blocks of one chain.
type Registry struct {
	chain     lightclient.ChainID
	blocks    lightclient.BlockIndex
	processed ProcessedReceipts
	settings  Settings
}

func New(chain lightclient.ChainID, blocks lightclient.BlockIndex, processed ProcessedReceipts, settings Settings) *Registry {
	if settings.MaxProofSize <= 0 {
		settings.MaxProofSize = DefaultMaxProofSize
	}
	return &Registry{
		chain:     chain,
		blocks:    blocks,
		processed: processed,
		settings:  settings,
	}
}

func amount(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(x)
}

// SubmitProof verifies an encoded event proof against the finalized block
// index and records its receipt. A proof of a receipt seen before is charged
// the proof deposit, a new one earns the proof reward.
func (r *Registry) SubmitProof(raw []byte) (*Outcome, error) {
	if len(raw) > r.settings.MaxProofSize {
		return nil, fmt.Errorf("%w: proof of %d bytes exceeds %d", ErrDeserializeFail, len(raw), r.settings.MaxProofSize)
	}
	proof, err := scale.DecodeEventProof(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserializeFail, err)
	}

	number := proof.BlockHeader.Number
	hash, ok, err := r.blocks.BlockHash(number)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: block %d", ErrHeaderHashDoesNotExist, number)
	}
	if hash != proof.BlockHash {
		return nil, fmt.Errorf("%w: block %d is %s, proof is for %s", lightclient.ErrBlockHashesDoNotMatch, number, hash.Hex(), proof.BlockHash.Hex())
	}

	if err := proof.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerifyProofFail, err)
	}

	logger := log.WithFields(log.Fields{
		"chain":       r.chain,
		"blockNumber": number,
		"receiptHash": proof.TransactionReceiptHash.Hex(),
		"index":       proof.TransactionIndex,
	})

	outcome := &Outcome{Kind: OutcomeNone, Amount: new(big.Int), BlockNumber: number, ReceiptHash: proof.TransactionReceiptHash}
	if len(proof.TransactionReceipt.LogsFrom(r.settings.WatchedAddress)) == 0 {
		logger.Debug("Receipt has no log from the watched address")
		return outcome, nil
	}

	seen, err := r.seen(number, proof.TransactionReceiptHash)
	if err != nil {
		return nil, err
	}
	if seen {
		outcome.Kind, outcome.Amount = OutcomeCharge, amount(r.settings.Fees.ProofDeposit)
	} else {
		outcome.Kind, outcome.Amount = OutcomeReward, amount(r.settings.Fees.ProofReward)
	}

	if err := r.processed.InsertReceipt(number, proof.TransactionReceiptHash); err != nil {
		return nil, err
	}
	if err := r.processed.InsertReceiptHash(proof.TransactionReceiptHash); err != nil {
		return nil, err
	}

	logger.WithFields(log.Fields{
		"outcome": outcome.Kind,
		"amount":  outcome.Amount,
	}).Info("Processed receipt proof")

	return outcome, nil
}

func (r *Registry) seen(number uint64, receiptHash common.Hash) (bool, error) {
	ok, err := r.processed.ContainsReceiptHash(receiptHash)
	if err != nil || ok {
		return ok, err
	}
	return r.processed.ContainsReceipt(number, receiptHash)
}
