// Package bls verifies sync committee aggregate signatures over BLS12-381
// using blst.
package bls

import (
	"errors"
	"fmt"
	"runtime"

	lru "github.com/hashicorp/golang-lru"
	blst "github.com/supranational/blst/bindings/go"
)

// DST is the ciphersuite tag of the Ethereum proof-of-possession scheme.
var DST = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_POP_")

const (
	PublicKeyLength = 48
	SignatureLength = 96

	// Enough for the current and next committee of a few chains.
	maxKeys = 4096
)

var (
	ErrInvalidPublicKey = errors.New("invalid BLS public key")
	ErrInvalidSignature = errors.New("invalid BLS signature")
	ErrNoPublicKeys     = errors.New("no public keys to aggregate")
)

var pubkeyCache *lru.Cache

func init() {
	maxProcs := runtime.GOMAXPROCS(0) - 1
	if maxProcs <= 0 {
		maxProcs = 1
	}
	blst.SetMaxProcs(maxProcs)

	cache, err := lru.New(maxKeys)
	if err != nil {
		panic(fmt.Sprintf("could not initiate public keys cache: %v", err))
	}
	pubkeyCache = cache
}

// PublicKey decompresses and validates a compressed G1 point. Decoded keys
// are cached, committees are reused for a whole period.
func PublicKey(compressed [PublicKeyLength]byte) (*blst.P1Affine, error) {
	if cached, ok := pubkeyCache.Get(compressed); ok {
		return cached.(*blst.P1Affine), nil
	}

	pk := new(blst.P1Affine).Uncompress(compressed[:])
	if pk == nil || !pk.KeyValidate() {
		return nil, ErrInvalidPublicKey
	}
	pubkeyCache.Add(compressed, pk)
	return pk, nil
}

// FastAggregateVerify checks sig against msg for the given participants,
// all of whom signed the same message.
func FastAggregateVerify(pubkeys [][PublicKeyLength]byte, msg [32]byte, sig [SignatureLength]byte) error {
	if len(pubkeys) == 0 {
		return ErrNoPublicKeys
	}

	keys := make([]*blst.P1Affine, 0, len(pubkeys))
	for i, compressed := range pubkeys {
		pk, err := PublicKey(compressed)
		if err != nil {
			return fmt.Errorf("participant %d: %w", i, err)
		}
		keys = append(keys, pk)
	}

	s := new(blst.P2Affine).Uncompress(sig[:])
	if s == nil {
		return ErrInvalidSignature
	}
	if !s.FastAggregateVerify(true, keys, msg[:], DST) {
		return ErrInvalidSignature
	}
	return nil
}

// AggregatePublicKeys combines compressed public keys into the aggregate key
// carried by a sync committee.
func AggregatePublicKeys(pubkeys [][PublicKeyLength]byte) ([PublicKeyLength]byte, error) {
	var out [PublicKeyLength]byte
	if len(pubkeys) == 0 {
		return out, ErrNoPublicKeys
	}
	compressed := make([][]byte, len(pubkeys))
	for i := range pubkeys {
		compressed[i] = pubkeys[i][:]
	}
	agg := new(blst.P1Aggregate)
	if !agg.AggregateCompressed(compressed, true) {
		return out, ErrInvalidPublicKey
	}
	copy(out[:], agg.ToAffine().Compress())
	return out, nil
}
