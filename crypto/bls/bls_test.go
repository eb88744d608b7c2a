package bls

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	blst "github.com/supranational/blst/bindings/go"
)

type SecretKey struct {
	sk *blst.SecretKey
}

func NewSecretKey(ikm []byte) (*SecretKey, error) {
	if len(ikm) < 32 {
		return nil, errors.New("key material must be at least 32 bytes")
	}
	return &SecretKey{sk: blst.KeyGen(ikm)}, nil
}

func (k *SecretKey) PublicKey() [PublicKeyLength]byte {
	var out [PublicKeyLength]byte
	copy(out[:], new(blst.P1Affine).From(k.sk).Compress())
	return out
}

func (k *SecretKey) Sign(msg []byte) [SignatureLength]byte {
	var out [SignatureLength]byte
	copy(out[:], new(blst.P2Affine).Sign(k.sk, msg, DST).Compress())
	return out
}

func AggregateSignatures(sigs [][SignatureLength]byte) ([SignatureLength]byte, error) {
	var out [SignatureLength]byte
	compressed := make([][]byte, len(sigs))
	for i := range sigs {
		compressed[i] = sigs[i][:]
	}
	agg := new(blst.P2Aggregate)
	if !agg.AggregateCompressed(compressed, true) {
		return out, ErrInvalidSignature
	}
	copy(out[:], agg.ToAffine().Compress())
	return out, nil
}

func testKeys(t *testing.T, n int) []*SecretKey {
	keys := make([]*SecretKey, n)
	for i := range keys {
		seed := sha256.Sum256([]byte{byte(i), byte(i >> 8), 0x42})
		sk, err := NewSecretKey(seed[:])
		require.NoError(t, err)
		keys[i] = sk
	}
	return keys
}

func TestFastAggregateVerify(t *testing.T) {
	keys := testKeys(t, 8)
	msg := sha256.Sum256([]byte("signing root"))

	pubkeys := make([][PublicKeyLength]byte, len(keys))
	sigs := make([][SignatureLength]byte, len(keys))
	for i, k := range keys {
		pubkeys[i] = k.PublicKey()
		sigs[i] = k.Sign(msg[:])
	}
	sig, err := AggregateSignatures(sigs)
	require.NoError(t, err)

	require.NoError(t, FastAggregateVerify(pubkeys, msg, sig))

	t.Run("missing participant", func(t *testing.T) {
		assert.ErrorIs(t, FastAggregateVerify(pubkeys[1:], msg, sig), ErrInvalidSignature)
	})
	t.Run("other message", func(t *testing.T) {
		other := msg
		other[0] ^= 0x01
		assert.ErrorIs(t, FastAggregateVerify(pubkeys, other, sig), ErrInvalidSignature)
	})
	t.Run("garbage signature", func(t *testing.T) {
		var garbage [SignatureLength]byte
		garbage[0] = 0xff
		assert.ErrorIs(t, FastAggregateVerify(pubkeys, msg, garbage), ErrInvalidSignature)
	})
	t.Run("no participants", func(t *testing.T) {
		assert.ErrorIs(t, FastAggregateVerify(nil, msg, sig), ErrNoPublicKeys)
	})
	t.Run("invalid public key", func(t *testing.T) {
		bad := make([][PublicKeyLength]byte, len(pubkeys))
		copy(bad, pubkeys)
		bad[3] = [PublicKeyLength]byte{0x01}
		assert.ErrorIs(t, FastAggregateVerify(bad, msg, sig), ErrInvalidPublicKey)
	})
}

func TestPublicKeyCache(t *testing.T) {
	pk := testKeys(t, 1)[0].PublicKey()

	first, err := PublicKey(pk)
	require.NoError(t, err)
	second, err := PublicKey(pk)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestAggregatePublicKeys(t *testing.T) {
	keys := testKeys(t, 4)
	pubkeys := make([][PublicKeyLength]byte, len(keys))
	for i, k := range keys {
		pubkeys[i] = k.PublicKey()
	}

	agg, err := AggregatePublicKeys(pubkeys)
	require.NoError(t, err)
	_, err = PublicKey(agg)
	require.NoError(t, err)
	assert.NotEqual(t, pubkeys[0], agg)

	_, err = AggregatePublicKeys(nil)
	assert.ErrorIs(t, err, ErrNoPublicKeys)
}

func TestAggregatePublicKeys_InvalidKey(t *testing.T) {
	pubkeys := [][PublicKeyLength]byte{testKeys(t, 1)[0].PublicKey(), {0x01}}
	_, err := AggregatePublicKeys(pubkeys)
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
}
