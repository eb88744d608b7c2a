// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package sr25519

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/snowfork/go-substrate-rpc-client/v4/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeypairFromSeed(t *testing.T) {
	kp, err := NewKeypairFromSeed("//Alice", SubstrateNetwork)
	require.NoError(t, err)

	id := kp.AccountID()
	assert.Equal(t, signature.TestKeyringPairAlice.PublicKey, id[:])
	assert.Equal(t, signature.TestKeyringPairAlice.Address, kp.Address())
}

func TestResolveKeypair(t *testing.T) {
	file := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(file, []byte("  //Alice\n"), 0o600))

	fromFile, err := ResolveKeypair("", file)
	require.NoError(t, err)
	direct, err := ResolveKeypair("//Alice", "")
	require.NoError(t, err)
	assert.Equal(t, direct.AccountID(), fromFile.AccountID())

	bob, err := ResolveKeypair("//Bob", file)
	require.NoError(t, err)
	assert.NotEqual(t, direct.AccountID(), bob.AccountID())

	_, err = ResolveKeypair("", "")
	require.ErrorIs(t, err, ErrNoKeyURI)
}
