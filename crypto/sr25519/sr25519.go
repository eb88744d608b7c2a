// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package sr25519

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/snowfork/go-substrate-rpc-client/v4/signature"
)

// SubstrateNetwork is the ss58 prefix used for printed addresses.
const SubstrateNetwork uint8 = 42

var ErrNoKeyURI = errors.New("key URI not supplied")

// Keypair identifies the caller of an entry point. Only its public key is
// used as the account id.
type Keypair struct {
	keyringPair signature.KeyringPair
}

func NewKeypairFromSeed(seed string, network uint8) (*Keypair, error) {
	kp, err := signature.KeyringPairFromSecret(seed, network)
	if err != nil {
		return nil, err
	}
	return &Keypair{kp}, nil
}

// ResolveKeypair reads a key URI such as //Alice or a seed phrase, either
// given directly or from keyFile.
func ResolveKeypair(uri, keyFile string) (*Keypair, error) {
	if uri == "" {
		if keyFile == "" {
			return nil, ErrNoKeyURI
		}
		content, err := os.ReadFile(keyFile)
		if err != nil {
			return nil, err
		}
		uri = strings.TrimSpace(string(content))
	}

	keypair, err := NewKeypairFromSeed(uri, SubstrateNetwork)
	if err != nil {
		return nil, fmt.Errorf("unable to parse key URI: %w", err)
	}
	return keypair, nil
}

func (kp *Keypair) AccountID() [32]byte {
	var id [32]byte
	copy(id[:], kp.keyringPair.PublicKey)
	return id
}

// Address returns the ss58 formatted address
func (kp *Keypair) Address() string {
	return kp.keyringPair.Address
}
