// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package node implements the node lifecycle state machine:
// Bootstrapping → Joining → Approved (Adult or Elder), with
// rebootstrap and relocation, and the single-threaded event loop all
// state mutation happens on.
package node

import (
	"crypto/sha256"
	"fmt"

	"github.com/luxfi/routing/bls"
	"github.com/luxfi/routing/xorname"
)

// Identity is a node's keypair and the overlay name derived from it.
type Identity struct {
	Secret *bls.SecretKey
	Name   xorname.Name
}

// NewIdentity generates a fresh identity.
func NewIdentity() (Identity, error) {
	sk, err := bls.GenerateKey()
	if err != nil {
		return Identity{}, err
	}
	return Identity{Secret: sk, Name: NameOf(sk.PublicKey())}, nil
}

// NewIdentityMatching generates identities until one lands inside
// prefix, for rejoining under a relocation target. The attempt bound
// makes pathological prefixes fail loudly instead of spinning.
func NewIdentityMatching(prefix xorname.Prefix) (Identity, error) {
	const maxAttempts = 1 << 20
	for i := 0; i < maxAttempts; i++ {
		id, err := NewIdentity()
		if err != nil {
			return Identity{}, err
		}
		if prefix.Matches(id.Name) {
			return id, nil
		}
	}
	return Identity{}, fmt.Errorf("node: no identity matching %s after %d attempts", prefix, maxAttempts)
}

// NameOf derives the overlay name from a public key.
func NameOf(pk *bls.PublicKey) xorname.Name {
	return xorname.Name(sha256.Sum256(pk.Bytes()))
}
