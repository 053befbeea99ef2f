// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package section

import (
	"bytes"
	"fmt"

	"github.com/luxfi/routing/bls"
)

// Trust is the outcome of checking a message's proof-chain slice
// against our own chain.
type Trust uint8

const (
	// TrustInvalid means the slice is malformed or does not link to
	// any key we trust; the message is dropped.
	TrustInvalid Trust = iota
	// TrustFull means the slice's final key is trusted.
	TrustFull
	// TrustProofTooNew means the slice links forward from a key newer
	// than anything we hold; the message is buffered until the
	// intervening extension arrives.
	TrustProofTooNew
)

func (t Trust) String() string {
	switch t {
	case TrustFull:
		return "full"
	case TrustProofTooNew:
		return "proof-too-new"
	default:
		return "invalid"
	}
}

// Link is one step of the chain: a section key plus the threshold
// signature over it made under the previous key. The genesis link has
// no signature.
type Link struct {
	Key       []byte
	Signature []byte
}

// ProofChain is the append-only sequence of section keys, each signed
// by its predecessor. It authenticates the current section key and
// every historical one back to genesis.
type ProofChain struct {
	links []Link
}

// NewProofChain starts a chain at the genesis key.
func NewProofChain(genesis *bls.PublicKey) *ProofChain {
	return &ProofChain{links: []Link{{Key: genesis.Bytes()}}}
}

// Len returns the number of keys in the chain.
func (c *ProofChain) Len() int { return len(c.links) }

// LastKey returns the newest (current) section key.
func (c *ProofChain) LastKey() ([]byte, *bls.PublicKey, error) {
	raw := c.links[len(c.links)-1].Key
	key, err := bls.PublicKeyFromBytes(raw)
	return raw, key, err
}

// LastKeyBytes returns the newest key's compressed encoding.
func (c *ProofChain) LastKeyBytes() []byte {
	return c.links[len(c.links)-1].Key
}

// KeyAt returns the key at the given chain index.
func (c *ProofChain) KeyAt(index uint64) ([]byte, error) {
	if index >= uint64(len(c.links)) {
		return nil, fmt.Errorf("section: chain index %d out of range (%d keys)", index, len(c.links))
	}
	return c.links[index].Key, nil
}

// IndexOf returns the chain index of the given key, if present.
func (c *ProofChain) IndexOf(key []byte) (uint64, bool) {
	for i, link := range c.links {
		if bytes.Equal(link.Key, key) {
			return uint64(i), true
		}
	}
	return 0, false
}

// HasKey reports whether key appears anywhere in the chain.
func (c *ProofChain) HasKey(key []byte) bool {
	_, ok := c.IndexOf(key)
	return ok
}

// Extend appends newKey, checking that sig is a valid section
// signature over newKey's encoding under the current last key.
func (c *ProofChain) Extend(newKey *bls.PublicKey, sig *bls.Signature) error {
	_, last, err := c.LastKey()
	if err != nil {
		return fmt.Errorf("section: decoding current chain head: %w", err)
	}
	keyBytes := newKey.Bytes()
	if !sig.Verify(last, keyBytes) {
		return fmt.Errorf("section: chain extension not signed by current key")
	}
	c.links = append(c.links, Link{Key: keyBytes, Signature: sig.Bytes()})
	return nil
}

// Slice returns the links from the given index to the head, for
// attaching to an outgoing message as its proof-chain slice. The first
// returned link acts as the slice's trust anchor.
func (c *ProofChain) Slice(from uint64) []Link {
	if from >= uint64(len(c.links)) {
		from = uint64(len(c.links)) - 1
	}
	out := make([]Link, len(c.links)-int(from))
	copy(out, c.links[from:])
	return out
}

// Prune drops links strictly before the given index, re-anchoring the
// chain there. Only acknowledged history may be pruned; the chain
// never truncates from the tail.
func (c *ProofChain) Prune(before uint64) {
	if before == 0 || before >= uint64(len(c.links)) {
		return
	}
	remaining := make([]Link, len(c.links)-int(before))
	copy(remaining, c.links[before:])
	// The new anchor's signature refers to a dropped key.
	remaining[0].Signature = nil
	c.links = remaining
}

// Check classifies a message's proof-chain slice against this chain.
// The slice must be internally linked (each key signed by its
// predecessor). It is fully trusted if any of its keys is one we hold;
// if none is but the slice is well formed, the message may be from our
// future.
func (c *ProofChain) Check(slice []Link) Trust {
	if len(slice) == 0 {
		return TrustInvalid
	}
	if err := verifyLinked(slice); err != nil {
		return TrustInvalid
	}
	// Trusted if any key in the slice is a key we hold; the remaining
	// links extend trust forward to the slice head.
	for _, link := range slice {
		if c.HasKey(link.Key) {
			return TrustFull
		}
	}
	return TrustProofTooNew
}

func verifyLinked(slice []Link) error {
	for i := 1; i < len(slice); i++ {
		prev, err := bls.PublicKeyFromBytes(slice[i-1].Key)
		if err != nil {
			return fmt.Errorf("section: slice key %d: %w", i-1, err)
		}
		sig, err := bls.SignatureFromBytes(slice[i].Signature)
		if err != nil {
			return fmt.Errorf("section: slice signature %d: %w", i, err)
		}
		if !sig.Verify(prev, slice[i].Key) {
			return fmt.Errorf("section: slice link %d does not verify", i)
		}
	}
	return nil
}
