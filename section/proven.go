// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package section

import (
	"fmt"

	"github.com/luxfi/routing/bls"
	"github.com/luxfi/routing/wire"
)

// Proof binds a value to the section key that signed it. Key and
// Signature are the compressed curve-point encodings, so Proof is
// directly wire-encodable.
type Proof struct {
	Key       []byte
	Signature []byte
}

// Proven couples a value with the section signature over its canonical
// encoding. A Proven value is only trustworthy once its Key is found
// in a trusted proof chain.
type Proven[T any] struct {
	Value T
	Proof Proof
}

// NewProven couples value with sig, a signature under key over value's
// canonical encoding that the caller has already made. It does not sign
// or verify anything itself.
func NewProven[T any](value T, key *bls.PublicKey, sig *bls.Signature) Proven[T] {
	return Proven[T]{
		Value: value,
		Proof: Proof{Key: key.Bytes(), Signature: sig.Bytes()},
	}
}

// Verify checks the proof signature over the value's canonical
// encoding. It does NOT check that the key is trusted; that is the
// proof chain's job.
func (p Proven[T]) Verify() error {
	key, err := bls.PublicKeyFromBytes(p.Proof.Key)
	if err != nil {
		return fmt.Errorf("section: proof key: %w", err)
	}
	sig, err := bls.SignatureFromBytes(p.Proof.Signature)
	if err != nil {
		return fmt.Errorf("section: proof signature: %w", err)
	}
	data, err := wire.Marshal(p.Value)
	if err != nil {
		return fmt.Errorf("section: encoding proven value: %w", err)
	}
	if !sig.Verify(key, data) {
		return fmt.Errorf("section: proof signature does not verify")
	}
	return nil
}
