// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bls is a thin domain wrapper around the BLS12-381 curve
// operations supplied by github.com/supranational/blst (min-pk:
// public keys in G1, signatures in G2). It performs no curve math of
// its own beyond the Lagrange-interpolation bookkeeping the threshold
// scheme in threshold.go needs on top of it.
package bls

import (
	"crypto/rand"
	"fmt"

	blst "github.com/supranational/blst/bindings/go"
)

// domainSeparationTag is the BLS signature scheme's DST, fixing the
// hash-to-curve domain so signatures made by this module never collide
// with a different protocol's use of the same curve.
var domainSeparationTag = []byte("SAFE-ROUTING-BLS-SIG-V1")

// PublicKey is a BLS public key (a point in G1).
type PublicKey struct {
	point *blst.P1Affine
}

// Bytes returns the compressed encoding of pk.
func (pk *PublicKey) Bytes() []byte {
	return pk.point.Compress()
}

// PublicKeyFromBytes decodes a compressed public key.
func PublicKeyFromBytes(b []byte) (*PublicKey, error) {
	p := new(blst.P1Affine).Uncompress(b)
	if p == nil || !p.KeyValidate() {
		return nil, fmt.Errorf("bls: invalid public key encoding")
	}
	return &PublicKey{point: p}, nil
}

// Signature is a BLS signature (a point in G2).
type Signature struct {
	point *blst.P2Affine
}

// Bytes returns the compressed encoding of sig.
func (sig *Signature) Bytes() []byte {
	return sig.point.Compress()
}

// SignatureFromBytes decodes a compressed signature.
func SignatureFromBytes(b []byte) (*Signature, error) {
	p := new(blst.P2Affine).Uncompress(b)
	if p == nil {
		return nil, fmt.Errorf("bls: invalid signature encoding")
	}
	return &Signature{point: p}, nil
}

// Verify reports whether sig is a valid signature over msg under pk.
func (sig *Signature) Verify(pk *PublicKey, msg []byte) bool {
	return sig.point.Verify(true, pk.point, true, msg, domainSeparationTag)
}

// SecretKey is a BLS secret scalar. Full keys sign node-sourced
// messages and synthesize the single-elder genesis section; elders
// otherwise only ever hold a SecretKeyShare (threshold.go).
type SecretKey struct {
	sk *blst.SecretKey
}

// GenerateKey returns a fresh random secret key.
func GenerateKey() (*SecretKey, error) {
	var ikm [32]byte
	if _, err := rand.Read(ikm[:]); err != nil {
		return nil, fmt.Errorf("bls: generating key material: %w", err)
	}
	sk := blst.KeyGen(ikm[:])
	if sk == nil {
		return nil, fmt.Errorf("bls: key generation failed")
	}
	return &SecretKey{sk: sk}, nil
}

// PublicKey returns the public key corresponding to sk.
func (sk *SecretKey) PublicKey() *PublicKey {
	return &PublicKey{point: new(blst.P1Affine).From(sk.sk)}
}

// Sign signs msg, producing a Signature.
func (sk *SecretKey) Sign(msg []byte) *Signature {
	return &Signature{point: new(blst.P2Affine).Sign(sk.sk, msg, domainSeparationTag)}
}

// Aggregate combines independently-produced signatures (over
// potentially different messages, from potentially different keys)
// into a single aggregate signature. This is the legacy
// multi-signature path kept for pre-threshold peers, not the
// threshold scheme in threshold.go.
func Aggregate(sigs ...*Signature) (*Signature, error) {
	if len(sigs) == 0 {
		return nil, fmt.Errorf("bls: cannot aggregate zero signatures")
	}
	points := make([]*blst.P2Affine, len(sigs))
	for i, s := range sigs {
		points[i] = s.point
	}
	var agg blst.P2Aggregate
	if !agg.Aggregate(points, true) {
		return nil, fmt.Errorf("bls: aggregation failed, invalid signature point")
	}
	return &Signature{point: agg.ToAffine()}, nil
}
