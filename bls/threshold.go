// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bls

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"math/big"
	"sort"

	blst "github.com/supranational/blst/bindings/go"
)

// ErrThresholdFailure is returned by CombineShares when the combined
// signature fails to verify against the set's public key, which means
// a malformed share slipped past per-share validation.
var ErrThresholdFailure = errors.New("bls: combined threshold signature failed to verify")

// fieldOrder is the order of the BLS12-381 scalar field, the modulus
// all Shamir/Lagrange arithmetic is done in.
var fieldOrder, _ = new(big.Int).SetString(
	"73eda753299d7d483339d80809a1d80553bda402fffe5bfeffffffff00000001", 16)

// KeySetID identifies a key set, for keying accumulated shares.
type KeySetID [32]byte

// KeySet is the public half of a threshold key: the section public key
// plus the per-index public key shares elders verify each other's
// signature shares against.
type KeySet struct {
	Threshold int
	Public    *PublicKey
	Shares    []*PublicKey
}

// ID returns a stable identifier for the set, derived from the section
// public key.
func (ks *KeySet) ID() KeySetID {
	return sha256.Sum256(ks.Public.Bytes())
}

// ShareCount returns the total number of key shares dealt.
func (ks *KeySet) ShareCount() int { return len(ks.Shares) }

// PublicShare returns the public key share for the given signer index.
func (ks *KeySet) PublicShare(index uint16) (*PublicKey, error) {
	if int(index) >= len(ks.Shares) {
		return nil, fmt.Errorf("bls: share index %d out of range (%d shares)", index, len(ks.Shares))
	}
	return ks.Shares[index], nil
}

// SecretKeyShare is one signer's share of a threshold secret key.
type SecretKeyShare struct {
	Index uint16
	key   *SecretKey
}

// Sign produces this signer's signature share over msg.
func (s *SecretKeyShare) Sign(msg []byte) *SignatureShare {
	return &SignatureShare{Index: s.Index, Signature: s.key.Sign(msg)}
}

// PublicKey returns the public key share corresponding to this share.
func (s *SecretKeyShare) PublicKey() *PublicKey {
	return s.key.PublicKey()
}

// SignatureShare is one signer's contribution toward a combined
// threshold signature.
type SignatureShare struct {
	Index     uint16
	Signature *Signature
}

// Verify checks the share against the signer's public key share.
func (s *SignatureShare) Verify(ks *KeySet, msg []byte) bool {
	pk, err := ks.PublicShare(s.Index)
	if err != nil {
		return false
	}
	return s.Signature.Verify(pk, msg)
}

// GenerateKeySet deals a fresh threshold key: a random polynomial of
// degree threshold-1 over the scalar field, secret at f(0), share i
// holding f(i+1). This is the trusted-dealer path used for the genesis
// section and for tests; live sections refresh their key set through
// DKG, whose transcript arrives as a decided DkgResult observation.
func GenerateKeySet(threshold, total int) (*KeySet, []*SecretKeyShare, error) {
	if threshold < 1 || threshold > total {
		return nil, nil, fmt.Errorf("bls: invalid threshold %d of %d", threshold, total)
	}

	coeffs := make([]*big.Int, threshold)
	for i := range coeffs {
		c, err := rand.Int(rand.Reader, fieldOrder)
		if err != nil {
			return nil, nil, fmt.Errorf("bls: sampling polynomial coefficient: %w", err)
		}
		coeffs[i] = c
	}
	// A zero secret would make the public key the identity point.
	if coeffs[0].Sign() == 0 {
		coeffs[0].SetUint64(1)
	}

	secret, err := secretFromScalar(coeffs[0])
	if err != nil {
		return nil, nil, err
	}

	shares := make([]*SecretKeyShare, total)
	publicShares := make([]*PublicKey, total)
	for i := 0; i < total; i++ {
		eval := evalPolynomial(coeffs, uint16(i)+1)
		sk, err := secretFromScalar(eval)
		if err != nil {
			return nil, nil, err
		}
		shares[i] = &SecretKeyShare{Index: uint16(i), key: sk}
		publicShares[i] = sk.PublicKey()
	}

	ks := &KeySet{
		Threshold: threshold,
		Public:    secret.PublicKey(),
		Shares:    publicShares,
	}
	return ks, shares, nil
}

// CombineShares Lagrange-interpolates at least Threshold signature
// shares into the section signature and verifies it against the set's
// public key. Extra shares beyond the threshold are ignored.
func CombineShares(ks *KeySet, msg []byte, shares []*SignatureShare) (*Signature, error) {
	if len(shares) < ks.Threshold {
		return nil, fmt.Errorf("bls: %d shares below threshold %d", len(shares), ks.Threshold)
	}

	picked := make([]*SignatureShare, len(shares))
	copy(picked, shares)
	sort.Slice(picked, func(i, j int) bool { return picked[i].Index < picked[j].Index })
	picked = picked[:ks.Threshold]

	// x-coordinates are index+1; index is the dealt share position.
	xs := make([]int64, len(picked))
	for i, s := range picked {
		xs[i] = int64(s.Index) + 1
	}

	points := make(blst.P2Affines, len(picked))
	scalars := make([]*blst.Scalar, len(picked))
	for i, s := range picked {
		points[i] = *s.Signature.point
		coeff := lagrangeCoefficient(xs, i)
		sc, err := scalarFromBig(coeff)
		if err != nil {
			return nil, err
		}
		scalars[i] = sc
	}

	combined := points.Mult(scalars, 255)
	sig := &Signature{point: combined.ToAffine()}
	if !sig.Verify(ks.Public, msg) {
		return nil, ErrThresholdFailure
	}
	return sig, nil
}

// evalPolynomial computes f(x) mod fieldOrder by Horner's rule.
func evalPolynomial(coeffs []*big.Int, x uint16) *big.Int {
	bigX := big.NewInt(int64(x))
	result := new(big.Int)
	for i := len(coeffs) - 1; i >= 0; i-- {
		result.Mul(result, bigX)
		result.Add(result, coeffs[i])
		result.Mod(result, fieldOrder)
	}
	return result
}

// lagrangeCoefficient computes λ_i(0) = Π_{j≠i} x_j / (x_j - x_i)
// over the scalar field.
func lagrangeCoefficient(xs []int64, i int) *big.Int {
	num := big.NewInt(1)
	den := big.NewInt(1)
	xi := big.NewInt(xs[i])
	for j, xj := range xs {
		if j == i {
			continue
		}
		bigXj := big.NewInt(xj)
		num.Mul(num, bigXj)
		num.Mod(num, fieldOrder)
		diff := new(big.Int).Sub(bigXj, xi)
		diff.Mod(diff, fieldOrder)
		den.Mul(den, diff)
		den.Mod(den, fieldOrder)
	}
	den.ModInverse(den, fieldOrder)
	num.Mul(num, den)
	return num.Mod(num, fieldOrder)
}

func scalarFromBig(v *big.Int) (*blst.Scalar, error) {
	var buf [32]byte
	v.FillBytes(buf[:])
	sc := new(blst.Scalar).Deserialize(buf[:])
	if sc == nil {
		return nil, fmt.Errorf("bls: scalar out of field range")
	}
	return sc, nil
}

func secretFromScalar(v *big.Int) (*SecretKey, error) {
	sc, err := scalarFromBig(v)
	if err != nil {
		return nil, err
	}
	return &SecretKey{sk: sc}, nil
}
